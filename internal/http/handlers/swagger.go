package handlers

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed docs/index.html docs/openapi.yaml
var docsFS embed.FS

// SwaggerUI serves the interactive API docs page.
func SwaggerUI(ctx *gin.Context) {
	serveDoc(ctx, "docs/index.html", "text/html; charset=utf-8")
}

func OpenAPISpec(ctx *gin.Context) {
	serveDoc(ctx, "docs/openapi.yaml", "application/yaml")
}

func serveDoc(ctx *gin.Context, name, contentType string) {
	b, err := docsFS.ReadFile(name)
	if err != nil {
		RespondNotFound(ctx, "Document not found")
		return
	}

	ctx.Data(http.StatusOK, contentType, b)
}
