package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Authenticate(ctx context.Context, req user.AuthRequest) (string, error)
}

type AuthHandler struct {
	auth Authenticator
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Authenticate answers with the bare JSON string "Bearer <token>".
func (h *AuthHandler) Authenticate(ctx *gin.Context) {
	var req user.AuthRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt plus one lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	token, err := h.auth.Authenticate(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not authenticate")
		return
	}

	ctx.JSON(http.StatusOK, token)
}
