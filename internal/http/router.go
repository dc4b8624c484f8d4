package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router needs, built in cmd/api.
type Deps struct {
	Config  config.Config
	Log     *slog.Logger
	Users   handlers.UserService
	Auth    handlers.Authenticator
	Tokens  middlewares.TokenVerifier
	Prom    *observability.Prom
	Readies map[string]handlers.Pinger
	// Draining reports whether graceful shutdown has begun.
	Draining func() bool
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if d.Config.OTelEnabled {
		r.Use(otelgin.Middleware("userhub"))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders(d.Config.Env))
	r.Use(middlewares.CORSMiddleware(d.Config.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(d.Readies, d.Draining)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Prom != nil {
		r.GET("/metrics", gin.WrapH(d.Prom.Handler()))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authMW := middlewares.NewAuthMiddleware(d.Tokens)
	limiter := middlewares.NewRateLimiter(d.Config.AuthRateLimit, time.Minute)

	usersHandler := handlers.NewUsersHandler(d.Users)
	authHandler := handlers.NewAuthHandler(d.Auth)

	users := r.Group("/api/users")
	users.Use(middlewares.RequireJSON())

	// login never looks at the Authorization header
	users.POST("/authenticate", limiter.Middleware(middlewares.KeyByIP), authHandler.Authenticate)

	api := users.Group("")
	api.Use(authMW.OptionalAuth())

	// everything below is open unless AUTH_REQUIRED tightens it
	protected := api.Group("")
	deleteGuards := []gin.HandlerFunc{}
	if d.Config.AuthRequired {
		protected.Use(authMW.RequireAuth())
		deleteGuards = append(deleteGuards, middlewares.RequireRole(string(user.RoleAdmin)))
	}

	protected.GET("", usersHandler.ListUsers)
	protected.POST("", usersHandler.CreateUser)
	protected.POST("/email", usersHandler.FindByEmail)
	protected.GET("/:id", usersHandler.GetUserByID)
	protected.PUT("/:id", usersHandler.UpdateUser)
	protected.DELETE("/:id", append(deleteGuards, usersHandler.DeleteUser)...)

	return r
}
