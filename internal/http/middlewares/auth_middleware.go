package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// OptionalAuth lets anonymous requests through, but a request that does carry
// an Authorization header must carry a valid bearer token.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		if !m.authenticate(c) {
			return
		}

		c.Next()
	}
}

// RequireAuth rejects requests without a valid bearer token. It is a no-op
// when an earlier OptionalAuth already resolved the caller.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if email, ok := EmailFromContext(c); ok && email != "" {
			c.Next()
			return
		}

		if c.GetHeader("Authorization") == "" {
			abortUnauthorized(c, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		if !m.authenticate(c) {
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		abortUnauthorized(c, "unauthorized", "Missing or invalid Authorization header")
		return false
	}

	raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if raw == "" {
		abortUnauthorized(c, "unauthorized", "Missing or invalid access token")
		return false
	}

	claims, err := m.jwt.VerifyAccessToken(raw)
	if err != nil {
		code, msg := tokenErrorCode(err)
		abortUnauthorized(c, code, msg)
		return false
	}

	// Stash useful bits of identity on both contexts
	c.Set(CtxEmail, claims.Email())
	c.Set(CtxRole, claims.Role)
	c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actorctx.Actor{
		Email: claims.Email(),
		Role:  claims.Role,
	}))

	return true
}

func tokenErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token_expired", "Access token has expired"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "token_malformed", "Access token is malformed"
	case errors.Is(err, auth.ErrTokenSignature):
		return "token_invalid_signature", "Access token signature is invalid"
	default:
		return "token_invalid", "Invalid access token"
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": c.GetString(CtxRequestID),
		},
	})
}

// Optional helpers so handlers don’t need to know the magic keys.

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxEmail)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}

func RoleFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxRole)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
