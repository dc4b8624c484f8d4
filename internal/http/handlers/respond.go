package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/geocoder89/userhub/internal/services"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors is the single place domain errors turn into HTTP responses.
var serviceErrors = []errorMapping{
	{user.ErrNotFound, http.StatusNotFound, "not_found", "User not found"},
	{user.ErrEmailTaken, http.StatusConflict, "email_taken", "Email is already in use"},
	{user.ErrIntegrity, http.StatusConflict, "integrity_violation", "User is still referenced and cannot be deleted"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect"},
	{services.ErrInvalidPagination, http.StatusBadRequest, "invalid_request", services.ErrInvalidPagination.Error()},
	{security.ErrPasswordTooLong, http.StatusBadRequest, "invalid_request", security.ErrPasswordTooLong.Error()},
}

// RespondServiceError maps err through serviceErrors. Anything unknown is
// logged and answered with a generic 500; internal error text never leaves the process.
func RespondServiceError(ctx *gin.Context, err error, fallback string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			RespondError(ctx, m.status, m.code, m.message, nil)
			return
		}
	}

	_ = ctx.Error(err)
	slog.Default().ErrorContext(ctx.Request.Context(), "request_failed",
		"route", ctx.FullPath(),
		"err", err,
	)
	RespondInternal(ctx, fallback)
}
