package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/services"
	"github.com/geocoder89/userhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Create(ctx context.Context, dto user.DTO) (user.DTO, error)
	Update(ctx context.Context, id string, dto user.DTO) (user.DTO, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (user.DTO, error)
	FindByEmail(ctx context.Context, email string) (user.DTO, error)
	List(ctx context.Context, name *string, page, size int) (user.Page, error)
}

type UsersHandler struct {
	users UserService
}

func NewUsersHandler(users UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

const (
	readTimeout  = 2 * time.Second
	writeTimeout = 3 * time.Second
)

// ListUsers pages users, optionally filtered by a name substring.
// An empty page answers 204.
func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	page, ok := queryInt(ctx, "page", 0)
	if !ok {
		return
	}

	size, ok := queryInt(ctx, "size", services.DefaultPageSize)
	if !ok {
		return
	}

	if page < 0 || size < 1 {
		RespondBadRequest(ctx, services.ErrInvalidPagination.Error(), gin.H{"page": page, "size": size})
		return
	}
	if size > services.MaxPageSize {
		size = services.MaxPageSize
	}

	var name *string
	if raw, present := ctx.GetQuery("name"); present && strings.TrimSpace(raw) != "" {
		trimmed := strings.TrimSpace(raw)
		name = &trimmed
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), readTimeout)
	defer cancel()

	result, err := h.users.List(cctx, name, page, size)
	if err != nil {
		RespondServiceError(ctx, err, "Could not list users")
		return
	}

	if len(result.Users) == 0 {
		ctx.Status(http.StatusNoContent)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (h *UsersHandler) GetUserByID(ctx *gin.Context) {
	id, ok := pathUUID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), readTimeout)
	defer cancel()

	u, err := h.users.FindByID(cctx, id)
	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch user")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u)
}

func (h *UsersHandler) FindByEmail(ctx *gin.Context) {
	var req user.EmailLookup

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), readTimeout)
	defer cancel()

	u, err := h.users.FindByEmail(cctx, req.Email)
	if err != nil {
		RespondServiceError(ctx, err, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.DTO

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), writeTimeout)
	defer cancel()

	u, err := h.users.Create(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id, ok := pathUUID(ctx)
	if !ok {
		return
	}

	var req user.DTO

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), writeTimeout)
	defer cancel()

	u, err := h.users.Update(cctx, id, req)
	if err != nil {
		RespondServiceError(ctx, err, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := pathUUID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), writeTimeout)
	defer cancel()

	if err := h.users.Delete(cctx, id); err != nil {
		RespondServiceError(ctx, err, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func pathUUID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid user id", gin.H{"id": "must be a UUID"})
		return "", false
	}

	return id, true
}

func queryInt(ctx *gin.Context, key string, fallback int) (int, bool) {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return fallback, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		RespondBadRequest(ctx, "Invalid query parameter", gin.H{key: "must be an integer"})
		return 0, false
	}

	return n, true
}
