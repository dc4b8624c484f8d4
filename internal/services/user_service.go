package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/cache"
	"github.com/geocoder89/userhub/internal/domain/user"
)

const (
	DefaultPageSize = 3
	MaxPageSize     = 100
)

var ErrInvalidPagination = errors.New("page must be >= 0 and size between 1 and 100")

type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Search(ctx context.Context, filter user.SearchFilter) ([]user.User, int, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, id string, fn func(*user.User) error) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type UserService struct {
	store  UserStore
	hasher PasswordHasher
	cache  cache.Users
	log    *slog.Logger
}

// NewUserService wires the user business rules. users may be nil to disable caching.
func NewUserService(store UserStore, hasher PasswordHasher, users cache.Users, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}

	return &UserService{
		store:  store,
		hasher: hasher,
		cache:  users,
		log:    log,
	}
}

// Create hashes the password and stores a brand new user. Any id on the DTO is ignored.
func (s *UserService) Create(ctx context.Context, dto user.DTO) (user.DTO, error) {
	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return user.DTO{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.Create(ctx, user.NewFromDTO(dto, hash))
	if err != nil {
		return user.DTO{}, err
	}

	s.log.InfoContext(ctx, "user_created", "user_id", u.ID, "actor", actorctx.EmailOr(ctx, "anonymous"))

	return user.ToDTO(u), nil
}

// Update replaces every mutable field. The password is always re-hashed,
// even when it did not change.
func (s *UserService) Update(ctx context.Context, id string, dto user.DTO) (user.DTO, error) {
	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return user.DTO{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.Update(ctx, id, func(u *user.User) error {
		user.Apply(u, dto, hash)
		return nil
	})
	if err != nil {
		return user.DTO{}, err
	}

	s.invalidate(ctx, id)
	s.log.InfoContext(ctx, "user_updated", "user_id", id, "actor", actorctx.EmailOr(ctx, "anonymous"))

	return user.ToDTO(u), nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)

	if err != nil {
		if errors.Is(err, user.ErrIntegrity) {
			s.log.WarnContext(ctx, "user_delete_blocked", "user_id", id, "err", err)
		}
		return err
	}

	s.invalidate(ctx, id)
	s.log.InfoContext(ctx, "user_deleted", "user_id", id, "actor", actorctx.EmailOr(ctx, "anonymous"))

	return nil
}

func (s *UserService) FindByID(ctx context.Context, id string) (user.DTO, error) {
	if s.cache != nil {
		if dto, ok := s.cache.Get(ctx, id); ok {
			return dto, nil
		}
	}

	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return user.DTO{}, err
	}

	dto := user.ToDTO(u)

	if s.cache != nil {
		s.cache.Set(ctx, dto)
	}

	return dto, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (user.DTO, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return user.DTO{}, err
	}

	return user.ToDTO(u), nil
}

// List pages all users, or only those whose name contains name
// (case-insensitive) when name is non-nil.
func (s *UserService) List(ctx context.Context, name *string, page, size int) (user.Page, error) {
	if page < 0 || size < 1 || size > MaxPageSize {
		return user.Page{}, ErrInvalidPagination
	}

	items, total, err := s.store.Search(ctx, user.SearchFilter{Name: name, Page: page, Size: size})
	if err != nil {
		return user.Page{}, err
	}

	return user.NewPage(user.ToDTOs(items), page, size, total), nil
}

func (s *UserService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}
