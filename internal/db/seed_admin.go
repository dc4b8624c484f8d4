package db

import (
	"context"
	"errors"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
)

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// EnsureAdminUser creates the configured admin account unless one with that
// email already exists. Returns false when nothing was created.
func EnsureAdminUser(ctx context.Context, store AdminStore, hasher PasswordHasher, cfg config.Config) (bool, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	// check if the user exists
	_, err := store.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)

	if err != nil {
		return false, err
	}

	u := user.NewFromDTO(user.DTO{
		Name:   cfg.AdminName,
		Email:  cfg.AdminEmail,
		Status: user.StatusActive,
		Role:   user.RoleAdmin,
	}, hash)

	_, err = store.Create(ctx, u)

	if errors.Is(err, user.ErrEmailTaken) {
		// another instance won the race
		return false, nil
	}

	return err == nil, err
}
