package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/userhub/internal/domain/user"
)

const BearerPrefix = "Bearer "

var ErrInvalidCredentials = errors.New("invalid email or password")

type TokenIssuer interface {
	GenerateAccessToken(email, role string) (string, error)
}

// AuthRecorder receives one result label per Authenticate call.
type AuthRecorder interface {
	ObserveAuth(result string)
}

type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type AuthService struct {
	users    CredentialStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	recorder AuthRecorder
	log      *slog.Logger

	// compared against when the email is unknown so both failure paths cost one bcrypt check
	dummyHash string
}

func NewAuthService(users CredentialStore, hasher PasswordHasher, tokens TokenIssuer, recorder AuthRecorder, log *slog.Logger) (*AuthService, error) {
	if log == nil {
		log = slog.Default()
	}

	dummy, err := hasher.Hash("userhub-timing-equalizer")
	if err != nil {
		return nil, err
	}

	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		recorder:  recorder,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// Authenticate checks the credentials and returns "Bearer <token>".
func (s *AuthService) Authenticate(ctx context.Context, req user.AuthRequest) (string, error) {
	found, err := s.users.GetByEmail(ctx, req.Email)

	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.record("error")
			return "", err
		}

		s.hasher.Verify(req.Password, s.dummyHash)
		return "", s.reject(ctx, req.Email, "unknown_email")
	}

	if !s.hasher.Verify(req.Password, found.PasswordHash) {
		return "", s.reject(ctx, req.Email, "wrong_password")
	}

	if found.Status != user.StatusActive {
		return "", s.reject(ctx, req.Email, "inactive")
	}

	token, err := s.tokens.GenerateAccessToken(found.Email, string(found.Role))
	if err != nil {
		s.record("error")
		return "", err
	}

	s.record("success")
	s.log.InfoContext(ctx, "user_authenticated", "user_id", found.ID)

	return BearerPrefix + token, nil
}

func (s *AuthService) reject(ctx context.Context, email, reason string) error {
	s.record("invalid_credentials")
	s.log.InfoContext(ctx, "authentication_rejected", "email", email, "reason", reason)
	return ErrInvalidCredentials
}

func (s *AuthService) record(result string) {
	if s.recorder != nil {
		s.recorder.ObserveAuth(result)
	}
}
