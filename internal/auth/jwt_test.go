package auth_test

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/userhub/internal/auth"
	"github.com/golang-jwt/jwt/v5"
)

func TestManager_IssueAndVerifyRoundTrip(t *testing.T) {
	m := auth.NewManager("test-secret-key", time.Hour)

	raw, err := m.GenerateAccessToken("user@example.com", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.VerifyAccessToken(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.Email() != "user@example.com" {
		t.Fatalf("got subject %q, want user@example.com", claims.Email())
	}
	if claims.Role != "user" {
		t.Fatalf("got role %q, want user", claims.Role)
	}
	if claims.JTI == "" {
		t.Fatalf("expected a jti")
	}
}

func TestManager_RejectsAfterExpiry(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := issuedAt

	m := auth.NewManager("test-secret-key", 10*time.Minute, auth.WithClock(func() time.Time { return clock }))

	raw, err := m.GenerateAccessToken("user@example.com", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	clock = issuedAt.Add(9 * time.Minute)
	if _, err := m.VerifyAccessToken(raw); err != nil {
		t.Fatalf("token should still be valid inside its window: %v", err)
	}

	clock = issuedAt.Add(11 * time.Minute)
	_, err = m.VerifyAccessToken(raw)
	if !errors.Is(err, auth.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestManager_DistinctFailureKinds(t *testing.T) {
	m := auth.NewManager("test-secret-key", time.Hour)
	other := auth.NewManager("another-secret", time.Hour)

	foreign, err := other.GenerateAccessToken("user@example.com", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	good, err := m.GenerateAccessToken("user@example.com", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	parts := strings.Split(good, ".")
	forged := fmt.Sprintf(`{"sub":"admin@example.com","role":"admin","typ":"access","exp":%d}`, time.Now().Add(time.Hour).Unix())
	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(forged)) + "." + parts[2]

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user@example.com",
		"typ": "access",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "garbage", token: "not-a-token", want: auth.ErrTokenMalformed},
		{name: "empty", token: "", want: auth.ErrTokenMalformed},
		{name: "wrong_secret", token: foreign, want: auth.ErrTokenSignature},
		{name: "tampered_payload", token: tampered, want: auth.ErrTokenSignature},
		{name: "alg_none", token: noneToken, want: auth.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.VerifyAccessToken(tt.token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestManager_RejectsWrongTokenType(t *testing.T) {
	secret := "test-secret-key"
	m := auth.NewManager(secret, time.Hour)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.VerifyAccessToken(raw); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestManager_ConcurrentUse(t *testing.T) {
	m := auth.NewManager("test-secret-key", time.Hour)

	var wg sync.WaitGroup
	errs := make(chan error, 32)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, err := m.GenerateAccessToken("user@example.com", "admin")
			if err != nil {
				errs <- err
				return
			}
			if _, err := m.VerifyAccessToken(raw); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent issue/verify failed: %v", err)
	}
}
