package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/geocoder89/userhub/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashIsSaltedAndVerifiable(t *testing.T) {
	h := security.NewHasher(bcrypt.MinCost)

	first, err := h.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	second, err := h.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if first == "s3cret-pass" {
		t.Fatalf("hash must not equal the cleartext")
	}

	if first == second {
		t.Fatalf("two hashes of the same password should differ, got %q twice", first)
	}

	if !h.Verify("s3cret-pass", first) || !h.Verify("s3cret-pass", second) {
		t.Fatalf("verify should accept the original password for both hashes")
	}
}

func TestHasher_VerifyRejectsWrongPassword(t *testing.T) {
	h := security.NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	tests := []struct {
		name  string
		plain string
		hash  string
	}{
		{name: "wrong_password", plain: "battery staple", hash: hash},
		{name: "empty_password", plain: "", hash: hash},
		{name: "garbage_hash", plain: "correct horse", hash: "not-a-bcrypt-hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if h.Verify(tt.plain, tt.hash) {
				t.Fatalf("verify(%q) should fail", tt.plain)
			}
		})
	}
}

func TestCheckPassword_MismatchSentinel(t *testing.T) {
	hash, err := security.NewHasher(bcrypt.MinCost).Hash("abcdef")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if err := security.CheckPassword(hash, "abcdeg"); !errors.Is(err, security.ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	if err := security.CheckPassword(hash, "abcdef"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	h := security.NewHasher(99)

	hash, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}

	if cost != bcrypt.DefaultCost {
		t.Fatalf("got cost %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestHasher_RejectsPasswordsOverByteLimit(t *testing.T) {
	h := security.NewHasher(bcrypt.MinCost)

	tests := []struct {
		name    string
		plain   string
		wantErr error
	}{
		{name: "ascii_at_limit", plain: strings.Repeat("a", 72)},
		{name: "ascii_over_limit", plain: strings.Repeat("a", 73), wantErr: security.ErrPasswordTooLong},
		{name: "multibyte_36_runes", plain: strings.Repeat("é", 36)},
		{name: "multibyte_40_runes", plain: strings.Repeat("é", 40), wantErr: security.ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Hash(tt.plain)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got err %v, want %v", err, tt.wantErr)
			}
		})
	}
}
