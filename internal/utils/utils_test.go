package utils_test

import (
	"testing"

	"github.com/geocoder89/userhub/internal/utils"
)

func TestIsUUID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{in: "7a1c2f0e-4b1d-4a57-9a57-2d0c7b7f8e11", want: true},
		{in: "7A1C2F0E-4B1D-4A57-9A57-2D0C7B7F8E11", want: true},
		{in: "{7a1c2f0e-4b1d-4a57-9a57-2d0c7b7f8e11}", want: false},
		{in: "7a1c2f0e4b1d4a579a572d0c7b7f8e11", want: false},
		{in: "42", want: false},
		{in: "", want: false},
	}

	for _, tt := range tests {
		if got := utils.IsUUID(tt.in); got != tt.want {
			t.Errorf("IsUUID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildUserCacheKey_Normalizes(t *testing.T) {
	a := utils.BuildUserCacheKey(" 7A1C2F0E-4B1D-4A57-9A57-2D0C7B7F8E11 ")
	b := utils.BuildUserCacheKey("7a1c2f0e-4b1d-4a57-9a57-2d0c7b7f8e11")

	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
}
