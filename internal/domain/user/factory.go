package user

import (
	"time"

	"github.com/google/uuid"
)

// NewFromDTO builds a fresh user. Any id on the DTO is ignored.
func NewFromDTO(dto DTO, passwordHash string) User {
	now := time.Now().UTC()

	u := User{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	Apply(&u, dto, passwordHash)

	return u
}
