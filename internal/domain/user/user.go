package user

import (
	"errors"
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
	// delete blocked by a foreign key or other constraint
	ErrIntegrity = errors.New("user is referenced by other records")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Status       Status    `json:"status"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DTO is the external shape of a user. Password is write-only: it carries the
// cleartext credential on create/update and is always blank on the way out.
type DTO struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name" binding:"required,max=120"`
	Email     string    `json:"email" binding:"required,email,max=254"`
	Password  string    `json:"password,omitempty" binding:"required,min=6,maxbytes=72"`
	Status    Status    `json:"status" binding:"required,oneof=active inactive"`
	Role      Role      `json:"role" binding:"required,oneof=admin user"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

type AuthRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,maxbytes=72"`
}

type EmailLookup struct {
	Email string `json:"email" binding:"required,email"`
}

// with pointers if optional, it will be nil
type SearchFilter struct {
	Name *string
	Page int
	Size int
}

func (f SearchFilter) Offset() int {
	return f.Page * f.Size
}

type Page struct {
	Users       []DTO `json:"users"`
	CurrentPage int   `json:"currentPage"`
	TotalItems  int   `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

func NewPage(users []DTO, page, size, total int) Page {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}

	return Page{
		Users:       users,
		CurrentPage: page,
		TotalItems:  total,
		TotalPages:  pages,
	}
}
