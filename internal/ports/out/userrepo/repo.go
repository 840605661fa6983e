package userrepo

import (
	"context"
	"time"

	"github.com/placesapp/places-api/internal/domain"
)

// User is the persistence shape used by the user repository.
type User struct {
	ID           domain.UserID
	Name         string
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser is what Create persists; the store assigns the id.
type NewUser struct {
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Patch carries the mutable columns. Nil fields are left untouched.
type Patch struct {
	Name         *string
	PasswordHash *string
	UpdatedAt    time.Time
}

// Repository provides access to persisted users.
//
// Names are unique (exact match); Create and Update return ErrNameTaken on collision.
// Lookups return ErrNotFound when no row matches, as do Update and Delete when no row was affected.
type Repository interface {
	FetchAll(ctx context.Context) ([]User, error)
	FetchByID(ctx context.Context, id domain.UserID) (User, error)
	FetchByName(ctx context.Context, name string) (User, error)

	Create(ctx context.Context, u NewUser) (domain.UserID, error)
	Update(ctx context.Context, id domain.UserID, patch Patch) (domain.MutationStatus, error)
	Delete(ctx context.Context, id domain.UserID) (domain.MutationStatus, error)
}
