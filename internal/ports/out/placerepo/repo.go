package placerepo

import (
	"context"
	"time"

	"github.com/placesapp/places-api/internal/domain"
)

// Place is the persistence shape used by the place repository.
// It is not an HTTP DTO.
type Place struct {
	ID        domain.PlaceID
	Name      string
	Latitude  float64
	Longitude float64
	UserID    domain.SubjectID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPlace is what Create persists; the store assigns the id.
type NewPlace struct {
	Name      string
	Latitude  float64
	Longitude float64
	UserID    domain.SubjectID
	CreatedAt time.Time
}

// Patch carries the mutable columns. Nil fields are left untouched; the owner is not patchable.
type Patch struct {
	Name      *string
	Latitude  *float64
	Longitude *float64
	UpdatedAt time.Time
}

// Repository provides access to persisted places.
//
// FetchAll returns places ordered by ID ascending. FetchByID returns ErrNotFound when no row matches.
// Update and Delete return ErrNotFound when no row was affected.
type Repository interface {
	FetchAll(ctx context.Context) ([]Place, error)
	FetchByID(ctx context.Context, id domain.PlaceID) (Place, error)

	Create(ctx context.Context, p NewPlace) (domain.PlaceID, error)
	Update(ctx context.Context, id domain.PlaceID, patch Patch) (domain.MutationStatus, error)
	Delete(ctx context.Context, id domain.PlaceID) (domain.MutationStatus, error)
}
