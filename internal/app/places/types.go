package places

import "github.com/placesapp/places-api/internal/domain"

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// CreatePlaceInput is the canonical creation payload. UserID is the owner the client asserts;
// it must match the authenticated caller. Coordinates are required.
type CreatePlaceInput struct {
	Name      string
	Latitude  Optional[float64]
	Longitude Optional[float64]
	UserID    domain.SubjectID
}

// UpdatePlaceInput patches a place. None of the fields may be null; the owner cannot be changed.
type UpdatePlaceInput struct {
	Name      Optional[string]
	Latitude  Optional[float64]
	Longitude Optional[float64]
}
