package users

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

// Credentials is the name/password pair used by Register and Login.
type Credentials struct {
	Name     string
	Password string
}

// UpdateUserInput patches a user. A new password is hashed before it is stored.
type UpdateUserInput struct {
	Name     Optional[string]
	Password Optional[string]
}

// Session is a user together with a freshly issued bearer token.
type Session struct {
	User  domain.User
	Token string
}
