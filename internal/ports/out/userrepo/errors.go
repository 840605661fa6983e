package userrepo

import "errors"

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrNameTaken indicates another user already uses the name.
	ErrNameTaken = errors.New("user name already taken")
)
