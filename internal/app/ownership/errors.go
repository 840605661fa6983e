package ownership

import (
	"errors"
	"fmt"
	"net/http"
)

// Stage names a step of the mutation flow. A failed flow reports the stage it stopped at.
type Stage string

const (
	StageVerified        Stage = "verified"
	StageFetchedExisting Stage = "fetched_existing"
	StageAuthorized      Stage = "authorized"
	StagePersisted       Stage = "persisted"
	StageRefetched       Stage = "refetched"
)

// Kind classifies a failure independently of the status it is rendered with.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "notFound"
	KindStoreError   Kind = "storeError"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
)

// Error codes rendered in the response body.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeStoreError   = "STORE_ERROR"
	CodeValidation   = "VALIDATION_ERROR"
	CodeKeyReuse     = "IDEMPOTENCY_KEY_REUSE"
)

// Error is an application-layer error that can be mapped to an HTTP response.
// Read operations report the same Kinds with an empty Stage.
//
// Status mapping (kept for wire compatibility; store errors share 404 with not-found):
//
//	unauthorized  401 (no credential) / 403 (invalid credential or owner mismatch)
//	notFound      404
//	storeError    404
//	validation    400
//	conflict      409 (idempotency key reuse)
//
// Err holds the underlying cause for logs. It is never rendered.
type Error struct {
	Kind    Kind
	Stage   Stage
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	where := string(e.Kind)
	if e.Stage != "" {
		where += " at " + string(e.Stage)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", where, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError builds a 400 for payload problems detected between authorization and persistence.
func NewValidationError(message string, details map[string]any) *Error {
	return &Error{
		Kind:    KindValidation,
		Stage:   StageAuthorized,
		Status:  http.StatusBadRequest,
		Code:    CodeValidation,
		Message: message,
		Details: details,
	}
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}
