// Package ownership runs mutations that must be performed by the owner of the affected record.
//
// Every mutation walks the same stages in order and stops at the first failure:
//
//	create:        verified -> authorized -> persisted -> refetched
//	update:        verified -> fetched_existing -> authorized -> persisted -> refetched
//	delete:        verified -> fetched_existing -> authorized -> persisted
//
// No store call is issued before the caller is verified, and nothing is persisted before the caller is
// authorized. Update and delete read the owner from the stored record on every call.
package ownership

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/placesapp/places-api/internal/app/authz"
	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/platform/auth/credential"
)

// Observer receives failure counts. *metrics.Metrics implements it.
type Observer interface {
	ObserveOwnershipFailure(kind, stage string)
}

// Flow holds what is common to all mutations of one resource type.
type Flow struct {
	resource   string
	isNotFound func(error) bool
	log        *slog.Logger
	obs        Observer
}

// New returns a Flow for resource (used in messages and logs). isNotFound recognizes the store's
// not-found sentinel so it can be told apart from other store failures.
func New(resource string, isNotFound func(error) bool, log *slog.Logger, obs Observer) *Flow {
	if log == nil {
		log = slog.Default()
	}
	return &Flow{
		resource:   resource,
		isNotFound: isNotFound,
		log:        log.With("resource", resource),
		obs:        obs,
	}
}

// CreateSteps describes a creation. Owner is the owner declared by the payload.
type CreateSteps[ID any, R any] struct {
	Owner    domain.SubjectID
	Validate func() error
	Persist  func(ctx context.Context) (ID, error)
	Refetch  func(ctx context.Context, id ID) (R, error)
}

// UpdateSteps describes an update of the record identified by ID. Valid=false short-circuits to
// not-found without touching the store.
type UpdateSteps[R any] struct {
	ID       any
	Valid    bool
	Fetch    func(ctx context.Context) (R, error)
	OwnerOf  func(R) domain.SubjectID
	Validate func(existing R) error
	Persist  func(ctx context.Context) (domain.MutationStatus, error)
	Refetch  func(ctx context.Context) (R, error)
}

// DeleteSteps describes a deletion of the record identified by ID.
type DeleteSteps[R any] struct {
	ID      any
	Valid   bool
	Fetch   func(ctx context.Context) (R, error)
	OwnerOf func(R) domain.SubjectID
	Persist func(ctx context.Context) (domain.MutationStatus, error)
}

// Deleted is the result of a deletion: the store's status plus the record as it was before deletion.
type Deleted[R any] struct {
	Status domain.MutationStatus
	Record R
}

func Create[ID any, R any](ctx context.Context, f *Flow, v credential.Verification, s CreateSteps[ID, R]) (R, error) {
	var zero R
	if err := f.verify(ctx, v); err != nil {
		return zero, err
	}
	if err := f.authorize(ctx, v, s.Owner); err != nil {
		return zero, err
	}
	if err := f.validate(ctx, v, s.Validate); err != nil {
		return zero, err
	}
	id, err := s.Persist(ctx)
	if err != nil {
		return zero, f.storeFailure(ctx, v, StagePersisted, nil, err)
	}
	out, err := s.Refetch(ctx, id)
	if err != nil {
		return zero, f.storeFailure(ctx, v, StageRefetched, id, err)
	}
	return out, nil
}

func Update[R any](ctx context.Context, f *Flow, v credential.Verification, s UpdateSteps[R]) (R, error) {
	var zero R
	if err := f.verify(ctx, v); err != nil {
		return zero, err
	}
	existing, err := fetchExisting(ctx, f, v, s.ID, s.Valid, s.Fetch)
	if err != nil {
		return zero, err
	}
	if err := f.authorize(ctx, v, s.OwnerOf(existing)); err != nil {
		return zero, err
	}
	if s.Validate != nil {
		if err := f.validate(ctx, v, func() error { return s.Validate(existing) }); err != nil {
			return zero, err
		}
	}
	if _, err := s.Persist(ctx); err != nil {
		return zero, f.storeFailure(ctx, v, StagePersisted, s.ID, err)
	}
	out, err := s.Refetch(ctx)
	if err != nil {
		return zero, f.storeFailure(ctx, v, StageRefetched, s.ID, err)
	}
	return out, nil
}

func Delete[R any](ctx context.Context, f *Flow, v credential.Verification, s DeleteSteps[R]) (Deleted[R], error) {
	if err := f.verify(ctx, v); err != nil {
		return Deleted[R]{}, err
	}
	existing, err := fetchExisting(ctx, f, v, s.ID, s.Valid, s.Fetch)
	if err != nil {
		return Deleted[R]{}, err
	}
	if err := f.authorize(ctx, v, s.OwnerOf(existing)); err != nil {
		return Deleted[R]{}, err
	}
	st, err := s.Persist(ctx)
	if err != nil {
		return Deleted[R]{}, f.storeFailure(ctx, v, StagePersisted, s.ID, err)
	}
	return Deleted[R]{Status: st, Record: existing}, nil
}

func (f *Flow) verify(ctx context.Context, v credential.Verification) error {
	if v.IsAuthenticated() {
		return nil
	}
	d := authz.Authorize(v, "")
	return f.fail(ctx, v, &Error{
		Kind:    KindUnauthorized,
		Stage:   StageVerified,
		Status:  d.Status,
		Code:    CodeUnauthorized,
		Message: "Not Authorized",
	})
}

func fetchExisting[R any](ctx context.Context, f *Flow, v credential.Verification, id any, valid bool, fetch func(context.Context) (R, error)) (R, error) {
	var zero R
	if !valid {
		return zero, f.fail(ctx, v, f.notFound(StageFetchedExisting, id, nil))
	}
	existing, err := fetch(ctx)
	if err != nil {
		return zero, f.storeFailure(ctx, v, StageFetchedExisting, id, err)
	}
	return existing, nil
}

func (f *Flow) authorize(ctx context.Context, v credential.Verification, owner domain.SubjectID) error {
	d := authz.Authorize(v, owner)
	if d.Allowed {
		return nil
	}
	return f.fail(ctx, v, &Error{
		Kind:    KindUnauthorized,
		Stage:   StageAuthorized,
		Status:  d.Status,
		Code:    CodeUnauthorized,
		Message: "Not Authorized",
	})
}

func (f *Flow) validate(ctx context.Context, v credential.Verification, validate func() error) error {
	if validate == nil {
		return nil
	}
	err := validate()
	if err == nil {
		return nil
	}
	oe, ok := AsError(err)
	if !ok {
		oe = NewValidationError(err.Error(), nil)
	}
	return f.fail(ctx, v, oe)
}

func (f *Flow) storeFailure(ctx context.Context, v credential.Verification, stage Stage, id any, err error) error {
	if f.isNotFound != nil && f.isNotFound(err) {
		return f.fail(ctx, v, f.notFound(stage, id, err))
	}
	return f.fail(ctx, v, &Error{
		Kind:    KindStoreError,
		Stage:   stage,
		Status:  http.StatusNotFound,
		Code:    CodeStoreError,
		Message: "storage operation failed",
		Err:     err,
	})
}

func (f *Flow) notFound(stage Stage, id any, cause error) *Error {
	msg := fmt.Sprintf("no %s found", f.resource)
	if id != nil {
		msg = fmt.Sprintf("no %s with id %v", f.resource, id)
	}
	return &Error{
		Kind:    KindNotFound,
		Stage:   stage,
		Status:  http.StatusNotFound,
		Code:    CodeNotFound,
		Message: msg,
		Err:     cause,
	}
}

func (f *Flow) fail(ctx context.Context, v credential.Verification, e *Error) *Error {
	if f.obs != nil {
		f.obs.ObserveOwnershipFailure(string(e.Kind), string(e.Stage))
	}
	attrs := []any{
		"stage", e.Stage,
		"kind", e.Kind,
		"status", e.Status,
		"credential", v.Result(),
	}
	if v.IsAuthenticated() {
		attrs = append(attrs, "subject", v.Subject())
	}
	switch e.Kind {
	case KindStoreError:
		f.log.ErrorContext(ctx, "mutation failed", append(attrs, "error", e.Err)...)
	case KindUnauthorized:
		f.log.WarnContext(ctx, "mutation rejected", attrs...)
	default:
		f.log.InfoContext(ctx, "mutation rejected", attrs...)
	}
	return e
}
