package ownership

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/platform/auth/credential"
)

var errNotFound = errors.New("record not found")

type record struct {
	ID    int
	Owner domain.SubjectID
	Name  string
}

// fakeStore records every call so tests can assert that failed flows never reach storage.
type fakeStore struct {
	rows    map[int]record
	nextID  int
	calls   []string
	failOn  string
	failErr error
}

func newFakeStore(rows ...record) *fakeStore {
	s := &fakeStore{rows: map[int]record{}, nextID: 100}
	for _, r := range rows {
		s.rows[r.ID] = r
	}
	return s
}

func (s *fakeStore) call(name string) error {
	s.calls = append(s.calls, name)
	if s.failOn == name {
		return s.failErr
	}
	return nil
}

func (s *fakeStore) fetch(id int) func(context.Context) (record, error) {
	return func(context.Context) (record, error) {
		if err := s.call("fetch"); err != nil {
			return record{}, err
		}
		r, ok := s.rows[id]
		if !ok {
			return record{}, errNotFound
		}
		return r, nil
	}
}

func (s *fakeStore) create(r record) func(context.Context) (int, error) {
	return func(context.Context) (int, error) {
		if err := s.call("create"); err != nil {
			return 0, err
		}
		s.nextID++
		r.ID = s.nextID
		s.rows[r.ID] = r
		return r.ID, nil
	}
}

func (s *fakeStore) update(id int, name string) func(context.Context) (domain.MutationStatus, error) {
	return func(context.Context) (domain.MutationStatus, error) {
		if err := s.call("update"); err != nil {
			return domain.MutationStatus{}, err
		}
		r, ok := s.rows[id]
		if !ok {
			return domain.MutationStatus{}, errNotFound
		}
		r.Name = name
		s.rows[id] = r
		return domain.MutationStatus{AffectedRows: 1}, nil
	}
}

func (s *fakeStore) delete(id int) func(context.Context) (domain.MutationStatus, error) {
	return func(context.Context) (domain.MutationStatus, error) {
		if err := s.call("delete"); err != nil {
			return domain.MutationStatus{}, err
		}
		if _, ok := s.rows[id]; !ok {
			return domain.MutationStatus{}, errNotFound
		}
		delete(s.rows, id)
		return domain.MutationStatus{AffectedRows: 1}, nil
	}
}

type countingObserver struct{ failures map[string]int }

func (o *countingObserver) ObserveOwnershipFailure(kind, stage string) {
	if o.failures == nil {
		o.failures = map[string]int{}
	}
	o.failures[kind+"@"+stage]++
}

func newFlow(obs Observer) *Flow {
	return New("record", func(err error) bool { return errors.Is(err, errNotFound) },
		slog.New(slog.NewTextHandler(io.Discard, nil)), obs)
}

func ownerOf(r record) domain.SubjectID { return r.Owner }

func createSteps(s *fakeStore, owner domain.SubjectID, name string) CreateSteps[int, record] {
	return CreateSteps[int, record]{
		Owner:   owner,
		Persist: s.create(record{Owner: owner, Name: name}),
		Refetch: func(ctx context.Context, id int) (record, error) { return s.fetch(id)(ctx) },
	}
}

func updateSteps(s *fakeStore, id int, name string) UpdateSteps[record] {
	return UpdateSteps[record]{
		ID:      id,
		Valid:   id > 0,
		Fetch:   s.fetch(id),
		OwnerOf: ownerOf,
		Persist: s.update(id, name),
		Refetch: s.fetch(id),
	}
}

func deleteSteps(s *fakeStore, id int) DeleteSteps[record] {
	return DeleteSteps[record]{
		ID:      id,
		Valid:   id > 0,
		Fetch:   s.fetch(id),
		OwnerOf: ownerOf,
		Persist: s.delete(id),
	}
}

func requireFlowError(t *testing.T, err error, kind Kind, stage Stage, status int) *Error {
	t.Helper()
	oe, ok := AsError(err)
	require.True(t, ok, "err=%v (type=%T)", err, err)
	assert.Equal(t, kind, oe.Kind)
	assert.Equal(t, stage, oe.Stage)
	assert.Equal(t, status, oe.Status)
	return oe
}

func TestCreate_AuthFailuresNeverTouchStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		v      credential.Verification
		stage  Stage
		status int
	}{
		{"missing", credential.Unauthenticated(credential.ReasonMissing), StageVerified, http.StatusUnauthorized},
		{"invalid", credential.Unauthenticated(credential.ReasonInvalid), StageVerified, http.StatusForbidden},
		{"owner mismatch", credential.Authenticated("B"), StageAuthorized, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeStore()
			obs := &countingObserver{}
			_, err := Create(context.Background(), newFlow(obs), tt.v, createSteps(s, "A", "X"))

			requireFlowError(t, err, KindUnauthorized, tt.stage, tt.status)
			assert.Empty(t, s.calls)
			assert.Equal(t, 1, obs.failures["unauthorized@"+string(tt.stage)])
		})
	}
}

func TestCreate_SuccessReturnsRefetchedRecord(t *testing.T) {
	t.Parallel()

	s := newFakeStore()
	got, err := Create(context.Background(), newFlow(nil), credential.Authenticated("A"), createSteps(s, "A", "X"))

	require.NoError(t, err)
	assert.Equal(t, record{ID: 101, Owner: "A", Name: "X"}, got)
	assert.Equal(t, []string{"create", "fetch"}, s.calls)
}

func TestCreate_ValidationRunsAfterAuthorizationAndBeforePersist(t *testing.T) {
	t.Parallel()

	s := newFakeStore()
	steps := createSteps(s, "A", "")
	steps.Validate = func() error { return errors.New("name is required") }

	_, err := Create(context.Background(), newFlow(nil), credential.Authenticated("A"), steps)
	oe := requireFlowError(t, err, KindValidation, StageAuthorized, http.StatusBadRequest)
	assert.Equal(t, "name is required", oe.Message)
	assert.Empty(t, s.calls)

	_, err = Create(context.Background(), newFlow(nil), credential.Authenticated("B"), steps)
	requireFlowError(t, err, KindUnauthorized, StageAuthorized, http.StatusForbidden)
}

func TestCreate_StoreErrorsMapTo404(t *testing.T) {
	t.Parallel()

	boom := errors.New("duplicate key value violates unique constraint")
	s := newFakeStore()
	s.failOn, s.failErr = "create", boom

	_, err := Create(context.Background(), newFlow(nil), credential.Authenticated("A"), createSteps(s, "A", "X"))
	oe := requireFlowError(t, err, KindStoreError, StagePersisted, http.StatusNotFound)
	assert.ErrorIs(t, err, boom)
	assert.NotContains(t, oe.Message, "duplicate")

	s = newFakeStore()
	s.failOn, s.failErr = "fetch", errNotFound
	_, err = Create(context.Background(), newFlow(nil), credential.Authenticated("A"), createSteps(s, "A", "X"))
	requireFlowError(t, err, KindNotFound, StageRefetched, http.StatusNotFound)
}

func TestUpdate_FlowOrderAndOwnership(t *testing.T) {
	t.Parallel()

	t.Run("unauthenticated stops before fetch", func(t *testing.T) {
		s := newFakeStore(record{ID: 1, Owner: "A", Name: "old"})
		_, err := Update(context.Background(), newFlow(nil), credential.Unauthenticated(credential.ReasonMissing), updateSteps(s, 1, "new"))
		requireFlowError(t, err, KindUnauthorized, StageVerified, http.StatusUnauthorized)
		assert.Empty(t, s.calls)
	})

	t.Run("owner mismatch stops after fetch", func(t *testing.T) {
		s := newFakeStore(record{ID: 1, Owner: "A", Name: "old"})
		_, err := Update(context.Background(), newFlow(nil), credential.Authenticated("B"), updateSteps(s, 1, "new"))
		requireFlowError(t, err, KindUnauthorized, StageAuthorized, http.StatusForbidden)
		assert.Equal(t, []string{"fetch"}, s.calls)
		assert.Equal(t, "old", s.rows[1].Name)
	})

	t.Run("missing record", func(t *testing.T) {
		s := newFakeStore()
		_, err := Update(context.Background(), newFlow(nil), credential.Authenticated("A"), updateSteps(s, 9, "new"))
		oe := requireFlowError(t, err, KindNotFound, StageFetchedExisting, http.StatusNotFound)
		assert.Equal(t, "no record with id 9", oe.Message)
	})

	t.Run("invalid id never reaches store", func(t *testing.T) {
		s := newFakeStore()
		_, err := Update(context.Background(), newFlow(nil), credential.Authenticated("A"), updateSteps(s, 0, "new"))
		requireFlowError(t, err, KindNotFound, StageFetchedExisting, http.StatusNotFound)
		assert.Empty(t, s.calls)
	})

	t.Run("fetch store error is distinct from not found", func(t *testing.T) {
		s := newFakeStore(record{ID: 1, Owner: "A"})
		s.failOn, s.failErr = "fetch", errors.New("connection reset")
		_, err := Update(context.Background(), newFlow(nil), credential.Authenticated("A"), updateSteps(s, 1, "new"))
		requireFlowError(t, err, KindStoreError, StageFetchedExisting, http.StatusNotFound)
	})

	t.Run("success returns refetched state", func(t *testing.T) {
		s := newFakeStore(record{ID: 1, Owner: "A", Name: "old"})
		got, err := Update(context.Background(), newFlow(nil), credential.Authenticated("A"), updateSteps(s, 1, "new"))
		require.NoError(t, err)
		assert.Equal(t, record{ID: 1, Owner: "A", Name: "new"}, got)
		assert.Equal(t, []string{"fetch", "update", "fetch"}, s.calls)
	})

	t.Run("persist failure", func(t *testing.T) {
		s := newFakeStore(record{ID: 1, Owner: "A", Name: "old"})
		s.failOn, s.failErr = "update", errors.New("deadlock detected")
		_, err := Update(context.Background(), newFlow(nil), credential.Authenticated("A"), updateSteps(s, 1, "new"))
		requireFlowError(t, err, KindStoreError, StagePersisted, http.StatusNotFound)
		assert.Equal(t, []string{"fetch", "update"}, s.calls)
	})
}

func TestDelete_MergesStatusWithPrefetchedRecordAndIsNotRepeatable(t *testing.T) {
	t.Parallel()

	s := newFakeStore(record{ID: 1, Owner: "A", Name: "home"})
	flow := newFlow(nil)

	got, err := Delete(context.Background(), flow, credential.Authenticated("A"), deleteSteps(s, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Status.AffectedRows)
	assert.Equal(t, record{ID: 1, Owner: "A", Name: "home"}, got.Record)
	assert.Equal(t, []string{"fetch", "delete"}, s.calls)

	_, err = Delete(context.Background(), flow, credential.Authenticated("A"), deleteSteps(s, 1))
	requireFlowError(t, err, KindNotFound, StageFetchedExisting, http.StatusNotFound)
}

func TestDelete_RejectsNonOwnerWithoutDeleting(t *testing.T) {
	t.Parallel()

	s := newFakeStore(record{ID: 1, Owner: "A"})
	_, err := Delete(context.Background(), newFlow(nil), credential.Authenticated("B"), deleteSteps(s, 1))
	requireFlowError(t, err, KindUnauthorized, StageAuthorized, http.StatusForbidden)
	assert.Contains(t, s.rows, 1)

	_, err = Delete(context.Background(), newFlow(nil), credential.Unauthenticated(credential.ReasonInvalid), deleteSteps(s, 1))
	requireFlowError(t, err, KindUnauthorized, StageVerified, http.StatusForbidden)
	assert.Equal(t, []string{"fetch"}, s.calls)
}

func TestError_MessageDoesNotCarryCauseInMessageField(t *testing.T) {
	t.Parallel()

	cause := errors.New("pq: password authentication failed")
	e := &Error{Kind: KindStoreError, Stage: StagePersisted, Message: "storage operation failed", Err: cause}
	assert.Equal(t, "storage operation failed", e.Message)
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "persisted")
}
