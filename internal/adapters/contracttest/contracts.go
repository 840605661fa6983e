// Package contracttest holds behavior suites shared by every store implementation.
// Suites must tolerate rows left by other tests, since Postgres runs share one database.
package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/placesapp/places-api/internal/domain"
	idempotencyport "github.com/placesapp/places-api/internal/ports/out/idempotency"
	placerepoport "github.com/placesapp/places-api/internal/ports/out/placerepo"
	userrepoport "github.com/placesapp/places-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

type PlaceRepoFactory func(t *testing.T) (placerepoport.Repository, CleanupFunc)
type UserRepoFactory func(t *testing.T) (userrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key(uuid.NewString()),
		Subject:  domain.SubjectID("42"),
		Method:   "POST",
		Route:    "/api/places",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("createdAt=%v, want %v", got.CreatedAt, rec.CreatedAt)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// The body hash is part of the fingerprint.
	respFP := fp
	respFP.BodyHash = "hash-def"
	if _, ok, err := store.Get(ctx, respFP); err != nil || ok {
		t.Fatalf("Get with body hash: ok=%v err=%v, want miss", ok, err)
	}
}

func RunPlaceRepo(t *testing.T, newRepo PlaceRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	aID, err := repo.Create(ctx, placerepoport.NewPlace{
		Name:      "Senate Square",
		Latitude:  60.1699,
		Longitude: 24.9384,
		UserID:    "A",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	if !aID.Valid() {
		t.Fatalf("Create a: id=%d, want positive", aID)
	}
	bID, err := repo.Create(ctx, placerepoport.NewPlace{
		Name:      "Kamppi",
		Latitude:  60.1687,
		Longitude: 24.9316,
		UserID:    "B",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}
	if bID <= aID {
		t.Fatalf("ids not increasing: a=%d b=%d", aID, bID)
	}

	got, err := repo.FetchByID(ctx, aID)
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if got.Name != "Senate Square" || got.UserID != "A" || got.Latitude != 60.1699 || got.Longitude != 24.9384 {
		t.Fatalf("unexpected place: %#v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("createdAt=%v, want %v", got.CreatedAt, now)
	}

	// FetchAll is ordered by id ascending.
	all, err := repo.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	posA, posB := -1, -1
	for i, p := range all {
		if i > 0 && all[i-1].ID >= p.ID {
			t.Fatalf("FetchAll not ordered by id: %#v", all)
		}
		switch p.ID {
		case aID:
			posA = i
		case bID:
			posB = i
		}
	}
	if posA < 0 || posB < 0 {
		t.Fatalf("FetchAll missing created rows: %#v", all)
	}

	// Partial update leaves untouched columns and the owner alone.
	name := "Senaatintori"
	later := now.Add(time.Minute)
	st, err := repo.Update(ctx, aID, placerepoport.Patch{Name: &name, UpdatedAt: later})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if st.AffectedRows != 1 {
		t.Fatalf("Update affected=%d, want 1", st.AffectedRows)
	}
	got, err = repo.FetchByID(ctx, aID)
	if err != nil {
		t.Fatalf("FetchByID after update: %v", err)
	}
	if got.Name != name || got.Latitude != 60.1699 || got.UserID != "A" || !got.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected place after update: %#v", got)
	}

	st, err = repo.Delete(ctx, aID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if st.AffectedRows != 1 {
		t.Fatalf("Delete affected=%d, want 1", st.AffectedRows)
	}
	if _, err := repo.FetchByID(ctx, aID); !errors.Is(err, placerepoport.ErrNotFound) {
		t.Fatalf("FetchByID after delete err=%v, want ErrNotFound", err)
	}
	if _, err := repo.Delete(ctx, aID); !errors.Is(err, placerepoport.ErrNotFound) {
		t.Fatalf("second Delete err=%v, want ErrNotFound", err)
	}
	if _, err := repo.Update(ctx, aID, placerepoport.Patch{Name: &name, UpdatedAt: later}); !errors.Is(err, placerepoport.ErrNotFound) {
		t.Fatalf("Update after delete err=%v, want ErrNotFound", err)
	}
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	alice := "alice-" + uuid.NewString()
	bob := "bob-" + uuid.NewString()

	aID, err := repo.Create(ctx, userrepoport.NewUser{Name: alice, PasswordHash: "h1", CreatedAt: now})
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	bID, err := repo.Create(ctx, userrepoport.NewUser{Name: bob, PasswordHash: "h2", CreatedAt: now})
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}

	// Name uniqueness.
	if _, err := repo.Create(ctx, userrepoport.NewUser{Name: alice, PasswordHash: "h3", CreatedAt: now}); !errors.Is(err, userrepoport.ErrNameTaken) {
		t.Fatalf("duplicate Create err=%v, want ErrNameTaken", err)
	}

	got, err := repo.FetchByName(ctx, alice)
	if err != nil {
		t.Fatalf("FetchByName: %v", err)
	}
	if got.ID != aID || got.PasswordHash != "h1" {
		t.Fatalf("unexpected user: %#v", got)
	}
	if _, err := repo.FetchByName(ctx, "nobody-"+uuid.NewString()); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("FetchByName unknown err=%v, want ErrNotFound", err)
	}

	all, err := repo.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	seen := 0
	for i, u := range all {
		if i > 0 && all[i-1].ID >= u.ID {
			t.Fatalf("FetchAll not ordered by id: %#v", all)
		}
		if u.ID == aID || u.ID == bID {
			seen++
		}
	}
	if seen != 2 {
		t.Fatalf("FetchAll missing created rows: %#v", all)
	}

	// Renaming onto a taken name fails; renaming to a free one frees the old name.
	if _, err := repo.Update(ctx, bID, userrepoport.Patch{Name: &alice, UpdatedAt: now}); !errors.Is(err, userrepoport.ErrNameTaken) {
		t.Fatalf("rename onto taken name err=%v, want ErrNameTaken", err)
	}
	renamed := "carol-" + uuid.NewString()
	hash := "h4"
	if _, err := repo.Update(ctx, aID, userrepoport.Patch{Name: &renamed, PasswordHash: &hash, UpdatedAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = repo.FetchByID(ctx, aID)
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if got.Name != renamed || got.PasswordHash != "h4" {
		t.Fatalf("unexpected user after update: %#v", got)
	}
	if _, err := repo.Create(ctx, userrepoport.NewUser{Name: alice, PasswordHash: "h5", CreatedAt: now}); err != nil {
		t.Fatalf("Create with freed name: %v", err)
	}

	if _, err := repo.Delete(ctx, bID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FetchByID(ctx, bID); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("FetchByID after delete err=%v, want ErrNotFound", err)
	}
	if _, err := repo.Delete(ctx, bID); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("second Delete err=%v, want ErrNotFound", err)
	}
}
