package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/ports/out/idempotency"
)

func createPlaceFingerprint(bodyHash string) idempotency.Fingerprint {
	return idempotency.Fingerprint{
		Key:      "k1",
		Subject:  domain.SubjectID("42"),
		Method:   "POST",
		Route:    "/api/places",
		BodyHash: bodyHash,
	}
}

func TestStore_BodiesAreCopied(t *testing.T) {
	t.Parallel()

	s := NewStore()
	fp := createPlaceFingerprint("abc123")
	body := []byte(`{"ID":1}`)
	if err := s.Put(context.Background(), fp, idempotency.Record{
		StatusCode:  200,
		ContentType: "application/json",
		Body:        body,
		CreatedAt:   time.Unix(123, 0).UTC(),
	}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	body[2] = 'X'

	got, ok, err := s.Get(context.Background(), fp)
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v", ok, err)
	}
	if string(got.Body) != `{"ID":1}` {
		t.Fatalf("body=%s, want stored copy", got.Body)
	}
	got.Body[2] = 'Y'

	again, _, _ := s.Get(context.Background(), fp)
	if string(again.Body) != `{"ID":1}` {
		t.Fatalf("body=%s, want stored copy", again.Body)
	}
}

func TestStore_FingerprintsAreDistinct(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()
	if err := s.Put(ctx, createPlaceFingerprint(""), idempotency.Record{Body: []byte("h1")}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	if err := s.Put(ctx, createPlaceFingerprint("h1"), idempotency.Record{StatusCode: 200}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len()=%d, want 2", s.Len())
	}

	other := createPlaceFingerprint("")
	other.Subject = "43"
	if _, ok, err := s.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get(other subject) ok=%v err=%v, want miss", ok, err)
	}
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewStore().Put(ctx, createPlaceFingerprint(""), idempotency.Record{}); err == nil {
		t.Fatalf("Put() err=nil, want context error")
	}
}
