package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	memclock "github.com/placesapp/places-api/internal/adapters/memory/clock"
	memidempotency "github.com/placesapp/places-api/internal/adapters/memory/idempotency"
	memplacerepo "github.com/placesapp/places-api/internal/adapters/memory/placerepo"
	memuserrepo "github.com/placesapp/places-api/internal/adapters/memory/userrepo"
	"github.com/placesapp/places-api/internal/app/places"
	"github.com/placesapp/places-api/internal/app/users"
	"github.com/placesapp/places-api/internal/platform/auth/credential"
	"github.com/placesapp/places-api/internal/platform/auth/credentialtest"
	"github.com/placesapp/places-api/internal/platform/config"
	"github.com/placesapp/places-api/internal/platform/logger"
	"github.com/placesapp/places-api/internal/platform/metrics"
)

var testNow = time.Unix(1700000000, 0).UTC()

type testEnv struct {
	h         http.Handler
	reg       *prometheus.Registry
	idem      *memidempotency.Store
	placeRepo *memplacerepo.Repo
}

func newTestEnv(t *testing.T, legacy bool) testEnv {
	t.Helper()

	clk := memclock.NewManualClock(testNow)
	cfg := config.AuthConfig{Secret: credentialtest.Secret, TokenTTL: time.Hour}
	log := logger.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	placeRepo := memplacerepo.NewRepo()
	idem := memidempotency.NewStore()
	placesSvc := places.NewService(placeRepo, clk, log, m)
	usersSvc := users.NewService(memuserrepo.NewRepo(), clk, credential.NewIssuerWithOptions(cfg, clk), bcrypt.MinCost, log, m)

	api := NewServer(placesSvc, usersSvc, idem, ServerOptions{LegacyPlacePayload: legacy, Clock: clk, Logger: log})
	h := NewRouter(api, RouterOptions{
		AuthMiddleware: NewCredentialMiddleware(credential.NewWithOptions(cfg, clk), m, log),
		Registry:       reg,
		Metrics:        m,
		Logger:         log,
	})
	return testEnv{h: h, reg: reg, idem: idem, placeRepo: placeRepo}
}

func bearerFor(t *testing.T, id any) string {
	t.Helper()
	tok, err := credentialtest.MintHS256(id, "tester", testNow, 10*time.Minute)
	if err != nil {
		t.Fatalf("MintHS256: %v", err)
	}
	return credentialtest.Bearer(tok)
}

func (e testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Buffer
	if body != "" {
		rdr = bytes.NewBufferString(body)
	} else {
		rdr = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body=%s: %v", rec.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status=%d want %d body=%s", rec.Code, status, rec.Body.String())
	}
}

func wantErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	wantStatus(t, rec, status)
	er := decodeBody[errorResponse](t, rec)
	if er.Error.Code != code {
		t.Fatalf("code=%q want %q", er.Error.Code, code)
	}
	if er.Error.RequestID == "" {
		t.Fatalf("expected requestId to be set")
	}
}

func auth(bearer string) map[string]string {
	return map[string]string{"Authorization": bearer}
}
