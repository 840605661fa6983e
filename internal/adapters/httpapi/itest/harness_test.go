package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/placesapp/places-api/internal/adapters/httpapi"
	memclock "github.com/placesapp/places-api/internal/adapters/memory/clock"
	memidempotency "github.com/placesapp/places-api/internal/adapters/memory/idempotency"
	memplacerepo "github.com/placesapp/places-api/internal/adapters/memory/placerepo"
	memuserrepo "github.com/placesapp/places-api/internal/adapters/memory/userrepo"
	pgidempotency "github.com/placesapp/places-api/internal/adapters/postgres/idempotency"
	pgplacerepo "github.com/placesapp/places-api/internal/adapters/postgres/placerepo"
	postgres_testutil "github.com/placesapp/places-api/internal/adapters/postgres/testutil"
	pguserrepo "github.com/placesapp/places-api/internal/adapters/postgres/userrepo"
	"github.com/placesapp/places-api/internal/app/places"
	"github.com/placesapp/places-api/internal/app/users"
	"github.com/placesapp/places-api/internal/platform/auth/credential"
	"github.com/placesapp/places-api/internal/platform/config"
	"github.com/placesapp/places-api/internal/platform/logger"
	idempotencyport "github.com/placesapp/places-api/internal/ports/out/idempotency"
	placerepoport "github.com/placesapp/places-api/internal/ports/out/placerepo"
	userrepoport "github.com/placesapp/places-api/internal/ports/out/userrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	log := logger.Discard()

	var (
		placeRepo placerepoport.Repository
		userRepo  userrepoport.Repository
		idemStore idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		placeRepo = pgplacerepo.NewRepo(pool)
		userRepo = pguserrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	case backendMemory:
		placeRepo = memplacerepo.NewRepo()
		userRepo = memuserrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	issuer := credential.NewIssuerWithOptions(config.AuthConfig{Secret: "itest-secret"}, clk)
	placesSvc := places.NewService(placeRepo, clk, log, nil)
	usersSvc := users.NewService(userRepo, clk, issuer, bcrypt.MinCost, log, nil)
	api := httpapi.NewServer(placesSvc, usersSvc, idemStore, httpapi.ServerOptions{LegacyPlacePayload: true, Clock: clk, Logger: log})

	// Integration tests use the dev auth middleware to stay fully local and deterministic.
	// We pass empty default subject to ensure mutations MUST provide X-Debug-Subject, allowing
	// auth-failure coverage.
	authMW := httpapi.NewDevAuthMiddleware("")
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{AuthMiddleware: authMW, Logger: log})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, subject string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
