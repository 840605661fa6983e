package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/platform/auth/credential"
)

// VerificationObserver counts verification outcomes. *metrics.Metrics implements it.
type VerificationObserver interface {
	ObserveVerification(result string)
}

// NewCredentialMiddleware verifies the Authorization header and stores the outcome in request context.
//
// It never rejects a request: reads are public, and mutations decide the status from the stored outcome.
func NewCredentialMiddleware(v *credential.Verifier, obs VerificationObserver, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := v.Verify(r.Header.Get("Authorization"))
			if obs != nil {
				obs.ObserveVerification(res.Result())
			}
			if res.Reason() == credential.ReasonInvalid && !res.IsAuthenticated() {
				log.DebugContext(r.Context(), "credential rejected", "path", r.URL.Path)
			}
			next.ServeHTTP(w, r.WithContext(WithVerification(r.Context(), res)))
		})
	}
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// It accepts an explicit subject via X-Debug-Subject and treats it as verified.
// If the header is absent, it falls back to defaultSubject (if provided); with neither, the request
// carries no credential.
//
// Do NOT use this in production deployments.
func NewDevAuthMiddleware(defaultSubject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			res := credential.Unauthenticated(credential.ReasonMissing)
			if sub != "" {
				res = credential.Authenticated(domain.SubjectID(sub))
			}
			next.ServeHTTP(w, r.WithContext(WithVerification(r.Context(), res)))
		})
	}
}
