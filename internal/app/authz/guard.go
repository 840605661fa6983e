// Package authz decides whether a verified caller may act on behalf of a required subject.
package authz

import (
	"net/http"

	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/platform/auth/credential"
)

// Decision is Allow, or Deny with the HTTP status the denial maps to (401 or 403).
type Decision struct {
	Allowed bool
	Status  int
}

var Allow = Decision{Allowed: true, Status: http.StatusOK}

func Deny(status int) Decision { return Decision{Status: status} }

// Authorize compares the verified subject with required.
//
//   - no credential             -> Deny(401)
//   - invalid credential        -> Deny(403)
//   - subject != required       -> Deny(403)
//   - subject == required       -> Allow
//
// Subjects compare as normalized strings, so a numeric id claim matches its decimal owner id.
func Authorize(v credential.Verification, required domain.SubjectID) Decision {
	if !v.IsAuthenticated() {
		if v.Reason() == credential.ReasonMissing {
			return Deny(http.StatusUnauthorized)
		}
		return Deny(http.StatusForbidden)
	}
	if required == "" || v.Subject() != required {
		return Deny(http.StatusForbidden)
	}
	return Allow
}
