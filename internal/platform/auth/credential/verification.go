package credential

import "github.com/placesapp/places-api/internal/domain"

// Reason tells why a request is unauthenticated.
type Reason int

const (
	// ReasonMissing: no Authorization header, or not a bearer scheme.
	ReasonMissing Reason = iota
	// ReasonInvalid: a bearer credential was presented but is malformed, mis-signed, expired or has no subject.
	ReasonInvalid
)

func (r Reason) String() string {
	switch r {
	case ReasonMissing:
		return "missing"
	case ReasonInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Verification is the outcome of checking a request's credential: either Authenticated with a subject,
// or Unauthenticated with a Reason. The zero value is Unauthenticated{missing}.
type Verification struct {
	authenticated bool
	subject       domain.SubjectID
	reason        Reason
}

func Authenticated(subject domain.SubjectID) Verification {
	if subject == "" {
		return Unauthenticated(ReasonInvalid)
	}
	return Verification{authenticated: true, subject: subject}
}

func Unauthenticated(reason Reason) Verification {
	return Verification{reason: reason}
}

func (v Verification) IsAuthenticated() bool { return v.authenticated }

// Subject returns the authenticated subject, or "" when unauthenticated.
func (v Verification) Subject() domain.SubjectID { return v.subject }

// Reason is only meaningful when the verification is unauthenticated.
func (v Verification) Reason() Reason { return v.reason }

// Result is a short label: "authenticated", "missing" or "invalid".
func (v Verification) Result() string {
	if v.authenticated {
		return "authenticated"
	}
	return v.reason.String()
}
