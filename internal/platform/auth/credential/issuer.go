package credential

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/platform/config"
)

// Issuer signs credentials for authenticated users (registration and login).
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
}

func NewIssuer(cfg config.AuthConfig) *Issuer {
	return NewIssuerWithOptions(cfg, nil)
}

func NewIssuerWithOptions(cfg config.AuthConfig, clock Clock) *Issuer {
	if clock == nil {
		clock = realClock{}
	}
	return &Issuer{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TokenTTL,
		clock:  clock,
	}
}

// Issue returns an HS256 token embedding {username, id}. A zero TTL omits `exp`.
func (i *Issuer) Issue(username string, id domain.SubjectID) (string, error) {
	signed, _, err := i.IssueClaims(username, id)
	return signed, err
}

// IssueClaims is Issue that also returns the claims it signed.
func (i *Issuer) IssueClaims(username string, id domain.SubjectID) (string, *Claims, error) {
	if id == "" {
		return "", nil, ErrMissingSubject
	}
	now := i.clock.Now()
	claims := &Claims{
		UserID:   id,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}
