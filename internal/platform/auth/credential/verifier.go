package credential

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/platform/config"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no subject id")
)

const bearerPrefix = "bearer "

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Claims is the payload of an issued credential.
type Claims struct {
	UserID   domain.SubjectID `json:"id"`
	Username string           `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// UnmarshalJSON decodes the claims like the default decoder, except that a numeric zero `id` is
// treated as absent. Clients that issue numeric ids never use 0 for a real subject.
func (c *Claims) UnmarshalJSON(b []byte) error {
	type plain Claims
	var aux struct {
		plain
		RawID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = Claims(aux.plain)
	c.UserID = ""
	if len(aux.RawID) == 0 || isZeroNumber(aux.RawID) {
		return nil
	}
	return c.UserID.UnmarshalJSON(aux.RawID)
}

func isZeroNumber(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' || bytes.Equal(raw, []byte("null")) {
		return false
	}
	f, err := json.Number(raw).Float64()
	return err == nil && f == 0
}

// Verifier checks HS256 bearer credentials against the server secret.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func New(cfg config.AuthConfig) *Verifier {
	return NewWithOptions(cfg, nil)
}

func NewWithOptions(cfg config.AuthConfig, clock Clock) *Verifier {
	if clock == nil {
		clock = realClock{}
	}
	return &Verifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(cfg.ClockSkew),
			jwt.WithTimeFunc(clock.Now),
		),
	}
}

// Verify classifies the raw Authorization header value. An absent header is passed as "".
//
// The scheme prefix is matched case-insensitively and the token is everything after it, untrimmed.
// An empty token after the prefix fails decoding and is therefore invalid, not missing.
func (v *Verifier) Verify(header string) Verification {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return Unauthenticated(ReasonMissing)
	}
	claims, err := v.Parse(header[len(bearerPrefix):])
	if err != nil {
		return Unauthenticated(ReasonInvalid)
	}
	return Authenticated(claims.UserID)
}

// Parse verifies the signature and registered time claims of token and returns its claims.
func (v *Verifier) Parse(token string) (*Claims, error) {
	parsed, err := v.parser.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
