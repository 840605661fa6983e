// Package credentialtest mints credentials for tests, including deliberately broken ones.
package credentialtest

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Secret = "test-secret"

// Mint signs arbitrary claims with method and secret. Passing jwt.SigningMethodNone yields an unsigned token.
func Mint(method jwt.SigningMethod, secret string, claims jwt.MapClaims) (string, error) {
	tok := jwt.NewWithClaims(method, claims)
	if method == jwt.SigningMethodNone {
		return tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	}
	return tok.SignedString([]byte(secret))
}

// MintHS256 signs {id, username, iat, exp} with Secret. A zero ttl omits exp; a negative ttl yields an expired token.
func MintHS256(id any, username string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":       id,
		"username": username,
		"iat":      now.Unix(),
	}
	if ttl != 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}
	return Mint(jwt.SigningMethodHS256, Secret, claims)
}

// Bearer prefixes a token with the canonical scheme.
func Bearer(token string) string {
	return "Bearer " + token
}
