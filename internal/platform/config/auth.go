package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthConfig configures HS256 credential issuance and verification plus password hashing.
type AuthConfig struct {
	// Secret is the server-held HMAC key used to sign and verify credentials.
	Secret string

	// TokenTTL bounds the lifetime of issued credentials. Zero issues credentials without `exp`.
	TokenTTL time.Duration
	// ClockSkew is the leeway applied to exp/nbf/iat checks.
	ClockSkew time.Duration

	BcryptCost int
}

func LoadAuthConfigFromEnv() (AuthConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("missing required env var: JWT_SECRET")
	}

	cfg := AuthConfig{
		Secret:     secret,
		TokenTTL:   24 * time.Hour,
		ClockSkew:  30 * time.Second,
		BcryptCost: bcrypt.DefaultCost,
	}

	if v := os.Getenv("JWT_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return AuthConfig{}, fmt.Errorf("JWT_TOKEN_TTL must be a duration (e.g. 24h, 0 for no expiry): %w", err)
		}
		if d < 0 {
			return AuthConfig{}, fmt.Errorf("JWT_TOKEN_TTL must not be negative")
		}
		cfg.TokenTTL = d
	}
	if v := os.Getenv("JWT_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return AuthConfig{}, fmt.Errorf("JWT_CLOCK_SKEW must be a duration (e.g. 30s): %w", err)
		}
		cfg.ClockSkew = d
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return AuthConfig{}, fmt.Errorf("BCRYPT_COST must be an integer: %w", err)
		}
		if n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return AuthConfig{}, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.BcryptCost = n
	}

	return cfg, nil
}

// DevAuthConfig is used in AUTH_MODE=dev when JWT_SECRET is unset, so registration and login still
// issue tokens locally. The secret is public; never use it in production.
func DevAuthConfig() AuthConfig {
	return AuthConfig{
		Secret:     "dev-only-insecure-secret",
		TokenTTL:   24 * time.Hour,
		ClockSkew:  30 * time.Second,
		BcryptCost: bcrypt.DefaultCost,
	}
}
