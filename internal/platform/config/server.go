package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	AuthModeJWT = "jwt"
	AuthModeDev = "dev"
)

// ServerConfig is the process-level configuration of cmd/api.
type ServerConfig struct {
	Port string

	StorageBackend string
	DatabaseURL    string

	// AuthMode "dev" bypasses credential verification and trusts X-Debug-Subject. Local use only.
	AuthMode   string
	DevSubject string

	// LegacyPlacePayload accepts the flat lat/lon/name/userId create payload.
	LegacyPlacePayload bool

	LogLevel  string
	LogFormat string
}

func LoadServerConfigFromEnv() (ServerConfig, error) {
	cfg := ServerConfig{
		Port:               getenv("PORT", "8080"),
		StorageBackend:     strings.ToLower(getenv("STORAGE_BACKEND", StorageMemory)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		AuthMode:           strings.ToLower(getenv("AUTH_MODE", AuthModeJWT)),
		DevSubject:         getenv("DEV_SUBJECT", "1"),
		LegacyPlacePayload: true,
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogFormat:          getenv("LOG_FORMAT", "json"),
	}

	switch cfg.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return ServerConfig{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return ServerConfig{}, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", cfg.StorageBackend)
	}

	switch cfg.AuthMode {
	case AuthModeJWT, AuthModeDev:
	default:
		return ServerConfig{}, fmt.Errorf("AUTH_MODE must be jwt or dev, got %q", cfg.AuthMode)
	}

	if v := os.Getenv("PLACES_LEGACY_PAYLOAD"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("PLACES_LEGACY_PAYLOAD must be a boolean: %w", err)
		}
		cfg.LegacyPlacePayload = b
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
