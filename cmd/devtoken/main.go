package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/placesapp/places-api/internal/domain"
	"github.com/placesapp/places-api/internal/platform/auth/credential"
	"github.com/placesapp/places-api/internal/platform/config"
)

// Tiny dev-only token minting server.
//
// It signs HS256 credentials with the same JWT_SECRET as the API, so tokens for any user id can be
// produced without registering. Never expose it outside a local environment.

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	port := getenv("PORT", "5556")
	cfg, err := config.LoadAuthConfigFromEnv()
	if err != nil {
		log.Error("invalid auth config", "error", err)
		os.Exit(1)
	}
	issuer := credential.NewIssuer(cfg)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Mint a token:
	//   GET /token?id=42&username=alice
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.URL.Query().Get("username"))

		token, claims, err := issuer.IssueClaims(username, domain.SubjectID(id))
		if err != nil {
			log.Error("mint failed", "error", err)
			http.Error(w, "failed to mint token", http.StatusInternalServerError)
			return
		}

		resp := map[string]any{
			"token":    token,
			"id":       id,
			"username": username,
		}
		if claims.ExpiresAt != nil {
			resp["exp"] = claims.ExpiresAt.Unix()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("devtoken listening", "port", port, "ttl", cfg.TokenTTL)
	if err := srv.ListenAndServe(); err != nil {
		log.Error("listen", "error", err)
		os.Exit(1)
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
