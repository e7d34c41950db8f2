// This is a **development token service**: it signs access tokens for the
// company API with the shared SECRET, without checking any credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strings"

	"github.com/gartstein/companyemployees/internal/company/auth"
	"github.com/gartstein/companyemployees/internal/company/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const defaultPort = 8081

// TokenResponse represents the response structure
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// tokenHandler signs a token for the user and roles named in the query string,
// e.g. /token?user=jdoe&roles=Manager,Administrator
func tokenHandler(settings auth.Settings, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("user")
		if user == "" {
			user = "developer"
		}
		var roles []string
		if raw := r.URL.Query().Get("roles"); raw != "" {
			roles = strings.Split(raw, ",")
		}

		token, err := auth.GenerateToken(user, roles, settings)
		if err != nil {
			logger.Error("Failed to generate token", zap.Error(err))
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(TokenResponse{AccessToken: token}); err != nil {
			logger.Error("Failed to encode token", zap.Error(err))
		}
	}
}

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	port := flag.Int("port", defaultPort, "port to listen on")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.Secret == "" {
		logger.Fatal("SECRET must be provided")
	}
	settings := auth.Settings{
		Secret:   cfg.Secret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Expires:  cfg.JWTExpires,
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Get("/token", tokenHandler(settings, logger))

	logger.Info("Authentication service running", zap.Int("port", *port))
	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), r); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
