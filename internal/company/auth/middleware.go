// Package auth provides HTTP middleware for JWT bearer authentication and
// role-based authorization, and issues the tokens it accepts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	userContextKey contextKey = "user"
)

// ErrorHandler renders an authentication or authorization failure.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Authenticator validates bearer tokens signed with the configured settings.
type Authenticator struct {
	settings Settings
	logger   *zap.Logger
	onError  ErrorHandler
}

// NewAuthenticator creates an Authenticator. A nil onError falls back to plain-text responses.
func NewAuthenticator(settings Settings, logger *zap.Logger, onError ErrorHandler) *Authenticator {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, err error) {
			status := http.StatusUnauthorized
			if errors.Is(err, e.ErrForbidden) {
				status = http.StatusForbidden
			}
			http.Error(w, err.Error(), status)
		}
	}
	return &Authenticator{
		settings: settings,
		logger:   logger.Named("auth"),
		onError:  onError,
	}
}

// Middleware rejects requests without a valid bearer token and stores the
// token claims in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := extractTokenFromHeader(r)
		if err != nil {
			a.onError(w, r, e.Unauthorized(err.Error()))
			return
		}

		claims, err := validateToken(tokenString, a.settings)
		if err != nil {
			a.logger.Debug("Rejected bearer token", zap.Error(err))
			a.onError(w, r, e.Unauthorized("Invalid token."))
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles lets the request through when the authenticated user holds at
// least one of roles. It must run after Middleware.
func (a *Authenticator) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				a.onError(w, r, e.Unauthorized("Authorization header required."))
				return
			}
			for _, role := range roles {
				if slices.Contains(claims.Roles, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			a.onError(w, r, &e.Error{Kind: e.ErrForbidden, Message: "Access to this resource is forbidden."})
		})
	}
}

// ClaimsFromContext returns the claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(userContextKey).(*Claims)
	return claims, ok
}

func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization header required.")
	}

	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || tokenString == "" {
		return "", errors.New("Invalid authorization format.")
	}
	return tokenString, nil
}

// validateToken checks signature, issuer, audience and expiry and returns the parsed claims.
func validateToken(tokenString string, settings Settings) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return []byte(settings.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(settings.Issuer),
		jwt.WithAudience(settings.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
