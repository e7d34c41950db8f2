// Package versioning selects the API version from the api-version request header.
package versioning

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

const (
	HeaderName           = "api-version"
	SupportedHeader      = "api-supported-versions"
	DeprecatedHeader     = "api-deprecated-versions"
	DefaultVersion       = "1.0"
	V1                   = "1.0"
	V2                   = "2.0"
	unsupportedErrorCode = "UnsupportedApiVersion"
)

type contextKey struct{}

// Options lists the versions an endpoint group serves.
type Options struct {
	Supported  []string
	Deprecated []string
	// OnUnsupported renders the rejection of an unknown version. Defaults to a plain 400.
	OnUnsupported func(w http.ResponseWriter, r *http.Request, message string)
}

func DefaultOptions() Options {
	return Options{
		Supported:  []string{V1},
		Deprecated: []string{V2},
	}
}

// Middleware resolves the requested version and reports the version policy on every response.
func Middleware(opts Options) func(http.Handler) http.Handler {
	known := append(slices.Clone(opts.Supported), opts.Deprecated...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(SupportedHeader, strings.Join(opts.Supported, ", "))
			if len(opts.Deprecated) > 0 {
				w.Header().Set(DeprecatedHeader, strings.Join(opts.Deprecated, ", "))
			}

			version, ok := normalize(r.Header.Get(HeaderName))
			if !ok || !slices.Contains(known, version) {
				message := fmt.Sprintf("The HTTP resource that matches the request URI does not support the API version '%s'.", r.Header.Get(HeaderName))
				if opts.OnUnsupported != nil {
					opts.OnUnsupported(w, r, message)
					return
				}
				w.Header().Set("X-Error-Code", unsupportedErrorCode)
				http.Error(w, message, http.StatusBadRequest)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, version)))
		})
	}
}

// FromContext returns the resolved version, DefaultVersion when none was resolved.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKey{}).(string); ok {
		return v
	}
	return DefaultVersion
}

// Dispatch routes to the handler registered for the request's version, falling back to def.
func Dispatch(def http.Handler, byVersion map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := byVersion[FromContext(r.Context())]; ok {
			h.ServeHTTP(w, r)
			return
		}
		def.ServeHTTP(w, r)
	})
}

// normalize accepts "2", "2.0" and "v2" style values.
func normalize(raw string) (string, bool) {
	raw = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "v")
	if raw == "" {
		return DefaultVersion, true
	}
	major, minor, found := strings.Cut(raw, ".")
	if !found {
		minor = "0"
	}
	if !isDigits(major) || !isDigits(minor) {
		return "", false
	}
	return major + "." + minor, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
