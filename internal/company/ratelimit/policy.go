package ratelimit

import (
	"net/http"

	"github.com/go-chi/httprate"
)

const SpecificPolicy = "SpecificPolicy"

// Policy returns a fixed-window limiter shared by every route it is applied to.
func Policy(name string, opts Options) func(http.Handler) http.Handler {
	return httprate.Limit(opts.PermitLimit, opts.Window,
		httprate.WithKeyFuncs(func(*http.Request) (string, error) {
			return name, nil
		}),
		httprate.WithLimitHandler(OnRejected),
	)
}
