// Package auth authenticates admin API callers once per request and carries
// the resulting principal through the context.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// ErrUnauthenticated is returned when a request carries no valid credentials.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// Principal is the authenticated caller.
type Principal struct {
	// Subject identifies the caller (user ID, service name).
	Subject string `json:"subject"`

	// Admin grants access to the webhook administration API.
	Admin bool `json:"admin"`
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal placed by Middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (Principal, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (Principal, error)

// Authenticate calls f.
func (f AuthenticatorFunc) Authenticate(r *http.Request) (Principal, error) { return f(r) }

// StaticTokens authenticates bearer tokens against a fixed table.
type StaticTokens map[string]Principal

// Authenticate looks up the bearer token in constant time per entry.
func (s StaticTokens) Authenticate(r *http.Request) (Principal, error) {
	token, ok := bearer(r)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	var (
		found Principal
		match bool
	)
	for candidate, p := range s {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			found, match = p, true
		}
	}
	if !match {
		return Principal{}, ErrUnauthenticated
	}
	return found, nil
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Middleware authenticates every request, rejecting with 401 when no
// principal can be established and 403 when the principal is not an admin.
func Middleware(a Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authenticate(r)
			if err != nil {
				logger.DebugContext(r.Context(), "authentication failed", "path", r.URL.Path, "error", err)
				deny(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			if !p.Admin {
				logger.WarnContext(r.Context(), "non-admin denied", "subject", p.Subject, "path", r.URL.Path)
				deny(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="storehook"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
