package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/storehook/auth"
)

var tokens = auth.StaticTokens{
	"admin-token":  {Subject: "ops", Admin: true},
	"viewer-token": {Subject: "viewer"},
}

func serve(t *testing.T, header string) (*httptest.ResponseRecorder, auth.Principal) {
	t.Helper()
	var seen auth.Principal
	h := auth.Middleware(tokens, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.FromContext(r.Context())
		require.True(t, ok, "principal should be in context")
		seen = p
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/endpoints", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddlewareAdmin(t *testing.T) {
	rec, p := serve(t, "Bearer admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", p.Subject)
	assert.True(t, p.Admin)
}

func TestMiddlewareUnauthenticated(t *testing.T) {
	for _, header := range []string{"", "Bearer", "Basic admin-token", "Bearer wrong"} {
		rec, _ := serve(t, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.JSONEq(t, `{"error":"unauthenticated"}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	}
}

func TestMiddlewareForbidden(t *testing.T) {
	rec, _ := serve(t, "bearer viewer-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"admin access required"}`, rec.Body.String())
}

func TestPrincipalContext(t *testing.T) {
	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)

	ctx := auth.WithPrincipal(context.Background(), auth.Principal{Subject: "svc", Admin: true})
	p, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "svc", p.Subject)
}

func TestAuthenticatorFunc(t *testing.T) {
	a := auth.AuthenticatorFunc(func(r *http.Request) (auth.Principal, error) {
		if r.Header.Get("X-Session") == "s1" {
			return auth.Principal{Subject: "session-user", Admin: true}, nil
		}
		return auth.Principal{}, auth.ErrUnauthenticated
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := a.Authenticate(req)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	req.Header.Set("X-Session", "s1")
	p, err := a.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, "session-user", p.Subject)
}
