package extension_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/auth"
	"github.com/xraph/storehook/extension"
	"github.com/xraph/storehook/store/memory"
)

func TestHandlerBeforeStart(t *testing.T) {
	ext := extension.New(extension.WithStore(memory.New()))

	assert.Nil(t, ext.Handler())
	assert.Nil(t, ext.Hook())
	assert.ErrorIs(t, ext.Health(context.Background()), extension.ErrNotStarted)
}

func TestStartRequiresStore(t *testing.T) {
	ext := extension.New()

	err := ext.Start(context.Background())
	assert.ErrorIs(t, err, storehook.ErrNoStore)
}

func TestMountedHandler(t *testing.T) {
	ctx := context.Background()
	admin := auth.Principal{Subject: "ops", Admin: true}

	ext := extension.New(
		extension.WithStore(memory.New()),
		extension.WithPrefix("admin/hooks/"),
		extension.WithAuthenticator(auth.StaticTokens{"secret-token": admin}),
	)
	require.NoError(t, ext.Start(ctx))
	t.Cleanup(func() { _ = ext.Stop(ctx) })

	assert.Equal(t, "/admin/hooks", ext.BasePath())
	require.NoError(t, ext.Health(ctx))

	mux := http.NewServeMux()
	mux.Handle(ext.BasePath()+"/", ext.Handler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/admin/hooks/event-types", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.Header.Set("Authorization", "Bearer secret-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Data)
}

func TestDisableRoutes(t *testing.T) {
	ctx := context.Background()
	ext := extension.New(
		extension.WithStore(memory.New()),
		extension.WithDisableRoutes(),
	)
	require.NoError(t, ext.Start(ctx))
	t.Cleanup(func() { _ = ext.Stop(ctx) })

	assert.Nil(t, ext.Handler())
}

func TestStopClosesStore(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ext := extension.New(extension.WithStore(s))
	require.NoError(t, ext.Start(ctx))

	require.NoError(t, ext.Stop(ctx))
	assert.ErrorIs(t, s.Ping(ctx), storehook.ErrStoreClosed)
	assert.Nil(t, ext.Hook())
}

func TestConfigToOptionsKeepsDefaults(t *testing.T) {
	cfg := extension.Config{BasePath: "/x"}
	cfg.Concurrency = 4

	h, err := storehook.New(append(cfg.ToOptions(), storehook.WithStore(memory.New()))...)
	require.NoError(t, err)

	got := h.Config()
	assert.Equal(t, 4, got.Concurrency)
	assert.Equal(t, 5*time.Second, got.RequestTimeout)
	assert.Equal(t, 50, got.DefaultPageSize)
	assert.Equal(t, 100, got.MaxPageSize)
}
