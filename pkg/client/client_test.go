package client

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixelfolio/cli/pkg/config"
	"github.com/pixelfolio/cli/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHeaders(t *testing.T) (*httptest.Server, *http.Header) {
	t.Helper()
	var seen http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestNewAddsBearerForAuthenticatedSession(t *testing.T) {
	srv, seen := echoHeaders(t)

	c := New(Options{BaseURL: srv.URL, Timeout: time.Second, Session: credentials.Static("tok123", "u1")})
	_, err := c.R().Get("/api/portfolios")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok123", seen.Get("Authorization"))
	assert.NotEmpty(t, seen.Get("X-Request-ID"))
	assert.Equal(t, userAgent, seen.Get("User-Agent"))
}

func TestNewOmitsBearerForAnonymousSession(t *testing.T) {
	srv, seen := echoHeaders(t)

	c := New(Options{BaseURL: srv.URL, Session: credentials.Anonymous()})
	_, err := c.R().Get("/api/portfolios")
	require.NoError(t, err)

	assert.Empty(t, seen.Get("Authorization"))
}

func TestRequestIDsAreUnique(t *testing.T) {
	srv, seen := echoHeaders(t)
	c := New(Options{BaseURL: srv.URL})

	_, err := c.R().Get("/")
	require.NoError(t, err)
	first := seen.Get("X-Request-ID")

	_, err = c.R().Get("/")
	require.NoError(t, err)
	assert.NotEqual(t, first, seen.Get("X-Request-ID"))
}

func TestGetClientSingleton(t *testing.T) {
	require.NoError(t, config.Init(filepath.Join(t.TempDir(), "config.toml")))
	httpClient = nil

	c1 := GetClient()
	c2 := GetClient()
	assert.Same(t, c1, c2)
	assert.Equal(t, "http://localhost:5000", c1.BaseURL)
}

func TestSetAndClearSession(t *testing.T) {
	require.NoError(t, config.Init(filepath.Join(t.TempDir(), "config.toml")))

	SetSession(credentials.Static("tok", "u1"))
	assert.True(t, GetSession().Authenticated())

	ClearSession()
	assert.False(t, GetSession().Authenticated())
	assert.NotNil(t, GetClient())
}

func TestNewUploadClientIsAnonymous(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, config.Init(""))
	SetSession(credentials.Static("backend-token", "u1"))
	t.Cleanup(ClearSession)

	srv, seen := echoHeaders(t)
	config.Set("upload.base_url", srv.URL)

	_, err := NewUploadClient().R().Post("/demo/image/upload")
	require.NoError(t, err)
	assert.Empty(t, seen.Get("Authorization"))
	assert.NotEmpty(t, seen.Get("X-Request-ID"))
}
