package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pixelfolio/cli/pkg/client"
	"github.com/pixelfolio/cli/pkg/credentials"
)

// newTestClient points a fresh client at handler with the given session
func newTestClient(t *testing.T, sess credentials.Session, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(client.New(client.Options{BaseURL: srv.URL, Session: sess}))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
