package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pixelfolio/cli/pkg/api"
	"github.com/pixelfolio/cli/pkg/client"
	"github.com/pixelfolio/cli/pkg/config"
	"github.com/pixelfolio/cli/pkg/credentials"
	"github.com/pixelfolio/cli/pkg/feed"
	"github.com/pixelfolio/cli/pkg/output"
	"github.com/pixelfolio/cli/pkg/prompter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer collects output written from several goroutines
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	deps     Deps
	out      *lockedBuffer
	notices  *feed.Recorder
	requests *requestLog
}

// requestLog records "METHOD /path?query" for every request the fake saw
type requestLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *requestLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		line += "?" + r.URL.RawQuery
	}
	l.lines = append(l.lines, line)
}

func (l *requestLog) count(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

// newTestEnv points services at handler with a throwaway config dir and
// scripted prompt answers
func newTestEnv(t *testing.T, sess credentials.Session, input string, handler http.HandlerFunc) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, config.Init(""))
	config.Set("gallery.page_size", 2)

	reqs := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs.add(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	out := &lockedBuffer{}
	output.SetWriter(out)
	prompter.SetInput(strings.NewReader(input))
	t.Cleanup(func() {
		output.SetWriter(nil)
		prompter.SetInput(nil)
		client.ClearSession()
	})

	notices := &feed.Recorder{}
	return &testEnv{
		deps: Deps{
			API:      api.New(client.New(client.Options{BaseURL: srv.URL, Session: sess})),
			Session:  sess,
			Images:   api.NewImageHost(client.New(client.Options{BaseURL: srv.URL}), "demo", "unsigned"),
			Notifier: notices,
		},
		out:      out,
		notices:  notices,
		requests: reqs,
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// writeImage creates an image file the upload paths accept
func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG fake"), 0600))
	return path
}

func TestUploadImages_KeepsInputOrder(t *testing.T) {
	env := newTestEnv(t, credentials.Anonymous(), "", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "unsigned", r.FormValue("upload_preset"))
		_, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, `{"message":"no file"}`)
			return
		}
		// later files finish first
		if strings.HasPrefix(header.Filename, "a") {
			time.Sleep(30 * time.Millisecond)
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"secure_url":"https://img.test/%s"}`, header.Filename))
	})

	paths := []string{writeImage(t, "a.png"), writeImage(t, "b.jpg"), writeImage(t, "c.webp")}
	urls, err := uploadImages(context.Background(), env.deps.Images, paths)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.test/a.png", "https://img.test/b.jpg", "https://img.test/c.webp"}, urls)
	assert.Equal(t, 3, env.requests.count("POST /demo/image/upload"))
}

func TestUploadImages_FailsWhenOneFails(t *testing.T) {
	env := newTestEnv(t, credentials.Anonymous(), "", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		_, header, _ := r.FormFile("file")
		if header != nil && header.Filename == "bad.png" {
			writeJSON(w, http.StatusBadRequest, `{"error":{"message":"Invalid image file"}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"secure_url":"https://img.test/ok"}`)
	})

	_, err := uploadImages(context.Background(), env.deps.Images, []string{writeImage(t, "ok.png"), writeImage(t, "bad.png")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.png")
}

func TestUploadImages_NotConfigured(t *testing.T) {
	newTestEnv(t, credentials.Anonymous(), "", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	host := api.NewImageHost(client.New(client.Options{}), "", "")
	_, err := uploadImages(context.Background(), host, []string{"x.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")

	urls, err := uploadImages(context.Background(), host, nil)
	assert.NoError(t, err)
	assert.Nil(t, urls)
}

func TestRequireAuth(t *testing.T) {
	assert.Error(t, Deps{}.requireAuth("like"))
	assert.NoError(t, Deps{Session: credentials.Static("tok", "u1")}.requireAuth("like"))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 like", pluralize(1, "like"))
	assert.Equal(t, "0 likes", pluralize(0, "like"))
	assert.Equal(t, "3 views", pluralize(3, "view"))
}
