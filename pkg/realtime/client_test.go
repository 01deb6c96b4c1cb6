package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pixelfolio/cli/pkg/credentials"
	"github.com/pixelfolio/cli/pkg/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var upgrader = websocket.Upgrader{}

// wsServer upgrades every request and hands the connection to serve
func wsServer(t *testing.T, serve func(r *http.Request, conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(r, conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testConfig(url string) Config {
	cfg := DefaultConfig(url)
	cfg.ConnectTimeout = time.Second
	cfg.ReconnectBaseDelay = 10 * time.Millisecond
	cfg.ReconnectMaxDelay = 20 * time.Millisecond
	return cfg
}

// drain reads until the client goes away
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("ws://localhost:5000/ws")
	assert.Equal(t, "ws://localhost:5000/ws", cfg.URL)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, -1, cfg.MaxReconnectAttempts)
}

func TestRun_SendsTokenAndDispatches(t *testing.T) {
	handshakes := make(chan *http.Request, 1)
	url := wsServer(t, func(r *http.Request, conn *websocket.Conn) {
		handshakes <- r
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"like_count_update","payload":{"portfolioId":"p1","likesCount":7}}`))
		drain(conn)
	})

	c := NewClient(testConfig(url), credentials.Static("tok", "u1"))
	got := make(chan Event, 1)
	c.On(EventLikeCountUpdate, func(ev Event) { got <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	r := <-handshakes
	assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
	assert.Equal(t, "tok", r.URL.Query().Get("token"))

	select {
	case ev := <-got:
		assert.Equal(t, EventLikeCountUpdate, ev.Type)
		assert.JSONEq(t, `{"portfolioId":"p1","likesCount":7}`, string(ev.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
	assert.True(t, c.IsConnected())

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int64(1), c.GetStats().MessagesReceived)
	assert.Equal(t, StateDisconnected, c.State())
}

func TestRun_AnonymousSendsNoToken(t *testing.T) {
	headers := make(chan string, 1)
	url := wsServer(t, func(r *http.Request, conn *websocket.Conn) {
		headers <- r.Header.Get("Authorization") + r.URL.RawQuery
		drain(conn)
	})

	c := NewClient(testConfig(url), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	assert.Equal(t, "", <-headers)
	cancel()
	require.NoError(t, <-done)
}

func TestRun_Reconnects(t *testing.T) {
	var mu sync.Mutex
	connects := 0
	url := wsServer(t, func(r *http.Request, conn *websocket.Conn) {
		mu.Lock()
		connects++
		n := connects
		mu.Unlock()
		if n == 1 {
			return // drop the first connection
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"view_count_update","payload":{"portfolioId":"p1","viewsCount":3}}`))
		drain(conn)
	})

	c := NewClient(testConfig(url), nil)
	got := make(chan struct{}, 1)
	c.On(EventViewCountUpdate, func(Event) { got <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("no event after reconnect")
	}
	cancel()
	require.NoError(t, <-done)
	assert.GreaterOrEqual(t, c.GetStats().ReconnectCount, 1)
}

func TestRun_GivesUp(t *testing.T) {
	cfg := testConfig("ws://127.0.0.1:1/ws")
	cfg.MaxReconnectAttempts = 2

	c := NewClient(cfg, nil)
	err := c.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 reconnect attempts")
	assert.NotEmpty(t, c.GetStats().LastError)
}

func TestRun_InvalidURL(t *testing.T) {
	cfg := testConfig("::not a url")
	cfg.MaxReconnectAttempts = 0

	err := NewClient(cfg, nil).Run(context.Background())
	assert.Error(t, err)
}

func TestSend_NotConnected(t *testing.T) {
	c := NewClient(testConfig("ws://localhost/ws"), nil)
	assert.Error(t, c.Send(EventHeartbeat, nil))
}

func TestRun_Heartbeat(t *testing.T) {
	beats := make(chan string, 4)
	url := wsServer(t, func(r *http.Request, conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case beats <- string(data):
			default:
			}
		}
	})

	cfg := testConfig(url)
	cfg.HeartbeatInterval = 10 * time.Millisecond
	c := NewClient(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case msg := <-beats:
		assert.JSONEq(t, `{"type":"heartbeat","payload":null}`, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no heartbeat")
	}
	cancel()
	require.NoError(t, <-done)
	assert.GreaterOrEqual(t, c.GetStats().MessagesSent, int64(1))
}

func TestBindStore(t *testing.T) {
	store := feed.NewStore(12, feed.DefaultParams())
	store.Reset([]feed.Summary{
		{ID: "p1", LikesCount: 5, ViewsCount: 10},
		{ID: "p2", LikesCount: 2, IsLikeLoading: true},
	})

	c := NewClient(testConfig("ws://unused"), nil)
	var changed []string
	BindStore(c, store, func(id string) { changed = append(changed, id) })

	dispatch := func(t EventType, payload string) {
		for _, h := range c.listeners[t] {
			h(Event{Type: t, Payload: []byte(payload)})
		}
	}

	dispatch(EventLikeCountUpdate, `{"portfolioId":"p1","likesCount":8}`)
	dispatch(EventViewCountUpdate, `{"portfolioId":"p1","viewsCount":11}`)
	dispatch(EventLikeCountUpdate, `{"portfolioId":"p2","likesCount":40}`)
	dispatch(EventLikeCountUpdate, `{"portfolioId":"missing","likesCount":1}`)
	dispatch(EventLikeCountUpdate, `not json`)

	p1, _ := store.Get("p1")
	p2, _ := store.Get("p2")
	assert.Equal(t, 8, p1.LikesCount)
	assert.Equal(t, 11, p1.ViewsCount)
	assert.Equal(t, 2, p2.LikesCount, "in-flight like keeps its optimistic count")
	assert.Equal(t, []string{"p1", "p1"}, changed)
}
