package feed

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pixelfolio/cli/pkg/api"
	"github.com/pixelfolio/cli/pkg/logger"
)

// DefaultViewDelay is the quiet period before a view is reported
const DefaultViewDelay = time.Second

// ViewBackend reports a view by fetching the portfolio
type ViewBackend interface {
	GetPortfolio(ctx context.Context, id string) (*api.Portfolio, error)
}

type pendingView struct {
	timer *time.Timer
}

// ViewTracker coalesces view reports: repeated Schedule calls for the same
// id within the delay produce a single request once the id goes quiet.
// Failures are logged and never retried.
type ViewTracker struct {
	backend ViewBackend
	delay   time.Duration
	log     *log.Logger

	mu     sync.Mutex
	timers map[string]*pendingView
	closed bool
	wg     sync.WaitGroup
}

// NewViewTracker creates a tracker. delay <= 0 uses DefaultViewDelay.
func NewViewTracker(backend ViewBackend, delay time.Duration, l *log.Logger) *ViewTracker {
	if delay <= 0 {
		delay = DefaultViewDelay
	}
	if l == nil {
		l = logger.Discard()
	}
	return &ViewTracker{
		backend: backend,
		delay:   delay,
		log:     l,
		timers:  make(map[string]*pendingView),
	}
}

// Schedule restarts the quiet period for id
func (v *ViewTracker) Schedule(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}

	if p, ok := v.timers[id]; ok && p.timer.Stop() {
		v.wg.Done()
	}

	v.wg.Add(1)
	p := &pendingView{}
	p.timer = time.AfterFunc(v.delay, func() { v.fire(id, p) })
	v.timers[id] = p
}

// Pending returns how many ids are waiting for their quiet period to end
func (v *ViewTracker) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.timers)
}

// Flush reports every waiting id now instead of after its delay
func (v *ViewTracker) Flush() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, p := range v.timers {
		if p.timer.Stop() {
			delete(v.timers, id)
			go v.report(id)
		}
	}
}

// Close drops ids still waiting and blocks until in-flight reports finish.
// Call Flush first to send them instead.
func (v *ViewTracker) Close() {
	v.mu.Lock()
	v.closed = true
	for id, p := range v.timers {
		if p.timer.Stop() {
			v.wg.Done()
		}
		delete(v.timers, id)
	}
	v.mu.Unlock()

	v.wg.Wait()
}

func (v *ViewTracker) fire(id string, p *pendingView) {
	v.mu.Lock()
	if v.timers[id] == p {
		delete(v.timers, id)
	}
	v.mu.Unlock()

	v.report(id)
}

func (v *ViewTracker) report(id string) {
	defer v.wg.Done()

	if _, err := v.backend.GetPortfolio(context.Background(), id); err != nil {
		v.log.Warn("View report failed", "portfolio_id", id, "error", err)
		return
	}
	v.log.Debug("View reported", "portfolio_id", id)
}
