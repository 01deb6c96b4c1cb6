package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pixelfolio/cli/pkg/api"
	"github.com/pixelfolio/cli/pkg/credentials"
	"github.com/pixelfolio/cli/pkg/logger"
)

// DefaultProbeLimit is how many of the newest portfolios the liked-state
// probe asks for
const DefaultProbeLimit = 100

// ListBackend fetches one page of portfolios
type ListBackend interface {
	ListPortfolios(ctx context.Context, q api.ListQuery) (*api.PortfolioListResponse, error)
}

// CoordinatorOptions tunes a Coordinator. Zero values take defaults.
type CoordinatorOptions struct {
	ProbeLimit int
	// Likes, when set, keeps the liked-state probe off entries with a
	// toggle in flight
	Likes    *LikeReconciler
	Notifier Notifier
	Logger   *log.Logger
}

// Coordinator fetches pages with the store's parameters and applies them
// as a reset or an append. Responses that no longer match the store are
// dropped.
type Coordinator struct {
	store      *Store
	backend    ListBackend
	session    credentials.Session
	likes      *LikeReconciler
	notifier   Notifier
	log        *log.Logger
	probeLimit int

	mu       sync.Mutex
	resetSeq uint64
}

// NewCoordinator builds a coordinator for store
func NewCoordinator(store *Store, backend ListBackend, session credentials.Session, opts CoordinatorOptions) *Coordinator {
	if session == nil {
		session = credentials.Anonymous()
	}
	c := &Coordinator{
		store:      store,
		backend:    backend,
		session:    session,
		likes:      opts.Likes,
		notifier:   opts.Notifier,
		log:        opts.Logger,
		probeLimit: opts.ProbeLimit,
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	if c.probeLimit <= 0 {
		c.probeLimit = DefaultProbeLimit
	}
	return c
}

// Load fetches a page and applies it. A response that arrives after the
// parameters or cursor moved on returns ErrStaleResponse and leaves the
// store alone.
func (c *Coordinator) Load(ctx context.Context, mode Mode) error {
	switch mode {
	case ModeReset:
		return c.loadReset(ctx, c.store.Params())
	case ModeAppend:
		return c.loadAppend(ctx)
	default:
		return fmt.Errorf("unknown load mode %v", mode)
	}
}

// Refine loads the first page for new parameters. The store switches to
// them only when that page arrives; a failed fetch leaves the current list.
func (c *Coordinator) Refine(ctx context.Context, p Params) error {
	return c.loadReset(ctx, p)
}

// LoadMore appends the next page when the last one was full
func (c *Coordinator) LoadMore(ctx context.Context) error {
	if !c.store.HasMore() {
		return nil
	}
	return c.Load(ctx, ModeAppend)
}

func (c *Coordinator) loadReset(ctx context.Context, params Params) error {
	from := c.store.Params()

	c.mu.Lock()
	c.resetSeq++
	seq := c.resetSeq
	c.mu.Unlock()

	items, err := c.fetch(ctx, params.query(1, c.store.PageSize()))
	if err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	if seq != c.resetSeq {
		c.mu.Unlock()
		return c.stale(ModeReset, params)
	}
	generation, ok := c.store.resetIf(from, params, items)
	c.mu.Unlock()
	if !ok {
		return c.stale(ModeReset, params)
	}

	c.log.Debug("Gallery reset", "items", len(items), "category", params.Category, "sort", params.Sort)

	if c.session.Authenticated() {
		c.enrich(ctx, generation)
	}
	return nil
}

func (c *Coordinator) loadAppend(ctx context.Context) error {
	cur := c.store.cursor()

	items, err := c.fetch(ctx, cur.params.query(cur.page+1, c.store.PageSize()))
	if err != nil {
		return c.fail(err)
	}

	if !c.store.appendIf(cur, items) {
		return c.stale(ModeAppend, cur.params)
	}

	c.log.Debug("Gallery page appended", "page", cur.page+1, "items", len(items))
	return nil
}

func (c *Coordinator) fetch(ctx context.Context, q api.ListQuery) ([]Summary, error) {
	resp, err := c.backend.ListPortfolios(ctx, q)
	if err != nil {
		return nil, err
	}
	return fromPortfolios(resp.Data), nil
}

func (c *Coordinator) fail(err error) error {
	c.log.Error("Failed to load portfolios", "error", err)
	c.notifier.Notify(Notice{
		Kind:    NoticeError,
		Message: "Failed to load portfolios",
		Err:     err,
	})
	return err
}

func (c *Coordinator) stale(mode Mode, params Params) error {
	c.log.Debug("Discarding stale response", "mode", mode, "category", params.Category, "sort", params.Sort, "search", params.Search)
	return ErrStaleResponse
}

// enrich fetches the newest portfolios to learn which loaded entries the
// caller has liked. Failures are logged and otherwise ignored.
func (c *Coordinator) enrich(ctx context.Context, generation uint64) {
	probe := Params{Sort: SortNewest}.query(1, c.probeLimit)
	resp, err := c.backend.ListPortfolios(ctx, probe)
	if err != nil {
		c.log.Warn("Liked-state probe failed", "error", err)
		return
	}

	if c.store.Generation() != generation {
		c.log.Debug("List changed during liked-state probe, skipping")
		return
	}

	liked := make(map[string]bool, len(resp.Data))
	for _, p := range resp.Data {
		liked[p.Key()] = p.IsLikedByUser
	}

	patched := 0
	for id, isLiked := range liked {
		if c.likes != nil && c.likes.Pending(id) {
			continue
		}
		ok := c.store.patchSince(id, generation, func(s Summary, sameList bool) Summary {
			if sameList && !s.IsLikeLoading {
				s.IsLikedByUser = isLiked
			}
			return s
		})
		if ok {
			patched++
		}
	}
	c.log.Debug("Liked-state probe applied", "probed", len(resp.Data), "matched", patched)
}
