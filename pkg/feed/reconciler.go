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

// LikeBackend toggles a like on the server
type LikeBackend interface {
	ToggleLike(ctx context.Context, id string) (*api.LikeResult, error)
}

type likeStatus int

const (
	likeIdle likeStatus = iota
	likePending
)

// LikeReconciler applies like toggles optimistically and then reconciles
// with the server's answer, or rolls back on failure. At most one request
// per entry is in flight.
type LikeReconciler struct {
	store    *Store
	backend  LikeBackend
	session  credentials.Session
	notifier Notifier
	log      *log.Logger

	mu     sync.Mutex
	status map[string]likeStatus
}

// NewLikeReconciler wires a reconciler to the list it patches. A nil
// notifier or logger discards.
func NewLikeReconciler(store *Store, backend LikeBackend, session credentials.Session, notifier Notifier, l *log.Logger) *LikeReconciler {
	if session == nil {
		session = credentials.Anonymous()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if l == nil {
		l = logger.Discard()
	}
	return &LikeReconciler{
		store:    store,
		backend:  backend,
		session:  session,
		notifier: notifier,
		log:      l,
		status:   make(map[string]likeStatus),
	}
}

// Pending reports whether a like request for id is in flight
func (r *LikeReconciler) Pending(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status[id] == likePending
}

// ToggleLike flips the caller's like on id
func (r *LikeReconciler) ToggleLike(ctx context.Context, id string) error {
	if !r.session.Authenticated() {
		r.notifier.Notify(Notice{
			Kind:    NoticeLoginRequired,
			Message: "Log in to like portfolios",
			Err:     ErrAuthRequired,
		})
		return ErrAuthRequired
	}

	prev, generation, err := r.begin(id)
	if err != nil {
		return err
	}
	defer r.finish(id)

	res, err := r.backend.ToggleLike(ctx, id)
	if err != nil {
		r.rollback(id, prev, generation)
		r.log.Warn("Like toggle failed, rolled back", "portfolio_id", id, "error", err)
		r.notifier.Notify(Notice{
			Kind:    NoticeError,
			Message: fmt.Sprintf("Could not update like on %q", label(prev)),
			Err:     err,
		})
		return err
	}

	r.store.Patch(id, func(s Summary) Summary {
		s.LikesCount = res.LikesCount
		s.IsLikedByUser = res.IsLikedByUser
		s.IsLikeLoading = false
		return s
	})
	r.log.Debug("Like confirmed", "portfolio_id", id, "likes", res.LikesCount, "liked", res.IsLikedByUser)
	return nil
}

// begin marks id pending and applies the optimistic flip, returning the
// values it replaced
func (r *LikeReconciler) begin(id string) (Summary, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status[id] == likePending {
		return Summary{}, 0, ErrLikePending
	}

	var prev Summary
	generation := r.store.Generation()
	found := r.store.Patch(id, func(s Summary) Summary {
		prev = s
		if s.IsLikedByUser {
			s.LikesCount--
		} else {
			s.LikesCount++
		}
		s.IsLikedByUser = !s.IsLikedByUser
		s.IsLikeLoading = true
		return s
	})
	if !found {
		return Summary{}, 0, ErrNotLoaded
	}

	r.status[id] = likePending
	return prev, generation, nil
}

// rollback restores the pre-toggle values. After a reset the entry holds
// fresh server values, so only the loading flag is cleared.
func (r *LikeReconciler) rollback(id string, prev Summary, generation uint64) {
	r.store.patchSince(id, generation, func(s Summary, sameList bool) Summary {
		if sameList {
			s.IsLikedByUser = prev.IsLikedByUser
			s.LikesCount = prev.LikesCount
		}
		s.IsLikeLoading = false
		return s
	})
}

// label names an entry for the user; entries seeded by id alone have no title
func label(s Summary) string {
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}

func (r *LikeReconciler) finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.status, id)
}
