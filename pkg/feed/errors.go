package feed

import "errors"

var (
	// ErrAuthRequired rejects a like from a logged-out session before any request is made
	ErrAuthRequired = errors.New("authentication required")
	// ErrLikePending rejects a second toggle while one is in flight for the same entry
	ErrLikePending = errors.New("like request already in flight")
	// ErrNotLoaded rejects a toggle for an entry that is not in the list
	ErrNotLoaded = errors.New("portfolio not loaded")
	// ErrStaleResponse marks a response discarded because the list moved on
	ErrStaleResponse = errors.New("stale response discarded")
)
