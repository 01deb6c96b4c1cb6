package feed

import "sync"

// Store owns the gallery list. All mutation goes through Reset, Append,
// Patch and SetParams. It does no I/O.
type Store struct {
	mu         sync.RWMutex
	pageSize   int
	items      []Summary
	page       int
	params     Params
	hasMore    bool
	generation uint64
}

// NewStore creates an empty list for the given parameters
func NewStore(pageSize int, params Params) *Store {
	if pageSize <= 0 {
		pageSize = 12
	}
	return &Store{pageSize: pageSize, page: 1, params: params}
}

// Reset replaces the list with the first page
func (s *Store) Reset(items []Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(items)
}

func (s *Store) resetLocked(items []Summary) {
	s.items = append([]Summary(nil), items...)
	s.page = 1
	s.hasMore = len(items) >= s.pageSize
	s.generation++
}

// Append adds the next page, keeping server order
func (s *Store) Append(items []Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(items)
}

func (s *Store) appendLocked(items []Summary) {
	s.items = append(s.items, items...)
	s.page++
	s.hasMore = len(items) >= s.pageSize
}

// Patch applies update to the entry with id. A missing id is a no-op and
// returns false; the entry may have been dropped by a reset.
func (s *Store) Patch(id string, update func(Summary) Summary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patchLocked(id, update)
}

// patchSince is Patch that also tells update whether the list is still
// the one from generation
func (s *Store) patchSince(id string, generation uint64, update func(Summary, bool) Summary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	same := s.generation == generation
	return s.patchLocked(id, func(item Summary) Summary {
		return update(item, same)
	})
}

func (s *Store) patchLocked(id string, update func(Summary) Summary) bool {
	for i := range s.items {
		if s.items[i].ID == id {
			next := update(s.items[i])
			next.ID = id
			if next.LikesCount < 0 {
				next.LikesCount = 0
			}
			s.items[i] = next
			return true
		}
	}
	return false
}

// SetParams switches to new parameters and clears the list
func (s *Store) SetParams(p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	s.items = nil
	s.page = 1
	s.hasMore = false
	s.generation++
}

// Get returns a copy of the entry with id
func (s *Store) Get(id string) (Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Summary{}, false
}

// Snapshot copies the whole state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Items:      append([]Summary(nil), s.items...),
		Page:       s.page,
		Params:     s.params,
		HasMore:    s.hasMore,
		Generation: s.generation,
	}
}

// Params returns the active list parameters
func (s *Store) Params() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Page returns the last loaded page, starting at 1
func (s *Store) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// HasMore reports whether the last page was full
func (s *Store) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore
}

// Len returns the number of loaded entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Generation changes on every reset or parameter switch, never on append
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// PageSize is the number of entries requested per page
func (s *Store) PageSize() int {
	return s.pageSize
}

// cursor is the tag a fetch is issued under
type cursor struct {
	params     Params
	page       int
	generation uint64
}

func (s *Store) cursor() cursor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cursor{params: s.params, page: s.page, generation: s.generation}
}

// resetIf switches from the parameters the fetch was issued under to next
// and applies its first page, in one step. It refuses if the parameters
// moved away from from in the meantime.
func (s *Store) resetIf(from, next Params, items []Summary) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.params != from {
		return s.generation, false
	}
	s.params = next
	s.resetLocked(items)
	return s.generation, true
}

// appendIf applies a next page only if nothing moved since it was requested
func (s *Store) appendIf(c cursor, items []Summary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.params != c.params || s.generation != c.generation || s.page != c.page {
		return false
	}
	s.appendLocked(items)
	return true
}
