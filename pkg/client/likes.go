package client

import "sync"

// LikeChange identifies one optimistic change so it can be settled on its own
type LikeChange uint64

// LikeTracker holds like counts with optimistic changes applied on top.
// Each change is settled independently: overlapping toggles on one issue keep
// each other's deltas until their own responses arrive.
type LikeTracker struct {
	mu      sync.Mutex
	next    LikeChange
	counts  map[string]int
	pending map[string]map[LikeChange]int
}

// NewLikeTracker creates an empty tracker
func NewLikeTracker() *LikeTracker {
	return &LikeTracker{
		counts:  make(map[string]int),
		pending: make(map[string]map[LikeChange]int),
	}
}

// SetCount records a count fetched from the server. Pending changes stay
// applied on top of it.
func (t *LikeTracker) SetCount(issueID string, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[issueID] = count
}

// Begin applies an optimistic change of delta and returns its handle
func (t *LikeTracker) Begin(issueID string, delta int) LikeChange {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	if t.pending[issueID] == nil {
		t.pending[issueID] = make(map[LikeChange]int)
	}
	t.pending[issueID][t.next] = delta
	return t.next
}

// Resolve settles change with the server's count
func (t *LikeTracker) Resolve(issueID string, change LikeChange, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drop(issueID, change)
	t.counts[issueID] = count
}

// Rollback discards change
func (t *LikeTracker) Rollback(issueID string, change LikeChange) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drop(issueID, change)
}

// Count returns the displayed count. It never goes below zero.
func (t *LikeTracker) Count(issueID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.counts[issueID]
	for _, delta := range t.pending[issueID] {
		n += delta
	}
	if n < 0 {
		return 0
	}
	return n
}

// Pending reports whether any change is awaiting the server
func (t *LikeTracker) Pending(issueID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending[issueID]) > 0
}

func (t *LikeTracker) drop(issueID string, change LikeChange) {
	changes := t.pending[issueID]
	delete(changes, change)
	if len(changes) == 0 {
		delete(t.pending, issueID)
	}
}
