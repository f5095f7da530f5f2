// Package feedback keeps an in-memory tally of per-item result votes.
// The tally resets on restart; persistence is out of scope.
package feedback

import "sync"

// Counts holds the votes recorded for one catalog item.
type Counts struct {
	Helpful   int `json:"helpful"`
	Unhelpful int `json:"unhelpful"`
}

// Tally is a mutex-guarded vote counter keyed by item id.
type Tally struct {
	mu     sync.Mutex
	counts map[string]Counts
}

// New creates an empty tally.
func New() *Tally {
	return &Tally{counts: make(map[string]Counts)}
}

// Record adds one vote for the given item.
func (t *Tally) Record(itemID string, helpful bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.counts[itemID]
	if helpful {
		c.Helpful++
	} else {
		c.Unhelpful++
	}
	t.counts[itemID] = c
}

// Snapshot returns a copy of the current tally.
func (t *Tally) Snapshot() map[string]Counts {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Counts, len(t.counts))
	for id, c := range t.counts {
		out[id] = c
	}
	return out
}

// Totals returns the aggregate helpful/unhelpful vote counts.
func (t *Tally) Totals() (helpful, unhelpful int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, c := range t.counts {
		helpful += c.Helpful
		unhelpful += c.Unhelpful
	}
	return helpful, unhelpful
}
