// Package taxonomy maintains a cached category→types view of the catalog
// used to ground the extraction prompt.
package taxonomy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the staleness window after which the view is rebuilt
// lazily from the catalog.
const DefaultTTL = 5 * time.Minute

// Source lists raw (category, type) pairs from the catalog, duplicates
// included.
type Source interface {
	CategoryTypes(ctx context.Context) (map[string][]string, error)
}

// Index is the cached taxonomy view. Reads are shared by concurrent
// requests; a rebuild happens at most once per staleness window.
type Index struct {
	src Source
	ttl time.Duration
	now func() time.Time

	mu         sync.Mutex
	builtAt    time.Time
	byCategory map[string][]string
	grounding  string
}

// New creates a taxonomy index over the given source.
func New(src Source) *Index {
	return &Index{src: src, ttl: DefaultTTL, now: time.Now}
}

// WithTTL overrides the staleness window.
func (x *Index) WithTTL(ttl time.Duration) *Index {
	if ttl > 0 {
		x.ttl = ttl
	}
	return x
}

// WithClock overrides the time source, for tests.
func (x *Index) WithClock(now func() time.Time) *Index {
	if now != nil {
		x.now = now
	}
	return x
}

// GroundingText returns the taxonomy listing injected into the extraction
// template: one `category: type, type` line per category, categories and
// types lexically sorted, types deduplicated.
func (x *Index) GroundingText(ctx context.Context) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.refreshLocked(ctx); err != nil {
		return "", err
	}
	return x.grounding, nil
}

// View returns the current category→types mapping.
func (x *Index) View(ctx context.Context) (map[string][]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.refreshLocked(ctx); err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(x.byCategory))
	for cat, types := range x.byCategory {
		out[cat] = append([]string(nil), types...)
	}
	return out, nil
}

func (x *Index) refreshLocked(ctx context.Context) error {
	if x.byCategory != nil && x.now().Sub(x.builtAt) < x.ttl {
		return nil
	}

	raw, err := x.src.CategoryTypes(ctx)
	if err != nil {
		// A stale view beats no view while the catalog is unreachable.
		if x.byCategory != nil {
			return nil
		}
		return fmt.Errorf("build taxonomy: %w", err)
	}

	byCategory := make(map[string][]string, len(raw))
	for cat, types := range raw {
		seen := make(map[string]struct{}, len(types))
		deduped := make([]string, 0, len(types))
		for _, t := range types {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			deduped = append(deduped, t)
		}
		sort.Strings(deduped)
		byCategory[cat] = deduped
	}

	x.byCategory = byCategory
	x.grounding = renderGrounding(byCategory)
	x.builtAt = x.now()
	return nil
}

func renderGrounding(byCategory map[string][]string) string {
	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	for _, cat := range categories {
		b.WriteString(cat)
		b.WriteString(": ")
		b.WriteString(strings.Join(byCategory[cat], ", "))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
