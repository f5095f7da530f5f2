// Package catalog provides read access to the furniture catalog for the
// retrieval cascade and the taxonomy index, plus seeding for operations.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/roomscout/visearch/internal/db"
	"github.com/roomscout/visearch/internal/domain"
)

const indexName = "idx:items"

// store is the consumer interface for catalog operations (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
}

// Repo implements the catalog reads the retrieval cascade needs. The
// pipeline only reads; Put and EnsureIndex exist for seeding tooling.
type Repo struct {
	store  store
	prefix string
}

// New creates a catalog repository.
func New(s store) *Repo {
	return &Repo{store: s, prefix: "visearch:"}
}

// WithKeyPrefix overrides the key prefix (default "visearch:").
func (r *Repo) WithKeyPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

// ByType returns up to limit items whose type equals typ.
func (r *Repo) ByType(ctx context.Context, typ string, limit int) ([]domain.Item, error) {
	return r.search(ctx, db.TagFilter("type", typ), limit)
}

// ByCategory returns up to limit items in the category, excluding items
// of excludeType when it is non-empty.
func (r *Repo) ByCategory(ctx context.Context, category, excludeType string, limit int) ([]domain.Item, error) {
	query := db.TagFilter("category", category)
	if excludeType != "" {
		query = db.And(query, db.NotTagFilter("type", excludeType))
	}
	return r.search(ctx, query, limit)
}

// Excluding returns up to limit items whose id is not in excludeIDs.
func (r *Repo) Excluding(ctx context.Context, excludeIDs []string, limit int) ([]domain.Item, error) {
	if len(excludeIDs) == 0 {
		return r.All(ctx, limit)
	}
	return r.search(ctx, db.NotTagAnyFilter("id", excludeIDs), limit)
}

// All returns up to limit items with no filter. Ordering is store-defined.
func (r *Repo) All(ctx context.Context, limit int) ([]domain.Item, error) {
	return r.search(ctx, db.MatchAll, limit)
}

func (r *Repo) search(ctx context.Context, query string, limit int) ([]domain.Item, error) {
	if limit <= 0 {
		return nil, nil
	}

	res, err := r.store.SearchList(ctx, indexName, query, 0, limit, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: search items: %w", domain.ErrCatalogUnavailable, err)
	}

	items := make([]domain.Item, 0, len(res.Entries))
	for _, e := range res.Entries {
		item, err := itemFromHash(e.Fields)
		if err != nil {
			return nil, fmt.Errorf("%w: item %s: %w", domain.ErrCatalogUnavailable, e.Key, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// CategoryTypes returns every (category, type) pair present in the
// catalog, with duplicates. The taxonomy index dedupes and sorts.
func (r *Repo) CategoryTypes(ctx context.Context) (map[string][]string, error) {
	keys, err := r.store.Scan(ctx, r.itemKey("*"))
	if err != nil {
		return nil, fmt.Errorf("%w: scan items: %w", domain.ErrCatalogUnavailable, err)
	}
	if len(keys) == 0 {
		return map[string][]string{}, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: read items: %w", domain.ErrCatalogUnavailable, err)
	}

	out := make(map[string][]string)
	for _, h := range hashes {
		category := h["category"]
		typ := h["type"]
		if category == "" || typ == "" {
			continue
		}
		out[category] = append(out[category], typ)
	}
	return out, nil
}

// Put stores catalog items as hashes. Seeding only; the pipeline never writes.
func (r *Repo) Put(ctx context.Context, items []domain.Item) error {
	batch := make([]db.HashSetItem, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			return fmt.Errorf("item with empty id")
		}
		batch = append(batch, db.HashSetItem{
			Key:    r.itemKey(item.ID),
			Fields: itemToHash(item),
		})
	}
	if err := r.store.HSetMulti(ctx, batch); err != nil {
		return fmt.Errorf("store items: %w", err)
	}
	return nil
}

// EnsureIndex creates the FT index over item hashes if it is absent.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(indexName).
		Prefix(r.itemKey("")).
		Tag("id").
		Tag("type").
		Tag("category").
		Numeric("price").
		Text("title").
		Build()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (r *Repo) itemKey(id string) string {
	return r.prefix + "item:" + id
}
