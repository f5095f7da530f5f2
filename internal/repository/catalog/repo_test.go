package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/roomscout/visearch/internal/db"
	"github.com/roomscout/visearch/internal/domain"
)

type mockStore struct {
	searchResult *db.SearchResult
	searchErr    error
	lastQuery    string
	lastLimit    int

	scanKeys []string
	scanErr  error
	hashes   []map[string]string

	putItems    []db.HashSetItem
	indexExists bool
	createdIdx  *db.IndexDefinition
}

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.putItems = items
	return nil
}

func (m *mockStore) HGetAllMulti(_ context.Context, _ []string) ([]map[string]string, error) {
	return m.hashes, nil
}

func (m *mockStore) Scan(_ context.Context, _ string) ([]string, error) {
	return m.scanKeys, m.scanErr
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.createdIdx = def
	return nil
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.indexExists, nil
}

func (m *mockStore) SearchList(
	_ context.Context, _, query string, _, limit int, _ []string,
) (*db.SearchResult, error) {
	m.lastQuery = query
	m.lastLimit = limit
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResult == nil {
		return &db.SearchResult{}, nil
	}
	return m.searchResult, nil
}

func entry(id, typ, category string) db.SearchEntry {
	return db.SearchEntry{
		Key: "visearch:item:" + id,
		Fields: map[string]string{
			"id": id, "title": "t-" + id, "category": category, "type": typ,
			"price": "199.5", "width_cm": "80", "depth_cm": "90", "height_cm": "100",
		},
	}
}

func TestByType_QueryAndMapping(t *testing.T) {
	store := &mockStore{searchResult: &db.SearchResult{
		Total:   1,
		Entries: []db.SearchEntry{entry("a1", "Sofa", "Living Room Furniture")},
	}}
	repo := New(store)

	items, err := repo.ByType(context.Background(), "Sofa", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastQuery != "@type:{Sofa}" {
		t.Errorf("query: got %q", store.lastQuery)
	}
	if store.lastLimit != 10 {
		t.Errorf("limit: got %d", store.lastLimit)
	}
	if len(items) != 1 || items[0].ID != "a1" || items[0].Price != 199.5 {
		t.Errorf("mapping: got %+v", items)
	}
}

func TestByCategory_ExcludesType(t *testing.T) {
	store := &mockStore{}
	repo := New(store)

	if _, err := repo.ByCategory(context.Background(), "Living Room Furniture", "Sofa", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `@category:{Living\ Room\ Furniture} -@type:{Sofa}`
	if store.lastQuery != want {
		t.Errorf("query: got %q, want %q", store.lastQuery, want)
	}
}

func TestByCategory_NoExclusionWhenTypeEmpty(t *testing.T) {
	store := &mockStore{}
	repo := New(store)

	if _, err := repo.ByCategory(context.Background(), "Beds", "", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastQuery != "@category:{Beds}" {
		t.Errorf("query: got %q", store.lastQuery)
	}
}

func TestExcluding_BuildsNegativeIDFilter(t *testing.T) {
	store := &mockStore{}
	repo := New(store)

	if _, err := repo.Excluding(context.Background(), []string{"a1", "b2"}, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastQuery != "-@id:{a1|b2}" {
		t.Errorf("query: got %q", store.lastQuery)
	}
}

func TestExcluding_EmptyListFallsBackToAll(t *testing.T) {
	store := &mockStore{}
	repo := New(store)

	if _, err := repo.Excluding(context.Background(), nil, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastQuery != "*" {
		t.Errorf("query: got %q", store.lastQuery)
	}
}

func TestSearch_ZeroLimitSkipsStore(t *testing.T) {
	store := &mockStore{searchErr: errors.New("should not be called")}
	repo := New(store)

	items, err := repo.All(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items != nil {
		t.Errorf("expected nil items, got %v", items)
	}
}

func TestSearch_StoreErrorMapsToCatalogUnavailable(t *testing.T) {
	store := &mockStore{searchErr: errors.New("connection refused")}
	repo := New(store)

	_, err := repo.All(context.Background(), 10)
	if !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Errorf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestCategoryTypes_CollectsPairs(t *testing.T) {
	store := &mockStore{
		scanKeys: []string{"visearch:item:a", "visearch:item:b", "visearch:item:c"},
		hashes: []map[string]string{
			{"category": "Beds", "type": "Double Bed"},
			{"category": "Beds", "type": "Double Bed"},
			{"category": "Seating", "type": "Armchair"},
		},
	}
	repo := New(store)

	got, err := repo.CategoryTypes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got["Beds"]) != 2 || len(got["Seating"]) != 1 {
		t.Errorf("pairs: got %v", got)
	}
}

func TestEnsureIndex_SkipsWhenPresent(t *testing.T) {
	store := &mockStore{indexExists: true}
	repo := New(store)

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.createdIdx != nil {
		t.Error("index should not be recreated")
	}
}

func TestEnsureIndex_CreatesWithItemPrefix(t *testing.T) {
	store := &mockStore{}
	repo := New(store).WithKeyPrefix("test:")

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.createdIdx == nil {
		t.Fatal("expected index creation")
	}
	if store.createdIdx.Prefixes[0] != "test:item:" {
		t.Errorf("prefix: got %q", store.createdIdx.Prefixes[0])
	}
}

func TestPut_RejectsEmptyID(t *testing.T) {
	repo := New(&mockStore{})
	err := repo.Put(context.Background(), []domain.Item{{ID: " "}})
	if err == nil {
		t.Fatal("expected error for empty id")
	}
}
