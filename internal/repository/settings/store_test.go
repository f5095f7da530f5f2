package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/roomscout/visearch/internal/db"
	"github.com/roomscout/visearch/internal/domain"
)

type mockKV struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMockKV() *mockKV {
	return &mockKV{data: map[string][]byte{}}
}

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKV) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func TestGet_FirstUsePersistsDefaults(t *testing.T) {
	kv := newMockKV()
	store := New(kv)

	cfg, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ResultsCount != domain.DefaultResultsCount {
		t.Errorf("resultsCount: got %d", cfg.ResultsCount)
	}
	if cfg.ExtractionPrompt == "" || cfg.RerankPrompt == "" {
		t.Error("default prompts must be non-empty")
	}
	if _, ok := kv.data["visearch:settings"]; !ok {
		t.Error("defaults were not persisted")
	}
}

func TestGet_ClampsOutOfRangeStoredValues(t *testing.T) {
	kv := newMockKV()
	raw, _ := json.Marshal(domain.Settings{
		ExtractionPrompt: "e", RerankPrompt: "r",
		ResultsCount: 50, MaxCandidates: 2, ScoreThreshold: 250,
	})
	kv.data["visearch:settings"] = raw
	store := New(kv)

	cfg, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ResultsCount != domain.MaxResultsCount {
		t.Errorf("resultsCount: got %d", cfg.ResultsCount)
	}
	if cfg.MaxCandidates != domain.MinCandidates {
		t.Errorf("maxCandidates: got %d", cfg.MaxCandidates)
	}
	if cfg.ScoreThreshold != domain.MaxScoreThreshold {
		t.Errorf("scoreThreshold: got %d", cfg.ScoreThreshold)
	}
}

func TestPut_RejectsOutOfRange(t *testing.T) {
	store := New(newMockKV())
	cfg := Defaults()
	cfg.ResultsCount = 2

	err := store.Put(context.Background(), cfg)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPut_RoundTrips(t *testing.T) {
	kv := newMockKV()
	store := New(kv)

	want := Defaults()
	want.ResultsCount = 9
	want.ScoreThreshold = 75
	if err := store.Put(context.Background(), want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ResultsCount != 9 || got.ScoreThreshold != 75 {
		t.Errorf("round trip: got %+v", got)
	}
}
