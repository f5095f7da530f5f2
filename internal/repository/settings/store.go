// Package settings persists the runtime-tunable pipeline parameters in
// the key-value store. The pipeline reads them at the start of each
// phase; writes come only from the administrative HTTP surface.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roomscout/visearch/internal/db"
	"github.com/roomscout/visearch/internal/domain"
	"github.com/roomscout/visearch/internal/prompt"
)

// store is the consumer interface for settings persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store implements the settings repository on top of the KV store.
type Store struct {
	store store
	key   string
}

// New creates a settings store.
func New(s store) *Store {
	return &Store{store: s, key: "visearch:settings"}
}

// WithKey overrides the storage key (default "visearch:settings").
func (s *Store) WithKey(key string) *Store {
	if key != "" {
		s.key = key
	}
	return s
}

// Defaults returns the stock settings used before any administrative write.
func Defaults() domain.Settings {
	return domain.Settings{
		ExtractionPrompt: prompt.DefaultExtraction,
		RerankPrompt:     prompt.DefaultRerank,
		ResultsCount:     domain.DefaultResultsCount,
		MaxCandidates:    domain.DefaultMaxCandidates,
		ScoreThreshold:   domain.DefaultScoreThreshold,
	}
}

// Get returns the current settings. On first use the defaults are
// persisted and returned.
func (s *Store) Get(ctx context.Context) (domain.Settings, error) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			defaults := Defaults()
			if err := s.Put(ctx, defaults); err != nil {
				return domain.Settings{}, fmt.Errorf("persist default settings: %w", err)
			}
			return defaults, nil
		}
		return domain.Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var cfg domain.Settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings: %w", err)
	}

	// Stored values predating a bounds change are forced back into range.
	cfg.Clamp()
	if cfg.ExtractionPrompt == "" {
		cfg.ExtractionPrompt = prompt.DefaultExtraction
	}
	if cfg.RerankPrompt == "" {
		cfg.RerankPrompt = prompt.DefaultRerank
	}
	return cfg, nil
}

// Put validates and persists new settings.
func (s *Store) Put(ctx context.Context, cfg domain.Settings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.store.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
