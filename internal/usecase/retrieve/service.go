// Package retrieve implements the cascading candidate retrieval: exact
// type match first, then same-category items, then anything else, until
// the candidate budget is filled.
package retrieve

import (
	"context"

	"go.uber.org/zap"

	"github.com/roomscout/visearch/internal/domain"
)

// Service runs the retrieval cascade.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a retrieval service.
func New(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Retrieve collects up to maxCandidates items for the analysis. Tiers
// run in order and each consumes only the remaining capacity; later
// tiers exclude what earlier tiers already returned. When the analysis
// carries neither type nor category the whole cascade degrades to one
// unfiltered read.
func (s *Service) Retrieve(ctx context.Context, analysis domain.Analysis, maxCandidates int) ([]domain.Item, error) {
	if maxCandidates <= 0 {
		return nil, nil
	}

	var (
		typ      string
		category string
	)
	if analysis.Attributes != nil {
		typ = analysis.Attributes.Type
		category = analysis.Attributes.Category
	}

	if typ == "" && category == "" {
		items, err := s.repo.All(ctx, maxCandidates)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("retrieval cascade skipped, unfiltered read",
			zap.Int("candidates", len(items)))
		return dedupe(items), nil
	}

	collected := make([]domain.Item, 0, maxCandidates)

	if typ != "" {
		items, err := s.repo.ByType(ctx, typ, maxCandidates)
		if err != nil {
			return nil, err
		}
		collected = append(collected, items...)
	}

	if remaining := maxCandidates - len(collected); remaining > 0 && category != "" {
		// Exclude the type tier's matches server-side rather than
		// refetching and filtering here.
		items, err := s.repo.ByCategory(ctx, category, typ, remaining)
		if err != nil {
			return nil, err
		}
		collected = append(collected, items...)
	}

	if remaining := maxCandidates - len(collected); remaining > 0 && len(collected) > 0 {
		items, err := s.repo.Excluding(ctx, ids(collected), remaining)
		if err != nil {
			return nil, err
		}
		collected = append(collected, items...)
	}

	collected = dedupe(collected)
	if len(collected) > maxCandidates {
		collected = collected[:maxCandidates]
	}

	s.logger.Debug("retrieval cascade finished",
		zap.String("type", typ),
		zap.String("category", category),
		zap.Int("candidates", len(collected)))

	return collected, nil
}

func ids(items []domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

// dedupe keeps the first occurrence of each id, preserving order. The
// tier queries already avoid overlap; this guards against catalog rows
// sharing an id.
func dedupe(items []domain.Item) []domain.Item {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
