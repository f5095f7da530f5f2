// Package rerank implements the re-ranking stage: one batched vision
// call scoring all retrieved candidates against the query image.
package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/roomscout/visearch/internal/domain"
	"github.com/roomscout/visearch/internal/prompt"
	"github.com/roomscout/visearch/internal/transport/openai"
	"github.com/roomscout/visearch/internal/usecase/extract"
)

// Service runs the re-ranking stage.
type Service struct {
	provider Provider
	logger   *zap.Logger
}

// New creates a re-ranking service.
func New(provider Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, logger: logger}
}

// Rerank scores candidates against the query image in one batched call
// and returns them ordered best-first. Candidates the model skipped or
// invented are dropped silently; the caller applies any score cutoff.
func (s *Service) Rerank(ctx context.Context, in domain.SearchInput, candidates []domain.Item, template string, resultsCount int) ([]domain.ScoredItem, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	system := prompt.Render(template, map[string]string{
		"resultsCount": strconv.Itoa(resultsCount),
		"refinement":   strings.TrimSpace(in.Query),
	})

	resp, err := s.provider.Complete(ctx, openai.Request{
		Stage:    "rerank",
		System:   system,
		Image:    in.Image,
		MIMEType: in.MIMEType,
		UserText: Listing(candidates),
	})
	if err != nil {
		return nil, fmt.Errorf("rerank call: %w", err)
	}

	scored, err := s.parseScores(resp.Text, candidates)
	if err != nil {
		s.logger.Warn("undecodable rerank output", zap.Error(err))
		return nil, err
	}
	return scored, nil
}

// Listing renders candidates one per line for the model, pipe-separated:
// id | title | category | type | price | dimensions | description.
func Listing(items []domain.Item) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(it.ID)
		b.WriteString(" | ")
		b.WriteString(it.Title)
		b.WriteString(" | ")
		b.WriteString(it.Category)
		b.WriteString(" | ")
		b.WriteString(it.Type)
		b.WriteString(" | ")
		b.WriteString(strconv.FormatFloat(it.Price, 'f', 2, 64))
		b.WriteString(" | ")
		fmt.Fprintf(&b, "%gx%gx%g cm", it.WidthCM, it.DepthCM, it.HeightCM)
		b.WriteString(" | ")
		b.WriteString(strings.ReplaceAll(it.Description, "\n", " "))
	}
	return b.String()
}

type scoreWire struct {
	ID            string `json:"id"`
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

func (s *Service) parseScores(text string, candidates []domain.Item) ([]domain.ScoredItem, error) {
	cleaned := extract.StripCodeFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty model output", domain.ErrBadModelOutput)
	}

	var wires []scoreWire
	if err := json.Unmarshal([]byte(cleaned), &wires); err != nil {
		return nil, fmt.Errorf("%w: decode scores: %v", domain.ErrBadModelOutput, err)
	}

	byID := make(map[string]domain.Item, len(candidates))
	for _, it := range candidates {
		byID[it.ID] = it
	}

	scored := make([]domain.ScoredItem, 0, len(wires))
	seen := make(map[string]struct{}, len(wires))
	for _, w := range wires {
		item, ok := byID[w.ID]
		if !ok {
			s.logger.Debug("score for unknown candidate dropped", zap.String("id", w.ID))
			continue
		}
		if _, dup := seen[w.ID]; dup {
			continue
		}
		seen[w.ID] = struct{}{}

		scored = append(scored, domain.ScoredItem{
			Item:          item,
			Score:         clampScore(w.Score),
			Justification: w.Justification,
		})
	}

	// Stable sort keeps the model's relative order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored, nil
}

func clampScore(score int) int {
	if score < domain.MinScoreThreshold {
		return domain.MinScoreThreshold
	}
	if score > domain.MaxScoreThreshold {
		return domain.MaxScoreThreshold
	}
	return score
}
