// Package pipeline orchestrates the two-phase search: extraction plus
// retrieval first, re-ranking second, each phase reported to the client
// as it completes.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roomscout/visearch/internal/domain"
	"github.com/roomscout/visearch/internal/metrics"
)

// EmitFunc delivers one stream event to the client. A non-nil error
// means the client is unreachable and the run should stop.
type EmitFunc func(domain.Event) error

// errEmit marks delivery failures so Run never tries to push an error
// event at a client that already went away.
var errEmit = errors.New("event delivery failed")

// Service orchestrates one search run.
type Service struct {
	settings  Settings
	extractor Extractor
	retriever Retriever
	reranker  Reranker
	logger    *zap.Logger
}

// New creates a pipeline service.
func New(settings Settings, extractor Extractor, retriever Retriever, reranker Reranker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		settings:  settings,
		extractor: extractor,
		retriever: retriever,
		reranker:  reranker,
		logger:    logger,
	}
}

// Run executes the full pipeline for one input, delivering events
// through emit. Every run ends with exactly one terminal event unless
// delivery itself fails; in that case the run aborts silently.
func (s *Service) Run(ctx context.Context, in domain.SearchInput, emit EmitFunc) error {
	err := s.run(ctx, in, emit)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errEmit):
		metrics.PipelineRunsTotal.WithLabelValues("aborted").Inc()
		s.logger.Info("search run aborted, client gone", zap.Error(err))
		return err
	default:
		metrics.PipelineRunsTotal.WithLabelValues("error").Inc()
		s.logger.Error("search run failed", zap.Error(err))
		if emitErr := emit(domain.ErrorEvent(err)); emitErr != nil {
			s.logger.Debug("error event delivery failed", zap.Error(emitErr))
		}
		return err
	}
}

func (s *Service) run(ctx context.Context, in domain.SearchInput, emit EmitFunc) error {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	analysis, err := s.extractor.Extract(ctx, in, cfg.ExtractionPrompt)
	if err != nil {
		return err
	}

	if !analysis.IsFurniture {
		metrics.PipelineRunsTotal.WithLabelValues("not-furniture").Inc()
		if err := emit(domain.NotFurnitureEvent(analysis)); err != nil {
			return fmt.Errorf("%w: %v", errEmit, err)
		}
		return nil
	}

	candidates, err := s.retriever.Retrieve(ctx, analysis, cfg.MaxCandidates)
	if err != nil {
		return err
	}
	metrics.CandidatesRetrieved.Observe(float64(len(candidates)))

	if err := emit(domain.CandidatesEvent(analysis, candidates)); err != nil {
		return fmt.Errorf("%w: %v", errEmit, err)
	}

	// Settings are re-read so threshold and prompt edits made while
	// phase one ran take effect here.
	cfg, err = s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	scored, err := s.reranker.Rerank(ctx, in, candidates, cfg.RerankPrompt, cfg.ResultsCount)
	if err != nil {
		return err
	}

	results := aboveThreshold(scored, cfg.ScoreThreshold)
	if len(results) > cfg.ResultsCount {
		results = results[:cfg.ResultsCount]
	}

	metrics.PipelineRunsTotal.WithLabelValues("results").Inc()
	s.logger.Info("search run completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Int("threshold", cfg.ScoreThreshold),
	)

	if err := emit(domain.ResultsEvent(results, cfg.ScoreThreshold)); err != nil {
		return fmt.Errorf("%w: %v", errEmit, err)
	}
	return nil
}

// aboveThreshold keeps ranked items scoring at or above the cutoff. The
// input is ordered best-first, so the result stays ordered.
func aboveThreshold(scored []domain.ScoredItem, threshold int) []domain.ScoredItem {
	results := make([]domain.ScoredItem, 0, len(scored))
	for _, item := range scored {
		if item.Score >= threshold {
			results = append(results, item)
		}
	}
	return results
}
