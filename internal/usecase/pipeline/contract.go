package pipeline

import (
	"context"

	"github.com/roomscout/visearch/internal/domain"
)

// Settings supplies the tunable parameters. The pipeline re-reads them
// at the start of each phase so administrative writes land mid-stream.
type Settings interface {
	Get(ctx context.Context) (domain.Settings, error)
}

// Extractor runs the attribute extraction stage.
type Extractor interface {
	Extract(ctx context.Context, in domain.SearchInput, template string) (domain.Analysis, error)
}

// Retriever runs the candidate retrieval cascade.
type Retriever interface {
	Retrieve(ctx context.Context, analysis domain.Analysis, maxCandidates int) ([]domain.Item, error)
}

// Reranker runs the batched re-ranking stage.
type Reranker interface {
	Rerank(ctx context.Context, in domain.SearchInput, candidates []domain.Item, template string, resultsCount int) ([]domain.ScoredItem, error)
}
