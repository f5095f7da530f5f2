package retrieve

import (
	"context"

	"github.com/roomscout/visearch/internal/domain"
)

// Repository is the catalog read surface the cascade consumes.
type Repository interface {
	ByType(ctx context.Context, typ string, limit int) ([]domain.Item, error)
	ByCategory(ctx context.Context, category, excludeType string, limit int) ([]domain.Item, error)
	Excluding(ctx context.Context, excludeIDs []string, limit int) ([]domain.Item, error)
	All(ctx context.Context, limit int) ([]domain.Item, error)
}
