package rerank

import (
	"context"

	"github.com/roomscout/visearch/internal/transport/openai"
)

// Provider issues one vision model call.
type Provider interface {
	Complete(ctx context.Context, req openai.Request) (openai.Response, error)
}
