package extract

import (
	"context"

	"github.com/roomscout/visearch/internal/transport/openai"
)

// Provider issues one vision model call.
type Provider interface {
	Complete(ctx context.Context, req openai.Request) (openai.Response, error)
}

// Grounding supplies the taxonomy listing injected into the extraction
// instructions.
type Grounding interface {
	GroundingText(ctx context.Context) (string, error)
}
