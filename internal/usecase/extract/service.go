// Package extract implements the attribute extraction stage: one vision
// call turning an image into structured categorical attributes.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roomscout/visearch/internal/domain"
	"github.com/roomscout/visearch/internal/prompt"
	"github.com/roomscout/visearch/internal/transport/openai"
)

// Service runs the extraction stage.
type Service struct {
	provider  Provider
	grounding Grounding
	logger    *zap.Logger
}

// New creates an extraction service.
func New(provider Provider, grounding Grounding, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, grounding: grounding, logger: logger}
}

// Extract classifies the image using the given instruction template.
// The template's {{taxonomy}} placeholder receives the current catalog
// grounding text.
func (s *Service) Extract(ctx context.Context, in domain.SearchInput, template string) (domain.Analysis, error) {
	grounding, err := s.grounding.GroundingText(ctx)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("taxonomy grounding: %w", err)
	}

	system := prompt.Render(template, map[string]string{"taxonomy": grounding})

	resp, err := s.provider.Complete(ctx, openai.Request{
		Stage:    "extract",
		System:   system,
		Image:    in.Image,
		MIMEType: in.MIMEType,
	})
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("extraction call: %w", err)
	}

	analysis, err := parseAnalysis(resp.Text)
	if err != nil {
		s.logger.Warn("undecodable extraction output", zap.Error(err))
		return domain.Analysis{}, err
	}
	return analysis, nil
}

// analysisWire is the shape the model is instructed to produce. Pointer
// fields let validation distinguish absent from zero.
type analysisWire struct {
	IsFurniture *bool   `json:"isFurniture"`
	Category    *string `json:"category"`
	Type        *string `json:"type"`
	Style       *string `json:"style"`
	Material    *string `json:"material"`
	Color       *string `json:"color"`
	PriceRange  *struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"priceRange"`
}

func parseAnalysis(text string) (domain.Analysis, error) {
	cleaned := StripCodeFences(text)
	if cleaned == "" {
		return domain.Analysis{}, fmt.Errorf("%w: empty model output", domain.ErrBadModelOutput)
	}

	var wire analysisWire
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return domain.Analysis{}, fmt.Errorf("%w: decode analysis: %v", domain.ErrBadModelOutput, err)
	}

	if wire.IsFurniture == nil {
		return domain.Analysis{}, fmt.Errorf("%w: isFurniture missing", domain.ErrBadModelOutput)
	}

	if !*wire.IsFurniture {
		// The furniture flag and the attributes must agree; a "false"
		// carrying attributes is a malformed response, not something to
		// quietly repair.
		if wire.Category != nil || wire.Type != nil || wire.Style != nil ||
			wire.Material != nil || wire.Color != nil || wire.PriceRange != nil {
			return domain.Analysis{}, fmt.Errorf("%w: non-furniture analysis carries attributes", domain.ErrBadModelOutput)
		}
		return domain.Analysis{IsFurniture: false}, nil
	}

	attrs := &domain.Attributes{
		Category: deref(wire.Category),
		Type:     deref(wire.Type),
		Style:    deref(wire.Style),
		Material: deref(wire.Material),
		Color:    deref(wire.Color),
	}
	if wire.PriceRange != nil {
		attrs.PriceRange = domain.PriceRange{Min: wire.PriceRange.Min, Max: wire.PriceRange.Max}
	}
	return domain.Analysis{IsFurniture: true, Attributes: attrs}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StripCodeFences removes a markdown code fence wrapping, which providers
// sometimes add despite instructions not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
