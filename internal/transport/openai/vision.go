// Package openai calls a vision-capable model through the
// OpenAI-compatible chat API.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/roomscout/visearch/internal/domain"
	"github.com/roomscout/visearch/internal/metrics"
)

// Client is a vision model provider using the OpenAI-compatible chat API.
type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the model provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration // per call, 0 disables
	Logger  *zap.Logger
}

// NewClient creates an OpenAI-compatible vision provider.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger,
	}
}

// Request is one vision call: a system instruction, an image, and an
// optional extra user text (the candidate listing for re-ranking).
type Request struct {
	Stage    string // metrics label: "extract" or "rerank"
	System   string
	Image    []byte
	MIMEType string
	UserText string
}

// Response carries the model's text output and usage counters.
type Response struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Complete issues a single chat completion with the image attached.
// One request, one response, no internal retry.
func (c *Client) Complete(ctx context.Context, req Request) (Response, error) {
	if !domain.SupportedImageMIME(req.MIMEType) {
		return Response{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, req.MIMEType)
	}

	dataURL := "data:" + req.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(req.Image)

	parts := make([]openai.ChatMessagePart, 0, 2)
	if req.UserText != "" {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: req.UserText,
		})
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    dataURL,
			Detail: openai.ImageURLDetailAuto,
		},
	})

	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)

	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(req.Stage, "error").Inc()
		return Response{}, classifyError(err)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(req.Stage, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(req.Stage).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.ProviderTokensTotal.WithLabelValues(req.Stage, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.ProviderTokensTotal.WithLabelValues(req.Stage, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	c.logger.Debug("provider call completed",
		zap.String("stage", req.Stage),
		zap.Duration("latency", duration),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%w: empty model output", domain.ErrBadModelOutput)
	}

	return Response{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// classifyError maps API failures onto the provider sentinel errors so the
// rest of the pipeline never inspects transport details.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return wrapStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return wrapStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}

	return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
}

func wrapStatus(status int, msg string) error {
	msg = strings.TrimSpace(msg)
	switch {
	case status == 401 || status == 403:
		return fmt.Errorf("%w: status %d: %s", domain.ErrProviderAuth, status, msg)
	case status == 429:
		return fmt.Errorf("%w: status %d: %s", domain.ErrProviderRateLimited, status, msg)
	case status == 408 || status == 504:
		return fmt.Errorf("%w: status %d: %s", domain.ErrProviderTimeout, status, msg)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", domain.ErrProviderServer, status, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrProviderUnavailable, status, msg)
	}
}
