package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/roomscout/visearch/internal/domain"
)

// newTestClient points the provider at a stub chat completions endpoint.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Model:   "test-vision",
	})
}

func chatResponse(text string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "test-vision",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": text},
			},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func testRequest() Request {
	return Request{
		Stage:    "extract",
		System:   "look at the image",
		Image:    []byte{0xFF, 0xD8, 0xFF},
		MIMEType: domain.MIMEJPEG,
	}
}

func TestComplete_ReturnsTextAndUsage(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(`{"isFurniture": false}`))
	})

	resp, err := client.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != `{"isFurniture": false}` {
		t.Errorf("text: got %q", resp.Text)
	}
	if resp.TotalTokens != 15 || resp.PromptTokens != 10 {
		t.Errorf("usage: got %+v", resp)
	}

	msgs := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages: got %d, want 2", len(msgs))
	}
}

func TestComplete_RejectsUnsupportedMIME(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called for unsupported MIME")
	})

	req := testRequest()
	req.MIMEType = "image/tiff"
	_, err := client.Complete(context.Background(), req)
	if !errors.Is(err, domain.ErrUnsupportedImage) {
		t.Errorf("expected ErrUnsupportedImage, got %v", err)
	}
}

func TestComplete_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"auth", http.StatusUnauthorized, domain.ErrProviderAuth},
		{"forbidden", http.StatusForbidden, domain.ErrProviderAuth},
		{"rate limit", http.StatusTooManyRequests, domain.ErrProviderRateLimited},
		{"server fault", http.StatusInternalServerError, domain.ErrProviderServer},
		{"gateway timeout", http.StatusGatewayTimeout, domain.ErrProviderTimeout},
		{"teapot", http.StatusTeapot, domain.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "test"}}`))
			})

			_, err := client.Complete(context.Background(), testRequest())
			if !errors.Is(err, tt.want) {
				t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
			}
		})
	}
}

func TestComplete_EmptyChoicesIsBadModelOutput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1", "object": "chat.completion", "choices": []any{},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 0, "total_tokens": 1},
		})
	})

	_, err := client.Complete(context.Background(), testRequest())
	if !errors.Is(err, domain.ErrBadModelOutput) {
		t.Errorf("expected ErrBadModelOutput, got %v", err)
	}
}

func TestComplete_ConnectivityFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClient(&Config{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "m"})
	_, err := client.Complete(context.Background(), testRequest())
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}
