package sdk

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client talks to a visearch server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient overrides the underlying HTTP client. The default has
// no timeout because search responses stream.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-stream error response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("visearch: %s (%s, status %d)", e.Message, e.Code, e.Status)
}

// SearchRequest is one image search.
type SearchRequest struct {
	Image    []byte
	MIMEType string
	Query    string // optional free-text refinement
}

type searchWire struct {
	ImageBase64 string `json:"imageBase64"`
	MIMEType    string `json:"mimeType"`
	Query       string `json:"query,omitempty"`
}

// maxEventLine bounds one NDJSON line; a candidates event carrying a
// full candidate set fits well within it.
const maxEventLine = 8 << 20

// Search starts a search and returns a channel of stream events. The
// channel closes when the terminal event arrives, the stream breaks, or
// ctx is cancelled. Rejections before the stream opens (validation,
// auth) are returned as an *APIError.
func (c *Client) Search(ctx context.Context, req SearchRequest) (<-chan Event, error) {
	payload, err := json.Marshal(searchWire{
		ImageBase64: base64.StdEncoding.EncodeToString(req.Image),
		MIMEType:    req.MIMEType,
		Query:       req.Query,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr := json.NewDecoder(resp.Body).Decode(apiErr); decodeErr != nil {
			apiErr.Code = "unknown"
			apiErr.Message = resp.Status
		}
		return nil, apiErr
	}

	events := make(chan Event)
	go c.readStream(ctx, resp, events)
	return events, nil
}

func (c *Client) readStream(ctx context.Context, resp *http.Response, events chan<- Event) {
	defer close(events)
	defer func() { _ = resp.Body.Close() }()

	deliver := func(e Event) bool {
		select {
		case events <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64<<10), maxEventLine)

	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			// A malformed line means the stream is unusable; surface it
			// as a synthetic error event so the consumer still sees a
			// terminal outcome.
			deliver(Event{Phase: PhaseError, Message: "malformed stream event"})
			return
		}

		if !deliver(e) || e.Terminal() {
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	// The stream ended without a terminal event.
	deliver(Event{Phase: PhaseError, Message: "stream ended unexpectedly"})
}
