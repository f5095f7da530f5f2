package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func streamHandler(t *testing.T, lines []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			_, _ = w.Write([]byte(line + "\n"))
			flusher.Flush()
		}
	}
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	for e := range events {
		out = append(out, e)
	}
	return out
}

func testSearchRequest() SearchRequest {
	return SearchRequest{Image: []byte{0xFF, 0xD8}, MIMEType: "image/jpeg"}
}

func TestSearch_StreamsUntilTerminal(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t, []string{
		`{"phase": "candidates", "analysis": {"isFurniture": true}, "candidates": [{"id": "a"}]}`,
		`{"phase": "results", "results": [{"id": "a", "score": 80}], "scoreThreshold": 40}`,
	}))
	defer srv.Close()

	events, err := New(srv.URL).Search(context.Background(), testSearchRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collect(t, events)
	if len(got) != 2 {
		t.Fatalf("events: got %d, want 2", len(got))
	}
	if got[0].Phase != PhaseCandidates || got[1].Phase != PhaseResults {
		t.Errorf("phases: got %s then %s", got[0].Phase, got[1].Phase)
	}
	if got[1].Results[0].Score != 80 || *got[1].ScoreThreshold != 40 {
		t.Errorf("results payload: %+v", got[1])
	}
}

func TestSearch_SendsAuthAndPayload(t *testing.T) {
	var gotAuth string
	var gotBody searchWire
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"phase": "not-furniture", "analysis": {"isFurniture": false}}` + "\n"))
	}))
	defer srv.Close()

	client := New(srv.URL, WithAPIKey("secret"))
	events, err := client.Search(context.Background(), SearchRequest{
		Image:    []byte{0x89},
		MIMEType: "image/png",
		Query:    "oak",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	collect(t, events)

	if gotAuth != "Bearer secret" {
		t.Errorf("auth header: got %q", gotAuth)
	}
	if gotBody.MIMEType != "image/png" || gotBody.Query != "oak" || gotBody.ImageBase64 == "" {
		t.Errorf("payload: got %+v", gotBody)
	}
}

func TestSearch_RejectionIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnsupportedMediaType)
		_, _ = w.Write([]byte(`{"code": "unsupported_image", "message": "unsupported image type"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Search(context.Background(), testSearchRequest())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnsupportedMediaType || apiErr.Code != "unsupported_image" {
		t.Errorf("api error: got %+v", apiErr)
	}
}

func TestSearch_TruncatedStreamYieldsErrorEvent(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t, []string{
		`{"phase": "candidates", "candidates": [{"id": "a"}]}`,
		// connection closes before the terminal event
	}))
	defer srv.Close()

	events, err := New(srv.URL).Search(context.Background(), testSearchRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collect(t, events)
	if len(got) != 2 {
		t.Fatalf("events: got %+v", got)
	}
	if got[1].Phase != PhaseError || got[1].Message == "" {
		t.Errorf("expected synthetic error event, got %+v", got[1])
	}
}

func TestSearch_MalformedLineYieldsErrorEvent(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t, []string{
		`{"phase": "candidates"}`,
		`this is not json`,
	}))
	defer srv.Close()

	events, err := New(srv.URL).Search(context.Background(), testSearchRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collect(t, events)
	last := got[len(got)-1]
	if last.Phase != PhaseError {
		t.Errorf("expected error event, got %+v", last)
	}
}

func TestSearch_ConnectError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	if _, err := New(srv.URL).Search(context.Background(), testSearchRequest()); err == nil {
		t.Fatal("expected error")
	}
}
