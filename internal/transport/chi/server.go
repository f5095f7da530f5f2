// Package chi exposes the search pipeline and its administrative surface
// over HTTP. Search responses stream as NDJSON; everything else is plain
// JSON.
package chi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/roomscout/visearch/internal/domain"
	"github.com/roomscout/visearch/internal/metrics"
	"github.com/roomscout/visearch/internal/repository/feedback"
	"github.com/roomscout/visearch/internal/usecase/pipeline"
)

// DefaultMaxImageBytes caps the accepted image payload.
const DefaultMaxImageBytes int64 = 8 << 20

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codePayloadTooLarge  = "payload_too_large"
	codeUnsupportedImage = "unsupported_image"
	codeUnauthorized     = "unauthorized"
	codeUnavailable      = "unavailable"
	codeInternalError    = "internal_error"
)

// SearchPipeline runs one search and streams events through emit.
type SearchPipeline interface {
	Run(ctx context.Context, in domain.SearchInput, emit pipeline.EmitFunc) error
}

// SettingsStore reads and writes the tunable pipeline parameters.
type SettingsStore interface {
	Get(ctx context.Context) (domain.Settings, error)
	Put(ctx context.Context, cfg domain.Settings) error
}

// TaxonomyView exposes the current category to types mapping.
type TaxonomyView interface {
	View(ctx context.Context) (map[string][]string, error)
}

// FeedbackTally records and reports result votes.
type FeedbackTally interface {
	Record(itemID string, helpful bool)
	Snapshot() map[string]feedback.Counts
	Totals() (helpful, unhelpful int)
}

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server.
type Server struct {
	pipeline      SearchPipeline
	settings      SettingsStore
	taxonomy      TaxonomyView
	feedback      FeedbackTally
	pinger        Pinger
	logger        *zap.Logger
	maxImageBytes int64
}

// NewServer creates the HTTP API server.
func NewServer(
	searchPipeline SearchPipeline,
	settings SettingsStore,
	taxonomy TaxonomyView,
	tally FeedbackTally,
	pinger Pinger,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		pipeline:      searchPipeline,
		settings:      settings,
		taxonomy:      taxonomy,
		feedback:      tally,
		pinger:        pinger,
		logger:        logger,
		maxImageBytes: DefaultMaxImageBytes,
	}
}

// WithMaxImageBytes overrides the accepted image payload cap.
func (s *Server) WithMaxImageBytes(n int64) *Server {
	if n > 0 {
		s.maxImageBytes = n
	}
	return s
}

// Routes registers all handlers on a fresh router. Middlewares are wired
// by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Post("/feedback", s.handlePostFeedback)
		r.Get("/feedback", s.handleGetFeedback)
		r.Get("/taxonomy", s.handleTaxonomy)
	})

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// handleSearch streams pipeline events as NDJSON. Input validation
// failures are rejected before the stream opens; after that every
// outcome, including errors, arrives as an event.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeSearchInput(r)
	if err != nil {
		s.writeSearchInputError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, codeInternalError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	emit := func(e domain.Event) error {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		flusher.Flush()
		return nil
	}

	// Pipeline failures were already delivered as error events and
	// logged inside the run.
	_ = s.pipeline.Run(r.Context(), in, emit)
}

// searchJSONRequest is the non-multipart intake shape.
type searchJSONRequest struct {
	ImageBase64 string `json:"imageBase64"`
	MIMEType    string `json:"mimeType"`
	Query       string `json:"query"`
}

func (s *Server) decodeSearchInput(r *http.Request) (domain.SearchInput, error) {
	// Base64 and multipart framing inflate the payload beyond the raw
	// image cap; half again is enough headroom for either.
	r.Body = http.MaxBytesReader(nil, r.Body, s.maxImageBytes+s.maxImageBytes/2)

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch contentType {
	case "multipart/form-data":
		return s.decodeMultipart(r)
	case "application/json":
		return s.decodeJSON(r)
	default:
		return domain.SearchInput{}, fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidInput, contentType)
	}
}

func (s *Server) decodeMultipart(r *http.Request) (domain.SearchInput, error) {
	if err := r.ParseMultipartForm(s.maxImageBytes); err != nil {
		// Keeps http.MaxBytesError in the chain so oversized bodies map
		// to 413 instead of 400.
		return domain.SearchInput{}, fmt.Errorf("%w: parse form: %w", domain.ErrInvalidInput, err)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return domain.SearchInput{}, fmt.Errorf("%w: image file is required", domain.ErrInvalidInput)
	}
	defer func() { _ = file.Close() }()

	image, err := io.ReadAll(io.LimitReader(file, s.maxImageBytes+1))
	if err != nil {
		return domain.SearchInput{}, fmt.Errorf("%w: read image: %v", domain.ErrInvalidInput, err)
	}

	mimeType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}

	return s.validated(domain.SearchInput{
		Image:    image,
		MIMEType: mimeType,
		Query:    strings.TrimSpace(r.FormValue("query")),
	})
}

func (s *Server) decodeJSON(r *http.Request) (domain.SearchInput, error) {
	var req searchJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return domain.SearchInput{}, fmt.Errorf("%w: decode body: %w", domain.ErrInvalidInput, err)
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return domain.SearchInput{}, fmt.Errorf("%w: imageBase64 is not valid base64", domain.ErrInvalidInput)
	}

	return s.validated(domain.SearchInput{
		Image:    image,
		MIMEType: req.MIMEType,
		Query:    strings.TrimSpace(req.Query),
	})
}

// errImageTooLarge separates the size rejection so it maps to 413.
var errImageTooLarge = errors.New("image too large")

func (s *Server) validated(in domain.SearchInput) (domain.SearchInput, error) {
	if len(in.Image) == 0 {
		return domain.SearchInput{}, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}
	if int64(len(in.Image)) > s.maxImageBytes {
		return domain.SearchInput{}, fmt.Errorf("%w: limit is %d bytes", errImageTooLarge, s.maxImageBytes)
	}
	if !domain.SupportedImageMIME(in.MIMEType) {
		return domain.SearchInput{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, in.MIMEType)
	}
	return in, nil
}

func (s *Server) writeSearchInputError(w http.ResponseWriter, err error) {
	s.logger.Warn("search request rejected", zap.Error(err))

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "request body too large")
	case errors.Is(err, domain.ErrUnsupportedImage):
		writeError(w, http.StatusUnsupportedMediaType, codeUnsupportedImage, domain.UserMessage(err))
	case errors.Is(err, errImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "image too large")
	default:
		writeError(w, http.StatusBadRequest, codeBadRequest, domain.UserMessage(err))
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.Get(r.Context())
	if err != nil {
		s.logger.Error("read settings", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "settings unavailable")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var cfg domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	if err := s.settings.Put(r.Context(), cfg); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
			return
		}
		s.logger.Error("write settings", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "settings unavailable")
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// feedbackRequest is one vote on a search result.
type feedbackRequest struct {
	ItemID  string `json:"itemId"`
	Helpful *bool  `json:"helpful"`
}

func (s *Server) handlePostFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ItemID) == "" || req.Helpful == nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "itemId and helpful are required")
		return
	}

	s.feedback.Record(req.ItemID, *req.Helpful)

	verdict := "unhelpful"
	if *req.Helpful {
		verdict = "helpful"
	}
	metrics.FeedbackVotesTotal.WithLabelValues(verdict).Inc()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetFeedback(w http.ResponseWriter, _ *http.Request) {
	helpful, unhelpful := s.feedback.Totals()
	writeJSON(w, http.StatusOK, map[string]any{
		"items":  s.feedback.Snapshot(),
		"totals": feedback.Counts{Helpful: helpful, Unhelpful: unhelpful},
	})
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	view, err := s.taxonomy.View(r.Context())
	if err != nil {
		s.logger.Error("read taxonomy", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "taxonomy unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": view})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the JSON error body shared by all non-stream endpoints.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
