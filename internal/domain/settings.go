package domain

import "fmt"

// Bounds for the tunable pipeline knobs.
const (
	MinResultsCount = 3
	MaxResultsCount = 12

	MinCandidates = 10
	MaxCandidates = 100

	MinScoreThreshold = 0
	MaxScoreThreshold = 100
)

// Defaults applied on first use of the settings store.
const (
	DefaultResultsCount   = 6
	DefaultMaxCandidates  = 30
	DefaultScoreThreshold = 40
)

// Settings are the runtime-tunable pipeline parameters. They are read at
// the start of each pipeline phase; a request observes whatever values are
// current at that instant, with no snapshot across phases.
type Settings struct {
	ExtractionPrompt string `json:"extractionPrompt"`
	RerankPrompt     string `json:"rerankPrompt"`
	ResultsCount     int    `json:"resultsCount"`
	MaxCandidates    int    `json:"maxCandidates"`
	ScoreThreshold   int    `json:"scoreThreshold"`
}

// Validate checks all knobs against their allowed ranges.
func (s Settings) Validate() error {
	if s.ExtractionPrompt == "" {
		return fmt.Errorf("%w: extraction prompt is required", ErrInvalidInput)
	}
	if s.RerankPrompt == "" {
		return fmt.Errorf("%w: rerank prompt is required", ErrInvalidInput)
	}
	if s.ResultsCount < MinResultsCount || s.ResultsCount > MaxResultsCount {
		return fmt.Errorf("%w: resultsCount must be between %d and %d, got %d",
			ErrInvalidInput, MinResultsCount, MaxResultsCount, s.ResultsCount)
	}
	if s.MaxCandidates < MinCandidates || s.MaxCandidates > MaxCandidates {
		return fmt.Errorf("%w: maxCandidates must be between %d and %d, got %d",
			ErrInvalidInput, MinCandidates, MaxCandidates, s.MaxCandidates)
	}
	if s.ScoreThreshold < MinScoreThreshold || s.ScoreThreshold > MaxScoreThreshold {
		return fmt.Errorf("%w: scoreThreshold must be between %d and %d, got %d",
			ErrInvalidInput, MinScoreThreshold, MaxScoreThreshold, s.ScoreThreshold)
	}
	return nil
}

// Clamp forces all numeric knobs into their allowed ranges.
func (s *Settings) Clamp() {
	s.ResultsCount = clamp(s.ResultsCount, MinResultsCount, MaxResultsCount)
	s.MaxCandidates = clamp(s.MaxCandidates, MinCandidates, MaxCandidates)
	s.ScoreThreshold = clamp(s.ScoreThreshold, MinScoreThreshold, MaxScoreThreshold)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
