package domain

// Phase tags one event in the streamed search response.
type Phase string

// Stream event tags. A stream carries at most one informational
// candidates event followed by exactly one terminal event.
const (
	PhaseNotFurniture Phase = "not-furniture"
	PhaseCandidates   Phase = "candidates"
	PhaseResults      Phase = "results"
	PhaseError        Phase = "error"
)

// Event is one tagged record of the streamed search response, serialized
// as a single NDJSON line. Payload fields are populated per phase.
type Event struct {
	Phase          Phase        `json:"phase"`
	Analysis       *Analysis    `json:"analysis,omitempty"`
	Candidates     []Item       `json:"candidates,omitempty"`
	Results        []ScoredItem `json:"results,omitempty"`
	ScoreThreshold *int         `json:"scoreThreshold,omitempty"`
	Message        string       `json:"message,omitempty"`
}

// Terminal reports whether no further events follow this one.
func (e Event) Terminal() bool {
	return e.Phase != PhaseCandidates
}

// NotFurnitureEvent builds the terminal event for a non-furniture image.
func NotFurnitureEvent(a Analysis) Event {
	return Event{Phase: PhaseNotFurniture, Analysis: &a}
}

// CandidatesEvent builds the informational checkpoint event carrying the
// analysis and the retrieved candidate set.
func CandidatesEvent(a Analysis, candidates []Item) Event {
	return Event{Phase: PhaseCandidates, Analysis: &a, Candidates: candidates}
}

// ResultsEvent builds the terminal event carrying the ranked results and
// the score threshold in effect at completion.
func ResultsEvent(results []ScoredItem, threshold int) Event {
	return Event{Phase: PhaseResults, Results: results, ScoreThreshold: &threshold}
}

// ErrorEvent builds the terminal error event with a caller-safe message.
func ErrorEvent(err error) Event {
	return Event{Phase: PhaseError, Message: UserMessage(err)}
}
