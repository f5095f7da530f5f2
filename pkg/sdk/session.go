package sdk

import "sync"

// State is the reception state of one search session.
type State string

// Session states. A new search moves idle to analyzing; the candidates
// event moves analyzing to ranking; terminal events land in done,
// not-furniture, or failed.
const (
	StateIdle         State = "idle"
	StateAnalyzing    State = "analyzing"
	StateRanking      State = "ranking"
	StateNotFurniture State = "not-furniture"
	StateDone         State = "done"
	StateFailed       State = "error"
)

// Terminal reports whether the state accepts no further events.
func (s State) Terminal() bool {
	switch s {
	case StateNotFurniture, StateDone, StateFailed:
		return true
	}
	return false
}

// Reduce applies one event to a state. Events arriving in a terminal
// state leave it unchanged.
func Reduce(s State, e Event) State {
	if s.Terminal() {
		return s
	}
	switch e.Phase {
	case PhaseCandidates:
		return StateRanking
	case PhaseNotFurniture:
		return StateNotFurniture
	case PhaseResults:
		return StateDone
	case PhaseError:
		return StateFailed
	}
	return s
}

// Token identifies one search within a session. Events applied with a
// stale token are discarded.
type Token uint64

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	State          State
	Analysis       *Analysis
	Candidates     []Item
	Results        []ScoredItem
	ScoreThreshold *int
	ErrorMessage   string
}

// Session tracks the reception state machine across searches. Starting
// a new search supersedes the previous one: late events from an
// abandoned stream no longer change the session.
type Session struct {
	mu   sync.Mutex
	gen  Token
	snap Snapshot
}

// NewSession creates an idle session.
func NewSession() *Session {
	return &Session{snap: Snapshot{State: StateIdle}}
}

// Begin starts a new search, superseding any search in flight, and
// returns the token its events must be applied with.
func (s *Session) Begin() Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.snap = Snapshot{State: StateAnalyzing}
	return s.gen
}

// Apply feeds one stream event into the session. It reports whether the
// event was accepted; stale tokens and events after a terminal state
// are discarded.
func (s *Session) Apply(tok Token, e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok != s.gen || s.snap.State.Terminal() {
		return false
	}

	s.snap.State = Reduce(s.snap.State, e)
	if e.Analysis != nil {
		s.snap.Analysis = e.Analysis
	}
	switch e.Phase {
	case PhaseCandidates:
		s.snap.Candidates = e.Candidates
	case PhaseResults:
		s.snap.Results = e.Results
		s.snap.ScoreThreshold = e.ScoreThreshold
	case PhaseError:
		s.snap.ErrorMessage = e.Message
	}
	return true
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.State
}
