package sdk

// Phase tags one event in the streamed search response.
type Phase string

// Stream event tags.
const (
	PhaseNotFurniture Phase = "not-furniture"
	PhaseCandidates   Phase = "candidates"
	PhaseResults      Phase = "results"
	PhaseError        Phase = "error"
)

// PriceRange is the estimated price band from image analysis.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Attributes are the categorical attributes extracted from the image.
type Attributes struct {
	Category   string     `json:"category"`
	Type       string     `json:"type"`
	Style      string     `json:"style"`
	Material   string     `json:"material"`
	Color      string     `json:"color"`
	PriceRange PriceRange `json:"priceRange"`
}

// Analysis is the extraction verdict for one image.
type Analysis struct {
	IsFurniture bool        `json:"isFurniture"`
	Attributes  *Attributes `json:"attributes,omitempty"`
}

// Item is one catalog entry.
type Item struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
	WidthCM     float64 `json:"widthCm"`
	DepthCM     float64 `json:"depthCm"`
	HeightCM    float64 `json:"heightCm"`
}

// ScoredItem is a catalog item with its re-ranking score.
type ScoredItem struct {
	Item
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

// Event is one NDJSON line of the streamed search response.
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
