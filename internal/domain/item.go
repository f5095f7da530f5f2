package domain

// Item is a single catalog entry. Items are owned by the catalog store;
// the pipeline only ever reads them.
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

// ScoredItem is a catalog item with a relevance score and a model-written
// justification. Produced only by the re-ranking stage, never persisted.
type ScoredItem struct {
	Item
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}
