package domain

// PriceRange is the estimated retail price band for a recognized piece.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Attributes are the structured categorical attributes extracted from an
// image of a furniture piece.
type Attributes struct {
	Category   string     `json:"category"`
	Type       string     `json:"type"`
	Style      string     `json:"style"`
	Material   string     `json:"material"`
	Color      string     `json:"color"`
	PriceRange PriceRange `json:"priceRange"`
}

// Analysis is the result of the attribute extraction stage.
// Attributes is non-nil exactly when IsFurniture is true.
type Analysis struct {
	IsFurniture bool        `json:"isFurniture"`
	Attributes  *Attributes `json:"attributes,omitempty"`
}

// Consistent reports whether the furniture flag and the attribute payload
// agree with each other.
func (a Analysis) Consistent() bool {
	return a.IsFurniture == (a.Attributes != nil)
}
