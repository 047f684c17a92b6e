// Package recommendation derives ranked product suggestions for a customer
// from order history, stated preferences, and spend tier.
package recommendation

// ProductRecommendation is a single scored product suggestion. IDs are unique
// within one generated batch only; they are not stable across calls.
type ProductRecommendation struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	// ConfidenceScore is a heuristic ranking weight in [0, 1]. It orders
	// recommendations and is never a probability guarantee.
	ConfidenceScore float64 `json:"confidence_score"`
}
