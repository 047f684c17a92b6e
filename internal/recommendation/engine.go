package recommendation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/printcraft/personalization/internal/personalization"
)

// DefaultLimit is the number of recommendations returned when the caller does
// not specify one.
const DefaultLimit = 4

// categoryKeyword maps a product-name substring onto a catalog category.
// Matching is first-hit in declaration order.
type categoryKeyword struct {
	keyword  string
	category string
}

var categoryKeywords = []categoryKeyword{
	{"business card", "Business Cards"},
	{"brochure", "Brochures"},
	{"poster", "Posters"},
	{"flyer", "Flyers"},
	{"banner", "Banners"},
	{"sticker", "Stickers"},
}

const fallbackCategory = "General Printing"

// categoryPrices is the fixed category price list for generated suggestions.
// Categories not listed fall back to defaultPrice.
var categoryPrices = map[string]float64{
	"Business Cards": 29.99,
	"Brochures":      59.99,
	"Posters":        24.99,
	"Flyers":         39.99,
	"Banners":        89.99,
	"Stickers":       19.99,
}

const (
	defaultPrice = 49.99
	premiumPrice = 299.99
)

// Engine generates recommendations for one customer. It calls no external
// catalog today; the context parameter keeps the signature ready for one.
type Engine struct {
	customer personalization.CustomerPersonalizationData
	now      func() time.Time
}

// NewEngine creates a recommendation engine bound to a customer record.
func NewEngine(customer personalization.CustomerPersonalizationData) *Engine {
	return &Engine{customer: customer, now: time.Now}
}

// WithClock overrides the engine's clock, pinning generated IDs for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// GenerateRecommendations merges the history, preference, and tier generators,
// sorts by confidence score descending (ties keep generator order), and
// truncates to limit. A limit <= 0 selects DefaultLimit. Empty inputs yield
// fewer recommendations, never an error.
func (e *Engine) GenerateRecommendations(ctx context.Context, limit int) ([]ProductRecommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var recs []ProductRecommendation
	recs = append(recs, e.historyRecommendations()...)
	recs = append(recs, e.preferenceRecommendations()...)
	recs = append(recs, e.tierRecommendations()...)

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].ConfidenceScore > recs[j].ConfidenceScore
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// historyRecommendations tallies ordered quantity per inferred category and
// suggests the top two categories. Confidence grows with quantity, capped at
// 0.9 to keep history below a certainty it cannot claim.
func (e *Engine) historyRecommendations() []ProductRecommendation {
	if len(e.customer.OrderHistory) == 0 {
		return nil
	}

	tallies := make(map[string]int)
	var seen []string
	for _, order := range e.customer.OrderHistory {
		for _, item := range order.Items {
			category := InferCategory(item.ProductName)
			if _, ok := tallies[category]; !ok {
				seen = append(seen, category)
			}
			tallies[category] += item.Quantity
		}
	}

	// Rank categories by tally descending; ties keep first-seen order.
	sort.SliceStable(seen, func(i, j int) bool {
		return tallies[seen[i]] > tallies[seen[j]]
	})
	if len(seen) > 2 {
		seen = seen[:2]
	}

	var recs []ProductRecommendation
	for _, category := range seen {
		confidence := float64(tallies[category]) / 10
		if confidence > 0.9 {
			confidence = 0.9
		}
		recs = append(recs, ProductRecommendation{
			ID:              e.batchID("hist", category),
			Name:            category + " Restock",
			Price:           categoryPrice(category),
			Category:        category,
			Description:     fmt.Sprintf("You've ordered %s from us before. Ready for a fresh run?", category),
			ConfidenceScore: confidence,
		})
	}
	return recs
}

// preferenceRecommendations suggests one product per stated category
// preference at a fixed mid-level confidence.
func (e *Engine) preferenceRecommendations() []ProductRecommendation {
	if e.customer.Preferences == nil {
		return nil
	}

	var recs []ProductRecommendation
	for _, category := range e.customer.Preferences.ProductCategories {
		recs = append(recs, ProductRecommendation{
			ID:              e.batchID("pref", category),
			Name:            "New " + category + " Designs",
			Price:           categoryPrice(category),
			Category:        category,
			Description:     fmt.Sprintf("Fresh %s templates picked from your saved preferences.", category),
			ConfidenceScore: 0.7,
		})
	}
	return recs
}

// tierRecommendations adds a single premium upsell for Gold and VIP tiers.
func (e *Engine) tierRecommendations() []ProductRecommendation {
	tier := personalization.CustomerTier(e.customer.TotalSpent)
	if tier != personalization.TierVIP && tier != personalization.TierGold {
		return nil
	}

	return []ProductRecommendation{{
		ID:              e.batchID("tier", "premium"),
		Name:            "Premium Print Package",
		Price:           premiumPrice,
		Category:        "Premium",
		Description:     fmt.Sprintf("An exclusive package for our %s customers.", tier),
		ConfidenceScore: 0.8,
	}}
}

// InferCategory maps a product name onto a catalog category by keyword.
func InferCategory(productName string) string {
	name := strings.ToLower(productName)
	for _, kw := range categoryKeywords {
		if strings.Contains(name, kw.keyword) {
			return kw.category
		}
	}
	return fallbackCategory
}

func categoryPrice(category string) float64 {
	if price, ok := categoryPrices[category]; ok {
		return price
	}
	return defaultPrice
}

// batchID builds a "<prefix>-<category-slug>-<timestamp>" ID. The slug keeps
// IDs unique within one batch; cross-call collisions are accepted.
func (e *Engine) batchID(prefix, category string) string {
	slug := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
	return fmt.Sprintf("%s-%s-%d", prefix, slug, e.now().UnixMilli())
}
