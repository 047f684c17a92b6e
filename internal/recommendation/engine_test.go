package recommendation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/printcraft/personalization/internal/personalization"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func historyCustomer() personalization.CustomerPersonalizationData {
	return personalization.CustomerPersonalizationData{
		ID:    "cust-1",
		Email: "john@example.com",
		OrderHistory: []personalization.Order{
			{
				ID:    "ord-1",
				Total: 240,
				Date:  time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
				Items: []personalization.OrderItem{
					{ProductName: "Standard Business Cards", Quantity: 5, Price: 29.99},
					{ProductName: "Tri-fold Brochure", Quantity: 2, Price: 59.99},
				},
			},
			{
				ID:    "ord-2",
				Total: 120,
				Date:  time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
				Items: []personalization.OrderItem{
					{ProductName: "Matte Business Cards", Quantity: 3, Price: 34.99},
					{ProductName: "Vinyl Banner 3x6", Quantity: 1, Price: 89.99},
				},
			},
		},
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		product string
		want    string
	}{
		{"Standard Business Cards", "Business Cards"},
		{"business card deluxe", "Business Cards"},
		{"Tri-fold Brochure", "Brochures"},
		{"Movie Poster 24x36", "Posters"},
		{"Promo Flyer", "Flyers"},
		{"Vinyl Banner", "Banners"},
		{"Die-cut Sticker Pack", "Stickers"},
		{"Letterhead", "General Printing"},
		{"", "General Printing"},
	}

	for _, tt := range tests {
		if got := InferCategory(tt.product); got != tt.want {
			t.Errorf("InferCategory(%q) = %q, want %q", tt.product, got, tt.want)
		}
	}
}

func TestHistoryRecommendations(t *testing.T) {
	engine := NewEngine(historyCustomer()).WithClock(fixedClock())
	recs := engine.historyRecommendations()

	if len(recs) != 2 {
		t.Fatalf("got %d history recommendations, want 2", len(recs))
	}

	// Business Cards tally = 8, Brochures = 2, Banners = 1: top two win.
	if recs[0].Category != "Business Cards" {
		t.Errorf("top category = %q, want Business Cards", recs[0].Category)
	}
	if recs[0].ConfidenceScore != 0.8 {
		t.Errorf("Business Cards confidence = %v, want 0.8 (tally 8 / 10)", recs[0].ConfidenceScore)
	}
	if recs[1].Category != "Brochures" {
		t.Errorf("second category = %q, want Brochures", recs[1].Category)
	}
	if recs[1].ConfidenceScore != 0.2 {
		t.Errorf("Brochures confidence = %v, want 0.2", recs[1].ConfidenceScore)
	}
	if recs[0].Price != 29.99 {
		t.Errorf("Business Cards price = %v, want 29.99", recs[0].Price)
	}
}

func TestHistoryConfidenceCap(t *testing.T) {
	customer := personalization.CustomerPersonalizationData{
		ID:    "cust-2",
		Email: "a@b.com",
		OrderHistory: []personalization.Order{{
			ID:    "ord-1",
			Items: []personalization.OrderItem{{ProductName: "Flyer Blast", Quantity: 50, Price: 39.99}},
		}},
	}

	recs := NewEngine(customer).WithClock(fixedClock()).historyRecommendations()
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if recs[0].ConfidenceScore != 0.9 {
		t.Errorf("confidence = %v, want capped 0.9", recs[0].ConfidenceScore)
	}
}

func TestPreferenceRecommendations(t *testing.T) {
	customer := personalization.CustomerPersonalizationData{
		ID:    "cust-3",
		Email: "a@b.com",
		Preferences: &personalization.CustomerPreferences{
			ProductCategories: []string{"Posters", "Canvas Prints"},
		},
	}

	recs := NewEngine(customer).WithClock(fixedClock()).preferenceRecommendations()
	if len(recs) != 2 {
		t.Fatalf("got %d preference recommendations, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.ConfidenceScore != 0.7 {
			t.Errorf("preference confidence = %v, want 0.7", rec.ConfidenceScore)
		}
	}
	if recs[0].Price != 24.99 {
		t.Errorf("Posters price = %v, want 24.99", recs[0].Price)
	}
	// Unlisted category falls back to the default price.
	if recs[1].Price != 49.99 {
		t.Errorf("Canvas Prints price = %v, want default 49.99", recs[1].Price)
	}
}

func TestTierRecommendations(t *testing.T) {
	tests := []struct {
		name  string
		spent float64
		count int
	}{
		{"bronze gets none", 500, 0},
		{"silver gets none", 2500, 0},
		{"gold gets premium", 6000, 1},
		{"vip gets premium", 15000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customer := personalization.CustomerPersonalizationData{ID: "c", Email: "a@b.com", TotalSpent: tt.spent}
			recs := NewEngine(customer).WithClock(fixedClock()).tierRecommendations()
			if len(recs) != tt.count {
				t.Fatalf("got %d tier recommendations, want %d", len(recs), tt.count)
			}
			if tt.count == 1 {
				if recs[0].Category != "Premium" {
					t.Errorf("category = %q, want Premium", recs[0].Category)
				}
				if recs[0].Price != 299.99 {
					t.Errorf("price = %v, want 299.99", recs[0].Price)
				}
				if recs[0].ConfidenceScore != 0.8 {
					t.Errorf("confidence = %v, want 0.8", recs[0].ConfidenceScore)
				}
			}
		})
	}
}

func TestGenerateRecommendationsRankingAndLimit(t *testing.T) {
	customer := historyCustomer()
	customer.TotalSpent = 12000
	customer.Preferences = &personalization.CustomerPreferences{
		ProductCategories: []string{"Posters", "Stickers"},
	}

	engine := NewEngine(customer).WithClock(fixedClock())
	recs, err := engine.GenerateRecommendations(context.Background(), 0)
	if err != nil {
		t.Fatalf("GenerateRecommendations: %v", err)
	}

	if len(recs) != DefaultLimit {
		t.Fatalf("got %d recommendations, want default limit %d", len(recs), DefaultLimit)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].ConfidenceScore > recs[i-1].ConfidenceScore {
			t.Errorf("recommendations not sorted descending at index %d: %v > %v",
				i, recs[i].ConfidenceScore, recs[i-1].ConfidenceScore)
		}
	}

	// history (0.8) beats tier (0.8) on generator order; preferences (0.7)
	// beat the 0.2 brochure tally.
	if recs[0].Category != "Business Cards" {
		t.Errorf("recs[0].Category = %q, want Business Cards", recs[0].Category)
	}
	if recs[1].Category != "Premium" {
		t.Errorf("recs[1].Category = %q, want Premium", recs[1].Category)
	}

	// Tight limits truncate.
	two, err := engine.GenerateRecommendations(context.Background(), 2)
	if err != nil {
		t.Fatalf("GenerateRecommendations: %v", err)
	}
	if len(two) != 2 {
		t.Errorf("limit 2 returned %d recommendations", len(two))
	}
}

func TestGenerateRecommendationsEmptyCustomer(t *testing.T) {
	customer := personalization.CustomerPersonalizationData{ID: "c", Email: "a@b.com"}
	recs, err := NewEngine(customer).GenerateRecommendations(context.Background(), 4)
	if err != nil {
		t.Fatalf("GenerateRecommendations: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("empty customer produced %d recommendations, want 0", len(recs))
	}
}

func TestBatchIDsUniqueWithinBatch(t *testing.T) {
	customer := historyCustomer()
	customer.Preferences = &personalization.CustomerPreferences{ProductCategories: []string{"Posters"}}
	customer.TotalSpent = 15000

	recs, err := NewEngine(customer).WithClock(fixedClock()).GenerateRecommendations(context.Background(), 10)
	if err != nil {
		t.Fatalf("GenerateRecommendations: %v", err)
	}

	ids := make(map[string]bool)
	for _, rec := range recs {
		if ids[rec.ID] {
			t.Errorf("duplicate ID within batch: %s", rec.ID)
		}
		ids[rec.ID] = true
		if !strings.Contains(rec.ID, "-") {
			t.Errorf("ID %q missing prefix/slug separator", rec.ID)
		}
	}
}
