package personalization

import (
	"testing"
	"time"
)

func testCustomer() CustomerPersonalizationData {
	lastOrder := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	return CustomerPersonalizationData{
		ID:            "cust-1",
		Email:         "john@example.com",
		FirstName:     "John",
		LastName:      "Doe",
		Company:       "Acme Corp",
		TotalOrders:   8,
		TotalSpent:    1250,
		LastOrderDate: &lastOrder,
		Tags:          []string{"wholesale", "repeat-buyer"},
		Preferences: &CustomerPreferences{
			ProductCategories:      []string{"Business Cards", "Flyers"},
			CommunicationFrequency: "weekly",
			Language:               "en",
		},
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name string
		expr string
		ok   bool
	}{
		{"greater than", "total_spent > 1000", true},
		{"equals", "company == Acme", true},
		{"single equals", "language = en", true},
		{"contains", "tags contains wholesale", true},
		{"too few tokens", "total_spent >", false},
		{"too many tokens", "total_spent > 1 000", false},
		{"double space", "total_spent >  1000", false},
		{"unknown operator", "total_spent >> 1000", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseCondition(tt.expr)
			if ok != tt.ok {
				t.Errorf("parseCondition(%q) ok = %v, want %v", tt.expr, ok, tt.ok)
			}
		})
	}
}

func TestConditionEvaluate(t *testing.T) {
	ctx := fieldContext(testCustomer())

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"numeric gt true", "total_spent > 1000", true},
		{"numeric gt false", "total_spent > 2000", false},
		{"numeric lt", "total_spent < 2000", true},
		{"numeric gte boundary", "total_spent >= 1250", true},
		{"numeric lte boundary", "total_spent <= 1250", true},
		{"string equal", "first_name == John", true},
		{"single equal alias", "first_name = John", true},
		{"string not equal", "first_name != Jane", true},
		{"contains case-insensitive", "company contains acme", true},
		{"contains miss", "company contains globex", false},
		{"contains on serialized list", "tags contains WHOLESALE", true},
		{"non-numeric operand fails closed", "first_name > 10", false},
		{"missing field fails numeric", "loyalty_points > 5", false},
		{"missing field equals empty literal", "middle_name == ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, ok := parseCondition(tt.expr)
			if !ok {
				t.Fatalf("parseCondition(%q) failed", tt.expr)
			}
			if got := cond.evaluate(ctx); got != tt.want {
				t.Errorf("evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestApplyRule(t *testing.T) {
	ctx := fieldContext(testCustomer())

	tests := []struct {
		name string
		rule PersonalizationRule
		want string
	}{
		{
			name: "no condition resolves field",
			rule: PersonalizationRule{Field: "company", DefaultValue: "your company"},
			want: "Acme Corp",
		},
		{
			name: "condition true but field empty falls back",
			rule: PersonalizationRule{Field: "custom_greeting", DefaultValue: "Valued Customer", Condition: "total_spent > 1000"},
			want: "Valued Customer",
		},
		{
			name: "condition false falls back",
			rule: PersonalizationRule{Field: "company", DefaultValue: "your company", Condition: "total_spent > 99999"},
			want: "your company",
		},
		{
			name: "malformed condition falls back",
			rule: PersonalizationRule{Field: "company", DefaultValue: "your company", Condition: "total_spent >"},
			want: "your company",
		},
		{
			name: "unknown field no condition falls back",
			rule: PersonalizationRule{Field: "nickname", DefaultValue: "pal"},
			want: "pal",
		},
		{
			name: "unknown field without default yields empty",
			rule: PersonalizationRule{Field: "nickname"},
			want: "",
		},
		{
			name: "dotted path into preferences",
			rule: PersonalizationRule{Field: "preferences.language", DefaultValue: "en"},
			want: "en",
		},
		{
			name: "object-valued field serializes to JSON",
			rule: PersonalizationRule{Field: "preferences.product_categories"},
			want: `["Business Cards","Flyers"]`,
		},
		{
			name: "numeric field renders without trailing zeros",
			rule: PersonalizationRule{Field: "total_spent"},
			want: "1250",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyRule(tt.rule, ctx); got != tt.want {
				t.Errorf("applyRule = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookupPathStopsAtMissingSegment(t *testing.T) {
	ctx := fieldContext(testCustomer())

	if _, ok := lookupPath(ctx, "preferences.missing.deeper"); ok {
		t.Error("expected lookup to fail at missing intermediate segment")
	}
	if _, ok := lookupPath(ctx, "email.local"); ok {
		t.Error("expected lookup through a scalar to fail")
	}
	if v, ok := lookupPath(ctx, "preferences.communication_frequency"); !ok || v != "weekly" {
		t.Errorf("lookupPath(preferences.communication_frequency) = %v, %v", v, ok)
	}
}
