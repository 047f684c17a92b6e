package personalization

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func fixedClock(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2024, 3, 1, hour, 30, 0, 0, time.UTC)
	}
}

func TestPersonalizeContent(t *testing.T) {
	tests := []struct {
		name     string
		customer CustomerPersonalizationData
		rules    []PersonalizationRule
		template string
		want     string
	}{
		{
			name:     "builtins substitute",
			customer: CustomerPersonalizationData{ID: "1", Email: "john@example.com", FirstName: "John", LastName: "Doe", TotalSpent: 1250},
			template: "Hello {{first_name}}, you have spent {{total_spent}} with us!",
			want:     "Hello John, you have spent $1,250.00 with us!",
		},
		{
			name:     "missing first name defaults",
			customer: CustomerPersonalizationData{ID: "1", Email: "a@b.com"},
			template: "Hello {{first_name}}!",
			want:     "Hello Friend!",
		},
		{
			name:     "tier token",
			customer: CustomerPersonalizationData{ID: "1", Email: "a@b.com", FirstName: "John", TotalSpent: 1250},
			template: "You are a {{customer_tier}} customer",
			want:     "You are a Silver customer",
		},
		{
			name:     "subject with company",
			customer: CustomerPersonalizationData{ID: "1", Email: "a@b.com", FirstName: "John", Company: "Acme Corp"},
			template: "Welcome {{first_name}} - {{company}} Exclusive Offer",
			want:     "Welcome John - Acme Corp Exclusive Offer",
		},
		{
			name:     "rule token with condition true and empty field",
			customer: CustomerPersonalizationData{ID: "1", Email: "a@b.com", TotalSpent: 1250},
			rules:    []PersonalizationRule{{Field: "custom_greeting", DefaultValue: "Valued Customer", Condition: "total_spent > 1000"}},
			template: "Hello {{custom_greeting}}!",
			want:     "Hello Valued Customer!",
		},
		{
			name:     "unknown token left verbatim",
			customer: CustomerPersonalizationData{ID: "1", Email: "a@b.com"},
			template: "Your order {{order_id}} is ready",
			want:     "Your order {{order_id}} is ready",
		},
		{
			name:     "no tokens returns input unchanged",
			customer: CustomerPersonalizationData{ID: "1", Email: "a@b.com"},
			template: "Plain text, no substitutions.",
			want:     "Plain text, no substitutions.",
		},
		{
			name:     "repeated token replaced globally",
			customer: CustomerPersonalizationData{ID: "1", Email: "a@b.com", FirstName: "John"},
			template: "{{first_name}} {{first_name}} {{first_name}}",
			want:     "John John John",
		},
		{
			name:     "adjacent tokens",
			customer: CustomerPersonalizationData{ID: "1", Email: "a@b.com", FirstName: "John", LastName: "Doe"},
			template: "{{first_name}}{{last_name}}",
			want:     "JohnDoe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewEngine(tt.customer, tt.rules).PersonalizeContent(tt.template)
			if got != tt.want {
				t.Errorf("PersonalizeContent(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestPersonalizeContentGreeting(t *testing.T) {
	customer := CustomerPersonalizationData{ID: "1", Email: "a@b.com", FirstName: "John"}

	tests := []struct {
		hour int
		want string
	}{
		{9, "Good morning, John"},
		{13, "Good afternoon, John"},
		{19, "Good evening, John"},
	}

	for _, tt := range tests {
		got := NewEngine(customer, nil).WithClock(fixedClock(tt.hour)).PersonalizeContent("{{greeting}}")
		if got != tt.want {
			t.Errorf("greeting at hour %d = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestPersonalizeEmailContentRuleOrder(t *testing.T) {
	// Rules are independent: later rules see the original record, not earlier
	// rules' substitutions.
	customer := CustomerPersonalizationData{ID: "1", Email: "a@b.com", Company: "Acme Corp"}
	rules := []PersonalizationRule{
		{Field: "company", DefaultValue: "your team"},
		{Field: "signoff", DefaultValue: "The Acme Print Desk"},
	}

	got := PersonalizeEmailContent("{{company}} / {{signoff}}", customer, rules)
	want := "Acme Corp / The Acme Print Desk"
	if got != want {
		t.Errorf("PersonalizeEmailContent = %q, want %q", got, want)
	}
}

func TestGenerateDynamicSubjectLine(t *testing.T) {
	customer := CustomerPersonalizationData{ID: "1", Email: "a@b.com", FirstName: "John", Company: "Acme Corp"}
	got := GenerateDynamicSubjectLine("Welcome {{first_name}} - {{company}} Exclusive Offer", customer)
	want := "Welcome John - Acme Corp Exclusive Offer"
	if got != want {
		t.Errorf("GenerateDynamicSubjectLine = %q, want %q", got, want)
	}
}

func TestGeneratePreviewText(t *testing.T) {
	tests := []struct {
		name     string
		customer CustomerPersonalizationData
		want     string
	}{
		{
			name:     "valued customer",
			customer: CustomerPersonalizationData{ID: "1", Email: "a@b.com", FirstName: "John", TotalSpent: 1500},
			want:     "Special offers for our valued customer, John",
		},
		{
			name:     "dear customer below threshold",
			customer: CustomerPersonalizationData{ID: "1", Email: "a@b.com", FirstName: "Jane", TotalSpent: 999},
			want:     "Special offers for our dear customer, Jane",
		},
		{
			name:     "missing name defaults",
			customer: CustomerPersonalizationData{ID: "1", Email: "a@b.com"},
			want:     "Special offers for our dear customer, Friend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GeneratePreviewText(tt.customer); got != tt.want {
				t.Errorf("GeneratePreviewText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "two tokens in order",
			content: "Hello {{first_name}}, your order {{order_id}} is ready!",
			want:    []string{"first_name", "order_id"},
		},
		{
			name:    "duplicates preserved",
			content: "{{first_name}} and {{first_name}} again",
			want:    []string{"first_name", "first_name"},
		},
		{
			name:    "no tokens",
			content: "Plain text",
			want:    nil,
		},
		{
			name:    "unterminated token ignored",
			content: "Hello {{first_name",
			want:    nil,
		},
		{
			name:    "adjacent tokens",
			content: "{{a}}{{b}}",
			want:    []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractVariables(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractVariables(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestAvailableVariablesCoversBuiltins(t *testing.T) {
	catalog := AvailableVariables()
	if len(catalog) != len(builtinTokens) {
		t.Fatalf("catalog has %d entries, want %d", len(catalog), len(builtinTokens))
	}
	for i, info := range catalog {
		if info.Variable != builtinTokens[i] {
			t.Errorf("catalog[%d] = %q, want %q", i, info.Variable, builtinTokens[i])
		}
		if info.Description == "" || info.Example == "" {
			t.Errorf("catalog entry %q missing description or example", info.Variable)
		}
	}
}

func TestGracefulDegradationMinimalRecord(t *testing.T) {
	// A record with only required fields personalizes every builtin token to
	// a defined default, with no panic.
	customer := CustomerPersonalizationData{ID: "1", Email: "a@b.com"}
	var parts []string
	for _, token := range builtinTokens {
		parts = append(parts, "{{"+token+"}}")
	}
	out := NewEngine(customer, nil).WithClock(fixedClock(9)).PersonalizeContent(strings.Join(parts, "|"))

	if strings.Contains(out, "{{") {
		t.Errorf("output still contains unsubstituted tokens: %q", out)
	}
	for _, want := range []string{"Friend", "Never", "$0.00", "0%", TierBronze, "Good morning"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing default literal %q: %q", want, out)
		}
	}
}
