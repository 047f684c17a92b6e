package personalization

import (
	"strings"
	"time"
)

// Engine binds a customer record and an optional rule list for repeated
// template personalization. All operations are pure with respect to the
// record; the only observable effect of time is the greeting token.
type Engine struct {
	customer CustomerPersonalizationData
	rules    []PersonalizationRule
	now      func() time.Time
}

// NewEngine creates a personalization engine for one customer.
func NewEngine(customer CustomerPersonalizationData, rules []PersonalizationRule) *Engine {
	return &Engine{
		customer: customer,
		rules:    rules,
		now:      time.Now,
	}
}

// WithClock overrides the engine's clock. Used by previews and tests that
// need a pinned greeting.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// PersonalizeContent substitutes every {{token}} occurrence in the template:
// built-in tokens first, then each rule's token in list order. Tokens with no
// resolver or rule are left verbatim.
func (e *Engine) PersonalizeContent(template string) string {
	result := template

	builtins := resolveBuiltins(e.customer, e.now())
	for _, token := range builtinTokens {
		result = strings.ReplaceAll(result, "{{"+token+"}}", builtins[token])
	}

	if len(e.rules) > 0 {
		ctx := fieldContext(e.customer)
		for _, rule := range e.rules {
			result = strings.ReplaceAll(result, "{{"+rule.Field+"}}", applyRule(rule, ctx))
		}
	}

	return result
}

// GeneratePreviewText synthesizes the one-line inbox teaser for a customer.
func (e *Engine) GeneratePreviewText() string {
	tierWord := "dear"
	if e.customer.TotalSpent >= tierSilverThreshold {
		tierWord = "valued"
	}
	firstName := e.customer.FirstName
	if firstName == "" {
		firstName = fallbackName
	}
	return "Special offers for our " + tierWord + " customer, " + firstName
}

// GenerateDynamicSubjectLine personalizes a subject-line template for a
// customer using built-in tokens only.
func GenerateDynamicSubjectLine(template string, customer CustomerPersonalizationData) string {
	return NewEngine(customer, nil).PersonalizeContent(template)
}

// PersonalizeEmailContent personalizes a full email body for a customer with
// an optional rule list.
func PersonalizeEmailContent(content string, customer CustomerPersonalizationData, rules []PersonalizationRule) string {
	return NewEngine(customer, rules).PersonalizeContent(content)
}

// GeneratePreviewText synthesizes the inbox teaser without constructing an
// engine by hand.
func GeneratePreviewText(customer CustomerPersonalizationData) string {
	return NewEngine(customer, nil).GeneratePreviewText()
}

// ExtractVariables scans a template for {{...}} tokens and returns their
// names in order of appearance, duplicates included. Calling UIs use this to
// check which tokens a template references before saving it.
func ExtractVariables(content string) []string {
	var tokens []string
	for i := 0; i+1 < len(content); {
		open := strings.Index(content[i:], "{{")
		if open < 0 {
			break
		}
		open += i
		end := strings.Index(content[open+2:], "}}")
		if end < 0 {
			break
		}
		tokens = append(tokens, content[open+2:open+2+end])
		i = open + 2 + end + 2
	}
	return tokens
}

// VariableInfo documents one built-in token for UI pickers and docs.
type VariableInfo struct {
	Variable    string `json:"variable"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

// AvailableVariables returns the static catalog of built-in tokens.
func AvailableVariables() []VariableInfo {
	return []VariableInfo{
		{Variable: "first_name", Description: "Customer's first name", Example: "John"},
		{Variable: "last_name", Description: "Customer's last name", Example: "Doe"},
		{Variable: "full_name", Description: "Customer's full name", Example: "John Doe"},
		{Variable: "email", Description: "Customer's email address", Example: "john@example.com"},
		{Variable: "company", Description: "Customer's company name", Example: "Acme Corp"},
		{Variable: "total_orders", Description: "Number of orders placed", Example: "12"},
		{Variable: "total_spent", Description: "Lifetime spend, USD formatted", Example: "$1,250.00"},
		{Variable: "last_order_date", Description: "Date of the most recent order", Example: "January 15, 2024"},
		{Variable: "broker_name", Description: "Assigned broker's name", Example: "Sarah Smith"},
		{Variable: "broker_discount", Description: "Broker discount percentage", Example: "15%"},
		{Variable: "customer_tier", Description: "Spend tier: Bronze, Silver, Gold or VIP", Example: "Gold"},
		{Variable: "greeting", Description: "Time-of-day salutation with first name", Example: "Good morning, John"},
	}
}
