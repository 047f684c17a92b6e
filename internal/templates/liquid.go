// Package templates renders rich HTML email bodies with the Liquid template
// language. The lightweight {{token}} engine in internal/personalization
// handles subjects and snippets; Liquid covers full bodies that need filters,
// conditionals, and loops.
package templates

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/osteele/liquid"

	"github.com/printcraft/personalization/internal/personalization"
)

// Service renders Liquid templates with parse caching.
type Service struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewService creates a template service with the print-commerce filter set.
func NewService() *Service {
	s := &Service{engine: liquid.NewEngine()}
	s.registerFilters()
	return s
}

func (s *Service) registerFilters() {
	// Fallback value: {{ first_name | default: "Friend" }}
	s.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		str := fmt.Sprintf("%v", value)
		if str == "" || str == "<nil>" {
			return defaultVal
		}
		return value
	})

	// USD currency: {{ order_total | currency }}
	s.engine.RegisterFilter("currency", func(value interface{}) string {
		switch v := value.(type) {
		case float64:
			return personalization.FormatCurrency(v)
		case float32:
			return personalization.FormatCurrency(float64(v))
		case int:
			return personalization.FormatCurrency(float64(v))
		case int64:
			return personalization.FormatCurrency(float64(v))
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return v
			}
			return personalization.FormatCurrency(f)
		default:
			return fmt.Sprintf("%v", value)
		}
	})

	// Thousands separators for counts: {{ sheet_count | number_with_delimiter }}
	s.engine.RegisterFilter("number_with_delimiter", func(value interface{}) string {
		var n int64
		switch v := value.(type) {
		case int:
			n = int64(v)
		case int64:
			n = v
		case float64:
			n = int64(v)
		default:
			return fmt.Sprintf("%v", value)
		}

		str := strconv.FormatInt(n, 10)
		if n < 0 {
			str = str[1:]
		}
		var grouped strings.Builder
		for i, ch := range str {
			if i > 0 && (len(str)-i)%3 == 0 {
				grouped.WriteRune(',')
			}
			grouped.WriteRune(ch)
		}
		if n < 0 {
			return "-" + grouped.String()
		}
		return grouped.String()
	})

	// Discount display: {{ broker_discount | percentage }}
	s.engine.RegisterFilter("percentage", func(value interface{}) string {
		switch v := value.(type) {
		case float64:
			return fmt.Sprintf("%.1f%%", v)
		case int:
			return fmt.Sprintf("%d%%", v)
		default:
			return fmt.Sprintf("%v", value)
		}
	})

	// Product names in headings: {{ category | titlecase }}
	s.engine.RegisterFilter("titlecase", func(str string) string {
		words := strings.Fields(strings.ToLower(str))
		for i, w := range words {
			r, size := utf8.DecodeRuneInString(w)
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
		return strings.Join(words, " ")
	})

	// Teaser truncation: {{ description | truncate: 60 }}
	s.engine.RegisterFilter("truncate", func(str string, length int) string {
		if len(str) <= length {
			return str
		}
		if length <= 3 {
			return str[:length]
		}
		return str[:length-3] + "..."
	})
}

// Parse compiles a template string and returns any syntax error.
func (s *Service) Parse(templateStr string) error {
	_, err := s.engine.ParseString(templateStr)
	return err
}

// Render processes a template with the given bindings, caching the compiled
// template under cacheKey when one is provided. On error the original
// template string is returned so a send never goes out empty.
func (s *Service) Render(cacheKey, templateStr string, bindings map[string]interface{}) (string, error) {
	if cacheKey != "" {
		if cached, ok := s.cache.Load(cacheKey); ok {
			return cached.(*liquid.Template).RenderString(bindings)
		}
	}

	tpl, err := s.engine.ParseString(templateStr)
	if err != nil {
		return templateStr, fmt.Errorf("parse template: %w", err)
	}
	if cacheKey != "" {
		s.cache.Store(cacheKey, tpl)
	}

	out, err := tpl.RenderString(bindings)
	if err != nil {
		return templateStr, fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

// ClearCache drops all compiled templates, called after template updates.
func (s *Service) ClearCache() {
	s.cache.Range(func(key, _ interface{}) bool {
		s.cache.Delete(key)
		return true
	})
}

// CustomerBindings flattens a customer record into Liquid variables. The
// same names the {{token}} engine resolves are available, plus raw numerics
// for filter pipelines.
func CustomerBindings(c personalization.CustomerPersonalizationData) map[string]interface{} {
	bindings := map[string]interface{}{
		"first_name":      c.FirstName,
		"last_name":       c.LastName,
		"full_name":       strings.TrimSpace(c.FirstName + " " + c.LastName),
		"email":           c.Email,
		"company":         c.Company,
		"total_orders":    c.TotalOrders,
		"total_spent":     c.TotalSpent,
		"broker_name":     c.BrokerName,
		"broker_discount": c.BrokerDiscount,
		"customer_tier":   personalization.CustomerTier(c.TotalSpent),
		"tags":            c.Tags,
	}
	if c.LastOrderDate != nil {
		bindings["last_order_date"] = *c.LastOrderDate
	}
	if c.Preferences != nil {
		bindings["preferences"] = map[string]interface{}{
			"product_categories":      c.Preferences.ProductCategories,
			"communication_frequency": c.Preferences.CommunicationFrequency,
			"language":                c.Preferences.Language,
		}
	}
	return bindings
}

// FilterInfo describes a template filter for UI pickers.
type FilterInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

// AvailableFilters returns the custom filter catalog.
func AvailableFilters() []FilterInfo {
	return []FilterInfo{
		{Name: "default", Description: "Provide a fallback value", Example: `{{ first_name | default: "Friend" }}`},
		{Name: "currency", Description: "Format as USD currency", Example: `{{ total_spent | currency }}`},
		{Name: "number_with_delimiter", Description: "Add thousand separators", Example: `{{ total_orders | number_with_delimiter }}`},
		{Name: "percentage", Description: "Format as a percentage", Example: `{{ broker_discount | percentage }}`},
		{Name: "titlecase", Description: "Title case all words", Example: `{{ company | titlecase }}`},
		{Name: "truncate", Description: "Truncate with ellipsis", Example: `{{ description | truncate: 60 }}`},
	}
}
