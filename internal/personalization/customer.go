// Package personalization implements merge-token resolution, rule-based
// overrides, and template substitution for print-commerce email campaigns.
package personalization

import (
	"encoding/json"
	"strconv"
	"time"
)

// CustomerPersonalizationData is the read-only customer record every engine
// operation works from. All fields besides ID and Email are optional; every
// resolver degrades to a safe default when a field is missing.
type CustomerPersonalizationData struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`

	TotalOrders   int        `json:"total_orders,omitempty"`
	TotalSpent    float64    `json:"total_spent,omitempty"`
	LastOrderDate *time.Time `json:"last_order_date,omitempty"`

	BrokerID       string  `json:"broker_id,omitempty"`
	BrokerName     string  `json:"broker_name,omitempty"`
	BrokerDiscount float64 `json:"broker_discount,omitempty"`

	Tags        []string             `json:"tags,omitempty"`
	Preferences *CustomerPreferences `json:"preferences,omitempty"`

	OrderHistory []Order `json:"order_history,omitempty"`
}

// CustomerPreferences holds stated (not inferred) customer preferences.
type CustomerPreferences struct {
	ProductCategories      []string `json:"product_categories,omitempty"`
	CommunicationFrequency string   `json:"communication_frequency,omitempty"`
	Language               string   `json:"language,omitempty"`
}

// Order is a single entry in a customer's order history.
type Order struct {
	ID    string      `json:"id"`
	Total float64     `json:"total"`
	Items []OrderItem `json:"items,omitempty"`
	Date  time.Time   `json:"date"`
}

// OrderItem is a line item on a past order.
type OrderItem struct {
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// fieldContext flattens the customer record into a property tree for dotted-path
// lookups by the rule engine. Only present optional fields appear in the tree,
// so an absent field and an unknown field look the same to a traversal: missing.
func fieldContext(c CustomerPersonalizationData) map[string]interface{} {
	ctx := map[string]interface{}{
		"id":    c.ID,
		"email": c.Email,
	}

	if c.FirstName != "" {
		ctx["first_name"] = c.FirstName
	}
	if c.LastName != "" {
		ctx["last_name"] = c.LastName
	}
	if c.Company != "" {
		ctx["company"] = c.Company
	}

	ctx["total_orders"] = float64(c.TotalOrders)
	ctx["total_spent"] = c.TotalSpent
	if c.LastOrderDate != nil {
		ctx["last_order_date"] = c.LastOrderDate.Format(time.RFC3339)
	}

	if c.BrokerID != "" {
		ctx["broker_id"] = c.BrokerID
	}
	if c.BrokerName != "" {
		ctx["broker_name"] = c.BrokerName
	}
	if c.BrokerDiscount != 0 {
		ctx["broker_discount"] = c.BrokerDiscount
	}

	if len(c.Tags) > 0 {
		tags := make([]interface{}, len(c.Tags))
		for i, t := range c.Tags {
			tags[i] = t
		}
		ctx["tags"] = tags
	}

	if c.Preferences != nil {
		prefs := map[string]interface{}{}
		if len(c.Preferences.ProductCategories) > 0 {
			cats := make([]interface{}, len(c.Preferences.ProductCategories))
			for i, cat := range c.Preferences.ProductCategories {
				cats[i] = cat
			}
			prefs["product_categories"] = cats
		}
		if c.Preferences.CommunicationFrequency != "" {
			prefs["communication_frequency"] = c.Preferences.CommunicationFrequency
		}
		if c.Preferences.Language != "" {
			prefs["language"] = c.Preferences.Language
		}
		ctx["preferences"] = prefs
	}

	if len(c.OrderHistory) > 0 {
		orders := make([]interface{}, len(c.OrderHistory))
		for i, o := range c.OrderHistory {
			items := make([]interface{}, len(o.Items))
			for j, it := range o.Items {
				items[j] = map[string]interface{}{
					"product_name": it.ProductName,
					"quantity":     float64(it.Quantity),
					"price":        it.Price,
				}
			}
			orders[i] = map[string]interface{}{
				"id":    o.ID,
				"total": o.Total,
				"items": items,
				"date":  o.Date.Format(time.RFC3339),
			}
		}
		ctx["order_history"] = orders
	}

	return ctx
}

// lookupPath walks a dotted path through the property tree. The traversal
// stops at the first missing segment and reports false; it never fails.
func lookupPath(ctx map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = ctx
	start := 0
	for start <= len(path) {
		end := start
		for end < len(path) && path[end] != '.' {
			end++
		}
		segment := path[start:end]

		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		val, ok := node[segment]
		if !ok {
			return nil, false
		}
		current = val

		if end == len(path) {
			return current, true
		}
		start = end + 1
	}
	return nil, false
}

// stringifyValue renders a looked-up value for substitution. Scalars render
// directly; objects and lists serialize to their JSON representation rather
// than failing.
func stringifyValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
