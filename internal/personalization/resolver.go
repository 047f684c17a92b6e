package personalization

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Customer tiers derived from cumulative spend. Boundaries are inclusive on
// the lower bound of each tier.
const (
	TierBronze = "Bronze"
	TierSilver = "Silver"
	TierGold   = "Gold"
	TierVIP    = "VIP"
)

const (
	tierSilverThreshold = 1000
	tierGoldThreshold   = 5000
	tierVIPThreshold    = 10000
)

// fallbackName stands in for a missing first name anywhere one is rendered.
const fallbackName = "Friend"

// builtinTokens lists the resolvable built-in tokens in substitution order.
var builtinTokens = []string{
	"first_name",
	"last_name",
	"full_name",
	"email",
	"company",
	"total_orders",
	"total_spent",
	"last_order_date",
	"broker_name",
	"broker_discount",
	"customer_tier",
	"greeting",
}

// CustomerTier maps cumulative spend onto the four-level tier ladder.
func CustomerTier(totalSpent float64) string {
	switch {
	case totalSpent >= tierVIPThreshold:
		return TierVIP
	case totalSpent >= tierGoldThreshold:
		return TierGold
	case totalSpent >= tierSilverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// resolveBuiltins produces the full token -> value mapping for a customer.
// Every token resolves; missing source fields fall back to defined literals.
func resolveBuiltins(c CustomerPersonalizationData, now time.Time) map[string]string {
	firstName := c.FirstName
	if firstName == "" {
		firstName = fallbackName
	}

	fullName := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if fullName == "" {
		fullName = fallbackName
	}

	lastOrder := "Never"
	if c.LastOrderDate != nil {
		lastOrder = c.LastOrderDate.Format("January 2, 2006")
	}

	return map[string]string{
		"first_name":      firstName,
		"last_name":       c.LastName,
		"full_name":       fullName,
		"email":           c.Email,
		"company":         c.Company,
		"total_orders":    strconv.Itoa(c.TotalOrders),
		"total_spent":     FormatCurrency(c.TotalSpent),
		"last_order_date": lastOrder,
		"broker_name":     c.BrokerName,
		"broker_discount": formatPercent(c.BrokerDiscount),
		"customer_tier":   CustomerTier(c.TotalSpent),
		"greeting":        greetingForHour(now.Hour(), c.FirstName),
	}
}

// greetingForHour picks a time-of-day salutation, appending the first name
// when one is present.
func greetingForHour(hour int, firstName string) string {
	var greeting string
	switch {
	case hour < 12:
		greeting = "Good morning"
	case hour < 17:
		greeting = "Good afternoon"
	default:
		greeting = "Good evening"
	}
	if firstName != "" {
		greeting += ", " + firstName
	}
	return greeting
}

// FormatCurrency renders a USD amount as "$1,250.00" with comma-grouped
// thousands and exactly two decimal places.
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	whole := fmt.Sprintf("%.2f", amount)
	intPart := whole[:len(whole)-3]
	decPart := whole[len(whole)-2:]

	var grouped strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteRune(',')
		}
		grouped.WriteRune(ch)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return sign + "$" + grouped.String() + "." + decPart
}

// formatPercent renders a discount percentage as "15%". Fractional rates keep
// their precision ("12.5%").
func formatPercent(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "%"
}
