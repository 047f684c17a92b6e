package personalization

import (
	"strconv"
	"strings"
)

// PersonalizationRule maps a custom template token to a value derived from the
// customer record. When the optional condition fails (or the field resolves
// empty), the default value is substituted instead.
type PersonalizationRule struct {
	// Field is the dotted path into the customer record. It doubles as the
	// template token name for this rule.
	Field string `json:"field"`
	// DefaultValue is used when the condition fails or the field is empty.
	DefaultValue string `json:"default_value,omitempty"`
	// Condition is an optional "<field> <operator> <value>" expression.
	Condition string `json:"condition,omitempty"`
}

// conditionOp is the closed set of comparison operators a condition may use.
type conditionOp int

const (
	opGreaterThan conditionOp = iota
	opLessThan
	opGreaterOrEqual
	opLessOrEqual
	opEqual
	opNotEqual
	opContains
)

var conditionOps = map[string]conditionOp{
	">":        opGreaterThan,
	"<":        opLessThan,
	">=":       opGreaterOrEqual,
	"<=":       opLessOrEqual,
	"==":       opEqual,
	"=":        opEqual,
	"!=":       opNotEqual,
	"contains": opContains,
}

type condition struct {
	field string
	op    conditionOp
	value string
}

// parseCondition splits a condition expression on single spaces. Anything
// other than exactly three tokens with a known operator is rejected, which
// makes malformed conditions evaluate false downstream.
func parseCondition(expr string) (condition, bool) {
	parts := strings.Split(expr, " ")
	if len(parts) != 3 {
		return condition{}, false
	}
	op, ok := conditionOps[parts[1]]
	if !ok {
		return condition{}, false
	}
	return condition{field: parts[0], op: op, value: parts[2]}, true
}

// evaluate resolves the condition's field against the customer property tree
// and compares it to the literal. Numeric operators require both sides to
// parse as floats; a failed parse fails the comparison rather than erroring.
func (c condition) evaluate(ctx map[string]interface{}) bool {
	raw, _ := lookupPath(ctx, c.field)
	fieldVal := stringifyValue(raw)

	switch c.op {
	case opGreaterThan, opLessThan, opGreaterOrEqual, opLessOrEqual:
		left, lerr := strconv.ParseFloat(fieldVal, 64)
		right, rerr := strconv.ParseFloat(c.value, 64)
		if lerr != nil || rerr != nil {
			return false
		}
		switch c.op {
		case opGreaterThan:
			return left > right
		case opLessThan:
			return left < right
		case opGreaterOrEqual:
			return left >= right
		default:
			return left <= right
		}
	case opEqual:
		return fieldVal == c.value
	case opNotEqual:
		return fieldVal != c.value
	case opContains:
		// Containment is case-insensitive; the equality operators are exact.
		return strings.Contains(strings.ToLower(fieldVal), strings.ToLower(c.value))
	default:
		return false
	}
}

// applyRule produces the substitution value for one rule. Rules are
// independent: each evaluates against the original customer record only.
func applyRule(rule PersonalizationRule, ctx map[string]interface{}) string {
	raw, _ := lookupPath(ctx, rule.Field)
	resolved := stringifyValue(raw)

	if rule.Condition != "" {
		cond, ok := parseCondition(rule.Condition)
		if !ok || !cond.evaluate(ctx) {
			return rule.DefaultValue
		}
	}

	if resolved == "" {
		return rule.DefaultValue
	}
	return resolved
}
