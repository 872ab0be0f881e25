// Package evaluator decides whether an alert's conditions hold for a price.
package evaluator

import (
	"github.com/shopspring/decimal"

	"market-alert-service/internal/models"
)

// fields maps a condition field name to the observed value it compares against.
var fields = map[string]func(price decimal.Decimal) decimal.Decimal{
	"price": func(price decimal.Decimal) decimal.Decimal { return price },
}

// EvaluateAlert combines the alert's conditions with AND (default) or OR.
// An alert without conditions never matches.
func EvaluateAlert(alert models.Alert, price decimal.Decimal) bool {
	if len(alert.Conditions) == 0 {
		return false
	}
	if alert.Combinator() == models.OperatorOr {
		for _, c := range alert.Conditions {
			if evaluateCondition(c, price) {
				return true
			}
		}
		return false
	}
	for _, c := range alert.Conditions {
		if !evaluateCondition(c, price) {
			return false
		}
	}
	return true
}

// evaluateCondition checks a single threshold. Unknown fields and operators are false.
func evaluateCondition(c models.Condition, price decimal.Decimal) bool {
	lookup, ok := fields[c.Field]
	if !ok {
		return false
	}
	observed := lookup(price)
	switch c.Operator {
	case models.OpGTE:
		return observed.GreaterThanOrEqual(c.Value)
	case models.OpLTE:
		return observed.LessThanOrEqual(c.Value)
	default:
		return false
	}
}

// Range reports the band of a two-condition alert made of one gte and one lte threshold.
// An AND alert is a band only when gte <= lte (price inside); an OR alert only when
// gte > lte (price outside). Other shapes are always or never true and have no band.
func Range(alert models.Alert) (lower, upper decimal.Decimal, ok bool) {
	if len(alert.Conditions) != 2 {
		return decimal.Zero, decimal.Zero, false
	}
	var haveGTE, haveLTE bool
	var gte, lte decimal.Decimal
	for _, c := range alert.Conditions {
		switch c.Operator {
		case models.OpGTE:
			gte, haveGTE = c.Value, true
		case models.OpLTE:
			lte, haveLTE = c.Value, true
		}
	}
	if !haveGTE || !haveLTE {
		return decimal.Zero, decimal.Zero, false
	}
	switch alert.Combinator() {
	case models.OperatorAnd:
		if gte.LessThanOrEqual(lte) {
			return gte, lte, true
		}
	case models.OperatorOr:
		if gte.GreaterThan(lte) {
			return lte, gte, true
		}
	}
	return decimal.Zero, decimal.Zero, false
}
