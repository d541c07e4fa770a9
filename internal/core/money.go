// Package core holds the ledger's domain types and money rules.
//
// Amounts are float64 on the wire because they are persisted as JSON
// numbers; arithmetic goes through decimal so sums and rounding stay exact
// to the cent.
package core

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// RoundAmount rounds half away from zero to two decimal places.
func RoundAmount(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SignedAmount applies the spend sign rule: the stored sign is ignored, the
// magnitude is subtracted for Subtract and added for every other category.
func SignedAmount(c Category, amount float64) decimal.Decimal {
	mag := decimal.NewFromFloat(amount).Abs()
	if c == Subtract {
		return mag.Neg()
	}
	return mag
}

// SpendTotal sums expenses with the spend sign rule.
func SpendTotal(expenses []Expense) float64 {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(SignedAmount(e.Category, e.Amount))
	}
	return total.InexactFloat64()
}

// RawSum adds amounts exactly as stored.
func RawSum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}

// Sub returns a-b computed in decimal.
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}

// ParseAmount converts form input into a number. Both dot (12.34) and comma
// (12,34) decimal separators are accepted, as is a leading sign.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// FormatAmount renders an amount without trailing zeros.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).String()
}
