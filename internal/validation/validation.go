// Package validation holds the pure checks applied to ledger input before
// any state changes.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"kharcha/internal/core"
)

const (
	MaxAmount         = 10_000_000
	MaxBudget         = 100_000_000
	MinBudgetYear     = 2020
	MaxBudgetYear     = 2050
	MaxNotesLength    = 500
	MaxLoanTypeLength = 100
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Error reports the offending field. It matches core.ErrValidation with
// errors.Is.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *Error) Unwrap() error {
	return core.ErrValidation
}

func fail(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Amount checks an expense or EMI amount. The sign is free, the magnitude
// is capped.
func Amount(v float64) error {
	if !core.IsFinite(v) {
		return fail("amount", "must be a finite number")
	}
	if v > MaxAmount || v < -MaxAmount {
		return fail("amount", "magnitude exceeds %d", MaxAmount)
	}
	return nil
}

// Date checks a YYYY-MM-DD expense date that must not be after today in
// now's location.
func Date(date string, now time.Time) error {
	d, err := parseDate("date", date, now.Location())
	if err != nil {
		return err
	}
	y, m, day := now.Date()
	endOfToday := time.Date(y, m, day, 23, 59, 59, 999_999_999, now.Location())
	if d.After(endOfToday) {
		return fail("date", "%s is in the future", date)
	}
	return nil
}

// DueDate checks an EMI due date. Future dates are allowed.
func DueDate(date string) error {
	_, err := parseDate("dueDate", date, time.UTC)
	return err
}

func parseDate(field, date string, loc *time.Location) (time.Time, error) {
	if !datePattern.MatchString(date) {
		return time.Time{}, fail(field, "%q is not in YYYY-MM-DD form", date)
	}
	d, err := core.ParseDate(date, loc)
	if err != nil {
		return time.Time{}, fail(field, "%q is not a calendar date", date)
	}
	return d, nil
}

func Category(c core.Category) error {
	if !c.IsValid() {
		return fail("category", "%q is not an accepted category", c)
	}
	return nil
}

// PaymentType accepts the empty value, which displays as Cash.
func PaymentType(p core.PaymentType) error {
	if p != "" && !p.IsValid() {
		return fail("paymentType", "%q is not an accepted payment type", p)
	}
	return nil
}

func Budget(b core.Budget) error {
	if !core.IsFinite(b.Monthly) {
		return fail("monthly", "must be a finite number")
	}
	if b.Monthly < 0 || b.Monthly > MaxBudget {
		return fail("monthly", "must be between 0 and %d", MaxBudget)
	}
	if b.Month < 0 || b.Month > 11 {
		return fail("month", "%d is outside 0-11", b.Month)
	}
	if b.Year < MinBudgetYear || b.Year > MaxBudgetYear {
		return fail("year", "%d is outside %d-%d", b.Year, MinBudgetYear, MaxBudgetYear)
	}
	return nil
}

func Language(l core.Language) error {
	if !l.IsValid() {
		return fail("language", "%q is not supported", l)
	}
	return nil
}

// LoanType sanitizes a loan label and rejects it when nothing is left.
func LoanType(s string) (string, error) {
	s = truncate(stripUnsafe(s), MaxLoanTypeLength)
	if s == "" {
		return "", fail("loanType", "cannot be empty")
	}
	return s, nil
}

// SanitizeNotes strips HTML metacharacters and caps the length.
func SanitizeNotes(s string) string {
	return truncate(stripUnsafe(s), MaxNotesLength)
}

func stripUnsafe(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'', '&':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
