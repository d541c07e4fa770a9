package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"kharcha/internal/core"
)

func TestAmount(t *testing.T) {
	cases := []struct {
		in float64
		ok bool
	}{
		{0, true},
		{500, true},
		{-500, true},
		{10_000_000, true},
		{-10_000_000, true},
		{10_000_001, false},
		{-10_000_001, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, tc := range cases {
		err := Amount(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%v expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%v expected error", tc.in)
		}
	}
}

func TestDate(t *testing.T) {
	now := time.Date(2024, time.January, 15, 8, 30, 0, 0, time.UTC)
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-15", true},
		{"2024-01-14", true},
		{"2023-12-31", true},
		{"2024-01-16", false},
		{"2024-1-15", false},
		{"15/01/2024", false},
		{"2024-02-30", false},
		{"", false},
	}
	for _, tc := range cases {
		err := Date(tc.in, now)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestDueDateAllowsFuture(t *testing.T) {
	if err := DueDate("2049-12-01"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := DueDate("next month"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCategoryAndPaymentType(t *testing.T) {
	if err := Category(core.Food); err != nil {
		t.Fatalf("Food: %v", err)
	}
	if err := Category(core.Investment); err == nil {
		t.Fatalf("Investment/MF/SIP should be rejected")
	}
	if err := PaymentType(""); err != nil {
		t.Fatalf("empty payment type should pass: %v", err)
	}
	if err := PaymentType(core.CreditCard); err != nil {
		t.Fatalf("Credit Card: %v", err)
	}
	if err := PaymentType("Barter"); err == nil {
		t.Fatalf("Barter should be rejected")
	}
}

func TestBudget(t *testing.T) {
	cases := []struct {
		name string
		b    core.Budget
		ok   bool
	}{
		{"month 11", core.Budget{Monthly: 5000, Year: 2024, Month: 11}, true},
		{"month 0", core.Budget{Monthly: 0, Year: 2020, Month: 0}, true},
		{"month 12", core.Budget{Monthly: 5000, Year: 2024, Month: 12}, false},
		{"negative month", core.Budget{Monthly: 5000, Year: 2024, Month: -1}, false},
		{"year too early", core.Budget{Monthly: 5000, Year: 2019, Month: 1}, false},
		{"year too late", core.Budget{Monthly: 5000, Year: 2051, Month: 1}, false},
		{"max monthly", core.Budget{Monthly: 100_000_000, Year: 2024, Month: 1}, true},
		{"over max", core.Budget{Monthly: 100_000_000.01, Year: 2024, Month: 1}, false},
		{"negative", core.Budget{Monthly: -1, Year: 2024, Month: 1}, false},
		{"nan", core.Budget{Monthly: math.NaN(), Year: 2024, Month: 1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Budget(tc.b)
			if tc.ok && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestErrorMatchesSentinel(t *testing.T) {
	err := Amount(math.NaN())
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var verr *Error
	if !errors.As(err, &verr) || verr.Field != "amount" {
		t.Fatalf("expected field amount, got %v", err)
	}
}

func TestSanitizeNotes(t *testing.T) {
	if got := SanitizeNotes(`<b>"Tom's" & co</b>`); got != "bToms  co/b" {
		t.Fatalf("unexpected sanitize result %q", got)
	}
	long := strings.Repeat("a", 501)
	if got := SanitizeNotes(long); len(got) != 500 {
		t.Fatalf("expected 500 chars, got %d", len(got))
	}
	exact := strings.Repeat("é", 500)
	if got := SanitizeNotes(exact); got != exact {
		t.Fatalf("500 runes should be kept intact")
	}
}

func TestLoanType(t *testing.T) {
	got, err := LoanType("  Home <Loan> ")
	if err != nil || got != "Home Loan" {
		t.Fatalf("unexpected %q, %v", got, err)
	}
	if _, err := LoanType("<>&"); err == nil {
		t.Fatalf("expected error for empty loan type")
	}
}
