package core

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{" 2.50 ", 2.5, true},
		{"-300", -300, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestRoundAmount(t *testing.T) {
	cases := map[float64]float64{
		12.345:  12.35,
		12.344:  12.34,
		-12.345: -12.35,
		100:     100,
	}
	for in, want := range cases {
		if got := RoundAmount(in); got != want {
			t.Fatalf("RoundAmount(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestSpendTotalIgnoresStoredSign(t *testing.T) {
	got := SpendTotal([]Expense{
		{Category: Food, Amount: -500},
		{Category: Food, Amount: 500},
		{Category: Subtract, Amount: 300},
		{Category: Subtract, Amount: -200},
	})
	if got != 500 {
		t.Fatalf("expected 500, got %v", got)
	}
}

func TestSumsAreExact(t *testing.T) {
	if got := RawSum(0.1, 0.2); got != 0.3 {
		t.Fatalf("expected 0.3, got %v", got)
	}
	if got := Sub(0.3, 0.1); got != 0.2 {
		t.Fatalf("expected 0.2, got %v", got)
	}
}

func TestIsFinite(t *testing.T) {
	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) || IsFinite(math.Inf(-1)) {
		t.Fatalf("non-finite values reported finite")
	}
	if !IsFinite(0) {
		t.Fatalf("zero reported non-finite")
	}
}
