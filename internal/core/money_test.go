package core

import (
	"errors"
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{"12.345", 1235, true},
		{" 2.50 ", 250, true},
		{"-1", -100, true},
		{"-1.005", -101, true},
		{"+3", 300, true},
		{"0", 0, true},
		{"500", 50000, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1,23", 0, false},
		{"NaN", 0, false},
		{"", 0, false},
		{"1e20", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{123450, "$1,234.50"},
		{45000, "$450.00"},
		{0, "$0.00"},
		{5, "$0.05"},
		{-2000, "-$20.00"},
		{123456789, "$1,234,567.89"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(Money{Cents: tc.cents}); got != tc.want {
			t.Fatalf("FormatCurrency(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	cases := []struct {
		cents int64
		json  string
	}{
		{5000, "50"},
		{123450, "1234.5"},
		{1, "0.01"},
		{-2000, "-20"},
	}
	for _, tc := range cases {
		b, err := Money{Cents: tc.cents}.MarshalJSON()
		if err != nil || string(b) != tc.json {
			t.Fatalf("marshal %d: got %s (err=%v), want %s", tc.cents, b, err, tc.json)
		}
	}

	var m Money
	if err := m.UnmarshalJSON([]byte("50.0")); err != nil || m.Cents != 5000 {
		t.Fatalf("unmarshal 50.0: got %d (err=%v)", m.Cents, err)
	}
	if err := m.UnmarshalJSON([]byte(`"x"`)); err == nil {
		t.Fatalf("expected error for quoted text")
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 7000}).String(); got != "70.00" {
		t.Fatalf("got %q", got)
	}
	if got := (Money{Cents: -5}).String(); got != "-0.05" {
		t.Fatalf("got %q", got)
	}
}

func TestCheckedAdd(t *testing.T) {
	cases := []struct {
		name string
		a, b int64
		want int64
		ok   bool
	}{
		{"small", 100, 250, 350, true},
		{"negative", 100, -250, -150, true},
		{"at bound", MaxTotalCents - 1, 1, MaxTotalCents, true},
		{"past bound", MaxTotalCents, 1, 0, false},
		{"past negative bound", -MaxTotalCents, -1, 0, false},
		{"int64 wrap", math.MaxInt64, 1, 0, false},
		{"int64 negative wrap", math.MinInt64 + 1, -2, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Money{Cents: tc.a}.CheckedAdd(Money{Cents: tc.b})
			if tc.ok {
				if err != nil || got.Cents != tc.want {
					t.Fatalf("CheckedAdd(%d, %d) = %d (err=%v), want %d", tc.a, tc.b, got.Cents, err, tc.want)
				}
				return
			}
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("CheckedAdd(%d, %d) expected ErrInvalidAmount, got %d (err=%v)", tc.a, tc.b, got.Cents, err)
			}
		})
	}
}

func TestRepeatedLargeIncomeNeverWraps(t *testing.T) {
	amount, err := ParseAmount("10000000000000")
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	total := Money{}
	for i := 0; i < 10000; i++ {
		next, err := total.CheckedAdd(amount)
		if err != nil {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("unexpected error %v", err)
			}
			break
		}
		total = next
	}
	if total.Cents <= 0 || !total.InTotalRange() {
		t.Fatalf("total left the valid range: %d", total.Cents)
	}
}

func TestStoredTotalsMayExceedSingleAmountBound(t *testing.T) {
	var m Money
	if err := m.UnmarshalJSON([]byte("50000000000000")); err != nil {
		t.Fatalf("a stored total above the single-amount bound must load: %v", err)
	}
	if m.Cents != 5_000_000_000_000_000 {
		t.Fatalf("got %d", m.Cents)
	}
	if _, err := ParseAmount("50000000000000"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("operator input above the bound should be rejected, got %v", err)
	}
	if err := m.UnmarshalJSON([]byte("1e20")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for out-of-range total, got %v", err)
	}
}
