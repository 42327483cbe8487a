package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"0", "0", true},
		{".5", "0.5", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"1000":   "$1000.00",
		"12.345": "$12.35",
		"-800":   "-$800.00",
		"0":      "$0.00",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Fatalf("%s: got %q want %q", in, got, want)
		}
	}
}

func TestSums(t *testing.T) {
	records := []Record{
		{Category: CategoryGrossIncome, Amount: decimal.NewFromInt(1000)},
		{Category: CategoryNetIncome, Amount: decimal.RequireFromString("250.5")},
		{Category: CategoryGrossIncome, Amount: decimal.RequireFromString("0.5")},
	}
	if got := Sum(records); !got.Equal(decimal.NewFromInt(1251)) {
		t.Fatalf("Sum = %s", got)
	}
	if got := SumCategory(records, CategoryGrossIncome); !got.Equal(decimal.RequireFromString("1000.5")) {
		t.Fatalf("SumCategory = %s", got)
	}
	if got := Sum(nil); !got.IsZero() {
		t.Fatalf("Sum(nil) = %s", got)
	}
}
