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
		{"1.005", "1.01", true}, // half away from zero
		{" 2.50 ", "2.5", true},
		{"-1", "-1", true},
		{"-12.345", "-12.35", true},
		{"+7", "7", true},
		{"0", "0", true},
		{".5", "0.5", true},
		{"abc", "", false},
		{"1e3", "", false},
		{"NaN", "", false},
		{"1.2.3", "", false},
		{"--1", "", false},
		{"-", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err != ErrInvalidAmount {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in     string
		places int32
		out    string
	}{
		{"0", 2, "₹0.00"},
		{"12.5", 2, "₹12.50"},
		{"1234.5", 2, "₹1,234.50"},
		{"1234567.891", 2, "₹1,234,567.89"},
		{"-999", 0, "-₹999"},
		{"-1000", 0, "-₹1,000"},
	}
	for _, tc := range cases {
		got := FormatAmount(decimal.RequireFromString(tc.in), "₹", tc.places)
		if got != tc.out {
			t.Fatalf("FormatAmount(%s) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
