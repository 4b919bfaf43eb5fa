package util

import "testing"

func TestFormatFixed(t *testing.T) {
	if got := FormatFixed(1.23456, 2); got != "1.23" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatFixed(7, 0); got != "7" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestFormatNumberEn(t *testing.T) {
	cases := []struct {
		in        string
		precision int
		want      string
	}{
		{"1234567.8999", 2, "1,234,567.89"},
		{"1000", 2, "1,000.00"},
		{"12.3", 4, "12.3000"},
		{"-4500.129", 1, "-4,500.1"},
		{"abc", 2, "abc"},
	}
	for _, c := range cases {
		if got := FormatNumberEn(c.in, c.precision); got != c.want {
			t.Fatalf("FormatNumberEn(%q, %d) = %q, want %q", c.in, c.precision, got, c.want)
		}
	}
}

func TestPairLeg(t *testing.T) {
	if PairLeg("BTC/USD", 0) != "BTC" || PairLeg("BTC/USD", 1) != "USD" {
		t.Fatalf("unexpected legs")
	}
	if PairLeg("BTC", 1) != "" {
		t.Fatalf("expected empty leg")
	}
}
