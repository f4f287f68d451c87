package money

import "testing"

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{15000, "Rp 15.000"},
		{35000, "Rp 35.000"},
		{1250000, "Rp 1.250.000"},
		{-7500, "-Rp 7.500"},
	}
	for _, tc := range cases {
		if got := FormatRupiah(tc.amount); got != tc.want {
			t.Fatalf("FormatRupiah(%d) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"15000", 15000},
		{"Rp 15.000", 15000},
		{"rp15.000", 15000},
		{" 50.000 ", 50000},
		{"", 0},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.raw)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}

	if _, err := ParseAmount("abc"); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
}

func TestSubtotalClampsNegativeQty(t *testing.T) {
	if got := Subtotal(-3, 15000); got != 0 {
		t.Fatalf("expected 0 for negative qty, got %d", got)
	}
	if got := Subtotal(2, 15000); got != 30000 {
		t.Fatalf("expected 30000, got %d", got)
	}
}
