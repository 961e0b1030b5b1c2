package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuote_ReferenceCart(t *testing.T) {
	lines := []Line{
		{ProductID: 1, UnitPrice: 35, Quantity: 1},
		{ProductID: 3, UnitPrice: 60, Quantity: 1},
	}
	got := Quote(lines, 5, 0.15, 120)

	checks := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"subtotal", Round2(got.Subtotal), 95},
		{"discount", Round2(got.Discount), 5},
		{"tax", Round2(got.Tax), 13.5},
		{"total", Round2(got.Total), 103.5},
		{"change", Round2(got.Change), 16.5},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Fatalf("%s expected %v, got %v", c.name, c.expected, c.got)
		}
	}
}

func TestQuote_TotalIdentity(t *testing.T) {
	cases := []struct {
		name     string
		lines    []Line
		discount float64
		taxRate  float64
		paid     float64
	}{
		{"single line", []Line{{1, 40, 1}}, 0, 0.15, 50},
		{"multi quantity", []Line{{1, 12.5, 3}, {2, 7.25, 2}}, 10, 0.05, 60},
		{"zero tax", []Line{{1, 100, 2}}, 25, 0, 175},
		{"no discount", []Line{{1, 9.99, 7}}, 0, 0.2, 100},
		{"exact payment", []Line{{1, 30, 1}}, 0, 0.1, 33},
	}
	for _, tc := range cases {
		got := Quote(tc.lines, tc.discount, tc.taxRate, tc.paid)
		if !got.Total.Equal(got.Subtotal.Sub(got.Discount).Add(got.Tax)) {
			t.Fatalf("%s: total %s != (subtotal - discount) + tax", tc.name, got.Total)
		}
		if !got.Change.Equal(decimal.NewFromFloat(tc.paid).Sub(got.Total)) {
			t.Fatalf("%s: change %s != paid - total", tc.name, got.Change)
		}
	}
}

func TestQuote_DiscountCappedAtSubtotal(t *testing.T) {
	got := Quote([]Line{{1, 20, 1}}, 50, 0.15, 0)
	if Round2(got.Discount) != 20 {
		t.Fatalf("expected discount capped at 20, got %v", Round2(got.Discount))
	}
	if !got.Tax.IsZero() {
		t.Fatalf("expected zero tax on zero taxable base, got %s", got.Tax)
	}
	if !got.Total.IsZero() {
		t.Fatalf("expected zero total, got %s", got.Total)
	}
}

func TestQuote_NegativeChangeIsAllowed(t *testing.T) {
	got := Quote([]Line{{1, 100, 1}}, 0, 0.15, 50)
	if !got.Change.IsNegative() {
		t.Fatalf("expected negative change for underpayment, got %s", got.Change)
	}
}

func TestQuote_NoRoundingDrift(t *testing.T) {
	// 0.1 * 3 style drift must not appear across repeated lines.
	lines := make([]Line, 100)
	for i := range lines {
		lines[i] = Line{ProductID: int64(i + 1), UnitPrice: 0.1, Quantity: 3}
	}
	got := Quote(lines, 0, 0, 30)
	if Round2(got.Subtotal) != 30 {
		t.Fatalf("expected subtotal 30, got %v", Round2(got.Subtotal))
	}
	if Round2(got.Change) != 0 {
		t.Fatalf("expected zero change, got %v", Round2(got.Change))
	}
}
