package utils

import "github.com/shopspring/decimal"

// Money arithmetic goes through decimal so repeated line-item sums do not
// accumulate float error before being stored.

// LineTotal computes quantity * unitPrice - discount, rounded to 2 places.
func LineTotal(quantity, unitPrice, discount float64) float64 {
	q := decimal.NewFromFloat(quantity)
	p := decimal.NewFromFloat(unitPrice)
	d := decimal.NewFromFloat(discount)
	total, _ := q.Mul(p).Sub(d).Round(2).Float64()
	return total
}

// SumLines adds line totals exactly and rounds once at the end.
func SumLines(lines []float64) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l))
	}
	out, _ := sum.Round(2).Float64()
	return out
}

// ApplyDiscount subtracts an invoice-level discount from a subtotal.
// The result never goes below zero.
func ApplyDiscount(subtotal, discount float64) float64 {
	s := decimal.NewFromFloat(subtotal)
	d := decimal.NewFromFloat(discount)
	total := s.Sub(d)
	if total.IsNegative() {
		return 0
	}
	out, _ := total.Round(2).Float64()
	return out
}

// RoundMoney rounds a value to 2 decimal places.
func RoundMoney(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}
