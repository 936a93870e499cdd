// Package billing holds the pure invoicing rules: amount calculation and
// schedule date policy.
package billing

import (
	"github.com/shopspring/decimal"
)

var (
	// LevyRate applies to each of the two statutory levies.
	LevyRate = decimal.RequireFromString("0.025")
	// VATRate is the value-added tax rate.
	VATRate = decimal.RequireFromString("0.15")
)

// Amounts holds the derived monetary fields of an invoice.
type Amounts struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	FeeA     decimal.Decimal `json:"fee_a"`
	FeeB     decimal.Decimal `json:"fee_b"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// CalculateAmounts derives every invoice amount from the base price and user count.
// Each field is rounded to the cent on its own, half up (toward positive
// infinity, so -0.005 becomes 0.00), and the total is the sum of the rounded fields. Negative and zero inputs propagate.
func CalculateAmounts(baseAmount decimal.Decimal, numUsers int) Amounts {
	exact := baseAmount.Mul(decimal.NewFromInt(int64(numUsers)))

	a := Amounts{
		Subtotal: round2(exact),
		FeeA:     round2(exact.Mul(LevyRate)),
		FeeB:     round2(exact.Mul(LevyRate)),
		Tax:      round2(exact.Mul(VATRate)),
	}
	a.Total = a.Subtotal.Add(a.FeeA).Add(a.FeeB).Add(a.Tax)
	return a
}

// Equal reports whether two amount sets agree to the cent.
func (a Amounts) Equal(b Amounts) bool {
	return a.Subtotal.Equal(b.Subtotal) &&
		a.FeeA.Equal(b.FeeA) &&
		a.FeeB.Equal(b.FeeB) &&
		a.Tax.Equal(b.Tax) &&
		a.Total.Equal(b.Total)
}

var half = decimal.New(5, -1)

// round2 computes floor(d*100 + 0.5) / 100.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}
