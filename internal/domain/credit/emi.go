package credit

import (
	"github.com/shopspring/decimal"
)

const (
	// internal precision for the compounding factor; results are rounded to cents.
	emiPrecision int32 = 24
	cents        int32 = 2
)

var monthsPerYearPercent = decimal.NewFromInt(1200)

// CalculateEMI returns the equal monthly installment of an amortizing loan,
// rounded half-up to two decimals:
//
//	EMI = P × r × (1+r)^n / ((1+r)^n − 1),  r = annualRate / 12 / 100
//
// A zero rate reduces to P / n. Non-positive principal or tenure yields zero.
func CalculateEMI(principal, annualRate decimal.Decimal, tenureMonths int) decimal.Decimal {
	if !principal.IsPositive() || tenureMonths <= 0 || annualRate.IsNegative() {
		return decimal.Zero
	}

	n := decimal.NewFromInt(int64(tenureMonths))
	if annualRate.IsZero() {
		return principal.DivRound(n, emiPrecision).Round(cents)
	}

	r := annualRate.DivRound(monthsPerYearPercent, emiPrecision)
	onePlusR := decimal.NewFromInt(1).Add(r)

	factor := decimal.NewFromInt(1)
	for i := 0; i < tenureMonths; i++ {
		factor = factor.Mul(onePlusR).Round(emiPrecision)
	}

	numerator := principal.Mul(r).Mul(factor)
	denominator := factor.Sub(decimal.NewFromInt(1))
	return numerator.DivRound(denominator, emiPrecision).Round(cents)
}
