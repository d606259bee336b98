package credit

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Policy carries every tunable rule of the decision engine. It is passed into
// each evaluation instead of being read from package state.
type Policy struct {
	ApprovedLimitMultiplier decimal.Decimal
	LimitRoundingUnit       decimal.Decimal
	MaxEMIToSalaryRatio     decimal.Decimal

	HighTierBoundary int
	MidTierBoundary  int
	LowTierBoundary  int

	MidTierRateFloor decimal.Decimal
	LowTierRateFloor decimal.Decimal

	MinTenureMonths int
	MaxTenureMonths int

	MinLoanAmount   decimal.Decimal
	MaxLoanAmount   decimal.Decimal
	MaxInterestRate decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		ApprovedLimitMultiplier: decimal.NewFromInt(36),
		LimitRoundingUnit:       decimal.NewFromInt(100000),
		MaxEMIToSalaryRatio:     decimal.RequireFromString("0.5"),
		HighTierBoundary:        50,
		MidTierBoundary:         30,
		LowTierBoundary:         10,
		MidTierRateFloor:        decimal.NewFromInt(12),
		LowTierRateFloor:        decimal.NewFromInt(16),
		MinTenureMonths:         1,
		MaxTenureMonths:         60,
		MinLoanAmount:           decimal.NewFromInt(10000),
		MaxLoanAmount:           decimal.NewFromInt(10000000),
		MaxInterestRate:         decimal.NewFromInt(100),
	}
}

func (p Policy) Validate() error {
	if !p.ApprovedLimitMultiplier.IsPositive() {
		return fmt.Errorf("approved limit multiplier must be positive, got %s", p.ApprovedLimitMultiplier)
	}
	if !p.LimitRoundingUnit.IsPositive() {
		return fmt.Errorf("limit rounding unit must be positive, got %s", p.LimitRoundingUnit)
	}
	if !p.MaxEMIToSalaryRatio.IsPositive() {
		return fmt.Errorf("max EMI to salary ratio must be positive, got %s", p.MaxEMIToSalaryRatio)
	}
	if !(p.HighTierBoundary > p.MidTierBoundary && p.MidTierBoundary > p.LowTierBoundary && p.LowTierBoundary >= 0) {
		return fmt.Errorf("score tier boundaries must be strictly descending, got %d/%d/%d",
			p.HighTierBoundary, p.MidTierBoundary, p.LowTierBoundary)
	}
	if p.HighTierBoundary > MaxScore {
		return fmt.Errorf("high tier boundary %d exceeds max score %d", p.HighTierBoundary, MaxScore)
	}
	if p.MidTierRateFloor.IsNegative() || p.LowTierRateFloor.IsNegative() {
		return fmt.Errorf("rate floors cannot be negative")
	}
	if p.MinTenureMonths < 1 || p.MaxTenureMonths < p.MinTenureMonths {
		return fmt.Errorf("invalid tenure bounds %d..%d", p.MinTenureMonths, p.MaxTenureMonths)
	}
	if !p.MinLoanAmount.IsPositive() || p.MaxLoanAmount.LessThan(p.MinLoanAmount) {
		return fmt.Errorf("invalid loan amount bounds %s..%s", p.MinLoanAmount, p.MaxLoanAmount)
	}
	if !p.MaxInterestRate.IsPositive() {
		return fmt.Errorf("max interest rate must be positive, got %s", p.MaxInterestRate)
	}
	return nil
}

// ApprovedLimit is salary × multiplier rounded to the nearest rounding unit.
// Exact halves go to the even multiple.
func (p Policy) ApprovedLimit(monthlySalary decimal.Decimal) decimal.Decimal {
	raw := monthlySalary.Mul(p.ApprovedLimitMultiplier)
	return raw.Div(p.LimitRoundingUnit).RoundBank(0).Mul(p.LimitRoundingUnit)
}

// rateFloor returns the minimum rate for the tier the score falls in. ok is
// false when the score is too low to lend at all.
func (p Policy) rateFloor(score int) (floor decimal.Decimal, ok bool) {
	switch {
	case score > p.HighTierBoundary:
		return decimal.Zero, true
	case score > p.MidTierBoundary:
		return p.MidTierRateFloor, true
	case score > p.LowTierBoundary:
		return p.LowTierRateFloor, true
	default:
		return decimal.Zero, false
	}
}
