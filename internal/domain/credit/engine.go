package credit

import (
	"fmt"
	"time"

	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	MinScore = 0
	MaxScore = 100

	paymentHistoryWeight   = 40
	loanCountWeight        = 20
	loanCountPenalty       = 2
	currentYearWeight      = 20
	currentYearLoanPenalty = 4
	utilizationWeight      = 20
)

type ReasonCode string

const (
	ReasonLowScore              ReasonCode = "LOW_SCORE"
	ReasonOverLimit             ReasonCode = "OVER_LIMIT"
	ReasonEMIExceedsSalaryRatio ReasonCode = "EMI_EXCEEDS_SALARY_RATIO"
)

func (r ReasonCode) Message() string {
	switch r {
	case ReasonLowScore:
		return "Loan not approved due to low credit score"
	case ReasonOverLimit:
		return "Loan not approved as current debt exceeds the approved limit"
	case ReasonEMIExceedsSalaryRatio:
		return "Loan not approved as total EMIs would exceed the allowed share of monthly salary"
	default:
		return ""
	}
}

// CustomerSnapshot is the read-only view of a customer the engine needs.
type CustomerSnapshot struct {
	MonthlySalary decimal.Decimal
	ApprovedLimit decimal.Decimal
	CurrentDebt   decimal.Decimal
}

// LoanRecord is one historical loan. MonthlyRepayment may be zero when the
// installment was never stored; it is then recomputed from the loan terms.
type LoanRecord struct {
	Amount           decimal.Decimal
	TenureMonths     int
	InterestRate     decimal.Decimal
	EMIsPaidOnTime   int
	StartDate        time.Time
	Active           bool
	MonthlyRepayment decimal.Decimal
}

type LoanRequest struct {
	Amount       decimal.Decimal
	TenureMonths int
	InterestRate decimal.Decimal
}

type Decision struct {
	Score         int
	Approved      bool
	RequestedRate decimal.Decimal
	CorrectedRate decimal.Decimal
	// EMI is zero unless the loan is approved.
	EMI decimal.Decimal
	// PreviewEMI is the installment at the corrected rate whenever the
	// request cleared the score tiers, approved or not.
	PreviewEMI decimal.Decimal
	Reason     ReasonCode
}

// Engine binds a Policy and a clock so callers do not pass them around.
type Engine struct {
	policy Policy
	now    func() time.Time
}

func NewEngine(policy Policy) *Engine {
	return NewEngineWithClock(policy, time.Now)
}

func NewEngineWithClock(policy Policy, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{policy: policy, now: now}
}

func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) Policy() Policy {
	return e.policy
}

func (e *Engine) Score(customer CustomerSnapshot, loans []LoanRecord) int {
	return ComputeCreditScore(customer, loans, e.now())
}

func (e *Engine) Evaluate(customer CustomerSnapshot, loans []LoanRecord, req LoanRequest) (Decision, error) {
	return EvaluateEligibility(e.policy, customer, loans, req, e.now())
}

func (e *Engine) ApprovedLimit(monthlySalary decimal.Decimal) decimal.Decimal {
	return e.policy.ApprovedLimit(monthlySalary)
}

// ComputeCreditScore scores a customer on a 0..100 scale from four parts:
// payment history (40), number of loans (20), loans started in the year of
// asOf (20) and limit utilization (20). A customer whose debt exceeds the
// approved limit always scores 0.
func ComputeCreditScore(customer CustomerSnapshot, loans []LoanRecord, asOf time.Time) int {
	if isOverLimit(customer) {
		return MinScore
	}

	total := paymentHistoryComponent(loans).
		Add(decimal.NewFromInt(int64(loanCountComponent(loans)))).
		Add(decimal.NewFromInt(int64(currentYearComponent(loans, asOf)))).
		Add(utilizationComponent(customer))

	return clampScore(int(total.IntPart()))
}

// EvaluateEligibility decides a loan request. Business rejections come back as
// a Decision with Approved=false and a Reason; only malformed requests are
// returned as errors.
func EvaluateEligibility(policy Policy, customer CustomerSnapshot, loans []LoanRecord, req LoanRequest, asOf time.Time) (Decision, error) {
	if err := validateRequest(policy, req); err != nil {
		return Decision{}, err
	}

	score := ComputeCreditScore(customer, loans, asOf)
	decision := Decision{
		Score:         score,
		RequestedRate: req.InterestRate,
		CorrectedRate: req.InterestRate,
		EMI:           decimal.Zero,
		PreviewEMI:    decimal.Zero,
	}

	if isOverLimit(customer) {
		decision.Reason = ReasonOverLimit
		return decision, nil
	}

	floor, ok := policy.rateFloor(score)
	if !ok {
		decision.Reason = ReasonLowScore
		return decision, nil
	}
	decision.CorrectedRate = decimal.Max(req.InterestRate, floor)

	emi := CalculateEMI(req.Amount, decision.CorrectedRate, req.TenureMonths)
	decision.PreviewEMI = emi

	if !withinSalaryRatio(policy, customer, loans, emi) {
		decision.Reason = ReasonEMIExceedsSalaryRatio
		return decision, nil
	}

	decision.Approved = true
	decision.EMI = emi
	return decision, nil
}

// ActiveMonthlyObligation sums the installments of the active loans.
func ActiveMonthlyObligation(loans []LoanRecord) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range loans {
		if !l.Active {
			continue
		}
		sum = sum.Add(l.installment())
	}
	return sum
}

func (l LoanRecord) installment() decimal.Decimal {
	if l.MonthlyRepayment.IsPositive() {
		return l.MonthlyRepayment
	}
	return CalculateEMI(l.Amount, l.InterestRate, l.TenureMonths)
}

func validateRequest(policy Policy, req LoanRequest) error {
	if !req.Amount.IsPositive() {
		return apperrors.NewValidationError("loan_amount", "must be greater than zero")
	}
	if req.Amount.LessThan(policy.MinLoanAmount) || req.Amount.GreaterThan(policy.MaxLoanAmount) {
		return apperrors.NewValidationError("loan_amount", fmt.Sprintf("must be between %s and %s",
			policy.MinLoanAmount.StringFixed(cents), policy.MaxLoanAmount.StringFixed(cents)))
	}
	if !hasAtMostCents(req.Amount) {
		return apperrors.NewValidationError("loan_amount", "cannot have more than 2 decimal places")
	}
	if req.TenureMonths < policy.MinTenureMonths || req.TenureMonths > policy.MaxTenureMonths {
		return apperrors.NewValidationError("tenure", fmt.Sprintf("must be between %d and %d months", policy.MinTenureMonths, policy.MaxTenureMonths))
	}
	if req.InterestRate.IsNegative() {
		return apperrors.NewValidationError("interest_rate", "cannot be negative")
	}
	if req.InterestRate.GreaterThan(policy.MaxInterestRate) {
		return apperrors.NewValidationError("interest_rate", fmt.Sprintf("cannot exceed %s", policy.MaxInterestRate))
	}
	if !hasAtMostCents(req.InterestRate) {
		return apperrors.NewValidationError("interest_rate", "cannot have more than 2 decimal places")
	}
	return nil
}

// hasAtMostCents reports whether d fits a NUMERIC(_, 2) column unchanged.
func hasAtMostCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(cents))
}

func withinSalaryRatio(policy Policy, customer CustomerSnapshot, loans []LoanRecord, newEMI decimal.Decimal) bool {
	if !customer.MonthlySalary.IsPositive() {
		return false
	}
	ceiling := customer.MonthlySalary.Mul(policy.MaxEMIToSalaryRatio)
	return ActiveMonthlyObligation(loans).Add(newEMI).LessThanOrEqual(ceiling)
}

func isOverLimit(customer CustomerSnapshot) bool {
	return customer.CurrentDebt.GreaterThan(customer.ApprovedLimit)
}

func paymentHistoryComponent(loans []LoanRecord) decimal.Decimal {
	var paid, tenure int64
	for _, l := range loans {
		paid += int64(min(l.EMIsPaidOnTime, l.TenureMonths))
		tenure += int64(l.TenureMonths)
	}
	weight := decimal.NewFromInt(paymentHistoryWeight)
	if tenure <= 0 {
		return weight
	}
	return decimal.NewFromInt(paid).Mul(weight).Div(decimal.NewFromInt(tenure))
}

func loanCountComponent(loans []LoanRecord) int {
	return max(0, loanCountWeight-loanCountPenalty*len(loans))
}

func currentYearComponent(loans []LoanRecord, asOf time.Time) int {
	year := asOf.Year()
	count := 0
	for _, l := range loans {
		if !l.StartDate.IsZero() && l.StartDate.Year() == year {
			count++
		}
	}
	return max(0, currentYearWeight-currentYearLoanPenalty*count)
}

func utilizationComponent(customer CustomerSnapshot) decimal.Decimal {
	if !customer.ApprovedLimit.IsPositive() {
		return decimal.Zero
	}
	ratio := customer.CurrentDebt.Div(customer.ApprovedLimit)
	if ratio.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero
	}
	if ratio.IsNegative() {
		ratio = decimal.Zero
	}
	return decimal.NewFromInt(1).Sub(ratio).Mul(decimal.NewFromInt(utilizationWeight))
}

func clampScore(score int) int {
	return max(MinScore, min(MaxScore, score))
}
