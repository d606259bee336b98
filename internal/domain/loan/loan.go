package loan

import (
	"fmt"
	"time"

	"credit-approval/internal/domain/credit"
	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type Loan struct {
	LoanID           int64
	CustomerID       int64
	LoanAmount       decimal.Decimal
	TenureMonths     int
	InterestRate     decimal.Decimal
	MonthlyRepayment decimal.Decimal
	EMIsPaidOnTime   int
	DateOfApproval   time.Time
	EndDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewApprovedLoan builds the loan row for an approved decision. The stored
// rate is the corrected rate and the installment is the decision's EMI.
func NewApprovedLoan(customerID int64, req credit.LoanRequest, decision credit.Decision, approvedOn time.Time) (*Loan, error) {
	if !decision.Approved {
		return nil, fmt.Errorf("%w: cannot create a loan from a rejected decision (%s)", apperrors.ErrInvalidArgument, decision.Reason)
	}
	if req.TenureMonths <= 0 {
		return nil, fmt.Errorf("%w: tenure must be positive", apperrors.ErrInvalidArgument)
	}

	approvedOn = truncateToDate(approvedOn)
	now := time.Now()
	return &Loan{
		CustomerID:       customerID,
		LoanAmount:       req.Amount,
		TenureMonths:     req.TenureMonths,
		InterestRate:     decision.CorrectedRate,
		MonthlyRepayment: decision.EMI,
		EMIsPaidOnTime:   0,
		DateOfApproval:   approvedOn,
		EndDate:          approvedOn.AddDate(0, req.TenureMonths, 0),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (l *Loan) IsActive() bool {
	return l.EMIsPaidOnTime < l.TenureMonths
}

func (l *Loan) RemainingEMIs() int {
	return max(0, l.TenureMonths-l.EMIsPaidOnTime)
}

func (l *Loan) RemainingAmount() decimal.Decimal {
	return l.MonthlyRepayment.Mul(decimal.NewFromInt(int64(l.RemainingEMIs())))
}

// ClampPaidEMIs caps the on-time count at the tenure. Imported rows sometimes
// report more paid installments than the loan has.
func (l *Loan) ClampPaidEMIs() {
	if l.EMIsPaidOnTime > l.TenureMonths {
		l.EMIsPaidOnTime = l.TenureMonths
	}
	if l.EMIsPaidOnTime < 0 {
		l.EMIsPaidOnTime = 0
	}
}

func (l *Loan) Record() credit.LoanRecord {
	return credit.LoanRecord{
		Amount:           l.LoanAmount,
		TenureMonths:     l.TenureMonths,
		InterestRate:     l.InterestRate,
		EMIsPaidOnTime:   min(l.EMIsPaidOnTime, l.TenureMonths),
		StartDate:        l.DateOfApproval,
		Active:           l.IsActive(),
		MonthlyRepayment: l.MonthlyRepayment,
	}
}

func Records(loans []*Loan) []credit.LoanRecord {
	records := make([]credit.LoanRecord, 0, len(loans))
	for _, l := range loans {
		if l == nil {
			continue
		}
		records = append(records, l.Record())
	}
	return records
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
