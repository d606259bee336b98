package loan

import (
	"testing"
	"time"

	"credit-approval/internal/domain/credit"
	"credit-approval/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApprovedLoan(t *testing.T) {
	req := credit.LoanRequest{Amount: dec("100000"), TenureMonths: 12, InterestRate: dec("8")}
	decision := credit.Decision{Approved: true, CorrectedRate: dec("12"), EMI: dec("8884.88")}
	approvedOn := time.Date(2026, time.January, 31, 9, 0, 0, 0, time.UTC)

	l, err := NewApprovedLoan(5, req, decision, approvedOn)

	require.NoError(t, err)
	assert.Equal(t, int64(5), l.CustomerID)
	assert.True(t, l.InterestRate.Equal(dec("12")))
	assert.True(t, l.MonthlyRepayment.Equal(dec("8884.88")))
	assert.Equal(t, time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC), l.DateOfApproval)
	assert.Equal(t, time.Date(2027, time.January, 31, 0, 0, 0, 0, time.UTC), l.EndDate)
	assert.True(t, l.IsActive())
}

func TestNewApprovedLoan_RejectedDecision(t *testing.T) {
	req := credit.LoanRequest{Amount: dec("100000"), TenureMonths: 12, InterestRate: dec("8")}

	_, err := NewApprovedLoan(5, req, credit.Decision{Reason: credit.ReasonLowScore}, time.Now())

	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestLoanDerivedValues(t *testing.T) {
	l := &Loan{TenureMonths: 24, EMIsPaidOnTime: 20, MonthlyRepayment: dec("9275.21")}

	assert.True(t, l.IsActive())
	assert.Equal(t, 4, l.RemainingEMIs())
	assert.Equal(t, "37100.84", l.RemainingAmount().StringFixed(2))

	l.EMIsPaidOnTime = 30
	assert.False(t, l.IsActive())
	assert.Equal(t, 0, l.RemainingEMIs())
	assert.True(t, l.RemainingAmount().IsZero())

	l.ClampPaidEMIs()
	assert.Equal(t, 24, l.EMIsPaidOnTime)
}

func TestRecords(t *testing.T) {
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	loans := []*Loan{
		{LoanAmount: dec("1000"), TenureMonths: 6, EMIsPaidOnTime: 9, DateOfApproval: start},
		nil,
		{LoanAmount: dec("2000"), TenureMonths: 12, EMIsPaidOnTime: 2, DateOfApproval: start},
	}

	records := Records(loans)

	require.Len(t, records, 2)
	assert.Equal(t, 6, records[0].EMIsPaidOnTime)
	assert.False(t, records[0].Active)
	assert.True(t, records[1].Active)
	assert.Equal(t, start, records[1].StartDate)
}
