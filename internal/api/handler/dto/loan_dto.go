package dto

import (
	"time"

	"credit-approval/internal/domain/credit"
	"credit-approval/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// LoanApplicationRequest is shared by /check-eligibility and /create-loan.
// Amount, rate and tenure bounds are enforced by the credit engine.
type LoanApplicationRequest struct {
	CustomerID   int64           `json:"customer_id" validate:"required,gt=0" example:"1"`
	LoanAmount   decimal.Decimal `json:"loan_amount" swaggertype:"number" example:"200000"`
	InterestRate decimal.Decimal `json:"interest_rate" swaggertype:"number" example:"10.5"`
	Tenure       int             `json:"tenure" example:"24"`
}

func (r *LoanApplicationRequest) Validate() error {
	return validateStruct(r)
}

func (r *LoanApplicationRequest) ToDomain() loan.Request {
	return loan.Request{
		CustomerID:   r.CustomerID,
		LoanAmount:   r.LoanAmount,
		InterestRate: r.InterestRate,
		TenureMonths: r.Tenure,
	}
}

type EligibilityResponse struct {
	CustomerID            int64  `json:"customer_id"`
	Approval              bool   `json:"approval"`
	InterestRate          string `json:"interest_rate"`
	CorrectedInterestRate string `json:"corrected_interest_rate"`
	Tenure                int    `json:"tenure"`
	MonthlyInstallment    string `json:"monthly_installment"`
	CreditScore           int    `json:"credit_score"`
	Reason                string `json:"reason,omitempty"`
}

func NewEligibilityResponse(res *loan.EligibilityResult) EligibilityResponse {
	d := res.Decision
	installment := d.EMI
	if !d.Approved && d.Reason == credit.ReasonEMIExceedsSalaryRatio {
		installment = d.PreviewEMI
	}
	return EligibilityResponse{
		CustomerID:            res.CustomerID,
		Approval:              d.Approved,
		InterestRate:          d.RequestedRate.StringFixed(2),
		CorrectedInterestRate: d.CorrectedRate.StringFixed(2),
		Tenure:                res.TenureMonths,
		MonthlyInstallment:    installment.StringFixed(2),
		CreditScore:           d.Score,
		Reason:                string(d.Reason),
	}
}

type CreateLoanResponse struct {
	LoanID             *int64 `json:"loan_id"`
	CustomerID         int64  `json:"customer_id"`
	LoanApproved       bool   `json:"loan_approved"`
	Message            string `json:"message"`
	MonthlyInstallment string `json:"monthly_installment"`
}

func NewCreateLoanResponse(res *loan.CreationResult) CreateLoanResponse {
	resp := CreateLoanResponse{
		CustomerID:         res.CustomerID,
		LoanApproved:       res.Loan != nil,
		Message:            res.Message(),
		MonthlyInstallment: decimal.Zero.StringFixed(2),
	}
	if res.Loan != nil {
		id := res.Loan.LoanID
		resp.LoanID = &id
		resp.MonthlyInstallment = res.Loan.MonthlyRepayment.StringFixed(2)
	}
	return resp
}

type LoanCustomer struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Age         int    `json:"age"`
}

type LoanDetailResponse struct {
	LoanID             int64        `json:"loan_id"`
	Customer           LoanCustomer `json:"customer"`
	LoanAmount         string       `json:"loan_amount"`
	InterestRate       string       `json:"interest_rate"`
	MonthlyInstallment string       `json:"monthly_installment"`
	Tenure             int          `json:"tenure"`
	EMIsPaidOnTime     int          `json:"emis_paid_on_time"`
	RepaymentsLeft     int          `json:"repayments_left"`
	DateOfApproval     string       `json:"date_of_approval"`
	EndDate            string       `json:"end_date"`
}

func NewLoanDetailResponse(details *loan.Details) LoanDetailResponse {
	l := details.Loan
	resp := LoanDetailResponse{
		LoanID:             l.LoanID,
		LoanAmount:         l.LoanAmount.StringFixed(2),
		InterestRate:       l.InterestRate.StringFixed(2),
		MonthlyInstallment: l.MonthlyRepayment.StringFixed(2),
		Tenure:             l.TenureMonths,
		EMIsPaidOnTime:     l.EMIsPaidOnTime,
		RepaymentsLeft:     l.RemainingEMIs(),
		DateOfApproval:     formatDate(l.DateOfApproval),
		EndDate:            formatDate(l.EndDate),
	}
	if c := details.Customer; c != nil {
		resp.Customer = LoanCustomer{
			ID:          c.CustomerID,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			PhoneNumber: c.PhoneNumber,
			Age:         c.Age,
		}
	}
	return resp
}

type LoanItemResponse struct {
	LoanID             int64  `json:"loan_id"`
	LoanAmount         string `json:"loan_amount"`
	InterestRate       string `json:"interest_rate"`
	MonthlyInstallment string `json:"monthly_installment"`
	RepaymentsLeft     int    `json:"repayments_left"`
}

func NewLoanItemResponses(loans []*loan.Loan) []LoanItemResponse {
	items := make([]LoanItemResponse, 0, len(loans))
	for _, l := range loans {
		items = append(items, LoanItemResponse{
			LoanID:             l.LoanID,
			LoanAmount:         l.LoanAmount.StringFixed(2),
			InterestRate:       l.InterestRate.StringFixed(2),
			MonthlyInstallment: l.MonthlyRepayment.StringFixed(2),
			RepaymentsLeft:     l.RemainingEMIs(),
		})
	}
	return items
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
