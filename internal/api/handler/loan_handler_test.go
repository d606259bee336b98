package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"credit-approval/internal/api/handler"
	"credit-approval/internal/api/handler/dto"
	"credit-approval/internal/domain/credit"
	"credit-approval/internal/domain/customer"
	"credit-approval/internal/domain/loan"
	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const loanApplicationBody = `{"customer_id":7,"loan_amount":200000,"interest_rate":10.5,"tenure":24}`

func matchesApplication(req loan.Request) bool {
	return req.CustomerID == 7 &&
		req.TenureMonths == 24 &&
		req.LoanAmount.Equal(decimal.NewFromInt(200000)) &&
		req.InterestRate.Equal(decimal.RequireFromString("10.5"))
}

func approvedLoan() *loan.Loan {
	approved := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	return &loan.Loan{
		LoanID:           11,
		CustomerID:       7,
		LoanAmount:       decimal.NewFromInt(200000),
		TenureMonths:     24,
		InterestRate:     decimal.RequireFromString("10.5"),
		MonthlyRepayment: decimal.RequireFromString("9275.21"),
		EMIsPaidOnTime:   3,
		DateOfApproval:   approved,
		EndDate:          approved.AddDate(0, 24, 0),
	}
}

func TestCheckEligibility(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewLoanHandler(mockService, testLogger)
		mockService.On("CheckEligibility", mock.Anything, mock.MatchedBy(matchesApplication)).Return(&loan.EligibilityResult{
			CustomerID:   7,
			TenureMonths: 24,
			Decision: credit.Decision{
				Score:         100,
				Approved:      true,
				RequestedRate: decimal.RequireFromString("10.5"),
				CorrectedRate: decimal.RequireFromString("10.5"),
				EMI:           decimal.RequireFromString("9275.21"),
				PreviewEMI:    decimal.RequireFromString("9275.21"),
			},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/check-eligibility", bytes.NewBufferString(loanApplicationBody))
		rec := httptest.NewRecorder()
		h.CheckEligibility(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.EligibilityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Approval)
		assert.Equal(t, "10.50", resp.CorrectedInterestRate)
		assert.Equal(t, "9275.21", resp.MonthlyInstallment)
		assert.Equal(t, 100, resp.CreditScore)
		assert.Empty(t, resp.Reason)
		mockService.AssertExpectations(t)
	})

	t.Run("salary ratio rejection shows preview installment", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewLoanHandler(mockService, testLogger)
		mockService.On("CheckEligibility", mock.Anything, mock.Anything).Return(&loan.EligibilityResult{
			CustomerID:   7,
			TenureMonths: 24,
			Decision: credit.Decision{
				Score:         63,
				RequestedRate: decimal.RequireFromString("10.5"),
				CorrectedRate: decimal.RequireFromString("10.5"),
				PreviewEMI:    decimal.RequireFromString("9275.21"),
				Reason:        credit.ReasonEMIExceedsSalaryRatio,
			},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/check-eligibility", bytes.NewBufferString(loanApplicationBody))
		rec := httptest.NewRecorder()
		h.CheckEligibility(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.EligibilityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Approval)
		assert.Equal(t, "9275.21", resp.MonthlyInstallment)
		assert.Equal(t, string(credit.ReasonEMIExceedsSalaryRatio), resp.Reason)
	})

	t.Run("missing customer id", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewLoanHandler(mockService, testLogger)

		req := httptest.NewRequest(http.MethodPost, "/check-eligibility",
			bytes.NewBufferString(`{"loan_amount":1000,"interest_rate":10,"tenure":12}`))
		rec := httptest.NewRecorder()
		h.CheckEligibility(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "customer_id", decodeError(t, rec).Field)
		mockService.AssertNotCalled(t, "CheckEligibility")
	})

	t.Run("invalid rate from engine", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewLoanHandler(mockService, testLogger)
		mockService.On("CheckEligibility", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewValidationError("interest_rate", "must be greater than 0")).Once()

		req := httptest.NewRequest(http.MethodPost, "/check-eligibility", bytes.NewBufferString(loanApplicationBody))
		rec := httptest.NewRecorder()
		h.CheckEligibility(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "interest_rate", decodeError(t, rec).Field)
	})

	t.Run("unknown customer", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewLoanHandler(mockService, testLogger)
		mockService.On("CheckEligibility", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: customer 7 not found", apperrors.ErrNotFound)).Once()

		req := httptest.NewRequest(http.MethodPost, "/check-eligibility", bytes.NewBufferString(loanApplicationBody))
		rec := httptest.NewRecorder()
		h.CheckEligibility(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateLoan(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewLoanHandler(mockService, testLogger)
		mockService.On("CreateLoan", mock.Anything, mock.MatchedBy(matchesApplication)).Return(&loan.CreationResult{
			CustomerID:  7,
			Loan:        approvedLoan(),
			Decision:    credit.Decision{Approved: true, Score: 100},
			CurrentDebt: decimal.RequireFromString("222605.04"),
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/create-loan", bytes.NewBufferString(loanApplicationBody))
		rec := httptest.NewRecorder()
		h.CreateLoan(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.CreateLoanResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.LoanID)
		assert.Equal(t, int64(11), *resp.LoanID)
		assert.True(t, resp.LoanApproved)
		assert.Equal(t, "Loan approved", resp.Message)
		assert.Equal(t, "9275.21", resp.MonthlyInstallment)
		mockService.AssertExpectations(t)
	})

	t.Run("rejected", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewLoanHandler(mockService, testLogger)
		mockService.On("CreateLoan", mock.Anything, mock.Anything).Return(&loan.CreationResult{
			CustomerID: 7,
			Decision:   credit.Decision{Reason: credit.ReasonOverLimit},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/create-loan", bytes.NewBufferString(loanApplicationBody))
		rec := httptest.NewRecorder()
		h.CreateLoan(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"loan_id":null,"customer_id":7,"loan_approved":false,"message":%q,"monthly_installment":"0.00"}`,
			credit.ReasonOverLimit.Message()), rec.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewLoanHandler(mockService, testLogger)

		req := httptest.NewRequest(http.MethodPost, "/create-loan", bytes.NewBufferString(`{"customer_id":`))
		rec := httptest.NewRecorder()
		h.CreateLoan(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateLoan")
	})

	t.Run("internal failure", func(t *testing.T) {
		mockService := new(MockLoanService)
		h := handler.NewLoanHandler(mockService, testLogger)
		mockService.On("CreateLoan", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: commit failed", apperrors.ErrInternalServer)).Once()

		req := httptest.NewRequest(http.MethodPost, "/create-loan", bytes.NewBufferString(loanApplicationBody))
		rec := httptest.NewRecorder()
		h.CreateLoan(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestViewLoan(t *testing.T) {
	mockService := new(MockLoanService)
	h := handler.NewLoanHandler(mockService, testLogger)

	t.Run("success", func(t *testing.T) {
		mockService.On("GetLoan", mock.Anything, int64(11)).Return(&loan.Details{
			Loan:     approvedLoan(),
			Customer: &customer.Customer{CustomerID: 7, FirstName: "Asha", LastName: "Rao", Age: 34, PhoneNumber: "9876543210"},
		}, nil).Once()

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/view-loan/11", nil), "loanID", "11")
		rec := httptest.NewRecorder()
		h.ViewLoan(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.LoanDetailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(11), resp.LoanID)
		assert.Equal(t, int64(7), resp.Customer.ID)
		assert.Equal(t, 21, resp.RepaymentsLeft)
		assert.Equal(t, "2026-03-15", resp.DateOfApproval)
		assert.Equal(t, "2028-03-15", resp.EndDate)
	})

	t.Run("not found", func(t *testing.T) {
		mockService.On("GetLoan", mock.Anything, int64(404)).Return(nil, apperrors.ErrNotFound).Once()

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/view-loan/404", nil), "loanID", "404")
		rec := httptest.NewRecorder()
		h.ViewLoan(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-positive id", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/view-loan/0", nil), "loanID", "0")
		rec := httptest.NewRecorder()
		h.ViewLoan(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	mockService.AssertExpectations(t)
}

func TestViewCustomerLoans(t *testing.T) {
	mockService := new(MockLoanService)
	h := handler.NewLoanHandler(mockService, testLogger)

	t.Run("success", func(t *testing.T) {
		paidOff := approvedLoan()
		paidOff.LoanID = 3
		paidOff.EMIsPaidOnTime = 24
		mockService.On("ListCustomerLoans", mock.Anything, int64(7)).Return([]*loan.Loan{paidOff, approvedLoan()}, nil).Once()

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/view-loans/7", nil), "customerID", "7")
		rec := httptest.NewRecorder()
		h.ViewCustomerLoans(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp []dto.LoanItemResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		assert.Equal(t, 0, resp[0].RepaymentsLeft)
		assert.Equal(t, 21, resp[1].RepaymentsLeft)
	})

	t.Run("empty list", func(t *testing.T) {
		mockService.On("ListCustomerLoans", mock.Anything, int64(8)).Return([]*loan.Loan{}, nil).Once()

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/view-loans/8", nil), "customerID", "8")
		rec := httptest.NewRecorder()
		h.ViewCustomerLoans(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("service error", func(t *testing.T) {
		mockService.On("ListCustomerLoans", mock.Anything, int64(9)).Return(nil, errors.New("boom")).Once()

		req := withURLParam(httptest.NewRequest(http.MethodGet, "/view-loans/9", nil), "customerID", "9")
		rec := httptest.NewRecorder()
		h.ViewCustomerLoans(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	mockService.AssertExpectations(t)
}
