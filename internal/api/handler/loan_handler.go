package handler

import (
	"log/slog"
	"net/http"

	"credit-approval/internal/api/handler/dto"
	"credit-approval/internal/domain/loan"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

// CheckEligibility handles POST /check-eligibility
// @Summary Check loan eligibility
// @Description Scores the customer and returns the approval decision, corrected interest rate and monthly installment without creating a loan.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanApplicationRequest true "Loan application"
// @Success 200 {object} dto.EligibilityResponse "Eligibility decision"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount, tenure or interest rate"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /check-eligibility [post]
// @Security BearerAuth
func (h *LoanHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	var req dto.LoanApplicationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid eligibility request", slog.Any("error", err))
		respondError(w, err)
		return
	}

	result, err := h.service.CheckEligibility(r.Context(), req.ToDomain())
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Eligibility check failed", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewEligibilityResponse(result))
}

// CreateLoan handles POST /create-loan
// @Summary Create a loan
// @Description Evaluates eligibility and, when approved, stores the loan and updates the customer's current debt atomically. A rejection returns 200 with a null loan_id.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanApplicationRequest true "Loan application"
// @Success 201 {object} dto.CreateLoanResponse "Loan approved and created"
// @Success 200 {object} dto.CreateLoanResponse "Loan rejected"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount, tenure or interest rate"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /create-loan [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.LoanApplicationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid create loan request", slog.Any("error", err))
		respondError(w, err)
		return
	}

	result, err := h.service.CreateLoan(r.Context(), req.ToDomain())
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Loan creation failed", slog.Any("error", err))
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if result.Loan != nil {
		status = http.StatusCreated
	}
	respondJSON(w, status, dto.NewCreateLoanResponse(result))
}

// ViewLoan handles GET /view-loan/{loanID}
// @Summary View a loan
// @Description Returns a loan with its customer and repayment progress.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID" Minimum(1)
// @Success 200 {object} dto.LoanDetailResponse "Loan details"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /view-loan/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) ViewLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}

	details, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Failed to get loan", slog.Int64("loanID", loanID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanDetailResponse(details))
}

// ViewCustomerLoans handles GET /view-loans/{customerID}
// @Summary View a customer's loans
// @Description Lists every loan of a customer with the number of repayments left.
// @Tags Loans
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {array} dto.LoanItemResponse "Customer loans"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /view-loans/{customerID} [get]
// @Security BearerAuth
func (h *LoanHandler) ViewCustomerLoans(w http.ResponseWriter, r *http.Request) {
	customerID, err := idFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}

	loans, err := h.service.ListCustomerLoans(r.Context(), customerID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Failed to list customer loans", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanItemResponses(loans))
}
