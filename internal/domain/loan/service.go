package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-approval/internal/domain/credit"
	"credit-approval/internal/domain/customer"
	"credit-approval/internal/event"
	"credit-approval/internal/infrastructure/monitoring"
	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type Request struct {
	CustomerID   int64
	LoanAmount   decimal.Decimal
	InterestRate decimal.Decimal
	TenureMonths int
}

func (r Request) creditRequest() credit.LoanRequest {
	return credit.LoanRequest{
		Amount:       r.LoanAmount,
		TenureMonths: r.TenureMonths,
		InterestRate: r.InterestRate,
	}
}

type EligibilityResult struct {
	CustomerID   int64
	TenureMonths int
	Decision     credit.Decision
}

// CreationResult carries the decision of a create-loan call. Loan is nil
// when the request was rejected.
type CreationResult struct {
	CustomerID  int64
	Loan        *Loan
	Decision    credit.Decision
	CurrentDebt decimal.Decimal
}

func (r *CreationResult) Message() string {
	if r.Loan != nil {
		return "Loan approved"
	}
	return r.Decision.Reason.Message()
}

type Details struct {
	Loan     *Loan
	Customer *customer.Customer
}

type LoanService interface {
	CheckEligibility(ctx context.Context, req Request) (*EligibilityResult, error)

	CreateLoan(ctx context.Context, req Request) (*CreationResult, error)

	GetLoan(ctx context.Context, loanID int64) (*Details, error)

	ListCustomerLoans(ctx context.Context, customerID int64) ([]*Loan, error)
}

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	engine          *credit.Engine
	pub             event.Publisher
	logger          *slog.Logger
}

func NewLoanService(r Repository, cs customer.CustomerService, engine *credit.Engine, pub event.Publisher, logger *slog.Logger) LoanService {
	return &loanServiceImpl{
		repo:            r,
		customerService: cs,
		engine:          engine,
		pub:             pub,
		logger:          logger.With(slog.String("component", "loanService")),
	}
}

func (s *loanServiceImpl) CheckEligibility(ctx context.Context, req Request) (*EligibilityResult, error) {
	logCtx := s.logger.With(slog.Int64("customerID", req.CustomerID))
	logCtx.InfoContext(ctx, "Checking loan eligibility")

	cust, err := s.customerService.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	loans, err := s.repo.ListByCustomer(ctx, req.CustomerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to load customer loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load loans for customer %d: %w", req.CustomerID, err)
	}

	decision, err := s.engine.Evaluate(cust.Snapshot(), Records(loans), req.creditRequest())
	if err != nil {
		logCtx.WarnContext(ctx, "Eligibility request rejected by validation", slog.Any("error", err))
		return nil, err
	}

	monitoring.RecordCreditDecision(decision.Approved, string(decision.Reason), decision.Score)
	logCtx.InfoContext(ctx, "Eligibility evaluated",
		slog.Int("creditScore", decision.Score),
		slog.Bool("approved", decision.Approved),
		slog.String("reason", string(decision.Reason)),
	)

	return &EligibilityResult{
		CustomerID:   req.CustomerID,
		TenureMonths: req.TenureMonths,
		Decision:     decision,
	}, nil
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, req Request) (result *CreationResult, err error) {
	logCtx := s.logger.With(slog.Int64("customerID", req.CustomerID))
	logCtx.InfoContext(ctx, "Creating new loan")

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrInternalServer, err)
	}

	committed := false
	defer func() {
		if p := recover(); p != nil {
			logCtx.ErrorContext(ctx, "Panic occurred during loan creation", slog.Any("panic", p))
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		}
		if !committed {
			if err != nil {
				logCtx.WarnContext(ctx, "Rolling back loan creation", slog.Any("error", err))
			}
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	cust, err := s.repo.LockCustomerForUpdate(ctx, tx, req.CustomerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, req.CustomerID)
		}
		return nil, fmt.Errorf("failed to lock customer %d: %w", req.CustomerID, err)
	}

	existing, err := s.repo.ListByCustomerInTx(ctx, tx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans for customer %d: %w", req.CustomerID, err)
	}

	decision, err := s.engine.Evaluate(cust.Snapshot(), Records(existing), req.creditRequest())
	if err != nil {
		return nil, err
	}
	monitoring.RecordCreditDecision(decision.Approved, string(decision.Reason), decision.Score)

	if !decision.Approved {
		logCtx.InfoContext(ctx, "Loan request rejected",
			slog.Int("creditScore", decision.Score),
			slog.String("reason", string(decision.Reason)),
		)
		return &CreationResult{CustomerID: req.CustomerID, Decision: decision, CurrentDebt: cust.CurrentDebt}, nil
	}

	loan, err := NewApprovedLoan(req.CustomerID, req.creditRequest(), decision, s.engine.Now())
	if err != nil {
		return nil, err
	}

	if err = s.repo.InsertLoanInTx(ctx, tx, loan); err != nil {
		return nil, fmt.Errorf("failed to insert loan: %w", err)
	}

	debt, err := s.repo.RefreshCustomerDebtInTx(ctx, tx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh current debt: %w", err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		logCtx.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrInternalServer, err)
	}
	committed = true

	monitoring.RecordLoanCreated()
	logCtx.InfoContext(ctx, "Loan created successfully",
		slog.Int64("loanID", loan.LoanID),
		slog.String("monthlyInstallment", loan.MonthlyRepayment.StringFixed(2)),
		slog.String("currentDebt", debt.StringFixed(2)),
	)

	s.publishLoanCreated(ctx, loan, decision.Score, debt)

	return &CreationResult{CustomerID: req.CustomerID, Loan: loan, Decision: decision, CurrentDebt: debt}, nil
}

func (s *loanServiceImpl) publishLoanCreated(ctx context.Context, l *Loan, score int, debt decimal.Decimal) {
	if s.pub == nil {
		return
	}
	payload := event.LoanCreatedPayload{
		LoanID:             l.LoanID,
		CustomerID:         l.CustomerID,
		LoanAmount:         l.LoanAmount.StringFixed(2),
		InterestRate:       l.InterestRate.String(),
		TenureMonths:       l.TenureMonths,
		MonthlyInstallment: l.MonthlyRepayment.StringFixed(2),
		CreditScore:        score,
		DateOfApproval:     l.DateOfApproval.Format(time.DateOnly),
		CurrentDebt:        debt.StringFixed(2),
	}
	if err := s.pub.PublishLoanCreated(ctx, payload); err != nil {
		s.logger.ErrorContext(ctx, "Loan created, but FAILED to publish loan event",
			slog.Int64("loanID", l.LoanID), slog.Any("error", err))
	}
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Details, error) {
	s.logger.DebugContext(ctx, "Getting loan details", slog.Int64("loanID", loanID))

	loan, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", slog.Int64("loanID", loanID))
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", slog.Int64("loanID", loanID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get loan %d: %w", apperrors.ErrInternalServer, loanID, err)
	}

	cust, err := s.customerService.GetCustomer(ctx, loan.CustomerID)
	if err != nil {
		return nil, err
	}

	return &Details{Loan: loan, Customer: cust}, nil
}

func (s *loanServiceImpl) ListCustomerLoans(ctx context.Context, customerID int64) ([]*Loan, error) {
	if _, err := s.customerService.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	loans, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list customer loans", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list loans for customer %d: %w", apperrors.ErrInternalServer, customerID, err)
	}
	return loans, nil
}
