package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"credit-approval/internal/domain/credit"
	"credit-approval/internal/event"
	"credit-approval/internal/infrastructure/monitoring"
	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const customerNotFound = "Customer not found by repository"

type RegistrationInput struct {
	FirstName     string
	LastName      string
	Age           int
	MonthlyIncome decimal.Decimal
	PhoneNumber   string
}

type CustomerService interface {
	RegisterCustomer(ctx context.Context, input RegistrationInput) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	ListCustomers(ctx context.Context) ([]*Customer, error)
	ListCustomerIDs(ctx context.Context) ([]int64, error)
	RecalculateDebt(ctx context.Context, customerID int64) (decimal.Decimal, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.Publisher
	policy credit.Policy
	logger *slog.Logger
}

// NewCustomerService builds the service. pub may be nil, in which case no
// events are emitted.
func NewCustomerService(repo CustomerRepository, pub event.Publisher, policy credit.Policy, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if pub == nil {
		logger.Warn("No event publisher provided to NewCustomerService, customer events are disabled")
	}

	return &customerService{
		repo:   repo,
		pub:    pub,
		policy: policy,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func NewRegisteredPayload(cust *Customer) event.CustomerRegisteredPayload {
	if cust == nil {
		return event.CustomerRegisteredPayload{}
	}
	return event.CustomerRegisteredPayload{
		CustomerID:    cust.CustomerID,
		FirstName:     cust.FirstName,
		LastName:      cust.LastName,
		Age:           cust.Age,
		PhoneNumber:   cust.PhoneNumber,
		MonthlySalary: cust.MonthlySalary.StringFixed(2),
		ApprovedLimit: cust.ApprovedLimit.StringFixed(2),
	}
}

func (s *customerService) RegisterCustomer(ctx context.Context, input RegistrationInput) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to register new customer")

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" {
		s.logger.WarnContext(ctx, "Validation failed: first name is empty")
		return nil, apperrors.NewValidationError("first_name", "cannot be empty")
	}
	if lastName == "" {
		s.logger.WarnContext(ctx, "Validation failed: last name is empty")
		return nil, apperrors.NewValidationError("last_name", "cannot be empty")
	}
	if err := ValidateAge(input.Age); err != nil {
		s.logger.WarnContext(ctx, "Validation failed: age out of range", slog.Int("age", input.Age))
		return nil, err
	}
	if err := ValidateMonthlySalary(input.MonthlyIncome); err != nil {
		s.logger.WarnContext(ctx, "Validation failed: monthly income", slog.String("monthlyIncome", input.MonthlyIncome.String()))
		return nil, err
	}
	phone, err := NormalizePhoneNumber(input.PhoneNumber)
	if err != nil {
		s.logger.WarnContext(ctx, "Validation failed: phone number", slog.Any("error", err))
		return nil, err
	}

	if phone != "" {
		existing, err := s.repo.FindByPhone(ctx, phone)
		switch {
		case err == nil && existing != nil:
			s.logger.WarnContext(ctx, "Phone number already registered", slog.Int64("existingCustomerID", existing.CustomerID))
			return nil, ErrPhoneAlreadyRegistered
		case err != nil && !errors.Is(err, apperrors.ErrNotFound):
			s.logger.ErrorContext(ctx, "Repository error checking phone number", slog.Any("error", err))
			return nil, fmt.Errorf("failed to check phone number: %w", err)
		}
	}

	approvedLimit := s.policy.ApprovedLimit(input.MonthlyIncome)
	cust := NewCustomer(firstName, lastName, input.Age, phone, input.MonthlyIncome, approvedLimit)

	if err := s.repo.Create(ctx, cust); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "Customer rejected by unique constraint", slog.Any("error", err))
			return nil, fmt.Errorf("%w: %w", ErrPhoneAlreadyRegistered, err)
		}
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	logCtx := s.logger.With(slog.Int64("customerID", cust.CustomerID))
	monitoring.RecordCustomerRegistered()
	logCtx.InfoContext(ctx, "Customer registered", slog.String("approvedLimit", approvedLimit.String()))

	if s.pub != nil {
		if pubErr := s.pub.PublishCustomerRegistered(ctx, NewRegisteredPayload(cust)); pubErr != nil {
			logCtx.ErrorContext(ctx, "Customer registered, but FAILED to publish registration event", slog.Any("error", pubErr))
		}
	}

	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.DebugContext(ctx, "Attempting to get customer by ID")

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, customerNotFound)
			return nil, fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
		}
		logCtx.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	return cust, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	s.logger.DebugContext(ctx, "Retrieved customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) ListCustomerIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customer IDs", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customer IDs: %w", err)
	}
	return ids, nil
}

// RecalculateDebt sets current_debt to the outstanding balance of the
// customer's active loans and returns the new figure.
func (s *customerService) RecalculateDebt(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))

	debt, err := s.repo.RecalculateCurrentDebt(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, customerNotFound)
			return decimal.Zero, fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
		}
		logCtx.ErrorContext(ctx, "Failed to recalculate current debt", slog.Any("error", err))
		return decimal.Zero, fmt.Errorf("failed to recalculate debt for customer %d: %w", customerID, err)
	}

	logCtx.DebugContext(ctx, "Current debt recalculated", slog.String("currentDebt", debt.String()))
	return debt, nil
}
