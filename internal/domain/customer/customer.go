package customer

import (
	"strings"
	"time"

	"credit-approval/internal/domain/credit"
	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	MinAge = 18
	MaxAge = 120

	minPhoneDigits = 10
	maxPhoneDigits = 15
)

type Customer struct {
	CustomerID    int64           `json:"customerId"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Age           int             `json:"age"`
	PhoneNumber   string          `json:"phoneNumber,omitempty"`
	MonthlySalary decimal.Decimal `json:"monthlySalary"`
	ApprovedLimit decimal.Decimal `json:"approvedLimit"`
	CurrentDebt   decimal.Decimal `json:"currentDebt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func NewCustomer(firstName, lastName string, age int, phone string, salary, approvedLimit decimal.Decimal) *Customer {
	now := time.Now()
	return &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		Age:           age,
		PhoneNumber:   phone,
		MonthlySalary: salary,
		ApprovedLimit: approvedLimit,
		CurrentDebt:   decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c *Customer) Snapshot() credit.CustomerSnapshot {
	return credit.CustomerSnapshot{
		MonthlySalary: c.MonthlySalary,
		ApprovedLimit: c.ApprovedLimit,
		CurrentDebt:   c.CurrentDebt,
	}
}

func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return apperrors.NewValidationError("age", "must be between 18 and 120")
	}
	return nil
}

func ValidateMonthlySalary(salary decimal.Decimal) error {
	if !salary.IsPositive() {
		return apperrors.NewValidationError("monthly_income", "must be greater than zero")
	}
	return nil
}

// NormalizePhoneNumber strips dashes, spaces and a leading plus, then requires
// 10 to 15 digits. An empty input is returned unchanged.
func NormalizePhoneNumber(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	cleaned := strings.NewReplacer("-", "", " ", "", "+", "").Replace(raw)
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", apperrors.NewValidationError("phone_number", "must contain only digits, spaces, dashes or a leading plus")
		}
	}
	if len(cleaned) < minPhoneDigits || len(cleaned) > maxPhoneDigits {
		return "", apperrors.NewValidationError("phone_number", "must have between 10 and 15 digits")
	}
	return cleaned, nil
}
