package dto

import (
	"credit-approval/internal/domain/customer"
	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type RegisterCustomerRequest struct {
	FirstName     string          `json:"first_name" validate:"required,max=100"`
	LastName      string          `json:"last_name" validate:"required,max=100"`
	Age           int             `json:"age" validate:"required,gte=18,lte=120"`
	MonthlyIncome decimal.Decimal `json:"monthly_income" swaggertype:"number" example:"50000"`
	PhoneNumber   string          `json:"phone_number" validate:"omitempty,max=20" example:"9876543210"`
}

func (r *RegisterCustomerRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if !r.MonthlyIncome.IsPositive() {
		return apperrors.NewValidationError("monthly_income", "must be greater than 0")
	}
	return nil
}

func (r *RegisterCustomerRequest) ToInput() customer.RegistrationInput {
	return customer.RegistrationInput{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Age:           r.Age,
		MonthlyIncome: r.MonthlyIncome,
		PhoneNumber:   r.PhoneNumber,
	}
}

type RegisterCustomerResponse struct {
	CustomerID    int64  `json:"customer_id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	MonthlyIncome string `json:"monthly_income"`
	ApprovedLimit string `json:"approved_limit"`
	PhoneNumber   string `json:"phone_number,omitempty"`
}

func NewRegisterCustomerResponse(cust *customer.Customer) RegisterCustomerResponse {
	if cust == nil {
		return RegisterCustomerResponse{}
	}
	return RegisterCustomerResponse{
		CustomerID:    cust.CustomerID,
		Name:          cust.FullName(),
		Age:           cust.Age,
		MonthlyIncome: cust.MonthlySalary.StringFixed(2),
		ApprovedLimit: cust.ApprovedLimit.StringFixed(2),
		PhoneNumber:   cust.PhoneNumber,
	}
}

type CustomerResponse struct {
	CustomerID    int64  `json:"customer_id"`
	Name          string `json:"name"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Age           int    `json:"age"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	MonthlySalary string `json:"monthly_salary"`
	ApprovedLimit string `json:"approved_limit"`
	CurrentDebt   string `json:"current_debt"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		CustomerID:    cust.CustomerID,
		Name:          cust.FullName(),
		FirstName:     cust.FirstName,
		LastName:      cust.LastName,
		Age:           cust.Age,
		PhoneNumber:   cust.PhoneNumber,
		MonthlySalary: cust.MonthlySalary.StringFixed(2),
		ApprovedLimit: cust.ApprovedLimit.StringFixed(2),
		CurrentDebt:   cust.CurrentDebt.StringFixed(2),
	}
}
