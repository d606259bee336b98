package handler_test

import (
	"context"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/domain/loan"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockCustomerService struct {
	mock.Mock
}

func (_m *MockCustomerService) RegisterCustomer(ctx context.Context, input customer.RegistrationInput) (*customer.Customer, error) {
	ret := _m.Called(ctx, input)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	ret := _m.Called(ctx)

	var r0 []*customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) ListCustomerIDs(ctx context.Context) ([]int64, error) {
	ret := _m.Called(ctx)

	var r0 []int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]int64)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) RecalculateDebt(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	ret := _m.Called(ctx, customerID)
	return ret.Get(0).(decimal.Decimal), ret.Error(1)
}

type MockLoanService struct {
	mock.Mock
}

func (_m *MockLoanService) CheckEligibility(ctx context.Context, req loan.Request) (*loan.EligibilityResult, error) {
	ret := _m.Called(ctx, req)

	var r0 *loan.EligibilityResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*loan.EligibilityResult)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanService) CreateLoan(ctx context.Context, req loan.Request) (*loan.CreationResult, error) {
	ret := _m.Called(ctx, req)

	var r0 *loan.CreationResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*loan.CreationResult)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanService) GetLoan(ctx context.Context, loanID int64) (*loan.Details, error) {
	ret := _m.Called(ctx, loanID)

	var r0 *loan.Details
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*loan.Details)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanService) ListCustomerLoans(ctx context.Context, customerID int64) ([]*loan.Loan, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []*loan.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*loan.Loan)
	}
	return r0, ret.Error(1)
}
