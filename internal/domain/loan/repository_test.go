package loan

import (
	"context"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/event"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

var _ Repository = (*MockRepository)(nil)

type TxMock struct {
	pgx.Tx
}

var tx pgx.Tx = &TxMock{}

func (m *MockRepository) LockCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, tx, customerID)
	var c *customer.Customer
	if v, ok := args.Get(0).(*customer.Customer); ok {
		c = v
	}
	return c, args.Error(1)
}

func (m *MockRepository) ListByCustomerInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]*Loan, error) {
	args := m.Called(ctx, tx, customerID)
	var loans []*Loan
	if v, ok := args.Get(0).([]*Loan); ok {
		loans = v
	}
	return loans, args.Error(1)
}

func (m *MockRepository) InsertLoanInTx(ctx context.Context, tx pgx.Tx, loan *Loan) error {
	args := m.Called(ctx, tx, loan)
	return args.Error(0)
}

func (m *MockRepository) RefreshCustomerDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, tx, customerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRepository) GetLoanByID(ctx context.Context, loanID int64) (*Loan, error) {
	args := m.Called(ctx, loanID)
	var l *Loan
	if v, ok := args.Get(0).(*Loan); ok {
		l = v
	}
	return l, args.Error(1)
}

func (m *MockRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*Loan, error) {
	args := m.Called(ctx, customerID)
	var loans []*Loan
	if v, ok := args.Get(0).([]*Loan); ok {
		loans = v
	}
	return loans, args.Error(1)
}

func (m *MockRepository) Upsert(ctx context.Context, loan *Loan) (bool, error) {
	args := m.Called(ctx, loan)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) SyncIDSequence(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	var t pgx.Tx
	if v, ok := args.Get(0).(pgx.Tx); ok {
		t = v
	}
	return t, args.Error(1)
}

func (m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

type MockCustomerService struct {
	mock.Mock
}

var _ customer.CustomerService = (*MockCustomerService)(nil)

func (_m *MockCustomerService) RegisterCustomer(ctx context.Context, input customer.RegistrationInput) (*customer.Customer, error) {
	ret := _m.Called(ctx, input)
	var r0 *customer.Customer
	if v, ok := ret.Get(0).(*customer.Customer); ok {
		r0 = v
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)
	var r0 *customer.Customer
	if v, ok := ret.Get(0).(*customer.Customer); ok {
		r0 = v
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	ret := _m.Called(ctx)
	var r0 []*customer.Customer
	if v, ok := ret.Get(0).([]*customer.Customer); ok {
		r0 = v
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) ListCustomerIDs(ctx context.Context) ([]int64, error) {
	ret := _m.Called(ctx)
	var r0 []int64
	if v, ok := ret.Get(0).([]int64); ok {
		r0 = v
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) RecalculateDebt(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	ret := _m.Called(ctx, customerID)
	return ret.Get(0).(decimal.Decimal), ret.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (_m *MockPublisher) PublishCustomerRegistered(ctx context.Context, payload event.CustomerRegisteredPayload) error {
	return _m.Called(ctx, payload).Error(0)
}

func (_m *MockPublisher) PublishLoanCreated(ctx context.Context, payload event.LoanCreatedPayload) error {
	return _m.Called(ctx, payload).Error(0)
}
