package customer

import (
	"context"

	"credit-approval/internal/event"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

var _ CustomerRepository = (*MockCustomerRepository)(nil)

func (_m *MockCustomerRepository) Create(ctx context.Context, c *Customer) error {
	ret := _m.Called(ctx, c)
	return ret.Error(0)
}

func (_m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*Customer, error) {
	ret := _m.Called(ctx, customerID)
	var r0 *Customer
	if rf, ok := ret.Get(0).(*Customer); ok {
		r0 = rf
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) FindByPhone(ctx context.Context, phone string) (*Customer, error) {
	ret := _m.Called(ctx, phone)
	var r0 *Customer
	if rf, ok := ret.Get(0).(*Customer); ok {
		r0 = rf
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) FindAll(ctx context.Context) ([]*Customer, error) {
	ret := _m.Called(ctx)
	var r0 []*Customer
	if rf, ok := ret.Get(0).([]*Customer); ok {
		r0 = rf
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) ListIDs(ctx context.Context) ([]int64, error) {
	ret := _m.Called(ctx)
	var r0 []int64
	if rf, ok := ret.Get(0).([]int64); ok {
		r0 = rf
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) Upsert(ctx context.Context, c *Customer) (bool, error) {
	ret := _m.Called(ctx, c)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockCustomerRepository) SyncIDSequence(ctx context.Context) error {
	return _m.Called(ctx).Error(0)
}

func (_m *MockCustomerRepository) RecalculateCurrentDebt(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	ret := _m.Called(ctx, customerID)
	return ret.Get(0).(decimal.Decimal), ret.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

var _ event.Publisher = (*MockPublisher)(nil)

func (_m *MockPublisher) PublishCustomerRegistered(ctx context.Context, payload event.CustomerRegisteredPayload) error {
	return _m.Called(ctx, payload).Error(0)
}

func (_m *MockPublisher) PublishLoanCreated(ctx context.Context, payload event.LoanCreatedPayload) error {
	return _m.Called(ctx, payload).Error(0)
}
