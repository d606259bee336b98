package customer

import (
	"context"
	"fmt"

	"credit-approval/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

var ErrPhoneAlreadyRegistered = fmt.Errorf("%w: phone number already registered", apperrors.ErrConflict)

type CustomerRepository interface {
	Create(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindByPhone(ctx context.Context, phone string) (*Customer, error)

	FindAll(ctx context.Context) ([]*Customer, error)

	ListIDs(ctx context.Context) ([]int64, error)

	// Upsert inserts or replaces the customer keyed by CustomerID and reports
	// whether a new row was created.
	Upsert(ctx context.Context, customer *Customer) (created bool, err error)

	SyncIDSequence(ctx context.Context) error

	RecalculateCurrentDebt(ctx context.Context, customerID int64) (decimal.Decimal, error)
}
