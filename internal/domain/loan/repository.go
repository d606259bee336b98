package loan

import (
	"context"

	"credit-approval/internal/domain/customer"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// LockCustomerForUpdate loads the customer row with SELECT ... FOR UPDATE so
	// concurrent loan creations for the same customer serialize.
	LockCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*customer.Customer, error)

	ListByCustomerInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]*Loan, error)

	InsertLoanInTx(ctx context.Context, tx pgx.Tx, loan *Loan) error

	RefreshCustomerDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64) (decimal.Decimal, error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	ListByCustomer(ctx context.Context, customerID int64) ([]*Loan, error)

	// Upsert inserts or replaces a loan keyed by LoanID and reports whether a
	// new row was created.
	Upsert(ctx context.Context, loan *Loan) (created bool, err error)

	SyncIDSequence(ctx context.Context) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
