package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"credit-approval/internal/domain/loan"
	"credit-approval/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loanRowColumns = []string{"id", "customer_id", "loan_amount", "tenure", "interest_rate", "monthly_repayment", "emis_paid_on_time", "date_of_approval", "end_date", "created_at", "updated_at"}

func setupLoanRepo(t *testing.T) (context.Context, *LoanRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to open a stub database connection")
	t.Cleanup(mockPool.Close)

	return context.Background(), NewLoanRepository(mockPool, logger), mockPool
}

func sampleLoan() *loan.Loan {
	approved := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	return &loan.Loan{
		LoanID:           11,
		CustomerID:       7,
		LoanAmount:       decimal.NewFromInt(200000),
		TenureMonths:     24,
		InterestRate:     decimal.RequireFromString("10.5"),
		MonthlyRepayment: decimal.RequireFromString("9275.21"),
		EMIsPaidOnTime:   0,
		DateOfApproval:   approved,
		EndDate:          approved.AddDate(0, 24, 0),
		CreatedAt:        approved,
		UpdatedAt:        approved,
	}
}

func loanRows(loans ...*loan.Loan) *pgxmock.Rows {
	rows := pgxmock.NewRows(loanRowColumns)
	for _, l := range loans {
		rows.AddRow(l.LoanID, l.CustomerID, l.LoanAmount, l.TenureMonths, l.InterestRate, l.MonthlyRepayment,
			l.EMIsPaidOnTime, l.DateOfApproval, l.EndDate, l.CreatedAt, l.UpdatedAt)
	}
	return rows
}

func TestLoanRepository_CreateLoanTransaction(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	cust := sampleCustomer()
	existing := sampleLoan()
	existing.EMIsPaidOnTime = 24

	newLoan := sampleLoan()
	newLoan.LoanID = 0
	now := time.Now().UTC()

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta(lockCustomerQuery)).
		WithArgs(cust.CustomerID).
		WillReturnRows(customerRows(cust))
	mockPool.ExpectQuery(regexp.QuoteMeta(listLoansByCustomerQuery)).
		WithArgs(cust.CustomerID).
		WillReturnRows(loanRows(existing))
	mockPool.ExpectQuery(regexp.QuoteMeta(insertLoanQuery)).
		WithArgs(newLoan.CustomerID, newLoan.LoanAmount, newLoan.TenureMonths, newLoan.InterestRate, newLoan.MonthlyRepayment,
			newLoan.EMIsPaidOnTime, newLoan.DateOfApproval, newLoan.EndDate).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(12), now, now))
	mockPool.ExpectQuery(regexp.QuoteMeta(refreshDebtQuery)).
		WithArgs(cust.CustomerID).
		WillReturnRows(pgxmock.NewRows([]string{"current_debt"}).AddRow(decimal.RequireFromString("222605.04")))
	mockPool.ExpectCommit()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	locked, err := repo.LockCustomerForUpdate(ctx, tx, cust.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, cust.FirstName, locked.FirstName)

	loans, err := repo.ListByCustomerInTx(ctx, tx, cust.CustomerID)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.False(t, loans[0].IsActive())

	require.NoError(t, repo.InsertLoanInTx(ctx, tx, newLoan))
	assert.Equal(t, int64(12), newLoan.LoanID)

	debt, err := repo.RefreshCustomerDebtInTx(ctx, tx, cust.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, "222605.04", debt.StringFixed(2))

	require.NoError(t, repo.CommitTx(ctx, tx))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_LockCustomerNotFoundRollsBack(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta(lockCustomerQuery)).
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows(customerRowColumns))
	mockPool.ExpectRollback()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	_, err = repo.LockCustomerForUpdate(ctx, tx, 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.RollbackTx(ctx, tx))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_BeginTxFailure(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)

	mockPool.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := repo.BeginTx(ctx)

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_GetLoanByID(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	want := sampleLoan()

	mockPool.ExpectQuery(regexp.QuoteMeta(getLoanByIDQuery)).
		WithArgs(want.LoanID).
		WillReturnRows(loanRows(want))
	mockPool.ExpectQuery(regexp.QuoteMeta(getLoanByIDQuery)).
		WithArgs(int64(999)).
		WillReturnRows(pgxmock.NewRows(loanRowColumns))

	got, err := repo.GetLoanByID(ctx, want.LoanID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = repo.GetLoanByID(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_ListByCustomer(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	first := sampleLoan()
	second := sampleLoan()
	second.LoanID = 12
	second.EMIsPaidOnTime = 5

	mockPool.ExpectQuery(regexp.QuoteMeta(listLoansByCustomerQuery)).
		WithArgs(int64(7)).
		WillReturnRows(loanRows(first, second))

	loans, err := repo.ListByCustomer(ctx, 7)

	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, 19, loans[1].RemainingEMIs())
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_Upsert(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	l := sampleLoan()

	mockPool.ExpectQuery(regexp.QuoteMeta(upsertLoanQuery)).
		WithArgs(l.LoanID, l.CustomerID, l.LoanAmount, l.TenureMonths, l.InterestRate, l.MonthlyRepayment,
			l.EMIsPaidOnTime, l.DateOfApproval, l.EndDate).
		WillReturnRows(pgxmock.NewRows([]string{"inserted"}).AddRow(true))

	created, err := repo.Upsert(ctx, l)

	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_UpsertMissingCustomer(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	l := sampleLoan()

	mockPool.ExpectQuery(regexp.QuoteMeta(upsertLoanQuery)).
		WithArgs(l.LoanID, l.CustomerID, l.LoanAmount, l.TenureMonths, l.InterestRate, l.MonthlyRepayment,
			l.EMIsPaidOnTime, l.DateOfApproval, l.EndDate).
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "loans_customer_id_fkey"})

	_, err := repo.Upsert(ctx, l)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_SyncIDSequence(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)

	mockPool.ExpectExec(regexp.QuoteMeta("SELECT setval(pg_get_serial_sequence('loans', 'id')")).
		WillReturnError(errors.New("permission denied"))

	err := repo.SyncIDSequence(ctx)

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
