package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/domain/loan"
	"credit-approval/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const loanColumns = `id, customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, date_of_approval, end_date, created_at, updated_at`

const (
	lockCustomerQuery = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 FOR UPDATE`

	insertLoanQuery = `
        INSERT INTO loans (customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, date_of_approval, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	getLoanByIDQuery         = `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	listLoansByCustomerQuery = `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1 ORDER BY id ASC`

	upsertLoanQuery = `
        INSERT INTO loans (id, customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, date_of_approval, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        ON CONFLICT (id) DO UPDATE
        SET customer_id = EXCLUDED.customer_id,
            loan_amount = EXCLUDED.loan_amount,
            tenure = EXCLUDED.tenure,
            interest_rate = EXCLUDED.interest_rate,
            monthly_repayment = EXCLUDED.monthly_repayment,
            emis_paid_on_time = EXCLUDED.emis_paid_on_time,
            date_of_approval = EXCLUDED.date_of_approval,
            end_date = EXCLUDED.end_date,
            updated_at = NOW()
        RETURNING (xmax = 0) AS inserted`
)

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to rollback transaction: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) LockCustomerForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*customer.Customer, error) {
	start := time.Now()
	cust, err := scanCustomer(tx.QueryRow(ctx, lockCustomerQuery, customerID))
	observe("LockCustomerForUpdate", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found for update", "customer_id", customerID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock customer row", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return cust, nil
}

func (r *LoanRepository) ListByCustomerInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]*loan.Loan, error) {
	return r.listByCustomer(ctx, tx, customerID)
}

func (r *LoanRepository) ListByCustomer(ctx context.Context, customerID int64) ([]*loan.Loan, error) {
	return r.listByCustomer(ctx, r.db, customerID)
}

func (r *LoanRepository) listByCustomer(ctx context.Context, q querier, customerID int64) ([]*loan.Loan, error) {
	start := time.Now()
	rows, err := q.Query(ctx, listLoansByCustomerQuery, customerID)
	if err != nil {
		observe("ListLoansByCustomer", start, err)
		r.logger.ErrorContext(ctx, "Failed to query customer loans", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "customer_id", customerID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}

	err = rows.Err()
	observe("ListLoansByCustomer", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func (r *LoanRepository) InsertLoanInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) error {
	start := time.Now()
	err := tx.QueryRow(ctx, insertLoanQuery,
		l.CustomerID,
		l.LoanAmount,
		l.TenureMonths,
		l.InterestRate,
		l.MonthlyRepayment,
		l.EMIsPaidOnTime,
		l.DateOfApproval,
		l.EndDate,
	).Scan(&l.LoanID, &l.CreatedAt, &l.UpdatedAt)
	observe("InsertLoan", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "customer_id", l.CustomerID, "error", err)
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Loan inserted", "loan_id", l.LoanID, "customer_id", l.CustomerID)
	return nil
}

func (r *LoanRepository) RefreshCustomerDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64) (decimal.Decimal, error) {
	start := time.Now()
	var debt decimal.Decimal
	err := tx.QueryRow(ctx, refreshDebtQuery, customerID).Scan(&debt)
	observe("RefreshCustomerDebt", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to refresh customer debt", "customer_id", customerID, "error", err)
		return decimal.Zero, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return debt, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	start := time.Now()
	l, err := scanLoan(r.db.QueryRow(ctx, getLoanByIDQuery, loanID))
	observe("GetLoanByID", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

func (r *LoanRepository) Upsert(ctx context.Context, l *loan.Loan) (bool, error) {
	if l == nil || l.LoanID <= 0 {
		return false, fmt.Errorf("%w: upsert requires a loan with an explicit id", apperrors.ErrInvalidArgument)
	}

	start := time.Now()
	var inserted bool
	err := r.db.QueryRow(ctx, upsertLoanQuery,
		l.LoanID,
		l.CustomerID,
		l.LoanAmount,
		l.TenureMonths,
		l.InterestRate,
		l.MonthlyRepayment,
		l.EMIsPaidOnTime,
		l.DateOfApproval,
		l.EndDate,
	).Scan(&inserted)
	observe("UpsertLoan", start, err)

	if err != nil {
		return false, translateDBError(err, r.logger.With("loan_id", l.LoanID))
	}
	return inserted, nil
}

func (r *LoanRepository) SyncIDSequence(ctx context.Context) error {
	start := time.Now()
	err := syncSequence(ctx, r.db, "loans")
	observe("SyncLoanSequence", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to resync loan id sequence", "error", err)
		return apperrors.WrapDatabaseError(err, "failed to resync loan id sequence")
	}
	return nil
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.LoanID,
		&l.CustomerID,
		&l.LoanAmount,
		&l.TenureMonths,
		&l.InterestRate,
		&l.MonthlyRepayment,
		&l.EMIsPaidOnTime,
		&l.DateOfApproval,
		&l.EndDate,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
