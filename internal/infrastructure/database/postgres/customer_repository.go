package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const customerColumns = `id, first_name, last_name, age, COALESCE(phone_number, ''), monthly_salary, approved_limit, current_debt, created_at, updated_at`

const (
	insertCustomerQuery = `
        INSERT INTO customers (first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	findCustomerByIDQuery    = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	findCustomerByPhoneQuery = `SELECT ` + customerColumns + ` FROM customers WHERE phone_number = $1`
	findAllCustomersQuery    = `SELECT ` + customerColumns + ` FROM customers ORDER BY id ASC`
	listCustomerIDsQuery     = `SELECT id FROM customers ORDER BY id ASC`

	upsertCustomerQuery = `
        INSERT INTO customers (id, first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, NOW(), NOW())
        ON CONFLICT (id) DO UPDATE
        SET first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            age = EXCLUDED.age,
            phone_number = EXCLUDED.phone_number,
            monthly_salary = EXCLUDED.monthly_salary,
            approved_limit = EXCLUDED.approved_limit,
            updated_at = NOW()
        RETURNING (xmax = 0) AS inserted`
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.DebugContext(ctx, "Attempting to insert new customer")

	start := time.Now()
	err := r.db.QueryRow(ctx, insertCustomerQuery,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
		cust.CurrentDebt,
	).Scan(
		&cust.CustomerID,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	observe("CreateCustomer", start, err)

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation")
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	return r.findOne(ctx, "FindCustomerByID", findCustomerByIDQuery, customerID)
}

func (r *CustomerRepository) FindByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	return r.findOne(ctx, "FindCustomerByPhone", findCustomerByPhoneQuery, phone)
}

func (r *CustomerRepository) findOne(ctx context.Context, queryName, query string, arg any) (*customer.Customer, error) {
	start := time.Now()
	cust, err := scanCustomer(r.db.QueryRow(ctx, query, arg))
	observe(queryName, start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.DebugContext(ctx, "Customer not found", slog.String("query", queryName))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer", slog.String("query", queryName), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer: %w", apperrors.ErrDatabase, err)
	}
	return cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, findAllCustomersQuery)
	if err != nil {
		observe("FindAllCustomers", start, err)
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}

	err = rows.Err()
	observe("FindAllCustomers", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	r.logger.DebugContext(ctx, "Finished finding customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (r *CustomerRepository) ListIDs(ctx context.Context) ([]int64, error) {
	logCtx := r.logger.With(slog.String("operation", "ListIDs"))

	rows, err := r.db.Query(ctx, listCustomerIDsQuery)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query customer IDs", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customer IDs: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			logCtx.ErrorContext(ctx, "Failed to scan customer ID row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed scanning customer ID: %w", apperrors.ErrDatabase, err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		logCtx.ErrorContext(ctx, "Error iterating customer ID rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer IDs: %w", apperrors.ErrDatabase, err)
	}

	logCtx.DebugContext(ctx, "Finished listing customer IDs", slog.Int("count", len(ids)))
	return ids, nil
}

// Upsert keeps current_debt untouched on update; it is recomputed from loans.
func (r *CustomerRepository) Upsert(ctx context.Context, cust *customer.Customer) (bool, error) {
	if cust == nil || cust.CustomerID <= 0 {
		return false, fmt.Errorf("%w: upsert requires a customer with an explicit id", apperrors.ErrInvalidArgument)
	}

	start := time.Now()
	var inserted bool
	err := r.db.QueryRow(ctx, upsertCustomerQuery,
		cust.CustomerID,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
		cust.CurrentDebt,
	).Scan(&inserted)
	observe("UpsertCustomer", start, err)

	if err != nil {
		return false, translateDBError(err, r.logger.With(slog.Int64("customerID", cust.CustomerID)))
	}
	return inserted, nil
}

func (r *CustomerRepository) SyncIDSequence(ctx context.Context) error {
	start := time.Now()
	err := syncSequence(ctx, r.db, "customers")
	observe("SyncCustomerSequence", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to resync customer id sequence", slog.Any("error", err))
		return apperrors.WrapDatabaseError(err, "failed to resync customer id sequence")
	}
	return nil
}

func (r *CustomerRepository) RecalculateCurrentDebt(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	start := time.Now()
	var debt decimal.Decimal
	err := r.db.QueryRow(ctx, refreshDebtQuery, customerID).Scan(&debt)
	observe("RecalculateCurrentDebt", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to recalculate current debt", slog.Int64("customerID", customerID), slog.Any("error", err))
		return decimal.Zero, fmt.Errorf("%w: failed to recalculate current debt: %w", apperrors.ErrDatabase, err)
	}
	return debt, nil
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var cust customer.Customer
	err := row.Scan(
		&cust.CustomerID,
		&cust.FirstName,
		&cust.LastName,
		&cust.Age,
		&cust.PhoneNumber,
		&cust.MonthlySalary,
		&cust.ApprovedLimit,
		&cust.CurrentDebt,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cust, nil
}
