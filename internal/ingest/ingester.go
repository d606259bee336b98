package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/domain/loan"
	"credit-approval/internal/infrastructure/monitoring"
	"credit-approval/internal/pkg/apperrors"
)

const (
	customerFile = "customers"
	loanFile     = "loans"
)

var customerColumns = []string{"Customer ID", "First Name", "Last Name", "Age", "Phone Number", "Monthly Salary", "Approved Limit"}

var loanColumns = []string{"Customer ID", "Loan ID", "Loan Amount", "Tenure", "Interest Rate", "Monthly payment", "EMIs paid on Time", "Date of Approval", "End Date"}

type CustomerUpserter interface {
	Upsert(ctx context.Context, c *customer.Customer) (bool, error)
	SyncIDSequence(ctx context.Context) error
}

type LoanUpserter interface {
	Upsert(ctx context.Context, l *loan.Loan) (bool, error)
	SyncIDSequence(ctx context.Context) error
}

// DebtRefresher recomputes current_debt for every customer.
type DebtRefresher interface {
	Run(ctx context.Context) error
}

type Stats struct {
	TotalRows    int      `json:"total_rows"`
	Created      int      `json:"created"`
	Updated      int      `json:"updated"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"error_details"`
}

func (s *Stats) fail(rowNum int, err error) {
	s.Errors++
	s.ErrorDetails = append(s.ErrorDetails, fmt.Sprintf("Row %d: %v", rowNum, err))
}

type Report struct {
	Customers        Stats  `json:"customers"`
	Loans            Stats  `json:"loans"`
	DebtRefreshError string `json:"debt_refresh_error,omitempty"`
	Duration         string `json:"duration"`
}

type Ingester struct {
	customers CustomerUpserter
	loans     LoanUpserter
	debts     DebtRefresher
	logger    *slog.Logger
}

func NewIngester(customers CustomerUpserter, loans LoanUpserter, debts DebtRefresher, logger *slog.Logger) *Ingester {
	if customers == nil || loans == nil || debts == nil {
		panic("Ingester dependencies cannot be nil")
	}
	return &Ingester{
		customers: customers,
		loans:     loans,
		debts:     debts,
		logger:    logger.With("component", "Ingester"),
	}
}

// IngestFiles loads customers, then loans, then refreshes every customer's
// debt. Row failures are only reported in the stats; the returned error is
// non-nil when a file could not be read or a follow-up step failed.
func (i *Ingester) IngestFiles(ctx context.Context, customerPath, loanPath string) (*Report, error) {
	start := time.Now()
	report := &Report{}
	var errs []error

	customerStats, err := i.ingestFile(ctx, customerPath, i.IngestCustomers)
	report.Customers = customerStats
	if err != nil {
		errs = append(errs, fmt.Errorf("customer file: %w", err))
	}

	loanStats, err := i.ingestFile(ctx, loanPath, i.IngestLoans)
	report.Loans = loanStats
	if err != nil {
		errs = append(errs, fmt.Errorf("loan file: %w", err))
	}

	i.logger.InfoContext(ctx, "Refreshing customer debts after ingestion")
	if err := i.debts.Run(ctx); err != nil {
		report.DebtRefreshError = err.Error()
		errs = append(errs, fmt.Errorf("debt refresh: %w", err))
	}

	report.Duration = time.Since(start).Round(time.Millisecond).String()
	return report, errors.Join(errs...)
}

func (i *Ingester) ingestFile(ctx context.Context, path string, ingest func(context.Context, io.Reader) (Stats, error)) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		i.logger.ErrorContext(ctx, "Failed to open ingestion file", "path", path, "error", err)
		return Stats{ErrorDetails: []string{fmt.Sprintf("File error: %v", err)}}, err
	}
	defer f.Close()

	i.logger.InfoContext(ctx, "Ingesting file", "path", path)
	return ingest(ctx, f)
}

func (i *Ingester) IngestCustomers(ctx context.Context, r io.Reader) (Stats, error) {
	stats, err := i.ingestRows(ctx, r, customerFile, customerColumns, func(rec row) (bool, error) {
		cust, err := parseCustomer(rec)
		if err != nil {
			return false, err
		}
		return i.customers.Upsert(ctx, cust)
	})
	if err != nil {
		return stats, err
	}
	if err := i.customers.SyncIDSequence(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

func (i *Ingester) IngestLoans(ctx context.Context, r io.Reader) (Stats, error) {
	stats, err := i.ingestRows(ctx, r, loanFile, loanColumns, func(rec row) (bool, error) {
		l, err := parseLoan(rec)
		if err != nil {
			return false, err
		}
		created, err := i.loans.Upsert(ctx, l)
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, fmt.Errorf("customer %d not found", l.CustomerID)
		}
		return created, err
	})
	if err != nil {
		return stats, err
	}
	if err := i.loans.SyncIDSequence(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

func (i *Ingester) ingestRows(ctx context.Context, r io.Reader, file string, columns []string, upsert func(row) (bool, error)) (Stats, error) {
	logger := i.logger.With("file", file)
	var stats Stats

	t, err := newTable(r, columns...)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read CSV header", "error", err)
		stats.ErrorDetails = append(stats.ErrorDetails, fmt.Sprintf("File error: %v", err))
		return stats, err
	}

	for rowNum := 1; ; rowNum++ {
		if err := ctx.Err(); err != nil {
			stats.ErrorDetails = append(stats.ErrorDetails, fmt.Sprintf("Aborted at row %d: %v", rowNum, err))
			return stats, err
		}

		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.TotalRows++
		if err != nil {
			stats.fail(rowNum, err)
			monitoring.RecordIngestRow(file, "error")
			continue
		}

		created, err := upsert(rec)
		switch {
		case err != nil:
			stats.fail(rowNum, err)
			monitoring.RecordIngestRow(file, "error")
			logger.WarnContext(ctx, "Skipping CSV row", "row", rowNum, "error", err)
		case created:
			stats.Created++
			monitoring.RecordIngestRow(file, "created")
		default:
			stats.Updated++
			monitoring.RecordIngestRow(file, "updated")
		}
	}

	logger.InfoContext(ctx, "File ingestion complete",
		"total_rows", stats.TotalRows,
		"created", stats.Created,
		"updated", stats.Updated,
		"errors", stats.Errors,
	)
	return stats, nil
}

func parseCustomer(rec row) (*customer.Customer, error) {
	id, err := rec.integer("Customer ID")
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("customer id must be positive, got %d", id)
	}
	firstName, err := rec.required("First Name")
	if err != nil {
		return nil, err
	}
	age, err := rec.integer("Age")
	if err != nil {
		return nil, err
	}
	phone, err := customer.NormalizePhoneNumber(rec.str("Phone Number"))
	if err != nil {
		return nil, err
	}
	salary, err := rec.number("Monthly Salary")
	if err != nil {
		return nil, err
	}
	limit, err := rec.number("Approved Limit")
	if err != nil {
		return nil, err
	}

	cust := customer.NewCustomer(firstName, rec.str("Last Name"), int(age), phone, salary, limit)
	cust.CustomerID = id
	return cust, nil
}

func parseLoan(rec row) (*loan.Loan, error) {
	customerID, err := rec.integer("Customer ID")
	if err != nil {
		return nil, err
	}
	loanID, err := rec.integer("Loan ID")
	if err != nil {
		return nil, err
	}
	if loanID <= 0 {
		return nil, fmt.Errorf("loan id must be positive, got %d", loanID)
	}
	amount, err := rec.number("Loan Amount")
	if err != nil {
		return nil, err
	}
	tenure, err := rec.integer("Tenure")
	if err != nil {
		return nil, err
	}
	if tenure <= 0 {
		return nil, fmt.Errorf("tenure must be positive, got %d", tenure)
	}
	rate, err := rec.number("Interest Rate")
	if err != nil {
		return nil, err
	}
	repayment, err := rec.number("Monthly payment")
	if err != nil {
		return nil, err
	}
	paid, err := rec.integer("EMIs paid on Time")
	if err != nil {
		return nil, err
	}
	approvedOn, err := rec.date("Date of Approval")
	if err != nil {
		return nil, err
	}
	endDate, err := rec.date("End Date")
	if err != nil {
		return nil, err
	}

	l := &loan.Loan{
		LoanID:           loanID,
		CustomerID:       customerID,
		LoanAmount:       amount,
		TenureMonths:     int(tenure),
		InterestRate:     rate,
		MonthlyRepayment: repayment,
		EMIsPaidOnTime:   int(paid),
		DateOfApproval:   approvedOn,
		EndDate:          endDate,
	}
	l.ClampPaidEMIs()
	return l, nil
}
