// Command ingest loads customerData and loanData CSV exports into the
// database and recomputes every customer's current debt.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"credit-approval/internal/batch"
	"credit-approval/internal/config"
	"credit-approval/internal/domain/customer"
	"credit-approval/internal/infrastructure/database/postgres"
	"credit-approval/internal/infrastructure/logging"
	"credit-approval/internal/ingest"

	"github.com/spf13/pflag"
)

type options struct {
	configPath   string
	customerFile string
	loanFile     string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}
	if opts.customerFile == "" {
		opts.customerFile = cfg.Ingest.CustomerFile
	}
	if opts.loanFile == "" {
		opts.loanFile = cfg.Ingest.LoanFile
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	policy, err := cfg.Credit.Policy()
	if err != nil {
		logger.Error("Invalid credit policy configuration", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		return 1
	}
	defer dbPool.Close()

	customerRepo := postgres.NewCustomerRepository(dbPool, logger)
	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	customerService := customer.NewCustomerService(customerRepo, nil, policy, logger)
	debtJob := batch.NewDebtRecalculationJob(customerService, cfg.Batch.Workers, logger)

	ingester := ingest.NewIngester(customerRepo, loanRepo, debtJob, logger)

	logger.Info("Starting ingestion", "customer_file", opts.customerFile, "loan_file", opts.loanFile)
	report, ingestErr := ingester.IngestFiles(ctx, opts.customerFile, opts.loanFile)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("Failed to write ingestion report", "error", err)
	}

	if ingestErr != nil {
		logger.Error("Ingestion finished with errors", "error", ingestErr)
		return 1
	}
	logger.Info("Ingestion complete",
		"customers_created", report.Customers.Created,
		"customers_updated", report.Customers.Updated,
		"loans_created", report.Loans.Created,
		"loans_updated", report.Loans.Updated,
		"row_errors", report.Customers.Errors+report.Loans.Errors,
	)
	return 0
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", ".", "directory containing config.yml")
	fs.StringVar(&opts.customerFile, "customer-file", "", "path to the customer CSV (defaults to ingest.customerFile)")
	fs.StringVar(&opts.loanFile, "loan-file", "", "path to the loan CSV (defaults to ingest.loanFile)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}
