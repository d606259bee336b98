package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"credit-approval/internal/domain/customer"
	"credit-approval/internal/infrastructure/monitoring"
	"credit-approval/internal/pkg/apperrors"

	"github.com/robfig/cron/v3"
)

const (
	defaultWorkers  = 5
	defaultSchedule = "0 1 * * *"
	defaultTimeout  = time.Hour
)

// DebtRecalculationJob recomputes current_debt for every customer from the
// loans table.
type DebtRecalculationJob struct {
	customerService customer.CustomerService
	workers         int
	logger          *slog.Logger
}

func NewDebtRecalculationJob(customerSvc customer.CustomerService, workers int, logger *slog.Logger) *DebtRecalculationJob {
	if customerSvc == nil || logger == nil {
		panic("DebtRecalculationJob dependencies cannot be nil")
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &DebtRecalculationJob{
		customerService: customerSvc,
		workers:         workers,
		logger:          logger.With("job", "DebtRecalculation"),
	}
}

func (j *DebtRecalculationJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting customer debt recalculation job.")

	customerIDs, err := j.customerService.ListCustomerIDs(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list customer IDs, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to list customers: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched customer IDs.", slog.Int("count", len(customerIDs)))

	if len(customerIDs) == 0 {
		j.logger.InfoContext(ctx, "No customers found to process.")
		return nil
	}

	var processedCount, skippedCount, errorCount atomic.Int32
	ids := make(chan int64)
	var wg sync.WaitGroup

	for range min(j.workers, len(customerIDs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				logCtx := j.logger.With(slog.Int64("customerID", id))

				debt, recalcErr := j.customerService.RecalculateDebt(ctx, id)
				switch {
				case recalcErr == nil:
					processedCount.Add(1)
					monitoring.RecordDebtRecalculation("success")
					logCtx.DebugContext(ctx, "Customer debt recalculated.", slog.String("current_debt", debt.StringFixed(2)))
				case errors.Is(recalcErr, apperrors.ErrNotFound):
					skippedCount.Add(1)
					monitoring.RecordDebtRecalculation("skipped")
					logCtx.WarnContext(ctx, "Customer disappeared before recalculation", slog.Any("error", recalcErr))
				default:
					errorCount.Add(1)
					monitoring.RecordDebtRecalculation("error")
					logCtx.ErrorContext(ctx, "Failed to recalculate customer debt", slog.Any("error", recalcErr))
				}
			}
		}()
	}

dispatch:
	for _, id := range customerIDs {
		select {
		case ids <- id:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(ids)
	wg.Wait()

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("total_customers", len(customerIDs)),
		slog.Int("customers_processed", int(processedCount.Load())),
		slog.Int("customers_skipped", int(skippedCount.Load())),
		slog.Int("errors_encountered", int(errorCount.Load())),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		summaryLog.WarnContext(ctx, "Customer debt recalculation job interrupted.", slog.Any("error", ctxErr))
		return fmt.Errorf("job interrupted: %w", ctxErr)
	}
	if n := errorCount.Load(); n > 0 {
		summaryLog.WarnContext(ctx, "Customer debt recalculation job finished with errors.")
		return fmt.Errorf("job completed with %d errors", n)
	}
	summaryLog.InfoContext(ctx, "Customer debt recalculation job finished successfully.")
	return nil
}

// Schedule registers the job on c. An empty spec falls back to 01:00 daily
// and a non-positive timeout to one hour.
func Schedule(c *cron.Cron, spec string, timeout time.Duration, job *DebtRecalculationJob, logger *slog.Logger) (cron.EntryID, error) {
	if spec == "" {
		spec = defaultSchedule
		logger.Warn("Debt recalculation schedule not configured, using default", "schedule", spec)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	jobID, err := c.AddJob(spec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "DebtRecalculation")
		jobLogger.Info("Cron triggered: Running debt recalculation job.")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if runErr := job.Run(ctx); runErr != nil {
			jobLogger.Error("Debt recalculation job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Debt recalculation job finished successfully.")
		}
	}))
	if err != nil {
		logger.Error("Failed to schedule debt recalculation job", "schedule", spec, slog.Any("error", err))
		return 0, fmt.Errorf("invalid debt recalculation schedule %q: %w", spec, err)
	}

	logger.Info("Scheduled debt recalculation job", "schedule", spec, "job_id", jobID)
	return jobID, nil
}
