package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	CreditDecisionsTotal     *prometheus.CounterVec
	CreditScore              prometheus.Histogram
	CustomersRegisteredTotal prometheus.Counter
	LoansCreatedTotal        prometheus.Counter
	IngestRowsTotal          *prometheus.CounterVec
	DebtRecalculationsTotal  *prometheus.CounterVec
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_approval_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_approval_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_approval_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		CreditDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_decisions_total",
				Help: "Total number of eligibility decisions by outcome and rejection reason.",
			},
			[]string{"outcome", "reason"},
		),
		CreditScore: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credit_score",
				Help:    "Distribution of computed credit scores.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		CustomersRegisteredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_customers_registered_total",
				Help: "Total number of customers successfully registered.",
			},
		),
		LoansCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_loans_created_total",
				Help: "Total number of loans successfully created.",
			},
		),
		IngestRowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_rows_total",
				Help: "Total number of CSV rows processed during ingestion.",
			},
			[]string{"file", "result"},
		),
		DebtRecalculationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_debt_recalculations_total",
				Help: "Total number of customer debt recalculations by result.",
			},
			[]string{"result"},
		),
	}
)

func RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	status := strconv.Itoa(code)
	HTTP.RequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordCreditDecision(approved bool, reason string, score int) {
	outcome := "rejected"
	if approved {
		outcome = "approved"
		reason = "none"
	}
	Business.CreditDecisionsTotal.WithLabelValues(outcome, reason).Inc()
	Business.CreditScore.Observe(float64(score))
}

func RecordCustomerRegistered() {
	Business.CustomersRegisteredTotal.Inc()
}

func RecordLoanCreated() {
	Business.LoansCreatedTotal.Inc()
}

func RecordIngestRow(file, result string) {
	Business.IngestRowsTotal.WithLabelValues(file, result).Inc()
}

func RecordDebtRecalculation(result string) {
	Business.DebtRecalculationsTotal.WithLabelValues(result).Inc()
}
