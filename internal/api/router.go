package api

import (
	"log/slog"
	"net/http"
	"time"

	_ "credit-approval/docs"
	"credit-approval/internal/api/handler"
	mw "credit-approval/internal/api/middleware"
	"credit-approval/internal/config"
	"credit-approval/internal/domain/customer"
	"credit-approval/internal/domain/loan"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const defaultRequestTimeout = 60 * time.Second

// SetupRouter wires every route. The returned stop function releases the
// rate limiter's background cleanup and must be called on shutdown.
// redisClient may be nil, in which case rate limiting stays in-process.
func SetupRouter(loanService loan.LoanService, customerService customer.CustomerService, redisClient *redis.Client, cfg *config.Config, logger *slog.Logger) (*chi.Mux, func()) {
	router := chi.NewRouter()

	stop := setupMiddleware(router, cfg, redisClient, logger)
	setupMetricsEndpoint(router, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)
	setupAuthRoutes(router, cfg, logger)
	setupBusinessRoutes(router, cfg, customerService, loanService, logger)

	return router, stop
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, redisClient *redis.Client, logger *slog.Logger) func() {
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	limiter := mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, redisClient, logger)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(timeout))
	router.Use(limiter.Middleware)
	router.Use(mw.MetricsMiddleware())

	return limiter.Stop
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupBusinessRoutes(router *chi.Mux, cfg *config.Config, customerService customer.CustomerService, loanService loan.LoanService, logger *slog.Logger) {
	customerHandler := handler.NewCustomerHandler(customerService, logger)
	loanHandler := handler.NewLoanHandler(loanService, logger)

	router.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))

		r.Post("/register", customerHandler.RegisterCustomer)
		r.Get("/customers", customerHandler.ListCustomers)
		r.Get("/customers/{customerID}", customerHandler.GetCustomer)

		r.Post("/check-eligibility", loanHandler.CheckEligibility)
		r.Post("/create-loan", loanHandler.CreateLoan)
		r.Get("/view-loan/{loanID}", loanHandler.ViewLoan)
		r.Get("/view-loans/{customerID}", loanHandler.ViewCustomerLoans)
	})
}
