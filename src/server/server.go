package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"retryengine/src/connectors"
	"retryengine/src/handler"
	"retryengine/src/repository"
	"retryengine/src/retry"
)

// StartServer wires the repositories, the execution simulator and the
// orchestrator client into the router and serves until SIGINT/SIGTERM.
func StartServer(port string) {
	merchants := repository.NewMerchantRepository()
	payments := repository.NewPaymentRepository()
	configs := repository.NewRetryConfigRepository()
	jobs := repository.NewRetryJobRepository()
	audits := repository.NewAuditLogRepository()
	lifecycle := repository.NewLifecycleRepository()

	executor := retry.NewExecutor()
	orchestrator := connectors.NewOrchestratorClient()

	r := chi.NewRouter()

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck error")
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/retry-logic", func(r chi.Router) {
			r.Post("/classify", handler.ClassifyHandler(configs, audits))
			r.Post("/execute", handler.ExecuteHandler(configs, audits, executor))
			r.Post("/update-status", handler.UpdateStatusHandler(lifecycle))
			r.Get("/health", handler.RetryLogicHealthHandler())
		})

		r.Post("/webhooks/retry-result", handler.RetryResultHandler(lifecycle))

		r.Route("/simulate", func(r chi.Router) {
			r.Post("/failure", handler.SimulateFailureHandler(configs, lifecycle, orchestrator))
			r.Post("/trigger-retry/{paymentID}", handler.TriggerRetryHandler(payments, configs, orchestrator))
			r.Get("/stats/{merchantID}", handler.StatsHandler(payments))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", handler.ListPaymentsHandler(payments))
			r.Get("/{paymentID}", handler.GetPaymentHandler(payments))
			r.Get("/{paymentID}/retry-history", handler.RetryHistoryHandler(jobs, audits))
		})

		r.Route("/retry-config", func(r chi.Router) {
			r.Get("/{merchantID}", handler.GetRetryConfigHandler(configs))
			r.Put("/{merchantID}", handler.UpdateRetryConfigHandler(configs))
			r.Get("/{merchantID}/preview", handler.PreviewRetryConfigHandler(configs))
		})

		r.Route("/merchants", func(r chi.Router) {
			r.Get("/", handler.ListMerchantsHandler(merchants))
			r.Post("/", handler.CreateMerchantHandler(merchants))
			r.Get("/{merchantID}", handler.GetMerchantHandler(merchants))
		})
	})

	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
