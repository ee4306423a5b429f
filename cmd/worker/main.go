package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biasharahub/docintel/internal/bootstrap"
	"github.com/biasharahub/docintel/internal/config"
	"github.com/biasharahub/docintel/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "docintel-worker")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	analysisMetrics := metrics.NewAnalysisMetrics("docintel-worker")
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", analysisMetrics.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux,
	}
	go func() {
		app.Logger.Info("metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("metrics server", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	app.Logger.Info("worker subscribed", "subject", cfg.NATSBatchSubject)
	err = app.Queue.SubscribeBatchRequested(ctx, func(handlerCtx context.Context, runID string) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()

		analysisMetrics.StartBatch()
		started := time.Now()
		result, runErr := app.BatchUC.Run(runCtx, runID)

		processed, skipped, anomalies := 0, 0, 0
		if result != nil {
			processed = result.Processed
			skipped = result.Skipped
			anomalies = len(result.Insights.Anomalies)
		}
		analysisMetrics.FinishBatch("docintel-worker", time.Since(started), processed, skipped, anomalies, runErr)

		if runErr != nil {
			app.Logger.Error("batch run failed", "run_id", runID, "error", runErr)
			return runErr
		}
		app.Logger.Info("batch run complete",
			"run_id", runID,
			"listed", result.Listed,
			"processed", result.Processed,
			"skipped", result.Skipped,
			"anomalies", anomalies,
		)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
