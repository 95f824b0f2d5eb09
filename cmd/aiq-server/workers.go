// cmd/aiq-server/workers.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aiq-assessment/internal/common/camunda"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workersMetricsAddr string

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "Run only the Zeebe lead workers",
	Long:  "Subscribes the CRM sync, lead notification and search indexing job workers to the Zeebe broker.",
	RunE:  runWorkers,
}

func init() {
	workersCmd.Flags().StringVar(&workersMetricsAddr, "metrics-addr", ":9090", "Listen address for /health and /metrics (empty disables)")
	rootCmd.AddCommand(workersCmd)
}

func runWorkers(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.zapLog.Info("Starting lead workers...")

	zb, err := a.connectZeebe()
	if err != nil {
		return err
	}

	es, err := a.connectElasticsearch(ctx)
	if err != nil {
		return err
	}

	handlers, err := a.newLeadHandlers(ctx, es)
	if err != nil {
		return err
	}

	workers := camunda.NewWorkerSet(zb.GetClient(), a.log)
	if err := handlers.register(workers); err != nil {
		workers.Close()
		return err
	}
	a.zapLog.Info("Lead workers registered", zap.String("taskTypes", strings.Join(workers.TaskTypes(), ",")))

	var probe *http.Server
	if workersMetricsAddr != "" {
		probe = newProbeServer(workersMetricsAddr)
		go func() {
			a.zapLog.Info("Health/Metrics server listening", zap.String("addr", workersMetricsAddr))
			if err := probe.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()

	a.zapLog.Info("Shutdown signal received, stopping workers...")
	workers.Close()
	if probe != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = probe.Shutdown(shutdownCtx)
	}
	a.zapLog.Info("Lead workers stopped gracefully")
	return nil
}

func newProbeServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
