// cmd/aiq-server/serve.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aiq-assessment/internal/assessment"
	"aiq-assessment/internal/common/camunda"
	"aiq-assessment/internal/common/config"
	"aiq-assessment/internal/leads"
	"aiq-assessment/internal/ratelimit"
	"aiq-assessment/internal/server"
	"aiq-assessment/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveWithWorkers bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assessment HTTP API",
	Long:  "Serves submissions, previews and industry content, stores results in PostgreSQL and dispatches new leads.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWithWorkers, "with-workers", false, "Also run the Zeebe lead workers in this process")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.zapLog.Info("Starting aiq-server",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("leadsMode", a.cfg.Leads.Mode),
	)

	registry, err := loadContent(a.cfg.Content.Dir)
	if err != nil {
		return err
	}
	if problems := registry.Validate(); len(problems) > 0 {
		return fmt.Errorf("content configuration errors: %s", strings.Join(problems, "; "))
	}

	pg, err := a.connectPostgres(ctx)
	if err != nil {
		return err
	}
	assessments := store.New(pg, a.log)
	if err := assessments.EnsureSchema(ctx); err != nil {
		return err
	}

	rdb, err := a.connectRedis(ctx)
	if err != nil {
		return err
	}
	limiter := ratelimit.New(rdb.Client, ratelimit.Config{
		MaxRequests: a.cfg.RateLimit.MaxRequests,
		Window:      config.GetDuration(a.cfg.RateLimit.Window),
		KeyPrefix:   a.cfg.RateLimit.KeyPrefix,
	}, a.log)
	if a.cfg.RateLimit.CleanupInterval > 0 {
		go func() {
			_ = limiter.RunCleanup(ctx, config.GetDuration(a.cfg.RateLimit.CleanupInterval))
		}()
	}

	es, err := a.connectElasticsearch(ctx)
	if err != nil {
		return err
	}

	checks := []server.ReadinessCheck{
		{Name: "postgres", Check: assessments.Ping},
		{Name: "redis", Check: rdb.Ping},
	}
	if es != nil {
		checks = append(checks, server.ReadinessCheck{Name: "elasticsearch", Check: es.Ping})
	}

	handlers, err := a.newLeadHandlers(ctx, es)
	if err != nil {
		return err
	}

	var zb *camunda.Client
	if a.cfg.Leads.Mode == config.LeadsModeWorkflow || serveWithWorkers {
		if zb, err = a.connectZeebe(); err != nil {
			return err
		}
		checks = append(checks, server.ReadinessCheck{Name: "zeebe", Check: zb.Ping})
	}

	var (
		sinks   []leads.Sink
		starter leads.ProcessStarter
	)
	switch a.cfg.Leads.Mode {
	case config.LeadsModeWorkflow:
		starter = zb
	case config.LeadsModeDirect:
		sinks = handlers.sinks()
	}

	dispatcher, err := leads.FromConfig(a.cfg.Leads, sinks, starter, a.log, a.obs)
	if err != nil {
		return err
	}

	if serveWithWorkers {
		workers := camunda.NewWorkerSet(zb.GetClient(), a.log)
		defer workers.Close()
		if err := handlers.register(workers); err != nil {
			return err
		}
	}

	srv, err := server.New(server.Options{
		Config:        a.cfg.Server,
		Content:       registry,
		Engine:        assessment.NewEngine(registry),
		Store:         assessments,
		Limiter:       limiter,
		Leads:         dispatcher,
		Checks:        checks,
		Logger:        a.log,
		Observability: a.obs,
	})
	if err != nil {
		return err
	}

	err = srv.Run(ctx)

	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	waitForDispatches(waitCtx, dispatcher, a.zapLog)

	a.zapLog.Info("aiq-server stopped gracefully")
	return err
}

// waitForDispatches lets in-flight lead hand-offs finish before the process exits.
func waitForDispatches(ctx context.Context, d *leads.Dispatcher, log *zap.Logger) {
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("Timed out waiting for lead dispatches")
	}
}
