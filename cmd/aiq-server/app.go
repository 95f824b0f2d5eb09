// cmd/aiq-server/app.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"aiq-assessment/internal/common/aws"
	"aiq-assessment/internal/common/camunda"
	"aiq-assessment/internal/common/config"
	"aiq-assessment/internal/common/database"
	"aiq-assessment/internal/common/logger"
	"aiq-assessment/internal/common/observability"
	"aiq-assessment/internal/content"
	"aiq-assessment/internal/leads"
	sendleadnotification "aiq-assessment/internal/workers/communication/send-lead-notification"
	syncassessmentcontact "aiq-assessment/internal/workers/crm/sync-assessment-contact"
	indexassessment "aiq-assessment/internal/workers/data-access/index-assessment"

	"go.uber.org/zap"
)

// app holds what every subcommand needs: configuration, logging and metrics.
type app struct {
	cfg    *config.Config
	zapLog *zap.Logger
	log    logger.Logger
	obs    *observability.Observability

	closers []func()
}

func newApp() (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	a := &app{
		cfg:    cfg,
		zapLog: zapLog,
		log:    logger.NewZapAdapter(zapLog),
	}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("OpenTelemetry metrics disabled", zap.Error(err))
	} else {
		a.obs = obs
		a.onClose(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = obs.Shutdown(ctx)
		})
	}

	return a, nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// close runs the registered closers in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.zapLog.Sync()
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func (a *app) connectPostgres(ctx context.Context) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(a.cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.PingOrClose(ctx)
	}, 10, 2*time.Second, a.zapLog, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}

	a.onClose(func() { _ = pg.Close() })
	a.zapLog.Info("PostgreSQL connected successfully")
	return pg, nil
}

func (a *app) connectRedis(ctx context.Context) (*database.RedisClient, error) {
	rdb := database.NewRedis(a.cfg.Database.Redis)
	err := retryWithBackoff(func() error {
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, a.zapLog, "Redis connection")
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	a.onClose(func() { _ = rdb.Close() })
	a.zapLog.Info("Redis connected successfully")
	return rdb, nil
}

// connectElasticsearch returns nil when no search cluster is configured.
func (a *app) connectElasticsearch(ctx context.Context) (*database.ElasticsearchClient, error) {
	if !a.cfg.Database.Elasticsearch.Enabled() {
		a.zapLog.Info("Elasticsearch not configured, search indexing disabled")
		return nil, nil
	}

	var es *database.ElasticsearchClient
	err := retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(a.cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, 10, 2*time.Second, a.zapLog, "Elasticsearch connection")
	if err != nil {
		return nil, err
	}

	a.zapLog.Info("Elasticsearch connected successfully")
	return es, nil
}

func (a *app) connectZeebe() (*camunda.Client, error) {
	var zb *camunda.Client
	err := retryWithBackoff(func() error {
		var err error
		zb, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         a.cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(a.cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, a.zapLog, "Zeebe client initialization")
	if err != nil {
		return nil, err
	}

	a.onClose(func() { _ = zb.Close() })
	a.zapLog.Info("Zeebe client connected successfully")
	return zb, nil
}

// loadContent reads the compiled-in packs, or the packs in dir when set, and rejects
// incomplete content.
func loadContent(dir string) (*content.Registry, error) {
	var (
		registry *content.Registry
		err      error
	)
	if dir != "" {
		registry, err = content.LoadDir(os.DirFS(dir))
	} else {
		registry, err = content.Load()
	}
	if err != nil {
		return nil, err
	}
	return registry, nil
}

// leadHandlers are the three lead steps. They run as Zeebe job workers or are called
// directly by the dispatcher.
type leadHandlers struct {
	crm    *syncassessmentcontact.Handler
	notify *sendleadnotification.Handler
	index  *indexassessment.Handler
}

func (a *app) newLeadHandlers(ctx context.Context, es *database.ElasticsearchClient) (*leadHandlers, error) {
	var (
		emailer   sendleadnotification.Emailer
		publisher sendleadnotification.EventPublisher
	)

	awsCfg := a.cfg.Integrations.AWS
	if awsCfg.SES.Enabled || awsCfg.SNS.Enabled {
		sdkCfg, err := aws.LoadConfig(ctx, awsCfg.Region)
		if err != nil {
			return nil, err
		}
		if awsCfg.SES.Enabled {
			emailer = aws.NewSESClient(sdkCfg)
		}
		if awsCfg.SNS.Enabled {
			publisher = aws.NewSNSClient(sdkCfg)
		}
	}

	crm, err := syncassessmentcontact.NewHandler(syncassessmentcontact.HandlerOptions{
		AppConfig:     a.cfg,
		Logger:        a.log,
		Observability: a.obs,
	})
	if err != nil {
		return nil, err
	}

	notify, err := sendleadnotification.NewHandler(sendleadnotification.HandlerOptions{
		AppConfig:     a.cfg,
		Logger:        a.log,
		Observability: a.obs,
		Emailer:       emailer,
		Publisher:     publisher,
	})
	if err != nil {
		return nil, err
	}

	index, err := indexassessment.NewHandler(indexassessment.HandlerOptions{
		AppConfig:     a.cfg,
		Logger:        a.log,
		Observability: a.obs,
		Elasticsearch: es,
	})
	if err != nil {
		return nil, err
	}

	return &leadHandlers{crm: crm, notify: notify, index: index}, nil
}

// sinks adapts the enabled handlers for direct dispatch.
func (h *leadHandlers) sinks() []leads.Sink {
	var out []leads.Sink
	if h.crm.IsEnabled() {
		out = append(out, leads.NewSink("crm", func(ctx context.Context, vars map[string]interface{}) error {
			_, err := h.crm.ExecuteVariables(ctx, vars)
			return err
		}))
	}
	if h.notify.IsEnabled() {
		out = append(out, leads.NewSink("notification", func(ctx context.Context, vars map[string]interface{}) error {
			_, err := h.notify.ExecuteVariables(ctx, vars)
			return err
		}))
	}
	if h.index.IsEnabled() {
		out = append(out, leads.NewSink("search", func(ctx context.Context, vars map[string]interface{}) error {
			_, err := h.index.ExecuteVariables(ctx, vars)
			return err
		}))
	}
	return out
}

func (h *leadHandlers) register(set *camunda.WorkerSet) error {
	if err := h.crm.Register(set); err != nil {
		return fmt.Errorf("register %s: %w", h.crm.GetTaskType(), err)
	}
	if err := h.notify.Register(set); err != nil {
		return fmt.Errorf("register %s: %w", h.notify.GetTaskType(), err)
	}
	if err := h.index.Register(set); err != nil {
		return fmt.Errorf("register %s: %w", h.index.GetTaskType(), err)
	}
	return nil
}
