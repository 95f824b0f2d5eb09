// internal/workers/communication/send-lead-notification/handler.go
package sendleadnotification

import (
	"context"
	"fmt"
	"time"

	"aiq-assessment/internal/common/camunda"
	"aiq-assessment/internal/common/config"
	"aiq-assessment/internal/common/errors"
	"aiq-assessment/internal/common/logger"
	"aiq-assessment/internal/common/metrics"
	"aiq-assessment/internal/common/observability"
	"aiq-assessment/internal/common/validation"
	"aiq-assessment/internal/workers/lead"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType  = "communication.lead.notify"
	ConfigKey = "send-lead-notification"
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	service      *Service
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Logger        logger.Logger
	Observability *observability.Observability
	Emailer       Emailer
	Publisher     EventPublisher
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", ConfigKey, err)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.With(map[string]interface{}{"worker": TaskType})

	handler := &Handler{
		config:       workerConfig,
		logger:       loggerInstance,
		errorHandler: errors.NewErrorHandler(loggerInstance),
		obs:          opts.Observability,
	}

	handler.service = NewService(ServiceDependencies{
		Logger:    loggerInstance,
		Emailer:   opts.Emailer,
		Publisher: opts.Publisher,
	}, handler.config)

	return handler, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing lead notification", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	if !h.config.Enabled {
		h.completeJob(ctx, client, job, &Output{
			Success: false,
			Message: "Lead notification disabled",
		})
		return
	}

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "completed")
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}

// ExecuteVariables validates lead variables and sends the notification.
func (h *Handler) ExecuteVariables(ctx context.Context, variables map[string]interface{}) (*Output, error) {
	input, err := parseVariables(variables)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidJobInputError(fmt.Sprintf("failed to parse job variables: %v", err))
	}
	return parseVariables(variables)
}

func parseVariables(variables map[string]interface{}) (*Input, error) {
	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewInvalidJobInputError(fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()))
	}

	return &Input{
		AssessmentID:    lead.String(variables, lead.VarAssessmentID),
		Industry:        lead.String(variables, lead.VarIndustry),
		Email:           lead.String(variables, lead.VarEmail),
		Name:            lead.String(variables, lead.VarName),
		Title:           lead.String(variables, lead.VarTitle),
		Company:         lead.String(variables, lead.VarCompany),
		SubmittedAt:     lead.String(variables, lead.VarSubmittedAt),
		TopPriorities:   lead.Strings(variables, lead.VarTopPriorities),
		PriorityNotes:   lead.String(variables, lead.VarPriorityNotes),
		TotalScore:      lead.Int(variables, lead.VarTotalScore),
		MaxScore:        lead.Int(variables, lead.VarMaxScore),
		PercentageScore: lead.Int(variables, lead.VarPercentageScore),
		CategoryScores:  lead.IntMap(variables, lead.VarCategoryScores),
		CategoryTiers:   lead.StringMap(variables, lead.VarCategoryTiers),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	variables := map[string]interface{}{
		"notificationSent":   output.Success,
		"leadEventPublished": output.EventPublished,
	}
	if output.MessageID != "" {
		variables["notificationId"] = output.MessageID
	}
	if output.EventID != "" {
		variables["leadEventId"] = output.EventID
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "failed")

	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) Register(set *camunda.WorkerSet) error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}

	return set.Open(camunda.WorkerOptions{
		TaskType:      TaskType,
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       h.config.Timeout,
	}, h.Handle)
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[ConfigKey]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
			}
		}

		ses := appConfig.Integrations.AWS.SES
		sns := appConfig.Integrations.AWS.SNS

		// Without SES there is nothing to deliver with.
		if !ses.Enabled {
			cfg.Enabled = false
		}
		cfg.FromEmail = ses.FromEmail
		cfg.SalesEmail = appConfig.Leads.SalesEmail
		cfg.SNSEnabled = sns.Enabled
		cfg.TopicARN = sns.TopicARN
	}

	return cfg
}
