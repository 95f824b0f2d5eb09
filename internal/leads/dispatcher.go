// internal/leads/dispatcher.go
// Package leads hands a scored submission to the lead pipeline after it has been stored:
// CRM sync, sales notification and search indexing.
package leads

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"aiq-assessment/internal/assessment"
	"aiq-assessment/internal/common/config"
	"aiq-assessment/internal/common/errors"
	"aiq-assessment/internal/common/logger"
	"aiq-assessment/internal/common/metrics"
	"aiq-assessment/internal/common/observability"
	"aiq-assessment/internal/workers/lead"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultProcessID = "aiq-lead-intake"
	DefaultTimeout   = 30 * time.Second

	workflowSink = "workflow"
)

// Sink is one direct-mode destination for lead variables.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, variables map[string]interface{}) error
}

type funcSink struct {
	name string
	fn   func(ctx context.Context, variables map[string]interface{}) error
}

func (s funcSink) Name() string { return s.name }

func (s funcSink) Deliver(ctx context.Context, variables map[string]interface{}) error {
	return s.fn(ctx, variables)
}

// NewSink adapts fn into a named Sink.
func NewSink(name string, fn func(ctx context.Context, variables map[string]interface{}) error) Sink {
	return funcSink{name: name, fn: fn}
}

// ProcessStarter creates workflow instances. *camunda.Client satisfies it.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error)
}

type Options struct {
	Mode          string
	ProcessID     string
	Timeout       time.Duration
	Sinks         []Sink
	Starter       ProcessStarter
	Logger        logger.Logger
	Observability *observability.Observability
}

// Dispatcher runs lead hand-offs in the background. Failures are logged and counted and
// never reach the submitter.
type Dispatcher struct {
	mode      string
	processID string
	timeout   time.Duration
	sinks     []Sink
	starter   ProcessStarter
	logger    logger.Logger
	obs       *observability.Observability

	wg sync.WaitGroup
}

func NewDispatcher(opts Options) (*Dispatcher, error) {
	mode := opts.Mode
	if mode == "" {
		mode = config.LeadsModeDirect
	}

	switch mode {
	case config.LeadsModeDirect, config.LeadsModeDisabled:
	case config.LeadsModeWorkflow:
		if opts.Starter == nil {
			return nil, fmt.Errorf("leads mode %q requires a workflow client", mode)
		}
	default:
		return nil, fmt.Errorf("unknown leads mode %q", mode)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	d := &Dispatcher{
		mode:      mode,
		processID: opts.ProcessID,
		timeout:   opts.Timeout,
		sinks:     opts.Sinks,
		starter:   opts.Starter,
		logger:    log.With(map[string]interface{}{"component": "leads", "mode": mode}),
		obs:       opts.Observability,
	}
	if d.processID == "" {
		d.processID = DefaultProcessID
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	return d, nil
}

// FromConfig builds a dispatcher from the leads section.
func FromConfig(cfg config.LeadsConfig, sinks []Sink, starter ProcessStarter, log logger.Logger, obs *observability.Observability) (*Dispatcher, error) {
	return NewDispatcher(Options{
		Mode:          cfg.Mode,
		ProcessID:     cfg.ProcessID,
		Timeout:       time.Duration(cfg.Timeout) * time.Millisecond,
		Sinks:         sinks,
		Starter:       starter,
		Logger:        log,
		Observability: obs,
	})
}

func (d *Dispatcher) Mode() string {
	return d.mode
}

// Dispatch starts the hand-off for result and returns immediately.
func (d *Dispatcher) Dispatch(result *assessment.Result) {
	if d.mode == config.LeadsModeDisabled || result == nil || result.Submission == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("Lead dispatch panicked", map[string]interface{}{
					"assessmentId": result.Submission.ID,
					"panic":        fmt.Sprint(r),
				})
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		_ = d.Run(ctx, result)
	}()
}

// Wait blocks until every in-flight dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Run performs the hand-off synchronously and reports the combined failure, if any.
func (d *Dispatcher) Run(ctx context.Context, result *assessment.Result) error {
	start := time.Now()
	variables := lead.FromResult(result)

	var err error
	switch d.mode {
	case config.LeadsModeDisabled:
		return nil
	case config.LeadsModeWorkflow:
		err = d.startWorkflow(ctx, variables)
	default:
		err = d.deliver(ctx, variables)
	}

	status := "success"
	if err != nil {
		status = "failed"
	}
	d.obs.RecordDispatch(ctx, d.mode, time.Since(start), status)

	return err
}

func (d *Dispatcher) startWorkflow(ctx context.Context, variables map[string]interface{}) error {
	key, err := d.starter.StartProcess(ctx, d.processID, variables)
	if err != nil {
		metrics.LeadDispatchTotal.WithLabelValues(workflowSink, "failed").Inc()
		d.logger.Error("Failed to start lead intake process", map[string]interface{}{
			"assessmentId": variables[lead.VarAssessmentID],
			"processId":    d.processID,
			"error":        err.Error(),
		})
		if _, ok := errors.AsStandardError(err); ok {
			return err
		}
		return errors.NewWorkflowStartFailedError(d.processID, err)
	}

	metrics.LeadDispatchTotal.WithLabelValues(workflowSink, "success").Inc()
	d.logger.Info("Lead intake process started", map[string]interface{}{
		"assessmentId":       variables[lead.VarAssessmentID],
		"processInstanceKey": key,
	})
	return nil
}

// deliver fans out to every sink. One failing sink does not cancel the others.
func (d *Dispatcher) deliver(ctx context.Context, variables map[string]interface{}) error {
	if len(d.sinks) == 0 {
		d.logger.Debug("No lead sinks configured", nil)
		return nil
	}

	// Goroutines always return nil so one failing sink never cancels or hides the
	// others; each sink's error lands in its own slot, in configured order.
	var g errgroup.Group
	errs := make([]error, len(d.sinks))

	for i, sink := range d.sinks {
		i, sink := i, sink
		g.Go(func() error {
			if err := d.deliverOne(ctx, sink, variables); err != nil {
				errs[i] = fmt.Errorf("%s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return stderrors.Join(errs...)
}

func (d *Dispatcher) deliverOne(ctx context.Context, sink Sink, variables map[string]interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}

		outcome := "success"
		if err != nil {
			outcome = "failed"
			d.logger.Warn("Lead sink failed", map[string]interface{}{
				"sink":         sink.Name(),
				"assessmentId": variables[lead.VarAssessmentID],
				"error":        err.Error(),
			})
		}
		metrics.LeadDispatchTotal.WithLabelValues(sink.Name(), outcome).Inc()
	}()

	return sink.Deliver(ctx, variables)
}
