// internal/common/camunda/worker.go
package camunda

import (
	"fmt"
	"sync"
	"time"

	"aiq-assessment/internal/common/logger"
	"aiq-assessment/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// WorkerOptions configures one job worker subscription.
type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

// WorkerSet opens job workers against a shared client and closes them together.
// It does not own the client.
type WorkerSet struct {
	client zbc.Client
	logger logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewWorkerSet(client zbc.Client, log logger.Logger) *WorkerSet {
	return &WorkerSet{
		client:  client,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Open subscribes handler to opts.TaskType. A task type can only be opened once.
func (s *WorkerSet) Open(opts WorkerOptions, handler worker.JobHandler) error {
	if err := validation.ValidateTaskType(opts.TaskType); err != nil {
		return err
	}
	if opts.MaxJobsActive <= 0 {
		return fmt.Errorf("max jobs active must be positive for %s", opts.TaskType)
	}
	if opts.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive for %s", opts.TaskType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workers[opts.TaskType]; exists {
		return fmt.Errorf("worker for %s already open", opts.TaskType)
	}

	s.workers[opts.TaskType] = s.client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(handler).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Name(fmt.Sprintf("%s-worker", opts.TaskType)).
		Open()

	s.logger.Info("worker registered with Camunda", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})
	return nil
}

// TaskTypes lists the open subscriptions.
func (s *WorkerSet) TaskTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.workers))
	for taskType := range s.workers {
		out = append(out, taskType)
	}
	return out
}

// Close stops every worker and waits for in-flight jobs.
func (s *WorkerSet) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for taskType, w := range s.workers {
		s.logger.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		w.Close()
		w.AwaitClose()
		delete(s.workers, taskType)
	}
}
