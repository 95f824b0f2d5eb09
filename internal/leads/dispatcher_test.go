package leads

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"aiq-assessment/internal/assessment"
	"aiq-assessment/internal/common/config"
	"aiq-assessment/internal/common/errors"
	"aiq-assessment/internal/common/logger"
	"aiq-assessment/internal/common/metrics"
	"aiq-assessment/internal/workers/lead"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Doubles
// ==========================

type recordingSink struct {
	name string
	err  error

	mu    sync.Mutex
	calls []map[string]interface{}
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, variables map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, variables)
	return s.err
}

func (s *recordingSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type MockStarter struct {
	mock.Mock
}

func (m *MockStarter) StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error) {
	args := m.Called(ctx, processID, variables)
	return args.Get(0).(int64), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func createTestResult() *assessment.Result {
	return &assessment.Result{
		Submission: &assessment.Submission{
			ID:               "a-300",
			Industry:         assessment.IndustryLegal,
			Email:            "jordan@firm.example",
			Company:          "Firm LLP",
			ConsentGiven:     true,
			ConsentTimestamp: "2024-03-01T08:59:00Z",
			SubmittedAt:      "2024-03-01T09:00:00Z",
			TopPriorities:    []string{"analytics"},
		},
		TotalScore:      82,
		MaxScore:        135,
		PercentageScore: 61,
		CategoryScores: map[assessment.Category]assessment.CategoryScore{
			assessment.CategoryOrganizationFoundations: {Score: 36, MaxScore: 60, Tier: assessment.TierDeveloping},
		},
	}
}

func newTestDispatcher(t *testing.T, opts Options) *Dispatcher {
	t.Helper()
	opts.Logger = logger.NewTestLogger(t)
	d, err := NewDispatcher(opts)
	require.NoError(t, err)
	return d
}

// ==========================
// Construction Tests
// ==========================

func TestNewDispatcher(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		errMsg  string
		mode    string
		process string
	}{
		{name: "defaults to direct", opts: Options{}, mode: config.LeadsModeDirect, process: DefaultProcessID},
		{name: "disabled", opts: Options{Mode: config.LeadsModeDisabled}, mode: config.LeadsModeDisabled, process: DefaultProcessID},
		{
			name:    "workflow with starter",
			opts:    Options{Mode: config.LeadsModeWorkflow, ProcessID: "custom-intake", Starter: &MockStarter{}},
			mode:    config.LeadsModeWorkflow,
			process: "custom-intake",
		},
		{name: "workflow without starter", opts: Options{Mode: config.LeadsModeWorkflow}, errMsg: "requires a workflow client"},
		{name: "unknown mode", opts: Options{Mode: "kafka"}, errMsg: "unknown leads mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDispatcher(tt.opts)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, d.Mode())
			assert.Equal(t, tt.process, d.processID)
			assert.Equal(t, DefaultTimeout, d.timeout)
		})
	}
}

func TestFromConfig(t *testing.T) {
	d, err := FromConfig(config.LeadsConfig{Mode: config.LeadsModeDirect, Timeout: 2500}, nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, d.timeout)
}

// ==========================
// Direct Mode Tests
// ==========================

func TestRun_DirectDeliversToEverySink(t *testing.T) {
	crm := &recordingSink{name: "crm-direct-ok"}
	search := &recordingSink{name: "search-direct-ok"}
	d := newTestDispatcher(t, Options{Sinks: []Sink{crm, search}})

	require.NoError(t, d.Run(context.Background(), createTestResult()))

	require.Equal(t, 1, crm.callCount())
	require.Equal(t, 1, search.callCount())
	vars := crm.calls[0]
	assert.Equal(t, "a-300", vars[lead.VarAssessmentID])
	assert.Equal(t, "legal", vars[lead.VarIndustry])
	assert.Equal(t, 61, vars[lead.VarPercentageScore])
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LeadDispatchTotal.WithLabelValues("crm-direct-ok", "success")))
}

func TestRun_DirectFailureDoesNotStopOtherSinks(t *testing.T) {
	failing := &recordingSink{name: "crm-direct-fail", err: stderrors.New("hubspot down")}
	notify := &recordingSink{name: "notify-direct-fail"}
	d := newTestDispatcher(t, Options{Sinks: []Sink{failing, notify}})

	err := d.Run(context.Background(), createTestResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm-direct-fail: hubspot down")

	assert.Equal(t, 1, notify.callCount())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LeadDispatchTotal.WithLabelValues("crm-direct-fail", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LeadDispatchTotal.WithLabelValues("notify-direct-fail", "success")))
}

func TestRun_DirectJoinsSinkErrorsInConfiguredOrder(t *testing.T) {
	errCRM := stderrors.New("hubspot down")
	errSearch := stderrors.New("cluster red")

	slow := NewSink("crm-joined", func(context.Context, map[string]interface{}) error {
		time.Sleep(30 * time.Millisecond)
		return errCRM
	})
	fast := &recordingSink{name: "search-joined", err: errSearch}
	ok := &recordingSink{name: "notify-joined"}
	d := newTestDispatcher(t, Options{Sinks: []Sink{slow, ok, fast}})

	err := d.Run(context.Background(), createTestResult())
	require.Error(t, err)
	assert.ErrorIs(t, err, errCRM)
	assert.ErrorIs(t, err, errSearch)
	assert.Equal(t, "crm-joined: hubspot down\nsearch-joined: cluster red", err.Error())
	assert.Equal(t, 1, ok.callCount())
}

func TestRun_DirectRecoversSinkPanic(t *testing.T) {
	panicking := NewSink("panic-sink", func(context.Context, map[string]interface{}) error {
		panic("boom")
	})
	d := newTestDispatcher(t, Options{Sinks: []Sink{panicking}})

	err := d.Run(context.Background(), createTestResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink panicked: boom")
}

func TestRun_DirectWithoutSinks(t *testing.T) {
	d := newTestDispatcher(t, Options{})
	assert.NoError(t, d.Run(context.Background(), createTestResult()))
}

func TestRun_Disabled(t *testing.T) {
	sink := &recordingSink{name: "disabled-sink"}
	d := newTestDispatcher(t, Options{Mode: config.LeadsModeDisabled, Sinks: []Sink{sink}})

	assert.NoError(t, d.Run(context.Background(), createTestResult()))
	d.Dispatch(createTestResult())
	d.Wait()
	assert.Equal(t, 0, sink.callCount())
}

// ==========================
// Workflow Mode Tests
// ==========================

func TestRun_WorkflowStartsProcess(t *testing.T) {
	starter := &MockStarter{}
	starter.On("StartProcess", mock.Anything, DefaultProcessID, mock.MatchedBy(func(vars map[string]interface{}) bool {
		return vars[lead.VarAssessmentID] == "a-300" && vars[lead.VarEmail] == "jordan@firm.example"
	})).Return(int64(2251799813685249), nil)

	d := newTestDispatcher(t, Options{Mode: config.LeadsModeWorkflow, Starter: starter})

	require.NoError(t, d.Run(context.Background(), createTestResult()))
	starter.AssertExpectations(t)
}

func TestRun_WorkflowStartFailure(t *testing.T) {
	starter := &MockStarter{}
	starter.On("StartProcess", mock.Anything, DefaultProcessID, mock.Anything).
		Return(int64(0), stderrors.New("broker unavailable"))

	d := newTestDispatcher(t, Options{Mode: config.LeadsModeWorkflow, Starter: starter})

	err := d.Run(context.Background(), createTestResult())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeWorkflowStartFailed))
}

// ==========================
// Async Dispatch Tests
// ==========================

func TestDispatch_ReturnsBeforeSinksFinish(t *testing.T) {
	release := make(chan struct{})
	delivered := make(chan struct{})
	slow := NewSink("slow-sink", func(ctx context.Context, _ map[string]interface{}) error {
		<-release
		close(delivered)
		return nil
	})
	d := newTestDispatcher(t, Options{Sinks: []Sink{slow}})

	d.Dispatch(createTestResult())

	select {
	case <-delivered:
		t.Fatal("sink finished before it was released")
	default:
	}

	close(release)
	d.Wait()

	select {
	case <-delivered:
	default:
		t.Fatal("sink did not run")
	}
}

func TestDispatch_AppliesTimeout(t *testing.T) {
	var gotErr error
	blocking := NewSink("blocking-sink", func(ctx context.Context, _ map[string]interface{}) error {
		<-ctx.Done()
		gotErr = ctx.Err()
		return gotErr
	})
	d := newTestDispatcher(t, Options{Sinks: []Sink{blocking}, Timeout: 20 * time.Millisecond})

	d.Dispatch(createTestResult())
	d.Wait()

	assert.ErrorIs(t, gotErr, context.DeadlineExceeded)
}

func TestDispatch_IgnoresMissingSubmission(t *testing.T) {
	sink := &recordingSink{name: "nil-submission-sink"}
	d := newTestDispatcher(t, Options{Sinks: []Sink{sink}})

	d.Dispatch(nil)
	d.Dispatch(&assessment.Result{})
	d.Wait()

	assert.Equal(t, 0, sink.callCount())
}
