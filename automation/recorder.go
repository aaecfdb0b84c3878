package automation

import (
	"context"
	"time"

	"github.com/omnirevenue/agent/core"
)

const (
	AutomationLeadIntake  = "A1-lead-intake"
	AutomationCheckout    = "A2-checkout-webhooks"
	AutomationBriefing    = "A3-briefing-daily"
	AutomationFulfillment = "A4-copykit-fulfilment"
)

// Recorder appends automation run outcomes to the audit log. The terminal
// methods return the store error so callers on the webhook path can fail the
// delivery when the audit write is lost; pipeline callers are free to log
// and continue.
type Recorder struct {
	store  core.AutomationLogStore
	logger core.Logger
	now    func() time.Time
}

func NewRecorder(store core.AutomationLogStore, logger core.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the recorder clock. Test hook.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	if r != nil && now != nil {
		r.now = now
	}
	return r
}

// Run tracks a single automation execution from Begin to one of the
// terminal outcomes.
type Run struct {
	recorder       *Recorder
	automationID   string
	automationName string
	triggerData    map[string]any
	startedAt      time.Time
}

func (r *Recorder) Begin(automationID, automationName string, triggerData map[string]any) *Run {
	run := &Run{
		recorder:       r,
		automationID:   automationID,
		automationName: automationName,
		triggerData:    triggerData,
	}
	if r != nil {
		run.startedAt = r.now()
	} else {
		run.startedAt = time.Now().UTC()
	}
	return run
}

func (run *Run) StartedAt() time.Time {
	if run == nil {
		return time.Time{}
	}
	return run.startedAt
}

func (run *Run) Complete(ctx context.Context, executionData map[string]any) error {
	return run.append(ctx, core.AutomationRunCompleted, executionData, nil)
}

func (run *Run) Partial(ctx context.Context, executionData map[string]any, cause error) error {
	return run.append(ctx, core.AutomationRunPartial, executionData, cause)
}

func (run *Run) Fail(ctx context.Context, cause error) error {
	return run.append(ctx, core.AutomationRunFailed, nil, cause)
}

func (run *Run) append(ctx context.Context, status core.AutomationRunStatus, executionData map[string]any, cause error) error {
	if run == nil || run.recorder == nil || run.recorder.store == nil {
		return nil
	}
	recorder := run.recorder
	completedAt := recorder.now()
	input := core.AppendAutomationLogInput{
		AutomationID:   run.automationID,
		AutomationName: run.automationName,
		Status:         status,
		TriggerData:    run.triggerData,
		ExecutionData:  executionData,
		StartedAt:      run.startedAt,
		CompletedAt:    &completedAt,
	}
	if cause != nil {
		input.ErrorMessage = cause.Error()
	}
	if _, err := recorder.store.Append(ctx, input); err != nil {
		recorder.warn(ctx, "automation log append failed", map[string]any{
			"automation_id": run.automationID,
			"status":        string(status),
			"error":         err.Error(),
		})
		return err
	}
	return nil
}

func (r *Recorder) warn(ctx context.Context, message string, fields map[string]any) {
	if r == nil || r.logger == nil {
		return
	}
	logger := r.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Warn(message)
}
