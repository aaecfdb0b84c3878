package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omnirevenue/agent/core"
)

// DefaultBriefingSchedule runs the briefing daily at 07:00.
const DefaultBriefingSchedule = "0 7 * * *"

// Scheduler runs the recurring automations on cron expressions. Jobs get a
// bounded context so a hung external call cannot wedge the schedule.
type Scheduler struct {
	cron       *cron.Cron
	logger     core.Logger
	jobTimeout time.Duration
}

func NewScheduler(logger core.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		logger:     logger,
		jobTimeout: 15 * time.Minute,
	}
}

func (s *Scheduler) Schedule(spec, name string, job func(ctx context.Context) error) error {
	if s == nil || s.cron == nil {
		return fmt.Errorf("automation: scheduler is not configured")
	}
	if job == nil {
		return fmt.Errorf("automation: job %q is nil", name)
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			s.logWarn(ctx, "scheduled job failed", map[string]any{"job": name, "error": err.Error()})
			return
		}
		s.logInfo(ctx, "scheduled job finished", map[string]any{"job": name})
	})
	if err != nil {
		return fmt.Errorf("automation: schedule %q with spec %q: %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	if s != nil && s.cron != nil {
		s.cron.Start()
	}
}

// Stop halts scheduling and returns once running jobs have finished.
func (s *Scheduler) Stop() {
	if s != nil && s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) logInfo(ctx context.Context, message string, fields map[string]any) {
	s.emit(ctx, message, fields, false)
}

func (s *Scheduler) logWarn(ctx context.Context, message string, fields map[string]any) {
	s.emit(ctx, message, fields, true)
}

func (s *Scheduler) emit(ctx context.Context, message string, fields map[string]any, warn bool) {
	if s == nil || s.logger == nil {
		return
	}
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	if warn {
		logger.Warn(message)
		return
	}
	logger.Info(message)
}
