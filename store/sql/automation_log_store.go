package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/omnirevenue/agent/core"
	"github.com/uptrace/bun"
)

const defaultAutomationLogLimit = 50

type AutomationLogStore struct {
	db   *bun.DB
	repo repository.Repository[*automationLogRecord]
}

func NewAutomationLogStore(db *bun.DB) (*AutomationLogStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*automationLogRecord](db, automationLogHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid automation log repository wiring: %w", err)
		}
	}
	return &AutomationLogStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *AutomationLogStore) Append(ctx context.Context, in core.AppendAutomationLogInput) (core.AutomationLog, error) {
	if s == nil || s.db == nil {
		return core.AutomationLog{}, fmt.Errorf("sqlstore: automation log store is not configured")
	}
	in.AutomationID = strings.TrimSpace(in.AutomationID)
	in.AutomationName = strings.TrimSpace(in.AutomationName)
	if in.AutomationID == "" {
		return core.AutomationLog{}, fmt.Errorf("sqlstore: automation id is required")
	}
	if err := in.Status.Validate(); err != nil {
		return core.AutomationLog{}, err
	}
	if in.StartedAt.IsZero() {
		return core.AutomationLog{}, fmt.Errorf("sqlstore: automation run start time is required")
	}

	record := newAutomationLogRecord(in, time.Now().UTC())
	record.ID = uuid.NewString()
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.AutomationLog{}, err
	}
	return record.toDomain(), nil
}

func (s *AutomationLogStore) ListRecent(ctx context.Context, limit int) ([]core.AutomationLog, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: automation log store is not configured")
	}
	if limit <= 0 {
		limit = defaultAutomationLogLimit
	}
	records, _, err := s.repo.List(ctx,
		repository.OrderBy("started_at DESC"),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.AutomationLog, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
