package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/omnirevenue/agent/core"
	"github.com/uptrace/bun"
)

type KpiStore struct {
	db   *bun.DB
	repo repository.Repository[*kpiDailyRecord]
}

func NewKpiStore(db *bun.DB) (*KpiStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*kpiDailyRecord](db, kpiDailyHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid kpi repository wiring: %w", err)
		}
	}
	return &KpiStore{
		db:   db,
		repo: repo,
	}, nil
}

// Upsert writes the day row keyed on the UTC midnight of in.Date. Nil metric
// pointers leave the stored value alone so partial recomputes never zero out
// metrics another pipeline owns.
func (s *KpiStore) Upsert(ctx context.Context, in core.UpsertKpiInput) (core.KpiDaily, error) {
	if s == nil || s.db == nil {
		return core.KpiDaily{}, fmt.Errorf("sqlstore: kpi store is not configured")
	}
	if in.Date.IsZero() {
		return core.KpiDaily{}, fmt.Errorf("sqlstore: kpi date is required")
	}
	day := in.Date.UTC().Truncate(24 * time.Hour)
	now := time.Now().UTC()

	var out core.KpiDaily
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &kpiDailyRecord{}
		findErr := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.date = ?", day).
			Limit(1).
			Scan(ctx)
		if findErr != nil && findErr != sql.ErrNoRows {
			return findErr
		}
		if findErr == sql.ErrNoRows {
			existing = &kpiDailyRecord{
				ID:        uuid.NewString(),
				Date:      day,
				CreatedAt: now,
				UpdatedAt: now,
			}
			applyKpiInput(existing, in)
			_, createErr := tx.NewInsert().Model(existing).Exec(ctx)
			if createErr != nil {
				return createErr
			}
			out = existing.toDomain()
			return nil
		}

		applyKpiInput(existing, in)
		existing.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().
			Model(existing).
			Where("id = ?", existing.ID).
			Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = existing.toDomain()
		return nil
	})
	if err != nil {
		return core.KpiDaily{}, err
	}
	return out, nil
}

func (s *KpiStore) ListRecent(ctx context.Context, days int) ([]core.KpiDaily, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: kpi store is not configured")
	}
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.date >= ?", since)
		}),
		repository.OrderBy("date DESC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.KpiDaily, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func applyKpiInput(record *kpiDailyRecord, in core.UpsertKpiInput) {
	if record == nil {
		return
	}
	if in.Visitors != nil {
		record.Visitors = *in.Visitors
	}
	if in.Leads != nil {
		record.Leads = *in.Leads
	}
	if in.Orders != nil {
		record.Orders = *in.Orders
	}
	if in.Gross != nil {
		record.Gross = *in.Gross
	}
	if in.Net != nil {
		record.Net = *in.Net
	}
	if in.Refunds != nil {
		record.Refunds = *in.Refunds
	}
	if in.Conversion != nil {
		record.Conversion = *in.Conversion
	}
}
