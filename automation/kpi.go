package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/omnirevenue/agent/core"
)

// KpiRecompute rebuilds today's KPI row from the lead and order records.
type KpiRecompute struct {
	leads  core.LeadStore
	orders core.OrderStore
	kpi    core.KpiStore
	now    func() time.Time
}

func NewKpiRecompute(leads core.LeadStore, orders core.OrderStore, kpi core.KpiStore) *KpiRecompute {
	return &KpiRecompute{
		leads:  leads,
		orders: orders,
		kpi:    kpi,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the recompute clock. Test hook.
func (k *KpiRecompute) WithClock(now func() time.Time) *KpiRecompute {
	if k != nil && now != nil {
		k.now = now
	}
	return k
}

// RecomputeToday counts today's leads and orders, sums gross revenue, and
// upserts the day's KPI row. Counter fields not derivable from the store
// (visitors, conversion) are left untouched.
func (k *KpiRecompute) RecomputeToday(ctx context.Context) (core.KpiDaily, error) {
	if k == nil || k.leads == nil || k.orders == nil || k.kpi == nil {
		return core.KpiDaily{}, fmt.Errorf("automation: kpi recompute requires lead, order and kpi stores")
	}
	now := k.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	leadCount, err := k.leads.CountSince(ctx, midnight)
	if err != nil {
		return core.KpiDaily{}, fmt.Errorf("automation: count leads since %s: %w", midnight.Format("2006-01-02"), err)
	}
	orders, err := k.orders.ListSince(ctx, midnight)
	if err != nil {
		return core.KpiDaily{}, fmt.Errorf("automation: list orders since %s: %w", midnight.Format("2006-01-02"), err)
	}

	orderCount := len(orders)
	gross := 0.0
	refunds := 0
	for _, order := range orders {
		gross += order.Amount
		if order.Status == core.OrderStatusRefunded {
			refunds++
		}
	}

	row, err := k.kpi.Upsert(ctx, core.UpsertKpiInput{
		Date:    midnight,
		Leads:   &leadCount,
		Orders:  &orderCount,
		Gross:   &gross,
		Refunds: &refunds,
	})
	if err != nil {
		return core.KpiDaily{}, fmt.Errorf("automation: upsert kpi for %s: %w", midnight.Format("2006-01-02"), err)
	}
	return row, nil
}
