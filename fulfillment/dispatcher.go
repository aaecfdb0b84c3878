// Package fulfillment provisions paid orders. Dispatch is keyed by the
// product's fulfillment kind through a registry resolved once at startup;
// orders for products without a fulfillment target are left untouched.
package fulfillment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/omnirevenue/agent/automation"
	"github.com/omnirevenue/agent/core"
)

// Fulfiller provisions one product family for a paid order and returns
// execution details for the automation log.
type Fulfiller interface {
	Fulfill(ctx context.Context, order core.Order, product core.Product) (map[string]any, error)
}

type FulfillerFunc func(ctx context.Context, order core.Order, product core.Product) (map[string]any, error)

func (f FulfillerFunc) Fulfill(ctx context.Context, order core.Order, product core.Product) (map[string]any, error) {
	return f(ctx, order, product)
}

type Dispatcher struct {
	orders   core.OrderStore
	recorder *automation.Recorder
	logger   core.Logger
	now      func() time.Time

	mu         sync.RWMutex
	fulfillers map[core.FulfillmentKind]Fulfiller
}

func NewDispatcher(orders core.OrderStore, recorder *automation.Recorder, logger core.Logger) *Dispatcher {
	return &Dispatcher{
		orders:   orders,
		recorder: recorder,
		logger:   logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
		fulfillers: map[core.FulfillmentKind]Fulfiller{},
	}
}

func (d *Dispatcher) Register(kind core.FulfillmentKind, fulfiller Fulfiller) error {
	if d == nil {
		return fmt.Errorf("fulfillment: dispatcher is nil")
	}
	if kind == "" || kind == core.FulfillmentKindNone {
		return fmt.Errorf("%w: %q", core.ErrInvalidFulfillmentKind, kind)
	}
	if fulfiller == nil {
		return fmt.Errorf("fulfillment: fulfiller is nil for kind %q", kind)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.fulfillers[kind]; exists {
		return fmt.Errorf("fulfillment: fulfiller already registered for kind %q", kind)
	}
	d.fulfillers[kind] = fulfiller
	return nil
}

// Dispatch resolves the fulfillment kind from the product and runs the
// registered fulfiller. Products without a fulfillment target are skipped
// with a warning and the order stays unfulfilled.
func (d *Dispatcher) Dispatch(ctx context.Context, order core.Order, product core.Product) error {
	if d == nil || d.orders == nil {
		return fmt.Errorf("fulfillment: dispatcher requires an order store")
	}
	if !product.RequiresFulfillment() {
		d.warn(ctx, "no fulfillment target for product", map[string]any{
			"order_id": order.ID,
			"sku":      order.SKU,
		})
		return nil
	}
	return d.DispatchKind(ctx, product.FulfillmentKind, order, product)
}

// DispatchKind runs a specific fulfiller, bypassing product resolution. The
// manual fulfillment endpoints use it to force a path for an order.
func (d *Dispatcher) DispatchKind(ctx context.Context, kind core.FulfillmentKind, order core.Order, product core.Product) (dispatchErr error) {
	if d == nil || d.orders == nil {
		return fmt.Errorf("fulfillment: dispatcher requires an order store")
	}
	d.mu.RLock()
	fulfiller, ok := d.fulfillers[kind]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: no fulfiller registered for %q", core.ErrInvalidFulfillmentKind, kind)
	}

	run := d.recorder.Begin(
		automation.AutomationFulfillment,
		runName(kind),
		map[string]any{"order_id": order.ID},
	)
	startedAt := d.now()
	defer func() {
		core.ObserveOperation(ctx, d.logger, startedAt, "fulfillment.dispatch", dispatchErr, map[string]any{
			"order_id": order.ID,
			"kind":     string(kind),
		})
	}()

	executionData, err := fulfiller.Fulfill(ctx, order, product)
	if err != nil {
		run.Fail(ctx, err)
		dispatchErr = fmt.Errorf("fulfillment: %s for order %s: %w", kind, order.ID, err)
		return dispatchErr
	}
	if _, err := d.orders.MarkFulfilled(ctx, order.ID, d.now()); err != nil {
		run.Fail(ctx, err)
		dispatchErr = fmt.Errorf("fulfillment: mark order %s fulfilled: %w", order.ID, err)
		return dispatchErr
	}

	run.Complete(ctx, executionData)
	return nil
}

func runName(kind core.FulfillmentKind) string {
	switch kind {
	case core.FulfillmentKindCopyKit:
		return "CopyKit Fulfillment"
	case core.FulfillmentKindBriefing:
		return "Briefing Fulfillment"
	default:
		return "Fulfillment"
	}
}

func (d *Dispatcher) warn(ctx context.Context, message string, fields map[string]any) {
	if d == nil || d.logger == nil {
		return
	}
	logger := d.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Warn(message)
}
