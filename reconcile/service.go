// Package reconcile applies normalized gateway events to the order and
// subscription records: the state machine behind both webhook endpoints.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/omnirevenue/agent/automation"
	"github.com/omnirevenue/agent/core"
	"github.com/omnirevenue/agent/fulfillment"

	goerrors "github.com/goliatone/go-errors"
)

type Service struct {
	orders        core.OrderStore
	subscriptions core.SubscriptionStore
	products      core.ProductStore
	dispatcher    *fulfillment.Dispatcher
	recorder      *automation.Recorder
	logger        core.Logger
	now           func() time.Time
}

type Config struct {
	Orders        core.OrderStore
	Subscriptions core.SubscriptionStore
	Products      core.ProductStore
	Dispatcher    *fulfillment.Dispatcher
	Recorder      *automation.Recorder
	Logger        core.Logger
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Orders == nil || cfg.Subscriptions == nil || cfg.Products == nil {
		return nil, fmt.Errorf("reconcile: order, subscription and product stores are required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("reconcile: fulfillment dispatcher is required")
	}
	return &Service{
		orders:        cfg.Orders,
		subscriptions: cfg.Subscriptions,
		products:      cfg.Products,
		dispatcher:    cfg.Dispatcher,
		recorder:      cfg.Recorder,
		logger:        cfg.Logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// HandleCheckoutCompleted creates the order, resolves the product by SKU,
// and dispatches fulfillment when the product declares a target. Every step
// after order creation runs synchronously so the gateway sees a 500 and
// retries on failure.
func (s *Service) HandleCheckoutCompleted(ctx context.Context, event core.GatewayEvent) error {
	checkout := event.Checkout
	if checkout == nil {
		return fmt.Errorf("reconcile: checkout payload is required for %s", event.Type)
	}

	run := s.recorder.Begin(
		automation.AutomationCheckout,
		checkoutRunName(event.Gateway),
		map[string]any{
			"delivery_id":    event.DeliveryID,
			"transaction_id": checkout.TransactionID,
		},
	)

	order, err := s.orders.Create(ctx, core.CreateOrderInput{
		Gateway:              event.Gateway,
		GatewayTransactionID: checkout.TransactionID,
		Amount:               checkout.Amount,
		BuyerEmail:           checkout.BuyerEmail,
		BuyerName:            checkout.BuyerName,
		SKU:                  checkout.SKU,
		RawMetadata:          event.Raw,
	})
	if err != nil {
		if goerrors.Is(err, core.ErrDuplicateOrder) {
			run.Fail(ctx, err)
			return core.MapError(err)
		}
		run.Fail(ctx, err)
		return fmt.Errorf("reconcile: create order for %s/%s: %w", event.Gateway, checkout.TransactionID, err)
	}

	product, err := s.products.FindBySKU(ctx, order.SKU)
	switch {
	case goerrors.Is(err, core.ErrProductNotFound):
		s.warn(ctx, "no product on record for sku", map[string]any{
			"order_id": order.ID,
			"sku":      order.SKU,
		})
	case err != nil:
		run.Fail(ctx, err)
		return fmt.Errorf("reconcile: resolve product %q: %w", order.SKU, err)
	case product.RequiresFulfillment():
		if err := s.dispatcher.Dispatch(ctx, order, product); err != nil {
			run.Fail(ctx, err)
			return err
		}
	}

	if err := run.Complete(ctx, map[string]any{"order_id": order.ID}); err != nil {
		return fmt.Errorf("reconcile: record checkout run for order %s: %w", order.ID, err)
	}
	s.info(ctx, "order created", map[string]any{
		"order_id":    order.ID,
		"gateway":     string(order.Gateway),
		"buyer_email": order.BuyerEmail,
		"sku":         order.SKU,
	})
	return nil
}

func (s *Service) HandleSubscriptionCreated(ctx context.Context, event core.GatewayEvent) error {
	subscription := event.Subscription
	if subscription == nil {
		return fmt.Errorf("reconcile: subscription payload is required for %s", event.Type)
	}
	created, err := s.subscriptions.Create(ctx, core.CreateSubscriptionInput{
		Gateway:               event.Gateway,
		GatewaySubscriptionID: subscription.SubscriptionID,
		CustomerEmail:         subscription.CustomerEmail,
		SKU:                   subscription.SKU,
		Status:                subscription.Status,
		CurrentPeriodStart:    subscription.CurrentPeriodStart,
		CurrentPeriodEnd:      subscription.CurrentPeriodEnd,
		CancelAtPeriodEnd:     subscription.CancelAtPeriodEnd,
	})
	if err != nil {
		return fmt.Errorf("reconcile: create subscription %s/%s: %w", event.Gateway, subscription.SubscriptionID, err)
	}
	s.info(ctx, "subscription created", map[string]any{
		"subscription_id": created.ID,
		"gateway":         string(event.Gateway),
		"sku":             created.SKU,
	})
	return nil
}

// HandleSubscriptionUpdated refreshes status and period fields in place.
// An update arriving before its created event no-ops.
func (s *Service) HandleSubscriptionUpdated(ctx context.Context, event core.GatewayEvent) error {
	subscription := event.Subscription
	if subscription == nil {
		return fmt.Errorf("reconcile: subscription payload is required for %s", event.Type)
	}
	existing, err := s.subscriptions.FindByGatewayID(ctx, event.Gateway, subscription.SubscriptionID)
	if goerrors.Is(err, core.ErrSubscriptionNotFound) {
		s.warn(ctx, "subscription update for unknown subscription", map[string]any{
			"gateway":                 string(event.Gateway),
			"gateway_subscription_id": subscription.SubscriptionID,
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconcile: find subscription %s/%s: %w", event.Gateway, subscription.SubscriptionID, err)
	}
	if _, err := s.subscriptions.Update(ctx, existing.ID, core.UpdateSubscriptionInput{
		Status:             subscription.Status,
		CurrentPeriodStart: subscription.CurrentPeriodStart,
		CurrentPeriodEnd:   subscription.CurrentPeriodEnd,
		CancelAtPeriodEnd:  subscription.CancelAtPeriodEnd,
	}); err != nil {
		return fmt.Errorf("reconcile: update subscription %s: %w", existing.ID, err)
	}
	return nil
}

// HandleSubscriptionCancelled marks the subscription cancelled and stamps
// the cancellation time regardless of prior status.
func (s *Service) HandleSubscriptionCancelled(ctx context.Context, event core.GatewayEvent) error {
	subscription := event.Subscription
	if subscription == nil {
		return fmt.Errorf("reconcile: subscription payload is required for %s", event.Type)
	}
	existing, err := s.subscriptions.FindByGatewayID(ctx, event.Gateway, subscription.SubscriptionID)
	if goerrors.Is(err, core.ErrSubscriptionNotFound) {
		s.warn(ctx, "cancellation for unknown subscription", map[string]any{
			"gateway":                 string(event.Gateway),
			"gateway_subscription_id": subscription.SubscriptionID,
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconcile: find subscription %s/%s: %w", event.Gateway, subscription.SubscriptionID, err)
	}
	if _, err := s.subscriptions.Cancel(ctx, existing.ID, s.now()); err != nil {
		return fmt.Errorf("reconcile: cancel subscription %s: %w", existing.ID, err)
	}
	s.info(ctx, "subscription cancelled", map[string]any{
		"subscription_id": existing.ID,
		"gateway":         string(event.Gateway),
	})
	return nil
}

func (s *Service) HandleRefund(ctx context.Context, event core.GatewayEvent) error {
	if event.Refund == nil {
		return fmt.Errorf("reconcile: refund payload is required for %s", event.Type)
	}
	return s.transitionOrder(ctx, event.Gateway, event.Refund.TransactionID, core.OrderStatusRefunded)
}

func (s *Service) HandleDispute(ctx context.Context, event core.GatewayEvent) error {
	if event.Dispute == nil {
		return fmt.Errorf("reconcile: dispute payload is required for %s", event.Type)
	}
	return s.transitionOrder(ctx, event.Gateway, event.Dispute.TransactionID, core.OrderStatusDisputed)
}

// transitionOrder moves a matched order into a terminal state. A missing
// match no-ops so refunds for transactions this service never saw do not
// force gateway retries.
func (s *Service) transitionOrder(ctx context.Context, gateway core.Gateway, transactionID string, status core.OrderStatus) error {
	order, err := s.orders.FindByTransaction(ctx, gateway, transactionID)
	if goerrors.Is(err, core.ErrOrderNotFound) {
		s.warn(ctx, "order transition for unknown transaction", map[string]any{
			"gateway":        string(gateway),
			"transaction_id": transactionID,
			"status":         string(status),
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconcile: find order %s/%s: %w", gateway, transactionID, err)
	}
	if _, err := s.orders.UpdateStatus(ctx, order.ID, status); err != nil {
		return fmt.Errorf("reconcile: set order %s to %s: %w", order.ID, status, err)
	}
	s.info(ctx, "order status updated", map[string]any{
		"order_id": order.ID,
		"status":   string(status),
	})
	return nil
}

func checkoutRunName(gateway core.Gateway) string {
	switch gateway {
	case core.GatewayPayPal:
		return "PayPal Payment Completed"
	default:
		return "Stripe Checkout Completed"
	}
}

func (s *Service) info(ctx context.Context, message string, fields map[string]any) {
	s.log(ctx, message, fields, false)
}

func (s *Service) warn(ctx context.Context, message string, fields map[string]any) {
	s.log(ctx, message, fields, true)
}

func (s *Service) log(ctx context.Context, message string, fields map[string]any, warn bool) {
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
