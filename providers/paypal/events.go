package paypal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/omnirevenue/agent/core"
)

const (
	EventPaymentCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	EventBillingSubscriptionNew  = "BILLING.SUBSCRIPTION.CREATED"
	EventBillingSubscriptionGone = "BILLING.SUBSCRIPTION.CANCELLED"
	EventPaymentCaptureRefunded  = "PAYMENT.CAPTURE.REFUNDED"
	defaultSKU                   = "UNKNOWN"
)

// EventTypes lists every PayPal event type this service reconciles.
func EventTypes() []string {
	return []string{
		EventPaymentCaptureCompleted,
		EventBillingSubscriptionNew,
		EventBillingSubscriptionGone,
		EventPaymentCaptureRefunded,
	}
}

type envelope struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  json.RawMessage `json:"resource"`
}

type captureResource struct {
	ID     string `json:"id"`
	Amount struct {
		Value string `json:"value"`
	} `json:"amount"`
	CustomID string `json:"custom_id"`
	Payer    struct {
		EmailAddress string `json:"email_address"`
		Name         struct {
			GivenName string `json:"given_name"`
			Surname   string `json:"surname"`
		} `json:"name"`
	} `json:"payer"`
}

type subscriptionResource struct {
	ID         string `json:"id"`
	CustomID   string `json:"custom_id"`
	StartTime  string `json:"start_time"`
	Subscriber struct {
		EmailAddress string `json:"email_address"`
	} `json:"subscriber"`
}

type refundResource struct {
	ID string `json:"id"`
}

// Parser decodes PayPal webhook envelopes into normalized gateway events.
type Parser struct {
	Now func() time.Time
}

func NewParser() Parser {
	return Parser{}
}

func (p Parser) Parse(req core.InboundRequest) (core.GatewayEvent, error) {
	var env envelope
	if err := json.Unmarshal(req.Body, &env); err != nil {
		return core.GatewayEvent{}, fmt.Errorf("paypal: decode event envelope: %w", err)
	}
	if strings.TrimSpace(env.ID) == "" {
		return core.GatewayEvent{}, fmt.Errorf("paypal: event id is required")
	}
	eventType := strings.TrimSpace(env.EventType)
	if eventType == "" {
		return core.GatewayEvent{}, fmt.Errorf("paypal: event type is required")
	}

	event := core.GatewayEvent{
		Gateway:    core.GatewayPayPal,
		DeliveryID: env.ID,
		Type:       eventType,
	}
	if len(env.Resource) > 0 {
		raw := map[string]any{}
		if err := json.Unmarshal(env.Resource, &raw); err == nil {
			event.Raw = raw
		}
	}

	switch eventType {
	case EventPaymentCaptureCompleted:
		checkout, err := parseCapture(env.Resource)
		if err != nil {
			return core.GatewayEvent{}, err
		}
		event.Checkout = checkout
	case EventBillingSubscriptionNew:
		subscription, err := p.parseSubscription(env.Resource)
		if err != nil {
			return core.GatewayEvent{}, err
		}
		event.Subscription = subscription
	case EventBillingSubscriptionGone:
		subscription, err := p.parseSubscription(env.Resource)
		if err != nil {
			return core.GatewayEvent{}, err
		}
		subscription.Status = core.SubscriptionStatusCancelled
		event.Subscription = subscription
	case EventPaymentCaptureRefunded:
		var refund refundResource
		if err := json.Unmarshal(env.Resource, &refund); err != nil {
			return core.GatewayEvent{}, fmt.Errorf("paypal: decode refund resource: %w", err)
		}
		if strings.TrimSpace(refund.ID) == "" {
			return core.GatewayEvent{}, fmt.Errorf("paypal: refund resource id is required")
		}
		event.Refund = &core.RefundEvent{TransactionID: strings.TrimSpace(refund.ID)}
	}
	return event, nil
}

func parseCapture(raw json.RawMessage) (*core.CheckoutCompleted, error) {
	var capture captureResource
	if err := json.Unmarshal(raw, &capture); err != nil {
		return nil, fmt.Errorf("paypal: decode capture resource: %w", err)
	}
	transactionID := strings.TrimSpace(capture.ID)
	if transactionID == "" {
		return nil, fmt.Errorf("paypal: capture id is required")
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(capture.Amount.Value), 64)
	if err != nil {
		return nil, fmt.Errorf("paypal: parse capture amount %q: %w", capture.Amount.Value, err)
	}

	name := strings.TrimSpace(strings.TrimSpace(capture.Payer.Name.GivenName) + " " + strings.TrimSpace(capture.Payer.Name.Surname))
	sku := strings.TrimSpace(capture.CustomID)
	if sku == "" {
		sku = defaultSKU
	}
	return &core.CheckoutCompleted{
		TransactionID: transactionID,
		BuyerEmail:    strings.TrimSpace(capture.Payer.EmailAddress),
		BuyerName:     name,
		Amount:        amount / float64(core.GatewayPayPal.MinorUnitFactor()),
		SKU:           sku,
	}, nil
}

func (p Parser) parseSubscription(raw json.RawMessage) (*core.SubscriptionEvent, error) {
	var subscription subscriptionResource
	if err := json.Unmarshal(raw, &subscription); err != nil {
		return nil, fmt.Errorf("paypal: decode subscription resource: %w", err)
	}
	if strings.TrimSpace(subscription.ID) == "" {
		return nil, fmt.Errorf("paypal: subscription id is required")
	}
	sku := strings.TrimSpace(subscription.CustomID)
	if sku == "" {
		sku = defaultSKU
	}
	event := &core.SubscriptionEvent{
		SubscriptionID: strings.TrimSpace(subscription.ID),
		CustomerEmail:  strings.TrimSpace(subscription.Subscriber.EmailAddress),
		SKU:            sku,
		Status:         core.SubscriptionStatusActive,
	}

	// PayPal does not report the current period upfront; the start time is
	// the best available period anchor.
	if startRaw := strings.TrimSpace(subscription.StartTime); startRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return nil, fmt.Errorf("paypal: parse subscription start time %q: %w", startRaw, err)
		}
		startUTC := start.UTC()
		event.CurrentPeriodStart = &startUTC
	} else {
		now := time.Now().UTC()
		if p.Now != nil {
			now = p.Now()
		}
		event.CurrentPeriodStart = &now
	}
	return event, nil
}
