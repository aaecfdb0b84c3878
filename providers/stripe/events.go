package stripe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/omnirevenue/agent/core"
)

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventCustomerSubscriptionNew  = "customer.subscription.created"
	EventCustomerSubscriptionEdit = "customer.subscription.updated"
	EventCustomerSubscriptionGone = "customer.subscription.deleted"
	EventChargeRefunded           = "charge.refunded"
	EventChargeDisputeCreated     = "charge.dispute.created"
	defaultSKU                    = "UNKNOWN"
)

// EventTypes lists every Stripe event type this service reconciles.
func EventTypes() []string {
	return []string{
		EventCheckoutSessionCompleted,
		EventCustomerSubscriptionNew,
		EventCustomerSubscriptionEdit,
		EventCustomerSubscriptionGone,
		EventChargeRefunded,
		EventChargeDisputeCreated,
	}
}

type envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSession struct {
	ID              string `json:"id"`
	PaymentIntent   string `json:"payment_intent"`
	AmountTotal     int64  `json:"amount_total"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	Metadata           map[string]string `json:"metadata"`
}

type chargeObject struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
}

// Parser decodes Stripe webhook envelopes into normalized gateway events.
// Unrecognized event types still parse so the delivery ledger records them;
// the router decides whether anything handles the type.
type Parser struct{}

func NewParser() Parser {
	return Parser{}
}

func (Parser) Parse(req core.InboundRequest) (core.GatewayEvent, error) {
	var env envelope
	if err := json.Unmarshal(req.Body, &env); err != nil {
		return core.GatewayEvent{}, fmt.Errorf("stripe: decode event envelope: %w", err)
	}
	if strings.TrimSpace(env.ID) == "" {
		return core.GatewayEvent{}, fmt.Errorf("stripe: event id is required")
	}
	eventType := strings.TrimSpace(env.Type)
	if eventType == "" {
		return core.GatewayEvent{}, fmt.Errorf("stripe: event type is required")
	}

	event := core.GatewayEvent{
		Gateway:    core.GatewayStripe,
		DeliveryID: env.ID,
		Type:       eventType,
	}
	if len(env.Data.Object) > 0 {
		raw := map[string]any{}
		if err := json.Unmarshal(env.Data.Object, &raw); err == nil {
			event.Raw = raw
		}
	}

	switch eventType {
	case EventCheckoutSessionCompleted:
		checkout, err := parseCheckout(env.Data.Object)
		if err != nil {
			return core.GatewayEvent{}, err
		}
		event.Checkout = checkout
	case EventCustomerSubscriptionNew, EventCustomerSubscriptionEdit, EventCustomerSubscriptionGone:
		subscription, err := parseSubscription(env.Data.Object)
		if err != nil {
			return core.GatewayEvent{}, err
		}
		event.Subscription = subscription
	case EventChargeRefunded:
		transactionID, err := parseChargeTransaction(env.Data.Object)
		if err != nil {
			return core.GatewayEvent{}, err
		}
		event.Refund = &core.RefundEvent{TransactionID: transactionID}
	case EventChargeDisputeCreated:
		transactionID, err := parseChargeTransaction(env.Data.Object)
		if err != nil {
			return core.GatewayEvent{}, err
		}
		event.Dispute = &core.DisputeEvent{TransactionID: transactionID}
	}
	return event, nil
}

func parseCheckout(raw json.RawMessage) (*core.CheckoutCompleted, error) {
	var session checkoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("stripe: decode checkout session: %w", err)
	}
	transactionID := strings.TrimSpace(session.PaymentIntent)
	if transactionID == "" {
		return nil, fmt.Errorf("stripe: checkout session payment intent is required")
	}
	email := strings.TrimSpace(session.CustomerEmail)
	if email == "" {
		email = strings.TrimSpace(session.CustomerDetails.Email)
	}
	return &core.CheckoutCompleted{
		TransactionID: transactionID,
		BuyerEmail:    email,
		BuyerName:     strings.TrimSpace(session.CustomerDetails.Name),
		Amount:        float64(session.AmountTotal) / float64(core.GatewayStripe.MinorUnitFactor()),
		SKU:           metadataSKU(session.Metadata),
	}, nil
}

func parseSubscription(raw json.RawMessage) (*core.SubscriptionEvent, error) {
	var subscription subscriptionObject
	if err := json.Unmarshal(raw, &subscription); err != nil {
		return nil, fmt.Errorf("stripe: decode subscription: %w", err)
	}
	if strings.TrimSpace(subscription.ID) == "" {
		return nil, fmt.Errorf("stripe: subscription id is required")
	}
	event := &core.SubscriptionEvent{
		SubscriptionID:    strings.TrimSpace(subscription.ID),
		CustomerEmail:     strings.TrimSpace(subscription.Metadata["customer_email"]),
		SKU:               metadataSKU(subscription.Metadata),
		Status:            core.SubscriptionStatus(strings.TrimSpace(subscription.Status)),
		CancelAtPeriodEnd: subscription.CancelAtPeriodEnd,
	}
	if subscription.CurrentPeriodStart > 0 {
		start := time.Unix(subscription.CurrentPeriodStart, 0).UTC()
		event.CurrentPeriodStart = &start
	}
	if subscription.CurrentPeriodEnd > 0 {
		end := time.Unix(subscription.CurrentPeriodEnd, 0).UTC()
		event.CurrentPeriodEnd = &end
	}
	return event, nil
}

func parseChargeTransaction(raw json.RawMessage) (string, error) {
	var charge chargeObject
	if err := json.Unmarshal(raw, &charge); err != nil {
		return "", fmt.Errorf("stripe: decode charge: %w", err)
	}
	transactionID := strings.TrimSpace(charge.PaymentIntent)
	if transactionID == "" {
		return "", fmt.Errorf("stripe: charge payment intent is required")
	}
	return transactionID, nil
}

func metadataSKU(metadata map[string]string) string {
	if sku := strings.TrimSpace(metadata["sku"]); sku != "" {
		return sku
	}
	return defaultSKU
}
