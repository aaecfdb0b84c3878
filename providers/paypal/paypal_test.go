package paypal

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/omnirevenue/agent/core"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestSignatureVerifier(t *testing.T) {
	secret := "paypal-secret"
	body := []byte(`{"id":"WH-1"}`)
	verifier := NewSignatureVerifier(secret)

	req := core.InboundRequest{
		Gateway: core.GatewayPayPal,
		Headers: map[string]string{TransmissionSigHeader: signBody(secret, body)},
		Body:    body,
	}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("verify: %v", err)
	}

	req.Headers[TransmissionSigHeader] = signBody("wrong", body)
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatal("expected verification failure")
	}
}

func TestParsePaymentCaptureCompleted(t *testing.T) {
	body := []byte(`{
		"id": "WH-CAPTURE-1",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {
			"id": "CAP-123",
			"amount": {"value": "49.00", "currency_code": "GBP"},
			"custom_id": "COPYKIT-MONTHLY",
			"payer": {
				"email_address": "a@b.com",
				"name": {"given_name": "Ada", "surname": "Buyer"}
			}
		}
	}`)

	event, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayPayPal, Body: body})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.DeliveryID != "WH-CAPTURE-1" || event.Type != EventPaymentCaptureCompleted {
		t.Fatalf("unexpected envelope: %+v", event)
	}
	checkout := event.Checkout
	if checkout == nil {
		t.Fatal("expected checkout payload")
	}
	if checkout.TransactionID != "CAP-123" {
		t.Fatalf("unexpected transaction id: %q", checkout.TransactionID)
	}
	if checkout.Amount != 49.00 {
		t.Fatalf("expected decimal amount parsed as-is, got %v", checkout.Amount)
	}
	if checkout.BuyerName != "Ada Buyer" || checkout.BuyerEmail != "a@b.com" {
		t.Fatalf("unexpected buyer identity: %+v", checkout)
	}
	if checkout.SKU != "COPYKIT-MONTHLY" {
		t.Fatalf("unexpected sku: %q", checkout.SKU)
	}
}

func TestParseCaptureDefaultsSKU(t *testing.T) {
	body := []byte(`{
		"id": "WH-CAPTURE-2",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {"id": "CAP-456", "amount": {"value": "9.99"}}
	}`)

	event, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayPayPal, Body: body})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Checkout.SKU != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN sku default, got %q", event.Checkout.SKU)
	}
}

func TestParseCaptureRejectsMalformedAmount(t *testing.T) {
	body := []byte(`{
		"id": "WH-CAPTURE-3",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource": {"id": "CAP-789", "amount": {"value": "nine"}}
	}`)

	if _, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayPayPal, Body: body}); err == nil {
		t.Fatal("expected amount parse error")
	}
}

func TestParseSubscriptionCreated(t *testing.T) {
	body := []byte(`{
		"id": "WH-SUB-1",
		"event_type": "BILLING.SUBSCRIPTION.CREATED",
		"resource": {
			"id": "I-SUB1",
			"custom_id": "DAILYBRIEF-PRO",
			"start_time": "2026-03-01T08:00:00Z",
			"subscriber": {"email_address": "s@b.com"}
		}
	}`)

	event, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayPayPal, Body: body})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	subscription := event.Subscription
	if subscription == nil {
		t.Fatal("expected subscription payload")
	}
	if subscription.Status != core.SubscriptionStatusActive {
		t.Fatalf("expected active status, got %q", subscription.Status)
	}
	if subscription.CurrentPeriodStart == nil || !subscription.CurrentPeriodStart.Equal(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected period start: %v", subscription.CurrentPeriodStart)
	}
	if subscription.CurrentPeriodEnd != nil {
		t.Fatal("expected no period end upfront")
	}
	if subscription.CustomerEmail != "s@b.com" || subscription.SKU != "DAILYBRIEF-PRO" {
		t.Fatalf("unexpected subscription mapping: %+v", subscription)
	}
}

func TestParseSubscriptionCreatedStampsMissingStart(t *testing.T) {
	body := []byte(`{
		"id": "WH-SUB-2",
		"event_type": "BILLING.SUBSCRIPTION.CREATED",
		"resource": {"id": "I-SUB2"}
	}`)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	parser := Parser{Now: func() time.Time { return now }}
	event, err := parser.Parse(core.InboundRequest{Gateway: core.GatewayPayPal, Body: body})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Subscription.CurrentPeriodStart == nil || !event.Subscription.CurrentPeriodStart.Equal(now) {
		t.Fatalf("expected receipt time as period start, got %v", event.Subscription.CurrentPeriodStart)
	}
}

func TestParseSubscriptionCancelled(t *testing.T) {
	body := []byte(`{
		"id": "WH-SUB-3",
		"event_type": "BILLING.SUBSCRIPTION.CANCELLED",
		"resource": {"id": "I-SUB1"}
	}`)

	event, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayPayPal, Body: body})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Subscription == nil || event.Subscription.Status != core.SubscriptionStatusCancelled {
		t.Fatalf("expected cancelled subscription event, got %+v", event.Subscription)
	}
}

func TestParseCaptureRefunded(t *testing.T) {
	body := []byte(`{
		"id": "WH-REFUND-1",
		"event_type": "PAYMENT.CAPTURE.REFUNDED",
		"resource": {"id": "CAP-123"}
	}`)

	event, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayPayPal, Body: body})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Refund == nil || event.Refund.TransactionID != "CAP-123" {
		t.Fatalf("unexpected refund event: %+v", event.Refund)
	}
}
