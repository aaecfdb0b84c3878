package stripe

import (
	"context"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/omnirevenue/agent/core"
	"github.com/omnirevenue/agent/webhooks"
)

func signedRequest(secret string, signedAt time.Time, body []byte) core.InboundRequest {
	timestamp := fmt.Sprintf("%d", signedAt.Unix())
	signature := hex.EncodeToString(webhooks.SignedPayloadHMAC(secret, timestamp, body))
	return core.InboundRequest{
		Gateway:     core.GatewayStripe,
		ContentType: "application/json",
		Headers: map[string]string{
			SignatureHeader: fmt.Sprintf("t=%s,v1=%s", timestamp, signature),
		},
		Body: body,
	}
}

func TestSignatureVerifierAcceptsValidSignature(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	verifier := NewSignatureVerifier("whsec_test")
	verifier.Now = func() time.Time { return now }

	req := signedRequest("whsec_test", now, []byte(`{"id":"evt_1"}`))
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestSignatureVerifierRejectsWrongSecret(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	verifier := NewSignatureVerifier("whsec_real")
	verifier.Now = func() time.Time { return now }

	req := signedRequest("whsec_other", now, []byte(`{"id":"evt_1"}`))
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatal("expected verification failure")
	}
}

func TestSignatureVerifierRejectsStaleTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	verifier := NewSignatureVerifier("whsec_test")
	verifier.Now = func() time.Time { return now }

	req := signedRequest("whsec_test", now.Add(-10*time.Minute), []byte(`{"id":"evt_1"}`))
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatal("expected replay rejection")
	}
}

func TestSignatureVerifierRejectsMissingHeader(t *testing.T) {
	verifier := NewSignatureVerifier("whsec_test")
	req := core.InboundRequest{Gateway: core.GatewayStripe, Body: []byte("{}")}
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatal("expected missing header rejection")
	}
}

func TestParseCheckoutSessionCompleted(t *testing.T) {
	body := []byte(`{
		"id": "evt_checkout",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"payment_intent": "pi_123",
			"amount_total": 4900,
			"customer_details": {"email": "a@b.com", "name": "Ada Buyer"},
			"metadata": {"sku": "COPYKIT-MONTHLY"}
		}}
	}`)

	event, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayStripe, Body: body})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.DeliveryID != "evt_checkout" || event.Type != EventCheckoutSessionCompleted {
		t.Fatalf("unexpected envelope: %+v", event)
	}
	checkout := event.Checkout
	if checkout == nil {
		t.Fatal("expected checkout payload")
	}
	if checkout.TransactionID != "pi_123" {
		t.Fatalf("expected payment intent transaction id, got %q", checkout.TransactionID)
	}
	if checkout.Amount != 49.00 {
		t.Fatalf("expected minor units normalized to 49.00, got %v", checkout.Amount)
	}
	if checkout.BuyerEmail != "a@b.com" || checkout.BuyerName != "Ada Buyer" {
		t.Fatalf("unexpected buyer identity: %+v", checkout)
	}
	if checkout.SKU != "COPYKIT-MONTHLY" {
		t.Fatalf("unexpected sku: %q", checkout.SKU)
	}
}

func TestParseCheckoutDefaultsSKU(t *testing.T) {
	body := []byte(`{
		"id": "evt_nosku",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_2",
			"payment_intent": "pi_456",
			"amount_total": 900,
			"customer_email": "c@d.com"
		}}
	}`)

	event, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayStripe, Body: body})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Checkout.SKU != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN sku default, got %q", event.Checkout.SKU)
	}
	if event.Checkout.BuyerEmail != "c@d.com" {
		t.Fatalf("expected top-level customer_email, got %q", event.Checkout.BuyerEmail)
	}
}

func TestParseSubscriptionUpdated(t *testing.T) {
	body := []byte(`{
		"id": "evt_sub",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_123",
			"customer": "cus_1",
			"status": "active",
			"current_period_start": 1767225600,
			"current_period_end": 1769904000,
			"cancel_at_period_end": true,
			"metadata": {"sku": "DAILYBRIEF-PRO", "customer_email": "s@b.com"}
		}}
	}`)

	event, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayStripe, Body: body})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	subscription := event.Subscription
	if subscription == nil {
		t.Fatal("expected subscription payload")
	}
	if subscription.SubscriptionID != "sub_123" || subscription.Status != core.SubscriptionStatus("active") {
		t.Fatalf("unexpected subscription: %+v", subscription)
	}
	if !subscription.CancelAtPeriodEnd {
		t.Fatal("expected cancel_at_period_end carried over")
	}
	if subscription.CurrentPeriodStart == nil || subscription.CurrentPeriodEnd == nil {
		t.Fatal("expected period bounds")
	}
	if subscription.CustomerEmail != "s@b.com" || subscription.SKU != "DAILYBRIEF-PRO" {
		t.Fatalf("unexpected metadata mapping: %+v", subscription)
	}
}

func TestParseChargeRefunded(t *testing.T) {
	body := []byte(`{
		"id": "evt_refund",
		"type": "charge.refunded",
		"data": {"object": {"id": "ch_1", "payment_intent": "pi_123"}}
	}`)

	event, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayStripe, Body: body})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Refund == nil || event.Refund.TransactionID != "pi_123" {
		t.Fatalf("unexpected refund event: %+v", event.Refund)
	}
}

func TestParseRejectsMissingEventID(t *testing.T) {
	body := []byte(`{"type": "charge.refunded", "data": {"object": {}}}`)
	if _, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayStripe, Body: body}); err == nil {
		t.Fatal("expected missing event id error")
	}
}

func TestParsePassesThroughUnknownTypes(t *testing.T) {
	body := []byte(`{"id": "evt_x", "type": "invoice.paid", "data": {"object": {"id": "in_1"}}}`)
	event, err := NewParser().Parse(core.InboundRequest{Gateway: core.GatewayStripe, Body: body})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Type != "invoice.paid" || event.Checkout != nil || event.Subscription != nil {
		t.Fatalf("expected bare envelope for unknown type, got %+v", event)
	}
}
