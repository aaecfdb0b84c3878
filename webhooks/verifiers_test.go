package webhooks

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/omnirevenue/agent/core"
)

func TestHeaderHMACVerifierHex(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1"}`)
	signature := hex.EncodeToString(computeHMAC(secret, body))

	verifier := HeaderHMACVerifier{Header: "X-Signature", Secret: secret}
	req := core.InboundRequest{
		Headers: map[string]string{"X-Signature": signature},
		Body:    body,
	}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("verify: %v", err)
	}

	req.Body = []byte(`{"id":"evt_2"}`)
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatal("expected verification failure for altered body")
	}
}

func TestHeaderHMACVerifierBase64(t *testing.T) {
	secret := "paypal-secret"
	body := []byte(`{"event_type":"PAYMENT.CAPTURE.COMPLETED"}`)
	signature := base64.StdEncoding.EncodeToString(computeHMAC(secret, body))

	verifier := HeaderHMACVerifier{
		Header:   "Paypal-Transmission-Sig",
		Secret:   secret,
		Encoding: "base64",
	}
	req := core.InboundRequest{
		Headers: map[string]string{"paypal-transmission-sig": signature},
		Body:    body,
	}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestHeaderHMACVerifierMissingHeader(t *testing.T) {
	verifier := HeaderHMACVerifier{Header: "X-Signature", Secret: "secret"}
	err := verifier.Verify(context.Background(), core.InboundRequest{Body: []byte("{}")})
	if err == nil {
		t.Fatal("expected missing header error")
	}
}

func TestSecretGatedVerifierPermissiveOutsideProduction(t *testing.T) {
	verifier := SecretGatedVerifier{Production: false}
	req := core.InboundRequest{Gateway: core.GatewayPayPal, Body: []byte("{}")}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("expected permissive pass without secret, got %v", err)
	}
}

func TestSecretGatedVerifierRejectsInProduction(t *testing.T) {
	verifier := SecretGatedVerifier{Production: true}
	req := core.InboundRequest{Gateway: core.GatewayStripe, Body: []byte("{}")}
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatal("expected rejection without secret in production")
	}
}

func TestSecretGatedVerifierDelegatesWithSecret(t *testing.T) {
	inner := &stubVerifier{}
	verifier := SecretGatedVerifier{Secret: "whsec_test", Inner: inner}
	req := core.InboundRequest{Gateway: core.GatewayStripe, Body: []byte("{}")}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected inner verifier call, got %d", inner.calls)
	}
}

func TestSignedPayloadHMAC(t *testing.T) {
	a := SignedPayloadHMAC("secret", "1700000000", []byte(`{"id":"evt"}`))
	b := SignedPayloadHMAC("secret", "1700000000", []byte(`{"id":"evt"}`))
	if hex.EncodeToString(a) != hex.EncodeToString(b) {
		t.Fatal("expected deterministic signature")
	}
	c := SignedPayloadHMAC("secret", "1700000001", []byte(`{"id":"evt"}`))
	if hex.EncodeToString(a) == hex.EncodeToString(c) {
		t.Fatal("expected timestamp to alter signature")
	}
}
