package webhooks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/omnirevenue/agent/core"
)

type stubVerifier struct {
	err   error
	calls int
}

func (s *stubVerifier) Verify(_ context.Context, _ core.InboundRequest) error {
	s.calls++
	return s.err
}

type stubParser struct {
	event core.GatewayEvent
	err   error
}

func (s *stubParser) Parse(_ core.InboundRequest) (core.GatewayEvent, error) {
	return s.event, s.err
}

type memoryLedger struct {
	mu      sync.Mutex
	records map[string]DeliveryRecord
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{records: map[string]DeliveryRecord{}}
}

func (m *memoryLedger) key(gateway core.Gateway, deliveryID string) string {
	return fmt.Sprintf("%s::%s", gateway, deliveryID)
}

func (m *memoryLedger) Reserve(_ context.Context, gateway core.Gateway, deliveryID string, _ []byte) (DeliveryRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.key(gateway, deliveryID)
	if record, ok := m.records[key]; ok {
		if record.Status == DeliveryStatusFailed {
			record.Status = DeliveryStatusPending
			record.Attempts++
			m.records[key] = record
			return record, false, nil
		}
		return record, true, nil
	}
	record := DeliveryRecord{
		Gateway:    string(gateway),
		DeliveryID: deliveryID,
		Status:     DeliveryStatusPending,
		Attempts:   1,
	}
	m.records[key] = record
	return record, false, nil
}

func (m *memoryLedger) MarkProcessed(_ context.Context, gateway core.Gateway, deliveryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := m.records[m.key(gateway, deliveryID)]
	record.Status = DeliveryStatusProcessed
	m.records[m.key(gateway, deliveryID)] = record
	return nil
}

func (m *memoryLedger) MarkFailed(_ context.Context, gateway core.Gateway, deliveryID string, _ error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := m.records[m.key(gateway, deliveryID)]
	record.Status = DeliveryStatusFailed
	m.records[m.key(gateway, deliveryID)] = record
	return nil
}

func (m *memoryLedger) status(gateway core.Gateway, deliveryID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[m.key(gateway, deliveryID)].Status
}

func jsonRequest(gateway core.Gateway) core.InboundRequest {
	return core.InboundRequest{
		Gateway:     gateway,
		ContentType: "application/json",
		Body:        []byte(`{"id":"evt_1"}`),
	}
}

func checkoutEvent(deliveryID string) core.GatewayEvent {
	return core.GatewayEvent{
		Gateway:    core.GatewayStripe,
		DeliveryID: deliveryID,
		Type:       "checkout.session.completed",
		Checkout: &core.CheckoutCompleted{
			TransactionID: "cs_test_1",
			Amount:        49.00,
			SKU:           "COPYKIT-PRO",
		},
	}
}

func TestProcessorProcessesDelivery(t *testing.T) {
	ledger := newMemoryLedger()
	router := NewRouter()
	handled := 0
	if err := router.Register("checkout.session.completed", func(context.Context, core.GatewayEvent) error {
		handled++
		return nil
	}); err != nil {
		t.Fatalf("register handler: %v", err)
	}

	processor := NewProcessor(nil, &stubParser{event: checkoutEvent("evt_1")}, ledger, router)

	result, err := processor.Process(context.Background(), jsonRequest(core.GatewayStripe))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Accepted || result.StatusCode != http.StatusOK {
		t.Fatalf("expected accepted 200, got %+v", result)
	}
	if handled != 1 {
		t.Fatalf("expected handler to run once, ran %d times", handled)
	}
	if got := ledger.status(core.GatewayStripe, "evt_1"); got != DeliveryStatusProcessed {
		t.Fatalf("expected processed delivery, got %q", got)
	}
}

func TestProcessorDeduplicatesRedelivery(t *testing.T) {
	ledger := newMemoryLedger()
	router := NewRouter()
	handled := 0
	if err := router.Register("checkout.session.completed", func(context.Context, core.GatewayEvent) error {
		handled++
		return nil
	}); err != nil {
		t.Fatalf("register handler: %v", err)
	}

	processor := NewProcessor(nil, &stubParser{event: checkoutEvent("evt_dup")}, ledger, router)

	if _, err := processor.Process(context.Background(), jsonRequest(core.GatewayStripe)); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	result, err := processor.Process(context.Background(), jsonRequest(core.GatewayStripe))
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on redelivery, got %d", result.StatusCode)
	}
	if deduped, _ := result.Metadata["deduped"].(bool); !deduped {
		t.Fatalf("expected deduped marker, got %+v", result.Metadata)
	}
	if handled != 1 {
		t.Fatalf("expected handler to run once across redeliveries, ran %d times", handled)
	}
}

func TestProcessorRetriesFailedDelivery(t *testing.T) {
	ledger := newMemoryLedger()
	router := NewRouter()
	attempts := 0
	if err := router.Register("checkout.session.completed", func(context.Context, core.GatewayEvent) error {
		attempts++
		if attempts == 1 {
			return errors.New("store unavailable")
		}
		return nil
	}); err != nil {
		t.Fatalf("register handler: %v", err)
	}

	processor := NewProcessor(nil, &stubParser{event: checkoutEvent("evt_retry")}, ledger, router)

	if _, err := processor.Process(context.Background(), jsonRequest(core.GatewayStripe)); err == nil {
		t.Fatal("expected handler failure to propagate")
	}
	if got := ledger.status(core.GatewayStripe, "evt_retry"); got != DeliveryStatusFailed {
		t.Fatalf("expected failed delivery after handler error, got %q", got)
	}

	result, err := processor.Process(context.Background(), jsonRequest(core.GatewayStripe))
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d", result.StatusCode)
	}
	if attempts != 2 {
		t.Fatalf("expected two handler attempts, got %d", attempts)
	}
}

func TestProcessorRejectsBadSignature(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("signature verification failed")}
	processor := NewProcessor(verifier, &stubParser{}, newMemoryLedger(), NewRouter())

	result, err := processor.Process(context.Background(), jsonRequest(core.GatewayStripe))
	if err == nil {
		t.Fatal("expected verification error")
	}
	if result.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", result.StatusCode)
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Category != goerrors.CategoryAuth {
		t.Fatalf("expected auth category, got %v", err)
	}
	if verifier.calls != 1 {
		t.Fatalf("expected one verifier call, got %d", verifier.calls)
	}
}

func TestProcessorRejectsWrongContentType(t *testing.T) {
	processor := NewProcessor(nil, &stubParser{}, newMemoryLedger(), NewRouter())

	req := jsonRequest(core.GatewayStripe)
	req.ContentType = "text/plain"
	result, err := processor.Process(context.Background(), req)
	if err == nil {
		t.Fatal("expected content type error")
	}
	if result.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", result.StatusCode)
	}
}

func TestProcessorRejectsMalformedPayload(t *testing.T) {
	processor := NewProcessor(nil, &stubParser{err: errors.New("unexpected end of JSON input")}, newMemoryLedger(), NewRouter())

	_, err := processor.Process(context.Background(), jsonRequest(core.GatewayStripe))
	if err == nil {
		t.Fatal("expected parse error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected rich error, got %v", err)
	}
	if richErr.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %s", richErr.Category)
	}
	if richErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 code, got %d", richErr.Code)
	}
}

func TestProcessorRejectsUnknownGateway(t *testing.T) {
	processor := NewProcessor(nil, &stubParser{}, newMemoryLedger(), NewRouter())

	_, err := processor.Process(context.Background(), jsonRequest(core.Gateway("square")))
	if err == nil {
		t.Fatal("expected unknown gateway error")
	}
}

func TestProcessorIgnoresUnroutedEventTypes(t *testing.T) {
	ledger := newMemoryLedger()
	parser := &stubParser{event: core.GatewayEvent{
		Gateway:    core.GatewayStripe,
		DeliveryID: "evt_ignored",
		Type:       "invoice.paid",
	}}
	processor := NewProcessor(nil, parser, ledger, NewRouter())

	result, err := processor.Process(context.Background(), jsonRequest(core.GatewayStripe))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for ignored type, got %d", result.StatusCode)
	}
	if ignored, _ := result.Metadata["ignored"].(bool); !ignored {
		t.Fatalf("expected ignored marker, got %+v", result.Metadata)
	}
	if got := ledger.status(core.GatewayStripe, "evt_ignored"); got != DeliveryStatusProcessed {
		t.Fatalf("expected ignored delivery recorded as processed, got %q", got)
	}
}
