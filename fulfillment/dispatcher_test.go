package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omnirevenue/agent/automation"
	"github.com/omnirevenue/agent/core"
)

type stubOrderStore struct {
	core.OrderStore
	fulfilled map[string]time.Time
	markErr   error
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{fulfilled: map[string]time.Time{}}
}

func (s *stubOrderStore) MarkFulfilled(_ context.Context, id string, fulfilledAt time.Time) (core.Order, error) {
	if s.markErr != nil {
		return core.Order{}, s.markErr
	}
	s.fulfilled[id] = fulfilledAt
	return core.Order{ID: id, Fulfilled: true, FulfilledAt: &fulfilledAt}, nil
}

type logSink struct {
	entries []core.AppendAutomationLogInput
}

func (l *logSink) Append(_ context.Context, in core.AppendAutomationLogInput) (core.AutomationLog, error) {
	l.entries = append(l.entries, in)
	return core.AutomationLog{}, nil
}

func (l *logSink) ListRecent(_ context.Context, _ int) ([]core.AutomationLog, error) {
	return nil, nil
}

type stubWorkspaces struct {
	pageID string
	err    error
	calls  int
}

func (s *stubWorkspaces) CreateWorkspace(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.pageID, s.err
}

func copykitOrder() core.Order {
	return core.Order{
		ID:         "ord_1",
		Gateway:    core.GatewayStripe,
		Status:     core.OrderStatusPaid,
		BuyerEmail: "a@b.com",
		SKU:        "COPYKIT-MONTHLY",
	}
}

func copykitProduct() core.Product {
	return core.Product{
		SKU:             "COPYKIT-MONTHLY",
		FulfillmentKind: core.FulfillmentKindCopyKit,
		Active:          true,
	}
}

func TestDispatchFulfillsCopyKitOrder(t *testing.T) {
	orders := newStubOrderStore()
	sink := &logSink{}
	workspaces := &stubWorkspaces{pageID: "page_1"}

	dispatcher := NewDispatcher(orders, automation.NewRecorder(sink, nil), nil)
	if err := dispatcher.Register(core.FulfillmentKindCopyKit, CopyKitFulfiller{Workspaces: workspaces}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := dispatcher.Dispatch(context.Background(), copykitOrder(), copykitProduct()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if workspaces.calls != 1 {
		t.Fatalf("expected one workspace call, got %d", workspaces.calls)
	}
	if _, ok := orders.fulfilled["ord_1"]; !ok {
		t.Fatal("expected order marked fulfilled")
	}
	if len(sink.entries) != 1 || sink.entries[0].Status != core.AutomationRunCompleted {
		t.Fatalf("expected completed automation entry, got %+v", sink.entries)
	}
	if sink.entries[0].ExecutionData["notion_page_id"] != "page_1" {
		t.Fatalf("expected page id in execution data, got %+v", sink.entries[0].ExecutionData)
	}
}

func TestDispatchSkipsProductsWithoutTarget(t *testing.T) {
	orders := newStubOrderStore()
	dispatcher := NewDispatcher(orders, automation.NewRecorder(&logSink{}, nil), nil)

	order := copykitOrder()
	order.SKU = "UNKNOWN-XYZ"
	product := core.Product{SKU: "UNKNOWN-XYZ", FulfillmentKind: core.FulfillmentKindNone}

	if err := dispatcher.Dispatch(context.Background(), order, product); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(orders.fulfilled) != 0 {
		t.Fatal("expected no fulfillment side effect")
	}
}

func TestDispatchFailureRecordsFailedRun(t *testing.T) {
	orders := newStubOrderStore()
	sink := &logSink{}
	workspaces := &stubWorkspaces{err: errors.New("notion unavailable")}

	dispatcher := NewDispatcher(orders, automation.NewRecorder(sink, nil), nil)
	if err := dispatcher.Register(core.FulfillmentKindCopyKit, CopyKitFulfiller{Workspaces: workspaces}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := dispatcher.Dispatch(context.Background(), copykitOrder(), copykitProduct()); err == nil {
		t.Fatal("expected fulfiller error to propagate")
	}
	if len(orders.fulfilled) != 0 {
		t.Fatal("expected unfulfilled order after failure")
	}
	if len(sink.entries) != 1 || sink.entries[0].Status != core.AutomationRunFailed {
		t.Fatalf("expected failed automation entry, got %+v", sink.entries)
	}
}

func TestDispatchKindRejectsUnregisteredKind(t *testing.T) {
	dispatcher := NewDispatcher(newStubOrderStore(), automation.NewRecorder(&logSink{}, nil), nil)
	err := dispatcher.DispatchKind(context.Background(), core.FulfillmentKindBriefing, copykitOrder(), core.Product{})
	if !errors.Is(err, core.ErrInvalidFulfillmentKind) {
		t.Fatalf("expected invalid kind error, got %v", err)
	}
}

func TestRegisterRejectsDuplicatesAndNone(t *testing.T) {
	dispatcher := NewDispatcher(newStubOrderStore(), automation.NewRecorder(&logSink{}, nil), nil)
	fulfiller := FulfillerFunc(func(context.Context, core.Order, core.Product) (map[string]any, error) {
		return nil, nil
	})

	if err := dispatcher.Register(core.FulfillmentKindNone, fulfiller); err == nil {
		t.Fatal("expected rejection of none kind")
	}
	if err := dispatcher.Register(core.FulfillmentKindBriefing, fulfiller); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := dispatcher.Register(core.FulfillmentKindBriefing, fulfiller); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
