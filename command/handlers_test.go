package command

import (
	"context"
	"errors"
	"testing"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/omnirevenue/agent/automation"
	"github.com/omnirevenue/agent/core"
)

type stubOrderStore struct {
	order   core.Order
	getErr  error
	getByID []string
}

func (s *stubOrderStore) Create(context.Context, core.CreateOrderInput) (core.Order, error) {
	return core.Order{}, nil
}

func (s *stubOrderStore) Get(_ context.Context, id string) (core.Order, error) {
	s.getByID = append(s.getByID, id)
	if s.getErr != nil {
		return core.Order{}, s.getErr
	}
	return s.order, nil
}

func (s *stubOrderStore) FindByTransaction(context.Context, core.Gateway, string) (core.Order, error) {
	return core.Order{}, nil
}

func (s *stubOrderStore) UpdateStatus(context.Context, string, core.OrderStatus) (core.Order, error) {
	return core.Order{}, nil
}

func (s *stubOrderStore) MarkFulfilled(_ context.Context, _ string, fulfilledAt time.Time) (core.Order, error) {
	s.order.Fulfilled = true
	s.order.FulfilledAt = &fulfilledAt
	return s.order, nil
}

func (s *stubOrderStore) ListSince(context.Context, time.Time) ([]core.Order, error) {
	return nil, nil
}

type stubProductStore struct {
	product core.Product
	findErr error
}

func (s *stubProductStore) FindBySKU(context.Context, string) (core.Product, error) {
	if s.findErr != nil {
		return core.Product{}, s.findErr
	}
	return s.product, nil
}

func (s *stubProductStore) Upsert(_ context.Context, product core.Product) (core.Product, error) {
	return product, nil
}

type stubDispatcher struct {
	dispatched     bool
	dispatchedKind core.FulfillmentKind
	err            error
}

func (s *stubDispatcher) Dispatch(context.Context, core.Order, core.Product) error {
	s.dispatched = true
	return s.err
}

func (s *stubDispatcher) DispatchKind(_ context.Context, kind core.FulfillmentKind, _ core.Order, _ core.Product) error {
	s.dispatched = true
	s.dispatchedKind = kind
	return s.err
}

func TestFulfillOrderCommand_DispatchesAndStoresResult(t *testing.T) {
	orders := &stubOrderStore{
		order: core.Order{ID: "ord_1", SKU: "COPYKIT-PRO", Status: core.OrderStatusPaid},
	}
	products := &stubProductStore{
		product: core.Product{SKU: "COPYKIT-PRO", FulfillmentKind: core.FulfillmentKindCopyKit},
	}
	dispatcher := &stubDispatcher{}

	cmd := NewFulfillOrderCommand(orders, products, dispatcher)
	collector := gocmd.NewResult[core.Order]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, FulfillOrderMessage{OrderID: "ord_1"}); err != nil {
		t.Fatalf("execute fulfill: %v", err)
	}
	if !dispatcher.dispatched {
		t.Fatalf("expected dispatcher invocation")
	}
	if _, ok := collector.Load(); !ok {
		t.Fatalf("expected fulfilled order stored in result")
	}
}

func TestFulfillOrderCommand_KindOverride(t *testing.T) {
	orders := &stubOrderStore{
		order: core.Order{ID: "ord_1", SKU: "DAILYBRIEF-MONTHLY", Status: core.OrderStatusPaid},
	}
	products := &stubProductStore{
		product: core.Product{SKU: "DAILYBRIEF-MONTHLY", FulfillmentKind: core.FulfillmentKindBriefing},
	}
	dispatcher := &stubDispatcher{}

	cmd := NewFulfillOrderCommand(orders, products, dispatcher)
	msg := FulfillOrderMessage{OrderID: "ord_1", Kind: core.FulfillmentKindBriefing}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute fulfill: %v", err)
	}
	if dispatcher.dispatchedKind != core.FulfillmentKindBriefing {
		t.Fatalf("expected briefing dispatch, got %q", dispatcher.dispatchedKind)
	}
}

func TestFulfillOrderCommand_PropagatesLookupErrors(t *testing.T) {
	orders := &stubOrderStore{getErr: core.ErrOrderNotFound}
	cmd := NewFulfillOrderCommand(orders, &stubProductStore{}, &stubDispatcher{})

	err := cmd.Execute(context.Background(), FulfillOrderMessage{OrderID: "missing"})
	if !errors.Is(err, core.ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}

func TestFulfillOrderCommand_RejectsBlankOrderID(t *testing.T) {
	cmd := NewFulfillOrderCommand(&stubOrderStore{}, &stubProductStore{}, &stubDispatcher{})
	if err := cmd.Execute(context.Background(), FulfillOrderMessage{}); err == nil {
		t.Fatalf("expected validation error for blank order id")
	}
}

type stubIntake struct {
	result automation.LeadIntakeResult
	err    error
	got    core.UpsertLeadInput
}

func (s *stubIntake) Process(_ context.Context, in core.UpsertLeadInput) (automation.LeadIntakeResult, error) {
	s.got = in
	return s.result, s.err
}

func TestUpsertLeadCommand_DelegatesAndStoresResult(t *testing.T) {
	intake := &stubIntake{
		result: automation.LeadIntakeResult{
			Lead: core.Lead{ID: "lead_1", Email: "prospect@example.com"},
		},
	}
	cmd := NewUpsertLeadCommand(intake)
	collector := gocmd.NewResult[automation.LeadIntakeResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	msg := UpsertLeadMessage{Input: core.UpsertLeadInput{Email: "prospect@example.com", Source: "Landing Page"}}
	if err := cmd.Execute(ctx, msg); err != nil {
		t.Fatalf("execute upsert lead: %v", err)
	}
	if intake.got.Email != "prospect@example.com" {
		t.Fatalf("expected intake invocation, got %+v", intake.got)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result stored")
	}
	if result.Lead.ID != "lead_1" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestUpsertLeadCommand_RejectsBlankEmail(t *testing.T) {
	cmd := NewUpsertLeadCommand(&stubIntake{})
	if err := cmd.Execute(context.Background(), UpsertLeadMessage{}); err == nil {
		t.Fatalf("expected validation error for blank email")
	}
}

type stubKpiService struct {
	kpi core.KpiDaily
	err error
}

func (s *stubKpiService) RecomputeToday(context.Context) (core.KpiDaily, error) {
	return s.kpi, s.err
}

func TestRecomputeKpiCommand_StoresResult(t *testing.T) {
	cmd := NewRecomputeKpiCommand(&stubKpiService{kpi: core.KpiDaily{Leads: 4, Orders: 2}})
	collector := gocmd.NewResult[core.KpiDaily]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, RecomputeKpiMessage{}); err != nil {
		t.Fatalf("execute recompute: %v", err)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result stored")
	}
	if result.Leads != 4 || result.Orders != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
}

type stubBriefingService struct {
	ran bool
	err error
}

func (s *stubBriefingService) Run(context.Context) error {
	s.ran = true
	return s.err
}

func TestRunBriefingCommand_Delegates(t *testing.T) {
	briefing := &stubBriefingService{}
	cmd := NewRunBriefingCommand(briefing)
	if err := cmd.Execute(context.Background(), RunBriefingMessage{}); err != nil {
		t.Fatalf("execute briefing: %v", err)
	}
	if !briefing.ran {
		t.Fatalf("expected briefing run")
	}

	briefing.err = errors.New("pipeline boom")
	if err := cmd.Execute(context.Background(), RunBriefingMessage{}); err == nil {
		t.Fatalf("expected briefing error to propagate")
	}
}

func TestCommands_MissingDependenciesFail(t *testing.T) {
	var fulfill *FulfillOrderCommand
	if err := fulfill.Execute(context.Background(), FulfillOrderMessage{OrderID: "ord_1"}); err == nil {
		t.Fatalf("expected dependency error for nil fulfill command")
	}
	if err := NewUpsertLeadCommand(nil).Execute(context.Background(), UpsertLeadMessage{
		Input: core.UpsertLeadInput{Email: "a@b.c"},
	}); err == nil {
		t.Fatalf("expected dependency error for nil intake")
	}
}
