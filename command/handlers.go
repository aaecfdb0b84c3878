package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/omnirevenue/agent/automation"
	"github.com/omnirevenue/agent/core"
)

// OrderFulfillmentService is the slice of the fulfillment dispatcher the
// fulfill command needs.
type OrderFulfillmentService interface {
	Dispatch(ctx context.Context, order core.Order, product core.Product) error
	DispatchKind(ctx context.Context, kind core.FulfillmentKind, order core.Order, product core.Product) error
}

type LeadIntakeService interface {
	Process(ctx context.Context, in core.UpsertLeadInput) (automation.LeadIntakeResult, error)
}

type KpiRecomputeService interface {
	RecomputeToday(ctx context.Context) (core.KpiDaily, error)
}

type BriefingService interface {
	Run(ctx context.Context) error
}

type FulfillOrderCommand struct {
	orders     core.OrderStore
	products   core.ProductStore
	dispatcher OrderFulfillmentService
}

func NewFulfillOrderCommand(
	orders core.OrderStore,
	products core.ProductStore,
	dispatcher OrderFulfillmentService,
) *FulfillOrderCommand {
	return &FulfillOrderCommand{
		orders:     orders,
		products:   products,
		dispatcher: dispatcher,
	}
}

func (c *FulfillOrderCommand) Execute(ctx context.Context, msg FulfillOrderMessage) error {
	if c == nil || c.orders == nil || c.products == nil || c.dispatcher == nil {
		return commandDependencyError("command: fulfill order dependencies are required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}

	order, err := c.orders.Get(ctx, msg.OrderID)
	if err != nil {
		return err
	}
	product, err := c.products.FindBySKU(ctx, order.SKU)
	if err != nil {
		return err
	}

	if msg.Kind != "" && msg.Kind != core.FulfillmentKindNone {
		err = c.dispatcher.DispatchKind(ctx, msg.Kind, order, product)
	} else {
		err = c.dispatcher.Dispatch(ctx, order, product)
	}
	if err != nil {
		return err
	}

	fulfilled, err := c.orders.Get(ctx, order.ID)
	if err != nil {
		return err
	}
	storeResult(ctx, fulfilled)
	return nil
}

type UpsertLeadCommand struct {
	intake LeadIntakeService
}

func NewUpsertLeadCommand(intake LeadIntakeService) *UpsertLeadCommand {
	return &UpsertLeadCommand{intake: intake}
}

func (c *UpsertLeadCommand) Execute(ctx context.Context, msg UpsertLeadMessage) error {
	if c == nil || c.intake == nil {
		return commandDependencyError("command: lead intake service is required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	out, err := c.intake.Process(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RecomputeKpiCommand struct {
	kpi KpiRecomputeService
}

func NewRecomputeKpiCommand(kpi KpiRecomputeService) *RecomputeKpiCommand {
	return &RecomputeKpiCommand{kpi: kpi}
}

func (c *RecomputeKpiCommand) Execute(ctx context.Context, msg RecomputeKpiMessage) error {
	if c == nil || c.kpi == nil {
		return commandDependencyError("command: kpi recompute service is required")
	}
	out, err := c.kpi.RecomputeToday(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RunBriefingCommand struct {
	briefing BriefingService
}

func NewRunBriefingCommand(briefing BriefingService) *RunBriefingCommand {
	return &RunBriefingCommand{briefing: briefing}
}

func (c *RunBriefingCommand) Execute(ctx context.Context, msg RunBriefingMessage) error {
	if c == nil || c.briefing == nil {
		return commandDependencyError("command: briefing service is required")
	}
	return c.briefing.Run(ctx)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
