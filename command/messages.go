package command

import (
	"fmt"
	"strings"

	"github.com/omnirevenue/agent/core"
)

const (
	TypeFulfillOrder = "agent.command.order.fulfill"
	TypeUpsertLead   = "agent.command.lead.upsert"
	TypeRecomputeKpi = "agent.command.kpi.recompute"
	TypeRunBriefing  = "agent.command.briefing.run"
)

type FulfillOrderMessage struct {
	OrderID string
	// Kind overrides the product's configured fulfillment path when set.
	Kind core.FulfillmentKind
}

func (FulfillOrderMessage) Type() string { return TypeFulfillOrder }

func (m FulfillOrderMessage) Validate() error {
	if strings.TrimSpace(m.OrderID) == "" {
		return fmt.Errorf("command: order id is required")
	}
	if m.Kind != "" {
		if _, err := core.ParseFulfillmentKind(string(m.Kind)); err != nil {
			return err
		}
	}
	return nil
}

type UpsertLeadMessage struct {
	Input core.UpsertLeadInput
}

func (UpsertLeadMessage) Type() string { return TypeUpsertLead }

func (m UpsertLeadMessage) Validate() error {
	if strings.TrimSpace(m.Input.Email) == "" {
		return fmt.Errorf("command: lead email is required")
	}
	return nil
}

type RecomputeKpiMessage struct{}

func (RecomputeKpiMessage) Type() string { return TypeRecomputeKpi }

func (RecomputeKpiMessage) Validate() error { return nil }

type RunBriefingMessage struct{}

func (RunBriefingMessage) Type() string { return TypeRunBriefing }

func (RunBriefingMessage) Validate() error { return nil }
