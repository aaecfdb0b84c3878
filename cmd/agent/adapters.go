package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/omnirevenue/agent/automation"
	"github.com/omnirevenue/agent/clients/notion"
	"github.com/omnirevenue/agent/core"
	"github.com/omnirevenue/agent/fulfillment"
	sqlstore "github.com/omnirevenue/agent/store/sql"
)

// briefingSubscriberTag marks a lead as a member of the gated briefing
// audience. Access grants go through the lead list so the briefing run can
// resolve its recipients without a separate membership table.
const briefingSubscriberTag = "briefing-subscriber"

// notionCRM adapts the Notion client to the lead intake CRM contract.
type notionCRM struct {
	client *notion.Client
}

func (c notionCRM) RecordLead(ctx context.Context, lead core.Lead) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("agent: notion client is not configured")
	}
	return c.client.CreateCRMRecord(ctx, notion.CRMRecord{
		Email:   lead.Email,
		Name:    lead.Name,
		Company: lead.Company,
		Role:    lead.Role,
		Source:  lead.Source,
		Tags:    lead.Tags,
	})
}

// briefingAccess grants briefing access by tagging the buyer on the lead
// list.
type briefingAccess struct {
	leads core.LeadStore
}

func (b briefingAccess) GrantAccess(ctx context.Context, buyerEmail, sku string) error {
	if b.leads == nil {
		return fmt.Errorf("agent: lead store is not configured")
	}
	email := strings.TrimSpace(buyerEmail)
	if email == "" {
		return fmt.Errorf("agent: buyer email is required")
	}
	_, err := b.leads.Upsert(ctx, core.UpsertLeadInput{
		Email:  email,
		Source: "Fulfilment",
		Tags:   []string{briefingSubscriberTag, sku},
	})
	return err
}

func fulfillmentDispatcher(
	factory *sqlstore.RepositoryFactory,
	recorder *automation.Recorder,
	logger core.Logger,
	notionClient *notion.Client,
) (*fulfillment.Dispatcher, error) {
	dispatcher := fulfillment.NewDispatcher(factory.OrderStore(), recorder, logger)
	if notionClient != nil {
		err := dispatcher.Register(core.FulfillmentKindCopyKit, fulfillment.CopyKitFulfiller{
			Workspaces: notionClient,
		})
		if err != nil {
			return nil, err
		}
	}
	err := dispatcher.Register(core.FulfillmentKindBriefing, fulfillment.BriefingFulfiller{
		Access: briefingAccess{leads: factory.LeadStore()},
	})
	if err != nil {
		return nil, err
	}
	return dispatcher, nil
}
