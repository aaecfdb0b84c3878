package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"github.com/omnirevenue/agent/core"
)

// WorkspaceCreator provisions a buyer workspace in the external workspace
// tool and returns its page id.
type WorkspaceCreator interface {
	CreateWorkspace(ctx context.Context, buyerEmail, sku string) (string, error)
}

// AccessGranter adds a buyer to the gated briefing audience.
type AccessGranter interface {
	GrantAccess(ctx context.Context, buyerEmail, sku string) error
}

// CopyKitFulfiller creates a workspace for the buyer and reports the page
// id in the automation log.
type CopyKitFulfiller struct {
	Workspaces WorkspaceCreator
}

func (f CopyKitFulfiller) Fulfill(ctx context.Context, order core.Order, _ core.Product) (map[string]any, error) {
	if f.Workspaces == nil {
		return nil, fmt.Errorf("fulfillment: workspace client is not configured")
	}
	email := strings.TrimSpace(order.BuyerEmail)
	if email == "" {
		return nil, fmt.Errorf("fulfillment: order %s has no buyer email", order.ID)
	}
	pageID, err := f.Workspaces.CreateWorkspace(ctx, email, order.SKU)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return map[string]any{"notion_page_id": pageID}, nil
}

// BriefingFulfiller grants the buyer access to the briefing audience.
type BriefingFulfiller struct {
	Access AccessGranter
}

func (f BriefingFulfiller) Fulfill(ctx context.Context, order core.Order, _ core.Product) (map[string]any, error) {
	if f.Access == nil {
		return nil, fmt.Errorf("fulfillment: access client is not configured")
	}
	email := strings.TrimSpace(order.BuyerEmail)
	if email == "" {
		return nil, fmt.Errorf("fulfillment: order %s has no buyer email", order.ID)
	}
	if err := f.Access.GrantAccess(ctx, email, order.SKU); err != nil {
		return nil, fmt.Errorf("grant briefing access: %w", err)
	}
	return map[string]any{"subscriber_email": email}, nil
}
