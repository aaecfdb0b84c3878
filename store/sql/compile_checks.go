package sqlstore

import (
	"github.com/omnirevenue/agent/core"
	"github.com/omnirevenue/agent/webhooks"
)

var (
	_ core.OrderStore         = (*OrderStore)(nil)
	_ core.SubscriptionStore  = (*SubscriptionStore)(nil)
	_ core.ProductStore       = (*ProductStore)(nil)
	_ core.ProductStore       = (*CachedProductStore)(nil)
	_ core.LeadStore          = (*LeadStore)(nil)
	_ core.AutomationLogStore = (*AutomationLogStore)(nil)
	_ core.KpiStore           = (*KpiStore)(nil)
	_ core.ContentAssetStore  = (*ContentAssetStore)(nil)
	_ core.StoreProvider      = (*RepositoryFactory)(nil)
	_ webhooks.DeliveryLedger = (*WebhookDeliveryStore)(nil)
)
