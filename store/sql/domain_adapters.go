package sqlstore

import (
	"strings"
	"time"

	"github.com/omnirevenue/agent/core"
)

func newOrderRecord(in core.CreateOrderInput, now time.Time) *orderRecord {
	return &orderRecord{
		Gateway:              string(in.Gateway),
		GatewayTransactionID: in.GatewayTransactionID,
		Status:               string(core.OrderStatusPaid),
		Amount:               in.Amount,
		BuyerEmail:           in.BuyerEmail,
		BuyerName:            in.BuyerName,
		SKU:                  in.SKU,
		RawMetadata:          copyAnyMap(in.RawMetadata),
		Fulfilled:            false,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (r *orderRecord) toDomain() core.Order {
	if r == nil {
		return core.Order{}
	}
	order := core.Order{
		ID:                   r.ID,
		Gateway:              core.Gateway(r.Gateway),
		GatewayTransactionID: r.GatewayTransactionID,
		Status:               core.OrderStatus(r.Status),
		Amount:               r.Amount,
		BuyerEmail:           r.BuyerEmail,
		BuyerName:            r.BuyerName,
		SKU:                  r.SKU,
		RawMetadata:          copyAnyMap(r.RawMetadata),
		Fulfilled:            r.Fulfilled,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if r.FulfilledAt != nil {
		value := *r.FulfilledAt
		order.FulfilledAt = &value
	}
	return order
}

func newSubscriptionRecord(in core.CreateSubscriptionInput, now time.Time) *subscriptionRecord {
	record := &subscriptionRecord{
		Gateway:               string(in.Gateway),
		GatewaySubscriptionID: in.GatewaySubscriptionID,
		CustomerEmail:         in.CustomerEmail,
		SKU:                   in.SKU,
		Status:                string(in.Status),
		CancelAtPeriodEnd:     in.CancelAtPeriodEnd,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	record.CurrentPeriodStart = cloneTimePointer(in.CurrentPeriodStart)
	record.CurrentPeriodEnd = cloneTimePointer(in.CurrentPeriodEnd)
	return record
}

func (r *subscriptionRecord) toDomain() core.Subscription {
	if r == nil {
		return core.Subscription{}
	}
	subscription := core.Subscription{
		ID:                    r.ID,
		Gateway:               core.Gateway(r.Gateway),
		GatewaySubscriptionID: r.GatewaySubscriptionID,
		CustomerEmail:         r.CustomerEmail,
		SKU:                   r.SKU,
		Status:                core.SubscriptionStatus(r.Status),
		CancelAtPeriodEnd:     r.CancelAtPeriodEnd,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
	subscription.CurrentPeriodStart = cloneTimePointer(r.CurrentPeriodStart)
	subscription.CurrentPeriodEnd = cloneTimePointer(r.CurrentPeriodEnd)
	subscription.CancelledAt = cloneTimePointer(r.CancelledAt)
	return subscription
}

func (r *productRecord) toDomain() core.Product {
	if r == nil {
		return core.Product{}
	}
	return core.Product{
		ID:              r.ID,
		SKU:             r.SKU,
		Name:            r.Name,
		Price:           r.Price,
		FulfillmentKind: core.FulfillmentKind(r.FulfillmentKind),
		FulfillmentURL:  r.FulfillmentURL,
		Active:          r.Active,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func newLeadRecord(in core.UpsertLeadInput, now time.Time) *leadRecord {
	return &leadRecord{
		Email:       in.Email,
		Name:        in.Name,
		Source:      in.Source,
		Tags:        copyStringSlice(in.Tags),
		UTMSource:   in.UTMSource,
		UTMCampaign: in.UTMCampaign,
		UTMMedium:   in.UTMMedium,
		UTMTerm:     in.UTMTerm,
		UTMContent:  in.UTMContent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (r *leadRecord) toDomain() core.Lead {
	if r == nil {
		return core.Lead{}
	}
	return core.Lead{
		ID:          r.ID,
		Email:       r.Email,
		Name:        r.Name,
		Source:      r.Source,
		Tags:        copyStringSlice(r.Tags),
		UTMSource:   r.UTMSource,
		UTMCampaign: r.UTMCampaign,
		UTMMedium:   r.UTMMedium,
		UTMTerm:     r.UTMTerm,
		UTMContent:  r.UTMContent,
		Company:     r.Company,
		Role:        r.Role,
		LinkedIn:    r.LinkedIn,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func newAutomationLogRecord(in core.AppendAutomationLogInput, now time.Time) *automationLogRecord {
	record := &automationLogRecord{
		AutomationID:   in.AutomationID,
		AutomationName: in.AutomationName,
		Status:         string(in.Status),
		TriggerData:    copyAnyMap(in.TriggerData),
		ExecutionData:  copyAnyMap(in.ExecutionData),
		ErrorMessage:   in.ErrorMessage,
		StartedAt:      in.StartedAt.UTC(),
		CreatedAt:      now,
	}
	record.CompletedAt = cloneTimePointer(in.CompletedAt)
	if record.CompletedAt != nil {
		duration := record.CompletedAt.Sub(record.StartedAt).Milliseconds()
		if duration < 0 {
			duration = 0
		}
		record.DurationMS = &duration
	}
	return record
}

func (r *automationLogRecord) toDomain() core.AutomationLog {
	if r == nil {
		return core.AutomationLog{}
	}
	entry := core.AutomationLog{
		ID:             r.ID,
		AutomationID:   r.AutomationID,
		AutomationName: r.AutomationName,
		Status:         core.AutomationRunStatus(r.Status),
		TriggerData:    copyAnyMap(r.TriggerData),
		ExecutionData:  copyAnyMap(r.ExecutionData),
		ErrorMessage:   r.ErrorMessage,
		StartedAt:      r.StartedAt,
		CreatedAt:      r.CreatedAt,
	}
	entry.CompletedAt = cloneTimePointer(r.CompletedAt)
	if r.DurationMS != nil {
		value := *r.DurationMS
		entry.DurationMS = &value
	}
	return entry
}

func (r *kpiDailyRecord) toDomain() core.KpiDaily {
	if r == nil {
		return core.KpiDaily{}
	}
	return core.KpiDaily{
		ID:         r.ID,
		Date:       r.Date,
		Visitors:   r.Visitors,
		Leads:      r.Leads,
		Orders:     r.Orders,
		Gross:      r.Gross,
		Net:        r.Net,
		Refunds:    r.Refunds,
		Conversion: r.Conversion,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (r *contentAssetRecord) toDomain() core.ContentAsset {
	if r == nil {
		return core.ContentAsset{}
	}
	return core.ContentAsset{
		ID:          r.ID,
		BriefingFor: r.BriefingFor,
		Headline:    r.Headline,
		Article:     r.Article,
		SocialPosts: copyStringSlice(r.SocialPosts),
		AudioURL:    r.AudioURL,
		VideoURL:    r.VideoURL,
		Published:   r.Published,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func copyStringSlice(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}

func cloneTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
