package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type CreateOrderInput struct {
	Gateway              Gateway
	GatewayTransactionID string
	Amount               float64
	BuyerEmail           string
	BuyerName            string
	SKU                  string
	RawMetadata          map[string]any
}

type OrderStore interface {
	Create(ctx context.Context, in CreateOrderInput) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	FindByTransaction(ctx context.Context, gateway Gateway, transactionID string) (Order, error)
	UpdateStatus(ctx context.Context, id string, status OrderStatus) (Order, error)
	MarkFulfilled(ctx context.Context, id string, fulfilledAt time.Time) (Order, error)
	ListSince(ctx context.Context, since time.Time) ([]Order, error)
}

type CreateSubscriptionInput struct {
	Gateway               Gateway
	GatewaySubscriptionID string
	CustomerEmail         string
	SKU                   string
	Status                SubscriptionStatus
	CurrentPeriodStart    *time.Time
	CurrentPeriodEnd      *time.Time
	CancelAtPeriodEnd     bool
}

type UpdateSubscriptionInput struct {
	Status             SubscriptionStatus
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

type SubscriptionStore interface {
	Create(ctx context.Context, in CreateSubscriptionInput) (Subscription, error)
	FindByGatewayID(ctx context.Context, gateway Gateway, subscriptionID string) (Subscription, error)
	Update(ctx context.Context, id string, in UpdateSubscriptionInput) (Subscription, error)
	Cancel(ctx context.Context, id string, cancelledAt time.Time) (Subscription, error)
	ListActive(ctx context.Context, sku string) ([]Subscription, error)
}

type ProductStore interface {
	FindBySKU(ctx context.Context, sku string) (Product, error)
	Upsert(ctx context.Context, product Product) (Product, error)
}

type UpsertLeadInput struct {
	Email       string
	Name        string
	Source      string
	Tags        []string
	UTMSource   string
	UTMCampaign string
	UTMMedium   string
	UTMTerm     string
	UTMContent  string
}

type LeadEnrichment struct {
	Company  string
	Role     string
	LinkedIn string
}

type LeadStore interface {
	Upsert(ctx context.Context, in UpsertLeadInput) (Lead, error)
	FindByEmail(ctx context.Context, email string) (Lead, error)
	ApplyEnrichment(ctx context.Context, id string, enrichment LeadEnrichment) (Lead, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type AppendAutomationLogInput struct {
	AutomationID   string
	AutomationName string
	Status         AutomationRunStatus
	TriggerData    map[string]any
	ExecutionData  map[string]any
	ErrorMessage   string
	StartedAt      time.Time
	CompletedAt    *time.Time
}

type AutomationLogStore interface {
	Append(ctx context.Context, in AppendAutomationLogInput) (AutomationLog, error)
	ListRecent(ctx context.Context, limit int) ([]AutomationLog, error)
}

type UpsertKpiInput struct {
	Date       time.Time
	Visitors   *int
	Leads      *int
	Orders     *int
	Gross      *float64
	Net        *float64
	Refunds    *int
	Conversion *float64
}

type KpiStore interface {
	Upsert(ctx context.Context, in UpsertKpiInput) (KpiDaily, error)
	ListRecent(ctx context.Context, days int) ([]KpiDaily, error)
}

type ContentAssetStore interface {
	Save(ctx context.Context, asset ContentAsset) (ContentAsset, error)
	MarkPublished(ctx context.Context, id string) error
}

// StoreProvider groups the persistence handles that get injected into
// handlers; nothing in the repo reaches for a global client.
type StoreProvider interface {
	OrderStore() OrderStore
	SubscriptionStore() SubscriptionStore
	ProductStore() ProductStore
	LeadStore() LeadStore
	AutomationLogStore() AutomationLogStore
	KpiStore() KpiStore
	ContentAssetStore() ContentAssetStore
}

// InboundRequest is the raw webhook surface handed to verification and
// routing before any payload parsing happens.
type InboundRequest struct {
	Gateway     Gateway
	Headers     map[string]string
	ContentType string
	Body        []byte
	Metadata    map[string]any
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	Metadata   map[string]any
}

// GatewayEvent is the normalized, already-validated event the reconciler
// consumes. Provider packages are the only producers.
type GatewayEvent struct {
	Gateway      Gateway
	DeliveryID   string
	Type         string
	Checkout     *CheckoutCompleted
	Subscription *SubscriptionEvent
	Refund       *RefundEvent
	Dispute      *DisputeEvent
	Raw          map[string]any
}

type CheckoutCompleted struct {
	TransactionID string
	BuyerEmail    string
	BuyerName     string
	Amount        float64
	SKU           string
}

type SubscriptionEvent struct {
	SubscriptionID     string
	CustomerEmail      string
	SKU                string
	Status             SubscriptionStatus
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

type RefundEvent struct {
	TransactionID string
}

type DisputeEvent struct {
	TransactionID string
}
