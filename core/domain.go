package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidGateway                 = errors.New("core: invalid gateway")
	ErrInvalidOrderStatusTransition   = errors.New("core: invalid order status transition")
	ErrInvalidFulfillmentKind         = errors.New("core: invalid fulfillment kind")
	ErrOrderNotFound                  = errors.New("core: order not found")
	ErrSubscriptionNotFound           = errors.New("core: subscription not found")
	ErrProductNotFound                = errors.New("core: product not found")
	ErrDuplicateOrder                 = errors.New("core: order already exists for gateway transaction")
	ErrInvalidAutomationRunStatus     = errors.New("core: invalid automation run status")
	ErrInvalidSubscriptionStatusInput = errors.New("core: subscription status is required")
)

type Gateway string

const (
	GatewayStripe Gateway = "stripe"
	GatewayPayPal Gateway = "paypal"
)

func ParseGateway(value string) (Gateway, error) {
	switch Gateway(strings.ToLower(strings.TrimSpace(value))) {
	case GatewayStripe:
		return GatewayStripe, nil
	case GatewayPayPal:
		return GatewayPayPal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGateway, value)
	}
}

// MinorUnitFactor returns the divisor that converts the gateway's native
// amount representation into major currency units. PayPal reports decimal
// strings already in major units.
func (g Gateway) MinorUnitFactor() int {
	switch g {
	case GatewayStripe:
		return 100
	default:
		return 1
	}
}

type OrderStatus string

const (
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusRefunded OrderStatus = "refunded"
	OrderStatusDisputed OrderStatus = "disputed"
)

type Order struct {
	ID                   string
	Gateway              Gateway
	GatewayTransactionID string
	Status               OrderStatus
	Amount               float64
	BuyerEmail           string
	BuyerName            string
	SKU                  string
	RawMetadata          map[string]any
	Fulfilled            bool
	FulfilledAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TransitionTo enforces the order lifecycle: paid is the only live state and
// refunded/disputed are terminal.
func (o *Order) TransitionTo(status OrderStatus, now time.Time) error {
	if o == nil {
		return nil
	}
	if o.Status == status {
		o.UpdatedAt = now
		return nil
	}
	if !orderTransitionAllowed(o.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidOrderStatusTransition, o.Status, status)
	}
	o.Status = status
	o.UpdatedAt = now
	return nil
}

func orderTransitionAllowed(current, next OrderStatus) bool {
	allowed := map[OrderStatus]map[OrderStatus]struct{}{
		OrderStatusPaid: {
			OrderStatusRefunded: {},
			OrderStatusDisputed: {},
		},
	}
	_, ok := allowed[current][next]
	return ok
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

type Subscription struct {
	ID                    string
	Gateway               Gateway
	GatewaySubscriptionID string
	CustomerEmail         string
	SKU                   string
	Status                SubscriptionStatus
	CurrentPeriodStart    *time.Time
	CurrentPeriodEnd      *time.Time
	CancelAtPeriodEnd     bool
	CancelledAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Cancel stamps the cancellation regardless of prior status: gateways emit
// the delete event as the final word on a subscription.
func (s *Subscription) Cancel(now time.Time) {
	if s == nil {
		return
	}
	s.Status = SubscriptionStatusCancelled
	stamp := now.UTC()
	s.CancelledAt = &stamp
	s.UpdatedAt = now
}

type FulfillmentKind string

const (
	FulfillmentKindCopyKit  FulfillmentKind = "copykit"
	FulfillmentKindBriefing FulfillmentKind = "briefing"
	FulfillmentKindNone     FulfillmentKind = "none"
)

func ParseFulfillmentKind(value string) (FulfillmentKind, error) {
	kind := FulfillmentKind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case FulfillmentKindCopyKit, FulfillmentKindBriefing, FulfillmentKindNone:
		return kind, nil
	case "":
		return FulfillmentKindNone, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFulfillmentKind, value)
	}
}

type Product struct {
	ID              string
	SKU             string
	Name            string
	Price           float64
	FulfillmentKind FulfillmentKind
	FulfillmentURL  string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RequiresFulfillment reports whether a paid order for this product should
// reach the fulfillment dispatcher at all.
func (p Product) RequiresFulfillment() bool {
	return p.FulfillmentKind != "" && p.FulfillmentKind != FulfillmentKindNone
}

type Lead struct {
	ID          string
	Email       string
	Name        string
	Source      string
	Tags        []string
	UTMSource   string
	UTMCampaign string
	UTMMedium   string
	UTMTerm     string
	UTMContent  string
	Company     string
	Role        string
	LinkedIn    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MergeTags unions the incoming tags into the lead's tag set, preserving
// first-seen order. Duplicate submissions merge rather than overwrite.
func (l *Lead) MergeTags(incoming []string) {
	if l == nil || len(incoming) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(l.Tags))
	for _, tag := range l.Tags {
		seen[tag] = struct{}{}
	}
	for _, tag := range incoming {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		l.Tags = append(l.Tags, tag)
	}
}

type AutomationRunStatus string

const (
	AutomationRunCompleted AutomationRunStatus = "completed"
	AutomationRunFailed    AutomationRunStatus = "failed"
	AutomationRunPartial   AutomationRunStatus = "partial"
)

func (s AutomationRunStatus) Validate() error {
	switch s {
	case AutomationRunCompleted, AutomationRunFailed, AutomationRunPartial:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAutomationRunStatus, s)
	}
}

type AutomationLog struct {
	ID             string
	AutomationID   string
	AutomationName string
	Status         AutomationRunStatus
	TriggerData    map[string]any
	ExecutionData  map[string]any
	ErrorMessage   string
	StartedAt      time.Time
	CompletedAt    *time.Time
	DurationMS     *int64
	CreatedAt      time.Time
}

type KpiDaily struct {
	ID         string
	Date       time.Time
	Visitors   int
	Leads      int
	Orders     int
	Gross      float64
	Net        float64
	Refunds    int
	Conversion float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ContentAsset struct {
	ID          string
	BriefingFor time.Time
	Headline    string
	Article     string
	SocialPosts []string
	AudioURL    string
	VideoURL    string
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
