package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type orderRecord struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID                   string         `bun:"id,pk"`
	Gateway              string         `bun:"gateway,notnull"`
	GatewayTransactionID string         `bun:"gateway_transaction_id,notnull"`
	Status               string         `bun:"status,notnull"`
	Amount               float64        `bun:"amount,notnull"`
	BuyerEmail           string         `bun:"buyer_email"`
	BuyerName            string         `bun:"buyer_name"`
	SKU                  string         `bun:"sku,notnull"`
	RawMetadata          map[string]any `bun:"raw_metadata,type:jsonb,notnull"`
	Fulfilled            bool           `bun:"fulfilled,notnull"`
	FulfilledAt          *time.Time     `bun:"fulfilled_at,nullzero"`
	CreatedAt            time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt            time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type subscriptionRecord struct {
	bun.BaseModel `bun:"table:subscriptions,alias:s"`

	ID                    string     `bun:"id,pk"`
	Gateway               string     `bun:"gateway,notnull"`
	GatewaySubscriptionID string     `bun:"gateway_subscription_id,notnull"`
	CustomerEmail         string     `bun:"customer_email"`
	SKU                   string     `bun:"sku,notnull"`
	Status                string     `bun:"status,notnull"`
	CurrentPeriodStart    *time.Time `bun:"current_period_start,nullzero"`
	CurrentPeriodEnd      *time.Time `bun:"current_period_end,nullzero"`
	CancelAtPeriodEnd     bool       `bun:"cancel_at_period_end,notnull"`
	CancelledAt           *time.Time `bun:"cancelled_at,nullzero"`
	CreatedAt             time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt             time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type productRecord struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID              string    `bun:"id,pk"`
	SKU             string    `bun:"sku,notnull"`
	Name            string    `bun:"name,notnull"`
	Price           float64   `bun:"price,notnull"`
	FulfillmentKind string    `bun:"fulfillment_kind,notnull"`
	FulfillmentURL  string    `bun:"fulfillment_url"`
	Active          bool      `bun:"active,notnull"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type leadRecord struct {
	bun.BaseModel `bun:"table:leads,alias:l"`

	ID          string    `bun:"id,pk"`
	Email       string    `bun:"email,notnull"`
	Name        string    `bun:"name"`
	Source      string    `bun:"source,notnull"`
	Tags        []string  `bun:"tags,type:jsonb,notnull"`
	UTMSource   string    `bun:"utm_source"`
	UTMCampaign string    `bun:"utm_campaign"`
	UTMMedium   string    `bun:"utm_medium"`
	UTMTerm     string    `bun:"utm_term"`
	UTMContent  string    `bun:"utm_content"`
	Company     string    `bun:"company"`
	Role        string    `bun:"role"`
	LinkedIn    string    `bun:"linkedin"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type automationLogRecord struct {
	bun.BaseModel `bun:"table:automation_logs,alias:al"`

	ID             string         `bun:"id,pk"`
	AutomationID   string         `bun:"automation_id,notnull"`
	AutomationName string         `bun:"automation_name,notnull"`
	Status         string         `bun:"status,notnull"`
	TriggerData    map[string]any `bun:"trigger_data,type:jsonb,notnull"`
	ExecutionData  map[string]any `bun:"execution_data,type:jsonb,notnull"`
	ErrorMessage   string         `bun:"error_message"`
	StartedAt      time.Time      `bun:"started_at,nullzero,notnull"`
	CompletedAt    *time.Time     `bun:"completed_at,nullzero"`
	DurationMS     *int64         `bun:"duration_ms,nullzero"`
	CreatedAt      time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type kpiDailyRecord struct {
	bun.BaseModel `bun:"table:kpi_daily,alias:k"`

	ID         string    `bun:"id,pk"`
	Date       time.Time `bun:"date,notnull"`
	Visitors   int       `bun:"visitors,notnull"`
	Leads      int       `bun:"leads,notnull"`
	Orders     int       `bun:"orders,notnull"`
	Gross      float64   `bun:"gross,notnull"`
	Net        float64   `bun:"net,notnull"`
	Refunds    int       `bun:"refunds,notnull"`
	Conversion float64   `bun:"conversion,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type contentAssetRecord struct {
	bun.BaseModel `bun:"table:content_assets,alias:ca"`

	ID          string    `bun:"id,pk"`
	BriefingFor time.Time `bun:"briefing_for,notnull"`
	Headline    string    `bun:"headline,notnull"`
	Article     string    `bun:"article,notnull"`
	SocialPosts []string  `bun:"social_posts,type:jsonb,notnull"`
	AudioURL    string    `bun:"audio_url"`
	VideoURL    string    `bun:"video_url"`
	Published   bool      `bun:"published,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type webhookDeliveryRecord struct {
	bun.BaseModel `bun:"table:webhook_deliveries,alias:wd"`

	ID         string    `bun:"id,pk"`
	Gateway    string    `bun:"gateway,notnull"`
	DeliveryID string    `bun:"delivery_id,notnull"`
	Status     string    `bun:"status,notnull"`
	Attempts   int       `bun:"attempts,notnull"`
	LastError  string    `bun:"last_error"`
	Payload    []byte    `bun:"payload"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
