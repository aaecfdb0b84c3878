package api

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/omnirevenue/agent/automation"
	"github.com/omnirevenue/agent/core"
)

// WebhookProcessor runs the inbound pipeline for one payment gateway.
type WebhookProcessor interface {
	Process(ctx context.Context, req core.InboundRequest) (core.InboundResult, error)
}

// FulfillmentDispatcher is the slice of the fulfillment layer the manual
// fulfilment endpoints need.
type FulfillmentDispatcher interface {
	DispatchKind(ctx context.Context, kind core.FulfillmentKind, order core.Order, product core.Product) error
}

type LeadIntakeService interface {
	Process(ctx context.Context, in core.UpsertLeadInput) (automation.LeadIntakeResult, error)
}

type KpiRecomputeService interface {
	RecomputeToday(ctx context.Context) (core.KpiDaily, error)
}

type Config struct {
	Stripe WebhookProcessor
	PayPal WebhookProcessor
	// Health reports store connectivity; nil skips the probe.
	Health     func(ctx context.Context) error
	Orders     core.OrderStore
	Products   core.ProductStore
	Dispatcher FulfillmentDispatcher
	Intake     LeadIntakeService
	Kpi        KpiRecomputeService
	KpiStore   core.KpiStore
	Logs       core.AutomationLogStore
	Logger     core.Logger
}

type Server struct {
	router     *gin.Engine
	stripe     WebhookProcessor
	paypal     WebhookProcessor
	health     func(ctx context.Context) error
	orders     core.OrderStore
	products   core.ProductStore
	dispatcher FulfillmentDispatcher
	intake     LeadIntakeService
	kpi        KpiRecomputeService
	kpiStore   core.KpiStore
	logs       core.AutomationLogStore
	logger     core.Logger
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Stripe == nil || cfg.PayPal == nil {
		return nil, fmt.Errorf("api: stripe and paypal processors are required")
	}
	if cfg.Orders == nil || cfg.Products == nil {
		return nil, fmt.Errorf("api: order and product stores are required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("api: fulfillment dispatcher is required")
	}
	if cfg.Intake == nil {
		return nil, fmt.Errorf("api: lead intake service is required")
	}
	if cfg.Kpi == nil || cfg.KpiStore == nil {
		return nil, fmt.Errorf("api: kpi services are required")
	}

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:     router,
		stripe:     cfg.Stripe,
		paypal:     cfg.PayPal,
		health:     cfg.Health,
		orders:     cfg.Orders,
		products:   cfg.Products,
		dispatcher: cfg.Dispatcher,
		intake:     cfg.Intake,
		kpi:        cfg.Kpi,
		kpiStore:   cfg.KpiStore,
		logs:       cfg.Logs,
		logger:     cfg.Logger,
	}

	router.GET("/health", s.handleHealth)

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/stripe", s.handleStripeWebhook)
		webhooks.POST("/paypal", s.handlePayPalWebhook)
	}

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/leads", s.handleCreateLead)
		apiGroup.POST("/fulfilment/copykit", s.handleFulfilCopyKit)
		apiGroup.POST("/fulfilment/briefing", s.handleFulfilBriefing)
		apiGroup.GET("/kpi/daily", s.handleListKpi)
		apiGroup.POST("/kpi/update", s.handleRecomputeKpi)
		apiGroup.GET("/automations/logs", s.handleListAutomationLogs)
	}

	return s, nil
}

func (s *Server) Router() *gin.Engine {
	if s == nil {
		return nil
	}
	return s.router
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return fmt.Errorf("api: server is not configured")
	}
	return s.router.Run(addr)
}
