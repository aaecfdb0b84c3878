package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/omnirevenue/agent/core"
)

const maxWebhookBodySize = 1 << 20 // 1MB

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStripeWebhook(c *gin.Context) {
	s.handleWebhook(c, core.GatewayStripe, s.stripe)
}

func (s *Server) handlePayPalWebhook(c *gin.Context) {
	s.handleWebhook(c, core.GatewayPayPal, s.paypal)
}

func (s *Server) handleWebhook(c *gin.Context, gateway core.Gateway, processor WebhookProcessor) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		s.respondError(c, core.MapError(err))
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for key, values := range c.Request.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	result, err := processor.Process(c.Request.Context(), core.InboundRequest{
		Gateway:     gateway,
		Headers:     headers,
		ContentType: c.ContentType(),
		Body:        body,
	})
	if err != nil {
		s.respondError(c, core.MapError(err))
		return
	}

	payload := gin.H{"received": true}
	for key, value := range result.Metadata {
		payload[key] = value
	}
	status := result.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, payload)
}

type createLeadRequest struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Source      string   `json:"source"`
	Tags        []string `json:"tags"`
	UTMSource   string   `json:"utm_source"`
	UTMCampaign string   `json:"utm_campaign"`
	UTMMedium   string   `json:"utm_medium"`
	UTMTerm     string   `json:"utm_term"`
	UTMContent  string   `json:"utm_content"`
}

func (s *Server) handleCreateLead(c *gin.Context) {
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "invalid lead payload",
			"error_code": core.AgentErrorBadInput,
		})
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "email is required",
			"error_code": core.AgentErrorBadInput,
		})
		return
	}

	result, err := s.intake.Process(c.Request.Context(), core.UpsertLeadInput{
		Email:       req.Email,
		Name:        req.Name,
		Source:      req.Source,
		Tags:        req.Tags,
		UTMSource:   req.UTMSource,
		UTMCampaign: req.UTMCampaign,
		UTMMedium:   req.UTMMedium,
		UTMTerm:     req.UTMTerm,
		UTMContent:  req.UTMContent,
	})
	if err != nil {
		s.respondError(c, core.MapError(err))
		return
	}

	response := gin.H{"lead": leadPayload(result.Lead)}
	if result.CRMRecordID != "" {
		response["crm_record_id"] = result.CRMRecordID
	}
	if result.LinearIssueID != "" {
		response["linear_issue_id"] = result.LinearIssueID
	}
	c.JSON(http.StatusCreated, response)
}

type fulfilRequest struct {
	OrderID string `json:"order_id"`
}

func (s *Server) handleFulfilCopyKit(c *gin.Context) {
	s.handleFulfil(c, core.FulfillmentKindCopyKit)
}

func (s *Server) handleFulfilBriefing(c *gin.Context) {
	s.handleFulfil(c, core.FulfillmentKindBriefing)
}

func (s *Server) handleFulfil(c *gin.Context, kind core.FulfillmentKind) {
	var req fulfilRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.OrderID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "order_id is required",
			"error_code": core.AgentErrorBadInput,
		})
		return
	}

	order, err := s.orders.Get(c.Request.Context(), req.OrderID)
	if err != nil {
		s.respondError(c, core.MapError(err))
		return
	}
	product, err := s.products.FindBySKU(c.Request.Context(), order.SKU)
	if err != nil {
		s.respondError(c, core.MapError(err))
		return
	}
	if err := s.dispatcher.DispatchKind(c.Request.Context(), kind, order, product); err != nil {
		s.respondError(c, core.MapError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fulfilled": true,
		"order_id":  order.ID,
		"kind":      string(kind),
	})
}

func (s *Server) handleListKpi(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days < 1 {
		days = 7
	}

	rows, err := s.kpiStore.ListRecent(c.Request.Context(), days)
	if err != nil {
		s.respondError(c, core.MapError(err))
		return
	}

	payload := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		payload = append(payload, kpiPayload(row))
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "kpi": payload})
}

type updateKpiRequest struct {
	Date       string   `json:"date"`
	Visitors   *int     `json:"visitors"`
	Leads      *int     `json:"leads"`
	Orders     *int     `json:"orders"`
	Gross      *float64 `json:"gross"`
	Net        *float64 `json:"net"`
	Refunds    *int     `json:"refunds"`
	Conversion *float64 `json:"conversion"`
}

func (r updateKpiRequest) hasMetrics() bool {
	return r.Visitors != nil || r.Leads != nil || r.Orders != nil ||
		r.Gross != nil || r.Net != nil || r.Refunds != nil || r.Conversion != nil
}

// handleRecomputeKpi upserts caller-supplied metrics when the body carries
// any, and falls back to recomputing today's row from the lead and order
// records when it does not. Visitors and conversion only ever arrive through
// this endpoint.
func (s *Server) handleRecomputeKpi(c *gin.Context) {
	var req updateKpiRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "invalid kpi payload",
			"error_code": core.AgentErrorBadInput,
		})
		return
	}

	if !req.hasMetrics() {
		row, err := s.kpi.RecomputeToday(c.Request.Context())
		if err != nil {
			s.respondError(c, core.MapError(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"kpi": kpiPayload(row)})
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "date must be formatted YYYY-MM-DD",
				"error_code": core.AgentErrorBadInput,
			})
			return
		}
		date = parsed
	}
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	row, err := s.kpiStore.Upsert(c.Request.Context(), core.UpsertKpiInput{
		Date:       midnight,
		Visitors:   req.Visitors,
		Leads:      req.Leads,
		Orders:     req.Orders,
		Gross:      req.Gross,
		Net:        req.Net,
		Refunds:    req.Refunds,
		Conversion: req.Conversion,
	})
	if err != nil {
		s.respondError(c, core.MapError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"kpi": kpiPayload(row)})
}

func (s *Server) handleListAutomationLogs(c *gin.Context) {
	if s.logs == nil {
		c.JSON(http.StatusOK, gin.H{"logs": []gin.H{}})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := s.logs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, core.MapError(err))
		return
	}

	payload := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		item := gin.H{
			"id":              entry.ID,
			"automation_id":   entry.AutomationID,
			"automation_name": entry.AutomationName,
			"status":          string(entry.Status),
			"started_at":      entry.StartedAt,
			"trigger_data":    entry.TriggerData,
			"execution_data":  entry.ExecutionData,
		}
		if entry.ErrorMessage != "" {
			item["error_message"] = entry.ErrorMessage
		}
		if entry.CompletedAt != nil {
			item["completed_at"] = entry.CompletedAt
		}
		if entry.DurationMS != nil {
			item["duration_ms"] = entry.DurationMS
		}
		payload = append(payload, item)
	}
	c.JSON(http.StatusOK, gin.H{"logs": payload})
}

func leadPayload(lead core.Lead) gin.H {
	payload := gin.H{
		"id":     lead.ID,
		"email":  lead.Email,
		"name":   lead.Name,
		"source": lead.Source,
		"tags":   lead.Tags,
	}
	if lead.Company != "" {
		payload["company"] = lead.Company
	}
	if lead.Role != "" {
		payload["role"] = lead.Role
	}
	return payload
}

func kpiPayload(row core.KpiDaily) gin.H {
	return gin.H{
		"date":       row.Date.Format("2006-01-02"),
		"visitors":   row.Visitors,
		"leads":      row.Leads,
		"orders":     row.Orders,
		"gross":      row.Gross,
		"net":        row.Net,
		"refunds":    row.Refunds,
		"conversion": row.Conversion,
	}
}
