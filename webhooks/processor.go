package webhooks

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/omnirevenue/agent/core"
)

const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusProcessed = "processed"
	DeliveryStatusFailed    = "failed"
)

type DeliveryRecord struct {
	ID         string
	Gateway    string
	DeliveryID string
	Status     string
	Attempts   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DeliveryLedger is the persistent dedupe record for webhook deliveries.
// Reserve claims a delivery id: duplicate=true means the delivery was already
// accepted (pending or processed) and must not be handled again. A previously
// failed delivery is re-opened by Reserve so gateway retries reprocess it.
type DeliveryLedger interface {
	Reserve(ctx context.Context, gateway core.Gateway, deliveryID string, payload []byte) (DeliveryRecord, bool, error)
	MarkProcessed(ctx context.Context, gateway core.Gateway, deliveryID string) error
	MarkFailed(ctx context.Context, gateway core.Gateway, deliveryID string, cause error) error
}

// EventParser decodes a verified raw request into the typed gateway event the
// reconciler consumes. Provider packages implement this per gateway.
type EventParser interface {
	Parse(req core.InboundRequest) (core.GatewayEvent, error)
}

type Processor struct {
	Verifier Verifier
	Parser   EventParser
	Ledger   DeliveryLedger
	Router   *Router
	Logger   core.Logger
	Now      func() time.Time
}

func NewProcessor(verifier Verifier, parser EventParser, ledger DeliveryLedger, router *Router) *Processor {
	return &Processor{
		Verifier: verifier,
		Parser:   parser,
		Ledger:   ledger,
		Router:   router,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Process runs the full inbound pipeline: signature verification (401),
// content-type check (400), payload decoding (400), delivery dedupe, and
// routing. Handler failures mark the delivery failed and propagate so the
// HTTP layer returns 500 and the gateway retries.
func (p *Processor) Process(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if p == nil || p.Parser == nil || p.Ledger == nil || p.Router == nil {
		return core.InboundResult{}, webhookInternal("webhooks: processor requires parser, ledger and router", nil)
	}
	if _, err := core.ParseGateway(string(req.Gateway)); err != nil {
		return core.InboundResult{}, webhookBadInput(err.Error(), nil)
	}

	if p.Verifier != nil {
		if err := p.Verifier.Verify(ctx, req); err != nil {
			return core.InboundResult{
				Accepted:   false,
				StatusCode: http.StatusUnauthorized,
				Metadata: map[string]any{
					"gateway":  string(req.Gateway),
					"rejected": true,
				},
			}, webhookUnauthorized(err, map[string]any{"gateway": string(req.Gateway)})
		}
	}

	if err := checkContentType(req.ContentType); err != nil {
		return core.InboundResult{
			Accepted:   false,
			StatusCode: http.StatusBadRequest,
			Metadata: map[string]any{
				"gateway":  string(req.Gateway),
				"rejected": true,
			},
		}, err
	}

	event, err := p.Parser.Parse(req)
	if err != nil {
		return core.InboundResult{}, webhookWrapError(
			err,
			goerrors.CategoryBadInput,
			"webhooks: decode gateway payload",
			http.StatusBadRequest,
			core.AgentErrorBadInput,
			map[string]any{"gateway": string(req.Gateway)},
		)
	}

	delivery, duplicate, err := p.Ledger.Reserve(ctx, event.Gateway, event.DeliveryID, req.Body)
	if err != nil {
		return core.InboundResult{}, err
	}
	if duplicate {
		p.logInfo(ctx, "webhook delivery deduplicated", map[string]any{
			"gateway":     string(event.Gateway),
			"delivery_id": event.DeliveryID,
			"event_type":  event.Type,
			"status":      delivery.Status,
		})
		return core.InboundResult{
			Accepted:   true,
			StatusCode: http.StatusOK,
			Metadata: map[string]any{
				"gateway":     string(event.Gateway),
				"delivery_id": event.DeliveryID,
				"deduped":     true,
			},
		}, nil
	}

	handled, err := p.Router.Dispatch(ctx, event)
	if err != nil {
		_ = p.Ledger.MarkFailed(ctx, event.Gateway, event.DeliveryID, err)
		return core.InboundResult{}, err
	}
	if err := p.Ledger.MarkProcessed(ctx, event.Gateway, event.DeliveryID); err != nil {
		return core.InboundResult{}, err
	}

	metadata := map[string]any{
		"gateway":     string(event.Gateway),
		"delivery_id": event.DeliveryID,
		"event_type":  event.Type,
	}
	if !handled {
		metadata["ignored"] = true
		p.logInfo(ctx, "webhook event type ignored", metadata)
	}
	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Metadata:   metadata,
	}, nil
}

func checkContentType(contentType string) error {
	declared := strings.TrimSpace(contentType)
	if declared == "" {
		return webhookBadInput("webhooks: content type is required", nil)
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return webhookBadInput("webhooks: malformed content type", map[string]any{"content_type": declared})
	}
	if mediaType != "application/json" {
		return webhookBadInput("webhooks: expected application/json payload", map[string]any{"content_type": mediaType})
	}
	return nil
}

func (p *Processor) logInfo(ctx context.Context, message string, fields map[string]any) {
	if p == nil || p.Logger == nil {
		return
	}
	logger := p.Logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Info(message)
}
