package webhooks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/omnirevenue/agent/core"
)

type HandlerFunc func(ctx context.Context, event core.GatewayEvent) error

// Router is the exact-match dispatch table for gateway event types. The table
// is populated once at startup; unrecognized types are not an error at
// dispatch time so gateways never retry events this service ignores.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRouter() *Router {
	return &Router{handlers: map[string]HandlerFunc{}}
}

func (r *Router) Register(eventType string, handler HandlerFunc) error {
	if r == nil {
		return webhookInternal("webhooks: router is nil", nil)
	}
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return webhookBadInput("webhooks: event type is required", nil)
	}
	if handler == nil {
		return webhookBadInput("webhooks: handler is nil", map[string]any{"event_type": eventType})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[eventType]; exists {
		return webhookError(
			fmt.Sprintf("webhooks: handler already registered for event type %q", eventType),
			goerrors.CategoryConflict,
			http.StatusConflict,
			core.AgentErrorConflict,
			map[string]any{"event_type": eventType},
		)
	}
	r.handlers[eventType] = handler
	return nil
}

// Dispatch returns handled=false for unknown event types without error.
func (r *Router) Dispatch(ctx context.Context, event core.GatewayEvent) (bool, error) {
	if r == nil {
		return false, webhookInternal("webhooks: router is nil", nil)
	}
	r.mu.RLock()
	handler, ok := r.handlers[strings.TrimSpace(event.Type)]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, handler(ctx, event)
}

func (r *Router) Types() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for eventType := range r.handlers {
		types = append(types, eventType)
	}
	return types
}
