package webhooks

import (
	"context"
	"testing"

	"github.com/omnirevenue/agent/core"
)

func TestRouterRegisterRejectsDuplicates(t *testing.T) {
	router := NewRouter()
	handler := func(context.Context, core.GatewayEvent) error { return nil }

	if err := router.Register("checkout.session.completed", handler); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := router.Register("checkout.session.completed", handler); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestRouterRegisterValidatesInput(t *testing.T) {
	router := NewRouter()
	if err := router.Register("  ", func(context.Context, core.GatewayEvent) error { return nil }); err == nil {
		t.Fatal("expected error for blank event type")
	}
	if err := router.Register("charge.refunded", nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
}

func TestRouterDispatchUnknownType(t *testing.T) {
	router := NewRouter()
	handled, err := router.Dispatch(context.Background(), core.GatewayEvent{Type: "invoice.paid"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if handled {
		t.Fatal("expected unknown type to be unhandled")
	}
}

func TestRouterDispatchTrimsEventType(t *testing.T) {
	router := NewRouter()
	called := false
	if err := router.Register("charge.refunded", func(context.Context, core.GatewayEvent) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	handled, err := router.Dispatch(context.Background(), core.GatewayEvent{Type: "  charge.refunded  "})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !handled || !called {
		t.Fatalf("expected trimmed type to dispatch, handled=%v called=%v", handled, called)
	}
}
