package reconcile

import (
	"testing"

	"github.com/omnirevenue/agent/webhooks"
)

func TestRegisterRoutes(t *testing.T) {
	f := newFixture(t, newMemoryProducts(), nil)
	router := webhooks.NewRouter()

	if err := f.service.RegisterRoutes(router); err != nil {
		t.Fatalf("register routes: %v", err)
	}
	if got := len(router.Types()); got != 10 {
		t.Fatalf("expected 10 routed event types, got %d", got)
	}
	if err := f.service.RegisterRoutes(router); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}
