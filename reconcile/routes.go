package reconcile

import (
	"fmt"

	"github.com/omnirevenue/agent/providers/paypal"
	"github.com/omnirevenue/agent/providers/stripe"
	"github.com/omnirevenue/agent/webhooks"
)

// RegisterRoutes binds every reconciled event type to its handler. The
// table is resolved once at startup; anything not listed here is ignored
// by the processor.
func (s *Service) RegisterRoutes(router *webhooks.Router) error {
	if router == nil {
		return fmt.Errorf("reconcile: router is required")
	}
	bindings := []struct {
		eventType string
		handler   webhooks.HandlerFunc
	}{
		{stripe.EventCheckoutSessionCompleted, s.HandleCheckoutCompleted},
		{stripe.EventCustomerSubscriptionNew, s.HandleSubscriptionCreated},
		{stripe.EventCustomerSubscriptionEdit, s.HandleSubscriptionUpdated},
		{stripe.EventCustomerSubscriptionGone, s.HandleSubscriptionCancelled},
		{stripe.EventChargeRefunded, s.HandleRefund},
		{stripe.EventChargeDisputeCreated, s.HandleDispute},
		{paypal.EventPaymentCaptureCompleted, s.HandleCheckoutCompleted},
		{paypal.EventBillingSubscriptionNew, s.HandleSubscriptionCreated},
		{paypal.EventBillingSubscriptionGone, s.HandleSubscriptionCancelled},
		{paypal.EventPaymentCaptureRefunded, s.HandleRefund},
	}
	for _, binding := range bindings {
		if err := router.Register(binding.eventType, binding.handler); err != nil {
			return err
		}
	}
	return nil
}
