// Package stripe adapts Stripe webhook deliveries into normalized gateway
// events: signature verification for the Stripe-Signature scheme and a
// validated payload schema parsed at the boundary.
package stripe
