// Package paypal adapts PayPal webhook deliveries into normalized gateway
// events. Verification uses a shared-secret HMAC over the raw body carried
// in the transmission signature header.
package paypal
