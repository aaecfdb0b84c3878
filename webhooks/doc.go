// Package webhooks contains the gateway-agnostic inbound pipeline: signature
// and content verification, delivery dedupe against a persistent ledger, and
// exact-match routing of decoded events to reconcile handlers.
package webhooks
