package paypal

import (
	"github.com/omnirevenue/agent/webhooks"
)

// TransmissionSigHeader carries the base64 HMAC-SHA256 signature over the
// raw delivery body.
const TransmissionSigHeader = "Paypal-Transmission-Sig"

func NewSignatureVerifier(secret string) webhooks.HeaderHMACVerifier {
	return webhooks.HeaderHMACVerifier{
		Header:   TransmissionSigHeader,
		Secret:   secret,
		Encoding: "base64",
	}
}
