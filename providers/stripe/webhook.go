package stripe

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/omnirevenue/agent/core"
	"github.com/omnirevenue/agent/webhooks"
)

const (
	// SignatureHeader carries the signed payload scheme: "t=<unix>,v1=<hex>".
	SignatureHeader = "Stripe-Signature"

	// DefaultTolerance bounds how stale a signed timestamp may be before the
	// delivery is treated as a replay.
	DefaultTolerance = 5 * time.Minute
)

// SignatureVerifier validates the Stripe-Signature header: an HMAC-SHA256
// over "<timestamp>.<body>" with a replay tolerance window. Multiple v1
// entries are accepted if any one matches.
type SignatureVerifier struct {
	Secret    string
	Tolerance time.Duration
	Now       func() time.Time
}

func NewSignatureVerifier(secret string) SignatureVerifier {
	return SignatureVerifier{
		Secret:    secret,
		Tolerance: DefaultTolerance,
	}
}

func (v SignatureVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	secret := strings.TrimSpace(v.Secret)
	if secret == "" {
		return fmt.Errorf("stripe: webhook secret is required")
	}
	header := webhooks.HeaderValue(req.Headers, SignatureHeader)
	if header == "" {
		return fmt.Errorf("stripe: %s header is required", SignatureHeader)
	}

	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	tolerance := v.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	now := time.Now().UTC()
	if v.Now != nil {
		now = v.Now()
	}
	signedAt := time.Unix(timestamp, 0).UTC()
	if delta := now.Sub(signedAt); delta > tolerance || delta < -tolerance {
		return fmt.Errorf("stripe: signature timestamp outside tolerance window")
	}

	expected := webhooks.SignedPayloadHMAC(secret, strconv.FormatInt(timestamp, 10), req.Body)
	for _, signature := range signatures {
		decoded, err := hex.DecodeString(signature)
		if err != nil {
			continue
		}
		if subtle.ConstantTimeCompare(decoded, expected) == 1 {
			return nil
		}
	}
	return fmt.Errorf("stripe: signature verification failed")
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		timestamp  int64
		signatures []string
		hasTime    bool
	)
	for _, pair := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("stripe: malformed signature timestamp: %w", err)
			}
			timestamp = parsed
			hasTime = true
		case "v1":
			signatures = append(signatures, strings.TrimSpace(value))
		}
	}
	if !hasTime {
		return 0, nil, fmt.Errorf("stripe: signature timestamp is required")
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("stripe: signature value is required")
	}
	return timestamp, signatures, nil
}
