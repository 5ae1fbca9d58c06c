package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Delivery headers. Receivers use the signature header to authenticate the
// payload and the rest for observability and replay detection.
const (
	HeaderEventType       = "X-Beacon-Event-Type"
	HeaderEventID         = "X-Beacon-Event-Id"
	HeaderDeliveryAttempt = "X-Beacon-Delivery-Attempt"
	HeaderSignature       = "X-Beacon-Signature-256"

	signaturePrefix = "sha256="
	userAgent       = "Beacon-Webhooks/1.0"
)

// Sign computes the signature header value for a raw request body:
// "sha256=" + hex(HMAC-SHA256(secret, body)). The body bytes must be exactly
// what goes on the wire; re-marshaling on either side breaks verification.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the HMAC over body and compares it to the
// received header value in constant time.
func VerifySignature(secret string, body []byte, header string) bool {
	hexsig, ok := strings.CutPrefix(header, signaturePrefix)
	if !ok {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(hexsig))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}
