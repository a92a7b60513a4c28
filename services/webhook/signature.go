package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the sender's hex-encoded HMAC of the raw body.
const SignatureHeader = "X-Signature"

// VerifySignature checks the HMAC-SHA256 of the exact raw request bytes
// against the provided lowercase hex signature. The body must be the bytes as
// received on the wire; re-serializing a parsed payload does not reproduce the
// sender's signature. Returns false on any failure, including a missing
// secret.
func VerifySignature(rawBody []byte, provided, secret string) bool {
	if secret == "" || provided == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	if _, err := mac.Write(rawBody); err != nil {
		return false
	}
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(provided)))
}
