package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"wh_1","event":{"data":{"block":{"number":1}}}}`)

	require.True(t, VerifySignature(body, sign(body, secret), secret))
}

func TestVerifySignatureUppercaseHex(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"wh_1"}`)

	sig := sign(body, secret)
	var upper []byte
	for _, c := range []byte(sig) {
		if c >= 'a' && c <= 'f' {
			c -= 'a' - 'A'
		}
		upper = append(upper, c)
	}

	require.True(t, VerifySignature(body, string(upper), secret))
}

func TestVerifySignatureRejectsMutations(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"wh_1","type":"GRAPHQL"}`)
	sig := sign(body, secret)

	// Flip one byte of the body.
	mutated := append([]byte(nil), body...)
	mutated[0] ^= 0x01
	require.False(t, VerifySignature(mutated, sig, secret))

	// Flip one character of the signature.
	badSig := []byte(sig)
	if badSig[0] == 'a' {
		badSig[0] = 'b'
	} else {
		badSig[0] = 'a'
	}
	require.False(t, VerifySignature(body, string(badSig), secret))
}

func TestVerifySignatureMissingInputs(t *testing.T) {
	body := []byte(`{}`)

	require.False(t, VerifySignature(body, sign(body, "secret"), ""))
	require.False(t, VerifySignature(body, "", "secret"))
}
