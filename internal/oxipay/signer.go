// Package oxipay implements the Oxipay hosted-checkout wire protocol:
// canonical request signing, checkout payload construction, callback
// re-verification and refund submission.
package oxipay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
)

// SigningPrefix marks the parameters that participate in signing.
const SigningPrefix = "x_"

// SignatureField carries the digest on checkout requests. It is appended
// after signing and excluded from its own input.
const SignatureField = "x_signature"

// ErrEmptySecret is returned when signing is attempted without a key.
// An unsigned or mis-keyed request must never be produced silently.
var ErrEmptySecret = errors.New("oxipay: empty signing secret")

// Sign computes the canonical HMAC-SHA256 signature of params.
//
// Only keys with the "x_" prefix are signed (the signature field itself
// excepted). Keys are sorted ascending by ordinal comparison and each
// key‖value pair is concatenated with no delimiter, so signer and verifier
// agree regardless of insertion order. The digest is rendered as lowercase hex.
func Sign(params map[string]string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if strings.HasPrefix(k, SigningPrefix) && k != SignatureField {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var payload strings.Builder
	for _, k := range keys {
		payload.WriteString(k)
		payload.WriteString(params[k])
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload.String()))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifySignature recomputes the signature and compares it to the claimed
// one in constant time.
func VerifySignature(params map[string]string, secret []byte, claimed string) bool {
	expected, err := Sign(params, secret)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(claimed)))
}
