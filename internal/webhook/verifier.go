// Package webhook ingests payment gateway notifications: it verifies the
// delivery signature, then normalizes the gateway payload into a
// transaction event. A delivery that fails verification never produces
// an event.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// SignatureHeader is the request header carrying the gateway's hex-encoded
// HMAC-SHA256 digest of the raw request body.
const SignatureHeader = "X-Korpay-Signature"

var (
	ErrMissingSignature = errors.New("signature header missing")
	ErrBadSignature     = errors.New("signature verification failed")
)

// Verifier checks webhook deliveries against a shared gateway secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign computes the hex HMAC-SHA256 digest of body under the shared secret.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the provided signature against the raw request body.
// Comparison is constant-time.
func (v *Verifier) Verify(body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	expected := v.Sign(body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}
