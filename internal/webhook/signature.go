package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	apperrors "github.com/NEARBuilders/near-merch-store-sub000/pkg/errors"
)

// VerifySignature checks a hex-encoded HMAC-SHA256 signature over the raw
// request body. The shared secret is itself hex-encoded and must be decoded
// before keying the HMAC. All failure modes (missing signature, malformed
// hex, wrong length, mismatch) surface uniformly as Unauthorized so callers
// leak nothing about which check failed.
func VerifySignature(rawBody []byte, hexSecret, signature string) error {
	if signature == "" {
		return apperrors.Unauthorized("missing webhook signature")
	}

	secret, err := hex.DecodeString(hexSecret)
	if err != nil {
		return apperrors.Unauthorized("invalid webhook secret")
	}

	received, err := hex.DecodeString(signature)
	if err != nil {
		return apperrors.Unauthorized("malformed webhook signature")
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	// hmac.Equal panics on nothing, but a length mismatch is already a
	// definitive reject; check it explicitly before the constant-time
	// compare.
	if len(received) != len(expected) {
		return apperrors.Unauthorized("invalid webhook signature")
	}
	if !hmac.Equal(received, expected) {
		return apperrors.Unauthorized("invalid webhook signature")
	}
	return nil
}
