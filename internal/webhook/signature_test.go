package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NEARBuilders/near-merch-store-sub000/pkg/errors"
)

const testSecret = "8a7b9c0d1e2f30415263748596a7b8c9"

func signBody(t *testing.T, body []byte) string {
	t.Helper()
	secret, err := hex.DecodeString(testSecret)
	require.NoError(t, err)
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`{"type":"shipment_sent"}`)
	assert.NoError(t, VerifySignature(body, testSecret, signBody(t, body)))
}

func TestVerifySignature_Missing(t *testing.T) {
	err := VerifySignature([]byte(`{}`), testSecret, "")
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
}

func TestVerifySignature_WrongLength(t *testing.T) {
	// Shorter than a SHA-256 digest; must be rejected as invalid, not
	// blow up in the comparison.
	err := VerifySignature([]byte(`{}`), testSecret, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
}

func TestVerifySignature_MalformedHex(t *testing.T) {
	err := VerifySignature([]byte(`{}`), testSecret, "not-hex-at-all!")
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
}

func TestVerifySignature_Mismatch(t *testing.T) {
	body := []byte(`{"type":"shipment_sent"}`)
	sig := signBody(t, []byte(`{"type":"tampered"}`))
	err := VerifySignature(body, testSecret, sig)
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
}

func TestVerifySignature_BodySensitive(t *testing.T) {
	body := []byte(`{"type":"shipment_sent"}`)
	sig := signBody(t, body)
	err := VerifySignature(append(body, ' '), testSecret, sig)
	assert.Error(t, err)
}
