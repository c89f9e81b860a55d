package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signHeader(ts, requestID, dataID, secret string) string {
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyWebhookSignatureValid(t *testing.T) {
	header := signHeader("1700000000", "req-123", "12345678901", "secret-key")
	assert.True(t, VerifyWebhookSignature(header, "req-123", "12345678901", "secret-key"))
}

func TestVerifyWebhookSignatureLowercasesDataID(t *testing.T) {
	header := signHeader("1700000000", "req-123", "abc123", "secret-key")
	assert.True(t, VerifyWebhookSignature(header, "req-123", "ABC123", "secret-key"))
}

func TestVerifyWebhookSignatureWrongSecret(t *testing.T) {
	header := signHeader("1700000000", "req-123", "12345678901", "secret-key")
	assert.False(t, VerifyWebhookSignature(header, "req-123", "12345678901", "other-key"))
}

func TestVerifyWebhookSignatureTamperedBody(t *testing.T) {
	header := signHeader("1700000000", "req-123", "12345678901", "secret-key")
	assert.False(t, VerifyWebhookSignature(header, "req-123", "99999999999", "secret-key"))
}

func TestVerifyWebhookSignatureEmptyInputs(t *testing.T) {
	header := signHeader("1700000000", "req-123", "12345678901", "secret-key")
	assert.False(t, VerifyWebhookSignature("", "req-123", "12345678901", "secret-key"))
	assert.False(t, VerifyWebhookSignature(header, "req-123", "12345678901", ""))
}

func TestVerifyWebhookSignatureMalformedHeader(t *testing.T) {
	assert.False(t, VerifyWebhookSignature("not-a-signature", "req-123", "1", "secret-key"))
	assert.False(t, VerifyWebhookSignature("ts=123", "req-123", "1", "secret-key"))
	assert.False(t, VerifyWebhookSignature("ts=123,v1=zzzz", "req-123", "1", "secret-key"))
}
