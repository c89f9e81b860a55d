package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// VerifyWebhookSignature checks the x-signature header Mercado Pago sends
// with webhook notifications. The header carries "ts=<unix>,v1=<hex hmac>";
// the signed manifest is "id:<data.id>;request-id:<x-request-id>;ts:<ts>;"
// keyed with the account's webhook secret (HMAC-SHA256).
func VerifyWebhookSignature(signatureHeader, requestID, dataID, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret = strings.TrimSpace(secret)
	if sig == "" || secret == "" {
		return false
	}

	ts, v1 := "", ""
	for _, part := range strings.Split(sig, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	expected, err := hex.DecodeString(strings.ToLower(v1))
	if err != nil {
		return false
	}

	// Alphanumeric ids are signed lowercased
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;",
		strings.ToLower(strings.TrimSpace(dataID)), strings.TrimSpace(requestID), ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hmac.Equal(mac.Sum(nil), expected)
}
