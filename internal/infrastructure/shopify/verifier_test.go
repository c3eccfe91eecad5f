package shopify_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"testing"

	"shopify-order-bridge/internal/domain"
	"shopify-order-bridge/internal/infrastructure/shopify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signBase64(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookVerifier(t *testing.T) {
	const secret = "shpss_secret"
	body := []byte(`{"id": 55123, "financial_status": "paid"}`)
	verifier := shopify.NewWebhookVerifier(secret)

	require.NoError(t, verifier.Verify(body, signBase64(secret, body)))

	// signature over different bytes
	err := verifier.Verify(body, signBase64(secret, []byte(`{"id": 55124}`)))
	require.ErrorIs(t, err, domain.ErrAuthentication)

	// signature under a different secret
	err = verifier.Verify(body, signBase64("other-secret", body))
	require.ErrorIs(t, err, domain.ErrAuthentication)

	// garbage and empty headers
	require.ErrorIs(t, verifier.Verify(body, "not-base64-at-all"), domain.ErrAuthentication)
	require.ErrorIs(t, verifier.Verify(body, ""), domain.ErrAuthentication)
}

func TestVerifyOAuthHMAC(t *testing.T) {
	const secret = "shpss_secret"

	query := url.Values{}
	query.Set("shop", "test.myshopify.com")
	query.Set("code", "abc123")
	query.Set("timestamp", "1719828000")

	// hex HMAC over the sorted query string without the hmac param
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("code=abc123&shop=test.myshopify.com&timestamp=1719828000"))
	query.Set("hmac", hex.EncodeToString(mac.Sum(nil)))

	assert.True(t, shopify.VerifyOAuthHMAC(secret, query))

	tampered := url.Values{}
	for k := range query {
		tampered.Set(k, query.Get(k))
	}
	tampered.Set("shop", "evil.myshopify.com")
	assert.False(t, shopify.VerifyOAuthHMAC(secret, tampered))

	query.Del("hmac")
	assert.False(t, shopify.VerifyOAuthHMAC(secret, query))
}
