package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"shopify-order-bridge/internal/domain"
)

// WebhookVerifier checks the X-Shopify-Hmac-Sha256 header against the
// exact raw request bytes using the app's shared API secret.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier creates a verifier for the given shared secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify computes base64(HMAC-SHA256(secret, payload)) and compares it
// to the signature header in constant time.
func (v *WebhookVerifier) Verify(payload []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("webhook signature mismatch: %w", domain.ErrAuthentication)
	}
	return nil
}

// VerifyOAuthHMAC checks the hmac query parameter Shopify appends to
// the OAuth callback: hex(HMAC-SHA256(secret, sorted query string
// without hmac)).
func VerifyOAuthHMAC(secret string, query url.Values) bool {
	signature := query.Get("hmac")
	if signature == "" {
		return false
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		if k == "hmac" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+query.Get(k))
	}
	message := strings.Join(pairs, "&")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
