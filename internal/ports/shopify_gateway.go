package ports

import (
	"context"
	"encoding/json"
	"time"
)

// ShopifyGateway is the outbound edge to the Shopify admin API.
type ShopifyGateway interface {
	// ExchangeToken trades an OAuth authorization code for an access token.
	ExchangeToken(ctx context.Context, shop string, code string) (string, error)

	// RegisterOrderWebhook subscribes the app to orders/create for the shop.
	RegisterOrderWebhook(ctx context.Context, shop string, accessToken string) error

	// FetchRecentOrders returns up to pageSize orders created at or after
	// since, newest first, each as a raw bulk-query order node for the
	// normalizer to consume.
	FetchRecentOrders(ctx context.Context, shop string, accessToken string, since time.Time, pageSize int) ([]json.RawMessage, error)
}

// WebhookVerifier checks the HMAC signature of an inbound webhook
// delivery against the exact raw request bytes.
type WebhookVerifier interface {
	Verify(payload []byte, signature string) error
}
