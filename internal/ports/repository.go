package ports

import (
	"context"

	"shopify-order-bridge/internal/domain"
)

// ShopRepository persists tenant credentials keyed by shop domain.
type ShopRepository interface {
	// Save inserts the shop or replaces its access token.
	Save(ctx context.Context, shop *domain.Shop) error

	// GetByDomain returns (nil, nil) when no credential is on file.
	GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error)
}

// OrderRepository persists canonical order records.
type OrderRepository interface {
	// SaveRecord writes one order and its line items in a single
	// transaction: order upsert keyed by order_id (status-only update on
	// conflict), then per item an upsert keyed by line_item_id plus an
	// insert-if-absent image row keyed by URL, in payload order.
	SaveRecord(ctx context.Context, rec *domain.OrderRecord) error

	// ListByShop returns the shop's orders newest-first, each with its
	// line items attached.
	ListByShop(ctx context.Context, shopDomain string) ([]*domain.OrderRecord, error)
}
