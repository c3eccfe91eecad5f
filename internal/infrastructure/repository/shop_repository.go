package repository

import (
	"context"
	"errors"
	"fmt"

	"shopify-order-bridge/internal/domain"
	"shopify-order-bridge/internal/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ports.ShopRepository = (*ShopRepository)(nil)

// ShopRepository persists tenant credentials in the shops table.
type ShopRepository struct {
	pool *pgxpool.Pool
}

// NewShopRepository creates a new shop repository.
func NewShopRepository(pool *pgxpool.Pool) *ShopRepository {
	return &ShopRepository{pool: pool}
}

// Save inserts the shop or replaces its access token.
func (r *ShopRepository) Save(ctx context.Context, shop *domain.Shop) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO shops (shop_domain, access_token)
		VALUES ($1, $2)
		ON CONFLICT (shop_domain) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			updated_at = CURRENT_TIMESTAMP
	`, shop.Domain, shop.AccessToken)
	if err != nil {
		return fmt.Errorf("upsert shop: %v: %w", err, domain.ErrRepository)
	}
	return nil
}

// GetByDomain returns (nil, nil) when no credential is on file.
func (r *ShopRepository) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var shop domain.Shop
	err := r.pool.QueryRow(ctx, `
		SELECT shop_domain, access_token, created_at, updated_at
		FROM shops WHERE shop_domain = $1
	`, shopDomain).Scan(&shop.Domain, &shop.AccessToken, &shop.CreatedAt, &shop.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select shop: %v: %w", err, domain.ErrRepository)
	}
	return &shop, nil
}
