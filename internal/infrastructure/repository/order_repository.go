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

var _ ports.OrderRepository = (*OrderRepository)(nil)

// OrderRepository persists canonical order records in Postgres.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// SaveRecord writes one order and its line items in a single
// transaction. Re-ingesting an order id updates status only; a line
// item conflict overwrites quantity, title, image, and owning order; an
// image URL is inserted once and never overwritten.
func (r *OrderRepository) SaveRecord(ctx context.Context, rec *domain.OrderRecord) error {
	if rec == nil || rec.Order.OrderID == 0 {
		return fmt.Errorf("order id is required: %w", domain.ErrValidation)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %v: %w", err, domain.ErrRepository)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			_ = rbErr
		}
	}()

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (shop, order_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO UPDATE SET status = EXCLUDED.status
	`, rec.Order.Shop, rec.Order.OrderID, rec.Order.Status, rec.Order.CreatedAt); err != nil {
		return fmt.Errorf("upsert order: %v: %w", err, domain.ErrRepository)
	}

	for _, item := range rec.Items {
		var storageID int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO fulfilment_items (order_id, line_item_id, qty, reason, image_url)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (line_item_id) DO UPDATE SET
				order_id = EXCLUDED.order_id,
				qty = EXCLUDED.qty,
				reason = EXCLUDED.reason,
				image_url = EXCLUDED.image_url
			RETURNING id
		`, item.OrderID, item.LineItemID, item.Quantity, item.Title, nullIfEmpty(item.ImageURL)).Scan(&storageID); err != nil {
			return fmt.Errorf("upsert line item %d: %v: %w", item.LineItemID, err, domain.ErrRepository)
		}

		if item.ImageURL != "" {
			if _, err := tx.Exec(ctx, `
				INSERT INTO images (image_url, return_item_id)
				VALUES ($1, $2)
				ON CONFLICT (image_url) DO NOTHING
			`, item.ImageURL, storageID); err != nil {
				return fmt.Errorf("insert image: %v: %w", err, domain.ErrRepository)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %v: %w", err, domain.ErrRepository)
	}
	return nil
}

// ListByShop returns the shop's orders newest-first with line items
// attached via one batched query.
func (r *OrderRepository) ListByShop(ctx context.Context, shopDomain string) ([]*domain.OrderRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT shop, order_id, COALESCE(status, ''), created_at
		FROM orders
		WHERE shop = $1
		ORDER BY created_at DESC, order_id DESC
	`, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("select orders: %v: %w", err, domain.ErrRepository)
	}
	defer rows.Close()

	records := make([]*domain.OrderRecord, 0)
	byID := make(map[int64]*domain.OrderRecord)
	ids := make([]int64, 0)

	for rows.Next() {
		rec := &domain.OrderRecord{Items: []domain.LineItem{}}
		if err := rows.Scan(&rec.Order.Shop, &rec.Order.OrderID, &rec.Order.Status, &rec.Order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %v: %w", err, domain.ErrRepository)
		}
		records = append(records, rec)
		byID[rec.Order.OrderID] = rec
		ids = append(ids, rec.Order.OrderID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orders rows: %v: %w", err, domain.ErrRepository)
	}
	if len(records) == 0 {
		return records, nil
	}

	itemRows, err := r.pool.Query(ctx, `
		SELECT order_id, line_item_id, COALESCE(qty, 0), COALESCE(reason, ''), COALESCE(image_url, '')
		FROM fulfilment_items
		WHERE order_id = ANY($1::bigint[])
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("select line items: %v: %w", err, domain.ErrRepository)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.LineItem
		if err := itemRows.Scan(&item.OrderID, &item.LineItemID, &item.Quantity, &item.Title, &item.ImageURL); err != nil {
			return nil, fmt.Errorf("scan line item: %v: %w", err, domain.ErrRepository)
		}
		if rec := byID[item.OrderID]; rec != nil {
			rec.Items = append(rec.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("line item rows: %v: %w", err, domain.ErrRepository)
	}

	return records, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
