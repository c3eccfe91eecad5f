package domain

import "time"

// Shop is one merchant tenant, identified by its myshopify domain.
// Created on a successful OAuth handshake; the token is replaced on
// re-authorization. Shops are never deleted.
type Shop struct {
	Domain      string
	AccessToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Order is the canonical order row, keyed by the platform's numeric
// order id (unique per shop).
type Order struct {
	Shop      string
	OrderID   int64
	Status    string
	CreatedAt time.Time
}

// LineItem belongs to an order by platform order id. That link is not a
// foreign key: items may be written before their order row exists.
// ImageURL is empty when the source payload carries no image.
type LineItem struct {
	OrderID    int64
	LineItemID int64
	Quantity   int
	Title      string
	ImageURL   string
}

// OrderRecord is the normalizer's output: one order plus its line items
// in payload order. It is always a fresh value, never aliasing the
// source payload.
type OrderRecord struct {
	Order Order
	Items []LineItem
}
