package application

import (
	"strconv"
	"time"

	"shopify-order-bridge/internal/domain"
)

// Pricing placeholders: the sync never stores real prices, so the view
// assumes a fixed price per unit. The dashboard knows and accepts this.
const (
	unitPrice          = 50.00
	unitPriceFormatted = "50.00"

	placeholderImageURL = "https://via.placeholder.com/60"
)

// OrderView is the shape the dashboard renders.
type OrderView struct {
	ShopifyOrderID  int64          `json:"shopify_order_id"`
	OrderNumber     int64          `json:"order_number"`
	CreatedAt       time.Time      `json:"created_at_shopify"`
	FinancialStatus string         `json:"financial_status"`
	TotalPrice      string         `json:"total_price"`
	LineItems       []LineItemView `json:"line_items"`
}

// LineItemView is one rendered line item with defaults applied.
type LineItemView struct {
	ImageURL string `json:"image_url"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// BuildOrderView reshapes one stored record into the dashboard view
// model. Pure: no I/O, no mutation of the input.
func BuildOrderView(rec *domain.OrderRecord) OrderView {
	items := make([]LineItemView, 0, len(rec.Items))
	total := 0.0
	for _, item := range rec.Items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		total += float64(qty) * unitPrice

		imageURL := item.ImageURL
		if imageURL == "" {
			imageURL = placeholderImageURL
		}
		title := item.Title
		if title == "" {
			title = fallbackTitle
		}
		items = append(items, LineItemView{
			ImageURL: imageURL,
			Title:    title,
			Quantity: qty,
			Price:    unitPriceFormatted,
		})
	}

	status := rec.Order.Status
	if status == "" {
		status = "unknown"
	}

	return OrderView{
		ShopifyOrderID:  rec.Order.OrderID,
		OrderNumber:     rec.Order.OrderID,
		CreatedAt:       rec.Order.CreatedAt,
		FinancialStatus: status,
		TotalPrice:      strconv.FormatFloat(total, 'f', 2, 64),
		LineItems:       items,
	}
}

// BuildOrderViews maps a list of records, preserving order. Always
// returns a non-nil slice so the dashboard gets [] instead of null.
func BuildOrderViews(recs []*domain.OrderRecord) []OrderView {
	views := make([]OrderView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, BuildOrderView(rec))
	}
	return views
}
