package application_test

import (
	"testing"
	"time"

	"shopify-order-bridge/internal/application"
	"shopify-order-bridge/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestBuildOrderView_TotalsAndDefaults(t *testing.T) {
	created := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	rec := &domain.OrderRecord{
		Order: domain.Order{Shop: "test.myshopify.com", OrderID: 55123, Status: "paid", CreatedAt: created},
		Items: []domain.LineItem{
			{OrderID: 55123, LineItemID: 901, Quantity: 2, Title: "Blue Mug", ImageURL: "https://cdn.example.com/mug.jpg"},
			{OrderID: 55123, LineItemID: 902, Quantity: 0, Title: "", ImageURL: ""},
		},
	}

	view := application.BuildOrderView(rec)

	assert.Equal(t, int64(55123), view.ShopifyOrderID)
	assert.Equal(t, int64(55123), view.OrderNumber)
	assert.Equal(t, created, view.CreatedAt)
	assert.Equal(t, "paid", view.FinancialStatus)
	// 2 units plus one zero-quantity item counted as a single unit
	assert.Equal(t, "150.00", view.TotalPrice)

	assert.Len(t, view.LineItems, 2)
	assert.Equal(t, "Blue Mug", view.LineItems[0].Title)
	assert.Equal(t, "https://cdn.example.com/mug.jpg", view.LineItems[0].ImageURL)
	assert.Equal(t, "50.00", view.LineItems[0].Price)

	assert.Equal(t, "Product Item", view.LineItems[1].Title)
	assert.Equal(t, "https://via.placeholder.com/60", view.LineItems[1].ImageURL)
	assert.Equal(t, 1, view.LineItems[1].Quantity)
}

func TestBuildOrderView_EmptyOrder(t *testing.T) {
	rec := &domain.OrderRecord{
		Order: domain.Order{Shop: "test.myshopify.com", OrderID: 77, Status: ""},
		Items: []domain.LineItem{},
	}

	view := application.BuildOrderView(rec)

	assert.Equal(t, "unknown", view.FinancialStatus)
	assert.Equal(t, "0.00", view.TotalPrice)
	assert.NotNil(t, view.LineItems)
	assert.Empty(t, view.LineItems)
}

func TestBuildOrderViews_NonNilAndOrderPreserving(t *testing.T) {
	views := application.BuildOrderViews(nil)
	assert.NotNil(t, views)
	assert.Empty(t, views)

	recs := []*domain.OrderRecord{
		{Order: domain.Order{OrderID: 2}},
		{Order: domain.Order{OrderID: 1}},
	}
	views = application.BuildOrderViews(recs)
	assert.Equal(t, int64(2), views[0].ShopifyOrderID)
	assert.Equal(t, int64(1), views[1].ShopifyOrderID)
}
