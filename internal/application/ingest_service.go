package application

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"shopify-order-bridge/internal/domain"
	"shopify-order-bridge/internal/ports"

	"github.com/rs/zerolog"
)

// SourceKind names the two payload shapes an order can arrive in.
type SourceKind int

const (
	// SourceWebhook is the flat REST payload pushed on orders/create.
	SourceWebhook SourceKind = iota
	// SourceBulkQuery is one order node from the admin GraphQL listing.
	SourceBulkQuery
)

// fallbackTitle replaces a missing line-item title, both at ingestion
// and in the view model.
const fallbackTitle = "Product Item"

var trailingDigits = regexp.MustCompile(`[0-9]+$`)

// ExtractNumericID takes the trailing run of digits from an opaque
// prefixed identifier, e.g. "gid://shopify/Order/55123" -> 55123.
//
// This is deliberately the same fragile extraction the dashboard has
// always done: any digits at the end of the string win, and an id
// format change on the platform side would break it. Kept as a named,
// tested function rather than silently replaced.
func ExtractNumericID(opaque string) (int64, error) {
	digits := trailingDigits.FindString(opaque)
	if digits == "" {
		return 0, fmt.Errorf("no trailing digits in id %q: %w", opaque, domain.ErrValidation)
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", opaque, domain.ErrValidation)
	}
	return id, nil
}

// webhookOrder is the orders/create push shape: numeric ids and plain
// field names.
type webhookOrder struct {
	ID              int64  `json:"id"`
	FinancialStatus string `json:"financial_status"`
	CreatedAt       string `json:"created_at"`
	LineItems       []struct {
		ID       int64  `json:"id"`
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
		Title    string `json:"title"`
		Image    *struct {
			Src string `json:"src"`
		} `json:"image"`
	} `json:"line_items"`
}

// bulkOrder is one order node of the admin GraphQL listing: opaque gid
// identifiers and camelCase field names.
type bulkOrder struct {
	ID                     string `json:"id"`
	CreatedAt              string `json:"createdAt"`
	DisplayFinancialStatus string `json:"displayFinancialStatus"`
	LineItems              struct {
		Edges []struct {
			Node struct {
				ID       string `json:"id"`
				Quantity int    `json:"quantity"`
				Title    string `json:"title"`
				Variant  *struct {
					Image *struct {
						URL string `json:"url"`
					} `json:"image"`
				} `json:"variant"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"lineItems"`
}

// IngestService is the ingestion normalizer: it reconciles the two
// source shapes into one canonical record and, in persisting mode,
// drives the order repository.
type IngestService struct {
	orders ports.OrderRepository
	logger zerolog.Logger
}

// NewIngestService creates a new ingestion normalizer.
func NewIngestService(orders ports.OrderRepository, logger zerolog.Logger) *IngestService {
	return &IngestService{
		orders: orders,
		logger: logger,
	}
}

// Normalize converts one raw order of the given source kind into a
// canonical record. The result is a fresh value with no aliasing into
// the input. Line items keep their payload order.
func (s *IngestService) Normalize(shopDomain string, rawOrder json.RawMessage, kind SourceKind) (*domain.OrderRecord, error) {
	switch kind {
	case SourceWebhook:
		return normalizeWebhook(shopDomain, rawOrder)
	case SourceBulkQuery:
		return normalizeBulk(shopDomain, rawOrder)
	default:
		return nil, fmt.Errorf("unknown source kind %d: %w", kind, domain.ErrValidation)
	}
}

// Ingest normalizes and persists one order. The repository writes the
// whole record in a single transaction, so an order either lands
// completely or not at all; other orders in a batch are unaffected.
func (s *IngestService) Ingest(ctx context.Context, shopDomain string, rawOrder json.RawMessage, kind SourceKind) error {
	rec, err := s.Normalize(shopDomain, rawOrder, kind)
	if err != nil {
		return err
	}

	if err := s.orders.SaveRecord(ctx, rec); err != nil {
		return fmt.Errorf("persist order %d: %w", rec.Order.OrderID, err)
	}

	s.logger.Debug().
		Str("shop", shopDomain).
		Int64("orderId", rec.Order.OrderID).
		Int("lineItems", len(rec.Items)).
		Msg("Order ingested")
	return nil
}

func normalizeWebhook(shopDomain string, rawOrder json.RawMessage) (*domain.OrderRecord, error) {
	var src webhookOrder
	if err := json.Unmarshal(rawOrder, &src); err != nil {
		return nil, fmt.Errorf("parse webhook order: %v: %w", err, domain.ErrValidation)
	}
	if src.ID == 0 {
		return nil, fmt.Errorf("webhook order has no id: %w", domain.ErrValidation)
	}

	createdAt, err := parseOrderTime(src.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec := &domain.OrderRecord{
		Order: domain.Order{
			Shop:      shopDomain,
			OrderID:   src.ID,
			Status:    src.FinancialStatus,
			CreatedAt: createdAt,
		},
		Items: make([]domain.LineItem, 0, len(src.LineItems)),
	}

	for _, item := range src.LineItems {
		if item.ID == 0 {
			return nil, fmt.Errorf("webhook line item has no id (order %d): %w", src.ID, domain.ErrValidation)
		}
		imageURL := ""
		if item.Image != nil {
			imageURL = item.Image.Src
		}
		rec.Items = append(rec.Items, domain.LineItem{
			OrderID:    src.ID,
			LineItemID: item.ID,
			Quantity:   item.Quantity,
			Title:      titleOrFallback(item.Title),
			ImageURL:   imageURL,
		})
	}
	return rec, nil
}

func normalizeBulk(shopDomain string, rawOrder json.RawMessage) (*domain.OrderRecord, error) {
	var src bulkOrder
	if err := json.Unmarshal(rawOrder, &src); err != nil {
		return nil, fmt.Errorf("parse bulk order: %v: %w", err, domain.ErrValidation)
	}

	orderID, err := ExtractNumericID(src.ID)
	if err != nil {
		return nil, fmt.Errorf("order id: %w", err)
	}

	createdAt, err := parseOrderTime(src.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec := &domain.OrderRecord{
		Order: domain.Order{
			Shop:      shopDomain,
			OrderID:   orderID,
			Status:    src.DisplayFinancialStatus,
			CreatedAt: createdAt,
		},
		Items: make([]domain.LineItem, 0, len(src.LineItems.Edges)),
	}

	for _, edge := range src.LineItems.Edges {
		node := edge.Node
		itemID, err := ExtractNumericID(node.ID)
		if err != nil {
			return nil, fmt.Errorf("line item id (order %d): %w", orderID, err)
		}
		imageURL := ""
		if node.Variant != nil && node.Variant.Image != nil {
			imageURL = node.Variant.Image.URL
		}
		rec.Items = append(rec.Items, domain.LineItem{
			OrderID:    orderID,
			LineItemID: itemID,
			Quantity:   node.Quantity,
			Title:      titleOrFallback(node.Title),
			ImageURL:   imageURL,
		})
	}
	return rec, nil
}

func parseOrderTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse order timestamp %q: %w", value, domain.ErrValidation)
	}
	return t, nil
}

func titleOrFallback(title string) string {
	if title == "" {
		return fallbackTitle
	}
	return title
}
