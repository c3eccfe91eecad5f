package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopify-order-bridge/internal/domain"
	"shopify-order-bridge/internal/ports"

	"github.com/rs/zerolog"
)

// SyncService orchestrates the two ingestion paths: the bulk catch-up
// pull over the admin GraphQL API and the verified webhook push.
type SyncService struct {
	shops    ports.ShopRepository
	gateway  ports.ShopifyGateway
	verifier ports.WebhookVerifier
	ingest   *IngestService
	logger   zerolog.Logger
	window   time.Duration
	pageSize int
}

// NewSyncService creates a new sync orchestrator. window is the rolling
// creation-time filter for bulk pulls and pageSize bounds one pull.
func NewSyncService(
	shops ports.ShopRepository,
	gateway ports.ShopifyGateway,
	verifier ports.WebhookVerifier,
	ingest *IngestService,
	logger zerolog.Logger,
	window time.Duration,
	pageSize int,
) *SyncService {
	return &SyncService{
		shops:    shops,
		gateway:  gateway,
		verifier: verifier,
		ingest:   ingest,
		logger:   logger,
		window:   window,
		pageSize: pageSize,
	}
}

// SyncRecentOrders pulls one bounded page of the shop's recent orders
// and ingests them sequentially. Returns the number of orders
// processed. A remote failure aborts the whole sync; an ingest failure
// aborts the remaining orders but leaves earlier upserts standing.
func (s *SyncService) SyncRecentOrders(ctx context.Context, shopDomain string) (int, error) {
	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return 0, fmt.Errorf("look up shop %s: %w", shopDomain, err)
	}
	if shop == nil {
		return 0, fmt.Errorf("no access token for shop %s: %w", shopDomain, domain.ErrUnknownTenant)
	}

	since := time.Now().Add(-s.window)
	orders, err := s.gateway.FetchRecentOrders(ctx, shopDomain, shop.AccessToken, since, s.pageSize)
	if err != nil {
		return 0, fmt.Errorf("fetch orders for %s: %w", shopDomain, err)
	}

	for i, rawOrder := range orders {
		if err := s.ingest.Ingest(ctx, shopDomain, rawOrder, SourceBulkQuery); err != nil {
			return i, fmt.Errorf("ingest order %d of %d: %w", i+1, len(orders), err)
		}
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Int("orders", len(orders)).
		Msg("Fetched and stored orders")
	return len(orders), nil
}

// ReceivePush verifies the HMAC signature of an orders/create delivery
// against the exact raw body and ingests the order in webhook shape.
func (s *SyncService) ReceivePush(ctx context.Context, shopDomain string, signature string, rawBody []byte) error {
	if err := s.verifier.Verify(rawBody, signature); err != nil {
		s.logger.Warn().Str("shop", shopDomain).Msg("Webhook validation failed")
		return err
	}

	return s.ingest.Ingest(ctx, shopDomain, json.RawMessage(rawBody), SourceWebhook)
}
