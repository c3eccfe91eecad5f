package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shopify-order-bridge/internal/domain"
	"shopify-order-bridge/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// ordersQuery is the bulk listing the catch-up sync runs: one bounded
// page, newest first, optionally filtered by a creation-time lower
// bound passed through $query.
const ordersQuery = `
query orders($first: Int!, $query: String) {
  orders(first: $first, sortKey: CREATED_AT, reverse: true, query: $query) {
    edges {
      node {
        id
        createdAt
        displayFinancialStatus
        lineItems(first: 20) {
          edges {
            node {
              id
              quantity
              title
              variant {
                image { url }
              }
            }
          }
        }
      }
    }
  }
}`

type graphQLError struct {
	Message string `json:"message"`
}

type ordersResponse struct {
	Data struct {
		Orders struct {
			Edges []struct {
				Node json.RawMessage `json:"node"`
			} `json:"edges"`
		} `json:"orders"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Gateway adapts the Shopify admin API behind ports.ShopifyGateway.
// OAuth and webhook registration go through the go-shopify client; the
// bulk orders pull posts to the GraphQL endpoint directly because the
// library's typed services don't cover it.
type Gateway struct {
	app        goshopify.App
	apiVersion string
	appURL     string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ ports.ShopifyGateway = (*Gateway)(nil)

// NewGateway creates a gateway for the app credentials. appURL is the
// public base URL webhooks are registered against.
func NewGateway(apiKey, apiSecret, apiVersion, appURL string, logger zerolog.Logger) *Gateway {
	return &Gateway{
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		apiVersion: apiVersion,
		appURL:     appURL,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// ExchangeToken trades the OAuth authorization code for an access token.
func (g *Gateway) ExchangeToken(ctx context.Context, shop string, code string) (string, error) {
	token, err := g.app.GetAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("exchange token for %s: %v: %w", shop, err, domain.ErrRemoteAPI)
	}
	return token, nil
}

// RegisterOrderWebhook subscribes the app to orders/create for the shop.
func (g *Gateway) RegisterOrderWebhook(ctx context.Context, shop string, accessToken string) error {
	client, err := goshopify.NewClient(g.app, shop, accessToken)
	if err != nil {
		return fmt.Errorf("create client for %s: %v: %w", shop, err, domain.ErrRemoteAPI)
	}

	webhook := goshopify.Webhook{
		Topic:   "orders/create",
		Address: g.appURL + "/webhooks/orders/create",
		Format:  "json",
	}
	if _, err := client.Webhook.Create(ctx, webhook); err != nil {
		return fmt.Errorf("register orders/create webhook for %s: %v: %w", shop, err, domain.ErrRemoteAPI)
	}

	g.logger.Info().Str("shop", shop).Msg("Webhook for orders/create registered")
	return nil
}

// FetchRecentOrders runs the bulk orders query and returns the raw
// order nodes for the normalizer.
func (g *Gateway) FetchRecentOrders(ctx context.Context, shop string, accessToken string, since time.Time, pageSize int) ([]json.RawMessage, error) {
	variables := map[string]any{
		"first": pageSize,
		"query": fmt.Sprintf("created_at:>=%s", since.UTC().Format(time.RFC3339)),
	}

	body, err := json.Marshal(map[string]any{
		"query":     ordersQuery,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal orders query: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, g.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build orders request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post orders query for %s: %v: %w", shop, err, domain.ErrRemoteAPI)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read orders response for %s: %v: %w", shop, err, domain.ErrRemoteAPI)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("orders query for %s returned status %d: %w", shop, resp.StatusCode, domain.ErrRemoteAPI)
	}

	var out ordersResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode orders response for %s: %v: %w", shop, err, domain.ErrRemoteAPI)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("orders query for %s failed: %s: %w", shop, out.Errors[0].Message, domain.ErrRemoteAPI)
	}

	orders := make([]json.RawMessage, 0, len(out.Data.Orders.Edges))
	for _, edge := range out.Data.Orders.Edges {
		orders = append(orders, edge.Node)
	}
	return orders, nil
}
