package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"shopify-order-bridge/internal/application"
	"shopify-order-bridge/internal/domain"
	"shopify-order-bridge/internal/infrastructure/metrics"
	"shopify-order-bridge/internal/infrastructure/shopify"
	"shopify-order-bridge/internal/ports"

	"github.com/rs/zerolog"
)

const stateTTL = 10 * time.Minute

// OrderSyncer is what the handlers need from the sync orchestrator.
type OrderSyncer interface {
	SyncRecentOrders(ctx context.Context, shopDomain string) (int, error)
	ReceivePush(ctx context.Context, shopDomain string, signature string, rawBody []byte) error
}

// Handler carries the REST surface: the dashboard orders endpoint, the
// orders/create webhook, and the OAuth install flow.
type Handler struct {
	syncer    OrderSyncer
	orders    ports.OrderRepository
	shops     ports.ShopRepository
	gateway   ports.ShopifyGateway
	states    ports.StateStore
	apiKey    string
	apiSecret string
	scopes    string
	appURL    string
	logger    zerolog.Logger
}

// NewHandler creates the REST handler.
func NewHandler(
	syncer OrderSyncer,
	orders ports.OrderRepository,
	shops ports.ShopRepository,
	gateway ports.ShopifyGateway,
	states ports.StateStore,
	apiKey, apiSecret, scopes, appURL string,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		syncer:    syncer,
		orders:    orders,
		shops:     shops,
		gateway:   gateway,
		states:    states,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		scopes:    scopes,
		appURL:    appURL,
		logger:    logger,
	}
}

// GetOrders handles GET /orders?shop=<domain>: sync first, then return
// the view-model array from the local store.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shop := r.URL.Query().Get("shop")
	if shop == "" {
		http.Error(w, "Missing shop parameter", http.StatusBadRequest)
		return
	}

	count, err := h.syncer.SyncRecentOrders(ctx, shop)
	if err != nil {
		h.logger.Error().Err(err).Str("shop", shop).Msg("Order sync failed")
		http.Error(w, "Error fetching orders", statusFor(err))
		return
	}
	metrics.OrdersIngested.WithLabelValues("bulk").Add(float64(count))

	records, err := h.orders.ListByShop(ctx, shop)
	if err != nil {
		h.logger.Error().Err(err).Str("shop", shop).Msg("Failed to list orders")
		http.Error(w, "Error fetching orders", statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, application.BuildOrderViews(records))
}

// CreateOrderWebhook handles POST /webhooks/orders/create. The body is
// read raw because the signature covers the exact bytes.
func (h *Handler) CreateOrderWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	signature := r.Header.Get("X-Shopify-Hmac-Sha256")
	shop := r.Header.Get("X-Shopify-Shop-Domain")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.syncer.ReceivePush(ctx, shop, signature, body); err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			metrics.WebhooksRejected.Inc()
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
		h.logger.Error().Err(err).Str("shop", shop).Msg("Error processing webhook")
		http.Error(w, "Error processing webhook", statusFor(err))
		return
	}

	metrics.OrdersIngested.WithLabelValues("webhook").Inc()
	h.logger.Info().Str("shop", shop).Msg("Webhook verified and processed")
	w.WriteHeader(http.StatusOK)
}

// Install handles GET /install?shop=: stores a state nonce and
// redirects to the Shopify authorize URL.
func (h *Handler) Install(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shop := r.URL.Query().Get("shop")
	if shop == "" {
		http.Error(w, "Missing shop parameter", http.StatusBadRequest)
		return
	}

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	state := hex.EncodeToString(stateBytes)

	if err := h.states.SaveState(ctx, state, shop, stateTTL); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save oauth state")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	authURL := fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		h.apiKey,
		url.QueryEscape(h.scopes),
		url.QueryEscape(h.appURL+"/auth/callback"),
		state,
	)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback handles the authorization redirect: HMAC check, state
// check, code exchange, credential upsert, webhook registration.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	shop := query.Get("shop")
	code := query.Get("code")
	state := query.Get("state")
	if shop == "" || code == "" || state == "" {
		http.Error(w, "Required parameters missing", http.StatusBadRequest)
		return
	}

	if !shopify.VerifyOAuthHMAC(h.apiSecret, query) {
		http.Error(w, "HMAC validation failed", http.StatusBadRequest)
		return
	}

	storedShop, err := h.states.ConsumeState(ctx, state)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to consume oauth state")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if storedShop == "" || storedShop != shop {
		http.Error(w, "Invalid state", http.StatusUnauthorized)
		return
	}

	token, err := h.gateway.ExchangeToken(ctx, shop, code)
	if err != nil {
		h.logger.Error().Err(err).Str("shop", shop).Msg("Error getting access token")
		http.Error(w, "Error getting access token", http.StatusInternalServerError)
		return
	}

	if err := h.shops.Save(ctx, &domain.Shop{Domain: shop, AccessToken: token}); err != nil {
		h.logger.Error().Err(err).Str("shop", shop).Msg("Failed to store shop credential")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Registration failure must not fail the install; the bulk sync
	// still works without the push channel.
	if err := h.gateway.RegisterOrderWebhook(ctx, shop, token); err != nil {
		h.logger.Error().Err(err).Str("shop", shop).Msg("Error registering webhook")
	} else {
		h.logger.Info().Str("shop", shop).Msg("Successfully installed")
	}

	http.Redirect(w, r, "/?shop="+url.QueryEscape(shop), http.StatusFound)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownTenant):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
