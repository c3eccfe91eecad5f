//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"shopify-order-bridge/internal/domain"
	"shopify-order-bridge/internal/infrastructure/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("bridge"),
		postgres.WithUsername("app"),
		postgres.WithPassword("app"),
		tc.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := repository.NewPool(ctx, dsn, 5)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, repository.Migrate(pool))
	return pool
}

func orderRecord(shop string, orderID int64, status string, createdAt time.Time, items ...domain.LineItem) *domain.OrderRecord {
	return &domain.OrderRecord{
		Order: domain.Order{Shop: shop, OrderID: orderID, Status: status, CreatedAt: createdAt},
		Items: items,
	}
}

func TestShopRepository_UpsertAndGet(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	shops := repository.NewShopRepository(pool)

	missing, err := shops.GetByDomain(ctx, "nobody.myshopify.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, shops.Save(ctx, &domain.Shop{Domain: "test.myshopify.com", AccessToken: "shpat_one"}))
	require.NoError(t, shops.Save(ctx, &domain.Shop{Domain: "test.myshopify.com", AccessToken: "shpat_two"}))

	shop, err := shops.GetByDomain(ctx, "test.myshopify.com")
	require.NoError(t, err)
	require.NotNil(t, shop)
	assert.Equal(t, "shpat_two", shop.AccessToken, "re-install must rotate the stored token")
}

func TestOrderRepository_SaveRecordUpsertSemantics(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	orders := repository.NewOrderRepository(pool)

	created := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	first := orderRecord("test.myshopify.com", 55123, "pending", created,
		domain.LineItem{OrderID: 55123, LineItemID: 901, Quantity: 1, Title: "Blue Mug", ImageURL: "https://cdn.example.com/mug.jpg"},
	)
	require.NoError(t, orders.SaveRecord(ctx, first))

	// same order seen again with a new status and a changed line item
	second := orderRecord("test.myshopify.com", 55123, "paid", created,
		domain.LineItem{OrderID: 55123, LineItemID: 901, Quantity: 3, Title: "Blue Mug", ImageURL: "https://cdn.example.com/mug-v2.jpg"},
		domain.LineItem{OrderID: 55123, LineItemID: 902, Quantity: 1, Title: "Sticker"},
	)
	require.NoError(t, orders.SaveRecord(ctx, second))

	recs, err := orders.ListByShop(ctx, "test.myshopify.com")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "paid", rec.Order.Status)
	require.Len(t, rec.Items, 2)
	assert.Equal(t, 3, rec.Items[0].Quantity, "line item row must be overwritten, not duplicated")

	var orderRows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE order_id = 55123`).Scan(&orderRows))
	assert.Equal(t, 1, orderRows)
}

func TestOrderRepository_ImageFirstWriterWins(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	orders := repository.NewOrderRepository(pool)

	created := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	rec := orderRecord("test.myshopify.com", 88, "paid", created,
		domain.LineItem{OrderID: 88, LineItemID: 1, Quantity: 1, Title: "A", ImageURL: "https://cdn.example.com/shared.jpg"},
		domain.LineItem{OrderID: 88, LineItemID: 2, Quantity: 1, Title: "B", ImageURL: "https://cdn.example.com/shared.jpg"},
		domain.LineItem{OrderID: 88, LineItemID: 3, Quantity: 1, Title: "C"},
	)
	require.NoError(t, orders.SaveRecord(ctx, rec))
	// re-save must not add image rows either
	require.NoError(t, orders.SaveRecord(ctx, rec))

	var imageRows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM images`).Scan(&imageRows))
	assert.Equal(t, 1, imageRows, "one image row per distinct URL")

	recs, err := orders.ListByShop(ctx, "test.myshopify.com")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "https://cdn.example.com/shared.jpg", recs[0].Items[0].ImageURL)
	assert.Empty(t, recs[0].Items[2].ImageURL)
}

func TestOrderRepository_ZeroItemOrder(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	orders := repository.NewOrderRepository(pool)

	created := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, orders.SaveRecord(ctx, orderRecord("test.myshopify.com", 77, "paid", created)))

	recs, err := orders.ListByShop(ctx, "test.myshopify.com")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(77), recs[0].Order.OrderID)
	assert.Empty(t, recs[0].Items)
}

func TestOrderRepository_ListNewestFirstPerShop(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	orders := repository.NewOrderRepository(pool)

	base := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, orders.SaveRecord(ctx, orderRecord("test.myshopify.com", 1, "paid", base)))
	require.NoError(t, orders.SaveRecord(ctx, orderRecord("test.myshopify.com", 2, "paid", base.Add(time.Hour))))
	require.NoError(t, orders.SaveRecord(ctx, orderRecord("test.myshopify.com", 3, "paid", base.Add(time.Hour))))
	require.NoError(t, orders.SaveRecord(ctx, orderRecord("other.myshopify.com", 4, "paid", base.Add(2*time.Hour))))

	recs, err := orders.ListByShop(ctx, "test.myshopify.com")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	// newest first; equal timestamps break ties by higher order id
	assert.Equal(t, int64(3), recs[0].Order.OrderID)
	assert.Equal(t, int64(2), recs[1].Order.OrderID)
	assert.Equal(t, int64(1), recs[2].Order.OrderID)
}
