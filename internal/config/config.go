package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries everything the process reads from the environment.
// Variable names match the ones the dashboard deployment already uses.
type Config struct {
	Addr        string `envconfig:"ADDR" default:":8080"`
	AppURL      string `envconfig:"HOST" default:"http://localhost:8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	PGMaxConns  int32  `envconfig:"PG_MAX_CONNS" default:"10"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	ShopifyAPIKey    string `envconfig:"SHOPIFY_API_KEY" required:"true"`
	ShopifyAPISecret string `envconfig:"SHOPIFY_API_SECRET" required:"true"`
	Scopes           string `envconfig:"SCOPES" default:"read_orders"`
	APIVersion       string `envconfig:"SHOPIFY_API_VERSION" default:"2024-07"`

	// SyncWindow is the rolling creation-time window for the bulk
	// catch-up sync; SyncPageSize bounds one pull. Defaults mirror the
	// dashboard's 60 days / 100 orders.
	SyncWindow   time.Duration `envconfig:"SYNC_WINDOW" default:"1440h"`
	SyncPageSize int           `envconfig:"SYNC_PAGE_SIZE" default:"100"`
}

func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
