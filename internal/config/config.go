package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"HTTP_SERVER_PORT"` specify the environment variable
// name; `default:""` provides a value when the variable is unset.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HttpServer ServerConfig
	Store      StoreConfig
	Session    SessionConfig
	Catalog    CatalogConfig
	Checkout   CheckoutConfig
	Assistant  AssistantConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// StoreConfig selects and configures the object store backend.
type StoreConfig struct {
	// Backend is "http" (public bucket endpoint) or "fs" (local mirror).
	Backend string `envconfig:"STORE_BACKEND" default:"http"`
	BaseURL string `envconfig:"STORE_BASE_URL"`
	Root    string `envconfig:"STORE_ROOT" default:"./static"`
}

// SessionConfig configures the visitor session cookie backing cart and
// wishlist state.
type SessionConfig struct {
	Key    string `envconfig:"SESSION_KEY" default:"storefront-dev-session-key"`
	MaxAge int    `envconfig:"SESSION_MAX_AGE_SECONDS" default:"604800"`
}

// CatalogConfig tunes listing and search behavior.
type CatalogConfig struct {
	PageSize    int `envconfig:"CATALOG_PAGE_SIZE" default:"24"`
	SearchLimit int `envconfig:"SEARCH_RESULT_LIMIT" default:"60"`
}

// CheckoutConfig points at the external checkout service the cart hands off
// to.
type CheckoutConfig struct {
	URL string `envconfig:"CHECKOUT_URL" default:"http://localhost:4242/checkout"`
}

// AssistantConfig configures the upstream chat-completion proxy.
type AssistantConfig struct {
	UpstreamURL string `envconfig:"ASSISTANT_UPSTREAM_URL" default:"https://api.openai.com/v1/chat/completions"`
	APIKey      string `envconfig:"OPENAI_API_KEY"`
	Model       string `envconfig:"ASSISTANT_MODEL" default:"gpt-4.1-mini"`
}

var cfg Config

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	log.Println("Loading service configuration...")
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	switch cfg.Store.Backend {
	case "http":
		if cfg.Store.BaseURL == "" {
			return nil, fmt.Errorf("STORE_BASE_URL is required when STORE_BACKEND=http")
		}
	case "fs":
		if cfg.Store.Root == "" {
			return nil, fmt.Errorf("STORE_ROOT is required when STORE_BACKEND=fs")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q (want http or fs)", cfg.Store.Backend)
	}

	log.Printf("Configuration loaded successfully for APP_ENV: %s", cfg.AppEnv)
	return &cfg, nil
}
