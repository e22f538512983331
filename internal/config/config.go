// Package config loads storefront settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Cart modes.
const (
	CartModeFetch    = "fetch"
	CartModeRedirect = "redirect"
)

type Config struct {
	BaseURL           string
	PagePath          string
	SessionCookieName string
	SessionCookie     string
	CartMode          string
	HTTPTimeout       time.Duration
	KafkaBrokers      []string
	KafkaTopic        string
	LogLevel          string
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		BaseURL:           strings.TrimRight(getEnv("STOREFRONT_BASE_URL", ""), "/"),
		PagePath:          getEnv("STOREFRONT_PAGE_PATH", "/customer/menu"),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session"),
		SessionCookie:     os.Getenv("SESSION_COOKIE"),
		CartMode:          strings.ToLower(getEnv("CART_MODE", CartModeFetch)),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "storefront-activity"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if cfg.BaseURL == "" {
		return Config{}, fmt.Errorf("%w: STOREFRONT_BASE_URL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return Config{}, fmt.Errorf("%w: STOREFRONT_BASE_URL must be an absolute URL", ErrInvalidConfig)
	}

	switch cfg.CartMode {
	case CartModeFetch, CartModeRedirect:
	default:
		return Config{}, fmt.Errorf("%w: CART_MODE must be %q or %q, got %q",
			ErrInvalidConfig, CartModeFetch, CartModeRedirect, cfg.CartMode)
	}

	if raw := os.Getenv("HTTP_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("%w: HTTP_TIMEOUT %q", ErrInvalidConfig, raw)
		}
		cfg.HTTPTimeout = d
	}

	cfg.KafkaBrokers = brokers()
	return cfg, nil
}

// ProjectorConfig configures the cart activity projector.
type ProjectorConfig struct {
	KafkaBrokers  []string
	KafkaTopic    string
	ConsumerGroup string
	ReportEvery   time.Duration
	LogLevel      string
	// DatabaseURL selects the PostgreSQL read store. Empty keeps read
	// models in memory.
	DatabaseURL string
}

// LoadProjector reads an optional .env file, then the projector's
// environment. KAFKA_BROKERS is required.
func LoadProjector() (ProjectorConfig, error) {
	_ = godotenv.Load()

	cfg := ProjectorConfig{
		KafkaBrokers:  brokers(),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "storefront-activity"),
		ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "storefront-projector"),
		ReportEvery:   30 * time.Second,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
	}
	if len(cfg.KafkaBrokers) == 0 {
		return ProjectorConfig{}, fmt.Errorf("%w: KAFKA_BROKERS is required", ErrInvalidConfig)
	}
	if raw := os.Getenv("REPORT_EVERY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return ProjectorConfig{}, fmt.Errorf("%w: REPORT_EVERY %q", ErrInvalidConfig, raw)
		}
		cfg.ReportEvery = d
	}
	return cfg, nil
}

func brokers() []string {
	var out []string
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// PublishActivity reports whether cart activity goes to Kafka.
func (c Config) PublishActivity() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
