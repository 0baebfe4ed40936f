package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`
	// TestMode keeps the wiring away from Redis and Kafka.
	TestMode bool `envconfig:"ODYSSEY_POS_TEST_MODE"`

	TaxRate            string   `envconfig:"POS_TAX_RATE" default:"0.16"`
	Categories         []string `envconfig:"POS_CATEGORIES" default:"Drinks,Personal Care,Groceries,Snacks,Produce"`
	ImportReorderLevel int      `envconfig:"POS_IMPORT_REORDER_LEVEL" default:"5"`
	Timezone           string   `envconfig:"POS_TIMEZONE" default:"UTC"`
	ReceiptLocale      string   `envconfig:"POS_RECEIPT_LOCALE" default:"en"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	ReportCacheTTL time.Duration `envconfig:"REPORT_CACHE_TTL" default:"10m"`

	ImageEnhancerEndpoint string `envconfig:"IMAGE_ENHANCER_ENDPOINT"`
	ImageEnhancerAPIKey   string `envconfig:"IMAGE_ENHANCER_API_KEY"`
	DocExtractorEndpoint  string `envconfig:"DOC_EXTRACTOR_ENDPOINT"`
	DocExtractorAPIKey    string `envconfig:"DOC_EXTRACTOR_API_KEY"`

	ExternalTimeout    time.Duration `envconfig:"EXTERNAL_TIMEOUT" default:"30s"`
	ExternalMaxRetries int           `envconfig:"EXTERNAL_MAX_RETRIES" default:"3"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"pos.sales"`

	taxRate  decimal.Decimal
	location *time.Location
	locale   language.Tag
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolve() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return fmt.Errorf("POS_TAX_RATE: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("POS_TAX_RATE: %s is outside [0, 1)", rate)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("POS_TIMEZONE: %w", err)
	}
	locale, err := language.Parse(c.ReceiptLocale)
	if err != nil {
		return fmt.Errorf("POS_RECEIPT_LOCALE: %w", err)
	}
	if c.ImportReorderLevel < 0 {
		return fmt.Errorf("POS_IMPORT_REORDER_LEVEL: must not be negative")
	}
	c.taxRate = rate
	c.location = loc
	c.locale = locale
	return nil
}

// TaxRateValue returns the parsed tax rate.
func (c *Config) TaxRateValue() decimal.Decimal {
	return c.taxRate
}

// Location returns the reporting time zone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Locale returns the receipt language.
func (c *Config) Locale() language.Tag {
	if c.locale == language.Und {
		return language.English
	}
	return c.locale
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
