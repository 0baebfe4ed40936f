package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/checkout"
	"github.com/odyssey-pos/odyssey-pos/internal/integration/events"
	"github.com/odyssey-pos/odyssey-pos/internal/integration/extraction"
	"github.com/odyssey-pos/odyssey-pos/internal/integration/imaging"
	"github.com/odyssey-pos/odyssey-pos/internal/ledger"
	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-pos/odyssey-pos/internal/reports"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// Options overrides collaborators, mostly for tests.
type Options struct {
	Now       func() time.Time
	NewID     func() string
	Redis     *redis.Client
	Publisher checkout.EventPublisher
}

// POS is the assembled point-of-sale core.
type POS struct {
	Config    *Config
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Audit     *shared.AuditLogger
	Catalog   *catalog.Store
	Ledger    *ledger.Ledger
	Checkout  *checkout.Service
	Reports   *reports.Service
	Extractor *extraction.Client

	closers []func() error
}

// New wires every component from cfg. Unless cfg.TestMode is set it connects to Redis and
// Kafka when they are configured.
func New(ctx context.Context, cfg *Config, logger *slog.Logger, opts Options) (*POS, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if logger == nil {
		logger = NewLogger(cfg)
	}
	p := &POS{Config: cfg, Logger: logger}
	p.Metrics = observability.NewMetrics()
	p.Audit = shared.NewAuditLogger(logger, 0)

	enhancer := imaging.NewClient(imaging.Config{
		Endpoint:   cfg.ImageEnhancerEndpoint,
		APIKey:     cfg.ImageEnhancerAPIKey,
		Timeout:    cfg.ExternalTimeout,
		MaxRetries: cfg.ExternalMaxRetries,
	}, p.Metrics, logger)
	p.Extractor = extraction.NewClient(extraction.Config{
		Endpoint:   cfg.DocExtractorEndpoint,
		APIKey:     cfg.DocExtractorAPIKey,
		Timeout:    cfg.ExternalTimeout,
		MaxRetries: cfg.ExternalMaxRetries,
	}, p.Metrics, logger)

	p.Catalog = catalog.NewStore(catalog.Config{
		DefaultCategories:  cfg.Categories,
		ImportReorderLevel: cfg.ImportReorderLevel,
	}, p.Audit, enhancer, logger)
	p.Ledger = ledger.New(p.Audit, logger)

	publisher := opts.Publisher
	if publisher == nil && len(cfg.KafkaBrokers) > 0 && !cfg.TestMode {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic}, logger)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, kp.Close)
		publisher = kp
	}
	taxRate := cfg.TaxRateValue()
	p.Checkout = checkout.NewService(p.Catalog, p.Ledger, publisher, p.Metrics, checkout.Config{
		TaxRate: &taxRate,
		Now:     opts.Now,
		NewID:   opts.NewID,
	}, logger)

	redisClient := opts.Redis
	if redisClient == nil && cfg.RedisAddr != "" && !cfg.TestMode {
		client, err := cache.Connect(ctx, cfg.RedisAddr, cache.DefaultDialTimeout)
		if err != nil {
			logger.Warn("report cache disabled", slog.Any("error", err))
		} else {
			redisClient = client
			p.closers = append(p.closers, client.Close)
		}
	}
	var reportCache *reports.Cache
	if redisClient != nil {
		reportCache = reports.NewCache(redisClient, cfg.ReportCacheTTL)
	}
	p.Reports = reports.NewService(p.Checkout, reportCache, reports.ServiceConfig{
		Location: cfg.Location(),
		Now:      opts.Now,
	}, p.Metrics, logger)
	return p, nil
}

// ImportFromPhoto extracts rows from a stock photo and imports them in one batch.
func (p *POS) ImportFromPhoto(ctx context.Context, photo []byte, mimeType string) ([]catalog.Product, error) {
	rows, err := p.Extractor.Extract(ctx, photo, mimeType)
	if err != nil {
		return nil, err
	}
	return p.Catalog.ImportRows(ctx, rows)
}

// Close releases the connections opened by New.
func (p *POS) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
