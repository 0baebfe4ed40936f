// Package extraction turns invoice and stock-list photos into import rows.
package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/integration/httpx"
	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// ServiceName labels the extractor in metrics and errors.
const ServiceName = "document-extractor"

// Prompt asks the model for one row per product.
const Prompt = `Extract product information from this invoice or product list. Identify the product name, quantity, and price. If you can distinguish a cost price from a selling price, use the cost for the "cost" field and selling price for the "price" field. Answer with a JSON array of objects with the keys name, stock, price and optionally cost.`

// ErrNotConfigured is returned when no endpoint or key is set.
var ErrNotConfigured = errors.New("document extractor is not configured")

// Config holds the extractor endpoint settings.
type Config struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Client posts photos to the extraction endpoint.
type Client struct {
	configured bool
	transport  *httpx.Client
	logger     *slog.Logger
}

// NewClient builds a client.
func NewClient(cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		configured: cfg.Endpoint != "" && cfg.APIKey != "",
		transport: &httpx.Client{
			Service:    ServiceName,
			Endpoint:   cfg.Endpoint,
			APIKey:     cfg.APIKey,
			HTTP:       &http.Client{Timeout: cfg.Timeout},
			MaxRetries: cfg.MaxRetries,
			Metrics:    metrics,
			Logger:     logger,
		},
		logger: logger,
	}
}

type extractRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mimeType"`
	Prompt   string `json:"prompt"`
}

// Extract returns the product rows found in the photo. Rows are unreviewed; feed
// them to catalog.Store.ImportRows once accepted. An answer without an array yields no rows.
func (c *Client) Extract(ctx context.Context, photo []byte, mimeType string) ([]catalog.ImportRow, error) {
	if !c.configured {
		return nil, shared.NewExternalServiceError(ServiceName, ErrNotConfigured)
	}
	if len(photo) == 0 {
		return nil, shared.NewValidationError("photo", "is required")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	body, err := c.transport.PostJSON(ctx, extractRequest{
		Image:    base64.StdEncoding.EncodeToString(photo),
		MimeType: mimeType,
		Prompt:   Prompt,
	})
	if err != nil {
		return nil, err
	}

	rows, err := ParseRows(responseText(body))
	if err != nil {
		return nil, shared.NewExternalServiceError(ServiceName, err)
	}
	c.logger.Info("document extracted", slog.Int("rows", len(rows)))
	return rows, nil
}

// ParseRows decodes the array found in text.
func ParseRows(text string) ([]catalog.ImportRow, error) {
	raw := ExtractJSONArray(text)
	if raw == "" {
		return []catalog.ImportRow{}, nil
	}
	var rows []catalog.ImportRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

// responseText unwraps {"text": "..."} envelopes and passes anything else through.
func responseText(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	var envelope struct {
		Text   string `json:"text"`
		Output string `json:"output"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return trimmed
	}
	if envelope.Text != "" {
		return envelope.Text
	}
	return envelope.Output
}
