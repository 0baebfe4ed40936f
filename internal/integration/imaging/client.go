// Package imaging talks to the product photo enhancement service.
package imaging

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/odyssey-pos/odyssey-pos/internal/catalog"
	"github.com/odyssey-pos/odyssey-pos/internal/integration/httpx"
	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// ServiceName labels the enhancer in metrics and errors.
const ServiceName = "image-enhancer"

const (
	QualityStandard = "standard"
	QualityHD       = "hd"
)

var qualityPrompts = map[string]string{
	QualityStandard: "Clean up this product photo. Return a sharp, retail-ready product shot on a neutral background with accurate colors.",
	QualityHD:       "Transform this into a high-definition, photorealistic ecommerce hero image with perfect lighting, crisp focus, and a clean neutral backdrop.",
}

// Config holds the enhancer endpoint settings.
type Config struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Client implements catalog.ImageEnhancer over HTTP.
type Client struct {
	configured bool
	transport  *httpx.Client
	logger     *slog.Logger
}

var _ catalog.ImageEnhancer = (*Client)(nil)

// NewClient builds a client. Without an endpoint or key it returns originals unchanged.
func NewClient(cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
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

type requestMetadata struct {
	ItemName string `json:"itemName,omitempty"`
	Category string `json:"category,omitempty"`
	Quality  string `json:"quality"`
}

type enhanceRequest struct {
	Image    string          `json:"image"`
	Prompt   string          `json:"prompt"`
	Metadata requestMetadata `json:"metadata"`
}

// Enhance sends the photo for cleanup. A blank answer falls back to the original image.
func (c *Client) Enhance(ctx context.Context, req catalog.EnhanceRequest) (catalog.EnhancedImage, error) {
	original := catalog.EnhancedImage{ImageURL: req.Image.DataURL(), Source: catalog.ImageSourceOriginal}
	if !c.configured {
		c.logger.Warn("image enhancer not configured, using original image")
		return original, nil
	}
	if len(req.Image.Data) == 0 {
		return original, nil
	}

	quality := req.Image.Quality
	if _, ok := qualityPrompts[quality]; !ok {
		quality = QualityHD
	}
	payload := enhanceRequest{
		Image:  base64.StdEncoding.EncodeToString(req.Image.Data),
		Prompt: BuildPrompt(quality, req.ItemName, req.Category),
		Metadata: requestMetadata{
			ItemName: req.ItemName,
			Category: req.Category,
			Quality:  quality,
		},
	}

	body, err := c.transport.PostJSON(ctx, payload)
	if err != nil {
		return catalog.EnhancedImage{}, err
	}
	var resp enhanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return catalog.EnhancedImage{}, shared.NewExternalServiceError(ServiceName, err)
	}

	imageURL := resp.imageURL()
	if imageURL == "" {
		c.logger.Warn("image enhancer returned no image, using original", slog.String("item", req.ItemName))
		return original, nil
	}
	return catalog.EnhancedImage{
		ImageURL:    imageURL,
		Source:      catalog.ImageSourceEnhanced,
		InferenceID: resp.inferenceID(),
	}, nil
}

// BuildPrompt composes the instruction text for quality.
func BuildPrompt(quality, itemName, category string) string {
	text, ok := qualityPrompts[quality]
	if !ok {
		text = qualityPrompts[QualityHD]
	}
	lines := []string{text}
	if itemName != "" {
		lines = append(lines, "Product name: "+itemName)
	}
	if category != "" {
		lines = append(lines, "Category: "+category)
	}
	lines = append(lines, "Ensure the final image feels photorealistic and ready for ecommerce listings.")
	return strings.Join(lines, "\n")
}

type enhanceResponse struct {
	ID                  string `json:"id"`
	JobID               string `json:"jobId"`
	RequestID           string `json:"requestId"`
	EnhancedImageBase64 string `json:"enhancedImageBase64"`
	EnhancedImage       string `json:"enhancedImage"`
	Output              string `json:"output"`
	EnhancedImageURL    string `json:"enhancedImageUrl"`
	ImageURL            string `json:"imageUrl"`
	Data                struct {
		EnhancedImage    string `json:"enhancedImage"`
		ImageBase64      string `json:"imageBase64"`
		EnhancedImageURL string `json:"enhancedImageUrl"`
	} `json:"data"`
	Result struct {
		ImageURL string `json:"imageUrl"`
	} `json:"result"`
}

func (r enhanceResponse) imageURL() string {
	if b64 := firstNonEmpty(r.EnhancedImageBase64, r.EnhancedImage, r.Output, r.Data.EnhancedImage, r.Data.ImageBase64); b64 != "" {
		if strings.HasPrefix(b64, "data:") {
			return b64
		}
		return "data:image/png;base64," + b64
	}
	return firstNonEmpty(r.EnhancedImageURL, r.Data.EnhancedImageURL, r.Result.ImageURL, r.ImageURL)
}

func (r enhanceResponse) inferenceID() string {
	return firstNonEmpty(r.ID, r.JobID, r.RequestID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
