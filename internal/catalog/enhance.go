package catalog

import (
	"context"
	"encoding/base64"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// Image sources reported by an enhancer.
const (
	ImageSourceEnhanced = "enhanced"
	ImageSourceOriginal = "original"
)

// ImageUpload is a raw product photo.
type ImageUpload struct {
	Data     []byte
	MimeType string
	// Quality is "standard" or "hd"; empty means hd.
	Quality string
}

// DataURL renders the upload as an inline data: URL.
func (u ImageUpload) DataURL() string {
	mime := u.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(u.Data)
}

// EnhanceRequest is what the enhancer needs to clean up a product photo.
type EnhanceRequest struct {
	Image    ImageUpload
	ItemName string
	Category string
}

// EnhancedImage is the enhancer's answer.
type EnhancedImage struct {
	ImageURL    string
	Source      string
	InferenceID string
}

// ImageEnhancer turns a product photo into a catalog-ready image.
type ImageEnhancer interface {
	Enhance(ctx context.Context, req EnhanceRequest) (EnhancedImage, error)
}

// EnhanceImage runs the upload through the enhancer and stores the resulting image URL.
// When the enhancer fails, the original upload is stored instead and the error is returned
// together with the updated product. Concurrent calls for one product share a single request.
func (s *Store) EnhanceImage(ctx context.Context, id string, upload ImageUpload) (Product, error) {
	current, err := s.Get(id)
	if err != nil {
		return Product{}, err
	}

	v, callErr, _ := s.flight.Do(id, func() (interface{}, error) {
		if s.enhancer == nil {
			return EnhancedImage{ImageURL: upload.DataURL(), Source: ImageSourceOriginal}, nil
		}
		return s.enhancer.Enhance(ctx, EnhanceRequest{
			Image:    upload,
			ItemName: current.Name,
			Category: current.Category.String(),
		})
	})

	imageURL := upload.DataURL()
	source := ImageSourceOriginal
	if callErr == nil {
		if res, ok := v.(EnhancedImage); ok && res.ImageURL != "" {
			imageURL = res.ImageURL
			source = res.Source
		}
	} else {
		s.logger.Warn("image enhancement failed, keeping original",
			slog.String("product_id", id),
			slog.Any("error", callErr),
		)
		if !shared.IsExternalService(callErr) {
			callErr = shared.NewExternalServiceError("image-enhancer", callErr)
		}
	}

	updated, err := s.UpdateProduct(ctx, id, ProductPatch{ImageURL: &imageURL})
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, "catalog:image", id, map[string]any{"source": source})
	return updated, callErr
}

// EnhanceAll enhances several product images with at most limit requests in flight.
// It returns the per-product failures; products are updated either way.
func (s *Store) EnhanceAll(ctx context.Context, uploads map[string]ImageUpload, limit int) map[string]error {
	if limit <= 0 {
		limit = 4
	}
	type outcome struct {
		id  string
		err error
	}
	results := make(chan outcome, len(uploads))

	var g errgroup.Group
	g.SetLimit(limit)
	for id, upload := range uploads {
		g.Go(func() error {
			_, err := s.EnhanceImage(ctx, id, upload)
			results <- outcome{id: id, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	failures := make(map[string]error)
	for r := range results {
		if r.err != nil {
			failures[r.id] = r.err
		}
	}
	return failures
}
