// Package usecase wraps the raw API client with the retry policy the
// gateway and CLI consume. Only idempotent reads are retried, and only
// on upstream status failures; validation errors and write operations
// never go through the retry path.
package usecase

import (
	"context"
	"log"
	"time"

	"github.com/democratize-technology/open-food-facts/internal/apierr"
	"github.com/democratize-technology/open-food-facts/internal/domain"
	"github.com/democratize-technology/open-food-facts/internal/validate"
)

const defaultMaxAttempts = 3

// ProductServiceConfig holds configuration for the product service.
type ProductServiceConfig struct {
	MaxAttempts        int
	EnableDebugLogging bool
}

// ProductService decorates a ProductAPI with retry on ApiError-classified
// failures of read operations.
type ProductService struct {
	api         domain.ProductAPI
	maxAttempts int
	debug       bool

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewProductService creates a product service around the given client.
func NewProductService(api domain.ProductAPI, config ProductServiceConfig) *ProductService {
	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &ProductService{
		api:         api,
		maxAttempts: maxAttempts,
		debug:       config.EnableDebugLogging,
		sleep:       sleepContext,
	}
}

// exponentialBackoff returns the wait before the next attempt:
// 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	return 500 * time.Millisecond << (attempt - 1)
}

// sleepContext waits for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryable reports whether err is an upstream status failure worth
// retrying. Validation, credential, transport-security, and response
// format failures are final.
func retryable(err error) bool {
	return apierr.IsKind(err, apierr.API)
}

// retry runs fn up to maxAttempts times, backing off between attempts.
func (s *ProductService) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
		if attempt == s.maxAttempts {
			break
		}
		if s.debug {
			log.Printf("[service] %s attempt %d failed: %v", op, attempt, lastErr)
		}
		if err := s.sleep(ctx, exponentialBackoff(attempt)); err != nil {
			return lastErr
		}
	}
	return lastErr
}

// GetProduct looks up a product, retrying upstream failures.
func (s *ProductService) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	var product *domain.Product
	err := s.retry(ctx, "GetProduct", func() error {
		var err error
		product, err = s.api.GetProduct(ctx, barcode)
		return err
	})
	return product, err
}

// SearchProducts runs a search, retrying upstream failures.
func (s *ProductService) SearchProducts(ctx context.Context, criteria *domain.SearchCriteria) (map[string]any, error) {
	var result map[string]any
	err := s.retry(ctx, "SearchProducts", func() error {
		var err error
		result, err = s.api.SearchProducts(ctx, criteria)
		return err
	})
	return result, err
}

// GetTaxonomy fetches a taxonomy, retrying upstream failures.
func (s *ProductService) GetTaxonomy(ctx context.Context, taxonomyType string) (map[string]any, error) {
	var taxonomy map[string]any
	err := s.retry(ctx, "GetTaxonomy", func() error {
		var err error
		taxonomy, err = s.api.GetTaxonomy(ctx, taxonomyType)
		return err
	})
	return taxonomy, err
}

// GetRandomInsight fetches insight questions, retrying upstream failures.
func (s *ProductService) GetRandomInsight(ctx context.Context, count int, lang string) (*domain.InsightResponse, error) {
	var insights *domain.InsightResponse
	err := s.retry(ctx, "GetRandomInsight", func() error {
		var err error
		insights, err = s.api.GetRandomInsight(ctx, count, lang)
		return err
	})
	return insights, err
}

// AddProduct delegates without retry: write operations are never
// auto-retried.
func (s *ProductService) AddProduct(ctx context.Context, data *domain.NewProductData) (*domain.WriteResult, error) {
	return s.api.AddProduct(ctx, data)
}

// UploadPhoto delegates without retry: write operations are never
// auto-retried.
func (s *ProductService) UploadPhoto(ctx context.Context, barcode string, image validate.Asset, target *domain.PhotoTarget) (*domain.WriteResult, error) {
	return s.api.UploadPhoto(ctx, barcode, image, target)
}
