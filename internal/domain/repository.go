package domain

import (
	"context"

	"github.com/democratize-technology/open-food-facts/internal/validate"
)

// ProductAPI defines the interface for the Open Food Facts client as
// consumed by the usecase and delivery layers.
type ProductAPI interface {
	GetProduct(ctx context.Context, barcode string) (*Product, error)
	SearchProducts(ctx context.Context, criteria *SearchCriteria) (map[string]any, error)
	AddProduct(ctx context.Context, data *NewProductData) (*WriteResult, error)
	UploadPhoto(ctx context.Context, barcode string, image validate.Asset, target *PhotoTarget) (*WriteResult, error)
	GetTaxonomy(ctx context.Context, taxonomyType string) (map[string]any, error)
	GetRandomInsight(ctx context.Context, count int, lang string) (*InsightResponse, error)
}
