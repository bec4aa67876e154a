// Package catalog serves the product, category and brand reads behind the storefront pages.
package catalog

import (
	"context"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// Default shelf sizes.
const (
	DefaultFeaturedLimit = 6
	DefaultRelatedLimit  = 3
)

// Filter narrows a product listing. Nil ids mean no restriction.
type Filter struct {
	CategoryID   *int64
	BrandID      *int64
	FeaturedOnly bool
}

// Service exposes catalog reads.
type Service struct {
	store         store.CatalogStorer
	featuredLimit int
	relatedLimit  int
}

// NewService creates a catalog Service. Non-positive limits fall back to the defaults.
func NewService(s store.CatalogStorer, featuredLimit, relatedLimit int) *Service {
	if featuredLimit <= 0 {
		featuredLimit = DefaultFeaturedLimit
	}
	if relatedLimit <= 0 {
		relatedLimit = DefaultRelatedLimit
	}
	return &Service{store: s, featuredLimit: featuredLimit, relatedLimit: relatedLimit}
}

// ListProducts returns featured products first, then the rest by name.
func (s *Service) ListProducts(ctx context.Context, filter Filter) ([]domain.Product, error) {
	return s.store.ListProducts(ctx, store.ListProductsParams{
		CategoryID:   filter.CategoryID,
		BrandID:      filter.BrandID,
		FeaturedOnly: filter.FeaturedOnly,
	})
}

// FeaturedProducts returns up to limit featured products by name.
func (s *Service) FeaturedProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = s.featuredLimit
	}
	return s.store.ListProducts(ctx, store.ListProductsParams{FeaturedOnly: true, Limit: limit})
}

func (s *Service) ProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	return s.ListProducts(ctx, Filter{CategoryID: &categoryID})
}

func (s *Service) ProductsByBrand(ctx context.Context, brandID int64) ([]domain.Product, error) {
	return s.ListProducts(ctx, Filter{BrandID: &brandID})
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.store.GetProductByID(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	return s.store.ListBrands(ctx)
}

// RelatedProducts returns other products of the same category, at most limit of them.
// A non-positive limit uses the configured one.
func (s *Service) RelatedProducts(ctx context.Context, product domain.Product, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = s.relatedLimit
	}
	categoryID := product.CategoryID
	candidates, err := s.store.ListProducts(ctx, store.ListProductsParams{
		CategoryID: &categoryID,
		Limit:      limit + 1,
	})
	if err != nil {
		return nil, err
	}

	related := make([]domain.Product, 0, limit)
	for _, p := range candidates {
		if p.ID == product.ID {
			continue
		}
		if len(related) == limit {
			break
		}
		related = append(related, p)
	}
	return related, nil
}
