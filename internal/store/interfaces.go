package store

import (
	"context"

	"storefront-service/internal/domain"
)

// ListProductsParams holds the filters for listing products.
type ListProductsParams struct {
	CategoryID   *int64 // Only products in this category
	BrandID      *int64 // Only products of this brand
	FeaturedOnly bool   // Only featured products, ordered by name
	Limit        int    // 0 means no limit
}

// ProductFinder looks up a single product.
type ProductFinder interface {
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
}

// CatalogStorer defines the read operations the storefront needs on the catalog.
type CatalogStorer interface {
	ProductFinder
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListBrands(ctx context.Context) ([]domain.Brand, error)
}

// PlanStorer is the data access the plan resolver consumes.
type PlanStorer interface {
	// FindAssociations returns every association of the given kind for a product,
	// active or not, in insertion order.
	FindAssociations(ctx context.Context, kind domain.AssociationKind, productID int64) ([]domain.PlanAssociation, error)
	FindPlan(ctx context.Context, id int64) (*domain.FinancingPlan, error)
	// FindActivePlans returns all active plans ordered by installment count.
	FindActivePlans(ctx context.Context) ([]domain.FinancingPlan, error)
}

// SettingsStorer reads storefront-wide settings.
type SettingsStorer interface {
	GetContactPhone(ctx context.Context) (string, error)
}

// PlanAdminStorer defines the write operations used by catalog administration.
type PlanAdminStorer interface {
	ListPlans(ctx context.Context) ([]domain.FinancingPlan, error)
	CreatePlan(ctx context.Context, plan *domain.FinancingPlan) (*domain.FinancingPlan, error)
	UpdatePlan(ctx context.Context, plan *domain.FinancingPlan) (*domain.FinancingPlan, error)
	DeletePlan(ctx context.Context, id int64) error
	LinkPlan(ctx context.Context, kind domain.AssociationKind, productID, planID int64) (*domain.PlanAssociation, error)
	UnlinkPlan(ctx context.Context, kind domain.AssociationKind, productID, planID int64) error
	SetContactPhone(ctx context.Context, phone string) error
}
