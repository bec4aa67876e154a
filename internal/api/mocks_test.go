package api

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"storefront-service/internal/catalog"
	"storefront-service/internal/contact"
	"storefront-service/internal/domain"
	"storefront-service/internal/financing"
	"storefront-service/internal/store"
	"storefront-service/internal/storefront"
)

// MockStore is a mock implementation of the storefront read interfaces
// (store.CatalogStorer, store.PlanStorer and store.SettingsStorer).
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockStore) ListProducts(ctx context.Context, params store.ListProductsParams) ([]domain.Product, error) {
	args := m.Called(ctx, params)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Error(1)
}

func (m *MockStore) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	args := m.Called(ctx)
	var brands []domain.Brand
	if arg0 := args.Get(0); arg0 != nil {
		brands = arg0.([]domain.Brand)
	}
	return brands, args.Error(1)
}

func (m *MockStore) FindAssociations(ctx context.Context, kind domain.AssociationKind, productID int64) ([]domain.PlanAssociation, error) {
	args := m.Called(ctx, kind, productID)
	var associations []domain.PlanAssociation
	if arg0 := args.Get(0); arg0 != nil {
		associations = arg0.([]domain.PlanAssociation)
	}
	return associations, args.Error(1)
}

func (m *MockStore) FindPlan(ctx context.Context, id int64) (*domain.FinancingPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinancingPlan), args.Error(1)
}

func (m *MockStore) FindActivePlans(ctx context.Context) ([]domain.FinancingPlan, error) {
	args := m.Called(ctx)
	var plans []domain.FinancingPlan
	if arg0 := args.Get(0); arg0 != nil {
		plans = arg0.([]domain.FinancingPlan)
	}
	return plans, args.Error(1)
}

func (m *MockStore) GetContactPhone(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockAdminStore is a mock implementation of store.PlanAdminStorer
type MockAdminStore struct {
	mock.Mock
}

func (m *MockAdminStore) ListPlans(ctx context.Context) ([]domain.FinancingPlan, error) {
	args := m.Called(ctx)
	var plans []domain.FinancingPlan
	if arg0 := args.Get(0); arg0 != nil {
		plans = arg0.([]domain.FinancingPlan)
	}
	return plans, args.Error(1)
}

func (m *MockAdminStore) CreatePlan(ctx context.Context, plan *domain.FinancingPlan) (*domain.FinancingPlan, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinancingPlan), args.Error(1)
}

func (m *MockAdminStore) UpdatePlan(ctx context.Context, plan *domain.FinancingPlan) (*domain.FinancingPlan, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinancingPlan), args.Error(1)
}

func (m *MockAdminStore) DeletePlan(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAdminStore) LinkPlan(ctx context.Context, kind domain.AssociationKind, productID, planID int64) (*domain.PlanAssociation, error) {
	args := m.Called(ctx, kind, productID, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlanAssociation), args.Error(1)
}

func (m *MockAdminStore) UnlinkPlan(ctx context.Context, kind domain.AssociationKind, productID, planID int64) error {
	args := m.Called(ctx, kind, productID, planID)
	return args.Error(0)
}

func (m *MockAdminStore) SetContactPhone(ctx context.Context, phone string) error {
	args := m.Called(ctx, phone)
	return args.Error(0)
}

func newTestServices(ms *MockStore) Services {
	resolver := financing.NewResolver(ms, financing.FallbackNone)
	quoter := financing.NewQuoter(ms, ms, resolver)
	catalogSvc := catalog.NewService(ms, 0, 0)
	linker := contact.NewLinker(ms, contact.DefaultPhone)
	return Services{
		Catalog: catalogSvc,
		Quoter:  quoter,
		Pages:   storefront.NewPages(catalogSvc, quoter, linker),
		Linker:  linker,
		Plans:   ms,
	}
}

// Helper for setting up tests with a chi router and both handlers
func setupTestChiServer(t *testing.T, ms *MockStore, admin *MockAdminStore, token string) *httptest.Server {
	t.Helper()
	router := chi.NewRouter()
	NewHTTPHandler(newTestServices(ms)).RegisterRoutes(router)
	if admin != nil {
		NewAdminHandler(admin, ms, token).RegisterRoutes(router)
	}
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// Helper function to get a pointer (useful for optional fields in domain structs)
func PtrTo[T any](v T) *T {
	return &v
}
