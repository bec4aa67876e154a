package storefront

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"storefront-service/internal/catalog"
	"storefront-service/internal/contact"
	"storefront-service/internal/domain"
	"storefront-service/internal/financing"
	"storefront-service/internal/store"
)

// MockStore implements every read interface the product page touches.
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
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockStore) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Brand), args.Error(1)
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
	return args.Get(0).([]domain.FinancingPlan), args.Error(1)
}

func (m *MockStore) GetContactPhone(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func newPages(ms *MockStore) *Pages {
	resolver := financing.NewResolver(ms, financing.FallbackNone)
	return NewPages(
		catalog.NewService(ms, 0, 0),
		financing.NewQuoter(ms, ms, resolver),
		contact.NewLinker(ms, contact.DefaultPhone),
	)
}

func relatedQuery(categoryID int64) interface{} {
	return mock.MatchedBy(func(p store.ListProductsParams) bool {
		return p.CategoryID != nil && *p.CategoryID == categoryID && p.Limit == catalog.DefaultRelatedLimit+1
	})
}

func TestPages_ProductDetail(t *testing.T) {
	ms := new(MockStore)
	product := &domain.Product{ID: 7, Name: "Smart TV", Price: decimal.NewFromInt(100000), CategoryID: 2, BrandID: 1}
	plan := &domain.FinancingPlan{
		ID: 3, Name: "12 cuotas", Installments: 12, SurchargePercent: decimal.NewFromInt(10), Active: true,
	}

	ms.On("GetProductByID", mock.Anything, int64(7)).Return(product, nil).Once()
	ms.On("FindAssociations", mock.Anything, domain.AssociationSpecific, int64(7)).Return([]domain.PlanAssociation{
		{ID: 1, Kind: domain.AssociationSpecific, ProductID: 7, PlanID: 3, Active: true},
	}, nil).Once()
	ms.On("FindPlan", mock.Anything, int64(3)).Return(plan, nil).Once()
	ms.On("ListProducts", mock.Anything, relatedQuery(2)).Return([]domain.Product{
		{ID: 7, CategoryID: 2}, {ID: 8, CategoryID: 2},
	}, nil).Once()
	ms.On("GetContactPhone", mock.Anything).Return("5491100000000", nil).Once()

	page, err := newPages(ms).ProductDetail(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), page.Product.ID)
	assert.Equal(t, domain.PlanSourceSpecific, page.PlanSource)
	require.Len(t, page.Quotes, 1)
	assert.Equal(t, "9.166,67", page.Quotes[0].FormattedInstallment)
	require.Len(t, page.Related, 1)
	assert.Equal(t, int64(8), page.Related[0].ID)
	assert.Equal(t, "https://wa.me/5491100000000?text=Hola%2C%20solicito%20m%C3%A1s%20informaci%C3%B3n%20acerca%20del%20producto%20Smart%20TV", page.ContactURL)
	ms.AssertExpectations(t)
}

func TestPages_ProductDetail_NotFound(t *testing.T) {
	ms := new(MockStore)
	ms.On("GetProductByID", mock.Anything, int64(404)).Return(nil, store.ErrProductNotFound).Once()

	page, err := newPages(ms).ProductDetail(context.Background(), 404)
	assert.Nil(t, page)
	assert.ErrorIs(t, err, store.ErrProductNotFound)
	ms.AssertNotCalled(t, "FindAssociations", mock.Anything, mock.Anything, mock.Anything)
	ms.AssertNotCalled(t, "GetContactPhone", mock.Anything)
}

func TestPages_ProductDetail_RelatedFailureDegrades(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	ms := new(MockStore)
	product := &domain.Product{ID: 5, Name: "Horno", Price: decimal.NewFromInt(1000), CategoryID: 3, BrandID: 1}

	ms.On("GetProductByID", mock.Anything, int64(5)).Return(product, nil).Once()
	ms.On("FindAssociations", mock.Anything, mock.Anything, int64(5)).Return([]domain.PlanAssociation{}, nil).Twice()
	ms.On("ListProducts", mock.Anything, relatedQuery(3)).Return(nil, errors.New("db down")).Once()
	ms.On("GetContactPhone", mock.Anything).Return("", store.ErrSettingsNotFound).Once()

	page, err := newPages(ms).ProductDetail(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, domain.PlanSourceNone, page.PlanSource)
	assert.Empty(t, page.Quotes)
	assert.NotNil(t, page.Related)
	assert.Empty(t, page.Related)
	assert.Contains(t, page.ContactURL, "https://wa.me/"+contact.DefaultPhone+"?text=")
	assert.Equal(t, 1, logs.FilterMessage("Related products unavailable").Len())
	ms.AssertExpectations(t)
}

func TestPages_ProductDetail_CanceledContext(t *testing.T) {
	ms := new(MockStore)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ms.On("GetProductByID", mock.Anything, int64(1)).Return(nil, context.Canceled).Once()

	page, err := newPages(ms).ProductDetail(ctx, 1)
	assert.Nil(t, page)
	assert.ErrorIs(t, err, context.Canceled)
}
