// Package storefront assembles the data a product page needs from the catalog,
// financing and contact services.
package storefront

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront-service/internal/catalog"
	"storefront-service/internal/contact"
	"storefront-service/internal/domain"
	"storefront-service/internal/financing"
)

// ProductPage is everything rendered on a product detail page.
type ProductPage struct {
	Product    domain.Product        `json:"product"`
	PlanSource domain.PlanSource     `json:"plan_source"`
	Quotes     []financing.PlanQuote `json:"quotes"`
	Related    []domain.Product      `json:"related"`
	ContactURL string                `json:"contact_url"`
}

// Pages builds product pages.
type Pages struct {
	catalog *catalog.Service
	quoter  *financing.Quoter
	linker  *contact.Linker
}

// NewPages creates a new Pages.
func NewPages(catalogSvc *catalog.Service, quoter *financing.Quoter, linker *contact.Linker) *Pages {
	return &Pages{catalog: catalogSvc, quoter: quoter, linker: linker}
}

// ProductDetail loads a product and then its plans, related products and contact link concurrently.
// Only a missing or unreadable product fails the page; related products degrade to none.
func (p *Pages) ProductDetail(ctx context.Context, productID int64) (*ProductPage, error) {
	product, err := p.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	page := &ProductPage{Product: *product}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		quote := p.quoter.QuoteFor(gctx, *product)
		page.PlanSource = quote.Source
		page.Quotes = quote.Quotes
		return nil
	})

	g.Go(func() error {
		related, err := p.catalog.RelatedProducts(gctx, *product, 0)
		if err != nil {
			zap.L().Warn("Related products unavailable",
				zap.Int64("product_id", productID), zap.Error(err))
			related = []domain.Product{}
		}
		page.Related = related
		return nil
	})

	g.Go(func() error {
		page.ContactURL = p.linker.ProductInquiryURL(gctx, product.Name)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return page, nil
}
