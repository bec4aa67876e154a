package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront-service/internal/catalog"
	"storefront-service/internal/contact"
	"storefront-service/internal/domain"
	"storefront-service/internal/financing"
	"storefront-service/internal/store"
	"storefront-service/internal/storefront"
)

// Services groups what the storefront handlers depend on.
type Services struct {
	Catalog *catalog.Service
	Quoter  *financing.Quoter
	Pages   *storefront.Pages
	Linker  *contact.Linker
	Plans   store.PlanStorer
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	svc Services
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(svc Services) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil { // Avoid writing empty body for 204 No Content
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			zap.L().Error("Failed to encode JSON response", zap.Error(err))
		}
	}
}

// respondWithStoreError maps domain and store errors to HTTP statuses.
// Anything unrecognised is logged and reported as a 500 with the given message.
func respondWithStoreError(w http.ResponseWriter, err error, failureMessage string) {
	switch {
	case errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrPlanNotFound),
		errors.Is(err, store.ErrAssociationNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrAssociationExists):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrUnknownAssociation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, financing.ErrPlanNotApplicable):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zap.L().Error(failureMessage, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, failureMessage)
	}
}

func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseOptionalIDQuery(r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}

func productsOrEmpty(products []domain.Product) []domain.Product {
	if products == nil {
		return []domain.Product{}
	}
	return products
}

// --- Catalog Handlers ---

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := parseOptionalIDQuery(r, "category_id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category_id format")
		return
	}
	brandID, ok := parseOptionalIDQuery(r, "brand_id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid brand_id format")
		return
	}
	featured := false
	if raw := r.URL.Query().Get("featured"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid featured flag")
			return
		}
		featured = parsed
	}

	products, err := h.svc.Catalog.ListProducts(r.Context(), catalog.Filter{
		CategoryID:   categoryID,
		BrandID:      brandID,
		FeaturedOnly: featured,
	})
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve products")
		return
	}
	respondWithJSON(w, http.StatusOK, productsOrEmpty(products))
}

func (h *HTTPHandler) ListFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 0 // configured default
	}
	if limit > 50 {
		limit = 50
	}

	products, err := h.svc.Catalog.FeaturedProducts(r.Context(), limit)
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve featured products")
		return
	}
	respondWithJSON(w, http.StatusOK, productsOrEmpty(products))
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Catalog.ListCategories(r.Context())
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve categories")
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *HTTPHandler) ListCategoryProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := parseIDParam(r, "categoryId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}
	products, err := h.svc.Catalog.ProductsByCategory(r.Context(), categoryID)
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve products")
		return
	}
	respondWithJSON(w, http.StatusOK, productsOrEmpty(products))
}

func (h *HTTPHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.svc.Catalog.ListBrands(r.Context())
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve brands")
		return
	}
	if brands == nil {
		brands = []domain.Brand{}
	}
	respondWithJSON(w, http.StatusOK, brands)
}

func (h *HTTPHandler) ListBrandProducts(w http.ResponseWriter, r *http.Request) {
	brandID, ok := parseIDParam(r, "brandId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid brand ID format")
		return
	}
	products, err := h.svc.Catalog.ProductsByBrand(r.Context(), brandID)
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve products")
		return
	}
	respondWithJSON(w, http.StatusOK, productsOrEmpty(products))
}

// --- Product Page Handlers ---

func (h *HTTPHandler) GetProductPage(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	page, err := h.svc.Pages.ProductDetail(r.Context(), productID)
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve product")
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

// ProductPlansResponse lists the plans offered for a product, priced.
type ProductPlansResponse struct {
	ProductID int64                 `json:"product_id"`
	Source    domain.PlanSource     `json:"source"`
	Quotes    []financing.PlanQuote `json:"quotes"`
}

func (h *HTTPHandler) GetProductPlans(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	quote, err := h.svc.Quoter.QuoteProduct(r.Context(), productID)
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve financing plans")
		return
	}
	respondWithJSON(w, http.StatusOK, ProductPlansResponse{
		ProductID: quote.Product.ID,
		Source:    quote.Source,
		Quotes:    quote.Quotes,
	})
}

func (h *HTTPHandler) GetPlanQuote(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}
	planID, ok := parseIDParam(r, "planId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	quote, err := h.svc.Quoter.QuotePlan(r.Context(), productID, planID)
	if err != nil {
		respondWithStoreError(w, err, "Failed to quote financing plan")
		return
	}
	respondWithJSON(w, http.StatusOK, quote)
}

// ContactResponse carries the WhatsApp link for a product inquiry.
type ContactResponse struct {
	Phone string `json:"phone"`
	URL   string `json:"url"`
}

func (h *HTTPHandler) GetProductContact(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.svc.Catalog.GetProduct(r.Context(), productID)
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve product")
		return
	}

	phone := h.svc.Linker.Phone(r.Context())
	respondWithJSON(w, http.StatusOK, ContactResponse{
		Phone: phone,
		URL:   contact.BuildWhatsAppURL(phone, contact.InquiryMessage(product.Name)),
	})
}

func (h *HTTPHandler) ListActivePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.Plans.FindActivePlans(r.Context())
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve financing plans")
		return
	}
	if plans == nil {
		plans = []domain.FinancingPlan{}
	}
	respondWithJSON(w, http.StatusOK, plans)
}

// --- Route Registration ---

// RegisterRoutes sets up the storefront HTTP routes.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		// Must precede {productId} so "featured" is not parsed as an ID
		r.Get("/featured", h.ListFeaturedProducts)

		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductPage)
			r.Get("/plans", h.GetProductPlans)
			r.Get("/plans/{planId}/quote", h.GetPlanQuote)
			r.Get("/contact", h.GetProductContact)
		})
	})

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{categoryId}/products", h.ListCategoryProducts)
	})

	r.Route("/api/v1/brands", func(r chi.Router) {
		r.Get("/", h.ListBrands)
		r.Get("/{brandId}/products", h.ListBrandProducts)
	})

	r.Get("/api/v1/plans", h.ListActivePlans)
}
