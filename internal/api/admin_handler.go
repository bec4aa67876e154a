package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// AdminHandler serves plan and settings administration.
type AdminHandler struct {
	admin    store.PlanAdminStorer
	plans    store.PlanStorer
	token    string
	validate *validator.Validate
}

// NewAdminHandler creates a new AdminHandler. Requests must carry token as a bearer credential.
func NewAdminHandler(admin store.PlanAdminStorer, plans store.PlanStorer, token string) *AdminHandler {
	return &AdminHandler{
		admin:    admin,
		plans:    plans,
		token:    token,
		validate: newValidator(),
	}
}

// newValidator lets numeric tags such as gte=0 apply to decimal amounts.
// A null amount validates as absent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			f, _ := d.Float64()
			return f
		case decimal.NullDecimal:
			if !d.Valid {
				return nil
			}
			f, _ := d.Decimal.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{}, decimal.NullDecimal{})
	v.RegisterStructValidation(planInputStructLevel, PlanInput{})
	return v
}

func planInputStructLevel(sl validator.StructLevel) {
	in := sl.Current().Interface().(PlanInput)
	if in.MaxPrice.Valid && in.MaxPrice.Decimal.LessThan(in.MinPrice) {
		sl.ReportError(in.MaxPrice, "MaxPrice", "max_price", "gtefield", "MinPrice")
	}
}

// requireBearer rejects requests whose Authorization header does not carry token.
func requireBearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				respondWithError(w, http.StatusUnauthorized, "Missing or invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- Plan Handlers ---

// PlanInput defines the expected input for creating or replacing a financing plan.
type PlanInput struct {
	Name              string              `json:"name" validate:"required,max=255"`
	Installments      int                 `json:"installments" validate:"gt=0"`
	SurchargePercent  decimal.Decimal     `json:"surcharge_percent" validate:"gte=0"`
	SurchargeFixed    decimal.Decimal     `json:"surcharge_fixed" validate:"gte=0"`
	MinPrice          decimal.Decimal     `json:"min_price" validate:"gte=0"`
	MaxPrice          decimal.NullDecimal `json:"max_price" validate:"omitempty,gte=0"`
	Active            *bool               `json:"active"`
	MinUpfrontFixed   decimal.NullDecimal `json:"min_upfront_fixed" validate:"omitempty,gte=0"`
	MinUpfrontPercent decimal.NullDecimal `json:"min_upfront_percent" validate:"omitempty,gte=0,lte=100"`
}

func (in PlanInput) toDomain(id int64) *domain.FinancingPlan {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return &domain.FinancingPlan{
		ID:                id,
		Name:              strings.TrimSpace(in.Name),
		Installments:      in.Installments,
		SurchargePercent:  in.SurchargePercent,
		SurchargeFixed:    in.SurchargeFixed,
		MinPrice:          in.MinPrice,
		MaxPrice:          in.MaxPrice,
		Active:            active,
		MinUpfrontFixed:   in.MinUpfrontFixed,
		MinUpfrontPercent: in.MinUpfrontPercent,
	}
}

func (h *AdminHandler) decodePlanInput(w http.ResponseWriter, r *http.Request) (*PlanInput, bool) {
	var input PlanInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return nil, false
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return nil, false
	}
	return &input, true
}

func (h *AdminHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.admin.ListPlans(r.Context())
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve financing plans")
		return
	}
	if plans == nil {
		plans = []domain.FinancingPlan{}
	}
	respondWithJSON(w, http.StatusOK, plans)
}

func (h *AdminHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodePlanInput(w, r)
	if !ok {
		return
	}

	created, err := h.admin.CreatePlan(r.Context(), input.toDomain(0))
	if err != nil {
		respondWithStoreError(w, err, "Failed to create financing plan")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := parseIDParam(r, "planId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid plan ID format")
		return
	}
	input, ok := h.decodePlanInput(w, r)
	if !ok {
		return
	}

	updated, err := h.admin.UpdatePlan(r.Context(), input.toDomain(planID))
	if err != nil {
		respondWithStoreError(w, err, "Failed to update financing plan")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := parseIDParam(r, "planId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	if err := h.admin.DeletePlan(r.Context(), planID); err != nil {
		respondWithStoreError(w, err, "Failed to delete financing plan")
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Association Handlers ---

func parseAssociationPath(w http.ResponseWriter, r *http.Request) (domain.AssociationKind, int64, bool) {
	productID, ok := parseIDParam(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return "", 0, false
	}
	kind := domain.AssociationKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		respondWithError(w, http.StatusBadRequest, "Plan association kind must be 'specific' or 'default'")
		return "", 0, false
	}
	return kind, productID, true
}

func (h *AdminHandler) ListAssociations(w http.ResponseWriter, r *http.Request) {
	kind, productID, ok := parseAssociationPath(w, r)
	if !ok {
		return
	}

	associations, err := h.plans.FindAssociations(r.Context(), kind, productID)
	if err != nil {
		respondWithStoreError(w, err, "Failed to retrieve plan associations")
		return
	}
	if associations == nil {
		associations = []domain.PlanAssociation{}
	}
	respondWithJSON(w, http.StatusOK, associations)
}

// LinkPlanInput names the plan to attach to a product.
type LinkPlanInput struct {
	PlanID int64 `json:"plan_id" validate:"required,gt=0"`
}

func (h *AdminHandler) LinkPlan(w http.ResponseWriter, r *http.Request) {
	kind, productID, ok := parseAssociationPath(w, r)
	if !ok {
		return
	}

	var input LinkPlanInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	association, err := h.admin.LinkPlan(r.Context(), kind, productID, input.PlanID)
	if err != nil {
		respondWithStoreError(w, err, "Failed to link financing plan")
		return
	}
	respondWithJSON(w, http.StatusCreated, association)
}

func (h *AdminHandler) UnlinkPlan(w http.ResponseWriter, r *http.Request) {
	kind, productID, ok := parseAssociationPath(w, r)
	if !ok {
		return
	}
	planID, ok := parseIDParam(r, "planId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid plan ID format")
		return
	}

	if err := h.admin.UnlinkPlan(r.Context(), kind, productID, planID); err != nil {
		respondWithStoreError(w, err, "Failed to unlink financing plan")
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Settings Handlers ---

// ContactPhoneInput sets the storefront WhatsApp number.
type ContactPhoneInput struct {
	Phone string `json:"phone" validate:"required,min=6,max=32"`
}

func (h *AdminHandler) SetContactPhone(w http.ResponseWriter, r *http.Request) {
	var input ContactPhoneInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	phone := strings.TrimSpace(input.Phone)
	if err := h.admin.SetContactPhone(r.Context(), phone); err != nil {
		respondWithStoreError(w, err, "Failed to update contact phone")
		return
	}
	respondWithJSON(w, http.StatusOK, ContactPhoneInput{Phone: phone})
}

// --- Route Registration ---

// RegisterRoutes mounts the administration routes behind the bearer token check.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(requireBearer(h.token))

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)
			r.Put("/{planId}", h.UpdatePlan)
			r.Delete("/{planId}", h.DeletePlan)
		})

		r.Route("/products/{productId}/plans/{kind}", func(r chi.Router) {
			r.Get("/", h.ListAssociations)
			r.Post("/", h.LinkPlan)
			r.Delete("/{planId}", h.UnlinkPlan)
		})

		r.Put("/settings/contact-phone", h.SetContactPhone)
	})
}
