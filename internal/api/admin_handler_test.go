package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

const testAdminToken = "s3cret-token"

func adminRequest(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestAdminHandler_RequiresToken(t *testing.T) {
	ms := new(MockStore)
	admin := new(MockAdminStore)
	server := setupTestChiServer(t, ms, admin, testAdminToken)

	res := adminRequest(t, http.MethodGet, server.URL+"/api/v1/admin/plans", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = adminRequest(t, http.MethodGet, server.URL+"/api/v1/admin/plans", nil, "wrong")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	admin.AssertNotCalled(t, "ListPlans", mock.Anything)
}

func TestAdminHandler_EmptyTokenRejectsEverything(t *testing.T) {
	ms := new(MockStore)
	admin := new(MockAdminStore)
	server := setupTestChiServer(t, ms, admin, "")

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/admin/plans", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer ")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAdminHandler_ListPlans(t *testing.T) {
	ms := new(MockStore)
	admin := new(MockAdminStore)
	server := setupTestChiServer(t, ms, admin, testAdminToken)

	admin.On("ListPlans", mock.Anything).Return(nil, nil).Once()

	res := adminRequest(t, http.MethodGet, server.URL+"/api/v1/admin/plans", nil, testAdminToken)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var plans []domain.FinancingPlan
	require.NoError(t, json.NewDecoder(res.Body).Decode(&plans))
	assert.NotNil(t, plans)
	assert.Empty(t, plans)
}

func TestAdminHandler_CreatePlan(t *testing.T) {
	ms := new(MockStore)
	admin := new(MockAdminStore)
	server := setupTestChiServer(t, ms, admin, testAdminToken)

	payload := `{"name":" 6 cuotas ","installments":6,"surcharge_percent":"15","surcharge_fixed":0,` +
		`"min_price":"1000","max_price":"500000","min_upfront_percent":10}`

	admin.On("CreatePlan", mock.Anything, mock.MatchedBy(func(p *domain.FinancingPlan) bool {
		return p.ID == 0 &&
			p.Name == "6 cuotas" &&
			p.Installments == 6 &&
			p.SurchargePercent.Equal(decimal.NewFromInt(15)) &&
			p.MaxPrice.Valid && p.MaxPrice.Decimal.Equal(decimal.NewFromInt(500000)) &&
			p.Active &&
			!p.MinUpfrontFixed.Valid &&
			p.MinUpfrontPercent.Valid
	})).Return(&domain.FinancingPlan{ID: 11, Name: "6 cuotas", Installments: 6, Active: true}, nil).Once()

	res := adminRequest(t, http.MethodPost, server.URL+"/api/v1/admin/plans", payload, testAdminToken)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var created domain.FinancingPlan
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.Equal(t, int64(11), created.ID)
	admin.AssertExpectations(t)
}

func TestAdminHandler_CreatePlan_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"name":`},
		{"missing name", `{"installments":6}`},
		{"zero installments", `{"name":"x","installments":0}`},
		{"negative surcharge", `{"name":"x","installments":3,"surcharge_percent":-1}`},
		{"max below min", `{"name":"x","installments":3,"min_price":1000,"max_price":500}`},
		{"upfront percent above 100", `{"name":"x","installments":3,"min_upfront_percent":150}`},
		{"negative upfront fixed", `{"name":"x","installments":3,"min_upfront_fixed":-5}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ms := new(MockStore)
			admin := new(MockAdminStore)
			server := setupTestChiServer(t, ms, admin, testAdminToken)

			res := adminRequest(t, http.MethodPost, server.URL+"/api/v1/admin/plans", tc.payload, testAdminToken)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			admin.AssertNotCalled(t, "CreatePlan", mock.Anything, mock.Anything)
		})
	}
}

func TestAdminHandler_UpdatePlan_NotFound(t *testing.T) {
	ms := new(MockStore)
	admin := new(MockAdminStore)
	server := setupTestChiServer(t, ms, admin, testAdminToken)

	admin.On("UpdatePlan", mock.Anything, mock.MatchedBy(func(p *domain.FinancingPlan) bool {
		return p.ID == 99 && !p.Active
	})).Return(nil, store.ErrPlanNotFound).Once()

	res := adminRequest(t, http.MethodPut, server.URL+"/api/v1/admin/plans/99",
		`{"name":"3 cuotas","installments":3,"active":false}`, testAdminToken)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	admin.AssertExpectations(t)
}

func TestAdminHandler_DeletePlan(t *testing.T) {
	ms := new(MockStore)
	admin := new(MockAdminStore)
	server := setupTestChiServer(t, ms, admin, testAdminToken)

	admin.On("DeletePlan", mock.Anything, int64(4)).Return(nil).Once()

	res := adminRequest(t, http.MethodDelete, server.URL+"/api/v1/admin/plans/4", nil, testAdminToken)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	admin.AssertExpectations(t)
}

func TestAdminHandler_ListAssociations(t *testing.T) {
	ms := new(MockStore)
	admin := new(MockAdminStore)
	server := setupTestChiServer(t, ms, admin, testAdminToken)

	ms.On("FindAssociations", mock.Anything, domain.AssociationDefault, int64(7)).Return([]domain.PlanAssociation{
		{ID: 1, Kind: domain.AssociationDefault, ProductID: 7, PlanID: 3, Active: true},
	}, nil).Once()

	res := adminRequest(t, http.MethodGet, server.URL+"/api/v1/admin/products/7/plans/default", nil, testAdminToken)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var associations []domain.PlanAssociation
	require.NoError(t, json.NewDecoder(res.Body).Decode(&associations))
	require.Len(t, associations, 1)
	assert.Equal(t, int64(3), associations[0].PlanID)
}

func TestAdminHandler_LinkPlan(t *testing.T) {
	testCases := []struct {
		name     string
		storeErr error
		expected int
	}{
		{"created", nil, http.StatusCreated},
		{"duplicate", store.ErrAssociationExists, http.StatusConflict},
		{"unknown plan", store.ErrPlanNotFound, http.StatusNotFound},
		{"unknown product", store.ErrProductNotFound, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ms := new(MockStore)
			admin := new(MockAdminStore)
			server := setupTestChiServer(t, ms, admin, testAdminToken)

			var association *domain.PlanAssociation
			if tc.storeErr == nil {
				association = &domain.PlanAssociation{ID: 5, Kind: domain.AssociationSpecific, ProductID: 7, PlanID: 3, Active: true}
			}
			call := admin.On("LinkPlan", mock.Anything, domain.AssociationSpecific, int64(7), int64(3))
			if association != nil {
				call.Return(association, nil).Once()
			} else {
				call.Return(nil, tc.storeErr).Once()
			}

			res := adminRequest(t, http.MethodPost, server.URL+"/api/v1/admin/products/7/plans/specific",
				LinkPlanInput{PlanID: 3}, testAdminToken)
			assert.Equal(t, tc.expected, res.StatusCode)
			admin.AssertExpectations(t)
		})
	}
}

func TestAdminHandler_LinkPlan_InvalidKindOrBody(t *testing.T) {
	ms := new(MockStore)
	admin := new(MockAdminStore)
	server := setupTestChiServer(t, ms, admin, testAdminToken)

	res := adminRequest(t, http.MethodPost, server.URL+"/api/v1/admin/products/7/plans/featured",
		LinkPlanInput{PlanID: 3}, testAdminToken)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = adminRequest(t, http.MethodPost, server.URL+"/api/v1/admin/products/7/plans/specific",
		`{"plan_id":0}`, testAdminToken)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	admin.AssertNotCalled(t, "LinkPlan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminHandler_UnlinkPlan(t *testing.T) {
	ms := new(MockStore)
	admin := new(MockAdminStore)
	server := setupTestChiServer(t, ms, admin, testAdminToken)

	admin.On("UnlinkPlan", mock.Anything, domain.AssociationDefault, int64(7), int64(3)).Return(nil).Once()
	admin.On("UnlinkPlan", mock.Anything, domain.AssociationDefault, int64(7), int64(4)).Return(store.ErrAssociationNotFound).Once()

	res := adminRequest(t, http.MethodDelete, server.URL+"/api/v1/admin/products/7/plans/default/3", nil, testAdminToken)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = adminRequest(t, http.MethodDelete, server.URL+"/api/v1/admin/products/7/plans/default/4", nil, testAdminToken)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	admin.AssertExpectations(t)
}

func TestAdminHandler_SetContactPhone(t *testing.T) {
	ms := new(MockStore)
	admin := new(MockAdminStore)
	server := setupTestChiServer(t, ms, admin, testAdminToken)

	admin.On("SetContactPhone", mock.Anything, "+54 9 11 5555-0000").Return(nil).Once()

	res := adminRequest(t, http.MethodPut, server.URL+"/api/v1/admin/settings/contact-phone",
		ContactPhoneInput{Phone: "  +54 9 11 5555-0000 "}, testAdminToken)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body ContactPhoneInput
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "+54 9 11 5555-0000", body.Phone)

	res = adminRequest(t, http.MethodPut, server.URL+"/api/v1/admin/settings/contact-phone",
		ContactPhoneInput{Phone: ""}, testAdminToken)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	admin.AssertExpectations(t)
}
