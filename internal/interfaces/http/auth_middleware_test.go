package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dealer-stock-api/internal/application/dto"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	pkgjwt "github.com/jhoicas/dealer-stock-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "dealer-stock-test"
	testExpMin    = 60
)

// bearer firma un token para el usuario concesionario del fixture con los claims indicados.
func bearer(t *testing.T, secret, dealerID, role string, expMin int) string {
	t.Helper()
	tok, err := pkgjwt.Generate(secret, apiDealerUser, dealerID, role, testIssuer, expMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuth_TokenRechazadoEnRutaProtegida(t *testing.T) {
	f := newAPIFixture(t)

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema Basic", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"expirado", bearer(t, testJWTSecret, apiDealerID, entity.RoleDealer, -1), "INVALID_TOKEN"},
		{"otro secreto", bearer(t, "otro-secreto-completamente-distinto", apiDealerID, entity.RoleDealer, testExpMin), "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, raw := f.call(t, http.MethodGet, "/api/inventory/stocks", tc.header, nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, raw).Code)
		})
	}
}

func TestAuth_TokenSinRolEnRutaDeMarca_Retorna401(t *testing.T) {
	f := newAPIFixture(t)
	noRole := bearer(t, testJWTSecret, "", "", testExpMin)

	status, raw := f.call(t, http.MethodPost, "/api/inventory/stocks", noRole, dto.CreateStockRequest{
		ProductID: apiProductID, TotalQuantity: 1, AvailableQuantity: 1,
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_ROLE", decode[dto.ErrorResponse](t, raw).Code)

	status, raw = f.call(t, http.MethodGet, "/api/inventory/stocks", f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[dto.StockListResponse](t, raw).Items, "el libro sigue vacío")
}

func TestAuth_ConcesionarioRechazadoEnRutasDeMarca(t *testing.T) {
	f := newAPIFixture(t)
	stock := f.seedCentralStock(t, 5)
	stocks := "/api/inventory/stocks/" + stock.ID
	requests := "/api/sell-in-requests/cualquiera"

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/inventory/stocks"},
		{http.MethodPut, stocks},
		{http.MethodDelete, stocks},
		{http.MethodPost, stocks + "/adjust"},
		{http.MethodPost, stocks + "/transfer"},
		{http.MethodPost, stocks + "/resolve-in-transit"},
		{http.MethodGet, "/api/sell-in-requests/pending"},
		{http.MethodGet, "/api/sell-in-requests/stale"},
		{http.MethodPost, requests + "/approve"},
		{http.MethodPost, requests + "/reject"},
		{http.MethodPost, requests + "/in-transit"},
		{http.MethodPost, requests + "/deliver"},
		{http.MethodPut, requests + "/items/x/approved-quantity"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			status, raw := f.call(t, r.method, r.path, f.dealer, dto.QuantityRequest{Quantity: 1})
			assert.Equal(t, http.StatusForbidden, status)
			assert.Equal(t, "FORBIDDEN", decode[dto.ErrorResponse](t, raw).Code)
		})
	}

	status, raw := f.call(t, http.MethodGet, stocks, f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[dto.StockResponse](t, raw)
	assert.Equal(t, int64(5), got.AvailableQuantity)
	assert.Equal(t, int64(1), got.Version)
}

func TestAuth_MeDevuelveElConcesionarioDelUsuario(t *testing.T) {
	f := newAPIFixture(t)

	status, raw := f.call(t, http.MethodGet, "/api/auth/me", f.dealer, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	me := decode[dto.UserResponse](t, raw)
	assert.Equal(t, apiDealerUser, me.ID)
	assert.Equal(t, entity.RoleDealer, me.Role)
	require.NotNil(t, me.DealerID)
	assert.Equal(t, apiDealerID, *me.DealerID)

	status, raw = f.call(t, http.MethodGet, "/api/auth/me", f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decode[dto.UserResponse](t, raw).DealerID)
}

func TestAuth_ClaimDealerIDAcotaLasSolicitudes(t *testing.T) {
	f := newAPIFixture(t)
	south := bearer(t, testJWTSecret, apiOtherDeal, entity.RoleDealer, testExpMin)

	status, raw := f.call(t, http.MethodPost, "/api/sell-in-requests", south, dto.CreateSellInRequest{
		Items: []dto.SellInItemRequest{{ProductID: apiProductID, RequestedQuantity: 2}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	req := decode[dto.SellInResponse](t, raw)
	assert.Equal(t, apiOtherDeal, req.DealerID, "el concesionario sale del claim")

	status, raw = f.call(t, http.MethodGet, "/api/sell-in-requests", south, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.SellInListResponse](t, raw).Items, 1)

	status, raw = f.call(t, http.MethodGet, "/api/sell-in-requests", f.dealer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[dto.SellInListResponse](t, raw).Items)

	// Un filtro explícito no amplía el alcance del claim.
	status, raw = f.call(t, http.MethodGet, "/api/sell-in-requests?dealer_id="+apiOtherDeal, f.dealer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[dto.SellInListResponse](t, raw).Items)

	status, _ = f.call(t, http.MethodGet, "/api/sell-in-requests/number/"+req.RequestNumber, f.dealer, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAuth_ConcesionarioSinDealerID_Retorna403(t *testing.T) {
	f := newAPIFixture(t)
	orphan := bearer(t, testJWTSecret, "", entity.RoleDealer, testExpMin)

	status, raw := f.call(t, http.MethodPost, "/api/inventory/stocks", f.manager, dto.CreateStockRequest{
		ProductID: apiProductID, LocationID: strPtr(apiDealerID), TotalQuantity: 3, AvailableQuantity: 3,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	dealerStock := decode[dto.StockResponse](t, raw)

	for _, path := range []string{"/api/sell-in-requests", "/api/sell-in-requests/upcoming-deliveries"} {
		status, _ = f.call(t, http.MethodGet, path, orphan, nil)
		assert.Equal(t, http.StatusForbidden, status, path)
	}
	status, _ = f.call(t, http.MethodPost, "/api/inventory/stocks/"+dealerStock.ID+"/reserve", orphan, dto.QuantityRequest{Quantity: 1})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = f.call(t, http.MethodPost, "/api/sell-in-requests", orphan, dto.CreateSellInRequest{
		Items: []dto.SellInItemRequest{{ProductID: apiProductID, RequestedQuantity: 1}},
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func strPtr(s string) *string { return &s }
