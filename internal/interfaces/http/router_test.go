package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dealer-stock-api/internal/application/auth"
	"github.com/jhoicas/dealer-stock-api/internal/application/dto"
	"github.com/jhoicas/dealer-stock-api/internal/application/inventory"
	"github.com/jhoicas/dealer-stock-api/internal/application/sellin"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/dealer-stock-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/dealer-stock-api/pkg/jwt"
)

const (
	apiProductID  = "10000000-0000-0000-0000-000000000001"
	apiDealerID   = "20000000-0000-0000-0000-000000000001"
	apiOtherDeal  = "20000000-0000-0000-0000-000000000002"
	apiManagerID  = "30000000-0000-0000-0000-000000000001"
	apiDealerUser = "30000000-0000-0000-0000-000000000002"
	apiPassword   = "s3creto-largo"
)

type apiFixture struct {
	app     *fiber.App
	store   *memory.Store
	manager string
	dealer  string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: apiProductID, Name: "Moto 150cc", MSRP: decimal.NewFromInt(1000)}))
	require.NoError(t, store.Dealers().Create(ctx, &entity.Dealer{ID: apiDealerID, Name: "Concesionario Norte"}))
	require.NoError(t, store.Dealers().Create(ctx, &entity.Dealer{ID: apiOtherDeal, Name: "Concesionario Sur"}))

	hash, err := auth.HashPassword(apiPassword)
	require.NoError(t, err)
	dealerID := apiDealerID
	require.NoError(t, store.Users().Create(ctx, &entity.User{
		ID: apiManagerID, Email: "manager@marca.test", PasswordHash: hash, Name: "Manager", Role: entity.RoleBrandManager, Status: "active",
	}))
	require.NoError(t, store.Users().Create(ctx, &entity.User{
		ID: apiDealerUser, DealerID: &dealerID, Email: "ventas@norte.test", PasswordHash: hash, Name: "Ventas Norte", Role: entity.RoleDealer, Status: "active",
	}))

	log := zerolog.Nop()
	stockUC := inventory.NewStockUseCase(store, store.StockRecords(), store.StockMovements(), store.Products(), store.Dealers(), log, 5)
	sellInUC := sellin.NewSellInUseCase(store, store.SellInRequests(), store.Products(), store.Dealers(), store.Users(), stockUC, sellin.Config{}, log)
	authUC := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		StockUC: stockUC, SellInUC: sellInUC, AuthUC: authUC, JWTSecret: testJWTSecret, Log: log,
	})

	manager, err := pkgjwt.Generate(testJWTSecret, apiManagerID, "", entity.RoleBrandManager, testIssuer, testExpMin)
	require.NoError(t, err)
	dealer, err := pkgjwt.Generate(testJWTSecret, apiDealerUser, apiDealerID, entity.RoleDealer, testIssuer, testExpMin)
	require.NoError(t, err)

	return &apiFixture{app: app, store: store, manager: "Bearer " + manager, dealer: "Bearer " + dealer}
}

func (f *apiFixture) call(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (f *apiFixture) seedCentralStock(t *testing.T, available int64) dto.StockResponse {
	t.Helper()
	status, raw := f.call(t, http.MethodPost, "/api/inventory/stocks", f.manager, dto.CreateStockRequest{
		ProductID: apiProductID, TotalQuantity: available, AvailableQuantity: available, Location: "Bodega central",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[dto.StockResponse](t, raw)
}

func TestLogin_DevuelveTokenUtilizable(t *testing.T) {
	f := newAPIFixture(t)

	status, raw := f.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "VENTAS@norte.test", Password: apiPassword})
	require.Equal(t, http.StatusOK, status, string(raw))
	login := decode[dto.LoginResponse](t, raw)
	require.NotEmpty(t, login.Token)

	status, raw = f.call(t, http.MethodGet, "/api/auth/me", "Bearer "+login.Token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[dto.UserResponse](t, raw)
	assert.Equal(t, apiDealerUser, me.ID)
	require.NotNil(t, me.DealerID)
	assert.Equal(t, apiDealerID, *me.DealerID)
}

func TestLogin_PasswordIncorrecto_Retorna401(t *testing.T) {
	f := newAPIFixture(t)
	status, raw := f.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "manager@marca.test", Password: "otra"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(raw), "UNAUTHORIZED")
}

func TestStock_CrearSoloMarca(t *testing.T) {
	f := newAPIFixture(t)

	status, raw := f.call(t, http.MethodPost, "/api/inventory/stocks", f.dealer, dto.CreateStockRequest{
		ProductID: apiProductID, TotalQuantity: 1, AvailableQuantity: 1,
	})
	assert.Equal(t, http.StatusForbidden, status, string(raw))

	stock := f.seedCentralStock(t, 10)
	assert.True(t, stock.IsBrandWarehouse)
	assert.Equal(t, int64(10), stock.AvailableQuantity)
}

func TestStock_InvarianteRechazada(t *testing.T) {
	f := newAPIFixture(t)
	status, raw := f.call(t, http.MethodPost, "/api/inventory/stocks", f.manager, dto.CreateStockRequest{
		ProductID: apiProductID, TotalQuantity: 10, AvailableQuantity: 8, ReservedQuantity: 1,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "STOCK_INVARIANT")
}

func TestStock_DuplicadoRetorna409(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCentralStock(t, 3)
	status, raw := f.call(t, http.MethodPost, "/api/inventory/stocks", f.manager, dto.CreateStockRequest{
		ProductID: apiProductID, TotalQuantity: 1, AvailableQuantity: 1,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(raw), "DUPLICATE")
}

func TestStock_ReservaInsuficienteNoModifica(t *testing.T) {
	f := newAPIFixture(t)
	stock := f.seedCentralStock(t, 4)

	status, raw := f.call(t, http.MethodPost, "/api/inventory/stocks/"+stock.ID+"/reserve", f.manager, dto.QuantityRequest{Quantity: 5})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "INSUFFICIENT_STOCK")

	status, raw = f.call(t, http.MethodGet, "/api/inventory/stocks/"+stock.ID, f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[dto.StockResponse](t, raw)
	assert.Equal(t, int64(4), got.AvailableQuantity)
	assert.Equal(t, int64(0), got.ReservedQuantity)
	assert.Equal(t, "Moto 150cc", got.ProductName)
}

func TestStock_ConcesionarioReservaSoloEnSuUbicacion(t *testing.T) {
	f := newAPIFixture(t)
	central := f.seedCentralStock(t, 10)

	status, raw := f.call(t, http.MethodPost, "/api/inventory/stocks", f.manager, dto.CreateStockRequest{
		ProductID: apiProductID, LocationID: strPtr(apiDealerID), TotalQuantity: 4, AvailableQuantity: 4,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	own := decode[dto.StockResponse](t, raw)
	status, raw = f.call(t, http.MethodPost, "/api/inventory/stocks", f.manager, dto.CreateStockRequest{
		ProductID: apiProductID, LocationID: strPtr(apiOtherDeal), TotalQuantity: 4, AvailableQuantity: 4,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	other := decode[dto.StockResponse](t, raw)

	for _, id := range []string{central.ID, other.ID} {
		for _, op := range []string{"/reserve", "/release"} {
			status, raw = f.call(t, http.MethodPost, "/api/inventory/stocks/"+id+op, f.dealer, dto.QuantityRequest{Quantity: 1})
			assert.Equal(t, http.StatusForbidden, status, op)
			assert.Equal(t, "FORBIDDEN", decode[dto.ErrorResponse](t, raw).Code)
		}
	}
	status, raw = f.call(t, http.MethodGet, "/api/inventory/stocks/"+central.ID, f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(0), decode[dto.StockResponse](t, raw).ReservedQuantity)

	status, raw = f.call(t, http.MethodPost, "/api/inventory/stocks/"+own.ID+"/reserve", f.dealer, dto.QuantityRequest{Quantity: 3})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, int64(3), decode[dto.StockResponse](t, raw).ReservedQuantity)
	status, raw = f.call(t, http.MethodPost, "/api/inventory/stocks/"+own.ID+"/release", f.dealer, dto.QuantityRequest{Quantity: 2})
	require.Equal(t, http.StatusOK, status, string(raw))
	got := decode[dto.StockResponse](t, raw)
	assert.Equal(t, int64(1), got.ReservedQuantity)
	assert.Equal(t, int64(3), got.AvailableQuantity)

	// La marca opera sobre cualquier ubicación.
	status, _ = f.call(t, http.MethodPost, "/api/inventory/stocks/"+central.ID+"/reserve", f.manager, dto.QuantityRequest{Quantity: 1})
	assert.Equal(t, http.StatusOK, status)
}

func TestStock_ResolverTransitoComprometidoRetorna409(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCentralStock(t, 100)

	status, raw := f.call(t, http.MethodPost, "/api/sell-in-requests", f.dealer, dto.CreateSellInRequest{
		Items: []dto.SellInItemRequest{{ProductID: apiProductID, RequestedQuantity: 10}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	base := "/api/sell-in-requests/" + decode[dto.SellInResponse](t, raw).ID
	status, _ = f.call(t, http.MethodPost, base+"/approve", f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = f.call(t, http.MethodPost, base+"/in-transit", f.manager, nil)
	require.Equal(t, http.StatusOK, status)

	status, raw = f.call(t, http.MethodGet, "/api/inventory/stocks/lookup?product_id="+apiProductID+"&location_id="+apiDealerID, f.manager, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	dealerStock := decode[dto.StockResponse](t, raw)

	status, raw = f.call(t, http.MethodPost, "/api/inventory/stocks/"+dealerStock.ID+"/resolve-in-transit", f.manager, dto.QuantityRequest{Quantity: 10})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "IN_TRANSIT_COMMITTED", decode[dto.ErrorResponse](t, raw).Code)

	status, raw = f.call(t, http.MethodPost, base+"/deliver", f.manager, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, entity.SellInStatusDelivered, decode[dto.SellInResponse](t, raw).Status)
}

func TestStock_RutasEstaticasAntesDeID(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCentralStock(t, 2)

	status, raw := f.call(t, http.MethodGet, "/api/inventory/stocks/statistics", f.manager, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	stats := decode[dto.StockStatisticsResponse](t, raw)
	assert.Equal(t, int64(1), stats.TotalRecords)
	assert.Equal(t, int64(1), stats.LowStockCount)
	assert.True(t, decimal.NewFromInt(2000).Equal(stats.AvailableValue))

	status, raw = f.call(t, http.MethodGet, "/api/inventory/stocks/low-stock", f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.StockListResponse](t, raw).Items, 1)

	status, raw = f.call(t, http.MethodGet, "/api/inventory/stocks/lookup?product_id="+apiProductID, f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[dto.StockResponse](t, raw).IsBrandWarehouse)
}

func TestStock_NoExiste_Retorna404(t *testing.T) {
	f := newAPIFixture(t)
	status, raw := f.call(t, http.MethodGet, "/api/inventory/stocks/no-existe", f.manager, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(raw), "NOT_FOUND")
}

func TestStock_ListaConQueryInvalida_Retorna400(t *testing.T) {
	f := newAPIFixture(t)
	status, _ := f.call(t, http.MethodGet, "/api/inventory/stocks?min_available=abc", f.manager, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSellIn_FlujoCompletoMueveElLibro(t *testing.T) {
	f := newAPIFixture(t)
	central := f.seedCentralStock(t, 10)

	status, raw := f.call(t, http.MethodPost, "/api/sell-in-requests", f.dealer, dto.CreateSellInRequest{
		Items: []dto.SellInItemRequest{{ProductID: apiProductID, RequestedQuantity: 6}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	req := decode[dto.SellInResponse](t, raw)
	assert.Equal(t, entity.SellInStatusPending, req.Status)
	assert.Equal(t, apiDealerID, req.DealerID)
	assert.Regexp(t, `^SIR-\d{4}-00001$`, req.RequestNumber)
	base := "/api/sell-in-requests/" + req.ID

	// El concesionario no puede aprobar.
	status, _ = f.call(t, http.MethodPost, base+"/approve", f.dealer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = f.call(t, http.MethodPost, base+"/approve", f.manager, dto.SellInDecisionRequest{Notes: "ok"})
	require.Equal(t, http.StatusOK, status, string(raw))
	req = decode[dto.SellInResponse](t, raw)
	assert.Equal(t, int64(6), req.TotalApproved)

	status, raw = f.call(t, http.MethodPut, base+"/items/"+req.Items[0].ID+"/approved-quantity", f.manager, dto.ApprovedQuantityRequest{Quantity: 4})
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = f.call(t, http.MethodPost, base+"/in-transit", f.manager, nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = f.call(t, http.MethodGet, "/api/inventory/stocks/lookup?product_id="+apiProductID+"&location_id="+apiDealerID, f.manager, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	dealerStock := decode[dto.StockResponse](t, raw)
	assert.Equal(t, int64(4), dealerStock.InTransitQuantity)
	assert.Equal(t, int64(0), dealerStock.AvailableQuantity)

	status, raw = f.call(t, http.MethodPost, base+"/deliver", f.manager, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	req = decode[dto.SellInResponse](t, raw)
	assert.Equal(t, entity.SellInStatusDelivered, req.Status)
	assert.Equal(t, int64(4), req.TotalDelivered)
	assert.NotNil(t, req.ActualDeliveryDate)

	status, raw = f.call(t, http.MethodGet, "/api/inventory/stocks/"+dealerStock.ID, f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	dealerStock = decode[dto.StockResponse](t, raw)
	assert.Equal(t, int64(4), dealerStock.AvailableQuantity)
	assert.Equal(t, int64(0), dealerStock.InTransitQuantity)

	status, raw = f.call(t, http.MethodGet, "/api/inventory/stocks/"+central.ID, f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(6), decode[dto.StockResponse](t, raw).AvailableQuantity)

	// Estado terminal.
	status, raw = f.call(t, http.MethodPost, base+"/cancel", f.manager, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(raw), "INVALID_TRANSITION")
}

func TestSellIn_DespachoSinStockCentral_NoCambiaEstado(t *testing.T) {
	f := newAPIFixture(t)
	f.seedCentralStock(t, 2)

	status, raw := f.call(t, http.MethodPost, "/api/sell-in-requests", f.dealer, dto.CreateSellInRequest{
		Items: []dto.SellInItemRequest{{ProductID: apiProductID, RequestedQuantity: 5}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	req := decode[dto.SellInResponse](t, raw)
	base := "/api/sell-in-requests/" + req.ID

	status, _ = f.call(t, http.MethodPost, base+"/approve", f.manager, nil)
	require.Equal(t, http.StatusOK, status)

	status, raw = f.call(t, http.MethodPost, base+"/in-transit", f.manager, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "INSUFFICIENT_STOCK")

	status, raw = f.call(t, http.MethodGet, base, f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, entity.SellInStatusApproved, decode[dto.SellInResponse](t, raw).Status)
}

func TestSellIn_ConcesionarioSoloVeLoSuyo(t *testing.T) {
	f := newAPIFixture(t)

	status, _ := f.call(t, http.MethodPost, "/api/sell-in-requests", f.dealer, dto.CreateSellInRequest{
		DealerID: apiOtherDeal,
		Items:    []dto.SellInItemRequest{{ProductID: apiProductID, RequestedQuantity: 1}},
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, raw := f.call(t, http.MethodPost, "/api/sell-in-requests", f.manager, dto.CreateSellInRequest{
		DealerID: apiOtherDeal,
		Items:    []dto.SellInItemRequest{{ProductID: apiProductID, RequestedQuantity: 1}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	other := decode[dto.SellInResponse](t, raw)

	status, _ = f.call(t, http.MethodGet, "/api/sell-in-requests/"+other.ID, f.dealer, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = f.call(t, http.MethodGet, "/api/sell-in-requests/dealer/"+apiOtherDeal, f.dealer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = f.call(t, http.MethodGet, "/api/sell-in-requests", f.dealer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[dto.SellInListResponse](t, raw).Items)

	status, raw = f.call(t, http.MethodGet, "/api/sell-in-requests/pending", f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.SellInListResponse](t, raw).Items, 1)
}

func TestSellIn_ConcesionarioNoModificaSolicitudesAjenas(t *testing.T) {
	f := newAPIFixture(t)

	status, raw := f.call(t, http.MethodPost, "/api/sell-in-requests", f.manager, dto.CreateSellInRequest{
		DealerID: apiOtherDeal,
		Items:    []dto.SellInItemRequest{{ProductID: apiProductID, RequestedQuantity: 3}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	base := "/api/sell-in-requests/" + decode[dto.SellInResponse](t, raw).ID

	status, _ = f.call(t, http.MethodPut, base, f.dealer, dto.UpdateSellInRequest{
		Items: []dto.SellInItemRequest{{ProductID: apiProductID, RequestedQuantity: 9}},
	})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = f.call(t, http.MethodPost, base+"/cancel", f.dealer, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = f.call(t, http.MethodDelete, base, f.dealer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = f.call(t, http.MethodGet, base, f.manager, nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[dto.SellInResponse](t, raw)
	assert.Equal(t, entity.SellInStatusPending, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(3), got.Items[0].RequestedQuantity)
}

func TestSellIn_SinItems_Retorna400(t *testing.T) {
	f := newAPIFixture(t)
	status, raw := f.call(t, http.MethodPost, "/api/sell-in-requests", f.dealer, dto.CreateSellInRequest{DealerID: apiDealerID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "EMPTY_ITEMS")
}

func TestSellIn_FiltroDeEstadoInvalido_Retorna400(t *testing.T) {
	f := newAPIFixture(t)
	status, _ := f.call(t, http.MethodGet, "/api/sell-in-requests?status=SHIPPED", f.manager, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
