package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"ecorder/internal/config"
	"ecorder/internal/domain/model"
	"ecorder/internal/handler"
	"ecorder/internal/usecase"
	"ecorder/internal/validator"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// =====================
// mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, o *model.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, id string) (model.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, at time.Time) error {
	return m.Called(ctx, id, from, to, at).Error(0)
}

func (m *OrderRepoMock) UpdateShippingAddress(ctx context.Context, id string, expect model.OrderStatus, addr model.ShippingAddress, at time.Time) error {
	return m.Called(ctx, id, expect, addr, at).Error(0)
}

type CartMock struct{ mock.Mock }

func (m *CartMock) GetCart(ctx context.Context, token string) ([]usecase.CartLine, error) {
	args := m.Called(ctx, token)
	lines, _ := args.Get(0).([]usecase.CartLine)
	return lines, args.Error(1)
}

type CatalogMock struct{ mock.Mock }

func (m *CatalogMock) GetProduct(ctx context.Context, token string, productID string) (usecase.Product, error) {
	args := m.Called(ctx, token, productID)
	p, _ := args.Get(0).(usecase.Product)
	return p, args.Error(1)
}

type NotificationRepoMock struct{ mock.Mock }

func (m *NotificationRepoMock) Create(ctx context.Context, n model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *NotificationRepoMock) ListRecent(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, userID, limit)
	list, _ := args.Get(0).([]model.Notification)
	return list, args.Error(1)
}

type fixedIDs struct{}

func (fixedIDs) NewID() string { return "ord-1" }

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

// =====================
// helper
// =====================

type orderServer struct {
	e       *echo.Echo
	orders  *OrderRepoMock
	cart    *CartMock
	catalog *CatalogMock
}

func newOrderServer(t *testing.T) orderServer {
	t.Helper()
	s := orderServer{
		e:       echo.New(),
		orders:  new(OrderRepoMock),
		cart:    new(CartMock),
		catalog: new(CatalogMock),
	}
	uc := usecase.NewOrderUsecase(s.orders, s.cart, s.catalog, validator.NewAddressValidator(),
		nil, fixedIDs{}, fixedClock{}, usecase.OrderSettings{}, nil)

	handler.NewOrderHandler(uc).RegisterRoutes(s.e, config.Config{JWTSecret: testSecret}, nil)
	handler.RegisterHealth(s.e, "Order service is running.")
	return s
}

func mustToken(t *testing.T, userID string, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       userID,
		"username": "asha",
		"email":    "asha@example.com",
		"role":     role,
		"exp":      9999999999,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func do(e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var b errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&b))
	return b
}

func validBody() map[string]any {
	return map[string]any{
		"shippingAddress": map[string]string{
			"street": "12 MG Road", "city": "Bengaluru", "state": "KA", "pincode": "560001", "country": "India",
		},
	}
}

func inr(v string) model.Money {
	return model.Money{Amount: decimal.RequireFromString(v), Currency: model.CurrencyINR}
}

func storedOrder(id, userID string, status model.OrderStatus) model.Order {
	return model.Order{
		ID:     id,
		UserID: userID,
		Items: []model.OrderItem{
			{ProductID: "p1", TitleSnapshot: "Mug", Quantity: 2, UnitPrice: inr("50"), LineTotal: inr("100")},
		},
		TotalPrice: inr("100"),
		Status:     status,
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}
}
