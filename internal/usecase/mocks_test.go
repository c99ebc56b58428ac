package usecase_test

import (
	"context"
	"sync"
	"time"

	"ecorder/internal/domain/model"
	"ecorder/internal/usecase"

	"github.com/stretchr/testify/mock"
)

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, o *model.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
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
	args := m.Called(ctx, id, from, to, at)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateShippingAddress(ctx context.Context, id string, expect model.OrderStatus, addr model.ShippingAddress, at time.Time) error {
	args := m.Called(ctx, id, expect, addr, at)
	return args.Error(0)
}

type NotificationRepoMock struct{ mock.Mock }

func (m *NotificationRepoMock) Create(ctx context.Context, n model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepoMock) ListRecent(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, userID, limit)
	list, _ := args.Get(0).([]model.Notification)
	return list, args.Error(1)
}

// =====================
// Upstream mocks
// =====================

type CartMock struct{ mock.Mock }

func (m *CartMock) GetCart(ctx context.Context, token string) ([]usecase.CartLine, error) {
	args := m.Called(ctx, token)
	lines, _ := args.Get(0).([]usecase.CartLine)
	return lines, args.Error(1)
}

func (m *CartMock) RemoveLine(ctx context.Context, token string, productID string) error {
	args := m.Called(ctx, token, productID)
	return args.Error(0)
}

func (m *CartMock) AddLine(ctx context.Context, token string, productID string, qty int64) error {
	args := m.Called(ctx, token, productID, qty)
	return args.Error(0)
}

// goroutineから呼ばれるので testify の mock を使う
type CatalogMock struct{ mock.Mock }

func (m *CatalogMock) GetProduct(ctx context.Context, token string, productID string) (usecase.Product, error) {
	args := m.Called(ctx, token, productID)
	p, _ := args.Get(0).(usecase.Product)
	return p, args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, eventType model.EventType, key string, payload any) error {
	args := m.Called(ctx, eventType, key, payload)
	return args.Error(0)
}

type MailerMock struct{ mock.Mock }

func (m *MailerMock) Send(ctx context.Context, to, subject, plain, html string) error {
	args := m.Called(ctx, to, subject, plain, html)
	return args.Error(0)
}

// =====================
// Stubs
// =====================

// 入力をそのまま配送先にする
type passAddressValidator struct{ err error }

func (v passAddressValidator) ValidateShippingAddress(in usecase.AddressInput) (model.ShippingAddress, error) {
	if v.err != nil {
		return model.ShippingAddress{}, v.err
	}
	return model.ShippingAddress{
		Street:  in.Street,
		City:    in.City,
		State:   in.State,
		Zip:     in.Pincode,
		Country: in.Country,
	}, nil
}

type seqIDs struct {
	mu  sync.Mutex
	ids []string
	n   int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.ids[g.n%len(g.ids)]
	g.n++
	return id
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// 上流のHTTPステータス付きエラー
type upstreamErr struct {
	status int
	msg    string
}

func (e upstreamErr) Error() string           { return e.msg }
func (e upstreamErr) HTTPStatus() int         { return e.status }
func (e upstreamErr) UpstreamMessage() string { return e.msg }
