package usecase

import (
	"context"
	"time"

	"ecorder/internal/domain/model"
)

// カートの1行
type CartLine struct {
	ProductID string
	Quantity  int64
}

// 商品カタログから解決した商品
type Product struct {
	ID        string
	Title     string
	UnitPrice model.Money
	Stock     int64
}

// カートサービス（読み取り）
type CartReader interface {
	GetCart(ctx context.Context, token string) ([]CartLine, error)
}

// チェックアウトのサガで使うカート操作
type CartWriter interface {
	RemoveLine(ctx context.Context, token string, productID string) error
	AddLine(ctx context.Context, token string, productID string, qty int64) error
}

// 商品サービス（読み取り）
type CatalogReader interface {
	GetProduct(ctx context.Context, token string, productID string) (Product, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType model.EventType, key string, payload any) error
}

type Mailer interface {
	Send(ctx context.Context, to, subject, plain, html string) error
}

type AddressInput struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// usecaseがValidatorInterfaceに依存する約束
type AddressValidator interface {
	ValidateShippingAddress(in AddressInput) (model.ShippingAddress, error)
}

type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}
