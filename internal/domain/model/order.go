package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

// PENDING以外からの遷移
var ErrInvalidTransition = errors.New("invalid order status transition")

// 配送先（注文時点のスナップショット）
type ShippingAddress struct {
	Street  string `gorm:"type:varchar(255);not null" json:"street"`
	City    string `gorm:"type:varchar(100);not null" json:"city"`
	State   string `gorm:"type:varchar(100);not null" json:"state"`
	Zip     string `gorm:"type:varchar(20);not null" json:"zip"`
	Country string `gorm:"type:varchar(100);not null" json:"country"`
}

// 注文。価格は作成時点のものを保存し、あとから変わらない。
type Order struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          string          `gorm:"type:varchar(64);not null;index" json:"user"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalPrice      Money           `gorm:"embedded;embeddedPrefix:total_" json:"totalPrice"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updatedAt"`
}

// 明細の合計
func (o Order) SumLineTotals() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.LineTotal.Amount)
	}
	return sum
}

func (o Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// PENDING -> CANCELLED / COMPLETED だけ許可
func (o *Order) TransitionTo(next OrderStatus, at time.Time) error {
	if o.Status != OrderStatusPending {
		return ErrInvalidTransition
	}
	switch next {
	case OrderStatusCancelled, OrderStatusCompleted:
	default:
		return ErrInvalidTransition
	}
	o.Status = next
	o.UpdatedAt = at
	return nil
}
