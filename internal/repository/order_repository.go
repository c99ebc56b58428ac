package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"ecorder/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")
	// 条件付き更新で期待したステータスではなかった
	ErrStatusConflict = errors.New("status conflict")
	ErrInvalidPage    = errors.New("invalid page")
)

// PageOffset は 1 始まりの page を読み飛ばし件数にする。int に収まらなければ ErrInvalidPage。
func PageOffset(page, limit int) (int, error) {
	if page < 1 || limit < 1 {
		return 0, ErrInvalidPage
	}
	if page-1 > math.MaxInt/limit {
		return 0, ErrInvalidPage
	}
	return (page - 1) * limit, nil
}

// 注文の永続化だけを約束。Postgres / Mongo の両方で実装する。
type OrderRepository interface {
	//明細ごと保存
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	//新しい順
	ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error)

	//現在のステータスが from のときだけ to に変える
	UpdateStatus(ctx context.Context, orderID string, from, to model.OrderStatus, at time.Time) error
	//現在のステータスが expect のときだけ住所を変える
	UpdateShippingAddress(ctx context.Context, orderID string, expect model.OrderStatus, addr model.ShippingAddress, at time.Time) error
}
