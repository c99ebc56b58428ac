package repository

import (
	"context"
	"errors"
	"time"

	"ecorder/internal/domain/model"
	repo "ecorder/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// 明細はカート順
func itemsInPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	//注文と明細は同じトランザクション
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

func (r *OrderGormRepository) FindByID(ctx context.Context, id string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsInPosition).
		Where("id = ?", id).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	offset, err := repo.PageOffset(page, limit)
	if err != nil {
		return []model.Order{}, 0, err
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	err = r.db.WithContext(ctx).
		Preload("Items", itemsInPosition).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

// from の状態のときだけ更新する
func (r *OrderGormRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *OrderGormRepository) UpdateShippingAddress(ctx context.Context, id string, expect model.OrderStatus, addr model.ShippingAddress, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, expect).
		Updates(map[string]any{
			"ship_street":  addr.Street,
			"ship_city":    addr.City,
			"ship_state":   addr.State,
			"ship_zip":     addr.Zip,
			"ship_country": addr.Country,
			"updated_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// 0件更新の理由（存在しない or 状態が違う）
func (r *OrderGormRepository) missOrConflict(ctx context.Context, id string) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return repo.ErrStatusConflict
}
