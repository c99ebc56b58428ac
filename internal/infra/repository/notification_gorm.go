package repository

import (
	"context"

	"ecorder/internal/domain/model"

	"gorm.io/gorm"
)

type NotificationGormRepository struct {
	db *gorm.DB
}

func NewNotificationGormRepository(db *gorm.DB) *NotificationGormRepository {
	return &NotificationGormRepository{db: db}
}

func (r *NotificationGormRepository) Create(ctx context.Context, n model.Notification) error {
	return r.db.WithContext(ctx).Create(&n).Error
}

// 新しい順に limit 件。userID が空なら全体。
func (r *NotificationGormRepository) ListRecent(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	q := r.db.WithContext(ctx).Model(&model.Notification{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var list []model.Notification
	if err := q.Order("created_at desc").Order("id desc").Limit(limit).Find(&list).Error; err != nil {
		return []model.Notification{}, err
	}
	return list, nil
}
