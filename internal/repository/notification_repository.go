package repository

import (
	"context"

	"ecorder/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n model.Notification) error
	// userIDが空なら全件から新しい順に limit 件
	ListRecent(ctx context.Context, userID string, limit int) ([]model.Notification, error)
}
