package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"ecorder/internal/domain/model"
	"ecorder/internal/infra/broker"
	"ecorder/internal/usecase"

	"github.com/segmentio/kafka-go"
)

// 決済完了で注文を COMPLETED にする
type OrderCompleter interface {
	MarkCompleted(ctx context.Context, orderID string) error
}

// PaymentHandler は payment.completed を購読する。
type PaymentHandler struct {
	orders OrderCompleter
	logger *slog.Logger
}

func NewPaymentHandler(orders OrderCompleter, logger *slog.Logger) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{orders: orders, logger: logger}
}

func (h *PaymentHandler) Handle(ctx context.Context, msg kafka.Message) error {
	if msg.Topic != string(model.EventPaymentCompleted) {
		return nil
	}

	var payload struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return broker.Permanent(err)
	}
	if payload.OrderID == "" {
		return nil
	}

	err := h.orders.MarkCompleted(ctx, payload.OrderID)
	switch {
	case err == nil:
		h.logger.InfoContext(ctx, "order completed", "order_id", payload.OrderID)
		return nil
	case errors.Is(err, usecase.ErrInvalidState), errors.Is(err, usecase.ErrNotFound):
		//取消済み・不明な注文は無視する
		h.logger.WarnContext(ctx, "payment completed for non-pending order", "order_id", payload.OrderID, "error", err)
		return nil
	case errors.Is(err, usecase.ErrValidation):
		return broker.Permanent(err)
	default:
		//DB障害などは再試行させる
		return err
	}
}
