package consumer

import (
	"context"
	"errors"
	"log/slog"

	"ecorder/internal/domain/model"
	"ecorder/internal/infra/broker"
	"ecorder/internal/usecase"

	"github.com/segmentio/kafka-go"
)

type NotificationRecorder interface {
	Record(ctx context.Context, eventType model.EventType, payload []byte) (model.Notification, error)
}

// トピック名をそのままイベント種別にする
type NotificationHandler struct {
	recorder NotificationRecorder
	logger   *slog.Logger
}

func NewNotificationHandler(recorder NotificationRecorder, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{recorder: recorder, logger: logger}
}

func (h *NotificationHandler) Handle(ctx context.Context, msg kafka.Message) error {
	n, err := h.recorder.Record(ctx, model.EventType(msg.Topic), msg.Value)
	if errors.Is(err, usecase.ErrValidation) {
		//壊れたペイロードや未知の種別は何度読んでも同じ
		return broker.Permanent(err)
	}
	if err != nil {
		return err
	}
	h.logger.DebugContext(ctx, "notification stored", "id", n.ID, "event", n.EventType)
	return nil
}
