package model

// イベント種別。Kafkaのトピック名にもそのまま使う。
type EventType string

const (
	EventOrderCreated     EventType = "order.created"
	EventOrderCancelled   EventType = "order.cancelled"
	EventPaymentInitiated EventType = "payment.initiated"
	EventPaymentCompleted EventType = "payment.completed"
	EventPaymentFailed    EventType = "payment.failed"
	EventUserCreated      EventType = "user.created"
	EventProductCreated   EventType = "product.created"
)

// 通知サービスが購読するイベント
func NotificationEventTypes() []EventType {
	return []EventType{
		EventOrderCreated,
		EventOrderCancelled,
		EventPaymentInitiated,
		EventPaymentCompleted,
		EventPaymentFailed,
		EventUserCreated,
		EventProductCreated,
	}
}
