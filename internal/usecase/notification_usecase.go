package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ecorder/internal/domain/model"
	repo "ecorder/internal/repository"
)

// 一覧で返す最大件数
const NotificationListLimit = 200

type NotificationUsecase struct {
	notifications repo.NotificationRepository
	mailer        Mailer
	ids           IDGenerator
	clock         Clock
	logger        *slog.Logger
}

func NewNotificationUsecase(
	notifications repo.NotificationRepository,
	mailer Mailer,
	ids IDGenerator,
	clock Clock,
	logger *slog.Logger,
) *NotificationUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationUsecase{
		notifications: notifications,
		mailer:        mailer,
		ids:           ids,
		clock:         clock,
		logger:        logger,
	}
}

type NotificationDTO struct {
	ID        string          `json:"_id"`
	UserID    string          `json:"userId,omitempty"`
	EventType string          `json:"eventType"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// 各サービスが送ってくるペイロードの共通部分
type eventPayload struct {
	ID       string `json:"id"`
	MongoID  string `json:"_id"`
	User     string `json:"user"`
	UserID   string `json:"userId"`
	OrderID  string `json:"orderId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"fullName"`
	Title    string      `json:"title"`
	Name     string      `json:"name"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
}

func (p eventPayload) entityID() string {
	if p.ID != "" {
		return p.ID
	}
	return p.MongoID
}

type mailContent struct {
	subject string
	plain   string
	html    string
}

// Record はイベント1件を通知として保存し、宛先があればメールも送る。
func (u *NotificationUsecase) Record(ctx context.Context, eventType model.EventType, payload []byte) (model.Notification, error) {
	var p eventPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return model.Notification{}, errValidation(fmt.Sprintf("invalid %s payload: %v", eventType, err))
	}

	message, userID, mail, err := describeEvent(eventType, p)
	if err != nil {
		return model.Notification{}, err
	}

	//メールの失敗では通知の保存を止めない
	if mail != nil && p.Email != "" && u.mailer != nil {
		if err := u.mailer.Send(ctx, p.Email, mail.subject, mail.plain, mail.html); err != nil {
			u.logger.WarnContext(ctx, "notification email failed", "event", eventType, "error", err)
		}
	}

	n := model.Notification{
		ID:        u.ids.NewID(),
		UserID:    userID,
		EventType: eventType,
		Message:   message,
		Payload:   string(payload),
		CreatedAt: u.clock.Now(),
	}
	if err := u.notifications.Create(ctx, n); err != nil {
		return model.Notification{}, errInternal(err)
	}
	return n, nil
}

func (u *NotificationUsecase) List(ctx context.Context, userID string) ([]NotificationDTO, error) {
	list, err := u.notifications.ListRecent(ctx, strings.TrimSpace(userID), NotificationListLimit)
	if err != nil {
		return nil, errInternal(err)
	}

	out := make([]NotificationDTO, 0, len(list))
	for _, n := range list {
		dto := NotificationDTO{
			ID:        n.ID,
			UserID:    n.UserID,
			EventType: string(n.EventType),
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
		}
		if json.Valid([]byte(n.Payload)) {
			dto.Data = json.RawMessage(n.Payload)
		}
		out = append(out, dto)
	}
	return out, nil
}

// イベント種別ごとの文言
func describeEvent(eventType model.EventType, p eventPayload) (string, string, *mailContent, error) {
	switch eventType {
	case model.EventOrderCreated:
		return fmt.Sprintf("Order %s placed", p.entityID()), p.User, nil, nil

	case model.EventOrderCancelled:
		return fmt.Sprintf("Order %s cancelled", p.entityID()), p.User, nil, nil

	case model.EventUserCreated:
		name := strings.TrimSpace(p.FullName.FirstName + " " + p.FullName.LastName)
		return fmt.Sprintf("Welcome %s", p.FullName.FirstName), p.entityID(), &mailContent{
			subject: "Welcome to Our Service",
			plain:   "Thank you for registering with us!",
			html: fmt.Sprintf("<h1>Welcome to our service!</h1><p>Dear %s,</p>"+
				"<p>Thank you for registering with us. We are excited to have you on board!</p>"+
				"<p>Best regards,<br/>The Team</p>", name),
		}, nil

	case model.EventPaymentInitiated:
		return fmt.Sprintf("Payment initiated for order %s", p.OrderID), p.UserID, &mailContent{
			subject: "Payment Initiated!",
			plain:   "Your payment is being processed.",
			html: fmt.Sprintf("<h1>Payment Initiated!</h1><p>Dear %s,</p>"+
				"<p>Your payment of %s %s for the order ID: %s has been initiated.</p>"+
				"<p>We will notify you once the payment is completed.</p>"+
				"<p>Best regards,<br/>The Team</p>", p.Username, p.Currency, p.Amount, p.OrderID),
		}, nil

	case model.EventPaymentCompleted:
		return fmt.Sprintf("Payment received for order %s", p.OrderID), p.UserID, &mailContent{
			subject: "Payment Successful!",
			plain:   "We have received your payment.",
			html: fmt.Sprintf("<h1>Payment successful!</h1><p>Dear %s,</p>"+
				"<p>We have received your payment of %s %s for the order ID: %s.</p>"+
				"<p>Thank you for your purchase!</p>"+
				"<p>Best regards,<br/>The Team</p>", p.Username, p.Currency, p.Amount, p.OrderID),
		}, nil

	case model.EventPaymentFailed:
		return fmt.Sprintf("Payment failed for order %s", p.OrderID), p.UserID, &mailContent{
			subject: "Payment Failed!",
			plain:   "Your payment could not be processed.",
			html: fmt.Sprintf("<h1>Payment failed!</h1><p>Dear %s,</p>"+
				"<p>Unfortunately, your payment for the order ID: %s has failed.</p>"+
				"<p>Please try again or contact support if the issue persists.</p>"+
				"<p>Best regards,<br/>The Team</p>", p.Username, p.OrderID),
		}, nil

	case model.EventProductCreated:
		title := p.Title
		if title == "" {
			title = p.Name
		}
		return fmt.Sprintf("New product: %s", title), "", &mailContent{
			subject: "New Product Launched!",
			plain:   "Check out our latest product.",
			html: fmt.Sprintf("<h1>New Product available!</h1><p>Dear %s,</p>"+
				"<p>Check it out and enjoy exclusive launch offers!</p>"+
				"<p>Best regards,<br/>The Team</p>", p.Username),
		}, nil

	default:
		return "", "", nil, errValidation(fmt.Sprintf("unknown event type %q", eventType))
	}
}
