package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ecorder/internal/domain/model"
	"ecorder/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNotificationUsecase(t *testing.T) (*usecase.NotificationUsecase, *NotificationRepoMock, *MailerMock) {
	t.Helper()
	notifications := new(NotificationRepoMock)
	mailer := new(MailerMock)
	uc := usecase.NewNotificationUsecase(notifications, mailer, &seqIDs{ids: []string{"n-1"}}, fixedClock{t: testNow}, nil)
	return uc, notifications, mailer
}

func TestRecord_OrderCreated(t *testing.T) {
	uc, notifications, mailer := newNotificationUsecase(t)

	payload := []byte(`{"id":"ord-1","user":"u1","status":"PENDING"}`)
	notifications.On("Create", mock.Anything, model.Notification{
		ID:        "n-1",
		UserID:    "u1",
		EventType: model.EventOrderCreated,
		Message:   "Order ord-1 placed",
		Payload:   string(payload),
		CreatedAt: testNow,
	}).Return(nil).Once()

	n, err := uc.Record(context.Background(), model.EventOrderCreated, payload)
	require.NoError(t, err)
	assert.Equal(t, "Order ord-1 placed", n.Message)

	notifications.AssertExpectations(t)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecord_UserCreated_SendsWelcomeMail(t *testing.T) {
	uc, notifications, mailer := newNotificationUsecase(t)

	payload := []byte(`{"_id":"u9","email":"ravi@example.com","fullName":{"firstName":"Ravi","lastName":"Kumar"}}`)
	mailer.On("Send", mock.Anything, "ravi@example.com", "Welcome to Our Service", mock.Anything,
		mock.MatchedBy(func(html string) bool { return strings.Contains(html, "Ravi Kumar") })).
		Return(nil).Once()
	notifications.On("Create", mock.Anything, mock.MatchedBy(func(n model.Notification) bool {
		return n.UserID == "u9" && n.Message == "Welcome Ravi"
	})).Return(nil).Once()

	_, err := uc.Record(context.Background(), model.EventUserCreated, payload)
	require.NoError(t, err)

	mailer.AssertExpectations(t)
	notifications.AssertExpectations(t)
}

func TestRecord_PaymentCompleted_MailFailureStillStored(t *testing.T) {
	uc, notifications, mailer := newNotificationUsecase(t)

	payload := []byte(`{"orderId":"ord-1","userId":"u1","email":"a@example.com","username":"asha","amount":100,"currency":"INR"}`)
	mailer.On("Send", mock.Anything, "a@example.com", "Payment Successful!", mock.Anything, mock.Anything).
		Return(errors.New("smtp down")).Once()
	notifications.On("Create", mock.Anything, mock.MatchedBy(func(n model.Notification) bool {
		return n.Message == "Payment received for order ord-1" && n.UserID == "u1"
	})).Return(nil).Once()

	_, err := uc.Record(context.Background(), model.EventPaymentCompleted, payload)
	require.NoError(t, err)
	notifications.AssertExpectations(t)
}

func TestRecord_ProductCreated_FallsBackToName(t *testing.T) {
	uc, notifications, _ := newNotificationUsecase(t)

	notifications.On("Create", mock.Anything, mock.MatchedBy(func(n model.Notification) bool {
		return n.Message == "New product: Kettle"
	})).Return(nil).Once()

	_, err := uc.Record(context.Background(), model.EventProductCreated, []byte(`{"name":"Kettle"}`))
	require.NoError(t, err)
	notifications.AssertExpectations(t)
}

func TestRecord_InvalidInput(t *testing.T) {
	uc, notifications, _ := newNotificationUsecase(t)

	_, err := uc.Record(context.Background(), model.EventOrderCreated, []byte(`{not json`))
	assert.ErrorIs(t, err, usecase.ErrValidation)

	_, err = uc.Record(context.Background(), model.EventType("shipment.lost"), []byte(`{}`))
	assert.ErrorIs(t, err, usecase.ErrValidation)

	notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecord_StoreFailure(t *testing.T) {
	uc, notifications, _ := newNotificationUsecase(t)
	notifications.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	_, err := uc.Record(context.Background(), model.EventOrderCancelled, []byte(`{"id":"ord-1","user":"u1"}`))
	assert.ErrorIs(t, err, usecase.ErrInternal)
}

func TestNotificationList_UsesCapAndKeepsPayload(t *testing.T) {
	uc, notifications, _ := newNotificationUsecase(t)

	notifications.On("ListRecent", mock.Anything, "u1", usecase.NotificationListLimit).Return([]model.Notification{
		{ID: "n-2", UserID: "u1", EventType: model.EventOrderCancelled, Message: "Order ord-1 cancelled", Payload: `{"id":"ord-1"}`, CreatedAt: testNow},
		{ID: "n-1", UserID: "u1", EventType: model.EventOrderCreated, Message: "Order ord-1 placed", Payload: "broken", CreatedAt: testNow},
	}, nil).Once()

	list, err := uc.List(context.Background(), " u1 ")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n-2", list[0].ID)
	assert.JSONEq(t, `{"id":"ord-1"}`, string(list[0].Data))
	assert.Nil(t, list[1].Data)
}
