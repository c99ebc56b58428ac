package handler

import (
	"net/http"

	"ecorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	uc *usecase.NotificationUsecase
}

func NewNotificationHandler(uc *usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

// 一覧は認証なし
func (h *NotificationHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/notifications", h.list)
}

func (h *NotificationHandler) list(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context(), c.QueryParam("userId"))
	if err != nil {
		return writeError(c, err)
	}
	//配列をそのまま返す
	return c.JSON(http.StatusOK, list)
}
