package server

import (
	"ecorder/internal/config"
	"ecorder/internal/handler"
	"ecorder/internal/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterOrderRoutes(e *echo.Echo, cfg config.Config, denylist middleware.TokenDenylist, orderH *handler.OrderHandler) {
	handler.RegisterHealth(e, "Order service is running.")
	orderH.RegisterRoutes(e, cfg, denylist)
}

func RegisterNotificationRoutes(e *echo.Echo, notificationH *handler.NotificationHandler) {
	handler.RegisterHealth(e, "Notification service is running.")
	notificationH.RegisterRoutes(e)
}
