package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Message string `json:"message"`
}

// GET / を登録する。message はサービスごと。
func RegisterHealth(e *echo.Echo, message string) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse{Message: message})
	})
}
