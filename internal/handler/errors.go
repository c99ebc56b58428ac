package handler

import (
	"net/http"

	"ecorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		//500は原因をログにだけ出す
		if he.Status >= http.StatusInternalServerError {
			c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		}
		return c.JSON(he.Status, ErrorResponse{Message: he.Message, Code: string(he.Kind)})
	}

	//500
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error", Code: string(usecase.KindInternal)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Message: msg, Code: string(usecase.KindValidation)})
}
