package handler

import (
	"net/http"
	"strconv"

	"ecorder/internal/config"
	"ecorder/internal/domain/model"
	"ecorder/internal/middleware"
	"ecorder/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 注文を作れるロール
var orderRoles = []model.Role{model.RoleUser, model.RoleSeller}

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type ShippingAddressRequest struct {
	ShippingAddress usecase.AddressInput `json:"shippingAddress"`
}

type OrderResponse struct {
	Order model.Order `json:"order"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, denylist middleware.TokenDenylist) {
	g := e.Group("/api/orders")
	g.Use(middleware.AuthJWT(cfg, denylist))
	g.Use(middleware.RequireRoles(orderRoles...))

	g.POST("", h.create)
	g.GET("/me", h.listMine)
	g.GET("/:id", h.detail)
	g.POST("/:id/cancel", h.cancel)
	g.PATCH("/:id/address", h.updateAddress)
}

func (h *OrderHandler) create(c echo.Context) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, "Unauthorized"))
	}

	var req ShippingAddressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	order, err := h.uc.CreateOrder(c.Request().Context(), who, usecase.CreateOrderInput{
		Token:           middleware.TokenFrom(c),
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, OrderResponse{Order: order})
}

func (h *OrderHandler) listMine(c echo.Context) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, "Unauthorized"))
	}

	// page（default 1）
	page := usecase.DefaultPage
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid page")
		}
		page = p
	}

	// limit（default 10）
	limit := usecase.DefaultLimit
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		limit = l
	}

	out, err := h.uc.ListOrders(c.Request().Context(), who, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, "Unauthorized"))
	}

	order, err := h.uc.GetOrder(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, OrderResponse{Order: order})
}

func (h *OrderHandler) cancel(c echo.Context) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, "Unauthorized"))
	}

	order, err := h.uc.CancelOrder(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, OrderResponse{Order: order})
}

func (h *OrderHandler) updateAddress(c echo.Context) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return writeError(c, usecase.NewHTTPError(http.StatusUnauthorized, "Unauthorized"))
	}

	var req ShippingAddressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	order, err := h.uc.UpdateShippingAddress(c.Request().Context(), who, c.Param("id"), req.ShippingAddress)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, OrderResponse{Order: order})
}
