package middleware

import (
	"net/http"

	"ecorder/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// contextのroleが allowed に含まれるか確認します。AuthJWT の後に置く。
func RequireRoles(allowed ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			who, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized", codeAuth))
			}

			if !model.Permits(who.Role, allowed) {
				return c.JSON(http.StatusForbidden, errorJSON("Forbidden: Insufficient permissions", codeForbidden))
			}

			return next(c)
		}
	}
}
