package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ecorder/internal/config"
	"ecorder/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxIdentityKey = "identity" // model.Identity
	CtxTokenKey    = "token"    // 上流へ転送する生トークン

	// 認証サービスが発行するcookie
	TokenCookieName = "token"
)

// ログアウト済みトークンの確認
type TokenDenylist interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// cookie(token) か Bearer のJWTを検証する。denylist は nil 可。
func AuthJWT(cfg config.Config, denylist TokenDenylist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken := extractToken(c)
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized: No token provided", codeAuth))
			}

			//JWTをパースして検証する
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized: Invalid token", codeAuth))
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized: Invalid token", codeAuth))
			}

			who, err := identityFromClaims(claims)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized: Invalid token", codeAuth))
			}

			//ログアウト済みか
			if denylist != nil {
				revoked, err := denylist.IsRevoked(c.Request().Context(), rawToken)
				if err != nil {
					c.Logger().Errorf("token denylist: %v", err)
					return c.JSON(http.StatusBadGateway, errorJSON("Failed to verify token", codeUpstream))
				}
				if revoked {
					return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized: Invalid token", codeAuth))
				}
			}

			//contextへ保存
			c.Set(CtxIdentityKey, who)
			c.Set(CtxTokenKey, rawToken)

			return next(c)
		}
	}
}

// cookie を優先、無ければ Authorization: Bearer
func extractToken(c echo.Context) string {
	if ck, err := c.Cookie(TokenCookieName); err == nil && strings.TrimSpace(ck.Value) != "" {
		return strings.TrimSpace(ck.Value)
	}

	authz := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func identityFromClaims(claims jwt.MapClaims) (model.Identity, error) {
	id, err := parseString(claims["id"])
	if err != nil || id == "" {
		return model.Identity{}, errors.New("invalid id")
	}
	role, err := parseString(claims["role"])
	if err != nil || role == "" {
		return model.Identity{}, errors.New("invalid role")
	}

	//username / email は無くてもよい
	username, _ := parseString(claims["username"])
	email, _ := parseString(claims["email"])

	return model.Identity{
		ID:       id,
		Username: username,
		Email:    email,
		Role:     model.Role(role),
	}, nil
}

func parseString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid string")
	}
	return s, nil
}

// IdentityFrom は AuthJWT が入れた呼び出し元を返す。
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	who, ok := c.Get(CtxIdentityKey).(model.Identity)
	return who, ok && who.ID != ""
}

func TokenFrom(c echo.Context) string {
	s, _ := c.Get(CtxTokenKey).(string)
	return s
}
