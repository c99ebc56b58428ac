package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecorder/internal/config"
	"ecorder/internal/domain/model"
	"ecorder/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// =====================
// helper
// =====================

type mwErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type mwOKResponse struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type DenylistMock struct{ mock.Mock }

func (m *DenylistMock) IsRevoked(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func mustMakeJWT(t *testing.T, secret string, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func userClaims(id string, role string) jwt.MapClaims {
	return jwt.MapClaims{
		"id":       id,
		"username": "asha",
		"email":    "asha@example.com",
		"role":     role,
		"iat":      1,
		"exp":      9999999999,
	}
}

func newEcho(denylist middleware.TokenDenylist, guards ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	mws := append([]echo.MiddlewareFunc{middleware.AuthJWT(config.Config{JWTSecret: testSecret}, denylist)}, guards...)
	e.GET("/protected", func(c echo.Context) error {
		who, _ := middleware.IdentityFrom(c)
		return c.JSON(http.StatusOK, mwOKResponse{
			ID:    who.ID,
			Role:  string(who.Role),
			Email: who.Email,
			Token: middleware.TokenFrom(c),
		})
	}, mws...)
	return e
}

func run(e *echo.Echo, authHeader string, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) mwErrorResponse {
	t.Helper()
	var r mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r
}

// =====================
// AuthJWT
// =====================

// トークンなし => 401
func TestAuthJWT_NoToken(t *testing.T) {
	rec := run(newEcho(nil), "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, "Unauthorized: No token provided", body.Message)
	assert.Equal(t, "AUTH_ERROR", body.Code)
}

// Bearer形式じゃない => 401
func TestAuthJWT_BadScheme(t *testing.T) {
	rec := run(newEcho(nil), "Token abc.def.ghi", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// 署名違い => 401
func TestAuthJWT_BadSignature(t *testing.T) {
	raw := mustMakeJWT(t, "wrong-secret", userClaims("u1", "user"), jwt.SigningMethodHS256)

	rec := run(newEcho(nil), "Bearer "+raw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized: Invalid token", decodeError(t, rec).Message)
}

// アルゴリズム違い（HS512）=> 401
func TestAuthJWT_WrongAlg(t *testing.T) {
	raw := mustMakeJWT(t, testSecret, userClaims("u1", "user"), jwt.SigningMethodHS512)

	rec := run(newEcho(nil), "Bearer "+raw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// 期限切れ => 401
func TestAuthJWT_Expired(t *testing.T) {
	claims := userClaims("u1", "user")
	claims["exp"] = 1
	raw := mustMakeJWT(t, testSecret, claims, jwt.SigningMethodHS256)

	rec := run(newEcho(nil), "Bearer "+raw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// idが無い => 401
func TestAuthJWT_MissingID(t *testing.T) {
	claims := userClaims("", "user")
	delete(claims, "id")
	raw := mustMakeJWT(t, testSecret, claims, jwt.SigningMethodHS256)

	rec := run(newEcho(nil), "Bearer "+raw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// 正常：ctxに値が入る
func TestAuthJWT_Bearer_SetsContext(t *testing.T) {
	raw := mustMakeJWT(t, testSecret, userClaims("u1", "user"), jwt.SigningMethodHS256)

	rec := run(newEcho(nil), "Bearer "+raw, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "u1", body.ID)
	assert.Equal(t, "user", body.Role)
	assert.Equal(t, "asha@example.com", body.Email)
	assert.Equal(t, raw, body.Token)
}

// cookieがBearerより優先
func TestAuthJWT_CookieWins(t *testing.T) {
	cookieTok := mustMakeJWT(t, testSecret, userClaims("from-cookie", "user"), jwt.SigningMethodHS256)
	headerTok := mustMakeJWT(t, testSecret, userClaims("from-header", "user"), jwt.SigningMethodHS256)

	rec := run(newEcho(nil), "Bearer "+headerTok, cookieTok)
	require.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "from-cookie", body.ID)
	assert.Equal(t, cookieTok, body.Token)
}

// =====================
// Denylist
// =====================

func TestAuthJWT_RevokedToken(t *testing.T) {
	raw := mustMakeJWT(t, testSecret, userClaims("u1", "user"), jwt.SigningMethodHS256)

	denylist := new(DenylistMock)
	denylist.On("IsRevoked", mock.Anything, raw).Return(true, nil).Once()

	rec := run(newEcho(denylist), "Bearer "+raw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	denylist.AssertExpectations(t)
}

func TestAuthJWT_DenylistUnavailable(t *testing.T) {
	raw := mustMakeJWT(t, testSecret, userClaims("u1", "user"), jwt.SigningMethodHS256)

	denylist := new(DenylistMock)
	denylist.On("IsRevoked", mock.Anything, raw).Return(false, errors.New("redis down")).Once()

	rec := run(newEcho(denylist), "Bearer "+raw, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "UPSTREAM_ERROR", decodeError(t, rec).Code)
}

// =====================
// RequireRoles
// =====================

func TestRequireRoles(t *testing.T) {
	e := newEcho(nil, middleware.RequireRoles(model.RoleUser, model.RoleSeller))

	cases := []struct {
		role string
		want int
	}{
		{"user", http.StatusOK},
		{"seller", http.StatusOK},
		{"admin", http.StatusForbidden},
		{"guest", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			raw := mustMakeJWT(t, testSecret, userClaims("u1", tc.role), jwt.SigningMethodHS256)
			rec := run(e, "Bearer "+raw, "")
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusForbidden {
				body := decodeError(t, rec)
				assert.Equal(t, "Forbidden: Insufficient permissions", body.Message)
				assert.Equal(t, "FORBIDDEN", body.Code)
			}
		})
	}
}

func TestRequireRoles_WithoutAuth(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, middleware.RequireRoles(model.RoleUser))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
