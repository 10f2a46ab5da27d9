package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/pkg/tokens"
	"github.com/Skotchmaster/marketplace/services/user/internal/models"
	"github.com/Skotchmaster/marketplace/services/user/internal/repo"
	"github.com/Skotchmaster/marketplace/services/user/internal/service"
)

func newTestHandler(t *testing.T) *AuthHTTP {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Credential{}, &models.OutboxMessage{}))

	return &AuthHTTP{
		Svc: &service.SessionService{
			Repo:  &repo.GormRepo{DB: db},
			Codec: tokens.NewCodec([]byte("test-secret"), 15, 60),
		},
	}
}

func postJSON(e *echo.Echo, path string, payload any, cookies ...*http.Cookie) (*http.Request, *httptest.ResponseRecorder, echo.Context) {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return req, rec, e.NewContext(req, rec)
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	res := http.Response{Header: rec.Header()}
	for _, ck := range res.Cookies() {
		if ck.Name == refreshCookieName {
			return ck
		}
	}
	t.Fatal("refresh cookie not set")
	return nil
}

func TestAuthHTTP_Register(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	payload := map[string]string{
		"name":     "test user",
		"email":    "test@example.com",
		"password": "Secret123",
	}

	_, rec, c := postJSON(e, "/auth/register", payload)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["id"])
	assert.NotEmpty(t, resp["access_token"])
	refreshCookieFrom(t, rec)

	// Same email again must be a 400.
	_, _, c2 := postJSON(e, "/auth/register", payload)
	err := h.Register(c2)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestAuthHTTP_LoginAndRefreshRotation(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	_, regRec, regCtx := postJSON(e, "/auth/register", map[string]string{
		"name":     "test user",
		"email":    "login@example.com",
		"password": "Secret123",
	})
	require.NoError(t, h.Register(regCtx))
	require.Equal(t, http.StatusCreated, regRec.Code)

	_, loginRec, loginCtx := postJSON(e, "/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "Secret123",
	})
	require.NoError(t, h.Login(loginCtx))
	require.Equal(t, http.StatusOK, loginRec.Code)
	loginCookie := refreshCookieFrom(t, loginRec)

	_, refreshRec, refreshCtx := postJSON(e, "/auth/refresh", nil, loginCookie)
	require.NoError(t, h.Refresh(refreshCtx))
	require.Equal(t, http.StatusOK, refreshRec.Code)
	rotatedCookie := refreshCookieFrom(t, refreshRec)
	assert.NotEqual(t, loginCookie.Value, rotatedCookie.Value)

	// The pre-rotation token is dead.
	_, _, replayCtx := postJSON(e, "/auth/refresh", nil, loginCookie)
	err := h.Refresh(replayCtx)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestAuthHTTP_Login_WrongPassword(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	_, _, regCtx := postJSON(e, "/auth/register", map[string]string{
		"name":     "test user",
		"email":    "wrongpw@example.com",
		"password": "Secret123",
	})
	require.NoError(t, h.Register(regCtx))

	_, _, loginCtx := postJSON(e, "/auth/login", map[string]string{
		"email":    "wrongpw@example.com",
		"password": "bad-password",
	})
	err := h.Login(loginCtx)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestAuthHTTP_Logout_RevokesAndClearsCookies(t *testing.T) {
	h := newTestHandler(t)
	e := echo.New()

	_, regRec, regCtx := postJSON(e, "/auth/register", map[string]string{
		"name":     "test user",
		"email":    "logout@example.com",
		"password": "Secret123",
	})
	require.NoError(t, h.Register(regCtx))
	refreshCookie := refreshCookieFrom(t, regRec)

	_, logoutRec, logoutCtx := postJSON(e, "/auth/logout", nil, refreshCookie)
	require.NoError(t, h.Logout(logoutCtx))
	require.Equal(t, http.StatusNoContent, logoutRec.Code)

	// The revoked token can no longer refresh.
	_, _, refreshCtx := postJSON(e, "/auth/refresh", nil, refreshCookie)
	err := h.Refresh(refreshCtx)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}
