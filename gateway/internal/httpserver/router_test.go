package httpserver

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

func newGateway(t *testing.T, secret []byte) (*echo.Echo, *[]string, *[]string) {
	t.Helper()

	var userPaths, catalogPaths []string

	userBackend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userPaths = append(userPaths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(userBackend.Close)

	catalogBackend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		catalogPaths = append(catalogPaths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(catalogBackend.Close)

	e := echo.New()
	require.NoError(t, Register(e, &Deps{
		UserURL:    userBackend.URL,
		CatalogURL: catalogBackend.URL,
		JWTSecret:  secret,
		Logger:     slog.Default(),
	}))
	return e, &userPaths, &catalogPaths
}

func accessCookie(t *testing.T, secret []byte) *http.Cookie {
	t.Helper()

	codec := tokens.NewCodec(secret, 15, 60)
	raw, _, err := codec.IssueAccessToken(uuid.New(), "test", "test@example.com", "user")
	require.NoError(t, err)
	return &http.Cookie{Name: "accessToken", Value: raw}
}

func TestGateway_AuthRoutesForwardToUserService(t *testing.T) {
	secret := []byte("gateway-secret")
	e, userPaths, _ := newGateway(t, secret)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, *userPaths, 1)
	// The /api/v1 prefix is stripped before the backend sees the path.
	assert.Equal(t, "POST /auth/login", (*userPaths)[0])
}

func TestGateway_PublicProductRead(t *testing.T) {
	secret := []byte("gateway-secret")
	e, _, catalogPaths := newGateway(t, secret)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, *catalogPaths, 1)
	assert.Equal(t, "GET /products/"+id, (*catalogPaths)[0])
}

func TestGateway_MutationsRequireToken(t *testing.T) {
	secret := []byte("gateway-secret")
	e, _, catalogPaths := newGateway(t, secret)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, *catalogPaths)

	authed := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
	authed.AddCookie(accessCookie(t, secret))
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, authed)

	require.Equal(t, http.StatusOK, rec2.Code)
	require.Len(t, *catalogPaths, 1)
	assert.Equal(t, "POST /products", (*catalogPaths)[0])
}

func TestGateway_ForgedTokenRejected(t *testing.T) {
	e, _, catalogPaths := newGateway(t, []byte("gateway-secret"))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+uuid.NewString(), nil)
	req.AddCookie(accessCookie(t, []byte("some-other-secret")))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, *catalogPaths)
}

func TestGateway_AvailabilityEndpointHidden(t *testing.T) {
	secret := []byte("gateway-secret")
	e, _, catalogPaths := newGateway(t, secret)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/products/availability", nil)
	req.AddCookie(accessCookie(t, secret))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, *catalogPaths)
}
