package httptransport

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"foodtrust/internal/domain"
	"foodtrust/internal/platform/metrics"
	"foodtrust/internal/platform/middleware"
	"foodtrust/internal/registry"
	"foodtrust/internal/transport/http/mocks"
	dErrors "foodtrust/pkg/domain-errors"
	"foodtrust/pkg/testutil"
)

// allowValidator accepts any token and reports a fixed manufacturer identity.
type allowValidator struct{}

func (allowValidator) ValidateToken(string) (*middleware.TokenClaims, error) {
	return &middleware.TokenClaims{ManufacturerID: "acme"}, nil
}

// denyValidator rejects every token.
type denyValidator struct{}

func (denyValidator) ValidateToken(string) (*middleware.TokenClaims, error) {
	return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
}

type routerFixture struct {
	registry    *mocks.MockRegistryService
	credentials *mocks.MockCredentialVerifier
	tokens      *mocks.MockTokenIssuer
	router      http.Handler
}

func newRouterFixture(t *testing.T, validator middleware.TokenValidator) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &routerFixture{
		registry:    mocks.NewMockRegistryService(ctrl),
		credentials: mocks.NewMockCredentialVerifier(ctrl),
		tokens:      mocks.NewMockTokenIssuer(ctrl),
	}
	logger := slog.New(slog.DiscardHandler)
	handler := NewHandler(f.registry, f.credentials, f.tokens, logger)
	f.router = NewRouter(handler, logger, &metrics.Metrics{}, validator)
	return f
}

func honeyRecord() domain.ProductRecord {
	return domain.ProductRecord{
		ID:             "P100",
		Name:           "Organic Honey",
		Ingredients:    "honey, water",
		Manufacturer:   "ACME Foods",
		ManufacturedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		RegisteredAt:   time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandleRegister_HappyPath(t *testing.T) {
	f := newRouterFixture(t, allowValidator{})

	f.registry.EXPECT().
		Register(gomock.Any(), registry.RegisterInput{
			ProductID:      "P100",
			Name:           "Organic Honey",
			Ingredients:    "honey, water",
			Manufacturer:   "ACME Foods",
			ManufacturedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		}).
		Return(honeyRecord(), nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/products", RegisterProductRequest{
		ProductID:      "P100",
		Name:           "Organic Honey",
		Ingredients:    "honey, water",
		Manufacturer:   "ACME Foods",
		ManufacturedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	req.Header.Set("Authorization", "Bearer token")

	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp ProductResponse
	testutil.DecodeJSON(t, rr, &resp)
	assert.Equal(t, "P100", resp.ProductID)
	assert.Equal(t, "Organic Honey", resp.Name)
	assert.Equal(t, "ACME Foods", resp.Manufacturer)
}

func TestHandleRegister_Duplicate(t *testing.T) {
	f := newRouterFixture(t, allowValidator{})

	f.registry.EXPECT().
		Register(gomock.Any(), gomock.Any()).
		Return(domain.ProductRecord{}, dErrors.New(dErrors.CodeAlreadyRegistered, "product already registered"))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/products", RegisterProductRequest{ProductID: "P100"})
	req.Header.Set("Authorization", "Bearer token")

	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already_registered")
}

func TestHandleRegister_RequiresToken(t *testing.T) {
	f := newRouterFixture(t, denyValidator{})
	// No registry expectation: the middleware must reject before the handler.

	req := testutil.NewJSONRequest(t, http.MethodPost, "/products", RegisterProductRequest{ProductID: "P100"})
	req.Header.Set("Authorization", "Bearer bad-token")

	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleRegister_InvalidBody(t *testing.T) {
	f := newRouterFixture(t, allowValidator{})

	req := testutil.NewRequest(t, http.MethodPost, "/products")
	req.Header.Set("Authorization", "Bearer token")

	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid_input")
}

func TestHandleVerify_Found(t *testing.T) {
	f := newRouterFixture(t, allowValidator{})

	f.registry.EXPECT().
		Verify(gomock.Any(), "P100").
		Return(honeyRecord(), nil)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/products/P100"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ProductResponse
	testutil.DecodeJSON(t, rr, &resp)
	assert.Equal(t, "honey, water", resp.Ingredients)
}

func TestHandleVerify_NotFound(t *testing.T) {
	f := newRouterFixture(t, allowValidator{})

	f.registry.EXPECT().
		Verify(gomock.Any(), "P999").
		Return(domain.ProductRecord{}, dErrors.New(dErrors.CodeNotFound, "product not registered"))

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/products/P999"))

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "not_found")
}

func TestHandleIsAuthentic(t *testing.T) {
	f := newRouterFixture(t, allowValidator{})

	f.registry.EXPECT().
		IsAuthentic(gomock.Any(), "P999").
		Return(false, nil)

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/products/P999/authentic"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp AuthenticResponse
	testutil.DecodeJSON(t, rr, &resp)
	assert.Equal(t, "P999", resp.ProductID)
	assert.False(t, resp.Authentic)
}

func TestHandleToken(t *testing.T) {
	t.Run("issues token for valid credentials", func(t *testing.T) {
		f := newRouterFixture(t, allowValidator{})

		f.credentials.EXPECT().Verify("acme", "s3cret").Return(nil)
		f.tokens.EXPECT().IssueToken("acme").Return("signed-token", nil)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/token", TokenRequest{
			ManufacturerID: "acme",
			Secret:         "s3cret",
		})
		rr := testutil.DoRequest(f.router, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp TokenResponse
		testutil.DecodeJSON(t, rr, &resp)
		assert.Equal(t, "signed-token", resp.AccessToken)
		assert.Equal(t, "Bearer", resp.TokenType)
	})

	t.Run("rejects bad credentials", func(t *testing.T) {
		f := newRouterFixture(t, allowValidator{})

		f.credentials.EXPECT().
			Verify("acme", "wrong").
			Return(dErrors.New(dErrors.CodeUnauthorized, "invalid manufacturer credentials"))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/token", TokenRequest{
			ManufacturerID: "acme",
			Secret:         "wrong",
		})
		rr := testutil.DoRequest(f.router, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestHandleHealth(t *testing.T) {
	f := newRouterFixture(t, allowValidator{})

	rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}
