package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/colors"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string, uuid.UUID) (bool, error) {
	return true, nil
}

// stubUsers resolves principals from an in-memory table so tests can flip
// the admin flag independently of the token.
type stubUsers struct {
	users.Service
	principals map[uuid.UUID]*users.Principal
}

func (s stubUsers) Principal(_ context.Context, id uuid.UUID) (*users.Principal, error) {
	if p, ok := s.principals[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

type stubAuth struct {
	auth.Service
	revoked []string
}

func (s *stubAuth) Logout(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubProducts struct {
	products.Service
}

func (stubProducts) ListProducts(_ context.Context, page pagination.Params, _ products.ListFilters) (types.PageEnvelope[products.ProductDTO], error) {
	return pagination.NewPage([]products.ProductDTO{}, page, 0), nil
}

type stubColors struct {
	colors.Service
}

func (stubColors) List(_ context.Context, page pagination.Params) (types.PageEnvelope[colors.ColorDTO], error) {
	return pagination.NewPage([]colors.ColorDTO{}, page, 0), nil
}

type testEnv struct {
	cfg        *config.Config
	router     http.Handler
	auth       *stubAuth
	principals map[uuid.UUID]*users.Principal
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "storefront",
			ExpirationMinutes: 60,
		},
		Catalog: config.CatalogConfig{SpecialListLimit: 10},
	}
}

func newTestRouter(cfg *config.Config) testEnv {
	env := testEnv{
		cfg:        cfg,
		auth:       &stubAuth{},
		principals: map[uuid.UUID]*users.Principal{},
	}
	reg := prometheus.NewRegistry()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	env.router = NewRouter(Dependencies{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Sessions: stubSessions{},
		Gatherer: reg,
		Metrics:  metrics.NewHTTPMetrics(reg),
		Auth:     env.auth,
		Users:    stubUsers{principals: env.principals},
		Products: stubProducts{},
		Colors:   stubColors{},
	})
	return env
}

// buildToken registers a live principal and returns a bearer token for it.
func (e testEnv) buildToken(t *testing.T, isAdmin bool) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	e.principals[userID] = &users.Principal{ID: userID, Email: "user@example.com", IsActive: true, IsAdmin: isAdmin}
	token, _, err := pkgAuth.MintAccessToken(e.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  "user@example.com",
		Role:   pkgAuth.RoleFor(isAdmin),
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, userID
}

func (e testEnv) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestRouter(testConfig())
	if resp := env.do(http.MethodGet, "/health/live", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live got %d", resp.Code)
	}
	if resp := env.do(http.MethodGet, "/health/ready", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ready got %d", resp.Code)
	}
}

func TestMetricsEndpointExposesRequestCounters(t *testing.T) {
	env := newTestRouter(testConfig())
	env.do(http.MethodGet, "/api/v1/products", "")

	resp := env.do(http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `route="/api/v1/products/"`) &&
		!strings.Contains(resp.Body.String(), `route="/api/v1/products"`) {
		t.Fatalf("expected product route in metrics output")
	}
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	env := newTestRouter(testConfig())
	if resp := env.do(http.MethodGet, "/api/v1/products", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	env := newTestRouter(testConfig())
	for _, path := range []string{"/api/v1/cart", "/api/v1/users/profile", "/api/v1/orders", "/api/v1/addresses"} {
		if resp := env.do(http.MethodGet, path, ""); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token got %d", path, resp.Code)
		}
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	env := newTestRouter(testConfig())

	customer, _ := env.buildToken(t, false)
	if resp := env.do(http.MethodGet, "/api/v1/admin/colors", customer); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	admin, _ := env.buildToken(t, true)
	if resp := env.do(http.MethodGet, "/api/v1/admin/colors", admin); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestDemotedAdminLosesAccessImmediately(t *testing.T) {
	env := newTestRouter(testConfig())
	token, userID := env.buildToken(t, true)
	env.principals[userID].IsAdmin = false

	if resp := env.do(http.MethodGet, "/api/v1/admin/colors", token); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after demotion got %d", resp.Code)
	}
}

func TestDeactivatedUserIsRejected(t *testing.T) {
	env := newTestRouter(testConfig())
	token, userID := env.buildToken(t, false)
	env.principals[userID].IsActive = false

	if resp := env.do(http.MethodGet, "/api/v1/cart", token); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deactivated user got %d", resp.Code)
	}
}

func TestLogoutRevokesPresentedSession(t *testing.T) {
	env := newTestRouter(testConfig())
	if resp := env.do(http.MethodPost, "/api/v1/auth/logout", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	token, _ := env.buildToken(t, false)
	if resp := env.do(http.MethodPost, "/api/v1/auth/logout", token); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(env.auth.revoked) != 1 || env.auth.revoked[0] == "" {
		t.Fatalf("expected one revoked session, got %v", env.auth.revoked)
	}
}

func TestAdminRegistrationHiddenInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = config.AppEnvProd
	env := newTestRouter(cfg)

	resp := env.do(http.MethodPost, "/api/v1/admin/auth/register", "")
	if resp.Code != http.StatusNotFound && resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected admin registration to be unrouted in prod, got %d", resp.Code)
	}
}
