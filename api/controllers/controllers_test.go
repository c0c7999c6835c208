package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func withActor(req *http.Request, actor pkgauth.Actor) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), actor, "access-1"))
}

// serveRoute routes the request through chi so URL params resolve.
func serveRoute(method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope
}

type stubAuth struct {
	auth.Service
	registered auth.RegisterRequest
	loggedOut  string
}

func (s *stubAuth) Register(_ context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	s.registered = req
	return &auth.AuthResponse{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubAuth) Logout(_ context.Context, accessID string) error {
	s.loggedOut = accessID
	return nil
}

func TestAuthRegisterReturnsToken(t *testing.T) {
	svc := &stubAuth{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"fullName":"Ada","email":"ada@example.com","password":"Secret123!"}`))
	resp := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if resp.Header().Get(tokenHeader) != "tok" {
		t.Fatalf("expected token header, got %q", resp.Header().Get(tokenHeader))
	}
	if svc.registered.Email != "ada@example.com" {
		t.Fatalf("unexpected request passed through: %+v", svc.registered)
	}
}

func TestAuthRegisterRejectsInvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"email":"nope"}`))
	resp := httptest.NewRecorder()
	AuthRegister(&stubAuth{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if env := decodeError(t, resp); env.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", env.Error.Code)
	}
}

func TestAuthLogoutRevokesContextSession(t *testing.T) {
	svc := &stubAuth{}
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), pkgauth.Actor{UserID: uuid.New()})
	resp := httptest.NewRecorder()
	AuthLogout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.loggedOut != "access-1" {
		t.Fatalf("expected access-1 revoked, got %q", svc.loggedOut)
	}
}

func TestNilServiceIsInternalError(t *testing.T) {
	resp := httptest.NewRecorder()
	AuthLogin(nil, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

type stubUsers struct {
	users.Service
}

func (stubUsers) GetProfile(_ context.Context, actor pkgauth.Actor) (*users.UserDTO, error) {
	return &users.UserDTO{ID: actor.UserID}, nil
}

func TestProfileRequiresActor(t *testing.T) {
	resp := httptest.NewRecorder()
	ProfileGet(stubUsers{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	id := uuid.New()
	resp = httptest.NewRecorder()
	ProfileGet(stubUsers{}, nil).ServeHTTP(resp, withActor(httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil), pkgauth.Actor{UserID: id}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data users.UserDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.ID != id {
		t.Fatalf("unexpected profile id %s", envelope.Data.ID)
	}
}

type stubCart struct {
	cart.Service
	productID uuid.UUID
	quantity  int
}

func (s *stubCart) UpdateQuantity(_ context.Context, _ pkgauth.Actor, productID uuid.UUID, quantity int) (*cart.ItemDTO, error) {
	s.productID = productID
	s.quantity = quantity
	return &cart.ItemDTO{Quantity: quantity}, nil
}

func TestCartUpdateQuantityReadsPathAndBody(t *testing.T) {
	svc := &stubCart{}
	productID := uuid.New()
	req := withActor(httptest.NewRequest(http.MethodPut, "/cart/"+productID.String(), strings.NewReader(`{"quantity":3}`)), pkgauth.Actor{UserID: uuid.New()})
	resp := serveRoute(http.MethodPut, "/cart/{productId}", CartUpdateQuantity(svc, nil), req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.productID != productID || svc.quantity != 3 {
		t.Fatalf("unexpected call: %s x%d", svc.productID, svc.quantity)
	}

	req = withActor(httptest.NewRequest(http.MethodPut, "/cart/not-a-uuid", strings.NewReader(`{"quantity":3}`)), pkgauth.Actor{UserID: uuid.New()})
	if resp := serveRoute(http.MethodPut, "/cart/{productId}", CartUpdateQuantity(svc, nil), req); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id got %d", resp.Code)
	}
}

type stubOrders struct {
	orders.Service
	createErr error
	status    *enums.OrderStatus
}

func (s *stubOrders) CreateOrder(_ context.Context, actor pkgauth.Actor, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &orders.OrderDTO{ID: uuid.New(), UserID: actor.UserID}, nil
}

func (s *stubOrders) ListAllOrders(_ context.Context, page pagination.Params, status *enums.OrderStatus) (types.PageEnvelope[orders.OrderDTO], error) {
	s.status = status
	return pagination.NewPage([]orders.OrderDTO{}, page, 0), nil
}

func orderBody() string {
	return `{"addressId":"` + uuid.NewString() + `","paymentMethod":"COD","items":[{"productId":"` + uuid.NewString() + `","quantity":2}]}`
}

func TestOrderCreate(t *testing.T) {
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(orderBody())), pkgauth.Actor{UserID: uuid.New()})
	resp := httptest.NewRecorder()
	OrderCreate(&stubOrders{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	req = withActor(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"items":[]}`)), pkgauth.Actor{UserID: uuid.New()})
	resp = httptest.NewRecorder()
	OrderCreate(&stubOrders{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	stock := pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
	req = withActor(httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(orderBody())), pkgauth.Actor{UserID: uuid.New()})
	resp = httptest.NewRecorder()
	OrderCreate(&stubOrders{createErr: stock}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if env := decodeError(t, resp); env.Error.Message != "insufficient stock" {
		t.Fatalf("unexpected message %q", env.Error.Message)
	}
}

func TestAdminOrderListParsesStatus(t *testing.T) {
	svc := &stubOrders{}
	resp := httptest.NewRecorder()
	AdminOrderList(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=shipped", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.status == nil || *svc.status != enums.OrderStatusShipped {
		t.Fatalf("expected SHIPPED filter, got %v", svc.status)
	}

	resp = httptest.NewRecorder()
	AdminOrderList(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=lost", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

type stubProducts struct {
	products.Service
	filters        products.ListFilters
	variantFilters products.VariantFilters
	query          string
}

func (s *stubProducts) ListProducts(_ context.Context, page pagination.Params, filters products.ListFilters) (types.PageEnvelope[products.ProductDTO], error) {
	s.filters = filters
	return pagination.NewPage([]products.ProductDTO{}, page, 0), nil
}

func (s *stubProducts) Search(_ context.Context, query string, _ int) ([]products.ProductDTO, error) {
	s.query = query
	return []products.ProductDTO{}, nil
}

func (s *stubProducts) ListVariants(_ context.Context, _ uuid.UUID, filters products.VariantFilters) ([]products.VariantDTO, error) {
	s.variantFilters = filters
	return []products.VariantDTO{}, nil
}

func TestProductListFilters(t *testing.T) {
	svc := &stubProducts{}
	resp := httptest.NewRecorder()
	ProductList(svc, false, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/products?isFeatured=true&minPrice=10&includeInactive=true", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.filters.IncludeInactive {
		t.Fatal("public listing must not include inactive products")
	}
	if svc.filters.IsFeatured == nil || !*svc.filters.IsFeatured || svc.filters.MinPrice == nil {
		t.Fatalf("filters not parsed: %+v", svc.filters)
	}

	resp = httptest.NewRecorder()
	ProductList(svc, true, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/admin/products", nil))
	if resp.Code != http.StatusOK || !svc.filters.IncludeInactive {
		t.Fatalf("admin listing should include inactive products, got %d %+v", resp.Code, svc.filters)
	}

	resp = httptest.NewRecorder()
	ProductList(svc, false, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/products?maxPrice=-4", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductSearchRequiresQuery(t *testing.T) {
	svc := &stubProducts{}
	resp := httptest.NewRecorder()
	ProductSearch(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/products/search?q=%20%20", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	ProductSearch(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/products/search?q=+linen+", nil))
	if resp.Code != http.StatusOK || svc.query != "linen" {
		t.Fatalf("expected trimmed query, got %d %q", resp.Code, svc.query)
	}
}

func TestPublicVariantListOnlyShowsActive(t *testing.T) {
	svc := &stubProducts{}
	productID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/products/"+productID.String()+"/variants?isActive=false&color=Red", nil)
	resp := serveRoute(http.MethodGet, "/products/{productId}/variants", VariantList(svc, false, nil), req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.variantFilters.IsActive == nil || !*svc.variantFilters.IsActive {
		t.Fatal("public variant listing must force active")
	}
	if svc.variantFilters.Color == nil || *svc.variantFilters.Color != "Red" {
		t.Fatalf("color filter lost: %+v", svc.variantFilters)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": up, "redis": up, "skipped": nil}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": up, "redis": down}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "connection refused") {
		t.Fatal("dependency cause leaked to client")
	}
}
