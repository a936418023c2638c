package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"goeats/internal/domain"
	"goeats/internal/remote"
	"goeats/internal/repository/state"
	"goeats/internal/service/auth"
	"goeats/internal/service/cart"
	"goeats/internal/service/order"
	"goeats/internal/service/session"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func logDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type stubAuth struct {
	user      *domain.User
	loginErr  error
	lastLogin auth.LoginInput
	logouts   int
}

func (s *stubAuth) Login(_ context.Context, in auth.LoginInput) (*domain.User, error) {
	s.lastLogin = in
	return s.user, s.loginErr
}

func (s *stubAuth) Register(_ context.Context, in auth.RegisterInput) (*domain.User, error) {
	return &domain.User{ID: "u2", Name: in.Name, Email: in.Email}, nil
}

func (s *stubAuth) Logout() error {
	s.logouts++
	return nil
}

type stubMenu struct {
	items     []domain.MenuItem
	lastQuery string
	addErr    error
	cart      *cart.Store
}

func (s *stubMenu) List(_ context.Context, query string) ([]domain.MenuItem, error) {
	s.lastQuery = query
	return s.items, nil
}

func (s *stubMenu) AddToCart(_ context.Context, menuItemID string, quantity int) (domain.LineItem, error) {
	if s.addErr != nil {
		return domain.LineItem{}, s.addErr
	}
	return s.cart.AddItem(cart.AddItemInput{
		MenuItemID: menuItemID,
		Name:       "Item " + menuItemID,
		UnitPrice:  decimal.RequireFromString("9.99"),
		Quantity:   quantity,
	})
}

func (s *stubMenu) Reviews(_ context.Context, menuItemID string) ([]domain.Review, error) {
	return []domain.Review{{ID: "r1", MenuID: menuItemID, Rating: 5}}, nil
}

type stubOrders struct {
	cart     *cart.Store
	placeErr error
	placed   *domain.Order
	listErr  error
}

func (s *stubOrders) Summary() (cart.Snapshot, order.Summary) {
	snap := s.cart.Snapshot()
	return snap, order.DefaultPricing().Summarize(snap.Subtotal)
}

func (s *stubOrders) Place(_ context.Context) (*domain.Order, error) {
	return s.placed, s.placeErr
}

func (s *stubOrders) List(_ context.Context) ([]domain.Order, error) {
	return nil, s.listErr
}

type fixture struct {
	router  *gin.Engine
	cart    *cart.Store
	session *session.Store
	auth    *stubAuth
	menu    *stubMenu
	orders  *stubOrders
}

func newFixture(t *testing.T, checks ...ReadinessCheck) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := state.NewMemory(0)
	c, err := cart.New(repo, logDiscard())
	if err != nil {
		t.Fatalf("cart.New: %v", err)
	}
	sess, err := session.New(repo, logDiscard())
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	f := &fixture{
		cart:    c,
		session: sess,
		auth:    &stubAuth{},
		menu:    &stubMenu{cart: c},
		orders:  &stubOrders{cart: c},
	}
	f.router = buildRouter(logDiscard(), Deps{
		Cart:    c,
		Session: sess,
		Auth:    f.auth,
		Menu:    f.menu,
		Orders:  f.orders,
		Ready:   checks,
	}, []string{"http://localhost:5173"})
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	ok := ReadinessCheck{Name: "storage", Check: func(context.Context) error { return nil }}
	down := ReadinessCheck{Name: "remote", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}

	if rec := newFixture(t, ok).do(http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	rec := newFixture(t, ok, down).do(http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "remote not reachable") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}

func TestMenuPassesQuery(t *testing.T) {
	f := newFixture(t)
	f.menu.items = []domain.MenuItem{{ID: "1", Name: "Burger"}}
	rec := f.do(http.MethodGet, "/api/menu?q=burg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if f.menu.lastQuery != "burg" || !strings.Contains(rec.Body.String(), `"Burger"`) {
		t.Fatalf("unexpected query %q body %s", f.menu.lastQuery, rec.Body.String())
	}
}

func TestAddCartItemDefaultsQuantity(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/cart/items", `{"menu_id":"7"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if f.cart.TotalItemCount() != 1 {
		t.Fatalf("expected one item in cart, got %d", f.cart.TotalItemCount())
	}
	if !strings.Contains(rec.Body.String(), `"totalItems":1`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAddCartItemRequiresLogin(t *testing.T) {
	f := newFixture(t)
	f.menu.addErr = domain.ErrLoginRequired
	rec := f.do(http.MethodPost, "/api/cart/items", `{"menu_id":"7","quantity":2}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Please login to continue.") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUpdateAndRemoveCartItem(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/cart/items", `{"menu_id":"7"}`)

	rec := f.do(http.MethodPatch, "/api/cart/items/7", `{"quantity":4}`)
	if rec.Code != http.StatusOK || f.cart.TotalItemCount() != 4 {
		t.Fatalf("expected quantity 4, got %d (status %d)", f.cart.TotalItemCount(), rec.Code)
	}

	rec = f.do(http.MethodPatch, "/api/cart/items/7", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing quantity, got %d", rec.Code)
	}

	rec = f.do(http.MethodPatch, "/api/cart/items/7", `{"quantity":0}`)
	if rec.Code != http.StatusOK || f.cart.Len() != 0 {
		t.Fatalf("quantity 0 must remove the line, got %d lines", f.cart.Len())
	}

	rec = f.do(http.MethodDelete, "/api/cart/items/missing", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("removing an absent item must succeed, got %d", rec.Code)
	}
}

func TestGetCartIncludesSummary(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/cart/items", `{"menu_id":"1","quantity":2}`)

	rec := f.do(http.MethodGet, "/api/cart", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"subtotal":"19.98"`) || !strings.Contains(body, `"deliveryFee":"2.99"`) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/cart/items", `{"menu_id":"1"}`)
	rec := f.do(http.MethodDelete, "/api/cart", "")
	if rec.Code != http.StatusNoContent || f.cart.Len() != 0 {
		t.Fatalf("expected empty cart and 204, got %d lines status %d", f.cart.Len(), rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/session", "")
	if !strings.Contains(rec.Body.String(), `"authenticated":false`) {
		t.Fatalf("expected anonymous session, got %s", rec.Body.String())
	}

	if err := f.session.Login("tok", domain.User{ID: "u1", Name: "Ann", Email: "ann@example.com"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	rec = f.do(http.MethodGet, "/api/session", "")
	if !strings.Contains(rec.Body.String(), `"authenticated":true`) || !strings.Contains(rec.Body.String(), `"ann@example.com"`) {
		t.Fatalf("expected authenticated session, got %s", rec.Body.String())
	}

	rec = f.do(http.MethodDelete, "/api/session", "")
	if rec.Code != http.StatusNoContent || f.auth.logouts != 1 {
		t.Fatalf("expected logout, got status %d logouts %d", rec.Code, f.auth.logouts)
	}
}

func TestLoginHandler(t *testing.T) {
	f := newFixture(t)
	f.auth.user = &domain.User{ID: "u1", Email: "ann@example.com"}
	rec := f.do(http.MethodPost, "/api/session/login", `{"email":"ann@example.com","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if f.auth.lastLogin.Email != "ann@example.com" || f.auth.lastLogin.Password != "pw" {
		t.Fatalf("unexpected login input %+v", f.auth.lastLogin)
	}

	f.auth.loginErr = auth.ErrInvalidCredentials
	rec = f.do(http.MethodPost, "/api/session/login", `{"email":"ann@example.com","password":"bad"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	f.auth.loginErr = domain.ErrStale
	rec = f.do(http.MethodPost, "/api/session/login", `{"email":"ann@example.com","password":"pw"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRegisterHandler(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/session/register", `{"name":"Ann","email":"ann@example.com","password":"pw"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if f.session.IsAuthenticated() {
		t.Fatalf("register must not log the user in")
	}
}

func TestPlaceOrderErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "login", err: domain.ErrLoginRequired, want: http.StatusUnauthorized},
		{name: "empty", err: order.ErrEmptyCart, want: http.StatusBadRequest},
		{name: "remote", err: &remote.StatusError{Method: "POST", Path: "/order/", Status: 500}, want: http.StatusBadGateway},
		{name: "unavailable", err: remote.ErrUnavailable, want: http.StatusBadGateway},
		{name: "quota", err: state.ErrQuotaExceeded, want: http.StatusInsufficientStorage},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.orders.placeErr = tc.err
			rec := f.do(http.MethodPost, "/api/orders", "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestPlaceOrderCreated(t *testing.T) {
	f := newFixture(t)
	f.orders.placed = &domain.Order{ID: "o1", Status: domain.OrderPending}
	rec := f.do(http.MethodPost, "/api/orders", "")
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"o1"`) {
		t.Fatalf("expected 201 with order, got %d body=%s", rec.Code, rec.Body.String())
	}

	f.orders.placeErr = order.ErrCartNotCleared
	rec = f.do(http.MethodPost, "/api/orders", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("an accepted order must report 201 even if the cart was kept, got %d", rec.Code)
	}
}

func TestListOrdersStale(t *testing.T) {
	f := newFixture(t)
	f.orders.listErr = domain.ErrStale
	rec := f.do(http.MethodGet, "/api/orders", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestReviews(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/menu/5/reviews", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"menu_id":"5"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
