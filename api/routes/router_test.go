package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/omarbakri/familysouq-backend/internal/cart"
	"github.com/omarbakri/familysouq-backend/internal/catalog"
	checkoutsvc "github.com/omarbakri/familysouq-backend/internal/checkout"
	"github.com/omarbakri/familysouq-backend/internal/orders"
	pkgauth "github.com/omarbakri/familysouq-backend/pkg/auth"
	"github.com/omarbakri/familysouq-backend/pkg/config"
	"github.com/omarbakri/familysouq-backend/pkg/db/models"
	"github.com/omarbakri/familysouq-backend/pkg/enums"
	"github.com/omarbakri/familysouq-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct {
	list   func(ctx context.Context, query catalog.ListQuery) (*catalog.ListResult, error)
	update func(ctx context.Context, actor catalog.Actor, id uuid.UUID, input catalog.UpdateProductInput) (*models.Product, error)
}

// List implements [catalog.Service].
func (s stubCatalogService) List(ctx context.Context, query catalog.ListQuery) (*catalog.ListResult, error) {
	if s.list != nil {
		return s.list(ctx, query)
	}
	panic("unimplemented")
}

// Get implements [catalog.Service].
func (s stubCatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

// Create implements [catalog.Service].
func (s stubCatalogService) Create(ctx context.Context, actor catalog.Actor, input catalog.CreateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

// Update implements [catalog.Service].
func (s stubCatalogService) Update(ctx context.Context, actor catalog.Actor, id uuid.UUID, input catalog.UpdateProductInput) (*models.Product, error) {
	if s.update != nil {
		return s.update(ctx, actor, id, input)
	}
	panic("unimplemented")
}

// Delete implements [catalog.Service].
func (s stubCatalogService) Delete(ctx context.Context, actor catalog.Actor, id uuid.UUID) error {
	panic("unimplemented")
}

type stubCartService struct {
	getCart func(ctx context.Context, userID uuid.UUID) (*cart.View, error)
}

// AddItem implements [cart.Service].
func (s stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.AddItemInput) (*models.CartItem, error) {
	panic("unimplemented")
}

// GetCart implements [cart.Service].
func (s stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
	if s.getCart != nil {
		return s.getCart(ctx, userID)
	}
	panic("unimplemented")
}

// GetFamilyCart implements [cart.Service].
func (s stubCartService) GetFamilyCart(ctx context.Context, userID, familyID uuid.UUID) (*cart.FamilyGroup, error) {
	panic("unimplemented")
}

// UpdateQuantity implements [cart.Service].
func (s stubCartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*models.CartItem, error) {
	panic("unimplemented")
}

// UpdateQuantities implements [cart.Service].
func (s stubCartService) UpdateQuantities(ctx context.Context, userID uuid.UUID, updates []cart.QuantityUpdate) (*cart.BatchUpdateResult, error) {
	panic("unimplemented")
}

// RemoveItem implements [cart.Service].
func (s stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	panic("unimplemented")
}

// Clear implements [cart.Service].
func (s stubCartService) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	panic("unimplemented")
}

// Count implements [cart.Service].
func (s stubCartService) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	panic("unimplemented")
}

type stubCheckoutService struct {
	execute func(ctx context.Context, userID uuid.UUID, input checkoutsvc.Input) (*models.UserOrder, *checkoutsvc.Summary, error)
}

// Execute implements [checkout.Service].
func (s stubCheckoutService) Execute(ctx context.Context, userID uuid.UUID, input checkoutsvc.Input) (*models.UserOrder, *checkoutsvc.Summary, error) {
	if s.execute != nil {
		return s.execute(ctx, userID, input)
	}
	panic("unimplemented")
}

type stubOrdersService struct {
	setStatus func(ctx context.Context, actor orders.Actor, familyOrderID uuid.UUID, input orders.SetStatusInput) (*models.FamilyOrder, error)
	listUser  func(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) ([]models.UserOrder, error)
}

// SetFamilyOrderStatus implements [orders.Service].
func (s stubOrdersService) SetFamilyOrderStatus(ctx context.Context, actor orders.Actor, familyOrderID uuid.UUID, input orders.SetStatusInput) (*models.FamilyOrder, error) {
	if s.setStatus != nil {
		return s.setStatus(ctx, actor, familyOrderID, input)
	}
	panic("unimplemented")
}

// ListUserOrders implements [orders.Service].
func (s stubOrdersService) ListUserOrders(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) ([]models.UserOrder, error) {
	if s.listUser != nil {
		return s.listUser(ctx, userID, status)
	}
	panic("unimplemented")
}

// ListFamilyOrders implements [orders.Service].
func (s stubOrdersService) ListFamilyOrders(ctx context.Context, actor orders.Actor, familyID uuid.UUID, status *enums.OrderStatus) ([]models.FamilyOrder, error) {
	panic("unimplemented")
}

// CountOrders implements [orders.Service].
func (s stubOrdersService) CountOrders(ctx context.Context, query orders.CountQuery) (int64, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
		Checkout: config.CheckoutConfig{
			IdempotencyTTL:         time.Hour,
			OrderNumberMaxAttempts: 5,
		},
	}
}

func newTestRouter(cfg *config.Config, catalogSvc catalog.Service, cartSvc cart.Service, checkoutService checkoutsvc.Service, ordersSvc orders.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:          cfg,
		Logger:          logg,
		DBPinger:        stubPinger{},
		RedisPinger:     stubPinger{},
		CatalogService:  catalogSvc,
		CartService:     cartSvc,
		CheckoutService: checkoutService,
		OrdersService:   ordersSvc,
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), stubCatalogService{}, stubCartService{}, stubCheckoutService{}, stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if env := resp.Header().Get("X-FamilySouq-Env"); env != "test" {
		t.Fatalf("expected env header test got %q", env)
	}
}

func TestPublicCatalogSkipsAuth(t *testing.T) {
	svc := stubCatalogService{
		list: func(ctx context.Context, query catalog.ListQuery) (*catalog.ListResult, error) {
			return &catalog.ListResult{}, nil
		},
	}
	router := newTestRouter(testConfig(), svc, stubCartService{}, stubCheckoutService{}, stubOrdersService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestAuthedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), stubCatalogService{}, stubCartService{}, stubCheckoutService{}, stubOrdersService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAuthedGroupAcceptsValidJWT(t *testing.T) {
	cfg := testConfig()
	cartSvc := stubCartService{
		getCart: func(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
			return &cart.View{Total: decimal.Zero}, nil
		},
	}
	router := newTestRouter(cfg, stubCatalogService{}, cartSvc, stubCheckoutService{}, stubOrdersService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for authed cart fetch got %d", resp.Code)
	}
}

func TestCheckoutRequiresClientRole(t *testing.T) {
	cfg := testConfig()
	checkoutService := stubCheckoutService{
		execute: func(ctx context.Context, userID uuid.UUID, input checkoutsvc.Input) (*models.UserOrder, *checkoutsvc.Summary, error) {
			return &models.UserOrder{ID: uuid.New(), UserID: userID, Status: enums.OrderStatusPending}, &checkoutsvc.Summary{TotalFamilies: 1}, nil
		},
	}
	router := newTestRouter(cfg, stubCatalogService{}, stubCartService{}, checkoutService, stubOrdersService{})
	body := `{"phone":"+96170123456","address":"Main street 4, Beirut"}`

	family := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	family.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleFamily))
	family.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, family)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for family checkout got %d", resp.Code)
	}

	client := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	client.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	client.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, client)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for client checkout got %d", resp.Code)
	}
}

func TestProductMutationsRequireSellerRole(t *testing.T) {
	cfg := testConfig()
	catalogSvc := stubCatalogService{
		update: func(ctx context.Context, actor catalog.Actor, id uuid.UUID, input catalog.UpdateProductInput) (*models.Product, error) {
			return &models.Product{ID: id, FamilyID: actor.UserID}, nil
		},
	}
	router := newTestRouter(cfg, catalogSvc, stubCartService{}, stubCheckoutService{}, stubOrdersService{})
	target := "/api/v1/products/" + uuid.NewString()
	body := `{"name":"fig jam"}`

	client := httptest.NewRequest(http.MethodPut, target, strings.NewReader(body))
	client.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	client.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, client)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client product edit got %d", resp.Code)
	}

	family := httptest.NewRequest(http.MethodPut, target, strings.NewReader(body))
	family.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleFamily))
	family.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, family)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for family product edit got %d", resp.Code)
	}
}

func TestOrderStatusRouteRequiresSellerRole(t *testing.T) {
	cfg := testConfig()
	ordersSvc := stubOrdersService{
		setStatus: func(ctx context.Context, actor orders.Actor, familyOrderID uuid.UUID, input orders.SetStatusInput) (*models.FamilyOrder, error) {
			return &models.FamilyOrder{ID: familyOrderID, Status: input.Status}, nil
		},
	}
	router := newTestRouter(cfg, stubCatalogService{}, stubCartService{}, stubCheckoutService{}, ordersSvc)
	target := "/api/v1/orders/" + uuid.NewString() + "/status"
	body := `{"status":"delivered"}`

	client := httptest.NewRequest(http.MethodPut, target, strings.NewReader(body))
	client.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	client.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, client)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client status change got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPut, target, strings.NewReader(body))
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	admin.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin status change got %d", resp.Code)
	}
}

func TestOrderListRejectsForeignUserOverride(t *testing.T) {
	cfg := testConfig()
	ordersSvc := stubOrdersService{
		listUser: func(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus) ([]models.UserOrder, error) {
			return []models.UserOrder{}, nil
		},
	}
	router := newTestRouter(cfg, stubCatalogService{}, stubCartService{}, stubCheckoutService{}, ordersSvc)

	client := httptest.NewRequest(http.MethodGet, "/api/v1/orders?user_id="+uuid.NewString(), nil)
	client.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, client)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin user_id override got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/orders?user_id="+uuid.NewString(), nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin user_id override got %d", resp.Code)
	}
}

type fakeIdempotencyStore struct {
	data map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: make(map[string]string)}
}

func (s *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *fakeIdempotencyStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.data[key] = fmt.Sprint(value)
	return nil
}

func (s *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprint(value)
	return true, nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "fsq:idempotency:" + scope + ":" + id
}

func (s *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func newIdempotentTestRouter(cfg *config.Config, store *fakeIdempotencyStore, checkoutService checkoutsvc.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:          cfg,
		Logger:          logg,
		DBPinger:        stubPinger{},
		RedisPinger:     stubPinger{},
		Idempotency:     store,
		CatalogService:  stubCatalogService{},
		CartService:     stubCartService{},
		CheckoutService: checkoutService,
		OrdersService:   stubOrdersService{},
	})
}

func countingCheckoutStub(calls *int) stubCheckoutService {
	return stubCheckoutService{
		execute: func(ctx context.Context, userID uuid.UUID, input checkoutsvc.Input) (*models.UserOrder, *checkoutsvc.Summary, error) {
			*calls++
			return &models.UserOrder{ID: uuid.New(), UserID: userID, Status: enums.OrderStatusPending}, &checkoutsvc.Summary{TotalFamilies: 1}, nil
		},
	}
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	var calls int
	router := newIdempotentTestRouter(cfg, newFakeIdempotencyStore(), countingCheckoutStub(&calls))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"phone":"+96170123456","address":"Main street 4"}`))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key got %d", resp.Code)
	}
	if calls != 0 {
		t.Fatalf("checkout must not run without a key, got %d calls", calls)
	}
}

func TestCheckoutReplaysStoredResponseForReusedKey(t *testing.T) {
	cfg := testConfig()
	var calls int
	router := newIdempotentTestRouter(cfg, newFakeIdempotencyStore(), countingCheckoutStub(&calls))

	token := buildToken(t, cfg, enums.UserRoleClient)
	body := `{"phone":"+96170123456","address":"Main street 4"}`
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "order-attempt-1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first checkout got %d", first.Code)
	}
	if calls != 1 {
		t.Fatalf("expected one checkout call got %d", calls)
	}

	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected 201 on replay got %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("replay must not re-run checkout, got %d calls", calls)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replay body differs:\nfirst:  %s\nsecond: %s", first.Body.String(), second.Body.String())
	}
	if ct := second.Header().Get("Content-Type"); ct != first.Header().Get("Content-Type") {
		t.Fatalf("replay content type differs: %q", ct)
	}
}

func TestCheckoutRejectsReusedKeyWithDifferentBody(t *testing.T) {
	cfg := testConfig()
	var calls int
	router := newIdempotentTestRouter(cfg, newFakeIdempotencyStore(), countingCheckoutStub(&calls))

	token := buildToken(t, cfg, enums.UserRoleClient)
	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "order-attempt-1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := send(`{"phone":"+96170123456","address":"Main street 4"}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first checkout got %d", first.Code)
	}

	second := send(`{"phone":"+96170123456","address":"Another street 9"}`)
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key with different body got %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("conflicting reuse must not re-run checkout, got %d calls", calls)
	}
}
