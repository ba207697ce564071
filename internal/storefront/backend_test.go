package storefront

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/go-storefront/internal/config"
	"github.com/pribylovaa/go-storefront/internal/httpclient"
	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/tokenstore"
	"github.com/stretchr/testify/require"
)

// shop — фейковый backend витрины с состоянием в памяти.
type shop struct {
	srv *httptest.Server

	mu          sync.Mutex
	valid       map[string]bool
	refreshOK   bool
	logoutFail  bool
	cart        models.Cart
	orders      []models.Order
	profile     models.Profile
	lastQuery   string
	lastLogout  string
	uploads     []string
	nextAccess  int
	refreshHits atomic.Int32
	logoutHits  atomic.Int32
}

func newShop(t *testing.T) *shop {
	t.Helper()

	s := &shop{
		valid:     map[string]bool{},
		refreshOK: true,
		profile:   models.Profile{ID: "u1", Email: "user@example.com"},
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)
		r.Post("/auth/register", s.register)
		r.Post("/auth/refresh", s.refresh)
		r.Get("/products", s.listProducts)
		r.Get("/products/{id}", s.product)

		r.Group(func(r chi.Router) {
			r.Use(s.auth)
			r.Post("/auth/logout", s.logout)
			r.Get("/cart", s.getCart)
			r.Delete("/cart", s.clearCart)
			r.Post("/cart/items", s.addItem)
			r.Patch("/cart/items/{id}", s.updateItem)
			r.Delete("/cart/items/{id}", s.removeItem)
			r.Post("/orders", s.createOrder)
			r.Get("/orders", s.listOrders)
			r.Get("/orders/{id}", s.getOrder)
			r.Post("/shipping/calculate", s.quote)
			r.Get("/profile", s.getProfile)
			r.Patch("/profile", s.patchProfile)
			r.Post("/files/upload", s.upload)
		})
	})

	s.srv = httptest.NewServer(r)
	t.Cleanup(s.srv.Close)

	return s
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func nestErr(w http.ResponseWriter, status int, msg string) {
	reply(w, status, map[string]any{"statusCode": status, "message": msg, "error": http.StatusText(status)})
}

func (s *shop) issue() models.AuthResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAccess++
	acc := "acc-" + strconv.Itoa(s.nextAccess)
	s.valid[acc] = true

	return models.AuthResponse{Token: acc, RefreshToken: "ref-" + acc, User: &models.User{ID: "u1", Email: "user@example.com"}}
}

func (s *shop) expireAll() {
	s.mu.Lock()
	s.valid = map[string]bool{}
	s.mu.Unlock()
}

func (s *shop) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		ok := s.valid[tok]
		s.mu.Unlock()
		if !ok {
			nestErr(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *shop) login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.Password != "secret" {
		nestErr(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	reply(w, http.StatusOK, s.issue())
}

func (s *shop) register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.Email == "taken@example.com" {
		reply(w, http.StatusConflict, map[string]any{
			"statusCode": 409, "message": []string{"email already registered"}, "error": "Conflict",
		})
		return
	}
	reply(w, http.StatusCreated, s.issue())
}

func (s *shop) refresh(w http.ResponseWriter, r *http.Request) {
	s.refreshHits.Add(1)
	s.mu.Lock()
	ok := s.refreshOK
	s.mu.Unlock()
	if !ok {
		nestErr(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	out := s.issue()
	reply(w, http.StatusOK, map[string]string{"token": out.Token, "refreshToken": out.RefreshToken})
}

func (s *shop) logout(w http.ResponseWriter, r *http.Request) {
	s.logoutHits.Add(1)
	var in models.LogoutRequest
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	s.lastLogout = in.RefreshToken
	fail := s.logoutFail
	s.mu.Unlock()

	if fail {
		reply(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]any{"code": "internal", "message": "internal error"},
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *shop) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.lastQuery = r.URL.RawQuery
	s.mu.Unlock()

	reply(w, http.StatusOK, models.ProductPage{
		Items: []models.Product{{ID: "p1", Name: "Mug", Price: 9.5, Stock: 3}},
		Total: 1, Page: 1, Limit: 20,
	})
}

func (s *shop) product(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id != "p1" {
		reply(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": "not_found", "message": "not found"}})
		return
	}
	reply(w, http.StatusOK, models.Product{ID: "p1", Name: "Mug", Price: 9.5, Stock: 3})
}

func (s *shop) recalc() {
	s.cart.Total = 0
	for _, it := range s.cart.Items {
		s.cart.Total += it.Price * float64(it.Quantity)
	}
}

func (s *shop) getCart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply(w, http.StatusOK, s.cart)
}

func (s *shop) clearCart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.cart = models.Cart{}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *shop) addItem(w http.ResponseWriter, r *http.Request) {
	var in models.AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		nestErr(w, http.StatusBadRequest, "bad body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Items = append(s.cart.Items, models.CartItem{
		ID: "i" + in.ProductID, ProductID: in.ProductID, Quantity: in.Quantity, Price: 9.5,
	})
	s.recalc()
	reply(w, http.StatusCreated, s.cart)
}

func (s *shop) updateItem(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateCartItemRequest
	_ = json.NewDecoder(r.Body).Decode(&in)
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cart.Items {
		if s.cart.Items[i].ID == id {
			s.cart.Items[i].Quantity = in.Quantity
			s.recalc()
			reply(w, http.StatusOK, s.cart)
			return
		}
	}
	nestErr(w, http.StatusNotFound, "item not found")
}

func (s *shop) removeItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.cart.Items[:0]
	for _, it := range s.cart.Items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	s.cart.Items = items
	s.recalc()
	reply(w, http.StatusOK, s.cart)
}

func (s *shop) createOrder(w http.ResponseWriter, r *http.Request) {
	var in models.CreateOrderRequest
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cart.Items) == 0 {
		nestErr(w, http.StatusBadRequest, "cart is empty")
		return
	}
	o := models.Order{
		ID: "o1", Status: "pending", Subtotal: s.cart.Total, ShippingCost: 5, Total: s.cart.Total + 5,
		ShippingAddress: &in.ShippingAddress, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	for _, it := range s.cart.Items {
		o.Items = append(o.Items, models.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	s.orders = append(s.orders, o)
	s.cart = models.Cart{}
	reply(w, http.StatusCreated, o)
}

func (s *shop) listOrders(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.orders
	if out == nil {
		out = []models.Order{}
	}
	reply(w, http.StatusOK, out)
}

func (s *shop) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			reply(w, http.StatusOK, o)
			return
		}
	}
	nestErr(w, http.StatusNotFound, "order not found")
}

func (s *shop) quote(w http.ResponseWriter, r *http.Request) {
	var in models.ShippingQuoteRequest
	_ = json.NewDecoder(r.Body).Decode(&in)
	cost := 5.0
	if in.Address.Country != "RU" {
		cost = 25
	}
	reply(w, http.StatusOK, models.ShippingQuote{Cost: cost, Currency: "RUB", Carrier: "post", EstimatedDays: 3})
}

func (s *shop) getProfile(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply(w, http.StatusOK, s.profile)
}

func (s *shop) patchProfile(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateProfileRequest
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if in.FirstName != nil {
		s.profile.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		s.profile.LastName = *in.LastName
	}
	if in.Phone != nil {
		s.profile.Phone = *in.Phone
	}
	if in.Address != nil {
		s.profile.Address = in.Address
	}
	reply(w, http.StatusOK, s.profile)
}

func (s *shop) upload(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		nestErr(w, http.StatusBadRequest, "file is required")
		return
	}
	defer f.Close()
	data, _ := io.ReadAll(f)

	s.mu.Lock()
	s.uploads = append(s.uploads, string(data))
	s.mu.Unlock()

	reply(w, http.StatusCreated, models.UploadedFile{
		ID: "f1", URL: "http://cdn.local/" + hdr.Filename, Filename: hdr.Filename, Size: int64(len(data)),
	})
}

func newTestStorefront(t *testing.T, s *shop, st tokenstore.Store) *Client {
	t.Helper()

	api, err := httpclient.New(config.APIConfig{
		BaseURL:        s.srv.URL + "/api",
		UserAgent:      "storefront-test",
		Timeout:        5 * time.Second,
		RefreshTimeout: 5 * time.Second,
	}, st)
	require.NoError(t, err)

	return New(api)
}

// loggedIn — клиент с уже выполненным входом.
func loggedIn(t *testing.T, s *shop) (*Client, *tokenstore.MemoryStore) {
	t.Helper()

	st := tokenstore.NewMemoryStore()
	c := newTestStorefront(t, s, st)
	_, err := c.Login(t.Context(), "user@example.com", "secret")
	require.NoError(t, err)

	return c, st
}

func (s *shop) query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

func (s *shop) uploaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...)
}

func (s *shop) loggedOut() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLogout
}
