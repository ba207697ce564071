package httpclient

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/go-storefront/internal/config"
	"github.com/pribylovaa/go-storefront/internal/tokenstore"
	"github.com/stretchr/testify/require"
)

// fakeBackend — минимальный backend витрины для тестов клиента:
// /auth/refresh выдаёт next, защищённые ручки принимают только валидные access-токены.
type fakeBackend struct {
	srv *httptest.Server

	mu            sync.Mutex
	valid         map[string]bool
	refreshToken  string
	next          tokenstore.Pair
	refreshStatus int
	refreshGate   chan struct{}
	bodies        []string
	authSeen      []string

	refreshCalls atomic.Int32
	cartHits     atomic.Int32
	always401    atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{
		valid:        map[string]bool{},
		refreshToken: "ref-1",
		next:         tokenstore.Pair{AccessToken: "acc-new", RefreshToken: "ref-2"},
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/refresh", b.handleRefresh)
		r.Post("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
			writeTestJSON(w, http.StatusUnauthorized, map[string]any{
				"statusCode": 401, "message": "Invalid credentials", "error": "Unauthorized",
			})
		})
		r.Get("/cart", b.requireAuth(func(w http.ResponseWriter, r *http.Request) {
			b.cartHits.Add(1)
			writeTestJSON(w, http.StatusOK, map[string]any{"resource": "cart", "items": []any{}})
		}))
		r.Get("/orders", b.requireAuth(func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(w, http.StatusOK, map[string]any{"resource": "orders"})
		}))
		r.Get("/profile", b.requireAuth(func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(w, http.StatusOK, map[string]any{"resource": "profile"})
		}))
		r.Post("/orders", b.requireAuth(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			writeTestJSON(w, http.StatusCreated, map[string]any{"echo": string(data)})
		}))
		r.Get("/always401", func(w http.ResponseWriter, r *http.Request) {
			b.always401.Add(1)
			b.record(r, "")
			w.WriteHeader(http.StatusUnauthorized)
		})
		r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
			writeTestJSON(w, http.StatusInternalServerError, map[string]any{
				"error": map[string]any{"code": "internal", "message": "internal error"},
			})
		})
	})

	b.srv = httptest.NewServer(r)
	t.Cleanup(b.srv.Close)

	return b
}

func (b *fakeBackend) record(r *http.Request, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.authSeen = append(b.authSeen, r.Header.Get("Authorization"))
	if body != "" {
		b.bodies = append(b.bodies, body)
	}
}

func (b *fakeBackend) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body string
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			body = string(data)
			r.Body = io.NopCloser(strings.NewReader(body))
		}
		b.record(r, body)

		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		ok := b.valid[tok]
		b.mu.Unlock()

		if !ok {
			writeTestJSON(w, http.StatusUnauthorized, map[string]any{
				"statusCode": 401, "message": "Unauthorized",
			})
			return
		}
		next(w, r)
	}
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	b.mu.Lock()
	gate := b.refreshGate
	status := b.refreshStatus
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if status != 0 {
		writeTestJSON(w, status, map[string]any{
			"statusCode": status, "message": "Invalid refresh token", "error": "Unauthorized",
		})
		return
	}

	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if in.RefreshToken != b.refreshToken {
		writeTestJSON(w, http.StatusUnauthorized, map[string]any{"statusCode": 401, "message": "Unauthorized"})
		return
	}

	b.valid[b.next.AccessToken] = true
	b.refreshToken = b.next.RefreshToken
	writeTestJSON(w, http.StatusOK, map[string]string{
		"token":        b.next.AccessToken,
		"refreshToken": b.next.RefreshToken,
	})
}

func (b *fakeBackend) setValid(tok string) {
	b.mu.Lock()
	b.valid[tok] = true
	b.mu.Unlock()
}

func (b *fakeBackend) gate() chan struct{} {
	ch := make(chan struct{})
	b.mu.Lock()
	b.refreshGate = ch
	b.mu.Unlock()
	return ch
}

func (b *fakeBackend) failRefresh(status int) {
	b.mu.Lock()
	b.refreshStatus = status
	b.mu.Unlock()
}

func (b *fakeBackend) seenAuth() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authSeen...)
}

func (b *fakeBackend) seenBodies() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bodies...)
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testAPIConfig(baseURL string) config.APIConfig {
	return config.APIConfig{
		BaseURL:        baseURL + "/api",
		UserAgent:      "storefront-test",
		Timeout:        5 * time.Second,
		RefreshTimeout: 5 * time.Second,
	}
}

func newTestClient(t *testing.T, b *fakeBackend, st tokenstore.Store, opts ...Option) *Client {
	t.Helper()

	c, err := New(testAPIConfig(b.srv.URL), st, opts...)
	require.NoError(t, err)

	return c
}

func seededStore(t *testing.T, p tokenstore.Pair) *tokenstore.MemoryStore {
	t.Helper()

	st := tokenstore.NewMemoryStore()
	require.NoError(t, st.Set(t.Context(), p))

	return st
}
