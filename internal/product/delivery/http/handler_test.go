package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tair/gadget-inventory/internal/product/usecase/command"
	"github.com/tair/gadget-inventory/internal/product/usecase/query"
	"github.com/tair/gadget-inventory/internal/storage/memory"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/validation"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	router  *mux.Router
	handler *ProductHandler
	tokens  *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := memory.NewStore().Products()
	v := validation.New()
	tokens := auth.NewTokenService("test-secret", time.Hour)

	h := NewProductHandler(
		command.NewCreateProductHandler(repo, nil, v),
		command.NewUpdateProductHandler(repo, nil, v),
		command.NewDeleteProductHandler(repo, nil),
		command.NewDeleteProductsHandler(repo, nil),
		query.NewListProductsHandler(repo, nil),
		query.NewGetFilterOptionsHandler(repo, nil),
		tokens,
		v,
		prometheus.NewRegistry(),
	)

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return &testServer{router: router, handler: h, tokens: tokens}
}

func (s *testServer) token(t *testing.T, id, role string) string {
	t.Helper()
	token, err := s.tokens.GenerateToken(auth.Caller{ID: id, Role: role})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

type productBody struct {
	ID       string  `json:"_id"`
	UserID   string  `json:"user_id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func (s *testServer) create(t *testing.T, token string, body map[string]interface{}) productBody {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/products/product", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, error = %q", rec.Code, env.Error)
	}
	var p productBody
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("failed to decode product: %v", err)
	}
	return p
}

func TestCreateProduct(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, "alice", auth.RoleUser)

	first := s.create(t, alice, map[string]interface{}{"name": "Galaxy S24", "price": 799.0, "quantity": 5})
	second := s.create(t, alice, map[string]interface{}{"name": "Galaxy S24", "price": 799.0, "quantity": 5})

	if first.Slug != "Galaxy-S24" || second.Slug != "Galaxy-S24-1" {
		t.Errorf("slugs = %q, %q", first.Slug, second.Slug)
	}
	if first.UserID != "alice" {
		t.Errorf("owner = %q, want alice", first.UserID)
	}
	if got := testutil.ToFloat64(s.handler.productsCreated); got != 2 {
		t.Errorf("products created = %v, want 2", got)
	}

	tests := []struct {
		name       string
		token      string
		body       interface{}
		wantStatus int
	}{
		{"missing token", "", map[string]interface{}{"name": "X"}, http.StatusUnauthorized},
		{"missing name", alice, map[string]interface{}{"price": 1.0}, http.StatusBadRequest},
		{"blank name", alice, map[string]interface{}{"name": "  \t "}, http.StatusBadRequest},
		{"negative price", alice, map[string]interface{}{"name": "X", "price": -1.0}, http.StatusBadRequest},
		{"bad release date", alice, map[string]interface{}{"name": "X", "releaseDate": "tomorrow"}, http.StatusBadRequest},
		{"unknown field", alice, map[string]interface{}{"name": "X", "stock": 3}, http.StatusBadRequest},
		{"explicit slug taken", alice, map[string]interface{}{"name": "X", "slug": "Galaxy-S24"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodPost, "/api/v1/products/product", tt.token, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (error %q)", rec.Code, tt.wantStatus, env.Error)
			}
			if env.Success {
				t.Error("success should be false")
			}
		})
	}
}

func TestListProductsScopedByRole(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, "alice", auth.RoleUser)
	bob := s.token(t, "bob", auth.RoleUser)
	manager := s.token(t, "boss", auth.RoleManager)

	s.create(t, alice, map[string]interface{}{"name": "Pixel 8", "price": 599.0, "quantity": 3})
	s.create(t, alice, map[string]interface{}{"name": "Pixel 8 Pro", "price": 999.0, "quantity": 1})
	s.create(t, bob, map[string]interface{}{"name": "iPhone 15", "price": 899.0, "quantity": 7})

	tests := []struct {
		name      string
		token     string
		path      string
		wantTotal int64
	}{
		{"user sees own", alice, "/api/v1/products", 2},
		{"manager sees all", manager, "/api/v1/products", 3},
		{"price range", manager, "/api/v1/products?minPrice=800", 2},
		{"user cannot widen scope", bob, "/api/v1/products?user_id=alice", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.path, tt.token, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, error = %q", rec.Code, env.Error)
			}
			var result query.ListProductsResult
			if err := json.Unmarshal(env.Data, &result); err != nil {
				t.Fatalf("failed to decode list: %v", err)
			}
			if result.Meta.Total != tt.wantTotal {
				t.Errorf("total = %d, want %d", result.Meta.Total, tt.wantTotal)
			}
			for _, doc := range result.Data {
				if _, ok := doc["isDeleted"]; ok {
					t.Error("isDeleted should be stripped from listed products")
				}
			}
		})
	}

	rec, _ := s.do(t, http.MethodGet, "/api/v1/products?price=cheap", manager, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed filter status = %d, want 400", rec.Code)
	}
}

func TestUpdateProduct(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, "alice", auth.RoleUser)
	bob := s.token(t, "bob", auth.RoleUser)
	manager := s.token(t, "boss", auth.RoleManager)

	p := s.create(t, alice, map[string]interface{}{"name": "Pixel 8", "price": 599.0, "quantity": 3})
	path := "/api/v1/products/product/" + p.ID

	rec, _ := s.do(t, http.MethodPatch, path, bob, map[string]interface{}{"price": 1.0})
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner status = %d, want 403", rec.Code)
	}

	rec, env := s.do(t, http.MethodPatch, path, manager, map[string]interface{}{"price": 549.0})
	if rec.Code != http.StatusOK {
		t.Fatalf("manager status = %d, error = %q", rec.Code, env.Error)
	}
	var updated productBody
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("failed to decode product: %v", err)
	}
	if updated.Price != 549 || updated.Name != "Pixel 8" || updated.Quantity != 3 {
		t.Errorf("updated = %+v", updated)
	}

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/products/product/missing", alice, map[string]interface{}{"price": 1.0})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing product status = %d, want 404", rec.Code)
	}

	rec, _ = s.do(t, http.MethodPatch, path, alice, map[string]interface{}{"quantity": -4})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative quantity status = %d, want 400", rec.Code)
	}

	rec, _ = s.do(t, http.MethodPatch, path, alice, map[string]interface{}{"name": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank name status = %d, want 400", rec.Code)
	}
}

func TestDeleteProducts(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, "alice", auth.RoleUser)
	bob := s.token(t, "bob", auth.RoleUser)

	a1 := s.create(t, alice, map[string]interface{}{"name": "Pixel 8"})
	a2 := s.create(t, alice, map[string]interface{}{"name": "Pixel 8 Pro"})
	b1 := s.create(t, bob, map[string]interface{}{"name": "iPhone 15"})

	rec, env := s.do(t, http.MethodDelete, "/api/v1/products", alice, map[string]interface{}{
		"productIds": []string{a1.ID, b1.ID},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("mixed batch status = %d, want 422", rec.Code)
	}
	if !bytes.Contains([]byte(env.Error), []byte(b1.ID)) {
		t.Errorf("error %q should name %s", env.Error, b1.ID)
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/products", alice, map[string]interface{}{"productIds": []string{}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", rec.Code)
	}

	rec, env = s.do(t, http.MethodDelete, "/api/v1/products", alice, map[string]interface{}{
		"productIds": []string{a1.ID, a2.ID},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk delete status = %d, error = %q", rec.Code, env.Error)
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/products/product/"+b1.ID, alice, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign delete status = %d, want 403", rec.Code)
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/products/product/"+b1.ID, bob, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("own delete status = %d, want 200", rec.Code)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/products", s.token(t, "boss", auth.RoleManager), nil)
	var result query.ListProductsResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if result.Meta.Total != 0 {
		t.Errorf("total after deletes = %d, want 0", result.Meta.Total)
	}
}

func TestGetFilterOptions(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, "alice", auth.RoleUser)

	s.create(t, alice, map[string]interface{}{"name": "Pixel 8", "brand": "Google", "category": "phone"})
	s.create(t, alice, map[string]interface{}{"name": "iPad", "brand": "Apple", "category": "tablet"})

	rec, env := s.do(t, http.MethodGet, "/api/v1/products/product/filter-options", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, error = %q", rec.Code, env.Error)
	}

	var options map[string][]string
	if err := json.Unmarshal(env.Data, &options); err != nil {
		t.Fatalf("failed to decode options: %v", err)
	}
	brands := options["brand"]
	if len(brands) != 2 || brands[0] != "Apple" || brands[1] != "Google" {
		t.Errorf("brands = %v, want [Apple Google]", brands)
	}
}
