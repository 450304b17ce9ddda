package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", apperror.NotFound("Product not found"), http.StatusNotFound, "Product not found"},
		{"conflict", apperror.Conflict("Slug taken"), http.StatusConflict, "Slug taken"},
		{"unprocessable", apperror.Unprocessable("Insufficient inventory"), http.StatusUnprocessableEntity, "Insufficient inventory"},
		{"internal is masked", errors.New("dial tcp: refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			RespondError(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			resp := decodeResponse(t, rec)
			if resp.Success {
				t.Error("success should be false")
			}
			if resp.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantMsg)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Pixel"}`))
	if err := DecodeJSON(req, &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Name != "Pixel" {
		t.Errorf("name = %q", dst.Name)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Pixel","extra":1}`))
	err := DecodeJSON(req, &dst)
	if !apperror.Is(err, apperror.KindBadRequest) {
		t.Errorf("unknown field should be a bad request, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	userToken, err := tokens.GenerateToken(auth.Caller{ID: "u1", Role: auth.RoleUser})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	guestToken, err := tokens.GenerateToken(auth.Caller{ID: "g1", Role: "guest"})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var seen auth.Caller
	handler := Authenticate(tokens, auth.RoleUser, auth.RoleManager)(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + userToken, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"role not permitted", "Bearer " + guestToken, http.StatusForbidden},
		{"valid user", "Bearer " + userToken, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if seen.ID != "u1" || seen.Role != auth.RoleUser {
		t.Errorf("caller = %+v, want u1/user", seen)
	}
}

func TestMetricsInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "catalog")

	h := m.Instrument("/api/v1/products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	got := testutil.ToFloat64(m.requestCounter.WithLabelValues(http.MethodGet, "/api/v1/products", "418"))
	if got != 2 {
		t.Errorf("request counter = %v, want 2", got)
	}
}

func TestMiddlewares(t *testing.T) {
	router := mux.NewRouter()
	cfg := DefaultMiddlewareConfig("catalog", nil)
	cfg.EnableTracing = false
	RegisterMiddlewares(router, cfg)

	router.HandleFunc("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	router.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusOK, Response{Success: true})
	})

	t.Run("recovers panics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})

	t.Run("propagates request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Request-ID", "req-42")
		router.ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
			t.Errorf("X-Request-ID = %q, want req-42", got)
		}
		if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("X-Content-Type-Options = %q", got)
		}
	})

	t.Run("generates request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected a generated request id")
		}
	})
}

func TestHealthCheck(t *testing.T) {
	router := mux.NewRouter()
	down := errors.New("down")
	redisUp := true
	RegisterHealthCheck(router, "catalog",
		HealthCheck{Name: "database", Ping: func(ctx context.Context) error { return nil }},
		HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			if redisUp {
				return nil
			}
			return down
		}},
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	redisUp = false
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	resp := decodeResponse(t, rec)
	status, _ := resp.Data.(map[string]interface{})
	if status["redis"] != "unavailable" || status["database"] != "ok" {
		t.Errorf("status = %v", resp.Data)
	}
}
