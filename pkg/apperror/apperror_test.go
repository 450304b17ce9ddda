package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("product %s not found", "p1"), http.StatusNotFound},
		{"conflict", Conflict("slug taken"), http.StatusConflict},
		{"unprocessable", Unprocessable("Insufficient inventory"), http.StatusUnprocessableEntity},
		{"bad request", BadRequest("bad"), http.StatusBadRequest},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"unauthorized", Unauthorized("who"), http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("outer: %w", Conflict("inner")), http.StatusConflict},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMessageMasksInternalErrors(t *testing.T) {
	if got := Message(errors.New("pq: connection refused")); got != "Internal server error" {
		t.Fatalf("Message() = %q", got)
	}
	if got := Message(NotFound("Product not found")); got != "Product not found" {
		t.Fatalf("Message() = %q", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("tx aborted")
	err := Wrap(KindBadRequest, cause, "tx aborted")
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if !Is(err, KindBadRequest) {
		t.Fatal("expected bad request kind")
	}
}
