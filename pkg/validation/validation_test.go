package validation

import (
	"errors"
	"testing"
)

type sample struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

func TestDescribeUsesJSONNames(t *testing.T) {
	err := New().Struct(sample{Price: -1, Quantity: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}

	want := "name: required; price: gte=0; quantity: gte=1"
	if got := Describe(err); got != want {
		t.Fatalf("Describe() = %q, want %q", got, want)
	}
}

func TestNotBlank(t *testing.T) {
	type patch struct {
		Name *string `json:"name" validate:"omitempty,notblank"`
	}

	blank, filled := "   ", "Pixel"
	tests := []struct {
		name    string
		value   *string
		wantErr bool
	}{
		{"absent", nil, false},
		{"filled", &filled, false},
		{"whitespace only", &blank, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Struct(patch{Name: tt.value})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && Describe(err) != "name: notblank" {
				t.Errorf("Describe() = %q", Describe(err))
			}
		})
	}
}

func TestDescribePassesThroughOtherErrors(t *testing.T) {
	if got := Describe(errors.New("boom")); got != "boom" {
		t.Fatalf("Describe() = %q", got)
	}
}
