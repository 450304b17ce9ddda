package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("catalog-test", false, &buf)
	SetLevel("debug")
	defer SetLevel("info")

	ctx := ContextWithRequestID(context.Background(), "req-42")
	Info(ctx).Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["request_id"] != "req-42" {
		t.Fatalf("request_id = %v, want req-42", line["request_id"])
	}
	if line["service"] != "catalog-test" {
		t.Fatalf("service = %v", line["service"])
	}
}

func TestSetLevelFallsBackToInfo(t *testing.T) {
	SetLevel("nonsense")
	defer SetLevel("info")
	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info", got)
	}

	SetLevel("warn")
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Fatalf("level = %v, want warn", got)
	}
}
