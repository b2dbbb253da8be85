package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf}).With(String("aircraft", "AETH-1"))

	log.Info(context.Background(), "arrived", Float("lat", 52.5), Err(errors.New("nope")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "arrived" || rec["aircraft"] != "AETH-1" || rec["error"] != "nope" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if rec["lat"] != 52.5 {
		t.Fatalf("lat = %v, want 52.5", rec["lat"])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden too")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("level filtering failed: %q", out)
	}
}

func TestFromContextAddsTick(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	ctx := ContextWithTick(context.Background(), 7)
	FromContext(ctx, base).Info(ctx, "tick")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["tick"] != float64(7) {
		t.Fatalf("tick field = %v, want 7", rec["tick"])
	}
}

func TestFromContextFallsBackToNoop(t *testing.T) {
	if FromContext(context.Background(), nil) == nil {
		t.Fatalf("FromContext returned nil logger")
	}
}
