package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func TestStructuredHandlerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	h := NewStructuredHandler()
	h.out = &buf

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "dialogue processed", 0)
	record.AddAttrs(slog.String("dialogue_id", "dlg-1"), slog.Int("sessions", 3))

	if err := h.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["message"] != "dialogue processed" {
		t.Errorf("expected message field, got %v", entry["message"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("expected level INFO, got %v", entry["level"])
	}
	if entry["dialogue_id"] != "dlg-1" {
		t.Errorf("expected dialogue_id attr, got %v", entry["dialogue_id"])
	}
}

func TestStructuredHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewStructuredHandler()
	h.out = &buf

	tagged := h.WithAttrs([]slog.Attr{slog.String("component", "store")})
	record := slog.NewRecord(time.Now(), slog.LevelWarn, "embedding unavailable", 0)
	if err := tagged.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["component"] != "store" {
		t.Errorf("expected bound attr in output, got %v", entry["component"])
	}
}

func TestStructuredHandlerEnabled(t *testing.T) {
	h := NewStructuredHandler()
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected handler enabled for all levels")
	}
}

func TestEngineLogger(t *testing.T) {
	logger := EngineLogger("cache")
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}
