package memkit

import (
	"errors"
	"testing"
	"time"
)

func TestMessageValidate(t *testing.T) {
	valid := Message{ID: "m1", Role: RoleUser, Content: "привет", Timestamp: time.Now()}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid message, got %v", err)
	}

	badRole := valid
	badRole.Role = "system"
	if err := badRole.Validate(); !errors.Is(err, ErrIngestion) {
		t.Errorf("expected ErrIngestion for unknown role, got %v", err)
	}

	noTime := valid
	noTime.Timestamp = time.Time{}
	if err := noTime.Validate(); !errors.Is(err, ErrIngestion) {
		t.Errorf("expected ErrIngestion for zero timestamp, got %v", err)
	}
}

func TestMessageIsBlank(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"", true},
		{"  \n\t ", true},
		{"текст", false},
	}
	for _, tt := range tests {
		m := Message{Content: tt.content}
		if got := m.IsBlank(); got != tt.want {
			t.Errorf("IsBlank(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestCompressionLevelString(t *testing.T) {
	tests := []struct {
		level CompressionLevel
		want  string
	}{
		{CompressionNone, "none"},
		{CompressionLight, "light"},
		{CompressionModerate, "moderate"},
		{CompressionAggressive, "aggressive"},
		{CompressionLevel(9), "level(9)"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.level), got, tt.want)
		}
	}
}

func TestFactActiveAndKey(t *testing.T) {
	f := Fact{DialogueID: "d", Subject: "user", Predicate: "name"}
	if !f.Active() {
		t.Error("expected fresh fact active")
	}
	f.SupersededBy = "other"
	if f.Active() {
		t.Error("expected superseded fact inactive")
	}
	f.SupersededBy = ""
	f.Inactive = true
	if f.Active() {
		t.Error("expected losing fact inactive")
	}

	g := Fact{DialogueID: "d", Subject: "user", Predicate: "name", Value: "other"}
	if f.Key() != g.Key() {
		t.Error("expected chain key independent of value")
	}
	h := Fact{DialogueID: "d2", Subject: "user", Predicate: "name"}
	if f.Key() == h.Key() {
		t.Error("expected chain key scoped to dialogue")
	}
}
