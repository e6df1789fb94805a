package compress

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/scttfrdmn/memkit/memkit"
)

const sessionText = "user: Привет! Меня зовут Александр\n" +
	"user: Мне 30 лет, живу в Москве\n" +
	"user: Вчера ходил в кино на новый фильм про космос\n" +
	"assistant: Звучит здорово! Какой фильм смотрел?\n" +
	"user: Про полёт на Марс, очень понравились спецэффекты\n"

func defaultAges() memkit.AgeThresholds {
	return memkit.AgeThresholds{
		Light:      24 * time.Hour,
		Moderate:   7 * 24 * time.Hour,
		Aggressive: 30 * 24 * time.Hour,
	}
}

func TestLevelFor(t *testing.T) {
	ages := defaultAges()
	tests := []struct {
		age  time.Duration
		want memkit.CompressionLevel
	}{
		{time.Hour, memkit.CompressionNone},
		{24 * time.Hour, memkit.CompressionLight},
		{3 * 24 * time.Hour, memkit.CompressionLight},
		{10 * 24 * time.Hour, memkit.CompressionModerate},
		{40 * 24 * time.Hour, memkit.CompressionAggressive},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.age, ages); got != tt.want {
			t.Errorf("LevelFor(%v) = %v, want %v", tt.age, got, tt.want)
		}
	}
}

func TestCompressNoneUnchanged(t *testing.T) {
	c := New(nil)
	sum, err := c.Compress(context.Background(), sessionText, memkit.CompressionNone, Extractive)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if sum.Text != sessionText || sum.Ratio != 1 {
		t.Error("expected level none to pass text through")
	}
}

func TestExtractiveReduces(t *testing.T) {
	c := New(nil)
	for _, level := range []memkit.CompressionLevel{
		memkit.CompressionLight, memkit.CompressionModerate, memkit.CompressionAggressive,
	} {
		sum, err := c.Compress(context.Background(), sessionText, level, Extractive)
		if err != nil {
			t.Fatalf("Compress(%v) failed: %v", level, err)
		}
		if len(sum.Text) > len(sessionText) {
			t.Errorf("level %v inflated: %d > %d", level, len(sum.Text), len(sessionText))
		}
		if strings.TrimSpace(sum.Text) == "" {
			t.Errorf("level %v produced empty summary", level)
		}
		if sum.Ratio > 1 {
			t.Errorf("level %v ratio %v > 1", level, sum.Ratio)
		}
	}
}

func TestTemplateRendersFacts(t *testing.T) {
	c := New(nil)
	sum, err := c.Compress(context.Background(), sessionText, memkit.CompressionAggressive, Template)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if !strings.Contains(sum.Text, "name=Александр") {
		t.Errorf("expected name fact in template output, got %q", sum.Text)
	}
	if !strings.Contains(sum.Text, "age=30") {
		t.Errorf("expected age fact in template output, got %q", sum.Text)
	}
}

func TestTemplateFallsBackWithoutFacts(t *testing.T) {
	c := New(nil)
	text := "user: обсуждали погоду и планы на выходные без подробностей\n"
	sum, err := c.Compress(context.Background(), text, memkit.CompressionModerate, Template)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if strings.TrimSpace(sum.Text) == "" {
		t.Error("expected extractive fallback when no facts found")
	}
	if len(sum.Text) > len(text) {
		t.Error("fallback inflated the text")
	}
}

func TestHybridKeepsFactsAndReduces(t *testing.T) {
	c := New(nil)
	sum, err := c.Compress(context.Background(), sessionText, memkit.CompressionAggressive, Hybrid)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if !strings.Contains(sum.Text, "name=Александр") {
		t.Errorf("expected fact schema in hybrid output, got %q", sum.Text)
	}
	if len(sum.Text) > len(sessionText) {
		t.Error("hybrid inflated the text")
	}
}

type fixedGenerator struct {
	out string
	err error
}

func (g fixedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.out, g.err
}

func TestAbstractiveNilGeneratorFallsBack(t *testing.T) {
	c := New(nil)
	sum, err := c.Compress(context.Background(), sessionText, memkit.CompressionModerate, Abstractive)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if len(sum.Text) > len(sessionText) || strings.TrimSpace(sum.Text) == "" {
		t.Errorf("expected extractive fallback, got %q", sum.Text)
	}
}

func TestAbstractiveUsesGenerator(t *testing.T) {
	c := New(fixedGenerator{out: "Александр, 30 лет, Москва, смотрел фильм про Марс."})
	sum, err := c.Compress(context.Background(), sessionText, memkit.CompressionAggressive, Abstractive)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if !strings.Contains(sum.Text, "Александр") {
		t.Errorf("expected generator output used, got %q", sum.Text)
	}
}

func TestAbstractiveInflationFallsBack(t *testing.T) {
	c := New(fixedGenerator{out: strings.Repeat("вода ", 500)})
	sum, err := c.Compress(context.Background(), sessionText, memkit.CompressionAggressive, Abstractive)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if len(sum.Text) > len(sessionText) {
		t.Errorf("inflating generator must not grow the text: %d > %d",
			len(sum.Text), len(sessionText))
	}
}

func TestAbstractiveGeneratorError(t *testing.T) {
	c := New(fixedGenerator{err: errors.New("model down")})
	_, err := c.Compress(context.Background(), sessionText, memkit.CompressionAggressive, Abstractive)
	if err == nil {
		t.Fatal("expected generator error surfaced")
	}
}

func TestUnknownStrategy(t *testing.T) {
	c := New(nil)
	if _, err := c.Compress(context.Background(), sessionText, memkit.CompressionLight, Strategy("bogus")); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
