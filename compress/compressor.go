// Package compress produces shorter, information-preserving surrogates of
// old sessions at selectable fidelity levels.
//
// Extractive and template strategies are reductions by construction: they
// only select source sentences or render extracted facts, never add content.
// Abstractive output is length-checked and falls back to extractive when the
// external generator inflates.
package compress

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/scttfrdmn/memkit/facts"
	"github.com/scttfrdmn/memkit/memkit"
	"github.com/scttfrdmn/memkit/sessions"
)

// Strategy selects the compression algorithm.
type Strategy string

const (
	Extractive  Strategy = "extractive"
	Abstractive Strategy = "abstractive"
	Template    Strategy = "template"
	Hybrid      Strategy = "hybrid"
)

// Generator is the external text-generation capability used by the
// abstractive strategy. Nil generators downgrade to extractive.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summary is a compressed rendering of a session or entry.
type Summary struct {
	Text     string
	Level    memkit.CompressionLevel
	Strategy Strategy
	// Ratio is len(compressed)/len(source).
	Ratio float64
}

// targetRatio maps a level to the fraction of source text to keep.
func targetRatio(level memkit.CompressionLevel) float64 {
	switch level {
	case memkit.CompressionLight:
		return 0.7
	case memkit.CompressionModerate:
		return 0.4
	case memkit.CompressionAggressive:
		return 0.2
	default:
		return 1.0
	}
}

// LevelFor returns the compression level an entry of the given age should be
// promoted to.
func LevelFor(age time.Duration, ages memkit.AgeThresholds) memkit.CompressionLevel {
	switch {
	case age >= ages.Aggressive:
		return memkit.CompressionAggressive
	case age >= ages.Moderate:
		return memkit.CompressionModerate
	case age >= ages.Light:
		return memkit.CompressionLight
	default:
		return memkit.CompressionNone
	}
}

// Compressor applies compression strategies to session text.
//
// Example:
//
//	c := New(nil)
//	sum, err := c.Compress(ctx, text, memkit.CompressionModerate, Extractive)
type Compressor struct {
	generator Generator
	extractor *facts.Extractor
}

// New creates a compressor. generator may be nil; the abstractive strategy
// then falls back to extractive.
func New(generator Generator) *Compressor {
	return &Compressor{
		generator: generator,
		extractor: facts.NewExtractor(0.5),
	}
}

// Compress produces a summary of text at the given level and strategy.
// CompressionNone returns the text unchanged.
func (c *Compressor) Compress(ctx context.Context, text string, level memkit.CompressionLevel, strategy Strategy) (Summary, error) {
	if level == memkit.CompressionNone || strings.TrimSpace(text) == "" {
		return Summary{Text: text, Level: level, Strategy: strategy, Ratio: 1}, nil
	}

	var out string
	var err error
	switch strategy {
	case Extractive:
		out = c.extractive(text, level)
	case Template:
		out = c.template(text, level)
	case Hybrid:
		out = c.hybrid(text, level)
	case Abstractive:
		out, err = c.abstractive(ctx, text, level)
		if err != nil {
			return Summary{}, err
		}
	default:
		return Summary{}, fmt.Errorf("unknown compression strategy %q", strategy)
	}

	ratio := 1.0
	if len(text) > 0 {
		ratio = float64(len(out)) / float64(len(text))
	}
	return Summary{Text: out, Level: level, Strategy: strategy, Ratio: ratio}, nil
}

var sentenceRe = regexp.MustCompile(`[^.!?\n]+[.!?]?`)

// extractive keeps the highest-information sentences up to the level's
// target length, preserving source order.
func (c *Compressor) extractive(text string, level memkit.CompressionLevel) string {
	parts := sentenceRe.FindAllString(text, -1)
	type scored struct {
		idx   int
		text  string
		score float64
	}
	candidates := make([]scored, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		candidates = append(candidates, scored{idx: i, text: p, score: sentenceScore(p)})
	}
	if len(candidates) == 0 {
		return ""
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	budget := int(float64(len(text)) * targetRatio(level))
	picked := make([]scored, 0)
	used := 0
	for _, cand := range candidates {
		if used > 0 && used+len(cand.text) > budget {
			continue
		}
		picked = append(picked, cand)
		used += len(cand.text) + 1
		if used >= budget {
			break
		}
	}

	sort.Slice(picked, func(i, j int) bool { return picked[i].idx < picked[j].idx })
	lines := make([]string, len(picked))
	for i, p := range picked {
		lines[i] = p.text
	}
	out := strings.Join(lines, " ")
	if len(out) > len(text) {
		out = out[:len(text)]
	}
	return out
}

// template renders extracted facts into a fixed schema. Nothing outside the
// fact set appears in the output.
func (c *Compressor) template(text string, level memkit.CompressionLevel) string {
	session := memkit.Session{ID: "summary", DialogueID: "summary"}
	found := c.extractor.Extract(session, ensureRoleTags(text))
	if len(found) == 0 {
		// No facts to fill the schema: reduce extractively instead.
		return c.extractive(text, level)
	}
	lines := make([]string, 0, len(found))
	for _, f := range found {
		lines = append(lines, fmt.Sprintf("%s=%s", f.Predicate, f.Value))
	}
	sort.Strings(lines)
	out := strings.Join(lines, "; ")
	if len(out) > len(text) {
		out = out[:len(text)]
	}
	return out
}

// hybrid combines the template schema with extractive sentences.
func (c *Compressor) hybrid(text string, level memkit.CompressionLevel) string {
	tpl := c.template(text, level)
	ext := c.extractive(text, level)
	out := tpl
	if ext != "" && tpl != ext {
		out = tpl + "\n" + ext
	}
	if len(out) > len(text) {
		out = out[:len(text)]
	}
	return out
}

// abstractive paraphrases through the external generator.
func (c *Compressor) abstractive(ctx context.Context, text string, level memkit.CompressionLevel) (string, error) {
	if c.generator == nil {
		return c.extractive(text, level), nil
	}
	budget := int(float64(len(text)) * targetRatio(level))
	prompt := fmt.Sprintf(
		"Сожми диалог до %d символов, сохранив все факты о пользователе. Не добавляй ничего нового.\n\n%s",
		budget, text)
	out, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("abstractive compression: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" || len(out) > len(text) {
		// Generator inflated or produced nothing: reduction must hold.
		return c.extractive(text, level), nil
	}
	return out, nil
}

// sentenceScore estimates information density: named entities, numbers, and
// rare tokens raise it; length dilutes it.
func sentenceScore(s string) float64 {
	tokens := sessions.Tokens(s)
	if len(tokens) == 0 {
		return 0
	}
	score := 0.0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			score += 0.3
			break
		}
	}
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		if i > 0 && len(runes) > 1 && unicode.IsUpper(runes[0]) {
			score += 0.5
			break
		}
	}
	for _, t := range tokens {
		if len([]rune(t)) >= 6 {
			score += 0.1
		}
	}
	return score / (1 + float64(len(words))/20)
}

// ensureRoleTags makes plain text consumable by the fact extractor, which
// scans user-tagged lines only.
func ensureRoleTags(text string) string {
	if strings.Contains(text, memkit.RoleUser+": ") {
		return text
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(memkit.RoleUser + ": ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
