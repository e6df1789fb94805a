// Package filter scores and removes low-value messages before grouping.
//
// Classification is a pure function of message text and a static pattern set,
// safe to call concurrently. Messages are never mutated; Clean returns the
// surviving subsequence together with the rejection reasons.
package filter

import (
	"regexp"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/scttfrdmn/memkit/memkit"
)

// Classification is the verdict for a single message.
type Classification struct {
	Personal  bool
	CopyPaste bool
	Technical bool
	// Quality is the retention score in [0,1]. Blank messages score 0.
	Quality float64
}

// Rejection records why a message was dropped by Clean.
type Rejection struct {
	MessageID string
	Reason    string
	Quality   float64
}

// Filter removes noise from a message stream using the static pattern library.
//
// Example:
//
//	f := New(0.15)
//	kept, rejected := f.Clean(messages)
type Filter struct {
	threshold float64
}

// New creates a filter that drops messages scoring below threshold.
func New(threshold float64) *Filter {
	return &Filter{threshold: threshold}
}

// Classify scores a message. Pure function; no side effects.
func (f *Filter) Classify(msg memkit.Message) Classification {
	if msg.IsBlank() {
		return Classification{}
	}

	lower := strings.ToLower(msg.Content)
	copyPaste := matchAny(copyPastePatterns, msg.Content)
	technical := matchAny(technicalPatterns, msg.Content)
	personalScore := personalSignal(lower)

	quality := personalScore
	if copyPaste {
		// Pasted content keeps value only when personal context surrounds it.
		if hasPersonalPhrase(lower) {
			quality = personalScore * 0.8
		} else {
			quality = personalScore * 0.2
		}
	}
	if technical && !copyPaste {
		quality *= 0.6
	}
	// Assistant turns carry context but rarely new personal facts.
	if msg.Role == memkit.RoleAssistant {
		quality *= 0.5
		if quality < 0.2 {
			quality = 0.2
		}
	}
	if quality > 1 {
		quality = 1
	}

	return Classification{
		Personal:  personalScore >= 0.3,
		CopyPaste: copyPaste,
		Technical: technical,
		Quality:   quality,
	}
}

// Clean removes messages below the quality threshold, preserving order.
func (f *Filter) Clean(msgs []memkit.Message) ([]memkit.Message, []Rejection) {
	kept := make([]memkit.Message, 0, len(msgs))
	rejected := make([]Rejection, 0)

	for _, msg := range msgs {
		c := f.Classify(msg)
		if c.Quality >= f.threshold {
			kept = append(kept, msg)
			continue
		}
		reason := "low_quality"
		switch {
		case msg.IsBlank():
			reason = "blank"
		case c.CopyPaste:
			reason = "copy_paste"
		case c.Technical:
			reason = "technical"
		}
		rejected = append(rejected, Rejection{MessageID: msg.ID, Reason: reason, Quality: c.Quality})
	}
	return kept, rejected
}

// MeanQuality returns the average quality score over msgs, 0 for empty input.
func (f *Filter) MeanQuality(msgs []memkit.Message) float64 {
	if len(msgs) == 0 {
		return 0
	}
	scores := make([]float64, len(msgs))
	for i, msg := range msgs {
		scores[i] = f.Classify(msg).Quality
	}
	return stat.Mean(scores, nil)
}

// personalSignal computes the weighted personal marker score for lowered text.
func personalSignal(lower string) float64 {
	words := wordRe.FindAllString(lower, -1)
	if len(words) == 0 {
		return 0
	}

	total := 0.0
	hits := 0
	for _, w := range words {
		if weight, ok := personalMarkers[w]; ok {
			total += weight
			hits++
		}
	}
	for _, phrase := range personalPhrases {
		if strings.Contains(lower, phrase) {
			total += 2.0
		}
	}
	if hits == 0 && total == 0 {
		// No personal signal at all still leaves short typed messages usable.
		if len(words) <= 12 {
			return 0.25
		}
		return 0.1
	}

	density := float64(hits) / float64(len(words))
	score := (total / float64(len(words))) * (1 + density)
	if score > 1 {
		return 1
	}
	if score < 0.3 {
		return 0.3
	}
	return score
}

func hasPersonalPhrase(lower string) bool {
	for _, phrase := range personalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
