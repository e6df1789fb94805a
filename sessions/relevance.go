package sessions

import (
	"regexp"
	"sort"
	"strings"

	"github.com/scttfrdmn/memkit/memkit"
)

// Stop words excluded from keyword extraction (Russian + English).
var stopWords = map[string]bool{
	"и": true, "в": true, "на": true, "с": true, "по": true, "не": true,
	"что": true, "как": true, "это": true, "то": true, "а": true, "но": true,
	"у": true, "о": true, "же": true, "бы": true, "ли": true, "за": true,
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"to": true, "of": true, "in": true, "on": true, "and": true, "or": true,
	"it": true, "that": true, "this": true, "for": true, "with": true,
}

var tokenRe = regexp.MustCompile(`[\p{L}\d]+`)

// Tokens extracts lowercase keyword tokens from text, dropping stop words
// and one-character tokens.
func Tokens(text string) []string {
	words := tokenRe.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if len([]rune(w)) < 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// Overlap returns |a ∩ b| / |a| for token sets, 0 when a is empty.
func Overlap(query, doc []string) float64 {
	if len(query) == 0 {
		return 0
	}
	docSet := make(map[string]bool, len(doc))
	for _, t := range doc {
		docSet[t] = true
	}
	hits := 0
	for _, t := range query {
		if docSet[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

// Ranked pairs a session with its relevance score.
type Ranked struct {
	Session memkit.Session
	Score   float64
}

// RankSessions returns the top-k sessions by relevance to the query.
//
// The score combines keyword overlap (weighted by inverse session length, so
// a hit in a short session counts for more) with an optional vector score per
// session id. vectorWeight in [0,1] balances the two; pass nil vector scores
// for pure keyword mode. Ties break toward higher keyword overlap, then the
// more recent session.
func RankSessions(query string, sessions []memkit.Session, contents map[string]string, vectorScores map[string]float64, vectorWeight float64, k int) []Ranked {
	queryTokens := Tokens(query)
	if vectorScores == nil {
		vectorWeight = 0
	}

	ranked := make([]Ranked, 0, len(sessions))
	overlaps := make(map[string]float64, len(sessions))
	for _, s := range sessions {
		content := contents[s.ID]
		docTokens := Tokens(content)
		overlap := Overlap(queryTokens, docTokens)
		if n := len(docTokens); n > 0 {
			// Inverse-length weighting: dilute hits in long sessions.
			overlap *= 1 / (1 + float64(n)/100)
		}
		overlaps[s.ID] = overlap

		score := (1-vectorWeight)*overlap + vectorWeight*vectorScores[s.ID]
		ranked = append(ranked, Ranked{Session: s, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		oi, oj := overlaps[ranked[i].Session.ID], overlaps[ranked[j].Session.ID]
		if oi != oj {
			return oi > oj
		}
		return ranked[i].Session.End.After(ranked[j].Session.End)
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// MessagesByTopic returns the subsequence of messages containing any token of
// the topic phrase.
func MessagesByTopic(topic string, msgs []memkit.Message) []memkit.Message {
	topicTokens := Tokens(topic)
	if len(topicTokens) == 0 {
		return nil
	}
	matched := make([]memkit.Message, 0)
	for _, msg := range msgs {
		if Overlap(topicTokens, Tokens(msg.Content)) > 0 {
			matched = append(matched, msg)
		}
	}
	return matched
}
