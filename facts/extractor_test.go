package facts

import (
	"testing"
	"time"

	"github.com/scttfrdmn/memkit/memkit"
)

var sessionEnd = time.Date(2026, 2, 1, 15, 0, 0, 0, time.UTC)

func testSession() memkit.Session {
	return memkit.Session{
		ID:         "dlg-1-s0001",
		DialogueID: "dlg-1",
		Start:      sessionEnd.Add(-10 * time.Minute),
		End:        sessionEnd,
	}
}

func findFact(found []memkit.Fact, predicate string) *memkit.Fact {
	for i := range found {
		if found[i].Predicate == predicate {
			return &found[i]
		}
	}
	return nil
}

func TestExtractName(t *testing.T) {
	ex := NewExtractor(0.5)
	content := "user: Привет! Меня зовут Александр\nassistant: Привет, Александр!\n"

	found := ex.Extract(testSession(), content)
	f := findFact(found, "name")
	if f == nil {
		t.Fatal("expected name fact")
	}
	if f.Value != "Александр" {
		t.Errorf("expected value Александр, got %q", f.Value)
	}
	if f.Confidence != 0.95 {
		t.Errorf("expected confidence 0.95, got %v", f.Confidence)
	}
	if f.Subject != SubjectUser {
		t.Errorf("expected subject %q, got %q", SubjectUser, f.Subject)
	}
	if f.SourceSessionID != "dlg-1-s0001" {
		t.Errorf("expected source session recorded, got %q", f.SourceSessionID)
	}
	if !f.CreatedAt.Equal(sessionEnd) {
		t.Errorf("expected fact anchored to session end, got %v", f.CreatedAt)
	}
}

func TestExtractMultiplePredicates(t *testing.T) {
	ex := NewExtractor(0.5)
	content := "user: Меня зовут Мария, мне 25 лет, живу в Москве\n"

	found := ex.Extract(testSession(), content)
	if f := findFact(found, "name"); f == nil || f.Value != "Мария" {
		t.Errorf("name fact: %+v", f)
	}
	if f := findFact(found, "age"); f == nil || f.Value != "25" {
		t.Errorf("age fact: %+v", f)
	}
	if f := findFact(found, "location"); f == nil || f.Value != "Москве" {
		t.Errorf("location fact: %+v", f)
	}
}

func TestExtractNameRequiresCapitalizedValue(t *testing.T) {
	ex := NewExtractor(0.5)

	found := ex.Extract(testSession(), "user: меня зовут котик\n")
	if f := findFact(found, "name"); f != nil {
		t.Errorf("lowercase word must not qualify as a name, got %+v", f)
	}

	// The introduction phrase itself stays case-insensitive.
	found = ex.Extract(testSession(), "user: МЕНЯ ЗОВУТ Александр\n")
	f := findFact(found, "name")
	if f == nil || f.Value != "Александр" {
		t.Errorf("expected name from uppercase phrase, got %+v", f)
	}
}

func TestExtractIgnoresAssistantLines(t *testing.T) {
	ex := NewExtractor(0.5)
	content := "assistant: Тебя зовут Борис, верно?\n"

	if found := ex.Extract(testSession(), content); len(found) != 0 {
		t.Errorf("expected no facts from assistant turns, got %v", found)
	}
}

func TestExtractOnePerPredicate(t *testing.T) {
	ex := NewExtractor(0.5)
	content := "user: Меня зовут Иван\nuser: Меня зовут Пётр\n"

	found := ex.Extract(testSession(), content)
	count := 0
	for _, f := range found {
		if f.Predicate == "name" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected at most one name fact per session, got %d", count)
	}
}

func TestExtractConfidenceCutoff(t *testing.T) {
	ex := NewExtractor(0.9)
	content := "user: Меня зовут Анна, живу в Питере\n"

	found := ex.Extract(testSession(), content)
	if findFact(found, "name") == nil {
		t.Error("expected high-confidence name fact kept")
	}
	if findFact(found, "location") != nil {
		t.Error("expected location fact dropped below cutoff")
	}
}

func TestAliasesFor(t *testing.T) {
	aliases := AliasesFor("name")
	seen := false
	for _, a := range aliases {
		if a == "зовут" {
			seen = true
		}
	}
	if !seen {
		t.Errorf("expected alias зовут for name predicate, got %v", aliases)
	}
	if AliasesFor("unknown") != nil {
		t.Error("expected nil aliases for unknown predicate")
	}
}
