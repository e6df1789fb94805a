package facts

import (
	"regexp"
	"strings"
	"unicode"
)

// titleCase uppercases the first rune ("александр" -> "Александр").
func titleCase(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Rule extracts one predicate from user text.
//
// Aliases are the query keywords that select this predicate when merging
// facts into an answer context ("зовут" selects name facts for
// "Как меня зовут?").
type Rule struct {
	Predicate  string
	Aliases    []string
	Patterns   []*regexp.Regexp
	Confidence float64
	Normalize  func(string) string
}

// Extraction rules, Russian patterns first (the primary dialogue language),
// English equivalents after. Ordered by reliability: the first matching
// pattern of a rule wins for a session.
var rules = []Rule{
	{
		Predicate: "name",
		Aliases:   []string{"имя", "зовут", "звать", "name", "called"},
		// Case-insensitivity is scoped to the literal prefix; the capture
		// class stays case-sensitive so only capitalized values qualify.
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i:меня зовут)\s+([\p{Lu}][\p{Ll}]+)`),
			regexp.MustCompile(`(?i:мо[её] имя)\s*[-–—]?\s*([\p{Lu}][\p{Ll}]+)`),
			regexp.MustCompile(`(?:^|\s)(?i:я)\s*[-–—]\s*([\p{Lu}][\p{Ll}]+)`),
			regexp.MustCompile(`(?i:\bmy name is)\s+([\p{Lu}][\p{Ll}]+)`),
			regexp.MustCompile(`(?i:\bcall me)\s+([\p{Lu}][\p{Ll}]+)`),
		},
		Confidence: 0.95,
		Normalize:  titleCase,
	},
	{
		Predicate: "age",
		Aliases:   []string{"возраст", "лет", "age", "old"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)мне\s+(\d{1,3})\s*(?:лет|год)`),
			regexp.MustCompile(`(?i)возраст\s*[:–—]?\s*(\d{1,3})`),
			regexp.MustCompile(`(?i)\bi am\s+(\d{1,3})\s+years old`),
		},
		Confidence: 0.85,
	},
	{
		Predicate: "location",
		Aliases:   []string{"город", "живу", "живешь", "откуда", "city", "live", "location"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i:живу в)\s+([\p{Lu}][\p{L}-]+)`),
			regexp.MustCompile(`(?:^|\s)(?i:я из)\s+([\p{Lu}][\p{L}-]+)`),
			regexp.MustCompile(`(?i:\bi live in)\s+([\p{Lu}][\p{L}-]+)`),
		},
		Confidence: 0.8,
	},
	{
		Predicate: "occupation",
		Aliases:   []string{"работа", "профессия", "работаешь", "кем", "work", "job", "profession"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i:работаю)\s+([\p{Ll}]+(?:ом|ером|ором|истом))`),
			regexp.MustCompile(`(?i:профессия)\s*[:–—]?\s*([\p{Ll}]+)`),
			regexp.MustCompile(`(?i:\bi work as an?)\s+([\p{Ll}]+)`),
		},
		Confidence: 0.75,
	},
	{
		Predicate: "company",
		Aliases:   []string{"компания", "фирма", "company", "employer"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)работаю в\s+([^,.!?\n]+)`),
			regexp.MustCompile(`(?i)компания\s*[:–—]\s*([^,.!?\n]+)`),
		},
		Confidence: 0.7,
	},
	{
		Predicate: "hobby",
		Aliases:   []string{"хобби", "увлечение", "любишь", "нравится", "hobby", "like", "love"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i:увлекаюсь)\s+([\p{Ll}]+)`),
			regexp.MustCompile(`(?i:люблю)\s+([\p{Ll}]+)`),
			regexp.MustCompile(`(?i:хобби)\s*[:–—]?\s*([\p{Ll}]+)`),
		},
		Confidence: 0.65,
	},
	{
		Predicate: "pet",
		Aliases:   []string{"питомец", "кот", "кошка", "собака", "pet", "cat", "dog"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i:(?:кот|кошка|п[её]с|собака)\s+(?:по имени\s+)?)([\p{Lu}][\p{Ll}]+)`),
			regexp.MustCompile(`(?i:питомец)\s*[:–—]?\s*([\p{L}]+)`),
		},
		Confidence: 0.7,
	},
	{
		Predicate: "family",
		Aliases:   []string{"семья", "жена", "муж", "дети", "family", "wife", "husband", "children"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i:жена|муж|супруга?)\s+([\p{Lu}][\p{Ll}]+)`),
			regexp.MustCompile(`(?i:сын|дочь)\s+([\p{Lu}][\p{Ll}]+)`),
			regexp.MustCompile(`(?i:у меня)\s+(\d+)\s+(?:детей|реб[её]нок|ребенка)`),
		},
		Confidence: 0.75,
	},
}

// AliasesFor returns the alias keyword set of a predicate, nil if unknown.
func AliasesFor(predicate string) []string {
	for _, r := range rules {
		if r.Predicate == predicate {
			return r.Aliases
		}
	}
	return nil
}
