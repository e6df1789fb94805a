package filter

import "regexp"

// Pattern library for message classification. Markers cover Russian and
// English dialogue; weights follow the strength of the personal signal.

// personalMarkers maps first-person words to signal weights.
var personalMarkers = map[string]float64{
	// Strong first-person markers
	"я": 1.0, "меня": 1.0, "мне": 1.0, "мной": 1.0,
	"мой": 1.0, "моя": 1.0, "моё": 1.0, "мое": 1.0, "мои": 1.0,
	"i": 1.0, "me": 1.0, "my": 1.0, "mine": 1.0, "myself": 1.0,

	// Group markers
	"мы": 0.7, "нас": 0.7, "нам": 0.7, "нами": 0.7,
	"наш": 0.7, "наша": 0.7, "наше": 0.7, "наши": 0.7,
	"we": 0.7, "us": 0.7, "our": 0.7, "ours": 0.7,

	// Reflexive markers
	"свой": 0.5, "своя": 0.5, "своё": 0.5, "свое": 0.5, "свои": 0.5,
	"сам": 0.5, "сама": 0.5, "сами": 0.5,

	// Contextual personal verbs
	"люблю": 0.3, "хочу": 0.3, "думаю": 0.3, "считаю": 0.3,
	"нравится": 0.3, "love": 0.3, "want": 0.3, "think": 0.3,
}

// personalPhrases rescue copy-pasted content that carries personal context.
var personalPhrases = []string{
	"помоги мне", "моя задача", "мой вопрос", "я хочу",
	"мне нужно", "я не понимаю", "объясни мне", "расскажи мне",
	"мой проект", "моя работа", "для меня",
	"help me", "my question", "i need", "explain to me", "my project",
}

// copyPastePatterns match content pasted from elsewhere rather than typed.
var copyPastePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?s)```.*```"),
	regexp.MustCompile(`https?://\S{20,}`),
	regexp.MustCompile(`(?m)^\s*(Traceback|at [\w.$]+\(|File "[^"]+", line \d+)`),
	regexp.MustCompile(`(?m)^\s*[{\[]\s*"`),
	regexp.MustCompile(`\S{60,}`),
}

// technicalPatterns match technical content that is on-topic but carries no
// durable personal information.
var technicalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(func|def|class|import|select|insert|update|delete)\b\s`),
	regexp.MustCompile(`(?i)\b(error|exception|stacktrace|компилятор|ошибка компиляции)\b`),
	regexp.MustCompile(`[;{}<>]{3,}`),
}

var wordRe = regexp.MustCompile(`[\p{L}\d]+`)
