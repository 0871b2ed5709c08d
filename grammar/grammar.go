// Package grammar holds the closed set of phrases a speech recognizer is
// allowed to produce, and maps free transcriptions onto that set.
package grammar

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const DefaultCulture = "en"

// Grammar is an immutable set of phrases in one culture (language).
type Grammar struct {
	culture string
	phrases []string
	index   map[string]struct{}
}

// Builder collects phrases; duplicates collapse.
type Builder struct {
	culture string
	seen    map[string]struct{}
	phrases []string
}

func NewBuilder() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

func (b *Builder) SetCulture(culture string) *Builder {
	b.culture = culture
	return b
}

func (b *Builder) Add(phrases ...string) *Builder {
	for _, p := range phrases {
		n := Normalize(p)
		if n == "" {
			continue
		}

		if _, ok := b.seen[n]; ok {
			continue
		}

		b.seen[n] = struct{}{}
		b.phrases = append(b.phrases, n)
	}

	return b
}

func (b *Builder) Build() Grammar {
	phrases := make([]string, len(b.phrases))
	copy(phrases, b.phrases)
	sort.Strings(phrases)

	index := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		index[p] = struct{}{}
	}

	return Grammar{culture: b.culture, phrases: phrases, index: index}
}

func (g Grammar) Culture() string {
	return g.culture
}

// WithCulture returns a copy of g in the given culture.
func (g Grammar) WithCulture(culture string) Grammar {
	g.culture = culture
	return g
}

func (g Grammar) Phrases() []string {
	out := make([]string, len(g.phrases))
	copy(out, g.phrases)
	return out
}

func (g Grammar) Len() int {
	return len(g.phrases)
}

func (g Grammar) Contains(phrase string) bool {
	_, ok := g.index[Normalize(phrase)]
	return ok
}

// Match maps a free transcription onto the closest phrase of the grammar.
// Confidence is the normalized edit similarity in [0,1]; an exact match
// scores 1.
func (g Grammar) Match(text string) (string, float64, bool) {
	n := Normalize(text)
	if n == "" || len(g.phrases) == 0 {
		return "", 0, false
	}

	if _, ok := g.index[n]; ok {
		return n, 1, true
	}

	dmp := diffmatchpatch.New()

	best, bestScore := "", -1.0
	for _, phrase := range g.phrases {
		score := similarity(dmp, n, phrase)
		if score > bestScore {
			best, bestScore = phrase, score
		}
	}

	if bestScore <= 0 {
		return "", 0, false
	}

	return best, bestScore, true
}

func similarity(dmp *diffmatchpatch.DiffMatchPatch, a, b string) float64 {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}

	if longest == 0 {
		return 1
	}

	distance := dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))

	return 1 - float64(distance)/float64(longest)
}

// Normalize lowercases text, drops punctuation and collapses whitespace, so
// "Next slide." and "next  slide" compare equal.
func Normalize(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		case r == '\'':
			return r
		}

		return ' '
	}, text)

	return strings.Join(strings.Fields(cleaned), " ")
}
