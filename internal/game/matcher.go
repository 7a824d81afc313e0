package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"streak-quiz-service/internal/domain"
)

// ComparisonMode selects how strictly guesses are compared to answers.
type ComparisonMode int

const (
	// ComparisonLenient ignores case, diacritics and extra whitespace.
	// Used by the geography variants ("peru" matches "Perú").
	ComparisonLenient ComparisonMode = iota
	// ComparisonExact trims surrounding whitespace but otherwise requires a
	// byte-for-byte match. Used by orthography drills where "mann" is a wrong
	// answer for "Mann".
	ComparisonExact
)

// Matcher compares raw player input against an item's accepted answers.
// It is pure; the zero value is a lenient matcher.
type Matcher struct {
	mode ComparisonMode
}

func NewMatcher(mode ComparisonMode) Matcher {
	return Matcher{mode: mode}
}

// Matches reports whether raw equals the item's canonical name or any alias
// under the matcher's comparison mode.
func (m Matcher) Matches(raw string, item domain.Item) bool {
	guess := m.normalize(raw)
	if guess == "" {
		return false
	}
	if guess == m.normalize(item.Name) {
		return true
	}
	for _, alias := range item.Aliases {
		if guess == m.normalize(alias) {
			return true
		}
	}
	return false
}

func (m Matcher) normalize(s string) string {
	s = strings.TrimSpace(s)
	if m.mode == ComparisonExact {
		return s
	}
	// Collapse internal whitespace runs to single spaces.
	s = strings.Join(strings.Fields(s), " ")
	// Decompose and drop combining marks so "São Tomé" and "Sao Tome" agree.
	folded, _, err := transform.String(transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	), s)
	if err == nil {
		s = folded
	}
	return strings.ToLower(s)
}
