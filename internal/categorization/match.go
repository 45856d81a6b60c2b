package categorization

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MatchMode selects how a keyword is looked up in the product text.
type MatchMode int

const (
	// MatchWordStart requires the keyword to begin at a word boundary, so
	// "men" no longer matches inside "women" while "dress" still matches
	// "dresses".
	MatchWordStart MatchMode = iota
	// MatchSubstring is plain containment.
	MatchSubstring
)

// ParseMatchMode maps the configuration value to a MatchMode.
func ParseMatchMode(value string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "word":
		return MatchWordStart, nil
	case "substring":
		return MatchSubstring, nil
	}
	return MatchWordStart, fmt.Errorf("unknown keyword match mode %q", value)
}

func (m MatchMode) String() string {
	if m == MatchSubstring {
		return "substring"
	}
	return "word"
}

func (m MatchMode) contains(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	if m == MatchSubstring {
		return strings.Contains(text, keyword)
	}

	for from := 0; from < len(text); {
		idx := strings.Index(text[from:], keyword)
		if idx < 0 {
			return false
		}
		idx += from
		if idx == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(text[:idx])
		if !isWordRune(prev) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[idx:])
		from = idx + size
	}
	return false
}

func (m MatchMode) containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if m.contains(text, keyword) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
