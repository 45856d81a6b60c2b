package categorization

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases name, folds diacritics, collapses every run of
// non-alphanumeric characters into one hyphen and trims hyphens at both ends.
func Slugify(name string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// DisplayName capitalises the first letter of a tag: "men" becomes "Men".
func DisplayName(tag Tag) string {
	s := string(tag)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// DefaultDescription is the description given to lazily created categories.
func DefaultDescription(tag Tag) string {
	return DisplayName(tag) + " clothing and accessories"
}
