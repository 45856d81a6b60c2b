package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchModeContains(t *testing.T) {
	tests := []struct {
		text, keyword string
		word, sub     bool
	}{
		{"women's dress", "men", false, true},
		{"menswear", "men", true, true},
		{"women and men", "men", true, true},
		{"red t-shirt", "shirt", true, true},
		{"spring jacket", "ring", false, true},
		{"escape", "cap", false, true},
		{"café bag", "bag", true, true},
		{"anything", "", false, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.word, MatchWordStart.contains(tt.text, tt.keyword), "word %q in %q", tt.keyword, tt.text)
		assert.Equal(t, tt.sub, MatchSubstring.contains(tt.text, tt.keyword), "substring %q in %q", tt.keyword, tt.text)
	}
}

func TestParseMatchMode(t *testing.T) {
	mode, err := ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchWordStart, mode)

	mode, err = ParseMatchMode(" Substring ")
	require.NoError(t, err)
	assert.Equal(t, MatchSubstring, mode)
	assert.Equal(t, "substring", mode.String())

	_, err = ParseMatchMode("fuzzy")
	assert.Error(t, err)
}
