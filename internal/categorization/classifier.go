package categorization

import "strings"

// Confidence labels for each classification axis.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// Input is the product text the classifier reads.
type Input struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Tags        []string `json:"tags"`
}

// Classification is the outcome of the pure keyword pass.
type Classification struct {
	Primary Tag
	// Secondary is empty when no product-type keyword matched.
	Secondary Tag
	// PrimaryMatched is false when Primary fell back to unisex.
	PrimaryMatched bool
}

// Confidence returns the per-axis confidence labels.
func (c Classification) Confidence() Confidence {
	conf := Confidence{Primary: ConfidenceLow, Secondary: ConfidenceLow}
	if c.PrimaryMatched {
		conf.Primary = ConfidenceHigh
	}
	if c.Secondary != "" {
		conf.Secondary = ConfidenceHigh
	}
	return conf
}

// Confidence reports how each axis was decided.
type Confidence struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Classifier maps product text to category tags. It is safe for concurrent use.
type Classifier struct {
	keywords *KeywordSet
	mode     MatchMode
}

// NewClassifier builds a classifier over keywords; nil selects DefaultKeywords.
func NewClassifier(keywords *KeywordSet, mode MatchMode) *Classifier {
	if keywords == nil {
		keywords = DefaultKeywords()
	}
	return &Classifier{keywords: keywords, mode: mode}
}

// Mode returns the keyword match mode.
func (c *Classifier) Mode() MatchMode {
	return c.mode
}

// Classify runs the gender pass, the inference fallback and the product-type pass.
func (c *Classifier) Classify(in Input) Classification {
	text := blob(in)
	if strings.TrimSpace(text) == "" {
		return Classification{Primary: TagUnisex}
	}

	result := Classification{Primary: TagUnisex}
	if primary, ok := c.primary(text); ok {
		result.Primary = primary
		result.PrimaryMatched = true
	}

	// First matching product type wins, in declaration order.
	for _, tag := range c.keywords.secondaryOrder {
		if c.mode.containsAny(text, c.keywords.categories[tag]) {
			result.Secondary = tag
			break
		}
	}

	return result
}

func (c *Classifier) primary(text string) (Tag, bool) {
	// Explicit markers short-circuit in priority order: men, women, kids.
	for _, tag := range c.keywords.genderOrder {
		if c.mode.containsAny(text, c.keywords.explicit[tag]) {
			return tag, true
		}
	}

	men := c.inferenceHits(text, TagMen)
	women := c.inferenceHits(text, TagWomen)
	switch {
	case men > women:
		return TagMen, true
	case women > men:
		return TagWomen, true
	}
	return "", false
}

// inferenceHits counts non-explicit keywords of tag present in text.
func (c *Classifier) inferenceHits(text string, tag Tag) int {
	hits := 0
	for _, keyword := range c.keywords.categories[tag] {
		if c.keywords.isExplicit(tag, keyword) {
			continue
		}
		if c.mode.contains(text, keyword) {
			hits++
		}
	}
	return hits
}

func blob(in Input) string {
	parts := []string{in.Name, in.Description, in.Brand, strings.Join(in.Tags, " ")}
	return strings.ToLower(strings.Join(parts, " "))
}
