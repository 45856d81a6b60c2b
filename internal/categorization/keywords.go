// Package categorization assigns products to a gender category and an optional
// product-type category from their free text, creating categories on demand.
package categorization

// Tag names a category the classifier can assign.
type Tag string

const (
	TagMen         Tag = "men"
	TagWomen       Tag = "women"
	TagKids        Tag = "kids"
	TagUnisex      Tag = "unisex"
	TagAccessories Tag = "accessories"
	TagFootwear    Tag = "footwear"
	TagBags        Tag = "bags"
)

// KeywordSet is the immutable keyword table driving classification.
type KeywordSet struct {
	categories map[Tag][]string
	// explicit holds the gender markers that override keyword inference.
	explicit       map[Tag][]string
	genderOrder    []Tag
	secondaryOrder []Tag
}

// Keywords returns a copy of the keyword list for tag.
func (k *KeywordSet) Keywords(tag Tag) []string {
	return append([]string(nil), k.categories[tag]...)
}

// ExplicitGender returns a copy of the explicit gender markers for tag.
func (k *KeywordSet) ExplicitGender(tag Tag) []string {
	return append([]string(nil), k.explicit[tag]...)
}

// GenderOrder is the priority order of the gender pass.
func (k *KeywordSet) GenderOrder() []Tag {
	return append([]Tag(nil), k.genderOrder...)
}

// SecondaryOrder is the declaration order of the product-type pass.
func (k *KeywordSet) SecondaryOrder() []Tag {
	return append([]Tag(nil), k.secondaryOrder...)
}

func (k *KeywordSet) isExplicit(tag Tag, keyword string) bool {
	for _, marker := range k.explicit[tag] {
		if marker == keyword {
			return true
		}
	}
	return false
}

// DefaultKeywords returns the storefront's clothing keyword table.
//
// Several entries are short enough to occur inside unrelated words ("cap" in
// "escape", "ring" in "spring", "men" in "women"). Substring matching keeps
// those false positives; word-start matching removes most of them.
func DefaultKeywords() *KeywordSet {
	return &KeywordSet{
		categories: map[Tag][]string{
			TagMen: {
				"men", "men's", "male", "guy", "gentleman", "mens", "man's", "mans",
				"shirt", "t-shirt", "tshirt", "polo", "formal", "casual", "jeans", "trousers",
				"pants", "shorts", "jacket", "blazer", "suit", "tie", "belt", "shoes",
				"sneakers", "boots", "loafers", "oxfords", "watch", "wallet", "bag",
				"backpack", "briefcase", "sweater", "hoodie", "sweatshirt", "vest",
				"waistcoat", "cardigan", "pullover", "jumper", "tank", "singlet",
			},
			TagWomen: {
				"women", "women's", "female", "lady", "ladies", "womens", "woman's", "womans",
				"dress", "skirt", "blouse", "top", "tank", "cami", "cardigan", "sweater",
				"jumper", "pullover", "hoodie", "sweatshirt", "jacket", "coat", "blazer",
				"jeans", "pants", "trousers", "leggings", "shorts", "shoes", "heels",
				"flats", "sneakers", "boots", "sandals", "pumps", "stilettos", "wedges",
				"bag", "purse", "handbag", "clutch", "tote", "backpack", "jewelry",
				"necklace", "earrings", "bracelet", "ring", "watch", "scarf", "shawl",
				"wrap", "kimono", "maxi", "mini", "midi", "bodycon", "a-line", "fit-and-flare",
			},
			TagKids: {
				"kids", "kid's", "children", "child", "baby", "infant", "toddler",
				"boys", "boy's", "girls", "girl's", "junior", "youth", "teen",
				"school", "uniform", "play", "toy", "diaper", "onesie", "romper",
			},
			TagAccessories: {
				"accessory", "accessories", "jewelry", "watch", "necklace", "earrings",
				"bracelet", "ring", "anklet", "brooch", "pin", "scarf", "shawl",
				"belt", "wallet", "bag", "purse", "handbag", "clutch", "tote",
				"backpack", "briefcase", "duffel", "luggage", "suitcase", "hat",
				"cap", "beanie", "sunglasses", "glasses", "umbrella", "tie",
				"bow tie", "cufflinks", "socks", "stockings", "tights", "gloves",
				"mittens", "mask", "bandana", "headband", "hair", "wig", "perfume",
				"cologne", "fragrance", "cosmetics", "makeup", "skincare",
			},
			TagFootwear: {
				"shoes", "footwear", "sneakers", "boots", "sandals", "flats",
				"heels", "pumps", "stilettos", "wedges", "loafers", "oxfords",
				"derby", "chelsea", "ankle", "knee-high", "thigh-high", "mules",
				"clogs", "espadrilles", "ballet", "jelly", "slides", "slippers",
				"athletic", "running", "training", "gym", "sports", "hiking",
				"work", "safety", "dress", "casual", "formal", "party", "wedding",
			},
			TagBags: {
				"bag", "bags", "purse", "handbag", "clutch", "tote", "backpack",
				"briefcase", "duffel", "luggage", "suitcase", "travel", "messenger",
				"crossbody", "shoulder", "hobo", "satchel", "bucket", "barrel",
				"doctor", "laptop", "gym", "beach", "picnic", "shopping", "grocery",
			},
		},
		explicit: map[Tag][]string{
			TagMen:   {"men", "men's", "male", "guy", "gentleman", "mens", "man's", "mans"},
			TagWomen: {"women", "women's", "female", "lady", "ladies", "womens", "woman's", "womans"},
			TagKids:  {"kids", "kid's", "children", "child", "baby", "infant", "toddler", "boys", "boy's", "girls", "girl's"},
		},
		genderOrder:    []Tag{TagMen, TagWomen, TagKids},
		secondaryOrder: []Tag{TagAccessories, TagFootwear, TagBags},
	}
}
