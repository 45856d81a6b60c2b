package models

// Category groups products. Slug is unique across all categories.
type Category struct {
	BaseModel
	Name        string `json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsActive    bool   `gorm:"index" json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}
