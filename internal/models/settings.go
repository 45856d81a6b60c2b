package models

// WebsiteSettings stores storefront content managed via the admin panel.
// There should be only one row.
type WebsiteSettings struct {
	BaseModel
	SiteName        string     `json:"site_name"`
	SiteDescription string     `json:"site_description"`
	PrimaryColor    string     `json:"primary_color"`
	SecondaryColor  string     `json:"secondary_color"`
	Logo            string     `json:"logo"`
	ContactEmail    string     `json:"contact_email"`
	ContactPhone    string     `json:"contact_phone"`
	Address         string     `json:"address"`
	HeroImages      StringList `json:"hero_images"`
	Announcements   StringList `json:"announcements"`

	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Twitter   string `json:"twitter"`
	Youtube   string `json:"youtube"`
}
