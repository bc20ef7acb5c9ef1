package domain

type Banner struct {
	ImageURL string `json:"image_url"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Badge    string `json:"badge"`
}

// CompanyConfig is the singleton settings record: branding, contact numbers
// and promotional banners.
type CompanyConfig struct {
	CompanyName    string   `json:"company_name"`
	LogoURL        string   `json:"logo_url"`
	WhatsAppNumber string   `json:"whatsapp_number"`
	FacebookURL    string   `json:"facebook_url,omitempty"`
	InstagramURL   string   `json:"instagram_url,omitempty"`
	Banners        []Banner `json:"banners"`
}
