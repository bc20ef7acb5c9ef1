package domain

// DefaultPresentation is the unit of sale used when neither the catalog nor
// the shopper names one.
const DefaultPresentation = "UNIDAD"

type Product struct {
	ID                   int64  `json:"id"`
	ERPID                int64  `json:"erp_id"`
	Name                 string `json:"name"`
	Price                Money  `json:"price"`
	Stock                int    `json:"stock"`
	Category             string `json:"category"`
	SKU                  string `json:"sku"`
	Description          string `json:"description,omitempty"`
	ImageURL             string `json:"image_url,omitempty"`
	Presentation         string `json:"presentation"`
	IsGeneric            bool   `json:"is_generic"`
	RequiresPrescription bool   `json:"requires_prescription"`
}

// DefaultPresentation returns the product's unit of sale, or
// DefaultPresentation when the catalog left it blank.
func (p Product) DefaultPresentation() string {
	if p.Presentation == "" {
		return DefaultPresentation
	}
	return p.Presentation
}
