package catalog

import (
	"strings"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

const (
	DefaultCategory      = "General"
	DefaultSKU           = "S/N"
	PrescriptionCategory = "Medicamentos"
)

// presentationKeywords are checked in order; the last match wins.
var presentationKeywords = []string{"CAJA", "FRASCO", "TUBO", "BOLSA"}

// InferPresentation guesses the unit of sale from the product name.
func InferPresentation(name string) string {
	upper := strings.ToUpper(name)
	presentation := domain.DefaultPresentation
	for _, kw := range presentationKeywords {
		if strings.Contains(upper, kw) {
			presentation = kw
		}
	}
	return presentation
}

// Enrich fills the fields the ERP cache commonly leaves blank. It returns a
// new slice.
func Enrich(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	for i, p := range products {
		if p.Category == "" {
			p.Category = DefaultCategory
		}
		if p.SKU == "" {
			p.SKU = DefaultSKU
		}
		if p.Presentation == "" {
			p.Presentation = InferPresentation(p.Name)
		}
		out[i] = p
	}
	return out
}
