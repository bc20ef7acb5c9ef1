package catalog

import (
	"strings"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

// AllCategories is the sidebar entry that disables the category filter.
const AllCategories = "Todos"

type Query struct {
	Text     string
	Category string
}

// Filter returns the products matching both the text and the category, in
// catalog order. The text is matched as typed, spaces included.
func Filter(products []domain.Product, q Query) []domain.Product {
	needle := strings.ToLower(q.Text)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matchesCategory(p, q.Category) && matchesText(p, needle) {
			out = append(out, p)
		}
	}
	return out
}

func matchesCategory(p domain.Product, category string) bool {
	return category == "" || category == AllCategories || p.Category == category
}

func matchesText(p domain.Product, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.SKU), needle)
}

// Categories lists distinct categories in first-seen order, led by
// AllCategories.
func Categories(products []domain.Product) []string {
	seen := map[string]bool{}
	out := []string{AllCategories}
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}
