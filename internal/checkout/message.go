package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

const (
	DefaultMessagingBaseURL = "https://wa.me"
	currencySymbol          = "S/"
)

// Reference derives the short human-facing order reference: the first
// dash-separated segment of the id, upper-cased. It is not unique.
func Reference(orderID string) string {
	first, _, _ := strings.Cut(orderID, "-")
	return strings.ToUpper(first)
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatMessage renders the order summary sent to the pharmacy.
func FormatMessage(company, reference string, form Form, lines []domain.CartLine, total domain.Money) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*NUEVO PEDIDO - %s*\n\n", company)
	fmt.Fprintf(&b, "*Ref:* #%s\n", reference)
	fmt.Fprintf(&b, "*Cliente:* %s\n", form.Name)
	fmt.Fprintf(&b, "*WhatsApp:* %s\n", form.Phone)
	fmt.Fprintf(&b, "*Dirección:* %s\n", form.Address)
	if form.Email != "" {
		fmt.Fprintf(&b, "*Email:* %s\n", form.Email)
	}
	b.WriteString("\n*Pedido:*\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "• %s [%s] (%d x %s %s)\n", l.Product.Name, l.Presentation, l.Quantity, currencySymbol, l.UnitPrice)
	}
	fmt.Fprintf(&b, "\n*Total:* %s %s\n\n", currencySymbol, total)
	fmt.Fprintf(&b, "_Pedido registrado en sistema %s_", company)
	return b.String()
}

// DeepLink builds <base>/<digits>?text=<message>, percent-encoding the text
// the way browsers encode a URI component.
func DeepLink(baseURL, phone, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return strings.TrimRight(baseURL, "/") + "/" + NormalizePhone(phone) + "?text=" + text
}
