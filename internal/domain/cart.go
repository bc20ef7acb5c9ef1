package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LineKey identifies a cart line. The same product in two presentations is
// two lines.
type LineKey struct {
	ProductID    int64
	Presentation string
}

func (k LineKey) String() string {
	return strconv.FormatInt(k.ProductID, 10) + ":" + k.Presentation
}

// ParseLineKey is the inverse of LineKey.String.
func ParseLineKey(s string) (LineKey, error) {
	id, pres, ok := strings.Cut(s, ":")
	if !ok || pres == "" {
		return LineKey{}, fmt.Errorf("invalid line key %q", s)
	}
	productID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return LineKey{}, fmt.Errorf("invalid line key %q: %w", s, err)
	}
	return LineKey{ProductID: productID, Presentation: pres}, nil
}

// MaxQuantity is the largest quantity an order line can store.
const MaxQuantity = math.MaxInt32

// CartLine is a product snapshot taken when it was first added. UnitPrice is
// never re-read from the catalog.
type CartLine struct {
	Product      Product `json:"product"`
	Quantity     int     `json:"quantity"`
	Presentation string  `json:"presentation"`
	UnitPrice    Money   `json:"unit_price"`
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.Product.ID, Presentation: l.Presentation}
}

func (l CartLine) Subtotal() Money {
	return l.UnitPrice.Times(l.Quantity)
}
