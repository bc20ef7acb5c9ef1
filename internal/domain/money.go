package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (céntimos). Arithmetic stays integral;
// decimal text only appears at the storage, wire and message boundaries.
type Money int64

// MaxStoredMoney is the largest amount a NUMERIC(12,2) column holds.
const MaxStoredMoney Money = 999_999_999_999

// ParseMoney converts decimal text such as "15.50" into Money, rounding half
// away from zero to two places.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", s, err)
	}
	return moneyFromDecimal(d), nil
}

// MustMoney is ParseMoney for literals known to be valid.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func moneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(2).Round(0).IntPart())
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Times returns the amount multiplied by a quantity, clamped to the int64
// range instead of wrapping.
func (m Money) Times(qty int) Money {
	if m == 0 || qty == 0 {
		return 0
	}
	p := m * Money(qty)
	if p/Money(qty) != m || (qty == -1 && m == math.MinInt64) {
		return saturate((m < 0) != (qty < 0))
	}
	return p
}

// Plus returns m + o, clamped to the int64 range instead of wrapping.
func (m Money) Plus(o Money) Money {
	s := m + o
	if (o > 0 && s < m) || (o < 0 && s > m) {
		return saturate(o < 0)
	}
	return s
}

func saturate(negative bool) Money {
	if negative {
		return math.MinInt64
	}
	return math.MaxInt64
}

// String renders the amount with exactly two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("unmarshal money: %w", err)
	}
	*m = moneyFromDecimal(d)
	return nil
}

// Value stores Money in a NUMERIC(12,2) column.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan reads Money from a NUMERIC column.
func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	*m = moneyFromDecimal(d)
	return nil
}
