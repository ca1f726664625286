package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is a signed amount in minor units (cents). Entity amounts are always
// positive; account balances may go negative.
type Money struct {
	Cents int64
}

// Cents is a shorthand constructor used throughout tests and fixtures.
func Cents(c int64) Money { return Money{Cents: c} }

// Validate requires a strictly positive amount.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsNegative() bool  { return m.Cents < 0 }

// ClampZero returns m, or zero when m is negative.
func (m Money) ClampZero() Money {
	if m.Cents < 0 {
		return Money{}
	}
	return m
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// MaxCents bounds the magnitude of any parsed amount so that balance and
// budget arithmetic cannot overflow int64.
const MaxCents int64 = 1_000_000_000_000_000

// FromDecimal rounds d half away from zero to the nearest cent. Amounts whose
// magnitude exceeds MaxCents are rejected with ErrInvalidAmount.
func FromDecimal(d decimal.Decimal) (Money, error) {
	c := d.Shift(2).Round(0).BigInt()
	if !c.IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	cents := c.Int64()
	if cents > MaxCents || cents < -MaxCents {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// ParseAmount parses a strictly positive amount. Both dot (12.34) and comma
// (12,34) decimal separators are accepted; signs are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
//	ParseAmount("-1")     -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	m, err := ParseSignedAmount(s)
	if err != nil {
		return Money{}, err
	}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// ParseSignedAmount parses any amount, including zero and negatives. Used for
// account balances.
func ParseSignedAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// MarshalJSON encodes the amount as a quoted decimal string ("12.34").
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted decimal string or a bare JSON number.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Format renders the amount for display in the given ISO currency, e.g.
// "$1,234.50". Unknown codes fall back to USD.
func (m Money) Format(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	cur := money.GetCurrency(code)
	if cur == nil {
		code = money.USD
		cur = money.GetCurrency(code)
	}
	minor := m.Decimal().Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "$",
}

// CurrencySymbol returns the display symbol for the five supported codes and
// "$" for anything else.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return s
	}
	return "$"
}
