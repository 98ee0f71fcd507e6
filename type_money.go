package networth

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is a monetary amount in a named currency. It is a display and
// exchange type: the engine itself aggregates in float64 EUR and wraps the
// result in Money at the reporting boundary.
type Money struct {
	value decimal.Decimal
	cur   string
}

// M builds a Money amount from a float value and an ISO currency code.
func M(value float64, currency string) Money {
	return Money{value: decimal.NewFromFloat(value), cur: currency}
}

// EUR builds a EUR amount. Principal, fees, taxes and dividends are all
// EUR-denominated.
func EUR(value float64) Money { return M(value, money.EUR) }

// Currency returns the ISO currency code.
func (m Money) Currency() string { return m.cur }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.value.IsZero() }

// Float64 returns the nearest float64 of the amount.
func (m Money) Float64() float64 { return m.value.InexactFloat64() }

// Add returns m+n. The currencies must match (an empty currency is weak and
// takes the other's).
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }

// Sub returns m-n.
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch " + a.cur + " != " + b.cur)
	}
	return a.cur
}

// currency resolves the full go-money currency, never nil.
func (m Money) currency() *money.Currency {
	return money.New(0, m.cur).Currency()
}

// String formats the amount with its currency symbol and grouping, e.g.
// "€1,234.56".
func (m Money) String() string {
	c := m.currency()
	minor := m.value.Shift(int32(c.Fraction)).Round(0)
	return money.New(minor.IntPart(), m.cur).Display()
}

// SignedString is String with an explicit sign, and "-" for zero.
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// roundCents rounds a float64 EUR aggregate to cents, the precision used in
// snapshot rows.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
