package networth

import "github.com/shopspring/decimal"

// Quantity is an exact number of units of an asset. On-chain quantities have
// up to 18 fractional digits, so it is backed by an arbitrary-precision
// decimal rather than a float: replaying the same log twice must not drift.
type Quantity struct {
	value decimal.Decimal
}

// Q builds a Quantity from a numeric constant.
func Q[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64](value T) Quantity {
	switch v := any(value).(type) {
	case float32:
		return Quantity{value: decimal.NewFromFloat32(v)}
	case float64:
		return Quantity{value: decimal.NewFromFloat(v)}
	case int:
		return Quantity{value: decimal.NewFromInt(int64(v))}
	case int32:
		return Quantity{value: decimal.NewFromInt32(v)}
	case int64:
		return Quantity{value: decimal.NewFromInt(v)}
	case uint:
		return Quantity{value: decimal.NewFromUint64(uint64(v))}
	case uint32:
		return Quantity{value: decimal.NewFromUint64(uint64(v))}
	case uint64:
		return Quantity{value: decimal.NewFromUint64(v)}
	default:
		panic("unsupported type")
	}
}

// ParseQuantity parses the decimal string representation of a quantity.
func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{value: d}, nil
}

func (q Quantity) Add(p Quantity) Quantity { return Quantity{value: q.value.Add(p.value)} }
func (q Quantity) Sub(p Quantity) Quantity { return Quantity{value: q.value.Sub(p.value)} }
func (q Quantity) Mul(p Quantity) Quantity { return Quantity{value: q.value.Mul(p.value)} }
func (q Quantity) Div(p Quantity) Quantity { return Quantity{value: q.value.Div(p.value)} }
func (q Quantity) Neg() Quantity           { return Quantity{value: q.value.Neg()} }

func (q Quantity) Equal(p Quantity) bool       { return q.value.Equal(p.value) }
func (q Quantity) LessThan(p Quantity) bool    { return q.value.LessThan(p.value) }
func (q Quantity) GreaterThan(p Quantity) bool { return q.value.GreaterThan(p.value) }
func (q Quantity) IsZero() bool                { return q.value.IsZero() }
func (q Quantity) IsNegative() bool            { return q.value.IsNegative() }
func (q Quantity) IsPositive() bool            { return q.value.IsPositive() }

// Round returns the quantity rounded to the given number of fractional digits.
func (q Quantity) Round(places int32) Quantity { return Quantity{value: q.value.Round(places)} }

// Float64 returns the nearest float64. Only for valuation math, where float
// precision is acceptable; never feed the result back into a Quantity.
func (q Quantity) Float64() float64 { return q.value.InexactFloat64() }

func (q Quantity) String() string { return q.value.String() }

// MarshalJSON implements json.Marshaler.
func (q Quantity) MarshalJSON() ([]byte, error) { return q.value.MarshalJSON() }

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(b []byte) error { return q.value.UnmarshalJSON(b) }
