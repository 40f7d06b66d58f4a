package models

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a numeric cell that is either present or absent.
// The zero Value is absent, so an unset field can never be read as 0.
type Value struct {
	v  float64
	ok bool
}

// Num returns a present value. NaN and ±Inf are treated as absent.
func Num(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// Absent returns the missing-value marker.
func Absent() Value { return Value{} }

// Undefined is the ratio-side name for an absent value.
func Undefined() Value { return Value{} }

// Get returns the number and whether it is present.
func (v Value) Get() (float64, bool) { return v.v, v.ok }

// IsAbsent reports whether the value is missing.
func (v Value) IsAbsent() bool { return !v.ok }

// Or returns the number, or def when absent.
func (v Value) Or(def float64) float64 {
	if !v.ok {
		return def
	}
	return v.v
}

// Abs returns |v|, propagating absence.
func (v Value) Abs() Value {
	if !v.ok {
		return v
	}
	return Num(math.Abs(v.v))
}

// Add returns v + o; absent if either side is absent.
func (v Value) Add(o Value) Value {
	if !v.ok || !o.ok {
		return Value{}
	}
	return Num(v.v + o.v)
}

// Sub returns v - o; absent if either side is absent.
func (v Value) Sub(o Value) Value {
	if !v.ok || !o.ok {
		return Value{}
	}
	return Num(v.v - o.v)
}

// Mul returns v * o; absent if either side is absent.
func (v Value) Mul(o Value) Value {
	if !v.ok || !o.ok {
		return Value{}
	}
	return Num(v.v * o.v)
}

// Div returns v / o. Absent when either side is absent or o is exactly zero.
func (v Value) Div(o Value) Value {
	if !v.ok || !o.ok || o.v == 0 {
		return Value{}
	}
	return Num(v.v / o.v)
}

// String renders the number with full precision, or "N/A".
func (v Value) String() string {
	if !v.ok {
		return "N/A"
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// MarshalJSON encodes absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes null as absent.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Num(f)
	return nil
}
