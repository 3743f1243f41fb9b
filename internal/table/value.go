package table

import (
	"cmp"
	"strconv"
	"strings"
)

// Value is a single cell value: a string or an integer. The zero Value is
// an empty string and compares as 0 against numbers.
type Value struct {
	s       string
	n       int
	numeric bool
}

// String returns a string cell value.
func String(s string) Value { return Value{s: s} }

// Int returns a numeric cell value.
func Int(n int) Value { return Value{n: n, numeric: true} }

// Bool returns a numeric cell value of 1 for true and 0 for false.
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Numeric reports whether v holds an integer.
func (v Value) Numeric() bool { return v.numeric }

// Int returns the integer value, or 0 for strings.
func (v Value) Int() int { return v.n }

// Text renders the value for display.
func (v Value) Text() string {
	if v.numeric {
		return strconv.Itoa(v.n)
	}
	return v.s
}

// compareValues orders numerically when both sides are numeric and
// lexicographically otherwise.
func compareValues(a, b Value) int {
	if a.numeric && b.numeric {
		return cmp.Compare(a.n, b.n)
	}
	return strings.Compare(a.Text(), b.Text())
}
