package dataset

import (
	"math"
	"strconv"
	"time"
)

// StatisticalType defines variable types for analysis
type StatisticalType string

const (
	TypeNumeric     StatisticalType = "numeric"
	TypeCategorical StatisticalType = "categorical"
	TypeTimestamp   StatisticalType = "timestamp"
)

// Value is a single cell. The zero Value is missing.
type Value struct {
	Num   float64   `json:"num,omitempty"`
	Text  string    `json:"text,omitempty"`
	Time  time.Time `json:"time,omitempty"`
	Valid bool      `json:"valid"`
}

// Number wraps a float; NaN and ±Inf become missing
func Number(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{Num: v, Valid: true}
}

// Text wraps a label; the empty string becomes missing
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Text: s, Valid: true}
}

// Time wraps a timestamp; the zero time becomes missing
func Time(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{Time: t, Valid: true}
}

// Missing returns the missing value
func Missing() Value { return Value{} }

// Column is an immutable, typed column of cells
type Column struct {
	Name   string
	Type   StatisticalType
	values []Value
}

// NewColumn builds a column from prepared values
func NewColumn(name string, typ StatisticalType, values []Value) *Column {
	cp := make([]Value, len(values))
	copy(cp, values)
	return &Column{Name: name, Type: typ, values: cp}
}

// NewNumericColumn builds a numeric column, NaN marks a missing cell
func NewNumericColumn(name string, values []float64) *Column {
	vals := make([]Value, len(values))
	for i, v := range values {
		vals[i] = Number(v)
	}
	return &Column{Name: name, Type: TypeNumeric, values: vals}
}

// NewCategoricalColumn builds a categorical column, "" marks a missing cell
func NewCategoricalColumn(name string, values []string) *Column {
	vals := make([]Value, len(values))
	for i, v := range values {
		vals[i] = Text(v)
	}
	return &Column{Name: name, Type: TypeCategorical, values: vals}
}

// NewTimestampColumn builds a timestamp column, the zero time marks a missing cell
func NewTimestampColumn(name string, values []time.Time) *Column {
	vals := make([]Value, len(values))
	for i, v := range values {
		vals[i] = Time(v)
	}
	return &Column{Name: name, Type: TypeTimestamp, values: vals}
}

// Len returns the number of cells
func (c *Column) Len() int { return len(c.values) }

// At returns the cell at row i
func (c *Column) At(i int) Value { return c.values[i] }

// IsMissing reports whether row i is missing
func (c *Column) IsMissing(i int) bool { return !c.values[i].Valid }

// MissingCount returns the number of missing cells
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.values {
		if !v.Valid {
			n++
		}
	}
	return n
}

// Floats returns the numeric cells with NaN for missing ones.
// Timestamps are returned as unix seconds, labels as NaN.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.values))
	for i, v := range c.values {
		switch {
		case !v.Valid:
			out[i] = math.NaN()
		case c.Type == TypeNumeric:
			out[i] = v.Num
		case c.Type == TypeTimestamp:
			out[i] = float64(v.Time.Unix())
		default:
			out[i] = math.NaN()
		}
	}
	return out
}

// Labels returns every cell rendered as a label, "" for missing ones
func (c *Column) Labels() []string {
	out := make([]string, len(c.values))
	for i, v := range c.values {
		out[i] = c.label(v)
	}
	return out
}

func (c *Column) label(v Value) string {
	if !v.Valid {
		return ""
	}
	switch c.Type {
	case TypeNumeric:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case TypeTimestamp:
		return v.Time.Format(time.RFC3339)
	default:
		return v.Text
	}
}
