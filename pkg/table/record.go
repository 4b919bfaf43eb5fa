// Package table implements sorting, filtering, pagination and grouping over
// display rows. Every trading view in the portal runs through it.
package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the dynamic type carried by a Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a single cell of a Record.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

// String builds a string cell.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number builds a numeric cell.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Bool builds a boolean cell.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// String renders the cell the way it is displayed and searched.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// Float coerces the cell to a number. Anything unparsable is 0, and so are
// NaN and the infinities. Grouped digits like "1,000" do not parse.
func (v Value) Float() float64 {
	var f float64
	switch v.Kind {
	case KindNumber:
		f = v.Num
	case KindBool:
		if v.Bool {
			f = 1
		}
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0
		}
		f = n
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Record is a denormalized display row.
type Record interface {
	// Fields returns field names in display order.
	Fields() []string
	// Get returns the named field; unknown names yield the empty Value.
	Get(field string) Value
}

// Column describes one sortable column of a view.
type Column struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Numeric bool   `json:"numeric"`
}

// Schema lists the columns of a view.
type Schema []Column

// Column looks up a column by key.
func (s Schema) Column(key string) (Column, bool) {
	for _, c := range s {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Columns builds a Schema from keys, marking the numeric ones.
func Columns(keys []string, numeric ...string) Schema {
	num := make(map[string]struct{}, len(numeric))
	for _, k := range numeric {
		num[k] = struct{}{}
	}
	s := make(Schema, 0, len(keys))
	for _, k := range keys {
		_, isNum := num[k]
		s = append(s, Column{Key: k, Label: k, Numeric: isNum})
	}
	return s
}

// Map is a Record backed by a map, used for ad-hoc rows and tests.
type Map struct {
	Order  []string
	Values map[string]Value
}

// Fields implements Record.
func (m Map) Fields() []string { return m.Order }

// Get implements Record.
func (m Map) Get(field string) Value { return m.Values[field] }
