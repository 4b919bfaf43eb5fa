package directus

import (
	"net/url"
	"strconv"
	"strings"
)

// Query builds the fixed predicate strings Directus accepts:
// filter[a][b][_op]=v, sort[]=, fields= and limit=. Parts keep the order
// they were added in.
type Query struct {
	parts []string
}

func NewQuery() *Query {
	return &Query{}
}

// Filter adds a predicate on a dotted field path, e.g.
// Filter("counterparty_id.ticker", "_eq", "JABRA").
func (q *Query) Filter(field, op, value string) *Query {
	var b strings.Builder
	b.WriteString("filter")
	for _, seg := range strings.Split(field, ".") {
		b.WriteString("[" + seg + "]")
	}
	b.WriteString("[" + op + "]=")
	b.WriteString(url.QueryEscape(value))
	q.parts = append(q.parts, b.String())
	return q
}

// Sort adds one sort[] entry per field. A leading "-" sorts descending.
func (q *Query) Sort(fields ...string) *Query {
	for _, f := range fields {
		q.parts = append(q.parts, "sort[]="+url.QueryEscape(f))
	}
	return q
}

// Limit caps the number of items. -1 asks for every item.
func (q *Query) Limit(n int) *Query {
	q.parts = append(q.parts, "limit="+strconv.Itoa(n))
	return q
}

// Fields sets the field selection. Spaces from the field builders are dropped.
func (q *Query) Fields(fields string) *Query {
	if fields == "" {
		return q
	}
	q.parts = append(q.parts, "fields="+url.QueryEscape(strings.ReplaceAll(fields, " ", "")))
	return q
}

// Encode renders the query without the leading "?".
func (q *Query) Encode() string {
	if q == nil {
		return ""
	}
	return strings.Join(q.parts, "&")
}

// List joins values for _in predicates.
func List(values []string) string {
	return strings.Join(values, ",")
}
