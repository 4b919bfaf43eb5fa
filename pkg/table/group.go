package table

import "encoding/json"

// Groups is an insertion-ordered partition of records by key.
type Groups[R any] struct {
	keys []string
	m    map[string][]R
}

// NewGroups returns an empty Groups.
func NewGroups[R any]() *Groups[R] {
	return &Groups[R]{m: make(map[string][]R)}
}

// Add appends r under key, recording key on first sight.
func (g *Groups[R]) Add(key string, r R) {
	if _, ok := g.m[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.m[key] = append(g.m[key], r)
}

// Keys returns the keys in first-seen order.
func (g *Groups[R]) Keys() []string { return g.keys }

// Get returns the records under key.
func (g *Groups[R]) Get(key string) []R { return g.m[key] }

// Len returns the number of keys.
func (g *Groups[R]) Len() int { return len(g.keys) }

// Group is one key of a Groups with its records.
type Group[R any] struct {
	Key     string `json:"key"`
	Records []R    `json:"records"`
}

// List flattens the groups preserving key order.
func (g *Groups[R]) List() []Group[R] {
	out := make([]Group[R], 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, Group[R]{Key: k, Records: g.m[k]})
	}
	return out
}

// MarshalJSON encodes the groups as an ordered list, since JSON objects do not
// keep key order.
func (g *Groups[R]) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.List())
}

// GroupBy partitions records by keyFn, keeping first-seen key order.
func GroupBy[R any](records []R, keyFn func(R) string) *Groups[R] {
	g := NewGroups[R]()
	for _, r := range records {
		g.Add(keyFn(r), r)
	}
	return g
}

// GroupByField partitions records by the string form of field.
func GroupByField[R Record](records []R, field string) *Groups[R] {
	return GroupBy(records, func(r R) string { return r.Get(field).String() })
}
