package table

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// DefaultPageSize is used when a page size is missing or invalid.
const DefaultPageSize = 10

// PageSizeOptions are the page sizes offered by every table view.
var PageSizeOptions = []int{5, 10, 15, 20, 25, 50, 100}

// Sort returns a stably sorted copy of records. Keys declared numeric in
// schema compare as float64; other keys compare raw strings. An unknown key
// returns the input order unchanged.
func Sort[R Record](records []R, schema Schema, key string, ascending bool) []R {
	out := slices.Clone(records)
	col, ok := schema.Column(key)
	if !ok {
		return out
	}

	compare := func(a, b R) int {
		if col.Numeric {
			return cmp.Compare(a.Get(key).Float(), b.Get(key).Float())
		}
		return strings.Compare(a.Get(key).String(), b.Get(key).String())
	}

	slices.SortStableFunc(out, func(a, b R) int {
		if ascending {
			return compare(a, b)
		}
		return compare(b, a)
	})
	return out
}

// Filter returns the records where any field contains query, ignoring case.
// An empty query matches every record.
func Filter[R Record](records []R, query string) []R {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(records)
	}

	out := make([]R, 0, len(records))
	for _, r := range records {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r Record, q string) bool {
	for _, f := range r.Fields() {
		if strings.Contains(strings.ToLower(r.Get(f).String()), q) {
			return true
		}
	}
	return false
}

// Page is one slice of a table plus the metadata needed to render its pager.
type Page[R Record] struct {
	Records []R    `json:"records"`
	Page    int    `json:"page"`
	Size    int    `json:"size"`
	Total   int    `json:"total"`
	Pages   int    `json:"pages"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Window  []int  `json:"window"`
	Summary string `json:"summary"`
}

// PageCount returns how many pages of size hold total records.
func PageCount(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Paginate returns the page-th page of records. An out-of-range page resets
// to page 1, so the returned slice is always within bounds.
func Paginate[R Record](records []R, size, page int) Page[R] {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(records)
	pages := PageCount(total, size)
	if page < 1 || page > pages {
		page = 1
	}

	start := (page - 1) * size
	end := min(start+size, total)

	return Page[R]{
		Records: slices.Clone(records[start:end]),
		Page:    page,
		Size:    size,
		Total:   total,
		Pages:   pages,
		Start:   start,
		End:     end,
		Window:  PageWindow(page, pages),
		Summary: Summary(start, end, total),
	}
}

// PageWindow returns up to five page numbers centred on current.
func PageWindow(current, pages int) []int {
	if pages <= 0 {
		return []int{}
	}
	const width = 5

	var first int
	switch {
	case current <= 3:
		first = 1
	case current > pages-2:
		first = pages - width + 1
	default:
		first = current - 2
	}
	first = max(first, 1)
	last := min(first+width-1, pages)

	out := make([]int, 0, width)
	for p := first; p <= last; p++ {
		out = append(out, p)
	}
	return out
}

// Summary renders the "Showing a to b of n entries" line.
func Summary(start, end, total int) string {
	if total == 0 {
		return "Showing 0 to 0 of 0 entries"
	}
	return fmt.Sprintf("Showing %d to %d of %d entries", start+1, end, total)
}

// Pager tracks the current page and size of a table view.
type Pager struct {
	Page int
	Size int
}

// SetSize changes the page size, returning to page 1 when the current offset
// would fall outside total.
func (p *Pager) SetSize(size, total int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	p.Size = size
	if p.Page < 1 || (p.Page-1)*size >= total {
		p.Page = 1
	}
}

// Query describes a table request coming from the UI.
type Query struct {
	Search    string
	SortKey   string
	Ascending bool
	Page      int
	Size      int
}

// View applies filter, sort and pagination in that order.
func View[R Record](records []R, schema Schema, q Query) Page[R] {
	rows := Filter(records, q.Search)
	if q.SortKey != "" {
		rows = Sort(rows, schema, q.SortKey, q.Ascending)
	}
	return Paginate(rows, q.Size, q.Page)
}
