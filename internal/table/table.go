// Package table implements the sort, filter and search state shared by the
// customer table and the product grid. A View holds the loaded rows and the
// current settings; Compute derives what should be rendered. Views never
// mutate their rows.
package table

import (
	"slices"
	"strings"
)

// All is the category value that disables category filtering.
const All = "All"

// Column describes one sortable column.
type Column[T any] struct {
	Key   string
	Label string
	Value func(T) Value
}

// Config describes the rows a View manages.
type Config[T any] struct {
	// ID returns the stable identifier of a row.
	ID      func(T) int
	Columns []Column[T]
	// SearchFields return the texts the search string is matched against.
	// List fields are joined with "," without spaces.
	SearchFields []func(T) string
	// Category returns the value matched by the category filter. Nil
	// disables category filtering.
	Category    func(T) string
	DefaultSort Sort
}

// Sort is the active sort column and direction.
type Sort struct {
	Column string
	Asc    bool
}

// Filter is the active search text and category.
type Filter struct {
	Search   string
	Category string
}

// State distinguishes why a computed view may have no rows.
type State int

const (
	StateNotLoaded State = iota
	StateEmpty
	StateNoResults
	StateReady
)

func (s State) String() string {
	switch s {
	case StateNotLoaded:
		return "not_loaded"
	case StateEmpty:
		return "empty"
	case StateNoResults:
		return "no_results"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Header is one rendered column header.
type Header struct {
	Key       string
	Label     string
	Indicator string
	Active    bool
}

// Result is the render input computed from a View.
type Result[T any] struct {
	Rows    []T
	State   State
	Sort    Sort
	Filter  Filter
	Headers []Header
	// Total is the number of loaded rows before filtering.
	Total int
}

// View is the table state for one set of rows.
type View[T any] struct {
	cfg    Config[T]
	rows   []T
	loaded bool
	sort   Sort
	filter Filter
	marks  map[int]bool
}

// New creates an unloaded View.
func New[T any](cfg Config[T]) *View[T] {
	return &View[T]{
		cfg:    cfg,
		sort:   cfg.DefaultSort,
		filter: Filter{Category: All},
		marks:  map[int]bool{},
	}
}

// Load replaces the rows and marks the view loaded, even for an empty slice.
func (v *View[T]) Load(rows []T) {
	v.rows = slices.Clone(rows)
	v.loaded = true
}

// Loaded reports whether Load has been called since creation or Reset.
func (v *View[T]) Loaded() bool { return v.loaded }

// Reset drops the rows and returns the view to its initial state.
func (v *View[T]) Reset() {
	v.rows = nil
	v.loaded = false
	v.sort = v.cfg.DefaultSort
	v.filter = Filter{Category: All}
	clear(v.marks)
}

// Rows returns the loaded rows in source order.
func (v *View[T]) Rows() []T { return slices.Clone(v.rows) }

// Sort returns the active sort.
func (v *View[T]) Sort() Sort { return v.sort }

// Filter returns the active filter.
func (v *View[T]) Filter() Filter { return v.filter }

// SetSort toggles the direction when key is already the sort column and
// otherwise sorts ascending by key.
func (v *View[T]) SetSort(key string) {
	if v.sort.Column == key {
		v.sort.Asc = !v.sort.Asc
		return
	}
	v.sort = Sort{Column: key, Asc: true}
}

// SortBy sets the sort column and direction.
func (v *View[T]) SortBy(key string, asc bool) { v.sort = Sort{Column: key, Asc: asc} }

// ColumnKeys returns the column keys in display order.
func (v *View[T]) ColumnKeys() []string {
	keys := make([]string, 0, len(v.cfg.Columns))
	for _, c := range v.cfg.Columns {
		keys = append(keys, c.Key)
	}
	return keys
}

// SetSearch replaces the search text.
func (v *View[T]) SetSearch(search string) { v.filter.Search = search }

// SetCategory replaces the category filter. An empty category means All.
func (v *View[T]) SetCategory(category string) {
	if category == "" {
		category = All
	}
	v.filter.Category = category
}

// ApplyFilter replaces both the search text and the category.
func (v *View[T]) ApplyFilter(search, category string) {
	v.SetSearch(search)
	v.SetCategory(category)
}

// Mark adds row-level state for id. Marking twice is a no-op.
func (v *View[T]) Mark(id int) { v.marks[id] = true }

// Has reports whether a loaded row has id.
func (v *View[T]) Has(id int) bool {
	if v.cfg.ID == nil {
		return false
	}
	return slices.ContainsFunc(v.rows, func(r T) bool { return v.cfg.ID(r) == id })
}

// Unmark removes the row-level state for id.
func (v *View[T]) Unmark(id int) { delete(v.marks, id) }

// Marked reports whether id is marked.
func (v *View[T]) Marked(id int) bool { return v.marks[id] }

// Marks returns the marked ids in ascending order.
func (v *View[T]) Marks() []int {
	ids := make([]int, 0, len(v.marks))
	for id := range v.marks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Categories returns the sorted distinct categories of the loaded rows.
func (v *View[T]) Categories() []string {
	if v.cfg.Category == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, r := range v.rows {
		c := v.cfg.Category(r)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// SortIndicator returns the header arrow for key.
func (v *View[T]) SortIndicator(key string) string {
	if v.sort.Column != key {
		return ""
	}
	if v.sort.Asc {
		return "▲"
	}
	return "▼"
}

// Headers returns the column headers with their sort indicators.
func (v *View[T]) Headers() []Header {
	out := make([]Header, 0, len(v.cfg.Columns))
	for _, c := range v.cfg.Columns {
		out = append(out, Header{
			Key:       c.Key,
			Label:     c.Label,
			Indicator: v.SortIndicator(c.Key),
			Active:    v.sort.Column == c.Key,
		})
	}
	return out
}

// Column returns the column with the given key.
func (v *View[T]) Column(key string) (Column[T], bool) {
	for _, c := range v.cfg.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

// Compute filters, then sorts, the loaded rows.
func (v *View[T]) Compute() Result[T] {
	res := Result[T]{
		Sort:    v.sort,
		Filter:  v.filter,
		Headers: v.Headers(),
		Total:   len(v.rows),
	}

	switch {
	case !v.loaded:
		res.State = StateNotLoaded
		return res
	case len(v.rows) == 0:
		res.State = StateEmpty
		return res
	}

	rows := make([]T, 0, len(v.rows))
	for _, r := range v.rows {
		if v.matches(r) {
			rows = append(rows, r)
		}
	}

	if col, ok := v.Column(v.sort.Column); ok {
		slices.SortStableFunc(rows, func(a, b T) int {
			return Compare(col, a, b, v.sort.Asc)
		})
	}

	res.Rows = rows
	res.State = StateReady
	if len(rows) == 0 {
		res.State = StateNoResults
	}
	return res
}

func (v *View[T]) matches(r T) bool {
	if v.cfg.Category != nil && v.filter.Category != All && v.filter.Category != "" {
		if v.cfg.Category(r) != v.filter.Category {
			return false
		}
	}

	needle := strings.ToLower(strings.TrimSpace(v.filter.Search))
	if needle == "" {
		return true
	}
	for _, field := range v.cfg.SearchFields {
		if strings.Contains(strings.ToLower(field(r)), needle) {
			return true
		}
	}
	return false
}

// Compare orders a and b by col, reversed when asc is false.
func Compare[T any](col Column[T], a, b T, asc bool) int {
	var c int
	if col.Value != nil {
		c = compareValues(col.Value(a), col.Value(b))
	}
	if !asc {
		return -c
	}
	return c
}
