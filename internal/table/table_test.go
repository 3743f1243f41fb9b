package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	id       int
	company  string
	industry string
	seats    int
	tags     []string
}

func accountConfig() Config[account] {
	return Config[account]{
		ID: func(a account) int { return a.id },
		Columns: []Column[account]{
			{Key: "company", Label: "Company", Value: func(a account) Value { return String(a.company) }},
			{Key: "industry", Label: "Industry", Value: func(a account) Value { return String(a.industry) }},
			{Key: "seats", Label: "Seats", Value: func(a account) Value { return Int(a.seats) }},
		},
		SearchFields: []func(account) string{
			func(a account) string { return a.company },
			func(a account) string { return a.industry },
			func(a account) string { return strings.Join(a.tags, ",") },
		},
		Category: func(a account) string { return a.industry },
	}
}

func companies(rows []account) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.company)
	}
	return out
}

func loadedView(rows ...account) *View[account] {
	v := New(accountConfig())
	v.Load(rows)
	return v
}

func TestView_SortSearchToggle(t *testing.T) {
	v := loadedView(
		account{id: 2, company: "Beta", industry: "Tech"},
		account{id: 1, company: "Acme", industry: "Retail"},
	)

	v.SetSort("company")
	assert.Equal(t, []string{"Acme", "Beta"}, companies(v.Compute().Rows))

	v.SetSearch("tech")
	assert.Equal(t, []string{"Beta"}, companies(v.Compute().Rows))

	v.SetSearch("")
	v.SetSort("company")
	res := v.Compute()
	assert.Equal(t, []string{"Beta", "Acme"}, companies(res.Rows))
	assert.Equal(t, Sort{Column: "company", Asc: false}, res.Sort)
}

func TestView_SetSort(t *testing.T) {
	tests := []struct {
		name  string
		start Sort
		key   string
		want  Sort
	}{
		{name: "new column sorts ascending", start: Sort{Column: "company", Asc: false}, key: "seats", want: Sort{Column: "seats", Asc: true}},
		{name: "same column toggles", start: Sort{Column: "company", Asc: true}, key: "company", want: Sort{Column: "company", Asc: false}},
		{name: "toggle back", start: Sort{Column: "company", Asc: false}, key: "company", want: Sort{Column: "company", Asc: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := accountConfig()
			cfg.DefaultSort = tt.start
			v := New(cfg)
			v.SetSort(tt.key)
			assert.Equal(t, tt.want, v.Sort())
		})
	}
}

func TestView_SortBy(t *testing.T) {
	v := loadedView(
		account{id: 1, company: "Acme", seats: 3},
		account{id: 2, company: "Beta", seats: 9},
	)

	v.SortBy("seats", false)
	assert.Equal(t, []string{"Beta", "Acme"}, companies(v.Compute().Rows))

	v.SortBy("seats", false)
	assert.Equal(t, Sort{Column: "seats", Asc: false}, v.Sort(), "SortBy does not toggle")
	assert.Equal(t, []string{"company", "industry", "seats"}, v.ColumnKeys())
}

func TestView_DoubleToggleRestoresOrder(t *testing.T) {
	v := loadedView(
		account{id: 1, company: "Cobalt", seats: 5},
		account{id: 2, company: "Acme", seats: 5},
		account{id: 3, company: "Beta", seats: 1},
	)

	v.SetSort("seats")
	first := companies(v.Compute().Rows)
	assert.Equal(t, []string{"Beta", "Cobalt", "Acme"}, first, "ties keep source order")

	v.SetSort("seats")
	v.SetSort("seats")
	assert.Equal(t, first, companies(v.Compute().Rows))
}

func TestView_NumericAndLexicalSort(t *testing.T) {
	v := loadedView(
		account{id: 1, company: "b", seats: 10},
		account{id: 2, company: "a", seats: 9},
		account{id: 3, company: "B", seats: 100},
	)

	v.SetSort("seats")
	assert.Equal(t, []string{"a", "b", "B"}, companies(v.Compute().Rows), "numbers compare numerically")

	v.SetSort("company")
	assert.Equal(t, []string{"B", "a", "b"}, companies(v.Compute().Rows))
}

func TestView_UnknownSortColumnIsNoOp(t *testing.T) {
	v := loadedView(
		account{id: 1, company: "Zed"},
		account{id: 2, company: "Acme"},
	)
	v.SetSort("missing")
	assert.Equal(t, []string{"Zed", "Acme"}, companies(v.Compute().Rows))
	assert.Equal(t, "▲", v.SortIndicator("missing"))
}

func TestView_Filter(t *testing.T) {
	rows := []account{
		{id: 1, company: "Acme", industry: "Retail", tags: []string{"brand visibility"}},
		{id: 2, company: "Beta", industry: "Tech"},
		{id: 3, company: "Gamma", industry: "Tech", tags: []string{"onboarding", "swag"}},
	}

	tests := []struct {
		name      string
		search    string
		category  string
		want      []string
		wantState State
	}{
		{name: "empty search matches all", want: []string{"Acme", "Beta", "Gamma"}, wantState: StateReady},
		{name: "case insensitive", search: "ACME", want: []string{"Acme"}, wantState: StateReady},
		{name: "list field", search: "swag", want: []string{"Gamma"}, wantState: StateReady},
		{name: "list separator", search: "onboarding,swag", want: []string{"Gamma"}, wantState: StateReady},
		{name: "surrounding spaces ignored", search: "  acme ", want: []string{"Acme"}, wantState: StateReady},
		{name: "category", category: "Tech", want: []string{"Beta", "Gamma"}, wantState: StateReady},
		{name: "category all", category: All, want: []string{"Acme", "Beta", "Gamma"}, wantState: StateReady},
		{name: "search and category", search: "brand", category: "Tech", want: []string{}, wantState: StateNoResults},
		{name: "no match", search: "zzz", want: []string{}, wantState: StateNoResults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := loadedView(rows...)
			v.ApplyFilter(tt.search, tt.category)
			res := v.Compute()
			assert.Equal(t, tt.want, companies(res.Rows))
			assert.Equal(t, tt.wantState, res.State)
			assert.Equal(t, 3, res.Total)
			assert.Len(t, v.Rows(), 3, "filtering never drops source rows")
		})
	}
}

func TestView_States(t *testing.T) {
	v := New(accountConfig())
	assert.False(t, v.Loaded())
	assert.Equal(t, StateNotLoaded, v.Compute().State)

	v.Load(nil)
	assert.True(t, v.Loaded())
	assert.Equal(t, StateEmpty, v.Compute().State)

	v.Load([]account{{id: 1, company: "Acme"}})
	assert.Equal(t, StateReady, v.Compute().State)

	v.SetSort("company")
	v.SetSearch("x")
	v.Mark(1)
	v.Reset()
	assert.False(t, v.Loaded())
	assert.Equal(t, Filter{Category: All}, v.Filter())
	assert.Empty(t, v.Marks())
}

func TestView_LoadCopiesRows(t *testing.T) {
	rows := []account{{id: 1, company: "Acme"}, {id: 2, company: "Beta"}}
	v := loadedView(rows...)
	v.SetSort("company")
	v.SetSort("company")
	_ = v.Compute()

	assert.Equal(t, "Acme", rows[0].company, "caller slice is untouched")
	assert.Equal(t, []string{"Acme", "Beta"}, companies(v.Rows()))
}

func TestView_Marks(t *testing.T) {
	v := New(accountConfig())
	v.Mark(3)
	v.Mark(1)
	v.Mark(3)
	assert.Equal(t, []int{1, 3}, v.Marks())
	assert.True(t, v.Marked(3))

	v.Unmark(3)
	assert.False(t, v.Marked(3))
}

func TestView_Has(t *testing.T) {
	v := New(accountConfig())
	assert.False(t, v.Has(1), "nothing is loaded")

	v.Load([]account{{id: 1, company: "Acme"}, {id: 2, company: "Beta"}})
	assert.True(t, v.Has(2))
	assert.False(t, v.Has(3))
}

func TestView_CategoriesAndHeaders(t *testing.T) {
	v := loadedView(
		account{id: 1, industry: "Tech"},
		account{id: 2, industry: "Retail"},
		account{id: 3, industry: "Tech"},
		account{id: 4},
	)
	assert.Equal(t, []string{"Retail", "Tech"}, v.Categories())

	v.SetSort("seats")
	v.SetSort("seats")
	headers := v.Headers()
	require.Len(t, headers, 3)
	assert.Equal(t, Header{Key: "seats", Label: "Seats", Indicator: "▼", Active: true}, headers[2])
	assert.Equal(t, "", headers[0].Indicator)
}

func TestCompare(t *testing.T) {
	col := Column[account]{Key: "seats", Value: func(a account) Value { return Int(a.seats) }}
	a, b := account{seats: 1}, account{seats: 2}

	assert.Negative(t, Compare(col, a, b, true))
	assert.Positive(t, Compare(col, a, b, false))
	assert.Zero(t, Compare(col, a, a, true))
	assert.Zero(t, Compare(Column[account]{}, a, b, true), "missing accessor compares equal")
}

func TestValue(t *testing.T) {
	assert.Equal(t, "", Value{}.Text())
	assert.Equal(t, 0, Value{}.Int())
	assert.Equal(t, "1", Bool(true).Text())
	assert.True(t, Bool(false).Numeric())
	assert.Equal(t, "42", Int(42).Text())
	assert.Equal(t, "x", String("x").Text())
}
