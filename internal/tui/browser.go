// Package tui is the terminal browser for the customer table and the
// product catalog. It drives the same catalog grids as the dashboard.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/salesdesk/internal/catalog"
	tbl "github.com/leapstack-labs/salesdesk/internal/table"
)

// Tab identifies the visible grid.
type Tab int

const (
	TabCustomers Tab = iota
	TabProducts
)

func (t Tab) String() string {
	if t == TabProducts {
		return "Products"
	}
	return "Customers"
}

// chromeHeight is the number of lines around the table: tabs, filter,
// status and help.
const chromeHeight = 7

var (
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Underline(true)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Model is the bubbletea model of the browser.
type Model struct {
	ctx       context.Context
	customers *catalog.CustomerGrid
	products  *catalog.ProductGrid

	tab           Tab
	table         table.Model
	filterInput   textinput.Model
	filterFocused bool

	// searches keeps the search text per tab.
	searches [2]string

	width  int
	height int
}

// New creates a browser over loaded grids. ctx is used for the cache reads
// behind the customer ready column.
func New(ctx context.Context, customers *catalog.CustomerGrid, products *catalog.ProductGrid) Model {
	fi := textinput.New()
	fi.Placeholder = "Search..."
	fi.Prompt = "/ "
	fi.CharLimit = 80
	fi.Width = 40

	m := Model{
		ctx:       ctx,
		customers: customers,
		products:  products,
		table: table.New(
			table.WithFocused(true),
			table.WithHeight(15),
		),
		filterInput: fi,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Tab returns the visible tab.
func (m Model) Tab() Tab { return m.tab }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		m.table.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.filterFocused {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "/":
			m.filterFocused = true
			m.filterInput.SetValue(m.searches[m.tab])
			m.filterInput.CursorEnd()
			cmd = m.filterInput.Focus()
			return m, cmd
		case "tab", "shift+tab":
			m.tab = (m.tab + 1) % 2
			m.filterInput.SetValue(m.searches[m.tab])
			m.refresh()
			return m, nil
		case "s":
			m.cycleSort()
			m.refresh()
			return m, nil
		case "r":
			m.reverseSort()
			m.refresh()
			return m, nil
		case "c":
			if m.tab == TabProducts {
				m.cycleCategory()
				m.refresh()
			}
			return m, nil
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterFocused = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.setSearch("")
		m.refresh()
		return m, nil
	case "enter":
		m.filterFocused = false
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.setSearch(m.filterInput.Value())
	m.refresh()
	return m, cmd
}

func (m *Model) setSearch(search string) {
	m.searches[m.tab] = search
	if m.tab == TabProducts {
		m.products.SetSearch(search)
		return
	}
	m.customers.SetSearch(search)
}

func (m *Model) sortState() (keys []string, current tbl.Sort) {
	if m.tab == TabProducts {
		v := m.products.View()
		return v.ColumnKeys(), v.Sort()
	}
	v := m.customers.View()
	return v.ColumnKeys(), v.Sort()
}

func (m *Model) sortBy(key string, asc bool) {
	if m.tab == TabProducts {
		m.products.View().SortBy(key, asc)
		return
	}
	m.customers.View().SortBy(key, asc)
}

// cycleSort moves the sort to the next column, ascending.
func (m *Model) cycleSort() {
	keys, current := m.sortState()
	if len(keys) == 0 {
		return
	}
	next := keys[(slices.Index(keys, current.Column)+1)%len(keys)]
	m.sortBy(next, true)
}

func (m *Model) reverseSort() {
	_, current := m.sortState()
	if current.Column == "" {
		return
	}
	m.sortBy(current.Column, !current.Asc)
}

// cycleCategory steps through All and then each category in order.
func (m *Model) cycleCategory() {
	v := m.products.View()
	options := append([]string{tbl.All}, v.Categories()...)
	i := slices.Index(options, v.Filter().Category)
	m.products.SetCategory(options[(i+1)%len(options)])
}

// refresh recomputes the table for the visible tab.
func (m *Model) refresh() {
	var (
		cols []table.Column
		rows []table.Row
	)
	if m.tab == TabProducts {
		cols, rows = productTable(m.products.Render())
	} else {
		cols, rows = customerTable(m.customers.Render(m.ctx))
	}
	// Rows first: the table renders existing rows against the new columns.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(0)
	}
}

var customerWidths = map[string]int{
	catalog.ColCompany:      22,
	catalog.ColIndustry:     14,
	catalog.ColSize:         9,
	catalog.ColLocation:     16,
	catalog.ColBudget:       12,
	catalog.ColPainPoints:   24,
	catalog.ColLastActivity: 22,
	catalog.ColReady:        7,
}

func customerTable(t catalog.CustomerTable) ([]table.Column, []table.Row) {
	cols := []table.Column{{Title: "ID", Width: 4}}
	for _, h := range t.Headers {
		title := strings.TrimSpace(h.Label + " " + h.Indicator)
		if h.Key == catalog.ColReady {
			title = strings.TrimSpace("Ready " + h.Indicator)
		}
		cols = append(cols, table.Column{Title: title, Width: customerWidths[h.Key]})
	}
	rows := make([]table.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		ready := "—"
		if r.Ready {
			ready = "✅"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(r.ID),
			r.Company,
			r.Industry,
			r.Size,
			r.Location,
			r.Budget,
			strings.Join(r.PainPoints, ", "),
			r.LastActivity,
			ready,
		})
	}
	return cols, rows
}

func productTable(v catalog.ProductGridView) ([]table.Column, []table.Row) {
	cols := []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Name", Width: 24},
		{Title: "Category", Width: 12},
		{Title: "Price", Width: 12},
		{Title: "Customization", Width: 24},
		{Title: "Best For", Width: 24},
	}
	rows := make([]table.Row, 0, len(v.Cards))
	for _, c := range v.Cards {
		rows = append(rows, table.Row{
			strconv.Itoa(c.ID),
			c.Name,
			c.Category,
			c.PriceRange,
			c.Customization,
			c.BestFor,
		})
	}
	return cols, rows
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	for _, t := range []Tab{TabCustomers, TabProducts} {
		style := inactiveTabStyle
		if t == m.tab {
			style = activeTabStyle
		}
		b.WriteString(style.Render(t.String()))
		b.WriteString("  ")
	}
	b.WriteString("\n\n")

	if m.filterFocused || m.searches[m.tab] != "" {
		b.WriteString(m.filterInput.View())
		b.WriteString("\n")
	}

	if msg := m.emptyMessage(); msg != "" {
		b.WriteString(mutedStyle.Render(msg))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render(m.status()))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.help()))
	return b.String()
}

func (m Model) emptyMessage() string {
	var state tbl.State
	if m.tab == TabProducts {
		state = m.products.Render().State
	} else {
		state = m.customers.View().Compute().State
	}
	noun := strings.ToLower(m.tab.String())
	switch state {
	case tbl.StateNotLoaded:
		return fmt.Sprintf("Loading %s...", noun)
	case tbl.StateEmpty:
		return fmt.Sprintf("No %s found.", noun)
	case tbl.StateNoResults:
		return fmt.Sprintf("No %s match your search.", noun)
	}
	return ""
}

func (m Model) status() string {
	var (
		res  tbl.Sort
		rows = len(m.table.Rows())
		tot  int
	)
	if m.tab == TabProducts {
		res = m.products.View().Sort()
		tot = len(m.products.View().Rows())
	} else {
		res = m.customers.View().Sort()
		tot = len(m.customers.View().Rows())
	}

	parts := []string{fmt.Sprintf("%d of %d", rows, tot)}
	if res.Column != "" {
		dir := "asc"
		if !res.Asc {
			dir = "desc"
		}
		parts = append(parts, fmt.Sprintf("sort: %s %s", res.Column, dir))
	}
	if m.tab == TabProducts {
		parts = append(parts, "category: "+m.products.View().Filter().Category)
	}
	return strings.Join(parts, " · ")
}

func (m Model) help() string {
	if m.filterFocused {
		return "enter apply · esc clear"
	}
	h := "tab switch · / search · s sort · r reverse"
	if m.tab == TabProducts {
		h += " · c category"
	}
	return h + " · q quit"
}
