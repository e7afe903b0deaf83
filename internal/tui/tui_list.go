package tui

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mikelcalvo/erp-admin/internal/entity"
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

// openList switches to the collection screen of a registered entity.
func (m *Model) openList(name string) tea.Cmd {
	schema, ok := entity.Lookup(name)
	if !ok {
		return m.notify("Unknown entity "+name, false)
	}
	m.seq++
	m.view = ViewList
	m.schema = schema
	m.list = resource.NewList(schema, m.client, m.pageSize)
	m.detail = nil
	m.form = nil
	m.searching = false
	m.filtering = false
	m.filterIdx = 0
	m.loading = true
	m.breadcrumbs = []string{"Main", schema.Title}
	m.firstRow()
	return m.loadList()
}

// backToList leaves the detail or form and reloads the collection.
func (m *Model) backToList() tea.Cmd {
	if m.schema == nil {
		return m.openMenu()
	}
	return m.openList(m.schema.Name)
}

func (m *Model) reloadList() tea.Cmd {
	m.seq++
	m.loading = true
	return m.loadList()
}

func (m Model) loadList() tea.Cmd {
	l, seq := m.list, m.seq
	return func() tea.Msg {
		items, err := l.Fetch(context.Background())
		return listLoadedMsg{seq: seq, items: items, err: err}
	}
}

func (m Model) handleListLoaded(msg listLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.list.Apply(msg.items, msg.err)
	m.refreshTable()
	if msg.err != nil {
		m.log.Error().Err(msg.err).Str("entity", m.schema.Name).Msg("list load failed")
		cmd := m.notify("Could not load "+strings.ToLower(m.schema.Title)+": "+msg.err.Error(), false)
		return m, cmd
	}
	m.log.Debug().Str("entity", m.schema.Name).Int("count", len(msg.items)).Msg("list loaded")
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching || m.filtering {
		return m.updateListInput(msg)
	}

	switch msg.String() {
	case "esc", "q":
		cmd := m.openMenu()
		return m, cmd

	case "enter":
		if id, ok := m.selectedID(); ok {
			cmd := m.openDetail(m.schema, id)
			return m, cmd
		}
		return m, nil

	case "n":
		m.openCreateForm()
		return m, textinput.Blink

	case "/":
		m.searching = true
		m.input = newInput("Search "+strings.ToLower(m.schema.Title), m.list.Search())
		return m, textinput.Blink

	case "f":
		if len(m.schema.FilterFields) == 0 {
			return m, nil
		}
		m.filterField = m.schema.FilterFields[m.filterIdx%len(m.schema.FilterFields)]
		m.filterIdx++
		m.filtering = true
		m.input = newInput("Filter by "+m.fieldLabel(m.filterField), m.list.Filter(m.filterField))
		return m, textinput.Blink

	case "c":
		m.list.ClearFilters()
		m.refreshTable()
		return m, nil

	case "]":
		m.list.NextPage()
		m.firstRow()
		return m, nil

	case "[":
		m.list.PrevPage()
		m.firstRow()
		return m, nil

	case "+":
		m.list.CyclePageSize()
		m.pageSize = m.list.PageSize()
		m.firstRow()
		return m, nil

	case "r":
		cmd := m.reloadList()
		return m, cmd

	case "d":
		id, ok := m.selectedID()
		if !ok {
			return m, nil
		}
		mut := resource.Mutation{Method: http.MethodDelete, Path: m.schema.ItemPath(id)}
		what := fmt.Sprintf("%s #%d", m.schema.Singular, id)
		client, seq := m.client, m.seq
		m.gate.Open("Delete "+what+"?", "This cannot be undone.", func() tea.Cmd {
			return deleteCmd(client, mut, what, seq)
		})
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// updateListInput drives the search and filter prompts. Search applies
// as the user types; a filter applies on enter.
func (m Model) updateListInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.filtering {
			m.list.SetFilter(m.filterField, m.input.Value())
		}
		m.searching = false
		m.filtering = false
		m.input.Blur()
		m.firstRow()
		return m, nil
	case "esc":
		if m.searching {
			m.list.SetSearch("")
		}
		m.searching = false
		m.filtering = false
		m.input.Blur()
		m.refreshTable()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.searching {
		m.list.SetSearch(m.input.Value())
		m.firstRow()
	}
	return m, cmd
}

// refreshTable rebuilds the table from the current page.
func (m *Model) refreshTable() {
	if m.schema == nil || m.list == nil {
		return
	}
	cols := []table.Column{{Title: "ID", Width: 6}}
	fields := m.schema.Columns()
	for _, f := range fields {
		w := f.Width
		if w == 0 {
			w = 20
		}
		cols = append(cols, table.Column{Title: f.Label, Width: w})
	}

	page := m.list.Page()
	rows := make([]table.Row, 0, len(page))
	for _, rec := range page {
		id, _ := rec.ID()
		row := table.Row{fmt.Sprint(id)}
		for _, f := range fields {
			row = append(row, resource.Format(rec[f.Key]))
		}
		rows = append(rows, row)
	}

	// Rows must never have more cells than there are columns.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.pager.PerPage = m.list.PageSize()
	m.pager.SetTotalPages(len(m.list.Visible()))
	m.pager.Page = m.list.PageNumber() - 1
	switch c := m.table.Cursor(); {
	case len(rows) == 0:
	case c < 0:
		m.table.SetCursor(0)
	case c >= len(rows):
		m.table.SetCursor(len(rows) - 1)
	}
}

// firstRow refreshes the table and moves the cursor to the top.
func (m *Model) firstRow() {
	m.refreshTable()
	if len(m.table.Rows()) > 0 {
		m.table.SetCursor(0)
	}
}

func (m Model) selectedID() (int64, bool) {
	if m.list == nil {
		return 0, false
	}
	page := m.list.Page()
	i := m.table.Cursor()
	if i < 0 || i >= len(page) {
		return 0, false
	}
	return page[i].ID()
}

func (m Model) fieldLabel(key string) string {
	if f, ok := m.schema.Field(key); ok {
		return f.Label
	}
	return key
}

func (m Model) renderList() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.schema.Title))
	b.WriteString("\n\n")

	if m.loading && !m.list.Loaded() {
		b.WriteString(m.spinner.View() + " Loading " + strings.ToLower(m.schema.Title) + "...")
		return b.String()
	}

	switch {
	case m.searching || m.filtering:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	default:
		var active []string
		if s := m.list.Search(); s != "" {
			active = append(active, fmt.Sprintf("search %q", s))
		}
		for _, f := range m.schema.FilterFields {
			if v := m.list.Filter(f); v != "" {
				active = append(active, fmt.Sprintf("%s = %s", m.fieldLabel(f), v))
			}
		}
		if len(active) > 0 {
			b.WriteString(helpStyle.Render("Showing " + strings.Join(active, ", ")))
			b.WriteString("\n\n")
		}
	}

	if err := m.list.Err(); err != nil {
		b.WriteString(errorStyle.Render("Could not load " + strings.ToLower(m.schema.Title)))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("Press r to try again"))
		return b.String()
	}
	if len(m.list.Page()) == 0 {
		b.WriteString(helpStyle.Render("No " + strings.ToLower(m.schema.Title) + " found"))
		return b.String()
	}

	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render(fmt.Sprintf("Page %s • %d of %d %s • %d per page",
		m.pager.View(), len(m.list.Visible()), len(m.list.Items()), strings.ToLower(m.schema.Title), m.list.PageSize())))

	return b.String()
}

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 120
	ti.Width = 40
	ti.SetValue(value)
	ti.Focus()
	return ti
}

func deleteCmd(client Backend, mut resource.Mutation, what string, seq int) tea.Cmd {
	return func() tea.Msg {
		_, err := mut.Send(context.Background(), client)
		return deletedMsg{seq: seq, what: what, err: err}
	}
}

func (m Model) handleDeleted(msg deletedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.log.Error().Err(msg.err).Str("record", msg.what).Msg("delete failed")
		cmd := m.notify("Could not delete "+msg.what+": "+msg.err.Error(), false)
		return m, cmd
	}
	m.log.Info().Str("record", msg.what).Msg("deleted")
	m.resolver.Invalidate(m.schema.Path)
	note := m.notify(msg.what+" deleted", true)
	if m.view == ViewDetail {
		cmd := tea.Batch(m.backToList(), note)
		return m, cmd
	}
	cmd := tea.Batch(m.reloadList(), note)
	return m, cmd
}
