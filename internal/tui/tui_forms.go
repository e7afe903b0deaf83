package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mikelcalvo/erp-admin/internal/api"
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

// formField is one input of a create or edit form. line is -1 for
// header fields and the line index for line item fields.
type formField struct {
	field resource.Field
	line  int
	input textinput.Model
	err   string
}

type form struct {
	title  string
	fields []formField
	focus  int
	err    string
}

func newFormField(f resource.Field, line int, value string) formField {
	ti := textinput.New()
	ti.Placeholder = f.Label
	ti.CharLimit = 120
	ti.Width = 40
	ti.SetValue(value)
	return formField{field: f, line: line, input: ti}
}

func (f *form) setFocus(i int) {
	if len(f.fields) == 0 {
		return
	}
	i = (i + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Blur()
	f.focus = i
	f.fields[f.focus].input.Focus()
}

func (f *form) focusField(key string) {
	for i, ff := range f.fields {
		if ff.line < 0 && ff.field.Key == key {
			f.setFocus(i)
			return
		}
	}
}

// openCreateForm shows an empty form with every writable field.
func (m *Model) openCreateForm() {
	f := &form{title: "New " + strings.ToLower(m.schema.Singular)}
	for _, fld := range m.schema.Fields {
		if fld.ReadOnly {
			continue
		}
		f.fields = append(f.fields, newFormField(fld, -1, ""))
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	m.form = f
	m.prevView = m.view
	m.view = ViewCreate
	m.breadcrumbs = []string{"Main", m.schema.Title, "New"}
}

// openEditForm fills a form from the draft. Line items get inputs only
// while they may still be changed.
func (m *Model) openEditForm() {
	m.form = m.editForm(0)
	m.breadcrumbs = []string{"Main", m.schema.Title, fmt.Sprintf("#%d", m.detail.ID()), "Edit"}
}

func (m Model) editForm(focus int) *form {
	d := m.detail
	draft := d.Draft()
	f := &form{title: fmt.Sprintf("Edit %s #%d", strings.ToLower(m.schema.Singular), d.ID())}
	for _, fld := range m.schema.Fields {
		if fld.ReadOnly {
			continue
		}
		f.fields = append(f.fields, newFormField(fld, -1, resource.Format(draft[fld.Key])))
	}
	if d.LinesEditable() {
		for i, line := range draft.Lines(m.schema.LinesField) {
			for _, fld := range m.schema.LineFields {
				if fld.ReadOnly {
					continue
				}
				f.fields = append(f.fields, newFormField(fld, i, resource.Format(line[fld.Key])))
			}
		}
	}
	if len(f.fields) > 0 {
		f.focus = min(max(focus, 0), len(f.fields)-1)
		f.fields[f.focus].input.Focus()
	}
	return f
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.detail.CancelEdit()
		m.form = nil
		m.breadcrumbs = []string{"Main", m.schema.Title, fmt.Sprintf("#%d", m.detail.ID())}
		return m, nil

	case "tab", "down":
		m.form.setFocus(m.form.focus + 1)
		return m, nil

	case "shift+tab", "up":
		m.form.setFocus(m.form.focus - 1)
		return m, nil

	case "enter", "ctrl+s":
		return m.requestSave()

	case "ctrl+n":
		if err := m.detail.AddLine(resource.Record{}); err != nil {
			cmd := m.notify("Cannot add a line: "+err.Error(), false)
			return m, cmd
		}
		m.form = m.editForm(len(m.form.fields))
		return m, nil

	case "ctrl+d":
		if len(m.form.fields) == 0 {
			return m, nil
		}
		cur := m.form.fields[m.form.focus]
		if cur.line < 0 {
			return m, nil
		}
		if err := m.detail.RemoveLine(cur.line); err != nil {
			cmd := m.notify("Cannot remove the line: "+err.Error(), false)
			return m, cmd
		}
		m.form = m.editForm(m.form.focus)
		return m, nil
	}

	if len(m.form.fields) == 0 {
		return m, nil
	}
	cur := &m.form.fields[m.form.focus]
	var cmd tea.Cmd
	cur.input, cmd = cur.input.Update(msg)
	m.form.err = ""

	v, err := cur.field.Parse(cur.input.Value())
	if err != nil {
		cur.err = err.Error()
		return m, cmd
	}
	cur.err = ""
	if err := m.applyInput(cur, v); err != nil {
		cur.err = err.Error()
	}
	return m, cmd
}

// applyInput writes a parsed value into the draft when it differs.
func (m Model) applyInput(ff *formField, v any) error {
	draft := m.detail.Draft()
	if ff.line < 0 {
		if resource.Equal(v, draft[ff.field.Key]) {
			return nil
		}
		return m.detail.Edit(ff.field.Key, v)
	}
	lines := draft.Lines(m.schema.LinesField)
	if ff.line >= len(lines) || resource.Equal(v, lines[ff.line][ff.field.Key]) {
		return nil
	}
	return m.detail.EditLine(ff.line, ff.field.Key, v)
}

// requestSave validates the draft and asks for confirmation. Nothing is
// sent for an unchanged or invalid draft.
func (m Model) requestSave() (tea.Model, tea.Cmd) {
	for _, ff := range m.form.fields {
		if ff.err != "" {
			m.form.err = ff.err
			return m, nil
		}
	}
	mut, err := m.detail.PrepareSave()
	var verr *resource.ValidationError
	switch {
	case errors.Is(err, resource.ErrNotDirty):
		cmd := m.notify("No changes to save", false)
		return m, cmd
	case errors.As(err, &verr):
		m.form.err = verr.Message
		m.form.focusField(verr.Field)
		return m, nil
	case err != nil:
		cmd := m.notify("Cannot save: "+err.Error(), false)
		return m, cmd
	}

	what := fmt.Sprintf("%s #%d", m.schema.Singular, m.detail.ID())
	body := "Changes: " + strings.Join(m.detail.ChangedLabels(), ", ")
	d, seq := m.detail, m.seq
	m.gate.Open("Save "+what+"?", body, func() tea.Cmd {
		return func() tea.Msg {
			rec, err := d.Send(context.Background(), mut)
			return savedMsg{seq: seq, rec: rec, err: err}
		}
	})
	return m, nil
}

func (m Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	what := fmt.Sprintf("%s #%d", m.schema.Singular, m.detail.ID())
	if err := m.detail.ApplySave(msg.rec, msg.err); err != nil {
		m.log.Error().Err(err).Str("record", what).Msg("save failed")
		if m.form != nil {
			m.form.err = apiMessage(err)
		}
		cmd := m.notify("Could not save "+what+": "+apiMessage(err), false)
		return m, cmd
	}
	m.log.Info().Str("record", what).Msg("saved")
	m.form = nil
	m.breadcrumbs = []string{"Main", m.schema.Title, fmt.Sprintf("#%d", m.detail.ID())}
	m.resolver.Invalidate(m.schema.Path)
	cmd := tea.Batch(m.resolveLabels(), m.notify(what+" saved", true))
	return m, cmd
}

func (m Model) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form = nil
		m.view = ViewList
		m.breadcrumbs = []string{"Main", m.schema.Title}
		return m, nil

	case "tab", "down":
		m.form.setFocus(m.form.focus + 1)
		return m, nil

	case "shift+tab", "up":
		m.form.setFocus(m.form.focus - 1)
		return m, nil

	case "enter":
		return m.submitCreate()
	}

	if len(m.form.fields) == 0 {
		return m, nil
	}
	cur := &m.form.fields[m.form.focus]
	var cmd tea.Cmd
	cur.input, cmd = cur.input.Update(msg)
	cur.err = ""
	m.form.err = ""
	return m, cmd
}

// submitCreate parses the form and posts it. The list only gains the
// record the server sends back.
func (m Model) submitCreate() (tea.Model, tea.Cmd) {
	draft := resource.Record{}
	for i := range m.form.fields {
		ff := &m.form.fields[i]
		v, err := ff.field.Parse(ff.input.Value())
		if err != nil {
			ff.err = err.Error()
			m.form.err = ff.err
			m.form.setFocus(i)
			return m, nil
		}
		if v != nil {
			draft[ff.field.Key] = v
		}
	}

	mut, err := m.list.PrepareCreate(draft)
	var verr *resource.ValidationError
	switch {
	case errors.As(err, &verr):
		m.form.err = verr.Message
		m.form.focusField(verr.Field)
		return m, nil
	case err != nil:
		m.form.err = err.Error()
		return m, nil
	}

	m.loading = true
	client, seq := m.client, m.seq
	return m, func() tea.Msg {
		rec, err := mut.Send(context.Background(), client)
		return createdMsg{seq: seq, rec: rec, err: err}
	}
}

func (m Model) handleCreated(msg createdMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if err := m.list.ApplyCreate(msg.rec, msg.err); err != nil {
		m.log.Error().Err(err).Str("entity", m.schema.Name).Msg("create failed")
		if m.form != nil {
			m.form.err = apiMessage(err)
		}
		cmd := m.notify("Could not create "+strings.ToLower(m.schema.Singular)+": "+apiMessage(err), false)
		return m, cmd
	}
	id, _ := msg.rec.ID()
	m.log.Info().Str("entity", m.schema.Name).Int64("id", id).Msg("created")
	m.resolver.Invalidate(m.schema.Path)
	m.form = nil
	m.view = ViewList
	m.breadcrumbs = []string{"Main", m.schema.Title}
	m.refreshTable()
	cmd := m.notify(fmt.Sprintf("%s #%d created", m.schema.Singular, id), true)
	return m, cmd
}

func (m Model) renderForm() string {
	if m.form == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.form.title))
	b.WriteString("\n\n")

	line := -1
	for i, ff := range m.form.fields {
		if ff.line != line && ff.line >= 0 {
			b.WriteString("\n" + selectedStyle.Render(fmt.Sprintf("Item %d", ff.line+1)) + "\n")
		}
		line = ff.line

		label := ff.field.Label + ":"
		if i == m.form.focus {
			b.WriteString(selectedStyle.Render("> "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(ff.input.View())
		if ff.err != "" {
			b.WriteString(" " + errorStyle.Render(ff.err))
		}
		b.WriteString("\n")
	}

	if m.form.err != "" {
		b.WriteString("\n" + errorStyle.Render(m.form.err))
	}
	if m.loading {
		b.WriteString("\n" + m.spinner.View() + " Sending...")
	}
	return b.String()
}

// apiMessage returns the server's message for API errors.
func apiMessage(err error) string {
	var aerr *api.Error
	if errors.As(err, &aerr) {
		return aerr.Message
	}
	return err.Error()
}
