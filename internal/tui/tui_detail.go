package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mikelcalvo/erp-admin/internal/document"
	"github.com/mikelcalvo/erp-admin/internal/entity"
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

// openDetail switches to the record screen. Every record gets a fresh
// Detail so nothing from a previous record can leak into it.
func (m *Model) openDetail(schema *resource.Schema, id int64) tea.Cmd {
	m.seq++
	m.view = ViewDetail
	m.schema = schema
	m.detail = resource.NewDetail(schema, m.client)
	m.detail.Begin(id)
	m.kind, m.isDoc = entity.DocumentKind(schema.Name)
	m.form = nil
	m.loading = true
	m.breadcrumbs = []string{"Main", schema.Title, fmt.Sprintf("#%d", id)}
	return m.loadDetail()
}

func (m *Model) reloadDetail() tea.Cmd {
	m.seq++
	m.loading = true
	m.detail.Begin(m.detail.ID())
	return m.loadDetail()
}

func (m Model) loadDetail() tea.Cmd {
	d, seq := m.detail, m.seq
	return func() tea.Msg {
		l, err := d.Fetch(context.Background())
		return detailLoadedMsg{seq: seq, loaded: l, err: err}
	}
}

func (m Model) handleDetailLoaded(msg detailLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	err := m.detail.Apply(msg.loaded, msg.err)
	switch {
	case errors.Is(err, resource.ErrNotFound):
		notice := fmt.Sprintf("%s #%d not found", m.schema.Singular, m.detail.ID())
		m.log.Warn().Str("entity", m.schema.Name).Int64("id", m.detail.ID()).Msg("record not found")
		back := m.backToList()
		cmd := tea.Batch(back, m.notify(notice, false))
		return m, cmd
	case err != nil:
		m.log.Error().Err(err).Str("entity", m.schema.Name).Int64("id", m.detail.ID()).Msg("detail load failed")
		cmd := m.notify("Could not load "+strings.ToLower(m.schema.Singular)+": "+err.Error(), false)
		return m, cmd
	}
	if m.detail.Degraded() {
		m.log.Debug().Str("entity", m.schema.Name).Int64("id", m.detail.ID()).Msg("detail loaded from collection")
	}
	return m, m.resolveLabels()
}

// resolveLabels starts one lookup per reference still missing a label.
func (m Model) resolveLabels() tea.Cmd {
	if m.detail == nil || m.detail.State() != resource.StateReady {
		return nil
	}
	var cmds []tea.Cmd
	r, seq, snap := m.resolver, m.seq, m.detail.Snapshot()
	for _, ref := range m.detail.Unresolved() {
		cmds = append(cmds, func() tea.Msg {
			return labelResolvedMsg{seq: seq, res: r.Resolve(context.Background(), ref, snap)}
		})
	}
	return tea.Batch(cmds...)
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		cmd := m.backToList()
		return m, cmd

	case "r":
		cmd := m.reloadDetail()
		return m, cmd

	case "e":
		if err := m.detail.BeginEdit(); err != nil {
			if errors.Is(err, resource.ErrLocked) {
				cmd := m.notify(m.lockedNotice(), false)
				return m, cmd
			}
			cmd := m.notify("Cannot edit: "+err.Error(), false)
			return m, cmd
		}
		m.openEditForm()
		return m, nil

	case "d":
		mut, err := m.detail.DeleteMutation()
		if err != nil {
			cmd := m.notify("Cannot delete: "+err.Error(), false)
			return m, cmd
		}
		what := fmt.Sprintf("%s #%d", m.schema.Singular, m.detail.ID())
		client, seq := m.client, m.seq
		m.gate.Open("Delete "+what+"?", "This cannot be undone.", func() tea.Cmd {
			return deleteCmd(client, mut, what, seq)
		})
		return m, nil
	}

	if m.isDoc {
		for _, a := range document.Actions {
			if msg.String() == actionKey(a) {
				return m.requestTransition(a)
			}
		}
	}
	return m, nil
}

func (m Model) lockedNotice() string {
	status, _ := document.ParseStatus(m.detail.Snapshot().Text("status"))
	return fmt.Sprintf("%s is %s and cannot be edited", m.schema.Singular, status)
}

// actionKey is the key that triggers a workflow action.
func actionKey(a document.Action) string {
	switch a {
	case document.Approve:
		return "a"
	case document.Unapprove:
		return "u"
	case document.Process:
		return "p"
	}
	return ""
}

// availableActions lists the transitions the loaded document allows.
func (m Model) availableActions() []document.Action {
	if !m.isDoc || m.detail == nil || m.detail.State() != resource.StateReady {
		return nil
	}
	status, err := document.ParseStatus(m.detail.Snapshot().Text("status"))
	if err != nil {
		return nil
	}
	return m.kind.Available(status)
}

func (m Model) requestTransition(a document.Action) (tea.Model, tea.Cmd) {
	req, err := m.workflow.Prepare(m.detail, m.kind, a)
	if err != nil {
		cmd := m.notify(err.Error(), false)
		return m, cmd
	}
	what := fmt.Sprintf("%s #%d", m.schema.Singular, req.ID)
	title := fmt.Sprintf("%s %s?", titleCase(a.String()), what)
	body := fmt.Sprintf("Status changes from %s to %s.", req.From, req.To)
	wf, d, seq := m.workflow, m.detail, m.seq
	m.gate.Open(title, body, func() tea.Cmd {
		return transitionCmd(wf, d, req, seq)
	})
	return m, nil
}

// transitionCmd calls the action endpoint, then fetches the document
// again since the server recomputes it.
func transitionCmd(wf *document.Workflow, d *resource.Detail, req document.Request, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := wf.Send(ctx, req); err != nil {
			return transitionedMsg{seq: seq, req: req, err: err}
		}
		l, err := d.Fetch(ctx)
		return transitionedMsg{seq: seq, req: req, sent: true, loaded: l, err: err}
	}
}

func (m Model) handleTransitioned(msg transitionedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	what := fmt.Sprintf("%s #%d", m.schema.Singular, msg.req.ID)
	if !msg.sent {
		m.log.Error().Err(msg.err).Str("record", what).Msg("transition failed")
		cmd := m.notify(fmt.Sprintf("Could not %s %s: %s", msg.req.Action, what, apiMessage(msg.err)), false)
		return m, cmd
	}
	if err := m.detail.Apply(msg.loaded, msg.err); err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			cmd := tea.Batch(m.backToList(), m.notify(what+" not found", false))
			return m, cmd
		}
		cmd := m.notify(fmt.Sprintf("%s: %s, reload failed", what, msg.req.To), false)
		return m, cmd
	}
	cmd := tea.Batch(m.resolveLabels(), m.notify(fmt.Sprintf("%s is now %s", what, msg.req.To), true))
	return m, cmd
}

func (m Model) renderDetail() string {
	var b strings.Builder
	d := m.detail

	header := fmt.Sprintf("%s #%d", m.schema.Singular, d.ID())
	b.WriteString(titleStyle.Render(header))
	if m.isDoc && d.State() == resource.StateReady {
		status, _ := document.ParseStatus(d.Snapshot().Text("status"))
		b.WriteString("  " + statusBadge(status))
	}
	b.WriteString("\n\n")

	switch d.State() {
	case resource.StateLoading:
		b.WriteString(m.spinner.View() + " Loading...")
		return b.String()
	case resource.StateNotFound:
		b.WriteString(errorStyle.Render(header + " not found"))
		return b.String()
	case resource.StateFailed:
		b.WriteString(errorStyle.Render("Could not load " + strings.ToLower(m.schema.Singular)))
		if d.Err() != nil {
			b.WriteString("\n" + helpStyle.Render(d.Err().Error()))
		}
		b.WriteString("\n" + helpStyle.Render("Press r to try again"))
		return b.String()
	}

	if m.form != nil {
		b.WriteString(m.renderForm())
		return b.String()
	}

	snap := d.Snapshot()
	var fields strings.Builder
	for _, f := range m.schema.Fields {
		fields.WriteString(labelStyle.Render(f.Label + ":"))
		fields.WriteString(m.displayValue(f, snap))
		fields.WriteString("\n")
	}
	b.WriteString(boxStyle.Render(strings.TrimRight(fields.String(), "\n")))

	if m.schema.LinesField != "" {
		b.WriteString("\n\n")
		b.WriteString(m.renderLines(snap.Lines(m.schema.LinesField)))
	}

	if extra := extraKeys(m.schema, snap); len(extra) > 0 {
		b.WriteString("\n\n")
		for _, k := range extra {
			b.WriteString(labelStyle.Render(k + ":"))
			b.WriteString(helpStyle.Render(resource.Format(snap[k])))
			b.WriteString("\n")
		}
	}

	if d.Degraded() {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("Loaded from the collection listing"))
	}
	return b.String()
}

// displayValue renders one field, showing reference labels in place of ids.
func (m Model) displayValue(f resource.Field, rec resource.Record) string {
	if f.Kind != resource.KindRef {
		return resource.Format(rec[f.Key])
	}
	id := resource.Format(rec[f.Key])
	label, ok := m.detail.Label(f.Key)
	switch {
	case !ok:
		return helpStyle.Render("resolving...")
	case resource.IsBlank(rec[f.Key]):
		return helpStyle.Render(label)
	}
	return fmt.Sprintf("%s %s", label, helpStyle.Render("#"+id))
}

func (m Model) renderLines(lines []resource.Record) string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render(fmt.Sprintf("Items (%d)", len(lines))))
	b.WriteString("\n")
	if len(lines) == 0 {
		b.WriteString(helpStyle.Render("  no items"))
		return b.String()
	}
	var head []string
	for _, f := range m.schema.LineFields {
		head = append(head, pad(f.Label, lineWidth(f)))
	}
	b.WriteString(helpStyle.Render("  " + strings.Join(head, " ")))
	b.WriteString("\n")
	for _, line := range lines {
		var cells []string
		for _, f := range m.schema.LineFields {
			v := resource.Format(line[f.Key])
			if name := strings.TrimSuffix(f.Key, "_id") + "_name"; f.Kind == resource.KindRef && line.Text(name) != "" {
				v = line.Text(name)
			}
			cells = append(cells, pad(v, lineWidth(f)))
		}
		b.WriteString("  " + strings.Join(cells, " "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func lineWidth(f resource.Field) int {
	if f.Width > 0 {
		return f.Width
	}
	return 20
}

func pad(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		return string(r[:w-1]) + "…"
	}
	return s + strings.Repeat(" ", w-len(r))
}

// extraKeys returns the keys of rec not described by the schema.
func extraKeys(s *resource.Schema, rec resource.Record) []string {
	var keys []string
	for k := range rec {
		if k == "id" || k == s.LinesField {
			continue
		}
		if _, ok := s.Field(k); ok {
			continue
		}
		if isLabel(s, k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isLabel(s *resource.Schema, key string) bool {
	for _, r := range s.References {
		if r.LabelField == key {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
