package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mikelcalvo/erp-admin/internal/document"
)

type summaryKind int

const (
	summaryNone summaryKind = iota
	summaryPrices
	summaryReturns
)

func (k summaryKind) title() string {
	if k == summaryReturns {
		return "Return summary"
	}
	return "Price summary"
}

func (m *Model) openSummary(k summaryKind) tea.Cmd {
	m.seq++
	m.view = ViewSummary
	m.summary = k
	m.loading = true
	m.schema = nil
	m.list = nil
	m.detail = nil
	m.summaryText = ""
	m.breadcrumbs = []string{"Main", k.title()}
	if m.viewportReady {
		m.viewport.SetContent("")
	}
	return m.loadSummary()
}

func (m Model) loadSummary() tea.Cmd {
	wf, k, seq := m.workflow, m.summary, m.seq
	return func() tea.Msg {
		content, err := buildSummary(context.Background(), wf, k)
		return summaryLoadedMsg{seq: seq, content: content, err: err}
	}
}

func buildSummary(ctx context.Context, wf *document.Workflow, k summaryKind) (string, error) {
	if k == summaryReturns {
		var docs []*document.Document
		for _, kind := range []document.Kind{document.ReturnFromClient, document.ReturnToSupplier} {
			d, err := wf.Load(ctx, kind)
			if err != nil {
				return "", err
			}
			docs = append(docs, d...)
		}
		return ReturnReport(document.SummarizeReturns(docs)), nil
	}
	docs, err := wf.Load(ctx, document.PriceSetting)
	if err != nil {
		return "", err
	}
	return PriceReport(document.SummarizePrices(docs)), nil
}

func (m Model) updateSummary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		cmd := m.openMenu()
		return m, cmd
	case "r":
		m.seq++
		m.loading = true
		return m, m.loadSummary()
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) renderSummary() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.summary.title()))
	b.WriteString("\n\n")
	if m.loading {
		b.WriteString(m.spinner.View() + " Loading documents...")
		return b.String()
	}
	if !m.viewportReady {
		b.WriteString(m.summaryText)
		return b.String()
	}
	b.WriteString(m.viewport.View())
	return b.String()
}

// PriceReport renders price summaries as a fixed-width table.
func PriceReport(rows []document.PriceSummary) string {
	if len(rows) == 0 {
		return "No price settings"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-28s %-20s %5s %10s %10s %10s\n", "Product", "Trade point", "Count", "Min", "Max", "Average")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-28s %-20s %5d %10s %10s %10s\n",
			pad(nameOr(r.ProductName, r.ProductID), 28),
			pad(nameOr(r.TradePointName, r.TradePointID), 20),
			r.Count, r.Min.StringFixed(2), r.Max.StringFixed(2), r.Average.StringFixed(2))
	}
	return strings.TrimRight(b.String(), "\n")
}

// ReturnReport renders return summaries as a fixed-width table.
func ReturnReport(rows []document.ReturnSummary) string {
	if len(rows) == 0 {
		return "No approved returns"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-28s %9s %10s %12s\n", "Product", "Documents", "Quantity", "Amount")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-28s %9d %10s %12s\n",
			pad(nameOr(r.ProductName, r.ProductID), 28),
			r.Documents, r.Quantity.String(), r.Amount.StringFixed(2))
	}
	return strings.TrimRight(b.String(), "\n")
}

func nameOr(name string, id int64) string {
	switch {
	case name != "":
		return name
	case id == 0:
		return "-"
	}
	return fmt.Sprintf("#%d", id)
}
