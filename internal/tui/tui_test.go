package tui

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mikelcalvo/erp-admin/internal/apitest"
	"github.com/mikelcalvo/erp-admin/internal/config"
	"github.com/mikelcalvo/erp-admin/internal/entity"
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(t *testing.T) (Model, *apitest.Server) {
	t.Helper()
	s := apitest.New(t)
	m := NewTUI(s.Client(t), &config.Config{Brand: "Test ERP", APIURL: s.URL(), PageSize: 20})
	m.notifyFor = 0
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 50})
	return next.(Model), s
}

// drive runs cmd and everything it leads to, delivering only the
// console's own messages. Timers and cursor blinks are dropped.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("command loop did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case listLoadedMsg, detailLoadedMsg, labelResolvedMsg, createdMsg,
			savedMsg, deletedMsg, transitionedMsg, summaryLoadedMsg:
			next, more := m.Update(msg)
			m = next.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(key(k))
		m = drive(t, next.(Model), cmd)
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = press(t, m, string(r))
	}
	return m
}

func openList(t *testing.T, m Model, name string) Model {
	t.Helper()
	cmd := m.openList(name)
	return drive(t, m, cmd)
}

func openDetail(t *testing.T, m Model, name string, id int64) Model {
	t.Helper()
	s, ok := entity.Lookup(name)
	if !ok {
		t.Fatalf("no schema %q", name)
	}
	cmd := m.openDetail(s, id)
	return drive(t, m, cmd)
}

func seedCustomers(s *apitest.Server) {
	s.Seed("customers", []map[string]any{
		{"id": 1, "name": "Acme", "phone": "555-0101", "tax_id": "B111"},
		{"id": 2, "name": "Beta Foods", "phone": "555-0102", "tax_id": "B222"},
		{"id": 3, "name": "Acme North", "phone": "555-0103", "tax_id": "B333"},
	})
}

func listIDs(l *resource.List) []int64 {
	var out []int64
	for _, rec := range l.Visible() {
		id, _ := rec.ID()
		out = append(out, id)
	}
	return out
}

func TestMenuEnterOpensFirstEntity(t *testing.T) {
	m, s := newModel(t)
	s.Seed("companies", []map[string]any{{"id": 1, "name": "Acme Holdings"}})

	m = press(t, m, "enter")
	if m.view != ViewList || m.schema.Name != entity.Groups[0].Entries[0] {
		t.Fatalf("view = %v schema = %v", m.view, m.schema)
	}
	if got := listIDs(m.list); len(got) != 1 {
		t.Fatalf("rows = %v", got)
	}
	if !strings.Contains(m.View(), "Acme Holdings") {
		t.Fatalf("view missing company:\n%s", m.View())
	}
}

func TestStaleListAnswerIsDropped(t *testing.T) {
	m, s := newModel(t)
	seedCustomers(s)
	s.Seed("suppliers", []map[string]any{{"id": 7, "name": "Mill & Co"}})

	stale := m.openList("customers")
	answer := stale()

	cmd := m.openList("suppliers")
	m = drive(t, m, cmd)
	next, _ := m.Update(answer)
	m = next.(Model)

	if m.schema.Name != "suppliers" {
		t.Fatalf("schema = %s", m.schema.Name)
	}
	if got := listIDs(m.list); len(got) != 1 || got[0] != 7 {
		t.Fatalf("suppliers list overwritten by customers: %v", got)
	}
}

func TestListSearchFiltersWithoutNetwork(t *testing.T) {
	m, s := newModel(t)
	seedCustomers(s)
	m = openList(t, m, "customers")

	m = press(t, m, "/")
	m = typeText(t, m, "acme")
	if got := listIDs(m.list); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("visible = %v", got)
	}
	if n := s.Count(http.MethodGet, "customers/"); n != 1 {
		t.Fatalf("search hit the network: %d loads", n)
	}

	m = press(t, m, "esc")
	if len(listIDs(m.list)) != 3 || m.searching {
		t.Fatalf("esc did not clear the search: %v", listIDs(m.list))
	}
}

func TestListLoadFailureClearsRows(t *testing.T) {
	m, s := newModel(t)
	seedCustomers(s)
	m = openList(t, m, "customers")

	s.Fail(http.MethodGet, "customers/", http.StatusInternalServerError, map[string]any{"detail": "database down"})
	m = press(t, m, "r")

	if len(m.list.Items()) != 0 || m.list.Err() == nil {
		t.Fatalf("items = %d err = %v", len(m.list.Items()), m.list.Err())
	}
	if m.notificationType != "error" || !strings.Contains(m.notification, "database down") {
		t.Fatalf("notification = %q", m.notification)
	}
}

func TestDeleteFromListIsGated(t *testing.T) {
	m, s := newModel(t)
	seedCustomers(s)
	m = openList(t, m, "customers")

	m = press(t, m, "d")
	if !m.gate.IsOpen() {
		t.Fatal("delete did not ask for confirmation")
	}
	m = press(t, m, "n")
	if m.gate.IsOpen() || len(s.Writes()) != 0 {
		t.Fatalf("declined delete sent %v", s.Writes())
	}

	m = press(t, m, "d", "y")
	writes := s.Writes()
	if len(writes) != 1 || writes[0].Method != http.MethodDelete || writes[0].Path != "customers/1/" {
		t.Fatalf("writes = %+v", writes)
	}
	if got := listIDs(m.list); len(got) != 2 || got[0] != 2 {
		t.Fatalf("list after delete = %v", got)
	}
	if s.Count(http.MethodGet, "customers/") != 2 {
		t.Fatal("list not reloaded after delete")
	}
}

func TestCreateAppendsServerRecord(t *testing.T) {
	m, s := newModel(t)
	s.Seed("customers", []map[string]any{
		{"id": 1, "name": "Acme", "phone": "555-0101", "tax_id": "B111"},
		{"id": 2, "name": "Beta Foods", "phone": "555-0102", "tax_id": "B222"},
		{"id": 3, "name": "Acme North", "phone": "555-0103", "tax_id": "B333"},
	}, apitest.Normalize(func(rec map[string]any) {
		if name, ok := rec["name"].(string); ok {
			rec["name"] = strings.ToUpper(name)
		}
		if rec["tax_id"] == nil {
			rec["tax_id"] = "PENDING"
		}
	}))
	m = openList(t, m, "customers")

	m = press(t, m, "n")
	if m.view != ViewCreate {
		t.Fatalf("view = %v", m.view)
	}
	m = press(t, m, "enter")
	if m.form == nil || len(s.Writes()) != 0 {
		t.Fatalf("empty form submitted: %v", s.Writes())
	}
	if m.form.err != "Enter the customer name" {
		t.Fatalf("form error = %q", m.form.err)
	}

	m = typeText(t, m, "Gamma")
	m = press(t, m, "enter")
	if m.view != ViewList || m.form != nil {
		t.Fatalf("form still open: %v", m.view)
	}
	items := m.list.Items()
	last := items[len(items)-1]
	if id, _ := last.ID(); id != 1001 || last.Text("name") != "GAMMA" || last.Text("tax_id") != "PENDING" {
		t.Fatalf("appended = %v", last)
	}
	if s.Count(http.MethodGet, "customers/") != 1 {
		t.Fatal("create reloaded the whole list")
	}

	m = press(t, m, "down", "down", "down")
	if id, ok := m.selectedID(); !ok || id != 1001 {
		t.Fatalf("selected = %d", id)
	}
	m = press(t, m, "enter")
	if m.view != ViewDetail || m.detail == nil {
		t.Fatalf("view = %v", m.view)
	}
	if !reflect.DeepEqual(m.detail.Snapshot(), last) {
		t.Fatalf("detail = %v, created = %v", m.detail.Snapshot(), last)
	}
	if !strings.Contains(m.View(), "GAMMA") {
		t.Fatal("detail does not show the server's name")
	}
}

func TestEditSaveIsGatedAndSendsChanges(t *testing.T) {
	m, s := newModel(t)
	seedCustomers(s)
	m = openDetail(t, m, "customers", 1)

	m = press(t, m, "e", "ctrl+u")
	m = typeText(t, m, "Acme Ltd")
	if m.detail.Snapshot().Text("name") != "Acme" {
		t.Fatal("typing changed the snapshot")
	}

	m = press(t, m, "enter")
	if !m.gate.IsOpen() || len(s.Writes()) != 0 {
		t.Fatalf("save not gated: open=%v writes=%v", m.gate.IsOpen(), s.Writes())
	}
	m = press(t, m, "y")

	writes := s.Writes()
	if len(writes) != 1 || writes[0].Method != http.MethodPatch || writes[0].Path != "customers/1/" {
		t.Fatalf("writes = %+v", writes)
	}
	if len(writes[0].Body) != 1 || writes[0].Body["name"] != "Acme Ltd" {
		t.Fatalf("patch body = %v", writes[0].Body)
	}
	if m.detail.Editing() || m.form != nil || m.detail.Snapshot().Text("name") != "Acme Ltd" {
		t.Fatalf("not re-synced: editing=%v snapshot=%v", m.detail.Editing(), m.detail.Snapshot())
	}
}

func TestSaveWithoutChangesSendsNothing(t *testing.T) {
	m, s := newModel(t)
	seedCustomers(s)
	m = openDetail(t, m, "customers", 2)

	m = press(t, m, "e", "enter")
	if m.gate.IsOpen() || len(s.Writes()) != 0 {
		t.Fatal("unchanged draft reached the gate")
	}
	if m.notification != "No changes to save" {
		t.Fatalf("notification = %q", m.notification)
	}
}

func TestMissingRequiredReferenceBlocksSave(t *testing.T) {
	m, s := newModel(t)
	s.Seed("companies", []map[string]any{{"id": 1, "name": "Acme Holdings"}})
	s.Seed("accounts", []map[string]any{{"id": 5, "name": "Cash", "number": "001", "company_id": 1, "currency": "EUR"}}, apitest.WithoutItemGet())
	m = openDetail(t, m, "accounts", 5)

	if !m.detail.Degraded() {
		t.Fatal("accounts should load through the collection")
	}
	if !strings.Contains(m.View(), "Acme Holdings") {
		t.Fatalf("company label not shown:\n%s", m.View())
	}

	// name, number, company
	m = press(t, m, "e", "tab", "tab", "ctrl+u", "enter")
	if m.gate.IsOpen() || len(s.Writes()) != 0 {
		t.Fatal("invalid draft reached the gate")
	}
	if m.form == nil || m.form.err != "Choose a company" {
		t.Fatalf("form error = %v", m.form)
	}
	if !strings.Contains(m.View(), "Choose a company") {
		t.Fatal("validation message not rendered")
	}
}

func TestFailedLookupShowsPlaceholder(t *testing.T) {
	m, s := newModel(t)
	s.Seed("contracts", []map[string]any{{"id": 1, "number": "C-1", "customer_id": 4, "date": "2026-01-10"}})
	s.Seed("customers", nil)
	s.Fail(http.MethodGet, "customers/", http.StatusInternalServerError, nil)

	m = openDetail(t, m, "contracts", 1)
	view := m.View()
	if !strings.Contains(view, "Customer not loaded") {
		t.Fatalf("placeholder missing:\n%s", view)
	}
	if !strings.Contains(view, "C-1") {
		t.Fatalf("contract fields missing:\n%s", view)
	}
}

func TestMissingRecordReturnsToList(t *testing.T) {
	m, s := newModel(t)
	seedCustomers(s)
	m = openList(t, m, "customers")

	m = openDetail(t, m, "customers", 99)
	if m.view != ViewList || m.detail != nil {
		t.Fatalf("view = %v", m.view)
	}
	if m.notification != "Customer #99 not found" {
		t.Fatalf("notification = %q", m.notification)
	}
	if len(listIDs(m.list)) != 3 {
		t.Fatal("list not reloaded")
	}
}

func TestApproveSaleThroughGate(t *testing.T) {
	m, s := newModel(t)
	s.Seed("customers", []map[string]any{{"id": 1, "name": "Acme"}})
	s.Seed("trade-points", []map[string]any{{"id": 2, "name": "Kiosk"}})
	s.Seed("documents", []map[string]any{
		{"id": 1, "type": "sale", "number": "S-1", "status": "draft", "customer_id": 1, "trade_point_id": 2, "items": []any{}},
	})
	m = openDetail(t, m, "sales", 1)

	m = press(t, m, "p")
	if m.gate.IsOpen() {
		t.Fatal("sales cannot be processed")
	}

	m = press(t, m, "a")
	if !m.gate.IsOpen() {
		t.Fatal("approve not gated")
	}
	m = press(t, m, "y")

	if s.Count(http.MethodGet, "sale-action/") != 1 {
		t.Fatal("action endpoint not called")
	}
	if got := m.detail.Snapshot().Text("status"); got != "approved" {
		t.Fatalf("status = %q", got)
	}
	if m.notification != "Sale #1 is now approved" {
		t.Fatalf("notification = %q", m.notification)
	}
	if !strings.Contains(m.View(), "Kiosk") {
		t.Fatal("labels not resolved after reload")
	}

	m = press(t, m, "e")
	if m.detail.Editing() || m.notification != "Sale is approved and cannot be edited" {
		t.Fatalf("approved sale editable: %q", m.notification)
	}
}

func TestLinesEditableOnlyInDraft(t *testing.T) {
	m, s := newModel(t)
	s.Seed("documents", []map[string]any{
		{"id": 4, "type": "receipt", "status": "draft", "supplier_id": 1, "warehouse_id": 1,
			"items": []any{map[string]any{"product_id": 3, "quantity": 2, "price": "1.50"}}},
	})
	m = openDetail(t, m, "receipts", 4)

	m = press(t, m, "e", "ctrl+n")
	if got := len(m.detail.Draft().Lines("items")); got != 2 {
		t.Fatalf("lines = %d", got)
	}
	if m.detail.Snapshot().Lines("items") == nil || len(m.detail.Snapshot().Lines("items")) != 1 {
		t.Fatal("adding a line touched the snapshot")
	}
}

func TestSummaryScreen(t *testing.T) {
	m, s := newModel(t)
	s.Seed("price-settings", []map[string]any{
		{"id": 1, "status": "posted", "trade_point_id": 2, "items": []any{
			map[string]any{"product_id": 9, "product_name": "Milk", "price": "1.00"},
		}},
		{"id": 2, "status": "draft", "trade_point_id": 2, "items": []any{
			map[string]any{"product_id": 9, "product_name": "Milk", "price": "2.00"},
		}},
	}, apitest.WithoutItemGet())

	cmd := m.openSummary(summaryPrices)
	m = drive(t, m, cmd)

	if m.loading || !strings.Contains(m.summaryText, "Milk") || !strings.Contains(m.summaryText, "1.50") {
		t.Fatalf("summary = %q", m.summaryText)
	}
}

func TestListPagerFollowsPage(t *testing.T) {
	m, s := newModel(t)
	var items []map[string]any
	for i := 1; i <= 25; i++ {
		items = append(items, map[string]any{"id": i, "name": fmt.Sprintf("Customer %02d", i)})
	}
	s.Seed("customers", items)
	m = openList(t, m, "customers")

	if m.pager.TotalPages != 2 || m.pager.Page != 0 {
		t.Fatalf("pager = %d/%d", m.pager.Page, m.pager.TotalPages)
	}
	m = press(t, m, "]")
	if m.pager.Page != 1 || !strings.Contains(m.View(), "Page 2/2") {
		t.Fatalf("pager after next page = %d", m.pager.Page)
	}
	if id, _ := m.selectedID(); id != 21 {
		t.Fatalf("selected = %d", id)
	}

	m = press(t, m, "/")
	m = typeText(t, m, "Customer 2")
	if m.pager.TotalPages != 1 || m.pager.Page != 0 {
		t.Fatalf("search did not reset the pager: %d/%d", m.pager.Page, m.pager.TotalPages)
	}
}
