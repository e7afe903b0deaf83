package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/mikelcalvo/erp-admin/internal/config"
	"github.com/mikelcalvo/erp-admin/internal/document"
	"github.com/mikelcalvo/erp-admin/internal/entity"
	"github.com/mikelcalvo/erp-admin/internal/logger"
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

// Version info
const (
	Version = "0.4.0"
	Author  = "Mikel Calvo"
	Year    = "2026"
)

// View represents different screens
type View int

const (
	ViewMenu View = iota
	ViewList
	ViewDetail
	ViewCreate
	ViewSummary
)

// Backend is the API surface the console talks to.
type Backend interface {
	document.Backend
}

// MenuItem for the main menu
type MenuItem struct {
	title       string
	description string
	entry       string       // schema name, for resource screens
	summary     summaryKind // for summary screens
}

func (i MenuItem) Title() string       { return i.title }
func (i MenuItem) Description() string { return i.description }
func (i MenuItem) FilterValue() string { return i.title }

// Model is the main TUI model
type Model struct {
	client   Backend
	resolver *resource.Resolver
	workflow *document.Workflow
	log      zerolog.Logger

	brand    string
	apiURL   string
	pageSize int

	view     View
	prevView View
	width    int
	height   int

	// seq identifies the current screen. Answers stamped with an older
	// value belong to a screen the user already left and are dropped.
	seq int

	menu    list.Model
	spinner spinner.Model
	loading bool

	// list screen
	schema      *resource.Schema
	list        *resource.List
	table       table.Model
	pager       paginator.Model
	input       textinput.Model
	searching   bool
	filtering   bool
	filterField string
	filterIdx   int

	// detail screen
	detail *resource.Detail
	kind   document.Kind
	isDoc  bool

	// create and edit forms
	form *form

	// summary screen
	summary       summaryKind
	summaryText   string
	viewport      viewport.Model
	viewportReady bool

	gate Gate

	message          string
	messageType      string
	breadcrumbs      []string
	notification     string
	notificationType string // "success" or "error"
	showNotification bool
	notifyID         int
	notifyFor        time.Duration
}

// Messages
type listLoadedMsg struct {
	seq   int
	items []resource.Record
	err   error
}

type detailLoadedMsg struct {
	seq    int
	loaded resource.Loaded
	err    error
}

type labelResolvedMsg struct {
	seq int
	res resource.Resolution
}

type createdMsg struct {
	seq int
	rec resource.Record
	err error
}

type savedMsg struct {
	seq int
	rec resource.Record
	err error
}

type deletedMsg struct {
	seq  int
	what string
	err  error
}

type transitionedMsg struct {
	seq    int
	req    document.Request
	sent   bool
	loaded resource.Loaded
	err    error
}

type summaryLoadedMsg struct {
	seq     int
	content string
	err     error
}

type clearNotificationMsg struct {
	id int
}

// NewTUI creates a new TUI model
func NewTUI(client Backend, cfg *config.Config) Model {
	var menuItems []list.Item
	for _, g := range entity.Groups {
		for _, name := range g.Entries {
			s, ok := entity.Lookup(name)
			if !ok {
				continue
			}
			menuItems = append(menuItems, MenuItem{title: s.Title, description: g.Title, entry: name})
		}
	}
	menuItems = append(menuItems,
		MenuItem{title: "Price summary", description: "Reports: prices by product and trade point", summary: summaryPrices},
		MenuItem{title: "Return summary", description: "Reports: returned goods by product", summary: summaryReturns},
	)

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	menu := list.New(menuItems, delegate, 0, 0)
	menu.Title = cfg.Brand
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(true)
	menu.Styles.Title = titleStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	t := table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Selected = selectedStyle
	t.SetStyles(styles)

	p := paginator.New()
	p.Type = paginator.Arabic

	return Model{
		client:      client,
		resolver:    resource.NewResolver(client),
		workflow:    document.NewWorkflow(client),
		log:         logger.WithComponent("tui"),
		brand:       cfg.Brand,
		apiURL:      cfg.APIURL,
		pageSize:    cfg.PageSize,
		view:        ViewMenu,
		menu:        menu,
		spinner:     s,
		table:       t,
		pager:       p,
		breadcrumbs: []string{"Main"},
		notifyFor:   3 * time.Second,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if handled, cmd := m.gate.HandleKey(msg); handled {
			if cmd != nil {
				m.loading = true
			}
			return m, cmd
		}
		m.message = ""
		m.messageType = ""

		switch m.view {
		case ViewMenu:
			return m.updateMenu(msg)
		case ViewList:
			return m.updateList(msg)
		case ViewDetail:
			if m.form != nil {
				return m.updateEdit(msg)
			}
			return m.updateDetail(msg)
		case ViewCreate:
			return m.updateCreate(msg)
		case ViewSummary:
			return m.updateSummary(msg)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		h := msg.Height - 8
		w := msg.Width - 4

		m.menu.SetSize(w, h)
		m.table.SetHeight(h - 4)

		headerHeight := 4 // status bar + breadcrumbs + notification + padding
		footerHeight := 4 // help + credits
		m.viewport = viewport.New(w, msg.Height-headerHeight-footerHeight)
		m.viewport.YPosition = headerHeight
		m.viewport.SetContent(m.summaryText)
		m.viewportReady = true
		return m, nil

	case listLoadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m.handleListLoaded(msg)

	case detailLoadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m.handleDetailLoaded(msg)

	case labelResolvedMsg:
		if msg.seq != m.seq || m.detail == nil {
			return m, nil
		}
		m.detail.SetLabel(msg.res.Field, msg.res.Label)
		return m, nil

	case createdMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m.handleCreated(msg)

	case savedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m.handleSaved(msg)

	case deletedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m.handleDeleted(msg)

	case transitionedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		return m.handleTransitioned(msg)

	case summaryLoadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.log.Error().Err(msg.err).Msg("summary failed")
			cmd := m.notify("Could not load summary: "+msg.err.Error(), false)
			return m, cmd
		}
		m.summaryText = msg.content
		if m.viewportReady {
			m.viewport.SetContent(msg.content)
			m.viewport.GotoTop()
		}
		return m, nil

	case clearNotificationMsg:
		if msg.id == m.notifyID {
			m.showNotification = false
			m.notification = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.view {
	case ViewMenu:
		m.menu, cmd = m.menu.Update(msg)
	case ViewSummary:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.menu.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.menu, cmd = m.menu.Update(msg)
		return m, cmd
	}
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter":
		item, ok := m.menu.SelectedItem().(MenuItem)
		if !ok {
			return m, nil
		}
		if item.entry != "" {
			cmd := m.openList(item.entry)
			return m, cmd
		}
		cmd := m.openSummary(item.summary)
		return m, cmd
	}
	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

// openMenu returns to the main menu.
func (m *Model) openMenu() tea.Cmd {
	m.seq++
	m.view = ViewMenu
	m.loading = false
	m.list = nil
	m.detail = nil
	m.form = nil
	m.breadcrumbs = []string{"Main"}
	return nil
}

// notify shows a notification that dismisses itself.
func (m *Model) notify(text string, ok bool) tea.Cmd {
	m.notifyID++
	m.notification = text
	m.notificationType = "error"
	if ok {
		m.notificationType = "success"
	}
	m.showNotification = true
	if m.notifyFor <= 0 {
		return nil
	}
	id := m.notifyID
	return tea.Tick(m.notifyFor, func(time.Time) tea.Msg {
		return clearNotificationMsg{id: id}
	})
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.view {
	case ViewMenu:
		content = m.menu.View()
	case ViewList:
		content = m.renderList()
	case ViewDetail:
		content = m.renderDetail()
	case ViewCreate:
		content = m.renderForm()
	case ViewSummary:
		content = m.renderSummary()
	}
	if m.gate.IsOpen() {
		content = m.gate.View()
	}

	var b strings.Builder

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	b.WriteString(m.renderBreadcrumbs())
	b.WriteString("\n")

	if m.showNotification {
		if m.notificationType == "success" {
			b.WriteString(notificationSuccess.Render("✓ " + m.notification))
		} else {
			b.WriteString(notificationError.Render("✗ " + m.notification))
		}
		b.WriteString("\n")
	}

	b.WriteString(content)

	if m.message != "" {
		b.WriteString("\n\n")
		if m.messageType == "error" {
			b.WriteString(errorStyle.Render("Error: " + m.message))
		} else {
			b.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderHelp())

	b.WriteString("\n")
	b.WriteString(m.renderCredits())

	return b.String()
}

func (m Model) renderStatusBar() string {
	status := fmt.Sprintf(" %s | %s | %s ", m.brand, onlineStyle.Render("● API"), m.apiURL)
	return statusBarStyle.Render(status)
}

func (m Model) renderBreadcrumbs() string {
	if len(m.breadcrumbs) == 0 {
		return ""
	}
	return breadcrumbStyle.Render("  " + strings.Join(m.breadcrumbs, " > "))
}

func (m Model) renderHelp() string {
	var help string
	switch {
	case m.gate.IsOpen():
		help = "y: confirm • n: cancel"
	case m.view == ViewMenu:
		help = "↑/↓: navigate • enter: select • /: filter • q: quit"
	case m.view == ViewList && (m.searching || m.filtering):
		help = "enter: apply • esc: cancel"
	case m.view == ViewList:
		help = "↑/↓: navigate • enter: detail • n: new • d: delete • /: search • f: filter • c: clear • [/]: page • +: page size • r: refresh • esc: back"
	case m.view == ViewDetail && m.form != nil:
		help = "tab: next field • enter: save • esc: cancel edit"
		if m.detail.LinesEditable() {
			help += " • ctrl+n: add line • ctrl+d: remove line"
		}
	case m.view == ViewDetail:
		help = "esc: back • e: edit • d: delete • r: reload"
		if m.isDoc && m.detail.State() == resource.StateReady {
			for _, a := range m.availableActions() {
				help += fmt.Sprintf(" • %s: %s", actionKey(a), a)
			}
		}
	case m.view == ViewCreate:
		help = "tab: next field • enter: submit • esc: cancel"
	case m.view == ViewSummary:
		help = "↑/↓/pgup/pgdn: scroll • r: refresh • esc: back"
	}
	return helpStyle.Render(help)
}

func (m Model) renderCredits() string {
	return creditStyle.Render(fmt.Sprintf("Created by %s in %s • v%s", Author, Year, Version))
}

// Run starts the TUI
func Run(client Backend, cfg *config.Config) error {
	p := tea.NewProgram(NewTUI(client, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
