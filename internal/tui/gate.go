package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Gate is the yes/no confirmation shown before delete, save and document
// transitions. While open it takes every key; closed, it renders nothing.
type Gate struct {
	open      bool
	title     string
	body      string
	onConfirm func() tea.Cmd
}

// Open shows the gate. onConfirm runs at most once, on "y".
func (g *Gate) Open(title, body string, onConfirm func() tea.Cmd) {
	g.open = true
	g.title = title
	g.body = body
	g.onConfirm = onConfirm
}

// IsOpen reports whether the gate is showing
func (g Gate) IsOpen() bool { return g.open }

// Confirm closes the gate and runs its callback.
func (g *Gate) Confirm() tea.Cmd {
	if !g.open {
		return nil
	}
	fn := g.onConfirm
	g.Close()
	if fn == nil {
		return nil
	}
	return fn()
}

// Close dismisses the gate without side effects.
func (g *Gate) Close() {
	g.open = false
	g.title = ""
	g.body = ""
	g.onConfirm = nil
}

// HandleKey answers a key while the gate is open. Keys other than yes
// and no are swallowed so nothing behind the gate reacts.
func (g *Gate) HandleKey(msg tea.KeyMsg) (handled bool, cmd tea.Cmd) {
	if !g.open {
		return false, nil
	}
	switch msg.String() {
	case "y", "Y":
		return true, g.Confirm()
	case "n", "N", "esc":
		g.Close()
	}
	return true, nil
}

// View renders the gate, or "" when closed.
func (g Gate) View() string {
	if !g.open {
		return ""
	}
	var b strings.Builder
	b.WriteString(warningStyle.Render(g.title))
	b.WriteString("\n\n")
	if g.body != "" {
		b.WriteString(g.body)
		b.WriteString("\n\n")
	}
	b.WriteString("[y] Yes, proceed    [n] No, cancel")
	return gateStyle.Render(b.String())
}
