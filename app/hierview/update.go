package hierview

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lexcodex/lsptree/hierarchy"
)

type expandedMsg struct {
	node *hierarchy.Node
}

type openedMsg struct {
	target hierarchy.Target
	err    error
}

// Init fulfills the Bubble Tea Model interface.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update applies incoming Bubble Tea messages to mutate the Model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case expandedMsg:
		return m.handleExpanded(msg), nil
	case openedMsg:
		if msg.err != nil {
			m.message, m.isError = msg.err.Error(), true
		} else {
			m.message, m.isError = "Opened "+msg.target.String(), false
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	// header, status bar, help line
	m.view.Width = msg.Width
	m.view.Height = max(1, msg.Height-3)
	m.help.Width = msg.Width
	m.view.SetContent(m.renderRows())
	m.follow()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.status.Busy() == "" {
		m.message = ""
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Expand):
		return m.expand()
	case key.Matches(msg, m.keys.Collapse):
		m.collapse()
	case key.Matches(msg, m.keys.Toggle):
		if node := m.Current(); node != nil && m.open[node] {
			m.collapse()
		} else {
			return m.expand()
		}
	case key.Matches(msg, m.keys.Open):
		return m.jump()
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

// expand opens the node under the cursor, fetching its children off the UI
// loop when they are not memoized yet.
func (m Model) expand() (tea.Model, tea.Cmd) {
	node := m.Current()
	if node == nil || m.status.Busy() != "" {
		return m, nil
	}
	if m.tree.Expanded(node) {
		m.open[node] = true
		m.refresh()
		return m, nil
	}
	m.status.SetBusy(node.Name)
	tree, ctx := m.tree, m.ctx
	return m, func() tea.Msg {
		tree.Expand(ctx, node)
		return expandedMsg{node: node}
	}
}

func (m Model) handleExpanded(msg expandedMsg) Model {
	m.status.SetBusy("")
	m.open[msg.node] = true
	if msgs := m.status.Drain(); len(msgs) > 0 {
		m.message, m.isError = msgs[len(msgs)-1], true
	}
	m.refresh()
	return m
}

// collapse closes the node under the cursor, or moves to its parent when it
// is already closed.
func (m *Model) collapse() {
	node := m.Current()
	if node == nil {
		return
	}
	if m.open[node] {
		delete(m.open, node)
		return
	}
	m.cursor = m.parentRow(m.cursor)
}

func (m Model) jump() (tea.Model, tea.Cmd) {
	node := m.Current()
	if node == nil {
		return m, nil
	}
	target := hierarchy.Resolve(node, m.callSitePreferred)
	if m.opener == nil {
		m.selected = &target
		return m, tea.Quit
	}
	cmd, err := m.opener.OpenCommand(target)
	if err != nil {
		m.message, m.isError = err.Error(), true
		return m, nil
	}
	if cmd == nil {
		m.selected = &target
		return m, tea.Quit
	}
	return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
		return openedMsg{target: target, err: err}
	})
}
