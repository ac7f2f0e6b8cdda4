// Package hierview is the interactive terminal view of a hierarchy tree.
package hierview

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lexcodex/lsptree/hierarchy"
)

// Opener turns a jump target into a command to run in the foreground. A nil
// command with a nil error means the target should be returned to the caller.
type Opener interface {
	OpenCommand(target hierarchy.Target) (*exec.Cmd, error)
}

// Option configures a Model.
type Option func(*Model)

// WithOpener sets how jump targets are opened.
func WithOpener(o Opener) Option {
	return func(m *Model) { m.opener = o }
}

// WithCallSitePreferred makes call nodes jump to their first call site.
func WithCallSitePreferred(preferred bool) Option {
	return func(m *Model) { m.callSitePreferred = preferred }
}

// WithTitle sets the header line.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// Run shows the tree until the user quits and returns the final model.
func Run(ctx context.Context, m Model) (Model, error) {
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return m, err
	}
	return final.(Model), nil
}

type row struct {
	node  *hierarchy.Node
	depth int
}

// Model implements tea.Model over a lazily expanded hierarchy.Tree. The tree
// is shared with in-flight expansion commands.
type Model struct {
	ctx    context.Context
	tree   *hierarchy.Tree
	status *Status
	opener Opener

	callSitePreferred bool
	title             string

	// open holds nodes the user expanded; the tree memo is separate.
	open   map[*hierarchy.Node]bool
	rows   []row
	cursor int

	message string
	isError bool

	selected *hierarchy.Target

	view     viewport.Model
	help     help.Model
	keys     keyMap
	width    int
	height   int
	showHelp bool
}

// NewModel builds the view. status must be the reporter the tree was built
// with so fetch failures reach the status line. Roots that Build already
// expanded start open.
func NewModel(ctx context.Context, tree *hierarchy.Tree, status *Status, opts ...Option) Model {
	if status == nil {
		status = NewStatus()
	}
	m := Model{
		ctx:               ctx,
		tree:              tree,
		status:            status,
		callSitePreferred: true,
		title:             fmt.Sprintf("%s hierarchy", tree.Kind()),
		open:              make(map[*hierarchy.Node]bool),
		view:              viewport.New(80, 20),
		help:              help.New(),
		keys:              defaultKeys(),
		width:             80,
		height:            23,
	}
	for _, opt := range opts {
		opt(&m)
	}
	for _, root := range tree.Roots() {
		if tree.Expanded(root) {
			m.open[root] = true
		}
	}
	if msgs := status.Drain(); len(msgs) > 0 {
		m.message, m.isError = msgs[len(msgs)-1], true
	}
	m.refresh()
	return m
}

// Selected returns the target chosen when the user jumped without an open
// command.
func (m Model) Selected() (hierarchy.Target, bool) {
	if m.selected == nil {
		return hierarchy.Target{}, false
	}
	return *m.selected, true
}

// Current returns the node under the cursor.
func (m Model) Current() *hierarchy.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].node
}

func (m *Model) refresh() {
	m.rows = nil
	for _, root := range m.tree.Roots() {
		m.appendRows(root, 0)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.view.SetContent(m.renderRows())
	m.follow()
}

func (m *Model) appendRows(node *hierarchy.Node, depth int) {
	m.rows = append(m.rows, row{node: node, depth: depth})
	if !m.open[node] {
		return
	}
	kids, _ := m.tree.Children(node)
	for _, child := range kids {
		m.appendRows(child, depth+1)
	}
}

// follow scrolls the viewport so the cursor row stays visible.
func (m *Model) follow() {
	if m.cursor < m.view.YOffset {
		m.view.SetYOffset(m.cursor)
	} else if m.view.Height > 0 && m.cursor >= m.view.YOffset+m.view.Height {
		m.view.SetYOffset(m.cursor - m.view.Height + 1)
	}
}

func (m Model) parentRow(i int) int {
	depth := m.rows[i].depth
	for j := i - 1; j >= 0; j-- {
		if m.rows[j].depth < depth {
			return j
		}
	}
	return i
}
