package hierview

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/lsptree/hierarchy"
)

func span(line uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: 2},
		End:   protocol.Position{Line: line, Character: 9},
	}
}

func typeNode(name string, line uint32, tag hierarchy.Direction) *hierarchy.Node {
	return hierarchy.NewTypeNode(name, protocol.DocumentURI("file:///src/"+name+".go"), span(line), tag)
}

// fixtureTree is Base -> {A (super), B (sub)}, A -> {Top}; B fails.
func fixtureTree(t *testing.T, status *Status) *hierarchy.Tree {
	t.Helper()
	children := func(_ context.Context, node *hierarchy.Node) ([]*hierarchy.Node, error) {
		switch node.Name {
		case "Base":
			return []*hierarchy.Node{
				typeNode("A", 10, hierarchy.DirectionSuper),
				typeNode("B", 20, hierarchy.DirectionSub),
			}, nil
		case "A":
			return []*hierarchy.Node{typeNode("Top", 1, hierarchy.DirectionSuper)}, nil
		case "B":
			return nil, errors.New("index not ready")
		}
		return nil, nil
	}
	return hierarchy.Build(context.Background(),
		[]*hierarchy.Node{typeNode("Base", 4, hierarchy.DirectionNone)},
		children,
		hierarchy.WithReporter(status),
	)
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, c := m.Update(msg)
		m, cmd = next.(Model), c
	}
	return m, cmd
}

// settle runs cmd and feeds its message back, as the program loop would.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func rowNames(m Model) []string {
	out := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r.node.Name)
	}
	return out
}

func TestNewModelOpensExpandedRoots(t *testing.T) {
	status := NewStatus()
	m := NewModel(context.Background(), fixtureTree(t, status), status)

	require.Equal(t, []string{"Base", "A", "B"}, rowNames(m))
	require.Equal(t, "Base", m.Current().Name)
	require.Contains(t, m.View(), "type hierarchy")
}

func TestExpandFetchesOffLoop(t *testing.T) {
	status := NewStatus()
	m := NewModel(context.Background(), fixtureTree(t, status), status)

	m, cmd := press(t, m, "down", "right")
	require.Equal(t, "A", status.Busy())
	require.Contains(t, m.View(), "fetching A")

	m = settle(t, m, cmd)
	require.Empty(t, status.Busy())
	require.Equal(t, []string{"Base", "A", "Top", "B"}, rowNames(m))

	// Collapse, then expand again from the memo without a command.
	m, _ = press(t, m, "left")
	require.Equal(t, []string{"Base", "A", "B"}, rowNames(m))
	m, cmd = press(t, m, "right")
	require.Nil(t, cmd)
	require.Equal(t, []string{"Base", "A", "Top", "B"}, rowNames(m))
}

func TestExpandFailureShowsServerMessage(t *testing.T) {
	status := NewStatus()
	m := NewModel(context.Background(), fixtureTree(t, status), status)

	m, cmd := press(t, m, "down", "down", "tab")
	m = settle(t, m, cmd)

	require.Equal(t, []string{"Base", "A", "B"}, rowNames(m))
	require.True(t, m.isError)
	require.Equal(t, "index not ready", m.message)
	require.Contains(t, m.View(), "index not ready")
	require.Contains(t, m.View(), "✗")

	// Siblings still expand.
	m, cmd = press(t, m, "up", "right")
	m = settle(t, m, cmd)
	require.Equal(t, []string{"Base", "A", "Top", "B"}, rowNames(m))
	require.Empty(t, m.message)
}

func TestCollapseMovesToParent(t *testing.T) {
	status := NewStatus()
	m := NewModel(context.Background(), fixtureTree(t, status), status)

	m, _ = press(t, m, "down", "down", "left")
	require.Equal(t, "Base", m.Current().Name)
	m, _ = press(t, m, "left")
	require.Equal(t, []string{"Base"}, rowNames(m))
}

func TestCursorStaysInBounds(t *testing.T) {
	status := NewStatus()
	m := NewModel(context.Background(), fixtureTree(t, status), status)

	m, _ = press(t, m, "up", "up")
	require.Equal(t, 0, m.cursor)
	m, _ = press(t, m, "j", "j", "j", "j")
	require.Equal(t, 2, m.cursor)
}

func TestJumpWithoutOpenerSelectsAndQuits(t *testing.T) {
	status := NewStatus()
	m := NewModel(context.Background(), fixtureTree(t, status), status)

	m, cmd := press(t, m, "down", "enter")
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())

	target, ok := m.Selected()
	require.True(t, ok)
	require.Equal(t, protocol.DocumentURI("file:///src/A.go"), target.URI)
	require.Equal(t, protocol.Position{Line: 10, Character: 2}, target.Position)
}

type fakeOpener struct {
	targets []hierarchy.Target
	cmd     *exec.Cmd
	err     error
}

func (f *fakeOpener) OpenCommand(target hierarchy.Target) (*exec.Cmd, error) {
	f.targets = append(f.targets, target)
	return f.cmd, f.err
}

func TestJumpRunsOpenCommand(t *testing.T) {
	status := NewStatus()
	opener := &fakeOpener{cmd: exec.Command("true")}
	m := NewModel(context.Background(), fixtureTree(t, status), status, WithOpener(opener))

	m, cmd := press(t, m, "o")
	require.NotNil(t, cmd)
	require.Len(t, opener.targets, 1)
	_, ok := m.Selected()
	require.False(t, ok)

	next, _ := m.Update(openedMsg{target: opener.targets[0]})
	require.Contains(t, next.(Model).message, "Opened /src/Base.go:5:3")
}

func TestJumpOpenerError(t *testing.T) {
	status := NewStatus()
	opener := &fakeOpener{err: errors.New("no editor configured")}
	m := NewModel(context.Background(), fixtureTree(t, status), status, WithOpener(opener))

	m, cmd := press(t, m, "enter")
	require.Nil(t, cmd)
	require.True(t, m.isError)
	require.Equal(t, "no editor configured", m.message)
}

func TestQuit(t *testing.T) {
	status := NewStatus()
	m := NewModel(context.Background(), fixtureTree(t, status), status)

	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestResizeKeepsCursorVisible(t *testing.T) {
	status := NewStatus()
	m := NewModel(context.Background(), fixtureTree(t, status), status)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 4})
	m = next.(Model)
	require.Equal(t, 1, m.view.Height)
	m, _ = press(t, m, "down", "down")
	require.Equal(t, 2, m.view.YOffset)
}
