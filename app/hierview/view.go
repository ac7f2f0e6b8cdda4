package hierview

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lexcodex/lsptree/hierarchy"
)

// View composes the header, the tree viewport, the status bar and help.
func (m Model) View() string {
	header := headerStyle.Render(truncate(m.title, max(10, m.width)))
	status := StatusBar{
		title:   m.title,
		busy:    m.status.Busy(),
		message: m.message,
		isError: m.isError,
		rows:    len(m.rows),
		cursor:  m.cursor,
	}.View(m.width)
	m.help.ShowAll = m.showHelp
	return lipgloss.JoinVertical(lipgloss.Left, header, m.view.View(), status, m.help.View(m.keys))
}

func (m Model) renderRows() string {
	if len(m.rows) == 0 {
		return dimStyle.Render("(empty)")
	}
	lines := make([]string, 0, len(m.rows))
	for i, r := range m.rows {
		lines = append(lines, m.renderRow(r, i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(r row, selected bool) string {
	node := r.node
	indent := strings.Repeat("  ", r.depth)
	name := node.Name
	if selected {
		name = selectedStyle.Render(name)
	} else {
		name = nameStyle.Render(name)
	}
	parts := []string{indent + m.marker(node), directionGlyph(node) + name}
	if node.Detail != "" {
		parts = append(parts, detailStyle.Render(node.Detail))
	}
	parts = append(parts, dimStyle.Render(location(node)))
	return strings.Join(parts, " ")
}

func (m Model) marker(node *hierarchy.Node) string {
	if m.tree.Err(node) != nil {
		return failedStyle.Render("✗")
	}
	kids, expanded := m.tree.Children(node)
	switch {
	case !expanded:
		return "▸"
	case len(kids) == 0:
		return dimStyle.Render("·")
	case m.open[node]:
		return "▾"
	default:
		return "▸"
	}
}

func directionGlyph(node *hierarchy.Node) string {
	switch node.Direction {
	case hierarchy.DirectionSuper:
		return superStyle.Render("↑ ")
	case hierarchy.DirectionSub:
		return subStyle.Render("↓ ")
	default:
		return ""
	}
}

func location(node *hierarchy.Node) string {
	target := hierarchy.Target{URI: node.URI, Position: node.SelectionRange.Start}
	if p, ok := target.Filename(); ok {
		return fmt.Sprintf("%s:%d", filepath.Base(p), target.Position.Line+1)
	}
	return target.String()
}
