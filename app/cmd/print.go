package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/lsptree/hierarchy"
	"github.com/lexcodex/lsptree/lspconn"
)

// printText writes realised nodes as an indented outline, at most depth
// levels below the roots.
func printText(w io.Writer, tree *hierarchy.Tree, depth int, callSitePreferred bool) {
	tree.Walk(func(node *hierarchy.Node, level int) bool {
		var b strings.Builder
		b.WriteString(strings.Repeat("  ", level))
		switch node.Direction {
		case hierarchy.DirectionSuper:
			b.WriteString("↑ ")
		case hierarchy.DirectionSub:
			b.WriteString("↓ ")
		}
		b.WriteString(node.Name)
		if node.Detail != "" {
			fmt.Fprintf(&b, " (%s)", node.Detail)
		}
		fmt.Fprintf(&b, "  %s", hierarchy.Resolve(node, callSitePreferred))
		if err := tree.Err(node); err != nil {
			fmt.Fprintf(&b, "  [error: %s]", lspconn.ServerMessage(err))
		}
		fmt.Fprintln(w, b.String())
		return level < depth
	})
}

type jsonNode struct {
	Name           string               `json:"name"`
	Detail         string               `json:"detail,omitempty"`
	Symbol         protocol.SymbolKind  `json:"symbolKind"`
	Direction      string               `json:"direction,omitempty"`
	URI            protocol.DocumentURI `json:"uri"`
	Range          protocol.Range       `json:"range"`
	SelectionRange protocol.Range       `json:"selectionRange"`
	FromRanges     []protocol.Range     `json:"fromRanges,omitempty"`
	Target         string               `json:"target"`
	Expanded       bool                 `json:"expanded"`
	Error          string               `json:"error,omitempty"`
	Children       []*jsonNode          `json:"children,omitempty"`
}

type jsonTree struct {
	ID    string      `json:"id"`
	Kind  string      `json:"kind"`
	Roots []*jsonNode `json:"roots"`
}

// printJSON writes the realised tree, at most depth levels below the roots.
func printJSON(w io.Writer, tree *hierarchy.Tree, depth int, callSitePreferred bool) error {
	out := jsonTree{ID: tree.ID(), Kind: tree.Kind().String()}
	for _, root := range tree.Roots() {
		out.Roots = append(out.Roots, toJSONNode(tree, root, 0, depth, callSitePreferred))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func toJSONNode(tree *hierarchy.Tree, node *hierarchy.Node, level, depth int, callSitePreferred bool) *jsonNode {
	jn := &jsonNode{
		Name:           node.Name,
		Detail:         node.Detail,
		Symbol:         node.Symbol,
		URI:            node.URI,
		Range:          node.Range,
		SelectionRange: node.SelectionRange,
		FromRanges:     node.FromRanges,
		Target:         hierarchy.Resolve(node, callSitePreferred).String(),
	}
	if node.Direction != hierarchy.DirectionNone {
		jn.Direction = node.Direction.String()
	}
	if err := tree.Err(node); err != nil {
		jn.Error = lspconn.ServerMessage(err)
	}
	if level >= depth {
		return jn
	}
	kids, expanded := tree.Children(node)
	jn.Expanded = expanded
	for _, child := range kids {
		jn.Children = append(jn.Children, toJSONNode(tree, child, level+1, depth, callSitePreferred))
	}
	return jn
}
