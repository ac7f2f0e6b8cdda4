package hierarchy

import (
	"fmt"

	"go.lsp.dev/protocol"
)

// Node is one entry of a hierarchy tree. Nodes are never deduplicated: the
// same symbol may appear any number of times in one tree.
type Node struct {
	Name   string
	Detail string
	Symbol protocol.SymbolKind

	URI            protocol.DocumentURI
	Range          protocol.Range
	SelectionRange protocol.Range

	// Direction is set on type nodes only.
	Direction Direction
	// FromRanges holds call-site ranges for call nodes, in server order.
	FromRanges []protocol.Range

	hierarchy Kind

	typeItem *TypeHierarchyItem
	callItem *protocol.CallHierarchyItem
}

// Hierarchy reports whether n is a type or a call node.
func (n *Node) Hierarchy() Kind { return n.hierarchy }

// String renders the node for logs.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s (%s:%d)", n.Name, n.URI, n.Range.Start.Line+1)
}

func newTypeNode(item TypeHierarchyItem, tag Direction) *Node {
	it := item
	return &Node{
		Name:           item.Name,
		Detail:         item.Detail,
		Symbol:         item.Kind,
		URI:            item.URI,
		Range:          item.Range,
		SelectionRange: item.SelectionRange,
		Direction:      tag,
		hierarchy:      KindType,
		typeItem:       &it,
	}
}

func newCallNode(item protocol.CallHierarchyItem, fromRanges []protocol.Range) *Node {
	it := item
	return &Node{
		Name:           item.Name,
		Detail:         item.Detail,
		Symbol:         item.Kind,
		URI:            item.URI,
		Range:          item.Range,
		SelectionRange: item.SelectionRange,
		Direction:      DirectionNone,
		FromRanges:     fromRanges,
		hierarchy:      KindCall,
		callItem:       &it,
	}
}

// NewTypeNode builds a detached type node, e.g. for display tests.
func NewTypeNode(name string, uri protocol.DocumentURI, rng protocol.Range, tag Direction) *Node {
	return &Node{
		Name:           name,
		URI:            uri,
		Range:          rng,
		SelectionRange: rng,
		Direction:      tag,
		hierarchy:      KindType,
	}
}

// NewCallNode builds a detached call node from a call hierarchy item.
func NewCallNode(item protocol.CallHierarchyItem, fromRanges ...protocol.Range) *Node {
	return newCallNode(item, fromRanges)
}
