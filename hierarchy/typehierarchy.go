package hierarchy

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/lexcodex/lsptree/lspconn"
)

const (
	// MethodTypeHierarchy is the single-request type hierarchy method.
	MethodTypeHierarchy = "textDocument/typeHierarchy"
	// CapabilityTypeHierarchy is the server capability for MethodTypeHierarchy.
	CapabilityTypeHierarchy = "typeHierarchyProvider"

	defaultResolveLevels = 1
)

// TypeHierarchyParams are the textDocument/typeHierarchy request params.
type TypeHierarchyParams struct {
	protocol.TextDocumentPositionParams

	// Resolve is the number of relation levels the server resolves eagerly.
	Resolve int `json:"resolve"`
	// Direction is 0 for children, 1 for parents, 2 for both.
	Direction int `json:"direction"`
}

// TypeHierarchyItem is the textDocument/typeHierarchy reply. Parents and
// Children are nil when the server did not resolve them.
type TypeHierarchyItem struct {
	Name           string               `json:"name"`
	Detail         string               `json:"detail,omitempty"`
	Kind           protocol.SymbolKind  `json:"kind"`
	Deprecated     bool                 `json:"deprecated,omitempty"`
	URI            protocol.DocumentURI `json:"uri"`
	Range          protocol.Range       `json:"range"`
	SelectionRange protocol.Range       `json:"selectionRange"`
	Parents        []TypeHierarchyItem  `json:"parents"`
	Children       []TypeHierarchyItem  `json:"children"`
	Data           json.RawMessage      `json:"data,omitempty"`
}

func (it *TypeHierarchyItem) resolvedFor(dir RequestDirection) bool {
	if dir.Includes(DirectionSuper) && it.Parents == nil {
		return false
	}
	if dir.Includes(DirectionSub) && it.Children == nil {
		return false
	}
	return true
}

// TypeOption configures a TypeAdapter.
type TypeOption func(*TypeAdapter)

// WithResolveLevels sets how many levels the server resolves per request.
func WithResolveLevels(n int) TypeOption {
	return func(a *TypeAdapter) {
		if n > 0 {
			a.resolve = n
		}
	}
}

// WithTypeLogger sets the adapter logger.
func WithTypeLogger(logger *zap.Logger) TypeOption {
	return func(a *TypeAdapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// TypeAdapter fetches type hierarchies with textDocument/typeHierarchy.
type TypeAdapter struct {
	conn    lspconn.Connection
	resolve int
	logger  *zap.Logger
}

var _ Adapter = (*TypeAdapter)(nil)

// NewTypeAdapter binds a type hierarchy adapter to conn.
func NewTypeAdapter(conn lspconn.Connection, opts ...TypeOption) *TypeAdapter {
	a := &TypeAdapter{
		conn:    conn,
		resolve: defaultResolveLevels,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Kind implements Adapter.
func (a *TypeAdapter) Kind() Kind { return KindType }

// Capability implements Adapter.
func (a *TypeAdapter) Capability() string { return CapabilityTypeHierarchy }

// Roots implements Adapter. The root is requested with both directions so
// its children can be served from the same reply.
func (a *TypeAdapter) Roots(ctx context.Context, at TextPosition) ([]*Node, error) {
	item, err := a.request(ctx, at, RequestBoth)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNoSymbol
	}
	return []*Node{newTypeNode(*item, DirectionNone)}, nil
}

// Fetch implements Adapter. Parents come first, then children; each group is
// sorted by name. Relations the server already resolved are used without a
// new request.
func (a *TypeAdapter) Fetch(ctx context.Context, node *Node, dir RequestDirection) ([]*Node, error) {
	if node.hierarchy != KindType {
		return nil, fmt.Errorf("fetch %s: %w", node.Name, errWrongKind)
	}
	item := node.typeItem
	if item == nil || !item.resolvedFor(dir) {
		reply, err := a.request(ctx, TextPosition{URI: node.URI, Position: node.Range.Start}, dir)
		if err != nil {
			return nil, err
		}
		if reply == nil {
			a.logger.Debug("type hierarchy vanished", zap.Stringer("node", node))
			return nil, nil
		}
		item = reply
	}
	return typeChildren(item, dir), nil
}

func (a *TypeAdapter) request(ctx context.Context, at TextPosition, dir RequestDirection) (*TypeHierarchyItem, error) {
	params := TypeHierarchyParams{
		TextDocumentPositionParams: at.params(),
		Resolve:                    a.resolve,
		Direction:                  dir.wire(),
	}
	var raw json.RawMessage
	if err := a.conn.Request(ctx, MethodTypeHierarchy, params, &raw); err != nil {
		return nil, err
	}
	if isNullRaw(raw) {
		return nil, nil
	}
	var item TypeHierarchyItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decode %s: %w", MethodTypeHierarchy, err)
	}
	return &item, nil
}

func typeChildren(item *TypeHierarchyItem, dir RequestDirection) []*Node {
	var out []*Node
	if dir.Includes(DirectionSuper) {
		out = append(out, sortedTypeNodes(item.Parents, DirectionSuper)...)
	}
	if dir.Includes(DirectionSub) {
		out = append(out, sortedTypeNodes(item.Children, DirectionSub)...)
	}
	return out
}

func sortedTypeNodes(items []TypeHierarchyItem, tag Direction) []*Node {
	nodes := make([]*Node, 0, len(items))
	for _, it := range items {
		nodes = append(nodes, newTypeNode(it, tag))
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})
	return nodes
}
