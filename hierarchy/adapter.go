package hierarchy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/lsptree/lspconn"
)

var (
	// ErrCapabilityMissing is returned when the server lacks the hierarchy
	// provider for the requested kind. It wraps lspconn.ErrNotSupported.
	ErrCapabilityMissing = fmt.Errorf("hierarchy %w", lspconn.ErrNotSupported)

	// ErrNoSymbol is returned when a type hierarchy request finds no symbol
	// under the cursor.
	ErrNoSymbol = errors.New("no symbol under cursor")

	// ErrNotInCallHierarchy is returned when prepareCallHierarchy yields no
	// candidate items.
	ErrNotInCallHierarchy = errors.New("not in a call hierarchy")

	errWrongKind = errors.New("node belongs to a different hierarchy")
)

// TextPosition is the cursor context a hierarchy starts from.
type TextPosition struct {
	URI      protocol.DocumentURI
	Position protocol.Position
}

func (p TextPosition) params() protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: p.URI},
		Position:     p.Position,
	}
}

// Adapter hides the differences between hierarchy kinds behind one fetch
// contract. An adapter is bound to a single connection for its lifetime.
type Adapter interface {
	// Kind reports which hierarchy the adapter speaks.
	Kind() Kind
	// Capability is the server capability that must be advertised.
	Capability() string
	// Roots acquires the root node(s) at the cursor. An empty result is
	// reported as ErrNoSymbol or ErrNotInCallHierarchy.
	Roots(ctx context.Context, at TextPosition) ([]*Node, error)
	// Fetch returns node's children in display order.
	Fetch(ctx context.Context, node *Node, dir RequestDirection) ([]*Node, error)
}

// ChildrenFunc computes the children of one node.
type ChildrenFunc func(ctx context.Context, node *Node) ([]*Node, error)

// Bind turns an adapter into the children function a Tree expands with.
// dir applies to untagged nodes (the type root); tagged nodes keep their
// own direction.
func Bind(a Adapter, dir RequestDirection) ChildrenFunc {
	return func(ctx context.Context, node *Node) ([]*Node, error) {
		return a.Fetch(ctx, node, RequestFor(node.Direction, dir))
	}
}

func isNullRaw(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}
