package hierarchy

import (
	"context"
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/lsptree/lspconn"
)

const (
	MethodPrepareCallHierarchy = "textDocument/prepareCallHierarchy"
	MethodIncomingCalls        = "callHierarchy/incomingCalls"
	MethodOutgoingCalls        = "callHierarchy/outgoingCalls"

	// CapabilityCallHierarchy is the server capability for call hierarchies.
	CapabilityCallHierarchy = "callHierarchyProvider"
)

// CallAdapter fetches callers (incoming) or callees (outgoing). The mode is
// fixed for the adapter's lifetime.
type CallAdapter struct {
	conn     lspconn.Connection
	outgoing bool
}

var _ Adapter = (*CallAdapter)(nil)

// NewCallAdapter binds a call hierarchy adapter to conn.
func NewCallAdapter(conn lspconn.Connection, outgoing bool) *CallAdapter {
	return &CallAdapter{conn: conn, outgoing: outgoing}
}

// Kind implements Adapter.
func (a *CallAdapter) Kind() Kind { return KindCall }

// Capability implements Adapter.
func (a *CallAdapter) Capability() string { return CapabilityCallHierarchy }

// Outgoing reports whether the adapter lists callees.
func (a *CallAdapter) Outgoing() bool { return a.outgoing }

// Roots implements Adapter.
func (a *CallAdapter) Roots(ctx context.Context, at TextPosition) ([]*Node, error) {
	params := protocol.CallHierarchyPrepareParams{
		TextDocumentPositionParams: at.params(),
	}
	var raw json.RawMessage
	if err := a.conn.Request(ctx, MethodPrepareCallHierarchy, params, &raw); err != nil {
		return nil, err
	}
	items, err := decodePrepareCallHierarchy(raw)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotInCallHierarchy
	}
	roots := make([]*Node, 0, len(items))
	for _, item := range items {
		roots = append(roots, newCallNode(item, nil))
	}
	return roots, nil
}

// Fetch implements Adapter. dir is ignored; server order is preserved.
func (a *CallAdapter) Fetch(ctx context.Context, node *Node, _ RequestDirection) ([]*Node, error) {
	if node.hierarchy != KindCall || node.callItem == nil {
		return nil, fmt.Errorf("fetch %s: %w", node.Name, errWrongKind)
	}
	if a.outgoing {
		return a.outgoingCalls(ctx, *node.callItem)
	}
	return a.incomingCalls(ctx, *node.callItem)
}

func (a *CallAdapter) incomingCalls(ctx context.Context, item protocol.CallHierarchyItem) ([]*Node, error) {
	var raw json.RawMessage
	err := a.conn.Request(ctx, MethodIncomingCalls, protocol.CallHierarchyIncomingCallsParams{Item: item}, &raw)
	if err != nil {
		return nil, err
	}
	if isNullRaw(raw) {
		return nil, nil
	}
	var calls []protocol.CallHierarchyIncomingCall
	if err := json.Unmarshal(raw, &calls); err != nil {
		return nil, fmt.Errorf("decode %s: %w", MethodIncomingCalls, err)
	}
	nodes := make([]*Node, 0, len(calls))
	for _, call := range calls {
		nodes = append(nodes, newCallNode(call.From, call.FromRanges))
	}
	return nodes, nil
}

func (a *CallAdapter) outgoingCalls(ctx context.Context, item protocol.CallHierarchyItem) ([]*Node, error) {
	var raw json.RawMessage
	err := a.conn.Request(ctx, MethodOutgoingCalls, protocol.CallHierarchyOutgoingCallsParams{Item: item}, &raw)
	if err != nil {
		return nil, err
	}
	if isNullRaw(raw) {
		return nil, nil
	}
	var calls []protocol.CallHierarchyOutgoingCall
	if err := json.Unmarshal(raw, &calls); err != nil {
		return nil, fmt.Errorf("decode %s: %w", MethodOutgoingCalls, err)
	}
	nodes := make([]*Node, 0, len(calls))
	for _, call := range calls {
		nodes = append(nodes, newCallNode(call.To, call.FromRanges))
	}
	return nodes, nil
}

// decodePrepareCallHierarchy accepts CallHierarchyItem[] | CallHierarchyItem | null.
func decodePrepareCallHierarchy(raw json.RawMessage) ([]protocol.CallHierarchyItem, error) {
	if isNullRaw(raw) {
		return nil, nil
	}
	var items []protocol.CallHierarchyItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var item protocol.CallHierarchyItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decode %s: %w", MethodPrepareCallHierarchy, err)
	}
	return []protocol.CallHierarchyItem{item}, nil
}
