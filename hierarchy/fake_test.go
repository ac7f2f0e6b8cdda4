package hierarchy

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

type fakeCall struct {
	method string
	params json.RawMessage
}

// fakeConn is an in-memory lspconn.Connection. Params and results go through
// a JSON round-trip so adapters see exactly what a real server would send.
type fakeConn struct {
	caps     map[string]bool
	handlers map[string]func(params json.RawMessage) (any, error)

	mu    sync.Mutex
	calls []fakeCall
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		caps: map[string]bool{
			CapabilityTypeHierarchy: true,
			CapabilityCallHierarchy: true,
		},
		handlers: make(map[string]func(json.RawMessage) (any, error)),
	}
}

func (f *fakeConn) on(method string, h func(params json.RawMessage) (any, error)) {
	f.handlers[method] = h
}

func (f *fakeConn) reply(method string, result any) {
	f.on(method, func(json.RawMessage) (any, error) { return result, nil })
}

func (f *fakeConn) Capable(capability string) bool {
	return f.caps[capability]
}

func (f *fakeConn) Request(ctx context.Context, method string, params, result any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{method: method, params: raw})
	h, ok := f.handlers[method]
	f.mu.Unlock()
	if !ok {
		return json.Unmarshal([]byte("null"), result)
	}
	out, err := h(raw)
	if err != nil {
		return err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}

func (f *fakeConn) callsTo(method string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeConn) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) Error(message string) { m.Called(message) }
func (m *mockReporter) ClearStatus()         { m.Called() }

// recordingReporter collects messages without expectations.
type recordingReporter struct {
	mu      sync.Mutex
	errors  []string
	cleared int
}

func (r *recordingReporter) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

func (r *recordingReporter) ClearStatus() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

func rng(line, char, endLine, endChar uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: char},
		End:   protocol.Position{Line: endLine, Character: endChar},
	}
}

func typeItem(name string, line uint32) TypeHierarchyItem {
	return TypeHierarchyItem{
		Name:           name,
		Kind:           protocol.SymbolKindClass,
		URI:            protocol.DocumentURI("file:///src/" + name + ".go"),
		Range:          rng(line, 0, line+3, 1),
		SelectionRange: rng(line, 5, line, 5+uint32(len(name))),
	}
}

func callItem(name string, line uint32) protocol.CallHierarchyItem {
	return protocol.CallHierarchyItem{
		Name:           name,
		Kind:           protocol.SymbolKindFunction,
		URI:            protocol.DocumentURI("file:///src/" + name + ".go"),
		Range:          rng(line, 0, line+10, 1),
		SelectionRange: rng(line, 5, line, 5+uint32(len(name))),
	}
}

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func tags(nodes []*Node) []Direction {
	out := make([]Direction, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Direction)
	}
	return out
}

func decodeParams(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}
