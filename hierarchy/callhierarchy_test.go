package hierarchy

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func incomingFixture(conn *fakeConn) {
	conn.reply(MethodPrepareCallHierarchy, []protocol.CallHierarchyItem{callItem("foo", 3)})
	conn.reply(MethodIncomingCalls, []protocol.CallHierarchyIncomingCall{
		{From: callItem("caller1", 10), FromRanges: []protocol.Range{rng(12, 4, 12, 7)}},
		{From: callItem("caller2", 20), FromRanges: []protocol.Range{}},
	})
}

func TestCallRootsFromPrepare(t *testing.T) {
	conn := newFakeConn()
	incomingFixture(conn)

	roots, err := NewCallAdapter(conn, false).Roots(context.Background(), cursor)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "foo", roots[0].Name)
	assert.Equal(t, KindCall, roots[0].Hierarchy())
	assert.Empty(t, roots[0].FromRanges)

	var params protocol.CallHierarchyPrepareParams
	decodeParams(t, conn.callsTo(MethodPrepareCallHierarchy)[0].params, &params)
	assert.Equal(t, cursor.URI, params.TextDocument.URI)
	assert.Equal(t, cursor.Position, params.Position)
}

func TestCallFetchIncomingKeepsServerOrder(t *testing.T) {
	conn := newFakeConn()
	incomingFixture(conn)
	adapter := NewCallAdapter(conn, false)
	roots, err := adapter.Roots(context.Background(), cursor)
	require.NoError(t, err)

	kids, err := adapter.Fetch(context.Background(), roots[0], RequestBoth)
	require.NoError(t, err)
	assert.Equal(t, []string{"caller1", "caller2"}, names(kids))
	assert.Equal(t, []protocol.Range{rng(12, 4, 12, 7)}, kids[0].FromRanges)
	assert.Empty(t, kids[1].FromRanges)
	assert.Equal(t, []Direction{DirectionNone, DirectionNone}, tags(kids))

	calls := conn.callsTo(MethodIncomingCalls)
	require.Len(t, calls, 1)
	var params protocol.CallHierarchyIncomingCallsParams
	decodeParams(t, calls[0].params, &params)
	assert.Equal(t, "foo", params.Item.Name)
	assert.Empty(t, conn.callsTo(MethodOutgoingCalls))
}

func TestCallFetchOutgoing(t *testing.T) {
	conn := newFakeConn()
	conn.reply(MethodPrepareCallHierarchy, []protocol.CallHierarchyItem{callItem("foo", 3)})
	conn.reply(MethodOutgoingCalls, []protocol.CallHierarchyOutgoingCall{
		{To: callItem("zeta", 1), FromRanges: []protocol.Range{rng(5, 2, 5, 6), rng(8, 2, 8, 6)}},
		{To: callItem("alpha", 2), FromRanges: []protocol.Range{rng(9, 2, 9, 7)}},
	})
	adapter := NewCallAdapter(conn, true)
	require.True(t, adapter.Outgoing())
	roots, err := adapter.Roots(context.Background(), cursor)
	require.NoError(t, err)

	kids, err := adapter.Fetch(context.Background(), roots[0], RequestBoth)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha"}, names(kids))
	assert.Len(t, kids[0].FromRanges, 2)
	assert.Empty(t, conn.callsTo(MethodIncomingCalls))
}

func TestCallFetchForwardsItemData(t *testing.T) {
	item := callItem("foo", 3)
	item.Data = map[string]any{"symbolID": "abc"}
	conn := newFakeConn()
	conn.reply(MethodPrepareCallHierarchy, []protocol.CallHierarchyItem{item})
	conn.reply(MethodIncomingCalls, nil)
	adapter := NewCallAdapter(conn, false)
	roots, err := adapter.Roots(context.Background(), cursor)
	require.NoError(t, err)

	kids, err := adapter.Fetch(context.Background(), roots[0], RequestBoth)
	require.NoError(t, err)
	assert.Empty(t, kids)

	var params struct {
		Item struct {
			Data map[string]string `json:"data"`
		} `json:"item"`
	}
	decodeParams(t, conn.callsTo(MethodIncomingCalls)[0].params, &params)
	assert.Equal(t, "abc", params.Item.Data["symbolID"])
}

func TestCallRootsEmpty(t *testing.T) {
	for name, reply := range map[string]any{
		"empty list": []protocol.CallHierarchyItem{},
		"null":       nil,
	} {
		t.Run(name, func(t *testing.T) {
			conn := newFakeConn()
			conn.reply(MethodPrepareCallHierarchy, reply)
			roots, err := NewCallAdapter(conn, false).Roots(context.Background(), cursor)
			require.ErrorIs(t, err, ErrNotInCallHierarchy)
			assert.Nil(t, roots)
		})
	}
}

func TestDecodePrepareAcceptsSingleItem(t *testing.T) {
	raw, err := json.Marshal(callItem("solo", 1))
	require.NoError(t, err)

	items, err := decodePrepareCallHierarchy(raw)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "solo", items[0].Name)

	_, err = decodePrepareCallHierarchy(json.RawMessage(`"nope"`))
	require.Error(t, err)
}

func TestCallFetchRejectsTypeNode(t *testing.T) {
	conn := newFakeConn()
	_, err := NewCallAdapter(conn, false).Fetch(context.Background(), newTypeNode(typeItem("A", 1), DirectionSub), RequestBoth)
	require.ErrorIs(t, err, errWrongKind)
	assert.Zero(t, conn.callCount())
}
