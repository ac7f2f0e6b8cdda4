package hierarchy

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexcodex/lsptree/lspconn"
)

// Show runs one "show hierarchy" invocation: it checks the capability,
// acquires the roots and builds the tree. Capability and root failures are
// terminal: one message is reported and no tree is returned.
func Show(ctx context.Context, conn lspconn.Connection, adapter Adapter, at TextPosition, dir RequestDirection, opts ...Option) (*Tree, error) {
	o := newOptions(opts)
	if !conn.Capable(adapter.Capability()) {
		o.reporter.Error(fmt.Sprintf("Server does not support %s hierarchy", adapter.Kind()))
		return nil, fmt.Errorf("%s: %w", adapter.Capability(), ErrCapabilityMissing)
	}
	roots, err := adapter.Roots(ctx, at)
	if err != nil {
		o.reporter.Error(rootMessage(err))
		o.logger.Info("hierarchy root unavailable",
			zap.Stringer("kind", adapter.Kind()),
			zap.String("uri", string(at.URI)),
			zap.Error(err),
		)
		return nil, err
	}
	return Build(ctx, roots, Bind(adapter, dir), opts...), nil
}

// ShowTypeHierarchy shows the type hierarchy at the cursor.
func ShowTypeHierarchy(ctx context.Context, conn lspconn.Connection, at TextPosition, dir RequestDirection, resolve int, opts ...Option) (*Tree, error) {
	o := newOptions(opts)
	adapter := NewTypeAdapter(conn, WithResolveLevels(resolve), WithTypeLogger(o.logger))
	return Show(ctx, conn, adapter, at, dir, opts...)
}

// ShowCallHierarchy shows callers (or callees when outgoing) at the cursor.
func ShowCallHierarchy(ctx context.Context, conn lspconn.Connection, at TextPosition, outgoing bool, opts ...Option) (*Tree, error) {
	return Show(ctx, conn, NewCallAdapter(conn, outgoing), at, RequestBoth, opts...)
}

func rootMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoSymbol):
		return "No symbol under cursor"
	case errors.Is(err, ErrNotInCallHierarchy):
		return "Not in a call hierarchy"
	default:
		return lspconn.ServerMessage(err)
	}
}
