package hierarchy

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lexcodex/lsptree/lspconn"
)

// Reporter receives user-visible messages. Error is called once per failed
// node expansion with the server's error text, followed by ClearStatus.
type Reporter interface {
	Error(message string)
	ClearStatus()
}

type nopReporter struct{}

func (nopReporter) Error(string) {}
func (nopReporter) ClearStatus() {}

type options struct {
	reporter  Reporter
	logger    *zap.Logger
	lazyRoots bool
}

// Option configures Build and Show.
type Option func(*options)

// WithReporter routes failure messages to r.
func WithReporter(r Reporter) Option {
	return func(o *options) {
		if r != nil {
			o.reporter = r
		}
	}
}

// WithLogger sets the logger used for expansion failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLazyRoots skips the first-level expansion Build normally performs.
func WithLazyRoots() Option {
	return func(o *options) {
		o.lazyRoots = true
	}
}

func newOptions(opts []Option) options {
	o := options{reporter: nopReporter{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Tree is a lazily expanded hierarchy. Children are fetched on first
// expansion and memoized for the life of the tree; a failed fetch leaves the
// node as a leaf.
type Tree struct {
	id         uuid.UUID
	roots      []*Node
	childrenOf ChildrenFunc
	opts       options

	group singleflight.Group

	mu       sync.RWMutex
	children map[*Node][]*Node
	failures map[*Node]error
}

// Build creates a tree over roots and, unless WithLazyRoots is given,
// expands every root once.
func Build(ctx context.Context, roots []*Node, childrenOf ChildrenFunc, opts ...Option) *Tree {
	t := &Tree{
		id:         uuid.New(),
		roots:      roots,
		childrenOf: childrenOf,
		opts:       newOptions(opts),
		children:   make(map[*Node][]*Node),
		failures:   make(map[*Node]error),
	}
	t.opts.logger.Debug("hierarchy tree built",
		zap.String("tree", t.id.String()),
		zap.Int("roots", len(roots)),
	)
	if !t.opts.lazyRoots {
		for _, root := range t.roots {
			t.Expand(ctx, root)
		}
	}
	return t
}

// ID identifies the tree in logs.
func (t *Tree) ID() string { return t.id.String() }

// Roots returns the root set.
func (t *Tree) Roots() []*Node { return t.roots }

// Kind reports the hierarchy kind of the roots.
func (t *Tree) Kind() Kind {
	if len(t.roots) == 0 {
		return 0
	}
	return t.roots[0].Hierarchy()
}

// Children returns the memoized children of node without fetching.
func (t *Tree) Children(node *Node) ([]*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	kids, ok := t.children[node]
	return kids, ok
}

// Expanded reports whether node's children have been computed.
func (t *Tree) Expanded(node *Node) bool {
	_, ok := t.Children(node)
	return ok
}

// Err returns the fetch error recorded for node, if any.
func (t *Tree) Err(node *Node) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.failures[node]
}

// Expand returns node's children, fetching them on the first call. Repeated
// calls return the same slice without another fetch, and concurrent calls
// for one node share a single fetch.
func (t *Tree) Expand(ctx context.Context, node *Node) []*Node {
	if kids, ok := t.Children(node); ok {
		return kids
	}
	v, _, _ := t.group.Do(fmt.Sprintf("%p", node), func() (any, error) {
		if kids, ok := t.Children(node); ok {
			return kids, nil
		}
		kids, err := t.fetch(ctx, node)
		if err != nil {
			kids = nil
		}
		t.mu.Lock()
		t.children[node] = kids
		if err != nil {
			t.failures[node] = err
		}
		t.mu.Unlock()
		if err != nil {
			t.report(node, err)
		}
		return kids, nil
	})
	return v.([]*Node)
}

// ExpandDepth realises the subtree under node down to depth levels.
func (t *Tree) ExpandDepth(ctx context.Context, node *Node, depth int) {
	if depth <= 0 {
		return
	}
	for _, child := range t.Expand(ctx, node) {
		t.ExpandDepth(ctx, child, depth-1)
	}
}

// Walk visits realised nodes depth-first. Returning false from fn skips the
// node's children.
func (t *Tree) Walk(fn func(node *Node, depth int) bool) {
	for _, root := range t.roots {
		t.walk(root, 0, fn)
	}
}

func (t *Tree) walk(node *Node, depth int, fn func(*Node, int) bool) {
	if !fn(node, depth) {
		return
	}
	kids, _ := t.Children(node)
	for _, child := range kids {
		t.walk(child, depth+1, fn)
	}
}

func (t *Tree) fetch(ctx context.Context, node *Node) (kids []*Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			kids, err = nil, fmt.Errorf("expand %s: panic: %v", node.Name, r)
		}
	}()
	return t.childrenOf(ctx, node)
}

func (t *Tree) report(node *Node, err error) {
	t.opts.logger.Warn("hierarchy expand failed",
		zap.String("tree", t.id.String()),
		zap.Stringer("node", node),
		zap.Error(err),
	)
	t.opts.reporter.Error(lspconn.ServerMessage(err))
	t.opts.reporter.ClearStatus()
}
