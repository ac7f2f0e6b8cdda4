// Package hierarchy builds lazily expanded type and call hierarchy trees from
// language server replies.
//
// A tree is created per invocation with Show (or ShowTypeHierarchy and
// ShowCallHierarchy), which checks the server capability, acquires the roots
// at the cursor through an Adapter and builds a Tree whose children are
// fetched on demand:
//
//	tree, err := hierarchy.ShowCallHierarchy(ctx, conn, at, false,
//	    hierarchy.WithReporter(reporter))
//	if err != nil {
//	    return err // nothing to display
//	}
//	for _, caller := range tree.Expand(ctx, tree.Roots()[0]) {
//	    target := hierarchy.Resolve(caller, true)
//	    ...
//	}
//
// Type hierarchy siblings are ordered parents first, then children, each
// group sorted by name. Call hierarchy siblings keep the server's order. A
// node whose fetch fails becomes a leaf and the failure is reported once;
// the rest of the tree is unaffected.
package hierarchy
