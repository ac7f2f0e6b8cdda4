package hierarchy

import (
	"fmt"
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// Target is where a selected node should be opened.
type Target struct {
	URI      protocol.DocumentURI
	Position protocol.Position
}

// Resolve maps a node to its jump target. Type nodes jump to the start of
// their range. Call nodes jump to the first call site when callSitePreferred
// is set and one exists, otherwise to the start of their selection range.
func Resolve(node *Node, callSitePreferred bool) Target {
	if node.Hierarchy() == KindCall {
		if callSitePreferred && len(node.FromRanges) > 0 {
			return Target{URI: node.URI, Position: node.FromRanges[0].Start}
		}
		return Target{URI: node.URI, Position: node.SelectionRange.Start}
	}
	return Target{URI: node.URI, Position: node.Range.Start}
}

// Filename returns the local path for file URIs.
func (t Target) Filename() (string, bool) {
	if !strings.HasPrefix(string(t.URI), uri.FileScheme+"://") {
		return "", false
	}
	return uri.URI(t.URI).Filename(), true
}

// String renders the target as path:line:col with 1-based line and column.
func (t Target) String() string {
	loc := string(t.URI)
	if path, ok := t.Filename(); ok {
		loc = path
	}
	return fmt.Sprintf("%s:%d:%d", loc, t.Position.Line+1, t.Position.Character+1)
}
