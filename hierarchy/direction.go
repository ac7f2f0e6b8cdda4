package hierarchy

import (
	"fmt"
	"strings"
)

// Kind identifies which relation a node or tree was built from.
type Kind uint8

const (
	KindType Kind = iota + 1
	KindCall
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindCall:
		return "call"
	default:
		return "unknown"
	}
}

// Direction tags how a type node was discovered. Call nodes are always
// DirectionNone.
type Direction uint8

const (
	DirectionNone Direction = iota
	DirectionSub
	DirectionSuper
)

// String returns the tag name.
func (d Direction) String() string {
	switch d {
	case DirectionSub:
		return "sub"
	case DirectionSuper:
		return "super"
	default:
		return "none"
	}
}

// RequestDirection selects which relations a type hierarchy fetch asks for.
// RequestBoth is only ever a request value; nodes are tagged Sub or Super.
type RequestDirection uint8

const (
	RequestBoth RequestDirection = iota
	RequestSub
	RequestSuper
)

// String returns the request name.
func (d RequestDirection) String() string {
	switch d {
	case RequestSub:
		return "sub"
	case RequestSuper:
		return "super"
	default:
		return "both"
	}
}

// Includes reports whether nodes tagged tag are part of the request.
func (d RequestDirection) Includes(tag Direction) bool {
	switch tag {
	case DirectionSub:
		return d == RequestSub || d == RequestBoth
	case DirectionSuper:
		return d == RequestSuper || d == RequestBoth
	default:
		return false
	}
}

// wire returns the textDocument/typeHierarchy direction value
// (0 children, 1 parents, 2 both).
func (d RequestDirection) wire() int {
	switch d {
	case RequestSub:
		return 0
	case RequestSuper:
		return 1
	default:
		return 2
	}
}

// RequestFor picks the request direction used to expand a node: tagged nodes
// keep walking the way they were found, untagged nodes use fallback.
func RequestFor(tag Direction, fallback RequestDirection) RequestDirection {
	switch tag {
	case DirectionSub:
		return RequestSub
	case DirectionSuper:
		return RequestSuper
	default:
		return fallback
	}
}

// ParseRequestDirection accepts sub|subtypes|children, super|supertypes|parents
// and both. The empty string means both.
func ParseRequestDirection(s string) (RequestDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return RequestBoth, nil
	case "sub", "subtypes", "children":
		return RequestSub, nil
	case "super", "supertypes", "parents":
		return RequestSuper, nil
	default:
		return RequestBoth, fmt.Errorf("direction %q must be sub|super|both", s)
	}
}
