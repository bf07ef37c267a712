// Package expr implements the boolean query language over tri-state
// categories: symbolic category tokens, prefix "!" (explicit NO) and "?"
// (UNSET), "." or juxtaposition for AND, "+" for OR, parentheses for
// grouping. The empty expression matches everything.
package expr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is the sentinel for malformed expressions.
var ErrSyntax = errors.New("syntax error")

// SyntaxError reports a malformed expression with the byte offset of the
// offending token.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Mode selects which tri-state a category leaf matches.
type Mode uint8

const (
	// ModeYes matches entities where the category is explicitly present.
	ModeYes Mode = iota
	// ModeNo matches entities where the category is explicitly absent.
	ModeNo
	// ModeUnset matches entities where the category is unassigned.
	ModeUnset
)

// Node is an immutable expression tree node. Evaluation happens against a
// single consistent snapshot of the state store; the tree itself carries
// no state.
type Node interface {
	fmt.Stringer
	isNode()
}

// Leaf references one category in one mode.
type Leaf struct {
	Key   string
	Index int // registry index
	Mode  Mode
}

func (Leaf) isNode() {}

func (l Leaf) String() string {
	switch l.Mode {
	case ModeNo:
		return "!" + l.Key
	case ModeUnset:
		return "?" + l.Key
	default:
		return l.Key
	}
}

// Op is a boolean connective.
type Op uint8

const (
	// OpAnd intersects its children.
	OpAnd Op = iota
	// OpOr unions its children.
	OpOr
)

// NAry is an n-ary AND or OR over two or more children. Both connectives
// are commutative and associative; the parser flattens chains.
type NAry struct {
	Op       Op
	Children []Node
}

func (NAry) isNode() {}

func (n NAry) String() string {
	sep := "."
	if n.Op == OpOr {
		sep = "+"
	}
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		if inner, ok := c.(NAry); ok && inner.Op != n.Op {
			parts[i] = "(" + c.String() + ")"
		} else {
			parts[i] = c.String()
		}
	}
	return strings.Join(parts, sep)
}

// MatchAll is the identity AND: the empty expression, matching every
// entity of the partition.
type MatchAll struct{}

func (MatchAll) isNode() {}

func (MatchAll) String() string { return "" }
