// Package ast defines the abstract syntax tree for template source.
package ast

import "shout/internal/template/token"

// Kind is the kind of an ast node.
type Kind int

const (
	KindText Kind = iota
	KindVariable
	KindIf
	KindFor
	KindInclude
	KindExtends
	KindBlock
	KindURL
	KindOr
	KindAnd
	KindNot
	KindLiteral
	KindLookup
)

// String implements [fmt.Stringer] for a [Kind].
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindVariable:
		return "Variable"
	case KindIf:
		return "If"
	case KindFor:
		return "For"
	case KindInclude:
		return "Include"
	case KindExtends:
		return "Extends"
	case KindBlock:
		return "Block"
	case KindURL:
		return "URL"
	case KindOr:
		return "Or"
	case KindAnd:
		return "And"
	case KindNot:
		return "Not"
	case KindLiteral:
		return "Literal"
	case KindLookup:
		return "Lookup"
	default:
		return "Unknown"
	}
}

// Node is the interface for ast nodes.
type Node interface {
	// Start returns the first token associated with the node.
	Start() token.Token

	// End returns the last token associated with the node.
	End() token.Token

	// Kind returns the kind of node this is.
	Kind() Kind
}

// Expression is a node usable as a condition operand.
type Expression interface {
	Node
	expressionNode() // Prevents accidental misuse as another node type
}
