package ast

import "shout/internal/template/token"

// Or is a short-circuiting "x or y" expression.
type Or struct {
	// Left is the first operand.
	Left Expression

	// Right is the second operand.
	Right Expression

	// Token is the enclosing tag's token.
	Token token.Token
}

func (o Or) Start() token.Token { return o.Token }
func (o Or) End() token.Token   { return o.Token }
func (o Or) Kind() Kind         { return KindOr }

// expressionNode marks an [Or] as an [Expression].
func (o Or) expressionNode() {}

// And is a short-circuiting "x and y" expression.
type And struct {
	// Left is the first operand.
	Left Expression

	// Right is the second operand.
	Right Expression

	// Token is the enclosing tag's token.
	Token token.Token
}

func (a And) Start() token.Token { return a.Token }
func (a And) End() token.Token   { return a.Token }
func (a And) Kind() Kind         { return KindAnd }

// expressionNode marks an [And] as an [Expression].
func (a And) expressionNode() {}

// Not is a "not x" expression.
type Not struct {
	// Operand is the negated expression.
	Operand Expression

	// Token is the enclosing tag's token.
	Token token.Token
}

func (n Not) Start() token.Token { return n.Token }
func (n Not) End() token.Token   { return n.Token }
func (n Not) Kind() Kind         { return KindNot }

// expressionNode marks a [Not] as an [Expression].
func (n Not) expressionNode() {}

// Literal is a constant: True, False, None, a quoted string or a number.
type Literal struct {
	// Value is the constant value. nil for None.
	Value any

	// Token is the enclosing tag's token.
	Token token.Token
}

func (l Literal) Start() token.Token { return l.Token }
func (l Literal) End() token.Token   { return l.Token }
func (l Literal) Kind() Kind         { return KindLiteral }

// expressionNode marks a [Literal] as an [Expression].
func (l Literal) expressionNode() {}

// Lookup is a dotted variable path leaf inside a condition.
type Lookup struct {
	// Path is the dotted lookup path as written.
	Path string

	// Token is the enclosing tag's token.
	Token token.Token
}

func (l Lookup) Start() token.Token { return l.Token }
func (l Lookup) End() token.Token   { return l.Token }
func (l Lookup) Kind() Kind         { return KindLookup }

// expressionNode marks a [Lookup] as an [Expression].
func (l Lookup) expressionNode() {}
