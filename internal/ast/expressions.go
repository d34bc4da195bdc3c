package ast

import (
	"math/big"
	"strings"

	"github.com/17451k/rodincore-sub001/internal/types"
)

// ===== Leaves =====

// IntegerLiteral is an arbitrary precision integer constant.
type IntegerLiteral struct {
	exprBase
	value *big.Int
}

// Value returns a copy of the literal value.
func (e *IntegerLiteral) Value() *big.Int { return new(big.Int).Set(e.value) }
func (e *IntegerLiteral) String() string  { return ToString(e) }

// FreeIdentifier is a named reference not bound within the formula.
type FreeIdentifier struct {
	exprBase
	name string
}

// Name returns the identifier name, including its prime if any.
func (e *FreeIdentifier) Name() string   { return e.name }
func (e *FreeIdentifier) String() string { return ToString(e) }

// IsPrimed returns true for names denoting an after-value, such as x'.
func (e *FreeIdentifier) IsPrimed() bool { return IsPrimedName(e.name) }

// IsPrimedName returns true if name ends with a prime.
func IsPrimedName(name string) bool { return strings.HasSuffix(name, "'") }

// BoundIdentifier is a de Bruijn indexed reference to a declaration.
type BoundIdentifier struct {
	exprBase
	index int
}

// Index returns the de Bruijn index, counted from the nearest binder.
func (e *BoundIdentifier) Index() int     { return e.index }
func (e *BoundIdentifier) String() string { return ToString(e) }

// BoundIdentDecl declares a bound identifier in a binder. Its name only
// matters for printing and legibility.
type BoundIdentDecl struct {
	formulaBase
	name string
	typ  types.Type
}

// Name returns the display name of the declaration.
func (d *BoundIdentDecl) Name() string   { return d.name }
func (d *BoundIdentDecl) String() string { return ToString(d) }

// Type returns the declared type, and false when untyped.
func (d *BoundIdentDecl) Type() (types.Type, bool) { return d.typ, d.typ != nil }

// IsPrimed returns true for declarations of after-values.
func (d *BoundIdentDecl) IsPrimed() bool { return IsPrimedName(d.name) }

// AtomicExpression is a constant operator such as ℤ, ∅ or TRUE.
type AtomicExpression struct {
	exprBase
}

func (e *AtomicExpression) String() string { return ToString(e) }

// ===== Operators =====

// BinaryExpression is an expression with two operands, including
// function application f(x) and relational image r[s].
type BinaryExpression struct {
	exprBase
	left, right Expression
}

func (e *BinaryExpression) Left() Expression  { return e.left }
func (e *BinaryExpression) Right() Expression { return e.right }
func (e *BinaryExpression) String() string    { return ToString(e) }

// AssociativeExpression is an n-ary expression over an associative operator.
type AssociativeExpression struct {
	exprBase
	children []Expression
}

// Children returns a copy of the operands.
func (e *AssociativeExpression) Children() []Expression {
	return append([]Expression(nil), e.children...)
}
func (e *AssociativeExpression) ChildCount() int          { return len(e.children) }
func (e *AssociativeExpression) Child(i int) Expression { return e.children[i] }
func (e *AssociativeExpression) String() string         { return ToString(e) }

// UnaryExpression is an expression with one operand.
type UnaryExpression struct {
	exprBase
	child Expression
}

func (e *UnaryExpression) Child() Expression { return e.child }
func (e *UnaryExpression) String() string    { return ToString(e) }

// BoolExpression is bool(P).
type BoolExpression struct {
	exprBase
	pred Predicate
}

func (e *BoolExpression) Predicate() Predicate { return e.pred }
func (e *BoolExpression) String() string       { return ToString(e) }

// SetExtension is an explicit set {a, b, ...} of at least one member.
type SetExtension struct {
	exprBase
	members []Expression
}

// Members returns a copy of the members.
func (e *SetExtension) Members() []Expression {
	return append([]Expression(nil), e.members...)
}
func (e *SetExtension) MemberCount() int         { return len(e.members) }
func (e *SetExtension) Member(i int) Expression { return e.members[i] }
func (e *SetExtension) String() string          { return ToString(e) }

// QuantifiedForm records how a quantified expression was written.
type QuantifiedForm int

const (
	// FormExplicit is {x·P ∣ E} and ⋃x·P ∣ E.
	FormExplicit QuantifiedForm = iota
	// FormImplicit is {E ∣ P}, binding every free identifier of E.
	FormImplicit
	// FormLambda is λpattern·P ∣ E, a set of maplets pattern ↦ E.
	FormLambda
)

func (f QuantifiedForm) String() string {
	switch f {
	case FormExplicit:
		return "explicit"
	case FormImplicit:
		return "implicit"
	case FormLambda:
		return "lambda"
	default:
		return "unknown"
	}
}

// QuantifiedExpression is ⋃, ⋂ or set comprehension.
type QuantifiedExpression struct {
	exprBase
	decls []*BoundIdentDecl
	pred  Predicate
	expr  Expression
	form  QuantifiedForm
}

// Declarations returns a copy of the bound identifier declarations.
func (e *QuantifiedExpression) Declarations() []*BoundIdentDecl {
	return append([]*BoundIdentDecl(nil), e.decls...)
}
func (e *QuantifiedExpression) Predicate() Predicate   { return e.pred }
func (e *QuantifiedExpression) Expression() Expression { return e.expr }
func (e *QuantifiedExpression) Form() QuantifiedForm   { return e.form }
func (e *QuantifiedExpression) String() string         { return ToString(e) }
