package ast

// LiteralPredicate is ⊤ or ⊥.
type LiteralPredicate struct {
	predBase
}

func (p *LiteralPredicate) String() string { return ToString(p) }

// AssociativePredicate is a conjunction or disjunction of at least two
// predicates.
type AssociativePredicate struct {
	predBase
	children []Predicate
}

// Children returns a copy of the operands.
func (p *AssociativePredicate) Children() []Predicate {
	return append([]Predicate(nil), p.children...)
}
func (p *AssociativePredicate) ChildCount() int        { return len(p.children) }
func (p *AssociativePredicate) Child(i int) Predicate { return p.children[i] }
func (p *AssociativePredicate) String() string        { return ToString(p) }

// BinaryPredicate is an implication or an equivalence.
type BinaryPredicate struct {
	predBase
	left, right Predicate
}

func (p *BinaryPredicate) Left() Predicate  { return p.left }
func (p *BinaryPredicate) Right() Predicate { return p.right }
func (p *BinaryPredicate) String() string   { return ToString(p) }

// UnaryPredicate is a negation.
type UnaryPredicate struct {
	predBase
	child Predicate
}

func (p *UnaryPredicate) Child() Predicate { return p.child }
func (p *UnaryPredicate) String() string   { return ToString(p) }

// QuantifiedPredicate is ∀ or ∃ over at least one declaration.
type QuantifiedPredicate struct {
	predBase
	decls []*BoundIdentDecl
	pred  Predicate
}

// Declarations returns a copy of the bound identifier declarations.
func (p *QuantifiedPredicate) Declarations() []*BoundIdentDecl {
	return append([]*BoundIdentDecl(nil), p.decls...)
}
func (p *QuantifiedPredicate) Predicate() Predicate { return p.pred }
func (p *QuantifiedPredicate) String() string       { return ToString(p) }

// RelationalPredicate compares two expressions.
type RelationalPredicate struct {
	predBase
	left, right Expression
}

func (p *RelationalPredicate) Left() Expression  { return p.left }
func (p *RelationalPredicate) Right() Expression { return p.right }
func (p *RelationalPredicate) String() string    { return ToString(p) }

// SimplePredicate is finite(E).
type SimplePredicate struct {
	predBase
	expr Expression
}

func (p *SimplePredicate) Expression() Expression { return p.expr }
func (p *SimplePredicate) String() string         { return ToString(p) }

// MultiplePredicate is partition(S, s1, ..., sn).
type MultiplePredicate struct {
	predBase
	children []Expression
}

// Children returns a copy of the operands, the partitioned set first.
func (p *MultiplePredicate) Children() []Expression {
	return append([]Expression(nil), p.children...)
}
func (p *MultiplePredicate) ChildCount() int         { return len(p.children) }
func (p *MultiplePredicate) Child(i int) Expression { return p.children[i] }
func (p *MultiplePredicate) String() string         { return ToString(p) }
