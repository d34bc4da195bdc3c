package ast

// BecomesEqualTo is the deterministic assignment x, y ≔ E, F.
type BecomesEqualTo struct {
	assignBase
	idents []*FreeIdentifier
	values []Expression
}

func (a *BecomesEqualTo) AssignedIdentifiers() []*FreeIdentifier {
	return append([]*FreeIdentifier(nil), a.idents...)
}

// Values returns a copy of the right-hand side, one value per identifier.
func (a *BecomesEqualTo) Values() []Expression {
	return append([]Expression(nil), a.values...)
}
func (a *BecomesEqualTo) String() string { return ToString(a) }

// BecomesMemberOf is the nondeterministic assignment x :∈ S.
type BecomesMemberOf struct {
	assignBase
	ident *FreeIdentifier
	set   Expression
}

func (a *BecomesMemberOf) AssignedIdentifiers() []*FreeIdentifier {
	return []*FreeIdentifier{a.ident}
}
func (a *BecomesMemberOf) Identifier() *FreeIdentifier { return a.ident }
func (a *BecomesMemberOf) Set() Expression             { return a.set }
func (a *BecomesMemberOf) String() string              { return ToString(a) }

// BecomesSuchThat is the general assignment x, y :∣ P. The condition refers
// to the after-values through bound identifiers declared by PrimedDeclarations,
// one per assigned identifier and in the same order.
type BecomesSuchThat struct {
	assignBase
	idents    []*FreeIdentifier
	primed    []*BoundIdentDecl
	condition Predicate
}

func (a *BecomesSuchThat) AssignedIdentifiers() []*FreeIdentifier {
	return append([]*FreeIdentifier(nil), a.idents...)
}

// PrimedDeclarations returns a copy of the after-value declarations.
func (a *BecomesSuchThat) PrimedDeclarations() []*BoundIdentDecl {
	return append([]*BoundIdentDecl(nil), a.primed...)
}
func (a *BecomesSuchThat) Condition() Predicate { return a.condition }
func (a *BecomesSuchThat) String() string       { return ToString(a) }
