package types

import (
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/position"
)

// Unifier solves the type equations raised while checking one formula.
// It is mutable and must not be shared between type-check passes.
type Unifier struct {
	nextID        int
	substitutions map[int]Type
}

// NewUnifier creates an empty unification context.
func NewUnifier() *Unifier {
	return &Unifier{substitutions: make(map[int]Type)}
}

// FreshVariable creates a new unbound unification variable.
func (u *Unifier) FreshVariable() *Variable {
	v := &Variable{ID: u.nextID}
	u.nextID++
	return v
}

// VariableCount returns how many variables this unifier created.
func (u *Unifier) VariableCount() int { return u.nextID }

// Unify makes a and b equal, recording variable bindings. It returns the
// unified type, or a TypesDoNotMatch / Circularity diagnostic located at span.
func (u *Unifier) Unify(a, b Type, span position.Span) (Type, *diagnostic.Diagnostic) {
	result, failure := u.unify(a, b)
	switch failure {
	case unifyOK:
		return result, nil
	case unifyCircular:
		return nil, diagnostic.New(diagnostic.Circularity, span,
			u.Substitute(a).String(), u.Substitute(b).String())
	default:
		return nil, diagnostic.New(diagnostic.TypesDoNotMatch, span,
			u.Substitute(a).String(), u.Substitute(b).String())
	}
}

type unifyFailure int

const (
	unifyOK unifyFailure = iota
	unifyMismatch
	unifyCircular
)

func (u *Unifier) unify(a, b Type) (Type, unifyFailure) {
	a = u.prune(a)
	b = u.prune(b)

	// Same type reference
	if a == b {
		return a, unifyOK
	}

	if va, ok := a.(*Variable); ok {
		return u.bind(va, b)
	}
	if vb, ok := b.(*Variable); ok {
		return u.bind(vb, a)
	}

	// Different kinds cannot unify
	if a.Kind() != b.Kind() {
		return nil, unifyMismatch
	}

	switch a := a.(type) {
	case *PowerSetType:
		base, failure := u.unify(a.Base, b.(*PowerSetType).Base)
		if failure != unifyOK {
			return nil, failure
		}
		if base == a.Base {
			return a, unifyOK
		}
		return NewPowerSet(base), unifyOK
	case *ProductType:
		bp := b.(*ProductType)
		left, failure := u.unify(a.Left, bp.Left)
		if failure != unifyOK {
			return nil, failure
		}
		right, failure := u.unify(a.Right, bp.Right)
		if failure != unifyOK {
			return nil, failure
		}
		if left == a.Left && right == a.Right {
			return a, unifyOK
		}
		return NewProduct(left, right), unifyOK
	default:
		if Equal(a, b) {
			return a, unifyOK
		}
		return nil, unifyMismatch
	}
}

func (u *Unifier) bind(v *Variable, other Type) (Type, unifyFailure) {
	if ov, ok := other.(*Variable); ok && ov.ID == v.ID {
		return v, unifyOK
	}
	// Occurs check - prevent infinite types
	if u.occurs(v, other) {
		return nil, unifyCircular
	}
	u.substitutions[v.ID] = other
	return other, unifyOK
}

// prune follows variable bindings at the top of t only.
func (u *Unifier) prune(t Type) Type {
	for {
		v, ok := t.(*Variable)
		if !ok {
			return t
		}
		next, bound := u.substitutions[v.ID]
		if !bound {
			return t
		}
		t = next
	}
}

func (u *Unifier) occurs(v *Variable, t Type) bool {
	t = u.prune(t)
	switch t := t.(type) {
	case *Variable:
		return t.ID == v.ID
	case *PowerSetType:
		return u.occurs(v, t.Base)
	case *ProductType:
		return u.occurs(v, t.Left) || u.occurs(v, t.Right)
	default:
		return false
	}
}

// Substitute applies the current bindings to t. Unbound variables remain.
func (u *Unifier) Substitute(t Type) Type {
	if t == nil || t.IsSolved() {
		return t
	}
	switch t := t.(type) {
	case *Variable:
		if subst, ok := u.substitutions[t.ID]; ok {
			// Recursively apply substitutions
			return u.Substitute(subst)
		}
		return t
	case *PowerSetType:
		base := u.Substitute(t.Base)
		if base == t.Base {
			return t
		}
		return NewPowerSet(base)
	case *ProductType:
		left := u.Substitute(t.Left)
		right := u.Substitute(t.Right)
		if left == t.Left && right == t.Right {
			return t
		}
		return NewProduct(left, right)
	default:
		return t
	}
}

// Resolve fully substitutes t. It returns false when a variable remains
// unbound, meaning the formula does not constrain that type.
func (u *Unifier) Resolve(t Type) (Type, bool) {
	if t == nil {
		return nil, false
	}
	resolved := u.Substitute(t)
	return resolved, resolved.IsSolved()
}

// PowerSetOfFresh returns ℙ(τ) for a fresh τ, with τ.
func (u *Unifier) PowerSetOfFresh() (*PowerSetType, *Variable) {
	v := u.FreshVariable()
	return NewPowerSet(v), v
}

// RelationOfFresh returns ℙ(α×β) for fresh α, β.
func (u *Unifier) RelationOfFresh() (*PowerSetType, *Variable, *Variable) {
	a, b := u.FreshVariable(), u.FreshVariable()
	return NewRelation(a, b), a, b
}
