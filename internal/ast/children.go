package ast

import (
	"strconv"

	"github.com/17451k/rodincore-sub001/internal/diagnostic"
)

// Children returns the direct children of f, in the order used by
// positions: operands left to right, declarations before the predicate of
// a binder, and the predicate before the expression of a quantified
// expression.
func Children(f Formula) []Formula {
	switch f := f.(type) {
	case *BinaryExpression:
		return []Formula{f.left, f.right}
	case *AssociativeExpression:
		return formulas(f.children)
	case *UnaryExpression:
		return []Formula{f.child}
	case *BoolExpression:
		return []Formula{f.pred}
	case *SetExtension:
		return formulas(f.members)
	case *QuantifiedExpression:
		return append(formulas(f.decls), f.pred, f.expr)
	case *AssociativePredicate:
		return formulas(f.children)
	case *BinaryPredicate:
		return []Formula{f.left, f.right}
	case *UnaryPredicate:
		return []Formula{f.child}
	case *QuantifiedPredicate:
		return append(formulas(f.decls), f.pred)
	case *RelationalPredicate:
		return []Formula{f.left, f.right}
	case *SimplePredicate:
		return []Formula{f.expr}
	case *MultiplePredicate:
		return formulas(f.children)
	case *BecomesEqualTo:
		return append(formulas(f.idents), formulas(f.values)...)
	case *BecomesMemberOf:
		return []Formula{f.ident, f.set}
	case *BecomesSuchThat:
		return append(append(formulas(f.idents), formulas(f.primed)...), f.condition)
	}
	return nil
}

// ChildCount returns len(Children(f)) without allocating.
func ChildCount(f Formula) int {
	switch f := f.(type) {
	case *BinaryExpression, *BinaryPredicate, *RelationalPredicate, *BecomesMemberOf:
		return 2
	case *UnaryExpression, *BoolExpression, *UnaryPredicate, *SimplePredicate:
		return 1
	case *AssociativeExpression:
		return len(f.children)
	case *SetExtension:
		return len(f.members)
	case *QuantifiedExpression:
		return len(f.decls) + 2
	case *AssociativePredicate:
		return len(f.children)
	case *QuantifiedPredicate:
		return len(f.decls) + 1
	case *MultiplePredicate:
		return len(f.children)
	case *BecomesEqualTo:
		return len(f.idents) + len(f.values)
	case *BecomesSuchThat:
		return 2*len(f.idents) + 1
	}
	return 0
}

// BinderSize returns how many bound identifiers f declares for its child
// at index i, or 0 when that child is not under the binder of f.
func BinderSize(f Formula, i int) int {
	switch f := f.(type) {
	case *QuantifiedExpression:
		if i >= len(f.decls) {
			return len(f.decls)
		}
	case *QuantifiedPredicate:
		if i >= len(f.decls) {
			return len(f.decls)
		}
	case *BecomesSuchThat:
		if i == 2*len(f.idents) {
			return len(f.primed)
		}
	}
	return 0
}

// Declarations returns the declarations of a binder, or nil.
func Declarations(f Formula) []*BoundIdentDecl {
	switch f := f.(type) {
	case *QuantifiedExpression:
		return f.decls
	case *QuantifiedPredicate:
		return f.decls
	case *BecomesSuchThat:
		return f.primed
	}
	return nil
}

// WithChildren rebuilds f with the given children, keeping its tag and
// span. The children must match the slots of f in number and kind;
// otherwise an InvalidReplacement diagnostic is returned. When every child
// is identical to the current one, f itself is returned.
func (fac *Factory) WithChildren(f Formula, children []Formula) (Formula, error) {
	old := Children(f)
	if len(old) != len(children) {
		return nil, diagnostic.New(diagnostic.InvalidReplacement, f.Span(),
			f.String(), strconv.Itoa(len(children))+" children")
	}
	same := true
	for i := range old {
		if old[i] != children[i] {
			same = false
		}
		if !slotAccepts(f, i, old[i], children[i]) {
			return nil, diagnostic.New(diagnostic.InvalidReplacement, f.Span(), old[i].String(), describe(children[i]))
		}
	}
	if same {
		return f, nil
	}
	fac = fac.At(f.Span())
	switch f := f.(type) {
	case *BinaryExpression:
		return fac.MakeBinaryExpression(f.tag, children[0].(Expression), children[1].(Expression)), nil
	case *AssociativeExpression:
		return fac.MakeAssociativeExpression(f.tag, typed[Expression](children)), nil
	case *UnaryExpression:
		return fac.MakeUnaryExpression(f.tag, children[0].(Expression)), nil
	case *BoolExpression:
		return fac.MakeBoolExpression(children[0].(Predicate)), nil
	case *SetExtension:
		return fac.MakeSetExtension(typed[Expression](children)), nil
	case *QuantifiedExpression:
		n := len(f.decls)
		expr := children[n+1].(Expression)
		form := f.form
		if form == FormLambda && expr.Tag() != TagMapsto {
			form = FormExplicit
		}
		return fac.MakeQuantifiedExpression(f.tag, typed[*BoundIdentDecl](children[:n]),
			children[n].(Predicate), expr, form), nil
	case *AssociativePredicate:
		return fac.MakeAssociativePredicate(f.tag, typed[Predicate](children)), nil
	case *BinaryPredicate:
		return fac.MakeBinaryPredicate(f.tag, children[0].(Predicate), children[1].(Predicate)), nil
	case *UnaryPredicate:
		return fac.MakeUnaryPredicate(f.tag, children[0].(Predicate)), nil
	case *QuantifiedPredicate:
		n := len(f.decls)
		return fac.MakeQuantifiedPredicate(f.tag, typed[*BoundIdentDecl](children[:n]), children[n].(Predicate)), nil
	case *RelationalPredicate:
		return fac.MakeRelationalPredicate(f.tag, children[0].(Expression), children[1].(Expression)), nil
	case *SimplePredicate:
		return fac.MakeSimplePredicate(f.tag, children[0].(Expression)), nil
	case *MultiplePredicate:
		return fac.MakeMultiplePredicate(f.tag, typed[Expression](children)), nil
	case *BecomesEqualTo:
		n := len(f.idents)
		idents := typed[*FreeIdentifier](children[:n])
		if !distinctNames(idents) {
			return nil, diagnostic.New(diagnostic.InvalidReplacement, f.Span(), f.String(), "an assignment of one identifier twice")
		}
		return fac.MakeBecomesEqualTo(idents, typed[Expression](children[n:])), nil
	case *BecomesMemberOf:
		return fac.MakeBecomesMemberOf(children[0].(*FreeIdentifier), children[1].(Expression)), nil
	case *BecomesSuchThat:
		n := len(f.idents)
		idents := typed[*FreeIdentifier](children[:n])
		if !distinctNames(idents) {
			return nil, diagnostic.New(diagnostic.InvalidReplacement, f.Span(), f.String(), "an assignment of one identifier twice")
		}
		return fac.MakeBecomesSuchThat(idents, typed[*BoundIdentDecl](children[n:2*n]), children[2*n].(Predicate)), nil
	}
	return f, nil
}

// sameSlotKind returns true if repl can take the place of old.
func sameSlotKind(old, repl Formula) bool {
	if repl == nil {
		return false
	}
	switch old.(type) {
	case *BoundIdentDecl:
		_, ok := repl.(*BoundIdentDecl)
		return ok
	case Expression:
		_, ok := repl.(Expression)
		return ok
	case Predicate:
		_, ok := repl.(Predicate)
		return ok
	case Assignment:
		_, ok := repl.(Assignment)
		return ok
	}
	return false
}

// slotAccepts refines sameSlotKind for the assigned identifiers of an
// assignment, which only accept unprimed free identifiers.
func slotAccepts(parent Formula, i int, old, repl Formula) bool {
	switch p := parent.(type) {
	case *BecomesEqualTo:
		if i < len(p.idents) {
			return isAssignable(repl)
		}
	case *BecomesMemberOf:
		if i == 0 {
			return isAssignable(repl)
		}
	case *BecomesSuchThat:
		if i < len(p.idents) {
			return isAssignable(repl)
		}
	}
	return sameSlotKind(old, repl)
}

func isAssignable(f Formula) bool {
	id, ok := f.(*FreeIdentifier)
	return ok && !id.IsPrimed()
}

func distinctNames(idents []*FreeIdentifier) bool {
	seen := make(map[string]bool, len(idents))
	for _, id := range idents {
		if seen[id.name] {
			return false
		}
		seen[id.name] = true
	}
	return true
}

func describe(f Formula) string {
	switch f.(type) {
	case nil:
		return "nothing"
	case *BoundIdentDecl:
		return "declaration " + f.String()
	case Expression:
		return "expression " + f.String()
	case Predicate:
		return "predicate " + f.String()
	case Assignment:
		return "assignment " + f.String()
	}
	return f.String()
}

func formulas[T Formula](items []T) []Formula {
	result := make([]Formula, len(items))
	for i, item := range items {
		result[i] = item
	}
	return result
}

func typed[T Formula](items []Formula) []T {
	result := make([]T, len(items))
	for i, item := range items {
		result[i] = item.(T)
	}
	return result
}
