package ast

import "github.com/17451k/rodincore-sub001/internal/types"

// Equal reports whether a and b are structurally equal. Spans, declaration
// names and the written form of comprehension sets are ignored; types are
// compared, so a typed formula never equals its untyped counterpart.
func Equal(a, b Formula) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if a.Tag() != b.Tag() || a.Hash() != b.Hash() {
		return false
	}
	switch a := a.(type) {
	case *IntegerLiteral:
		b := b.(*IntegerLiteral)
		return a.value.Cmp(b.value) == 0 && types.Equal(a.typ, b.typ)
	case *FreeIdentifier:
		b := b.(*FreeIdentifier)
		return a.name == b.name && types.Equal(a.typ, b.typ)
	case *BoundIdentifier:
		b := b.(*BoundIdentifier)
		return a.index == b.index && types.Equal(a.typ, b.typ)
	case *BoundIdentDecl:
		return types.Equal(a.typ, b.(*BoundIdentDecl).typ)
	case *AtomicExpression:
		return types.Equal(a.typ, b.(*AtomicExpression).typ)
	case *BinaryExpression:
		b := b.(*BinaryExpression)
		return types.Equal(a.typ, b.typ) && Equal(a.left, b.left) && Equal(a.right, b.right)
	case *AssociativeExpression:
		b := b.(*AssociativeExpression)
		return types.Equal(a.typ, b.typ) && equalAll(a.children, b.children)
	case *UnaryExpression:
		b := b.(*UnaryExpression)
		return types.Equal(a.typ, b.typ) && Equal(a.child, b.child)
	case *BoolExpression:
		b := b.(*BoolExpression)
		return types.Equal(a.typ, b.typ) && Equal(a.pred, b.pred)
	case *SetExtension:
		b := b.(*SetExtension)
		return types.Equal(a.typ, b.typ) && equalAll(a.members, b.members)
	case *QuantifiedExpression:
		b := b.(*QuantifiedExpression)
		return types.Equal(a.typ, b.typ) && equalAll(a.decls, b.decls) &&
			Equal(a.pred, b.pred) && Equal(a.expr, b.expr)
	case *LiteralPredicate:
		return true
	case *AssociativePredicate:
		return equalAll(a.children, b.(*AssociativePredicate).children)
	case *BinaryPredicate:
		b := b.(*BinaryPredicate)
		return Equal(a.left, b.left) && Equal(a.right, b.right)
	case *UnaryPredicate:
		return Equal(a.child, b.(*UnaryPredicate).child)
	case *QuantifiedPredicate:
		b := b.(*QuantifiedPredicate)
		return equalAll(a.decls, b.decls) && Equal(a.pred, b.pred)
	case *RelationalPredicate:
		b := b.(*RelationalPredicate)
		return Equal(a.left, b.left) && Equal(a.right, b.right)
	case *SimplePredicate:
		return Equal(a.expr, b.(*SimplePredicate).expr)
	case *MultiplePredicate:
		return equalAll(a.children, b.(*MultiplePredicate).children)
	case *BecomesEqualTo:
		b := b.(*BecomesEqualTo)
		return equalAll(a.idents, b.idents) && equalAll(a.values, b.values)
	case *BecomesMemberOf:
		b := b.(*BecomesMemberOf)
		return Equal(a.ident, b.ident) && Equal(a.set, b.set)
	case *BecomesSuchThat:
		b := b.(*BecomesSuchThat)
		return equalAll(a.idents, b.idents) && equalAll(a.primed, b.primed) &&
			Equal(a.condition, b.condition)
	}
	return false
}

func equalAll[T Formula](as, bs []T) bool {
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !Equal(as[i], bs[i]) {
			return false
		}
	}
	return true
}
