package ast

import "github.com/17451k/rodincore-sub001/internal/diagnostic"

// Flatten merges nested associative operators: an operand that applies the
// same operator as its parent is replaced by its own operands, bottom-up.
// f itself is returned when nothing needs flattening, and so is every
// untouched subtree.
func (fac *Factory) Flatten(f Formula) Formula {
	if !needsFlattening(f) {
		return f
	}
	children := Children(f)
	flat := make([]Formula, len(children))
	for i, c := range children {
		flat[i] = fac.Flatten(c)
	}
	switch node := f.(type) {
	case *AssociativeExpression:
		return fac.At(node.span).MakeAssociativeExpression(node.tag, inline(node.tag, typed[Expression](flat)))
	case *AssociativePredicate:
		return fac.At(node.span).MakeAssociativePredicate(node.tag, inline(node.tag, typed[Predicate](flat)))
	}
	result, err := fac.WithChildren(f, flat)
	diagnostic.Assert(err == nil, "flattening changed the kind of an operand of %s", f)
	return result
}

// IsFlat returns true if no associative operator of f has an operand with
// the same operator.
func IsFlat(f Formula) bool { return !needsFlattening(f) }

func needsFlattening(f Formula) bool {
	nested := false
	Inspect(f, func(f Formula, _ int) bool {
		if nested {
			return false
		}
		switch node := f.(type) {
		case *AssociativeExpression:
			nested = hasOperand(node.tag, node.children)
		case *AssociativePredicate:
			nested = hasOperand(node.tag, node.children)
		}
		return !nested
	})
	return nested
}

func hasOperand[T Formula](tag Tag, children []T) bool {
	for _, c := range children {
		if c.Tag() == tag {
			return true
		}
	}
	return false
}

// inline replaces the operands applying tag by their own operands. The
// operands are flat already.
func inline[T Formula](tag Tag, children []T) []T {
	var result []T
	for _, c := range children {
		if c.Tag() != tag {
			result = append(result, c)
			continue
		}
		switch node := Formula(c).(type) {
		case *AssociativeExpression:
			for _, gc := range node.children {
				result = append(result, Formula(gc).(T))
			}
		case *AssociativePredicate:
			for _, gc := range node.children {
				result = append(result, Formula(gc).(T))
			}
		}
	}
	return result
}
