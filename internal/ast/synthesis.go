package ast

import (
	"github.com/17451k/rodincore-sub001/internal/types"
)

// ====== Bottom-up type synthesis ======
//
// These rules compute the type of a node from the types of its children,
// which are all known. A nil result (or false for predicates) leaves the
// node untyped. The type checker states the same rules as unification
// constraints; both must agree.

var (
	integerSet = types.NewPowerSet(types.Integer)
	booleanSet = types.NewPowerSet(types.Boolean)
	integerFun = types.NewRelation(types.Integer, types.Integer)
)

func exprType(e Expression) types.Type {
	t, _ := e.Type()
	return t
}

func exprTypes(es []Expression) []types.Type {
	result := make([]types.Type, len(es))
	for i, e := range es {
		result[i] = exprType(e)
	}
	return result
}

// atomicType returns the type of a non generic atomic expression.
func atomicType(tag Tag) types.Type {
	switch tag {
	case TagInteger, TagNatural, TagNatural1:
		return integerSet
	case TagBool:
		return booleanSet
	case TagTrue, TagFalse:
		return types.Boolean
	case TagKPred, TagKSucc:
		return integerFun
	}
	return nil
}

// IsValidGenericType returns true if t is an instance of the type scheme of
// a generic atomic expression: ℙ(α) for ∅, ℙ(α×α) for id, ℙ(α×β×α) for
// prj1 and ℙ(α×β×β) for prj2.
func IsValidGenericType(tag Tag, t types.Type) bool {
	if t == nil || !t.IsSolved() {
		return false
	}
	switch tag {
	case TagEmptySet:
		return types.BaseType(t) != nil
	case TagKIdGen:
		src, tgt := types.Source(t), types.Target(t)
		return src != nil && types.Equal(src, tgt)
	case TagKPrj1Gen, TagKPrj2Gen:
		pair, ok := types.Source(t).(*types.ProductType)
		if !ok {
			return false
		}
		if tag == TagKPrj1Gen {
			return types.Equal(pair.Left, types.Target(t))
		}
		return types.Equal(pair.Right, types.Target(t))
	}
	return false
}

func synthesizeBinaryExpression(tag Tag, left, right types.Type) types.Type {
	switch tag {
	case TagMapsto:
		return types.NewProduct(left, right)
	case TagRel, TagTRel, TagSRel, TagSTRel, TagPFun, TagTFun, TagPInj,
		TagTInj, TagPSur, TagTSur, TagTBij:
		alpha, beta := types.BaseType(left), types.BaseType(right)
		if alpha == nil || beta == nil {
			return nil
		}
		return types.NewPowerSet(types.NewRelation(alpha, beta))
	case TagSetMinus:
		if types.BaseType(left) != nil && types.Equal(left, right) {
			return left
		}
	case TagCProd:
		alpha, beta := types.BaseType(left), types.BaseType(right)
		if alpha != nil && beta != nil {
			return types.NewRelation(alpha, beta)
		}
	case TagDProd:
		alpha, beta := types.Source(left), types.Target(left)
		gamma := types.Target(right)
		if alpha != nil && gamma != nil && types.Equal(alpha, types.Source(right)) {
			return types.NewRelation(alpha, types.NewProduct(beta, gamma))
		}
	case TagPProd:
		alpha, beta := types.Source(left), types.Target(left)
		gamma, delta := types.Source(right), types.Target(right)
		if alpha != nil && gamma != nil {
			return types.NewRelation(types.NewProduct(alpha, gamma), types.NewProduct(beta, delta))
		}
	case TagDomRes, TagDomSub:
		alpha := types.BaseType(left)
		if alpha != nil && types.Equal(alpha, types.Source(right)) {
			return right
		}
	case TagRanRes, TagRanSub:
		beta := types.BaseType(right)
		if beta != nil && types.Equal(beta, types.Target(left)) {
			return left
		}
	case TagUpTo:
		if isInteger(left) && isInteger(right) {
			return integerSet
		}
	case TagMinus, TagDiv, TagMod, TagExpn:
		if isInteger(left) && isInteger(right) {
			return types.Integer
		}
	case TagFunImage:
		if types.IsRelational(left) && types.Equal(types.Source(left), right) {
			return types.Target(left)
		}
	case TagRelImage:
		if types.IsRelational(left) && types.Equal(types.Source(left), types.BaseType(right)) {
			return types.NewPowerSet(types.Target(left))
		}
	}
	return nil
}

func synthesizeAssociativeExpression(tag Tag, children []types.Type) types.Type {
	first := children[0]
	switch tag {
	case TagBUnion, TagBInter:
		if types.BaseType(first) != nil && allEqual(children) {
			return first
		}
	case TagOvr:
		if types.IsRelational(first) && allEqual(children) {
			return first
		}
	case TagPlus, TagMul:
		if isInteger(first) && allEqual(children) {
			return types.Integer
		}
	case TagFComp:
		// r1 ; r2 ; ... ; rn relates source(r1) to target(rn)
		for i, c := range children {
			if !types.IsRelational(c) {
				return nil
			}
			if i > 0 && !types.Equal(types.Target(children[i-1]), types.Source(c)) {
				return nil
			}
		}
		return types.NewRelation(types.Source(first), types.Target(children[len(children)-1]))
	case TagBComp:
		// r1 ∘ r2 ∘ ... ∘ rn relates source(rn) to target(r1)
		for i, c := range children {
			if !types.IsRelational(c) {
				return nil
			}
			if i > 0 && !types.Equal(types.Source(children[i-1]), types.Target(c)) {
				return nil
			}
		}
		return types.NewRelation(types.Source(children[len(children)-1]), types.Target(first))
	}
	return nil
}

func synthesizeUnaryExpression(tag Tag, child types.Type) types.Type {
	switch tag {
	case TagKCard:
		if types.BaseType(child) != nil {
			return types.Integer
		}
	case TagPow, TagPow1:
		if types.BaseType(child) != nil {
			return types.NewPowerSet(child)
		}
	case TagKUnion, TagKInter:
		if inner := types.BaseType(child); types.BaseType(inner) != nil {
			return inner
		}
	case TagKDom:
		if types.IsRelational(child) {
			return types.NewPowerSet(types.Source(child))
		}
	case TagKRan:
		if types.IsRelational(child) {
			return types.NewPowerSet(types.Target(child))
		}
	case TagKMin, TagKMax:
		if types.Equal(child, integerSet) {
			return types.Integer
		}
	case TagConverse:
		if types.IsRelational(child) {
			return types.NewRelation(types.Target(child), types.Source(child))
		}
	case TagUnMinus:
		if isInteger(child) {
			return types.Integer
		}
	}
	return nil
}

func synthesizeSetExtension(members []types.Type) types.Type {
	if !allEqual(members) {
		return nil
	}
	return types.NewPowerSet(members[0])
}

func synthesizeQuantifiedExpression(tag Tag, expr types.Type) types.Type {
	switch tag {
	case TagQUnion, TagQInter:
		if types.BaseType(expr) != nil {
			return expr
		}
		return nil
	case TagCSet:
		return types.NewPowerSet(expr)
	}
	return nil
}

func synthesizeRelationalPredicate(tag Tag, left, right types.Type) bool {
	switch tag {
	case TagEqual, TagNotEqual:
		return types.Equal(left, right)
	case TagLt, TagLe, TagGt, TagGe:
		return isInteger(left) && isInteger(right)
	case TagIn, TagNotIn:
		return types.Equal(left, types.BaseType(right))
	case TagSubset, TagNotSubset, TagSubsetEq, TagNotSubsetEq:
		return types.BaseType(left) != nil && types.Equal(left, right)
	}
	return false
}

func synthesizeMultiplePredicate(children []types.Type) bool {
	return types.BaseType(children[0]) != nil && allEqual(children)
}

func isInteger(t types.Type) bool {
	return types.Equal(t, types.Integer)
}

func allEqual(ts []types.Type) bool {
	for _, t := range ts[1:] {
		if !types.Equal(ts[0], t) {
			return false
		}
	}
	return true
}
