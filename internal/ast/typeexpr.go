package ast

import (
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// TypeExpression returns the expression denoting the set of all values of
// type t: ℤ, BOOL, a given set S, ℙ(...) and products built with ×.
func (fac *Factory) TypeExpression(t types.Type) Expression {
	switch t := t.(type) {
	case *types.IntegerType:
		return fac.MakeAtomicExpression(TagInteger, nil)
	case *types.BooleanType:
		return fac.MakeAtomicExpression(TagBool, nil)
	case *types.GivenType:
		return fac.MakeFreeIdentifier(t.Name, types.NewPowerSet(t))
	case *types.PowerSetType:
		return fac.MakeUnaryExpression(TagPow, fac.TypeExpression(t.Base))
	case *types.ProductType:
		return fac.MakeBinaryExpression(TagCProd, fac.TypeExpression(t.Left), fac.TypeExpression(t.Right))
	}
	diagnostic.Assert(false, "type %v has no type expression", t)
	return nil
}

// ToType returns the type whose values form the set denoted by e, when e
// is a type expression. Any identifier is read as a given set.
func ToType(e Expression) (types.Type, error) {
	switch e := e.(type) {
	case *AtomicExpression:
		switch e.tag {
		case TagInteger:
			return types.Integer, nil
		case TagBool:
			return types.Boolean, nil
		}
	case *FreeIdentifier:
		if !e.IsPrimed() {
			return types.NewGiven(e.name), nil
		}
	case *UnaryExpression:
		if e.tag == TagPow {
			base, err := ToType(e.child)
			if err != nil {
				return nil, err
			}
			return types.NewPowerSet(base), nil
		}
	case *BinaryExpression:
		if e.tag == TagCProd {
			left, err := ToType(e.left)
			if err != nil {
				return nil, err
			}
			right, err := ToType(e.right)
			if err != nil {
				return nil, err
			}
			return types.NewProduct(left, right), nil
		}
	}
	return nil, diagnostic.New(diagnostic.InvalidTypeExpression, e.Span(), e.String())
}

// IsTypeExpression returns true if e denotes the values of a type.
func IsTypeExpression(e Expression) bool {
	_, err := ToType(e)
	return err == nil
}
