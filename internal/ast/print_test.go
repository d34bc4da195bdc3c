package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/types"
)

func TestPrintRenamesClashingDeclarations(t *testing.T) {
	x := fac.MakeFreeIdentifier("x", nil)
	q := fac.MakeQuantifiedPredicate(ast.TagForall,
		[]*ast.BoundIdentDecl{fac.MakeBoundIdentDecl("x", nil)},
		fac.MakeRelationalPredicate(ast.TagEqual, fac.MakeBoundIdentifier(0, nil), x))
	assert.Equal(t, "∀x0·x0 = x", ast.ToString(q))

	inner := fac.MakeQuantifiedPredicate(ast.TagExists,
		[]*ast.BoundIdentDecl{fac.MakeBoundIdentDecl("y", nil)},
		fac.MakeRelationalPredicate(ast.TagEqual, fac.MakeBoundIdentifier(0, nil), fac.MakeBoundIdentifier(1, nil)))
	outer := fac.MakeQuantifiedPredicate(ast.TagForall,
		[]*ast.BoundIdentDecl{fac.MakeBoundIdentDecl("y", nil)}, inner)
	assert.Equal(t, "∀y·∃y0·y0 = y", ast.ToString(outer))
}

func TestPrintFullyParenthesized(t *testing.T) {
	assert.Equal(t, "a + (b ∗ c)", ast.ToStringFullyParenthesized(expr(t, "a + b ∗ c")))
	assert.Equal(t, "a + b ∗ c", ast.ToString(expr(t, "a + (b ∗ c)")))
	assert.Equal(t, "(a + b) ∗ c", ast.ToString(expr(t, "(a + b) ∗ c")))
}

func TestPrintWithTypes(t *testing.T) {
	s := types.NewGiven("S")
	e := fac.MakeRelationalPredicate(ast.TagEqual,
		fac.MakeAtomicExpression(ast.TagEmptySet, types.NewPowerSet(s)),
		fac.MakeFreeIdentifier("A", types.NewPowerSet(s)))
	assert.Equal(t, "∅ = A", ast.ToString(e))
	assert.Equal(t, "∅⦂ℙ(S) = A⦂ℙ(S)", ast.ToStringWithTypes(e))

	pair := fac.MakeFreeIdentifier("p", types.NewProduct(types.Integer, types.Boolean))
	assert.Equal(t, "p⦂(ℤ×BOOL)", ast.ToStringWithTypes(pair))
}
