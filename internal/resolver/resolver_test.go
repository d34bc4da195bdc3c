package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/types"
)

var fac = ast.DefaultFactory()

func forall(names []string, body ast.Predicate) ast.Predicate {
	decls := make([]*ast.BoundIdentDecl, len(names))
	for i, n := range names {
		decls[i] = fac.MakeBoundIdentDecl(n, nil)
	}
	return fac.MakeQuantifiedPredicate(ast.TagForall, decls, body)
}

func gt(l, r ast.Expression) ast.Predicate { return fac.MakeRelationalPredicate(ast.TagGt, l, r) }

func TestFreeAndBoundNameIsIllegible(t *testing.T) {
	// n = 1 ∧ (∀n·n > 0)
	n := fac.MakeFreeIdentifier("n", nil)
	f := fac.MakeAssociativePredicate(ast.TagLAnd, []ast.Predicate{
		fac.MakeRelationalPredicate(ast.TagEqual, n, fac.MakeInt(1)),
		forall([]string{"n"}, gt(fac.MakeBoundIdentifier(0, nil), fac.MakeInt(0))),
	})

	result := CheckLegibility(f)
	require.False(t, result.IsSuccess())
	assert.True(t, result.Problems.Has(diagnostic.FreeIdentifierHasBoundOccurrences))
	assert.True(t, result.Problems.Has(diagnostic.BoundIdentifierHasFreeOccurrences))
	assert.Len(t, result.Problems, 2)
	assert.Equal(t, []string{"n"}, result.Problems[0].Args)
	assert.False(t, IsLegible(f))
}

func TestLegibleFormula(t *testing.T) {
	// m = 1 ∧ (∀n·n > m)
	m := fac.MakeFreeIdentifier("m", nil)
	f := fac.MakeAssociativePredicate(ast.TagLAnd, []ast.Predicate{
		fac.MakeRelationalPredicate(ast.TagEqual, m, fac.MakeInt(1)),
		forall([]string{"n"}, gt(fac.MakeBoundIdentifier(0, nil), m)),
	})
	result := CheckLegibility(f)
	assert.True(t, result.IsSuccess())
	assert.NoError(t, result.Err())
	assert.True(t, IsWellFormed(f))
}

func TestEveryFreeOccurrenceIsReported(t *testing.T) {
	n := fac.MakeFreeIdentifier("n", nil)
	f := fac.MakeAssociativePredicate(ast.TagLAnd, []ast.Predicate{
		gt(n, n),
		forall([]string{"n"}, gt(fac.MakeBoundIdentifier(0, nil), fac.MakeInt(0))),
	})
	result := CheckLegibility(f)
	free := 0
	for _, d := range result.Problems {
		if d.Kind == diagnostic.FreeIdentifierHasBoundOccurrences {
			free++
		}
	}
	assert.Equal(t, 2, free)
}

func TestStopAtFirst(t *testing.T) {
	n := fac.MakeFreeIdentifier("n", nil)
	f := fac.MakeAssociativePredicate(ast.TagLAnd, []ast.Predicate{
		gt(n, n),
		forall([]string{"n"}, gt(fac.MakeBoundIdentifier(0, nil), fac.MakeInt(0))),
	})
	result := NewResolver(ResolverConfig{StopAtFirst: true}).CheckLegibility(f)
	require.Len(t, result.Problems, 1)
	assert.Equal(t, diagnostic.FreeIdentifierHasBoundOccurrences, result.Problems[0].Kind)
}

func TestDuplicateDeclarations(t *testing.T) {
	b0 := fac.MakeBoundIdentifier(0, nil)
	b1 := fac.MakeBoundIdentifier(1, nil)

	t.Run("same binder", func(t *testing.T) {
		f := forall([]string{"x", "x"}, gt(b0, b1))
		result := CheckLegibility(f)
		require.Len(t, result.Problems, 1)
		assert.Equal(t, diagnostic.DuplicateIdentifier, result.Problems[0].Kind)
	})

	t.Run("nested binder", func(t *testing.T) {
		f := forall([]string{"x"}, forall([]string{"x"}, gt(b0, b1)))
		assert.True(t, CheckLegibility(f).Problems.Has(diagnostic.DuplicateIdentifier))

		shadowing := NewResolver(ResolverConfig{AllowShadowing: true})
		assert.True(t, shadowing.CheckLegibility(f).IsSuccess())
	})

	t.Run("sibling binders", func(t *testing.T) {
		f := fac.MakeAssociativePredicate(ast.TagLAnd, []ast.Predicate{
			forall([]string{"x"}, gt(b0, fac.MakeInt(0))),
			forall([]string{"x"}, gt(fac.MakeInt(0), b0)),
		})
		assert.True(t, CheckLegibility(f).IsSuccess())
	})
}

func TestIndexOutOfBounds(t *testing.T) {
	// ∀x·[[1]] > x
	f := forall([]string{"x"}, gt(fac.MakeBoundIdentifier(1, nil), fac.MakeBoundIdentifier(0, nil)))

	result := CheckWellFormed(f)
	require.Len(t, result.Problems, 1)
	d := result.Problems[0]
	assert.Equal(t, diagnostic.BoundIdentifierIndexOutOfBounds, d.Kind)
	assert.Equal(t, []string{"1", "1"}, d.Args)
	assert.False(t, IsWellFormed(f))

	// the same formula below one enclosing binder is fine
	assert.True(t, NewResolver(DefaultConfig()).CheckWellFormed(f, 1).IsSuccess())
}

func TestIndicesResolveThroughNestedBinders(t *testing.T) {
	// ∀x·∀y,z·x > z
	f := forall([]string{"x"}, forall([]string{"y", "z"},
		gt(fac.MakeBoundIdentifier(2, nil), fac.MakeBoundIdentifier(0, nil))))
	assert.True(t, IsWellFormed(f))

	// ∀x·(∀y·y > x) ∧ [[1]] > x
	g := forall([]string{"x"}, fac.MakeAssociativePredicate(ast.TagLAnd, []ast.Predicate{
		forall([]string{"y"}, gt(fac.MakeBoundIdentifier(0, nil), fac.MakeBoundIdentifier(1, nil))),
		gt(fac.MakeBoundIdentifier(1, nil), fac.MakeBoundIdentifier(0, nil)),
	}))
	result := CheckWellFormed(g)
	require.Len(t, result.Problems, 1)
	assert.Equal(t, []string{"1", "1"}, result.Problems[0].Args)
}

func TestBoundTypeMustMatchDeclaration(t *testing.T) {
	decl := fac.MakeBoundIdentDecl("x", types.Integer)
	f := fac.MakeQuantifiedPredicate(ast.TagForall, []*ast.BoundIdentDecl{decl},
		fac.MakeSimplePredicate(ast.TagKFinite, fac.MakeBoundIdentifier(0, types.NewPowerSet(types.Boolean))))

	result := CheckWellFormed(f)
	require.Len(t, result.Problems, 1)
	assert.Equal(t, diagnostic.TypesDoNotMatch, result.Problems[0].Kind)

	assert.True(t, NewResolver(ResolverConfig{}).CheckWellFormed(f, 0).IsSuccess())
}

func TestBecomesSuchThatDeclaresPrimedNames(t *testing.T) {
	// x :∣ x' > x
	x := fac.MakeFreeIdentifier("x", nil)
	a := fac.MakeBecomesSuchThat([]*ast.FreeIdentifier{x},
		[]*ast.BoundIdentDecl{fac.AsPrimedDeclaration(x)},
		gt(fac.MakeBoundIdentifier(0, nil), x))
	assert.True(t, IsLegible(a))
	assert.True(t, IsWellFormed(a))
}

func TestSymbolTable(t *testing.T) {
	n := fac.MakeFreeIdentifier("n", nil)
	m := fac.MakeFreeIdentifier("m", nil)
	f := fac.MakeAssociativePredicate(ast.TagLAnd, []ast.Predicate{
		gt(n, m),
		forall([]string{"n", "k"}, gt(fac.MakeBoundIdentifier(0, nil), fac.MakeBoundIdentifier(1, nil))),
	})
	st := NewSymbolTable(f)
	assert.Len(t, st.FreeOccurrences(), 2)
	assert.Len(t, st.Declarations(), 2)
	assert.True(t, st.IsFree("m"))
	assert.True(t, st.IsBound("k"))
	assert.False(t, st.IsBound("m"))
	assert.Equal(t, []string{"n"}, st.Clashes())
	assert.Equal(t, "bound", SymbolKindBound.String())
}
