package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/parser"
	"github.com/17451k/rodincore-sub001/internal/types"
)

var fac = ast.DefaultFactory()

func pred(t *testing.T, input string) ast.Predicate {
	t.Helper()
	p, err := parser.ParsePredicate(input)
	require.NoError(t, err, input)
	return p
}

func expr(t *testing.T, input string) ast.Expression {
	t.Helper()
	e, err := parser.ParseExpression(input)
	require.NoError(t, err, input)
	return e
}

func quantified(t *testing.T, input string) *ast.QuantifiedPredicate {
	t.Helper()
	q, ok := pred(t, input).(*ast.QuantifiedPredicate)
	require.True(t, ok, input)
	return q
}

func requireEqual(t *testing.T, want string, got ast.Formula) {
	t.Helper()
	w, _, err := parser.ParseFormula(want, parser.Config{})
	require.NoError(t, err, want)
	assert.True(t, ast.Equal(w, got), "want %s\ngot  %s", want, ast.ToString(got))
}

func TestInstantiate(t *testing.T) {
	q := quantified(t, "∀x, y·x = y")

	got := fac.Instantiate(q, []ast.Expression{fac.MakeInt(5), nil})
	assert.Equal(t, "∀y·5 = y", ast.ToString(got))

	got = fac.Instantiate(q, []ast.Expression{nil, fac.MakeInt(5)})
	assert.Equal(t, "∀x·x = 5", ast.ToString(got))

	got = fac.Instantiate(q, []ast.Expression{fac.MakeInt(5), fac.MakeInt(6)})
	assert.Equal(t, "5 = 6", ast.ToString(got))

	assert.Same(t, q, fac.Instantiate(q, []ast.Expression{nil, nil}))

	got = fac.InstantiateByName(q, map[string]ast.Expression{"y": expr(t, "a + 1")})
	assert.Equal(t, "∀x·x = a + 1", ast.ToString(got))
}

func TestInstantiateUnderNestedBinders(t *testing.T) {
	q := quantified(t, "∀x·∃y·x ↦ y ∈ r")

	// the replacement refers to the binder enclosing q
	got := fac.Instantiate(q, []ast.Expression{fac.MakeBoundIdentifier(0, nil)})
	requireEqual(t, "∃y·[[1]] ↦ y ∈ r", got)

	// a loose identifier beyond the removed declaration is renumbered
	q = quantified(t, "∀x·x = [[1]]")
	got = fac.Instantiate(q, []ast.Expression{fac.MakeInt(0)})
	requireEqual(t, "0 = [[0]]", got)
}

func TestSubstitute(t *testing.T) {
	p := pred(t, "∀y·x < y ∧ z = x")
	got := fac.Substitute(p, map[string]ast.Expression{"x": expr(t, "y + 1")})
	assert.Equal(t, "∀y0·y + 1 < y0 ∧ z = y + 1", ast.ToString(got))
	assert.Equal(t, []string{"y", "z"}, ast.FreeIdentifierNames(got))

	assert.Same(t, p, fac.Substitute(p, nil))
}

func TestBindTheseIdentifiers(t *testing.T) {
	body := fac.BindTheseIdentifiers(pred(t, "x < y ∧ (∀z·z < x)"), []string{"x"}, 0).(ast.Predicate)
	q := fac.MakeQuantifiedPredicate(ast.TagForall, []*ast.BoundIdentDecl{fac.MakeBoundIdentDecl("x", nil)}, body)
	assert.Equal(t, "∀x·x < y ∧ (∀z·z < x)", ast.ToString(q))
	assert.True(t, ast.IsClosed(q))

	decls, all := fac.BindAllFreeIdentifiers(pred(t, "x < y ∧ y < z"))
	q = fac.MakeQuantifiedPredicate(ast.TagExists, decls, all.(ast.Predicate))
	assert.Equal(t, "∃x, y, z·x < y ∧ y < z", ast.ToString(q))
	assert.Empty(t, q.FreeIdentifiers())
}

func TestShiftBoundIdentifiers(t *testing.T) {
	// inside the quantifier, [[1]] refers to the same binder as [[0]] outside
	got := fac.ShiftBoundIdentifiers(pred(t, "[[0]] = [[1]] ∧ (∀x·x = [[1]])"), 2)
	requireEqual(t, "[[2]] = [[3]] ∧ (∀x·x = [[3]])", got)

	back := fac.ShiftBoundIdentifiers(got, -2)
	requireEqual(t, "[[0]] = [[1]] ∧ (∀x·x = [[1]])", back)

	assert.Panics(t, func() { fac.ShiftBoundIdentifiers(pred(t, "[[0]] = 1"), -1) })
}

func TestMakeFreshIdentifiers(t *testing.T) {
	decls := []*ast.BoundIdentDecl{
		fac.MakeBoundIdentDecl("x", types.Integer),
		fac.MakeBoundIdentDecl("x'", types.Integer),
		fac.MakeBoundIdentDecl("y", types.Boolean),
	}
	env := types.NewEnvironment()
	require.NoError(t, env.Add("x", types.Integer))
	require.NoError(t, env.Add("x0", types.Integer))

	fresh := fac.MakeFreshIdentifiers(decls, env, pred(t, "x0' = y"))
	got := make([]string, len(fresh))
	for i, id := range fresh {
		got[i] = id.Name()
	}
	assert.Equal(t, []string{"x1", "x'", "y0"}, got)

	typ, ok := fresh[2].Type()
	require.True(t, ok)
	assert.True(t, types.Equal(types.Boolean, typ))
}
