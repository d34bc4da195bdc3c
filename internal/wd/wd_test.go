package wd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/parser"
	"github.com/17451k/rodincore-sub001/internal/resolver"
	"github.com/17451k/rodincore-sub001/internal/typechecker"
	"github.com/17451k/rodincore-sub001/internal/types"
)

var checker = typechecker.New(nil, typechecker.Config{})

func environment(t *testing.T, pairs ...string) *types.Environment {
	t.Helper()
	env := types.NewEnvironment()
	for i := 0; i+1 < len(pairs); i += 2 {
		typ, err := parser.ParseType(pairs[i+1])
		require.NoError(t, err)
		require.NoError(t, env.Add(pairs[i], typ))
	}
	return env
}

// typed parses and types input, and returns it with env extended by the
// inferred names.
func typed(t *testing.T, input string, env *types.Environment) (ast.Formula, *types.Environment) {
	t.Helper()
	f, _, err := parser.ParseFormula(input, parser.Config{})
	require.NoError(t, err, input)
	r := checker.Check(f, env)
	require.True(t, r.IsSuccess(), r.Problems.Error())
	full := env.Clone()
	require.NoError(t, full.Merge(r.Inferred))
	return r.Formula, full
}

// requirePredicate checks that got is the typed predicate want, up to the
// names of bound identifiers.
func requirePredicate(t *testing.T, want string, got ast.Predicate, env *types.Environment) {
	t.Helper()
	require.True(t, got.IsTypeChecked(), ast.TreeString(got))
	p, err := parser.ParsePredicate(want)
	require.NoError(t, err, want)
	r := checker.Check(p, env)
	require.True(t, r.IsSuccess(), r.Problems.Error())
	assert.True(t, ast.Equal(r.Formula, got), "want %s\ngot  %s", want, ast.ToString(got))
}

func TestWellDefinedness(t *testing.T) {
	tests := []struct {
		input string
		env   []string
		want  string
	}{
		{"x ÷ y", nil, "y ≠ 0"},
		{"(a ÷ b) ÷ c", nil, "b ≠ 0 ∧ c ≠ 0"},
		{"x mod y", nil, "0 ≤ x ∧ 0 < y"},
		{"x ^ y", nil, "0 ≤ x ∧ 0 ≤ y"},
		{"(x ÷ y) ÷ (z mod w)", nil, "y ≠ 0 ∧ 0 ≤ z ∧ 0 < w ∧ z mod w ≠ 0"},
		{"f(x) + 1", []string{"f", "ℙ(ℤ×ℤ)"}, "x ∈ dom(f) ∧ f ∈ ℤ ⇸ ℤ"},
		{"f(a)", []string{"S", "ℙ(S)", "f", "ℙ(S×BOOL)"}, "a ∈ dom(f) ∧ f ∈ S ⇸ BOOL"},
		{"f(g(x))", []string{"f", "ℙ(ℤ×ℤ)", "g", "ℙ(ℤ×ℤ)"},
			"x ∈ dom(g) ∧ g ∈ ℤ ⇸ ℤ ∧ g(x) ∈ dom(f) ∧ f ∈ ℤ ⇸ ℤ"},
		{"card(S)", []string{"S", "ℙ(ℤ)"}, "finite(S)"},
		{"min(S)", []string{"S", "ℙ(ℤ)"}, "S ≠ ∅ ∧ (∃b·∀x·x ∈ S ⇒ b ≤ x)"},
		{"max(S)", []string{"S", "ℙ(ℤ)"}, "S ≠ ∅ ∧ (∃b·∀x·x ∈ S ⇒ x ≤ b)"},
		{"inter(T)", []string{"T", "ℙ(ℙ(ℤ))"}, "T ≠ ∅"},
		{"{1 ÷ x, 2 ÷ x}", nil, "x ≠ 0"},
		{"bool(1 ÷ x = 1)", nil, "x ≠ 0"},
		{"x + y ∗ z", nil, "⊤"},
		{"{x·x ∈ ℕ ∣ 10 ÷ x}", nil, "∀x·x ≠ 0"},
		{"{x·x ∈ ℕ ∣ x ÷ y}", nil, "y ≠ 0"},
		{"(λx·x ∈ ℕ ∣ x ÷ 2)", nil, "2 ≠ 0"},
		{"⋂x·x ∈ S ∣ r[{x}]", []string{"S", "ℙ(ℤ)", "r", "ℙ(ℤ×ℤ)"}, "∃x·x ∈ S"},
		{"⋃x·x ∈ S ∣ r[{x}]", []string{"S", "ℙ(ℤ)", "r", "ℙ(ℤ×ℤ)"}, "⊤"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, env := typed(t, tt.input, environment(t, tt.env...))
			requirePredicate(t, tt.want, WD(f), env)
		})
	}
}

func TestPredicateWellDefinedness(t *testing.T) {
	tests := []struct {
		input string
		env   []string
		want  string
	}{
		{"⊤", nil, "⊤"},
		{"x = y", nil, "⊤"},
		{"x ÷ y = 1 ∧ z ÷ y = 2", nil, "y ≠ 0"},
		{"x ÷ y = 1 ⇒ ¬(x mod z = 0)", nil, "y ≠ 0 ∧ 0 ≤ x ∧ 0 < z"},
		{"finite({a ÷ b})", nil, "b ≠ 0"},
		{"partition(S, {1 ÷ x}, {2})", nil, "x ≠ 0"},
		{"∀x·x ∈ ℕ ⇒ 1 ÷ x > 0", nil, "∀x·x ≠ 0"},
		{"∀x·x ∈ ℕ ⇒ x ÷ y > 0", nil, "y ≠ 0"},
		{"∀x, z·z ∈ ℕ ∧ x = z ⇒ 1 ÷ z > 0", nil, "∀z·z ≠ 0"},
		{"∃x·∀y·x ÷ y > 0", nil, "∀y·y ≠ 0"},
		{"∀x·x > 0", nil, "⊤"},
		{"∀s·s ⊆ ℕ ⇒ min(s) ≥ 0", nil, "∀s·s ≠ ∅ ∧ (∃b·∀x·x ∈ s ⇒ b ≤ x)"},
		{"∀x·∃y·y = x ÷ z", nil, "z ≠ 0"},
		{"∀x, y·y ÷ x = 1", nil, "∀x·x ≠ 0"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, env := typed(t, tt.input, environment(t, tt.env...))
			requirePredicate(t, tt.want, WD(f), env)
		})
	}
}

func TestAssignments(t *testing.T) {
	tests := []struct {
		input string
		env   []string
		wd    string
		fis   string
		ba    string
	}{
		{"x, y ≔ y, x", []string{"x", "ℤ", "y", "ℤ"}, "⊤", "⊤", "x' = y ∧ y' = x"},
		{"x ≔ x + 1", []string{"x", "ℤ"}, "⊤", "⊤", "x' = x + 1"},
		{"x ≔ y ÷ z", nil, "z ≠ 0", "⊤", "x' = y ÷ z"},
		{"x :∈ {1, 2, 3}", nil, "⊤", "{1, 2, 3} ≠ ∅", "x' ∈ {1, 2, 3}"},
		{"x :∈ {1 ÷ y}", nil, "y ≠ 0", "{1 ÷ y} ≠ ∅", "x' ∈ {1 ÷ y}"},
		{"x :∣ x' > x", nil, "⊤", "∃x'·x' > x", "x' > x"},
		{"x :∣ x' = 1 ÷ x", nil, "x ≠ 0", "∃x'·x' = 1 ÷ x", "x' = 1 ÷ x"},
		{"x :∣ x' ÷ x = 1", nil, "x ≠ 0", "∃x'·x' ÷ x = 1", "x' ÷ x = 1"},
		{"x, y :∣ x' > y ∧ y' = x", nil, "⊤", "∃x', y'·x' > y ∧ y' = x", "x' > y ∧ y' = x"},
		{"x :∣ y > 0", []string{"x", "ℤ"}, "⊤", "y > 0", "y > 0"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, env := typed(t, tt.input, environment(t, tt.env...))
			a := f.(ast.Assignment)
			requirePredicate(t, tt.wd, WD(a), env)
			requirePredicate(t, tt.fis, FIS(a), env)

			withPrimes := env.Clone()
			for _, id := range a.AssignedIdentifiers() {
				typ, _ := id.Type()
				require.NoError(t, withPrimes.Add(id.Name()+"'", typ))
			}
			ba := BA(a, nil)
			requirePredicate(t, tt.ba, ba, withPrimes)
			assert.Equal(t, tt.ba, ast.ToString(ba))
		})
	}
}

func TestBeforeAfterAvoidsEnvironment(t *testing.T) {
	f, env := typed(t, "x :∣ x' > x", environment(t, "x'", "ℤ"))
	a := f.(*ast.BecomesSuchThat)

	ba := BA(a, env)
	assert.Equal(t, "x0' > x", ast.ToString(ba))
	assert.Equal(t, []string{"x0'", "x"}, ast.FreeIdentifierNames(ba))
	assert.True(t, ba.IsTypeChecked())

	ba = BA(a, environment(t, "x'", "ℤ", "x0'", "ℤ"))
	assert.Equal(t, "x1' > x", ast.ToString(ba))
}

func TestSynthesizedPredicatesAreClosedUnderTheirContext(t *testing.T) {
	inputs := []string{
		"∀s·s ⊆ ℕ ⇒ min(s) ≥ 0 ∧ max(s) ≥ 0",
		"∀f·f ∈ ℕ → ℕ ⇒ (∀x·f(x) ÷ x > 0)",
		"{x·x ∈ ℕ ∣ {y·y ∈ ℕ ∣ x ÷ y}} ≠ ∅",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			f, _ := typed(t, input, types.NewEnvironment())
			p := WD(f)
			assert.True(t, p.IsTypeChecked())
			assert.True(t, ast.IsClosed(p), ast.TreeString(p))
			assert.True(t, resolver.IsWellFormed(p), ast.TreeString(p))
		})
	}
}

func TestUntypedInputPanics(t *testing.T) {
	p, err := parser.ParsePredicate("x ÷ y = 1")
	require.NoError(t, err)
	assert.Panics(t, func() { WD(p) })
}
