package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/types"
)

var fac = ast.DefaultFactory()

func mustExpression(t *testing.T, input string) ast.Expression {
	t.Helper()
	e, err := ParseExpression(input)
	require.NoError(t, err, input)
	return e
}

func mustPredicate(t *testing.T, input string) ast.Predicate {
	t.Helper()
	p, err := ParsePredicate(input)
	require.NoError(t, err, input)
	return p
}

func mustAssignment(t *testing.T, input string) ast.Assignment {
	t.Helper()
	a, err := ParseAssignment(input)
	require.NoError(t, err, input)
	return a
}

// problem returns the single problem reported for err.
func problem(t *testing.T, err error) *diagnostic.Diagnostic {
	t.Helper()
	require.Error(t, err)
	var list diagnostic.List
	require.ErrorAs(t, err, &list)
	require.Len(t, list, 1)
	return list[0]
}

func TestExpressionsPrintBack(t *testing.T) {
	tests := []string{
		"x + y ∗ z",
		"a − b + c",
		"a + b − c",
		"(a + b) ∗ c",
		"a ÷ b ∗ c",
		"x ↦ y ↦ z",
		"x ↦ (y ↦ z)",
		"f(x)",
		"f(x)(y)",
		"r∼[S]",
		"(f ∪ g)(x)",
		"S ∪ T ∪ U",
		"(S ∪ T) ∩ U",
		"A × B × C",
		"A × (B × C)",
		"ℙ(S) ↔ T",
		"S ⇸ (T ↔ U)",
		"r ◁ s",
		"card(S) + 1",
		"{1, 2, 3}",
		"1 ‥ n",
		"−x",
		"−(1)",
		"−1",
		"2 ^ 3",
		"(−1) ^ 2",
		"bool(x > 0)",
		"∅",
		"id",
		"prj1 ; f",
		"{x·x ∈ ℕ ∣ x + 1}",
		"{x ∣ x > 0}",
		"{x ↦ y ∣ x < y}",
		"λx·x ∈ ℤ ∣ x + 1",
		"λx ↦ y·x ∈ ℤ ∧ y ∈ ℤ ∣ x + y",
		"λx ↦ (y ↦ z)·⊤ ∣ x",
		"⋃x·x ∈ S ∣ {x}",
		"⋂x, y·x ∈ S ∧ y ∈ T ∣ {x, y}",
		"[[0]] + 1",
		"union(S) ∖ inter(T)",
		"dom(r) ∩ ran(r)",
		"min(S) ‥ max(S)",
		"pred(x) mod succ(y)",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			e := mustExpression(t, input)
			assert.Equal(t, input, ast.ToString(e))
		})
	}
}

func TestPredicatesPrintBack(t *testing.T) {
	tests := []string{
		"x = y",
		"∀x·x ∈ ℕ ⇒ x ≥ 0",
		"∀x, y·x = y",
		"a = b ∧ c = d ⇒ e = f",
		"¬x = 1",
		"¬(a = b ∧ c = d)",
		"(∀x·x > 0) ∧ y > 0",
		"(a = b ∨ c = d) ∧ e = f",
		"finite(S)",
		"partition(S, {a}, {b})",
		"⊤ ∨ ⊥",
		"x ∈ S ∧ (∃y·y ∈ S ∧ y ≠ x)",
		"x ↦ y ∈ r",
		"S ⊆ T ⇔ T ⊈ S",
		"(a + b) ∗ c = d",
		"a = b ⇔ (c = d ⇒ e = f)",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			p := mustPredicate(t, input)
			assert.Equal(t, input, ast.ToString(p))
		})
	}
}

func TestAssignmentsPrintBack(t *testing.T) {
	tests := []string{
		"x ≔ x + 1",
		"x, y ≔ y, x",
		"x :∈ {1, 2, 3}",
		"x :∣ x' > x",
		"x, y :∣ x' = y ∧ y' = x",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			a := mustAssignment(t, input)
			assert.Equal(t, input, ast.ToString(a))
		})
	}
}

func TestASCIIInput(t *testing.T) {
	tests := map[string]string{
		"!x.x : NAT => x >= 0":        "∀x·x ∈ ℕ ⇒ x ≥ 0",
		"#x.x /: S & x |-> y : r":     "∃x·x ∉ S ∧ x ↦ y ∈ r",
		"x := x - 1":                  "x ≔ x − 1",
		"x :: POW(S)":                 "x :∈ ℙ(S)",
		"{x | x > 0} <: INT":          "{x ∣ x > 0} ⊆ ℤ",
		"%x.x : INT | x * 2 = f":      "(λx·x ∈ ℤ ∣ x ∗ 2) = f",
		"r <+ s ; t = u":              "",
		"x : {} or not(y = 1)":        "x ∈ ∅ ∨ ¬y = 1",
		"f = S --> T & g : S >->> T":  "f = S → T ∧ g ∈ S ⤖ T",
		"x oftype INT = 1":            "x⦂ℤ = 1",
		"card(S) <= 3":                "card(S) ≤ 3",
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			if want == "" {
				// mixed set operators need parentheses
				_, err := ParsePredicate(input)
				assert.Equal(t, diagnostic.SyntaxError, problem(t, err).Kind)
				return
			}
			f, _, err := ParseFormula(input, Config{})
			require.NoError(t, err)
			assert.Equal(t, want, ast.ToStringWithTypes(f))
		})
	}
}

func TestBinding(t *testing.T) {
	t.Run("nearest binder has index 0", func(t *testing.T) {
		p := mustPredicate(t, "∀x, y·x = y").(*ast.QuantifiedPredicate)
		eq := p.Predicate().(*ast.RelationalPredicate)
		assert.Equal(t, 1, eq.Left().(*ast.BoundIdentifier).Index())
		assert.Equal(t, 0, eq.Right().(*ast.BoundIdentifier).Index())
	})
	t.Run("names not in scope are free", func(t *testing.T) {
		p := mustPredicate(t, "∀x·x = y")
		assert.Equal(t, []string{"y"}, ast.FreeIdentifierNames(p))
		assert.True(t, ast.IsClosed(p))
	})
	t.Run("implicit comprehension binds its expression", func(t *testing.T) {
		e := mustExpression(t, "{x ↦ y ∣ x < y}").(*ast.QuantifiedExpression)
		require.Len(t, e.Declarations(), 2)
		assert.Equal(t, "x", e.Declarations()[0].Name())
		assert.Equal(t, "y", e.Declarations()[1].Name())
		assert.Empty(t, e.FreeIdentifiers())
		assert.Equal(t, ast.FormImplicit, e.Form())
	})
	t.Run("implicit comprehension inside a quantifier", func(t *testing.T) {
		p := mustPredicate(t, "∀z·{x ↦ z ∣ x > z} = r").(*ast.QuantifiedPredicate)
		eq := p.Predicate().(*ast.RelationalPredicate)
		set := eq.Left().(*ast.QuantifiedExpression)
		maplet := set.Expression().(*ast.BinaryExpression)
		assert.Equal(t, 0, maplet.Left().(*ast.BoundIdentifier).Index())
		assert.Equal(t, 1, maplet.Right().(*ast.BoundIdentifier).Index())
	})
	t.Run("lambda pattern", func(t *testing.T) {
		e := mustExpression(t, "λx ↦ y·⊤ ∣ y").(*ast.QuantifiedExpression)
		assert.Equal(t, ast.FormLambda, e.Form())
		assert.True(t, ast.IsLambdaPattern(e))
	})
	t.Run("primed names of a general assignment", func(t *testing.T) {
		a := mustAssignment(t, "x :∣ x' > x").(*ast.BecomesSuchThat)
		require.Len(t, a.PrimedDeclarations(), 1)
		assert.Equal(t, "x'", a.PrimedDeclarations()[0].Name())
		gt := a.Condition().(*ast.RelationalPredicate)
		assert.Equal(t, 0, gt.Left().(*ast.BoundIdentifier).Index())
		assert.Equal(t, "x", gt.Right().(*ast.FreeIdentifier).Name())
	})
}

func TestTypeAnnotations(t *testing.T) {
	t.Run("typed identifiers", func(t *testing.T) {
		e := mustExpression(t, "x⦂ℤ + 1")
		typ, ok := e.Type()
		require.True(t, ok)
		assert.True(t, types.Equal(types.Integer, typ))
		assert.True(t, e.IsTypeChecked())
	})
	t.Run("generic constant", func(t *testing.T) {
		e := mustExpression(t, "∅⦂ℙ(S×ℤ)")
		typ, ok := e.Type()
		require.True(t, ok)
		assert.Equal(t, "ℙ(S×ℤ)", typ.String())
		assert.Equal(t, "∅⦂ℙ(S×ℤ)", ast.ToStringWithTypes(e))
	})
	t.Run("typed declarations", func(t *testing.T) {
		p := mustPredicate(t, "∀x⦂ℤ, b⦂BOOL·x > 0 ∧ b = TRUE")
		assert.True(t, p.IsTypeChecked())
		assert.Equal(t, "∀x⦂ℤ, b⦂BOOL·x > 0 ∧ b = TRUE", ast.ToStringWithTypes(p))
	})
	t.Run("product type", func(t *testing.T) {
		e := mustExpression(t, "p⦂(ℤ×BOOL)")
		assert.Equal(t, "p⦂(ℤ×BOOL)", ast.ToStringWithTypes(e))
	})
	t.Run("not a type", func(t *testing.T) {
		_, err := ParseExpression("x⦂(a + b)")
		assert.Equal(t, diagnostic.InvalidTypeExpression, problem(t, err).Kind)
	})
	t.Run("not an instance", func(t *testing.T) {
		_, err := ParseExpression("∅⦂ℤ")
		assert.Equal(t, diagnostic.InvalidTypeExpression, problem(t, err).Kind)
	})
}

func TestParseType(t *testing.T) {
	tests := map[string]string{
		"ℤ":            "ℤ",
		"BOOL":         "BOOL",
		"S":            "S",
		"ℙ(S × T)":     "ℙ(S×T)",
		"POW(INT**S)":  "ℙ(ℤ×S)",
		"A × B × C":    "A×B×C",
		"A × (B × C)":  "A×(B×C)",
		"ℙ(ℙ(BOOL))":   "ℙ(ℙ(BOOL))",
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			typ, err := ParseType(input)
			require.NoError(t, err)
			assert.Equal(t, want, typ.String())
		})
	}

	_, err := ParseType("ℕ")
	assert.Equal(t, diagnostic.InvalidTypeExpression, problem(t, err).Kind)
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) error
		input string
		kind  diagnostic.Kind
	}{
		{"missing operand", expr, "x +", diagnostic.UnexpectedToken},
		{"trailing input", expr, "x y", diagnostic.UnexpectedToken},
		{"unbalanced", expr, "f(x", diagnostic.UnexpectedToken},
		{"invalid character", expr, "x ? y", diagnostic.UnknownOperator},
		{"mixed set operators", expr, "x ∪ y ∩ z", diagnostic.SyntaxError},
		{"chained relations", expr, "A ↔ B ↔ C", diagnostic.SyntaxError},
		{"chained exponentiation", expr, "a ^ b ^ c", diagnostic.SyntaxError},
		{"chained implications", pred, "a = 1 ⇒ b = 1 ⇒ c = 1", diagnostic.SyntaxError},
		{"mixed connectives", pred, "a = 1 ∧ b = 1 ∨ c = 1", diagnostic.SyntaxError},
		{"expression as predicate", pred, "x + 1", diagnostic.UnexpectedToken},
		{"duplicate declaration", pred, "∀x, x·x = 1", diagnostic.DuplicateIdentifier},
		{"duplicate lambda identifier", expr, "λx ↦ x·⊤ ∣ x", diagnostic.DuplicateIdentifier},
		{"implicit set without identifier", expr, "{1 ∣ ⊤}", diagnostic.SyntaxError},
		{"value count", assign, "x, y ≔ 1", diagnostic.SyntaxError},
		{"member of with two identifiers", assign, "x, y :∈ S", diagnostic.SyntaxError},
		{"primed assigned identifier", assign, "x' ≔ 1", diagnostic.SyntaxError},
		{"duplicate assigned identifier", assign, "x, x ≔ 1, 2", diagnostic.DuplicateIdentifier},
		{"missing assignment operator", assign, "x = 1", diagnostic.UnexpectedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, problem(t, tt.parse(tt.input)).Kind)
		})
	}
}

func expr(s string) error   { _, err := ParseExpression(s); return err }
func pred(s string) error   { _, err := ParsePredicate(s); return err }
func assign(s string) error { _, err := ParseAssignment(s); return err }

func TestErrorSpans(t *testing.T) {
	_, err := NewParser("x ∈ S ∧\n  y ∪ z ∩ w = T", Config{Filename: "machine.bum"}).ParsePredicate()
	d := problem(t, err)
	assert.Equal(t, diagnostic.SyntaxError, d.Kind)
	assert.Equal(t, "machine.bum", d.Span.Start.Filename)
	assert.Equal(t, 2, d.Span.Start.Line)
	assert.Equal(t, 9, d.Span.Start.Column)
}

func TestNodeSpans(t *testing.T) {
	p := mustPredicate(t, "a = b ∧ card(S) > 1").(*ast.AssociativePredicate)
	assert.Equal(t, 0, p.Span().Start.Offset)
	assert.Equal(t, 19, p.Span().End.Offset)

	gt := p.Children()[1]
	assert.Equal(t, 8, gt.Span().Start.Offset)
	assert.Equal(t, 19, gt.Span().End.Offset)

	path, ok := ast.PositionAt(p, gt.Span())
	require.True(t, ok)
	assert.Equal(t, "1", path.String())
}

func TestLanguageVersion(t *testing.T) {
	v1 := ast.NewFactory(ast.FactoryConfig{Version: ast.Version1})

	_, err := NewParser("partition(S, A, B)", Config{Factory: v1}).ParsePredicate()
	d := problem(t, err)
	assert.Equal(t, diagnostic.UnsupportedLanguageFeature, d.Kind)
	assert.Equal(t, []string{"partition", "1.0.0"}, d.Args)

	_, err = NewParser("id ; r", Config{Factory: v1}).ParseExpression()
	assert.Equal(t, diagnostic.UnsupportedLanguageFeature, problem(t, err).Kind)

	_, err = NewParser("partition(S, A, B)", Config{Factory: fac}).ParsePredicate()
	assert.NoError(t, err)
}

func TestParseFormula(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
	}{
		{"x ≔ 1", KindAssignment},
		{"x = 1", KindPredicate},
		{"x + 1", KindExpression},
		{"(a = b)", KindPredicate},
		{"(a)", KindExpression},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, kind, err := ParseFormula(tt.input, Config{})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
		})
	}
	_, _, err := ParseFormula("x +", Config{})
	assert.Error(t, err)
}

func TestParsedFormulasAreEqualToBuiltOnes(t *testing.T) {
	x := fac.MakeFreeIdentifier("x", nil)
	y := fac.MakeFreeIdentifier("y", nil)
	built := fac.MakeAssociativePredicate(ast.TagLAnd, []ast.Predicate{
		fac.MakeRelationalPredicate(ast.TagIn, x, fac.MakeAtomicExpression(ast.TagNatural, nil)),
		fac.MakeRelationalPredicate(ast.TagLt, x, fac.MakeAssociativeExpression(ast.TagPlus, []ast.Expression{y, fac.MakeInt(1)})),
	})
	parsed := mustPredicate(t, "x ∈ ℕ ∧ x < y + 1")
	assert.True(t, ast.Equal(built, parsed), ast.TreeString(parsed))
}
