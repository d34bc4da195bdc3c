package prop_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/parser"
	"github.com/17451k/rodincore-sub001/internal/prop"
	"github.com/17451k/rodincore-sub001/internal/resolver"
	"github.com/17451k/rodincore-sub001/internal/typechecker"
	"github.com/17451k/rodincore-sub001/internal/types"
	"github.com/17451k/rodincore-sub001/internal/wd"
)

var vocabulary = prop.NewVocabulary(nil)

const seed = 20240611

// holds runs p on generated predicates and fails the test with the shrunk
// counterexample.
func holds(t *testing.T, p prop.Property[ast.Predicate]) {
	t.Helper()
	res := prop.ForAll(context.Background(), vocabulary.Predicate(), vocabulary.ShrinkPredicate(), p,
		prop.Options{Trials: 300, Seed: seed, MaxShrinkTime: 2 * time.Second})
	require.False(t, res.Failed(), res.String())
	assert.Equal(t, 300, res.Passed)
}

func TestGeneratedPredicatesAreTypedAndClosed(t *testing.T) {
	holds(t, func(p ast.Predicate) error {
		if !p.IsTypeChecked() {
			return errors.New("untyped")
		}
		if !ast.IsClosed(p) || len(p.BoundIdentifiers()) > 0 {
			return errors.New("loose bound identifiers")
		}
		return resolver.CheckWellFormed(p).Err()
	})
}

func TestPrintedFormReparsesAndRetypes(t *testing.T) {
	checker := typechecker.New(vocabulary.Factory(), typechecker.Config{Closed: true})
	holds(t, func(p ast.Predicate) error {
		for _, text := range []string{ast.ToString(p), ast.ToStringFullyParenthesized(p)} {
			untyped, err := parser.ParsePredicate(text)
			if err != nil {
				return fmt.Errorf("%s: %w", text, err)
			}
			res := checker.CheckPredicate(untyped, vocabulary.Env())
			if err := res.Err(); err != nil {
				return fmt.Errorf("%s: %w", text, err)
			}
			if !ast.Equal(res.Formula, p) {
				return fmt.Errorf("%s retyped as %s", text, ast.ToStringWithTypes(res.Formula))
			}
		}
		return nil
	})
}

func TestTypedFormReparses(t *testing.T) {
	holds(t, func(p ast.Predicate) error {
		text := ast.ToStringWithTypes(p)
		q, err := parser.ParsePredicate(text)
		if err != nil {
			return fmt.Errorf("%s: %w", text, err)
		}
		res := typechecker.New(nil, typechecker.Config{}).CheckPredicate(q, vocabulary.Env())
		if !res.IsSuccess() || !ast.Equal(res.Formula, p) {
			return fmt.Errorf("%s does not read back", text)
		}
		return nil
	})
}

func TestFlattenIsIdempotent(t *testing.T) {
	fac := vocabulary.Factory()
	holds(t, func(p ast.Predicate) error {
		once := fac.Flatten(p)
		if !ast.IsFlat(once) {
			return fmt.Errorf("%s is not flat", once)
		}
		if twice := fac.Flatten(once); twice != once {
			return fmt.Errorf("flattening %s again rebuilt it", once)
		}
		if !once.IsTypeChecked() {
			return fmt.Errorf("flattening %s lost types", p)
		}
		return nil
	})
}

// Every subformula is well formed at the binder depth of its position, and
// shifting its loose bound identifiers there and back changes nothing.
func TestSubformulasAreWellFormedInContext(t *testing.T) {
	fac := vocabulary.Factory()
	holds(t, func(p ast.Predicate) error {
		r := resolver.NewResolver(resolver.DefaultConfig())
		for _, path := range ast.Positions(p, func(ast.Formula) bool { return true }) {
			node, err := ast.GetChild(p, path)
			if err != nil {
				return err
			}
			depth, err := ast.BinderDepthAt(p, path)
			if err != nil {
				return err
			}
			if err := r.CheckWellFormed(node, depth).Err(); err != nil {
				return fmt.Errorf("at %s: %w", path, err)
			}
			if _, ok := node.(*ast.BoundIdentDecl); ok {
				continue
			}
			back := fac.ShiftBoundIdentifiers(fac.ShiftBoundIdentifiers(node, 3), -3)
			if !ast.Equal(back, node) {
				return fmt.Errorf("at %s: shifting gave %s", path, back)
			}
		}
		return nil
	})
}

func TestBindThenInstantiateIsIdentity(t *testing.T) {
	fac := vocabulary.Factory()
	a := fac.MakeFreeIdentifier("a", types.Integer)
	holds(t, func(p ast.Predicate) error {
		body := fac.BindTheseIdentifiers(p, []string{"a"}, 0).(ast.Predicate)
		q := fac.MakeQuantifiedPredicate(ast.TagForall, []*ast.BoundIdentDecl{fac.AsDeclaration(a)}, body)
		if err := resolver.CheckWellFormed(q).Err(); err != nil {
			return fmt.Errorf("%s: %w", q, err)
		}
		if got := fac.Instantiate(q, []ast.Expression{a}); !ast.Equal(got, p) {
			return fmt.Errorf("instantiating %s gave %s", q, got)
		}
		return nil
	})
}

func TestInstantiatedQuantifiersStayWellFormed(t *testing.T) {
	fac := vocabulary.Factory()
	holds(t, func(p ast.Predicate) error {
		found := ast.Positions(p, func(f ast.Formula) bool {
			q, ok := f.(*ast.QuantifiedPredicate)
			return ok && ast.IsClosed(q)
		})
		for _, path := range found {
			node, _ := ast.GetChild(p, path)
			q := node.(*ast.QuantifiedPredicate)
			values := make([]ast.Expression, len(q.Declarations()))
			values[0] = fac.MakeFreeIdentifier("b", types.Integer)
			got := fac.Instantiate(q, values)
			if !got.IsTypeChecked() || !ast.IsClosed(got) {
				return fmt.Errorf("instantiating %s gave %s", q, got)
			}
			if err := resolver.CheckWellFormed(got).Err(); err != nil {
				return fmt.Errorf("instantiating %s gave %s: %w", q, got, err)
			}
		}
		return nil
	})
}

func TestWellDefinednessIsTypedAndClosed(t *testing.T) {
	holds(t, func(p ast.Predicate) error {
		w := wd.WD(p)
		if !w.IsTypeChecked() || !ast.IsClosed(w) {
			return fmt.Errorf("WD(%s) = %s", p, w)
		}
		for _, id := range w.FreeIdentifiers() {
			if !vocabulary.Env().Contains(id.Name()) {
				return fmt.Errorf("WD(%s) introduces %s", p, id.Name())
			}
		}
		return resolver.CheckWellFormed(w).Err()
	})
}

func TestShrinkingKeepsFailure(t *testing.T) {
	hasQuantifier := func(p ast.Predicate) bool {
		_, found := ast.Find(p, func(f ast.Formula) bool { return f.Tag() == ast.TagForall || f.Tag() == ast.TagExists })
		return found
	}
	res := prop.ForAll(context.Background(), vocabulary.Predicate(), vocabulary.ShrinkPredicate(),
		func(p ast.Predicate) error {
			if hasQuantifier(p) {
				return errors.New("quantified")
			}
			return nil
		}, prop.Options{Trials: 300, Seed: seed, Size: 5})
	require.True(t, res.Failed())
	assert.True(t, hasQuantifier(res.Failure.Shrunk), res.String())
	assert.Greater(t, res.ShrinkRounds, 0)
}

func TestSeedReproducesInputs(t *testing.T) {
	record := func() []string {
		var seen []string
		prop.ForAll(context.Background(), vocabulary.Predicate(), nil, func(p ast.Predicate) error {
			seen = append(seen, ast.ToString(p))
			return nil
		}, prop.Options{Trials: 20, Seed: seed, Parallelism: 1})
		return seen
	}
	first := record()
	require.Len(t, first, 20)
	assert.Equal(t, first, record())
}

func TestFirstFailureStopsTheRun(t *testing.T) {
	gen := func(r *rand.Rand, _ int) int { return r.Intn(100) }
	res := prop.ForAll(context.Background(), gen, nil, func(int) error { return errors.New("never") },
		prop.Options{Trials: 50, Seed: 1, Parallelism: 1})
	require.True(t, res.Failed())
	assert.Equal(t, 0, res.Failure.Trial)
	assert.Equal(t, 0, res.Passed)
	assert.Equal(t, res.Failure.Input, res.Failure.Shrunk)
	assert.Contains(t, res.String(), "trial 0 failed (seed 1): never")
}

func TestFirstFailureIgnoresScheduling(t *testing.T) {
	gen := func(r *rand.Rand, _ int) int { return r.Intn(100) }
	rare := func(v int) error {
		if v < 3 {
			return fmt.Errorf("small %d", v)
		}
		return nil
	}
	want := prop.ForAll(context.Background(), gen, nil, rare, prop.Options{Trials: 400, Seed: seed, Parallelism: 1})
	require.True(t, want.Failed())
	assert.Equal(t, want.Failure.Trial, want.Passed)
	for _, workers := range []int{2, 8, 32} {
		got := prop.ForAll(context.Background(), gen, nil, rare, prop.Options{Trials: 400, Seed: seed, Parallelism: workers})
		require.True(t, got.Failed())
		assert.Equal(t, want.Failure.Trial, got.Failure.Trial, "%d workers", workers)
		assert.Equal(t, want.Failure.Input, got.Failure.Input, "%d workers", workers)
		assert.Equal(t, want.Passed, got.Passed, "%d workers", workers)
	}
}

func TestPanicsAreFailures(t *testing.T) {
	gen := func(r *rand.Rand, _ int) int { return r.Intn(10) }
	shrink := func(v int) []int {
		if v == 0 {
			return nil
		}
		return []int{v / 2}
	}
	res := prop.ForAll(context.Background(), gen, shrink, func(v int) error {
		if v > 0 {
			panic("positive")
		}
		return nil
	}, prop.Options{Trials: 100, Seed: 7})
	require.True(t, res.Failed())
	assert.Equal(t, 1, res.Failure.Shrunk)
	assert.EqualError(t, res.Failure.Err, "panic: positive")
}
