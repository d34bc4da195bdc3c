package wd

import (
	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// FIS returns the feasibility predicate of a: ⊤ for x ≔ E, S ≠ ∅ for
// x :∈ S, and ∃x'·P for x :∣ P. a must be type checked.
func (s *Synthesizer) FIS(a ast.Assignment) ast.Predicate {
	diagnostic.Assert(a.IsTypeChecked(), "feasibility of untyped assignment %s", a)
	switch a := a.(type) {
	case *ast.BecomesMemberOf:
		return s.nonEmpty(a.Set())
	case *ast.BecomesSuchThat:
		return s.quantify(ast.TagExists, a.PrimedDeclarations(), a.Condition())
	}
	return s.top()
}

// BA returns the before-after predicate of a, relating the values of the
// assigned identifiers before (x) and after (x') the assignment:
//
//	x, y ≔ E, F   x' = E ∧ y' = F
//	x :∈ S        x' ∈ S
//	x :∣ P        P with its primed declarations made free
//
// The free identifiers standing for the primed declarations keep their
// names unless env or a already uses them; they are renamed x0', x1', ...
// otherwise. a must be type checked.
func (s *Synthesizer) BA(a ast.Assignment, env *types.Environment) ast.Predicate {
	diagnostic.Assert(a.IsTypeChecked(), "before-after predicate of untyped assignment %s", a)
	if env == nil {
		env = types.NewEnvironment()
	}
	switch a := a.(type) {
	case *ast.BecomesEqualTo:
		c := &conjunction{s: s}
		for i, id := range a.AssignedIdentifiers() {
			c.parts = append(c.parts, s.relation(ast.TagEqual, s.fac.WithPrime(id), a.Values()[i]))
		}
		return c.predicate()
	case *ast.BecomesMemberOf:
		return s.relation(ast.TagIn, s.fac.WithPrime(a.Identifier()), a.Set())
	case *ast.BecomesSuchThat:
		return s.afterValues(a, env)
	}
	diagnostic.Assert(false, "unknown assignment %T", a)
	return nil
}

func (s *Synthesizer) afterValues(a *ast.BecomesSuchThat, env *types.Environment) ast.Predicate {
	avoid := []ast.Formula{a.Condition()}
	for _, id := range a.AssignedIdentifiers() {
		avoid = append(avoid, id)
	}
	fresh := s.fac.MakeFreshIdentifiers(a.PrimedDeclarations(), env, avoid...)
	replacements := make([]ast.Expression, len(fresh))
	for i, id := range fresh {
		replacements[i] = id
	}
	q := s.fac.MakeQuantifiedPredicate(ast.TagExists, a.PrimedDeclarations(), a.Condition())
	return s.fac.Instantiate(q, replacements)
}
