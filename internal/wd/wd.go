// Package wd derives the predicates that give typed formulas their proof
// obligations: well-definedness (WD) for every formula, and feasibility
// (FIS) and before-after (BA) predicates for assignments.
//
// Every predicate built here is typed and is read in the same binder
// context as the formula it was derived from.
package wd

import (
	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// Synthesizer builds WD, FIS and BA predicates with one factory.
type Synthesizer struct {
	fac *ast.Factory
}

// New creates a synthesizer. A nil factory means ast.DefaultFactory().
func New(fac *ast.Factory) *Synthesizer {
	if fac == nil {
		fac = ast.DefaultFactory()
	}
	return &Synthesizer{fac: fac}
}

var std = New(nil)

// WD returns the well-definedness predicate of f using the default factory.
func WD(f ast.Formula) ast.Predicate { return std.WD(f) }

// FIS returns the feasibility predicate of a using the default factory.
func FIS(a ast.Assignment) ast.Predicate { return std.FIS(a) }

// BA returns the before-after predicate of a using the default factory.
func BA(a ast.Assignment, env *types.Environment) ast.Predicate { return std.BA(a, env) }

// WD returns the well-definedness predicate of f: the conjunction of the WD
// predicates of its children and of the side conditions of its operators.
// Conjunctions are flat, free of ⊤ and of repeated conjuncts. The WD of a
// binder body is quantified universally over the binder's declarations,
// keeping only those it mentions. f must be type checked.
func (s *Synthesizer) WD(f ast.Formula) ast.Predicate {
	diagnostic.Assert(f.IsTypeChecked(), "well-definedness of untyped formula %s", f)
	return s.wd(f)
}

func (s *Synthesizer) wd(f ast.Formula) ast.Predicate {
	switch f := f.(type) {
	case ast.Expression:
		return s.expression(f)
	case ast.Predicate:
		return s.predicate(f)
	case ast.Assignment:
		return s.assignment(f)
	}
	return s.top()
}

func (s *Synthesizer) expression(e ast.Expression) ast.Predicate {
	c := s.conjunction()
	switch e := e.(type) {
	case *ast.BinaryExpression:
		l, r := e.Left(), e.Right()
		c.add(s.expression(l), s.expression(r))
		switch e.Tag() {
		case ast.TagDiv:
			c.add(s.relation(ast.TagNotEqual, r, s.fac.MakeInt(0)))
		case ast.TagMod:
			c.add(s.relation(ast.TagLe, s.fac.MakeInt(0), l), s.relation(ast.TagLt, s.fac.MakeInt(0), r))
		case ast.TagExpn:
			c.add(s.relation(ast.TagLe, s.fac.MakeInt(0), l), s.relation(ast.TagLe, s.fac.MakeInt(0), r))
		case ast.TagFunImage:
			c.add(s.applicable(l, r)...)
		}
	case *ast.AssociativeExpression:
		for _, child := range e.Children() {
			c.add(s.expression(child))
		}
	case *ast.UnaryExpression:
		child := e.Child()
		c.add(s.expression(child))
		switch e.Tag() {
		case ast.TagKCard:
			c.add(s.fac.MakeSimplePredicate(ast.TagKFinite, child))
		case ast.TagKMin:
			c.add(s.nonEmpty(child), s.bounded(child, true))
		case ast.TagKMax:
			c.add(s.nonEmpty(child), s.bounded(child, false))
		case ast.TagKInter:
			c.add(s.nonEmpty(child))
		}
	case *ast.BoolExpression:
		c.add(s.predicate(e.Predicate()))
	case *ast.SetExtension:
		for _, m := range e.Members() {
			c.add(s.expression(m))
		}
	case *ast.QuantifiedExpression:
		decls := e.Declarations()
		body := s.conjunction()
		body.add(s.predicate(e.Predicate()), s.expression(e.Expression()))
		c.add(s.quantify(ast.TagForall, decls, body.predicate()))
		if e.Tag() == ast.TagQInter {
			c.add(s.quantify(ast.TagExists, decls, e.Predicate()))
		}
	}
	// literals, identifiers and atomic expressions are always defined
	return c.predicate()
}

func (s *Synthesizer) predicate(p ast.Predicate) ast.Predicate {
	c := s.conjunction()
	switch p := p.(type) {
	case *ast.AssociativePredicate:
		for _, child := range p.Children() {
			c.add(s.predicate(child))
		}
	case *ast.BinaryPredicate:
		c.add(s.predicate(p.Left()), s.predicate(p.Right()))
	case *ast.UnaryPredicate:
		c.add(s.predicate(p.Child()))
	case *ast.QuantifiedPredicate:
		c.add(s.quantify(ast.TagForall, p.Declarations(), s.predicate(p.Predicate())))
	case *ast.RelationalPredicate:
		c.add(s.expression(p.Left()), s.expression(p.Right()))
	case *ast.SimplePredicate:
		c.add(s.expression(p.Expression()))
	case *ast.MultiplePredicate:
		for _, child := range p.Children() {
			c.add(s.expression(child))
		}
	}
	return c.predicate()
}

func (s *Synthesizer) assignment(a ast.Assignment) ast.Predicate {
	c := s.conjunction()
	switch a := a.(type) {
	case *ast.BecomesEqualTo:
		for _, v := range a.Values() {
			c.add(s.expression(v))
		}
	case *ast.BecomesMemberOf:
		c.add(s.expression(a.Set()))
	case *ast.BecomesSuchThat:
		c.add(s.quantify(ast.TagForall, a.PrimedDeclarations(), s.predicate(a.Condition())))
	}
	return c.predicate()
}

// ====== Side conditions ======

func (s *Synthesizer) relation(tag ast.Tag, l, r ast.Expression) ast.Predicate {
	return s.fac.MakeRelationalPredicate(tag, l, r)
}

// applicable states that f may be applied to x: x ∈ dom(f) ∧ f ∈ S ⇸ T,
// where S and T are the sets of all values of the source and target types.
func (s *Synthesizer) applicable(f, x ast.Expression) []ast.Predicate {
	typ := ast.TypeOf(f)
	fn := s.fac.MakeBinaryExpression(ast.TagPFun,
		s.fac.TypeExpression(types.Source(typ)), s.fac.TypeExpression(types.Target(typ)))
	return []ast.Predicate{
		s.relation(ast.TagIn, x, s.fac.MakeUnaryExpression(ast.TagKDom, f)),
		s.relation(ast.TagIn, f, fn),
	}
}

func (s *Synthesizer) nonEmpty(set ast.Expression) ast.Predicate {
	return s.relation(ast.TagNotEqual, set, s.fac.MakeAtomicExpression(ast.TagEmptySet, ast.TypeOf(set)))
}

// bounded states that the integer set has a lower bound, or an upper bound
// when lower is false: ∃b·∀x·x ∈ set ⇒ b ≤ x.
func (s *Synthesizer) bounded(set ast.Expression, lower bool) ast.Predicate {
	b := s.fac.MakeBoundIdentifier(1, types.Integer)
	x := s.fac.MakeBoundIdentifier(0, types.Integer)
	cmp := s.relation(ast.TagLe, b, x)
	if !lower {
		cmp = s.relation(ast.TagLe, x, b)
	}
	member := s.relation(ast.TagIn, x, s.fac.ShiftBoundIdentifiers(set, 2).(ast.Expression))
	all := s.fac.MakeQuantifiedPredicate(ast.TagForall,
		[]*ast.BoundIdentDecl{s.fac.MakeBoundIdentDecl("x", types.Integer)},
		s.fac.MakeBinaryPredicate(ast.TagLImp, member, cmp))
	return s.fac.MakeQuantifiedPredicate(ast.TagExists,
		[]*ast.BoundIdentDecl{s.fac.MakeBoundIdentDecl("b", types.Integer)}, all)
}

// quantify closes body over decls, dropping the declarations it does not
// mention and the quantifier itself when none remains.
func (s *Synthesizer) quantify(tag ast.Tag, decls []*ast.BoundIdentDecl, body ast.Predicate) ast.Predicate {
	if isTrue(body) {
		return body
	}
	q := s.fac.MakeQuantifiedPredicate(tag, decls, body)
	return s.fac.SimplifyBinder(q).(ast.Predicate)
}

func (s *Synthesizer) top() ast.Predicate { return s.fac.MakeLiteralPredicate(ast.TagBTrue) }

func isTrue(p ast.Predicate) bool { return p.Tag() == ast.TagBTrue }

// ====== Conjunctions ======

type conjunction struct {
	s     *Synthesizer
	parts []ast.Predicate
}

func (s *Synthesizer) conjunction() *conjunction { return &conjunction{s: s} }

// add appends ps, inlining conjunctions and skipping ⊤ and conjuncts
// already present.
func (c *conjunction) add(ps ...ast.Predicate) {
	for _, p := range ps {
		if isTrue(p) {
			continue
		}
		if and, ok := p.(*ast.AssociativePredicate); ok && and.Tag() == ast.TagLAnd {
			c.add(and.Children()...)
			continue
		}
		if !c.contains(p) {
			c.parts = append(c.parts, p)
		}
	}
}

func (c *conjunction) contains(p ast.Predicate) bool {
	for _, q := range c.parts {
		if q.Hash() == p.Hash() && ast.Equal(q, p) {
			return true
		}
	}
	return false
}

func (c *conjunction) predicate() ast.Predicate {
	switch len(c.parts) {
	case 0:
		return c.s.top()
	case 1:
		return c.parts[0]
	}
	return c.s.fac.MakeAssociativePredicate(ast.TagLAnd, c.parts)
}
