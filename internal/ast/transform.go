package ast

import (
	"fmt"

	"github.com/17451k/rodincore-sub001/internal/diagnostic"
)

// Transformer defines the interface for formula transformations.
// Transformers return new formulas and never modify their input.
type Transformer interface {
	// Transform applies the transformation to a formula and returns the result.
	Transform(f Formula) (Formula, error)
}

// TransformerFunc adapts a function to a Transformer.
type TransformerFunc func(f Formula) (Formula, error)

func (fn TransformerFunc) Transform(f Formula) (Formula, error) { return fn(f) }

// Pipeline applies its steps in order, each to the result of the previous
// one. The first failing step ends the run.
type Pipeline []Transformer

// Transform implements the Transformer interface.
func (p Pipeline) Transform(f Formula) (Formula, error) {
	for i, step := range p {
		next, err := step.Transform(f)
		if err != nil {
			return nil, fmt.Errorf("step %d of %d on %s: %w", i+1, len(p), f, err)
		}
		f = next
	}
	return f, nil
}

// Normalizer returns the pipeline putting formulas in normal form: binders
// lose their unused declarations and absorb directly nested quantified
// predicates of the same kind, then associative operators are flattened.
// Types are kept.
func (fac *Factory) Normalizer() Pipeline {
	simplify := &Rewriter{
		Factory: fac,
		Expression: func(e Expression, _ int) (Expression, error) {
			return fac.SimplifyBinder(e).(Expression), nil
		},
		Predicate: func(p Predicate, _ int) (Predicate, error) {
			return fac.SimplifyBinder(p).(Predicate), nil
		},
	}
	flatten := TransformerFunc(func(f Formula) (Formula, error) { return fac.Flatten(f), nil })
	return Pipeline{simplify, flatten}
}

// Normalize runs the pipeline of Normalizer on f. It returns f itself when
// f is already in normal form.
func (fac *Factory) Normalize(f Formula) Formula {
	n, err := fac.Normalizer().Transform(f)
	diagnostic.Assert(err == nil, "normalizing %s: %v", f, err)
	return n
}

// ====== Rewriter ======

// Rewriter rebuilds a formula bottom-up, offering every expression and
// predicate to its handlers once the children have been rewritten. depth
// is the number of bound identifiers declared between the root and the
// node, so a handler building a bound identifier that refers outside the
// node uses index depth+k for the k-th loose binder.
//
// Declarations and assigned identifiers are never offered to handlers.
type Rewriter struct {
	Factory *Factory
	// Expression rewrites an expression; nil keeps it.
	Expression func(e Expression, depth int) (Expression, error)
	// Predicate rewrites a predicate; nil keeps it.
	Predicate func(p Predicate, depth int) (Predicate, error)
	// AutoFlatten drops the declarations of a rewritten binder that are no
	// longer used, and merges a quantified predicate directly nested in one
	// of the same kind.
	AutoFlatten bool
}

// Transform implements the Transformer interface.
func (r *Rewriter) Transform(f Formula) (Formula, error) {
	return r.Rewrite(f)
}

// Rewrite applies the handlers to f. Unchanged subtrees are shared with f.
func (r *Rewriter) Rewrite(f Formula) (Formula, error) {
	if r.Factory == nil {
		r.Factory = DefaultFactory()
	}
	return r.rewrite(f, 0)
}

func (r *Rewriter) rewrite(f Formula, depth int) (Formula, error) {
	if _, ok := f.(*BoundIdentDecl); ok {
		return f, nil
	}
	children := Children(f)
	if len(children) > 0 {
		rewritten := make([]Formula, len(children))
		for i, c := range children {
			if isAssignedSlot(f, i) {
				rewritten[i] = c
				continue
			}
			nc, err := r.rewrite(c, depth+BinderSize(f, i))
			if err != nil {
				return nil, err
			}
			rewritten[i] = nc
		}
		rebuilt, err := r.Factory.WithChildren(f, rewritten)
		if err != nil {
			return nil, err
		}
		if r.AutoFlatten && rebuilt != f {
			rebuilt = r.Factory.flattenBinder(rebuilt)
		}
		f = rebuilt
	}
	switch node := f.(type) {
	case Expression:
		if r.Expression != nil {
			e, err := r.Expression(node, depth)
			if err != nil {
				return nil, err
			}
			if e == nil {
				return nil, fmt.Errorf("rewriting %s produced no expression", node)
			}
			return e, nil
		}
	case Predicate:
		if r.Predicate != nil {
			p, err := r.Predicate(node, depth)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, fmt.Errorf("rewriting %s produced no predicate", node)
			}
			return p, nil
		}
	}
	return f, nil
}

// isAssignedSlot returns true if the i-th child of f is an assigned identifier.
func isAssignedSlot(f Formula, i int) bool {
	switch f := f.(type) {
	case *BecomesEqualTo:
		return i < len(f.idents)
	case *BecomesMemberOf:
		return i == 0
	case *BecomesSuchThat:
		return i < len(f.idents)
	}
	return false
}

// SimplifyBinder drops the declarations of a binder that its body does not
// use, and merges a quantified predicate directly nested in one of the same
// kind. A quantified predicate left without declarations becomes its body.
// Any other formula is returned unchanged.
func (fac *Factory) SimplifyBinder(f Formula) Formula { return fac.flattenBinder(f) }

// flattenBinder drops the declarations f no longer uses and merges a
// nested quantified predicate of the same kind into f.
func (fac *Factory) flattenBinder(f Formula) Formula {
	switch q := f.(type) {
	case *QuantifiedPredicate:
		decls, pred := q.decls, q.pred
		if inner, ok := pred.(*QuantifiedPredicate); ok && inner.tag == q.tag {
			decls = append(append([]*BoundIdentDecl(nil), decls...), inner.decls...)
			pred = inner.pred
		}
		used := usedDeclarations(pred, len(decls))
		keep, body := fac.removeDeclarations(decls, pred, used)
		if len(keep) == 0 {
			return body
		}
		if len(keep) == len(q.decls) && body == Formula(q.pred) {
			return q
		}
		return fac.At(q.span).MakeQuantifiedPredicate(q.tag, keep, body.(Predicate))
	case *QuantifiedExpression:
		used := usedDeclarations(q.pred, len(q.decls))
		for i, u := range usedDeclarations(q.expr, len(q.decls)) {
			used[i] = used[i] || u
		}
		if !anyUnused(used) || !anyUsed(used) || q.form == FormLambda {
			// a comprehension set keeps at least one declaration, and the
			// pattern of a lambda mentions them all
			return q
		}
		keep, pred := fac.removeDeclarations(q.decls, q.pred, used)
		_, expr := fac.removeDeclarations(q.decls, q.expr, used)
		form := q.form
		if form == FormImplicit {
			form = FormExplicit
		}
		return fac.At(q.span).MakeQuantifiedExpression(q.tag, keep, pred.(Predicate), expr.(Expression), form)
	}
	return f
}

// usedDeclarations returns, for each of the n declarations of a binder
// whose body is body, whether the body refers to it.
func usedDeclarations(body Formula, n int) []bool {
	used := make([]bool, n)
	for _, b := range body.BoundIdentifiers() {
		if b.index < n {
			used[n-1-b.index] = true
		}
	}
	return used
}

func anyUsed(used []bool) bool {
	for _, u := range used {
		if u {
			return true
		}
	}
	return false
}

func anyUnused(used []bool) bool {
	for _, u := range used {
		if !u {
			return true
		}
	}
	return false
}

// removeDeclarations removes the unused declarations of a binder, and
// renumbers the bound identifiers of body accordingly.
func (fac *Factory) removeDeclarations(decls []*BoundIdentDecl, body Formula, used []bool) ([]*BoundIdentDecl, Formula) {
	if !anyUnused(used) {
		return decls, body
	}
	replacements := make([]Expression, len(decls))
	remove := make([]bool, len(decls))
	var keep []*BoundIdentDecl
	for i, d := range decls {
		if used[i] {
			keep = append(keep, d)
		} else {
			remove[i] = true
		}
	}
	return keep, fac.instantiateBody(body, replacements, remove)
}
