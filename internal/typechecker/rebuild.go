package typechecker

import (
	"fmt"
	"strconv"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// resolveLeaves checks that every leaf of d whose type comes from
// inference has a fully resolved type. It reports TypeUnknown once per free
// name or loose bound index, and once per declaration or generic constant.
// depth is the number of binders enclosing d.
func (tie *TypeInferenceEngine) resolveLeaves(d *draft, depth int, reported map[string]bool) {
	if _, ok := tie.unifier.Resolve(d.typ); !ok {
		var key string
		switch n := d.node.(type) {
		case *ast.FreeIdentifier:
			key = "free " + n.Name()
		case *ast.BoundIdentifier:
			if n.Index() >= depth {
				key = "loose " + strconv.Itoa(n.Index()-depth)
			}
		case *ast.BoundIdentDecl, *ast.AtomicExpression:
			key = fmt.Sprintf("%p", n)
		}
		if key != "" && !reported[key] {
			reported[key] = true
			tie.problems.Add(diagnostic.New(diagnostic.TypeUnknown, d.node.Span(), d.node.String()))
		}
	}
	for i, c := range d.children {
		tie.resolveLeaves(c, depth+ast.BinderSize(d.node, i), reported)
	}
}

// rebuild returns the formula of d with every leaf carrying its resolved
// type. Types of inner nodes are synthesized by the factory.
func (tie *TypeInferenceEngine) rebuild(fac *ast.Factory, d *draft) ast.Formula {
	at := fac.At(d.node.Span())
	switch n := d.node.(type) {
	case *ast.FreeIdentifier:
		t := tie.resolved(d)
		if own, ok := n.Type(); ok && types.Equal(own, t) {
			return n
		}
		return at.MakeFreeIdentifier(n.Name(), t)
	case *ast.BoundIdentifier:
		t := tie.resolved(d)
		if own, ok := n.Type(); ok && types.Equal(own, t) {
			return n
		}
		return at.MakeBoundIdentifier(n.Index(), t)
	case *ast.BoundIdentDecl:
		t := tie.resolved(d)
		if own, ok := n.Type(); ok && types.Equal(own, t) {
			return n
		}
		return at.MakeBoundIdentDecl(n.Name(), t)
	case *ast.AtomicExpression:
		if n.IsTypeChecked() {
			return n
		}
		return at.MakeAtomicExpression(n.Tag(), tie.resolved(d))
	case *ast.IntegerLiteral:
		return n
	}
	children := make([]ast.Formula, len(d.children))
	for i, c := range d.children {
		children[i] = tie.rebuild(fac, c)
	}
	result, err := fac.WithChildren(d.node, children)
	diagnostic.Assert(err == nil, "rebuilding %s with resolved types: %v", d.node, err)
	return result
}

func (tie *TypeInferenceEngine) resolved(d *draft) types.Type {
	t, ok := tie.unifier.Resolve(d.typ)
	diagnostic.Assert(ok, "type of %s is not resolved", d.node)
	return t
}
