package ast

import (
	set "github.com/hashicorp/go-set/v3"

	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// ====== Leaf mapping ======

// leafMapper rebuilds a formula after replacing some of its leaves. free is
// called on free identifiers and bound on bound identifiers referring
// outside the root, both with the binder depth of the leaf. A nil
// function, or a nil result, keeps the leaf.
type leafMapper struct {
	fac   *Factory
	free  func(id *FreeIdentifier, depth int) Expression
	bound func(b *BoundIdentifier, depth int) Expression
}

func (m *leafMapper) apply(f Formula, depth int) Formula {
	if !m.concerns(f, depth) {
		return f
	}
	switch f := f.(type) {
	case *FreeIdentifier:
		if e := m.free(f, depth); e != nil {
			return e
		}
		return f
	case *BoundIdentifier:
		if e := m.bound(f, depth); e != nil {
			return e
		}
		return f
	}
	children := Children(f)
	rebuilt := make([]Formula, len(children))
	for i, c := range children {
		if isAssignedSlot(f, i) {
			rebuilt[i] = c
			continue
		}
		rebuilt[i] = m.apply(c, depth+BinderSize(f, i))
	}
	result, err := m.fac.WithChildren(f, rebuilt)
	diagnostic.Assert(err == nil, "leaf replacement changed the shape of %s: %v", f, err)
	return result
}

// concerns returns true if some leaf of f may be replaced.
func (m *leafMapper) concerns(f Formula, depth int) bool {
	if m.free != nil && len(f.FreeIdentifiers()) > 0 {
		return true
	}
	if m.bound != nil {
		bound := f.BoundIdentifiers()
		return len(bound) > 0 && bound[len(bound)-1].index >= depth
	}
	return false
}

// ====== Bound identifier arithmetic ======

// ShiftBoundIdentifiers adds offset to the index of every bound identifier
// of f referring outside f. A negative offset must not make an index
// negative.
func (fac *Factory) ShiftBoundIdentifiers(f Formula, offset int) Formula {
	if offset == 0 {
		return f
	}
	m := &leafMapper{fac: fac, bound: func(b *BoundIdentifier, depth int) Expression {
		diagnostic.Assert(b.index+offset >= depth, "shifting %d by %d escapes its binder", b.index, offset)
		return fac.At(b.span).MakeBoundIdentifier(b.index+offset, b.typ)
	}}
	return m.apply(f, 0)
}

func shiftExpr(fac *Factory, e Expression, offset int) Expression {
	return fac.ShiftBoundIdentifiers(e, offset).(Expression)
}

// BindTheseIdentifiers turns the free occurrences of names into bound
// identifiers, as if a binder declaring names, in that order, were placed
// offset binders above each occurrence's enclosing binders. Loose bound
// identifiers that refer beyond those offset binders are shifted by
// len(names) to skip the new binder.
func (fac *Factory) BindTheseIdentifiers(f Formula, names []string, offset int) Formula {
	n := len(names)
	if n == 0 {
		return f
	}
	position := make(map[string]int, n)
	for k, name := range names {
		position[name] = k
	}
	m := &leafMapper{
		fac: fac,
		free: func(id *FreeIdentifier, depth int) Expression {
			k, ok := position[id.name]
			if !ok {
				return nil
			}
			return fac.At(id.span).MakeBoundIdentifier(depth+offset+n-1-k, id.typ)
		},
		bound: func(b *BoundIdentifier, depth int) Expression {
			if b.index-depth < offset {
				return nil
			}
			return fac.At(b.span).MakeBoundIdentifier(b.index+n, b.typ)
		},
	}
	return m.apply(f, 0)
}

// BindAllFreeIdentifiers binds every free identifier of f, returning the
// declarations of the new binder and its body.
func (fac *Factory) BindAllFreeIdentifiers(f Formula) ([]*BoundIdentDecl, Formula) {
	free := f.FreeIdentifiers()
	decls := make([]*BoundIdentDecl, len(free))
	names := make([]string, len(free))
	for i, id := range free {
		decls[i] = fac.At(id.span).AsDeclaration(id)
		names[i] = id.name
	}
	return decls, fac.BindTheseIdentifiers(f, names, 0)
}

// instantiateBody rewrites the body of a binder of len(remove)
// declarations once the removed ones are gone: occurrences of a removed
// declaration become its replacement, shifted past the binders crossed,
// and the other bound identifiers are renumbered.
func (fac *Factory) instantiateBody(body Formula, replacements []Expression, remove []bool) Formula {
	n := len(remove)
	newIndex := make([]int, n)
	kept := 0
	for k := n - 1; k >= 0; k-- {
		if !remove[k] {
			newIndex[k] = kept
			kept++
		}
	}
	m := &leafMapper{fac: fac, bound: func(b *BoundIdentifier, depth int) Expression {
		j := b.index - depth
		if j >= n {
			if kept == n {
				return nil
			}
			return fac.At(b.span).MakeBoundIdentifier(b.index-n+kept, b.typ)
		}
		k := n - 1 - j
		if !remove[k] {
			if newIndex[k] == j {
				return nil
			}
			return fac.At(b.span).MakeBoundIdentifier(depth+newIndex[k], b.typ)
		}
		r := replacements[k]
		diagnostic.Assert(r != nil, "removed declaration %d still occurs", k)
		return shiftExpr(fac, r, depth+kept)
	}}
	return m.apply(body, 0)
}

// Instantiate replaces the declarations of q by the given expressions and
// removes them. replacements has one entry per declaration; a nil entry
// keeps that declaration bound. The replacements are read in the context of
// q itself. When no declaration remains, the body alone is returned.
func (fac *Factory) Instantiate(q *QuantifiedPredicate, replacements []Expression) Predicate {
	diagnostic.Assert(len(replacements) == len(q.decls), "%d replacements for %d declarations", len(replacements), len(q.decls))
	remove := make([]bool, len(q.decls))
	var keep []*BoundIdentDecl
	for k, r := range replacements {
		if r != nil {
			remove[k] = true
		} else {
			keep = append(keep, q.decls[k])
		}
	}
	if len(keep) == len(q.decls) {
		return q
	}
	body := fac.instantiateBody(q.pred, replacements, remove).(Predicate)
	if len(keep) == 0 {
		return body
	}
	return fac.At(q.span).MakeQuantifiedPredicate(q.tag, keep, body)
}

// InstantiateByName is Instantiate with replacements keyed by declared name.
func (fac *Factory) InstantiateByName(q *QuantifiedPredicate, replacements map[string]Expression) Predicate {
	list := make([]Expression, len(q.decls))
	for k, d := range q.decls {
		list[k] = replacements[d.name]
	}
	return fac.Instantiate(q, list)
}

// Substitute replaces free identifiers by expressions. The replacements
// are read in the context of f and shifted past the binders they cross.
func (fac *Factory) Substitute(f Formula, replacements map[string]Expression) Formula {
	if len(replacements) == 0 {
		return f
	}
	m := &leafMapper{fac: fac, free: func(id *FreeIdentifier, depth int) Expression {
		r, ok := replacements[id.name]
		if !ok {
			return nil
		}
		return shiftExpr(fac, r, depth)
	}}
	return m.apply(f, 0)
}

// ====== Fresh identifiers ======

// MakeFreshIdentifiers creates one free identifier per declaration, with
// the declaration's type and a name unused by env and by the given
// formulas. A declaration keeps its name when it is free; otherwise x
// becomes x0, x1, ... and x' becomes x0', x1', ...
func (fac *Factory) MakeFreshIdentifiers(decls []*BoundIdentDecl, env *types.Environment, avoid ...Formula) []*FreeIdentifier {
	used := set.New[string](len(decls) + env.Len())
	for name := range env.All() {
		used.Insert(name)
	}
	for _, f := range avoid {
		used.InsertSlice(FreeIdentifierNames(f))
		used.InsertSlice(DeclaredNames(f))
	}
	result := make([]*FreeIdentifier, len(decls))
	for i, d := range decls {
		name := d.name
		if used.Contains(name) {
			name = freshName(name, used.Contains)
		}
		used.Insert(name)
		result[i] = fac.At(d.span).MakeFreeIdentifier(name, d.typ)
	}
	return result
}
