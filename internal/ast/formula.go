// Package ast defines the term representation of the mathematical language:
// expressions, predicates and assignments.
//
// Every node is immutable. Nodes are only built through a Factory, which
// computes once and for all the caches every node carries: its free
// identifiers, its loose bound identifier occurrences, its structural hash
// and, when the children allow it, its type. Transformations never mutate a
// node; they build new nodes that share untouched subtrees with the original.
//
// Bound identifiers are de Bruijn indices. Inside a binder declaring
// d0, ..., dn-1, index i < n denotes d(n-1-i): the last declared identifier
// is the nearest one and has index 0.
package ast

import (
	"maps"
	"slices"

	"github.com/17451k/rodincore-sub001/internal/position"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// Formula is the base interface of all nodes.
type Formula interface {
	// Tag returns the operator of this node.
	Tag() Tag
	// Span returns the source span this node was parsed from, if any.
	Span() position.Span
	// FreeIdentifiers returns the free identifiers of this formula,
	// deduplicated by name, in first-occurrence order.
	FreeIdentifiers() []*FreeIdentifier
	// BoundIdentifiers returns the bound identifier occurrences that are not
	// declared within this formula, with indices relative to this node,
	// one per index, sorted by index.
	BoundIdentifiers() []*BoundIdentifier
	// IsTypeChecked returns true when every node below carries a resolved,
	// consistent type.
	IsTypeChecked() bool
	// Hash returns the structural hash, consistent with Equal.
	Hash() uint64
	// String returns the canonical printed form.
	String() string

	formulaNode()
}

// Expression represents all expression nodes.
type Expression interface {
	Formula
	// Type returns the resolved type, and false when the node is untyped.
	Type() (types.Type, bool)
	expressionNode()
}

// Predicate represents all predicate nodes.
type Predicate interface {
	Formula
	predicateNode()
}

// Assignment represents all assignment nodes.
type Assignment interface {
	Formula
	// AssignedIdentifiers returns the identifiers on the left-hand side.
	AssignedIdentifiers() []*FreeIdentifier
	assignmentNode()
}

// formulaBase holds the caches shared by every node.
type formulaBase struct {
	tag         Tag
	span        position.Span
	free        []*FreeIdentifier
	bound       []*BoundIdentifier
	typeChecked bool
	hash        uint64
}

func (b *formulaBase) Tag() Tag                              { return b.tag }
func (b *formulaBase) Span() position.Span                   { return b.span }
func (b *formulaBase) FreeIdentifiers() []*FreeIdentifier    { return b.free }
func (b *formulaBase) BoundIdentifiers() []*BoundIdentifier  { return b.bound }
func (b *formulaBase) IsTypeChecked() bool                   { return b.typeChecked }
func (b *formulaBase) Hash() uint64                          { return b.hash }
func (b *formulaBase) formulaNode()                          {}

// exprBase adds the resolved type of an expression.
type exprBase struct {
	formulaBase
	typ types.Type
}

// Type returns the resolved type, and false when the node is untyped.
func (e *exprBase) Type() (types.Type, bool) { return e.typ, e.typ != nil }
func (e *exprBase) expressionNode()          {}

type predBase struct {
	formulaBase
}

func (p *predBase) predicateNode() {}

type assignBase struct {
	formulaBase
}

func (a *assignBase) assignmentNode() {}

// IsClosed returns true if the formula has no loose bound identifier.
func IsClosed(f Formula) bool {
	return len(f.BoundIdentifiers()) == 0
}

// TypeOf returns the type of an expression or declaration, or nil.
func TypeOf(f Formula) types.Type {
	switch f := f.(type) {
	case Expression:
		t, _ := f.Type()
		return t
	case *BoundIdentDecl:
		return f.typ
	}
	return nil
}

// FreeIdentifierNames returns the names of the free identifiers of f.
func FreeIdentifierNames(f Formula) []string {
	free := f.FreeIdentifiers()
	names := make([]string, len(free))
	for i, id := range free {
		names[i] = id.name
	}
	return names
}

// ====== Cache computation ======

// scope accumulates the caches of a node from its children.
type scope struct {
	free       []*FreeIdentifier
	freeByName map[string]*FreeIdentifier
	bound      map[int]*BoundIdentifier
	consistent bool
	typed      bool
}

func newScope() *scope {
	return &scope{consistent: true, typed: true}
}

// add merges the caches of a child. Two occurrences of the same name with
// different types make the node inconsistent, hence untyped.
func (s *scope) add(child Formula) {
	if child == nil {
		return
	}
	if !child.IsTypeChecked() {
		s.typed = false
	}
	for _, id := range child.FreeIdentifiers() {
		s.addFree(id)
	}
	for _, b := range child.BoundIdentifiers() {
		s.addBound(b)
	}
}

func (s *scope) addFree(id *FreeIdentifier) {
	if s.freeByName == nil {
		s.freeByName = make(map[string]*FreeIdentifier)
	}
	if prev, ok := s.freeByName[id.name]; ok {
		if !types.Equal(prev.typ, id.typ) {
			s.consistent = false
		}
		return
	}
	s.freeByName[id.name] = id
	s.free = append(s.free, id)
}

func (s *scope) addBound(b *BoundIdentifier) {
	if s.bound == nil {
		s.bound = make(map[int]*BoundIdentifier)
	}
	if prev, ok := s.bound[b.index]; ok {
		if !types.Equal(prev.typ, b.typ) {
			s.consistent = false
		}
		return
	}
	s.bound[b.index] = b
}

// declare resolves the occurrences of the n innermost indices against decls
// and keeps the others, shifted down by n.
func (s *scope) declare(decls []*BoundIdentDecl) {
	n := len(decls)
	for _, d := range decls {
		if d.typ == nil {
			s.typed = false
		}
	}
	if len(s.bound) == 0 {
		return
	}
	outer := make(map[int]*BoundIdentifier, len(s.bound))
	for idx, b := range s.bound {
		if idx < n {
			if !types.Equal(decls[n-1-idx].typ, b.typ) {
				s.consistent = false
			}
			continue
		}
		outer[idx-n] = &BoundIdentifier{
			exprBase: exprBase{
				formulaBase: formulaBase{
					tag:         TagBoundIdent,
					span:        b.span,
					typeChecked: b.typ != nil,
					hash:        boundHash(idx-n, b.typ),
				},
				typ: b.typ,
			},
			index: idx - n,
		}
		outer[idx-n].bound = []*BoundIdentifier{outer[idx-n]}
	}
	s.bound = outer
}

func (s *scope) boundList() []*BoundIdentifier {
	if len(s.bound) == 0 {
		return nil
	}
	result := make([]*BoundIdentifier, 0, len(s.bound))
	for _, idx := range slices.Sorted(maps.Keys(s.bound)) {
		result = append(result, s.bound[idx])
	}
	return result
}

// fill stores the caches into a node header.
func (s *scope) fill(b *formulaBase, tag Tag, span position.Span, hash uint64) {
	b.tag = tag
	b.span = span
	b.free = s.free
	b.bound = s.boundList()
	b.typeChecked = s.typed && s.consistent
	b.hash = hash
}

// fillExpr stores the caches and the type of an expression. The type is
// dropped when some child is untyped or the children disagree.
func (s *scope) fillExpr(e *exprBase, tag Tag, span position.Span, typ types.Type, hash uint64) {
	if !s.ok() {
		typ = nil
	}
	s.fill(&e.formulaBase, tag, span, hash)
	e.typ = typ
	e.typeChecked = e.typeChecked && typ != nil
}

func (s *scope) ok() bool { return s.typed && s.consistent }

// merge adds the caches accumulated by an inner scope.
func (s *scope) merge(inner *scope) {
	s.typed = s.typed && inner.typed
	s.consistent = s.consistent && inner.consistent
	for _, id := range inner.free {
		s.addFree(id)
	}
	for _, b := range inner.boundList() {
		s.addBound(b)
	}
}
