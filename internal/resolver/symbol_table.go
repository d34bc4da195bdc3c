package resolver

import (
	set "github.com/hashicorp/go-set/v3"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/position"
)

// SymbolKind represents the kind of name occurring in a formula.
type SymbolKind int

const (
	SymbolKindFree SymbolKind = iota
	SymbolKindBound
)

// String returns the string representation of SymbolKind.
func (sk SymbolKind) String() string {
	switch sk {
	case SymbolKindFree:
		return "free"
	case SymbolKindBound:
		return "bound"
	default:
		return "unknown"
	}
}

// Symbol is one occurrence of a name: a free identifier or a declaration.
type Symbol struct {
	Name string
	Kind SymbolKind
	Span position.Span
	Node ast.Formula
}

// SymbolTable indexes the names of one formula.
type SymbolTable struct {
	free     []Symbol
	bound    []Symbol
	freeSet  *set.Set[string]
	boundSet *set.Set[string]
}

// NewSymbolTable collects every free identifier occurrence and every
// declaration of f.
func NewSymbolTable(f ast.Formula) *SymbolTable {
	st := &SymbolTable{
		freeSet:  set.New[string](len(f.FreeIdentifiers())),
		boundSet: set.New[string](4),
	}
	ast.Inspect(f, func(node ast.Formula, _ int) bool {
		switch node := node.(type) {
		case *ast.FreeIdentifier:
			st.free = append(st.free, Symbol{Name: node.Name(), Kind: SymbolKindFree, Span: node.Span(), Node: node})
			st.freeSet.Insert(node.Name())
		case *ast.BoundIdentDecl:
			st.bound = append(st.bound, Symbol{Name: node.Name(), Kind: SymbolKindBound, Span: node.Span(), Node: node})
			st.boundSet.Insert(node.Name())
		}
		return true
	})
	return st
}

// FreeOccurrences returns the free identifier occurrences, in tree order.
func (st *SymbolTable) FreeOccurrences() []Symbol { return st.free }

// Declarations returns the declarations, in tree order.
func (st *SymbolTable) Declarations() []Symbol { return st.bound }

// IsFree returns true if name occurs free.
func (st *SymbolTable) IsFree(name string) bool { return st.freeSet.Contains(name) }

// IsBound returns true if name is declared somewhere.
func (st *SymbolTable) IsBound(name string) bool { return st.boundSet.Contains(name) }

// Clashes returns the names that are both free and bound, sorted.
func (st *SymbolTable) Clashes() []string {
	clash := st.freeSet.Intersect(st.boundSet)
	return set.Sorted(clash)
}
