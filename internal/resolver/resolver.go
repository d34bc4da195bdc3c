// Scope resolution for formulas.
// The resolver checks that the names of a formula can be told apart once it
// is printed (legibility) and that every bound identifier refers to one of
// the declarations enclosing it (well-formedness).

package resolver

import (
	"strconv"

	set "github.com/hashicorp/go-set/v3"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// Resolver checks the scoping of formulas.
type Resolver struct {
	// Resolution state
	resolutionStack []ResolutionContext
	problems        diagnostic.List

	// Configuration
	config ResolverConfig
}

// ResolutionContext is one binder entered during resolution.
type ResolutionContext struct {
	Kind   ContextKind
	Node   ast.Formula
	Decls  []*ast.BoundIdentDecl
	Names  *set.Set[string]
	Offset int // declarations of the enclosing contexts
}

// ContextKind represents the kind of binder of a resolution context.
type ContextKind int

const (
	ContextKindRoot ContextKind = iota
	ContextKindQuantifier
	ContextKindComprehension
	ContextKindAssignment
)

func (k ContextKind) String() string {
	switch k {
	case ContextKindRoot:
		return "root"
	case ContextKindQuantifier:
		return "quantifier"
	case ContextKindComprehension:
		return "comprehension"
	case ContextKindAssignment:
		return "assignment"
	default:
		return "unknown"
	}
}

// ResolverConfig contains resolver configuration.
type ResolverConfig struct {
	// AllowShadowing accepts a declaration hiding a declaration of the same
	// name in an enclosing binder.
	AllowShadowing bool
	// StopAtFirst ends a check at its first problem.
	StopAtFirst bool
	// CheckTypes makes well-formedness also require that a typed bound
	// identifier has the type of its declaration.
	CheckTypes bool
}

// DefaultConfig returns the configuration used by the package functions.
func DefaultConfig() ResolverConfig {
	return ResolverConfig{CheckTypes: true}
}

// NewResolver creates a new resolver.
func NewResolver(config ResolverConfig) *Resolver {
	return &Resolver{config: config}
}

// Result aggregates the problems found by one check.
type Result struct {
	Problems diagnostic.List
}

// IsSuccess returns true if no problem was found.
func (r *Result) IsSuccess() bool { return !r.Problems.HasErrors() }

// Err returns the problems as an error, or nil.
func (r *Result) Err() error { return r.Problems.Err() }

// CheckLegibility reports every identifier that occurs both free and bound
// in f, at each of its free occurrences and each of its declarations, and
// every declaration clashing with another one of the same binder or, unless
// shadowing is allowed, of an enclosing binder.
func (r *Resolver) CheckLegibility(f ast.Formula) *Result {
	r.reset()
	st := NewSymbolTable(f)
	for _, name := range st.Clashes() {
		for _, sym := range st.FreeOccurrences() {
			if sym.Name == name && r.report(diagnostic.New(diagnostic.FreeIdentifierHasBoundOccurrences, sym.Span, name)) {
				return r.result()
			}
		}
		for _, sym := range st.Declarations() {
			if sym.Name == name && r.report(diagnostic.New(diagnostic.BoundIdentifierHasFreeOccurrences, sym.Span, name)) {
				return r.result()
			}
		}
	}
	r.resolveDeclarations(f)
	return r.result()
}

// resolveDeclarations walks the binders of f looking for clashing
// declarations. It returns false once the check must stop.
func (r *Resolver) resolveDeclarations(f ast.Formula) bool {
	decls := ast.Declarations(f)
	if len(decls) > 0 {
		names := set.New[string](len(decls))
		for _, d := range decls {
			if names.Contains(d.Name()) || (!r.config.AllowShadowing && r.isDeclared(d.Name())) {
				if r.report(diagnostic.New(diagnostic.DuplicateIdentifier, d.Span(), d.Name())) {
					return false
				}
			}
			names.Insert(d.Name())
		}
		r.pushContext(ResolutionContext{Kind: contextKind(f), Node: f, Decls: decls, Names: names})
		defer r.popContext()
	}
	for _, c := range ast.Children(f) {
		if !r.resolveDeclarations(c) {
			return false
		}
	}
	return true
}

// CheckWellFormed reports every bound identifier of f whose index does not
// resolve to an enclosing declaration. depth is the number of binders
// enclosing f itself; it is zero for a whole formula.
func (r *Resolver) CheckWellFormed(f ast.Formula, depth int) *Result {
	r.reset()
	r.resolveIndices(f, depth)
	return r.result()
}

func (r *Resolver) resolveIndices(f ast.Formula, outer int) bool {
	if b, ok := f.(*ast.BoundIdentifier); ok {
		return r.resolveIndex(b, outer)
	}
	children := ast.Children(f)
	for i, c := range children {
		entered := ast.BinderSize(f, i) > 0
		if entered {
			r.pushContext(ResolutionContext{Kind: contextKind(f), Node: f, Decls: ast.Declarations(f)})
		}
		ok := r.resolveIndices(c, outer)
		if entered {
			r.popContext()
		}
		if !ok {
			return false
		}
	}
	return true
}

func (r *Resolver) resolveIndex(b *ast.BoundIdentifier, outer int) bool {
	depth := r.depth()
	if b.Index() >= depth+outer {
		return !r.report(diagnostic.New(diagnostic.BoundIdentifierIndexOutOfBounds, b.Span(),
			strconv.Itoa(b.Index()), strconv.Itoa(depth+outer)))
	}
	typ, typed := b.Type()
	if !r.config.CheckTypes || b.Index() >= depth || !typed {
		return true
	}
	decl := r.declarationOf(b.Index())
	if declared, ok := decl.Type(); ok && !types.Equal(declared, typ) {
		return !r.report(diagnostic.New(diagnostic.TypesDoNotMatch, b.Span(), declared.String(), typ.String()))
	}
	return true
}

// declarationOf returns the declaration a bound index refers to, counting
// from the innermost context.
func (r *Resolver) declarationOf(index int) *ast.BoundIdentDecl {
	for i := len(r.resolutionStack) - 1; i >= 0; i-- {
		ctx := r.resolutionStack[i]
		n := len(ctx.Decls)
		if index < n {
			return ctx.Decls[n-1-index]
		}
		index -= n
	}
	return nil
}

func (r *Resolver) depth() int {
	if len(r.resolutionStack) == 0 {
		return 0
	}
	top := r.resolutionStack[len(r.resolutionStack)-1]
	return top.Offset + len(top.Decls)
}

func (r *Resolver) isDeclared(name string) bool {
	for _, ctx := range r.resolutionStack {
		if ctx.Names != nil && ctx.Names.Contains(name) {
			return true
		}
	}
	return false
}

// report records d and returns true if the check must stop.
func (r *Resolver) report(d *diagnostic.Diagnostic) bool {
	r.problems.Add(d)
	return r.config.StopAtFirst
}

func (r *Resolver) reset() {
	r.resolutionStack = r.resolutionStack[:0]
	r.problems = nil
}

func (r *Resolver) result() *Result {
	return &Result{Problems: r.problems}
}

// pushContext pushes a new resolution context.
func (r *Resolver) pushContext(ctx ResolutionContext) {
	ctx.Offset = r.depth()
	r.resolutionStack = append(r.resolutionStack, ctx)
}

// popContext pops the current resolution context.
func (r *Resolver) popContext() {
	if len(r.resolutionStack) > 0 {
		r.resolutionStack = r.resolutionStack[:len(r.resolutionStack)-1]
	}
}

func contextKind(f ast.Formula) ContextKind {
	switch f.(type) {
	case *ast.QuantifiedPredicate:
		return ContextKindQuantifier
	case *ast.QuantifiedExpression:
		return ContextKindComprehension
	case *ast.BecomesSuchThat:
		return ContextKindAssignment
	}
	return ContextKindRoot
}

// CheckLegibility checks f with the default configuration.
func CheckLegibility(f ast.Formula) *Result {
	return NewResolver(DefaultConfig()).CheckLegibility(f)
}

// CheckWellFormed checks a whole formula with the default configuration.
func CheckWellFormed(f ast.Formula) *Result {
	return NewResolver(DefaultConfig()).CheckWellFormed(f, 0)
}

// IsLegible returns true if f passes the legibility check.
func IsLegible(f ast.Formula) bool { return CheckLegibility(f).IsSuccess() }

// IsWellFormed returns true if every bound identifier of f resolves.
func IsWellFormed(f ast.Formula) bool { return CheckWellFormed(f).IsSuccess() }
