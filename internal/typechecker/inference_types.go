package typechecker

import (
	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/position"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// draft mirrors a formula during inference. typ is the temporary,
// possibly variable-containing, type of an expression; it is nil for
// predicates, assignments and declarations' parents.
type draft struct {
	node     ast.Formula
	typ      types.Type
	children []*draft
}

// InferenceContext is the binder scope of one quantified node.
type InferenceContext struct {
	// Decls holds the temporary type of each declaration, in declaration order.
	Decls []types.Type
}

// ConstraintKind tells which rule required two types to be equal.
type ConstraintKind int

const (
	ConstraintAnnotation ConstraintKind = iota // a node carries its own type
	ConstraintEnvironment
	ConstraintOperand
	ConstraintMember
	ConstraintExpected
	ConstraintAssignment
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintAnnotation:
		return "annotation"
	case ConstraintEnvironment:
		return "environment"
	case ConstraintOperand:
		return "operand"
	case ConstraintMember:
		return "member"
	case ConstraintExpected:
		return "expected"
	case ConstraintAssignment:
		return "assignment"
	default:
		return "unknown"
	}
}

// TypeConstraint records one equation handed to the unifier.
type TypeConstraint struct {
	Kind     ConstraintKind
	Left     types.Type
	Right    types.Type
	Span     position.Span
	Resolved bool
}
