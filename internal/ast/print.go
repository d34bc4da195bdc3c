package ast

import (
	"strconv"
	"strings"

	set "github.com/hashicorp/go-set/v3"

	"github.com/17451k/rodincore-sub001/internal/types"
)

// PrintOptions selects the printed form of a formula.
type PrintOptions struct {
	// WithTypes decorates free identifiers, declarations and generic
	// constants with their type, as in x⦂ℤ or ∅⦂ℙ(S).
	WithTypes bool
	// FullyParenthesized wraps every non-atomic operand in parentheses.
	FullyParenthesized bool
}

// ToString returns the canonical form of f, with as few parentheses as the
// operator priorities allow.
func ToString(f Formula) string {
	return Print(f, PrintOptions{})
}

// ToStringWithTypes returns the canonical form of f with type annotations.
func ToStringWithTypes(f Formula) string {
	return Print(f, PrintOptions{WithTypes: true})
}

// ToStringFullyParenthesized returns f with every operand parenthesized.
func ToStringFullyParenthesized(f Formula) string {
	return Print(f, PrintOptions{FullyParenthesized: true})
}

// Print renders f. Bound identifiers whose declared name clashes with a
// free identifier or an enclosing declaration are renamed, so the result
// always parses back to f.
func Print(f Formula, opts PrintOptions) string {
	p := &printer{opts: opts, used: set.New[string](8)}
	for _, id := range f.FreeIdentifiers() {
		p.used.Insert(id.name)
	}
	p.formula(f)
	return p.sb.String()
}

// Priorities of expressions; a higher value binds tighter.
const (
	levelQuantified = iota
	levelMapsto
	levelRelation
	levelSet
	levelUpTo
	levelAdditive
	levelMultiplicative
	levelExpn
	levelUnary
	levelPostfix
	levelAtom
)

// Priorities of predicates.
const (
	predQuantified = iota
	predBinary
	predAssociative
	predNot
	predAtom
)

type printer struct {
	sb    strings.Builder
	opts  PrintOptions
	names []string
	used  *set.Set[string]
}

func (p *printer) write(s string) { p.sb.WriteString(s) }

func (p *printer) formula(f Formula) {
	switch f := f.(type) {
	case Expression:
		p.expr(f)
	case Predicate:
		p.pred(f)
	case Assignment:
		p.assignment(f)
	case *BoundIdentDecl:
		p.decl(f, f.name)
	}
}

// ====== Expressions ======

// ExpressionLevel returns the priority of the top operator of e.
func ExpressionLevel(e Expression) int {
	switch e := e.(type) {
	case *QuantifiedExpression:
		if e.tag == TagCSet && e.form != FormLambda {
			return levelAtom
		}
		return levelQuantified
	case *BinaryExpression:
		return binaryLevel(e.tag)
	case *AssociativeExpression:
		switch e.tag {
		case TagPlus:
			return levelAdditive
		case TagMul:
			return levelMultiplicative
		}
		return levelSet
	case *UnaryExpression:
		switch e.tag {
		case TagUnMinus:
			return levelUnary
		case TagConverse:
			return levelPostfix
		}
		return levelAtom
	case *IntegerLiteral:
		if e.value.Sign() < 0 {
			return levelUnary
		}
	}
	return levelAtom
}

func binaryLevel(tag Tag) int {
	switch {
	case tag == TagMapsto:
		return levelMapsto
	case tag.IsRelationConstructor():
		return levelRelation
	case tag == TagUpTo:
		return levelUpTo
	case tag == TagMinus:
		return levelAdditive
	case tag == TagDiv || tag == TagMod:
		return levelMultiplicative
	case tag == TagExpn:
		return levelExpn
	case tag == TagFunImage || tag == TagRelImage:
		return levelPostfix
	}
	return levelSet
}

func isAtomic(f Formula) bool {
	switch f := f.(type) {
	case *FreeIdentifier, *BoundIdentifier, *AtomicExpression, *LiteralPredicate:
		return true
	case *IntegerLiteral:
		return f.value.Sign() >= 0
	}
	return false
}

// operand prints e, parenthesized when its priority is below min.
func (p *printer) operand(e Expression, min int) {
	if ExpressionLevel(e) < min || (p.opts.FullyParenthesized && !isAtomic(e)) {
		p.write("(")
		p.expr(e)
		p.write(")")
		return
	}
	p.expr(e)
}

func (p *printer) expr(e Expression) {
	switch e := e.(type) {
	case *IntegerLiteral:
		p.literal(e)
	case *FreeIdentifier:
		p.write(e.name)
		p.typeSuffix(e.typ)
	case *BoundIdentifier:
		p.write(p.boundName(e.index))
	case *AtomicExpression:
		p.write(e.tag.Symbol())
		if e.tag.IsGenericAtomic() {
			p.typeSuffix(e.typ)
		}
	case *BinaryExpression:
		p.binary(e)
	case *AssociativeExpression:
		p.associative(e)
	case *UnaryExpression:
		p.unary(e)
	case *BoolExpression:
		p.write("bool(")
		p.pred(e.pred)
		p.write(")")
	case *SetExtension:
		p.write("{")
		for i, m := range e.members {
			if i > 0 {
				p.write(", ")
			}
			p.operand(m, levelMapsto)
		}
		p.write("}")
	case *QuantifiedExpression:
		p.quantifiedExpression(e)
	}
}

func (p *printer) literal(e *IntegerLiteral) {
	s := e.value.String()
	if strings.HasPrefix(s, "-") {
		s = "−" + s[1:]
	}
	p.write(s)
}

func (p *printer) typeSuffix(t types.Type) {
	if !p.opts.WithTypes || t == nil {
		return
	}
	p.write("⦂")
	if t.Kind() == types.KindProduct {
		p.write("(" + t.String() + ")")
		return
	}
	p.write(t.String())
}

func (p *printer) binary(e *BinaryExpression) {
	switch e.tag {
	case TagFunImage:
		p.operand(e.left, levelPostfix)
		p.write("(")
		p.expr(e.right)
		p.write(")")
		return
	case TagRelImage:
		p.operand(e.left, levelPostfix)
		p.write("[")
		p.expr(e.right)
		p.write("]")
		return
	}
	level := binaryLevel(e.tag)
	left, right := level+1, level+1
	switch e.tag {
	case TagMapsto, TagMinus, TagDiv, TagMod:
		// left associative
		left = level
	case TagCProd:
		if e.left.Tag() == TagCProd {
			left = level
		}
	case TagExpn:
		left = levelPostfix
	}
	p.operand(e.left, left)
	p.write(" " + e.tag.Symbol() + " ")
	p.operand(e.right, right)
}

func (p *printer) associative(e *AssociativeExpression) {
	level := ExpressionLevel(e)
	for i, c := range e.children {
		if i > 0 {
			p.write(" " + e.tag.Symbol() + " ")
		}
		min := level + 1
		// a − b + c and a ÷ b ∗ c read left to right
		if i == 0 && (e.tag == TagPlus && c.Tag() == TagMinus ||
			e.tag == TagMul && (c.Tag() == TagDiv || c.Tag() == TagMod)) {
			min = level
		}
		p.operand(c, min)
	}
}

func (p *printer) unary(e *UnaryExpression) {
	switch e.tag {
	case TagUnMinus:
		p.write("−")
		if lit, ok := e.child.(*IntegerLiteral); ok {
			p.write("(")
			p.literal(lit)
			p.write(")")
			return
		}
		p.operand(e.child, levelPostfix)
	case TagConverse:
		p.operand(e.child, levelPostfix)
		p.write("∼")
	default:
		p.write(e.tag.Symbol() + "(")
		p.expr(e.child)
		p.write(")")
	}
}

func (p *printer) quantifiedExpression(e *QuantifiedExpression) {
	switch {
	case e.tag == TagCSet && e.form == FormImplicit && p.canPrintImplicit(e):
		names := p.enter(e.decls)
		p.write("{")
		p.operand(e.expr, levelMapsto)
		p.write(" ∣ ")
		p.pred(e.pred)
		p.write("}")
		p.leave(names)
	case e.tag == TagCSet && e.form == FormLambda && IsLambdaPattern(e):
		names := p.enter(e.decls)
		maplet := e.expr.(*BinaryExpression)
		p.write("λ")
		p.pattern(maplet.left, true)
		p.write("·")
		p.pred(e.pred)
		p.write(" ∣ ")
		p.operand(maplet.right, levelMapsto)
		p.leave(names)
	case e.tag == TagCSet:
		names := p.enter(e.decls)
		p.write("{")
		p.declList(e.decls, names)
		p.write("·")
		p.pred(e.pred)
		p.write(" ∣ ")
		p.operand(e.expr, levelMapsto)
		p.write("}")
		p.leave(names)
	default:
		names := p.enter(e.decls)
		p.write(e.tag.Symbol())
		p.declList(e.decls, names)
		p.write("·")
		p.pred(e.pred)
		p.write(" ∣ ")
		p.operand(e.expr, levelMapsto)
		p.leave(names)
	}
}

// canPrintImplicit returns true when {E ∣ P} parses back to e: E mentions
// no free identifier and its bound identifiers appear in declaration order.
func (p *printer) canPrintImplicit(e *QuantifiedExpression) bool {
	if len(e.expr.FreeIdentifiers()) != 0 {
		return false
	}
	n := len(e.decls)
	order := boundOccurrenceOrder(e.expr, n)
	if len(order) != n {
		return false
	}
	for k, idx := range order {
		if idx != n-1-k {
			return false
		}
	}
	return true
}

// boundOccurrenceOrder lists the distinct indices below n bound at the
// root of e, in first-occurrence order.
func boundOccurrenceOrder(e Formula, n int) []int {
	var order []int
	seen := set.New[int](n)
	var walk func(f Formula, depth int)
	walk = func(f Formula, depth int) {
		if b, ok := f.(*BoundIdentifier); ok {
			idx := b.index - depth
			if idx >= 0 && idx < n && seen.Insert(idx) {
				order = append(order, idx)
			}
			return
		}
		for i, c := range Children(f) {
			walk(c, depth+BinderSize(f, i))
		}
	}
	walk(e, 0)
	return order
}

// IsLambdaPattern returns true if the expression of a comprehension set is
// a maplet whose left side is a pattern made of exactly its declarations,
// in order.
func IsLambdaPattern(e *QuantifiedExpression) bool {
	maplet, ok := e.expr.(*BinaryExpression)
	if !ok || maplet.tag != TagMapsto {
		return false
	}
	var leaves []int
	var collect func(Expression) bool
	collect = func(x Expression) bool {
		switch x := x.(type) {
		case *BoundIdentifier:
			leaves = append(leaves, x.index)
			return true
		case *BinaryExpression:
			return x.tag == TagMapsto && collect(x.left) && collect(x.right)
		}
		return false
	}
	if !collect(maplet.left) || len(leaves) != len(e.decls) {
		return false
	}
	n := len(e.decls)
	for k, idx := range leaves {
		if idx != n-1-k {
			return false
		}
	}
	return true
}

func (p *printer) pattern(e Expression, top bool) {
	switch e := e.(type) {
	case *BoundIdentifier:
		decl := len(p.names) - 1 - e.index
		p.write(p.names[decl])
		if p.opts.WithTypes {
			p.typeSuffix(e.typ)
		}
	case *BinaryExpression:
		if !top {
			p.write("(")
		}
		p.pattern(e.left, e.left.Tag() == TagMapsto)
		p.write(" ↦ ")
		p.pattern(e.right, false)
		if !top {
			p.write(")")
		}
	}
}

// ====== Bound identifiers ======

// enter pushes the names of decls, renaming those already in use.
func (p *printer) enter(decls []*BoundIdentDecl) []string {
	names := make([]string, len(decls))
	for i, d := range decls {
		name := d.name
		if p.used.Contains(name) {
			name = freshName(name, p.used.Contains)
		}
		p.used.Insert(name)
		names[i] = name
		p.names = append(p.names, name)
	}
	return names
}

func (p *printer) leave(names []string) {
	p.names = p.names[:len(p.names)-len(names)]
	for _, name := range names {
		p.used.Remove(name)
	}
}

func (p *printer) boundName(index int) string {
	if index < len(p.names) {
		return p.names[len(p.names)-1-index]
	}
	return "[[" + strconv.Itoa(index) + "]]"
}

func (p *printer) declList(decls []*BoundIdentDecl, names []string) {
	for i, d := range decls {
		if i > 0 {
			p.write(", ")
		}
		p.decl(d, names[i])
	}
}

func (p *printer) decl(d *BoundIdentDecl, name string) {
	p.write(name)
	p.typeSuffix(d.typ)
}

// freshName derives from name a variant rejected by neither used nor the
// prime convention: x becomes x0, x1, ... and x' becomes x0', x1', ...
func freshName(name string, used func(string) bool) string {
	base, primed := strings.CutSuffix(name, "'")
	suffix := ""
	if primed {
		suffix = "'"
	}
	for i := 0; ; i++ {
		candidate := base + strconv.Itoa(i) + suffix
		if !used(candidate) {
			return candidate
		}
	}
}

// ====== Predicates ======

// PredicateLevel returns the priority of the top operator of pred.
func PredicateLevel(pred Predicate) int {
	switch pred.(type) {
	case *QuantifiedPredicate:
		return predQuantified
	case *BinaryPredicate:
		return predBinary
	case *AssociativePredicate:
		return predAssociative
	case *UnaryPredicate:
		return predNot
	}
	return predAtom
}

func (p *printer) predOperand(pred Predicate, min int) {
	if PredicateLevel(pred) < min || (p.opts.FullyParenthesized && !isAtomic(pred)) {
		p.write("(")
		p.pred(pred)
		p.write(")")
		return
	}
	p.pred(pred)
}

func (p *printer) pred(pred Predicate) {
	switch pred := pred.(type) {
	case *LiteralPredicate:
		p.write(pred.tag.Symbol())
	case *AssociativePredicate:
		for i, c := range pred.children {
			if i > 0 {
				p.write(" " + pred.tag.Symbol() + " ")
			}
			p.predOperand(c, predNot)
		}
	case *BinaryPredicate:
		p.predOperand(pred.left, predAssociative)
		p.write(" " + pred.tag.Symbol() + " ")
		p.predOperand(pred.right, predAssociative)
	case *UnaryPredicate:
		p.write("¬")
		p.predOperand(pred.child, predNot)
	case *QuantifiedPredicate:
		names := p.enter(pred.decls)
		p.write(pred.tag.Symbol())
		p.declList(pred.decls, names)
		p.write("·")
		p.pred(pred.pred)
		p.leave(names)
	case *RelationalPredicate:
		p.operand(pred.left, levelMapsto)
		p.write(" " + pred.tag.Symbol() + " ")
		p.operand(pred.right, levelMapsto)
	case *SimplePredicate:
		p.write(pred.tag.Symbol() + "(")
		p.expr(pred.expr)
		p.write(")")
	case *MultiplePredicate:
		p.write(pred.tag.Symbol() + "(")
		for i, c := range pred.children {
			if i > 0 {
				p.write(", ")
			}
			p.operand(c, levelMapsto)
		}
		p.write(")")
	}
}

// ====== Assignments ======

func (p *printer) assignment(a Assignment) {
	switch a := a.(type) {
	case *BecomesEqualTo:
		p.identList(a.idents)
		p.write(" ≔ ")
		for i, v := range a.values {
			if i > 0 {
				p.write(", ")
			}
			p.operand(v, levelMapsto)
		}
	case *BecomesMemberOf:
		p.identList([]*FreeIdentifier{a.ident})
		p.write(" :∈ ")
		p.operand(a.set, levelMapsto)
	case *BecomesSuchThat:
		p.identList(a.idents)
		p.write(" :∣ ")
		// the after-values are always written x'
		names := make([]string, len(a.idents))
		for i, id := range a.idents {
			names[i] = id.name + "'"
		}
		p.names = append(p.names, names...)
		p.pred(a.condition)
		p.names = p.names[:len(p.names)-len(names)]
	}
}

func (p *printer) identList(idents []*FreeIdentifier) {
	for i, id := range idents {
		if i > 0 {
			p.write(", ")
		}
		p.write(id.name)
		p.typeSuffix(id.typ)
	}
}
