package ast

import (
	"fmt"
	"math/big"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/lo"

	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/position"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// Language versions understood by the factory.
var (
	Version1 = semver.MustParse("1.0.0")
	Version2 = semver.MustParse("2.0.0")
)

var featureConstraints = map[LanguageFeature]*semver.Constraints{
	FeaturePartition:       mustConstraint(">= 2.0.0"),
	FeatureGenericOperator: mustConstraint(">= 2.0.0"),
}

var supportedVersions = mustConstraint(">= 1.0.0, < 3.0.0")

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// ParseVersion parses a language version such as "2" or "1.0.0".
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid language version %q: %w", s, err)
	}
	if !supportedVersions.Check(v) {
		return nil, fmt.Errorf("unsupported language version %s", v)
	}
	return v, nil
}

// FactoryConfig configures a Factory.
type FactoryConfig struct {
	// Version is the language version; nil means Version2.
	Version *semver.Version
}

// Factory builds formula nodes. It is the only way to create nodes, and it
// checks the structural preconditions of every constructor. Violations are
// programming errors and panic with a *diagnostic.Invariant.
//
// A Factory is immutable and safe for concurrent use.
type Factory struct {
	version *semver.Version
	span    position.Span
}

// NewFactory creates a factory for the configured language version.
func NewFactory(config FactoryConfig) *Factory {
	v := config.Version
	if v == nil {
		v = Version2
	}
	diagnostic.Assert(supportedVersions.Check(v), "unsupported language version %s", v)
	return &Factory{version: v}
}

// DefaultFactory returns a factory for the latest language version.
func DefaultFactory() *Factory {
	return NewFactory(FactoryConfig{})
}

// Version returns the language version of this factory.
func (f *Factory) Version() *semver.Version { return f.version }

// At returns a factory that attaches span to every node it builds.
func (f *Factory) At(span position.Span) *Factory {
	return &Factory{version: f.version, span: span}
}

// Supports returns true if the language version provides feature.
func (f *Factory) Supports(feature LanguageFeature) bool {
	c, ok := featureConstraints[feature]
	return !ok || c.Check(f.version)
}

// SupportsTag returns true if the language version provides tag.
func (f *Factory) SupportsTag(tag Tag) bool {
	feature, gated := tag.Feature()
	return !gated || f.Supports(feature)
}

func (f *Factory) checkTag(tag Tag, family Family) {
	diagnostic.Assert(tag.Is(family), "tag %s cannot build a node of this kind", tag)
	diagnostic.Assert(f.SupportsTag(tag), "tag %s is not available in language version %s", tag, f.version)
}

// ====== Leaves ======

// MakeIntegerLiteral builds an integer literal.
func (f *Factory) MakeIntegerLiteral(value *big.Int) *IntegerLiteral {
	diagnostic.Assert(value != nil, "integer literal without value")
	e := &IntegerLiteral{value: new(big.Int).Set(value)}
	s := newScope()
	s.fillExpr(&e.exprBase, TagIntLit, f.span, types.Integer, literalHash(e.value, types.Integer))
	return e
}

// MakeInt builds an integer literal from a machine integer.
func (f *Factory) MakeInt(value int64) *IntegerLiteral {
	return f.MakeIntegerLiteral(big.NewInt(value))
}

// MakeFreeIdentifier builds a free identifier. typ may be nil.
func (f *Factory) MakeFreeIdentifier(name string, typ types.Type) *FreeIdentifier {
	diagnostic.Assert(name != "", "identifier without a name")
	diagnostic.Assert(typ == nil || typ.IsSolved(), "identifier %s with unresolved type %s", name, typ)
	e := &FreeIdentifier{name: name}
	e.tag = TagFreeIdent
	e.span = f.span
	e.free = []*FreeIdentifier{e}
	e.typ = typ
	e.typeChecked = typ != nil
	e.hash = freeHash(name, typ)
	return e
}

// MakeBoundIdentifier builds a bound identifier with a de Bruijn index.
func (f *Factory) MakeBoundIdentifier(index int, typ types.Type) *BoundIdentifier {
	diagnostic.Assert(index >= 0, "negative de Bruijn index %d", index)
	diagnostic.Assert(typ == nil || typ.IsSolved(), "bound identifier with unresolved type %s", typ)
	e := &BoundIdentifier{index: index}
	e.tag = TagBoundIdent
	e.span = f.span
	e.bound = []*BoundIdentifier{e}
	e.typ = typ
	e.typeChecked = typ != nil
	e.hash = boundHash(index, typ)
	return e
}

// MakeBoundIdentDecl builds a bound identifier declaration. typ may be nil.
func (f *Factory) MakeBoundIdentDecl(name string, typ types.Type) *BoundIdentDecl {
	diagnostic.Assert(name != "", "declaration without a name")
	diagnostic.Assert(typ == nil || typ.IsSolved(), "declaration %s with unresolved type %s", name, typ)
	d := &BoundIdentDecl{name: name, typ: typ}
	d.tag = TagBoundIdentDecl
	d.span = f.span
	d.typeChecked = typ != nil
	d.hash = declHash(typ)
	return d
}

// MakeAtomicExpression builds a constant. Generic constants (∅, id, prj1,
// prj2) take their type from typ, which may be nil; the others ignore it.
func (f *Factory) MakeAtomicExpression(tag Tag, typ types.Type) *AtomicExpression {
	f.checkTag(tag, FamilyAtomicExpression)
	if tag.IsGenericAtomic() {
		diagnostic.Assert(typ == nil || IsValidGenericType(tag, typ), "type %s is not an instance of %s", typ, tag)
	} else {
		diagnostic.Assert(typ == nil || types.Equal(typ, atomicType(tag)), "type %s is not the type of %s", typ, tag)
		typ = atomicType(tag)
	}
	e := &AtomicExpression{}
	newScope().fillExpr(&e.exprBase, tag, f.span, typ, nodeHash(tag, typ))
	return e
}

// ====== Expressions ======

// MakeBinaryExpression builds an expression with two operands.
func (f *Factory) MakeBinaryExpression(tag Tag, left, right Expression) *BinaryExpression {
	f.checkTag(tag, FamilyBinaryExpression)
	diagnostic.Assert(left != nil && right != nil, "missing operand of %s", tag)
	s := newScope()
	s.add(left)
	s.add(right)
	var typ types.Type
	if s.ok() {
		typ = synthesizeBinaryExpression(tag, exprType(left), exprType(right))
	}
	e := &BinaryExpression{left: left, right: right}
	s.fillExpr(&e.exprBase, tag, f.span, typ, nodeHash(tag, typ, left, right))
	return e
}

// MakeAssociativeExpression builds an n-ary expression, n >= 2. Children
// are kept as given; use Flatten to merge nested operators.
func (f *Factory) MakeAssociativeExpression(tag Tag, children []Expression) *AssociativeExpression {
	f.checkTag(tag, FamilyAssociativeExpression)
	diagnostic.Assert(len(children) >= 2, "%s needs at least two operands, got %d", tag, len(children))
	s := newScope()
	for _, c := range children {
		diagnostic.Assert(c != nil, "missing operand of %s", tag)
		s.add(c)
	}
	var typ types.Type
	if s.ok() {
		typ = synthesizeAssociativeExpression(tag, exprTypes(children))
	}
	e := &AssociativeExpression{children: append([]Expression(nil), children...)}
	s.fillExpr(&e.exprBase, tag, f.span, typ, nodeHash(tag, typ, lo.Map(children, toFormula[Expression])...))
	return e
}

// MakeUnaryExpression builds an expression with one operand.
func (f *Factory) MakeUnaryExpression(tag Tag, child Expression) *UnaryExpression {
	f.checkTag(tag, FamilyUnaryExpression)
	diagnostic.Assert(child != nil, "missing operand of %s", tag)
	s := newScope()
	s.add(child)
	var typ types.Type
	if s.ok() {
		typ = synthesizeUnaryExpression(tag, exprType(child))
	}
	e := &UnaryExpression{child: child}
	s.fillExpr(&e.exprBase, tag, f.span, typ, nodeHash(tag, typ, child))
	return e
}

// MakeBoolExpression builds bool(P).
func (f *Factory) MakeBoolExpression(pred Predicate) *BoolExpression {
	diagnostic.Assert(pred != nil, "bool without predicate")
	s := newScope()
	s.add(pred)
	var typ types.Type
	if s.ok() {
		typ = types.Boolean
	}
	e := &BoolExpression{pred: pred}
	s.fillExpr(&e.exprBase, TagKBool, f.span, typ, nodeHash(TagKBool, typ, pred))
	return e
}

// MakeSetExtension builds {a, b, ...} from at least one member.
func (f *Factory) MakeSetExtension(members []Expression) *SetExtension {
	diagnostic.Assert(len(members) >= 1, "set extension without members")
	s := newScope()
	for _, m := range members {
		diagnostic.Assert(m != nil, "missing set extension member")
		s.add(m)
	}
	var typ types.Type
	if s.ok() {
		typ = synthesizeSetExtension(exprTypes(members))
	}
	e := &SetExtension{members: append([]Expression(nil), members...)}
	s.fillExpr(&e.exprBase, TagSetExt, f.span, typ, nodeHash(TagSetExt, typ, lo.Map(members, toFormula[Expression])...))
	return e
}

// MakeQuantifiedExpression builds ⋃, ⋂ or a set comprehension binding decls
// in pred and expr. The implicit and lambda forms only exist for
// comprehension sets, and lambda requires a maplet expression.
func (f *Factory) MakeQuantifiedExpression(tag Tag, decls []*BoundIdentDecl, pred Predicate, expr Expression, form QuantifiedForm) *QuantifiedExpression {
	f.checkTag(tag, FamilyQuantifiedExpression)
	checkDecls(tag, decls)
	diagnostic.Assert(pred != nil && expr != nil, "incomplete %s", tag)
	diagnostic.Assert(form == FormExplicit || tag == TagCSet, "%s cannot be written in %s form", tag, form)
	diagnostic.Assert(form != FormLambda || expr.Tag() == TagMapsto, "lambda expression must be a maplet")
	s := newScope()
	s.add(pred)
	s.add(expr)
	s.declare(decls)
	var typ types.Type
	if s.ok() {
		typ = synthesizeQuantifiedExpression(tag, exprType(expr))
	}
	e := &QuantifiedExpression{
		decls: append([]*BoundIdentDecl(nil), decls...),
		pred:  pred,
		expr:  expr,
		form:  form,
	}
	hash := declsHash(nodeHash(tag, typ, pred, expr), decls)
	s.fillExpr(&e.exprBase, tag, f.span, typ, hash)
	return e
}

// ====== Predicates ======

// MakeLiteralPredicate builds ⊤ or ⊥.
func (f *Factory) MakeLiteralPredicate(tag Tag) *LiteralPredicate {
	f.checkTag(tag, FamilyLiteralPredicate)
	p := &LiteralPredicate{}
	newScope().fill(&p.formulaBase, tag, f.span, nodeHash(tag, nil))
	return p
}

// MakeAssociativePredicate builds a conjunction or disjunction of at least
// two predicates.
func (f *Factory) MakeAssociativePredicate(tag Tag, children []Predicate) *AssociativePredicate {
	f.checkTag(tag, FamilyAssociativePredicate)
	diagnostic.Assert(len(children) >= 2, "%s needs at least two operands, got %d", tag, len(children))
	s := newScope()
	for _, c := range children {
		diagnostic.Assert(c != nil, "missing operand of %s", tag)
		s.add(c)
	}
	p := &AssociativePredicate{children: append([]Predicate(nil), children...)}
	s.fill(&p.formulaBase, tag, f.span, nodeHash(tag, nil, lo.Map(children, toFormula[Predicate])...))
	return p
}

// MakeBinaryPredicate builds an implication or an equivalence.
func (f *Factory) MakeBinaryPredicate(tag Tag, left, right Predicate) *BinaryPredicate {
	f.checkTag(tag, FamilyBinaryPredicate)
	diagnostic.Assert(left != nil && right != nil, "missing operand of %s", tag)
	s := newScope()
	s.add(left)
	s.add(right)
	p := &BinaryPredicate{left: left, right: right}
	s.fill(&p.formulaBase, tag, f.span, nodeHash(tag, nil, left, right))
	return p
}

// MakeUnaryPredicate builds a negation.
func (f *Factory) MakeUnaryPredicate(tag Tag, child Predicate) *UnaryPredicate {
	f.checkTag(tag, FamilyUnaryPredicate)
	diagnostic.Assert(child != nil, "missing operand of %s", tag)
	s := newScope()
	s.add(child)
	p := &UnaryPredicate{child: child}
	s.fill(&p.formulaBase, tag, f.span, nodeHash(tag, nil, child))
	return p
}

// MakeQuantifiedPredicate builds ∀ or ∃ binding decls in pred.
func (f *Factory) MakeQuantifiedPredicate(tag Tag, decls []*BoundIdentDecl, pred Predicate) *QuantifiedPredicate {
	f.checkTag(tag, FamilyQuantifiedPredicate)
	checkDecls(tag, decls)
	diagnostic.Assert(pred != nil, "%s without body", tag)
	s := newScope()
	s.add(pred)
	s.declare(decls)
	p := &QuantifiedPredicate{decls: append([]*BoundIdentDecl(nil), decls...), pred: pred}
	s.fill(&p.formulaBase, tag, f.span, declsHash(nodeHash(tag, nil, pred), decls))
	return p
}

// MakeRelationalPredicate builds a comparison of two expressions.
func (f *Factory) MakeRelationalPredicate(tag Tag, left, right Expression) *RelationalPredicate {
	f.checkTag(tag, FamilyRelationalPredicate)
	diagnostic.Assert(left != nil && right != nil, "missing operand of %s", tag)
	s := newScope()
	s.add(left)
	s.add(right)
	if s.ok() && !synthesizeRelationalPredicate(tag, exprType(left), exprType(right)) {
		s.typed = false
	}
	p := &RelationalPredicate{left: left, right: right}
	s.fill(&p.formulaBase, tag, f.span, nodeHash(tag, nil, left, right))
	return p
}

// MakeSimplePredicate builds finite(E).
func (f *Factory) MakeSimplePredicate(tag Tag, expr Expression) *SimplePredicate {
	f.checkTag(tag, FamilySimplePredicate)
	diagnostic.Assert(expr != nil, "missing operand of %s", tag)
	s := newScope()
	s.add(expr)
	if s.ok() && types.BaseType(exprType(expr)) == nil {
		s.typed = false
	}
	p := &SimplePredicate{expr: expr}
	s.fill(&p.formulaBase, tag, f.span, nodeHash(tag, nil, expr))
	return p
}

// MakeMultiplePredicate builds partition(S, s1, ..., sn) from at least one
// expression.
func (f *Factory) MakeMultiplePredicate(tag Tag, children []Expression) *MultiplePredicate {
	f.checkTag(tag, FamilyMultiplePredicate)
	diagnostic.Assert(len(children) >= 1, "%s without operands", tag)
	s := newScope()
	for _, c := range children {
		diagnostic.Assert(c != nil, "missing operand of %s", tag)
		s.add(c)
	}
	if s.ok() && !synthesizeMultiplePredicate(exprTypes(children)) {
		s.typed = false
	}
	p := &MultiplePredicate{children: append([]Expression(nil), children...)}
	s.fill(&p.formulaBase, tag, f.span, nodeHash(tag, nil, lo.Map(children, toFormula[Expression])...))
	return p
}

// ====== Assignments ======

// MakeBecomesEqualTo builds idents ≔ values. Both lists are non-empty and
// of equal length, and an identifier is assigned at most once.
func (f *Factory) MakeBecomesEqualTo(idents []*FreeIdentifier, values []Expression) *BecomesEqualTo {
	checkAssigned(TagBecomesEqualTo, idents)
	diagnostic.Assert(len(idents) == len(values), "%d identifiers assigned %d values", len(idents), len(values))
	s := newScope()
	for _, id := range idents {
		s.add(id)
	}
	for _, v := range values {
		diagnostic.Assert(v != nil, "missing assigned value")
		s.add(v)
	}
	if s.ok() {
		for i, id := range idents {
			if !types.Equal(id.typ, exprType(values[i])) {
				s.typed = false
			}
		}
	}
	a := &BecomesEqualTo{
		idents: append([]*FreeIdentifier(nil), idents...),
		values: append([]Expression(nil), values...),
	}
	children := append(lo.Map(idents, toFormula[*FreeIdentifier]), lo.Map(values, toFormula[Expression])...)
	s.fill(&a.formulaBase, TagBecomesEqualTo, f.span, nodeHash(TagBecomesEqualTo, nil, children...))
	return a
}

// MakeBecomesMemberOf builds ident :∈ set.
func (f *Factory) MakeBecomesMemberOf(ident *FreeIdentifier, set Expression) *BecomesMemberOf {
	checkAssigned(TagBecomesMemberOf, []*FreeIdentifier{ident})
	diagnostic.Assert(set != nil, "missing set of %s", TagBecomesMemberOf)
	s := newScope()
	s.add(ident)
	s.add(set)
	if s.ok() && !types.Equal(ident.typ, types.BaseType(exprType(set))) {
		s.typed = false
	}
	a := &BecomesMemberOf{ident: ident, set: set}
	s.fill(&a.formulaBase, TagBecomesMemberOf, f.span, nodeHash(TagBecomesMemberOf, nil, ident, set))
	return a
}

// MakeBecomesSuchThat builds idents :∣ condition, where condition refers to
// the after-values through primed declarations, one per identifier.
func (f *Factory) MakeBecomesSuchThat(idents []*FreeIdentifier, primed []*BoundIdentDecl, condition Predicate) *BecomesSuchThat {
	checkAssigned(TagBecomesSuchThat, idents)
	diagnostic.Assert(len(idents) == len(primed), "%d identifiers with %d primed declarations", len(idents), len(primed))
	diagnostic.Assert(condition != nil, "missing condition of %s", TagBecomesSuchThat)
	for _, d := range primed {
		diagnostic.Assert(d != nil, "missing primed declaration")
	}
	s := newScope()
	for _, id := range idents {
		s.add(id)
	}
	inner := newScope()
	inner.add(condition)
	inner.declare(primed)
	s.merge(inner)
	if s.ok() {
		for i, id := range idents {
			if !types.Equal(id.typ, primed[i].typ) {
				s.typed = false
			}
		}
	}
	a := &BecomesSuchThat{
		idents:    append([]*FreeIdentifier(nil), idents...),
		primed:    append([]*BoundIdentDecl(nil), primed...),
		condition: condition,
	}
	hash := nodeHash(TagBecomesSuchThat, nil, append(lo.Map(idents, toFormula[*FreeIdentifier]), condition)...)
	s.fill(&a.formulaBase, TagBecomesSuchThat, f.span, declsHash(hash, primed))
	return a
}

// ====== Identifier utilities ======

// WithPrime returns the after-value identifier x' of x.
func (f *Factory) WithPrime(id *FreeIdentifier) *FreeIdentifier {
	diagnostic.Assert(!id.IsPrimed(), "identifier %s is already primed", id.name)
	return f.MakeFreeIdentifier(id.name+"'", id.typ)
}

// WithoutPrime returns the before-value identifier x of x'.
func (f *Factory) WithoutPrime(id *FreeIdentifier) *FreeIdentifier {
	diagnostic.Assert(id.IsPrimed(), "identifier %s is not primed", id.name)
	return f.MakeFreeIdentifier(id.name[:len(id.name)-1], id.typ)
}

// AsDeclaration returns a declaration with the name and type of id.
func (f *Factory) AsDeclaration(id *FreeIdentifier) *BoundIdentDecl {
	return f.MakeBoundIdentDecl(id.name, id.typ)
}

// AsPrimedDeclaration returns a declaration of the after-value of id.
func (f *Factory) AsPrimedDeclaration(id *FreeIdentifier) *BoundIdentDecl {
	diagnostic.Assert(!id.IsPrimed(), "identifier %s is already primed", id.name)
	return f.MakeBoundIdentDecl(id.name+"'", id.typ)
}

// MakeTypedFreeIdentifier returns id with type typ, or id itself when it
// already has it.
func (f *Factory) MakeTypedFreeIdentifier(id *FreeIdentifier, typ types.Type) *FreeIdentifier {
	if types.Equal(id.typ, typ) {
		return id
	}
	return f.At(id.span).MakeFreeIdentifier(id.name, typ)
}

func checkDecls(tag Tag, decls []*BoundIdentDecl) {
	diagnostic.Assert(len(decls) >= 1, "%s must bind at least one identifier", tag)
	for _, d := range decls {
		diagnostic.Assert(d != nil, "missing declaration in %s", tag)
	}
}

func checkAssigned(tag Tag, idents []*FreeIdentifier) {
	diagnostic.Assert(len(idents) >= 1, "%s must assign at least one identifier", tag)
	seen := make(map[string]bool, len(idents))
	for _, id := range idents {
		diagnostic.Assert(id != nil, "missing assigned identifier in %s", tag)
		diagnostic.Assert(!id.IsPrimed(), "cannot assign primed identifier %s", id.name)
		diagnostic.Assert(!seen[id.name], "identifier %s assigned twice", id.name)
		seen[id.name] = true
	}
}

func toFormula[T Formula](f T, _ int) Formula { return f }
