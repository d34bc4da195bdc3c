package prop

import (
	"math/rand"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// Vocabulary is the set of typed free identifiers generated formulas draw
// from. Every generated formula is type checked and closed, and each of
// its bound identifiers occurs in an integer context, so erasing its types
// and checking it again against Env gives it back.
type Vocabulary struct {
	fac *ast.Factory
	env *types.Environment

	ints, sets, bools, rels, elems, elemSets []*ast.FreeIdentifier
}

var declNames = []string{"x", "y", "z", "n"}

// NewVocabulary returns the default vocabulary: a given set S, integers a,
// b and c, integer sets s and t, a boolean p, an integer relation r, an
// element e of S and a subset u of S.
func NewVocabulary(fac *ast.Factory) *Vocabulary {
	if fac == nil {
		fac = ast.DefaultFactory()
	}
	v := &Vocabulary{fac: fac, env: types.NewEnvironment()}
	given := types.NewGiven("S")
	setOfInt := types.NewPowerSet(types.Integer)
	add := func(list *[]*ast.FreeIdentifier, name string, t types.Type) {
		*list = append(*list, fac.MakeFreeIdentifier(name, t))
		// the names are distinct
		_ = v.env.Add(name, t)
	}
	_ = v.env.AddGivenSet("S")
	add(&v.ints, "a", types.Integer)
	add(&v.ints, "b", types.Integer)
	add(&v.ints, "c", types.Integer)
	add(&v.sets, "s", setOfInt)
	add(&v.sets, "t", setOfInt)
	add(&v.bools, "p", types.Boolean)
	add(&v.rels, "r", types.NewRelation(types.Integer, types.Integer))
	add(&v.elems, "e", given)
	add(&v.elemSets, "u", types.NewPowerSet(given))
	return v
}

// Env returns the environment typing the vocabulary.
func (v *Vocabulary) Env() *types.Environment { return v.env.Clone() }

// Factory returns the factory building the generated formulas.
func (v *Vocabulary) Factory() *ast.Factory { return v.fac }

// Predicate generates closed, type checked predicates whose nesting is
// bounded by the size hint.
func (v *Vocabulary) Predicate() Generator[ast.Predicate] {
	return func(r *rand.Rand, size int) ast.Predicate {
		g := &gen{v: v, r: r}
		return g.pred(size, 0)
	}
}

// Expression generates closed, type checked integer or integer set
// expressions.
func (v *Vocabulary) Expression() Generator[ast.Expression] {
	return func(r *rand.Rand, size int) ast.Expression {
		g := &gen{v: v, r: r}
		if r.Intn(2) == 0 {
			return g.set(size, 0)
		}
		return g.int(size, 0)
	}
}

type gen struct {
	v *Vocabulary
	r *rand.Rand
}

func (g *gen) pick(list []*ast.FreeIdentifier) *ast.FreeIdentifier {
	return list[g.r.Intn(len(list))]
}

// int builds an integer expression; depth integer bound identifiers are in
// scope.
func (g *gen) int(size, depth int) ast.Expression {
	fac := g.v.fac
	if size <= 0 {
		switch n := g.r.Intn(3); {
		case n == 0 && depth > 0:
			return fac.MakeBoundIdentifier(g.r.Intn(depth), types.Integer)
		case n == 1:
			return g.pick(g.v.ints)
		default:
			return fac.MakeInt(int64(g.r.Intn(10)))
		}
	}
	sub := size - 1
	switch g.r.Intn(7) {
	case 0:
		return fac.MakeAssociativeExpression(ast.TagPlus, []ast.Expression{g.int(sub, depth), g.int(sub, depth)})
	case 1:
		return fac.MakeAssociativeExpression(ast.TagMul, []ast.Expression{g.int(sub, depth), g.int(sub, depth), g.int(sub, depth)})
	case 2:
		return fac.MakeBinaryExpression(ast.TagMinus, g.int(sub, depth), g.int(sub, depth))
	case 3:
		tag := ast.TagDiv
		if g.r.Intn(2) == 0 {
			tag = ast.TagMod
		}
		return fac.MakeBinaryExpression(tag, g.int(sub, depth), g.int(sub, depth))
	case 4:
		return fac.MakeUnaryExpression(ast.TagKCard, g.set(sub, depth))
	case 5:
		return fac.MakeBinaryExpression(ast.TagFunImage, g.pick(g.v.rels), g.int(sub, depth))
	default:
		return g.int(0, depth)
	}
}

// set builds an expression of type ℙ(ℤ).
func (g *gen) set(size, depth int) ast.Expression {
	fac := g.v.fac
	if size <= 0 {
		switch g.r.Intn(3) {
		case 0:
			return fac.MakeAtomicExpression(ast.TagNatural, nil)
		default:
			return g.pick(g.v.sets)
		}
	}
	sub := size - 1
	switch g.r.Intn(7) {
	case 0:
		tag := ast.TagBUnion
		if g.r.Intn(2) == 0 {
			tag = ast.TagBInter
		}
		return fac.MakeAssociativeExpression(tag, []ast.Expression{g.set(sub, depth), g.set(sub, depth)})
	case 1:
		return fac.MakeBinaryExpression(ast.TagSetMinus, g.set(sub, depth), g.set(sub, depth))
	case 2:
		return fac.MakeSetExtension([]ast.Expression{g.int(sub, depth), g.int(sub, depth)})
	case 3:
		return fac.MakeBinaryExpression(ast.TagUpTo, g.int(sub, depth), g.int(sub, depth))
	case 4:
		tag := ast.TagKDom
		if g.r.Intn(2) == 0 {
			tag = ast.TagKRan
		}
		return fac.MakeUnaryExpression(tag, g.pick(g.v.rels))
	case 5:
		return fac.MakeBinaryExpression(ast.TagRelImage, g.pick(g.v.rels), g.set(sub, depth))
	default:
		return g.set(0, depth)
	}
}

// pred builds a predicate; depth bound integers are in scope.
func (g *gen) pred(size, depth int) ast.Predicate {
	fac := g.v.fac
	if size <= 0 {
		return g.atom(depth)
	}
	sub := size - 1
	switch g.r.Intn(8) {
	case 0:
		tag := ast.TagLAnd
		if g.r.Intn(2) == 0 {
			tag = ast.TagLOr
		}
		n := 2 + g.r.Intn(2)
		children := make([]ast.Predicate, n)
		for i := range children {
			children[i] = g.pred(sub, depth)
		}
		return fac.MakeAssociativePredicate(tag, children)
	case 1:
		tag := ast.TagLImp
		if g.r.Intn(2) == 0 {
			tag = ast.TagLEqv
		}
		return fac.MakeBinaryPredicate(tag, g.pred(sub, depth), g.pred(sub, depth))
	case 2:
		return fac.MakeUnaryPredicate(ast.TagNot, g.pred(sub, depth))
	case 3:
		return g.quantified(sub, depth)
	case 4:
		b := fac.MakeBoolExpression(g.pred(sub, depth))
		return fac.MakeRelationalPredicate(ast.TagEqual, g.pick(g.v.bools), b)
	default:
		return g.atom(depth)
	}
}

// quantified builds ∀x·x ≥ i ⇒ P or ∃x·x ≥ i ∧ P, so that the new bound
// integer always occurs.
func (g *gen) quantified(size, depth int) ast.Predicate {
	fac := g.v.fac
	n := 1 + g.r.Intn(2)
	decls := make([]*ast.BoundIdentDecl, n)
	for i := range decls {
		decls[i] = fac.MakeBoundIdentDecl(declNames[(depth+i)%len(declNames)], types.Integer)
	}
	inner := depth + n
	var guards []ast.Predicate
	for k := 0; k < n; k++ {
		guards = append(guards, fac.MakeRelationalPredicate(ast.TagGe,
			fac.MakeBoundIdentifier(k, types.Integer), g.int(0, inner)))
	}
	guard := guards[0]
	if n > 1 {
		guard = fac.MakeAssociativePredicate(ast.TagLAnd, guards)
	}
	body := g.pred(size, inner)
	if g.r.Intn(2) == 0 {
		return fac.MakeQuantifiedPredicate(ast.TagForall, decls, fac.MakeBinaryPredicate(ast.TagLImp, guard, body))
	}
	return fac.MakeQuantifiedPredicate(ast.TagExists, decls, fac.MakeAssociativePredicate(ast.TagLAnd, []ast.Predicate{guard, body}))
}

func (g *gen) atom(depth int) ast.Predicate {
	fac := g.v.fac
	switch g.r.Intn(8) {
	case 0:
		tags := []ast.Tag{ast.TagEqual, ast.TagNotEqual, ast.TagLt, ast.TagLe, ast.TagGt, ast.TagGe}
		return fac.MakeRelationalPredicate(tags[g.r.Intn(len(tags))], g.int(1, depth), g.int(1, depth))
	case 1:
		tag := ast.TagIn
		if g.r.Intn(2) == 0 {
			tag = ast.TagNotIn
		}
		return fac.MakeRelationalPredicate(tag, g.int(1, depth), g.set(1, depth))
	case 2:
		tags := []ast.Tag{ast.TagSubsetEq, ast.TagSubset, ast.TagEqual}
		return fac.MakeRelationalPredicate(tags[g.r.Intn(len(tags))], g.set(1, depth), g.set(1, depth))
	case 3:
		return fac.MakeSimplePredicate(ast.TagKFinite, g.set(1, depth))
	case 4:
		return fac.MakeRelationalPredicate(ast.TagIn, g.pick(g.v.elems), g.pick(g.v.elemSets))
	case 5:
		return fac.MakeRelationalPredicate(ast.TagEqual, g.pick(g.v.bools), fac.MakeAtomicExpression(ast.TagTrue, nil))
	case 6:
		tag := ast.TagBTrue
		if g.r.Intn(2) == 0 {
			tag = ast.TagBFalse
		}
		return fac.MakeLiteralPredicate(tag)
	default:
		// an atom over a bound integer when one is in scope
		return fac.MakeRelationalPredicate(ast.TagLt, g.int(0, depth), g.int(1, depth))
	}
}

// ShrinkPredicate proposes smaller predicates: the operands of a connective,
// and a quantified predicate with its declarations replaced by 0. The
// candidates stay closed and type checked.
func (v *Vocabulary) ShrinkPredicate() Shrinker[ast.Predicate] {
	return func(p ast.Predicate) []ast.Predicate {
		var out []ast.Predicate
		switch p := p.(type) {
		case *ast.AssociativePredicate:
			out = append(out, p.Children()...)
		case *ast.BinaryPredicate:
			out = append(out, p.Left(), p.Right())
		case *ast.UnaryPredicate:
			out = append(out, p.Child())
		case *ast.QuantifiedPredicate:
			zeros := make([]ast.Expression, len(p.Declarations()))
			for i := range zeros {
				zeros[i] = v.fac.MakeInt(0)
			}
			out = append(out, v.fac.Instantiate(p, zeros))
		}
		return out
	}
}
