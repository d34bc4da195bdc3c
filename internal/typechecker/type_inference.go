package typechecker

import (
	"github.com/inconshreveable/log15"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// TypeInferenceEngine builds the draft of one formula, stating the typing
// rule of every node as equations solved on the fly by a Unifier.
type TypeInferenceEngine struct {
	unifier        *types.Unifier
	env            *types.Environment
	inferred       map[string]types.Type
	order          []string // inferred names, first occurrence first
	loose          map[int]types.Type
	inferenceStack []*InferenceContext
	constraints    []*TypeConstraint
	problems       diagnostic.List
	logger         log15.Logger
}

// NewTypeInferenceEngine creates an engine reading identifier types from env.
func NewTypeInferenceEngine(env *types.Environment, logger log15.Logger) *TypeInferenceEngine {
	return &TypeInferenceEngine{
		unifier:  types.NewUnifier(),
		env:      env,
		inferred: make(map[string]types.Type),
		loose:    make(map[int]types.Type),
		logger:   logger,
	}
}

// Constraints returns the equations stated so far.
func (tie *TypeInferenceEngine) Constraints() []*TypeConstraint { return tie.constraints }

// Problems returns the problems found so far.
func (tie *TypeInferenceEngine) Problems() diagnostic.List { return tie.problems }

// Unify states that a and b are equal. It returns the unified type, or nil
// after recording the failure.
func (tie *TypeInferenceEngine) Unify(kind ConstraintKind, a, b types.Type, at ast.Formula) types.Type {
	c := &TypeConstraint{Kind: kind, Left: a, Right: b, Span: at.Span()}
	tie.constraints = append(tie.constraints, c)
	t, d := tie.unifier.Unify(a, b, at.Span())
	if d != nil {
		tie.logger.Debug("unification failed", "kind", kind, "left", a, "right", b, "at", at)
		tie.problems.Add(d)
		return nil
	}
	c.Resolved = true
	return t
}

func (tie *TypeInferenceEngine) fresh() types.Type { return tie.unifier.FreshVariable() }

func (tie *TypeInferenceEngine) freshSet() (types.Type, types.Type) {
	s, v := tie.unifier.PowerSetOfFresh()
	return s, v
}

func (tie *TypeInferenceEngine) freshRelation() (types.Type, types.Type, types.Type) {
	r, a, b := tie.unifier.RelationOfFresh()
	return r, a, b
}

func (tie *TypeInferenceEngine) pushContext(ctx *InferenceContext) {
	tie.inferenceStack = append(tie.inferenceStack, ctx)
}

func (tie *TypeInferenceEngine) popContext() {
	tie.inferenceStack = tie.inferenceStack[:len(tie.inferenceStack)-1]
}

// boundType returns the temporary type of the declaration a bound index
// refers to, or false when the index points above the root.
func (tie *TypeInferenceEngine) boundType(index int) (types.Type, int, bool) {
	for i := len(tie.inferenceStack) - 1; i >= 0; i-- {
		decls := tie.inferenceStack[i].Decls
		if index < len(decls) {
			return decls[len(decls)-1-index], 0, true
		}
		index -= len(decls)
	}
	return nil, index, false
}

// freeType returns the type of a free identifier name: its environment
// type, its type inferred so far, or a new variable recorded as inferred.
func (tie *TypeInferenceEngine) freeType(name string) types.Type {
	if t, ok := tie.env.Lookup(name); ok {
		return t
	}
	if t, ok := tie.inferred[name]; ok {
		return t
	}
	v := tie.fresh()
	tie.inferred[name] = v
	tie.order = append(tie.order, name)
	return v
}

// ====== Drafting ======

// infer drafts f. For an expression, the draft carries its temporary type.
func (tie *TypeInferenceEngine) infer(f ast.Formula) *draft {
	switch f := f.(type) {
	case ast.Expression:
		return tie.inferExpression(f)
	case ast.Predicate:
		return tie.inferPredicate(f)
	case ast.Assignment:
		return tie.inferAssignment(f)
	case *ast.BoundIdentDecl:
		return tie.inferDecl(f)
	}
	diagnostic.Assert(false, "cannot type %T", f)
	return nil
}

func (tie *TypeInferenceEngine) inferDecl(d *ast.BoundIdentDecl) *draft {
	if t, ok := d.Type(); ok {
		return &draft{node: d, typ: t}
	}
	return &draft{node: d, typ: tie.fresh()}
}

func (tie *TypeInferenceEngine) inferDecls(decls []*ast.BoundIdentDecl) ([]*draft, *InferenceContext) {
	drafts := make([]*draft, len(decls))
	ctx := &InferenceContext{Decls: make([]types.Type, len(decls))}
	for i, d := range decls {
		drafts[i] = tie.inferDecl(d)
		ctx.Decls[i] = drafts[i].typ
	}
	return drafts, ctx
}

func (tie *TypeInferenceEngine) inferExpressions(es []ast.Expression) []*draft {
	drafts := make([]*draft, len(es))
	for i, e := range es {
		drafts[i] = tie.inferExpression(e)
	}
	return drafts
}

func (tie *TypeInferenceEngine) inferExpression(e ast.Expression) *draft {
	d := &draft{node: e}
	switch e := e.(type) {
	case *ast.IntegerLiteral:
		d.typ = types.Integer
	case *ast.FreeIdentifier:
		d.typ = tie.freeType(e.Name())
		if own, ok := e.Type(); ok {
			if declared, inEnv := tie.env.Lookup(e.Name()); inEnv && !types.Equal(declared, own) {
				tie.problems.Add(diagnostic.New(diagnostic.IncompatibleEnvironment, e.Span(),
					e.Name(), declared.String(), own.String()))
			} else {
				tie.Unify(ConstraintAnnotation, d.typ, own, e)
			}
		}
	case *ast.BoundIdentifier:
		t, rel, ok := tie.boundType(e.Index())
		if !ok {
			t, ok = tie.loose[rel]
			if !ok {
				t = tie.fresh()
				tie.loose[rel] = t
			}
		}
		d.typ = t
		if own, ok := e.Type(); ok {
			tie.Unify(ConstraintAnnotation, t, own, e)
		}
	case *ast.AtomicExpression:
		d.typ = tie.atomicScheme(e.Tag())
		if own, ok := e.Type(); ok {
			tie.Unify(ConstraintAnnotation, d.typ, own, e)
		}
	case *ast.BinaryExpression:
		l, r := tie.inferExpression(e.Left()), tie.inferExpression(e.Right())
		d.children = []*draft{l, r}
		d.typ = tie.binaryRule(e, l, r)
	case *ast.AssociativeExpression:
		d.children = tie.inferExpressions(e.Children())
		d.typ = tie.associativeRule(e, d.children)
	case *ast.UnaryExpression:
		c := tie.inferExpression(e.Child())
		d.children = []*draft{c}
		d.typ = tie.unaryRule(e, c)
	case *ast.BoolExpression:
		d.children = []*draft{tie.inferPredicate(e.Predicate())}
		d.typ = types.Boolean
	case *ast.SetExtension:
		d.children = tie.inferExpressions(e.Members())
		elem := tie.fresh()
		for _, m := range d.children {
			tie.Unify(ConstraintMember, elem, m.typ, m.node)
		}
		d.typ = types.NewPowerSet(elem)
	case *ast.QuantifiedExpression:
		decls, ctx := tie.inferDecls(e.Declarations())
		tie.pushContext(ctx)
		pred := tie.inferPredicate(e.Predicate())
		expr := tie.inferExpression(e.Expression())
		tie.popContext()
		d.children = append(decls, pred, expr)
		switch e.Tag() {
		case ast.TagCSet:
			d.typ = types.NewPowerSet(expr.typ)
		default:
			set, _ := tie.freshSet()
			d.typ = tie.operand(set, expr)
		}
	default:
		diagnostic.Assert(false, "cannot type expression %T", e)
	}
	if d.typ == nil {
		// failed rule, keep going with an unconstrained type
		d.typ = tie.fresh()
	}
	return d
}

// operand unifies the type of an operand with the type its operator
// requires and returns the unified type.
func (tie *TypeInferenceEngine) operand(want types.Type, d *draft) types.Type {
	return tie.Unify(ConstraintOperand, want, d.typ, d.node)
}

// atomicScheme returns the type of an atomic expression, with fresh
// variables for generic ones.
func (tie *TypeInferenceEngine) atomicScheme(tag ast.Tag) types.Type {
	switch tag {
	case ast.TagInteger, ast.TagNatural, ast.TagNatural1:
		return types.NewPowerSet(types.Integer)
	case ast.TagBool:
		return types.NewPowerSet(types.Boolean)
	case ast.TagTrue, ast.TagFalse:
		return types.Boolean
	case ast.TagKPred, ast.TagKSucc:
		return types.NewRelation(types.Integer, types.Integer)
	case ast.TagEmptySet:
		set, _ := tie.freshSet()
		return set
	case ast.TagKIdGen:
		a := tie.fresh()
		return types.NewRelation(a, a)
	case ast.TagKPrj1Gen:
		a, b := tie.fresh(), tie.fresh()
		return types.NewRelation(types.NewProduct(a, b), a)
	case ast.TagKPrj2Gen:
		a, b := tie.fresh(), tie.fresh()
		return types.NewRelation(types.NewProduct(a, b), b)
	}
	diagnostic.Assert(false, "unknown atomic expression %s", tag)
	return nil
}

func (tie *TypeInferenceEngine) binaryRule(e *ast.BinaryExpression, l, r *draft) types.Type {
	switch e.Tag() {
	case ast.TagMapsto:
		return types.NewProduct(l.typ, r.typ)
	case ast.TagRel, ast.TagTRel, ast.TagSRel, ast.TagSTRel, ast.TagPFun, ast.TagTFun,
		ast.TagPInj, ast.TagTInj, ast.TagPSur, ast.TagTSur, ast.TagTBij:
		ls, alpha := tie.freshSet()
		rs, beta := tie.freshSet()
		tie.operand(ls, l)
		tie.operand(rs, r)
		return types.NewPowerSet(types.NewRelation(alpha, beta))
	case ast.TagSetMinus:
		set, _ := tie.freshSet()
		tie.operand(set, l)
		return tie.operand(set, r)
	case ast.TagCProd:
		ls, alpha := tie.freshSet()
		rs, beta := tie.freshSet()
		tie.operand(ls, l)
		tie.operand(rs, r)
		return types.NewRelation(alpha, beta)
	case ast.TagDProd:
		alpha, beta, gamma := tie.fresh(), tie.fresh(), tie.fresh()
		tie.operand(types.NewRelation(alpha, beta), l)
		tie.operand(types.NewRelation(alpha, gamma), r)
		return types.NewRelation(alpha, types.NewProduct(beta, gamma))
	case ast.TagPProd:
		lr, alpha, beta := tie.freshRelation()
		rr, gamma, delta := tie.freshRelation()
		tie.operand(lr, l)
		tie.operand(rr, r)
		return types.NewRelation(types.NewProduct(alpha, gamma), types.NewProduct(beta, delta))
	case ast.TagDomRes, ast.TagDomSub:
		rel, alpha, _ := tie.freshRelation()
		tie.operand(types.NewPowerSet(alpha), l)
		return tie.operand(rel, r)
	case ast.TagRanRes, ast.TagRanSub:
		rel, _, beta := tie.freshRelation()
		tie.operand(types.NewPowerSet(beta), r)
		return tie.operand(rel, l)
	case ast.TagUpTo:
		tie.operand(types.Integer, l)
		tie.operand(types.Integer, r)
		return types.NewPowerSet(types.Integer)
	case ast.TagMinus, ast.TagDiv, ast.TagMod, ast.TagExpn:
		tie.operand(types.Integer, l)
		tie.operand(types.Integer, r)
		return types.Integer
	case ast.TagFunImage:
		rel, alpha, beta := tie.freshRelation()
		tie.operand(rel, l)
		tie.operand(alpha, r)
		return beta
	case ast.TagRelImage:
		rel, alpha, beta := tie.freshRelation()
		tie.operand(rel, l)
		tie.operand(types.NewPowerSet(alpha), r)
		return types.NewPowerSet(beta)
	}
	diagnostic.Assert(false, "unknown binary expression %s", e.Tag())
	return nil
}

func (tie *TypeInferenceEngine) associativeRule(e *ast.AssociativeExpression, children []*draft) types.Type {
	switch e.Tag() {
	case ast.TagBUnion, ast.TagBInter:
		set, _ := tie.freshSet()
		for _, c := range children {
			tie.operand(set, c)
		}
		return set
	case ast.TagOvr:
		rel, _, _ := tie.freshRelation()
		for _, c := range children {
			tie.operand(rel, c)
		}
		return rel
	case ast.TagPlus, ast.TagMul:
		for _, c := range children {
			tie.operand(types.Integer, c)
		}
		return types.Integer
	case ast.TagFComp:
		// child i relates alpha[i] to alpha[i+1]
		alpha := tie.freshChain(len(children))
		for i, c := range children {
			tie.operand(types.NewRelation(alpha[i], alpha[i+1]), c)
		}
		return types.NewRelation(alpha[0], alpha[len(children)])
	case ast.TagBComp:
		// child i relates alpha[i+1] to alpha[i]
		alpha := tie.freshChain(len(children))
		for i, c := range children {
			tie.operand(types.NewRelation(alpha[i+1], alpha[i]), c)
		}
		return types.NewRelation(alpha[len(children)], alpha[0])
	}
	diagnostic.Assert(false, "unknown associative expression %s", e.Tag())
	return nil
}

func (tie *TypeInferenceEngine) freshChain(n int) []types.Type {
	alpha := make([]types.Type, n+1)
	for i := range alpha {
		alpha[i] = tie.fresh()
	}
	return alpha
}

func (tie *TypeInferenceEngine) unaryRule(e *ast.UnaryExpression, c *draft) types.Type {
	switch e.Tag() {
	case ast.TagKCard:
		set, _ := tie.freshSet()
		tie.operand(set, c)
		return types.Integer
	case ast.TagPow, ast.TagPow1:
		set, _ := tie.freshSet()
		t := tie.operand(set, c)
		if t == nil {
			return nil
		}
		return types.NewPowerSet(t)
	case ast.TagKUnion, ast.TagKInter:
		set, _ := tie.freshSet()
		tie.operand(types.NewPowerSet(set), c)
		return set
	case ast.TagKDom:
		rel, alpha, _ := tie.freshRelation()
		tie.operand(rel, c)
		return types.NewPowerSet(alpha)
	case ast.TagKRan:
		rel, _, beta := tie.freshRelation()
		tie.operand(rel, c)
		return types.NewPowerSet(beta)
	case ast.TagKMin, ast.TagKMax:
		tie.operand(types.NewPowerSet(types.Integer), c)
		return types.Integer
	case ast.TagConverse:
		rel, alpha, beta := tie.freshRelation()
		tie.operand(rel, c)
		return types.NewRelation(beta, alpha)
	case ast.TagUnMinus:
		tie.operand(types.Integer, c)
		return types.Integer
	}
	diagnostic.Assert(false, "unknown unary expression %s", e.Tag())
	return nil
}

func (tie *TypeInferenceEngine) inferPredicates(ps []ast.Predicate) []*draft {
	drafts := make([]*draft, len(ps))
	for i, p := range ps {
		drafts[i] = tie.inferPredicate(p)
	}
	return drafts
}

func (tie *TypeInferenceEngine) inferPredicate(p ast.Predicate) *draft {
	d := &draft{node: p}
	switch p := p.(type) {
	case *ast.LiteralPredicate:
	case *ast.AssociativePredicate:
		d.children = tie.inferPredicates(p.Children())
	case *ast.BinaryPredicate:
		d.children = tie.inferPredicates([]ast.Predicate{p.Left(), p.Right()})
	case *ast.UnaryPredicate:
		d.children = []*draft{tie.inferPredicate(p.Child())}
	case *ast.QuantifiedPredicate:
		decls, ctx := tie.inferDecls(p.Declarations())
		tie.pushContext(ctx)
		body := tie.inferPredicate(p.Predicate())
		tie.popContext()
		d.children = append(decls, body)
	case *ast.RelationalPredicate:
		l, r := tie.inferExpression(p.Left()), tie.inferExpression(p.Right())
		d.children = []*draft{l, r}
		switch p.Tag() {
		case ast.TagEqual, ast.TagNotEqual:
			tie.operand(l.typ, r)
		case ast.TagLt, ast.TagLe, ast.TagGt, ast.TagGe:
			tie.operand(types.Integer, l)
			tie.operand(types.Integer, r)
		case ast.TagIn, ast.TagNotIn:
			tie.operand(types.NewPowerSet(l.typ), r)
		default:
			set, _ := tie.freshSet()
			tie.operand(set, l)
			tie.operand(set, r)
		}
	case *ast.SimplePredicate:
		c := tie.inferExpression(p.Expression())
		d.children = []*draft{c}
		set, _ := tie.freshSet()
		tie.operand(set, c)
	case *ast.MultiplePredicate:
		d.children = tie.inferExpressions(p.Children())
		set, _ := tie.freshSet()
		for _, c := range d.children {
			tie.operand(set, c)
		}
	default:
		diagnostic.Assert(false, "cannot type predicate %T", p)
	}
	return d
}

func (tie *TypeInferenceEngine) inferAssignment(a ast.Assignment) *draft {
	d := &draft{node: a}
	switch a := a.(type) {
	case *ast.BecomesEqualTo:
		idents := tie.inferIdents(a.AssignedIdentifiers())
		values := tie.inferExpressions(a.Values())
		for i, v := range values {
			tie.Unify(ConstraintAssignment, idents[i].typ, v.typ, v.node)
		}
		d.children = append(idents, values...)
	case *ast.BecomesMemberOf:
		ident := tie.inferExpression(a.Identifier())
		set := tie.inferExpression(a.Set())
		tie.Unify(ConstraintAssignment, types.NewPowerSet(ident.typ), set.typ, set.node)
		d.children = []*draft{ident, set}
	case *ast.BecomesSuchThat:
		idents := tie.inferIdents(a.AssignedIdentifiers())
		primed, ctx := tie.inferDecls(a.PrimedDeclarations())
		for i, p := range primed {
			tie.Unify(ConstraintAssignment, idents[i].typ, p.typ, p.node)
		}
		tie.pushContext(ctx)
		cond := tie.inferPredicate(a.Condition())
		tie.popContext()
		d.children = append(append(idents, primed...), cond)
	default:
		diagnostic.Assert(false, "cannot type assignment %T", a)
	}
	return d
}

func (tie *TypeInferenceEngine) inferIdents(ids []*ast.FreeIdentifier) []*draft {
	drafts := make([]*draft, len(ids))
	for i, id := range ids {
		drafts[i] = tie.inferExpression(id)
	}
	return drafts
}
