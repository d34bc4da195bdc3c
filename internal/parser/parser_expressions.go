package parser

import (
	"math/big"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/lexer"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// ====== Expression levels ======
//
// One function per priority level, lowest first:
//
//	quantified   λ ⋃ ⋂
//	maplet       ↦              left associative
//	relation     ↔ ⇸ → ...      not associative
//	set          ∪ ∩ ; ∘  ∖ × ◁ ...  one operator per level, × left associative
//	upto         ‥
//	additive     + −
//	multiplicative  ∗ ÷ mod
//	expn         ^
//	unary        −
//	postfix      ∼ f(x) r[S]
//	primary

// parseExpression parses an expression of the lowest priority.
func (p *Parser) parseExpression() ast.Expression {
	if p.failed() {
		return nil
	}
	switch {
	case p.currentTokenIs(lexer.TokenLambda):
		return p.parseLambda()
	case p.currentIs(ast.TagQUnion), p.currentIs(ast.TagQInter):
		return p.parseQuantifiedUnion()
	}
	return p.parseMaplet()
}

func (p *Parser) parseMaplet() ast.Expression {
	start := p.current
	left := p.parseRelation()
	for !p.failed() && p.currentIs(ast.TagMapsto) {
		p.nextToken()
		right := p.parseRelation()
		if p.failed() {
			return nil
		}
		left = p.at(start).MakeBinaryExpression(ast.TagMapsto, left, right)
	}
	return left
}

func (p *Parser) parseRelation() ast.Expression {
	start := p.current
	left := p.parseSet()
	if p.failed() || !p.current.Tag.IsRelationConstructor() || p.current.Type != lexer.TokenOperator {
		return left
	}
	op := p.current
	p.nextToken()
	right := p.parseSet()
	if p.failed() {
		return nil
	}
	if p.current.Type == lexer.TokenOperator && p.current.Tag.IsRelationConstructor() {
		p.syntaxError(p.current.Span, "parenthesize chained relation constructors "+op.Literal+" and "+p.current.Literal)
		return nil
	}
	return p.at(start).MakeBinaryExpression(op.Tag, left, right)
}

// isSetOperator returns true for the operators of the set level.
func isSetOperator(tok lexer.Token) bool {
	if tok.Type != lexer.TokenOperator {
		return false
	}
	switch tok.Tag {
	case ast.TagBUnion, ast.TagBInter, ast.TagBComp, ast.TagFComp, ast.TagOvr,
		ast.TagSetMinus, ast.TagCProd, ast.TagDProd, ast.TagPProd,
		ast.TagDomRes, ast.TagDomSub, ast.TagRanRes, ast.TagRanSub:
		return true
	}
	return false
}

func (p *Parser) parseSet() ast.Expression {
	start := p.current
	left := p.parseUpTo()
	if p.failed() || !isSetOperator(p.current) {
		return left
	}
	op := p.current
	var result ast.Expression
	switch {
	case op.Tag.Is(ast.FamilyAssociativeExpression):
		children := []ast.Expression{left}
		for !p.failed() && p.currentIs(op.Tag) {
			p.nextToken()
			children = append(children, p.parseUpTo())
		}
		if p.failed() {
			return nil
		}
		result = p.at(start).MakeAssociativeExpression(op.Tag, children)
	case op.Tag == ast.TagCProd:
		result = left
		for !p.failed() && p.currentIs(ast.TagCProd) {
			p.nextToken()
			right := p.parseUpTo()
			if p.failed() {
				return nil
			}
			result = p.at(start).MakeBinaryExpression(ast.TagCProd, result, right)
		}
	default:
		p.nextToken()
		right := p.parseUpTo()
		if p.failed() {
			return nil
		}
		result = p.at(start).MakeBinaryExpression(op.Tag, left, right)
	}
	if isSetOperator(p.current) {
		p.syntaxError(p.current.Span, "parenthesize mixed set operators "+op.Literal+" and "+p.current.Literal)
		return nil
	}
	return result
}

func (p *Parser) parseUpTo() ast.Expression {
	start := p.current
	left := p.parseAdditive()
	if p.failed() || !p.currentIs(ast.TagUpTo) {
		return left
	}
	p.nextToken()
	right := p.parseAdditive()
	if p.failed() {
		return nil
	}
	if p.currentIs(ast.TagUpTo) {
		p.syntaxError(p.current.Span, "parenthesize chained intervals")
		return nil
	}
	return p.at(start).MakeBinaryExpression(ast.TagUpTo, left, right)
}

// parseAdditive reads a − b + c as (a − b) + c and a + b − c as (a + b) − c,
// collecting the operands of consecutive +.
func (p *Parser) parseAdditive() ast.Expression {
	return p.parseLeftChain(ast.TagPlus, func(t lexer.Token) bool { return t.Is(ast.TagMinus) }, p.parseMultiplicative)
}

func (p *Parser) parseMultiplicative() ast.Expression {
	return p.parseLeftChain(ast.TagMul, func(t lexer.Token) bool { return t.Is(ast.TagDiv) || t.Is(ast.TagMod) }, p.parseExpn)
}

// parseLeftChain parses operands joined by the associative operator assoc
// and by the left associative binary operators accepted by binary.
func (p *Parser) parseLeftChain(assoc ast.Tag, binary func(lexer.Token) bool, operand func() ast.Expression) ast.Expression {
	start := p.current
	acc := operand()
	var pending []ast.Expression
	flush := func() {
		if len(pending) > 1 {
			acc = p.at(start).MakeAssociativeExpression(assoc, pending)
		}
		pending = nil
	}
	for !p.failed() && (p.currentIs(assoc) || binary(p.current)) {
		op := p.current
		p.nextToken()
		next := operand()
		if p.failed() {
			return nil
		}
		if op.Tag == assoc {
			if pending == nil {
				pending = []ast.Expression{acc}
			}
			pending = append(pending, next)
			continue
		}
		flush()
		acc = p.at(start).MakeBinaryExpression(op.Tag, acc, next)
	}
	if p.failed() {
		return nil
	}
	flush()
	return acc
}

func (p *Parser) parseExpn() ast.Expression {
	start := p.current
	left := p.parseUnary()
	if p.failed() || !p.currentIs(ast.TagExpn) {
		return left
	}
	p.nextToken()
	right := p.parseUnary()
	if p.failed() {
		return nil
	}
	if p.currentIs(ast.TagExpn) {
		p.syntaxError(p.current.Span, "parenthesize chained exponentiations")
		return nil
	}
	return p.at(start).MakeBinaryExpression(ast.TagExpn, left, right)
}

func (p *Parser) parseUnary() ast.Expression {
	if !p.currentIs(ast.TagMinus) {
		return p.parsePostfix()
	}
	start := p.current
	p.nextToken()
	child := p.parseUnary()
	if p.failed() {
		return nil
	}
	return p.at(start).MakeUnaryExpression(ast.TagUnMinus, child)
}

func (p *Parser) parsePostfix() ast.Expression {
	start := p.current
	e := p.parsePrimary()
	for !p.failed() {
		switch {
		case p.currentIs(ast.TagConverse):
			p.nextToken()
			e = p.at(start).MakeUnaryExpression(ast.TagConverse, e)
		case p.currentTokenIs(lexer.TokenLParen):
			p.nextToken()
			arg := p.parseExpression()
			if !p.expect(lexer.TokenRParen, ")") {
				return nil
			}
			e = p.at(start).MakeBinaryExpression(ast.TagFunImage, e, arg)
		case p.currentTokenIs(lexer.TokenLBracket):
			p.nextToken()
			arg := p.parseExpression()
			if !p.expect(lexer.TokenRBracket, "]") {
				return nil
			}
			e = p.at(start).MakeBinaryExpression(ast.TagRelImage, e, arg)
		default:
			return e
		}
	}
	return nil
}

// ====== Primary expressions ======

func (p *Parser) parsePrimary() ast.Expression {
	if p.failed() {
		return nil
	}
	tok := p.current
	switch tok.Type {
	case lexer.TokenIdentifier:
		p.nextToken()
		typ := p.parseTypeAnnotation()
		if p.failed() {
			return nil
		}
		return p.identifier(tok, typ)
	case lexer.TokenInteger:
		p.nextToken()
		value, ok := new(big.Int).SetString(tok.Literal, 10)
		if !ok {
			p.syntaxError(tok.Span, "malformed integer "+tok.Literal)
			return nil
		}
		return p.at(tok).MakeIntegerLiteral(value)
	case lexer.TokenBoundIndex:
		p.nextToken()
		index, ok := new(big.Int).SetString(tok.Literal, 10)
		if !ok || !index.IsInt64() {
			p.syntaxError(tok.Span, "malformed bound index "+tok.Literal)
			return nil
		}
		typ := p.parseTypeAnnotation()
		if p.failed() {
			return nil
		}
		return p.fac.At(tok.Span).MakeBoundIdentifier(int(index.Int64()), typ)
	case lexer.TokenLParen:
		p.nextToken()
		e := p.parseExpression()
		if !p.expect(lexer.TokenRParen, ")") {
			return nil
		}
		return e
	case lexer.TokenLBrace:
		return p.parseBrace()
	case lexer.TokenLambda:
		return p.parseLambda()
	case lexer.TokenOperator:
		return p.parseOperatorPrimary(tok)
	}
	p.unexpected("expression")
	return nil
}

func (p *Parser) parseOperatorPrimary(tok lexer.Token) ast.Expression {
	switch {
	case tok.Tag.Is(ast.FamilyAtomicExpression):
		if !p.checkFeature(tok) {
			return nil
		}
		p.nextToken()
		typ := p.parseTypeAnnotation()
		if p.failed() {
			return nil
		}
		if typ != nil && (!tok.Tag.IsGenericAtomic() || !ast.IsValidGenericType(tok.Tag, typ)) {
			p.fail(diagnostic.New(diagnostic.InvalidTypeExpression, p.spanFrom(tok), typ.String()))
			return nil
		}
		return p.at(tok).MakeAtomicExpression(tok.Tag, typ)
	case tok.Tag.Is(ast.FamilyUnaryExpression) && tok.Tag != ast.TagUnMinus && tok.Tag != ast.TagConverse:
		p.nextToken()
		if !p.expect(lexer.TokenLParen, "(") {
			return nil
		}
		child := p.parseExpression()
		if !p.expect(lexer.TokenRParen, ")") {
			return nil
		}
		return p.at(tok).MakeUnaryExpression(tok.Tag, child)
	case tok.Tag == ast.TagKBool:
		p.nextToken()
		if !p.expect(lexer.TokenLParen, "(") {
			return nil
		}
		pred := p.parsePredicate()
		if !p.expect(lexer.TokenRParen, ")") {
			return nil
		}
		return p.at(tok).MakeBoolExpression(pred)
	case tok.Tag == ast.TagQUnion || tok.Tag == ast.TagQInter:
		return p.parseQuantifiedUnion()
	}
	p.unexpected("expression")
	return nil
}

// identifier resolves a name against the enclosing binders. A bound
// occurrence without annotation takes the type of its declaration.
func (p *Parser) identifier(tok lexer.Token, typ types.Type) ast.Expression {
	if index, decl, ok := p.lookup(tok.Literal); ok {
		if typ == nil {
			typ, _ = decl.Type()
		}
		return p.at(tok).MakeBoundIdentifier(index, typ)
	}
	return p.at(tok).MakeFreeIdentifier(tok.Literal, typ)
}

// parseTypeAnnotation reads an optional ⦂T suffix. Type expressions mention
// given sets only, so the enclosing binders are hidden while reading T.
func (p *Parser) parseTypeAnnotation() types.Type {
	if p.failed() || !p.currentTokenIs(lexer.TokenTyping) {
		return nil
	}
	p.nextToken()
	saved := p.scope
	p.scope = nil
	e := p.parsePrimary()
	p.scope = saved
	if p.failed() {
		return nil
	}
	t, err := ast.ToType(e)
	if err != nil {
		p.fail(err.(*diagnostic.Diagnostic))
		return nil
	}
	return t
}

// ====== Binders ======

// parseDeclarations reads x, y⦂T, z.
func (p *Parser) parseDeclarations() []*ast.BoundIdentDecl {
	var decls []*ast.BoundIdentDecl
	for {
		tok := p.current
		if !p.expect(lexer.TokenIdentifier, "identifier") {
			return nil
		}
		typ := p.parseTypeAnnotation()
		if p.failed() {
			return nil
		}
		decls = append(decls, p.at(tok).MakeBoundIdentDecl(tok.Literal, typ))
		if !p.currentTokenIs(lexer.TokenComma) {
			return decls
		}
		p.nextToken()
	}
}

// checkDistinct reports the first name declared twice by one binder.
func (p *Parser) checkDistinct(decls []*ast.BoundIdentDecl) bool {
	seen := make(map[string]bool, len(decls))
	for _, d := range decls {
		if seen[d.Name()] {
			p.fail(diagnostic.New(diagnostic.DuplicateIdentifier, d.Span(), d.Name()))
			return false
		}
		seen[d.Name()] = true
	}
	return true
}

// tryDeclarations reads a declaration list only when it is followed by ·,
// and leaves the parser untouched otherwise.
func (p *Parser) tryDeclarations() ([]*ast.BoundIdentDecl, bool) {
	if !p.currentTokenIs(lexer.TokenIdentifier) {
		return nil, false
	}
	m := p.mark()
	decls := p.parseDeclarations()
	if p.failed() || !p.currentTokenIs(lexer.TokenDot) {
		p.restore(m)
		return nil, false
	}
	p.nextToken()
	p.checkDistinct(decls)
	return decls, true
}

// parseBrace parses {x·P ∣ E}, {E ∣ P} and {a, b, c}.
func (p *Parser) parseBrace() ast.Expression {
	start := p.current
	p.nextToken()
	if decls, ok := p.tryDeclarations(); ok {
		if p.failed() {
			return nil
		}
		pred, expr := p.parseBinderBody(decls)
		if !p.expect(lexer.TokenRBrace, "}") {
			return nil
		}
		return p.at(start).MakeQuantifiedExpression(ast.TagCSet, decls, pred, expr, ast.FormExplicit)
	}
	if p.currentTokenIs(lexer.TokenRBrace) {
		p.nextToken()
		return p.at(start).MakeAtomicExpression(ast.TagEmptySet, nil)
	}
	first := p.parseExpression()
	if p.failed() {
		return nil
	}
	if p.currentTokenIs(lexer.TokenMid) {
		e := p.parseImplicitBody(start, ast.TagCSet, first)
		if !p.expect(lexer.TokenRBrace, "}") {
			return nil
		}
		return e
	}
	members := []ast.Expression{first}
	for p.currentTokenIs(lexer.TokenComma) {
		p.nextToken()
		members = append(members, p.parseExpression())
		if p.failed() {
			return nil
		}
	}
	if !p.expect(lexer.TokenRBrace, "}") {
		return nil
	}
	return p.at(start).MakeSetExtension(members)
}

// parseBinderBody reads P ∣ E with decls in scope.
func (p *Parser) parseBinderBody(decls []*ast.BoundIdentDecl) (ast.Predicate, ast.Expression) {
	p.push(decls)
	defer p.pop(decls)
	pred := p.parsePredicate()
	if !p.expect(lexer.TokenMid, "∣") {
		return nil, nil
	}
	expr := p.parseExpression()
	if p.failed() {
		return nil, nil
	}
	return pred, expr
}

// parseImplicitBody reads ∣ P after the expression of an implicit binder,
// which binds every free identifier of that expression.
func (p *Parser) parseImplicitBody(start lexer.Token, tag ast.Tag, expr ast.Expression) ast.Expression {
	free := expr.FreeIdentifiers()
	if len(free) == 0 {
		p.syntaxError(p.spanFrom(start), "implicit binder without free identifiers")
		return nil
	}
	// declaration order is the order of first occurrence
	names := ast.FreeIdentifierNames(expr)
	byName := make(map[string]*ast.FreeIdentifier, len(free))
	for _, id := range free {
		byName[id.Name()] = id
	}
	decls := make([]*ast.BoundIdentDecl, len(names))
	for i, name := range names {
		decls[i] = p.fac.At(byName[name].Span()).AsDeclaration(byName[name])
	}
	body := p.fac.BindTheseIdentifiers(expr, names, 0).(ast.Expression)
	p.nextToken()
	p.push(decls)
	pred := p.parsePredicate()
	p.pop(decls)
	if p.failed() {
		return nil
	}
	form := ast.FormImplicit
	if tag != ast.TagCSet {
		form = ast.FormExplicit
	}
	return p.at(start).MakeQuantifiedExpression(tag, decls, pred, body, form)
}

// parseQuantifiedUnion parses ⋃x·P ∣ E and ⋃E ∣ P, and the same for ⋂.
func (p *Parser) parseQuantifiedUnion() ast.Expression {
	start := p.current
	tag := start.Tag
	p.nextToken()
	if decls, ok := p.tryDeclarations(); ok {
		if p.failed() {
			return nil
		}
		pred, expr := p.parseBinderBody(decls)
		if p.failed() {
			return nil
		}
		return p.at(start).MakeQuantifiedExpression(tag, decls, pred, expr, ast.FormExplicit)
	}
	expr := p.parseExpression()
	if p.failed() {
		return nil
	}
	if !p.currentTokenIs(lexer.TokenMid) {
		p.unexpected("∣")
		return nil
	}
	return p.parseImplicitBody(start, tag, expr)
}

// patternLeaf is one identifier of a lambda pattern.
type patternLeaf struct {
	tok lexer.Token
	typ types.Type
}

// patternNode is a lambda pattern: a leaf or a maplet of two patterns.
type patternNode struct {
	leaf        int
	left, right *patternNode
	start       lexer.Token
	end         int
}

// parseLambda parses λx ↦ y·P ∣ E.
func (p *Parser) parseLambda() ast.Expression {
	start := p.current
	p.nextToken()
	var leaves []patternLeaf
	pattern := p.parsePattern(&leaves)
	if p.failed() {
		return nil
	}
	decls := make([]*ast.BoundIdentDecl, len(leaves))
	seen := make(map[string]bool)
	for k, leaf := range leaves {
		if seen[leaf.tok.Literal] {
			p.fail(diagnostic.New(diagnostic.DuplicateIdentifier, leaf.tok.Span, leaf.tok.Literal))
			return nil
		}
		seen[leaf.tok.Literal] = true
		decls[k] = p.fac.At(leaf.tok.Span).MakeBoundIdentDecl(leaf.tok.Literal, leaf.typ)
	}
	if !p.expect(lexer.TokenDot, "·") {
		return nil
	}
	pred, expr := p.parseBinderBody(decls)
	if p.failed() {
		return nil
	}
	maplet := p.at(start).MakeBinaryExpression(ast.TagMapsto, p.buildPattern(pattern, leaves), expr)
	return p.at(start).MakeQuantifiedExpression(ast.TagCSet, decls, pred, maplet, ast.FormLambda)
}

func (p *Parser) parsePattern(leaves *[]patternLeaf) *patternNode {
	start := p.current
	node := p.parsePatternTerm(leaves)
	for !p.failed() && p.currentIs(ast.TagMapsto) {
		p.nextToken()
		right := p.parsePatternTerm(leaves)
		node = &patternNode{leaf: -1, left: node, right: right, start: start, end: p.pos}
	}
	return node
}

func (p *Parser) parsePatternTerm(leaves *[]patternLeaf) *patternNode {
	if p.failed() {
		return nil
	}
	tok := p.current
	if p.currentTokenIs(lexer.TokenLParen) {
		p.nextToken()
		node := p.parsePattern(leaves)
		if !p.expect(lexer.TokenRParen, ")") {
			return nil
		}
		return node
	}
	if !p.expect(lexer.TokenIdentifier, "identifier") {
		return nil
	}
	typ := p.parseTypeAnnotation()
	*leaves = append(*leaves, patternLeaf{tok: tok, typ: typ})
	return &patternNode{leaf: len(*leaves) - 1, start: tok, end: p.pos}
}

// buildPattern turns a pattern into bound identifiers: the k-th of n
// leaves is bound with index n-1-k.
func (p *Parser) buildPattern(node *patternNode, leaves []patternLeaf) ast.Expression {
	n := len(leaves)
	if node.leaf >= 0 {
		leaf := leaves[node.leaf]
		return p.fac.At(p.spanFrom(leaf.tok)).MakeBoundIdentifier(n-1-node.leaf, leaf.typ)
	}
	left := p.buildPattern(node.left, leaves)
	right := p.buildPattern(node.right, leaves)
	span := node.start.Span
	span.End = p.tokens[node.end-1].Span.End
	return p.fac.At(span).MakeBinaryExpression(ast.TagMapsto, left, right)
}
