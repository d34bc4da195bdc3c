package parser

import (
	"strconv"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/lexer"
)

// ====== Predicates ======
//
//	quantified   ∀ ∃
//	binary       ⇒ ⇔     not associative
//	associative  ∧ ∨     one operator per level
//	not          ¬
//	atom         ⊤ ⊥ finite(E) partition(...) E ∈ F (P)

func (p *Parser) parsePredicate() ast.Predicate {
	if p.failed() {
		return nil
	}
	if p.currentIs(ast.TagForall) || p.currentIs(ast.TagExists) {
		return p.parseQuantifiedPredicate()
	}
	start := p.current
	left := p.parseAssociativePredicate()
	if p.failed() || !(p.currentIs(ast.TagLImp) || p.currentIs(ast.TagLEqv)) {
		return left
	}
	op := p.current
	p.nextToken()
	right := p.parseAssociativePredicate()
	if p.failed() {
		return nil
	}
	if p.currentIs(ast.TagLImp) || p.currentIs(ast.TagLEqv) {
		p.syntaxError(p.current.Span, "parenthesize chained "+op.Literal+" and "+p.current.Literal)
		return nil
	}
	return p.at(start).MakeBinaryPredicate(op.Tag, left, right)
}

func (p *Parser) parseQuantifiedPredicate() ast.Predicate {
	start := p.current
	p.nextToken()
	decls := p.parseDeclarations()
	if !p.expect(lexer.TokenDot, "·") || !p.checkDistinct(decls) {
		return nil
	}
	p.push(decls)
	pred := p.parsePredicate()
	p.pop(decls)
	if p.failed() {
		return nil
	}
	return p.at(start).MakeQuantifiedPredicate(start.Tag, decls, pred)
}

func (p *Parser) parseAssociativePredicate() ast.Predicate {
	start := p.current
	first := p.parseNot()
	if p.failed() || !(p.currentIs(ast.TagLAnd) || p.currentIs(ast.TagLOr)) {
		return first
	}
	op := p.current
	children := []ast.Predicate{first}
	for !p.failed() && p.currentIs(op.Tag) {
		p.nextToken()
		children = append(children, p.parseNot())
	}
	if p.failed() {
		return nil
	}
	if p.currentIs(ast.TagLAnd) || p.currentIs(ast.TagLOr) {
		p.syntaxError(p.current.Span, "parenthesize mixed "+op.Literal+" and "+p.current.Literal)
		return nil
	}
	return p.at(start).MakeAssociativePredicate(op.Tag, children)
}

func (p *Parser) parseNot() ast.Predicate {
	if !p.currentIs(ast.TagNot) {
		return p.parsePredicateAtom()
	}
	start := p.current
	p.nextToken()
	child := p.parseNot()
	if p.failed() {
		return nil
	}
	return p.at(start).MakeUnaryPredicate(ast.TagNot, child)
}

func (p *Parser) parsePredicateAtom() ast.Predicate {
	if p.failed() {
		return nil
	}
	tok := p.current
	switch {
	case tok.Is(ast.TagBTrue), tok.Is(ast.TagBFalse):
		p.nextToken()
		return p.at(tok).MakeLiteralPredicate(tok.Tag)
	case tok.Is(ast.TagForall), tok.Is(ast.TagExists):
		return p.parseQuantifiedPredicate()
	case tok.Is(ast.TagKFinite):
		p.nextToken()
		if !p.expect(lexer.TokenLParen, "(") {
			return nil
		}
		e := p.parseExpression()
		if !p.expect(lexer.TokenRParen, ")") {
			return nil
		}
		return p.at(tok).MakeSimplePredicate(ast.TagKFinite, e)
	case tok.Is(ast.TagKPartition):
		return p.parsePartition()
	case tok.Type == lexer.TokenLParen:
		return p.parseParenthesized()
	}
	return p.parseRelational()
}

// parseParenthesized reads either (P) or a relational predicate whose left
// operand starts with a parenthesis, preferring the latter.
func (p *Parser) parseParenthesized() ast.Predicate {
	m := p.mark()
	if pred := p.parseRelational(); !p.failed() {
		return pred
	}
	p.reset(m)
	p.nextToken()
	pred := p.parsePredicate()
	if !p.expect(lexer.TokenRParen, ")") {
		return nil
	}
	return pred
}

func (p *Parser) parseRelational() ast.Predicate {
	start := p.current
	left := p.parseExpression()
	if p.failed() {
		return nil
	}
	op := p.current
	if op.Type != lexer.TokenOperator || !op.Tag.Is(ast.FamilyRelationalPredicate) {
		p.unexpected("relational operator")
		return nil
	}
	p.nextToken()
	right := p.parseExpression()
	if p.failed() {
		return nil
	}
	return p.at(start).MakeRelationalPredicate(op.Tag, left, right)
}

func (p *Parser) parsePartition() ast.Predicate {
	start := p.current
	if !p.checkFeature(start) {
		return nil
	}
	p.nextToken()
	if !p.expect(lexer.TokenLParen, "(") {
		return nil
	}
	children := []ast.Expression{p.parseExpression()}
	for !p.failed() && p.currentTokenIs(lexer.TokenComma) {
		p.nextToken()
		children = append(children, p.parseExpression())
	}
	if !p.expect(lexer.TokenRParen, ")") {
		return nil
	}
	return p.at(start).MakeMultiplePredicate(ast.TagKPartition, children)
}

// ====== Assignments ======

// parseAssignment parses x, y ≔ E, F and x :∈ S and x, y :∣ P.
func (p *Parser) parseAssignment() ast.Assignment {
	start := p.current
	idents := p.parseAssignedIdentifiers()
	if p.failed() {
		return nil
	}
	op := p.current
	switch op.Type {
	case lexer.TokenBecomesEqualTo:
		p.nextToken()
		values := []ast.Expression{p.parseExpression()}
		for !p.failed() && p.currentTokenIs(lexer.TokenComma) {
			p.nextToken()
			values = append(values, p.parseExpression())
		}
		if p.failed() {
			return nil
		}
		if len(values) != len(idents) {
			p.syntaxError(p.spanFrom(start), "assignment of "+strconv.Itoa(len(values))+" values to "+strconv.Itoa(len(idents))+" identifiers")
			return nil
		}
		return p.at(start).MakeBecomesEqualTo(idents, values)
	case lexer.TokenBecomesMemberOf:
		if len(idents) != 1 {
			p.syntaxError(op.Span, ":∈ assigns a single identifier")
			return nil
		}
		p.nextToken()
		set := p.parseExpression()
		if p.failed() {
			return nil
		}
		return p.at(start).MakeBecomesMemberOf(idents[0], set)
	case lexer.TokenBecomesSuchThat:
		p.nextToken()
		primed := make([]*ast.BoundIdentDecl, len(idents))
		for i, id := range idents {
			primed[i] = p.fac.At(id.Span()).AsPrimedDeclaration(id)
		}
		p.push(primed)
		condition := p.parsePredicate()
		p.pop(primed)
		if p.failed() {
			return nil
		}
		return p.at(start).MakeBecomesSuchThat(idents, primed, condition)
	}
	p.unexpected("≔, :∈ or :∣")
	return nil
}

func (p *Parser) parseAssignedIdentifiers() []*ast.FreeIdentifier {
	var idents []*ast.FreeIdentifier
	seen := make(map[string]bool)
	for {
		tok := p.current
		if !p.expect(lexer.TokenIdentifier, "identifier") {
			return nil
		}
		if ast.IsPrimedName(tok.Literal) {
			p.syntaxError(tok.Span, "cannot assign the after-value "+tok.Literal)
			return nil
		}
		typ := p.parseTypeAnnotation()
		if p.failed() {
			return nil
		}
		if seen[tok.Literal] {
			p.fail(diagnostic.New(diagnostic.DuplicateIdentifier, tok.Span, tok.Literal))
			return nil
		}
		seen[tok.Literal] = true
		idents = append(idents, p.at(tok).MakeFreeIdentifier(tok.Literal, typ))
		if !p.currentTokenIs(lexer.TokenComma) {
			return idents
		}
		p.nextToken()
	}
}
