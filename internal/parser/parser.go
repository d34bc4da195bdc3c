// Package parser implements the recursive descent parser of formulas.
// It accepts the output of the printer, in mathematical or ASCII notation,
// and builds formulas through a factory, so every node carries the span of
// text it was read from.
package parser

import (
	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/lexer"
	"github.com/17451k/rodincore-sub001/internal/position"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// Config contains parser configuration.
type Config struct {
	// Factory builds the nodes. Nil uses the default factory.
	Factory *ast.Factory
	// Filename is reported in spans and diagnostics.
	Filename string
}

// Parser represents the recursive descent parser of one formula string.
type Parser struct {
	tokens   []lexer.Token
	pos      int
	current  lexer.Token
	fac      *ast.Factory
	filename string

	// scope holds the enclosing declarations, innermost last
	scope []*ast.BoundIdentDecl

	err      *diagnostic.Diagnostic // first problem of the current attempt
	furthest *diagnostic.Diagnostic // furthest problem of abandoned attempts
}

// NewParser creates a new parser instance
func NewParser(input string, config Config) *Parser {
	fac := config.Factory
	if fac == nil {
		fac = ast.DefaultFactory()
	}
	p := &Parser{
		tokens:   lexer.NewWithFilename(input, config.Filename).Tokenize(),
		fac:      fac,
		filename: config.Filename,
	}
	p.current = p.tokens[0]
	return p
}

// ParseExpression parses the whole input as an expression.
func (p *Parser) ParseExpression() (ast.Expression, error) {
	e := p.parseExpression()
	if err := p.finish(); err != nil {
		return nil, err
	}
	return e, nil
}

// ParsePredicate parses the whole input as a predicate.
func (p *Parser) ParsePredicate() (ast.Predicate, error) {
	pred := p.parsePredicate()
	if err := p.finish(); err != nil {
		return nil, err
	}
	return pred, nil
}

// ParseAssignment parses the whole input as an assignment.
func (p *Parser) ParseAssignment() (ast.Assignment, error) {
	a := p.parseAssignment()
	if err := p.finish(); err != nil {
		return nil, err
	}
	return a, nil
}

// ParseType parses the whole input as a type expression such as ℙ(S×ℤ).
func (p *Parser) ParseType() (types.Type, error) {
	e := p.parseExpression()
	if err := p.finish(); err != nil {
		return nil, err
	}
	t, err := ast.ToType(e)
	if err != nil {
		return nil, diagnostic.List{err.(*diagnostic.Diagnostic)}
	}
	return t, nil
}

// finish checks that the whole input was read and returns the problem
// found, as a diagnostic.List, or nil.
func (p *Parser) finish() error {
	if p.err == nil && p.current.Type != lexer.TokenEOF {
		p.unexpected("end of formula")
	}
	if p.err == nil {
		return nil
	}
	d := p.err
	if p.furthest != nil && p.furthest.Span.Start.Offset > d.Span.Start.Offset {
		d = p.furthest
	}
	return diagnostic.List{d}
}

// ====== Tokens ======

// nextToken advances the parser to the next token
func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.current = p.tokens[p.pos]
}

// peek returns the token after the current one
func (p *Parser) peek() lexer.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

// currentTokenIs checks if the current token is of the given type
func (p *Parser) currentTokenIs(tokenType lexer.TokenType) bool {
	return p.current.Type == tokenType
}

// currentIs checks if the current token is the given operator
func (p *Parser) currentIs(tag ast.Tag) bool {
	return p.current.Is(tag)
}

// expect consumes the current token if it has the given type
func (p *Parser) expect(tokenType lexer.TokenType, what string) bool {
	if p.err != nil {
		return false
	}
	if !p.currentTokenIs(tokenType) {
		p.unexpected(what)
		return false
	}
	p.nextToken()
	return true
}

// ====== Errors ======

func (p *Parser) fail(d *diagnostic.Diagnostic) {
	if p.err == nil {
		p.err = d
	}
}

func (p *Parser) failed() bool { return p.err != nil }

func (p *Parser) unexpected(expected string) {
	if p.current.Type == lexer.TokenError {
		p.fail(diagnostic.New(diagnostic.UnknownOperator, p.current.Span, p.current.Literal))
		return
	}
	p.fail(diagnostic.New(diagnostic.UnexpectedToken, p.current.Span, p.current.Describe(), expected))
}

func (p *Parser) syntaxError(span position.Span, message string) {
	p.fail(diagnostic.New(diagnostic.SyntaxError, span, message))
}

// mark is a parser state to come back to.
type mark struct {
	pos   int
	scope int
}

func (p *Parser) mark() mark { return mark{pos: p.pos, scope: len(p.scope)} }

// reset abandons the current attempt and goes back to m.
func (p *Parser) reset(m mark) {
	if p.err != nil && (p.furthest == nil || p.err.Span.Start.Offset > p.furthest.Span.Start.Offset) {
		p.furthest = p.err
	}
	p.err = nil
	p.pos = m.pos
	p.current = p.tokens[p.pos]
	p.scope = p.scope[:m.scope]
}

// restore goes back to m after a lookahead, forgetting what it found.
func (p *Parser) restore(m mark) {
	p.err = nil
	p.pos = m.pos
	p.current = p.tokens[p.pos]
	p.scope = p.scope[:m.scope]
}

// ====== Spans ======

// spanFrom returns the span from start to the end of the last token read.
func (p *Parser) spanFrom(start lexer.Token) position.Span {
	end := start.Span.End
	if p.pos > 0 {
		if last := p.tokens[p.pos-1].Span.End; last.Offset > end.Offset {
			end = last
		}
	}
	return position.Span{Start: start.Span.Start, End: end}
}

// at returns the factory stamping nodes with the span from start.
func (p *Parser) at(start lexer.Token) *ast.Factory {
	return p.fac.At(p.spanFrom(start))
}

// ====== Scope ======

func (p *Parser) push(decls []*ast.BoundIdentDecl) {
	p.scope = append(p.scope, decls...)
}

func (p *Parser) pop(decls []*ast.BoundIdentDecl) {
	p.scope = p.scope[:len(p.scope)-len(decls)]
}

// lookup returns the de Bruijn index and the declaration of a bound name.
func (p *Parser) lookup(name string) (int, *ast.BoundIdentDecl, bool) {
	for i := len(p.scope) - 1; i >= 0; i-- {
		if p.scope[i].Name() == name {
			return len(p.scope) - 1 - i, p.scope[i], true
		}
	}
	return 0, nil, false
}

// checkFeature reports an operator missing from the factory's language.
func (p *Parser) checkFeature(tok lexer.Token) bool {
	if p.fac.SupportsTag(tok.Tag) {
		return true
	}
	p.fail(diagnostic.New(diagnostic.UnsupportedLanguageFeature, tok.Span, tok.Literal, p.fac.Version().String()))
	return false
}

// ====== Package functions ======

// ParseExpression parses input with the default configuration.
func ParseExpression(input string) (ast.Expression, error) {
	return NewParser(input, Config{}).ParseExpression()
}

// ParsePredicate parses input with the default configuration.
func ParsePredicate(input string) (ast.Predicate, error) {
	return NewParser(input, Config{}).ParsePredicate()
}

// ParseAssignment parses input with the default configuration.
func ParseAssignment(input string) (ast.Assignment, error) {
	return NewParser(input, Config{}).ParseAssignment()
}

// ParseType parses input with the default configuration.
func ParseType(input string) (types.Type, error) {
	return NewParser(input, Config{}).ParseType()
}

// Kind tells which kind of formula a string holds.
type Kind int

const (
	KindExpression Kind = iota
	KindPredicate
	KindAssignment
)

func (k Kind) String() string {
	switch k {
	case KindExpression:
		return "expression"
	case KindPredicate:
		return "predicate"
	case KindAssignment:
		return "assignment"
	default:
		return "unknown"
	}
}

// ParseFormula parses input as an assignment, a predicate or an
// expression, in that order of preference.
func ParseFormula(input string, config Config) (ast.Formula, Kind, error) {
	if a, err := NewParser(input, config).ParseAssignment(); err == nil {
		return a, KindAssignment, nil
	}
	pred, predErr := NewParser(input, config).ParsePredicate()
	if predErr == nil {
		return pred, KindPredicate, nil
	}
	e, exprErr := NewParser(input, config).ParseExpression()
	if exprErr == nil {
		return e, KindExpression, nil
	}
	// report the attempt that read further
	if furthest(exprErr) > furthest(predErr) {
		return nil, KindExpression, exprErr
	}
	return nil, KindPredicate, predErr
}

func furthest(err error) int {
	if l, ok := err.(diagnostic.List); ok && len(l) > 0 {
		return l[0].Span.Start.Offset
	}
	return -1
}
