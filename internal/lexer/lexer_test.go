package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/17451k/rodincore-sub001/internal/ast"
)

type expected struct {
	typ     TokenType
	literal string
	tag     ast.Tag
}

func lex(t *testing.T, input string, want []expected) {
	t.Helper()
	tokens := New(input).Tokenize()
	require.Len(t, tokens, len(want)+1, "tokens of %q: %v", input, tokens)
	for i, w := range want {
		tok := tokens[i]
		assert.Equal(t, w.typ, tok.Type, "token %d of %q", i, input)
		assert.Equal(t, w.literal, tok.Literal, "token %d of %q", i, input)
		if w.typ == TokenOperator {
			assert.Equal(t, w.tag, tok.Tag, "token %d of %q", i, input)
		}
	}
	assert.Equal(t, TokenEOF, tokens[len(tokens)-1].Type)
}

func TestMathematicalNotation(t *testing.T) {
	lex(t, "x ∈ ℕ1 ∧ f(x) ≠ ∅", []expected{
		{TokenIdentifier, "x", 0},
		{TokenOperator, "∈", ast.TagIn},
		{TokenOperator, "ℕ1", ast.TagNatural1},
		{TokenOperator, "∧", ast.TagLAnd},
		{TokenIdentifier, "f", 0},
		{TokenLParen, "(", 0},
		{TokenIdentifier, "x", 0},
		{TokenRParen, ")", 0},
		{TokenOperator, "≠", ast.TagNotEqual},
		{TokenOperator, "∅", ast.TagEmptySet},
	})
}

func TestASCIINotation(t *testing.T) {
	lex(t, "!x.x : S => x |-> y /: r <+ s", []expected{
		{TokenOperator, "!", ast.TagForall},
		{TokenIdentifier, "x", 0},
		{TokenDot, ".", 0},
		{TokenIdentifier, "x", 0},
		{TokenOperator, ":", ast.TagIn},
		{TokenIdentifier, "S", 0},
		{TokenOperator, "=>", ast.TagLImp},
		{TokenIdentifier, "x", 0},
		{TokenOperator, "|->", ast.TagMapsto},
		{TokenIdentifier, "y", 0},
		{TokenOperator, "/:", ast.TagNotIn},
		{TokenIdentifier, "r", 0},
		{TokenOperator, "<+", ast.TagOvr},
		{TokenIdentifier, "s", 0},
	})
}

func TestLongestMatch(t *testing.T) {
	lex(t, "a <<-> b .. c ** d", []expected{
		{TokenIdentifier, "a", 0},
		{TokenOperator, "<<->", ast.TagTRel},
		{TokenIdentifier, "b", 0},
		{TokenOperator, "..", ast.TagUpTo},
		{TokenIdentifier, "c", 0},
		{TokenOperator, "**", ast.TagCProd},
		{TokenIdentifier, "d", 0},
	})
}

func TestKeywords(t *testing.T) {
	lex(t, "card(S) mod 2 = min(T)", []expected{
		{TokenOperator, "card", ast.TagKCard},
		{TokenLParen, "(", 0},
		{TokenIdentifier, "S", 0},
		{TokenRParen, ")", 0},
		{TokenOperator, "mod", ast.TagMod},
		{TokenInteger, "2", 0},
		{TokenOperator, "=", ast.TagEqual},
		{TokenOperator, "min", ast.TagKMin},
		{TokenLParen, "(", 0},
		{TokenIdentifier, "T", 0},
		{TokenRParen, ")", 0},
	})
	assert.True(t, IsKeyword("partition"))
	assert.False(t, IsKeyword("cardinal"))
}

func TestMinusSign(t *testing.T) {
	t.Run("after an operand", func(t *testing.T) {
		lex(t, "x−1", []expected{
			{TokenIdentifier, "x", 0},
			{TokenOperator, "−", ast.TagMinus},
			{TokenInteger, "1", 0},
		})
	})
	t.Run("negative literal", func(t *testing.T) {
		lex(t, "x = −1", []expected{
			{TokenIdentifier, "x", 0},
			{TokenOperator, "=", ast.TagEqual},
			{TokenInteger, "-1", 0},
		})
	})
	t.Run("before an identifier", func(t *testing.T) {
		lex(t, "−x", []expected{
			{TokenOperator, "−", ast.TagMinus},
			{TokenIdentifier, "x", 0},
		})
	})
	t.Run("after a parenthesis", func(t *testing.T) {
		lex(t, "f(x) - 2", []expected{
			{TokenIdentifier, "f", 0},
			{TokenLParen, "(", 0},
			{TokenIdentifier, "x", 0},
			{TokenRParen, ")", 0},
			{TokenOperator, "-", ast.TagMinus},
			{TokenInteger, "2", 0},
		})
	})
}

func TestPrimedIdentifiersAndBoundIndices(t *testing.T) {
	lex(t, "x' = [[1]] + x0", []expected{
		{TokenIdentifier, "x'", 0},
		{TokenOperator, "=", ast.TagEqual},
		{TokenBoundIndex, "1", 0},
		{TokenOperator, "+", ast.TagPlus},
		{TokenIdentifier, "x0", 0},
	})
}

func TestAssignmentSymbols(t *testing.T) {
	lex(t, "x ≔ 1", []expected{{TokenIdentifier, "x", 0}, {TokenBecomesEqualTo, "≔", 0}, {TokenInteger, "1", 0}})
	lex(t, "x :: S", []expected{{TokenIdentifier, "x", 0}, {TokenBecomesMemberOf, "::", 0}, {TokenIdentifier, "S", 0}})
	lex(t, "x :∣ ⊤", []expected{{TokenIdentifier, "x", 0}, {TokenBecomesSuchThat, ":∣", 0}, {TokenOperator, "⊤", ast.TagBTrue}})
}

func TestInvalidCharacter(t *testing.T) {
	tokens := New("x ? y").Tokenize()
	require.Len(t, tokens, 4)
	assert.Equal(t, TokenError, tokens[1].Type)
	assert.Equal(t, "?", tokens[1].Literal)
}

func TestSpans(t *testing.T) {
	tokens := NewWithFilename("a ∧\n  b", "inv.txt").Tokenize()
	require.Len(t, tokens, 4)

	b := tokens[2]
	assert.Equal(t, "b", b.Literal)
	assert.Equal(t, "inv.txt", b.Span.Start.Filename)
	assert.Equal(t, 2, b.Span.Start.Line)
	assert.Equal(t, 3, b.Span.Start.Column)
	assert.Equal(t, 6, b.Span.Start.Offset)
	assert.Equal(t, 7, b.Span.End.Offset)
}

func TestIsValidIdentifier(t *testing.T) {
	for name, valid := range map[string]bool{
		"x":     true,
		"x'":    true,
		"count": true,
		"x1_y":  true,
		"card":  false,
		"1x":    false,
		"x y":   false,
		"":      false,
		"ℕ":     false,
	} {
		assert.Equal(t, valid, IsValidIdentifier(name), name)
	}
}
