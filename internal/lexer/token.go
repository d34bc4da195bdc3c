package lexer

import (
	"fmt"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/position"
)

// TokenType represents the type of a token
type TokenType int

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenIdentifier
	TokenInteger
	TokenBoundIndex // [[n]], a loose bound identifier

	// Operators carrying a formula tag
	TokenOperator

	// Binders
	TokenLambda

	// Assignments
	TokenBecomesEqualTo
	TokenBecomesMemberOf
	TokenBecomesSuchThat

	// Punctuation
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenComma
	TokenDot    // ·
	TokenMid    // ∣
	TokenTyping // ⦂
)

var tokenNames = map[TokenType]string{
	TokenEOF:             "EOF",
	TokenError:           "ERROR",
	TokenIdentifier:      "IDENTIFIER",
	TokenInteger:         "INTEGER",
	TokenBoundIndex:      "BOUND_INDEX",
	TokenOperator:        "OPERATOR",
	TokenLambda:          "LAMBDA",
	TokenBecomesEqualTo:  "BECOMES_EQUAL_TO",
	TokenBecomesMemberOf: "BECOMES_MEMBER_OF",
	TokenBecomesSuchThat: "BECOMES_SUCH_THAT",
	TokenLParen:          "LPAREN",
	TokenRParen:          "RPAREN",
	TokenLBrace:          "LBRACE",
	TokenRBrace:          "RBRACE",
	TokenLBracket:        "LBRACKET",
	TokenRBracket:        "RBRACKET",
	TokenComma:           "COMMA",
	TokenDot:             "DOT",
	TokenMid:             "MID",
	TokenTyping:          "TYPING",
}

// Token represents a lexical token with position information
type Token struct {
	Type    TokenType
	Literal string
	// Tag is the operator of a TokenOperator.
	Tag  ast.Tag
	Span position.Span
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Type == TokenOperator {
		return fmt.Sprintf("{Type: %s(%s), Literal: %q, Span: %s}", t.Type, t.Tag, t.Literal, t.Span)
	}
	return fmt.Sprintf("{Type: %s, Literal: %q, Span: %s}", t.Type, t.Literal, t.Span)
}

// Is returns true if t is the operator tag.
func (t Token) Is(tag ast.Tag) bool {
	return t.Type == TokenOperator && t.Tag == tag
}

// Describe returns the token as shown in diagnostics.
func (t Token) Describe() string {
	switch t.Type {
	case TokenEOF:
		return "end of formula"
	case TokenError:
		return fmt.Sprintf("invalid character %q", t.Literal)
	}
	return fmt.Sprintf("%q", t.Literal)
}

// EndsOperand returns true if an expression may end with t. A minus sign
// directly following such a token is a binary operator.
func (t Token) EndsOperand() bool {
	switch t.Type {
	case TokenIdentifier, TokenInteger, TokenBoundIndex, TokenRParen, TokenRBrace, TokenRBracket:
		return true
	case TokenOperator:
		return t.Tag.Is(ast.FamilyAtomicExpression) || t.Tag == ast.TagConverse
	}
	return false
}

type symbol struct {
	typ TokenType
	tag ast.Tag
}

func op(tag ast.Tag) symbol { return symbol{typ: TokenOperator, tag: tag} }

func punct(typ TokenType) symbol { return symbol{typ: typ} }

// symbols lists the mathematical spellings of tokens, each with an
// equivalent ASCII spelling where one exists.
var symbols = map[string]symbol{
	"(": punct(TokenLParen), ")": punct(TokenRParen),
	"{": punct(TokenLBrace), "}": punct(TokenRBrace),
	"[": punct(TokenLBracket), "]": punct(TokenRBracket),
	",": punct(TokenComma),
	"·": punct(TokenDot), ".": punct(TokenDot),
	"∣": punct(TokenMid), "|": punct(TokenMid),
	"⦂": punct(TokenTyping),
	"λ": punct(TokenLambda), "%": punct(TokenLambda),
	"≔": punct(TokenBecomesEqualTo), ":=": punct(TokenBecomesEqualTo),
	":∈": punct(TokenBecomesMemberOf), "::": punct(TokenBecomesMemberOf),
	":∣": punct(TokenBecomesSuchThat), ":|": punct(TokenBecomesSuchThat),

	"=": op(ast.TagEqual),
	"≠": op(ast.TagNotEqual), "/=": op(ast.TagNotEqual),
	"<": op(ast.TagLt),
	"≤": op(ast.TagLe), "<=": op(ast.TagLe),
	">": op(ast.TagGt),
	"≥": op(ast.TagGe), ">=": op(ast.TagGe),
	"∈": op(ast.TagIn), ":": op(ast.TagIn),
	"∉": op(ast.TagNotIn), "/:": op(ast.TagNotIn),
	"⊂": op(ast.TagSubset), "<<:": op(ast.TagSubset),
	"⊄": op(ast.TagNotSubset), "/<<:": op(ast.TagNotSubset),
	"⊆": op(ast.TagSubsetEq), "<:": op(ast.TagSubsetEq),
	"⊈": op(ast.TagNotSubsetEq), "/<:": op(ast.TagNotSubsetEq),

	"↦": op(ast.TagMapsto), "|->": op(ast.TagMapsto),
	"↔": op(ast.TagRel), "<->": op(ast.TagRel),
	"\ue100": op(ast.TagTRel), "<<->": op(ast.TagTRel),
	"\ue101": op(ast.TagSRel), "<->>": op(ast.TagSRel),
	"\ue102": op(ast.TagSTRel), "<<->>": op(ast.TagSTRel),
	"⇸": op(ast.TagPFun), "+->": op(ast.TagPFun),
	"→": op(ast.TagTFun), "-->": op(ast.TagTFun),
	"⤔": op(ast.TagPInj), ">+>": op(ast.TagPInj),
	"↣": op(ast.TagTInj), ">->": op(ast.TagTInj),
	"⤀": op(ast.TagPSur), "+>>": op(ast.TagPSur),
	"↠": op(ast.TagTSur), "->>": op(ast.TagTSur),
	"⤖": op(ast.TagTBij), ">->>": op(ast.TagTBij),
	"∖": op(ast.TagSetMinus), "\\": op(ast.TagSetMinus),
	"×": op(ast.TagCProd), "**": op(ast.TagCProd),
	"⊗": op(ast.TagDProd), "><": op(ast.TagDProd),
	"∥": op(ast.TagPProd), "||": op(ast.TagPProd),
	"◁": op(ast.TagDomRes), "<|": op(ast.TagDomRes),
	"⩤": op(ast.TagDomSub), "<<|": op(ast.TagDomSub),
	"▷": op(ast.TagRanRes), "|>": op(ast.TagRanRes),
	"⩥": op(ast.TagRanSub), "|>>": op(ast.TagRanSub),
	"‥": op(ast.TagUpTo), "..": op(ast.TagUpTo),
	"−": op(ast.TagMinus), "-": op(ast.TagMinus),
	"÷": op(ast.TagDiv), "/": op(ast.TagDiv),
	"^": op(ast.TagExpn),

	"∪": op(ast.TagBUnion), "\\/": op(ast.TagBUnion),
	"∩": op(ast.TagBInter), "/\\": op(ast.TagBInter),
	"∘": op(ast.TagBComp),
	";": op(ast.TagFComp),
	"\ue103": op(ast.TagOvr), "<+": op(ast.TagOvr),
	"+": op(ast.TagPlus),
	"∗": op(ast.TagMul), "*": op(ast.TagMul),

	"⇒": op(ast.TagLImp), "=>": op(ast.TagLImp),
	"⇔": op(ast.TagLEqv), "<=>": op(ast.TagLEqv),
	"∧": op(ast.TagLAnd), "&": op(ast.TagLAnd),
	"∨": op(ast.TagLOr),
	"¬": op(ast.TagNot),
	"⊤": op(ast.TagBTrue),
	"⊥": op(ast.TagBFalse),

	"ℤ":  op(ast.TagInteger),
	"ℕ":  op(ast.TagNatural),
	"ℕ1": op(ast.TagNatural1),
	"∅":  op(ast.TagEmptySet), "{}": op(ast.TagEmptySet),
	"ℙ":  op(ast.TagPow),
	"ℙ1": op(ast.TagPow1),
	"∼":  op(ast.TagConverse), "~": op(ast.TagConverse),

	"∀": op(ast.TagForall), "!": op(ast.TagForall),
	"∃": op(ast.TagExists), "#": op(ast.TagExists),
	"⋃": op(ast.TagQUnion),
	"⋂": op(ast.TagQInter),
}

// keywords maps reserved words to their tokens.
var keywords = map[string]symbol{
	"card":      op(ast.TagKCard),
	"dom":       op(ast.TagKDom),
	"ran":       op(ast.TagKRan),
	"min":       op(ast.TagKMin),
	"max":       op(ast.TagKMax),
	"union":     op(ast.TagKUnion),
	"inter":     op(ast.TagKInter),
	"bool":      op(ast.TagKBool),
	"finite":    op(ast.TagKFinite),
	"partition": op(ast.TagKPartition),
	"mod":       op(ast.TagMod),
	"pred":      op(ast.TagKPred),
	"succ":      op(ast.TagKSucc),
	"prj1":      op(ast.TagKPrj1Gen),
	"prj2":      op(ast.TagKPrj2Gen),
	"id":        op(ast.TagKIdGen),
	"BOOL":      op(ast.TagBool),
	"TRUE":      op(ast.TagTrue),
	"FALSE":     op(ast.TagFalse),

	// ASCII spellings
	"circ":   op(ast.TagBComp),
	"or":     op(ast.TagLOr),
	"not":    op(ast.TagNot),
	"true":   op(ast.TagBTrue),
	"false":  op(ast.TagBFalse),
	"INT":    op(ast.TagInteger),
	"NAT":    op(ast.TagNatural),
	"NAT1":   op(ast.TagNatural1),
	"POW":    op(ast.TagPow),
	"POW1":   op(ast.TagPow1),
	"UNION":  op(ast.TagQUnion),
	"INTER":  op(ast.TagQInter),
	"oftype": punct(TokenTyping),
}

// reservedLetters are letters that start symbols, never identifiers.
var reservedLetters = map[rune]bool{'λ': true, 'ℕ': true, 'ℤ': true, 'ℙ': true}

// IsKeyword returns true if word cannot be used as an identifier.
func IsKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}
