// Package lexer splits formula strings into tokens.
// Both the mathematical notation and its ASCII spelling are accepted.
package lexer

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/17451k/rodincore-sub001/internal/position"
)

// symbolSpellings holds the keys of symbols, longest first, so that the
// lexer always takes the longest match.
var symbolSpellings = func() [][]rune {
	result := make([][]rune, 0, len(symbols))
	for s := range symbols {
		result = append(result, []rune(s))
	}
	sort.Slice(result, func(i, j int) bool {
		if len(result[i]) != len(result[j]) {
			return len(result[i]) > len(result[j])
		}
		return string(result[i]) < string(result[j])
	})
	return result
}()

// Lexer represents the lexical analyzer of one formula string.
type Lexer struct {
	input    []rune
	position int // current position in input (points to current char)
	ch       rune
	line     int // current line number
	column   int // current column number
	filename string
	previous Token // last token returned, deciding how a minus sign reads
}

// New creates a new lexer instance
func New(input string) *Lexer {
	return NewWithFilename(input, "")
}

// NewWithFilename creates a new lexer instance with filename for error reporting
func NewWithFilename(input, filename string) *Lexer {
	l := &Lexer{
		input:    []rune(input),
		position: -1,
		line:     1,
		filename: filename,
		previous: Token{Type: TokenEOF},
	}
	l.readChar()
	return l
}

// readChar advances to the next character
func (l *Lexer) readChar() {
	if l.position >= 0 && l.position < len(l.input) && l.input[l.position] == '\n' {
		l.line++
		l.column = 0
	}
	l.position++
	l.column++
	if l.position >= len(l.input) {
		l.ch = 0 // NUL represents end of input
		return
	}
	l.ch = l.input[l.position]
}

// peekChar returns the character after the current one
func (l *Lexer) peekChar() rune {
	return l.peekAt(1)
}

func (l *Lexer) peekAt(n int) rune {
	if l.position+n >= len(l.input) {
		return 0
	}
	return l.input[l.position+n]
}

func (l *Lexer) atEnd() bool { return l.position >= len(l.input) }

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) currentPosition() position.Position {
	return position.Position{Filename: l.filename, Line: l.line, Column: l.column, Offset: l.position}
}

// NextToken returns the next token. At the end of the input it keeps
// returning TokenEOF.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	start := l.currentPosition()

	var tok Token
	switch {
	case l.atEnd():
		tok = Token{Type: TokenEOF}
	case isIdentifierStart(l.ch):
		word := l.readIdentifier()
		tok = Token{Type: TokenIdentifier, Literal: word}
		if sym, ok := keywords[word]; ok {
			tok.Type, tok.Tag = sym.typ, sym.tag
		}
	case isDigit(l.ch):
		tok = Token{Type: TokenInteger, Literal: l.readNumber()}
	case l.isNegativeLiteral():
		l.readChar()
		tok = Token{Type: TokenInteger, Literal: "-" + l.readNumber()}
	case l.ch == '[' && l.peekChar() == '[' && isDigit(l.peekAt(2)):
		tok = l.readBoundIndex()
	default:
		tok = l.readSymbol()
	}
	tok.Span = position.Span{Start: start, End: l.currentPosition()}
	l.previous = tok
	return tok
}

// Tokenize returns every token of the input, ending with TokenEOF.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

// isNegativeLiteral returns true at a minus sign starting a negative
// integer literal: directly followed by a digit and not after an operand.
func (l *Lexer) isNegativeLiteral() bool {
	return (l.ch == '−' || l.ch == '-') && isDigit(l.peekChar()) && !l.previous.EndsOperand()
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for !l.atEnd() && isIdentifierPart(l.ch) {
		l.readChar()
	}
	if l.ch == '\'' {
		l.readChar()
	}
	return string(l.input[start:l.position])
}

func (l *Lexer) readNumber() string {
	start := l.position
	for !l.atEnd() && isDigit(l.ch) {
		l.readChar()
	}
	return string(l.input[start:l.position])
}

func (l *Lexer) readBoundIndex() Token {
	start := l.position
	l.readChar()
	l.readChar()
	digits := l.readNumber()
	if l.ch != ']' || l.peekChar() != ']' {
		return Token{Type: TokenError, Literal: string(l.input[start:l.position])}
	}
	l.readChar()
	l.readChar()
	return Token{Type: TokenBoundIndex, Literal: digits}
}

func (l *Lexer) readSymbol() Token {
	for _, spelling := range symbolSpellings {
		if l.hasPrefix(spelling) {
			for range spelling {
				l.readChar()
			}
			sym := symbols[string(spelling)]
			return Token{Type: sym.typ, Tag: sym.tag, Literal: string(spelling)}
		}
	}
	ch := l.ch
	l.readChar()
	return Token{Type: TokenError, Literal: string(ch)}
}

func (l *Lexer) hasPrefix(spelling []rune) bool {
	if l.position+len(spelling) > len(l.input) {
		return false
	}
	for i, r := range spelling {
		if l.input[l.position+i] != r {
			return false
		}
	}
	return true
}

func isIdentifierStart(ch rune) bool {
	return (unicode.IsLetter(ch) || ch == '_' || ch == '$') && !reservedLetters[ch]
}

func isIdentifierPart(ch rune) bool {
	return isIdentifierStart(ch) || unicode.IsDigit(ch)
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

// IsValidIdentifier returns true if name lexes as a single identifier,
// possibly primed, that is not a keyword.
func IsValidIdentifier(name string) bool {
	if name == "" || !utf8.ValidString(name) {
		return false
	}
	l := New(name)
	tok := l.NextToken()
	return tok.Type == TokenIdentifier && l.NextToken().Type == TokenEOF
}
