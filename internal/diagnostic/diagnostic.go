// Diagnostic system for the formula engine.
// Provides the problem taxonomy shared by the parser, the type checker,
// the legibility checker and the rewriting engine.

package diagnostic

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/17451k/rodincore-sub001/internal/position"
)

// Level represents the severity level of a diagnostic message.
type Level int

const (
	LevelError Level = iota
	LevelWarning
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Category groups problem kinds by the pass that reports them.
type Category int

const (
	CategorySyntax Category = iota
	CategoryType
	CategoryScope
	CategoryStructure
)

func (c Category) String() string {
	switch c {
	case CategorySyntax:
		return "syntax"
	case CategoryType:
		return "type"
	case CategoryScope:
		return "scope"
	case CategoryStructure:
		return "structure"
	default:
		return "unknown"
	}
}

// Kind identifies a problem. Kinds are values, not error types: every
// problem is reported as a *Diagnostic carrying one of them.
type Kind int

const (
	SyntaxError Kind = iota
	UnexpectedToken
	UnknownOperator
	UnsupportedLanguageFeature
	InvalidTypeExpression

	TypeCheckFailure
	TypesDoNotMatch
	Circularity
	TypeUnknown
	IncompatibleEnvironment
	UndeclaredIdentifier

	FreeIdentifierHasBoundOccurrences
	BoundIdentifierHasFreeOccurrences
	BoundIdentifierIndexOutOfBounds
	DuplicateIdentifier

	InvalidPosition
	InvalidReplacement
)

var kindNames = map[Kind]string{
	SyntaxError:                       "SyntaxError",
	UnexpectedToken:                   "UnexpectedToken",
	UnknownOperator:                   "UnknownOperator",
	UnsupportedLanguageFeature:        "UnsupportedLanguageFeature",
	InvalidTypeExpression:             "InvalidTypeExpression",
	TypeCheckFailure:                  "TypeCheckFailure",
	TypesDoNotMatch:                   "TypesDoNotMatch",
	Circularity:                       "Circularity",
	TypeUnknown:                       "TypeUnknown",
	IncompatibleEnvironment:           "IncompatibleEnvironment",
	UndeclaredIdentifier:              "UndeclaredIdentifier",
	FreeIdentifierHasBoundOccurrences: "FreeIdentifierHasBoundOccurrences",
	BoundIdentifierHasFreeOccurrences: "BoundIdentifierHasFreeOccurrences",
	BoundIdentifierIndexOutOfBounds:   "BoundIdentifierIndexOutOfBounds",
	DuplicateIdentifier:               "DuplicateIdentifier",
	InvalidPosition:                   "InvalidPosition",
	InvalidReplacement:                "InvalidReplacement",
}

// message templates, one %s per argument
var kindFormats = map[Kind]string{
	SyntaxError:                       "syntax error: %s",
	UnexpectedToken:                   "unexpected %s, expected %s",
	UnknownOperator:                   "unknown operator %s",
	UnsupportedLanguageFeature:        "%s is not supported by language version %s",
	InvalidTypeExpression:             "%s is not a type expression",
	TypeCheckFailure:                  "type check failed for %s",
	TypesDoNotMatch:                   "types %s and %s do not match",
	Circularity:                       "type %s would have to contain itself in %s",
	TypeUnknown:                       "type of %s cannot be inferred",
	IncompatibleEnvironment:           "identifier %s has type %s in the environment but %s in the formula",
	UndeclaredIdentifier:              "identifier %s is not declared",
	FreeIdentifierHasBoundOccurrences: "identifier %s occurs both free and bound",
	BoundIdentifierHasFreeOccurrences: "bound identifier %s also occurs free",
	BoundIdentifierIndexOutOfBounds:   "bound identifier index %s exceeds binder depth %s",
	DuplicateIdentifier:               "identifier %s is declared more than once",
	InvalidPosition:                   "position %s does not address a node of %s",
	InvalidReplacement:                "cannot replace %s with %s",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Category returns the pass family this kind belongs to.
func (k Kind) Category() Category {
	switch {
	case k <= InvalidTypeExpression:
		return CategorySyntax
	case k <= UndeclaredIdentifier:
		return CategoryType
	case k <= DuplicateIdentifier:
		return CategoryScope
	default:
		return CategoryStructure
	}
}

// Error makes a bare Kind usable as an errors.Is target.
func (k Kind) Error() string { return k.String() }

// Diagnostic represents a single problem.
type Diagnostic struct {
	Kind  Kind
	Args  []string
	Span  position.Span
	Level Level
}

// New creates an error-level diagnostic.
func New(kind Kind, span position.Span, args ...string) *Diagnostic {
	return &Diagnostic{Kind: kind, Args: args, Span: span, Level: LevelError}
}

// Newf creates an error-level diagnostic whose arguments are formatted with %v.
func Newf(kind Kind, span position.Span, args ...interface{}) *Diagnostic {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = fmt.Sprint(a)
	}
	return New(kind, span, strs...)
}

// Message renders the diagnostic without its location.
func (d *Diagnostic) Message() string {
	format, ok := kindFormats[d.Kind]
	if !ok {
		return d.Kind.String()
	}
	want := strings.Count(format, "%s")
	args := make([]interface{}, want)
	for i := range args {
		if i < len(d.Args) {
			args[i] = d.Args[i]
		} else {
			args[i] = "?"
		}
	}
	return fmt.Sprintf(format, args...)
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Span.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Span.String(), d.Level, d.Message())
	}
	return fmt.Sprintf("%s: %s", d.Level, d.Message())
}

// Is reports whether target is the Kind of this diagnostic.
func (d *Diagnostic) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == d.Kind
}

// List aggregates the problems found during one pass.
type List []*Diagnostic

// Add appends diagnostics to the list, skipping nils.
func (l *List) Add(diags ...*Diagnostic) {
	for _, d := range diags {
		if d != nil {
			*l = append(*l, d)
		}
	}
}

// HasErrors returns true if any error-level diagnostic is present.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// Has returns true if a diagnostic of the given kind is present.
func (l List) Has(kind Kind) bool {
	for _, d := range l {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// Sort orders diagnostics by source offset, then kind.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a.Span.Start.Offset != b.Span.Start.Offset {
			return a.Span.Start.Offset < b.Span.Start.Offset
		}
		return a.Kind < b.Kind
	})
}

// Error implements the error interface.
func (l List) Error() string {
	parts := make([]string, len(l))
	for i, d := range l {
		parts[i] = d.Error()
	}
	return strings.Join(parts, "\n")
}

// Is reports whether any member matches target.
func (l List) Is(target error) bool {
	for _, d := range l {
		if d.Is(target) {
			return true
		}
	}
	return false
}

// Err returns the list as an error, or nil when it holds no errors.
func (l List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// Is reports whether err carries a diagnostic of the given kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, kind)
}

// Invariant is the panic value raised on construction-precondition violations.
// Only internal misuse of the factory can trigger one.
type Invariant struct {
	Message string
}

func (i *Invariant) Error() string { return "invariant violated: " + i.Message }

// Assert panics with an *Invariant when cond is false.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(&Invariant{Message: fmt.Sprintf(format, args...)})
	}
}
