package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/inconshreveable/log15"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/parser"
	"github.com/17451k/rodincore-sub001/internal/position"
	"github.com/17451k/rodincore-sub001/internal/resolver"
	"github.com/17451k/rodincore-sub001/internal/typechecker"
	"github.com/17451k/rodincore-sub001/internal/types"
	"github.com/17451k/rodincore-sub001/internal/wd"
)

// Directives understood by a Session, one per line:
//
//	given S, T        declare carrier sets
//	type x ℙ(S)       declare an identifier
//	expr E            check an expression
//	pred P            check a predicate
//	assign A          check an assignment
//
// Blank lines and lines starting with # or // are ignored. Every checked
// formula adds the names it infers to the environment of later lines.
var Directives = []string{"given", "type", "expr", "pred", "assign"}

// ErrUnknownDirective is returned for a line starting with no known
// directive.
var ErrUnknownDirective = errors.New("unknown directive")

// Options select what a Session reports for each formula.
type Options struct {
	// Factory builds the formulas; nil uses the default factory.
	Factory *ast.Factory
	Print   ast.PrintOptions
	// Tree adds the tree dump of typed formulas.
	Tree bool
	// Normalize adds the normal form of typed formulas when it differs
	// from the formula itself.
	Normalize bool
	// WD adds the well-definedness predicate, and for assignments the
	// feasibility and before-after predicates.
	WD     bool
	Logger log15.Logger
}

// Report is the outcome of one directive.
type Report struct {
	Line      int      `json:"line"`
	Directive string   `json:"directive"`
	Input     string   `json:"input"`
	Typed     string   `json:"typed,omitempty"`
	Inferred  string   `json:"inferred,omitempty"`
	Normal    string   `json:"normal,omitempty"`
	WD        string   `json:"wd,omitempty"`
	FIS       string   `json:"fis,omitempty"`
	BA        string   `json:"ba,omitempty"`
	Tree      string   `json:"tree,omitempty"`
	Problems  []string `json:"problems,omitempty"`
	problems  diagnostic.List
	formula   ast.Formula
}

// Failed returns true if the directive reported a problem.
func (r *Report) Failed() bool { return r.problems.HasErrors() }

// Diagnostics returns the problems of the directive.
func (r *Report) Diagnostics() diagnostic.List { return r.problems }

// Formula returns the typed formula of a successful check, or nil.
func (r *Report) Formula() ast.Formula { return r.formula }

func (r *Report) fail(err error) {
	var list diagnostic.List
	var d *diagnostic.Diagnostic
	switch {
	case errors.As(err, &list):
		r.problems.Add(list...)
	case errors.As(err, &d):
		r.problems.Add(d)
	default:
		r.problems.Add(diagnostic.New(diagnostic.SyntaxError, position.None, err.Error()))
	}
	r.Problems = make([]string, len(r.problems))
	for i, p := range r.problems {
		r.Problems[i] = p.Error()
	}
}

// WriteText renders the report for a terminal: the problems, each prefixed
// with the file and line, or the typed formula followed by its derived
// predicates.
func (r *Report) WriteText(w io.Writer, filename string) {
	where := fmt.Sprintf("%d", r.Line)
	if filename != "" {
		where = filename + ":" + where
	}
	if r.Failed() {
		for _, p := range r.problems {
			fmt.Fprintf(w, "%s: %s\n", where, p.Error())
		}
		return
	}
	if r.Typed == "" {
		return
	}
	fmt.Fprintf(w, "%s: %s\n", where, r.Typed)
	if r.Inferred != "" {
		fmt.Fprintf(w, "    inferred %s\n", r.Inferred)
	}
	if r.Normal != "" {
		fmt.Fprintf(w, "    normal   %s\n", r.Normal)
	}
	for _, derived := range []struct{ name, value string }{{"WD", r.WD}, {"FIS", r.FIS}, {"BA", r.BA}} {
		if derived.value != "" {
			fmt.Fprintf(w, "    %-3s %s\n", derived.name, derived.value)
		}
	}
	if r.Tree != "" {
		for _, line := range strings.Split(strings.TrimRight(r.Tree, "\n"), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

// Session runs directives against one growing type environment. Spans in
// the problems it reports are columns of the directive's argument.
type Session struct {
	opts     Options
	checker  *typechecker.Checker
	resolver *resolver.Resolver
	wd       *wd.Synthesizer
	env      *types.Environment
	line     int
	logger   log15.Logger
}

// NewSession creates a session with an empty environment.
func NewSession(opts Options) *Session {
	if opts.Factory == nil {
		opts.Factory = ast.DefaultFactory()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}
	return &Session{
		opts:     opts,
		checker:  typechecker.New(opts.Factory, typechecker.Config{Logger: logger}),
		resolver: resolver.NewResolver(resolver.DefaultConfig()),
		wd:       wd.New(opts.Factory),
		env:      types.NewEnvironment(),
		logger:   logger,
	}
}

// Env returns the current environment.
func (s *Session) Env() *types.Environment { return s.env }

// Reset forgets every declaration.
func (s *Session) Reset() {
	s.env = types.NewEnvironment()
	s.line = 0
}

// Exec runs one line. It returns a nil report for a blank or comment line,
// and ErrUnknownDirective when the line starts with no directive.
func (s *Session) Exec(line string) (*Report, error) {
	s.line++
	text := strings.TrimSpace(line)
	if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "//") {
		return nil, nil
	}
	directive, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)
	r := &Report{Line: s.line, Directive: directive, Input: rest}
	switch directive {
	case "given":
		s.given(r, rest)
	case "type":
		s.declare(r, rest)
	case "expr", "pred", "assign":
		s.check(r, rest)
	default:
		return nil, fmt.Errorf("line %d: %w %q", s.line, ErrUnknownDirective, directive)
	}
	s.logger.Debug("directive", "line", s.line, "directive", directive, "ok", !r.Failed())
	return r, nil
}

// Run executes every line of in, passing each report to emit. It returns
// the number of failed directives.
func (s *Session) Run(in io.Reader, emit func(*Report)) (int, error) {
	failed := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		r, err := s.Exec(scanner.Text())
		if err != nil {
			return failed, err
		}
		if r == nil {
			continue
		}
		if r.Failed() {
			failed++
		}
		emit(r)
	}
	return failed, scanner.Err()
}

func (s *Session) parser(input string) *parser.Parser {
	return parser.NewParser(input, parser.Config{Factory: s.opts.Factory})
}

func (s *Session) given(r *Report, rest string) {
	names := strings.FieldsFunc(rest, func(c rune) bool { return c == ',' || c == ' ' })
	if len(names) == 0 {
		r.fail(diagnostic.New(diagnostic.SyntaxError, position.None, "given needs a set name"))
		return
	}
	for _, name := range names {
		if err := s.env.AddGivenSet(name); err != nil {
			r.fail(err)
		}
	}
}

func (s *Session) declare(r *Report, rest string) {
	name, text, ok := strings.Cut(rest, " ")
	if !ok || strings.TrimSpace(text) == "" {
		r.fail(diagnostic.New(diagnostic.SyntaxError, position.None, "type needs a name and a type"))
		return
	}
	t, err := s.parser(strings.TrimSpace(text)).ParseType()
	if err != nil {
		r.fail(err)
		return
	}
	if err := s.env.Add(name, t); err != nil {
		r.fail(err)
	}
}

func (s *Session) check(r *Report, input string) {
	var f ast.Formula
	var err error
	p := s.parser(input)
	switch r.Directive {
	case "expr":
		f, err = p.ParseExpression()
	case "pred":
		f, err = p.ParsePredicate()
	default:
		f, err = p.ParseAssignment()
	}
	if err != nil {
		r.fail(err)
		return
	}
	res := s.checker.Check(f, s.env)
	if !res.IsSuccess() {
		r.fail(res.Problems)
		return
	}
	// a name both free and bound prints ambiguously
	if legible := s.resolver.CheckLegibility(res.Formula); !legible.IsSuccess() {
		r.fail(legible.Problems)
		return
	}
	if formed := s.resolver.CheckWellFormed(res.Formula, 0); !formed.IsSuccess() {
		r.fail(formed.Problems)
		return
	}
	if err := s.env.Merge(res.Inferred); err != nil {
		r.fail(err)
		return
	}
	typed := res.Formula
	r.formula = typed
	r.Typed = ast.Print(typed, s.opts.Print)
	r.Inferred = res.Inferred.String()
	if s.opts.Tree {
		r.Tree = ast.TreeString(typed)
	}
	if s.opts.Normalize {
		if normal := s.opts.Factory.Normalize(typed); normal != typed {
			r.Normal = ast.Print(normal, s.opts.Print)
		}
	}
	if !s.opts.WD {
		return
	}
	r.WD = ast.Print(s.wd.WD(typed), s.opts.Print)
	if a, ok := typed.(ast.Assignment); ok {
		r.FIS = ast.Print(s.wd.FIS(a), s.opts.Print)
		r.BA = ast.Print(s.wd.BA(a, s.env), s.opts.Print)
	}
}
