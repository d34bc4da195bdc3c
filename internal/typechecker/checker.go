// Type checking for formulas.
// The checker drafts a formula with temporary types, solves the typing
// equations of every node with a unifier, then rebuilds the formula with
// resolved types through the factory. There is no partial success: either
// every node of the result is typed or the input is returned unchanged.

package typechecker

import (
	"fmt"
	"strconv"

	"github.com/inconshreveable/log15"

	"github.com/17451k/rodincore-sub001/internal/ast"
	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/types"
)

// Config contains type checker configuration.
type Config struct {
	// Logger receives debug events. Nil discards them.
	Logger log15.Logger
	// Closed rejects formulas using identifiers the environment does not
	// declare.
	Closed bool
}

// Checker type checks formulas built by one factory.
type Checker struct {
	factory *ast.Factory
	config  Config
	logger  log15.Logger
}

// New creates a checker rebuilding typed formulas with factory.
func New(factory *ast.Factory, config Config) *Checker {
	if factory == nil {
		factory = ast.DefaultFactory()
	}
	logger := config.Logger
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}
	return &Checker{factory: factory, config: config, logger: logger.New("module", "typechecker")}
}

// Result is the outcome of checking one formula.
type Result struct {
	// Formula is the typed formula on success, the input otherwise.
	Formula ast.Formula
	// Inferred holds the names the formula uses that the environment does
	// not declare, with their inferred types. Empty on failure.
	Inferred *types.Environment
	Problems diagnostic.List
}

// IsSuccess returns true if the formula was typed.
func (r *Result) IsSuccess() bool { return !r.Problems.HasErrors() }

// Err returns the problems as an error, or nil.
func (r *Result) Err() error { return r.Problems.Err() }

// Check types f against env.
func (c *Checker) Check(f ast.Formula, env *types.Environment) *Result {
	return c.check(f, env, nil)
}

// CheckExpression types e against env, requiring it to have type expected
// when expected is not nil.
func (c *Checker) CheckExpression(e ast.Expression, env *types.Environment, expected types.Type) *Result {
	return c.check(e, env, expected)
}

// CheckPredicate types p against env.
func (c *Checker) CheckPredicate(p ast.Predicate, env *types.Environment) *Result {
	return c.check(p, env, nil)
}

// CheckAssignment types a against env.
func (c *Checker) CheckAssignment(a ast.Assignment, env *types.Environment) *Result {
	return c.check(a, env, nil)
}

// CheckFormulas types fs in order. The names inferred by each successful
// check are visible to the following ones. It returns one result per
// formula and the environment extended with every inferred name.
func (c *Checker) CheckFormulas(fs []ast.Formula, env *types.Environment) ([]*Result, *types.Environment) {
	current := types.NewEnvironment()
	if env != nil {
		current = env.Clone()
	}
	results := make([]*Result, len(fs))
	for i, f := range fs {
		results[i] = c.check(f, current, nil)
		if results[i].IsSuccess() {
			err := current.Merge(results[i].Inferred)
			diagnostic.Assert(err == nil, "inferred names clash with the environment: %v", err)
		}
	}
	return results, current
}

func (c *Checker) check(f ast.Formula, env *types.Environment, expected types.Type) *Result {
	if env == nil {
		env = types.NewEnvironment()
	}
	if problems := c.checkFeatures(f); len(problems) > 0 {
		return c.failure(f, problems)
	}

	tie := NewTypeInferenceEngine(env, c.logger)
	d := tie.infer(f)
	if expected != nil {
		diagnostic.Assert(expected.IsSolved(), "expected type %s is not resolved", expected)
		if _, ok := f.(ast.Expression); ok {
			tie.Unify(ConstraintExpected, expected, d.typ, f)
		}
	}
	tie.resolveLeaves(d, 0, make(map[string]bool))
	if len(tie.problems) > 0 {
		for _, k := range tie.Constraints() {
			if !k.Resolved {
				c.logger.Debug("unsolved constraint", "kind", k.Kind, "left", k.Left, "right", k.Right, "at", k.Span)
			}
		}
		return c.failure(f, tie.problems)
	}

	inferred, problems := c.inferredEnvironment(tie, d, env)
	if len(problems) > 0 {
		return c.failure(f, problems)
	}

	typed := tie.rebuild(c.factory, d)
	diagnostic.Assert(typed.IsTypeChecked(), "%s is not typed after resolution", typed)
	c.logger.Debug("type check succeeded", "formula", typed, "inferred", inferred.Len(),
		"constraints", len(tie.Constraints()))
	return &Result{Formula: typed, Inferred: inferred}
}

// inferredEnvironment collects the names inferred for f: its undeclared free
// identifiers, and the carrier sets its types mention.
func (c *Checker) inferredEnvironment(tie *TypeInferenceEngine, d *draft, env *types.Environment) (*types.Environment, diagnostic.List) {
	var problems diagnostic.List
	inferred := types.NewEnvironment()
	for _, name := range tie.order {
		t, _ := tie.unifier.Resolve(tie.inferred[name])
		diagnostic.Assert(inferred.Add(name, t) == nil, "%s inferred twice", name)
	}
	for _, g := range c.givenTypes(tie, d) {
		want := types.NewPowerSet(g)
		if declared, ok := env.Lookup(g.Name); ok {
			if !types.Equal(declared, want) {
				problems.Add(diagnostic.New(diagnostic.IncompatibleEnvironment, d.node.Span(),
					g.Name, declared.String(), want.String()))
			}
			continue
		}
		if found, ok := inferred.Lookup(g.Name); ok && !types.Equal(found, want) {
			problems.Add(diagnostic.New(diagnostic.IncompatibleEnvironment, d.node.Span(),
				g.Name, want.String(), found.String()))
			continue
		}
		diagnostic.Assert(inferred.Add(g.Name, want) == nil, "carrier set %s inferred twice", g.Name)
	}
	if c.config.Closed {
		for _, name := range inferred.Names() {
			problems.Add(diagnostic.New(diagnostic.UndeclaredIdentifier, d.node.Span(), name))
		}
	}
	return inferred, problems
}

// givenTypes returns the carrier sets occurring in the resolved types of d,
// in first-occurrence order.
func (c *Checker) givenTypes(tie *TypeInferenceEngine, d *draft) []*types.GivenType {
	var result []*types.GivenType
	seen := make(map[string]bool)
	var walk func(d *draft)
	walk = func(d *draft) {
		if t, ok := tie.unifier.Resolve(d.typ); ok {
			for _, g := range types.GivenTypes(t) {
				if !seen[g.Name] {
					seen[g.Name] = true
					result = append(result, g)
				}
			}
		}
		for _, child := range d.children {
			walk(child)
		}
	}
	walk(d)
	return result
}

// checkFeatures reports the operators of f that the factory's language
// version lacks.
func (c *Checker) checkFeatures(f ast.Formula) diagnostic.List {
	var problems diagnostic.List
	ast.Inspect(f, func(node ast.Formula, _ int) bool {
		if !c.factory.SupportsTag(node.Tag()) {
			problems.Add(diagnostic.New(diagnostic.UnsupportedLanguageFeature, node.Span(),
				node.Tag().Symbol(), c.factory.Version().String()))
		}
		return true
	})
	return problems
}

func (c *Checker) failure(f ast.Formula, problems diagnostic.List) *Result {
	problems.Add(diagnostic.New(diagnostic.TypeCheckFailure, f.Span(), f.String()))
	c.logger.Debug("type check failed", "formula", f, "problems", strconv.Itoa(len(problems)))
	return &Result{Formula: f, Inferred: types.NewEnvironment(), Problems: problems}
}

// String renders a result for diagnostics output.
func (r *Result) String() string {
	if r.IsSuccess() {
		return fmt.Sprintf("%s with %s", ast.ToStringWithTypes(r.Formula), r.Inferred)
	}
	return r.Problems.Error()
}
