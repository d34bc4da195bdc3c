package types

import (
	"iter"
	"sort"
	"strings"

	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/position"
)

// Environment maps free identifier names to their types. It is owned by the
// caller of the type checker, which only reads it and reports additions in a
// separate Environment.
type Environment struct {
	entries map[string]Type
	order   []string
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{entries: make(map[string]Type)}
}

// Add binds name to t. Rebinding a name to an equal type is a no-op;
// rebinding it to a different type is an IncompatibleEnvironment problem.
func (e *Environment) Add(name string, t Type) error {
	diagnostic.Assert(t != nil && t.IsSolved(), "environment entry %s must have a resolved type", name)
	if existing, ok := e.entries[name]; ok {
		if Equal(existing, t) {
			return nil
		}
		return diagnostic.New(diagnostic.IncompatibleEnvironment, position.None,
			name, existing.String(), t.String())
	}
	e.entries[name] = t
	e.order = append(e.order, name)
	return nil
}

// AddGivenSet declares a carrier set: name gets type ℙ(name).
func (e *Environment) AddGivenSet(name string) error {
	return e.Add(name, NewPowerSet(NewGiven(name)))
}

// Lookup returns the type bound to name.
func (e *Environment) Lookup(name string) (Type, bool) {
	if e == nil {
		return nil, false
	}
	t, ok := e.entries[name]
	return t, ok
}

// Contains returns true if name is bound.
func (e *Environment) Contains(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// Len returns the number of bindings.
func (e *Environment) Len() int {
	if e == nil {
		return 0
	}
	return len(e.order)
}

// IsEmpty returns true when no binding exists.
func (e *Environment) IsEmpty() bool { return e.Len() == 0 }

// All iterates over the bindings in insertion order.
func (e *Environment) All() iter.Seq2[string, Type] {
	return func(yield func(string, Type) bool) {
		if e == nil {
			return
		}
		for _, name := range e.order {
			if !yield(name, e.entries[name]) {
				return
			}
		}
	}
}

// Names returns the bound names, sorted.
func (e *Environment) Names() []string {
	if e == nil {
		return nil
	}
	names := append([]string(nil), e.order...)
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (e *Environment) Clone() *Environment {
	c := NewEnvironment()
	for name, t := range e.All() {
		c.entries[name] = t
		c.order = append(c.order, name)
	}
	return c
}

// Merge adds every binding of other. It stops at the first conflict.
func (e *Environment) Merge(other *Environment) error {
	for name, t := range other.All() {
		if err := e.Add(name, t); err != nil {
			return err
		}
	}
	return nil
}

// String renders the environment as "x⦂ℤ, S⦂ℙ(S)" in insertion order.
func (e *Environment) String() string {
	parts := make([]string, 0, e.Len())
	for name, t := range e.All() {
		parts = append(parts, name+"⦂"+t.String())
	}
	return strings.Join(parts, ", ")
}
