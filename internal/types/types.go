// Type model of the mathematical language.
// Types are immutable values: the integers, the booleans, given (carrier)
// sets, power sets and cartesian products. Unification variables exist only
// while a Unifier is running and never appear in a resolved type.

package types

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// ====== Core Type System ======

// Kind represents the kind of a type.
type Kind int

const (
	KindInteger Kind = iota
	KindBoolean
	KindGiven
	KindPowerSet
	KindProduct
	KindVariable
)

// String returns the string representation of a Kind
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindGiven:
		return "given"
	case KindPowerSet:
		return "powerset"
	case KindProduct:
		return "product"
	case KindVariable:
		return "variable"
	default:
		return "invalid"
	}
}

// Type is a type of the mathematical language.
type Type interface {
	// Kind returns the variant of this type.
	Kind() Kind
	// String returns the canonical rendering (ℤ, BOOL, S, ℙ(ℤ), ℤ×BOOL).
	String() string
	// Hash returns a structural hash, equal for equal types.
	Hash() uint64
	// IsSolved returns true if the type contains no unification variable.
	IsSolved() bool

	typeNode()
}

// ====== Primitive Types ======

// IntegerType is the type ℤ.
type IntegerType struct{}

// BooleanType is the type BOOL.
type BooleanType struct{}

var (
	// Integer is the shared ℤ instance.
	Integer Type = &IntegerType{}
	// Boolean is the shared BOOL instance.
	Boolean Type = &BooleanType{}
)

func (*IntegerType) Kind() Kind      { return KindInteger }
func (*IntegerType) String() string  { return "ℤ" }
func (*IntegerType) Hash() uint64    { return 0x9e3779b97f4a7c15 }
func (*IntegerType) IsSolved() bool  { return true }
func (*IntegerType) typeNode()       {}
func (*BooleanType) Kind() Kind      { return KindBoolean }
func (*BooleanType) String() string  { return "BOOL" }
func (*BooleanType) Hash() uint64    { return 0xc2b2ae3d27d4eb4f }
func (*BooleanType) IsSolved() bool  { return true }
func (*BooleanType) typeNode()       {}

// GivenType is a user-declared carrier set, identified by its name.
type GivenType struct {
	Name string
	hash uint64
}

// NewGiven returns the given type of the given name.
func NewGiven(name string) *GivenType {
	h := fnv.New64a()
	h.Write([]byte("given:"))
	h.Write([]byte(name))
	return &GivenType{Name: name, hash: h.Sum64()}
}

func (g *GivenType) Kind() Kind     { return KindGiven }
func (g *GivenType) String() string { return g.Name }
func (g *GivenType) Hash() uint64   { return g.hash }
func (g *GivenType) IsSolved() bool { return true }
func (g *GivenType) typeNode()      {}

// ====== Compound Types ======

// PowerSetType is ℙ(Base).
type PowerSetType struct {
	Base   Type
	hash   uint64
	solved bool
}

// NewPowerSet returns ℙ(base).
func NewPowerSet(base Type) *PowerSetType {
	return &PowerSetType{
		Base:   base,
		hash:   combine(0x27d4eb2f165667c5, base.Hash()),
		solved: base.IsSolved(),
	}
}

func (p *PowerSetType) Kind() Kind     { return KindPowerSet }
func (p *PowerSetType) Hash() uint64   { return p.hash }
func (p *PowerSetType) IsSolved() bool { return p.solved }
func (p *PowerSetType) typeNode()      {}
func (p *PowerSetType) String() string {
	var sb strings.Builder
	writeType(&sb, p)
	return sb.String()
}

// ProductType is Left×Right.
type ProductType struct {
	Left   Type
	Right  Type
	hash   uint64
	solved bool
}

// NewProduct returns left×right.
func NewProduct(left, right Type) *ProductType {
	return &ProductType{
		Left:   left,
		Right:  right,
		hash:   combine(combine(0x165667b19e3779f9, left.Hash()), right.Hash()),
		solved: left.IsSolved() && right.IsSolved(),
	}
}

func (p *ProductType) Kind() Kind     { return KindProduct }
func (p *ProductType) Hash() uint64   { return p.hash }
func (p *ProductType) IsSolved() bool { return p.solved }
func (p *ProductType) typeNode()      {}
func (p *ProductType) String() string {
	var sb strings.Builder
	writeType(&sb, p)
	return sb.String()
}

// NewRelation returns ℙ(source×target), the type of relations.
func NewRelation(source, target Type) *PowerSetType {
	return NewPowerSet(NewProduct(source, target))
}

// Variable is a unification variable. Only a Unifier creates them.
type Variable struct {
	ID int
}

func (v *Variable) Kind() Kind     { return KindVariable }
func (v *Variable) String() string { return "τ" + strconv.Itoa(v.ID) }
func (v *Variable) Hash() uint64   { return combine(0x85ebca6b, uint64(v.ID)) }
func (v *Variable) IsSolved() bool { return false }
func (v *Variable) typeNode()      {}

func combine(h, v uint64) uint64 {
	h ^= v + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
	return h
}

// writeType renders products left-associatively: (A×B)×C prints as A×B×C
// while A×(B×C) keeps its parentheses.
func writeType(sb *strings.Builder, t Type) {
	switch t := t.(type) {
	case *PowerSetType:
		sb.WriteString("ℙ(")
		writeType(sb, t.Base)
		sb.WriteString(")")
	case *ProductType:
		writeType(sb, t.Left)
		sb.WriteString("×")
		if t.Right.Kind() == KindProduct {
			sb.WriteString("(")
			writeType(sb, t.Right)
			sb.WriteString(")")
		} else {
			writeType(sb, t.Right)
		}
	default:
		sb.WriteString(t.String())
	}
}

// ====== Operations ======

// Equal reports structural equality. Two nil types are equal.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if a.Kind() != b.Kind() || a.Hash() != b.Hash() {
		return false
	}
	switch a := a.(type) {
	case *IntegerType, *BooleanType:
		return true
	case *GivenType:
		return a.Name == b.(*GivenType).Name
	case *PowerSetType:
		return Equal(a.Base, b.(*PowerSetType).Base)
	case *ProductType:
		bp := b.(*ProductType)
		return Equal(a.Left, bp.Left) && Equal(a.Right, bp.Right)
	case *Variable:
		return a.ID == b.(*Variable).ID
	}
	return false
}

// BaseType unwraps one level of power set, or returns nil.
func BaseType(t Type) Type {
	if p, ok := t.(*PowerSetType); ok {
		return p.Base
	}
	return nil
}

// Source returns α for a relational type ℙ(α×β), or nil.
func Source(t Type) Type {
	if p, ok := BaseType(t).(*ProductType); ok {
		return p.Left
	}
	return nil
}

// Target returns β for a relational type ℙ(α×β), or nil.
func Target(t Type) Type {
	if p, ok := BaseType(t).(*ProductType); ok {
		return p.Right
	}
	return nil
}

// IsRelational returns true for types of the form ℙ(α×β).
func IsRelational(t Type) bool {
	return Source(t) != nil
}

// Specialize substitutes given types according to mapping. The same object
// is returned when nothing changes, so unchanged subtrees stay shared.
func Specialize(t Type, mapping map[string]Type) Type {
	if len(mapping) == 0 {
		return t
	}
	switch t := t.(type) {
	case *GivenType:
		if repl, ok := mapping[t.Name]; ok {
			return repl
		}
		return t
	case *PowerSetType:
		base := Specialize(t.Base, mapping)
		if base == t.Base {
			return t
		}
		return NewPowerSet(base)
	case *ProductType:
		left := Specialize(t.Left, mapping)
		right := Specialize(t.Right, mapping)
		if left == t.Left && right == t.Right {
			return t
		}
		return NewProduct(left, right)
	default:
		return t
	}
}

// GivenTypes returns the given types occurring in t, in first-occurrence order.
func GivenTypes(t Type) []*GivenType {
	var result []*GivenType
	seen := map[string]bool{}
	var walk func(Type)
	walk = func(t Type) {
		switch t := t.(type) {
		case *GivenType:
			if !seen[t.Name] {
				seen[t.Name] = true
				result = append(result, t)
			}
		case *PowerSetType:
			walk(t.Base)
		case *ProductType:
			walk(t.Left)
			walk(t.Right)
		}
	}
	walk(t)
	return result
}
