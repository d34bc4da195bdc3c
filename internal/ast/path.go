package ast

import (
	"strconv"
	"strings"

	"github.com/17451k/rodincore-sub001/internal/diagnostic"
	"github.com/17451k/rodincore-sub001/internal/position"
)

// Path addresses a node by the child indices leading to it from the root.
// The empty path is the root.
type Path []int

// String renders the path as dot separated indices, e.g. "1.0.2".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

// IsRoot returns true for the empty path.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Parent returns the path of the parent node. The root has no parent.
func (p Path) Parent() (Path, bool) {
	if len(p) == 0 {
		return nil, false
	}
	return p[:len(p)-1], true
}

// Child returns the path of the i-th child of the addressed node.
func (p Path) Child(i int) Path {
	return append(append(Path(nil), p...), i)
}

// IsPrefixOf returns true if p addresses other or one of its ancestors.
func (p Path) IsPrefixOf(other Path) bool {
	if len(p) > len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// ParsePath parses the form produced by String.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 {
			return nil, diagnostic.New(diagnostic.InvalidPosition, position.None, s, "any formula")
		}
		p[i] = idx
	}
	return p, nil
}

// GetChild returns the node addressed by p in f.
func GetChild(f Formula, p Path) (Formula, error) {
	current := f
	for _, idx := range p {
		children := Children(current)
		if idx < 0 || idx >= len(children) {
			return nil, diagnostic.New(diagnostic.InvalidPosition, f.Span(), p.String(), f.String())
		}
		current = children[idx]
	}
	return current, nil
}

// BinderDepthAt returns the number of bound identifiers declared above the
// node addressed by p.
func BinderDepthAt(f Formula, p Path) (int, error) {
	depth := 0
	current := f
	for _, idx := range p {
		children := Children(current)
		if idx < 0 || idx >= len(children) {
			return 0, diagnostic.New(diagnostic.InvalidPosition, f.Span(), p.String(), f.String())
		}
		depth += BinderSize(current, idx)
		current = children[idx]
	}
	return depth, nil
}

// ReplaceAt returns f with the node addressed by p replaced by repl. Only
// the ancestors of that node are rebuilt. repl is read in the context of
// the replaced node: its loose bound identifiers refer to the binders
// enclosing that position.
func (fac *Factory) ReplaceAt(f Formula, p Path, repl Formula) (Formula, error) {
	if repl == nil {
		return nil, diagnostic.New(diagnostic.InvalidReplacement, f.Span(), p.String(), "nothing")
	}
	if len(p) == 0 {
		if !sameSlotKind(f, repl) {
			return nil, diagnostic.New(diagnostic.InvalidReplacement, f.Span(), f.String(), describe(repl))
		}
		return repl, nil
	}
	children := Children(f)
	idx := p[0]
	if idx < 0 || idx >= len(children) {
		return nil, diagnostic.New(diagnostic.InvalidPosition, f.Span(), p.String(), f.String())
	}
	child, err := fac.ReplaceAt(children[idx], p[1:], repl)
	if err != nil {
		if d, ok := err.(*diagnostic.Diagnostic); ok && d.Kind == diagnostic.InvalidPosition {
			// report the full path against the full formula
			return nil, diagnostic.New(diagnostic.InvalidPosition, f.Span(), p.String(), f.String())
		}
		return nil, err
	}
	rebuilt := append([]Formula(nil), children...)
	rebuilt[idx] = child
	return fac.WithChildren(f, rebuilt)
}

// PositionAt returns the path of the most specific node of f whose span
// covers span. Nodes without a span are transparent.
func PositionAt(f Formula, span position.Span) (Path, bool) {
	var best Path
	found := false
	var search func(f Formula, p Path)
	search = func(f Formula, p Path) {
		if s := f.Span(); s.IsValid() {
			if !s.Covers(span) {
				return
			}
			best, found = p, true
		}
		for i, c := range Children(f) {
			search(c, p.Child(i))
		}
	}
	search(f, Path{})
	return best, found
}

// Positions returns the paths of all nodes of f satisfying match, in
// depth-first order.
func Positions(f Formula, match func(Formula) bool) []Path {
	var result []Path
	var search func(f Formula, p Path)
	search = func(f Formula, p Path) {
		if match(f) {
			result = append(result, p)
		}
		for i, c := range Children(f) {
			search(c, p.Child(i))
		}
	}
	search(f, Path{})
	return result
}
