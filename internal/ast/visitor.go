package ast

// ====== Traversal ======
//
// A single walk function serves every concern: a Visitor is told when a
// node is entered, when the walk moves from one child to the next, and when
// the node is left. The walk tracks the number of binders crossed, so
// bound identifier indices can be compared to it directly.

// VisitAction tells the walk how to proceed.
type VisitAction int

const (
	// Continue visits the children, then the next sibling.
	Continue VisitAction = iota
	// SkipChildren moves on to the next sibling without visiting children.
	SkipChildren
	// Stop ends the walk at once.
	Stop
)

// Visitor receives the nodes of a formula in depth-first order. depth is
// the number of bound identifiers declared by enclosing binders, relative
// to the root of the walk.
type Visitor interface {
	Enter(f Formula, depth int) VisitAction
	// Between is called before every child of parent but the first.
	Between(parent Formula, index int) VisitAction
	Leave(f Formula, depth int) VisitAction
}

// VisitorFuncs adapts functions to a Visitor. Nil functions continue.
type VisitorFuncs struct {
	EnterFunc   func(f Formula, depth int) VisitAction
	BetweenFunc func(parent Formula, index int) VisitAction
	LeaveFunc   func(f Formula, depth int) VisitAction
}

func (v VisitorFuncs) Enter(f Formula, depth int) VisitAction {
	if v.EnterFunc == nil {
		return Continue
	}
	return v.EnterFunc(f, depth)
}

func (v VisitorFuncs) Between(parent Formula, index int) VisitAction {
	if v.BetweenFunc == nil {
		return Continue
	}
	return v.BetweenFunc(parent, index)
}

func (v VisitorFuncs) Leave(f Formula, depth int) VisitAction {
	if v.LeaveFunc == nil {
		return Continue
	}
	return v.LeaveFunc(f, depth)
}

// Walk traverses f with v. It returns false if the walk was stopped.
func Walk(f Formula, v Visitor) bool {
	return walk(f, v, 0)
}

func walk(f Formula, v Visitor, depth int) bool {
	switch v.Enter(f, depth) {
	case Stop:
		return false
	case SkipChildren:
		return v.Leave(f, depth) != Stop
	}
	for i, c := range Children(f) {
		if i > 0 {
			switch v.Between(f, i) {
			case Stop:
				return false
			case SkipChildren:
				// the remaining children are skipped
				return v.Leave(f, depth) != Stop
			}
		}
		if !walk(c, v, depth+BinderSize(f, i)) {
			return false
		}
	}
	return v.Leave(f, depth) != Stop
}

// Inspect calls fn for every node of f in depth-first order, with the
// binder depth. Children are skipped when fn returns false.
func Inspect(f Formula, fn func(f Formula, depth int) bool) {
	Walk(f, VisitorFuncs{EnterFunc: func(f Formula, depth int) VisitAction {
		if fn(f, depth) {
			return Continue
		}
		return SkipChildren
	}})
}

// Find returns the first node, in depth-first order, satisfying match.
func Find(f Formula, match func(Formula) bool) (Formula, bool) {
	var found Formula
	Walk(f, VisitorFuncs{EnterFunc: func(f Formula, _ int) VisitAction {
		if match(f) {
			found = f
			return Stop
		}
		return Continue
	}})
	return found, found != nil
}

// DeclaredNames returns the names of all bound identifier declarations of
// f, in first-occurrence order.
func DeclaredNames(f Formula) []string {
	var names []string
	seen := make(map[string]bool)
	Inspect(f, func(f Formula, _ int) bool {
		if d, ok := f.(*BoundIdentDecl); ok && !seen[d.name] {
			seen[d.name] = true
			names = append(names, d.name)
		}
		return true
	})
	return names
}
