package ast

// Action tells Walk whether to descend into a node's children.
type Action int

const (
	Descend Action = iota
	Skip
)

// Visitor observes a depth-first walk. Leave is called once for every node
// Enter was called on, after its children.
type Visitor interface {
	Enter(n *Node) Action
	Leave(n *Node)
}

// VisitorFuncs adapts plain functions to Visitor. Nil functions are no-ops.
type VisitorFuncs struct {
	EnterFunc func(n *Node) Action
	LeaveFunc func(n *Node)
}

func (f VisitorFuncs) Enter(n *Node) Action {
	if f.EnterFunc == nil {
		return Descend
	}
	return f.EnterFunc(n)
}

func (f VisitorFuncs) Leave(n *Node) {
	if f.LeaveFunc != nil {
		f.LeaveFunc(n)
	}
}

// Pruned reports whether Walk refuses to visit n and its subtree: implicit
// and template nodes are excluded unconditionally, everything else by the
// boundary filter applied to the node's start position.
func Pruned(n *Node) bool {
	if n == nil {
		return true
	}
	if n.Implicit || n.Kind == KindTemplate {
		return true
	}
	return !BelongsToAnalyzedFile(n.Begin)
}

// Walk traverses the translation unit once, feeding every visitor. A visitor
// returning Skip stops seeing that subtree; the others keep descending.
func Walk(tu *TranslationUnit, visitors ...Visitor) {
	if tu == nil || tu.Root == nil || len(visitors) == 0 {
		return
	}
	active := make([]bool, len(visitors))
	for i := range active {
		active[i] = true
	}
	walk(tu.Root, visitors, active)
}

func walk(n *Node, visitors []Visitor, active []bool) {
	if n.Kind != KindTranslationUnit && Pruned(n) {
		return
	}

	next := active
	copied := false
	for i, v := range visitors {
		if !active[i] {
			continue
		}
		if v.Enter(n) == Skip {
			if !copied {
				next = append([]bool(nil), active...)
				copied = true
			}
			next[i] = false
		}
	}

	if anyActive(next) {
		for _, child := range n.Inner {
			if child != nil {
				walk(child, visitors, next)
			}
		}
	}

	for i := len(visitors) - 1; i >= 0; i-- {
		if active[i] {
			visitors[i].Leave(n)
		}
	}
}

func anyActive(active []bool) bool {
	for _, a := range active {
		if a {
			return true
		}
	}
	return false
}

// Inspect traverses every node under root without any filtering, calling fn
// before children. Returning false skips the node's children.
func Inspect(root *Node, fn func(*Node) bool) {
	if root == nil {
		return
	}
	if !fn(root) {
		return
	}
	for _, child := range root.Inner {
		Inspect(child, fn)
	}
}
