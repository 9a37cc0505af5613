package xenon

import "errors"

// errStopWalk terminates a Walk early without reporting failure.
var errStopWalk = errors.New("stop walk")

// Methods that mutate both the receiver and an operand node are
// implemented as free functions taking Node arguments. A method on
// the embedded node struct only sees the embedded part, not the
// concrete Element/Text/etc that contains it, so it must never store
// its receiver into another node's links. Identity checks instead
// compare getNode() pointers, which are stable for the lifetime of
// the containing node.

type node struct {
	parent   Node
	children []Node
	doc      *Document
}

func (n *node) getNode() *node {
	return n
}

func (n *node) Parent() Node {
	return n.parent
}

func (n *node) OwnerDocument() *Document {
	return n.doc
}

func (n *node) Children() []Node {
	return n.children
}

func (n *node) FirstChild() Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

func (n *node) LastChild() Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[len(n.children)-1]
}

func (n *node) NextSibling() Node {
	p := n.parent
	if p == nil {
		return nil
	}
	siblings := p.getNode().children
	if i := childIndex(p, n); i >= 0 && i+1 < len(siblings) {
		return siblings[i+1]
	}
	return nil
}

func (n *node) PrevSibling() Node {
	p := n.parent
	if p == nil {
		return nil
	}
	siblings := p.getNode().children
	if i := childIndex(p, n); i > 0 {
		return siblings[i-1]
	}
	return nil
}

func (n *node) Content() []byte {
	var b []byte
	for _, c := range n.children {
		switch c.Type() {
		case TextNodeType, ElementNodeType:
			b = append(b, c.Content()...)
		}
	}
	return b
}

// childIndex returns the position of n in parent's child list, or -1.
func childIndex(parent Node, n *node) int {
	for i, c := range parent.getNode().children {
		if c.getNode() == n {
			return i
		}
	}
	return -1
}

// isAncestor reports whether candidate is n itself or one of n's
// ancestors.
func isAncestor(candidate, n Node) bool {
	cn := candidate.getNode()
	for p := n; p != nil; p = p.Parent() {
		if p.getNode() == cn {
			return true
		}
	}
	return false
}

// detach removes n from its parent's child list. The node keeps its
// owner document.
func detach(n Node) {
	nn := n.getNode()
	p := nn.parent
	if p == nil {
		return
	}
	pn := p.getNode()
	if i := childIndex(p, nn); i >= 0 {
		pn.children = append(pn.children[:i], pn.children[i+1:]...)
	}
	nn.parent = nil
}

func setOwnerDocument(n Node, doc *Document) {
	nn := n.getNode()
	if nn.doc == doc {
		return
	}
	nn.doc = doc
	for _, c := range nn.children {
		setOwnerDocument(c, doc)
	}
}

// addChild appends child to parent's child list, detaching it from
// any previous parent first. A text node appended after another plain
// text node merges into it instead; CDATA nodes never merge. Adding a
// node into its own subtree would create a cycle and fails with
// ErrInvalidOperation.
func addChild(parent, child Node) error {
	if parent == nil || child == nil {
		return ErrNilNode
	}
	if isAncestor(child, parent) {
		return ErrInvalidOperation
	}

	pn := parent.getNode()
	if t, ok := child.(*Text); ok && !t.cdata {
		if len(pn.children) > 0 {
			if last, ok := pn.children[len(pn.children)-1].(*Text); ok && !last.cdata {
				last.content = append(last.content, t.content...)
				return nil
			}
		}
	}

	detach(child)
	pn.children = append(pn.children, child)
	child.getNode().parent = parent
	setOwnerDocument(child, pn.doc)
	return nil
}

// insertChildAt places child at position idx of parent's child list.
// The index is interpreted against the list as it stands after child
// has been detached from its previous location.
func insertChildAt(parent Node, idx int, child Node) error {
	if parent == nil || child == nil {
		return ErrNilNode
	}
	if isAncestor(child, parent) {
		return ErrInvalidOperation
	}

	pn := parent.getNode()
	limit := len(pn.children)
	if childIndex(parent, child.getNode()) >= 0 {
		limit--
	}
	if idx < 0 || idx > limit {
		return ErrInvalidOperation
	}

	detach(child)
	pn.children = append(pn.children, nil)
	copy(pn.children[idx+1:], pn.children[idx:])
	pn.children[idx] = child
	child.getNode().parent = parent
	setOwnerDocument(child, pn.doc)
	return nil
}

func removeChild(parent, child Node) error {
	if parent == nil || child == nil {
		return ErrNilNode
	}
	cn := child.getNode()
	if cn.parent == nil || cn.parent.getNode() != parent.getNode() {
		return ErrInvalidOperation
	}
	detach(child)
	return nil
}

// replaceChild swaps old for cur in parent's child list, keeping the
// position. Replacing a node with itself is a no-op.
func replaceChild(parent, old, cur Node) error {
	if parent == nil || old == nil || cur == nil {
		return ErrNilNode
	}
	on := old.getNode()
	if on == cur.getNode() {
		return nil
	}
	if on.parent == nil || on.parent.getNode() != parent.getNode() {
		return ErrInvalidOperation
	}
	if isAncestor(cur, parent) {
		return ErrInvalidOperation
	}

	detach(cur)
	pn := parent.getNode()
	i := childIndex(parent, on)
	pn.children[i] = cur
	cur.getNode().parent = parent
	on.parent = nil
	setOwnerDocument(cur, pn.doc)
	return nil
}

func addContent(n Node, b []byte) error {
	t := newText(b)
	return n.AddChild(t)
}

type WalkFunc func(Node) error

// Walk visits n and its subtree depth first, in document order. The
// walk stops at the first error returned by f, and that error is
// returned to the caller.
func Walk(n Node, f WalkFunc) error {
	if n == nil {
		return ErrNilNode
	}

	if err := f(n); err != nil {
		return err
	}
	for _, c := range n.getNode().children {
		if err := Walk(c, f); err != nil {
			return err
		}
	}
	return nil
}
