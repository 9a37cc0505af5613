package xenon

import (
	"github.com/lestrrat-go/xenon/internal/orderedmap"
)

type Element struct {
	node
	name       QName
	attributes *orderedmap.Map[string, *Attribute]
	nsDefs     []Namespace
}

func newElement(name string) *Element {
	e := &Element{}
	e.name = splitQName(name)
	e.attributes = orderedmap.New[string, *Attribute]()
	return e
}

func (n *Element) Type() NodeType {
	return ElementNodeType
}

// Name returns the element name as written, prefix included.
func (n *Element) Name() string {
	return n.name.String()
}

func (n *Element) LocalName() string {
	return n.name.Local
}

func (n *Element) Prefix() string {
	return n.name.Prefix
}

// URI returns the namespace URI the element name resolved to, or an
// empty string for a name outside any namespace.
func (n *Element) URI() string {
	return n.name.URI
}

// AddChild accepts element content: elements, text, comments, and
// processing instructions.
func (n *Element) AddChild(cur Node) error {
	switch cur.(type) {
	case *Element, *Text, *Comment, *ProcessingInstruction:
		return addChild(n, cur)
	}
	return ErrInvalidOperation
}

func (n *Element) AddContent(b []byte) error {
	return addContent(n, b)
}

// InsertChildAt places cur at position idx of the child list.
func (n *Element) InsertChildAt(idx int, cur Node) error {
	switch cur.(type) {
	case *Element, *Text, *Comment, *ProcessingInstruction:
		return insertChildAt(n, idx, cur)
	}
	return ErrInvalidOperation
}

// RemoveChild detaches cur from the element. It fails with
// ErrInvalidOperation if cur is not a direct child.
func (n *Element) RemoveChild(cur Node) error {
	return removeChild(n, cur)
}

// ReplaceChild swaps old for cur, keeping the position in the child
// list.
func (n *Element) ReplaceChild(old, cur Node) error {
	switch cur.(type) {
	case *Element, *Text, *Comment, *ProcessingInstruction:
		return replaceChild(n, old, cur)
	}
	return ErrInvalidOperation
}

// SetAttribute sets the attribute named name, overwriting the value
// if the element already has it. Insertion order is preserved for
// serialization.
func (n *Element) SetAttribute(name, value string) error {
	if !isXMLName(name) {
		return ErrInvalidName
	}
	if attr, ok := n.attributes.Get(name); ok {
		attr.value = value
		return nil
	}
	return n.attributes.Set(name, newAttribute(name, value))
}

// GetAttribute returns the attribute named name, by its as-written
// form, prefix included.
func (n *Element) GetAttribute(name string) (*Attribute, bool) {
	return n.attributes.Get(name)
}

// RemoveAttribute removes the attribute named name. Removing an
// absent attribute is a no-op.
func (n *Element) RemoveAttribute(name string) {
	n.attributes.Delete(name)
}

// Attributes returns the attributes in insertion order.
func (n *Element) Attributes() []*Attribute {
	attrs := make([]*Attribute, 0, n.attributes.Len())
	for _, attr := range n.attributes.Range() {
		attrs = append(attrs, attr)
	}
	return attrs
}

// DeclareNamespace records an xmlns declaration on this element. The
// reserved prefixes are enforced the same way the parser enforces
// them.
func (n *Element) DeclareNamespace(prefix, uri string) error {
	decl := Namespace{Prefix: prefix, URI: uri}
	if err := checkNSDecl(decl); err != nil {
		return err
	}
	for i, ns := range n.nsDefs {
		if ns.Prefix == prefix {
			n.nsDefs[i].URI = uri
			return nil
		}
	}
	n.nsDefs = append(n.nsDefs, decl)
	return nil
}

// Namespaces returns the xmlns declarations made on this element. The
// inherited scope is not included.
func (n *Element) Namespaces() []Namespace {
	return n.nsDefs
}

// TextContent returns the flattened text of the subtree, skipping
// comments and processing instructions.
func (n *Element) TextContent() string {
	return string(n.Content())
}
