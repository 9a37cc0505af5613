package xenon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestElementContent(t *testing.T) {
	e := newElement("root")
	for _, chunk := range [][]byte{[]byte("Hello "), []byte("World!")} {
		require.NoError(t, e.AddContent(chunk), "AddContent succeeds")
	}

	require.Len(t, e.Children(), 1, "consecutive text merges into one node")
	require.IsType(t, newText(nil), e.LastChild(), "LastChild is a Text node")
	require.Equal(t, []byte("Hello World!"), e.Content(), "Content matches")

	e = newElement("root")
	for _, chunk := range [][]byte{[]byte("Hello "), []byte("World!")} {
		require.NoError(t, e.AddChild(newText(chunk)), "AddChild succeeds")
	}

	require.Len(t, e.Children(), 1, "consecutive text merges into one node")
	require.Equal(t, []byte("Hello World!"), e.Content(), "Content matches")
}

func TestElementCDATANoMerge(t *testing.T) {
	e := newElement("root")
	require.NoError(t, e.AddChild(newText([]byte("one"))), "AddChild succeeds")
	require.NoError(t, e.AddChild(newCDATA([]byte("two"))), "AddChild succeeds")
	require.NoError(t, e.AddChild(newText([]byte("three"))), "AddChild succeeds")

	require.Len(t, e.Children(), 3, "CDATA never merges with adjacent text")
	require.Equal(t, "onetwothree", e.TextContent(), "TextContent flattens all of them")
}

func TestElementAttributes(t *testing.T) {
	e := newElement("root")
	require.NoError(t, e.SetAttribute("b", "2"), "SetAttribute succeeds")
	require.NoError(t, e.SetAttribute("a", "1"), "SetAttribute succeeds")

	attr, ok := e.GetAttribute("a")
	require.True(t, ok, "attribute 'a' is present")
	require.Equal(t, "1", attr.Value(), "value matches")

	require.NoError(t, e.SetAttribute("a", "3"), "overwriting succeeds")
	attr, _ = e.GetAttribute("a")
	require.Equal(t, "3", attr.Value(), "overwritten value matches")

	names := make([]string, 0, 2)
	for _, attr := range e.Attributes() {
		names = append(names, attr.Name())
	}
	require.Equal(t, []string{"b", "a"}, names, "insertion order is preserved")

	require.Equal(t, ErrInvalidName, e.SetAttribute("not a name", "x"), "a name with spaces is rejected")

	e.RemoveAttribute("b")
	_, ok = e.GetAttribute("b")
	require.False(t, ok, "removed attribute is gone")
	e.RemoveAttribute("b") // removing twice is fine
}

func TestElementNamespaces(t *testing.T) {
	e := newElement("x:root")
	require.Equal(t, "x", e.Prefix(), "prefix is split off")
	require.Equal(t, "root", e.LocalName(), "local name is split off")
	require.Equal(t, "x:root", e.Name(), "Name keeps the written form")

	require.NoError(t, e.DeclareNamespace("x", "urn:a"), "DeclareNamespace succeeds")
	require.NoError(t, e.DeclareNamespace("", "urn:default"), "default namespace can be declared")
	require.NoError(t, e.DeclareNamespace("x", "urn:b"), "redeclaring a prefix overwrites")

	require.Equal(t, []Namespace{{Prefix: "x", URI: "urn:b"}, {Prefix: "", URI: "urn:default"}}, e.Namespaces())

	require.ErrorIs(t, e.DeclareNamespace("xmlns", "urn:x"), ErrReservedPrefix, "the xmlns prefix cannot be declared")
	require.ErrorIs(t, e.DeclareNamespace("xml", "urn:x"), ErrReservedPrefix, "the xml prefix cannot be rebound")
	require.NoError(t, e.DeclareNamespace("xml", XMLNamespaceURI), "the xml prefix may be bound to its own URI")
	require.ErrorIs(t, e.DeclareNamespace("y", XMLNamespaceURI), ErrReservedPrefix, "the xml URI cannot take another prefix")
}

func TestElementChildManipulation(t *testing.T) {
	root := newElement("root")
	a := newElement("a")
	b := newElement("b")
	c := newElement("c")
	require.NoError(t, root.AddChild(a), "AddChild succeeds")
	require.NoError(t, root.AddChild(c), "AddChild succeeds")

	require.NoError(t, root.InsertChildAt(1, b), "InsertChildAt succeeds")
	require.Equal(t, []Node{a, b, c}, root.Children(), "b lands between a and c")
	require.Equal(t, b, a.NextSibling(), "sibling links follow the order")
	require.Equal(t, b, c.PrevSibling(), "sibling links follow the order")

	d := newElement("d")
	require.NoError(t, root.ReplaceChild(b, d), "ReplaceChild succeeds")
	require.Equal(t, []Node{a, d, c}, root.Children(), "d took b's position")
	require.Nil(t, b.Parent(), "the replaced node is detached")

	require.NoError(t, root.RemoveChild(d), "RemoveChild succeeds")
	require.Equal(t, []Node{a, c}, root.Children(), "d is gone")
	require.Equal(t, ErrInvalidOperation, root.RemoveChild(d), "removing a non-child fails")

	require.Equal(t, ErrInvalidOperation, root.InsertChildAt(5, d), "an out of range index fails")
	require.Equal(t, ErrInvalidOperation, root.InsertChildAt(-1, d), "a negative index fails")
}

func TestElementCycleRejected(t *testing.T) {
	root := newElement("root")
	child := newElement("child")
	require.NoError(t, root.AddChild(child), "AddChild succeeds")

	require.Equal(t, ErrInvalidOperation, child.AddChild(root), "adding an ancestor creates a cycle")
	require.Equal(t, ErrInvalidOperation, root.AddChild(root), "adding a node to itself creates a cycle")
	require.Equal(t, ErrInvalidOperation, child.InsertChildAt(0, root), "inserting an ancestor creates a cycle")
}

func TestElementReparent(t *testing.T) {
	left := newElement("left")
	right := newElement("right")
	child := newElement("child")

	require.NoError(t, left.AddChild(child), "AddChild succeeds")
	require.NoError(t, right.AddChild(child), "a node moves to its new parent")

	require.Empty(t, left.Children(), "the old parent lost the child")
	require.Equal(t, []Node{child}, right.Children(), "the new parent has it")
	require.Equal(t, right, child.Parent().(*Element), "the parent link is updated")
}
