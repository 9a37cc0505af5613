package xenon_test

import (
	"context"
	"testing"

	"github.com/lestrrat-go/xenon"
	"github.com/stretchr/testify/require"
)

func TestDocumentAddChild(t *testing.T) {
	doc := xenon.NewDocument("1.0", "utf8", xenon.StandaloneImplicitNo)

	c, err := doc.CreateComment([]byte("prolog"))
	require.NoError(t, err, "CreateComment should succeed")
	require.NoError(t, doc.AddChild(c), "a document may hold comments")

	pi, err := doc.CreatePI("target", "data")
	require.NoError(t, err, "CreatePI should succeed")
	require.NoError(t, doc.AddChild(pi), "a document may hold processing instructions")

	root, err := doc.CreateElement("root")
	require.NoError(t, err, "CreateElement should succeed")
	require.NoError(t, doc.AddChild(root), "a document may hold one element")

	second, err := doc.CreateElement("second")
	require.NoError(t, err, "CreateElement should succeed")
	require.Equal(t, xenon.ErrInvalidOperation, doc.AddChild(second), "a second root is rejected")

	txt, err := doc.CreateText([]byte("loose"))
	require.NoError(t, err, "CreateText should succeed")
	require.Equal(t, xenon.ErrInvalidOperation, doc.AddChild(txt), "text may not live outside the root")
	require.Equal(t, xenon.ErrInvalidOperation, doc.AddContent([]byte("loose")), "AddContent is not valid on a document")

	_, err = doc.CreateElement("not a name")
	require.Equal(t, xenon.ErrInvalidName, err, "element names are validated")
	_, err = doc.CreatePI("not a target", "")
	require.Equal(t, xenon.ErrInvalidName, err, "PI targets are validated")
}

func TestDocumentSetDocumentElement(t *testing.T) {
	doc := xenon.NewDocument("1.0", "utf8", xenon.StandaloneImplicitNo)
	require.Equal(t, xenon.ErrNilNode, doc.SetDocumentElement(nil), "nil root is rejected")

	c, err := doc.CreateComment([]byte("keep me"))
	require.NoError(t, err, "CreateComment should succeed")
	require.NoError(t, doc.AddChild(c), "AddChild should succeed")

	first, err := doc.CreateElement("first")
	require.NoError(t, err, "CreateElement should succeed")
	require.NoError(t, doc.SetDocumentElement(first), "SetDocumentElement should succeed")
	require.Same(t, first, doc.DocumentElement(), "the root is attached")

	second, err := doc.CreateElement("second")
	require.NoError(t, err, "CreateElement should succeed")
	require.NoError(t, doc.SetDocumentElement(second), "replacing the root should succeed")
	require.Same(t, second, doc.DocumentElement(), "the new root took over")
	require.Nil(t, first.Parent(), "the old root is detached")

	children := doc.Children()
	require.Len(t, children, 2, "the comment survives the swap")
	require.Same(t, c, children[0], "prolog content keeps its position")
	require.Same(t, second, children[1], "the root keeps its position")
}

func TestDocumentWalk(t *testing.T) {
	doc, err := xenon.Parse(context.Background(), []byte(`<a><b><c/></b><d/></a>`))
	require.NoError(t, err, "Parse should succeed")

	var names []string
	err = xenon.Walk(doc, func(n xenon.Node) error {
		names = append(names, n.Name())
		return nil
	})
	require.NoError(t, err, "Walk should succeed")
	require.Equal(t, []string{"#document", "a", "b", "c", "d"}, names, "Walk visits nodes in document order")

	require.Equal(t, xenon.ErrNilNode, xenon.Walk(nil, func(_ xenon.Node) error { return nil }), "Walk rejects nil")
}

func TestDocumentGetElementByID(t *testing.T) {
	doc, err := xenon.Parse(context.Background(), []byte(`<r><a id="one"/><b xml:id="two"/><c id="three"/></r>`))
	require.NoError(t, err, "Parse should succeed")

	for id, name := range map[string]string{
		"one":   "a",
		"two":   "b",
		"three": "c",
	} {
		e := doc.GetElementByID(id)
		require.NotNil(t, e, "id '%s' should resolve", id)
		require.Equal(t, name, e.Name(), "id '%s' names the right element", id)
	}

	require.Nil(t, doc.GetElementByID("missing"), "unknown ids resolve to nothing")
	require.Nil(t, doc.GetElementByID(""), "the empty id resolves to nothing")
}

func TestDocumentTextContent(t *testing.T) {
	doc, err := xenon.Parse(context.Background(), []byte(`<r>one<b>two</b><!-- skip -->three</r>`))
	require.NoError(t, err, "Parse should succeed")
	require.Equal(t, "onetwothree", doc.TextContent(), "comments do not contribute text")
}

func TestDocumentXMLString(t *testing.T) {
	doc, err := xenon.Parse(context.Background(), []byte(`<r a="1">hi</r>`))
	require.NoError(t, err, "Parse should succeed")

	s, err := doc.XMLString()
	require.NoError(t, err, "XMLString should succeed")
	require.Equal(t, "<?xml version=\"1.0\"?>\n<r a=\"1\">hi</r>\n", s, "serialized form matches")
}

func TestDocumentInternalSubset(t *testing.T) {
	doc := xenon.NewDocument("1.0", "utf8", xenon.StandaloneImplicitNo)

	_, err := doc.CreateInternalSubset("not a name", "", "")
	require.Equal(t, xenon.ErrInvalidName, err, "the doctype name is validated")

	dt, err := doc.CreateInternalSubset("greeting", "", "urn:sys")
	require.NoError(t, err, "CreateInternalSubset should succeed")
	require.Same(t, dt, doc.IntSubset(), "the subset is attached to the document")
	require.Equal(t, "greeting", dt.Name(), "name is recorded")
	require.Equal(t, "urn:sys", dt.SystemID(), "system id is recorded")

	ent, err := dt.RegisterEntity("hello", xenon.InternalGeneralEntity, "", "", "Hello")
	require.NoError(t, err, "RegisterEntity should succeed")
	require.Equal(t, "Hello", ent.Content(), "entity content is recorded")

	// a duplicate declaration does not override the first
	again, err := dt.RegisterEntity("hello", xenon.InternalGeneralEntity, "", "", "Goodbye")
	require.NoError(t, err, "duplicate registration is not an error")
	require.Same(t, ent, again, "the first declaration is binding")

	got, ok := dt.LookupEntity("hello")
	require.True(t, ok, "lookup should find the entity")
	require.Equal(t, "Hello", got.Content(), "the first content wins")
}
