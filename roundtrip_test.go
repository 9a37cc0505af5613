package xenon_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lestrrat-go/xenon"
	"github.com/stretchr/testify/require"
)

// nodeShape is a comparable projection of a tree, covering everything
// serialization must preserve: node kinds, names, attribute values and
// order, namespace declarations, text with its CDATA flag, and child
// order.
type nodeShape struct {
	Kind     string
	Name     string
	Value    string
	CDATA    bool
	Attrs    [][2]string
	NSDecls  []xenon.Namespace
	Children []nodeShape
}

func shapeOf(n xenon.Node) nodeShape {
	switch v := n.(type) {
	case *xenon.Document:
		s := nodeShape{Kind: "document"}
		for _, c := range v.Children() {
			s.Children = append(s.Children, shapeOf(c))
		}
		return s
	case *xenon.Element:
		s := nodeShape{Kind: "element", Name: v.Name(), NSDecls: v.Namespaces()}
		for _, a := range v.Attributes() {
			s.Attrs = append(s.Attrs, [2]string{a.Name(), a.Value()})
		}
		for _, c := range v.Children() {
			s.Children = append(s.Children, shapeOf(c))
		}
		return s
	case *xenon.Text:
		return nodeShape{Kind: "text", Value: string(v.Content()), CDATA: v.CDATA()}
	case *xenon.Comment:
		return nodeShape{Kind: "comment", Value: string(v.Content())}
	case *xenon.ProcessingInstruction:
		return nodeShape{Kind: "pi", Name: v.Target(), Value: v.Data()}
	}
	return nodeShape{Kind: "unknown"}
}

func TestRoundTripIsomorphism(t *testing.T) {
	inputs := []string{
		`<r>hello</r>`,
		`<r a="1" b="2"><c>text</c><d/></r>`,
		`<r><a></a><b/></r>`,
		`<r xmlns="urn:d" xmlns:p="urn:p"><p:c p:k="v"/></r>`,
		`<r>pre<![CDATA[<raw>]]>post</r>`,
		"<?pi data?><!-- note --><r>\n  <a>mixed</a>\n</r>",
		`<r>1 &lt; 2 &amp; &#169;</r>`,
	}

	for _, input := range inputs {
		doc, err := xenon.Parse(context.Background(), []byte(input))
		require.NoError(t, err, "parse should succeed for '%s'", input)

		var first bytes.Buffer
		require.NoError(t, xenon.NewDumper().DumpDoc(&first, doc), "dump should succeed for '%s'", input)

		redoc, err := xenon.Parse(context.Background(), first.Bytes())
		require.NoError(t, err, "re-parse should succeed for '%s'", first.String())

		require.Empty(t, cmp.Diff(shapeOf(doc), shapeOf(redoc)), "trees should be isomorphic for '%s'", input)

		var second bytes.Buffer
		require.NoError(t, xenon.NewDumper().DumpDoc(&second, redoc), "second dump should succeed for '%s'", input)
		require.Equal(t, first.String(), second.String(), "serialization is a fixed point for '%s'", input)
	}
}
