package xenon_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/lestrrat-go/xenon"
	"github.com/lestrrat-go/xenon/sax"
	"github.com/stretchr/testify/require"
)

var _ sax.Handler = (*xenon.TreeBuilder)(nil)

func newElementRecorder(names *[]string) *sax.Callbacks {
	h := sax.New()
	h.StartElementHandler = func(_ context.Context, elem sax.Element) error {
		*names = append(*names, elem.Name())
		return nil
	}
	return h
}

// newEventRecorder returns a handler that appends one line per event,
// close to the trace format libxml2's testSAX produces.
func newEventRecorder(events *[]string) *sax.Callbacks {
	record := func(format string, args ...interface{}) error {
		*events = append(*events, fmt.Sprintf(format, args...))
		return nil
	}

	h := sax.New()
	h.StartDocumentHandler = func(_ context.Context, info sax.DocumentInfo) error {
		return record("StartDocument(%s, %s)", info.Version, info.Encoding)
	}
	h.EndDocumentHandler = func(_ context.Context) error {
		return record("EndDocument()")
	}
	h.StartElementHandler = func(_ context.Context, elem sax.Element) error {
		if len(elem.Attributes) == 0 {
			return record("StartElement(%s)", elem.Name())
		}
		attrs := make([]string, 0, len(elem.Attributes))
		for _, a := range elem.Attributes {
			attrs = append(attrs, a.LocalName+"="+a.Value)
		}
		return record("StartElement(%s, [%s])", elem.Name(), strings.Join(attrs, " "))
	}
	h.EndElementHandler = func(_ context.Context, elem sax.Element) error {
		return record("EndElement(%s)", elem.Name())
	}
	h.CharactersHandler = func(_ context.Context, content []byte) error {
		return record("Characters(%s)", content)
	}
	h.IgnorableWhitespaceHandler = func(_ context.Context, content []byte) error {
		return record("IgnorableWhitespace(%d)", len(content))
	}
	h.CDATABlockHandler = func(_ context.Context, content []byte) error {
		return record("CDATABlock(%s)", content)
	}
	h.CommentHandler = func(_ context.Context, content []byte) error {
		return record("Comment(%s)", content)
	}
	h.ProcessingInstructionHandler = func(_ context.Context, target, data string) error {
		return record("ProcessingInstruction(%s, %s)", target, data)
	}
	h.InternalSubsetHandler = func(_ context.Context, name, publicID, systemID string) error {
		return record("InternalSubset(%s, %s, %s)", name, publicID, systemID)
	}
	h.EntityDeclHandler = func(_ context.Context, name string, _ int, _, _, content string) error {
		return record("EntityDecl(%s, %q)", name, content)
	}
	return h
}

func TestDispatcherEventOrder(t *testing.T) {
	const input = `<lib><b id="1"><t>A</t></b><b id="2"><t>B</t></b></lib>`

	var events []string
	d := xenon.NewDispatcher(newEventRecorder(&events))
	require.NoError(t, d.Run(context.Background(), []byte(input)), "Run should succeed")

	require.Equal(t, []string{
		"StartDocument(1.0, utf8)",
		"StartElement(lib)",
		"StartElement(b, [id=1])",
		"StartElement(t)",
		"Characters(A)",
		"EndElement(t)",
		"EndElement(b)",
		"StartElement(b, [id=2])",
		"StartElement(t)",
		"Characters(B)",
		"EndElement(t)",
		"EndElement(b)",
		"EndElement(lib)",
		"EndDocument()",
	}, events, "exactly one callback per token, in document order")
}

func TestDispatcherMixedContent(t *testing.T) {
	const input = `<?xml version="1.0"?><!--head--><root><?go fmt?><![CDATA[x < y]]> tail</root>`

	var events []string
	d := xenon.NewDispatcher(newEventRecorder(&events))
	require.NoError(t, d.Run(context.Background(), []byte(input)), "Run should succeed")

	require.Equal(t, []string{
		"StartDocument(1.0, utf8)",
		"Comment(head)",
		"StartElement(root)",
		"ProcessingInstruction(go, fmt)",
		"CDATABlock(x < y)",
		"Characters( tail)",
		"EndElement(root)",
		"EndDocument()",
	}, events, "every construct maps to its own callback")
}

func TestDispatcherIgnorableWhitespace(t *testing.T) {
	const input = "<a>\n  <b/>\n</a>"

	var events []string
	d := xenon.NewDispatcher(newEventRecorder(&events))
	require.NoError(t, d.Run(context.Background(), []byte(input)), "Run should succeed")

	require.Equal(t, []string{
		"StartDocument(1.0, utf8)",
		"StartElement(a)",
		"IgnorableWhitespace(3)",
		"StartElement(b)",
		"EndElement(b)",
		"IgnorableWhitespace(1)",
		"EndElement(a)",
		"EndDocument()",
	}, events, "blank runs between elements arrive as IgnorableWhitespace")
}

func TestDispatcherDoctype(t *testing.T) {
	const input = `<!DOCTYPE r [<!ENTITY greet "hi">]><r>&greet;</r>`

	var events []string
	d := xenon.NewDispatcher(newEventRecorder(&events), xenon.WithDoctype(true))
	require.NoError(t, d.Run(context.Background(), []byte(input)), "Run should succeed")

	require.Equal(t, []string{
		"StartDocument(1.0, utf8)",
		"InternalSubset(r, , )",
		`EntityDecl(greet, "hi")`,
		"StartElement(r)",
		"Characters(hi)",
		"EndElement(r)",
		"EndDocument()",
	}, events, "doctype is announced before the first content event")
}

func TestDispatcherStop(t *testing.T) {
	var names []string
	var ended bool

	h := sax.New()
	h.StartElementHandler = func(_ context.Context, elem sax.Element) error {
		names = append(names, elem.Name())
		if len(names) == 2 {
			return xenon.ErrStopRequested
		}
		return nil
	}
	h.EndDocumentHandler = func(_ context.Context) error {
		ended = true
		return nil
	}

	d := xenon.NewDispatcher(h)
	err := d.Run(context.Background(), []byte(`<a><b/><c/><d/></a>`))
	require.NoError(t, err, "a requested stop is a clean stop, not a failure")
	require.Equal(t, []string{"a", "b"}, names, "no element events fire after the stop")
	require.False(t, ended, "EndDocument does not fire after the stop")
}

func TestDispatcherHandlerError(t *testing.T) {
	boom := fmt.Errorf("handler exploded")

	h := sax.New()
	h.StartElementHandler = func(_ context.Context, _ sax.Element) error {
		return boom
	}

	d := xenon.NewDispatcher(h)
	err := d.Run(context.Background(), []byte(`<a/>`))
	require.ErrorIs(t, err, boom, "a handler error aborts the run")
}

func TestDispatcherStreamError(t *testing.T) {
	var reported error
	var names []string

	h := newElementRecorder(&names)
	h.ErrorHandler = func(_ context.Context, err error) {
		reported = err
	}

	d := xenon.NewDispatcher(h)
	err := d.Run(context.Background(), []byte(`<a><b></a>`))
	require.ErrorIs(t, err, xenon.ErrMismatchedTag, "a malformed document aborts the run")
	require.Equal(t, err, reported, "the Error callback saw the identical error")
	require.Equal(t, []string{"a", "b"}, names, "events before the error were delivered")
}

func TestDispatcherRunReader(t *testing.T) {
	var names []string
	d := xenon.NewDispatcher(newElementRecorder(&names))
	require.NoError(t, d.RunReader(context.Background(), strings.NewReader(`<a><b/></a>`)), "RunReader should succeed")
	require.Equal(t, []string{"a", "b"}, names, "reader input dispatches the same events")
}
