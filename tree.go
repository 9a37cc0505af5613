package xenon

import (
	"context"

	"github.com/lestrrat-go/xenon/internal/debug"
	"github.com/lestrrat-go/xenon/sax"
	"github.com/pkg/errors"
)

// TreeBuilder consumes the event stream and materializes a Document.
// It is the handler Parse installs when no custom one is configured.
type TreeBuilder struct {
	doc        *Document
	node       Node
	keepBlanks bool
}

func NewTreeBuilder(options ...Option) *TreeBuilder {
	cfg := newConfig(options...)
	return &TreeBuilder{keepBlanks: cfg.keepBlanks}
}

// Document returns the tree built by the last run, or nil before
// EndDocument has fired.
func (t *TreeBuilder) Document() *Document {
	return t.doc
}

func standaloneMode(v string) StandaloneMode {
	switch v {
	case yes:
		return StandaloneExplicitYes
	case no:
		return StandaloneExplicitNo
	}
	return StandaloneImplicitNo
}

func (t *TreeBuilder) SetDocumentLocator(_ context.Context, _ sax.Locator) error {
	if debug.Enabled {
		g := debug.IPrintf("START tree.SetDocumentLocator")
		defer g.IRelease("END tree.SetDocumentLocator")
	}

	return nil
}

func (t *TreeBuilder) StartDocument(_ context.Context, info sax.DocumentInfo) error {
	if debug.Enabled {
		g := debug.IPrintf("START tree.StartDocument")
		defer g.IRelease("END tree.StartDocument")
	}

	t.doc = NewDocument(info.Version, info.Encoding, standaloneMode(info.Standalone))
	t.node = nil
	return nil
}

func (t *TreeBuilder) EndDocument(_ context.Context) error {
	if debug.Enabled {
		g := debug.IPrintf("START tree.EndDocument")
		defer g.IRelease("END tree.EndDocument")
	}

	t.node = nil
	return nil
}

func (t *TreeBuilder) StartElement(_ context.Context, elem sax.Element) error {
	if debug.Enabled {
		g := debug.IPrintf("START tree.StartElement: %s", elem.Name())
		defer g.IRelease("END tree.StartElement")
	}

	e, err := t.doc.CreateElement(elem.Name())
	if err != nil {
		return errors.Wrapf(err, `failed to create element '%s'`, elem.Name())
	}
	e.name.URI = elem.URI

	for _, ns := range elem.Namespaces {
		if err := e.DeclareNamespace(ns.Prefix, ns.URI); err != nil {
			return errors.Wrapf(err, `failed to declare namespace '%s'`, ns.Prefix)
		}
	}

	for _, attr := range elem.Attributes {
		a := newAttribute(attr.Name(), attr.Value)
		a.name.URI = attr.URI
		if err := e.attributes.Set(a.Name(), a); err != nil {
			return errors.Wrapf(err, `failed to set attribute '%s'`, a.Name())
		}
	}

	if t.node == nil {
		err = t.doc.AddChild(e)
	} else {
		err = t.node.AddChild(e)
	}
	if err != nil {
		return errors.Wrapf(err, `failed to add element '%s'`, elem.Name())
	}

	t.node = e
	return nil
}

func (t *TreeBuilder) EndElement(_ context.Context, elem sax.Element) error {
	if debug.Enabled {
		debug.Printf("tree.EndElement: %s", elem.Name())
	}

	e, ok := t.node.(*Element)
	if !ok || e.LocalName() != elem.LocalName || e.Prefix() != elem.Prefix {
		return errors.Errorf(`end of element '%s' does not match the open element`, elem.Name())
	}

	parent := e.Parent()
	if _, ok := parent.(*Document); ok || parent == nil {
		t.node = nil
	} else {
		t.node = parent
	}
	return nil
}

func (t *TreeBuilder) Characters(_ context.Context, data []byte) error {
	if debug.Enabled {
		g := debug.IPrintf("START tree.Characters: '%s'", data)
		defer g.IRelease("END tree.Characters")
	}

	if t.node == nil {
		return errors.New("text content placed in wrong location")
	}

	return t.node.AddContent(data)
}

func (t *TreeBuilder) IgnorableWhitespace(ctx context.Context, content []byte) error {
	if debug.Enabled {
		g := debug.IPrintf("START tree.IgnorableWhitespace (%v)", content)
		defer g.IRelease("END tree.IgnorableWhitespace")
	}

	if !t.keepBlanks || t.node == nil {
		return nil
	}
	return t.Characters(ctx, content)
}

func (t *TreeBuilder) CDATABlock(_ context.Context, data []byte) error {
	if debug.Enabled {
		g := debug.IPrintf("START tree.CDATABlock")
		defer g.IRelease("END tree.CDATABlock")
	}

	if t.node == nil {
		return errors.New("CDATA placed in wrong location")
	}

	cd, err := t.doc.CreateCDATA(data)
	if err != nil {
		return errors.Wrap(err, `failed to create CDATA section`)
	}
	return t.node.AddChild(cd)
}

func (t *TreeBuilder) Comment(_ context.Context, data []byte) error {
	if debug.Enabled {
		g := debug.IPrintf("START tree.Comment: %s", data)
		defer g.IRelease("END tree.Comment")
	}

	if t.doc == nil {
		return errors.New("comment placed in wrong location")
	}

	e, err := t.doc.CreateComment(data)
	if err != nil {
		return errors.Wrap(err, `failed to create comment`)
	}

	if t.node == nil {
		return t.doc.AddChild(e)
	}
	return t.node.AddChild(e)
}

func (t *TreeBuilder) ProcessingInstruction(_ context.Context, target, data string) error {
	if debug.Enabled {
		g := debug.IPrintf("START tree.ProcessingInstruction")
		defer g.IRelease("END tree.ProcessingInstruction")
	}

	if t.doc == nil {
		return errors.New("processing instruction placed in wrong location")
	}

	pi, err := t.doc.CreatePI(target, data)
	if err != nil {
		return errors.Wrapf(err, `failed to create processing instruction '%s'`, target)
	}

	if t.node == nil {
		return t.doc.AddChild(pi)
	}
	return t.node.AddChild(pi)
}

func (t *TreeBuilder) InternalSubset(_ context.Context, name, publicID, systemID string) error {
	if debug.Enabled {
		g := debug.IPrintf("START tree.InternalSubset: %s", name)
		defer g.IRelease("END tree.InternalSubset")
	}

	_, err := t.doc.CreateInternalSubset(name, publicID, systemID)
	if err != nil {
		return errors.Wrap(err, `failed to create internal subset`)
	}
	return nil
}

func (t *TreeBuilder) EntityDecl(_ context.Context, name string, typ int, publicID, systemID, content string) error {
	if debug.Enabled {
		g := debug.IPrintf("START tree.EntityDecl: %s", name)
		defer g.IRelease("END tree.EntityDecl")
	}

	dt := t.doc.IntSubset()
	if dt == nil {
		var err error
		dt, err = t.doc.CreateInternalSubset("", "", "")
		if err != nil {
			return errors.Wrap(err, `failed to create internal subset`)
		}
	}

	if _, err := dt.RegisterEntity(name, EntityType(typ), publicID, systemID, content); err != nil {
		return errors.Wrapf(err, `failed to register entity '%s'`, name)
	}
	return nil
}

func (t *TreeBuilder) Error(_ context.Context, err error) {
	if debug.Enabled {
		debug.Printf("tree.Error: %s", err)
	}
}
