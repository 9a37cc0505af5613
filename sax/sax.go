// Package sax defines the push-mode event contract used by the
// dispatcher. Consumers implement Handler, or populate a Callbacks
// value with just the functions they care about.
package sax

import "context"

// Locator reports the position of the event currently being
// delivered. The locator handed to SetDocumentLocator stays valid
// for the whole run and updates as dispatch advances.
type Locator interface {
	LineNumber() int
	Column() int
}

// DocumentInfo carries the XML declaration values announced with
// StartDocument. Fields are empty when the document did not declare
// them.
type DocumentInfo struct {
	Version    string
	Encoding   string
	Standalone string
}

// Namespace is a single xmlns declaration as it appeared on an
// element. Prefix is empty for a default namespace declaration.
type Namespace struct {
	Prefix string
	URI    string
}

// Attribute is a fully resolved attribute. URI is empty for
// unprefixed attributes.
type Attribute struct {
	Prefix    string
	LocalName string
	URI       string
	Value     string
}

// Name returns the attribute name as written, prefix included.
func (a Attribute) Name() string {
	if a.Prefix == "" {
		return a.LocalName
	}
	return a.Prefix + ":" + a.LocalName
}

// Element is the payload for StartElement and EndElement.
// Namespaces holds only the declarations appearing on this element,
// not the inherited scope.
type Element struct {
	Prefix     string
	LocalName  string
	URI        string
	Attributes []Attribute
	Namespaces []Namespace
}

// Name returns the element name as written, prefix included.
func (e Element) Name() string {
	if e.Prefix == "" {
		return e.LocalName
	}
	return e.Prefix + ":" + e.LocalName
}

// ContentHandler receives the document structure events.
type ContentHandler interface {
	SetDocumentLocator(ctx context.Context, loc Locator) error
	StartDocument(ctx context.Context, info DocumentInfo) error
	EndDocument(ctx context.Context) error
	StartElement(ctx context.Context, elem Element) error
	EndElement(ctx context.Context, elem Element) error
	Characters(ctx context.Context, content []byte) error
	IgnorableWhitespace(ctx context.Context, content []byte) error
	ProcessingInstruction(ctx context.Context, target, data string) error
}

// LexicalHandler receives events that matter for faithful
// re-serialization but not for content.
type LexicalHandler interface {
	CDATABlock(ctx context.Context, content []byte) error
	Comment(ctx context.Context, content []byte) error
}

// DTDHandler receives document type declaration events.
type DTDHandler interface {
	InternalSubset(ctx context.Context, name, publicID, systemID string) error
	EntityDecl(ctx context.Context, name string, typ int, publicID, systemID, content string) error
}

// ErrorReporter is notified of the fatal error that aborted a run.
// The same error is also returned from the run, so reporting here is
// purely informational.
type ErrorReporter interface {
	Error(ctx context.Context, err error)
}

// Handler is the full event consumer driven by the dispatcher.
type Handler interface {
	ContentHandler
	LexicalHandler
	DTDHandler
	ErrorReporter
}
