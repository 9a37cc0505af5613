package xenon

import (
	"bytes"
	"strings"
)

// StandaloneMode mirrors the three observable states of the
// standalone document declaration.
type StandaloneMode int

const (
	StandaloneImplicitNo StandaloneMode = iota
	StandaloneExplicitYes
	StandaloneExplicitNo
)

// String returns the value as it appears in an XML declaration, or an
// empty string when no declaration was present.
func (m StandaloneMode) String() string {
	switch m {
	case StandaloneExplicitYes:
		return yes
	case StandaloneExplicitNo:
		return no
	}
	return ""
}

type Document struct {
	node
	version    string
	encoding   string
	standalone StandaloneMode
	intSubset  *DocumentType
}

func NewDocument(version, encoding string, standalone StandaloneMode) *Document {
	doc := &Document{
		encoding:   encoding,
		standalone: standalone,
		version:    version,
	}
	doc.node.doc = doc
	return doc
}

func (d *Document) Type() NodeType {
	return DocumentNodeType
}

func (d *Document) Name() string {
	return "#document"
}

func (d *Document) LocalName() string {
	return "#document"
}

func (d *Document) Encoding() string {
	return d.encoding
}

func (d *Document) Standalone() StandaloneMode {
	return d.standalone
}

func (d *Document) Version() string {
	return d.version
}

func (d *Document) IntSubset() *DocumentType {
	return d.intSubset
}

// CreateInternalSubset creates a document type declaration and
// attaches it to the document, replacing any previous one.
func (d *Document) CreateInternalSubset(name, publicID, systemID string) (*DocumentType, error) {
	if name != "" && !isXMLName(name) {
		return nil, ErrInvalidName
	}
	dt := newDocumentType(name, publicID, systemID)
	d.intSubset = dt
	return dt, nil
}

// AddChild accepts the node kinds a document may directly hold: one
// element, plus any number of comments and processing instructions.
func (d *Document) AddChild(cur Node) error {
	switch cur.(type) {
	case *Element:
		if d.DocumentElement() != nil {
			return ErrInvalidOperation
		}
	case *Comment, *ProcessingInstruction:
	default:
		return ErrInvalidOperation
	}
	return addChild(d, cur)
}

// AddContent is not a valid operation on a document. Text belongs
// inside the document element.
func (d *Document) AddContent(_ []byte) error {
	return ErrInvalidOperation
}

// DocumentElement returns the root element, or nil if none has been
// attached yet.
func (d *Document) DocumentElement() *Element {
	for _, c := range d.children {
		if e, ok := c.(*Element); ok {
			return e
		}
	}
	return nil
}

// SetDocumentElement makes e the root element, replacing the current
// one in place if the document already has one.
func (d *Document) SetDocumentElement(e *Element) error {
	if e == nil {
		return ErrNilNode
	}
	if root := d.DocumentElement(); root != nil {
		return replaceChild(d, root, e)
	}
	return addChild(d, e)
}

func (d *Document) CreateElement(name string) (*Element, error) {
	if !isXMLName(name) {
		return nil, ErrInvalidName
	}
	e := newElement(name)
	e.doc = d
	return e, nil
}

func (d *Document) CreateText(value []byte) (*Text, error) {
	e := newText(value)
	e.doc = d
	return e, nil
}

func (d *Document) CreateCDATA(value []byte) (*Text, error) {
	e := newCDATA(value)
	e.doc = d
	return e, nil
}

func (d *Document) CreateComment(value []byte) (*Comment, error) {
	e := newComment(value)
	e.doc = d
	return e, nil
}

func (d *Document) CreatePI(target, data string) (*ProcessingInstruction, error) {
	if !isXMLName(target) {
		return nil, ErrInvalidName
	}
	e := newProcessingInstruction(target, data)
	e.doc = d
	return e, nil
}

// GetElementByID returns the first element, in document order, whose
// "id" or "xml:id" attribute equals id. It returns nil when no
// element matches.
func (d *Document) GetElementByID(id string) *Element {
	if id == "" {
		return nil
	}

	var found *Element
	_ = Walk(d, func(n Node) error {
		e, ok := n.(*Element)
		if !ok {
			return nil
		}
		for _, name := range []string{"id", "xml:id"} {
			if attr, ok := e.GetAttribute(name); ok && attr.Value() == id {
				found = e
				return errStopWalk
			}
		}
		return nil
	})
	return found
}

// TextContent returns the flattened text of the document element.
func (d *Document) TextContent() string {
	return string(d.Content())
}

// XMLString serializes the document to its canonical UTF-8 form.
func (d *Document) XMLString(options ...DumpOption) (string, error) {
	var buf bytes.Buffer
	if err := NewDumper(options...).DumpDoc(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// splitQName separates a prefixed name into its prefix and local
// part. The resolved URI is left empty.
func splitQName(name string) QName {
	if i := strings.IndexByte(name, ':'); i > 0 && i < len(name)-1 {
		return QName{Prefix: name[:i], Local: name[i+1:]}
	}
	return QName{Local: name}
}
