package xenon

type Text struct {
	node
	content []byte
	cdata   bool
}

func newText(b []byte) *Text {
	t := &Text{}
	t.content = append([]byte(nil), b...)
	return t
}

func newCDATA(b []byte) *Text {
	t := newText(b)
	t.cdata = true
	return t
}

func (n *Text) Type() NodeType {
	return TextNodeType
}

func (n *Text) Name() string {
	return n.LocalName()
}

func (n *Text) LocalName() string {
	if n.cdata {
		return "#cdata-section"
	}
	return "#text"
}

// CDATA reports whether the node came from a CDATA section. CDATA
// nodes serialize in section form and never merge with adjacent text.
func (n *Text) CDATA() bool {
	return n.cdata
}

func (n *Text) Content() []byte {
	return n.content
}

// AddChild concatenates another text node into this one. Any other
// node kind fails with ErrInvalidOperation.
func (n *Text) AddChild(cur Node) error {
	t, ok := cur.(*Text)
	if !ok {
		return ErrInvalidOperation
	}
	return n.AddContent(t.content)
}

func (n *Text) AddContent(b []byte) error {
	n.content = append(n.content, b...)
	return nil
}
