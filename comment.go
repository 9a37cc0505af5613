package xenon

type Comment struct {
	node
	content []byte
}

func newComment(b []byte) *Comment {
	t := &Comment{}
	t.content = append([]byte(nil), b...)
	return t
}

func (n *Comment) Type() NodeType {
	return CommentNodeType
}

func (n *Comment) Name() string {
	return "#comment"
}

func (n *Comment) LocalName() string {
	return "#comment"
}

func (n *Comment) Content() []byte {
	return n.content
}

// AddChild concatenates another comment into this one. Any other node
// kind fails with ErrInvalidOperation.
func (n *Comment) AddChild(cur Node) error {
	t, ok := cur.(*Comment)
	if !ok {
		return ErrInvalidOperation
	}
	return n.AddContent(t.content)
}

func (n *Comment) AddContent(b []byte) error {
	n.content = append(n.content, b...)
	return nil
}
