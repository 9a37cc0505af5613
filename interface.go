package xenon

import "errors"

var (
	ErrNilNode          = errors.New("nil node")
	ErrInvalidOperation = errors.New("operation cannot be performed")
)

// NodeType represents the type of a node in the document tree
type NodeType int

const (
	ElementNodeType NodeType = iota + 1
	TextNodeType
	CommentNodeType
	ProcessingInstructionNodeType
	DocumentNodeType
)

func (t NodeType) String() string {
	switch t {
	case ElementNodeType:
		return "Element"
	case TextNodeType:
		return "Text"
	case CommentNodeType:
		return "Comment"
	case ProcessingInstructionNodeType:
		return "ProcessingInstruction"
	case DocumentNodeType:
		return "Document"
	}
	return "Unknown"
}

// Node is the common surface of everything in a document tree. The
// tree is strictly hierarchical: children are owned by their parent,
// the parent reference is a non-owning backlink, and every mutation
// that could introduce a cycle is rejected with ErrInvalidOperation.
type Node interface {
	Type() NodeType
	Name() string
	LocalName() string

	// Content returns the flattened text of the node. For an Element
	// or Document this concatenates the text of the subtree, skipping
	// comments and processing instructions.
	Content() []byte

	Parent() Node
	OwnerDocument() *Document
	Children() []Node
	FirstChild() Node
	LastChild() Node
	NextSibling() Node
	PrevSibling() Node

	AddChild(Node) error
	AddContent([]byte) error

	// getNode anchors the implementation to this package. Node
	// identity checks rely on it.
	getNode() *node
}
