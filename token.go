package xenon

import "fmt"

// TokenType identifies the lexical form a Token was scanned from.
type TokenType int

const (
	StartTagToken TokenType = iota + 1
	EndTagToken
	EmptyElementTagToken
	TextToken
	CDataToken
	CommentToken
	ProcessingInstructionToken
	EntityRefToken
)

func (t TokenType) String() string {
	switch t {
	case StartTagToken:
		return "StartTag"
	case EndTagToken:
		return "EndTag"
	case EmptyElementTagToken:
		return "EmptyElementTag"
	case TextToken:
		return "Text"
	case CDataToken:
		return "CData"
	case CommentToken:
		return "Comment"
	case ProcessingInstructionToken:
		return "ProcessingInstruction"
	case EntityRefToken:
		return "EntityRef"
	}
	return "Unknown"
}

// Position is a location in the source document. Line and Column are
// 1-based, Offset counts bytes from the start of the (decoded) input.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is the source region a token was scanned from.
type Span struct {
	Start Position
	End   Position
}

// QName is a qualified name after namespace resolution. URI is empty
// for names outside any namespace; at the scanner level, before
// resolution has run, URI is always empty.
type QName struct {
	Prefix string
	Local  string
	URI    string
}

func (n QName) String() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// Attr is a single attribute as it appeared on a start tag, with its
// value fully expanded. Namespace declarations are not attributes;
// they travel in Token.NSDecls.
type Attr struct {
	Name  QName
	Value string
}

// Namespace is a prefix binding declared by an xmlns attribute.
// A Prefix of "" denotes the default namespace.
type Namespace struct {
	Prefix string
	URI    string
}

// Token is one item of the scanned stream.
//
// StartTag carries Name, Attrs and NSDecls; a StartTag produced from
// an empty-element tag additionally has SelfClosing set, and is always
// followed by its synthesized EndTag. Text, CData, Comment and
// ProcessingInstruction carry their content in Text (for a PI, Name.Local
// is the target and Text the data). EntityRef carries the raw reference
// name in Name.Local and only ever appears on the scanner's own output;
// the validated stream resolves it before the token reaches a consumer.
type Token struct {
	Type        TokenType
	Name        QName
	Attrs       []Attr
	NSDecls     []Namespace
	Text        []byte
	SelfClosing bool
	Span        Span
}

func (t *Token) String() string {
	switch t.Type {
	case StartTagToken, EndTagToken, EmptyElementTagToken, EntityRefToken:
		return fmt.Sprintf("%s(%s)", t.Type, t.Name)
	case ProcessingInstructionToken:
		return fmt.Sprintf("%s(%s)", t.Type, t.Name.Local)
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Text)
}
