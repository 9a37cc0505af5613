package xenon

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Dumper serializes a Document, a subtree, or a token stream back to
// XML text. The zero value writes everything on one line; WithIndent
// enables pretty printing for element-only content.
type Dumper struct {
	indent string
}

func NewDumper(options ...DumpOption) *Dumper {
	var d Dumper
	for _, option := range options {
		switch option.Ident() {
		case identIndent{}:
			d.indent = option.Value().(string)
		}
	}
	return &d
}

func (d *Dumper) writeString(out io.Writer, content string) error {
	_, err := io.WriteString(out, content)
	return err
}

// DumpDoc serializes the entire document, XML declaration and document
// type declaration included. Top level nodes are each followed by a
// newline, so the output always ends in one.
func (d *Dumper) DumpDoc(out io.Writer, doc *Document) error {
	if doc == nil {
		return errors.Wrap(ErrNilNode, `failed to dump document`)
	}

	if err := d.dumpXMLDecl(out, doc.Version(), doc.Encoding(), doc.Standalone()); err != nil {
		return err
	}
	if dt := doc.IntSubset(); dt != nil {
		if err := d.dumpDoctype(out, dt); err != nil {
			return err
		}
	}
	for _, child := range doc.Children() {
		if err := d.DumpNode(out, child); err != nil {
			return err
		}
		if err := d.writeString(out, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dumper) dumpXMLDecl(out io.Writer, version, encoding string, standalone StandaloneMode) error {
	if version == "" {
		version = "1.0"
	}
	if err := d.writeString(out, `<?xml version="`+version+`"`); err != nil {
		return err
	}
	if encoding != "" && encoding != "utf8" {
		if err := d.writeString(out, ` encoding="`+encoding+`"`); err != nil {
			return err
		}
	}
	if v := standalone.String(); v != "" {
		if err := d.writeString(out, ` standalone="`+v+`"`); err != nil {
			return err
		}
	}
	return d.writeString(out, "?>\n")
}

func (d *Dumper) dumpDoctype(out io.Writer, dt *DocumentType) error {
	if err := d.writeString(out, "<!DOCTYPE "+dt.Name()); err != nil {
		return err
	}
	switch {
	case dt.PublicID() != "":
		if err := d.writeString(out, ` PUBLIC "`+dt.PublicID()+`" "`+dt.SystemID()+`"`); err != nil {
			return err
		}
	case dt.SystemID() != "":
		if err := d.writeString(out, ` SYSTEM "`+dt.SystemID()+`"`); err != nil {
			return err
		}
	}

	opened := false
	for _, ent := range dt.Entities() {
		if !opened {
			if err := d.writeString(out, " [\n"); err != nil {
				return err
			}
			opened = true
		}
		if err := d.dumpEntityDecl(out, ent); err != nil {
			return err
		}
	}
	if opened {
		if err := d.writeString(out, "]"); err != nil {
			return err
		}
	}
	return d.writeString(out, ">\n")
}

func (d *Dumper) dumpEntityDecl(out io.Writer, ent *Entity) error {
	if err := d.writeString(out, "<!ENTITY "+ent.Name()+" "); err != nil {
		return err
	}

	if ent.external() {
		var err error
		if pub := ent.PublicID(); pub != "" {
			err = d.writeString(out, `PUBLIC "`+pub+`" "`+ent.SystemID()+`"`)
		} else {
			err = d.writeString(out, `SYSTEM "`+ent.SystemID()+`"`)
		}
		if err != nil {
			return err
		}
	} else {
		if err := dumpQuotedString(out, ent.Content()); err != nil {
			return err
		}
	}
	return d.writeString(out, ">\n")
}

// dumpQuotedString writes s as a quoted literal, picking whichever
// delimiter s does not contain. When it contains both kinds the double
// quotes are written as references instead.
func dumpQuotedString(out io.Writer, s string) error {
	if !strings.ContainsRune(s, '"') {
		_, err := io.WriteString(out, `"`+s+`"`)
		return err
	}
	if !strings.ContainsRune(s, '\'') {
		_, err := io.WriteString(out, `'`+s+`'`)
		return err
	}
	_, err := io.WriteString(out, `"`+strings.ReplaceAll(s, `"`, "&quot;")+`"`)
	return err
}

// DumpNode serializes a single node and its subtree.
func (d *Dumper) DumpNode(out io.Writer, n Node) error {
	if n == nil {
		return errors.Wrap(ErrNilNode, `failed to dump node`)
	}

	switch n := n.(type) {
	case *Document:
		return d.DumpDoc(out, n)
	case *Element:
		return d.dumpElement(out, n, 0)
	case *Text:
		if n.CDATA() {
			// a CDATA section cannot contain its own terminator, so
			// runs of "]]>" are split across two sections
			content := strings.ReplaceAll(string(n.Content()), "]]>", "]]]]><![CDATA[>")
			return d.writeString(out, "<![CDATA["+content+"]]>")
		}
		return escapeText(out, n.Content())
	case *Comment:
		return d.writeString(out, "<!--"+string(n.Content())+"-->")
	case *ProcessingInstruction:
		if data := n.Data(); data != "" {
			return d.writeString(out, "<?"+n.Target()+" "+data+"?>")
		}
		return d.writeString(out, "<?"+n.Target()+"?>")
	}
	return errors.Wrapf(ErrInvalidOperation, `cannot dump node type %s`, n.Type())
}

func (d *Dumper) dumpElement(out io.Writer, e *Element, depth int) error {
	name := e.Name()
	if err := d.writeString(out, "<"+name); err != nil {
		return err
	}

	for _, ns := range e.Namespaces() {
		decl := ` xmlns="`
		if ns.Prefix != "" {
			decl = ` xmlns:` + ns.Prefix + `="`
		}
		if err := d.writeString(out, decl); err != nil {
			return err
		}
		if err := escapeAttrValue(out, []byte(ns.URI)); err != nil {
			return err
		}
		if err := d.writeString(out, `"`); err != nil {
			return err
		}
	}

	for _, attr := range e.Attributes() {
		if err := d.writeString(out, " "+attr.Name()+`="`); err != nil {
			return err
		}
		if err := escapeAttrValue(out, []byte(attr.Value())); err != nil {
			return err
		}
		if err := d.writeString(out, `"`); err != nil {
			return err
		}
	}

	children := e.Children()
	if len(children) == 0 {
		return d.writeString(out, "/>")
	}

	if err := d.writeString(out, ">"); err != nil {
		return err
	}

	// pretty printing inside an element that carries character data
	// would change its content
	format := d.indent != "" && !hasTextChild(children)
	for _, child := range children {
		if format {
			if err := d.writeString(out, "\n"+strings.Repeat(d.indent, depth+1)); err != nil {
				return err
			}
		}
		var err error
		if ce, ok := child.(*Element); ok {
			err = d.dumpElement(out, ce, depth+1)
		} else {
			err = d.DumpNode(out, child)
		}
		if err != nil {
			return err
		}
	}
	if format {
		if err := d.writeString(out, "\n"+strings.Repeat(d.indent, depth)); err != nil {
			return err
		}
	}

	return d.writeString(out, "</"+name+">")
}

func hasTextChild(children []Node) bool {
	for _, child := range children {
		if child.Type() == TextNodeType {
			return true
		}
	}
	return false
}

// DumpStream copies a token stream to out as serialized XML without
// building a tree. The cursor is advanced to the end of its input.
func (d *Dumper) DumpStream(ctx context.Context, out io.Writer, c *Cursor) error {
	if err := d.dumpXMLDecl(out, c.Version(), c.Encoding(), c.Standalone()); err != nil {
		return err
	}

	var dtdSeen bool
	for {
		tok, err := c.Advance(ctx)
		if err != nil {
			if err == io.EOF {
				return d.writeString(out, "\n")
			}
			return err
		}

		if !dtdSeen {
			if dt := c.Doctype(); dt != nil {
				if err := d.dumpDoctype(out, dt); err != nil {
					return err
				}
				dtdSeen = true
			}
		}

		if err := d.dumpToken(out, tok); err != nil {
			return err
		}
	}
}

func (d *Dumper) dumpToken(out io.Writer, tok *Token) error {
	switch tok.Type {
	case StartTagToken:
		if err := d.writeString(out, "<"+tok.Name.String()); err != nil {
			return err
		}
		for _, ns := range tok.NSDecls {
			decl := ` xmlns="`
			if ns.Prefix != "" {
				decl = ` xmlns:` + ns.Prefix + `="`
			}
			if err := d.writeString(out, decl); err != nil {
				return err
			}
			if err := escapeAttrValue(out, []byte(ns.URI)); err != nil {
				return err
			}
			if err := d.writeString(out, `"`); err != nil {
				return err
			}
		}
		for _, attr := range tok.Attrs {
			if err := d.writeString(out, " "+attr.Name.String()+`="`); err != nil {
				return err
			}
			if err := escapeAttrValue(out, []byte(attr.Value)); err != nil {
				return err
			}
			if err := d.writeString(out, `"`); err != nil {
				return err
			}
		}
		if tok.SelfClosing {
			return d.writeString(out, "/>")
		}
		return d.writeString(out, ">")

	case EndTagToken:
		if tok.SelfClosing {
			// the synthesized partner of an empty element tag; its
			// start tag was already written in "/>" form
			return nil
		}
		return d.writeString(out, "</"+tok.Name.String()+">")

	case TextToken:
		return escapeText(out, tok.Text)

	case CDataToken:
		content := strings.ReplaceAll(string(tok.Text), "]]>", "]]]]><![CDATA[>")
		return d.writeString(out, "<![CDATA["+content+"]]>")

	case CommentToken:
		return d.writeString(out, "<!--"+string(tok.Text)+"-->")

	case ProcessingInstructionToken:
		if len(tok.Text) > 0 {
			return d.writeString(out, "<?"+tok.Name.Local+" "+string(tok.Text)+"?>")
		}
		return d.writeString(out, "<?"+tok.Name.Local+"?>")
	}
	return errors.Errorf(`cannot dump token type %s`, tok.Type)
}

var (
	escQuot = []byte("&#34;")
	escAmp  = []byte("&amp;")
	escLt   = []byte("&lt;")
	escGt   = []byte("&gt;")
	escTab  = []byte("&#9;")
	escNl   = []byte("&#10;")
	escCr   = []byte("&#13;")
	escFFFD = []byte("�")
)

// escapeText writes s with the characters that cannot appear literally
// in character data replaced by references. Newlines pass through
// untouched so multi line text keeps its shape.
func escapeText(out io.Writer, s []byte) error {
	var esc []byte
	last := 0
	for i := 0; i < len(s); {
		r, width := utf8.DecodeRune(s[i:])
		i += width
		switch r {
		case '&':
			esc = escAmp
		case '<':
			esc = escLt
		case '>':
			esc = escGt
		case '\r':
			esc = escCr
		default:
			if !isChar(r) || (r == 0xFFFD && width == 1) {
				esc = escFFFD
				break
			}
			continue
		}
		if _, err := out.Write(s[last : i-width]); err != nil {
			return err
		}
		if _, err := out.Write(esc); err != nil {
			return err
		}
		last = i
	}
	_, err := out.Write(s[last:])
	return err
}

// escapeAttrValue writes s the way escapeText does, additionally
// escaping quotes and the whitespace characters that attribute value
// normalization would otherwise fold into spaces.
func escapeAttrValue(out io.Writer, s []byte) error {
	var esc []byte
	last := 0
	for i := 0; i < len(s); {
		r, width := utf8.DecodeRune(s[i:])
		i += width
		switch r {
		case '"':
			esc = escQuot
		case '&':
			esc = escAmp
		case '<':
			esc = escLt
		case '>':
			esc = escGt
		case '\n':
			esc = escNl
		case '\r':
			esc = escCr
		case '\t':
			esc = escTab
		default:
			if !isChar(r) || (r == 0xFFFD && width == 1) {
				esc = escFFFD
				break
			}
			continue
		}
		if _, err := out.Write(s[last : i-width]); err != nil {
			return err
		}
		if _, err := out.Write(esc); err != nil {
			return err
		}
		last = i
	}
	_, err := out.Write(s[last:])
	return err
}
