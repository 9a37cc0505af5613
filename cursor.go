package xenon

import (
	"context"
	"io"

	"github.com/lestrrat-go/xenon/internal/pool"
	"github.com/pkg/errors"
)

// Cursor is the pull mode consumer of a token stream. The caller
// drives it by calling Advance until io.EOF; Peek gives exactly one
// token of lookahead. Empty element tags arrive as a StartTag with
// SelfClosing set followed by a synthesized EndTag, so consumers
// always see balanced pairs.
type Cursor struct {
	r       *tokenReader
	current *Token
	peeked  *Token
}

// NewCursor creates a Cursor reading from b.
func NewCursor(b []byte, options ...Option) (*Cursor, error) {
	cfg := newConfig(options...)
	r, err := newTokenReader(b, cfg)
	if err != nil {
		return nil, errors.Wrap(err, `failed to create cursor`)
	}
	return &Cursor{r: r}, nil
}

// NewCursorReader creates a Cursor reading from src. The source is
// buffered in full before scanning starts, subject to the configured
// input size limit.
func NewCursorReader(src io.Reader, options ...Option) (*Cursor, error) {
	cfg := newConfig(options...)
	b, err := readInput(src, cfg)
	if err != nil {
		return nil, err
	}
	r, err := newTokenReader(b, cfg)
	if err != nil {
		return nil, errors.Wrap(err, `failed to create cursor`)
	}
	return &Cursor{r: r}, nil
}

// readInput buffers src in full. The configured size limit is applied
// while reading, so an oversized source is rejected without being
// buffered whole.
func readInput(src io.Reader, cfg *config) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(src, int64(cfg.maxInputSize)+1))
	if err != nil {
		return nil, errors.Wrap(err, `failed to read input`)
	}
	if len(b) > cfg.maxInputSize {
		return nil, &SecurityError{Err: ErrInputTooLarge}
	}
	return b, nil
}

// Version returns the version from the XML declaration, or an empty
// string if the document did not carry one.
func (c *Cursor) Version() string {
	return c.r.Version()
}

// Encoding returns the encoding name from the XML declaration, or an
// empty string if the document did not carry one.
func (c *Cursor) Encoding() string {
	return c.r.Encoding()
}

// Standalone reports the standalone declaration of the document.
func (c *Cursor) Standalone() StandaloneMode {
	return c.r.Standalone()
}

// Doctype returns the document type declaration, or nil if the
// document did not carry one.
func (c *Cursor) Doctype() *DocumentType {
	return c.r.Doctype()
}

// Advance consumes and returns the next token. It returns io.EOF
// after the last token, and any later calls keep returning io.EOF.
func (c *Cursor) Advance(ctx context.Context) (*Token, error) {
	if tok := c.peeked; tok != nil {
		c.peeked = nil
		c.current = tok
		return tok, nil
	}

	tok, err := c.r.Read(ctx)
	if err != nil {
		return nil, err
	}
	c.current = tok
	return tok, nil
}

// Peek returns the token the next Advance would return, without
// consuming it. Repeated calls return the same token.
func (c *Cursor) Peek(ctx context.Context) (*Token, error) {
	if tok := c.peeked; tok != nil {
		return tok, nil
	}

	tok, err := c.r.Read(ctx)
	if err != nil {
		return nil, err
	}
	c.peeked = tok
	return tok, nil
}

// SkipSubtree discards the subtree of the current start tag,
// consuming through its matching end tag. The cursor must be
// positioned on a start tag, or ErrNotStartElement is returned.
// Afterwards the current token is the end tag of the skipped element.
func (c *Cursor) SkipSubtree(ctx context.Context) error {
	if cur := c.current; cur == nil || cur.Type != StartTagToken {
		return ErrNotStartElement
	}

	depth := 1
	for depth > 0 {
		tok, err := c.Advance(ctx)
		if err != nil {
			return err
		}
		switch tok.Type {
		case StartTagToken:
			depth++
		case EndTagToken:
			depth--
		}
	}
	return nil
}

// ReadText consumes the content of the current element and returns
// its flattened text, leaving the cursor on the matching end tag. The
// cursor must be positioned on a start tag, or ErrNotStartElement is
// returned. Comments and processing instructions inside the element
// are discarded; a child element fails with ErrMixedElementContent.
func (c *Cursor) ReadText(ctx context.Context) (string, error) {
	if cur := c.current; cur == nil || cur.Type != StartTagToken {
		return "", ErrNotStartElement
	}

	buf := pool.ByteSlice().Get()
	defer pool.ByteSlice().Put(buf)

	for {
		tok, err := c.Advance(ctx)
		if err != nil {
			return "", err
		}
		switch tok.Type {
		case TextToken, CDataToken:
			buf = append(buf, tok.Text...)
		case CommentToken, ProcessingInstructionToken:
			// not text content, not an error either
		case EndTagToken:
			return string(buf), nil
		default:
			return "", errorAt(ErrMixedElementContent, tok.Span.Start)
		}
	}
}

// errorAt wraps err as a SyntaxError anchored at pos.
func errorAt(err error, pos Position) error {
	return &SyntaxError{
		Err:        err,
		LineNumber: pos.Line,
		Column:     pos.Column,
		Offset:     pos.Offset,
	}
}
