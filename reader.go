package xenon

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// tokenReader layers namespace resolution, entity substitution and
// well-formedness checking over the raw scanner stream. Everything
// above it, the cursor, the dispatcher and the tree builder, consumes
// fully resolved tokens: names carry their namespace URI, references
// have been replaced by text, and empty element tags have been split
// into a start tag and a synthesized end tag.
type tokenReader struct {
	sc    *scanner
	wf    *wellFormedness
	scope *nsScope
	queue []*Token
	err   error
}

func newTokenReader(b []byte, cfg *config) (*tokenReader, error) {
	sc, err := newScanner(b, cfg)
	if err != nil {
		return nil, err
	}
	return &tokenReader{
		sc:    sc,
		wf:    newWellFormedness(cfg.maxDepth),
		scope: &nsScope{},
	}, nil
}

func (r *tokenReader) Version() string {
	return r.sc.Version()
}

func (r *tokenReader) Encoding() string {
	return r.sc.Encoding()
}

func (r *tokenReader) Standalone() StandaloneMode {
	return r.sc.Standalone()
}

func (r *tokenReader) Doctype() *DocumentType {
	return r.sc.Doctype()
}

func (r *tokenReader) depth() int {
	return r.wf.depth()
}

// Read returns the next resolved token, or io.EOF at the end of a
// well-formed document. Any other error is sticky.
func (r *tokenReader) Read(ctx context.Context) (*Token, error) {
	if r.err != nil {
		return nil, r.err
	}

	tok, err := r.read(ctx)
	if err != nil {
		r.err = err
		return nil, err
	}
	return tok, nil
}

func (r *tokenReader) read(ctx context.Context) (*Token, error) {
	if len(r.queue) > 0 {
		tok := r.queue[0]
		r.queue = r.queue[1:]
		if tok.Type == EndTagToken {
			if err := r.closeElement(tok); err != nil {
				return nil, err
			}
		}
		return tok, nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		tok, err := r.sc.Next(ctx)
		if err != nil {
			if err == io.EOF {
				if eoferr := r.wf.eof(); eoferr != nil {
					return nil, r.sc.error(eoferr)
				}
				return nil, io.EOF
			}
			return nil, err
		}

		switch tok.Type {
		case StartTagToken, EmptyElementTagToken:
			if err := r.openElement(tok); err != nil {
				return nil, err
			}
			if tok.Type == EmptyElementTagToken {
				tok.Type = StartTagToken
				end := &Token{Type: EndTagToken, Name: tok.Name, SelfClosing: true, Span: tok.Span}
				r.queue = append(r.queue, end)
			}
			return tok, nil

		case EndTagToken:
			if err := r.closeElement(tok); err != nil {
				return nil, err
			}
			return tok, nil

		case TextToken:
			blank := isAllBlank(tok.Text)
			if err := r.wf.content(blank); err != nil {
				return nil, r.sc.errorTok(err, tok)
			}
			if r.wf.state != wfInElement {
				// blank runs between top level constructs are dropped
				continue
			}
			return tok, nil

		case CDataToken:
			if err := r.wf.content(false); err != nil {
				return nil, r.sc.errorTok(err, tok)
			}
			return tok, nil

		case EntityRefToken:
			expanded, err := r.sc.entities.expand(ctx, string(tok.Text))
			if err != nil {
				return nil, r.sc.errorTok(err, tok)
			}
			if err := r.wf.content(false); err != nil {
				return nil, r.sc.errorTok(err, tok)
			}
			if len(expanded) == 0 {
				continue
			}
			return &Token{Type: TextToken, Text: expanded, Span: tok.Span}, nil

		default:
			return tok, nil
		}
	}
}

// openElement resolves namespaces for a start tag. Declarations are
// applied before anything else so that the failure mode for a stray
// prefix is a namespace error even when the element is also misplaced.
func (r *tokenReader) openElement(tok *Token) error {
	var decls []Namespace
	var attrs []Attr
	for _, attr := range tok.Attrs {
		switch {
		case attr.Name.Prefix == "" && attr.Name.Local == "xmlns":
			decls = append(decls, Namespace{URI: attr.Value})
		case attr.Name.Prefix == "xmlns":
			decls = append(decls, Namespace{Prefix: attr.Name.Local, URI: attr.Value})
		default:
			attrs = append(attrs, attr)
		}
	}

	for _, decl := range decls {
		if err := checkNSDecl(decl); err != nil {
			return r.nsError(err, decl.Prefix, tok)
		}
	}

	scope := r.scope.push(decls)

	uri, ok := scope.lookup(tok.Name.Prefix)
	if !ok {
		return r.nsError(errors.Wrapf(ErrUndeclaredPrefix, "on element '%s'", tok.Name), tok.Name.Prefix, tok)
	}
	tok.Name.URI = uri

	// unprefixed attributes take no namespace, not the default one
	for i := range attrs {
		if attrs[i].Name.Prefix == "" {
			continue
		}
		auri, ok := scope.lookup(attrs[i].Name.Prefix)
		if !ok {
			return r.nsError(errors.Wrapf(ErrUndeclaredPrefix, "on attribute '%s'", attrs[i].Name), attrs[i].Name.Prefix, tok)
		}
		attrs[i].Name.URI = auri
	}

	// two attributes may share a local name as long as their expanded
	// names differ
	if len(attrs) > 1 {
		seen := make(map[string]struct{}, len(attrs))
		for _, a := range attrs {
			key := a.Name.URI + "|" + a.Name.Local
			if _, dup := seen[key]; dup {
				return r.sc.errorTok(errors.Wrapf(ErrDuplicateAttribute, "expanded name of '%s'", a.Name), tok)
			}
			seen[key] = struct{}{}
		}
	}

	if err := r.wf.startElement(tok.Name, tok.Span.Start); err != nil {
		return r.sc.errorTok(err, tok)
	}

	r.scope = scope
	tok.Attrs = attrs
	tok.NSDecls = decls
	return nil
}

func (r *tokenReader) closeElement(tok *Token) error {
	if err := r.wf.endElement(tok.Name); err != nil {
		return r.sc.errorTok(err, tok)
	}
	if uri, ok := r.scope.lookup(tok.Name.Prefix); ok {
		tok.Name.URI = uri
	}
	r.scope = r.scope.pop()
	return nil
}

func (r *tokenReader) nsError(err error, prefix string, tok *Token) error {
	return &NamespaceError{
		Err:        err,
		Prefix:     prefix,
		LineNumber: tok.Span.Start.Line,
		Column:     tok.Span.Start.Column,
	}
}

func isAllBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
