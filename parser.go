package xenon

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// Parser drives the full pipeline. Events go to a TreeBuilder and the
// resulting Document is returned, unless WithSAX configures a custom
// handler, in which case that handler receives the events and the
// returned Document is nil.
type Parser struct {
	options []Option
}

// Parse is shorthand for NewParser(options...).Parse(ctx, b).
func Parse(ctx context.Context, b []byte, options ...Option) (*Document, error) {
	return NewParser(options...).Parse(ctx, b)
}

// ParseString parses a document held in a string.
func ParseString(ctx context.Context, s string, options ...Option) (*Document, error) {
	return NewParser(options...).Parse(ctx, []byte(s))
}

// ParseReader buffers src and parses the result. Reading stops at the
// configured input size limit.
func ParseReader(ctx context.Context, src io.Reader, options ...Option) (*Document, error) {
	return NewParser(options...).ParseReader(ctx, src)
}

func NewParser(options ...Option) *Parser {
	return &Parser{options: options}
}

func (p *Parser) Parse(ctx context.Context, b []byte) (*Document, error) {
	ctx, span := StartSpan(ctx, "Parser.Parse")
	defer span.End()

	cfg := newConfig(p.options...)

	handler := cfg.sax
	var tb *TreeBuilder
	if handler == nil {
		tb = NewTreeBuilder(p.options...)
		handler = tb
	}

	d := NewDispatcher(handler, p.options...)
	if err := d.Run(ctx, b); err != nil {
		return nil, errors.Wrap(err, `failed to parse document`)
	}

	if tb == nil {
		return nil, nil
	}
	return tb.Document(), nil
}

func (p *Parser) ParseReader(ctx context.Context, src io.Reader) (*Document, error) {
	cfg := newConfig(p.options...)
	b, err := readInput(src, cfg)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, b)
}
