package xenon

import (
	"context"
	"io"

	"github.com/lestrrat-go/xenon/internal/debug"
	"github.com/lestrrat-go/xenon/sax"
	"github.com/pkg/errors"
)

// Dispatcher is the push mode consumer of a token stream. It drives a
// sax.Handler with exactly one callback per token, in document order,
// bracketed by synthesized StartDocument and EndDocument events.
//
// A handler callback returning ErrStopRequested stops the run
// cleanly: no further events fire, EndDocument included, and Run
// returns nil. Any other callback error, and any fatal stream error,
// aborts the run; fatal stream errors are additionally reported
// through the handler's Error callback before being returned.
type Dispatcher struct {
	h       sax.Handler
	options []Option
}

func NewDispatcher(h sax.Handler, options ...Option) *Dispatcher {
	return &Dispatcher{h: h, options: options}
}

// Run dispatches the document in b.
func (d *Dispatcher) Run(ctx context.Context, b []byte) error {
	ctx, span := StartSpan(ctx, "Dispatcher.Run")
	defer span.End()

	cfg := newConfig(d.options...)
	r, err := newTokenReader(b, cfg)
	if err != nil {
		return d.fatal(ctx, err)
	}
	return d.run(ctx, r)
}

// RunReader dispatches the document read from src. The source is
// buffered in full before scanning starts, subject to the configured
// input size limit.
func (d *Dispatcher) RunReader(ctx context.Context, src io.Reader) error {
	cfg := newConfig(d.options...)
	b, err := readInput(src, cfg)
	if err != nil {
		return d.fatal(ctx, err)
	}
	r, err := newTokenReader(b, cfg)
	if err != nil {
		return d.fatal(ctx, err)
	}
	return d.run(ctx, r)
}

// streamLocator tracks the position of the event currently being
// dispatched. A single instance is handed to SetDocumentLocator and
// updated in place as the run advances.
type streamLocator struct {
	pos Position
}

func (l *streamLocator) LineNumber() int {
	return l.pos.Line
}

func (l *streamLocator) Column() int {
	return l.pos.Column
}

func (d *Dispatcher) run(ctx context.Context, r *tokenReader) error {
	if debug.Enabled {
		g := debug.IPrintf("START Dispatcher.run")
		defer g.IRelease("END Dispatcher.run")
	}

	loc := &streamLocator{}
	if err := d.h.SetDocumentLocator(ctx, loc); err != nil {
		return d.abort(ctx, err)
	}

	info := sax.DocumentInfo{
		Version:    r.Version(),
		Encoding:   r.Encoding(),
		Standalone: r.Standalone().String(),
	}
	if err := d.h.StartDocument(ctx, info); err != nil {
		return d.abort(ctx, err)
	}

	dtdSeen := false
	for {
		tok, err := r.Read(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return d.fatal(ctx, err)
		}

		// The doctype never surfaces as a token; announce it once,
		// before whatever followed it in the document.
		if !dtdSeen {
			if dt := r.Doctype(); dt != nil {
				dtdSeen = true
				if err := d.announceDoctype(ctx, dt); err != nil {
					return d.abort(ctx, err)
				}
			}
		}

		loc.pos = tok.Span.Start
		if err := d.dispatch(ctx, tok); err != nil {
			return d.abort(ctx, err)
		}
	}

	if err := d.h.EndDocument(ctx); err != nil {
		return d.abort(ctx, err)
	}
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, tok *Token) error {
	if debug.Enabled {
		debug.Printf("dispatching %s", tok)
	}

	switch tok.Type {
	case StartTagToken:
		return d.h.StartElement(ctx, saxElement(tok))
	case EndTagToken:
		return d.h.EndElement(ctx, saxElement(tok))
	case TextToken:
		if isAllBlank(tok.Text) {
			return d.h.IgnorableWhitespace(ctx, tok.Text)
		}
		return d.h.Characters(ctx, tok.Text)
	case CDataToken:
		return d.h.CDATABlock(ctx, tok.Text)
	case CommentToken:
		return d.h.Comment(ctx, tok.Text)
	case ProcessingInstructionToken:
		return d.h.ProcessingInstruction(ctx, tok.Name.Local, string(tok.Text))
	}
	return nil
}

func (d *Dispatcher) announceDoctype(ctx context.Context, dt *DocumentType) error {
	if err := d.h.InternalSubset(ctx, dt.Name(), dt.PublicID(), dt.SystemID()); err != nil {
		return err
	}
	for name, ent := range dt.Entities() {
		if err := d.h.EntityDecl(ctx, name, int(ent.EntityType()), ent.PublicID(), ent.SystemID(), ent.Content()); err != nil {
			return err
		}
	}
	return nil
}

// abort classifies an error returned by a handler callback.
func (d *Dispatcher) abort(ctx context.Context, err error) error {
	if errors.Is(err, ErrStopRequested) {
		return nil
	}
	return d.fatal(ctx, err)
}

// fatal reports err through the Error callback and returns it. The
// handler and the caller see the identical error value.
func (d *Dispatcher) fatal(ctx context.Context, err error) error {
	TraceError(ctx, err, "dispatch aborted")
	d.h.Error(ctx, err)
	return err
}

func saxElement(tok *Token) sax.Element {
	elem := sax.Element{
		Prefix:    tok.Name.Prefix,
		LocalName: tok.Name.Local,
		URI:       tok.Name.URI,
	}
	if len(tok.Attrs) > 0 {
		attrs := make([]sax.Attribute, 0, len(tok.Attrs))
		for _, a := range tok.Attrs {
			attrs = append(attrs, sax.Attribute{
				Prefix:    a.Name.Prefix,
				LocalName: a.Name.Local,
				URI:       a.Name.URI,
				Value:     a.Value,
			})
		}
		elem.Attributes = attrs
	}
	if len(tok.NSDecls) > 0 {
		nss := make([]sax.Namespace, 0, len(tok.NSDecls))
		for _, ns := range tok.NSDecls {
			nss = append(nss, sax.Namespace{Prefix: ns.Prefix, URI: ns.URI})
		}
		elem.Namespaces = nss
	}
	return elem
}
