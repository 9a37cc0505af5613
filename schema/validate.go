package schema

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lestrrat-go/xenon"
	"github.com/lestrrat-go/xenon/internal/debug"
	"github.com/pkg/errors"
)

// Validator checks documents against a compiled schema. It keeps no
// state between runs, so a single Validator may be shared freely.
type Validator struct {
	schema   *Schema
	failFast bool
}

func NewValidator(s *Schema, options ...ValidateOption) *Validator {
	v := &Validator{schema: s}
	for _, o := range options {
		switch o.Ident() {
		case identFailFast{}:
			v.failFast = o.Value().(bool)
		}
	}
	return v
}

// ValidateStream validates tokens pulled from the cursor until end of
// input, consuming the cursor. A parse error aborts validation and is
// returned as an error: a malformed document never yields a report.
func (v *Validator) ValidateStream(ctx context.Context, c *xenon.Cursor) (*Report, error) {
	if debug.Enabled {
		g := debug.IPrintf("START Validator.ValidateStream")
		defer g.IRelease("END Validator.ValidateStream")
	}
	ctx, span := xenon.StartSpan(ctx, "schema.ValidateStream")
	defer span.End()

	if c == nil {
		return nil, errors.New(`nil cursor`)
	}

	r := v.newRun()
	for !r.done {
		tok, err := c.Advance(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, `failed to read document`)
		}
		switch tok.Type {
		case xenon.StartTagToken:
			r.startElement(tok.Name, tok.Attrs, tok.Span.Start)
		case xenon.EndTagToken:
			r.endElement(tok.Span.Start)
		case xenon.TextToken, xenon.CDataToken:
			r.text(tok.Text, tok.Span.Start)
		}
	}
	r.finish()
	return r.report, nil
}

// ValidateDocument validates an in-memory document tree. The tree does
// not retain source positions, so violations carry only the ancestor
// path.
func (v *Validator) ValidateDocument(doc *xenon.Document) (*Report, error) {
	if debug.Enabled {
		g := debug.IPrintf("START Validator.ValidateDocument")
		defer g.IRelease("END Validator.ValidateDocument")
	}

	if doc == nil {
		return nil, errors.New(`nil document`)
	}
	root := doc.DocumentElement()
	if root == nil {
		return nil, errors.New(`document has no root element`)
	}

	r := v.newRun()
	r.walkElement(root)
	r.finish()
	return r.report, nil
}

func (v *Validator) newRun() *run {
	return &run{
		v:      v,
		report: &Report{},
		ids:    make(map[string]struct{}),
	}
}

// frame tracks one open element during a run. poisoned is set after
// the first content violation so a broken element reports exactly one
// structural error; its descendants are still checked on their own.
type frame struct {
	decl     *ElementDecl
	state    *bitset
	name     string
	poisoned bool
	text     strings.Builder
}

type idref struct {
	value string
	pos   xenon.Position
	path  string
}

type run struct {
	v      *Validator
	report *Report
	frames []*frame
	path   []string
	ids    map[string]struct{}
	idrefs []idref
	done   bool
}

func (r *run) add(err error) {
	if r.done {
		return
	}
	r.report.add(err)
	if r.v.failFast {
		r.done = true
	}
}

func (r *run) violation(code, msg string, pos xenon.Position, path string) {
	r.add(&ValidationError{
		Severity:   SeverityError,
		Code:       code,
		Message:    msg,
		LineNumber: pos.Line,
		Column:     pos.Column,
		Path:       path,
	})
}

func (r *run) pathString() string {
	if len(r.path) == 0 {
		return "/"
	}
	return "/" + strings.Join(r.path, "/")
}

// declKey maps an instance name onto the declaration table. Names
// outside the schema's target namespace never match anything.
func (r *run) declKey(name xenon.QName) (string, bool) {
	if name.URI != r.v.schema.targetNamespace {
		return "", false
	}
	return name.Local, true
}

func (r *run) lookup(name xenon.QName) *ElementDecl {
	key, ok := r.declKey(name)
	if !ok {
		return nil
	}
	decl, _ := r.v.schema.ElementDecl(key)
	return decl
}

func (r *run) startElement(name xenon.QName, attrs []xenon.Attr, pos xenon.Position) {
	if r.done {
		return
	}
	if len(r.frames) > 0 {
		r.stepParent(r.frames[len(r.frames)-1], name, pos)
	}

	r.path = append(r.path, name.String())
	path := r.pathString()

	decl := r.lookup(name)
	if decl == nil && len(r.frames) == 0 {
		r.violation(CodeElementUndeclared,
			fmt.Sprintf(`no declaration found for element '%s'`, name), pos, path)
	}

	f := &frame{decl: decl, name: name.String()}
	if decl != nil {
		if decl.model != nil {
			f.state = decl.model.start()
		}
		r.checkAttributes(f, attrs, pos, path)
	}
	r.frames = append(r.frames, f)
}

// stepParent advances the enclosing element's content model by one
// child. Undeclared, unconstrained and already poisoned parents pass
// everything through.
func (r *run) stepParent(parent *frame, name xenon.QName, pos xenon.Position) {
	if parent.decl == nil || parent.decl.anyContent || parent.poisoned {
		return
	}
	path := r.pathString()
	if parent.decl.model == nil {
		parent.poisoned = true
		r.violation(CodeElementNotAllowed,
			fmt.Sprintf(`element '%s' is not allowed in element '%s'`, name, parent.name), pos, path)
		return
	}
	key, ok := r.declKey(name)
	if !ok || !parent.decl.model.step(parent.state, key) {
		parent.poisoned = true
		expected := strings.Join(parent.decl.model.expected(parent.state), ", ")
		r.violation(CodeUnexpectedElement,
			fmt.Sprintf(`element '%s' is not expected in element '%s' (expected: %s)`, name, parent.name, expected), pos, path)
	}
}

func (r *run) checkAttributes(f *frame, attrs []xenon.Attr, pos xenon.Position, path string) {
	decl := f.decl
	if decl.anyContent {
		return
	}
	var seen map[string]struct{}
	for _, attr := range attrs {
		if attr.Name.URI != "" {
			// foreign namespaced attributes (xsi and friends) are out
			// of the declared vocabulary and pass through unchecked
			continue
		}
		ad := decl.findAttribute(attr.Name.Local)
		if ad == nil {
			r.violation(CodeAttributeNotAllowed,
				fmt.Sprintf(`attribute '%s' is not allowed on element '%s'`, attr.Name.Local, f.name), pos, path)
			continue
		}
		if seen == nil {
			seen = make(map[string]struct{})
		}
		seen[attr.Name.Local] = struct{}{}
		r.checkAttrValue(ad, attr.Value, pos, path)
	}
	for _, ad := range decl.attributes {
		if ad.use != RequiredAttribute {
			continue
		}
		if _, ok := seen[ad.name]; !ok {
			r.violation(CodeAttributeRequired,
				fmt.Sprintf(`attribute '%s' is required on element '%s'`, ad.name, f.name), pos, path)
		}
	}
}

func (r *run) checkAttrValue(ad *AttributeDecl, raw string, pos xenon.Position, path string) {
	value := ad.typ.normalize(raw)
	if ad.hasFixed && value != ad.fixedVal {
		r.violation(CodeAttributeFixed,
			fmt.Sprintf(`attribute '%s' must have the fixed value %q`, ad.name, ad.fixedVal), pos, path)
		return
	}
	if viol := ad.typ.check(value); viol != nil {
		r.violation(viol.code,
			fmt.Sprintf(`attribute '%s': %s`, ad.name, viol.message), pos, path)
		return
	}
	r.recordIdentity(ad.typ, value, pos, path)
}

// recordIdentity collects ID and IDREF values that passed their own
// type checks. IDREFs resolve only once the whole document is seen.
func (r *run) recordIdentity(t *SimpleType, value string, pos xenon.Position, path string) {
	switch {
	case t.isID():
		if _, dup := r.ids[value]; dup {
			r.violation(CodeDuplicateID,
				fmt.Sprintf(`ID value %q is already in use`, value), pos, path)
			return
		}
		r.ids[value] = struct{}{}
	case t.isIDREF():
		r.idrefs = append(r.idrefs, idref{value: value, pos: pos, path: path})
	}
}

func (r *run) text(content []byte, pos xenon.Position) {
	if r.done || len(r.frames) == 0 {
		return
	}
	f := r.frames[len(r.frames)-1]
	switch {
	case f.decl == nil || f.decl.anyContent:
	case f.decl.typ != nil:
		f.text.Write(content)
	case f.poisoned:
	case isBlank(content):
	default:
		f.poisoned = true
		r.violation(CodeTextNotAllowed,
			fmt.Sprintf(`character content is not allowed in element '%s'`, f.name), pos, r.pathString())
	}
}

func (r *run) endElement(pos xenon.Position) {
	if r.done || len(r.frames) == 0 {
		return
	}
	f := r.frames[len(r.frames)-1]
	path := r.pathString()
	if f.decl != nil && !f.poisoned {
		if f.state != nil && !f.decl.model.accepting(f.state) {
			expected := strings.Join(f.decl.model.expected(f.state), ", ")
			r.violation(CodeIncompleteContent,
				fmt.Sprintf(`content of element '%s' is not complete (expected: %s)`, f.name, expected), pos, path)
		}
		if f.decl.typ != nil {
			r.checkElementValue(f, pos, path)
		}
	}
	r.frames = r.frames[:len(r.frames)-1]
	r.path = r.path[:len(r.path)-1]
}

func (r *run) checkElementValue(f *frame, pos xenon.Position, path string) {
	value := f.decl.typ.normalize(f.text.String())
	if viol := f.decl.typ.check(value); viol != nil {
		r.violation(viol.code,
			fmt.Sprintf(`element '%s': %s`, f.name, viol.message), pos, path)
		return
	}
	r.recordIdentity(f.decl.typ, value, pos, path)
}

// finish resolves the IDREFs accumulated over the run against the full
// set of IDs.
func (r *run) finish() {
	for _, ref := range r.idrefs {
		if r.done {
			return
		}
		if _, ok := r.ids[ref.value]; ok {
			continue
		}
		r.add(&ReferentialIntegrityError{
			ValidationError: ValidationError{
				Severity:   SeverityError,
				Code:       CodeDanglingIDREF,
				Message:    fmt.Sprintf(`IDREF %q does not match any ID in the document`, ref.value),
				LineNumber: ref.pos.Line,
				Column:     ref.pos.Column,
				Path:       ref.path,
			},
			Ref: ref.value,
		})
	}
}

func (r *run) walkElement(e *xenon.Element) {
	if r.done {
		return
	}
	var pos xenon.Position
	name := xenon.QName{Prefix: e.Prefix(), Local: e.LocalName(), URI: e.URI()}
	var attrs []xenon.Attr
	for _, a := range e.Attributes() {
		attrs = append(attrs, xenon.Attr{
			Name:  xenon.QName{Prefix: a.Prefix(), Local: a.LocalName(), URI: a.URI()},
			Value: a.Value(),
		})
	}
	r.startElement(name, attrs, pos)
	for _, child := range e.Children() {
		if r.done {
			break
		}
		switch child := child.(type) {
		case *xenon.Element:
			r.walkElement(child)
		case *xenon.Text:
			r.text(child.Content(), pos)
		}
	}
	r.endElement(pos)
}

func isBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
