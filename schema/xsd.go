package schema

import (
	"context"
	"strconv"
	"strings"

	"github.com/lestrrat-go/xenon"
	"github.com/lestrrat-go/xenon/internal/debug"
	"github.com/pkg/errors"
)

// XSDNamespace is the namespace of the schema definition vocabulary.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// Parse compiles a schema document into its runnable form. The
// supported vocabulary covers element declarations with sequence and
// choice groups, occurrence bounds, attribute declarations with
// use/default/fixed, and simple type restrictions. All references are
// resolved and the content models compiled before returning, so a
// returned Schema is ready for any number of validation runs.
func Parse(ctx context.Context, src []byte) (*Schema, error) {
	if debug.Enabled {
		g := debug.IPrintf("START schema.Parse")
		defer g.IRelease("END schema.Parse")
	}

	doc, err := xenon.Parse(ctx, src, xenon.WithKeepBlanks(false))
	if err != nil {
		return nil, errors.Wrap(err, `failed to parse schema document`)
	}
	root := doc.DocumentElement()
	if root == nil || root.LocalName() != "schema" {
		return nil, errors.New(`schema document must have a schema root element`)
	}

	s := &Schema{
		elements: make(map[string]*ElementDecl),
		types:    make(map[string]*SimpleType),
	}
	if v, ok := attrValue(root, "targetNamespace"); ok {
		s.targetNamespace = v
	}
	p := &schemaParser{
		schema:      s,
		complexDefs: make(map[string]*complexTypeDef),
	}

	// Named types first, so element declarations can reference them
	// regardless of document order.
	for _, child := range root.Children() {
		e, ok := asSchemaElement(child)
		if !ok || e.LocalName() != "simpleType" {
			continue
		}
		name, ok := attrValue(e, "name")
		if !ok {
			return nil, errors.New(`top level simpleType requires a name`)
		}
		st, err := p.parseSimpleType(e, name)
		if err != nil {
			return nil, err
		}
		s.types[name] = st
	}
	for _, child := range root.Children() {
		e, ok := asSchemaElement(child)
		if !ok || e.LocalName() != "complexType" {
			continue
		}
		name, ok := attrValue(e, "name")
		if !ok {
			return nil, errors.New(`top level complexType requires a name`)
		}
		def, err := p.parseComplexType(e)
		if err != nil {
			return nil, err
		}
		p.complexDefs[name] = def
	}

	for _, child := range root.Children() {
		e, ok := asSchemaElement(child)
		if !ok {
			continue
		}
		switch e.LocalName() {
		case "element":
			if _, err := p.parseElement(e); err != nil {
				return nil, err
			}
		case "simpleType", "complexType", "annotation":
		default:
			return nil, errors.Errorf(`unsupported schema component %q`, e.LocalName())
		}
	}

	if err := s.compile(); err != nil {
		return nil, err
	}
	return s, nil
}

// compile verifies that every particle resolves to a declaration and
// builds the content model automata.
func (s *Schema) compile() error {
	for _, name := range s.declared {
		decl := s.elements[name]
		if decl.particle == nil {
			continue
		}
		if err := s.checkRefs(decl.particle); err != nil {
			return errors.Wrapf(err, `invalid content model for element %q`, name)
		}
		m, err := compileModel(decl.particle)
		if err != nil {
			return errors.Wrapf(err, `failed to compile content model for element %q`, name)
		}
		decl.model = m
	}
	return nil
}

func (s *Schema) checkRefs(p *Particle) error {
	if p.Kind == ElementParticle {
		if _, ok := s.elements[p.Name]; !ok {
			return errors.Errorf(`element %q is referenced but never declared`, p.Name)
		}
		return nil
	}
	for _, c := range p.Children {
		if err := s.checkRefs(c); err != nil {
			return err
		}
	}
	return nil
}

type complexTypeDef struct {
	particle   *Particle
	attributes []*AttributeDecl
}

type schemaParser struct {
	schema      *Schema
	complexDefs map[string]*complexTypeDef
}

// parseElement handles both real declarations and ref particles. A
// declaration is registered in the schema's single declaration table;
// either way the returned particle is what the enclosing group keeps.
func (p *schemaParser) parseElement(e *xenon.Element) (*Particle, error) {
	min, max, err := parseOccurs(e)
	if err != nil {
		return nil, err
	}

	if ref, ok := attrValue(e, "ref"); ok {
		return &Particle{Kind: ElementParticle, Name: localPart(ref), Min: min, Max: max}, nil
	}

	name, ok := attrValue(e, "name")
	if !ok {
		return nil, errors.New(`element declaration requires a name or ref`)
	}
	decl := &ElementDecl{name: name}

	if typ, ok := attrValue(e, "type"); ok {
		if err := p.applyTypeRef(decl, typ); err != nil {
			return nil, err
		}
	} else {
		defined := false
		for _, child := range e.Children() {
			ce, ok := asSchemaElement(child)
			if !ok {
				continue
			}
			switch ce.LocalName() {
			case "complexType":
				def, err := p.parseComplexType(ce)
				if err != nil {
					return nil, err
				}
				decl.particle = def.particle
				decl.attributes = def.attributes
				defined = true
			case "simpleType":
				st, err := p.parseSimpleType(ce, "")
				if err != nil {
					return nil, err
				}
				decl.typ = st
				defined = true
			case "annotation":
			default:
				return nil, errors.Errorf(`unsupported element child %q`, ce.LocalName())
			}
		}
		if !defined {
			decl.anyContent = true
		}
	}

	if !p.schema.addElement(decl) {
		return nil, errors.Errorf(`element %q declared more than once`, name)
	}
	return &Particle{Kind: ElementParticle, Name: name, Min: min, Max: max}, nil
}

func (p *schemaParser) applyTypeRef(decl *ElementDecl, ref string) error {
	local := localPart(ref)
	if st, ok := p.schema.types[local]; ok {
		decl.typ = st
		return nil
	}
	if def, ok := p.complexDefs[local]; ok {
		decl.particle = def.particle
		decl.attributes = def.attributes
		return nil
	}
	if local == "anyType" {
		decl.anyContent = true
		return nil
	}
	if kind, ok := builtinKinds[local]; ok {
		decl.typ = &SimpleType{name: local, kind: kind}
		return nil
	}
	return errors.Errorf(`unknown type %q`, ref)
}

func (p *schemaParser) parseComplexType(e *xenon.Element) (*complexTypeDef, error) {
	if v, ok := attrValue(e, "mixed"); ok && v == "true" {
		return nil, errors.New(`mixed content models are not supported`)
	}
	def := &complexTypeDef{}
	for _, child := range e.Children() {
		ce, ok := asSchemaElement(child)
		if !ok {
			continue
		}
		switch ce.LocalName() {
		case "sequence", "choice":
			if def.particle != nil {
				return nil, errors.New(`complexType allows a single content group`)
			}
			part, err := p.parseGroup(ce)
			if err != nil {
				return nil, err
			}
			def.particle = part
		case "attribute":
			a, err := p.parseAttribute(ce)
			if err != nil {
				return nil, err
			}
			if a != nil {
				def.attributes = append(def.attributes, a)
			}
		case "annotation":
		default:
			return nil, errors.Errorf(`unsupported complexType child %q`, ce.LocalName())
		}
	}
	return def, nil
}

func (p *schemaParser) parseGroup(e *xenon.Element) (*Particle, error) {
	min, max, err := parseOccurs(e)
	if err != nil {
		return nil, err
	}
	kind := SequenceParticle
	if e.LocalName() == "choice" {
		kind = ChoiceParticle
	}
	part := &Particle{Kind: kind, Min: min, Max: max}
	for _, child := range e.Children() {
		ce, ok := asSchemaElement(child)
		if !ok {
			continue
		}
		switch ce.LocalName() {
		case "element":
			cp, err := p.parseElement(ce)
			if err != nil {
				return nil, err
			}
			part.Children = append(part.Children, cp)
		case "sequence", "choice":
			cp, err := p.parseGroup(ce)
			if err != nil {
				return nil, err
			}
			part.Children = append(part.Children, cp)
		case "annotation":
		default:
			return nil, errors.Errorf(`unsupported %s child %q`, e.LocalName(), ce.LocalName())
		}
	}
	return part, nil
}

// parseAttribute returns nil without error for use="prohibited", which
// simply drops the declaration.
func (p *schemaParser) parseAttribute(e *xenon.Element) (*AttributeDecl, error) {
	name, ok := attrValue(e, "name")
	if !ok {
		return nil, errors.New(`attribute declaration requires a name`)
	}
	a := &AttributeDecl{name: name}

	if use, ok := attrValue(e, "use"); ok {
		switch use {
		case "optional":
		case "required":
			a.use = RequiredAttribute
		case "prohibited":
			return nil, nil
		default:
			return nil, errors.Errorf(`invalid attribute use %q`, use)
		}
	}
	if v, ok := attrValue(e, "default"); ok {
		a.defaultVal = v
		a.hasDefault = true
	}
	if v, ok := attrValue(e, "fixed"); ok {
		a.fixedVal = v
		a.hasFixed = true
	}
	if a.hasDefault && a.hasFixed {
		return nil, errors.Errorf(`attribute %q cannot have both a default and a fixed value`, name)
	}

	if typ, ok := attrValue(e, "type"); ok {
		st, err := p.resolveSimpleType(typ)
		if err != nil {
			return nil, err
		}
		a.typ = st
	} else {
		for _, child := range e.Children() {
			ce, ok := asSchemaElement(child)
			if !ok || ce.LocalName() != "simpleType" {
				continue
			}
			st, err := p.parseSimpleType(ce, "")
			if err != nil {
				return nil, err
			}
			a.typ = st
		}
		if a.typ == nil {
			a.typ = &SimpleType{name: "string", kind: kindString}
		}
	}
	return a, nil
}

func (p *schemaParser) resolveSimpleType(ref string) (*SimpleType, error) {
	local := localPart(ref)
	if st, ok := p.schema.types[local]; ok {
		return st, nil
	}
	if kind, ok := builtinKinds[local]; ok {
		return &SimpleType{name: local, kind: kind}, nil
	}
	return nil, errors.Errorf(`unknown simple type %q`, ref)
}

// parseSimpleType compiles a restriction. Anonymous types take the
// base type's name so violation messages have something to say.
func (p *schemaParser) parseSimpleType(e *xenon.Element, name string) (*SimpleType, error) {
	var restr *xenon.Element
	for _, child := range e.Children() {
		ce, ok := asSchemaElement(child)
		if !ok {
			continue
		}
		switch ce.LocalName() {
		case "restriction":
			restr = ce
		case "annotation":
		default:
			return nil, errors.Errorf(`unsupported simpleType child %q`, ce.LocalName())
		}
	}
	if restr == nil {
		return nil, errors.New(`simpleType requires a restriction`)
	}
	base, ok := attrValue(restr, "base")
	if !ok {
		return nil, errors.New(`restriction requires a base type`)
	}
	kind, ok := builtinKinds[localPart(base)]
	if !ok {
		return nil, errors.Errorf(`restriction base %q is not a builtin type`, base)
	}

	st := &SimpleType{name: name, kind: kind}
	if st.name == "" {
		st.name = localPart(base)
	}
	for _, child := range restr.Children() {
		ce, ok := asSchemaElement(child)
		if !ok {
			continue
		}
		facet := ce.LocalName()
		if facet == "annotation" {
			continue
		}
		val, ok := attrValue(ce, "value")
		if !ok {
			return nil, errors.Errorf(`facet %s requires a value`, facet)
		}
		switch facet {
		case "pattern":
			pat, err := compilePattern(val)
			if err != nil {
				return nil, err
			}
			st.patterns = append(st.patterns, pat)
		case "enumeration":
			st.enum = append(st.enum, val)
		case "length", "minLength", "maxLength":
			if !kind.lengthable() {
				return nil, errors.Errorf(`facet %s does not apply to %s`, facet, kind)
			}
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return nil, errors.Errorf(`invalid %s value %q`, facet, val)
			}
			switch facet {
			case "length":
				st.length = &n
			case "minLength":
				st.minLen = &n
			case "maxLength":
				st.maxLen = &n
			}
		case "minInclusive", "maxInclusive", "minExclusive", "maxExclusive":
			if !kind.numeric() {
				return nil, errors.Errorf(`facet %s does not apply to %s`, facet, kind)
			}
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, errors.Errorf(`invalid %s value %q`, facet, val)
			}
			switch facet {
			case "minInclusive":
				st.minIncl = &f
			case "maxInclusive":
				st.maxIncl = &f
			case "minExclusive":
				st.minExcl = &f
			case "maxExclusive":
				st.maxExcl = &f
			}
		default:
			return nil, errors.Errorf(`unsupported facet %q`, facet)
		}
	}
	return st, nil
}

// asSchemaElement filters for elements of the schema vocabulary.
// Unprefixed elements are accepted as well so that no-namespace schema
// documents keep working.
func asSchemaElement(n xenon.Node) (*xenon.Element, bool) {
	e, ok := n.(*xenon.Element)
	if !ok {
		return nil, false
	}
	if u := e.URI(); u != "" && u != XSDNamespace {
		return nil, false
	}
	return e, true
}

func attrValue(e *xenon.Element, name string) (string, bool) {
	a, ok := e.GetAttribute(name)
	if !ok {
		return "", false
	}
	return a.Value(), true
}

func localPart(ref string) string {
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func parseOccurs(e *xenon.Element) (int, int, error) {
	min, max := 1, 1
	if v, ok := attrValue(e, "minOccurs"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errors.Errorf(`invalid minOccurs %q`, v)
		}
		min = n
	}
	if v, ok := attrValue(e, "maxOccurs"); ok {
		if v == "unbounded" {
			max = Unbounded
		} else {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return 0, 0, errors.Errorf(`invalid maxOccurs %q`, v)
			}
			max = n
		}
	}
	return min, max, nil
}
