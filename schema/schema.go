package schema

import "iter"

// Unbounded marks a particle whose maxOccurs has no upper limit.
const Unbounded = -1

type ParticleKind int

const (
	ElementParticle ParticleKind = iota
	SequenceParticle
	ChoiceParticle
)

// Particle is one node of a content model tree: either a reference to
// an element declaration by name, or a sequence/choice group over its
// children. Min and Max carry the occurrence bounds, with Max set to
// Unbounded for maxOccurs="unbounded".
type Particle struct {
	Kind     ParticleKind
	Name     string
	Min      int
	Max      int
	Children []*Particle
}

type AttributeUse int

const (
	OptionalAttribute AttributeUse = iota
	RequiredAttribute
)

// AttributeDecl describes a single attribute allowed on an element.
type AttributeDecl struct {
	name       string
	typ        *SimpleType
	use        AttributeUse
	defaultVal string
	hasDefault bool
	fixedVal   string
	hasFixed   bool
}

func (a *AttributeDecl) Name() string {
	return a.name
}

func (a *AttributeDecl) Type() *SimpleType {
	return a.typ
}

func (a *AttributeDecl) Use() AttributeUse {
	return a.use
}

func (a *AttributeDecl) Default() (string, bool) {
	return a.defaultVal, a.hasDefault
}

func (a *AttributeDecl) Fixed() (string, bool) {
	return a.fixedVal, a.hasFixed
}

// ElementDecl describes the declared shape of one element: its content
// model (element-only via particle, text-only via typ, or unchecked
// when the declaration carries no type information) and its attributes.
type ElementDecl struct {
	name       string
	particle   *Particle
	typ        *SimpleType
	anyContent bool
	attributes []*AttributeDecl
	model      *automaton
}

func (e *ElementDecl) Name() string {
	return e.name
}

func (e *ElementDecl) ContentModel() *Particle {
	return e.particle
}

func (e *ElementDecl) Type() *SimpleType {
	return e.typ
}

func (e *ElementDecl) Attributes() []*AttributeDecl {
	return e.attributes
}

func (e *ElementDecl) findAttribute(name string) *AttributeDecl {
	for _, a := range e.attributes {
		if a.name == name {
			return a
		}
	}
	return nil
}

// Schema is the compiled form of a set of element declarations. All
// declarations, top-level and local alike, live in a single table
// keyed by local name, so a name always means the same thing wherever
// it appears in a document.
type Schema struct {
	targetNamespace string
	elements        map[string]*ElementDecl
	declared        []string
	types           map[string]*SimpleType
}

func (s *Schema) TargetNamespace() string {
	return s.targetNamespace
}

// ElementDecl looks up an element declaration by local name.
func (s *Schema) ElementDecl(name string) (*ElementDecl, bool) {
	e, ok := s.elements[name]
	return e, ok
}

// Elements iterates over the element declarations in the order they
// appeared in the schema document.
func (s *Schema) Elements() iter.Seq2[string, *ElementDecl] {
	return func(yield func(string, *ElementDecl) bool) {
		for _, name := range s.declared {
			if !yield(name, s.elements[name]) {
				return
			}
		}
	}
}

func (s *Schema) addElement(decl *ElementDecl) bool {
	if _, ok := s.elements[decl.name]; ok {
		return false
	}
	s.elements[decl.name] = decl
	s.declared = append(s.declared, decl.name)
	return true
}
