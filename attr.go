package xenon

// Attribute is a tree level attribute, owned by its element. It is
// not a Node: attributes have no children and take no part in the
// sibling order.
type Attribute struct {
	name  QName
	value string
}

func newAttribute(name, value string) *Attribute {
	return &Attribute{
		name:  splitQName(name),
		value: value,
	}
}

// Name returns the attribute name as written, prefix included.
func (a *Attribute) Name() string {
	return a.name.String()
}

func (a *Attribute) LocalName() string {
	return a.name.Local
}

func (a *Attribute) Prefix() string {
	return a.name.Prefix
}

// URI returns the namespace URI the attribute name resolved to. An
// unprefixed attribute never takes the default namespace, so its URI
// is always empty.
func (a *Attribute) URI() string {
	return a.name.URI
}

func (a *Attribute) Value() string {
	return a.value
}

func (a *Attribute) SetValue(v string) {
	a.value = v
}
