package xenon

import "github.com/pkg/errors"

// Namespace URIs that are bound implicitly and may not be rebound to
// anything else.
const (
	XMLNamespaceURI   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespaceURI = "http://www.w3.org/2000/xmlns/"
)

// nsScope is one frame of prefix bindings. Frames form a chain to the
// root scope, and lookups walk the chain so an element only pays for
// the declarations it actually introduces.
type nsScope struct {
	parent   *nsScope
	bindings map[string]string
}

func (s *nsScope) push(decls []Namespace) *nsScope {
	if len(decls) == 0 {
		return &nsScope{parent: s}
	}

	m := make(map[string]string, len(decls))
	for _, decl := range decls {
		m[decl.Prefix] = decl.URI
	}
	return &nsScope{parent: s, bindings: m}
}

func (s *nsScope) pop() *nsScope {
	if s == nil {
		return nil
	}
	return s.parent
}

// lookup resolves prefix to a namespace URI. The empty prefix resolves
// to the in scope default namespace, which may be "". The xml prefix
// is always bound.
func (s *nsScope) lookup(prefix string) (string, bool) {
	switch prefix {
	case "xml":
		return XMLNamespaceURI, true
	case "xmlns":
		return XMLNSNamespaceURI, true
	}

	for cur := s; cur != nil; cur = cur.parent {
		if cur.bindings == nil {
			continue
		}
		if uri, ok := cur.bindings[prefix]; ok {
			if prefix != "" && uri == "" {
				// xmlns:p="" undeclares the prefix
				return "", false
			}
			return uri, true
		}
	}

	if prefix == "" {
		// no default namespace in scope
		return "", true
	}
	return "", false
}

// checkNSDecl rejects declarations that try to rebind the reserved
// prefixes or bind their URIs to other prefixes.
func checkNSDecl(decl Namespace) error {
	switch decl.Prefix {
	case "xmlns":
		return errors.Wrap(ErrReservedPrefix, `"xmlns" prefix may not be declared`)
	case "xml":
		if decl.URI != XMLNamespaceURI {
			return errors.Wrap(ErrReservedPrefix, `"xml" prefix may only be bound to its canonical URI`)
		}
	default:
		if decl.URI == XMLNamespaceURI || decl.URI == XMLNSNamespaceURI {
			return errors.Wrapf(ErrReservedPrefix, `%q may not be bound to prefix %q`, decl.URI, decl.Prefix)
		}
	}
	return nil
}
