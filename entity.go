package xenon

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// EntityType classifies entity declarations.
type EntityType int

const (
	InternalGeneralEntity EntityType = iota + 1
	ExternalGeneralParsedEntity
	ExternalGeneralUnparsedEntity
	InternalParameterEntity
	ExternalParameterEntity
	InternalPredefinedEntity
)

// Entity is a single entity declaration from a document type
// declaration, or one of the five predefined entities.
type Entity struct {
	name     string
	etype    EntityType
	content  string
	publicID string
	systemID string
}

var (
	EntityLT         = Entity{name: "lt", etype: InternalPredefinedEntity, content: "<"}
	EntityGT         = Entity{name: "gt", etype: InternalPredefinedEntity, content: ">"}
	EntityAmpersand  = Entity{name: "amp", etype: InternalPredefinedEntity, content: "&"}
	EntityApostrophe = Entity{name: "apos", etype: InternalPredefinedEntity, content: "'"}
	EntityQuote      = Entity{name: "quot", etype: InternalPredefinedEntity, content: `"`}
)

func resolvePredefinedEntity(name string) *Entity {
	switch name {
	case "lt":
		return &EntityLT
	case "gt":
		return &EntityGT
	case "amp":
		return &EntityAmpersand
	case "apos":
		return &EntityApostrophe
	case "quot":
		return &EntityQuote
	default:
		return nil
	}
}

func newEntity(name string, typ EntityType, publicID, systemID, content string) *Entity {
	return &Entity{
		name:     name,
		etype:    typ,
		content:  content,
		publicID: publicID,
		systemID: systemID,
	}
}

func (e *Entity) Name() string {
	return e.name
}

func (e *Entity) EntityType() EntityType {
	return e.etype
}

func (e *Entity) Content() string {
	return e.content
}

func (e *Entity) PublicID() string {
	return e.publicID
}

func (e *Entity) SystemID() string {
	return e.systemID
}

func (e *Entity) external() bool {
	switch e.etype {
	case ExternalGeneralParsedEntity, ExternalGeneralUnparsedEntity, ExternalParameterEntity:
		return true
	}
	return false
}

// EntityResolver fetches the replacement text of an external entity.
// Implementations are only consulted after the engine has decided that
// the reference is allowed by policy.
type EntityResolver interface {
	ResolveEntity(ctx context.Context, publicID, systemID string) ([]byte, error)
}

// EntityResolverFunc adapts a function to the EntityResolver interface.
type EntityResolverFunc func(ctx context.Context, publicID, systemID string) ([]byte, error)

func (f EntityResolverFunc) ResolveEntity(ctx context.Context, publicID, systemID string) ([]byte, error) {
	return f(ctx, publicID, systemID)
}

// expansionRatioLimit caps total expansion output relative to the raw
// input size, independent of the absolute budget.
const expansionRatioLimit = 100

// entityTable tracks the entities declared by the current document and
// meters every expansion against the configured budgets. One table
// serves one parse, so the accounting is cumulative across the whole
// document.
type entityTable struct {
	doctype  *DocumentType
	resolver EntityResolver
	trusted  []string
	external bool
	budget   int
	inputLen int
	expanded int
}

func newEntityTable(cfg *config, inputLen int) *entityTable {
	return &entityTable{
		resolver: cfg.entityResolver,
		trusted:  cfg.trustedURIs,
		external: cfg.externalEntities,
		budget:   cfg.maxEntityExpansion,
		inputLen: inputLen,
	}
}

func (t *entityTable) setDoctype(dt *DocumentType) {
	t.doctype = dt
}

func (t *entityTable) lookup(name string) *Entity {
	if t.doctype != nil {
		if ent, ok := t.doctype.LookupEntity(name); ok {
			return ent
		}
	}
	return resolvePredefinedEntity(name)
}

func (t *entityTable) charge(n int) error {
	t.expanded += n
	if t.expanded > t.budget {
		return errors.Wrapf(ErrEntityExpansionTooLarge, "expansion exceeds %d bytes", t.budget)
	}
	if t.inputLen > 0 && t.expanded > t.inputLen*expansionRatioLimit {
		return errors.Wrapf(ErrEntityExpansionTooLarge, "expansion exceeds %d times the input size", expansionRatioLimit)
	}
	return nil
}

// expand resolves the reference name, which may be a character
// reference of the form #NN or #xNN, and returns the fully expanded
// replacement text.
func (t *entityTable) expand(ctx context.Context, name string) ([]byte, error) {
	return t.expandEntity(ctx, name, make(map[string]bool))
}

func (t *entityTable) expandEntity(ctx context.Context, name string, seen map[string]bool) ([]byte, error) {
	if strings.HasPrefix(name, "#") {
		r, err := decodeCharRef(name)
		if err != nil {
			return nil, err
		}
		if err := t.charge(utf8.RuneLen(r)); err != nil {
			return nil, err
		}
		return []byte(string(r)), nil
	}

	ent := t.lookup(name)
	if ent == nil {
		return nil, errors.Wrapf(ErrUndeclaredEntity, "'%s'", name)
	}

	if seen[name] {
		return nil, errors.Wrapf(ErrRecursiveEntity, "entity '%s' references itself", name)
	}
	seen[name] = true
	defer delete(seen, name)

	var content string
	switch ent.etype {
	case InternalGeneralEntity, InternalPredefinedEntity:
		content = ent.content
	case ExternalGeneralParsedEntity:
		loaded, err := t.loadExternal(ctx, ent)
		if err != nil {
			return nil, err
		}
		content = loaded
	case ExternalGeneralUnparsedEntity:
		return nil, errors.Errorf("entity '%s' is unparsed and cannot be referenced in content", name)
	case InternalParameterEntity, ExternalParameterEntity:
		return nil, errors.Wrapf(ErrParameterEntityNotAllowed, "'%%%s;'", name)
	}

	if err := t.charge(len(content)); err != nil {
		return nil, err
	}
	return t.expandText(ctx, content, seen)
}

// expandText rescans replacement text for further general entity and
// character references. Markup in replacement text is passed through
// verbatim. Each nesting level is charged before it is scanned, so
// exponential expansions trip the budget long before they materialize.
func (t *entityTable) expandText(ctx context.Context, content string, seen map[string]bool) ([]byte, error) {
	if !strings.ContainsRune(content, '&') {
		return []byte(content), nil
	}

	var buf bytes.Buffer
	for i := 0; i < len(content); {
		c := content[i]
		if c != '&' {
			buf.WriteByte(c)
			i++
			continue
		}

		end := strings.IndexByte(content[i:], ';')
		if end < 2 {
			return nil, errors.Wrap(ErrSemicolonRequired, "unterminated reference in replacement text")
		}
		sub, err := t.expandEntity(ctx, content[i+1:i+end], seen)
		if err != nil {
			return nil, err
		}
		buf.Write(sub)
		i += end + 1
	}
	return buf.Bytes(), nil
}

func (t *entityTable) loadExternal(ctx context.Context, ent *Entity) (string, error) {
	if !t.external {
		return "", errors.Wrapf(ErrExternalEntityNotAllowed, "entity '%s' references external content", ent.name)
	}
	if t.resolver == nil {
		return "", errors.Wrapf(ErrExternalEntityNotAllowed, "no entity resolver configured")
	}
	if !t.uriTrusted(ent.systemID) {
		return "", errors.Wrapf(ErrEntityURINotTrusted, "'%s'", ent.systemID)
	}

	b, err := t.resolver.ResolveEntity(ctx, ent.publicID, ent.systemID)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve entity '%s'", ent.name)
	}
	return string(b), nil
}

func (t *entityTable) uriTrusted(uri string) bool {
	for _, prefix := range t.trusted {
		if strings.HasPrefix(uri, prefix) {
			return true
		}
	}
	return false
}

// decodeCharRef decodes a character reference name such as #60 or
// #x3C, and rejects code points that are not legal document characters.
func decodeCharRef(name string) (rune, error) {
	var n uint64
	var err error
	switch {
	case strings.HasPrefix(name, "#x"):
		digits := name[2:]
		if digits == "" || strings.IndexFunc(digits, isNotHexDigit) >= 0 {
			return utf8.RuneError, errors.Wrapf(ErrInvalidChar, "malformed character reference '&%s;'", name)
		}
		n, err = strconv.ParseUint(digits, 16, 32)
	default:
		digits := name[1:]
		if digits == "" || strings.IndexFunc(digits, isNotDigit) >= 0 {
			return utf8.RuneError, errors.Wrapf(ErrInvalidChar, "malformed character reference '&%s;'", name)
		}
		n, err = strconv.ParseUint(digits, 10, 32)
	}
	if err != nil {
		return utf8.RuneError, errors.Wrapf(ErrInvalidChar, "malformed character reference '&%s;'", name)
	}

	r := rune(n)
	if !isChar(r) {
		return utf8.RuneError, errors.Wrapf(ErrInvalidChar, "character reference '&%s;' is outside the legal range", name)
	}
	return r, nil
}

func isNotDigit(r rune) bool {
	return r < '0' || r > '9'
}

func isNotHexDigit(r rune) bool {
	return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F')
}
