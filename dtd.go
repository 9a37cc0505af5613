package xenon

import (
	"iter"

	"github.com/lestrrat-go/xenon/internal/orderedmap"
	"github.com/pkg/errors"
)

// DocumentType holds what the engine retains from a document type
// declaration: the declared root element name, the external
// identifiers, and the entities declared in the internal subset.
// Declaration order is preserved so serialization and callbacks see
// entities in the order they appeared.
type DocumentType struct {
	name      string
	publicID  string
	systemID  string
	entities  *orderedmap.Map[string, *Entity]
	pentities *orderedmap.Map[string, *Entity]
}

func newDocumentType(name, publicID, systemID string) *DocumentType {
	return &DocumentType{
		name:      name,
		publicID:  publicID,
		systemID:  systemID,
		entities:  orderedmap.New[string, *Entity](),
		pentities: orderedmap.New[string, *Entity](),
	}
}

func (dt *DocumentType) Name() string {
	return dt.name
}

func (dt *DocumentType) PublicID() string {
	return dt.publicID
}

func (dt *DocumentType) SystemID() string {
	return dt.systemID
}

// RegisterEntity records an entity declaration. When the same name is
// declared twice the first declaration is binding and the duplicate is
// silently ignored, as the XML recommendation requires.
func (dt *DocumentType) RegisterEntity(name string, typ EntityType, publicID, systemID, content string) (*Entity, error) {
	var table *orderedmap.Map[string, *Entity]
	switch typ {
	case InternalGeneralEntity, ExternalGeneralParsedEntity, ExternalGeneralUnparsedEntity:
		table = dt.entities
	case InternalParameterEntity, ExternalParameterEntity:
		table = dt.pentities
	default:
		return nil, errors.New("cannot register a predefined entity")
	}

	ent := newEntity(name, typ, publicID, systemID, content)
	if err := table.Set(name, ent); err != nil {
		prev, _ := table.Get(name)
		return prev, nil
	}
	return ent, nil
}

func (dt *DocumentType) LookupEntity(name string) (*Entity, bool) {
	return dt.entities.Get(name)
}

func (dt *DocumentType) LookupParameterEntity(name string) (*Entity, bool) {
	return dt.pentities.Get(name)
}

// Entities iterates over the declared general entities in declaration
// order.
func (dt *DocumentType) Entities() iter.Seq2[string, *Entity] {
	return dt.entities.Range()
}
