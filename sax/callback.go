package sax

import "context"

// SetDocumentLocatorFunc defines the function type for Callbacks.SetDocumentLocatorHandler
type SetDocumentLocatorFunc func(ctx context.Context, loc Locator) error

// StartDocumentFunc defines the function type for Callbacks.StartDocumentHandler
type StartDocumentFunc func(ctx context.Context, info DocumentInfo) error

// EndDocumentFunc defines the function type for Callbacks.EndDocumentHandler
type EndDocumentFunc func(ctx context.Context) error

// StartElementFunc defines the function type for Callbacks.StartElementHandler
type StartElementFunc func(ctx context.Context, elem Element) error

// EndElementFunc defines the function type for Callbacks.EndElementHandler
type EndElementFunc func(ctx context.Context, elem Element) error

// CharactersFunc defines the function type for Callbacks.CharactersHandler
type CharactersFunc func(ctx context.Context, content []byte) error

// IgnorableWhitespaceFunc defines the function type for Callbacks.IgnorableWhitespaceHandler
type IgnorableWhitespaceFunc func(ctx context.Context, content []byte) error

// ProcessingInstructionFunc defines the function type for Callbacks.ProcessingInstructionHandler
type ProcessingInstructionFunc func(ctx context.Context, target, data string) error

// CDATABlockFunc defines the function type for Callbacks.CDATABlockHandler
type CDATABlockFunc func(ctx context.Context, content []byte) error

// CommentFunc defines the function type for Callbacks.CommentHandler
type CommentFunc func(ctx context.Context, content []byte) error

// InternalSubsetFunc defines the function type for Callbacks.InternalSubsetHandler
type InternalSubsetFunc func(ctx context.Context, name, publicID, systemID string) error

// EntityDeclFunc defines the function type for Callbacks.EntityDeclHandler
type EntityDeclFunc func(ctx context.Context, name string, typ int, publicID, systemID, content string) error

// ErrorFunc defines the function type for Callbacks.ErrorHandler
type ErrorFunc func(ctx context.Context, err error)

// Callbacks implements Handler by delegating each event to the
// matching function field. Unset fields make the event a no-op, so a
// consumer only populates what it needs.
type Callbacks struct {
	SetDocumentLocatorHandler    SetDocumentLocatorFunc
	StartDocumentHandler         StartDocumentFunc
	EndDocumentHandler           EndDocumentFunc
	StartElementHandler          StartElementFunc
	EndElementHandler            EndElementFunc
	CharactersHandler            CharactersFunc
	IgnorableWhitespaceHandler   IgnorableWhitespaceFunc
	ProcessingInstructionHandler ProcessingInstructionFunc
	CDATABlockHandler            CDATABlockFunc
	CommentHandler               CommentFunc
	InternalSubsetHandler        InternalSubsetFunc
	EntityDeclHandler            EntityDeclFunc
	ErrorHandler                 ErrorFunc
}

func New() *Callbacks {
	return &Callbacks{}
}

// SetDocumentLocator satisfies the ContentHandler interface
func (s *Callbacks) SetDocumentLocator(ctx context.Context, loc Locator) error {
	if h := s.SetDocumentLocatorHandler; h != nil {
		return h(ctx, loc)
	}
	return nil
}

// StartDocument satisfies the ContentHandler interface
func (s *Callbacks) StartDocument(ctx context.Context, info DocumentInfo) error {
	if h := s.StartDocumentHandler; h != nil {
		return h(ctx, info)
	}
	return nil
}

// EndDocument satisfies the ContentHandler interface
func (s *Callbacks) EndDocument(ctx context.Context) error {
	if h := s.EndDocumentHandler; h != nil {
		return h(ctx)
	}
	return nil
}

// StartElement satisfies the ContentHandler interface
func (s *Callbacks) StartElement(ctx context.Context, elem Element) error {
	if h := s.StartElementHandler; h != nil {
		return h(ctx, elem)
	}
	return nil
}

// EndElement satisfies the ContentHandler interface
func (s *Callbacks) EndElement(ctx context.Context, elem Element) error {
	if h := s.EndElementHandler; h != nil {
		return h(ctx, elem)
	}
	return nil
}

// Characters satisfies the ContentHandler interface
func (s *Callbacks) Characters(ctx context.Context, content []byte) error {
	if h := s.CharactersHandler; h != nil {
		return h(ctx, content)
	}
	return nil
}

// IgnorableWhitespace satisfies the ContentHandler interface
func (s *Callbacks) IgnorableWhitespace(ctx context.Context, content []byte) error {
	if h := s.IgnorableWhitespaceHandler; h != nil {
		return h(ctx, content)
	}
	return nil
}

// ProcessingInstruction satisfies the ContentHandler interface
func (s *Callbacks) ProcessingInstruction(ctx context.Context, target, data string) error {
	if h := s.ProcessingInstructionHandler; h != nil {
		return h(ctx, target, data)
	}
	return nil
}

// CDATABlock satisfies the LexicalHandler interface
func (s *Callbacks) CDATABlock(ctx context.Context, content []byte) error {
	if h := s.CDATABlockHandler; h != nil {
		return h(ctx, content)
	}
	return nil
}

// Comment satisfies the LexicalHandler interface
func (s *Callbacks) Comment(ctx context.Context, content []byte) error {
	if h := s.CommentHandler; h != nil {
		return h(ctx, content)
	}
	return nil
}

// InternalSubset satisfies the DTDHandler interface
func (s *Callbacks) InternalSubset(ctx context.Context, name, publicID, systemID string) error {
	if h := s.InternalSubsetHandler; h != nil {
		return h(ctx, name, publicID, systemID)
	}
	return nil
}

// EntityDecl satisfies the DTDHandler interface
func (s *Callbacks) EntityDecl(ctx context.Context, name string, typ int, publicID, systemID, content string) error {
	if h := s.EntityDeclHandler; h != nil {
		return h(ctx, name, typ, publicID, systemID, content)
	}
	return nil
}

// Error satisfies the ErrorReporter interface
func (s *Callbacks) Error(ctx context.Context, err error) {
	if h := s.ErrorHandler; h != nil {
		h(ctx, err)
	}
}
