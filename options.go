package xenon

import (
	"github.com/lestrrat-go/option"
	"github.com/lestrrat-go/xenon/sax"
)

type Option = option.Interface

type identDoctype struct{}
type identEncoding struct{}
type identEntityResolver struct{}
type identExternalEntities struct{}
type identIndent struct{}
type identKeepBlanks struct{}
type identMaxDepth struct{}
type identMaxEntityExpansion struct{}
type identMaxInputSize struct{}
type identSAX struct{}
type identTrustedURIs struct{}

type ParseOption interface {
	Option
	parseOption()
}

type parseOption struct{ Option }

func (*parseOption) parseOption() {}

type DumpOption interface {
	Option
	dumpOption()
}

type dumpOption struct{ Option }

func (*dumpOption) dumpOption() {}

// Defaults for the resource limits. A non-positive value passed to the
// corresponding option falls back to these.
const (
	DefaultMaxEntityExpansion = 10 << 20
	DefaultMaxDepth           = 512
	DefaultMaxInputSize       = 64 << 20
)

// WithDoctype allows the document to carry a document type
// declaration. Documents containing one are rejected by default.
func WithDoctype(v bool) ParseOption {
	return &parseOption{option.New(identDoctype{}, v)}
}

// WithEncoding overrides encoding detection with the named encoding.
func WithEncoding(v string) ParseOption {
	return &parseOption{option.New(identEncoding{}, v)}
}

// WithEntityResolver specifies the resolver used to fetch external
// entity content. Without a resolver external entities cannot be
// loaded even when they are otherwise allowed.
func WithEntityResolver(v EntityResolver) ParseOption {
	return &parseOption{option.New(identEntityResolver{}, v)}
}

// WithExternalEntities allows references to external entities to be
// resolved. They are denied by default.
func WithExternalEntities(v bool) ParseOption {
	return &parseOption{option.New(identExternalEntities{}, v)}
}

// WithIndent specifies the string used for one level of indentation
// when serializing.
func WithIndent(v string) DumpOption {
	return &dumpOption{option.New(identIndent{}, v)}
}

// WithKeepBlanks controls whether whitespace-only text between
// elements is kept in the document tree. It is kept by default.
func WithKeepBlanks(v bool) ParseOption {
	return &parseOption{option.New(identKeepBlanks{}, v)}
}

// WithMaxDepth limits element nesting depth.
func WithMaxDepth(v int) ParseOption {
	return &parseOption{option.New(identMaxDepth{}, v)}
}

// WithMaxEntityExpansion limits the cumulative number of bytes entity
// expansion may produce for a single document.
func WithMaxEntityExpansion(v int) ParseOption {
	return &parseOption{option.New(identMaxEntityExpansion{}, v)}
}

// WithMaxInputSize limits the size of the input document in bytes.
func WithMaxInputSize(v int) ParseOption {
	return &parseOption{option.New(identMaxInputSize{}, v)}
}

// WithSAX specifies the handler that receives parse events.
func WithSAX(v sax.Handler) ParseOption {
	return &parseOption{option.New(identSAX{}, v)}
}

// WithTrustedURIs specifies URI prefixes that external entity system
// identifiers are matched against. An empty list trusts nothing.
func WithTrustedURIs(v ...string) ParseOption {
	return &parseOption{option.New(identTrustedURIs{}, v)}
}

type config struct {
	doctype            bool
	encoding           string
	entityResolver     EntityResolver
	externalEntities   bool
	keepBlanks         bool
	maxDepth           int
	maxEntityExpansion int
	maxInputSize       int
	sax                sax.Handler
	trustedURIs        []string
}

func newConfig(options ...Option) *config {
	cfg := &config{
		keepBlanks:         true,
		maxDepth:           DefaultMaxDepth,
		maxEntityExpansion: DefaultMaxEntityExpansion,
		maxInputSize:       DefaultMaxInputSize,
	}
	for _, option := range options {
		switch option.Ident() {
		case identDoctype{}:
			cfg.doctype = option.Value().(bool)
		case identEncoding{}:
			cfg.encoding = option.Value().(string)
		case identEntityResolver{}:
			cfg.entityResolver = option.Value().(EntityResolver)
		case identExternalEntities{}:
			cfg.externalEntities = option.Value().(bool)
		case identKeepBlanks{}:
			cfg.keepBlanks = option.Value().(bool)
		case identMaxDepth{}:
			cfg.maxDepth = option.Value().(int)
		case identMaxEntityExpansion{}:
			cfg.maxEntityExpansion = option.Value().(int)
		case identMaxInputSize{}:
			cfg.maxInputSize = option.Value().(int)
		case identSAX{}:
			cfg.sax = option.Value().(sax.Handler)
		case identTrustedURIs{}:
			cfg.trustedURIs = option.Value().([]string)
		}
	}

	if cfg.maxDepth <= 0 {
		cfg.maxDepth = DefaultMaxDepth
	}
	if cfg.maxEntityExpansion <= 0 {
		cfg.maxEntityExpansion = DefaultMaxEntityExpansion
	}
	if cfg.maxInputSize <= 0 {
		cfg.maxInputSize = DefaultMaxInputSize
	}
	return cfg
}
