package xenon

import (
	"errors"
	"fmt"
)

// MaxNameLength bounds any single XML name the scanner will accept.
const MaxNameLength = 50000

var (
	ErrAttrValueUnterminated        = errors.New("attribute value is missing its closing quote")
	ErrCDATANotFinished             = errors.New("CDATA section not finished")
	ErrCommentNotFinished           = errors.New("comment not finished")
	ErrContentAfterRoot             = errors.New("extra content at document end")
	ErrDocTypeNameRequired          = errors.New("doctype name required")
	ErrDocTypeNotFinished           = errors.New("doctype not finished")
	ErrDoctypeNotAllowed            = errors.New("DOCTYPE processing is not allowed")
	ErrDuplicateAttribute           = errors.New("duplicate attribute")
	ErrEntityExpansionTooLarge      = errors.New("entity expansion exceeds configured limit")
	ErrEntityURINotTrusted          = errors.New("external entity URI is not in the trusted list")
	ErrEqualSignRequired            = errors.New("'=' was required here")
	ErrExternalEntityNotAllowed     = errors.New("external entity resolution is not allowed")
	ErrGtRequired                   = errors.New("'>' was required here")
	ErrHyphenInComment              = errors.New("'--' not allowed in comment")
	ErrInputTooLarge                = errors.New("input exceeds configured size limit")
	ErrInvalidChar                  = errors.New("invalid char")
	ErrInvalidEncodingName          = errors.New("invalid encoding name")
	ErrInvalidName                  = errors.New("invalid xml name")
	ErrInvalidProcessingInstruction = errors.New("invalid processing instruction")
	ErrInvalidVersionNum            = errors.New("invalid version")
	ErrInvalidXMLDecl               = errors.New("invalid XML declaration")
	ErrLtInAttValue                 = errors.New("'<' not allowed in attribute value")
	ErrMisplacedCDATAEnd            = errors.New("misplaced CDATA end ']]>'")
	ErrMismatchedTag                = errors.New("start and end tag mismatch")
	ErrMissingRootElement           = errors.New("start tag expected, '<' not found")
	ErrMixedElementContent          = errors.New("element content is not flat text")
	ErrMultipleRootElements         = errors.New("extra root element")
	ErrNameRequired                 = errors.New("name is required")
	ErrNameTooLong                  = errors.New("name is too long")
	ErrNestingTooDeep               = errors.New("element nesting exceeds configured depth limit")
	ErrNotStartElement              = errors.New("cursor is not positioned on a start tag")
	ErrParameterEntityNotAllowed    = errors.New("parameter entity expansion is not allowed")
	ErrPrematureEOF                 = errors.New("end of document reached")
	ErrRecursiveEntity              = errors.New("recursive entity reference")
	ErrReservedPrefix               = errors.New("reserved namespace prefix")
	ErrSemicolonRequired            = errors.New("';' is required")
	ErrSpaceRequired                = errors.New("space required")
	ErrUndeclaredEntity             = errors.New("undeclared entity")
	ErrUndeclaredPrefix             = errors.New("undeclared namespace prefix")
	ErrValueRequired                = errors.New("value required")
)

// ErrStopRequested is returned from a sax callback to abort dispatch.
// The dispatcher treats it as a clean stop, not a failure.
var ErrStopRequested = errors.New("stop requested")

// SyntaxError is a fatal lexical or grammar error. Line is the text of
// the source line being scanned when the error was raised.
type SyntaxError struct {
	Err        error
	Line       string
	LineNumber int
	Column     int
	Offset     int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf(
		"%s at line %d, column %d\n -> '%s' <-- around here",
		e.Err,
		e.LineNumber,
		e.Column,
		e.Line,
	)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// EncodingError reports an unsupported, undetectable, or undecodable
// character encoding.
type EncodingError struct {
	Encoding string
	Err      error
}

func (e *EncodingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unsupported encoding '%s'", e.Encoding)
	}
	if e.Encoding == "" {
		return fmt.Sprintf("encoding error: %s", e.Err)
	}
	return fmt.Sprintf("encoding '%s': %s", e.Encoding, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// NamespaceError reports a prefix used without a declaration in scope,
// or an abuse of the reserved prefixes.
type NamespaceError struct {
	Err        error
	Prefix     string
	LineNumber int
	Column     int
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("%s '%s' at line %d, column %d", e.Err, e.Prefix, e.LineNumber, e.Column)
}

func (e *NamespaceError) Unwrap() error {
	return e.Err
}

// SecurityError reports a violation of the active security policy:
// blocked DOCTYPE processing, blocked entity resolution, or an
// exceeded resource limit.
type SecurityError struct {
	Err        error
	LineNumber int
	Column     int
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security violation: %s at line %d, column %d", e.Err, e.LineNumber, e.Column)
}

func (e *SecurityError) Unwrap() error {
	return e.Err
}

// isSecurityViolation reports whether err belongs to the class of
// policy and resource limit errors that surface as a SecurityError
// instead of a SyntaxError.
func isSecurityViolation(err error) bool {
	for _, target := range []error{
		ErrDoctypeNotAllowed,
		ErrEntityExpansionTooLarge,
		ErrEntityURINotTrusted,
		ErrExternalEntityNotAllowed,
		ErrInputTooLarge,
		ErrNestingTooDeep,
		ErrParameterEntityNotAllowed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
