package schema

import (
	"fmt"
	"strings"
)

// Severity classifies how serious a reported violation is. Everything
// the validator currently emits is SeverityError; SeverityFatal is
// reserved for conditions that would make the remainder of the report
// meaningless, and SeverityWarning for advisory findings.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Violation codes, named after the validation rule that produced them.
const (
	CodeElementUndeclared   = "cvc-elt.1"
	CodeUnexpectedElement   = "cvc-complex-type.2.4.a"
	CodeIncompleteContent   = "cvc-complex-type.2.4.b"
	CodeElementNotAllowed   = "cvc-complex-type.2.2"
	CodeTextNotAllowed      = "cvc-complex-type.2.3"
	CodeAttributeNotAllowed = "cvc-complex-type.3.2.2"
	CodeAttributeRequired   = "cvc-complex-type.4"
	CodeAttributeInvalid    = "cvc-attribute.3"
	CodeAttributeFixed      = "cvc-attribute.4"
	CodeDatatypeInvalid     = "cvc-datatype-valid.1"
	CodePatternInvalid      = "cvc-pattern-valid"
	CodeEnumerationInvalid  = "cvc-enumeration-valid"
	CodeMinInclusive        = "cvc-minInclusive-valid"
	CodeMaxInclusive        = "cvc-maxInclusive-valid"
	CodeMinExclusive        = "cvc-minExclusive-valid"
	CodeMaxExclusive        = "cvc-maxExclusive-valid"
	CodeLengthInvalid       = "cvc-length-valid"
	CodeMinLength           = "cvc-minLength-valid"
	CodeMaxLength           = "cvc-maxLength-valid"
	CodeDuplicateID         = "cvc-id.2"
	CodeDanglingIDREF       = "cvc-id.1"
)

// ValidationError describes a single violation found while checking a
// document against a schema. LineNumber and Column are 1-based and are
// zero when the source position is not known, which is the case when
// validating an in-memory document tree.
type ValidationError struct {
	Severity   Severity
	Code       string
	Message    string
	LineNumber int
	Column     int
	Path       string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Path != "" {
		fmt.Fprintf(&b, " (at %s)", e.Path)
	}
	if e.LineNumber > 0 {
		fmt.Fprintf(&b, " at line %d, column %d", e.LineNumber, e.Column)
	}
	return b.String()
}

// ReferentialIntegrityError reports an IDREF value that does not match
// any ID in the document. It is only produced once the whole document
// has been seen.
type ReferentialIntegrityError struct {
	ValidationError
	Ref string
}
