package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// baseKind identifies the value space a simple type restricts. The
// builtin numeric types collapse onto integer and decimal; the range
// differences between, say, int and byte are not enforced.
type baseKind int

const (
	kindString baseKind = iota
	kindBoolean
	kindDecimal
	kindInteger
	kindID
	kindIDREF
)

func (k baseKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindBoolean:
		return "boolean"
	case kindDecimal:
		return "decimal"
	case kindInteger:
		return "integer"
	case kindID:
		return "ID"
	case kindIDREF:
		return "IDREF"
	default:
		return "unknown"
	}
}

func (k baseKind) numeric() bool {
	return k == kindDecimal || k == kindInteger
}

func (k baseKind) lengthable() bool {
	return k == kindString || k == kindID || k == kindIDREF
}

var builtinKinds = map[string]baseKind{
	"string":             kindString,
	"normalizedString":   kindString,
	"token":              kindString,
	"Name":               kindString,
	"NCName":             kindString,
	"NMTOKEN":            kindString,
	"anyURI":             kindString,
	"language":           kindString,
	"boolean":            kindBoolean,
	"decimal":            kindDecimal,
	"float":              kindDecimal,
	"double":             kindDecimal,
	"integer":            kindInteger,
	"nonPositiveInteger": kindInteger,
	"negativeInteger":    kindInteger,
	"nonNegativeInteger": kindInteger,
	"positiveInteger":    kindInteger,
	"long":               kindInteger,
	"int":                kindInteger,
	"short":              kindInteger,
	"byte":               kindInteger,
	"unsignedLong":       kindInteger,
	"unsignedInt":        kindInteger,
	"unsignedShort":      kindInteger,
	"unsignedByte":       kindInteger,
	"ID":                 kindID,
	"IDREF":              kindIDREF,
}

type pattern struct {
	src string
	re  *regexp.Regexp
}

// compilePattern anchors the expression the way schema patterns are
// interpreted: the whole value must match.
func compilePattern(src string) (pattern, error) {
	re, err := regexp.Compile(`\A(?:` + src + `)\z`)
	if err != nil {
		return pattern{}, errors.Wrapf(err, `failed to compile pattern %q`, src)
	}
	return pattern{src: src, re: re}, nil
}

// SimpleType is a compiled simple type: a builtin value space plus the
// restriction facets layered on top of it. A nil facet pointer means
// the facet is not set.
type SimpleType struct {
	name     string
	kind     baseKind
	patterns []pattern
	enum     []string
	length   *int
	minLen   *int
	maxLen   *int
	minIncl  *float64
	maxIncl  *float64
	minExcl  *float64
	maxExcl  *float64
}

func (t *SimpleType) Name() string {
	return t.name
}

func (t *SimpleType) isID() bool {
	return t.kind == kindID
}

func (t *SimpleType) isIDREF() bool {
	return t.kind == kindIDREF
}

// normalize applies the whitespace handling of the value space. Every
// space except plain string collapses runs of whitespace and strips the
// ends before any other check.
func (t *SimpleType) normalize(value string) string {
	if t.kind == kindString {
		return value
	}
	return strings.Join(strings.Fields(value), " ")
}

type typeViolation struct {
	code    string
	message string
}

// check validates a normalized value against the type, returning the
// first violated constraint or nil.
func (t *SimpleType) check(value string) *typeViolation {
	if v := t.checkKind(value); v != nil {
		return v
	}
	if v := t.checkPattern(value); v != nil {
		return v
	}
	if v := t.checkEnum(value); v != nil {
		return v
	}
	if v := t.checkLength(value); v != nil {
		return v
	}
	return t.checkBounds(value)
}

func (t *SimpleType) checkKind(value string) *typeViolation {
	switch t.kind {
	case kindBoolean:
		switch value {
		case "true", "false", "1", "0":
		default:
			return &typeViolation{CodeDatatypeInvalid, fmt.Sprintf(`value %q is not a valid boolean`, value)}
		}
	case kindInteger:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return &typeViolation{CodeDatatypeInvalid, fmt.Sprintf(`value %q is not a valid integer`, value)}
		}
	case kindDecimal:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return &typeViolation{CodeDatatypeInvalid, fmt.Sprintf(`value %q is not a valid decimal`, value)}
		}
	case kindID, kindIDREF:
		if !isName(value) {
			return &typeViolation{CodeDatatypeInvalid, fmt.Sprintf(`value %q is not a valid XML name`, value)}
		}
	}
	return nil
}

func (t *SimpleType) checkPattern(value string) *typeViolation {
	if len(t.patterns) == 0 {
		return nil
	}
	for _, p := range t.patterns {
		if p.re.MatchString(value) {
			return nil
		}
	}
	if len(t.patterns) == 1 {
		return &typeViolation{CodePatternInvalid, fmt.Sprintf(`value %q does not match pattern %q`, value, t.patterns[0].src)}
	}
	return &typeViolation{CodePatternInvalid, fmt.Sprintf(`value %q does not match any of the declared patterns`, value)}
}

func (t *SimpleType) checkEnum(value string) *typeViolation {
	if len(t.enum) == 0 {
		return nil
	}
	for _, e := range t.enum {
		if e == value {
			return nil
		}
	}
	return &typeViolation{CodeEnumerationInvalid, fmt.Sprintf(`value %q is not one of the enumerated values (%s)`, value, strings.Join(t.enum, ", "))}
}

func (t *SimpleType) checkLength(value string) *typeViolation {
	if t.length == nil && t.minLen == nil && t.maxLen == nil {
		return nil
	}
	n := utf8.RuneCountInString(value)
	if t.length != nil && n != *t.length {
		return &typeViolation{CodeLengthInvalid, fmt.Sprintf(`value %q must be exactly %d characters long, got %d`, value, *t.length, n)}
	}
	if t.minLen != nil && n < *t.minLen {
		return &typeViolation{CodeMinLength, fmt.Sprintf(`value %q is shorter than %d characters`, value, *t.minLen)}
	}
	if t.maxLen != nil && n > *t.maxLen {
		return &typeViolation{CodeMaxLength, fmt.Sprintf(`value %q is longer than %d characters`, value, *t.maxLen)}
	}
	return nil
}

func (t *SimpleType) checkBounds(value string) *typeViolation {
	if t.minIncl == nil && t.maxIncl == nil && t.minExcl == nil && t.maxExcl == nil {
		return nil
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	if t.minIncl != nil && n < *t.minIncl {
		return &typeViolation{CodeMinInclusive, fmt.Sprintf(`value %q is less than the minimum %v`, value, *t.minIncl)}
	}
	if t.minExcl != nil && n <= *t.minExcl {
		return &typeViolation{CodeMinExclusive, fmt.Sprintf(`value %q must be greater than %v`, value, *t.minExcl)}
	}
	if t.maxIncl != nil && n > *t.maxIncl {
		return &typeViolation{CodeMaxInclusive, fmt.Sprintf(`value %q is greater than the maximum %v`, value, *t.maxIncl)}
	}
	if t.maxExcl != nil && n >= *t.maxExcl {
		return &typeViolation{CodeMaxExclusive, fmt.Sprintf(`value %q must be less than %v`, value, *t.maxExcl)}
	}
	return nil
}

// isName approximates the XML name production, which is what the ID
// and IDREF value spaces require of their values.
func isName(s string) bool {
	for i, r := range s {
		if i == 0 {
			if r != '_' && r != ':' && !unicode.IsLetter(r) {
				return false
			}
			continue
		}
		if r != '_' && r != ':' && r != '-' && r != '.' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
