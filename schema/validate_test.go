package schema

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/lestrrat-go/xenon"
	"github.com/stretchr/testify/require"
)

const bookSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="book">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="title" type="xs:string"/>
        <xs:element name="author" type="xs:string" maxOccurs="unbounded"/>
      </xs:sequence>
      <xs:attribute name="isbn" type="xs:string"/>
    </xs:complexType>
  </xs:element>
</xs:schema>`

const catalogSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="catalog">
    <xs:complexType>
      <xs:choice minOccurs="0" maxOccurs="unbounded">
        <xs:element ref="item"/>
        <xs:element ref="see"/>
      </xs:choice>
    </xs:complexType>
  </xs:element>
  <xs:element name="item">
    <xs:complexType>
      <xs:attribute name="id" type="xs:ID" use="required"/>
      <xs:attribute name="lang" type="xs:string" fixed="en"/>
      <xs:attribute name="kind">
        <xs:simpleType>
          <xs:restriction base="xs:string">
            <xs:enumeration value="hard"/>
            <xs:enumeration value="soft"/>
          </xs:restriction>
        </xs:simpleType>
      </xs:attribute>
      <xs:attribute name="count" type="xs:integer"/>
    </xs:complexType>
  </xs:element>
  <xs:element name="see">
    <xs:complexType>
      <xs:attribute name="ref" type="xs:IDREF" use="required"/>
    </xs:complexType>
  </xs:element>
</xs:schema>`

const productSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:simpleType name="money">
    <xs:restriction base="xs:decimal">
      <xs:minInclusive value="0"/>
      <xs:maxExclusive value="1000"/>
    </xs:restriction>
  </xs:simpleType>
  <xs:simpleType name="sku">
    <xs:restriction base="xs:string">
      <xs:pattern value="[A-Z]{3}-[0-9]{4}"/>
    </xs:restriction>
  </xs:simpleType>
  <xs:element name="product">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="code" type="sku"/>
        <xs:element name="price" type="money"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func compileSchema(t *testing.T, src string) *Schema {
	t.Helper()
	s, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err, `schema.Parse should succeed`)
	return s
}

func validateDoc(t *testing.T, s *Schema, doc string, options ...ValidateOption) *Report {
	t.Helper()
	d, err := xenon.Parse(context.Background(), []byte(doc))
	require.NoError(t, err, `xenon.Parse should succeed`)
	rpt, err := NewValidator(s, options...).ValidateDocument(d)
	require.NoError(t, err, `ValidateDocument should succeed`)
	return rpt
}

func validateStream(t *testing.T, s *Schema, doc string, options ...ValidateOption) *Report {
	t.Helper()
	c, err := xenon.NewCursor([]byte(doc))
	require.NoError(t, err, `NewCursor should succeed`)
	rpt, err := NewValidator(s, options...).ValidateStream(context.Background(), c)
	require.NoError(t, err, `ValidateStream should succeed`)
	return rpt
}

func soleValidationError(t *testing.T, rpt *Report) *ValidationError {
	t.Helper()
	require.Equal(t, 1, rpt.Len(), `report should hold exactly one violation: %v`, rpt.Violations())
	var verr *ValidationError
	require.ErrorAs(t, rpt.Violations()[0], &verr, `violation should be a ValidationError`)
	return verr
}

func TestValidateBook(t *testing.T) {
	s := compileSchema(t, bookSchema)

	t.Run("valid document", func(t *testing.T) {
		rpt := validateDoc(t, s, `<book isbn="0000"><title>T</title><author>A</author><author>B</author></book>`)
		require.True(t, rpt.OK(), `report should be clean: %v`, rpt.Violations())
	})
	t.Run("missing title", func(t *testing.T) {
		verr := soleValidationError(t, validateDoc(t, s, `<book><author>A</author></book>`))
		require.Equal(t, CodeUnexpectedElement, verr.Code, `the first author cannot match the title slot`)
		require.Equal(t, "/book", verr.Path, `the violation belongs to the book element`)
		require.Contains(t, verr.Message, `'book'`, `the message should name the broken element`)
		require.Contains(t, verr.Message, "title", `the message should name the expected element`)
	})
	t.Run("missing author", func(t *testing.T) {
		verr := soleValidationError(t, validateDoc(t, s, `<book><title>T</title></book>`))
		require.Equal(t, CodeIncompleteContent, verr.Code, `content stops before the required author`)
		require.Contains(t, verr.Message, "author", `the message should name the missing element`)
	})
	t.Run("empty book", func(t *testing.T) {
		verr := soleValidationError(t, validateDoc(t, s, `<book/>`))
		require.Equal(t, CodeIncompleteContent, verr.Code, `an empty book misses everything`)
	})
	t.Run("one structural error per broken element", func(t *testing.T) {
		rpt := validateDoc(t, s, `<book><author>A</author><author>B</author><author>C</author></book>`)
		require.Equal(t, 1, rpt.Len(), `later children of a broken element should not pile up errors`)
	})
	t.Run("unordered children", func(t *testing.T) {
		verr := soleValidationError(t, validateDoc(t, s, `<book><author>A</author><title>T</title></book>`))
		require.Equal(t, CodeUnexpectedElement, verr.Code, `order matters in a sequence`)
	})
}

func TestValidateReportIdempotence(t *testing.T) {
	s := compileSchema(t, bookSchema)
	v := NewValidator(s)
	doc, err := xenon.Parse(context.Background(), []byte(`<book x="1"><author>A</author>text</book>`))
	require.NoError(t, err, `xenon.Parse should succeed`)

	r1, err := v.ValidateDocument(doc)
	require.NoError(t, err, `first run should succeed`)
	r2, err := v.ValidateDocument(doc)
	require.NoError(t, err, `second run should succeed`)
	require.Empty(t, cmp.Diff(r1.Violations(), r2.Violations()), `two runs over the same document should produce identical reports`)
}

func TestValidateStreamMatchesDocument(t *testing.T) {
	tests := map[string]struct {
		schema string
		doc    string
	}{
		"clean book": {
			schema: bookSchema,
			doc:    `<book><title>T</title><author>A</author></book>`,
		},
		"broken book": {
			schema: bookSchema,
			doc:    `<book bogus="1"><author>A</author></book>`,
		},
		"identity errors": {
			schema: catalogSchema,
			doc:    `<catalog><item id="a"/><item id="a"/><see ref="nope"/></catalog>`,
		},
		"facet errors": {
			schema: productSchema,
			doc:    `<product><code>abc</code><price>-1</price></product>`,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := compileSchema(t, tc.schema)
			fromDoc := validateDoc(t, s, tc.doc)
			fromStream := validateStream(t, s, tc.doc)
			diff := cmp.Diff(fromDoc.Violations(), fromStream.Violations(),
				cmpopts.IgnoreFields(ValidationError{}, "LineNumber", "Column"))
			require.Empty(t, diff, `tree and stream validation should agree`)
		})
	}
}

func TestValidateAttributes(t *testing.T) {
	s := compileSchema(t, catalogSchema)

	t.Run("valid", func(t *testing.T) {
		rpt := validateDoc(t, s, `<catalog><item id="a" lang="en" kind="hard" count="3"/></catalog>`)
		require.True(t, rpt.OK(), `report should be clean: %v`, rpt.Violations())
	})
	t.Run("required attribute missing", func(t *testing.T) {
		verr := soleValidationError(t, validateDoc(t, s, `<catalog><item/></catalog>`))
		require.Equal(t, CodeAttributeRequired, verr.Code, `id is required`)
		require.Equal(t, "/catalog/item", verr.Path, `the violation belongs to the item element`)
	})
	t.Run("undeclared attribute", func(t *testing.T) {
		verr := soleValidationError(t, validateDoc(t, s, `<catalog><item id="a" x="1"/></catalog>`))
		require.Equal(t, CodeAttributeNotAllowed, verr.Code, `x is not declared`)
	})
	t.Run("fixed value mismatch", func(t *testing.T) {
		verr := soleValidationError(t, validateDoc(t, s, `<catalog><item id="a" lang="fr"/></catalog>`))
		require.Equal(t, CodeAttributeFixed, verr.Code, `lang is fixed to en`)
	})
	t.Run("enumeration violation", func(t *testing.T) {
		verr := soleValidationError(t, validateDoc(t, s, `<catalog><item id="a" kind="medium"/></catalog>`))
		require.Equal(t, CodeEnumerationInvalid, verr.Code, `medium is not an allowed kind`)
	})
	t.Run("integer attribute", func(t *testing.T) {
		verr := soleValidationError(t, validateDoc(t, s, `<catalog><item id="a" count="many"/></catalog>`))
		require.Equal(t, CodeDatatypeInvalid, verr.Code, `count must be an integer`)
	})
	t.Run("namespaced attributes pass through", func(t *testing.T) {
		rpt := validateDoc(t, s, `<catalog><item xmlns:m="urn:meta" id="a" m:note="x"/></catalog>`)
		require.True(t, rpt.OK(), `foreign namespaced attributes are not checked: %v`, rpt.Violations())
	})
}

func TestValidateIdentity(t *testing.T) {
	s := compileSchema(t, catalogSchema)

	t.Run("duplicate ID", func(t *testing.T) {
		verr := soleValidationError(t, validateDoc(t, s, `<catalog><item id="a"/><item id="a"/></catalog>`))
		require.Equal(t, CodeDuplicateID, verr.Code, `the second a collides`)
	})
	t.Run("dangling IDREF", func(t *testing.T) {
		rpt := validateDoc(t, s, `<catalog><item id="a"/><see ref="b"/></catalog>`)
		require.Equal(t, 1, rpt.Len(), `report should hold exactly one violation: %v`, rpt.Violations())
		var rerr *ReferentialIntegrityError
		require.ErrorAs(t, rpt.Violations()[0], &rerr, `dangling IDREFs surface as referential integrity errors`)
		require.Equal(t, CodeDanglingIDREF, rerr.Code, `code should say what went wrong`)
		require.Equal(t, "b", rerr.Ref, `the dangling value should be preserved`)
		require.Equal(t, "/catalog/see", rerr.Path, `the violation points at the referring element`)
	})
	t.Run("forward reference resolves", func(t *testing.T) {
		rpt := validateDoc(t, s, `<catalog><see ref="a"/><item id="a"/></catalog>`)
		require.True(t, rpt.OK(), `IDREFs may point forward: %v`, rpt.Violations())
	})
}

func TestValidateTextContent(t *testing.T) {
	t.Run("text in element-only content", func(t *testing.T) {
		s := compileSchema(t, bookSchema)
		verr := soleValidationError(t, validateDoc(t, s, `<book>stray<title>T</title><author>A</author></book>`))
		require.Equal(t, CodeTextNotAllowed, verr.Code, `books hold elements, not text`)
	})
	t.Run("whitespace between children is fine", func(t *testing.T) {
		s := compileSchema(t, bookSchema)
		rpt := validateDoc(t, s, "<book>\n  <title>T</title>\n  <author>A</author>\n</book>")
		require.True(t, rpt.OK(), `indentation should not count as content: %v`, rpt.Violations())
	})
	t.Run("element in simple content", func(t *testing.T) {
		s := compileSchema(t, productSchema)
		rpt := validateDoc(t, s, `<product><code><b/>ABC-1234</code><price>1</price></product>`)
		require.Equal(t, 1, rpt.Len(), `report should hold exactly one violation: %v`, rpt.Violations())
		var verr *ValidationError
		require.ErrorAs(t, rpt.Violations()[0], &verr, `violation should be a ValidationError`)
		require.Equal(t, CodeElementNotAllowed, verr.Code, `code holds text, not elements`)
	})
}

func TestValidateFacets(t *testing.T) {
	s := compileSchema(t, productSchema)

	tests := map[string]struct {
		doc  string
		code string
	}{
		"valid": {
			doc: `<product><code>ABC-1234</code><price>9.99</price></product>`,
		},
		"whitespace collapses before checks": {
			doc: `<product><code> ABC-1234 </code><price> 42 </price></product>`,
		},
		"pattern violation": {
			doc:  `<product><code>abc</code><price>1</price></product>`,
			code: CodePatternInvalid,
		},
		"below minimum": {
			doc:  `<product><code>ABC-1234</code><price>-1</price></product>`,
			code: CodeMinInclusive,
		},
		"exclusive maximum": {
			doc:  `<product><code>ABC-1234</code><price>1000</price></product>`,
			code: CodeMaxExclusive,
		},
		"not a number": {
			doc:  `<product><code>ABC-1234</code><price>free</price></product>`,
			code: CodeDatatypeInvalid,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rpt := validateDoc(t, s, tc.doc)
			if tc.code == "" {
				require.True(t, rpt.OK(), `report should be clean: %v`, rpt.Violations())
				return
			}
			verr := soleValidationError(t, rpt)
			require.Equal(t, tc.code, verr.Code, `violation code should match`)
		})
	}
}

func TestValidateFailFast(t *testing.T) {
	s := compileSchema(t, catalogSchema)
	doc := `<catalog><item/><item/></catalog>`

	rpt := validateDoc(t, s, doc)
	require.Equal(t, 2, rpt.Len(), `both items miss their required id`)

	rpt = validateDoc(t, s, doc, WithFailFast(true))
	require.Equal(t, 1, rpt.Len(), `fail fast stops at the first violation`)

	rpt = validateStream(t, s, doc, WithFailFast(true))
	require.Equal(t, 1, rpt.Len(), `fail fast applies to stream validation too`)
}

func TestValidateTargetNamespace(t *testing.T) {
	const nsSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:books">
  <xs:element name="book">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="title" type="xs:string"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`
	s := compileSchema(t, nsSchema)
	require.Equal(t, "urn:books", s.TargetNamespace(), `target namespace should be recorded`)

	t.Run("document in the target namespace", func(t *testing.T) {
		rpt := validateDoc(t, s, `<book xmlns="urn:books"><title>T</title></book>`)
		require.True(t, rpt.OK(), `report should be clean: %v`, rpt.Violations())
	})
	t.Run("document outside the target namespace", func(t *testing.T) {
		verr := soleValidationError(t, validateDoc(t, s, `<book><title>T</title></book>`))
		require.Equal(t, CodeElementUndeclared, verr.Code, `the no-namespace book is a different name`)
	})
}

func TestValidateUndeclaredRoot(t *testing.T) {
	s := compileSchema(t, bookSchema)
	verr := soleValidationError(t, validateDoc(t, s, `<novel><chapter/></novel>`))
	require.Equal(t, CodeElementUndeclared, verr.Code, `nothing declares novel`)
	require.Equal(t, "/novel", verr.Path, `the violation points at the root`)
}

func TestValidateStreamParseError(t *testing.T) {
	s := compileSchema(t, bookSchema)
	c, err := xenon.NewCursor([]byte(`<book><title>T</title>`))
	require.NoError(t, err, `NewCursor should succeed`)

	rpt, err := NewValidator(s).ValidateStream(context.Background(), c)
	require.Error(t, err, `a malformed document cannot be validated`)
	require.Nil(t, rpt, `no report on parse failure`)
}

func TestValidationErrorFormat(t *testing.T) {
	verr := &ValidationError{
		Severity:   SeverityError,
		Code:       CodeDuplicateID,
		Message:    `ID value "a" is already in use`,
		LineNumber: 3,
		Column:     9,
		Path:       "/catalog/item",
	}
	require.Equal(t,
		`cvc-id.2: ID value "a" is already in use (at /catalog/item) at line 3, column 9`,
		verr.Error(), `rendered message should carry code, path and position`)
	require.Equal(t, "error", SeverityError.String(), `severity should render`)
	require.Equal(t, "warning", SeverityWarning.String(), `severity should render`)
	require.Equal(t, "fatal", SeverityFatal.String(), `severity should render`)
}
