package xenon

import (
	"bytes"
	"context"
	"io"
	"strings"
	"unicode"

	"github.com/lestrrat-go/strcursor"
	"github.com/lestrrat-go/xenon/encoding"
	"github.com/lestrrat-go/xenon/internal/debug"
	"github.com/lestrrat-go/xenon/internal/pool"
	"github.com/pkg/errors"
)

// scanner splits a document into raw markup tokens. It owns
// transcoding, the XML declaration, the document type declaration and
// entity policy, but knows nothing about element nesting or
// namespaces. Those belong to the reader built on top of it.
type scanner struct {
	ctx         context.Context
	cursor      *strcursor.Cursor
	cfg         *config
	entities    *entityTable
	doctype     *DocumentType
	version     string
	encoding    string
	standalone  StandaloneMode
	encLocked   bool
	contentSeen bool
	err         error
}

func newScanner(b []byte, cfg *config) (*scanner, error) {
	s := &scanner{
		cfg:        cfg,
		version:    "1.0",
		encoding:   "utf8",
		standalone: StandaloneImplicitNo,
	}

	if len(b) > cfg.maxInputSize {
		return nil, &SecurityError{
			Err: errors.Wrapf(ErrInputTooLarge, "%d bytes exceeds the configured limit of %d", len(b), cfg.maxInputSize),
		}
	}

	name, bom := encoding.Detect(b)
	b = b[bom:]
	if cfg.encoding != "" {
		name = cfg.encoding
		s.encoding = cfg.encoding
	}
	s.encLocked = cfg.encoding != "" || bom > 0

	if !isUTF8Name(name) {
		enc := encoding.Load(name)
		if enc == nil {
			return nil, &EncodingError{Encoding: name, Err: errors.Errorf("encoding '%s' is not supported", name)}
		}
		decoded, err := enc.NewDecoder().Bytes(b)
		if err != nil {
			return nil, &EncodingError{Encoding: name, Err: err}
		}
		b = decoded
		s.encLocked = true
	}

	s.cursor = strcursor.New(b)
	s.entities = newEntityTable(cfg, len(b))

	if s.curHasPrefix("<?xml") && (isBlankCh(s.curPeek(6)) || s.curPeek(6) == '?') {
		if err := s.parseXMLDecl(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *scanner) Version() string {
	return s.version
}

func (s *scanner) Encoding() string {
	return s.encoding
}

func (s *scanner) Standalone() StandaloneMode {
	return s.standalone
}

func (s *scanner) Doctype() *DocumentType {
	return s.doctype
}

// Next returns the next raw token, or io.EOF once the input is
// exhausted. After any other error the scanner stays in the error
// state and keeps returning it.
func (s *scanner) Next(ctx context.Context) (*Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	if debug.Enabled {
		debug.Printf("START scanner.Next")
		defer debug.Printf("END   scanner.Next")
	}

	s.ctx = ctx
	tok, err := s.next()
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return nil, err
	}
	return tok, nil
}

func (s *scanner) next() (*Token, error) {
	for {
		if s.curDone() {
			return nil, io.EOF
		}

		start := s.position()
		switch {
		case s.curHasPrefix("</"):
			return s.scanEndTag(start)
		case s.curHasPrefix("<!--"):
			return s.scanComment(start)
		case s.curHasPrefix("<![CDATA["):
			return s.scanCDATA(start)
		case s.curHasPrefix("<!DOCTYPE"):
			if err := s.scanDocType(); err != nil {
				return nil, err
			}
		case s.curHasPrefix("<?"):
			return s.scanPI(start)
		case s.curHasPrefix("<!"):
			return nil, s.error(errors.New("unexpected markup declaration"))
		case s.curHasPrefix("<"):
			return s.scanStartTag(start)
		case s.curHasPrefix("&"):
			return s.scanEntityRef(start)
		default:
			return s.scanText(start)
		}
	}
}

func (s *scanner) position() Position {
	return Position{
		Line:   s.cursor.LineNumber(),
		Column: s.cursor.Column(),
		Offset: s.cursor.OffsetBytes(),
	}
}

// error wraps err with the current cursor position. Already wrapped
// errors pass through untouched, and policy violations become
// SecurityError instead.
func (s *scanner) error(err error) error {
	switch err.(type) {
	case *SyntaxError, *SecurityError, *EncodingError, *NamespaceError:
		return err
	}

	if isSecurityViolation(err) {
		return &SecurityError{
			Err:        err,
			LineNumber: s.cursor.LineNumber(),
			Column:     s.cursor.Column(),
		}
	}
	return &SyntaxError{
		Err:        err,
		Line:       s.cursor.CurrentLine(),
		LineNumber: s.cursor.LineNumber(),
		Column:     s.cursor.Column(),
		Offset:     s.cursor.OffsetBytes(),
	}
}

// errorTok is like error but anchors the position to where tok
// started, for violations detected only after the token was consumed.
func (s *scanner) errorTok(err error, tok *Token) error {
	switch err.(type) {
	case *SyntaxError, *SecurityError, *EncodingError, *NamespaceError:
		return err
	}

	if isSecurityViolation(err) {
		return &SecurityError{
			Err:        err,
			LineNumber: tok.Span.Start.Line,
			Column:     tok.Span.Start.Column,
		}
	}
	return &SyntaxError{
		Err:        err,
		Line:       s.cursor.CurrentLine(),
		LineNumber: tok.Span.Start.Line,
		Column:     tok.Span.Start.Column,
		Offset:     tok.Span.Start.Offset,
	}
}

func (s *scanner) curHasChars(n int) bool {
	return s.cursor.HasChars(n)
}

func (s *scanner) curDone() bool {
	return s.cursor.Done()
}

func (s *scanner) curAdvance(n int) {
	s.cursor.Advance(n)
}

func (s *scanner) curPeek(n int) rune {
	return s.cursor.Peek(n)
}

func (s *scanner) curConsume(n int) string {
	return s.cursor.Consume(n)
}

func (s *scanner) curConsumeBytes(n int) []byte {
	return s.cursor.ConsumeBytes(n)
}

func (s *scanner) curConsumePrefix(str string) bool {
	return s.cursor.ConsumePrefix(str)
}

func (s *scanner) curHasPrefix(str string) bool {
	return s.cursor.HasPrefix(str)
}

func (s *scanner) curCharLen(n int) int {
	return s.cursor.CharLen(n)
}

func isBlankCh(c rune) bool {
	return c == 0x20 || (0x9 <= c && c <= 0xa) || c == 0xd
}

func isChar(r rune) bool {
	if r == 0xFFFD {
		return false
	}

	c := uint32(r)
	if c < 0x100 {
		return (0x9 <= c && c <= 0xa) || c == 0xd || 0x20 <= c
	}
	return (0x100 <= c && c <= 0xd7ff) || (0xe000 <= c && c <= 0xfffd) || (0x10000 <= c && c <= 0x10ffff)
}

func isNameStartChar(r rune) bool {
	return r == '_' || r == ':' || unicode.IsLetter(r)
}

func isNCNameStartChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return r == '.' || r == '-' || r == '_' || r == ':' ||
		unicode.IsLetter(r) || unicode.IsDigit(r) ||
		unicode.In(r, unicode.Extender)
}

func isNCNameChar(r rune) bool {
	return r == '.' || r == '-' || r == '_' ||
		unicode.IsLetter(r) || unicode.IsDigit(r) ||
		unicode.In(r, unicode.Extender)
}

func isXMLName(v string) bool {
	for i, r := range v {
		if i == 0 {
			if !isNameStartChar(r) {
				return false
			}
			continue
		}
		if !isNameChar(r) {
			return false
		}
	}
	return len(v) > 0
}

func isUTF8Name(name string) bool {
	switch strings.ToLower(name) {
	case "utf8", "utf-8", "ascii", "us-ascii":
		return true
	}
	return false
}

func normalizeLineEndings(b []byte) []byte {
	if bytes.IndexByte(b, '\r') < 0 {
		return b
	}
	b = bytes.ReplaceAll(b, []byte{'\r', '\n'}, []byte{'\n'})
	return bytes.ReplaceAll(b, []byte{'\r'}, []byte{'\n'})
}

func (s *scanner) skipBlanks() int {
	i := 1
	for ; s.curHasChars(i); i++ {
		if !isBlankCh(s.curPeek(i)) {
			break
		}
	}
	i--
	if i > 0 {
		s.curAdvance(i)
	}
	return i
}

func (s *scanner) parseName() (string, error) {
	if !s.curHasChars(1) {
		return "", ErrPrematureEOF
	}
	if !isNameStartChar(s.curPeek(1)) {
		return "", errors.Wrapf(ErrInvalidName, "unexpected character %q", s.curPeek(1))
	}

	i := 2
	for ; s.curHasChars(i); i++ {
		if !isNameChar(s.curPeek(i)) {
			break
		}
	}
	i--
	if i > MaxNameLength {
		return "", ErrNameTooLong
	}
	return s.curConsume(i), nil
}

func (s *scanner) parseNCName() (string, error) {
	if !s.curHasChars(1) {
		return "", ErrPrematureEOF
	}
	if !isNCNameStartChar(s.curPeek(1)) {
		return "", errors.Wrapf(ErrInvalidName, "unexpected character %q", s.curPeek(1))
	}

	i := 2
	for ; s.curHasChars(i); i++ {
		if !isNCNameChar(s.curPeek(i)) {
			break
		}
	}
	i--
	if i > MaxNameLength {
		return "", ErrNameTooLong
	}
	return s.curConsume(i), nil
}

// parseQName parses a name with an optional single prefix. The URI is
// left empty: resolution happens a layer up, where the namespace
// scopes live.
func (s *scanner) parseQName() (QName, error) {
	var qn QName
	first, err := s.parseNCName()
	if err != nil {
		return qn, err
	}

	if s.curPeek(1) != ':' {
		qn.Local = first
		return qn, nil
	}
	s.curAdvance(1)

	local, err := s.parseNCName()
	if err != nil {
		return qn, errors.Wrapf(ErrInvalidName, "expected local name after '%s:'", first)
	}
	qn.Prefix = first
	qn.Local = local
	return qn, nil
}

type qtextHandler func(qch rune) (string, error)

func (s *scanner) parseQuotedText(cb qtextHandler) (string, error) {
	q := s.curPeek(1)
	switch q {
	case '"', '\'':
		s.curAdvance(1)
	default:
		return "", errors.Wrap(ErrValueRequired, "expected quote character")
	}

	v, err := cb(q)
	if err != nil {
		return "", err
	}

	if s.curPeek(1) != q {
		return "", ErrAttrValueUnterminated
	}
	s.curAdvance(1)
	return v, nil
}

type attrNotFoundError struct {
	token string
}

func (e attrNotFoundError) Error() string {
	return "attribute token '" + e.token + "' not found"
}

func (s *scanner) parseNamedAttribute(name string, cb qtextHandler) (string, error) {
	s.skipBlanks()
	if !s.curConsumePrefix(name) {
		return "", attrNotFoundError{token: name}
	}

	s.skipBlanks()
	if s.curPeek(1) != '=' {
		return "", ErrEqualSignRequired
	}

	s.curAdvance(1)
	s.skipBlanks()
	return s.parseQuotedText(cb)
}

// parseXMLDecl parses the document prolog. Only called when the input
// begins with the '<?xml' marker.
func (s *scanner) parseXMLDecl() error {
	if !s.curConsumePrefix("<?xml") {
		return s.error(ErrInvalidXMLDecl)
	}

	if !isBlankCh(s.curPeek(1)) {
		return s.error(errors.Wrap(ErrSpaceRequired, "after '<?xml'"))
	}
	s.skipBlanks()

	v, err := s.parseVersionInfo()
	if err != nil {
		return s.error(err)
	}
	s.version = v

	if !isBlankCh(s.curPeek(1)) {
		// no blank means we expect the end of the declaration
		if s.curPeek(1) == '?' && s.curPeek(2) == '>' {
			s.curAdvance(2)
			return nil
		}
		return s.error(ErrSpaceRequired)
	}

	v, err = s.parseEncodingDecl()
	if err == nil {
		s.encoding = v
		if err := s.switchEncoding(v); err != nil {
			return err
		}
		if s.curPeek(1) == '?' && s.curPeek(2) == '>' {
			s.curAdvance(2)
			return nil
		}
	} else if _, ok := err.(attrNotFoundError); !ok {
		return s.error(err)
	}

	sa, err := s.parseStandaloneDecl()
	if err != nil {
		if _, ok := err.(attrNotFoundError); !ok {
			return s.error(err)
		}
	} else {
		s.standalone = sa
	}

	s.skipBlanks()
	if s.curPeek(1) == '?' && s.curPeek(2) == '>' {
		s.curAdvance(2)
		return nil
	}
	return s.error(errors.Wrap(ErrInvalidXMLDecl, "declaration not closed"))
}

func (s *scanner) parseVersionInfo() (string, error) {
	return s.parseNamedAttribute("version", s.parseVersionNum)
}

// parseVersionNum accepts [0-9].[0-9]+ rather than the literal '1.'
// form, matching what lenient parsers do in practice.
func (s *scanner) parseVersionNum(_ rune) (string, error) {
	if v := s.curPeek(1); v > '9' || v < '0' {
		return "", ErrInvalidVersionNum
	}
	if v := s.curPeek(2); v != '.' {
		return "", ErrInvalidVersionNum
	}
	if v := s.curPeek(3); v > '9' || v < '0' {
		return "", ErrInvalidVersionNum
	}

	for i := 4; s.curHasChars(i); i++ {
		if v := s.curPeek(i); v > '9' || v < '0' {
			i--
			return s.curConsume(i), nil
		}
	}
	return "", ErrInvalidVersionNum
}

func (s *scanner) parseEncodingDecl() (string, error) {
	return s.parseNamedAttribute("encoding", s.parseEncodingName)
}

func (s *scanner) parseEncodingName(_ rune) (string, error) {
	c := s.curPeek(1)
	if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
		return "", ErrInvalidEncodingName
	}

	i := 2
	for ; s.curHasChars(i); i++ {
		c = s.curPeek(i)
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') && c != '.' && c != '_' && c != '-' {
			i--
			break
		}
	}
	return s.curConsume(i), nil
}

const (
	yes = "yes"
	no  = "no"
)

func (s *scanner) parseStandaloneDecl() (StandaloneMode, error) {
	v, err := s.parseNamedAttribute("standalone", s.parseStandaloneDeclValue)
	if err != nil {
		return StandaloneImplicitNo, err
	}
	if v == yes {
		return StandaloneExplicitYes, nil
	}
	return StandaloneExplicitNo, nil
}

func (s *scanner) parseStandaloneDeclValue(_ rune) (string, error) {
	if s.curConsumePrefix(yes) {
		return yes, nil
	}
	if s.curConsumePrefix(no) {
		return no, nil
	}
	return "", errors.New("invalid standalone declaration")
}

// switchEncoding transcodes the rest of the input once the declared
// encoding is known. When the encoding was already established from a
// byte order mark, an explicit option, or upfront transcoding, the
// declared name is recorded but the bytes are left alone.
func (s *scanner) switchEncoding(name string) error {
	if s.encLocked || isUTF8Name(name) {
		return nil
	}

	enc := encoding.Load(name)
	if enc == nil {
		return &EncodingError{Encoding: name, Err: errors.Errorf("encoding '%s' is not supported", name)}
	}

	b, err := enc.NewDecoder().Bytes(s.cursor.Bytes())
	if err != nil {
		return &EncodingError{Encoding: name, Err: err}
	}

	s.cursor = strcursor.New(b)
	s.encLocked = true
	return nil
}

func (s *scanner) scanStartTag(start Position) (*Token, error) {
	s.curAdvance(1)
	name, err := s.parseQName()
	if err != nil {
		return nil, s.error(err)
	}

	tok := &Token{Type: StartTagToken, Name: name}
	var seen map[string]struct{}
	for {
		blanks := s.skipBlanks()
		if !s.curHasChars(1) {
			return nil, s.error(ErrPrematureEOF)
		}

		c := s.curPeek(1)
		if c == '>' {
			s.curAdvance(1)
			break
		}
		if c == '/' && s.curPeek(2) == '>' {
			s.curAdvance(2)
			tok.Type = EmptyElementTagToken
			tok.SelfClosing = true
			break
		}

		if blanks == 0 {
			return nil, s.error(errors.Wrap(ErrSpaceRequired, "between attributes"))
		}

		attr, err := s.parseAttribute()
		if err != nil {
			return nil, s.error(err)
		}

		if seen == nil {
			seen = make(map[string]struct{}, 4)
		}
		key := attr.Name.String()
		if _, dup := seen[key]; dup {
			return nil, s.error(errors.Wrapf(ErrDuplicateAttribute, "'%s'", key))
		}
		seen[key] = struct{}{}
		tok.Attrs = append(tok.Attrs, attr)
	}

	s.contentSeen = true
	tok.Span = Span{Start: start, End: s.position()}
	return tok, nil
}

func (s *scanner) parseAttribute() (Attr, error) {
	var attr Attr
	name, err := s.parseQName()
	if err != nil {
		return attr, err
	}

	s.skipBlanks()
	if s.curPeek(1) != '=' {
		return attr, errors.Wrapf(ErrEqualSignRequired, "after attribute name '%s'", name)
	}
	s.curAdvance(1)
	s.skipBlanks()

	v, err := s.parseAttributeValue()
	if err != nil {
		return attr, err
	}
	attr.Name = name
	attr.Value = v
	return attr, nil
}

func (s *scanner) parseAttributeValue() (string, error) {
	return s.parseQuotedText(s.parseAttributeValueInternal)
}

func (s *scanner) parseAttributeValueInternal(qch rune) (string, error) {
	buf := pool.ByteSlice().Get()
	defer func() { pool.ByteSlice().Put(buf) }()

	for {
		i := 1
		for ; s.curHasChars(i); i++ {
			c := s.curPeek(i)
			if c == qch || c == '&' || c == '<' {
				i--
				break
			}
			if !isChar(c) {
				return "", ErrInvalidChar
			}
		}
		buf = appendAttrNormalized(buf, s.curConsume(i))

		c := s.curPeek(1)
		if c == '<' {
			return "", ErrLtInAttValue
		}
		if c != '&' {
			break
		}
		s.curAdvance(1)

		ref, err := s.parseRefName()
		if err != nil {
			return "", err
		}
		expanded, err := s.entities.expand(s.ctx, ref)
		if err != nil {
			return "", err
		}
		if !strings.HasPrefix(ref, "#") && resolvePredefinedEntity(ref) == nil && bytes.IndexByte(expanded, '<') >= 0 {
			return "", errors.Wrapf(ErrLtInAttValue, "via entity '%s'", ref)
		}
		buf = append(buf, expanded...)
	}
	return string(buf), nil
}

// appendAttrNormalized appends literal attribute text with the
// whitespace characters collapsed to plain spaces. Text that arrives
// through references is appended verbatim by the caller, so a
// character reference can still embed a literal tab or newline.
func appendAttrNormalized(buf []byte, v string) []byte {
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '\t', '\n', '\r':
			buf = append(buf, ' ')
		default:
			buf = append(buf, v[i])
		}
	}
	return buf
}

// parseRefName consumes the name and terminating semicolon of a
// reference, the leading ampersand having been consumed already.
// Character references come back with their leading '#'.
func (s *scanner) parseRefName() (string, error) {
	if s.curPeek(1) == '#' {
		i := 2
		for ; s.curHasChars(i) && s.curPeek(i) != ';'; i++ {
			if i > 12 {
				return "", errors.Wrap(ErrInvalidChar, "malformed character reference")
			}
		}
		if !s.curHasChars(i) {
			return "", ErrSemicolonRequired
		}
		name := s.curConsume(i - 1)
		s.curAdvance(1)
		return name, nil
	}

	name, err := s.parseName()
	if err != nil {
		if errors.Is(err, ErrPrematureEOF) {
			return "", err
		}
		return "", errors.Wrap(ErrNameRequired, "in reference")
	}
	if s.curPeek(1) != ';' {
		return "", errors.Wrapf(ErrSemicolonRequired, "after '&%s'", name)
	}
	s.curAdvance(1)
	return name, nil
}

func (s *scanner) scanEntityRef(start Position) (*Token, error) {
	s.curAdvance(1)
	name, err := s.parseRefName()
	if err != nil {
		return nil, s.error(err)
	}

	tok := &Token{Type: EntityRefToken, Name: QName{Local: name}, Text: []byte(name)}
	tok.Span = Span{Start: start, End: s.position()}
	return tok, nil
}

func (s *scanner) scanEndTag(start Position) (*Token, error) {
	s.curAdvance(2)
	name, err := s.parseQName()
	if err != nil {
		return nil, s.error(err)
	}

	s.skipBlanks()
	if s.curPeek(1) != '>' {
		return nil, s.error(errors.Wrapf(ErrGtRequired, "to close element '%s'", name))
	}
	s.curAdvance(1)

	tok := &Token{Type: EndTagToken, Name: name}
	tok.Span = Span{Start: start, End: s.position()}
	return tok, nil
}

func (s *scanner) scanText(start Position) (*Token, error) {
	i := 1
	for ; s.curHasChars(i); i++ {
		c := s.curPeek(i)
		if c == '<' || c == '&' {
			break
		}
		if !isChar(c) {
			return nil, s.error(ErrInvalidChar)
		}
		if c == ']' && s.curPeek(i+1) == ']' && s.curPeek(i+2) == '>' {
			return nil, s.error(ErrMisplacedCDATAEnd)
		}
	}

	raw := s.curConsumeBytes(s.curCharLen(i - 1))
	tok := &Token{Type: TextToken, Text: normalizeLineEndings(raw)}
	tok.Span = Span{Start: start, End: s.position()}
	return tok, nil
}

func (s *scanner) scanComment(start Position) (*Token, error) {
	if !s.curConsumePrefix("<!--") {
		return nil, s.error(ErrCommentNotFinished)
	}

	i := 1
	q := s.curPeek(i)
	i++
	r := s.curPeek(i)
	i++
	cur := s.curPeek(i)
	for isChar(cur) && (q != '-' || r != '-' || cur != '>') {
		i++
		if q == '-' && r == '-' {
			return nil, s.error(ErrHyphenInComment)
		}
		q = r
		r = cur
		cur = s.curPeek(i)
	}
	if !isChar(cur) {
		if s.curHasChars(i) {
			return nil, s.error(ErrInvalidChar)
		}
		return nil, s.error(ErrCommentNotFinished)
	}

	str := s.curConsumeBytes(s.curCharLen(i - 3))
	s.curConsume(3)

	tok := &Token{Type: CommentToken, Text: normalizeLineEndings(str)}
	tok.Span = Span{Start: start, End: s.position()}
	return tok, nil
}

var knownPIs = []string{
	"xml-stylesheet",
	"xml-model",
}

func (s *scanner) parsePITarget() (string, error) {
	name, err := s.parseName()
	if err != nil {
		return "", err
	}

	if strings.EqualFold(name, "xml") {
		return "", errors.Wrap(ErrInvalidProcessingInstruction, "target 'xml' is reserved for the document prolog")
	}

	for _, knownpi := range knownPIs {
		if knownpi == name {
			return name, nil
		}
	}

	if strings.IndexByte(name, ':') > -1 {
		return "", errors.Wrapf(ErrInvalidProcessingInstruction, "colons are forbidden from PI names '%s'", name)
	}
	return name, nil
}

func (s *scanner) scanPI(start Position) (*Token, error) {
	s.curAdvance(2)
	target, err := s.parsePITarget()
	if err != nil {
		return nil, s.error(err)
	}

	if s.curConsumePrefix("?>") {
		tok := &Token{Type: ProcessingInstructionToken, Name: QName{Local: target}}
		tok.Span = Span{Start: start, End: s.position()}
		return tok, nil
	}

	if !isBlankCh(s.curPeek(1)) {
		return nil, s.error(errors.Wrapf(ErrSpaceRequired, "after PI target '%s'", target))
	}
	s.skipBlanks()

	i := 1
	for ; s.curHasChars(i); i++ {
		if s.curPeek(i) == '?' && s.curPeek(i+1) == '>' {
			break
		}
		if !isChar(s.curPeek(i)) {
			return nil, s.error(ErrInvalidChar)
		}
	}
	if !s.curHasChars(i) {
		return nil, s.error(errors.Wrap(ErrInvalidProcessingInstruction, "not closed"))
	}

	data := s.curConsumeBytes(s.curCharLen(i - 1))
	s.curAdvance(2)

	tok := &Token{Type: ProcessingInstructionToken, Name: QName{Local: target}, Text: normalizeLineEndings(data)}
	tok.Span = Span{Start: start, End: s.position()}
	return tok, nil
}

func (s *scanner) scanCDATA(start Position) (*Token, error) {
	s.curAdvance(9)

	i := 1
	for ; s.curHasChars(i); i++ {
		c := s.curPeek(i)
		if c == ']' && s.curPeek(i+1) == ']' && s.curPeek(i+2) == '>' {
			break
		}
		if !isChar(c) {
			return nil, s.error(ErrInvalidChar)
		}
	}
	if !s.curHasChars(i) {
		return nil, s.error(ErrCDATANotFinished)
	}

	str := s.curConsumeBytes(s.curCharLen(i - 1))
	s.curAdvance(3)

	tok := &Token{Type: CDataToken, Text: normalizeLineEndings(str)}
	tok.Span = Span{Start: start, End: s.position()}
	return tok, nil
}

func (s *scanner) scanDocType() error {
	if !s.cfg.doctype {
		return s.error(errors.Wrap(ErrDoctypeNotAllowed, "document type declarations are disabled"))
	}
	if s.doctype != nil || s.contentSeen {
		return s.error(errors.New("misplaced document type declaration"))
	}

	s.curAdvance(9)
	if s.skipBlanks() == 0 {
		return s.error(errors.Wrap(ErrSpaceRequired, "after '<!DOCTYPE'"))
	}

	name, err := s.parseName()
	if err != nil {
		return s.error(ErrDocTypeNameRequired)
	}

	s.skipBlanks()
	publicID, systemID, err := s.parseExternalID()
	if err != nil {
		return s.error(err)
	}
	dt := newDocumentType(name, publicID, systemID)

	s.skipBlanks()
	if s.curPeek(1) == '[' {
		s.curAdvance(1)
		if err := s.parseInternalSubset(dt); err != nil {
			return s.error(err)
		}
	}

	s.skipBlanks()
	if s.curPeek(1) != '>' {
		return s.error(ErrDocTypeNotFinished)
	}
	s.curAdvance(1)

	s.doctype = dt
	s.entities.setDoctype(dt)
	return nil
}

// parseExternalID parses an optional SYSTEM or PUBLIC identifier pair.
// Absence is not an error: both return values simply come back empty.
func (s *scanner) parseExternalID() (publicID string, systemID string, err error) {
	switch {
	case s.curConsumePrefix("SYSTEM"):
		if s.skipBlanks() == 0 {
			return "", "", errors.Wrap(ErrSpaceRequired, "after SYSTEM")
		}
		systemID, err = s.parseQuotedLiteral()
		if err != nil {
			return "", "", err
		}
	case s.curConsumePrefix("PUBLIC"):
		if s.skipBlanks() == 0 {
			return "", "", errors.Wrap(ErrSpaceRequired, "after PUBLIC")
		}
		publicID, err = s.parseQuotedLiteral()
		if err != nil {
			return "", "", err
		}
		if s.skipBlanks() == 0 {
			return "", "", errors.Wrap(ErrSpaceRequired, "between public and system identifiers")
		}
		systemID, err = s.parseQuotedLiteral()
		if err != nil {
			return "", "", err
		}
	}
	return publicID, systemID, nil
}

func (s *scanner) parseQuotedLiteral() (string, error) {
	return s.parseQuotedText(func(qch rune) (string, error) {
		i := 1
		for ; s.curHasChars(i); i++ {
			if s.curPeek(i) == qch {
				break
			}
		}
		i--
		return s.curConsume(i), nil
	})
}

func (s *scanner) parseInternalSubset(dt *DocumentType) error {
	for s.curHasChars(1) {
		s.skipBlanks()
		c := s.curPeek(1)
		if c == ']' {
			s.curAdvance(1)
			return nil
		}

		switch {
		case s.curConsumePrefix("<!ENTITY"):
			if err := s.parseEntityDecl(dt); err != nil {
				return err
			}
		case s.curConsumePrefix("<!ELEMENT"), s.curConsumePrefix("<!ATTLIST"), s.curConsumePrefix("<!NOTATION"):
			if err := s.skipMarkupDecl(); err != nil {
				return err
			}
		case s.curHasPrefix("<!--"):
			if _, err := s.scanComment(s.position()); err != nil {
				return err
			}
		case s.curHasPrefix("<?"):
			if _, err := s.scanPI(s.position()); err != nil {
				return err
			}
		case c == '%':
			return errors.Wrap(ErrParameterEntityNotAllowed, "in internal subset")
		default:
			return errors.Wrapf(ErrDocTypeNotFinished, "unexpected character %q in internal subset", c)
		}
	}
	return ErrPrematureEOF
}

// skipMarkupDecl discards a markup declaration whose leading keyword
// has been consumed, honoring quoting so a '>' inside a default value
// does not end it early.
func (s *scanner) skipMarkupDecl() error {
	var quote rune
	for s.curHasChars(1) {
		c := s.curPeek(1)
		s.curAdvance(1)

		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '>':
			return nil
		}
	}
	return ErrDocTypeNotFinished
}

func (s *scanner) parseEntityDecl(dt *DocumentType) error {
	if s.skipBlanks() == 0 {
		return errors.Wrap(ErrSpaceRequired, "after '<!ENTITY'")
	}

	etype := InternalGeneralEntity
	if s.curPeek(1) == '%' {
		s.curAdvance(1)
		if s.skipBlanks() == 0 {
			return errors.Wrap(ErrSpaceRequired, "after '%'")
		}
		etype = InternalParameterEntity
	}

	name, err := s.parseName()
	if err != nil {
		return errors.Wrap(err, "failed to parse entity name")
	}
	if s.skipBlanks() == 0 {
		return errors.Wrap(ErrSpaceRequired, "after entity name")
	}

	var content, publicID, systemID string
	if c := s.curPeek(1); c == '"' || c == '\'' {
		content, err = s.parseEntityValue()
		if err != nil {
			return err
		}
	} else {
		publicID, systemID, err = s.parseExternalID()
		if err != nil {
			return err
		}
		if publicID == "" && systemID == "" {
			return errors.Wrapf(ErrValueRequired, "for entity '%s'", name)
		}

		if etype == InternalParameterEntity {
			etype = ExternalParameterEntity
		} else {
			etype = ExternalGeneralParsedEntity
		}

		if s.skipBlanks() > 0 && s.curConsumePrefix("NDATA") {
			if etype == ExternalParameterEntity {
				return errors.New("parameter entities cannot have a notation")
			}
			if s.skipBlanks() == 0 {
				return errors.Wrap(ErrSpaceRequired, "after NDATA")
			}
			if _, err := s.parseName(); err != nil {
				return errors.Wrap(err, "failed to parse notation name")
			}
			etype = ExternalGeneralUnparsedEntity
		}
	}

	s.skipBlanks()
	if s.curPeek(1) != '>' {
		return errors.Wrapf(ErrGtRequired, "to close entity declaration '%s'", name)
	}
	s.curAdvance(1)

	if _, err := dt.RegisterEntity(name, etype, publicID, systemID, content); err != nil {
		return err
	}
	return nil
}

func (s *scanner) parseEntityValue() (string, error) {
	return s.parseQuotedText(func(qch rune) (string, error) {
		i := 1
		for ; s.curHasChars(i); i++ {
			c := s.curPeek(i)
			if c == qch {
				break
			}
			if !isChar(c) {
				return "", ErrInvalidChar
			}
		}
		i--
		v := s.curConsume(i)

		if peRefIndex(v) >= 0 {
			return "", errors.Wrap(ErrParameterEntityNotAllowed, "in entity value")
		}
		return v, nil
	})
}

func peRefIndex(v string) int {
	for i := 0; i < len(v); i++ {
		if v[i] != '%' {
			continue
		}
		rest := v[i+1:]
		j := strings.IndexByte(rest, ';')
		if j <= 0 {
			continue
		}
		if isXMLName(rest[:j]) {
			return i
		}
	}
	return -1
}
