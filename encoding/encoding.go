// Package encoding wraps around the various encoding stuff in
// golang.org/x/text/encoding. Part of the reason this exists is that
// the package names such as "unicode" clash with the stdlib, and
// it's rather easier if we just hide it from xenon. It also hosts
// the byte-order-mark / first-bytes sniffing used to pick an initial
// decoder before the XML declaration has been parsed.
package encoding

import (
	"bytes"
	"strings"

	enc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names Detect can return for inputs this module cannot
// decode. Load returns nil for all of them.
const (
	UCS4BE   = "ucs4be"
	UCS4LE   = "ucs4le"
	UCS42143 = "ucs4_2143"
	UCS43412 = "ucs4_3412"
	EBCDIC   = "ebcdic"
)

var (
	patUCS4BE       = []byte{0x00, 0x00, 0x00, 0x3C}
	patUCS4LE       = []byte{0x3C, 0x00, 0x00, 0x00}
	patUCS42143     = []byte{0x00, 0x00, 0x3C, 0x00}
	patUCS43412     = []byte{0x00, 0x3C, 0x00, 0x00}
	patEBCDIC       = []byte{0x4C, 0x6F, 0xA7, 0x94}
	patUTF16LE4B    = []byte{0x3C, 0x00, 0x3F, 0x00}
	patUTF16BE4B    = []byte{0x00, 0x3C, 0x00, 0x3F}
	patUTF8         = []byte{0xEF, 0xBB, 0xBF}
	patUTF16LE2B    = []byte{0xFF, 0xFE}
	patUTF16BE2B    = []byte{0xFE, 0xFF}
	patMaybeXMLDecl = []byte{0x3C, 0x3F, 0x78, 0x6D}
)

// Detect sniffs the encoding of b from a byte order mark or from the
// byte pattern of a leading "<?xm". The returned name is suitable for
// Load; bom is the number of leading mark bytes the caller should
// discard before decoding. Inputs without any recognizable pattern
// are assumed to be UTF-8, per the XML recommendation.
func Detect(b []byte) (name string, bom int) {
	if len(b) >= 4 {
		head := b[:4]
		switch {
		case bytes.Equal(head, patUCS4BE):
			return UCS4BE, 0
		case bytes.Equal(head, patUCS4LE):
			return UCS4LE, 0
		case bytes.Equal(head, patUCS42143):
			return UCS42143, 0
		case bytes.Equal(head, patUCS43412):
			return UCS43412, 0
		case bytes.Equal(head, patEBCDIC):
			return EBCDIC, 0
		case bytes.Equal(head, patUTF16LE4B):
			return "utf16le", 0
		case bytes.Equal(head, patUTF16BE4B):
			return "utf16be", 0
		case bytes.Equal(head, patMaybeXMLDecl):
			return "utf-8", 0
		}
	}

	if len(b) >= 3 && bytes.Equal(b[:3], patUTF8) {
		return "utf-8", 3
	}

	if len(b) >= 2 {
		switch {
		case bytes.Equal(b[:2], patUTF16LE2B):
			return "utf16le", 2
		case bytes.Equal(b[:2], patUTF16BE2B):
			return "utf16be", 2
		}
	}

	return "utf-8", 0
}

// Load maps an encoding name, as detected or as declared in an XML
// declaration, to its x/text implementation. It returns nil for
// names this module does not support.
func Load(name string) enc.Encoding {
	switch strings.ToLower(name) {
	case "utf8", "utf-8", "us-ascii", "ascii":
		return unicode.UTF8
	case "utf16le", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case "utf16be", "utf-16be", "utf16", "utf-16":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case "euc-jp":
		return japanese.EUCJP
	case "shift_jis", "shift-jis", "shiftjis", "cp932":
		return japanese.ShiftJIS
	case "jis", "iso-2022-jp":
		return japanese.ISO2022JP
	case "big5":
		return traditionalchinese.Big5
	case "euc-kr":
		return korean.EUCKR
	case "hz-gb2312":
		return simplifiedchinese.HZGB2312
	case "cp437":
		return charmap.CodePage437
	case "cp866":
		return charmap.CodePage866
	case "iso-8859-10":
		return charmap.ISO8859_10
	case "iso-8859-13":
		return charmap.ISO8859_13
	case "iso-8859-14":
		return charmap.ISO8859_14
	case "iso-8859-15":
		return charmap.ISO8859_15
	case "iso-8859-16":
		return charmap.ISO8859_16
	case "iso-8859-2":
		return charmap.ISO8859_2
	case "iso-8859-3":
		return charmap.ISO8859_3
	case "iso-8859-4":
		return charmap.ISO8859_4
	case "iso-8859-5":
		return charmap.ISO8859_5
	case "iso-8859-6":
		return charmap.ISO8859_6
	case "iso-8859-7":
		return charmap.ISO8859_7
	case "iso-8859-8":
		return charmap.ISO8859_8
	case "iso-8859-9":
		return charmap.ISO8859_9
	case "koi8r", "koi8-r":
		return charmap.KOI8R
	case "koi8u", "koi8-u":
		return charmap.KOI8U
	case "macintosh":
		return charmap.Macintosh
	case "macintoshcyrillic":
		return charmap.MacintoshCyrillic
	case "windows1250", "windows-1250":
		return charmap.Windows1250
	case "windows1251", "windows-1251":
		return charmap.Windows1251
	case "iso-8859-1", "latin1", "windows1252", "windows-1252":
		return charmap.Windows1252
	case "windows1253", "windows-1253":
		return charmap.Windows1253
	case "windows1254", "windows-1254":
		return charmap.Windows1254
	case "windows1255", "windows-1255":
		return charmap.Windows1255
	case "windows1256", "windows-1256":
		return charmap.Windows1256
	case "windows1257", "windows-1257":
		return charmap.Windows1257
	case "windows1258", "windows-1258":
		return charmap.Windows1258
	case "windows874", "windows-874":
		return charmap.Windows874
	case "xuserdefined":
		return charmap.XUserDefined
	}
	return nil
}
