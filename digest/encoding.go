package digest

import (
	"slices"
	"strings"

	"github.com/multiformats/go-multibase"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"xdao.co/hashit/canon"
)

// Raw is the output encoding that requests the digest bytes unencoded.
const Raw = "none"

func normalizeEncoding(enc string) string {
	return strings.ToLower(strings.TrimSpace(enc))
}

// inputEncoders maps input encoding names to the transform applied to the
// canonical text. A nil encoder means the text is hashed as UTF-8.
var inputEncoders = map[string]func() *encoding.Encoder{
	"utf8":       nil,
	"utf-8":      nil,
	"latin1":     latin1Encoder,
	"binary":     latin1Encoder,
	"ascii":      latin1Encoder,
	"iso-8859-1": latin1Encoder,
	"utf16le":    utf16LEEncoder,
	"utf-16le":   utf16LEEncoder,
	"ucs2":       utf16LEEncoder,
	"ucs-2":      utf16LEEncoder,
}

// Runes outside Latin-1 are replaced rather than rejected so any canonical
// text can be hashed under any input encoding.
func latin1Encoder() *encoding.Encoder {
	return encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
}

func utf16LEEncoder() *encoding.Encoder {
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
}

func checkInputEncoding(enc string) error {
	if _, ok := inputEncoders[normalizeEncoding(enc)]; !ok {
		return canon.Errorf(canon.KindConfiguration, "HASHIT-CONF-002", "digest: unknown input encoding %q", enc)
	}
	return nil
}

// encodeInput converts canonical text to the bytes fed to the hash.
func encodeInput(text, enc string) ([]byte, error) {
	newEncoder, ok := inputEncoders[normalizeEncoding(enc)]
	if !ok {
		return nil, canon.Errorf(canon.KindConfiguration, "HASHIT-CONF-002", "digest: unknown input encoding %q", enc)
	}
	if newEncoder == nil {
		return []byte(text), nil
	}
	b, err := newEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, canon.WrapError(canon.KindConfiguration, "HASHIT-CONF-002", "digest: encode input as "+enc, err)
	}
	return b, nil
}

// outputAliases maps common output encoding names to multibase names.
var outputAliases = map[string]string{
	"hex":      "base16",
	"hexupper": "base16upper",
	"base64":   "base64pad",
	"base58":   "base58btc",
}

var rawOutputs = map[string]bool{"none": true, "null": true, "buffer": true, "raw": true}

func outputBase(enc string) (multibase.Encoding, bool) {
	n := normalizeEncoding(enc)
	if a, ok := outputAliases[n]; ok {
		n = a
	}
	base, ok := multibase.Encodings[n]
	return base, ok && base != multibase.Identity
}

func checkOutputEncoding(enc string) error {
	n := normalizeEncoding(enc)
	if rawOutputs[n] || n == "latin1" || n == "binary" {
		return nil
	}
	if _, ok := outputBase(enc); !ok {
		return canon.Errorf(canon.KindConfiguration, "HASHIT-CONF-003", "digest: unknown output encoding %q", enc)
	}
	return nil
}

// encodeOutput renders sum in the named encoding. Multibase encodings are
// returned without their multibase prefix character.
func encodeOutput(sum []byte, enc string) (string, error) {
	n := normalizeEncoding(enc)
	switch {
	case rawOutputs[n]:
		return string(sum), nil
	case n == "latin1" || n == "binary":
		r := make([]rune, len(sum))
		for i, b := range sum {
			r[i] = rune(b)
		}
		return string(r), nil
	}
	base, ok := outputBase(enc)
	if !ok {
		return "", canon.Errorf(canon.KindConfiguration, "HASHIT-CONF-003", "digest: unknown output encoding %q", enc)
	}
	s, err := multibase.Encode(base, sum)
	if err != nil {
		return "", canon.WrapError(canon.KindConfiguration, "HASHIT-CONF-003", "digest: encode output as "+enc, err)
	}
	return s[1:], nil
}

// OutputEncodings returns every accepted output encoding name, sorted.
func OutputEncodings() []string {
	seen := map[string]bool{"latin1": true, "binary": true}
	for n := range rawOutputs {
		seen[n] = true
	}
	for n := range outputAliases {
		seen[n] = true
	}
	for n, base := range multibase.Encodings {
		if base != multibase.Identity {
			seen[n] = true
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
