package extract

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// decodeText decodes raw bytes as UTF-8, honouring a UTF-8 or UTF-16 byte order mark.
// Invalid sequences become U+FFFD. The result is NFC-normalized.
func decodeText(raw []byte) string {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		out = raw
	}
	return normalize(string(out))
}

func normalize(s string) string {
	return norm.NFC.String(strings.ToValidUTF8(s, "\uFFFD"))
}
