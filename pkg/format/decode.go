package format

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeText strips a UTF-8 byte order mark and transcodes UTF-16 input that
// starts with one. Anything else is read as UTF-8.
func decodeText(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return nil, fmt.Errorf("decode text: %w", err)
	}
	return out, nil
}

// DecodeCharset transcodes data from a legacy charset ("windows-1252",
// "iso-8859-1", "shift_jis", ...) to UTF-8. UTF-8 and an empty name are no-ops.
func DecodeCharset(charset string, data []byte) ([]byte, error) {
	if charset == "" || isUTF8(charset) {
		return data, nil
	}
	e, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", charset, err)
	}
	out, _, err := transform.Bytes(e.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", charset, err)
	}
	return out, nil
}

func isUTF8(name string) bool {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case "utf8", "unicode11utf8":
		return true
	}
	return false
}
