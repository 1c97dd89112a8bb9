// Package fileio reads and writes game files with tolerant encoding
// handling. Script files in the wild mix UTF-8 with BOM, UTF-16 and
// Windows-1252.
package fileio

import (
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/rs/zerolog/log"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadText reads a file and returns UTF-8 text. A UTF-8 or UTF-16 byte
// order mark selects the encoding; without one, bytes that are not valid
// UTF-8 fall back to Windows-1252.
func ReadText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	decoded, _, err := transform.Bytes(unicode.BOMOverride(encoding.Nop.NewDecoder()), raw)
	if err != nil {
		return "", err
	}
	if utf8.Valid(decoded) {
		return string(decoded), nil
	}

	log.Debug().Str("path", path).Msg("Not valid UTF-8, decoding as Windows-1252")
	decoded, _, err = transform.Bytes(charmap.Windows1252.NewDecoder(), decoded)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// WriteText writes UTF-8 text with a BOM, the form the game launcher
// expects for script files.
func WriteText(path, text string) error {
	data := make([]byte, 0, len(utf8BOM)+len(text))
	data = append(data, utf8BOM...)
	data = append(data, text...)
	return os.WriteFile(path, data, 0644)
}
