package converter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	// ErrUnknownEncoding is returned for encoding names not in the WHATWG index
	ErrUnknownEncoding = errors.New("unknown text encoding")
	// ErrDecode is returned when a source file is not valid in its encoding
	ErrDecode = errors.New("cannot decode text")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textDecoder turns raw file bytes into text. UTF-8 input is validated
// strictly; other encodings go through golang.org/x/text.
type textDecoder struct {
	name string
	enc  encoding.Encoding // nil for UTF-8
}

// newTextDecoder resolves an encoding label such as "utf-8", "shift_jis",
// "sjis", "euc-jp" or "utf-16le"
func newTextDecoder(label string) (*textDecoder, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}

	if name == "utf-8" {
		return &textDecoder{name: name}, nil
	}
	return &textDecoder{name: name, enc: enc}, nil
}

// Name returns the canonical encoding name
func (d *textDecoder) Name() string {
	return d.name
}

// Decode converts data to a UTF-8 string and drops a leading byte order mark
func (d *textDecoder) Decode(data []byte) (string, error) {
	if d.enc == nil {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: invalid utf-8", ErrDecode)
		}
		return string(data), nil
	}

	out, err := d.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDecode, d.name, err)
	}
	return strings.TrimPrefix(string(out), "\uFEFF"), nil
}
