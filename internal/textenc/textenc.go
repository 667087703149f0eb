// Package textenc validates and converts raw document bytes to and from
// text in a declared character encoding.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Default is the encoding assumed when none is declared.
const Default = "utf-8"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Error reports the first byte sequence that is not valid in the declared
// encoding. Offset is -1 when the decoder could not locate it.
type Error struct {
	Encoding string
	Offset   int
	Bytes    []byte
}

func (e *Error) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("input is not valid %s", e.Encoding)
	}
	return fmt.Sprintf("invalid %s byte sequence %q at offset %d", e.Encoding, e.Bytes, e.Offset)
}

// Lookup resolves an encoding name. It returns a nil encoding for UTF-8,
// which is handled without a transformer.
func Lookup(name string) (encoding.Encoding, error) {
	if isUTF8(name) {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// Decode validates data under the named encoding and returns it as UTF-8
// text. Nothing is returned alongside an error. A leading UTF-8 byte order
// mark is dropped.
func Decode(data []byte, name string) (string, error) {
	if name == "" {
		name = Default
	}
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return decodeUTF8(data, name)
	}
	if cm, ok := enc.(*charmap.Charmap); ok {
		for i, b := range data {
			if cm.DecodeByte(b) == utf8.RuneError {
				return "", &Error{Encoding: name, Offset: i, Bytes: []byte{b}}
			}
		}
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", &Error{Encoding: name, Offset: -1}
		}
		return string(out), nil
	}
	return decodeMultiByte(enc, data, name)
}

func decodeUTF8(data []byte, name string) (string, error) {
	start := 0
	if bytes.HasPrefix(data, utf8BOM) {
		start = len(utf8BOM)
	}
	src := data[start:]
	dst := make([]byte, len(src))
	_, n, err := encoding.UTF8Validator.Transform(dst, src, true)
	if err == nil {
		return string(src), nil
	}
	if !errors.Is(err, encoding.ErrInvalidUTF8) {
		return "", err
	}
	end := min(n+utf8.UTFMax, len(src))
	for j := n + 1; j < end; j++ {
		if utf8.RuneStart(src[j]) {
			end = j
			break
		}
	}
	return "", &Error{Encoding: name, Offset: start + n, Bytes: bytes.Clone(src[n:end])}
}

// decodeMultiByte decodes data a few runes at a time. Decoders of
// multi-byte encodings replace invalid input with U+FFFD, so a replacement
// character in the output is only accepted when it encodes back to the
// bytes it was decoded from.
func decodeMultiByte(enc encoding.Encoding, data []byte, name string) (string, error) {
	dec := enc.NewDecoder()
	dst := make([]byte, utf8.UTFMax)
	var out strings.Builder
	for off := 0; ; {
		nDst, nSrc, err := dec.Transform(dst, data[off:], true)
		chunk, src := dst[:nDst], data[off:off+nSrc]
		if i := bytes.IndexRune(chunk, utf8.RuneError); i >= 0 && !roundTrips(enc, chunk, src) {
			return "", invalidAt(enc, chunk, src, i, off, name)
		}
		out.Write(chunk)
		off += nSrc

		switch {
		case err == nil:
			return out.String(), nil
		case errors.Is(err, transform.ErrShortDst) && (nDst > 0 || nSrc > 0):
		default:
			return "", &Error{Encoding: name, Offset: off, Bytes: bytes.Clone(data[off:min(off+2, len(data))])}
		}
	}
}

func roundTrips(enc encoding.Encoding, text, src []byte) bool {
	b, err := enc.NewEncoder().Bytes(text)
	return err == nil && bytes.Equal(b, src)
}

// invalidAt locates the replacement character at chunk[i] within src,
// which starts at offset off of the input.
func invalidAt(enc encoding.Encoding, chunk, src []byte, i, off int, name string) *Error {
	head, err := enc.NewEncoder().Bytes(chunk[:i])
	if err != nil || len(head) > len(src) {
		return &Error{Encoding: name, Offset: off, Bytes: bytes.Clone(src)}
	}
	end := len(src)
	if tail, err := enc.NewEncoder().Bytes(chunk[i+utf8.RuneLen(utf8.RuneError):]); err == nil && len(head)+len(tail) <= len(src) {
		end -= len(tail)
	}
	return &Error{Encoding: name, Offset: off + len(head), Bytes: bytes.Clone(src[len(head):end])}
}

// Encode converts UTF-8 text into the named encoding.
func Encode(text, name string) ([]byte, error) {
	if name == "" {
		name = Default
	}
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(text), nil
	}
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("text is not representable in %s: %w", name, err)
	}
	return out, nil
}

func isUTF8(name string) bool {
	return strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8")
}
