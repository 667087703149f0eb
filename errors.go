package ryaml

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/KimNorgaard/go-ryaml/internal/parser"
	"github.com/KimNorgaard/go-ryaml/internal/textenc"
)

var (
	// ErrEncoding matches every *EncodingError.
	ErrEncoding = errors.New("ryaml: invalid text encoding")
	// ErrCorrupted matches every *CorruptedError.
	ErrCorrupted = errors.New("ryaml: corrupted document")
	// ErrSyntax matches every *SyntaxError.
	ErrSyntax = errors.New("ryaml: syntax error")
)

// An EncodingError reports input that is not valid text in the declared
// encoding. Line and Column locate the first offending byte; they are zero
// when the decoder could not tell where it is.
type EncodingError struct {
	Path     string
	Encoding string
	Offset   int
	Line     int
	Column   int
	Bytes    []byte
}

func (e *EncodingError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("ryaml: %snot valid %s", prefix(e.Path, 0, 0), e.Encoding)
	}
	return fmt.Sprintf("ryaml: %sinvalid %s byte sequence %q", prefix(e.Path, e.Line, e.Column), e.Encoding, e.Bytes)
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// A CorruptedError reports a mapping that defines the same key twice.
type CorruptedError struct {
	Path      string
	Key       string
	Line      int
	Column    int
	FirstLine int
}

func (e *CorruptedError) Error() string {
	if e.Line == 0 {
		// Raised while marshaling a Map; there is no source position.
		return fmt.Sprintf("ryaml: %sduplicate key %q", prefix(e.Path, 0, 0), e.Key)
	}
	return fmt.Sprintf("ryaml: %sduplicate key %q (first defined on line %d)", prefix(e.Path, e.Line, e.Column), e.Key, e.FirstLine)
}

func (e *CorruptedError) Is(target error) bool { return target == ErrCorrupted }

// A SyntaxError reports text that cannot be parsed.
type SyntaxError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("ryaml: %s%s", prefix(e.Path, e.Line, e.Column), e.Message)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// A MarshalerError represents an error from calling a MarshalYAML method.
type MarshalerError struct {
	Type reflect.Type
	Err  error
}

func (e *MarshalerError) Error() string {
	return "ryaml: error calling MarshalYAML for type " + e.Type.String() + ": " + e.Err.Error()
}

func (e *MarshalerError) Unwrap() error { return e.Err }

// An UnmarshalerError represents an error from calling an UnmarshalYAML or
// UnmarshalText method.
type UnmarshalerError struct {
	Type reflect.Type
	Err  error
}

func (e *UnmarshalerError) Error() string {
	return "ryaml: error calling unmarshaler for type " + e.Type.String() + ": " + e.Err.Error()
}

func (e *UnmarshalerError) Unwrap() error { return e.Err }

func prefix(path string, line, column int) string {
	switch {
	case path != "" && line > 0:
		return fmt.Sprintf("%s:%d:%d: ", path, line, column)
	case path != "":
		return path + ": "
	case line > 0:
		return fmt.Sprintf("%d:%d: ", line, column)
	}
	return ""
}

func encodingError(err error, data []byte, path string) error {
	var terr *textenc.Error
	if !errors.As(err, &terr) {
		return fmt.Errorf("ryaml: %w", err)
	}
	e := &EncodingError{Path: path, Encoding: terr.Encoding, Offset: terr.Offset, Bytes: terr.Bytes}
	if terr.Offset >= 0 {
		before := data[:terr.Offset]
		e.Line = bytes.Count(before, []byte{'\n'}) + 1
		e.Column = terr.Offset - bytes.LastIndexByte(before, '\n')
	}
	return e
}

func parseError(err error, path string) error {
	var perr *parser.Error
	if !errors.As(err, &perr) {
		return fmt.Errorf("ryaml: %w", err)
	}
	if perr.Duplicate {
		return &CorruptedError{Path: path, Key: perr.Key, Line: perr.Line, Column: perr.Column, FirstLine: perr.FirstLine}
	}
	return &SyntaxError{Path: path, Line: perr.Line, Column: perr.Column, Message: perr.Message}
}
