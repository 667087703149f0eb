package ryaml

import (
	"fmt"

	"github.com/KimNorgaard/go-ryaml/internal/textenc"
)

const (
	defaultIndent   = 2
	defaultMaxDepth = 1000
)

// Option configures a single Parse, Marshal or Modify call.
type Option func(*options) error

type options struct {
	encoding string
	indent   int
	maxDepth int
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		encoding: textenc.Default,
		indent:   defaultIndent,
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Encoding sets the character encoding documents are read and written in.
// The name is any IANA encoding name, such as "utf-8" or "latin1". The
// default is UTF-8.
func Encoding(name string) Option {
	return func(o *options) error {
		if _, err := textenc.Lookup(name); err != nil {
			return fmt.Errorf("ryaml: %w", err)
		}
		o.encoding = name
		return nil
	}
}

// Indent sets the number of spaces nested mappings are indented by when
// they are written. Text that is kept from the source keeps its own
// indentation.
func Indent(n int) Option {
	return func(o *options) error {
		if n < 1 || n > 9 {
			return fmt.Errorf("ryaml: indent must be between 1 and 9, got %d", n)
		}
		o.indent = n
		return nil
	}
}

// MaxDepth sets the maximum nesting depth for Marshal and Unmarshal. This
// helps prevent stack overflows on deeply nested or cyclic values.
//
// The depth n must be a positive integer.
func MaxDepth(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("ryaml: max depth must be a positive integer")
		}
		o.maxDepth = n
		return nil
	}
}
