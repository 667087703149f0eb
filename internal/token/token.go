package token

// Type is the type of a token.
type Type string

// Token represents a lexical token.
//
// Offset and End are byte offsets into the decoded source; Line and Column
// are 1-based and Column counts bytes.
type Token struct {
	Type    Type
	Literal string
	Offset  int
	End     int
	Line    int
	Column  int
}

const (
	// Special tokens
	ILLEGAL Type = "ILLEGAL" // Literal carries the diagnostic
	EOF     Type = "EOF"

	// Scalars. Literal holds the decoded value.
	PLAIN   Type = "PLAIN"   // key, 12, true
	SINGLE  Type = "SINGLE"  // 'it''s'
	DOUBLE  Type = "DOUBLE"  // "a\tb"
	LITERAL Type = "LITERAL" // |
	FOLDED  Type = "FOLDED"  // >
	TAG     Type = "TAG"     // !!str

	// Indicators
	DASH   Type = "-"
	COLON  Type = ":"
	COMMA  Type = ","
	LBRACE Type = "{"
	RBRACE Type = "}"
	LBRACK Type = "["
	RBRACK Type = "]"

	// Document markers
	DOCSTART Type = "---"
	DOCEND   Type = "..."

	// Comments and line breaks
	COMMENT Type = "COMMENT" // # a comment
	NEWLINE Type = "NEWLINE" // \n or \r\n
)

// IsScalar reports whether t carries a scalar value.
func (t Type) IsScalar() bool {
	switch t {
	case PLAIN, SINGLE, DOUBLE, LITERAL, FOLDED:
		return true
	}
	return false
}

// IsQuoted reports whether t is a quoted or block scalar, i.e. one whose
// value is always a string regardless of its text.
func (t Type) IsQuoted() bool {
	return t.IsScalar() && t != PLAIN
}

// Describe returns a human readable name of the token for diagnostics.
func (t Token) Describe() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case NEWLINE:
		return "line break"
	case COMMENT:
		return "comment"
	case PLAIN, SINGLE, DOUBLE:
		return "scalar " + quote(t.Literal)
	case LITERAL, FOLDED:
		return "block scalar"
	case TAG:
		return "tag " + t.Literal
	}
	return quote(string(t.Type))
}

func quote(s string) string {
	const limit = 32
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return "'" + s + "'"
}
