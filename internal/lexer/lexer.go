package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KimNorgaard/go-ryaml/internal/token"
)

// Lexer holds the state for tokenizing decoded document text.
//
// The lexer is context sensitive: it tracks flow collection nesting, so
// that ',', ']' and '}' terminate plain scalars only inside flow
// collections, and the column of the innermost block key on the current
// line, which bounds the content of block scalars.
type Lexer struct {
	input     string
	pos       int
	line      int
	lineStart int
	flow      int
	keyCol    int
	prev      token.Token
}

// New creates and returns a new Lexer.
func New(input string) *Lexer {
	return &Lexer{input: input, line: 1, keyCol: -1}
}

// NextToken scans the input and returns the next token.
func (l *Lexer) NextToken() token.Token {
	tok := l.next()
	l.prev = tok
	return tok
}

func (l *Lexer) next() token.Token { //nolint:gocyclo
	if l.pos == l.lineStart && l.flow == 0 {
		if tok, ok := l.lineStartToken(); ok {
			return tok
		}
	}
	l.skipWhitespace()
	tok := l.newToken()
	if l.pos >= len(l.input) {
		tok.Type = token.EOF
		tok.End = l.pos
		return tok
	}

	switch ch := l.input[l.pos]; ch {
	case '\n':
		return l.newline(tok, 1)
	case '\r':
		if l.peek(1) == '\n' {
			return l.newline(tok, 2)
		}
		return l.illegal(tok, "carriage return without line feed")
	case '#':
		return l.readComment(tok)
	case '-':
		if l.flow == 0 && l.isBlankOrEnd(l.pos+1) {
			l.keyCol = tok.Column - 1
			return l.single(tok, token.DASH)
		}
		return l.readPlain(tok)
	case ':':
		if l.isBlankOrEnd(l.pos+1) || (l.flow > 0 && (isFlowIndicator(l.peek(1)) || l.prev.Type.IsQuoted())) {
			if l.flow == 0 && l.prev.Type.IsScalar() && l.prev.Line == tok.Line {
				l.keyCol = l.prev.Column - 1
			}
			return l.single(tok, token.COLON)
		}
		return l.readPlain(tok)
	case ',':
		if l.flow == 0 {
			return l.illegal(tok, "unexpected ',' outside of a flow collection")
		}
		return l.single(tok, token.COMMA)
	case '[', '{':
		l.flow++
		return l.single(tok, token.Type(ch))
	case ']', '}':
		if l.flow == 0 {
			return l.illegal(tok, fmt.Sprintf("unexpected '%c' outside of a flow collection", ch))
		}
		l.flow--
		return l.single(tok, token.Type(ch))
	case '"':
		return l.readDoubleQuoted(tok)
	case '\'':
		return l.readSingleQuoted(tok)
	case '|', '>':
		if l.flow > 0 {
			return l.illegal(tok, "block scalars are not allowed inside flow collections")
		}
		return l.readBlockScalar(tok)
	case '!':
		return l.readTag(tok)
	case '&', '*':
		return l.illegal(tok, "anchors and aliases are not supported")
	case '?':
		if l.isBlankOrEnd(l.pos + 1) {
			return l.illegal(tok, "complex mapping keys are not supported")
		}
		return l.readPlain(tok)
	case '@', '`', '%':
		return l.illegal(tok, fmt.Sprintf("reserved indicator '%c' cannot start a plain scalar", ch))
	default:
		return l.readPlain(tok)
	}
}

// lineStartToken recognizes the constructs that are only meaningful in the
// first column of a block context line.
func (l *Lexer) lineStartToken() (token.Token, bool) {
	tok := l.newToken()
	i := l.pos
	for i < len(l.input) && l.input[i] == ' ' {
		i++
	}
	if i < len(l.input) && l.input[i] == '\t' {
		j := i
		for j < len(l.input) && (l.input[j] == ' ' || l.input[j] == '\t') {
			j++
		}
		if j < len(l.input) && !strings.ContainsRune("\r\n#", rune(l.input[j])) {
			tok.Offset, tok.Column = i, i-l.lineStart+1
			l.pos = i
			return l.illegal(tok, "tab characters must not be used for indentation"), true
		}
	}

	rest := l.input[l.pos:]
	switch {
	case strings.HasPrefix(rest, "---") && l.isBlankOrEnd(l.pos+3):
		tok.Type, tok.Literal = token.DOCSTART, "---"
	case strings.HasPrefix(rest, "...") && l.isBlankOrEnd(l.pos+3):
		tok.Type, tok.Literal = token.DOCEND, "..."
	case strings.HasPrefix(rest, "%"):
		return l.illegal(tok, "directives are not supported"), true
	default:
		return tok, false
	}
	l.pos += 3
	tok.End = l.pos
	return tok, true
}

func (l *Lexer) newToken() token.Token {
	return token.Token{Offset: l.pos, Line: l.line, Column: l.pos - l.lineStart + 1}
}

func (l *Lexer) single(tok token.Token, typ token.Type) token.Token {
	tok.Type = typ
	tok.Literal = string(typ)
	l.pos++
	tok.End = l.pos
	return tok
}

func (l *Lexer) newline(tok token.Token, width int) token.Token {
	tok.Type = token.NEWLINE
	tok.Literal = l.input[l.pos : l.pos+width]
	l.pos += width
	tok.End = l.pos
	l.line++
	l.lineStart = l.pos
	l.keyCol = -1
	return tok
}

// illegal returns an ILLEGAL token carrying msg and skips the rest of the
// line so that a caller that keeps reading cannot loop.
func (l *Lexer) illegal(tok token.Token, msg string) token.Token {
	tok.Type = token.ILLEGAL
	tok.Literal = msg
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.pos++
	}
	tok.End = l.pos
	return tok
}

func (l *Lexer) peek(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) isBlankOrEnd(i int) bool {
	if i >= len(l.input) {
		return true
	}
	switch l.input[i] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
}

func (l *Lexer) lineEnd(i int) int {
	for i < len(l.input) && l.input[i] != '\n' && l.input[i] != '\r' {
		i++
	}
	return i
}

func (l *Lexer) readComment(tok token.Token) token.Token {
	end := l.lineEnd(l.pos)
	text := l.input[l.pos:end]
	if r, ok := firstForbidden(text); ok {
		return l.illegal(tok, fmt.Sprintf("forbidden control character U+%04X in comment", r))
	}
	tok.Type = token.COMMENT
	tok.Literal = text
	l.pos = end
	tok.End = end
	return tok
}

func (l *Lexer) readPlain(tok token.Token) token.Token {
	start, end := l.pos, l.pos
	for i := start; i < len(l.input); {
		c := l.input[i]
		if c == '\n' || c == '\r' {
			break
		}
		if c == ' ' || c == '\t' {
			if i+1 < len(l.input) && l.input[i+1] == '#' {
				break
			}
			i++
			continue
		}
		if c == ':' && (l.isBlankOrEnd(i+1) || (l.flow > 0 && isFlowIndicator(l.byteAt(i+1)))) {
			break
		}
		if l.flow > 0 && isFlowIndicator(c) {
			break
		}
		i++
		end = i
	}
	text := l.input[start:end]
	if l.flow == 0 {
		text, end = l.continuePlain(text, end)
	}
	if r, ok := firstForbidden(text); ok {
		return l.illegal(tok, fmt.Sprintf("forbidden control character U+%04X in plain scalar", r))
	}
	tok.Type = token.PLAIN
	tok.Literal = text
	l.advanceTo(end)
	tok.End = end
	return tok
}

// continuePlain extends a block plain scalar ending at end over the lines
// that continue it. A continuation line is indented more than the key or
// dash that owns the scalar (at least as much as the scalar's own line when
// it has no owner on that line) and holds nothing that could start a key,
// an entry or a comment. Line breaks fold as in a folded block scalar.
func (l *Lexer) continuePlain(text string, end int) (string, int) {
	minIndent := l.keyCol + 1
	if l.keyCol < 0 {
		minIndent = 0
		for l.lineStart+minIndent < len(l.input) && l.input[l.lineStart+minIndent] == ' ' {
			minIndent++
		}
	}

	folded := []byte(text)
	for {
		i := end
		for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
			i++
		}
		breaks, content := 0, i
		for {
			next := l.skipLineBreak(content)
			if next == content {
				break
			}
			breaks++
			content = next
			for content < len(l.input) && l.input[content] == ' ' {
				content++
			}
		}
		if breaks == 0 || content >= len(l.input) || content-l.lineStartOf(content) < minIndent {
			return string(folded), end
		}
		line := l.input[content:l.lineEnd(content)]
		final := false
		if k := commentStart(line); k >= 0 {
			line, final = line[:k], true
		}
		line = strings.TrimRight(line, " \t")
		if !isContinuation(line, content == l.lineStartOf(content)) {
			return string(folded), end
		}
		if breaks == 1 {
			folded = append(folded, ' ')
		} else {
			folded = append(folded, strings.Repeat("\n", breaks-1)...)
		}
		folded = append(folded, line...)
		end = content + len(line)
		if final {
			return string(folded), end
		}
	}
}

// commentStart returns the index of the comment in line, or -1.
func commentStart(line string) int {
	for i := 1; i < len(line); i++ {
		if line[i] == '#' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return i - 1
		}
	}
	return -1
}

// lineStartOf returns the offset of the start of the line holding i.
func (l *Lexer) lineStartOf(i int) int {
	return strings.LastIndexByte(l.input[:i], '\n') + 1
}

func isContinuation(line string, atColumnOne bool) bool {
	if line == "" || strings.ContainsRune("#-|>&*!%@`[]{},'\"\t?", rune(line[0])) && !plainDash(line) {
		return false
	}
	if atColumnOne && (strings.HasPrefix(line, "---") || strings.HasPrefix(line, "...")) {
		return false
	}
	return !strings.Contains(line, ": ") && !strings.Contains(line, ":\t") && !strings.HasSuffix(line, ":")
}

// plainDash reports whether line starts with a '-' that begins a plain
// scalar rather than a sequence entry.
func plainDash(line string) bool {
	return len(line) > 1 && line[0] == '-' && line[1] != ' ' && line[1] != '\t'
}

// advanceTo moves the lexer to end, keeping line bookkeeping for any line
// breaks crossed on the way.
func (l *Lexer) advanceTo(end int) {
	consumed := l.input[l.pos:end]
	if n := strings.Count(consumed, "\n"); n > 0 {
		l.line += n
		l.lineStart = l.pos + strings.LastIndexByte(consumed, '\n') + 1
	}
	l.pos = end
}

func (l *Lexer) byteAt(i int) byte {
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

func (l *Lexer) readSingleQuoted(tok token.Token) token.Token {
	var buf []byte
	keep := 0
	i := l.pos + 1
	for {
		if i >= len(l.input) {
			return l.illegal(tok, "unterminated single-quoted scalar")
		}
		c := l.input[i]
		if c == '\n' || c == '\r' {
			next, ok := l.foldQuoted(&buf, keep, i)
			if !ok {
				return l.illegal(tok, "unterminated single-quoted scalar")
			}
			i, keep = next, len(buf)
			continue
		}
		if c == '\'' {
			if l.byteAt(i+1) == '\'' {
				buf = append(buf, '\'')
				i += 2
				continue
			}
			i++
			break
		}
		if isForbiddenControlChar(rune(c)) && c != '\t' {
			return l.illegal(tok, fmt.Sprintf("forbidden control character U+%04X in quoted scalar", c))
		}
		buf = append(buf, c)
		i++
	}
	tok.Type = token.SINGLE
	tok.Literal = string(buf)
	l.advanceTo(i)
	tok.End = i
	return tok
}

func (l *Lexer) readDoubleQuoted(tok token.Token) token.Token {
	var buf []byte
	keep := 0
	i := l.pos + 1
	for {
		if i >= len(l.input) {
			return l.illegal(tok, "unterminated double-quoted scalar")
		}
		c := l.input[i]
		if c == '\n' || c == '\r' {
			next, ok := l.foldQuoted(&buf, keep, i)
			if !ok {
				return l.illegal(tok, "unterminated double-quoted scalar")
			}
			i, keep = next, len(buf)
			continue
		}
		if c == '"' {
			i++
			break
		}
		if c == '\\' {
			if b := l.byteAt(i + 1); b == '\n' || b == '\r' {
				// An escaped line break joins the lines without a space.
				next, ok := l.foldQuoted(&buf, len(buf), i+1)
				if !ok {
					return l.illegal(tok, "unterminated double-quoted scalar")
				}
				if n := len(buf); n > 0 && buf[n-1] == ' ' {
					buf = buf[:n-1]
				}
				i, keep = next, len(buf)
				continue
			}
			r, n, errMsg := l.readEscapeSequence(i)
			if errMsg != "" {
				return l.illegal(tok, errMsg)
			}
			buf = utf8.AppendRune(buf, r)
			keep = len(buf)
			i += n
			continue
		}
		if isForbiddenControlChar(rune(c)) && c != '\t' {
			return l.illegal(tok, fmt.Sprintf("forbidden control character U+%04X in quoted scalar", c))
		}
		buf = append(buf, c)
		i++
	}
	tok.Type = token.DOUBLE
	tok.Literal = string(buf)
	l.advanceTo(i)
	tok.End = i
	return tok
}

// foldQuoted folds the line break at i inside a quoted scalar. Trailing
// blanks written after keep are dropped, leading blanks of the following
// lines are skipped, and the breaks become a space when there is one and
// n-1 line feeds when there are n. It returns the offset of the next
// content byte and false when the input ends first.
func (l *Lexer) foldQuoted(buf *[]byte, keep, i int) (int, bool) {
	b := *buf
	for len(b) > keep && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	breaks := 0
	for {
		next := l.skipLineBreak(i)
		if next == i {
			if i < len(l.input) && l.input[i] == '\r' {
				return i, false
			}
			break
		}
		breaks++
		i = next
		for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
			i++
		}
	}
	if i >= len(l.input) {
		return i, false
	}
	if breaks == 1 {
		b = append(b, ' ')
	} else {
		b = append(b, strings.Repeat("\n", breaks-1)...)
	}
	*buf = b
	return i, true
}

// readEscapeSequence decodes the escape starting at the backslash at i and
// returns the rune and the number of bytes consumed.
func (l *Lexer) readEscapeSequence(i int) (rune, int, string) {
	if i+1 >= len(l.input) {
		return 0, 0, "unterminated escape sequence"
	}
	switch e := l.input[i+1]; e {
	case 'x', 'u', 'U':
		width := 2
		if e == 'u' {
			width = 4
		} else if e == 'U' {
			width = 8
		}
		if i+2+width > len(l.input) {
			return 0, 0, "invalid unicode escape"
		}
		val, ok := readHex(l.input[i+2 : i+2+width])
		if !ok {
			return 0, 0, "invalid unicode escape"
		}
		if val >= 0xD800 && val <= 0xDFFF {
			return 0, 0, "invalid unicode scalar value (surrogate pair)"
		}
		if !utf8.ValidRune(val) {
			return 0, 0, "invalid unicode escape"
		}
		return val, 2 + width, ""
	default:
		r, ok := unescape(e)
		if !ok {
			return 0, 0, fmt.Sprintf("invalid escape sequence \\%c", e)
		}
		return r, 2, ""
	}
}

func (l *Lexer) readTag(tok token.Token) token.Token {
	i := l.pos
	for i < len(l.input) && !l.isBlankOrEnd(i) && !(l.flow > 0 && isFlowIndicator(l.input[i])) {
		i++
	}
	tok.Type = token.TAG
	tok.Literal = l.input[l.pos:i]
	l.pos = i
	tok.End = i
	return tok
}

type chomping int

const (
	chompClip chomping = iota
	chompStrip
	chompKeep
)

// readBlockScalar consumes a literal (|) or folded (>) block scalar. The
// token ends after the last content line, excluding its line break, so
// trailing blank lines stay with whatever follows.
func (l *Lexer) readBlockScalar(tok token.Token) token.Token { //nolint:gocognit,funlen
	tok.Type = token.LITERAL
	if l.input[l.pos] == '>' {
		tok.Type = token.FOLDED
	}

	i := l.pos + 1
	chomp, explicit := chompClip, 0
indicators:
	for ; i < len(l.input); i++ {
		c := l.input[i]
		switch {
		case c == '-' && chomp == chompClip:
			chomp = chompStrip
		case c == '+' && chomp == chompClip:
			chomp = chompKeep
		case c >= '1' && c <= '9' && explicit == 0:
			explicit = int(c - '0')
		default:
			break indicators
		}
	}
	for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
		i++
	}
	if i < len(l.input) && l.input[i] == '#' {
		i = l.lineEnd(i)
	}
	if i < len(l.input) && l.input[i] != '\n' && l.input[i] != '\r' {
		l.pos = i
		return l.illegal(tok, "invalid block scalar header")
	}

	end := i
	indent := -1
	if explicit > 0 {
		indent = max(l.keyCol, 0) + explicit
	}
	var lines []string
	pendingBlank := 0
	for p := l.skipLineBreak(i); p < len(l.input) && p > i; {
		eol := l.lineEnd(p)
		sp := 0
		for p+sp < eol && l.input[p+sp] == ' ' {
			sp++
		}
		if p+sp == eol {
			pendingBlank++
			p = l.skipLineBreak(eol)
			continue
		}
		if indent < 0 {
			if sp <= l.keyCol {
				break
			}
			indent = sp
		}
		if sp < indent {
			break
		}
		for ; pendingBlank > 0; pendingBlank-- {
			lines = append(lines, "")
		}
		lines = append(lines, l.input[p+indent:eol])
		end = eol
		next := l.skipLineBreak(eol)
		if next == eol {
			break
		}
		p = next
	}

	var body string
	if tok.Type == token.LITERAL {
		body = strings.Join(lines, "\n")
	} else {
		body = fold(lines)
	}
	switch {
	case chomp == chompStrip:
	case chomp == chompKeep:
		if len(lines) > 0 {
			body += "\n"
		}
		body += strings.Repeat("\n", pendingBlank)
	case len(lines) > 0:
		body += "\n"
	}

	consumed := l.input[l.pos:end]
	if n := strings.Count(consumed, "\n"); n > 0 {
		l.line += n
		l.lineStart = l.pos + strings.LastIndexByte(consumed, '\n') + 1
	}
	tok.Literal = body
	l.pos = end
	tok.End = end
	return tok
}

// skipLineBreak returns the offset after the line break at i, or i if
// there is none.
func (l *Lexer) skipLineBreak(i int) int {
	if strings.HasPrefix(l.input[i:], "\r\n") {
		return i + 2
	}
	if i < len(l.input) && l.input[i] == '\n' {
		return i + 1
	}
	return i
}

// fold joins the lines of a folded block scalar: single line breaks
// between text lines become spaces, empty lines become line breaks, and
// more-indented lines keep their breaks.
func fold(lines []string) string {
	var b strings.Builder
	lastText := ""
	for i, ln := range lines {
		switch {
		case i == 0:
		case ln == "":
			b.WriteByte('\n')
		case lines[i-1] == "":
			if moreIndented(ln) || moreIndented(lastText) {
				b.WriteByte('\n')
			}
		case moreIndented(ln) || moreIndented(lines[i-1]):
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		b.WriteString(ln)
		if ln != "" {
			lastText = ln
		}
	}
	return b.String()
}

func moreIndented(s string) bool {
	return s != "" && (s[0] == ' ' || s[0] == '\t')
}

func readHex(s string) (rune, bool) {
	var val rune
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d rune
		switch {
		case '0' <= c && c <= '9':
			d = rune(c - '0')
		case 'a' <= c && c <= 'f':
			d = rune(c-'a') + 10
		case 'A' <= c && c <= 'F':
			d = rune(c-'A') + 10
		default:
			return 0, false
		}
		val = val*16 + d
	}
	return val, true
}

func firstForbidden(s string) (rune, bool) {
	for _, r := range s {
		if r != '\t' && isForbiddenControlChar(r) {
			return r, true
		}
	}
	return 0, false
}

func isForbiddenControlChar(ch rune) bool {
	return (ch >= 0x00 && ch <= 0x08) || (ch >= 0x0A && ch <= 0x1F) || ch == 0x7F
}

func isFlowIndicator(c byte) bool {
	switch c {
	case ',', '[', ']', '{', '}':
		return true
	}
	return false
}

func unescape(ch byte) (rune, bool) {
	switch ch {
	case '0':
		return 0, true
	case 'a':
		return '\a', true
	case 'b':
		return '\b', true
	case 't', '\t':
		return '\t', true
	case 'n':
		return '\n', true
	case 'v':
		return '\v', true
	case 'f':
		return '\f', true
	case 'r':
		return '\r', true
	case 'e':
		return 0x1B, true
	case ' ':
		return ' ', true
	case '"':
		return '"', true
	case '/':
		return '/', true
	case '\\':
		return '\\', true
	case 'N':
		return 0x85, true
	case '_':
		return 0xA0, true
	case 'L':
		return 0x2028, true
	case 'P':
		return 0x2029, true
	}
	return 0, false
}
