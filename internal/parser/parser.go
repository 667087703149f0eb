package parser

import (
	"fmt"

	"github.com/KimNorgaard/go-ryaml/internal/ast"
	"github.com/KimNorgaard/go-ryaml/internal/lexer"
	"github.com/KimNorgaard/go-ryaml/internal/token"
)

// maxNesting bounds the depth of nested collections.
const maxNesting = 1000

// Error is the first problem found while parsing. Duplicate is set when the
// problem is a repeated mapping key; Key and FirstLine then describe it.
type Error struct {
	Line    int
	Column  int
	Message string

	Duplicate bool
	Key       string
	FirstLine int
}

func (e *Error) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("%d:%d: duplicate key %q (first defined on line %d)", e.Line, e.Column, e.Key, e.FirstLine)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Parser holds the state of the parser.
//
// Besides building the tree the parser records, for every mapping entry and
// sequence item, the exact byte range it occupies. Ranges of siblings are
// contiguous: mark is the end of the last completed entry and every new
// entry starts there, so comments and blank lines preceding an entry belong
// to it.
type Parser struct {
	l    *lexer.Lexer
	tree *ast.Tree

	curToken  token.Token
	peekToken token.Token

	mark  int
	depth int
}

// New creates a new parser over decoded source text.
func New(src string) *Parser {
	p := &Parser{
		l:    lexer.New(src),
		tree: ast.New(src),
	}

	// Read two tokens, so curToken and peekToken are both set.
	p.nextToken()
	p.nextToken()

	return p
}

// Parse parses src into a tree.
func Parse(src string) (*ast.Tree, error) {
	return New(src).Parse()
}

// Parse parses the document and returns its tree. Parsing stops at the
// first error.
func (p *Parser) Parse() (*ast.Tree, error) {
	p.skipTrivia()
	if p.curTokenIs(token.DOCSTART) {
		p.nextToken()
		if _, err := p.endLine(); err != nil {
			return nil, err
		}
		p.skipTrivia()
	}

	var root ast.NodeID
	if p.curTokenIs(token.EOF) || p.curTokenIs(token.DOCEND) || p.curTokenIs(token.DOCSTART) {
		at := p.curToken.Offset
		root = p.tree.Add(ast.Node{Kind: ast.Mapping, Style: ast.Block, Parent: ast.None, Span: ast.Span{Start: at, End: at}})
	} else {
		p.mark = p.curToken.Offset - (p.curToken.Column - 1)
		var err error
		if root, err = p.parseRoot(); err != nil {
			return nil, err
		}
	}

	p.skipTrivia()
	if p.curTokenIs(token.DOCEND) {
		p.nextToken()
		if _, err := p.endLine(); err != nil {
			return nil, err
		}
		p.skipTrivia()
	}
	if p.curTokenIs(token.DOCSTART) {
		return nil, p.errorAt(p.curToken, "multiple documents are not supported")
	}
	if !p.curTokenIs(token.EOF) {
		return nil, p.unexpected(p.curToken)
	}

	span := p.tree.Node(root).Span
	p.tree.Root = root
	p.tree.Head = ast.Span{Start: 0, End: span.Start}
	p.tree.Tail = ast.Span{Start: span.End, End: len(p.tree.Src)}
	return p.tree, nil
}

func (p *Parser) parseRoot() (ast.NodeID, error) {
	indent := p.curToken.Column - 1
	switch {
	case p.curTokenIs(token.DASH):
		return p.parseBlockSequence(indent, false, ast.None)
	case p.isKey():
		return p.parseBlockMapping(indent, false, ast.None)
	}
	id, err := p.parseInline(ast.None)
	if err != nil {
		return ast.None, err
	}
	if _, err := p.endLine(); err != nil {
		return ast.None, err
	}
	return id, nil
}

// parseBlockMapping is entered with curToken on the first key, at column
// indent+1, and returns with curToken on the first token that does not
// belong to the mapping.
func (p *Parser) parseBlockMapping(indent int, compact bool, parent ast.NodeID) (ast.NodeID, error) {
	if err := p.enter(); err != nil {
		return ast.None, err
	}
	defer p.leave()

	id := p.tree.Add(ast.Node{
		Kind:    ast.Mapping,
		Style:   ast.Block,
		Indent:  indent,
		Compact: compact,
		Parent:  parent,
		Span:    ast.Span{Start: p.mark},
	})

	var entries []ast.Entry
	seen := make(map[string]int)
	for {
		if !p.isKey() {
			if p.curTokenIs(token.DASH) {
				return ast.None, p.errorAt(p.curToken, "block sequence entries are not allowed here")
			}
			if p.curToken.Type.IsScalar() && !p.peekTokenIs(token.COLON) {
				return ast.None, p.errorAt(p.peekToken, "could not find expected ':'")
			}
			return ast.None, p.unexpected(p.curToken)
		}
		entry, err := p.parseEntry(id, indent, seen)
		if err != nil {
			return ast.None, err
		}
		entries = append(entries, entry)

		p.skipTrivia()
		if p.atDocumentBoundary() {
			break
		}
		col := p.curToken.Column - 1
		if col < indent {
			break
		}
		if col > indent {
			return ast.None, p.badIndentation("mapping")
		}
	}

	n := p.tree.Node(id)
	n.Entries = entries
	n.Span.End = p.mark
	return id, nil
}

func (p *Parser) parseEntry(mapping ast.NodeID, indent int, seen map[string]int) (ast.Entry, error) {
	keyTok := p.curToken
	if first, ok := seen[keyTok.Literal]; ok {
		return ast.Entry{}, &Error{
			Line:      keyTok.Line,
			Column:    keyTok.Column,
			Duplicate: true,
			Key:       keyTok.Literal,
			FirstLine: first,
		}
	}
	seen[keyTok.Literal] = keyTok.Line

	start := p.mark
	p.nextToken() // Consume key
	colonEnd := p.curToken.End
	p.nextToken() // Consume ':'

	value, suffix, err := p.parseValue(indent, true, mapping, colonEnd)
	if err != nil {
		return ast.Entry{}, err
	}
	return ast.Entry{
		Key:      keyTok.Literal,
		Value:    value,
		Orig:     value,
		Span:     ast.Span{Start: start, End: p.mark},
		KeyLine:  keyTok.Line,
		ColonEnd: colonEnd,
		Suffix:   suffix,
	}, nil
}

// parseBlockSequence is entered with curToken on the first '-' indicator.
func (p *Parser) parseBlockSequence(indent int, compact bool, parent ast.NodeID) (ast.NodeID, error) {
	if err := p.enter(); err != nil {
		return ast.None, err
	}
	defer p.leave()

	id := p.tree.Add(ast.Node{
		Kind:    ast.Sequence,
		Style:   ast.Block,
		Indent:  indent,
		Compact: compact,
		Parent:  parent,
		Span:    ast.Span{Start: p.mark},
	})

	var items []ast.Item
	for {
		start := p.mark
		dashEnd := p.curToken.End
		p.nextToken() // Consume '-'

		value, suffix, err := p.parseValue(indent, false, id, dashEnd)
		if err != nil {
			return ast.None, err
		}
		items = append(items, ast.Item{
			Value:   value,
			Orig:    value,
			Span:    ast.Span{Start: start, End: p.mark},
			DashEnd: dashEnd,
			Suffix:  suffix,
		})

		p.skipTrivia()
		if p.atDocumentBoundary() {
			break
		}
		col := p.curToken.Column - 1
		if col < indent {
			break
		}
		if col > indent {
			return ast.None, p.badIndentation("sequence")
		}
		if !p.curTokenIs(token.DASH) {
			// A sequence nested in a mapping may share the mapping's
			// indentation; the next key ends it.
			if parent != ast.None && p.tree.Node(parent).Kind == ast.Mapping && p.isKey() {
				break
			}
			return ast.None, p.errorAt(p.curToken, "did not find expected '-' indicator")
		}
	}

	n := p.tree.Node(id)
	n.Items = items
	n.Span.End = p.mark
	return id, nil
}

// parseValue parses the value following a ':' or '-' indicator that ends
// at indEnd. It returns the value and the span of the line comment region
// of the indicator's line.
func (p *Parser) parseValue(indent int, inMapping bool, parent ast.NodeID, indEnd int) (ast.NodeID, ast.Span, error) {
	none := ast.Span{Start: indEnd, End: indEnd}

	switch {
	case p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.COMMENT) || p.curTokenIs(token.EOF):
		lineEnd, err := p.endLine()
		if err != nil {
			return ast.None, none, err
		}
		suffix := ast.Span{Start: indEnd, End: lineEnd}
		id, err := p.parseIndentedValue(indent, inMapping, parent, indEnd)
		return id, suffix, err

	case p.curTokenIs(token.DASH):
		if inMapping {
			return ast.None, none, p.errorAt(p.curToken, "block sequence entries are not allowed here")
		}
		p.mark = p.curToken.Offset
		id, err := p.parseBlockSequence(p.curToken.Column-1, true, parent)
		return id, none, err

	case p.isKey():
		if inMapping {
			return ast.None, none, p.errorAt(p.peekToken, "mapping values are not allowed here")
		}
		p.mark = p.curToken.Offset
		id, err := p.parseBlockMapping(p.curToken.Column-1, true, parent)
		return id, none, err
	}

	id, err := p.parseInline(parent)
	if err != nil {
		return ast.None, none, err
	}
	lineEnd, err := p.endLine()
	if err != nil {
		return ast.None, none, err
	}
	end := p.tree.Node(id).Span.End
	return id, ast.Span{Start: end, End: lineEnd}, nil
}

// parseIndentedValue parses a value that starts on a line after its
// indicator. When no such value exists the value is an empty null.
func (p *Parser) parseIndentedValue(indent int, inMapping bool, parent ast.NodeID, indEnd int) (ast.NodeID, error) {
	p.skipTrivia()
	col := p.curToken.Column - 1
	switch {
	case p.atDocumentBoundary():
	case p.curTokenIs(token.DASH) && (col > indent || (col == indent && inMapping)):
		return p.parseBlockSequence(col, false, parent)
	case col > indent && p.isKey():
		return p.parseBlockMapping(col, false, parent)
	case col > indent && p.startsInline():
		id, err := p.parseInline(parent)
		if err != nil {
			return ast.None, err
		}
		_, err = p.endLine()
		return id, err
	}
	return p.tree.Add(ast.Node{
		Kind:   ast.Null,
		Style:  ast.Plain,
		Parent: parent,
		Span:   ast.Span{Start: indEnd, End: indEnd},
	}), nil
}

// parseInline parses a scalar or a flow collection, optionally preceded by
// a tag.
func (p *Parser) parseInline(parent ast.NodeID) (ast.NodeID, error) {
	var tag token.Token
	if p.curTokenIs(token.TAG) {
		tag = p.curToken
		p.nextToken()
	}

	var (
		id  ast.NodeID
		err error
	)
	switch {
	case p.curTokenIs(token.LBRACK):
		id, err = p.parseFlowSequence(parent)
	case p.curTokenIs(token.LBRACE):
		id, err = p.parseFlowMapping(parent)
	case p.curToken.Type.IsScalar():
		return p.parseScalar(tag, parent)
	default:
		return ast.None, p.unexpected(p.curToken)
	}
	if err != nil {
		return ast.None, err
	}
	if tag.Type == token.TAG {
		n := p.tree.Node(id)
		want := "!!seq"
		if n.Kind == ast.Mapping {
			want = "!!map"
		}
		if tag.Literal != want {
			return ast.None, p.errorAt(tag, fmt.Sprintf("unsupported tag %s on %s", tag.Literal, n.Kind))
		}
		n.Tag = tag.Literal
		n.Span.Start = tag.Offset
	}
	return id, nil
}

func (p *Parser) parseScalar(tag token.Token, parent ast.NodeID) (ast.NodeID, error) {
	tok := p.curToken
	kind, value, err := resolveToken(tok, tag.Literal)
	if err != nil {
		at := tok
		if tag.Type == token.TAG {
			at = tag
		}
		return ast.None, p.errorAt(at, err.Error())
	}

	start := tok.Offset
	if tag.Type == token.TAG {
		start = tag.Offset
	}
	p.nextToken()
	return p.tree.Add(ast.Node{
		Kind:   kind,
		Style:  scalarStyle(tok.Type),
		Tag:    tag.Literal,
		Value:  value,
		Parent: parent,
		Span:   ast.Span{Start: start, End: tok.End},
	}), nil
}

func scalarStyle(t token.Type) ast.Style {
	switch t {
	case token.SINGLE:
		return ast.SingleQuoted
	case token.DOUBLE:
		return ast.DoubleQuoted
	case token.LITERAL:
		return ast.Literal
	case token.FOLDED:
		return ast.Folded
	}
	return ast.Plain
}

func (p *Parser) parseFlowSequence(parent ast.NodeID) (ast.NodeID, error) {
	if err := p.enter(); err != nil {
		return ast.None, err
	}
	defer p.leave()

	id := p.tree.Add(ast.Node{Kind: ast.Sequence, Style: ast.Flow, Parent: parent, Span: ast.Span{Start: p.curToken.Offset}})
	p.nextToken() // Consume '['

	var items []ast.Item
	for {
		p.skipTrivia()
		if p.curTokenIs(token.RBRACK) {
			break
		}
		value, err := p.parseInline(id)
		if err != nil {
			return ast.None, err
		}
		span := p.tree.Node(value).Span
		items = append(items, ast.Item{Value: value, Orig: value, Span: span, DashEnd: span.Start, Suffix: ast.Span{Start: span.End, End: span.End}})

		p.skipTrivia()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(token.RBRACK) {
			return ast.None, p.unexpectedIn(p.curToken, "flow sequence")
		}
	}

	n := p.tree.Node(id)
	n.Items = items
	n.Span.End = p.curToken.End
	p.nextToken() // Consume ']'
	return id, nil
}

func (p *Parser) parseFlowMapping(parent ast.NodeID) (ast.NodeID, error) {
	if err := p.enter(); err != nil {
		return ast.None, err
	}
	defer p.leave()

	id := p.tree.Add(ast.Node{Kind: ast.Mapping, Style: ast.Flow, Parent: parent, Span: ast.Span{Start: p.curToken.Offset}})
	p.nextToken() // Consume '{'

	var entries []ast.Entry
	seen := make(map[string]int)
	for {
		p.skipTrivia()
		if p.curTokenIs(token.RBRACE) {
			break
		}
		keyTok := p.curToken
		if !keyTok.Type.IsScalar() {
			return ast.None, p.unexpectedIn(keyTok, "flow mapping")
		}
		if first, ok := seen[keyTok.Literal]; ok {
			return ast.None, &Error{Line: keyTok.Line, Column: keyTok.Column, Duplicate: true, Key: keyTok.Literal, FirstLine: first}
		}
		seen[keyTok.Literal] = keyTok.Line
		p.nextToken() // Consume key
		p.skipTrivia()

		colonEnd := keyTok.End
		var value ast.NodeID
		if p.curTokenIs(token.COLON) {
			colonEnd = p.curToken.End
			p.nextToken() // Consume ':'
			p.skipTrivia()
		}
		if colonEnd != keyTok.End && !p.curTokenIs(token.COMMA) && !p.curTokenIs(token.RBRACE) {
			v, err := p.parseInline(id)
			if err != nil {
				return ast.None, err
			}
			value = v
		} else {
			value = p.tree.Add(ast.Node{Kind: ast.Null, Style: ast.Plain, Parent: id, Span: ast.Span{Start: colonEnd, End: colonEnd}})
		}
		end := p.tree.Node(value).Span.End
		entries = append(entries, ast.Entry{
			Key:      keyTok.Literal,
			Value:    value,
			Orig:     value,
			Span:     ast.Span{Start: keyTok.Offset, End: end},
			KeyLine:  keyTok.Line,
			ColonEnd: colonEnd,
			Suffix:   ast.Span{Start: end, End: end},
		})

		p.skipTrivia()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(token.RBRACE) {
			return ast.None, p.unexpectedIn(p.curToken, "flow mapping")
		}
	}

	n := p.tree.Node(id)
	n.Entries = entries
	n.Span.End = p.curToken.End
	p.nextToken() // Consume '}'
	return id, nil
}

// endLine consumes an optional comment and the line break that ends the
// current line. It returns the offset of the line break.
func (p *Parser) endLine() (int, error) {
	if p.curTokenIs(token.COMMENT) {
		p.nextToken()
	}
	switch p.curToken.Type {
	case token.NEWLINE:
		lineEnd := p.curToken.Offset
		p.mark = p.curToken.End
		p.nextToken()
		return lineEnd, nil
	case token.EOF:
		p.mark = p.curToken.Offset
		return p.curToken.Offset, nil
	case token.COLON:
		return 0, p.errorAt(p.curToken, "mapping values are not allowed here")
	}
	return 0, p.unexpected(p.curToken)
}

// skipTrivia skips blank lines and comments. The skipped text is not
// claimed by any entry until the next one starts.
func (p *Parser) skipTrivia() {
	for p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.COMMENT) {
		p.nextToken()
	}
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > maxNesting {
		return p.errorAt(p.curToken, "maximum nesting depth exceeded")
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// isKey reports whether curToken starts a block mapping entry.
func (p *Parser) isKey() bool {
	switch p.curToken.Type {
	case token.PLAIN, token.SINGLE, token.DOUBLE:
		return p.peekTokenIs(token.COLON)
	}
	return false
}

func (p *Parser) startsInline() bool {
	switch p.curToken.Type {
	case token.TAG, token.LBRACK, token.LBRACE:
		return true
	}
	return p.curToken.Type.IsScalar()
}

func (p *Parser) atDocumentBoundary() bool {
	switch p.curToken.Type {
	case token.EOF, token.DOCSTART, token.DOCEND:
		return true
	}
	return false
}

func (p *Parser) badIndentation(what string) error {
	if p.curTokenIs(token.PLAIN) && !p.peekTokenIs(token.COLON) {
		return p.errorAt(p.curToken, "bad indentation of a multi-line plain scalar")
	}
	return p.errorAt(p.curToken, fmt.Sprintf("bad indentation of a %s entry", what))
}

func (p *Parser) errorAt(tok token.Token, msg string) error {
	if tok.Type == token.ILLEGAL {
		msg = tok.Literal
	}
	return &Error{Line: tok.Line, Column: tok.Column, Message: msg}
}

func (p *Parser) unexpected(tok token.Token) error {
	return p.errorAt(tok, "unexpected "+tok.Describe())
}

func (p *Parser) unexpectedIn(tok token.Token, where string) error {
	return p.errorAt(tok, fmt.Sprintf("unexpected %s in %s", tok.Describe(), where))
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}
