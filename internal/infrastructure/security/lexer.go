package security

import "strings"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokParam
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

func (t token) is(keyword string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, keyword)
}

func (t token) punct(p string) bool {
	return t.kind == tokPunct && t.text == p
}

// lexer splits SQL into identifiers, literals and punctuation. Comments and
// whitespace are dropped; string literal contents are never inspected.
type lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *lexer) next() token {
	l.skipWhitespaceAndComments()

	switch {
	case l.ch == 0:
		return token{kind: tokEOF}
	case l.ch == '\'':
		return token{kind: tokString, text: l.readQuoted('\'')}
	case l.ch == '"' || l.ch == '`':
		// Quoted identifiers keep their inner text.
		return token{kind: tokIdent, text: l.readQuoted(l.ch)}
	case l.ch == '[':
		return token{kind: tokIdent, text: l.readQuoted(']')}
	case l.ch == ':' || l.ch == '@' || l.ch == '$' || l.ch == '?':
		start := l.pos
		l.readChar()
		for isIdentChar(l.ch) {
			l.readChar()
		}
		return token{kind: tokParam, text: l.input[start:l.pos]}
	case isIdentStart(l.ch):
		start := l.pos
		for isIdentChar(l.ch) {
			l.readChar()
		}
		return token{kind: tokIdent, text: l.input[start:l.pos]}
	case isDigit(l.ch):
		start := l.pos
		for isIdentChar(l.ch) || l.ch == '.' {
			l.readChar()
		}
		return token{kind: tokNumber, text: l.input[start:l.pos]}
	default:
		tok := token{kind: tokPunct, text: string(l.ch)}
		l.readChar()
		return tok
	}
}

// readQuoted consumes a quoted run starting at the opening quote. A doubled closing
// quote is an escape. Unterminated input runs to the end.
func (l *lexer) readQuoted(closing byte) string {
	l.readChar()
	var b strings.Builder
	for l.ch != 0 {
		if l.ch == closing {
			if l.peekChar() == closing && closing != ']' {
				b.WriteByte(closing)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			break
		}
		b.WriteByte(l.ch)
		l.readChar()
	}
	return b.String()
}

func (l *lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
		default:
			return
		}
	}
}

func tokenize(input string) []token {
	l := newLexer(input)
	var tokens []token
	for {
		tok := l.next()
		if tok.kind == tokEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
