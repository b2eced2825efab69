package filter

import "strings"

// lexer splits a filter into tokens. Positions are byte offsets into src.
type lexer struct {
	src []byte
	off int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src}
}

// Scan returns the position, kind and value of the next token. Identifiers,
// numbers, strings and regexes carry a value; illegal tokens carry the reason.
func (l *lexer) Scan() (int, Token, string) {
	l.skipSpace()

	pos := l.off
	if l.atEnd() {
		return pos, eol, ""
	}

	switch ch := l.peek(); {
	case isIdentifierStart(ch):
		return l.scanIdentifier(pos)
	case isDigit(ch):
		return l.scanNumber(pos)
	case ch == '"' || ch == '\'':
		return l.scanString(pos)
	case ch == '/':
		return l.scanRegex(pos)
	default:
		return l.scanOperator(pos)
	}
}

func (l *lexer) scanIdentifier(pos int) (int, Token, string) {
	for isIdentifierPart(l.peek()) {
		l.advance()
	}

	name := string(l.src[pos:l.off])
	switch strings.ToLower(name) {
	case "and":
		return pos, and, ""
	case "or":
		return pos, or, ""
	}
	return pos, identifier, name
}

func (l *lexer) scanNumber(pos int) (int, Token, string) {
	dot := false
	for isDigit(l.peek()) || l.peek() == '.' {
		if l.advance() == '.' {
			if dot {
				return pos, illegal, "malformed number"
			}
			dot = true
		}
	}

	val := string(l.src[pos:l.off])
	if strings.HasSuffix(val, ".") {
		return pos, illegal, "malformed number"
	}
	return pos, number, val
}

// scanString reads a quoted string. A backslash escapes the quote or another
// backslash.
func (l *lexer) scanString(pos int) (int, Token, string) {
	quote := l.advance()

	var sb strings.Builder
	for {
		if l.atEnd() {
			return pos, illegal, "unclosed string"
		}
		ch := l.advance()
		if ch == quote {
			break
		}
		if ch == '\\' && (l.peek() == quote || l.peek() == '\\') {
			ch = l.advance()
		}
		sb.WriteByte(ch)
	}

	if sb.Len() == 0 {
		return pos, illegal, "empty string"
	}
	return pos, stringLit, sb.String()
}

// scanRegex reads /pattern/. Only \/ is unescaped, everything else is passed
// to the regex engine as written.
func (l *lexer) scanRegex(pos int) (int, Token, string) {
	l.advance()

	var sb strings.Builder
	for {
		if l.atEnd() {
			return pos, illegal, "unclosed regex"
		}
		ch := l.advance()
		if ch == '/' {
			break
		}
		if ch == '\\' && l.peek() == '/' {
			ch = l.advance()
		}
		sb.WriteByte(ch)
	}

	return pos, regexLit, sb.String()
}

func (l *lexer) scanOperator(pos int) (int, Token, string) {
	switch l.advance() {
	case '(':
		return pos, lbracket, ""
	case ')':
		return pos, rbracket, ""
	case '=':
		return pos, equal, ""
	case '~':
		return pos, like, ""
	case '!':
		switch {
		case l.accept('='):
			return pos, notEqual, ""
		case l.accept('~'):
			return pos, notLike, ""
		}
		return pos, illegal, "expected = or ~ after !"
	case '<':
		if l.accept('=') {
			return pos, lte, ""
		}
		return pos, less, ""
	case '>':
		if l.accept('=') {
			return pos, gte, ""
		}
		return pos, greater, ""
	}
	return pos, illegal, "unexpected char"
}

func (l *lexer) skipSpace() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\n', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *lexer) atEnd() bool {
	return l.off >= len(l.src)
}

// peek returns the next byte without consuming it, or 0 at the end.
func (l *lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.off]
}

func (l *lexer) advance() byte {
	ch := l.peek()
	if !l.atEnd() {
		l.off++
	}
	return ch
}

// accept consumes the next byte if it is ch.
func (l *lexer) accept(ch byte) bool {
	if l.atEnd() || l.src[l.off] != ch {
		return false
	}
	l.off++
	return true
}

func isIdentifierStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentifierPart(ch byte) bool {
	return isIdentifierStart(ch) || isDigit(ch) || ch == '.'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
