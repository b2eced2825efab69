package filter

import (
	"fmt"
	"regexp"
	"slices"
)

// ParseError is the type of error returned by Parse.
type ParseError struct {
	// Source column position where the error occurred.
	Position int
	// Error message.
	Message string
}

// Error returns a formatted version of the error, including the position.
func (e ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Position, e.Message)
}

type parser struct {
	lexer   *lexer
	columns Columns
	pos     int    // position of last token (tok)
	tok     Token  // last lexed token
	val     string // string value of last token (or "")
}

// Parse parses src against columns. Errors are returned as ParseError.
// Recursive-descent methods panic with a ParseError which Parse recovers;
// any other panic is re-raised.
func Parse(src []byte, columns Columns) (expr Expression, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(ParseError); ok {
				expr = nil
				err = pe
			} else {
				panic(r)
			}
		}
	}()

	p := parser{lexer: newLexer(src), columns: columns}
	p.next()

	expr = p.expression()
	p.expect(eol)

	return expr, err
}

// expression parses a logic expression.
//
// term ( "or" term )*
func (p *parser) expression() Expression {
	expr := p.term()

	for p.matches(or) {
		op := p.tok
		p.next()
		right := p.term()
		expr = &logicalExpression{Left: expr, Op: op, Right: right}
	}

	return expr
}

// term parses an AND expression.
//
// factor ( "and" factor )*
func (p *parser) term() Expression {
	expr := p.factor()

	for p.matches(and) {
		op := p.tok
		p.next()
		right := p.factor()
		expr = &logicalExpression{Left: expr, Op: op, Right: right}
	}

	return expr
}

// factor parses a single comparison or grouped expression.
//
// equality | "(" expression ")"
func (p *parser) factor() Expression {
	if p.matches(lbracket) {
		p.next()
		expr := p.expression()
		p.expect(rbracket)
		p.next()
		return expr
	}

	return p.equality()
}

// equality parses a comparison expression.
//
// IDENTIFIER ( "=" | "!=" | "<" | "<=" | ">" | ">=" ) value
// IDENTIFIER ( "~" | "!~" ) REGEX_LITERAL
func (p *parser) equality() Expression {
	p.expect(identifier)
	field := p.val
	col, ok := p.columns.lookup(field)
	if !ok {
		panic(p.errorf("unknown field %q", field))
	}
	p.next()

	op := p.tok
	if !op.comparison() && !op.matching() {
		panic(p.errorf("expected operator instead of %s", op))
	}
	p.next()

	var value literal
	if op.matching() {
		value = p.regex(field, col)
	} else {
		value = p.value(field, col)
	}

	return &comparisonExpression{Field: field, Column: col, Op: op, Value: value}
}

func (p *parser) regex(field string, col Column) literal {
	if p.tok != regexLit {
		panic(p.errorf("expected regex instead of %s", p.tok))
	}
	if col.Kind != TextKind {
		panic(p.errorf("field %q does not support regex matching", field))
	}
	if _, err := regexp.Compile(p.val); err != nil {
		panic(p.errorf("invalid regex: %s", err))
	}

	lit := regexLiteral{Pattern: p.val}
	p.next()
	return lit
}

// value parses a string or number compared against col.
func (p *parser) value(field string, col Column) literal {
	if p.tok != stringLit && p.tok != number {
		panic(p.errorf("expected value instead of %s", p.tok))
	}

	var lit literal
	switch col.Kind {
	case TimeKind:
		t, ok := parseTime(p.val)
		if !ok {
			panic(p.errorf("field %q expects a date or RFC 3339 time, got %q", field, p.val))
		}
		lit = timeLiteral{Value: t}
	default:
		lit = stringLiteral{Value: p.val}
	}

	p.next()
	return lit
}

// next parses the next token into p.tok.
func (p *parser) next() {
	p.pos, p.tok, p.val = p.lexer.Scan()
	if p.tok == illegal {
		panic(p.errorf("%s", p.val))
	}
}

// matches returns true if current token matches one of the given tokens.
func (p *parser) matches(tokens ...Token) bool {
	return slices.Contains(tokens, p.tok)
}

// expect panics if current token is not the expected token.
func (p *parser) expect(tok Token) {
	if p.tok != tok {
		panic(p.errorf("expected %s instead of %s", tok, p.tok))
	}
}

// errorf formats an error with the current position.
func (p *parser) errorf(format string, args ...any) error {
	message := fmt.Sprintf(format, args...)
	return ParseError{p.pos, message}
}
