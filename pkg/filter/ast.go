package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	TextKind Kind = iota
	TimeKind
)

// Column is the SQL column a filter identifier stands for.
type Column struct {
	Name string
	Kind Kind
}

// Columns maps filter identifiers (lower case) to columns.
type Columns map[string]Column

func (c Columns) lookup(name string) (Column, bool) {
	col, ok := c[strings.ToLower(name)]
	return col, ok
}

// Expression is the abstract syntax tree of a filter. It satisfies
// squirrel.Sqlizer and can be passed to SelectBuilder.Where.
type Expression interface {
	String() string
	ToSql() (string, []any, error)
}

// logicalExpression is "a and b" or "a or b".
type logicalExpression struct {
	Left  Expression
	Op    Token
	Right Expression
}

func (e *logicalExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left.String(), e.Op.String(), e.Right.String())
}

func (e *logicalExpression) ToSql() (string, []any, error) {
	left, largs, err := e.Left.ToSql()
	if err != nil {
		return "", nil, err
	}
	right, rargs, err := e.Right.ToSql()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("(%s %s %s)", left, e.Op.Sql(), right), append(largs, rargs...), nil
}

// comparisonExpression is "field op value".
type comparisonExpression struct {
	Field  string
	Column Column
	Op     Token
	Value  literal
}

func (e *comparisonExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Field, e.Op.String(), e.Value.String())
}

func (e *comparisonExpression) ToSql() (string, []any, error) {
	col := strconv.Quote(e.Column.Name)
	switch e.Op {
	case like:
		return fmt.Sprintf("regexp_matches(%s, ?)", col), []any{e.Value.arg()}, nil
	case notLike:
		return fmt.Sprintf("NOT regexp_matches(%s, ?)", col), []any{e.Value.arg()}, nil
	default:
		return fmt.Sprintf("(%s %s ?)", col, e.Op.Sql()), []any{e.Value.arg()}, nil
	}
}

type literal interface {
	String() string
	arg() any
}

type stringLiteral struct {
	Value string
}

func (s stringLiteral) String() string { return strconv.Quote(s.Value) }
func (s stringLiteral) arg() any       { return s.Value }

type regexLiteral struct {
	Pattern string
}

func (r regexLiteral) String() string { return fmt.Sprintf("/%s/", r.Pattern) }
func (r regexLiteral) arg() any       { return r.Pattern }

type timeLiteral struct {
	Value time.Time
}

func (t timeLiteral) String() string { return t.Value.UTC().Format(time.RFC3339) }
func (t timeLiteral) arg() any       { return t.Value.UTC() }

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
