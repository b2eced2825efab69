package filter

// Token is the kind of a lexed token.
type Token int

const (
	illegal Token = iota
	eol
	and
	or
	equal
	gte
	greater
	lte
	less
	notEqual
	like
	notLike
	lbracket
	rbracket
	stringLit
	regexLit
	number
	identifier
)

var tokenNames = [...]string{
	illegal:    "illegal",
	eol:        "eol",
	and:        "and",
	or:         "or",
	equal:      "equal",
	gte:        "gte",
	greater:    "greater",
	lte:        "lte",
	less:       "less",
	notEqual:   "notEqual",
	like:       "like",
	notLike:    "notLike",
	lbracket:   "lbracket",
	rbracket:   "rbracket",
	stringLit:  "stringLit",
	regexLit:   "regexLit",
	number:     "number",
	identifier: "identifier",
}

func (t Token) String() string {
	if t < 0 || int(t) >= len(tokenNames) {
		return "unknown"
	}
	return tokenNames[t]
}

// comparison reports whether t compares a column against a value.
func (t Token) comparison() bool {
	switch t {
	case equal, notEqual, greater, gte, less, lte:
		return true
	}
	return false
}

// matching reports whether t compares a column against a regex.
func (t Token) matching() bool {
	return t == like || t == notLike
}

// Sql is the SQL operator of a logical or comparison token. Regex tokens
// render as regexp_matches calls instead.
func (t Token) Sql() string {
	switch t {
	case and:
		return "AND"
	case or:
		return "OR"
	case equal:
		return "="
	case notEqual:
		return "!="
	case gte:
		return ">="
	case greater:
		return ">"
	case lte:
		return "<="
	case less:
		return "<"
	}
	return ""
}
