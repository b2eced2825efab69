// Package filter parses the query language of the run journal into squirrel
// predicates.
//
// Grammar
//
//	expression  : term ( "or" term )* ;
//	term        : factor ( "and" factor )* ;
//
//	factor      : equality
//	            | "(" expression ")" ;
//
//	equality    : IDENTIFIER ( "=" | "!=" | "<" | "<=" | ">" | ">=" ) value
//	            | IDENTIFIER ( "~" | "!~" ) REGEX_LITERAL ;
//
//	value       : STRING | NUMBER ;
//
//	IDENTIFIER    : [a-zA-Z_][a-zA-Z0-9_.]* ;
//	REGEX_LITERAL : '/' ( '\\/' | . )*? '/' ;
//	STRING        : "'" ( "\\'" | "\\\\" | . )+? "'"
//	              | "\"" ( "\\\"" | "\\\\" | . )+? "\"" ;
//	NUMBER        : [0-9]+(\.[0-9]+)? ;
//
// Identifiers are resolved against the Columns given to Parse; an unknown
// identifier is a parse error. Time columns take RFC 3339 timestamps or
// dates as strings and reject regex matching. Every value reaches SQL as a
// bound argument.
//
// Example against the run journal:
//
//	status = 'Error' and (testsuite ~ /^smoke/ or started_at >= '2018-10-18')
package filter
