// Package parser provides the SQL front end for the feature query engine:
// a lexer and recursive-descent parser for the SELECT subset the engine
// executes.
package parser

import "fmt"

// TokenType identifies the lexical class of a token.
type TokenType int

// Token types.
const (
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL

	// Literals
	TOKEN_IDENT
	TOKEN_NUMBER
	TOKEN_STRING

	// Operators and punctuation
	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_STAR
	TOKEN_SLASH
	TOKEN_PERCENT
	TOKEN_EQ
	TOKEN_NE
	TOKEN_LT
	TOKEN_GT
	TOKEN_LE
	TOKEN_GE
	TOKEN_DOT
	TOKEN_COMMA
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_SEMICOLON

	// Keywords
	TOKEN_SELECT
	TOKEN_FROM
	TOKEN_WHERE
	TOKEN_GROUP
	TOKEN_BY
	TOKEN_LIMIT
	TOKEN_AS
	TOKEN_AND
	TOKEN_OR
	TOKEN_NOT
	TOKEN_TRUE
	TOKEN_FALSE
	TOKEN_NULL
)

var keywords = map[string]TokenType{
	"SELECT": TOKEN_SELECT,
	"FROM":   TOKEN_FROM,
	"WHERE":  TOKEN_WHERE,
	"GROUP":  TOKEN_GROUP,
	"BY":     TOKEN_BY,
	"LIMIT":  TOKEN_LIMIT,
	"AS":     TOKEN_AS,
	"AND":    TOKEN_AND,
	"OR":     TOKEN_OR,
	"NOT":    TOKEN_NOT,
	"TRUE":   TOKEN_TRUE,
	"FALSE":  TOKEN_FALSE,
	"NULL":   TOKEN_NULL,
}

// Position is a location in the SQL source text.
type Position struct {
	Line   int // 1-based
	Column int // 1-based
	Offset int // 0-based byte offset
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexical token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// LookupIdent resolves an identifier to a keyword token type, when it is one.
func LookupIdent(upper string) (TokenType, bool) {
	t, ok := keywords[upper]
	return t, ok
}
