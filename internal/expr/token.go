package expr

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

//nolint:revive // TOKEN_* names follow the lexer convention used across the repo
const (
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL

	TOKEN_IDENT  // mass, thrust.engine
	TOKEN_NUMBER // 12, 4.5, 1e-3
	TOKEN_STRING // 'fast' or "fast"

	TOKEN_PLUS       // +
	TOKEN_MINUS      // -
	TOKEN_MINUSMINUS // --
	TOKEN_STAR       // *
	TOKEN_SLASH      // /
	TOKEN_SLASHSLASH // //
	TOKEN_POW        // ** or ^
	TOKEN_LT         // <
	TOKEN_GT         // >
	TOKEN_LE         // <=
	TOKEN_GE         // >=
	TOKEN_EQ         // ==
	TOKEN_NE         // !=
	TOKEN_AMP        // &
	TOKEN_PIPE       // |
	TOKEN_BANG       // !
	TOKEN_COMMA      // ,
	TOKEN_LPAREN     // (
	TOKEN_RPAREN     // )

	// Keywords
	TOKEN_AND
	TOKEN_OR
	TOKEN_NOT
	TOKEN_IF
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:        "EOF",
	TOKEN_ILLEGAL:    "ILLEGAL",
	TOKEN_IDENT:      "IDENT",
	TOKEN_NUMBER:     "NUMBER",
	TOKEN_STRING:     "STRING",
	TOKEN_PLUS:       "+",
	TOKEN_MINUS:      "-",
	TOKEN_MINUSMINUS: "--",
	TOKEN_STAR:       "*",
	TOKEN_SLASH:      "/",
	TOKEN_SLASHSLASH: "//",
	TOKEN_POW:        "**",
	TOKEN_LT:         "<",
	TOKEN_GT:         ">",
	TOKEN_LE:         "<=",
	TOKEN_GE:         ">=",
	TOKEN_EQ:         "==",
	TOKEN_NE:         "!=",
	TOKEN_AMP:        "&",
	TOKEN_PIPE:       "|",
	TOKEN_BANG:       "!",
	TOKEN_COMMA:      ",",
	TOKEN_LPAREN:     "(",
	TOKEN_RPAREN:     ")",
	TOKEN_AND:        "and",
	TOKEN_OR:         "or",
	TOKEN_NOT:        "not",
	TOKEN_IF:         "if",
}

// String returns the operator spelling or token class name.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var keywords = map[string]TokenType{
	"and": TOKEN_AND,
	"or":  TOKEN_OR,
	"not": TOKEN_NOT,
	"if":  TOKEN_IF,
}

// LookupIdent returns the keyword token type for ident, or TOKEN_IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TOKEN_IDENT
}

// IsKeyword reports whether name is reserved by the expression grammar.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Col     int // 1-based column within the expression
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d", t.Type, t.Literal, t.Col)
}
