// Package expr tokenizes and parses the expression grammar used on the right
// side of parameter declarations, in piecewise clauses and in tests.
//
// # Grammar
//
//	expr    → or
//	or      → and (("or" | "|") and)*
//	and     → not (("and" | "&") not)*
//	not     → ("not" | "!") not | compare
//	compare → sum (("<" | ">" | "<=" | ">=" | "==" | "!=") sum)*
//	sum     → product (("+" | "-" | "--") product)*
//	product → unary (("*" | "/" | "//") unary)*
//	unary   → "-" unary | power
//	power   → primary (("**" | "^") unary)?
//	primary → NUMBER | STRING | IDENT | IDENT "(" args ")" | "(" expr ")"
//
// A piecewise clause is "expr if expr".
package expr

import (
	"strconv"

	"github.com/careweather/oneil/internal/diag"
	"github.com/careweather/oneil/pkg/token"
)

// Precedence levels, lowest first.
const (
	precLowest = iota
	precOr
	precAnd
	precNot
	precCompare
	precSum
	precProduct
	precPrefix
	precPower
)

var precedences = map[TokenType]int{
	TOKEN_OR:         precOr,
	TOKEN_PIPE:       precOr,
	TOKEN_AND:        precAnd,
	TOKEN_AMP:        precAnd,
	TOKEN_LT:         precCompare,
	TOKEN_GT:         precCompare,
	TOKEN_LE:         precCompare,
	TOKEN_GE:         precCompare,
	TOKEN_EQ:         precCompare,
	TOKEN_NE:         precCompare,
	TOKEN_PLUS:       precSum,
	TOKEN_MINUS:      precSum,
	TOKEN_MINUSMINUS: precSum,
	TOKEN_STAR:       precProduct,
	TOKEN_SLASH:      precProduct,
	TOKEN_SLASHSLASH: precProduct,
	TOKEN_POW:        precPower,
}

// Parser is a Pratt parser over the expression tokens.
type Parser struct {
	lexer  *Lexer
	token  Token // current token
	peek   Token // lookahead token
	errors []*diag.Error
}

// NewParser creates a parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a complete expression. Syntax errors are *diag.Error values
// whose position carries only the column within input.
func Parse(input string) (Node, error) {
	p := NewParser(input)
	n := p.parseExpression(precLowest)
	if p.token.Type != TOKEN_EOF {
		p.addError("unexpected %q", p.token.Literal)
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return n, nil
}

// ParseClause parses a piecewise clause "value if condition".
func ParseClause(input string) (value, cond Node, err error) {
	p := NewParser(input)
	value = p.parseExpression(precLowest)
	if p.expect(TOKEN_IF) {
		cond = p.parseExpression(precLowest)
	}
	if len(p.errors) == 0 && p.token.Type != TOKEN_EOF {
		p.addError("unexpected %q", p.token.Literal)
	}
	if len(p.errors) > 0 {
		return nil, nil, p.errors[0]
	}
	return value, cond, nil
}

// ---------- Token Helpers ----------

func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// expect consumes the current token if it has type t and records an error
// otherwise.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	if p.check(TOKEN_EOF) {
		p.addError("expected %q, found end of expression", t.String())
	} else {
		p.addError("expected %q, found %q", t.String(), p.token.Literal)
	}
	return false
}

func (p *Parser) addError(format string, args ...any) {
	p.addErrorAt(p.token.Col, format, args...)
}

func (p *Parser) addErrorAt(col int, format string, args ...any) {
	e := diag.Newf(diag.KindSyntax, format, args...)
	e.Pos = token.Position{Column: col}
	p.errors = append(p.errors, e)
}

// ---------- Expressions ----------

func (p *Parser) parseExpression(prec int) Node {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for {
		opPrec, ok := precedences[p.token.Type]
		if !ok || opPrec <= prec {
			return left
		}
		op := p.token
		p.nextToken()

		next := opPrec
		if op.Type == TOKEN_POW {
			// Right-associative; the exponent may carry a sign.
			next = opPrec - 1
		}
		right := p.parseExpression(next)
		if right == nil {
			return nil
		}
		left = &Binary{Op: op.Type, X: left, Y: right, Column: op.Col}
	}
}

func (p *Parser) parsePrefix() Node {
	tok := p.token
	switch tok.Type {
	case TOKEN_NUMBER:
		p.nextToken()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addErrorAt(tok.Col, "invalid number %q", tok.Literal)
			return nil
		}
		return &Number{Value: v, Literal: tok.Literal, Column: tok.Col}

	case TOKEN_STRING:
		p.nextToken()
		return &String{Value: tok.Literal, Column: tok.Col}

	case TOKEN_IDENT:
		p.nextToken()
		if p.check(TOKEN_LPAREN) {
			return p.parseCall(tok)
		}
		return &Ident{Name: tok.Literal, Ref: ParseQualifiedID(tok.Literal), Column: tok.Col}

	case TOKEN_MINUS:
		p.nextToken()
		x := p.parseExpression(precPrefix)
		if x == nil {
			return nil
		}
		if n, ok := x.(*Number); ok {
			return &Number{Value: -n.Value, Literal: "-" + n.Literal, Column: tok.Col}
		}
		return &Unary{Op: TOKEN_MINUS, X: x, Column: tok.Col}

	case TOKEN_NOT, TOKEN_BANG:
		p.nextToken()
		x := p.parseExpression(precNot)
		if x == nil {
			return nil
		}
		return &Unary{Op: TOKEN_NOT, X: x, Column: tok.Col}

	case TOKEN_LPAREN:
		p.nextToken()
		x := p.parseExpression(precLowest)
		if x == nil {
			return nil
		}
		if !p.expect(TOKEN_RPAREN) {
			return nil
		}
		return x

	case TOKEN_EOF:
		p.addError("unexpected end of expression")
	case TOKEN_ILLEGAL:
		p.addError("illegal character %q", tok.Literal)
	default:
		p.addError("unexpected %q", tok.Literal)
	}
	return nil
}

func (p *Parser) parseCall(name Token) Node {
	call := &Call{Func: name.Literal, Column: name.Col}
	p.nextToken() // skip '('
	if p.check(TOKEN_RPAREN) {
		p.nextToken()
		return call
	}
	for {
		arg := p.parseExpression(precLowest)
		if arg == nil {
			return nil
		}
		call.Args = append(call.Args, arg)
		if p.check(TOKEN_COMMA) {
			p.nextToken()
			continue
		}
		if !p.expect(TOKEN_RPAREN) {
			return nil
		}
		return call
	}
}
