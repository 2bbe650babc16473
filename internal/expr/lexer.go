package expr

// Lexer tokenizes a single-line expression.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// peekCharAt returns the character n places ahead of the current one.
func (l *Lexer) peekCharAt(n int) byte {
	i := l.pos + n
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	col := l.col
	var tok Token

	switch l.ch {
	case 0:
		return Token{Type: TOKEN_EOF, Col: col}
	case '+':
		tok = l.newToken(TOKEN_PLUS, "+")
	case '-':
		if l.peekChar() == '-' {
			l.readChar()
			tok = Token{Type: TOKEN_MINUSMINUS, Literal: "--", Col: col}
		} else {
			tok = l.newToken(TOKEN_MINUS, "-")
		}
	case '*':
		if l.peekChar() == '*' {
			l.readChar()
			tok = Token{Type: TOKEN_POW, Literal: "**", Col: col}
		} else {
			tok = l.newToken(TOKEN_STAR, "*")
		}
	case '/':
		if l.peekChar() == '/' {
			l.readChar()
			tok = Token{Type: TOKEN_SLASHSLASH, Literal: "//", Col: col}
		} else {
			tok = l.newToken(TOKEN_SLASH, "/")
		}
	case '^':
		tok = l.newToken(TOKEN_POW, "^")
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_LE, Literal: "<=", Col: col}
		} else {
			tok = l.newToken(TOKEN_LT, "<")
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_GE, Literal: ">=", Col: col}
		} else {
			tok = l.newToken(TOKEN_GT, ">")
		}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_EQ, Literal: "==", Col: col}
		} else {
			tok = l.newToken(TOKEN_ILLEGAL, "=")
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_NE, Literal: "!=", Col: col}
		} else {
			tok = l.newToken(TOKEN_BANG, "!")
		}
	case '&':
		tok = l.newToken(TOKEN_AMP, "&")
	case '|':
		tok = l.newToken(TOKEN_PIPE, "|")
	case ',':
		tok = l.newToken(TOKEN_COMMA, ",")
	case '(':
		tok = l.newToken(TOKEN_LPAREN, "(")
	case ')':
		tok = l.newToken(TOKEN_RPAREN, ")")
	case '\'', '"':
		lit, ok := l.readString(l.ch)
		if !ok {
			return Token{Type: TOKEN_ILLEGAL, Literal: lit, Col: col}
		}
		return Token{Type: TOKEN_STRING, Literal: lit, Col: col}
	default:
		if isLetter(l.ch) {
			lit := l.readIdentifier()
			return Token{Type: LookupIdent(lit), Literal: lit, Col: col}
		}
		if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
			return Token{Type: TOKEN_NUMBER, Literal: l.readNumber(), Col: col}
		}
		tok = l.newToken(TOKEN_ILLEGAL, string(l.ch))
	}

	l.readChar()
	return tok
}

// newToken creates a single-character token at the current column.
func (l *Lexer) newToken(tokenType TokenType, literal string) Token {
	return Token{Type: tokenType, Literal: literal, Col: l.col}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

// readString reads a string literal closed by the same quote it opened
// with. The second result is false when the literal is unterminated.
func (l *Lexer) readString(quote byte) (string, bool) {
	l.readChar() // skip opening quote
	start := l.pos
	for l.ch != quote {
		if l.ch == 0 {
			return l.input[start:l.pos], false
		}
		l.readChar()
	}
	lit := l.input[start:l.pos]
	l.readChar() // skip closing quote
	return lit, true
}

// readIdentifier reads a possibly dotted identifier such as thrust.engine.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || (l.ch == '.' && isLetter(l.peekChar())) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && !isLetter(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	// Exponent only when digits follow, so "2e" stays a number and an ident.
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekCharAt(2))) {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	return l.input[start:l.pos]
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
