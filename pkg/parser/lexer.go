package parser

import "strings"

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()

	switch l.ch {
	case 0:
		return Token{Type: TOKEN_EOF, Pos: pos}
	case '+':
		l.readChar()
		return Token{Type: TOKEN_PLUS, Literal: "+", Pos: pos}
	case '-':
		l.readChar()
		return Token{Type: TOKEN_MINUS, Literal: "-", Pos: pos}
	case '*':
		l.readChar()
		return Token{Type: TOKEN_STAR, Literal: "*", Pos: pos}
	case '/':
		l.readChar()
		return Token{Type: TOKEN_SLASH, Literal: "/", Pos: pos}
	case '%':
		l.readChar()
		return Token{Type: TOKEN_PERCENT, Literal: "%", Pos: pos}
	case '=':
		l.readChar()
		return Token{Type: TOKEN_EQ, Literal: "=", Pos: pos}
	case '.':
		l.readChar()
		return Token{Type: TOKEN_DOT, Literal: ".", Pos: pos}
	case ',':
		l.readChar()
		return Token{Type: TOKEN_COMMA, Literal: ",", Pos: pos}
	case '(':
		l.readChar()
		return Token{Type: TOKEN_LPAREN, Literal: "(", Pos: pos}
	case ')':
		l.readChar()
		return Token{Type: TOKEN_RPAREN, Literal: ")", Pos: pos}
	case ';':
		l.readChar()
		return Token{Type: TOKEN_SEMICOLON, Literal: ";", Pos: pos}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TOKEN_LE, Literal: "<=", Pos: pos}
		}
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return Token{Type: TOKEN_NE, Literal: "<>", Pos: pos}
		}
		l.readChar()
		return Token{Type: TOKEN_LT, Literal: "<", Pos: pos}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TOKEN_GE, Literal: ">=", Pos: pos}
		}
		l.readChar()
		return Token{Type: TOKEN_GT, Literal: ">", Pos: pos}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TOKEN_NE, Literal: "!=", Pos: pos}
		}
		illegal := string(l.ch)
		l.readChar()
		return Token{Type: TOKEN_ILLEGAL, Literal: illegal, Pos: pos}
	case '\'':
		return l.readString(pos)
	}

	if isLetter(l.ch) {
		lit := l.readIdentifier()
		if kw, ok := LookupIdent(strings.ToUpper(lit)); ok {
			return Token{Type: kw, Literal: lit, Pos: pos}
		}
		return Token{Type: TOKEN_IDENT, Literal: lit, Pos: pos}
	}
	if isDigit(l.ch) {
		return Token{Type: TOKEN_NUMBER, Literal: l.readNumber(), Pos: pos}
	}

	illegal := string(l.ch)
	l.readChar()
	return Token{Type: TOKEN_ILLEGAL, Literal: illegal, Pos: pos}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			// Line comment runs to end of line.
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

// readString reads a single-quoted string literal. Doubled quotes escape
// a quote character.
func (l *Lexer) readString(pos Position) Token {
	var b strings.Builder
	l.readChar() // consume opening quote
	for {
		if l.ch == 0 {
			return Token{Type: TOKEN_ILLEGAL, Literal: b.String(), Pos: pos}
		}
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				b.WriteByte('\'')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // consume closing quote
			return Token{Type: TOKEN_STRING, Literal: b.String(), Pos: pos}
		}
		b.WriteByte(l.ch)
		l.readChar()
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
