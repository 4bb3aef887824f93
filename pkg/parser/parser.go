package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser builds a SelectStmt from SQL text.
type Parser struct {
	lexer *Lexer
	cur   Token
	peek  Token
	text  string
}

// Parse parses a single SELECT statement.
func Parse(sql string) (*SelectStmt, error) {
	p := &Parser{lexer: NewLexer(sql), text: strings.TrimSpace(sql)}
	// Prime cur and peek.
	p.next()
	p.next()
	stmt, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if p.cur.Type == TOKEN_SEMICOLON {
		p.next()
	}
	if p.cur.Type != TOKEN_EOF {
		return nil, p.errorf("unexpected %q after statement", p.cur.Literal)
	}
	return stmt, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) expect(t TokenType, what string) error {
	if p.cur.Type != t {
		return p.errorf("expected %s, found %q", what, p.cur.Literal)
	}
	p.next()
	return nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("parse error at %s: %s", p.cur.Pos, fmt.Sprintf(format, args...))
}

func (p *Parser) parseSelect() (*SelectStmt, error) {
	if err := p.expect(TOKEN_SELECT, "SELECT"); err != nil {
		return nil, err
	}
	stmt := &SelectStmt{Text: p.text}

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		stmt.Items = append(stmt.Items, item)
		if p.cur.Type != TOKEN_COMMA {
			break
		}
		p.next()
	}

	if p.cur.Type == TOKEN_FROM {
		p.next()
		if p.cur.Type != TOKEN_IDENT {
			return nil, p.errorf("expected table name, found %q", p.cur.Literal)
		}
		stmt.From = p.cur.Literal
		p.next()
	}

	if p.cur.Type == TOKEN_WHERE {
		p.next()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = cond
	}

	if p.cur.Type == TOKEN_GROUP {
		p.next()
		if err := p.expect(TOKEN_BY, "BY"); err != nil {
			return nil, err
		}
		for {
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			stmt.GroupBy = append(stmt.GroupBy, key)
			if p.cur.Type != TOKEN_COMMA {
				break
			}
			p.next()
		}
	}

	if p.cur.Type == TOKEN_LIMIT {
		p.next()
		if p.cur.Type != TOKEN_NUMBER {
			return nil, p.errorf("expected LIMIT count, found %q", p.cur.Literal)
		}
		n, err := strconv.ParseInt(p.cur.Literal, 10, 64)
		if err != nil || n < 0 {
			return nil, p.errorf("invalid LIMIT count %q", p.cur.Literal)
		}
		stmt.Limit = &n
		p.next()
	}

	return stmt, nil
}

func (p *Parser) parseSelectItem() (SelectItem, error) {
	if p.cur.Type == TOKEN_STAR {
		p.next()
		return SelectItem{Star: true}, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: expr}
	if p.cur.Type == TOKEN_AS {
		p.next()
		if p.cur.Type != TOKEN_IDENT {
			return SelectItem{}, p.errorf("expected alias, found %q", p.cur.Literal)
		}
		item.Alias = p.cur.Literal
		p.next()
	} else if p.cur.Type == TOKEN_IDENT {
		// Bare alias without AS.
		item.Alias = p.cur.Literal
		p.next()
	}
	return item, nil
}

// Expression precedence, loosest first: OR, AND, NOT, comparison,
// additive, multiplicative, unary, primary.

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TOKEN_OR {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TOKEN_AND {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.cur.Type == TOKEN_NOT {
		p.next()
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "NOT", Expr: expr}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[TokenType]string{
	TOKEN_EQ: "=",
	TOKEN_NE: "!=",
	TOKEN_LT: "<",
	TOKEN_LE: "<=",
	TOKEN_GT: ">",
	TOKEN_GE: ">=",
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := comparisonOps[p.cur.Type]; ok {
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TOKEN_PLUS || p.cur.Type == TOKEN_MINUS {
		op := p.cur.Literal
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TOKEN_STAR || p.cur.Type == TOKEN_SLASH || p.cur.Type == TOKEN_PERCENT {
		op := p.cur.Literal
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.cur.Type == TOKEN_MINUS {
		p.next()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "-", Expr: expr}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	switch p.cur.Type {
	case TOKEN_NUMBER:
		lit := p.cur.Literal
		p.next()
		if strings.Contains(lit, ".") {
			f, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, p.errorf("invalid number %q", lit)
			}
			return &Literal{Value: f}, nil
		}
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", lit)
		}
		return &Literal{Value: n}, nil

	case TOKEN_STRING:
		v := p.cur.Literal
		p.next()
		return &Literal{Value: v}, nil

	case TOKEN_TRUE:
		p.next()
		return &Literal{Value: true}, nil

	case TOKEN_FALSE:
		p.next()
		return &Literal{Value: false}, nil

	case TOKEN_NULL:
		p.next()
		return &Literal{Value: nil}, nil

	case TOKEN_LPAREN:
		p.next()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_RPAREN, ")"); err != nil {
			return nil, err
		}
		return expr, nil

	case TOKEN_IDENT:
		name := p.cur.Literal
		p.next()
		if p.cur.Type == TOKEN_LPAREN {
			return p.parseFuncCall(name)
		}
		if p.cur.Type == TOKEN_DOT {
			p.next()
			if p.cur.Type != TOKEN_IDENT {
				return nil, p.errorf("expected column name after %q.", name)
			}
			col := p.cur.Literal
			p.next()
			return &ColumnRef{Table: name, Name: col}, nil
		}
		return &ColumnRef{Name: name}, nil

	default:
		return nil, p.errorf("unexpected %q", p.cur.Literal)
	}
}

func (p *Parser) parseFuncCall(name string) (Expr, error) {
	p.next() // consume (
	call := &FuncCall{Name: strings.ToUpper(name)}
	if p.cur.Type == TOKEN_STAR {
		call.Star = true
		p.next()
	} else if p.cur.Type != TOKEN_RPAREN {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.cur.Type != TOKEN_COMMA {
				break
			}
			p.next()
		}
	}
	if err := p.expect(TOKEN_RPAREN, ")"); err != nil {
		return nil, err
	}
	return call, nil
}
