package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse convierte el texto en un Statement.
func Parse(text string) (*Statement, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	st, err := p.statement()
	if err != nil {
		return nil, err
	}
	st.text = text
	return st, nil
}

// MustParse es Parse para queries constantes; hace panic si el texto es inválido.
func MustParse(text string) *Statement {
	st, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return st
}

type parser struct {
	toks  []token
	pos   int
	alias string
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

func (p *parser) expectKeyword(kw string) error {
	if t := p.next(); !t.keyword(kw) {
		return p.errorf("expected %s, got %s", kw, t)
	}
	return nil
}

func (p *parser) statement() (*Statement, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	if t := p.next(); t.kind != tokStar {
		return nil, p.errorf("only SELECT * is supported, got %s", t)
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	t := p.next()
	if t.kind != tokIdent {
		return nil, p.errorf("expected container alias, got %s", t)
	}
	p.alias = t.text
	st := &Statement{Alias: t.text}

	if p.peek().keyword("WHERE") {
		p.next()
		e, err := p.or()
		if err != nil {
			return nil, err
		}
		st.Where = e
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf("unexpected %s", t)
	}
	return st, nil
}

func (p *parser) or() (Expr, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek().keyword("OR") {
		p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) and() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.peek().keyword("AND") {
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	t := p.peek()
	switch {
	case t.keyword("NOT"):
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	case t.kind == tokLParen:
		p.next()
		e, err := p.or()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, p.errorf("expected ')', got %s", t)
		}
		return e, nil
	}
	return p.compare()
}

func (p *parser) compare() (Expr, error) {
	left, err := p.operand()
	if err != nil {
		return nil, err
	}
	t := p.next()
	if t.kind != tokOp {
		return nil, p.errorf("expected comparison operator, got %s", t)
	}
	op := t.text
	if op == "<>" {
		op = "!="
	}
	right, err := p.operand()
	if err != nil {
		return nil, err
	}
	return &Compare{Op: op, Left: left, Right: right}, nil
}

func (p *parser) operand() (Operand, error) {
	t := p.next()
	switch t.kind {
	case tokParam:
		return Operand{Kind: OperandParam, Param: t.text}, nil
	case tokString:
		return Operand{Kind: OperandLiteral, Value: t.text}, nil
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return Operand{}, p.errorf("bad number %s", t)
		}
		return Operand{Kind: OperandLiteral, Value: f}, nil
	case tokIdent:
		switch {
		case t.keyword("true"):
			return Operand{Kind: OperandLiteral, Value: true}, nil
		case t.keyword("false"):
			return Operand{Kind: OperandLiteral, Value: false}, nil
		case t.keyword("null"):
			return Operand{Kind: OperandLiteral, Value: nil}, nil
		case (t.keyword("LOWER") || t.keyword("UPPER")) && p.peek().kind == tokLParen:
			p.next()
			first := p.next()
			if first.kind != tokIdent {
				return Operand{}, p.errorf("%s expects a path, got %s", strings.ToUpper(t.text), first)
			}
			path, err := p.path(first)
			if err != nil {
				return Operand{}, err
			}
			if c := p.next(); c.kind != tokRParen {
				return Operand{}, p.errorf("expected ')', got %s", c)
			}
			return Operand{Kind: OperandFunc, Func: strings.ToUpper(t.text), Path: path}, nil
		}
		path, err := p.path(t)
		if err != nil {
			return Operand{}, err
		}
		return Operand{Kind: OperandPath, Path: path}, nil
	}
	return Operand{}, p.errorf("expected operand, got %s", t)
}

// path lee ident{.ident} a partir de first y quita el alias inicial.
func (p *parser) path(first token) ([]string, error) {
	parts := []string{first.text}
	for p.peek().kind == tokDot {
		p.next()
		t := p.next()
		if t.kind != tokIdent {
			return nil, p.errorf("expected property name, got %s", t)
		}
		parts = append(parts, t.text)
	}
	if len(parts) > 1 && parts[0] == p.alias {
		parts = parts[1:]
	} else if len(parts) == 1 && parts[0] == p.alias {
		return nil, p.errorf("bare alias %q is not comparable", p.alias)
	}
	return parts, nil
}
