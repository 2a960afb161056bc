package query

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokParam
	tokString
	tokNumber
	tokOp
	tokLParen
	tokRParen
	tokDot
	tokStar
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of query"
	}
	return fmt.Sprintf("%q at %d", t.text, t.pos)
}

// keyword indica si el token es el identificador kw (case-insensitive).
func (t token) keyword(kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func lex(src string) ([]token, error) {
	var out []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			out = append(out, token{tokLParen, "(", i})
			i++
		case c == ')':
			out = append(out, token{tokRParen, ")", i})
			i++
		case c == '.':
			out = append(out, token{tokDot, ".", i})
			i++
		case c == '*':
			out = append(out, token{tokStar, "*", i})
			i++
		case c == '=':
			out = append(out, token{tokOp, "=", i})
			i++
		case c == '!' || c == '<' || c == '>':
			start := i
			i++
			if i < len(src) && (src[i] == '=' || (c == '<' && src[i] == '>')) {
				i++
			}
			op := src[start:i]
			if op == "!" {
				return nil, fmt.Errorf("%w: unexpected '!' at %d", ErrInvalidQuery, start)
			}
			out = append(out, token{tokOp, op, start})
		case c == '\'' || c == '"':
			s, n, err := lexString(src[i:], byte(c))
			if err != nil {
				return nil, fmt.Errorf("%w: %v at %d", ErrInvalidQuery, err, i)
			}
			out = append(out, token{tokString, s, i})
			i += n
		case c == '@':
			start := i
			i++
			for i < len(src) && isIdentChar(rune(src[i])) {
				i++
			}
			if i == start+1 {
				return nil, fmt.Errorf("%w: empty parameter name at %d", ErrInvalidQuery, start)
			}
			out = append(out, token{tokParam, src[start+1 : i], start})
		case c == '-' || unicode.IsDigit(c):
			start := i
			i++
			for i < len(src) && (unicode.IsDigit(rune(src[i])) || src[i] == '.' || src[i] == 'e' || src[i] == 'E') {
				i++
			}
			out = append(out, token{tokNumber, src[start:i], start})
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentChar(rune(src[i])) {
				i++
			}
			out = append(out, token{tokIdent, src[start:i], start})
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrInvalidQuery, c, i)
		}
	}
	out = append(out, token{kind: tokEOF, pos: len(src)})
	return out, nil
}

// lexString lee un literal entre comillas; la comilla se escapa duplicándola
// o con backslash. Devuelve el valor y los bytes consumidos.
func lexString(src string, quote byte) (string, int, error) {
	var b strings.Builder
	i := 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			b.WriteByte(src[i+1])
			i += 2
		case c == quote && i+1 < len(src) && src[i+1] == quote:
			b.WriteByte(quote)
			i += 2
		case c == quote:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

func isIdentStart(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c)
}

func isIdentChar(c rune) bool {
	return isIdentStart(c) || unicode.IsDigit(c)
}
