package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SQL compila el WHERE a una condición PostgreSQL sobre la columna jsonb col.
// Los argumentos se numeran desde firstArg ($firstArg, $firstArg+1, ...).
// Sin WHERE devuelve "TRUE".
//
// Un path inexistente evalúa FALSE, también bajo NOT (igual que Match).
func (b *Bound) SQL(col string, firstArg int) (string, []any, error) {
	if b.stmt.Where == nil {
		return "TRUE", nil, nil
	}
	c := &sqlCompiler{b: b, col: col, next: firstArg}
	cond, err := c.expr(b.stmt.Where)
	if err != nil {
		return "", nil, err
	}
	return cond, c.args, nil
}

type sqlCompiler struct {
	b    *Bound
	col  string
	next int
	args []any
}

func (c *sqlCompiler) arg(v any) string {
	c.args = append(c.args, v)
	ph := fmt.Sprintf("$%d", c.next)
	c.next++
	return ph
}

func (c *sqlCompiler) expr(e Expr) (string, error) {
	switch n := e.(type) {
	case *Logical:
		l, err := c.expr(n.Left)
		if err != nil {
			return "", err
		}
		r, err := c.expr(n.Right)
		if err != nil {
			return "", err
		}
		return "(" + l + " " + n.Op + " " + r + ")", nil
	case *Not:
		x, err := c.expr(n.X)
		if err != nil {
			return "", err
		}
		return "(NOT " + x + ")", nil
	case *Compare:
		l, err := c.operand(n.Left)
		if err != nil {
			return "", err
		}
		r, err := c.operand(n.Right)
		if err != nil {
			return "", err
		}
		op := n.Op
		if op == "!=" {
			op = "<>"
		}
		cond := fmt.Sprintf("jsonb_typeof(%s) = jsonb_typeof(%s) AND %s %s %s", l, r, l, op, r)
		if op != "=" && op != "<>" {
			cond = fmt.Sprintf("jsonb_typeof(%s) IN ('number','string') AND %s", l, cond)
		}
		return "COALESCE((" + cond + "), FALSE)", nil
	}
	return "", fmt.Errorf("%w: unsupported expression %T", ErrInvalidQuery, e)
}

func (c *sqlCompiler) operand(o Operand) (string, error) {
	switch o.Kind {
	case OperandPath:
		return fmt.Sprintf("(%s #> %s::text[])", c.col, c.arg(o.Path)), nil
	case OperandFunc:
		fn := "lower"
		if o.Func == "UPPER" {
			fn = "upper"
		}
		// solo strings; cualquier otro tipo queda NULL
		p := c.arg(o.Path)
		return fmt.Sprintf("(CASE WHEN jsonb_typeof(%s #> %s::text[]) = 'string' THEN to_jsonb(%s(%s #>> %s::text[])) END)",
			c.col, p, fn, c.col, p), nil
	case OperandParam:
		v, ok := c.b.params[o.Param]
		if !ok {
			return "", fmt.Errorf("%w: missing parameter @%s", ErrInvalidQuery, o.Param)
		}
		return c.jsonLiteral(v)
	case OperandLiteral:
		return c.jsonLiteral(o.Value)
	}
	return "", fmt.Errorf("%w: unsupported operand", ErrInvalidQuery)
}

func (c *sqlCompiler) jsonLiteral(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return "(" + c.arg(json.RawMessage(raw)) + "::jsonb)", nil
}

// Quote es un helper para logs: devuelve la query en una sola línea.
func Quote(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
