package query

import "errors"

// ErrInvalidQuery indica texto de query mal formado o parámetros faltantes.
var ErrInvalidQuery = errors.New("invalid query")

// Statement es una query parseada. Where nil significa "todos".
type Statement struct {
	Alias string
	Where Expr
	text  string
}

// String devuelve el texto original.
func (s *Statement) String() string { return s.text }

// Expr es un nodo booleano del WHERE.
type Expr interface{ isExpr() }

// Logical combina dos expresiones con AND u OR.
type Logical struct {
	Op    string // "AND" | "OR"
	Left  Expr
	Right Expr
}

// Not niega una expresión.
type Not struct{ X Expr }

// Compare compara dos operandos.
type Compare struct {
	Op    string // "=", "!=", "<", "<=", ">", ">="
	Left  Operand
	Right Operand
}

func (*Logical) isExpr() {}
func (*Not) isExpr()     {}
func (*Compare) isExpr() {}

// OperandKind clasifica un operando.
type OperandKind int

const (
	OperandPath OperandKind = iota
	OperandParam
	OperandLiteral
	OperandFunc
)

// Operand es un lado de una comparación.
type Operand struct {
	Kind  OperandKind
	Path  []string // OperandPath y OperandFunc, sin el alias
	Param string   // OperandParam, sin '@'
	Value any      // OperandLiteral: string, float64, bool o nil
	Func  string   // OperandFunc: "LOWER" | "UPPER"
}

// Params devuelve los nombres de parámetro referenciados, sin repetir.
func (s *Statement) Params() []string {
	seen := map[string]bool{}
	var out []string
	var walk func(e Expr)
	add := func(o Operand) {
		if o.Kind == OperandParam && !seen[o.Param] {
			seen[o.Param] = true
			out = append(out, o.Param)
		}
	}
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Logical:
			walk(n.Left)
			walk(n.Right)
		case *Not:
			walk(n.X)
		case *Compare:
			add(n.Left)
			add(n.Right)
		}
	}
	if s.Where != nil {
		walk(s.Where)
	}
	return out
}
