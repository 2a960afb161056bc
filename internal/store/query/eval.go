package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Bound es un Statement con sus parámetros resueltos y normalizados a tipos JSON.
type Bound struct {
	stmt   *Statement
	params map[string]any
}

// Bind resuelve los parámetros referenciados. Un parámetro faltante es
// ErrInvalidQuery; los sobrantes se ignoran.
func (s *Statement) Bind(params map[string]any) (*Bound, error) {
	b := &Bound{stmt: s, params: make(map[string]any, len(params))}
	for _, name := range s.Params() {
		raw, ok := params[name]
		if !ok {
			raw, ok = params["@"+name]
		}
		if !ok {
			return nil, fmt.Errorf("%w: missing parameter @%s", ErrInvalidQuery, name)
		}
		v, err := normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter @%s: %v", ErrInvalidQuery, name, err)
		}
		b.params[name] = v
	}
	return b, nil
}

// Statement devuelve la query original.
func (b *Bound) Statement() *Statement { return b.stmt }

// Param devuelve el valor normalizado de un parámetro.
func (b *Bound) Param(name string) any { return b.params[name] }

// Match evalúa el WHERE contra un documento decodificado.
func (b *Bound) Match(doc map[string]any) bool {
	if b.stmt.Where == nil {
		return true
	}
	return b.eval(b.stmt.Where, doc)
}

// MatchJSON decodifica data y evalúa el WHERE.
func (b *Bound) MatchJSON(data []byte) (bool, error) {
	if b.stmt.Where == nil {
		return true, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, err
	}
	return b.Match(doc), nil
}

func (b *Bound) eval(e Expr, doc map[string]any) bool {
	switch n := e.(type) {
	case *Logical:
		if n.Op == "AND" {
			return b.eval(n.Left, doc) && b.eval(n.Right, doc)
		}
		return b.eval(n.Left, doc) || b.eval(n.Right, doc)
	case *Not:
		return !b.eval(n.X, doc)
	case *Compare:
		l, lok := b.resolve(n.Left, doc)
		r, rok := b.resolve(n.Right, doc)
		if !lok || !rok {
			return false
		}
		return compareValues(n.Op, l, r)
	}
	return false
}

// resolve devuelve el valor del operando y si está definido.
func (b *Bound) resolve(o Operand, doc map[string]any) (any, bool) {
	switch o.Kind {
	case OperandLiteral:
		return o.Value, true
	case OperandParam:
		v, ok := b.params[o.Param]
		return v, ok
	case OperandPath:
		return lookup(doc, o.Path)
	case OperandFunc:
		v, ok := lookup(doc, o.Path)
		if !ok {
			return nil, false
		}
		s, isStr := v.(string)
		if !isStr {
			return nil, false
		}
		if o.Func == "UPPER" {
			return strings.ToUpper(s), true
		}
		return strings.ToLower(s), true
	}
	return nil, false
}

func lookup(doc map[string]any, path []string) (any, bool) {
	var cur any = doc
	for _, part := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func compareValues(op string, l, r any) bool {
	if jsonType(l) != jsonType(r) {
		return false
	}
	switch op {
	case "=":
		return reflect.DeepEqual(l, r)
	case "!=":
		return !reflect.DeepEqual(l, r)
	}

	var c int
	switch lv := l.(type) {
	case float64:
		rv := r.(float64)
		switch {
		case lv < rv:
			c = -1
		case lv > rv:
			c = 1
		}
	case string:
		c = strings.Compare(lv, r.(string))
	default:
		return false
	}
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}

// normalize lleva un valor Go a la forma que produce encoding/json al decodificar.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, float64:
		return x, nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
