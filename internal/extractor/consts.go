package extractor

import (
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"
)

// constEnv is what a constant expression may refer to.
type constEnv struct {
	iota  int64
	known map[string]any
}

// evalConst folds a constant expression to an int64, float64, string or
// bool. Expressions involving anything but literals, iota, earlier
// constants, conversions and arithmetic are not folded.
func evalConst(n *sitter.Node, src []byte, env constEnv) (any, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Type() {
	case "int_literal":
		v, err := strconv.ParseInt(stripUnderscores(n.Content(src)), 0, 64)
		return v, err == nil
	case "float_literal":
		v, err := strconv.ParseFloat(stripUnderscores(n.Content(src)), 64)
		return v, err == nil
	case "interpreted_string_literal", "raw_string_literal":
		v, err := strconv.Unquote(n.Content(src))
		return v, err == nil
	case "rune_literal":
		v, _, _, err := strconv.UnquoteChar(trimQuotes(n.Content(src)), '\'')
		return int64(v), err == nil
	case "true":
		return true, true
	case "false":
		return false, true
	case "iota":
		return env.iota, true
	case "identifier":
		v, ok := env.known[n.Content(src)]
		return v, ok
	case "parenthesized_expression":
		return evalConst(n.NamedChild(0), src, env)
	case "call_expression":
		return evalConversion(n, src, env)
	case "unary_expression":
		v, ok := evalConst(n.ChildByFieldName("operand"), src, env)
		if !ok {
			return nil, false
		}
		return unaryOp(n.ChildByFieldName("operator").Type(), v)
	case "binary_expression":
		l, ok := evalConst(n.ChildByFieldName("left"), src, env)
		if !ok {
			return nil, false
		}
		r, ok := evalConst(n.ChildByFieldName("right"), src, env)
		if !ok {
			return nil, false
		}
		return binaryOp(n.ChildByFieldName("operator").Type(), l, r)
	}
	return nil, false
}

var builtinFuncs = map[string]bool{
	"len": true, "cap": true, "complex": true, "real": true, "imag": true,
	"min": true, "max": true, "new": true, "make": true, "append": true,
}

// evalConversion folds conversions such as Status(3) or float64(x).
func evalConversion(n *sitter.Node, src []byte, env constEnv) (any, bool) {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if fn == nil || fn.Type() != "identifier" || args == nil || args.NamedChildCount() != 1 {
		return nil, false
	}
	name := fn.Content(src)
	if builtinFuncs[name] {
		return nil, false
	}
	v, ok := evalConst(args.NamedChild(0), src, env)
	if !ok {
		return nil, false
	}
	switch name {
	case "float32", "float64":
		if i, isInt := v.(int64); isInt {
			return float64(i), true
		}
	case "string":
		if i, isInt := v.(int64); isInt {
			return string(rune(i)), true
		}
	default:
		if f, isFloat := v.(float64); isFloat && integerKinds[name] {
			return int64(f), true
		}
	}
	return v, true
}

func stripUnderscores(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

func unaryOp(op string, v any) (any, bool) {
	switch x := v.(type) {
	case int64:
		switch op {
		case "-":
			return -x, true
		case "+":
			return x, true
		case "^":
			return ^x, true
		}
	case float64:
		switch op {
		case "-":
			return -x, true
		case "+":
			return x, true
		}
	case bool:
		if op == "!" {
			return !x, true
		}
	}
	return nil, false
}

func binaryOp(op string, l, r any) (any, bool) {
	switch x := l.(type) {
	case int64:
		switch y := r.(type) {
		case int64:
			return intOp(op, x, y)
		case float64:
			return floatOp(op, float64(x), y)
		}
	case float64:
		switch y := r.(type) {
		case float64:
			return floatOp(op, x, y)
		case int64:
			return floatOp(op, x, float64(y))
		}
	case string:
		if y, ok := r.(string); ok && op == "+" {
			return x + y, true
		}
	case bool:
		if y, ok := r.(bool); ok {
			switch op {
			case "&&":
				return x && y, true
			case "||":
				return x || y, true
			}
		}
	}
	return nil, false
}

func intOp(op string, x, y int64) (any, bool) {
	switch op {
	case "+":
		return x + y, true
	case "-":
		return x - y, true
	case "*":
		return x * y, true
	case "/":
		if y == 0 {
			return nil, false
		}
		return x / y, true
	case "%":
		if y == 0 {
			return nil, false
		}
		return x % y, true
	case "<<":
		if y < 0 || y > 63 {
			return nil, false
		}
		return x << y, true
	case ">>":
		if y < 0 || y > 63 {
			return nil, false
		}
		return x >> y, true
	case "|":
		return x | y, true
	case "&":
		return x & y, true
	case "^":
		return x ^ y, true
	case "&^":
		return x &^ y, true
	}
	return nil, false
}

func floatOp(op string, x, y float64) (any, bool) {
	switch op {
	case "+":
		return x + y, true
	case "-":
		return x - y, true
	case "*":
		return x * y, true
	case "/":
		if y == 0 {
			return nil, false
		}
		return x / y, true
	}
	return nil, false
}
