package metadata

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"codemodel/internal/reflection"
)

// constant converts a manifest constant. want is the declared type of the
// receiving parameter, field or property, or nil when unknown.
func (l *linker) constant(d ArgDecl, want *typeSig, sc scope) (*constSig, error) {
	switch {
	case d.Null:
		if d.Type != "" {
			typ, err := l.resolveType(d.Type, sc)
			if err != nil {
				return nil, err
			}
			return &constSig{typ: typ}, nil
		}
		return &constSig{typ: want}, nil
	case d.TypeOf != "":
		ref, err := l.resolveType(d.TypeOf, sc)
		if err != nil {
			return nil, err
		}
		return &constSig{typ: l.core(reflection.WellKnownSystemType), typeOf: ref}, nil
	case d.Array:
		return l.arrayConstant(d, want, sc)
	}

	typ, err := l.constantType(d, want, sc)
	if err != nil {
		return nil, err
	}
	if typ.kind == sigDeclared && typ.def.typ.fullName == reflection.WellKnownSystemType.FullName() {
		name, ok := d.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%v is not a type name", d.Value)
		}
		ref, err := l.resolveType(name, sc)
		if err != nil {
			return nil, err
		}
		return &constSig{typ: typ, typeOf: ref}, nil
	}
	value, err := scalarValue(d.Value, typ)
	if err != nil {
		return nil, err
	}
	return &constSig{typ: typ, value: value}, nil
}

func (l *linker) arrayConstant(d ArgDecl, want *typeSig, sc scope) (*constSig, error) {
	var elem *typeSig
	switch {
	case d.Type != "":
		var err error
		if elem, err = l.resolveType(d.Type, sc); err != nil {
			return nil, err
		}
	case want != nil && want.kind == sigArray:
		elem = want.elem
	default:
		elem = l.core(reflection.WellKnownObject)
	}
	c := &constSig{typ: &typeSig{kind: sigArray, elem: elem, rank: 1}, array: true}
	for i, item := range d.Items {
		ic, err := l.constant(item, elem, sc)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		c.items = append(c.items, ic)
	}
	return c, nil
}

// constantType picks the type of a scalar constant. A type implied by a plain
// YAML scalar gives way to the receiving member's type.
func (l *linker) constantType(d ArgDecl, want *typeSig, sc scope) (*typeSig, error) {
	concrete := want != nil && want.kind == sigDeclared && !isObjectSig(want)
	switch {
	case d.Type != "" && !(d.implied && concrete):
		return l.resolveType(d.Type, sc)
	case concrete:
		return want, nil
	}
	return l.resolveType(impliedType(d.Value), sc)
}

func impliedType(v any) string {
	switch v.(type) {
	case bool:
		return "System.Boolean"
	case int, int64, uint64:
		return "System.Int32"
	case float64:
		return "System.Double"
	}
	return "System.String"
}

func scalarValue(v any, typ *typeSig) (any, error) {
	if typ.kind != sigDeclared || len(typ.args) > 0 {
		return nil, fmt.Errorf("cannot write a constant of a constructed type")
	}
	def := typ.def
	if isEnumNode(def) {
		return enumValue(def, v)
	}

	name := def.typ.fullName
	switch name {
	case "System.Boolean":
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			return strconv.ParseBool(x)
		}
		return nil, fmt.Errorf("%v is not a boolean", v)
	case "System.String":
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	case "System.Char":
		if s, ok := v.(string); ok {
			r := []rune(s)
			if len(r) != 1 {
				return nil, fmt.Errorf("%q is not a single character", s)
			}
			return r[0], nil
		}
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return rune(n), nil
	case "System.Single":
		f, err := toFloat64(v)
		return float32(f), err
	case "System.Double":
		return toFloat64(v)
	}
	if k, ok := integerTypes[name]; ok {
		return k.convert(v)
	}
	return nil, fmt.Errorf("%s is not a constant type", name)
}

// enumValue converts a number or a '|'-separated list of member names. Enum
// constants are stored as their 32-bit underlying value.
func enumValue(def *Node, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return integerTypes["System.Int32"].convert(v)
	}
	var total int64
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if n, err := strconv.ParseInt(part, 0, 64); err == nil {
			total |= n
			continue
		}
		f := enumMember(def, part)
		if f == nil {
			return nil, fmt.Errorf("%s has no member %q", def.typ.fullName, part)
		}
		if f.member.constant == nil {
			return nil, fmt.Errorf("%s.%s has no value yet", def.typ.fullName, part)
		}
		n, err := toInt64(f.member.constant.value)
		if err != nil {
			return nil, err
		}
		total |= n
	}
	return integerTypes["System.Int32"].convert(total)
}

func enumMember(def *Node, name string) *Node {
	for _, f := range def.typ.fields {
		if f.Name == name && f.member.fieldAttrs&reflection.FieldLiteral != 0 {
			return f
		}
	}
	return nil
}

type integerType struct {
	bits   int
	signed bool
}

var integerTypes = map[string]integerType{
	"System.SByte":  {bits: 8, signed: true},
	"System.Byte":   {bits: 8},
	"System.Int16":  {bits: 16, signed: true},
	"System.UInt16": {bits: 16},
	"System.Int32":  {bits: 32, signed: true},
	"System.UInt32": {bits: 32},
	"System.Int64":  {bits: 64, signed: true},
	"System.UInt64": {bits: 64},
}

func (k integerType) convert(v any) (any, error) {
	if k.signed {
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if k.bits < 64 && (n < -(int64(1)<<(k.bits-1)) || n >= int64(1)<<(k.bits-1)) {
			return nil, fmt.Errorf("%d overflows a %d-bit integer", n, k.bits)
		}
		switch k.bits {
		case 8:
			return int8(n), nil
		case 16:
			return int16(n), nil
		case 32:
			return int32(n), nil
		}
		return n, nil
	}

	n, err := toUint64(v)
	if err != nil {
		return nil, err
	}
	if k.bits < 64 && n >= uint64(1)<<k.bits {
		return nil, fmt.Errorf("%d overflows a %d-bit unsigned integer", n, k.bits)
	}
	switch k.bits {
	case 8:
		return uint8(n), nil
	case 16:
		return uint16(n), nil
	case 32:
		return uint32(n), nil
	}
	return n, nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows a 64-bit integer", x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int64(x), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 0, 64)
	}
	return 0, fmt.Errorf("%v is not an integer", v)
}

func toUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case string:
		return strconv.ParseUint(strings.TrimSpace(x), 0, 64)
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return uint64(n), nil
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	n, err := toInt64(v)
	return float64(n), err
}
