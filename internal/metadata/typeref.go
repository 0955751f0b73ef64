package metadata

import (
	"fmt"
	"strings"
)

type refKind int

const (
	refNamed refKind = iota
	refArray
	refPointer
	refByRef
)

// typeRef is a parsed manifest type reference such as
// "System.Collections.Generic.IList<T>[,]&".
type typeRef struct {
	kind refKind
	name string
	args []*typeRef
	elem *typeRef
	rank int
}

func (r *typeRef) String() string {
	switch r.kind {
	case refArray:
		return r.elem.String() + "[" + strings.Repeat(",", r.rank-1) + "]"
	case refPointer:
		return r.elem.String() + "*"
	case refByRef:
		return r.elem.String() + "&"
	}
	if len(r.args) == 0 {
		return r.name
	}
	args := make([]string, len(r.args))
	for i, a := range r.args {
		args[i] = a.String()
	}
	return r.name + "<" + strings.Join(args, ", ") + ">"
}

// parseTypeRef parses a type reference.
func parseTypeRef(s string) (*typeRef, error) {
	p := &refParser{src: s}
	ref, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("type reference %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("type reference %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return ref, nil
}

type refParser struct {
	src string
	pos int
}

func (p *refParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *refParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *refParser) parse() (*typeRef, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return nil, fmt.Errorf("expected a type name at offset %d", start)
	}
	ref := &typeRef{kind: refNamed, name: p.src[start:p.pos]}

	p.skipSpace()
	if p.peek() == '<' {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return nil, err
			}
			ref.args = append(ref.args, arg)
			p.skipSpace()
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case '>':
				p.pos++
			default:
				return nil, fmt.Errorf("expected ',' or '>' at offset %d", p.pos)
			}
			break
		}
	}

	for {
		p.skipSpace()
		switch p.peek() {
		case '[':
			p.pos++
			rank := 1
			for p.peek() == ',' {
				rank++
				p.pos++
			}
			if p.peek() != ']' {
				return nil, fmt.Errorf("expected ']' at offset %d", p.pos)
			}
			p.pos++
			ref = &typeRef{kind: refArray, elem: ref, rank: rank}
		case '*':
			p.pos++
			ref = &typeRef{kind: refPointer, elem: ref}
		case '&':
			p.pos++
			ref = &typeRef{kind: refByRef, elem: ref}
		default:
			return ref, nil
		}
	}
}

func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '.', c == '`', c == '+':
		return true
	}
	return false
}

var builtinAliases = map[string]string{
	"object": "System.Object",
	"string": "System.String",
	"bool":   "System.Boolean",
	"char":   "System.Char",
	"sbyte":  "System.SByte",
	"byte":   "System.Byte",
	"short":  "System.Int16",
	"ushort": "System.UInt16",
	"int":    "System.Int32",
	"uint":   "System.UInt32",
	"long":   "System.Int64",
	"ulong":  "System.UInt64",
	"float":  "System.Single",
	"double": "System.Double",
	"void":   "System.Void",
	"nint":   "System.IntPtr",
	"nuint":  "System.UIntPtr",
}
