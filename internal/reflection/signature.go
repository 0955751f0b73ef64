package reflection

import (
	"strconv"
	"strings"
)

var shortNamedTypes = map[string]bool{
	"System.Boolean": true,
	"System.Byte":    true,
	"System.Char":    true,
	"System.Double":  true,
	"System.Int16":   true,
	"System.Int32":   true,
	"System.Int64":   true,
	"System.SByte":   true,
	"System.Single":  true,
	"System.UInt16":  true,
	"System.UInt32":  true,
	"System.UInt64":  true,
	"System.IntPtr":  true,
	"System.UIntPtr": true,
	"System.Void":    true,
}

// signatureTypeName renders t for use inside a member signature.
// Primitives and nested types use their short name.
func signatureTypeName(t TypeInfo) string {
	if t == nil {
		return "?"
	}
	inner := t
	for inner.ElementType() != nil {
		inner = inner.ElementType()
	}
	var name string
	if inner.IsNested() || shortNamedTypes[inner.FullName()] {
		name = t.Name()
	} else {
		name = t.String()
	}
	return strings.ReplaceAll(name, "&", " ByRef")
}

func appendGenericArguments(sb *strings.Builder, args []TypeInfo) {
	if len(args) == 0 {
		return
	}
	sb.WriteByte('[')
	for i, arg := range args {
		if i != 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(signatureTypeName(arg))
	}
	sb.WriteByte(']')
}

func appendParameters(sb *strings.Builder, params []ParameterInfo, varArgs bool) {
	sb.WriteByte('(')
	for i, p := range params {
		if i != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(signatureTypeName(p.ValueType()))
	}
	if varArgs {
		sb.WriteString(", ...")
	}
	sb.WriteByte(')')
}

func functionSignature(returnName, name string, genericArgs []TypeInfo, params []ParameterInfo, conv CallingConventions) string {
	var sb strings.Builder
	sb.WriteString(returnName)
	sb.WriteByte(' ')
	sb.WriteString(name)
	appendGenericArguments(&sb, genericArgs)
	appendParameters(&sb, params, conv&CallingVarArgs != 0)
	return sb.String()
}

func memberSignature(valueType TypeInfo, name string) string {
	return signatureTypeName(valueType) + " " + name
}

func arraySuffix(rank int) string {
	if rank == 1 {
		return "[]"
	}
	return "[" + strings.Repeat(",", rank-1) + "]"
}

func aritySuffix(n int) string {
	if n == 0 {
		return ""
	}
	return "`" + strconv.Itoa(n)
}
