package reflection

import (
	"fmt"
	"strings"
)

// CodeLocation is a position in a source file. The zero value is the unknown location.
type CodeLocation struct {
	Path   string `json:"path,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// UnknownLocation is returned when no source position is available.
var UnknownLocation = CodeLocation{}

// NewCodeLocation validates and builds a location. A location without a path
// cannot carry a line or column, and a column requires a line.
func NewCodeLocation(path string, line, column int) (CodeLocation, error) {
	if line < 0 || column < 0 {
		return UnknownLocation, invalidArgument("line and column must be non-negative")
	}
	if path == "" && (line != 0 || column != 0) {
		return UnknownLocation, invalidArgument("line and column require a path")
	}
	if line == 0 && column != 0 {
		return UnknownLocation, invalidArgument("column requires a line")
	}
	return CodeLocation{Path: path, Line: line, Column: column}, nil
}

// IsUnknown reports whether the location carries no information.
func (l CodeLocation) IsUnknown() bool {
	return l == UnknownLocation
}

// FileOnly drops line and column information.
func (l CodeLocation) FileOnly() CodeLocation {
	return CodeLocation{Path: l.Path}
}

func (l CodeLocation) String() string {
	switch {
	case l.Path == "":
		return "(unknown)"
	case l.Line == 0:
		return l.Path
	case l.Column == 0:
		return fmt.Sprintf("%s(%d)", l.Path, l.Line)
	default:
		return fmt.Sprintf("%s(%d,%d)", l.Path, l.Line, l.Column)
	}
}

// CodeReference is a textual identity for a code element that survives
// across backends and sessions.
type CodeReference struct {
	Kind          CodeElementKind `json:"kind"`
	AssemblyName  string          `json:"assembly,omitempty"`
	NamespaceName string          `json:"namespace,omitempty"`
	TypeName      string          `json:"type,omitempty"`
	MemberName    string          `json:"member,omitempty"`
	ParameterName string          `json:"parameter,omitempty"`
}

func (r CodeReference) String() string {
	var parts []string
	if r.AssemblyName != "" {
		parts = append(parts, "Assembly:"+r.AssemblyName)
	}
	if r.NamespaceName != "" {
		parts = append(parts, "Namespace:"+r.NamespaceName)
	}
	if r.TypeName != "" {
		parts = append(parts, "Type:"+r.TypeName)
	}
	if r.MemberName != "" {
		parts = append(parts, "Member:"+r.MemberName)
	}
	if r.ParameterName != "" {
		parts = append(parts, "Parameter:"+r.ParameterName)
	}
	return strings.Join(parts, ", ")
}
