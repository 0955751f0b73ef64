package live

import (
	"fmt"
	"reflect"

	"codemodel/internal/reflection"
)

// Handle identifies a declaration of the live backend. Handles are interned
// by their Policy, so equal declarations share one pointer.
type Handle struct {
	Kind reflection.CodeElementKind
	Unit *Unit
	// Type is the declared type, or the declaring type of a member.
	Type reflect.Type
	Name string
	// Index is the method index, the field index, the constructor index
	// (-1 for the zero value), the parameter position (-1 for the return
	// value), the attribute position or, for enum constants, -1-i.
	Index int
	// Owner is the function of a parameter or the target of an attribute.
	Owner *Handle
}

func (h *Handle) String() string {
	if h == nil {
		return "<nil>"
	}
	switch h.Kind {
	case reflection.KindAssembly:
		return h.Unit.name.FullName()
	case reflection.KindType:
		return h.Type.String()
	case reflection.KindParameter, reflection.KindAttribute:
		return fmt.Sprintf("%s#%d", h.Owner, h.Index)
	}
	return h.Type.String() + "::" + h.Name
}

func (h *Handle) isConstant() bool {
	return h.Kind == reflection.KindField && h.Index < 0
}
