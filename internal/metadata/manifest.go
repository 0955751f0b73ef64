package metadata

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk declaration format of the static backend. A manifest
// describes one or more compiled units.
type Manifest struct {
	Source     string         `yaml:"-" json:"-"`
	Assemblies []AssemblyDecl `yaml:"assemblies" json:"assemblies"`
}

type AssemblyDecl struct {
	Name       string          `yaml:"name" json:"name"`
	Version    string          `yaml:"version,omitempty" json:"version,omitempty"`
	Path       string          `yaml:"path,omitempty" json:"path,omitempty"`
	References []ReferenceDecl `yaml:"references,omitempty" json:"references,omitempty"`
	Attributes []AttributeDecl `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Types      []TypeDecl      `yaml:"types,omitempty" json:"types,omitempty"`
}

type ReferenceDecl struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
}

type TypeDecl struct {
	Name              string             `yaml:"name" json:"name"`
	Namespace         string             `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Kind              string             `yaml:"kind,omitempty" json:"kind,omitempty"`
	Visibility        string             `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Abstract          bool               `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Sealed            bool               `yaml:"sealed,omitempty" json:"sealed,omitempty"`
	Serializable      bool               `yaml:"serializable,omitempty" json:"serializable,omitempty"`
	GenericParameters []GenericParamDecl `yaml:"generic_parameters,omitempty" json:"generic_parameters,omitempty"`
	Base              string             `yaml:"base,omitempty" json:"base,omitempty"`
	Interfaces        []string           `yaml:"interfaces,omitempty" json:"interfaces,omitempty"`
	Attributes        []AttributeDecl    `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Fields            []FieldDecl        `yaml:"fields,omitempty" json:"fields,omitempty"`
	Constructors      []ConstructorDecl  `yaml:"constructors,omitempty" json:"constructors,omitempty"`
	Methods           []MethodDecl       `yaml:"methods,omitempty" json:"methods,omitempty"`
	Properties        []PropertyDecl     `yaml:"properties,omitempty" json:"properties,omitempty"`
	Events            []EventDecl        `yaml:"events,omitempty" json:"events,omitempty"`
	Nested            []TypeDecl         `yaml:"nested,omitempty" json:"nested,omitempty"`
	Location          *LocationDecl      `yaml:"location,omitempty" json:"location,omitempty"`
}

type GenericParamDecl struct {
	Name        string          `yaml:"name" json:"name"`
	Variance    string          `yaml:"variance,omitempty" json:"variance,omitempty"`
	Constraints []string        `yaml:"constraints,omitempty" json:"constraints,omitempty"`
	Attributes  []AttributeDecl `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

type FieldDecl struct {
	Name       string          `yaml:"name" json:"name"`
	Type       string          `yaml:"type" json:"type"`
	Visibility string          `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Static     bool            `yaml:"static,omitempty" json:"static,omitempty"`
	ReadOnly   bool            `yaml:"readonly,omitempty" json:"readonly,omitempty"`
	Literal    bool            `yaml:"literal,omitempty" json:"literal,omitempty"`
	Value      *ArgDecl        `yaml:"value,omitempty" json:"value,omitempty"`
	Attributes []AttributeDecl `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Location   *LocationDecl   `yaml:"location,omitempty" json:"location,omitempty"`
}

type ConstructorDecl struct {
	Visibility string          `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Static     bool            `yaml:"static,omitempty" json:"static,omitempty"`
	Token      int             `yaml:"token,omitempty" json:"token,omitempty"`
	Parameters []ParamDecl     `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Attributes []AttributeDecl `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Location   *LocationDecl   `yaml:"location,omitempty" json:"location,omitempty"`
}

type MethodDecl struct {
	Name              string             `yaml:"name" json:"name"`
	Token             int                `yaml:"token,omitempty" json:"token,omitempty"`
	Visibility        string             `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Static            bool               `yaml:"static,omitempty" json:"static,omitempty"`
	Virtual           bool               `yaml:"virtual,omitempty" json:"virtual,omitempty"`
	Abstract          bool               `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Final             bool               `yaml:"final,omitempty" json:"final,omitempty"`
	NewSlot           bool               `yaml:"new_slot,omitempty" json:"new_slot,omitempty"`
	HideBySig         *bool              `yaml:"hide_by_sig,omitempty" json:"hide_by_sig,omitempty"`
	VarArgs           bool               `yaml:"varargs,omitempty" json:"varargs,omitempty"`
	GenericParameters []GenericParamDecl `yaml:"generic_parameters,omitempty" json:"generic_parameters,omitempty"`
	Parameters        []ParamDecl        `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Returns           string             `yaml:"returns,omitempty" json:"returns,omitempty"`
	ReturnAttributes  []AttributeDecl    `yaml:"return_attributes,omitempty" json:"return_attributes,omitempty"`
	Attributes        []AttributeDecl    `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Location          *LocationDecl      `yaml:"location,omitempty" json:"location,omitempty"`
}

type ParamDecl struct {
	Name       string          `yaml:"name" json:"name"`
	Type       string          `yaml:"type" json:"type"`
	In         bool            `yaml:"in,omitempty" json:"in,omitempty"`
	Out        bool            `yaml:"out,omitempty" json:"out,omitempty"`
	Optional   bool            `yaml:"optional,omitempty" json:"optional,omitempty"`
	Attributes []AttributeDecl `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

type PropertyDecl struct {
	Name       string          `yaml:"name" json:"name"`
	Type       string          `yaml:"type" json:"type"`
	Get        *bool           `yaml:"get,omitempty" json:"get,omitempty"`
	Set        bool            `yaml:"set,omitempty" json:"set,omitempty"`
	Visibility string          `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Static     bool            `yaml:"static,omitempty" json:"static,omitempty"`
	Virtual    bool            `yaml:"virtual,omitempty" json:"virtual,omitempty"`
	Abstract   bool            `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	NewSlot    bool            `yaml:"new_slot,omitempty" json:"new_slot,omitempty"`
	Attributes []AttributeDecl `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Location   *LocationDecl   `yaml:"location,omitempty" json:"location,omitempty"`
}

type EventDecl struct {
	Name       string          `yaml:"name" json:"name"`
	Type       string          `yaml:"type" json:"type"`
	Visibility string          `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Static     bool            `yaml:"static,omitempty" json:"static,omitempty"`
	Virtual    bool            `yaml:"virtual,omitempty" json:"virtual,omitempty"`
	NewSlot    bool            `yaml:"new_slot,omitempty" json:"new_slot,omitempty"`
	Attributes []AttributeDecl `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Location   *LocationDecl   `yaml:"location,omitempty" json:"location,omitempty"`
}

// AttributeDecl records one custom attribute application.
type AttributeDecl struct {
	Type       string             `yaml:"type" json:"type"`
	Args       []ArgDecl          `yaml:"args,omitempty" json:"args,omitempty"`
	Fields     map[string]ArgDecl `yaml:"fields,omitempty" json:"fields,omitempty"`
	Properties map[string]ArgDecl `yaml:"properties,omitempty" json:"properties,omitempty"`
}

type LocationDecl struct {
	Path   string `yaml:"path" json:"path"`
	Line   int    `yaml:"line,omitempty" json:"line,omitempty"`
	Column int    `yaml:"column,omitempty" json:"column,omitempty"`
}

// ArgDecl is a constant in a manifest. Plain scalars take the type implied by
// their YAML tag; the mapping forms name the type explicitly:
//
//	{type: System.Int64, value: 3}
//	{typeof: Acme.Fixture}
//	{type: System.String, items: [a, b]}
type ArgDecl struct {
	Type   string    `yaml:"type,omitempty" json:"type,omitempty"`
	Value  any       `yaml:"value,omitempty" json:"value,omitempty"`
	TypeOf string    `yaml:"typeof,omitempty" json:"typeof,omitempty"`
	Items  []ArgDecl `yaml:"items,omitempty" json:"items,omitempty"`
	Null   bool      `yaml:"-" json:"-"`
	Array  bool      `yaml:"-" json:"-"`

	// implied is set when Type came from a plain scalar's tag.
	implied bool
}

// Scalar returns the constant a plain YAML scalar holding v decodes to: its
// type follows the receiving parameter or field when that is known.
func Scalar(v any) ArgDecl {
	if v == nil {
		return ArgDecl{Null: true}
	}
	return ArgDecl{Type: impliedType(v), Value: v, implied: true}
}

func (a *ArgDecl) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return a.scalar(node)
	case yaml.SequenceNode:
		a.Array = true
		return node.Decode(&a.Items)
	case yaml.MappingNode:
		type plain ArgDecl
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*a = ArgDecl(p)
		a.Array = p.Items != nil
		a.Null = a.Value == nil && a.TypeOf == "" && !a.Array
		return nil
	default:
		return fmt.Errorf("line %d: unsupported constant", node.Line)
	}
}

func (a *ArgDecl) scalar(node *yaml.Node) error {
	a.implied = node.Tag != "!!null"
	switch node.Tag {
	case "!!null":
		a.Null = true
		return nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		a.Type, a.Value = "System.Boolean", b
	case "!!int":
		n, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		a.Type, a.Value = "System.Int32", n
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		a.Type, a.Value = "System.Double", f
	default:
		a.Type, a.Value = "System.String", node.Value
	}
	return nil
}

// ParseManifest decodes and validates a manifest. source names it in errors.
func ParseManifest(source string, data []byte) (*Manifest, error) {
	if err := ValidateManifest(data); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	m.Source = source
	return &m, nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(path, data)
}

// MarshalManifest encodes m as YAML.
func MarshalManifest(m *Manifest) ([]byte, error) {
	return yaml.Marshal(m)
}

func (a ArgDecl) MarshalYAML() (any, error) {
	switch {
	case a.Null:
		return nil, nil
	case a.Array && a.Type == "":
		return a.Items, nil
	case a.TypeOf != "":
		return map[string]string{"typeof": a.TypeOf}, nil
	case a.Array:
		return map[string]any{"type": a.Type, "items": a.Items}, nil
	case a.isImplicit():
		return a.Value, nil
	default:
		return map[string]any{"type": a.Type, "value": a.Value}, nil
	}
}

func (a ArgDecl) isImplicit() bool {
	switch a.Value.(type) {
	case bool:
		return a.Type == "System.Boolean"
	case int64, int:
		return a.Type == "System.Int32"
	case float64:
		return a.Type == "System.Double"
	case string:
		return a.Type == "System.String"
	}
	return false
}

func sortedKeys(m map[string]ArgDecl) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
