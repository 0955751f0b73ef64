package live_test

import (
	"errors"
	"reflect"
	"testing"

	"codemodel/internal/live"
	"codemodel/internal/reflection"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	publicInstance = reflection.BindingPublic | reflection.BindingInstance
	declaredOnly   = publicInstance | reflection.BindingDeclaredOnly
)

type Shape interface {
	Area() float64
}

type Base struct {
	ID int
}

func (b *Base) Describe() string { return "shape" }

type Circle struct {
	Base
	Radius float64
	label  string
}

func NewCircle(radius float64) *Circle {
	return &Circle{Radius: radius}
}

func NewNamedCircle(label string, radius float64) (*Circle, error) {
	if label == "" {
		return nil, errors.New("empty label")
	}
	return &Circle{Radius: radius, label: label}, nil
}

func (c *Circle) Area() float64 { return 3 * c.Radius * c.Radius }

func (c Circle) Label() string { return c.label }

func (c *Circle) SetLabel(s string) { c.label = s }

func (c *Circle) Scale(factors ...float64) float64 {
	r := c.Radius
	for _, f := range factors {
		r *= f
	}
	return r
}

type Color int32

const (
	Red  Color = 1
	Blue Color = 4
)

type Tag struct {
	live.Attribute
	Name string
}

type Owner struct {
	live.Attribute
	Team    string
	Members []string
	Kind    Color
	Subject any
	Target  reflect.Type
	level   int
}

func NewOwner(team string) Owner {
	return Owner{Team: team}
}

func (o *Owner) SetLevel(n int) { o.level = n }
func (o Owner) Level() int      { return o.level }

func newShapesRegistry(t *testing.T) *live.Registry {
	t.Helper()
	reg := live.NewRegistry(zaptest.NewLogger(t))
	_, err := reg.RegisterUnit(live.UnitSpec{Name: "Shapes", Version: "1.2.0", Path: "bin/shapes"})
	require.NoError(t, err)

	ns := live.TypeSpec{Namespace: "Shapes"}
	require.NoError(t, reg.RegisterAttribute("Shapes", Tag{}, reflection.AttributeUsage{
		ValidOn:       reflection.TargetAll,
		AllowMultiple: true,
		Inherited:     true,
	}, ns))
	require.NoError(t, reg.RegisterAttribute("Shapes", Owner{}, reflection.AttributeUsage{ValidOn: reflection.TargetClass}, live.TypeSpec{
		Namespace:    "Shapes",
		Constructors: []any{NewOwner},
	}))
	require.NoError(t, reg.RegisterType("Shapes", (*Shape)(nil), ns))
	require.NoError(t, reg.RegisterType("Shapes", Base{}, live.TypeSpec{
		Namespace:  "Shapes",
		Attributes: []any{Tag{Name: "base"}},
	}))
	require.NoError(t, reg.RegisterType("Shapes", Circle{}, live.TypeSpec{
		Namespace:    "Shapes",
		Attributes:   []any{Tag{Name: "round"}},
		Members:      map[string][]any{"Area": {Tag{Name: "math"}}},
		Constructors: []any{NewCircle, NewNamedCircle},
	}))
	require.NoError(t, reg.RegisterType("Shapes", Red, live.TypeSpec{
		Namespace: "Shapes",
		Constants: []live.Constant{{Name: "Red", Value: 1}, {Name: "Blue", Value: 4}},
	}))
	return reg
}

func newShapesPolicy(t *testing.T) *live.Policy {
	t.Helper()
	return live.NewPolicy(newShapesRegistry(t), live.WithLogger(zaptest.NewLogger(t)))
}

func mustType(t *testing.T, p *live.Policy, sample any) *reflection.DeclaredType[*live.Handle] {
	t.Helper()
	typ, ok := p.TypeOf(sample)
	require.True(t, ok, "type of %T", sample)
	return typ
}
