package live_test

import (
	"reflect"
	"testing"

	"codemodel/internal/live"
	"codemodel/internal/reflection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type plain struct{}

func TestRegistry_CoreUnit(t *testing.T) {
	reg := live.NewRegistry(nil)

	units := reg.Units()
	require.Len(t, units, 1)
	assert.Equal(t, "runtime", units[0].Name().Name)

	rt, ok := reg.Lookup("runtime", "System.Int32")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[int32](), rt)

	name, ok := reg.FullName(reflect.TypeFor[string]())
	require.True(t, ok)
	assert.Equal(t, "System.String", name)
}

func TestRegistry_Errors(t *testing.T) {
	reg := newShapesRegistry(t)

	_, err := reg.RegisterUnit(live.UnitSpec{Name: "Shapes"})
	assert.ErrorIs(t, err, live.ErrDuplicate)
	_, err = reg.RegisterUnit(live.UnitSpec{})
	assert.ErrorIs(t, err, reflection.ErrInvalidArgument)
	_, err = reg.RegisterUnit(live.UnitSpec{Name: "Bad", Version: "one"})
	assert.Error(t, err)
	_, err = reg.RegisterUnit(live.UnitSpec{Name: "Tagged", Attributes: []any{plain{}}})
	assert.ErrorIs(t, err, live.ErrUnregistered)

	tests := []struct {
		name   string
		unit   string
		sample any
		spec   live.TypeSpec
		want   error
	}{
		{"unknown unit", "Nope", plain{}, live.TypeSpec{}, live.ErrUnknownUnit},
		{"duplicate", "Shapes", Circle{}, live.TypeSpec{}, live.ErrDuplicate},
		{"unnamed", "Shapes", struct{}{}, live.TypeSpec{}, reflection.ErrInvalidArgument},
		{"builtin", "Shapes", 3, live.TypeSpec{}, reflection.ErrInvalidArgument},
		{"bad constructor", "Shapes", plain{}, live.TypeSpec{Constructors: []any{NewCircle}}, reflection.ErrInvalidArgument},
		{"constructor not a func", "Shapes", plain{}, live.TypeSpec{Constructors: []any{1}}, reflection.ErrInvalidArgument},
		{"constants on a struct", "Shapes", plain{}, live.TypeSpec{Constants: []live.Constant{{Name: "A", Value: 1}}}, reflection.ErrInvalidArgument},
		{"unregistered attribute", "Shapes", plain{}, live.TypeSpec{Attributes: []any{Base{}}}, live.ErrUnregistered},
		{"unregistered member attribute", "Shapes", plain{}, live.TypeSpec{Members: map[string][]any{"X": {1}}}, live.ErrUnregistered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, reg.RegisterType(tt.unit, tt.sample, tt.spec), tt.want)
		})
	}

	err = reg.RegisterAttribute("Shapes", plain{}, reflection.AttributeUsage{ValidOn: reflection.TargetAll}, live.TypeSpec{})
	assert.ErrorIs(t, err, reflection.ErrInvalidArgument)
}

func TestRegistry_LogsRegistrations(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reg := live.NewRegistry(zap.New(core))

	_, err := reg.RegisterUnit(live.UnitSpec{Name: "Plain"})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterType("Plain", reflect.TypeFor[plain](), live.TypeSpec{}))

	entries := logs.FilterMessage("registered type").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "live_test.plain", entries[0].ContextMap()["type"])

	rt, ok := reg.Lookup("Plain", "live_test.plain")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[plain](), rt)
	_, ok = reg.Lookup("Missing", "live_test.plain")
	assert.False(t, ok)
}
