package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		enabled zap.AtomicLevel
		wantErr bool
	}{
		{level: "", enabled: zap.NewAtomicLevelAt(zap.InfoLevel)},
		{level: "debug", enabled: zap.NewAtomicLevelAt(zap.DebugLevel)},
		{level: "warn", enabled: zap.NewAtomicLevelAt(zap.WarnLevel)},
		{level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(tt.level, false)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.enabled.Level()))
			if tt.enabled.Level() > zap.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.enabled.Level()-1))
			}
		})
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
