package symbols

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"codemodel/internal/reflection"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingBinder struct {
	Binder
	opens atomic.Int32
}

func (b *countingBinder) Open(unitPath string) (Reader, error) {
	b.opens.Add(1)
	return b.Binder.Open(unitPath)
}

func newCountingResolver(t *testing.T, opts ...Option) (*Resolver, *countingBinder) {
	t.Helper()
	binder := &countingBinder{Binder: NewSQLiteBinder(zaptest.NewLogger(t))}
	r := NewResolver(binder, append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
	t.Cleanup(func() { assert.NoError(t, r.Close()) })
	return r, binder
}

func TestResolver_SourceLocation(t *testing.T) {
	unit := filepath.Join(t.TempDir(), "Acme.Tests.dll")
	writeFixtureStore(t, unit)
	r, binder := newCountingResolver(t)

	tests := []struct {
		name  string
		token int
		want  reflection.CodeLocation
	}{
		{"First visible point", 0x06000001, reflection.CodeLocation{Path: "src/Fixture.cs", Line: 12}},
		{"Only hidden points", 0x06000002, reflection.CodeLocation{Path: "src/Generated.cs"}},
		{"Method not in store", 0x06000099, reflection.UnknownLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := r.SourceLocation(unit, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc)
		})
	}
	assert.Equal(t, int32(1), binder.opens.Load())
}

func TestFirstLocation(t *testing.T) {
	assert.True(t, firstLocation(nil).IsUnknown())
	assert.Equal(t, reflection.CodeLocation{Path: "b.go", Line: 7},
		firstLocation([]SequencePoint{{Document: "a.go", Line: 3}, {Document: "b.go", Line: 7, Column: 2}}))
}

func TestResolver_CachesAbsence(t *testing.T) {
	unit := filepath.Join(t.TempDir(), "NoSymbols.dll")
	r, binder := newCountingResolver(t)

	for range 3 {
		loc, err := r.SourceLocation(unit, 0x06000001)
		require.NoError(t, err)
		assert.True(t, loc.IsUnknown())
	}
	assert.Equal(t, int32(1), binder.opens.Load())
}

func TestResolver_ConcurrentLookups(t *testing.T) {
	unit := filepath.Join(t.TempDir(), "Acme.Tests.dll")
	writeFixtureStore(t, unit)
	r, binder := newCountingResolver(t)

	var wg sync.WaitGroup
	locs := make([]reflection.CodeLocation, 16)
	errs := make([]error, 16)
	for i := range locs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locs[i], errs[i] = r.SourceLocation(unit, 0x06000001)
		}()
	}
	wg.Wait()

	for i := range locs {
		require.NoError(t, errs[i])
		assert.Equal(t, 12, locs[i].Line)
	}
	assert.Equal(t, int32(1), binder.opens.Load())
}

func TestResolver_ShadowCopies(t *testing.T) {
	originalDir := t.TempDir()
	shadowDir := t.TempDir()
	original := filepath.Join(originalDir, "Acme.Tests.dll")
	writeFixtureStore(t, original)

	shadows := map[string]string{
		filepath.Join(shadowDir, "Acme.Tests.dll"): original,
		filepath.Join(shadowDir, "Bare.dll"):       filepath.Join(originalDir, "Bare.dll"),
	}
	r, binder := newCountingResolver(t, WithShadowCopies(func(unitPath string) (string, bool) {
		orig, ok := shadows[unitPath]
		return orig, ok
	}))

	loc, err := r.SourceLocation(filepath.Join(shadowDir, "Acme.Tests.dll"), 0x06000001)
	require.NoError(t, err)
	assert.Equal(t, reflection.CodeLocation{Path: "src/Fixture.cs", Line: 12}, loc)
	assert.FileExists(t, filepath.Join(shadowDir, "Acme.Tests.sym"))

	loc, err = r.SourceLocation(filepath.Join(shadowDir, "Bare.dll"), 0x06000001)
	require.NoError(t, err)
	assert.True(t, loc.IsUnknown())
	assert.Equal(t, int32(1), binder.opens.Load(), "a shadow copy without symbols is not opened")
}

func TestResolver_FatalErrorsAreReturned(t *testing.T) {
	unit := filepath.Join(t.TempDir(), "Broken.dll")
	require.NoError(t, os.WriteFile(StorePath(unit), nil, 0o644))

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	boom := errors.New("database disk image is malformed")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM sqlite_master")).WillReturnError(boom)
	mock.ExpectClose()

	binder := NewSQLiteBinder(zaptest.NewLogger(t)).WithOpener(func(string) (*sql.DB, error) {
		return db, nil
	})
	r := NewResolver(binder)

	loc, err := r.SourceLocation(unit, 0x06000001)
	assert.ErrorIs(t, err, boom)
	assert.True(t, loc.IsUnknown())
	assert.NoError(t, mock.ExpectationsWereMet())
}
