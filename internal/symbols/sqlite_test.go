package symbols

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeFixtureStore(t *testing.T, unitPath string) {
	t.Helper()
	err := WriteStore(context.Background(), unitPath, []Method{
		{Token: 0x06000001, Points: []SequencePoint{
			{Document: "src/Fixture.cs", Line: 0xfeefee, Column: 0},
			{Document: "src/Fixture.cs", Line: 12, Column: 9, EndLine: 12, EndColumn: 30},
			{Document: "src/Fixture.cs", Line: 13, Column: 9, EndLine: 13, EndColumn: 20},
		}},
		{Token: 0x06000002, Points: []SequencePoint{
			{Document: "src/Generated.cs", Line: 40, Column: 0},
			{Document: "src/Fixture.cs", Line: 41, Column: 0},
		}},
	})
	require.NoError(t, err)
}

func TestStorePath(t *testing.T) {
	assert.Equal(t, "bin/Acme.Tests.sym", StorePath("bin/Acme.Tests.dll"))
	assert.Equal(t, "bin/tool.sym", StorePath("bin/tool"))
}

func TestSQLiteBinder_ReadsStore(t *testing.T) {
	unit := filepath.Join(t.TempDir(), "Acme.Tests.dll")
	writeFixtureStore(t, unit)

	reader, err := NewSQLiteBinder(zaptest.NewLogger(t)).Open(unit)
	require.NoError(t, err)
	defer reader.Close()

	points, err := reader.SequencePoints(0x06000001)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, SequencePoint{Document: "src/Fixture.cs", Line: 12, Column: 9, EndLine: 12, EndColumn: 30}, points[1])

	_, err = reader.SequencePoints(0x06000099)
	assert.ErrorIs(t, err, ErrMethodNotFound)
}

func TestWriteStore_ReplacesUnitPoints(t *testing.T) {
	unit := filepath.Join(t.TempDir(), "Acme.Tests.dll")
	writeFixtureStore(t, unit)
	require.NoError(t, WriteStore(context.Background(), unit, []Method{
		{Token: 0x06000003, Points: []SequencePoint{{Document: "src/Other.cs", Line: 3, Column: 1}}},
	}))

	reader, err := NewSQLiteBinder(nil).Open(unit)
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.SequencePoints(0x06000001)
	assert.ErrorIs(t, err, ErrMethodNotFound)
	points, err := reader.SequencePoints(0x06000003)
	require.NoError(t, err)
	assert.Equal(t, "src/Other.cs", points[0].Document)
}

func TestSQLiteBinder_SoftFailures(t *testing.T) {
	dir := t.TempDir()
	binder := NewSQLiteBinder(zaptest.NewLogger(t))

	t.Run("Missing store", func(t *testing.T) {
		_, err := binder.Open(filepath.Join(dir, "Missing.dll"))
		assert.ErrorIs(t, err, ErrSymbolsNotFound)
	})

	t.Run("Store without debug tables", func(t *testing.T) {
		unit := filepath.Join(dir, "Empty.dll")
		db, err := sql.Open("sqlite3", StorePath(unit))
		require.NoError(t, err)
		_, err = db.Exec(`CREATE TABLE notes (body TEXT)`)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		_, err = binder.Open(unit)
		assert.ErrorIs(t, err, ErrNoDebugInfo)
	})

	t.Run("Store describing another unit", func(t *testing.T) {
		writeFixtureStore(t, filepath.Join(dir, "Renamed.dll"))
		require.NoError(t, os.Rename(StorePath(filepath.Join(dir, "Renamed.dll")), StorePath(filepath.Join(dir, "Other.dll"))))

		_, err := binder.Open(filepath.Join(dir, "Other.dll"))
		assert.ErrorIs(t, err, ErrDebugInfoNotInStore)
	})
}

func TestSQLiteBinder_ClosesOnFatalError(t *testing.T) {
	unit := filepath.Join(t.TempDir(), "Broken.dll")
	require.NoError(t, os.WriteFile(StorePath(unit), nil, 0o644))

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	boom := errors.New("disk I/O error")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM sqlite_master")).WillReturnError(boom)
	mock.ExpectClose()

	binder := NewSQLiteBinder(zaptest.NewLogger(t)).WithOpener(func(string) (*sql.DB, error) {
		return db, nil
	})
	_, err = binder.Open(unit)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
