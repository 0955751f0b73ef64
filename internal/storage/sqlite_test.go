package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"codemodel/internal/metadata"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shapesManifest = `
assemblies:
  - name: Shapes
    version: 1.2.0
    path: bin/shapes.dll
    types:
      - name: Circle
        namespace: Shapes
        visibility: public
        fields: [{name: Radius, type: double, visibility: public}]
        methods:
          - {name: Area, visibility: public, returns: double, token: 0x06000001}
  - name: Shapes.Tests
    references: [{name: Shapes}]
    types:
      - {name: CircleTests, namespace: Shapes.Tests, visibility: public}
`

const notesManifest = `
assemblies:
  - name: Notes
    types:
      - name: Note
        namespace: Notes
        visibility: public
        base: System.Attribute
        attributes:
          - type: System.AttributeUsageAttribute
            args: [{type: System.AttributeTargets, value: 4}]
            properties: {AllowMultiple: true}
`

func mustManifest(t *testing.T, source, doc string) *metadata.Manifest {
	t.Helper()
	m, err := metadata.ParseManifest(source, []byte(doc))
	require.NoError(t, err)
	return m
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveManifests_SnapshotSync(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	shapes := mustManifest(t, "shapes.codemodel.yaml", shapesManifest)
	notes := mustManifest(t, "notes.codemodel.yaml", notesManifest)
	require.NoError(t, store.SaveManifests(ctx, []*metadata.Manifest{shapes, notes}))

	loaded, err := store.LoadManifests(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "shapes.codemodel.yaml", loaded[0].Source)
	assert.Equal(t, shapes.Assemblies, loaded[0].Assemblies)
	assert.Equal(t, notes.Assemblies, loaded[1].Assemblies)

	// A new snapshot drops what it does not carry.
	require.NoError(t, store.SaveManifests(ctx, []*metadata.Manifest{notes}))
	records, err := store.ListAssemblies(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Notes", records[0].Name)
}

func TestSQLiteStore_LoadedManifestsBuild(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveManifests(ctx, []*metadata.Manifest{
		mustManifest(t, "shapes.codemodel.yaml", shapesManifest),
	}))
	loaded, err := store.LoadManifests(ctx)
	require.NoError(t, err)

	b := metadata.NewBuilder(nil)
	for _, m := range loaded {
		b.Add(m)
	}
	model, err := b.Build()
	require.NoError(t, err)
	_, ok := model.Type("Shapes.Circle")
	assert.True(t, ok)
}

func TestSQLiteStore_ListAndDeleteAssemblies(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveManifests(ctx, []*metadata.Manifest{
		mustManifest(t, "shapes.codemodel.yaml", shapesManifest),
	}))

	records, err := store.ListAssemblies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []AssemblyRecord{
		{Name: "Shapes", Version: "1.2.0", Path: "bin/shapes.dll", Source: "shapes.codemodel.yaml", Types: 1},
		{Name: "Shapes.Tests", Source: "shapes.codemodel.yaml", Types: 1},
	}, records)

	require.NoError(t, store.DeleteAssembly(ctx, "Shapes.Tests"))
	err = store.DeleteAssembly(ctx, "Shapes.Tests")
	assert.ErrorIs(t, err, ErrAssemblyNotFound)

	loaded, err := store.LoadManifests(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Len(t, loaded[0].Assemblies, 1)
	assert.Equal(t, "Shapes", loaded[0].Assemblies[0].Name)
}

func TestSQLiteStore_SaveManifests_EmptySnapshotClearsData(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveManifests(ctx, []*metadata.Manifest{
		mustManifest(t, "notes.codemodel.yaml", notesManifest),
	}))
	require.NoError(t, store.SaveManifests(ctx, nil))

	loaded, err := store.LoadManifests(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS assemblies").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_assemblies_name").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewSQLiteStoreFromDB(db)
	require.NoError(t, err)
	return store, mock
}

func TestSQLiteStore_SaveManifests_RollsBackOnInsertError(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	boom := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM assemblies").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectPrepare("INSERT INTO assemblies").
		ExpectExec().
		WillReturnError(boom)
	mock.ExpectRollback()

	err := store.SaveManifests(ctx, []*metadata.Manifest{
		mustManifest(t, "notes.codemodel.yaml", notesManifest),
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "assembly Notes")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_LoadManifests_RejectsCorruptRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT name, source, data FROM assemblies").
		WillReturnRows(sqlmock.NewRows([]string{"name", "source", "data"}).
			AddRow("Broken", "broken.yaml", []byte("{}")))

	_, err := store.LoadManifests(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stored assembly Broken")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSQLiteStoreFromDB_SchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS assemblies").WillReturnError(errors.New("read-only"))
	mock.ExpectClose()

	_, err = NewSQLiteStoreFromDB(db)
	assert.ErrorContains(t, err, "failed to init schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}
