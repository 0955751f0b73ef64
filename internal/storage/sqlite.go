package storage

import (
	"context"
	"database/sql"
	"fmt"

	"codemodel/internal/metadata"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ ModelStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}
	return NewSQLiteStoreFromDB(db)
}

// NewSQLiteStoreFromDB wraps an open database, creating the schema.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS assemblies (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			version TEXT,
			path TEXT,
			source TEXT NOT NULL,
			type_count INTEGER,
			data BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_assemblies_name ON assemblies(name);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveManifests(ctx context.Context, manifests []*metadata.Manifest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assemblies`); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assemblies (name, version, path, source, type_count, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range manifests {
		for _, a := range m.Assemblies {
			data, err := metadata.MarshalManifest(&metadata.Manifest{Assemblies: []metadata.AssemblyDecl{a}})
			if err != nil {
				return fmt.Errorf("assembly %s: %w", a.Name, err)
			}
			if _, err := stmt.ExecContext(ctx, a.Name, a.Version, a.Path, m.Source, len(a.Types), data); err != nil {
				return fmt.Errorf("assembly %s: %w", a.Name, err)
			}
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadManifests(ctx context.Context) ([]*metadata.Manifest, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, source, data FROM assemblies ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query assemblies: %w", err)
	}
	defer rows.Close()

	var manifests []*metadata.Manifest
	bySource := make(map[string]*metadata.Manifest)
	for rows.Next() {
		var name, source string
		var data []byte
		if err := rows.Scan(&name, &source, &data); err != nil {
			return nil, fmt.Errorf("failed to scan assembly: %w", err)
		}
		part, err := metadata.ParseManifest(source, data)
		if err != nil {
			return nil, fmt.Errorf("stored assembly %s: %w", name, err)
		}
		m, ok := bySource[source]
		if !ok {
			m = &metadata.Manifest{Source: source}
			bySource[source] = m
			manifests = append(manifests, m)
		}
		m.Assemblies = append(m.Assemblies, part.Assemblies...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return manifests, nil
}

func (s *SQLiteStore) DeleteAssembly(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM assemblies WHERE name = ?", name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAssemblyNotFound, name)
	}
	return nil
}

func (s *SQLiteStore) ListAssemblies(ctx context.Context) ([]AssemblyRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, version, path, source, type_count FROM assemblies ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []AssemblyRecord
	for rows.Next() {
		var r AssemblyRecord
		var version, path sql.NullString
		if err := rows.Scan(&r.Name, &version, &path, &r.Source, &r.Types); err != nil {
			return nil, err
		}
		r.Version, r.Path = version.String, path.String
		records = append(records, r)
	}
	return records, rows.Err()
}
