package symbols

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS units (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY,
	url TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS sequence_points (
	unit TEXT NOT NULL,
	token INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	document_id INTEGER NOT NULL REFERENCES documents(id),
	start_line INTEGER NOT NULL,
	start_column INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	end_column INTEGER NOT NULL,
	PRIMARY KEY (unit, token, seq)
);`

// OpenFunc opens the database of a symbol store.
type OpenFunc func(storePath string) (*sql.DB, error)

func openReadOnly(storePath string) (*sql.DB, error) {
	return sql.Open("sqlite3", "file:"+storePath+"?mode=ro")
}

// SQLiteBinder opens sqlite symbol stores that sit next to their units.
type SQLiteBinder struct {
	open   OpenFunc
	logger *zap.Logger
}

func NewSQLiteBinder(logger *zap.Logger) *SQLiteBinder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteBinder{open: openReadOnly, logger: logger}
}

// WithOpener replaces the database opener.
func (b *SQLiteBinder) WithOpener(open OpenFunc) *SQLiteBinder {
	b.open = open
	return b
}

// Open validates the unit's store over a dedicated connection, which is
// closed before Open returns, and returns a reader over the store.
func (b *SQLiteBinder) Open(unitPath string) (Reader, error) {
	path := StorePath(unitPath)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrSymbolsNotFound)
		}
		return nil, err
	}

	db, err := b.open(path)
	if err != nil {
		return nil, err
	}
	unit := filepath.Base(unitPath)
	if err := validateStore(db, unit); err != nil {
		db.Close()
		return nil, err
	}

	b.logger.Debug("opened symbol store", zap.String("store", path), zap.String("unit", unit))
	return &sqliteReader{db: db, unit: unit}, nil
}

func validateStore(db *sql.DB, unit string) error {
	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	var tables int
	err = conn.QueryRowContext(ctx, `
		SELECT count(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('units', 'documents', 'sequence_points')
	`).Scan(&tables)
	if err != nil {
		return err
	}
	if tables != 3 {
		return ErrNoDebugInfo
	}

	var name string
	err = conn.QueryRowContext(ctx, `SELECT name FROM units WHERE name = ?`, unit).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", unit, ErrDebugInfoNotInStore)
	}
	return err
}

type sqliteReader struct {
	db   *sql.DB
	unit string
}

func (r *sqliteReader) SequencePoints(token int) ([]SequencePoint, error) {
	rows, err := r.db.Query(`
		SELECT d.url, p.start_line, p.start_column, p.end_line, p.end_column
		FROM sequence_points p JOIN documents d ON d.id = p.document_id
		WHERE p.unit = ? AND p.token = ?
		ORDER BY p.seq
	`, r.unit, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []SequencePoint
	for rows.Next() {
		var p SequencePoint
		if err := rows.Scan(&p.Document, &p.Line, &p.Column, &p.EndLine, &p.EndColumn); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrMethodNotFound
	}
	return points, nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}

// WriteStore writes the sequence points of a unit into the symbol store next
// to it, replacing whatever the store held for the unit.
func WriteStore(ctx context.Context, unitPath string, methods []Method) error {
	db, err := sql.Open("sqlite3", StorePath(unitPath))
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, storeSchema); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	unit := filepath.Base(unitPath)
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO units (name) VALUES (?)`, unit); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sequence_points WHERE unit = ?`, unit); err != nil {
		return err
	}

	docs := make(map[string]int64)
	for _, m := range methods {
		for seq, p := range m.Points {
			id, ok := docs[p.Document]
			if !ok {
				if id, err = documentID(ctx, tx, p.Document); err != nil {
					return err
				}
				docs[p.Document] = id
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sequence_points (unit, token, seq, document_id, start_line, start_column, end_line, end_column)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, unit, m.Token, seq, id, p.Line, p.Column, p.EndLine, p.EndColumn)
			if err != nil {
				return fmt.Errorf("token %#x: %w", m.Token, err)
			}
		}
	}
	return tx.Commit()
}

func documentID(ctx context.Context, tx *sql.Tx, url string) (int64, error) {
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO documents (url) VALUES (?)`, url); err != nil {
		return 0, err
	}
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM documents WHERE url = ?`, url).Scan(&id)
	return id, err
}
