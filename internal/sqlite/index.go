// Package sqlite builds a SQLite query index over the maintenance table.
//
// The CSV table stays the source of truth. An Index is rebuilt from it on
// every Build and is safe to delete at any time.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// IndexFile is the default index file name inside the data directory.
const IndexFile = "maintlog.db"

// Index is a read-only SQLite copy of a table.
type Index struct {
	db   *sql.DB
	path string
}

// Build writes tbl to a fresh SQLite database at path, replacing any
// existing file. Row numbers are 1-based positions in tbl.
func Build(ctx context.Context, path string, tbl *types.Table) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	// Remove the existing database so the schema is always fresh.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove old index: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if err := insertRecords(ctx, db, tbl); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db, path: path}, nil
}

func insertRecords(ctx context.Context, db *sql.DB, tbl *types.Table) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records
		(row_num, timestamp, equipment, technician, stage, reference, status, remarks, photo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range tbl.Records {
		if _, err := stmt.ExecContext(ctx, i+1,
			r.Timestamp, r.Equipment, r.Technician, r.Stage,
			r.Reference, r.Status, r.Remarks, r.Photo); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (ix *Index) Path() string {
	return ix.path
}

// Close releases the database handle. The file is left in place.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Count returns the number of indexed records.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
