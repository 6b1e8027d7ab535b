// Package storage implements the embedded graph store: a SQLite database
// under <repo>/.lumora/graph.db holding the Files/Entities/References/
// Imports/CallEdges/FileDeps/CloneFingerprints tables plus a meta table
// tracking the schema version.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go sqlite driver, no cgo required for the store itself

	"github.com/quintant/lumora/internal/logging"
)

// StateDirName is the default name of the per-repo state directory.
const StateDirName = ".lumora"

// DBFileName is the filename of the graph database within the state directory.
const DBFileName = "graph.db"

// DB wraps a SQLite connection with the transaction helpers the rest of the
// engine depends on.
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Open opens or creates the graph store at <stateDir>/graph.db. If the
// database file does not yet exist, the full schema is created. An
// existing file is opened as is, whatever schema version it carries;
// SchemaVersion reports the stored version.
func Open(stateDir string, logger *logging.Logger) (*DB, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	dbPath := filepath.Join(stateDir, DBFileName)
	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-64000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	db := &DB{conn: conn, logger: logger, dbPath: dbPath}

	if !dbExists {
		logger.Info("creating new graph store", map[string]interface{}{"path": dbPath})
		if err := db.initializeSchema(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying *sql.DB for callers that need raw access.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the filesystem path of the opened database file.
func (db *DB) Path() string {
	return db.dbPath
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("failed to rollback transaction", map[string]interface{}{
				"error":          err.Error(),
				"rollback_error": rbErr.Error(),
			})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Exec runs a statement without returning rows.
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query runs a statement that returns rows.
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow runs a statement that returns at most one row.
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// Reset drops and recreates every table and records currentSchemaVersion
// again; a full index run uses it to wipe the store before rebuilding.
func (db *DB) Reset() error {
	return db.WithTx(func(tx *sql.Tx) error {
		tables := []string{
			"clone_fingerprints", "file_deps", "call_edges",
			"imports", "refs", "entities", "files", "meta",
		}
		for _, t := range tables {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + t); err != nil {
				return fmt.Errorf("failed to drop %s: %w", t, err)
			}
		}
		if err := createAllTables(tx); err != nil {
			return err
		}
		return setMeta(tx, "schema_version", fmt.Sprintf("%d", currentSchemaVersion))
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
