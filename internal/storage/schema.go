package storage

import (
	"database/sql"
	"fmt"
)

// currentSchemaVersion is bumped whenever the table layout changes in a
// way that is not backward compatible. It is written to the meta table
// when the schema is created or reset. Nothing compares the stored value
// against it when a store is opened: a store carrying another version
// is used as is.
const currentSchemaVersion = 1

func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createAllTables(tx); err != nil {
			return err
		}
		if err := setMeta(tx, "schema_version", fmt.Sprintf("%d", currentSchemaVersion)); err != nil {
			return err
		}
		db.logger.Info("graph store schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})
		return nil
	})
}

func createAllTables(tx *sql.Tx) error {
	if err := createMetaTable(tx); err != nil {
		return err
	}
	if err := createFilesTable(tx); err != nil {
		return err
	}
	if err := createEntitiesTable(tx); err != nil {
		return err
	}
	if err := createReferencesTable(tx); err != nil {
		return err
	}
	if err := createImportsTable(tx); err != nil {
		return err
	}
	if err := createCallEdgesTable(tx); err != nil {
		return err
	}
	if err := createFileDepsTable(tx); err != nil {
		return err
	}
	if err := createCloneFingerprintsTable(tx); err != nil {
		return err
	}
	return nil
}

// SchemaVersion returns the schema version recorded in the meta table, or
// 0 if the database predates version tracking (including a brand-new,
// empty connection on which initializeSchema has not yet run).
func (db *DB) SchemaVersion() (int, error) {
	var raw string
	err := db.conn.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		// meta table itself may not exist yet.
		return 0, nil
	}
	var version int
	if _, scanErr := fmt.Sscanf(raw, "%d", &version); scanErr != nil {
		return 0, scanErr
	}
	return version, nil
}

func createMetaTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	return err
}

func setMeta(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetMeta reads a single meta key outside of a transaction.
func (db *DB) GetMeta(key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetMeta writes a single meta key outside of a transaction.
func (db *DB) SetMeta(key, value string) error {
	return db.WithTx(func(tx *sql.Tx) error {
		return setMeta(tx, key, value)
	})
}

// Files table. One row per indexed source file.
func createFilesTable(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			path           TEXT NOT NULL UNIQUE,
			language       TEXT NOT NULL,
			content_hash   TEXT NOT NULL,
			size_bytes     INTEGER NOT NULL,
			mtime_unix     INTEGER NOT NULL,
			last_indexed_at TEXT NOT NULL,
			parse_ok       INTEGER NOT NULL DEFAULT 1
		)
	`); err != nil {
		return fmt.Errorf("create files table: %w", err)
	}
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_files_language ON files(language)",
		"CREATE INDEX IF NOT EXISTS idx_files_content_hash ON files(content_hash)",
	}
	return execAll(tx, indexes)
}

// Entities table. Definitions: functions, types, methods, etc.
func createEntitiesTable(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS entities (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			file_id     INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			name        TEXT NOT NULL,
			kind        TEXT NOT NULL,
			start_line  INTEGER NOT NULL,
			end_line    INTEGER NOT NULL,
			signature   TEXT,
			container_id INTEGER REFERENCES entities(id) ON DELETE SET NULL,
			exported    INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		return fmt.Errorf("create entities table: %w", err)
	}
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_entities_file_id ON entities(file_id)",
		"CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name)",
		"CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind)",
		"CREATE INDEX IF NOT EXISTS idx_entities_container_id ON entities(container_id)",
	}
	return execAll(tx, indexes)
}

// References table. Every identifier use, resolved or not.
func createReferencesTable(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS refs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			file_id       INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			name          TEXT NOT NULL,
			line          INTEGER NOT NULL,
			column        INTEGER NOT NULL,
			is_call       INTEGER NOT NULL DEFAULT 0,
			target_entity_id INTEGER REFERENCES entities(id) ON DELETE SET NULL,
			resolved      INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		return fmt.Errorf("create refs table: %w", err)
	}
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_references_file_id ON refs(file_id)",
		"CREATE INDEX IF NOT EXISTS idx_references_name ON refs(name)",
		"CREATE INDEX IF NOT EXISTS idx_references_target_entity_id ON refs(target_entity_id)",
		"CREATE INDEX IF NOT EXISTS idx_references_is_call ON refs(is_call)",
	}
	return execAll(tx, indexes)
}

// Imports table. Per-file import/require/use statements, the edges that
// the cross-file resolution pass walks to build the import closure.
func createImportsTable(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS imports (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			file_id     INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			raw_path    TEXT NOT NULL,
			resolved_file_id INTEGER REFERENCES files(id) ON DELETE SET NULL,
			alias       TEXT
		)
	`); err != nil {
		return fmt.Errorf("create imports table: %w", err)
	}
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_imports_file_id ON imports(file_id)",
		"CREATE INDEX IF NOT EXISTS idx_imports_resolved_file_id ON imports(resolved_file_id)",
	}
	return execAll(tx, indexes)
}

// CallEdges table. Materialized caller -> callee entity edges, derived
// from resolved call references during the resolution pass.
func createCallEdgesTable(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS call_edges (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			caller_entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			callee_entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			reference_id     INTEGER NOT NULL REFERENCES refs(id) ON DELETE CASCADE,

			UNIQUE(caller_entity_id, callee_entity_id, reference_id)
		)
	`); err != nil {
		return fmt.Errorf("create call_edges table: %w", err)
	}
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_call_edges_caller ON call_edges(caller_entity_id)",
		"CREATE INDEX IF NOT EXISTS idx_call_edges_callee ON call_edges(callee_entity_id)",
	}
	return execAll(tx, indexes)
}

// FileDeps table. File-to-file dependency edges derived from resolved
// imports and cross-file calls, the substrate dependency_path and minimal_slice walk.
func createFileDepsTable(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS file_deps (
			from_file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			to_file_id   INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			kind         TEXT NOT NULL,

			PRIMARY KEY (from_file_id, to_file_id, kind)
		)
	`); err != nil {
		return fmt.Errorf("create file_deps table: %w", err)
	}
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_file_deps_from ON file_deps(from_file_id)",
		"CREATE INDEX IF NOT EXISTS idx_file_deps_to ON file_deps(to_file_id)",
	}
	return execAll(tx, indexes)
}

// CloneFingerprints table. Hashed 5-line windows per file, the substrate
// of clone_matches.
func createCloneFingerprintsTable(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS clone_fingerprints (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			file_id    INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			window_hash INTEGER NOT NULL,
			start_line INTEGER NOT NULL,
			end_line   INTEGER NOT NULL,
			weight     INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create clone_fingerprints table: %w", err)
	}
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_clone_fingerprints_file_id ON clone_fingerprints(file_id)",
		"CREATE INDEX IF NOT EXISTS idx_clone_fingerprints_window_hash ON clone_fingerprints(window_hash)",
	}
	return execAll(tx, indexes)
}

func execAll(tx *sql.Tx, statements []string) error {
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}
