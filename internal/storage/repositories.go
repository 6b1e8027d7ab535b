package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// File is one row of the files table: an indexed source file and its
// content fingerprint.
type File struct {
	ID            int64
	Path          string
	Language      string
	ContentHash   string
	SizeBytes     int64
	MtimeUnix     int64
	LastIndexedAt time.Time
	ParseOK       bool
}

// Entity is a definition: a function, method, type, constant, or other
// named construct produced by the extractor.
type Entity struct {
	ID          int64
	FileID      int64
	Name        string
	Kind        string
	StartLine   int
	EndLine     int
	Signature   string
	ContainerID *int64
	Exported    bool
}

// Ref is a single identifier use, resolved or not.
type Ref struct {
	ID             int64
	FileID         int64
	Name           string
	Line           int
	Column         int
	IsCall         bool
	TargetEntityID *int64
	Resolved       bool
}

// Import is a single import/require/use statement.
type Import struct {
	ID             int64
	FileID         int64
	RawPath        string
	ResolvedFileID *int64
	Alias          string
}

// CallEdge is a materialized caller -> callee entity edge.
type CallEdge struct {
	ID             int64
	CallerEntityID int64
	CalleeEntityID int64
	ReferenceID    int64
}

// FileDepKind enumerates the provenance of a FileDep edge.
type FileDepKind string

const (
	FileDepImport FileDepKind = "import"
	FileDepCall   FileDepKind = "call"
)

// FileDep is a file-to-file dependency edge.
type FileDep struct {
	FromFileID int64
	ToFileID   int64
	Kind       FileDepKind
}

// CloneFingerprint is one hashed window of source lines.
type CloneFingerprint struct {
	ID         int64
	FileID     int64
	WindowHash int64
	StartLine  int
	EndLine    int
	Weight     int
}

// FileRepository provides CRUD operations on the files table.
type FileRepository struct{ db *DB }

func NewFileRepository(db *DB) *FileRepository { return &FileRepository{db: db} }

// Upsert inserts or updates a file row by path, returning its id.
func (r *FileRepository) Upsert(f *File) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO files (path, language, content_hash, size_bytes, mtime_unix, last_indexed_at, parse_ok)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language = excluded.language,
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			mtime_unix = excluded.mtime_unix,
			last_indexed_at = excluded.last_indexed_at,
			parse_ok = excluded.parse_ok
	`, f.Path, f.Language, f.ContentHash, f.SizeBytes, f.MtimeUnix, f.LastIndexedAt.Format(time.RFC3339), boolToInt(f.ParseOK))
	if err != nil {
		return 0, fmt.Errorf("upsert file %s: %w", f.Path, err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		// Conflict path does not report LastInsertId on some drivers; look it up.
		return r.IDByPath(f.Path)
	}
	return id, nil
}

// UpsertTx is Upsert run inside a caller-owned transaction, used by the
// indexer so a file's row and its child records commit atomically.
func (r *FileRepository) UpsertTx(tx *sql.Tx, f *File) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO files (path, language, content_hash, size_bytes, mtime_unix, last_indexed_at, parse_ok)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language = excluded.language,
			content_hash = excluded.content_hash,
			size_bytes = excluded.size_bytes,
			mtime_unix = excluded.mtime_unix,
			last_indexed_at = excluded.last_indexed_at,
			parse_ok = excluded.parse_ok
	`, f.Path, f.Language, f.ContentHash, f.SizeBytes, f.MtimeUnix, f.LastIndexedAt.Format(time.RFC3339), boolToInt(f.ParseOK))
	if err != nil {
		return 0, fmt.Errorf("upsert file %s: %w", f.Path, err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		var existing int64
		if scanErr := tx.QueryRow("SELECT id FROM files WHERE path = ?", f.Path).Scan(&existing); scanErr != nil {
			return 0, scanErr
		}
		return existing, nil
	}
	return id, nil
}

func (r *FileRepository) IDByPath(path string) (int64, error) {
	var id int64
	err := r.db.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&id)
	return id, err
}

func (r *FileRepository) GetByPath(path string) (*File, error) {
	row := r.db.QueryRow(`
		SELECT id, path, language, content_hash, size_bytes, mtime_unix, last_indexed_at, parse_ok
		FROM files WHERE path = ?
	`, path)
	return scanFile(row)
}

func (r *FileRepository) GetByID(id int64) (*File, error) {
	row := r.db.QueryRow(`
		SELECT id, path, language, content_hash, size_bytes, mtime_unix, last_indexed_at, parse_ok
		FROM files WHERE id = ?
	`, id)
	return scanFile(row)
}

func (r *FileRepository) ListAll() ([]*File, error) {
	rows, err := r.db.Query(`
		SELECT id, path, language, content_hash, size_bytes, mtime_unix, last_indexed_at, parse_ok
		FROM files ORDER BY path
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*File
	for rows.Next() {
		f, err := scanFileRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Delete removes a file and all of its dependent rows via ON DELETE CASCADE.
func (r *FileRepository) Delete(id int64) error {
	_, err := r.db.Exec("DELETE FROM files WHERE id = ?", id)
	return err
}

func scanFile(row *sql.Row) (*File, error) {
	var f File
	var lastIndexedAt string
	var parseOK int
	err := row.Scan(&f.ID, &f.Path, &f.Language, &f.ContentHash, &f.SizeBytes, &f.MtimeUnix, &lastIndexedAt, &parseOK)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.LastIndexedAt, _ = time.Parse(time.RFC3339, lastIndexedAt)
	f.ParseOK = parseOK != 0
	return &f, nil
}

func scanFileRows(rows *sql.Rows) (*File, error) {
	var f File
	var lastIndexedAt string
	var parseOK int
	if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.ContentHash, &f.SizeBytes, &f.MtimeUnix, &lastIndexedAt, &parseOK); err != nil {
		return nil, err
	}
	f.LastIndexedAt, _ = time.Parse(time.RFC3339, lastIndexedAt)
	f.ParseOK = parseOK != 0
	return &f, nil
}

// EntityRepository provides CRUD operations on the entities table.
type EntityRepository struct{ db *DB }

func NewEntityRepository(db *DB) *EntityRepository { return &EntityRepository{db: db} }

func (r *EntityRepository) Insert(tx *sql.Tx, e *Entity) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO entities (file_id, name, kind, start_line, end_line, signature, container_id, exported)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.FileID, e.Name, e.Kind, e.StartLine, e.EndLine, e.Signature, e.ContainerID, boolToInt(e.Exported))
	if err != nil {
		return 0, fmt.Errorf("insert entity %s: %w", e.Name, err)
	}
	return res.LastInsertId()
}

func (r *EntityRepository) GetByID(id int64) (*Entity, error) {
	row := r.db.QueryRow(`
		SELECT id, file_id, name, kind, start_line, end_line, signature, container_id, exported
		FROM entities WHERE id = ?
	`, id)
	return scanEntity(row)
}

func (r *EntityRepository) ListByFile(fileID int64) ([]*Entity, error) {
	rows, err := r.db.Query(`
		SELECT id, file_id, name, kind, start_line, end_line, signature, container_id, exported
		FROM entities WHERE file_id = ? ORDER BY start_line
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

// FindByName returns every entity with an exact name match, optionally
// restricted by file glob and language via the caller's own filtering
// (the join against files happens in query.Engine, not here).
func (r *EntityRepository) FindByName(name string) ([]*Entity, error) {
	rows, err := r.db.Query(`
		SELECT id, file_id, name, kind, start_line, end_line, signature, container_id, exported
		FROM entities WHERE name = ? ORDER BY file_id, start_line
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

// AllNames returns every entity ordered by name. selector_discover ranks
// exact, prefix, substring, then subsequence matches itself over this
// superset fetch (SQLite has no native subsequence operator).
func (r *EntityRepository) AllNames() ([]*Entity, error) {
	rows, err := r.db.Query(`
		SELECT id, file_id, name, kind, start_line, end_line, signature, container_id, exported
		FROM entities ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

func scanEntity(row *sql.Row) (*Entity, error) {
	var e Entity
	var signature sql.NullString
	var containerID sql.NullInt64
	var exported int
	err := row.Scan(&e.ID, &e.FileID, &e.Name, &e.Kind, &e.StartLine, &e.EndLine, &signature, &containerID, &exported)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Signature = signature.String
	if containerID.Valid {
		e.ContainerID = &containerID.Int64
	}
	e.Exported = exported != 0
	return &e, nil
}

func scanEntities(rows *sql.Rows) ([]*Entity, error) {
	var out []*Entity
	for rows.Next() {
		var e Entity
		var signature sql.NullString
		var containerID sql.NullInt64
		var exported int
		if err := rows.Scan(&e.ID, &e.FileID, &e.Name, &e.Kind, &e.StartLine, &e.EndLine, &signature, &containerID, &exported); err != nil {
			return nil, err
		}
		e.Signature = signature.String
		if containerID.Valid {
			e.ContainerID = &containerID.Int64
		}
		e.Exported = exported != 0
		out = append(out, &e)
	}
	return out, rows.Err()
}

// RefRepository provides CRUD operations on the refs table.
type RefRepository struct{ db *DB }

func NewRefRepository(db *DB) *RefRepository { return &RefRepository{db: db} }

func (r *RefRepository) Insert(tx *sql.Tx, ref *Ref) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO refs (file_id, name, line, column, is_call, target_entity_id, resolved)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ref.FileID, ref.Name, ref.Line, ref.Column, boolToInt(ref.IsCall), ref.TargetEntityID, boolToInt(ref.Resolved))
	if err != nil {
		return 0, fmt.Errorf("insert ref %s: %w", ref.Name, err)
	}
	return res.LastInsertId()
}

func (r *RefRepository) SetResolution(tx *sql.Tx, refID int64, targetEntityID int64) error {
	_, err := tx.Exec(`UPDATE refs SET target_entity_id = ?, resolved = 1 WHERE id = ?`, targetEntityID, refID)
	return err
}

func (r *RefRepository) GetByID(id int64) (*Ref, error) {
	row := r.db.QueryRow(`
		SELECT id, file_id, name, line, column, is_call, target_entity_id, resolved
		FROM refs WHERE id = ?
	`, id)
	var ref Ref
	var targetEntityID sql.NullInt64
	var isCall, resolved int
	err := row.Scan(&ref.ID, &ref.FileID, &ref.Name, &ref.Line, &ref.Column, &isCall, &targetEntityID, &resolved)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ref.IsCall = isCall != 0
	ref.Resolved = resolved != 0
	if targetEntityID.Valid {
		ref.TargetEntityID = &targetEntityID.Int64
	}
	return &ref, nil
}

func (r *RefRepository) ListByFile(fileID int64) ([]*Ref, error) {
	rows, err := r.db.Query(`
		SELECT id, file_id, name, line, column, is_call, target_entity_id, resolved
		FROM refs WHERE file_id = ? ORDER BY line, column
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRefs(rows)
}

func (r *RefRepository) ListByName(name string, callsOnly bool) ([]*Ref, error) {
	query := `SELECT id, file_id, name, line, column, is_call, target_entity_id, resolved FROM refs WHERE name = ?`
	if callsOnly {
		query += " AND is_call = 1"
	}
	query += " ORDER BY file_id, line"
	rows, err := r.db.Query(query, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRefs(rows)
}

func (r *RefRepository) ListCallsToEntity(entityID int64) ([]*Ref, error) {
	rows, err := r.db.Query(`
		SELECT id, file_id, name, line, column, is_call, target_entity_id, resolved
		FROM refs WHERE target_entity_id = ? AND is_call = 1 ORDER BY file_id, line
	`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRefs(rows)
}

func scanRefs(rows *sql.Rows) ([]*Ref, error) {
	var out []*Ref
	for rows.Next() {
		var ref Ref
		var targetEntityID sql.NullInt64
		var isCall, resolved int
		if err := rows.Scan(&ref.ID, &ref.FileID, &ref.Name, &ref.Line, &ref.Column, &isCall, &targetEntityID, &resolved); err != nil {
			return nil, err
		}
		ref.IsCall = isCall != 0
		ref.Resolved = resolved != 0
		if targetEntityID.Valid {
			ref.TargetEntityID = &targetEntityID.Int64
		}
		out = append(out, &ref)
	}
	return out, rows.Err()
}

// ImportRepository provides CRUD operations on the imports table.
type ImportRepository struct{ db *DB }

func NewImportRepository(db *DB) *ImportRepository { return &ImportRepository{db: db} }

func (r *ImportRepository) Insert(tx *sql.Tx, imp *Import) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO imports (file_id, raw_path, resolved_file_id, alias)
		VALUES (?, ?, ?, ?)
	`, imp.FileID, imp.RawPath, imp.ResolvedFileID, imp.Alias)
	if err != nil {
		return 0, fmt.Errorf("insert import %s: %w", imp.RawPath, err)
	}
	return res.LastInsertId()
}

func (r *ImportRepository) SetResolution(tx *sql.Tx, importID, resolvedFileID int64) error {
	_, err := tx.Exec(`UPDATE imports SET resolved_file_id = ? WHERE id = ?`, resolvedFileID, importID)
	return err
}

func (r *ImportRepository) ListByFile(fileID int64) ([]*Import, error) {
	rows, err := r.db.Query(`
		SELECT id, file_id, raw_path, resolved_file_id, alias FROM imports WHERE file_id = ?
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanImports(rows)
}

// ListImportersOf returns every import row that resolves to fileID, i.e.
// the reverse edge the indexer uses to find files that must be
// re-resolved when fileID changes.
func (r *ImportRepository) ListImportersOf(fileID int64) ([]*Import, error) {
	rows, err := r.db.Query(`
		SELECT id, file_id, raw_path, resolved_file_id, alias FROM imports WHERE resolved_file_id = ?
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanImports(rows)
}

func scanImports(rows *sql.Rows) ([]*Import, error) {
	var out []*Import
	for rows.Next() {
		var imp Import
		var resolvedFileID sql.NullInt64
		var alias sql.NullString
		if err := rows.Scan(&imp.ID, &imp.FileID, &imp.RawPath, &resolvedFileID, &alias); err != nil {
			return nil, err
		}
		if resolvedFileID.Valid {
			imp.ResolvedFileID = &resolvedFileID.Int64
		}
		imp.Alias = alias.String
		out = append(out, &imp)
	}
	return out, rows.Err()
}

// CallEdgeRepository provides CRUD operations on the call_edges table.
type CallEdgeRepository struct{ db *DB }

func NewCallEdgeRepository(db *DB) *CallEdgeRepository { return &CallEdgeRepository{db: db} }

func (r *CallEdgeRepository) Insert(tx *sql.Tx, e *CallEdge) error {
	_, err := tx.Exec(`
		INSERT INTO call_edges (caller_entity_id, callee_entity_id, reference_id)
		VALUES (?, ?, ?)
		ON CONFLICT(caller_entity_id, callee_entity_id, reference_id) DO NOTHING
	`, e.CallerEntityID, e.CalleeEntityID, e.ReferenceID)
	return err
}

func (r *CallEdgeRepository) ListCallers(calleeEntityID int64) ([]*CallEdge, error) {
	rows, err := r.db.Query(`
		SELECT id, caller_entity_id, callee_entity_id, reference_id FROM call_edges WHERE callee_entity_id = ?
	`, calleeEntityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCallEdges(rows)
}

func (r *CallEdgeRepository) ListCallees(callerEntityID int64) ([]*CallEdge, error) {
	rows, err := r.db.Query(`
		SELECT id, caller_entity_id, callee_entity_id, reference_id FROM call_edges WHERE caller_entity_id = ?
	`, callerEntityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCallEdges(rows)
}

func scanCallEdges(rows *sql.Rows) ([]*CallEdge, error) {
	var out []*CallEdge
	for rows.Next() {
		var e CallEdge
		if err := rows.Scan(&e.ID, &e.CallerEntityID, &e.CalleeEntityID, &e.ReferenceID); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// FileDepRepository provides CRUD operations on the file_deps table.
type FileDepRepository struct{ db *DB }

func NewFileDepRepository(db *DB) *FileDepRepository { return &FileDepRepository{db: db} }

func (r *FileDepRepository) Insert(tx *sql.Tx, dep *FileDep) error {
	_, err := tx.Exec(`
		INSERT INTO file_deps (from_file_id, to_file_id, kind) VALUES (?, ?, ?)
		ON CONFLICT(from_file_id, to_file_id, kind) DO NOTHING
	`, dep.FromFileID, dep.ToFileID, string(dep.Kind))
	return err
}

func (r *FileDepRepository) ListFrom(fileID int64) ([]*FileDep, error) {
	rows, err := r.db.Query(`SELECT from_file_id, to_file_id, kind FROM file_deps WHERE from_file_id = ?`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFileDeps(rows)
}

func (r *FileDepRepository) ListTo(fileID int64) ([]*FileDep, error) {
	rows, err := r.db.Query(`SELECT from_file_id, to_file_id, kind FROM file_deps WHERE to_file_id = ?`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFileDeps(rows)
}

func scanFileDeps(rows *sql.Rows) ([]*FileDep, error) {
	var out []*FileDep
	for rows.Next() {
		var d FileDep
		var kind string
		if err := rows.Scan(&d.FromFileID, &d.ToFileID, &kind); err != nil {
			return nil, err
		}
		d.Kind = FileDepKind(kind)
		out = append(out, &d)
	}
	return out, rows.Err()
}

// CloneFingerprintRepository provides CRUD operations on the
// clone_fingerprints table.
type CloneFingerprintRepository struct{ db *DB }

func NewCloneFingerprintRepository(db *DB) *CloneFingerprintRepository {
	return &CloneFingerprintRepository{db: db}
}

func (r *CloneFingerprintRepository) Insert(tx *sql.Tx, fp *CloneFingerprint) error {
	_, err := tx.Exec(`
		INSERT INTO clone_fingerprints (file_id, window_hash, start_line, end_line, weight)
		VALUES (?, ?, ?, ?, ?)
	`, fp.FileID, fp.WindowHash, fp.StartLine, fp.EndLine, fp.Weight)
	return err
}

// ListByHash finds every fingerprint window sharing a hash, the core
// lookup for clone_matches.
func (r *CloneFingerprintRepository) ListByHash(hash int64) ([]*CloneFingerprint, error) {
	rows, err := r.db.Query(`
		SELECT id, file_id, window_hash, start_line, end_line, weight
		FROM clone_fingerprints WHERE window_hash = ?
	`, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFingerprints(rows)
}

func (r *CloneFingerprintRepository) ListByFile(fileID int64) ([]*CloneFingerprint, error) {
	rows, err := r.db.Query(`
		SELECT id, file_id, window_hash, start_line, end_line, weight
		FROM clone_fingerprints WHERE file_id = ?
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFingerprints(rows)
}

func scanFingerprints(rows *sql.Rows) ([]*CloneFingerprint, error) {
	var out []*CloneFingerprint
	for rows.Next() {
		var fp CloneFingerprint
		if err := rows.Scan(&fp.ID, &fp.FileID, &fp.WindowHash, &fp.StartLine, &fp.EndLine, &fp.Weight); err != nil {
			return nil, err
		}
		out = append(out, &fp)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ClearFileChildren removes every entity, ref, import, and clone
// fingerprint owned by fileID without removing the file row itself.
// The indexer calls this before re-extracting a changed file so the
// commit that follows is a clean replace, not an accumulate.
func ClearFileChildren(tx *sql.Tx, fileID int64) error {
	stmts := []string{
		"DELETE FROM entities WHERE file_id = ?",
		"DELETE FROM refs WHERE file_id = ?",
		"DELETE FROM imports WHERE file_id = ?",
		"DELETE FROM clone_fingerprints WHERE file_id = ?",
		"DELETE FROM file_deps WHERE from_file_id = ?",
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, fileID); err != nil {
			return fmt.Errorf("clear file children: %w", err)
		}
	}
	return nil
}
