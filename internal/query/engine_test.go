package query

import (
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quintant/lumora/internal/config"
	"github.com/quintant/lumora/internal/logging"
	"github.com/quintant/lumora/internal/storage"
)

// fixture wraps an empty store and its repositories; each test adds
// the files, entities, refs, and edges it needs by hand.
type fixture struct {
	t      *testing.T
	db     *storage.DB
	engine *Engine

	files    *storage.FileRepository
	entities *storage.EntityRepository
	refs     *storage.RefRepository
	imports  *storage.ImportRepository
	edges    *storage.CallEdgeRepository
	deps     *storage.FileDepRepository
	fps      *storage.CloneFingerprintRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.ErrorLevel, Output: io.Discard})
	db, err := storage.Open(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.DefaultConfig()
	return &fixture{
		t:        t,
		db:       db,
		engine:   NewEngine("/repo", db, cfg),
		files:    storage.NewFileRepository(db),
		entities: storage.NewEntityRepository(db),
		refs:     storage.NewRefRepository(db),
		imports:  storage.NewImportRepository(db),
		edges:    storage.NewCallEdgeRepository(db),
		deps:     storage.NewFileDepRepository(db),
		fps:      storage.NewCloneFingerprintRepository(db),
	}
}

func (f *fixture) addFile(path, lang string) *storage.File {
	id, err := f.files.Upsert(&storage.File{
		Path: path, Language: lang, ContentHash: "h-" + path,
		SizeBytes: 100, MtimeUnix: 1, LastIndexedAt: time.Now(), ParseOK: true,
	})
	require.NoError(f.t, err)
	got, err := f.files.GetByID(id)
	require.NoError(f.t, err)
	return got
}

func (f *fixture) addEntity(fileID int64, name, kind string, start, end int) *storage.Entity {
	var id int64
	require.NoError(f.t, f.db.WithTx(func(tx *sql.Tx) error {
		var err error
		id, err = f.entities.Insert(tx, &storage.Entity{
			FileID: fileID, Name: name, Kind: kind, StartLine: start, EndLine: end, Exported: true,
		})
		return err
	}))
	got, err := f.entities.GetByID(id)
	require.NoError(f.t, err)
	return got
}

func (f *fixture) addRef(fileID int64, name string, line int, isCall bool, target *int64) *storage.Ref {
	var id int64
	require.NoError(f.t, f.db.WithTx(func(tx *sql.Tx) error {
		var err error
		id, err = f.refs.Insert(tx, &storage.Ref{
			FileID: fileID, Name: name, Line: line, Column: 1,
			IsCall: isCall, TargetEntityID: target, Resolved: target != nil,
		})
		return err
	}))
	return &storage.Ref{ID: id, FileID: fileID, Name: name, Line: line, IsCall: isCall, TargetEntityID: target, Resolved: target != nil}
}

func (f *fixture) addCallEdge(callerID, calleeID, refID int64) {
	require.NoError(f.t, f.db.WithTx(func(tx *sql.Tx) error {
		return f.edges.Insert(tx, &storage.CallEdge{CallerEntityID: callerID, CalleeEntityID: calleeID, ReferenceID: refID})
	}))
}

func (f *fixture) addFileDep(fromID, toID int64, kind storage.FileDepKind) {
	require.NoError(f.t, f.db.WithTx(func(tx *sql.Tx) error {
		return f.deps.Insert(tx, &storage.FileDep{FromFileID: fromID, ToFileID: toID, Kind: kind})
	}))
}

func int64Ptr(v int64) *int64 { return &v }
