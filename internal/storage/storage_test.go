package storage

import (
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quintant/lumora/internal/logging"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "lumora-storage-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	logger := logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.ErrorLevel, Output: io.Discard})
	db, err := Open(tmpDir, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesSchema(t *testing.T) {
	db := setupTestDB(t)

	version, err := db.SchemaVersion()
	require.NoError(t, err)
	require.Equal(t, currentSchemaVersion, version)

	require.True(t, fileExists(db.Path()))
	require.Equal(t, filepath.Base(db.Path()), DBFileName)
}

func TestFileUpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFileRepository(db)

	f := &File{Path: "main.go", Language: "go", ContentHash: "abc", SizeBytes: 10, MtimeUnix: 1, LastIndexedAt: time.Now(), ParseOK: true}
	id1, err := repo.Upsert(f)
	require.NoError(t, err)

	f.ContentHash = "def"
	id2, err := repo.Upsert(f)
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	got, err := repo.GetByPath("main.go")
	require.NoError(t, err)
	require.Equal(t, "def", got.ContentHash)
}

func TestEntityCascadesOnFileDelete(t *testing.T) {
	db := setupTestDB(t)
	files := NewFileRepository(db)
	entities := NewEntityRepository(db)

	fileID, err := files.Upsert(&File{Path: "a.go", Language: "go", ContentHash: "x", LastIndexedAt: time.Now(), ParseOK: true})
	require.NoError(t, err)

	var entityID int64
	require.NoError(t, db.WithTx(func(tx *sql.Tx) error {
		var insertErr error
		entityID, insertErr = entities.Insert(tx, &Entity{FileID: fileID, Name: "Foo", Kind: "func", StartLine: 1, EndLine: 3})
		return insertErr
	}))
	require.NotZero(t, entityID)

	require.NoError(t, files.Delete(fileID))

	got, err := entities.GetByID(entityID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestClearFileChildrenRemovesEntitiesButKeepsFile(t *testing.T) {
	db := setupTestDB(t)
	files := NewFileRepository(db)
	entities := NewEntityRepository(db)

	fileID, err := files.Upsert(&File{Path: "b.go", Language: "go", ContentHash: "x", LastIndexedAt: time.Now(), ParseOK: true})
	require.NoError(t, err)

	require.NoError(t, db.WithTx(func(tx *sql.Tx) error {
		_, err := entities.Insert(tx, &Entity{FileID: fileID, Name: "Bar", Kind: "func", StartLine: 1, EndLine: 2})
		return err
	}))

	require.NoError(t, db.WithTx(func(tx *sql.Tx) error {
		return ClearFileChildren(tx, fileID)
	}))

	remaining, err := entities.ListByFile(fileID)
	require.NoError(t, err)
	require.Empty(t, remaining)

	stillThere, err := files.GetByID(fileID)
	require.NoError(t, err)
	require.NotNil(t, stillThere)
}
