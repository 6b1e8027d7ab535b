package query

import (
	"github.com/quintant/lumora/internal/config"
	"github.com/quintant/lumora/internal/storage"
)

// Engine answers the seven read-only graph queries against an
// already-open store. It never mutates the store; failures resolve to
// an empty result plus a Diagnostics entry rather than an error,
// except for malformed input, which is InvalidArgument.
type Engine struct {
	repoRoot string
	cfg      *config.Config

	files        *storage.FileRepository
	entities     *storage.EntityRepository
	refs         *storage.RefRepository
	imports      *storage.ImportRepository
	callEdges    *storage.CallEdgeRepository
	fileDeps     *storage.FileDepRepository
	fingerprints *storage.CloneFingerprintRepository
}

// NewEngine wires an Engine against db's repositories.
func NewEngine(repoRoot string, db *storage.DB, cfg *config.Config) *Engine {
	return &Engine{
		repoRoot:     repoRoot,
		cfg:          cfg,
		files:        storage.NewFileRepository(db),
		entities:     storage.NewEntityRepository(db),
		refs:         storage.NewRefRepository(db),
		imports:      storage.NewImportRepository(db),
		callEdges:    storage.NewCallEdgeRepository(db),
		fileDeps:     storage.NewFileDepRepository(db),
		fingerprints: storage.NewCloneFingerprintRepository(db),
	}
}

func (e *Engine) limits() (int, int) {
	return e.cfg.Query.DefaultLimit, e.cfg.Query.MaxLimit
}

// fileMap builds a lookup of every File keyed by id, used by the
// per-operation freshness blocks.
func (e *Engine) fileMap() (map[int64]*storage.File, error) {
	all, err := e.files.ListAll()
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*storage.File, len(all))
	for _, f := range all {
		out[f.ID] = f
	}
	return out, nil
}
