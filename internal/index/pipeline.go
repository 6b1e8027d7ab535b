// Package index orchestrates scan -> diff -> extract -> commit -> resolve,
// the full and incremental indexing modes described by the engine, plus
// the run-lock and run-metadata bookkeeping that guard and summarize a run.
package index

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/quintant/lumora/internal/clone"
	"github.com/quintant/lumora/internal/config"
	"github.com/quintant/lumora/internal/extract"
	"github.com/quintant/lumora/internal/logging"
	"github.com/quintant/lumora/internal/scan"
	"github.com/quintant/lumora/internal/storage"
)

// Counters summarizes one indexing run, surfaced by the CLI and the
// index_repository tool operation.
type Counters struct {
	FilesScanned   int `json:"filesScanned"`
	FilesChanged   int `json:"filesChanged"`
	FilesUnchanged int `json:"filesUnchanged"`
	FilesRemoved   int `json:"filesRemoved"`
	ParseErrors    int `json:"parseErrors"`
}

// Indexer orchestrates one repository's worth of scanning, extraction,
// and graph commits. Extraction runs on a bounded worker pool; commits
// are serialized through a single committer, per the engine's
// single-writer-many-readers concurrency model.
type Indexer struct {
	repoRoot string
	stateDir string
	db       *storage.DB
	registry *extract.Registry
	cfg      *config.Config
	logger   *logging.Logger

	files        *storage.FileRepository
	entities     *storage.EntityRepository
	refs         *storage.RefRepository
	imports      *storage.ImportRepository
	callEdges    *storage.CallEdgeRepository
	fileDeps     *storage.FileDepRepository
	fingerprints *storage.CloneFingerprintRepository
}

// NewIndexer wires an Indexer against an already-open graph store.
func NewIndexer(repoRoot, stateDir string, db *storage.DB, registry *extract.Registry, cfg *config.Config, logger *logging.Logger) *Indexer {
	return &Indexer{
		repoRoot: repoRoot,
		stateDir: stateDir,
		db:       db,
		registry: registry,
		cfg:      cfg,
		logger:   logger,

		files:        storage.NewFileRepository(db),
		entities:     storage.NewEntityRepository(db),
		refs:         storage.NewRefRepository(db),
		imports:      storage.NewImportRepository(db),
		callEdges:    storage.NewCallEdgeRepository(db),
		fileDeps:     storage.NewFileDepRepository(db),
		fingerprints: storage.NewCloneFingerprintRepository(db),
	}
}

func (ix *Indexer) scanOptions() scan.Options {
	return scan.Options{
		StateDirName: ix.cfg.StateDir,
		MaxFileSize:  ix.cfg.Scan.MaxFileSizeBytes,
		IgnoreGlobs:  ix.cfg.Scan.IgnoreGlobs,
	}
}

// RunFull wipes the graph store and re-extracts every scanned file.
func (ix *Indexer) RunFull(ctx context.Context) (*Counters, error) {
	lock, err := AcquireLock(ix.stateDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	start := time.Now()

	entries, err := scan.Scan(ctx, ix.repoRoot, ix.scanOptions())
	if err != nil {
		return nil, fmt.Errorf("scanning repository: %w", err)
	}

	if err := ix.db.Reset(); err != nil {
		return nil, fmt.Errorf("resetting graph store for full index: %w", err)
	}

	counters, touched, err := ix.runBatch(ctx, entries)
	if err != nil {
		return counters, err
	}
	counters.FilesScanned = len(entries)

	if err := ix.resolveTouched(ctx, touched); err != nil {
		return counters, fmt.Errorf("resolving references: %w", err)
	}

	ix.saveRunMeta("full", start, counters)
	return counters, nil
}

// RunIncremental diffs the scan against stored File rows: unchanged
// files are skipped, new/changed files are re-extracted, and files
// present in the store but missing from the scan are deleted.
func (ix *Indexer) RunIncremental(ctx context.Context) (*Counters, error) {
	lock, err := AcquireLock(ix.stateDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	start := time.Now()

	entries, err := scan.Scan(ctx, ix.repoRoot, ix.scanOptions())
	if err != nil {
		return nil, fmt.Errorf("scanning repository: %w", err)
	}

	existing, err := ix.files.ListAll()
	if err != nil {
		return nil, fmt.Errorf("loading existing file rows: %w", err)
	}
	existingByPath := make(map[string]*storage.File, len(existing))
	for _, f := range existing {
		existingByPath[f.Path] = f
	}

	seen := make(map[string]struct{}, len(entries))
	var changed []scan.Entry
	counters := &Counters{FilesScanned: len(entries)}

	for _, entry := range entries {
		seen[entry.Path] = struct{}{}
		prior, ok := existingByPath[entry.Path]
		if ok && prior.ContentHash == entry.ContentHash && !entry.Oversized {
			counters.FilesUnchanged++
			continue
		}
		changed = append(changed, entry)
	}

	for path, f := range existingByPath {
		if _, ok := seen[path]; !ok {
			if err := ix.files.Delete(f.ID); err != nil {
				return counters, fmt.Errorf("deleting removed file %s: %w", path, err)
			}
			counters.FilesRemoved++
		}
	}

	batchCounters, touched, err := ix.runBatch(ctx, changed)
	if err != nil {
		return counters, err
	}
	counters.FilesChanged = batchCounters.FilesChanged
	counters.ParseErrors = batchCounters.ParseErrors

	importers, err := ix.importersOf(touched)
	if err != nil {
		return counters, fmt.Errorf("finding importers of touched files: %w", err)
	}
	for id, path := range importers {
		touched[id] = path
	}

	if err := ix.resolveTouched(ctx, touched); err != nil {
		return counters, fmt.Errorf("resolving references: %w", err)
	}

	ix.saveRunMeta("incremental", start, counters)
	return counters, nil
}

// RunIncrementalPaths is the watcher's entry point: incremental
// indexing restricted to an explicit set of repo-relative paths plus
// whatever files they resolve to, rather than a full repository scan.
// Paths that no longer exist on disk are treated as deletions.
func (ix *Indexer) RunIncrementalPaths(ctx context.Context, relPaths []string) (*Counters, error) {
	lock, err := AcquireLock(ix.stateDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	start := time.Now()
	counters := &Counters{FilesScanned: len(relPaths)}

	var changed []scan.Entry
	for _, relPath := range relPaths {
		info, statErr := os.Stat(ix.absPath(relPath))
		if statErr != nil {
			existing, getErr := ix.files.GetByPath(relPath)
			if getErr == nil && existing != nil {
				if delErr := ix.files.Delete(existing.ID); delErr != nil {
					return counters, fmt.Errorf("deleting removed file %s: %w", relPath, delErr)
				}
				counters.FilesRemoved++
			}
			continue
		}
		if info.IsDir() {
			continue
		}

		lang, _ := extract.LanguageFromExtension(filepath.Ext(relPath))
		entry := scan.Entry{Path: relPath, Language: lang, SizeBytes: info.Size(), MtimeUnix: info.ModTime().Unix()}

		maxSize := ix.cfg.Scan.MaxFileSizeBytes
		if maxSize == 0 {
			maxSize = scan.DefaultMaxFileSize
		}
		if entry.SizeBytes > maxSize {
			entry.Oversized = true
			entry.Language = extract.LangUnknown
			changed = append(changed, entry)
			continue
		}

		src, readErr := os.ReadFile(ix.absPath(relPath))
		if readErr != nil {
			counters.ParseErrors++
			continue
		}
		entry.ContentHash = hashBytes(src)

		existing, getErr := ix.files.GetByPath(relPath)
		if getErr == nil && existing != nil && existing.ContentHash == entry.ContentHash {
			counters.FilesUnchanged++
			continue
		}
		changed = append(changed, entry)
	}

	batchCounters, touched, err := ix.runBatch(ctx, changed)
	if err != nil {
		return counters, err
	}
	counters.FilesChanged = batchCounters.FilesChanged
	counters.ParseErrors += batchCounters.ParseErrors

	importers, err := ix.importersOf(touched)
	if err != nil {
		return counters, fmt.Errorf("finding importers of touched files: %w", err)
	}
	for id, path := range importers {
		touched[id] = path
	}

	if err := ix.resolveTouched(ctx, touched); err != nil {
		return counters, fmt.Errorf("resolving references: %w", err)
	}

	ix.saveRunMeta("incremental-paths", start, counters)
	return counters, nil
}

type extractionOutcome struct {
	entry      scan.Entry
	src        []byte
	extraction *extract.Extraction
	err        error
}

// runBatch extracts entries on a bounded worker pool and commits each
// result through the single committer goroutine, retrying transient
// store failures with backoff. Returns the touched files as a map from
// file ID to path, for the resolution pass that follows.
func (ix *Indexer) runBatch(ctx context.Context, entries []scan.Entry) (*Counters, map[int64]string, error) {
	counters := &Counters{}
	touched := make(map[int64]string)
	if len(entries) == 0 {
		return counters, touched, nil
	}

	workerCount := ix.cfg.Index.WorkerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if workerCount > len(entries) {
		workerCount = len(entries)
	}

	jobs := make(chan scan.Entry)
	results := make(chan extractionOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				if ctx.Err() != nil {
					return
				}
				results <- ix.extractEntry(ctx, entry)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, entry := range entries {
			select {
			case jobs <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		if outcome.err != nil {
			ix.logger.Error("reading file for extraction", map[string]interface{}{
				"path": outcome.entry.Path, "error": outcome.err.Error(),
			})
			counters.ParseErrors++
			continue
		}

		fileID, err := ix.commitWithRetry(outcome)
		if err != nil {
			ix.logger.Error("committing file after exhausting retries", map[string]interface{}{
				"path": outcome.entry.Path, "error": err.Error(),
			})
			counters.ParseErrors++
			continue
		}

		if outcome.extraction != nil && !outcome.extraction.ParseOK {
			counters.ParseErrors++
		}
		counters.FilesChanged++
		touched[fileID] = outcome.entry.Path
	}

	if ctx.Err() != nil {
		return counters, touched, ctx.Err()
	}
	return counters, touched, nil
}

// extractEntry is the CPU-bound worker-pool unit: read + parse. It must
// never touch the graph store, per the concurrency model's separation
// of extraction workers from the committer.
func (ix *Indexer) extractEntry(ctx context.Context, entry scan.Entry) extractionOutcome {
	if entry.Oversized {
		return extractionOutcome{entry: entry, extraction: &extract.Extraction{ParseOK: true}}
	}

	src, err := os.ReadFile(ix.absPath(entry.Path))
	if err != nil {
		return extractionOutcome{entry: entry, err: err}
	}

	extraction, err := ix.registry.Extract(ctx, entry.Path, src)
	if err != nil {
		return extractionOutcome{entry: entry, src: src, extraction: &extract.Extraction{ParseOK: false}}
	}
	return extractionOutcome{entry: entry, src: src, extraction: extraction}
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (ix *Indexer) absPath(relPath string) string {
	if relPath == "" {
		return ix.repoRoot
	}
	return filepath.Join(ix.repoRoot, relPath)
}

// commitWithRetry commits one file's records, retrying store failures
// with exponential backoff up to the configured attempt count before
// giving up and marking the file errored.
func (ix *Indexer) commitWithRetry(outcome extractionOutcome) (int64, error) {
	attempts := ix.cfg.Index.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}

	var lastErr error
	var fileID int64
	backoff := 50 * time.Millisecond
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		fileID, lastErr = ix.commitFile(outcome)
		if lastErr == nil {
			return fileID, nil
		}
	}
	return 0, lastErr
}

// commitFile replaces one file's entities, references, imports, and
// clone fingerprints in a single transaction: the atomic unit the
// engine's freshness and referential-integrity invariants depend on.
func (ix *Indexer) commitFile(outcome extractionOutcome) (int64, error) {
	entry := outcome.entry
	extraction := outcome.extraction
	parseOK := extraction != nil && extraction.ParseOK

	var fileID int64
	err := ix.db.WithTx(func(tx *sql.Tx) error {
		f := &storage.File{
			Path:          entry.Path,
			Language:      string(entry.Language),
			ContentHash:   entry.ContentHash,
			SizeBytes:     entry.SizeBytes,
			MtimeUnix:     entry.MtimeUnix,
			LastIndexedAt: time.Now(),
			ParseOK:       parseOK,
		}

		id, err := ix.files.UpsertTx(tx, f)
		if err != nil {
			return err
		}
		fileID = id

		if err := storage.ClearFileChildren(tx, fileID); err != nil {
			return err
		}

		if !parseOK || extraction == nil {
			return nil
		}

		entityIDByName := make(map[string][]int64, len(extraction.Definitions))
		for _, def := range extraction.Definitions {
			entityID, err := ix.entities.Insert(tx, &storage.Entity{
				FileID:    fileID,
				Name:      def.Name,
				Kind:      def.Kind,
				StartLine: def.StartLine,
				EndLine:   def.EndLine,
				Signature: def.Signature,
				Exported:  def.Exported,
			})
			if err != nil {
				return fmt.Errorf("insert entity %s: %w", def.Name, err)
			}
			entityIDByName[def.Name] = append(entityIDByName[def.Name], entityID)
		}

		for _, ref := range extraction.References {
			targetID, resolved := withinFileResolve(entityIDByName, ref.Name)
			refID, err := ix.refs.Insert(tx, &storage.Ref{
				FileID:         fileID,
				Name:           ref.Name,
				Line:           ref.Line,
				Column:         ref.Column,
				IsCall:         ref.IsCall,
				TargetEntityID: targetID,
				Resolved:       resolved,
			})
			if err != nil {
				return fmt.Errorf("insert ref %s: %w", ref.Name, err)
			}
			_ = refID
		}

		for _, imp := range extraction.Imports {
			if _, err := ix.imports.Insert(tx, &storage.Import{
				FileID:  fileID,
				RawPath: imp.RawPath,
				Alias:   imp.Alias,
			}); err != nil {
				return fmt.Errorf("insert import %s: %w", imp.RawPath, err)
			}
		}

		if outcome.src != nil {
			windows := clone.Fingerprints(outcome.src, ix.cfg.Clone.WindowLines, ix.cfg.Clone.Stride, ix.cfg.Clone.SkipBelowLineCount)
			for _, w := range windows {
				if err := ix.fingerprints.Insert(tx, &storage.CloneFingerprint{
					FileID:     fileID,
					WindowHash: w.Hash,
					StartLine:  w.StartLine,
					EndLine:    w.EndLine,
					Weight:     w.Weight,
				}); err != nil {
					return fmt.Errorf("insert fingerprint: %w", err)
				}
			}
		}

		return nil
	})
	return fileID, err
}

// withinFileResolve resolves a reference against entities defined in
// the same file: unique name match resolves, ambiguous or absent stays
// name-only, per the indexer's within-file resolution rule.
func withinFileResolve(byName map[string][]int64, name string) (*int64, bool) {
	ids, ok := byName[name]
	if !ok || len(ids) != 1 {
		return nil, false
	}
	id := ids[0]
	return &id, true
}

func (ix *Indexer) importersOf(touched map[int64]string) (map[int64]string, error) {
	out := make(map[int64]string)
	for fileID := range touched {
		importers, err := ix.imports.ListImportersOf(fileID)
		if err != nil {
			return nil, err
		}
		for _, imp := range importers {
			f, err := ix.files.GetByID(imp.FileID)
			if err != nil || f == nil {
				continue
			}
			out[f.ID] = f.Path
		}
	}
	return out, nil
}

func (ix *Indexer) saveRunMeta(mode string, start time.Time, counters *Counters) {
	meta := &RunMeta{
		Mode:         mode,
		StartedAt:    start,
		FinishedAt:   time.Now(),
		FilesScanned: counters.FilesScanned,
		FilesIndexed: counters.FilesChanged,
		FilesFailed:  counters.ParseErrors,
		FilesSkipped: counters.FilesUnchanged,
	}
	if version, err := ix.db.SchemaVersion(); err == nil {
		meta.SchemaBuild = version
	}
	if err := meta.Save(ix.stateDir); err != nil {
		ix.logger.Warn("saving run metadata", map[string]interface{}{"error": err.Error()})
	}
}
