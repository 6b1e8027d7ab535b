package index

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quintant/lumora/internal/storage"
)

// extensionsByLanguage lists the extensions tried when resolving a
// relative import's raw path to a file on disk.
var extensionsByLanguage = map[string][]string{
	"go":         {".go"},
	"javascript": {".js", ".jsx", ".mjs"},
	"typescript": {".ts", ".tsx"},
	"tsx":        {".ts", ".tsx"},
	"python":     {".py"},
	"rust":       {".rs"},
	"java":       {".java"},
	"kotlin":     {".kt", ".kts"},
}

// fileIndex is a cross-reference of every file in the store, built once
// per resolution pass, used to resolve imports without hammering the
// database for every candidate.
type fileIndex struct {
	byPath map[string]*storage.File
	byStem map[string][]*storage.File // filename without extension -> candidates
}

func buildFileIndex(files []*storage.File) *fileIndex {
	idx := &fileIndex{
		byPath: make(map[string]*storage.File, len(files)),
		byStem: make(map[string][]*storage.File),
	}
	for _, f := range files {
		idx.byPath[f.Path] = f
		stem := stemOf(f.Path)
		idx.byStem[stem] = append(idx.byStem[stem], f)
	}
	return idx
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// resolveImportPath maps an import's raw text to a single File, or nil
// when it cannot be resolved unambiguously. Relative-style paths ("./x",
// "../x") are resolved by joining against the importing file's
// directory and trying the language's known extensions. Bare
// module-style paths ("fmt", "com.acme.util") fall back to a
// unique-basename heuristic rather than full build-system resolution,
// which the engine treats as out of its resolution scope.
func resolveImportPath(lang, fromPath, rawPath string, idx *fileIndex) *storage.File {
	rawPath = strings.TrimSpace(rawPath)
	if rawPath == "" {
		return nil
	}

	if strings.HasPrefix(rawPath, ".") || strings.HasPrefix(rawPath, "/") {
		dir := filepath.Dir(fromPath)
		base := filepath.ToSlash(filepath.Join(dir, rawPath))

		if f, ok := idx.byPath[base]; ok {
			return f
		}
		for _, ext := range extensionsByLanguage[lang] {
			if f, ok := idx.byPath[base+ext]; ok {
				return f
			}
			if f, ok := idx.byPath[filepath.ToSlash(filepath.Join(base, "index"+ext))]; ok {
				return f
			}
		}
		if f, ok := idx.byPath[filepath.ToSlash(filepath.Join(base, "__init__.py"))]; ok {
			return f
		}
		return nil
	}

	segments := strings.FieldsFunc(rawPath, func(r rune) bool { return r == '/' || r == '.' })
	if len(segments) == 0 {
		return nil
	}
	stem := segments[len(segments)-1]

	candidates := idx.byStem[stem]
	if len(candidates) == 1 {
		return candidates[0]
	}
	return nil
}

// resolveTouched runs the indexer's second pass: import resolution,
// cross-file reference/call resolution via the import closure, and
// FileDep materialization, restricted to touched files per the
// engine's resolution-pass scoping rule. It consults all File rows to
// resolve imports (any file can be an import target) but only mutates
// refs/imports/file_deps belonging to touched files.
func (ix *Indexer) resolveTouched(ctx context.Context, touched map[int64]string) error {
	if len(touched) == 0 {
		return nil
	}

	allFiles, err := ix.files.ListAll()
	if err != nil {
		return fmt.Errorf("listing files for resolution: %w", err)
	}
	idx := buildFileIndex(allFiles)

	for fileID, path := range touched {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := ix.resolveOneFile(fileID, path, idx); err != nil {
			ix.logger.Error("resolving file", map[string]interface{}{"path": path, "error": err.Error()})
		}
	}
	return nil
}

func (ix *Indexer) resolveOneFile(fileID int64, path string, idx *fileIndex) error {
	f, ok := idx.byPath[path]
	if !ok {
		return nil
	}

	imports, err := ix.imports.ListByFile(fileID)
	if err != nil {
		return fmt.Errorf("listing imports: %w", err)
	}

	closureFileIDs := map[int64]struct{}{}
	return ix.db.WithTx(func(tx *sql.Tx) error {
		for _, imp := range imports {
			target := resolveImportPath(f.Language, path, imp.RawPath, idx)
			if target == nil {
				continue
			}
			if _, err := tx.Exec(`UPDATE imports SET resolved_file_id = ? WHERE id = ?`, target.ID, imp.ID); err != nil {
				return fmt.Errorf("resolving import %s: %w", imp.RawPath, err)
			}
			closureFileIDs[target.ID] = struct{}{}
			if err := insertFileDep(tx, fileID, target.ID, storage.FileDepImport); err != nil {
				return err
			}
		}

		fileEntities, err := ix.entities.ListByFile(fileID)
		if err != nil {
			return fmt.Errorf("listing entities: %w", err)
		}
		localByName := map[string][]*storage.Entity{}
		for _, e := range fileEntities {
			localByName[e.Name] = append(localByName[e.Name], e)
		}

		closureByName := map[string][]*storage.Entity{}
		for depID := range closureFileIDs {
			depEntities, err := ix.entities.ListByFile(depID)
			if err != nil {
				return fmt.Errorf("listing closure entities: %w", err)
			}
			for _, e := range depEntities {
				closureByName[e.Name] = append(closureByName[e.Name], e)
			}
		}

		refs, err := ix.refs.ListByFile(fileID)
		if err != nil {
			return fmt.Errorf("listing refs: %w", err)
		}

		for _, ref := range refs {
			if ref.Resolved {
				continue
			}
			target := pickResolution(localByName[ref.Name], closureByName[ref.Name])
			if target == nil {
				continue
			}
			if _, err := tx.Exec(`UPDATE refs SET target_entity_id = ?, resolved = 1 WHERE id = ?`, target.ID, ref.ID); err != nil {
				return fmt.Errorf("resolving ref %s: %w", ref.Name, err)
			}
			if !ref.IsCall {
				continue
			}
			caller := enclosingEntity(fileEntities, ref.Line)
			if caller == nil {
				continue
			}
			if _, err := tx.Exec(`
				INSERT INTO call_edges (caller_entity_id, callee_entity_id, reference_id)
				VALUES (?, ?, ?)
				ON CONFLICT(caller_entity_id, callee_entity_id, reference_id) DO NOTHING
			`, caller.ID, target.ID, ref.ID); err != nil {
				return fmt.Errorf("inserting call edge: %w", err)
			}
			if target.FileID != fileID {
				if err := insertFileDep(tx, fileID, target.FileID, storage.FileDepCall); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// pickResolution applies the within-file-first, then-cross-file
// resolution rule: a unique local match wins outright; otherwise a
// unique match across the file's import closure wins; anything else
// (zero or multiple candidates at the decisive scope) stays name-only.
func pickResolution(local, closure []*storage.Entity) *storage.Entity {
	if len(local) == 1 {
		return local[0]
	}
	if len(local) > 1 {
		return nil
	}
	if len(closure) == 1 {
		return closure[0]
	}
	return nil
}

// enclosingEntity returns the innermost entity whose line range
// contains line, used to attribute a call reference to its caller.
func enclosingEntity(entities []*storage.Entity, line int) *storage.Entity {
	var best *storage.Entity
	for _, e := range entities {
		if line < e.StartLine || line > e.EndLine {
			continue
		}
		if best == nil || (e.EndLine-e.StartLine) < (best.EndLine-best.StartLine) {
			best = e
		}
	}
	return best
}

func insertFileDep(tx *sql.Tx, fromFileID, toFileID int64, kind storage.FileDepKind) error {
	if fromFileID == toFileID {
		return nil
	}
	_, err := tx.Exec(`
		INSERT INTO file_deps (from_file_id, to_file_id, kind) VALUES (?, ?, ?)
		ON CONFLICT(from_file_id, to_file_id, kind) DO NOTHING
	`, fromFileID, toFileID, string(kind))
	return err
}
