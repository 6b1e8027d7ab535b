// Package scan walks a repository and produces the content-hashed file
// list the indexer diffs against the graph store: prefers
// `git ls-files` when the repo is a git checkout, falls back to
// .gitignore-aware walking otherwise, and always skips the state
// directory and VCS directories. Oversized files are listed, marked
// Oversized, and left unhashed.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/quintant/lumora/internal/extract"
)

// DefaultMaxFileSize is the size above which a file is recorded with
// language "none" and never handed to the extractor.
const DefaultMaxFileSize = 2 << 20 // 2 MiB

var skipDirs = map[string]struct{}{
	"__pycache__":  {},
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"venv":         {},
	".venv":        {},
	"build":        {},
	"dist":         {},
	".mypy_cache":  {},
	".pytest_cache": {},
}

// Entry is one discovered file, content-hashed and classified.
type Entry struct {
	Path        string // relative to root
	Language    extract.Language
	ContentHash string
	SizeBytes   int64
	MtimeUnix   int64
	Oversized   bool
}

// Options configures a scan.
type Options struct {
	StateDirName string   // directory name to always exclude, e.g. ".lumora"
	MaxFileSize  int64    // 0 uses DefaultMaxFileSize
	IgnoreGlobs  []string // additional glob patterns, checked against the relative path
}

// Scan walks root and returns every tracked file, sorted by path for
// deterministic iteration order (spec's determinism property).
func Scan(ctx context.Context, root string, opts Options) ([]Entry, error) {
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	gitFiles := gitLsFiles(ctx, root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []Entry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if name == opts.StateDirName {
				return filepath.SkipDir
			}
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gitFiles != nil {
			if _, ok := gitFiles[rel]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		if matchesAny(opts.IgnoreGlobs, rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		lang, _ := extract.LanguageFromExtension(filepath.Ext(name))

		entry := Entry{
			Path:      rel,
			Language:  lang,
			SizeBytes: info.Size(),
			MtimeUnix: info.ModTime().Unix(),
		}

		if entry.SizeBytes > opts.MaxFileSize {
			entry.Oversized = true
			entry.Language = extract.LangUnknown
			results = append(results, entry)
			return nil
		}

		hash, err := hashFile(path)
		if err != nil {
			return nil
		}
		entry.ContentHash = hash
		results = append(results, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func matchesAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, rel); ok {
			return true
		}
		if strings.Contains(rel, g) {
			return true
		}
	}
	return false
}

func gitLsFiles(ctx context.Context, root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	runCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
