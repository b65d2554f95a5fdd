package fs

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIncludes matches seed case files anywhere below the import root.
var DefaultIncludes = []string{"**/*.csv"}

// Walker discovers seed case files below a directory using doublestar
// include and exclude patterns relative to that directory.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = DefaultIncludes
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// SeedFile is a discovered case file.
type SeedFile struct {
	Path    string
	RelPath string
	Size    int64
}

// Walk returns matching files sorted by relative path, so imports append
// cases in a stable order.
func (w *Walker) Walk(root string) ([]SeedFile, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []SeedFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.excluded(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.included(relPath) || w.excluded(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, SeedFile{
			Path:    path,
			RelPath: relPath,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// Skip removes any file whose absolute path is in paths. The trusted and
// pending stores live under the project directory and must never be
// imported into themselves.
func Skip(files []SeedFile, paths ...string) []SeedFile {
	skip := make(map[string]bool, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			skip[abs] = true
		}
	}
	out := files[:0:0]
	for _, f := range files {
		if !skip[f.Path] {
			out = append(out, f)
		}
	}
	return out
}

func (w *Walker) included(path string) bool {
	return matchAny(w.includes, path)
}

func (w *Walker) excluded(path string) bool {
	return matchAny(w.excludes, path)
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
