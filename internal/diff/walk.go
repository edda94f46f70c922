package diff

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ListFiles returns the regular files below prefix in every root, as
// slash-separated paths relative to the root. A prefix missing from a root
// contributes nothing. Hidden directories are skipped.
func ListFiles(prefix string, roots ...string) ([]string, error) {
	seen := map[string]struct{}{}
	for _, root := range roots {
		dir := filepath.Join(root, filepath.FromSlash(prefix))
		err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				if p == dir && errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() {
				if name := d.Name(); p != dir && len(name) > 1 && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			seen[path.Join(prefix, filepath.ToSlash(rel))] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: listing %s: %w", ErrDiffReport, dir, err)
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}
