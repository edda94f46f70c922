package diff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/chmouel/covdiff/internal/model"
)

// DefaultWorkers is the number of files diffed concurrently by default.
const DefaultWorkers = 4

// ErrDiffReport is returned when the diff report could not be produced.
var ErrDiffReport = errors.New("diff report generation failed")

// Report holds the diff of every compared source file, keyed by the path
// relative to the two roots.
type Report struct {
	files map[string]*model.FileDiff
}

// NewReport diffs every path under originalRoot against the same path under
// revisedRoot. Unreadable files degrade to NEW, DELETED or SAME; only
// cancellation makes the whole report fail.
func NewReport(ctx context.Context, originalRoot, revisedRoot string, paths []string, workers int) (*Report, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	unique := uniquePaths(paths)
	results := make([]*model.FileDiff, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range unique {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Compare(filepath.Join(originalRoot, p), filepath.Join(revisedRoot, p))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiffReport, err)
	}

	files := make(map[string]*model.FileDiff, len(unique))
	for i, p := range unique {
		files[p] = results[i]
	}
	slog.Debug("diffed source files", "count", len(files))

	return &Report{files: files}, nil
}

// NewReportFromDiffs wraps already computed diffs.
func NewReportFromDiffs(files map[string]*model.FileDiff) *Report {
	if files == nil {
		files = map[string]*model.FileDiff{}
	}
	return &Report{files: files}
}

// File returns the diff of the given relative path.
func (r *Report) File(path string) (*model.FileDiff, bool) {
	fd, ok := r.files[path]
	return fd, ok
}

// Paths returns the compared paths in sorted order.
func (r *Report) Paths() []string {
	paths := make([]string, 0, len(r.files))
	for p := range r.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of compared files.
func (r *Report) Len() int {
	return len(r.files)
}

func uniquePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	sort.Strings(unique)
	return unique
}
