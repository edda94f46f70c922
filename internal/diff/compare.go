// Package diff computes line diffs between the two revisions of a source file
// and answers line correspondence queries over them.
package diff

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/chmouel/covdiff/internal/model"
)

const maxLineLength = 1 << 20

// Compare diffs the file at originalPath against the file at revisedPath.
// A file that cannot be read is not an error: an unreadable original makes
// the diff NEW, an unreadable revised file makes it DELETED. A file readable
// on neither side diffs as two empty files and is SAME.
func Compare(originalPath, revisedPath string) *model.FileDiff {
	original, origErr := readLines(originalPath)
	revised, revErr := readLines(revisedPath)

	if origErr != nil && revErr != nil {
		slog.Debug("file unavailable on both sides", "original", originalPath, "revised", revisedPath)
		return &model.FileDiff{
			OriginalPath: originalPath,
			RevisedPath:  revisedPath,
			State:        model.StateSame,
		}
	}
	if revErr != nil {
		slog.Debug("revised file unavailable, marking deleted", "path", revisedPath, "error", revErr)
		return &model.FileDiff{
			OriginalPath:  originalPath,
			State:         model.StateDeleted,
			OriginalLines: len(original),
		}
	}
	if origErr != nil {
		slog.Debug("original file unavailable, marking new", "path", originalPath, "error", origErr)
		return &model.FileDiff{
			RevisedPath:  revisedPath,
			State:        model.StateNew,
			RevisedLines: len(revised),
		}
	}

	ops := CompareLines(original, revised)
	state := model.StateChanged
	if len(ops) == 0 {
		state = model.StateSame
	}

	return &model.FileDiff{
		OriginalPath:  originalPath,
		RevisedPath:   revisedPath,
		State:         state,
		Ops:           ops,
		OriginalLines: len(original),
		RevisedLines:  len(revised),
	}
}

// CompareLines returns the edit script turning original into revised.
// Adjacent deleted and inserted runs between two unchanged runs collapse
// into a single operation.
func CompareLines(original, revised []string) []model.EditOp {
	dmp := diffmatchpatch.New()
	// No deadline: a timed out diff would not be reproducible.
	dmp.DiffTimeout = 0

	src, dst, _ := dmp.DiffLinesToRunes(joinLines(original), joinLines(revised))
	diffs := dmp.DiffCleanupMerge(dmp.DiffMainRunes(src, dst, false))

	var ops []model.EditOp
	var deleted, inserted int
	origPos, revPos := 1, 1

	flush := func() {
		if deleted == 0 && inserted == 0 {
			return
		}
		kind := model.OpReplace
		switch {
		case inserted == 0:
			kind = model.OpDelete
		case deleted == 0:
			kind = model.OpInsert
		}
		ops = append(ops, model.EditOp{
			Kind:           kind,
			OriginalStart:  origPos,
			OriginalLength: deleted,
			RevisedStart:   revPos,
			RevisedLength:  inserted,
		})
		origPos += deleted
		revPos += inserted
		deleted, inserted = 0, 0
	}

	for _, d := range diffs {
		// Each rune stands for one line.
		size := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			origPos += size
			revPos += size
		case diffmatchpatch.DiffDelete:
			deleted += size
		case diffmatchpatch.DiffInsert:
			inserted += size
		}
	}
	flush()

	return ops
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the compared directories
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineLength)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
