package report

import (
	"path"
	"strings"

	"github.com/chmouel/covdiff/internal/model"
)

// ChangedTest is a test source file whose text differs between the two
// revisions. Test files carry no coverage, only their size change.
type ChangedTest struct {
	Path          string      `json:"path"` // relative to the revision root
	Name          string      `json:"name"` // relative to the test prefix
	State         model.State `json:"state"`
	OriginalLines int         `json:"originalLines"`
	RevisedLines  int         `json:"revisedLines"`
	Change        int         `json:"change"`
	Percent       float64     `json:"percent"`
}

// TestDiffs lists the diffed test files.
type TestDiffs interface {
	FileDiffs
	Paths() []string
}

// ChangedTests returns the test files that are not SAME, in path order. A
// new or deleted file counts as a 100% change.
func ChangedTests(diffs TestDiffs, prefix string) []ChangedTest {
	if diffs == nil {
		return nil
	}

	var tests []ChangedTest
	for _, p := range diffs.Paths() {
		fd, ok := diffs.File(p)
		if !ok || fd.State == model.StateSame {
			continue
		}

		t := ChangedTest{
			Path:          p,
			Name:          testName(prefix, p),
			State:         fd.State,
			OriginalLines: fd.OriginalLines,
			RevisedLines:  fd.RevisedLines,
		}
		switch fd.State {
		case model.StateNew:
			t.Change, t.Percent = fd.RevisedLines, 100
		case model.StateDeleted:
			t.Change, t.Percent = -fd.OriginalLines, 100
		default:
			t.Change, t.Percent = model.SizeChange(fd.OriginalLines, fd.RevisedLines)
		}
		tests = append(tests, t)
	}
	return tests
}

func testName(prefix, p string) string {
	if prefix == "" {
		return p
	}
	return strings.TrimPrefix(p, path.Clean(prefix)+"/")
}
