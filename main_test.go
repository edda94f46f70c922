package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmouel/covdiff/internal/config"
	"github.com/chmouel/covdiff/internal/diff"
	"github.com/chmouel/covdiff/internal/model"
	"github.com/chmouel/covdiff/internal/parser"
	"github.com/chmouel/covdiff/internal/report"
)

// coverageClass is a class entry of a generated Cobertura report: name,
// file name and the hit count of each line, starting at line 1.
type coverageClass struct {
	name, file string
	hits       []int
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644)) //nolint:gosec // test file
}

// writeRevision lays out a revision directory with sources and a Cobertura
// report at the default location.
func writeRevision(t *testing.T, sources map[string]string, classes ...coverageClass) string {
	t.Helper()
	dir := t.TempDir()

	for file, content := range sources {
		writeFile(t, filepath.Join(dir, config.DefaultSourcePrefix, file), content)
	}

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?>` + "\n<coverage line-rate=\"0.5\" branch-rate=\"0\"><packages>")
	for _, c := range classes {
		pkgName := c.name[:strings.LastIndex(c.name, ".")]
		fmt.Fprintf(&sb, `<package name="%s"><classes><class name="%s" filename="%s"><lines>`, pkgName, c.name, c.file)
		for i, h := range c.hits {
			fmt.Fprintf(&sb, `<line number="%d" hits="%d"/>`, i+1, h)
		}
		sb.WriteString("</lines></class></classes></package>")
	}
	sb.WriteString("</packages></coverage>\n")
	writeFile(t, filepath.Join(dir, config.DefaultCoverageReport), sb.String())

	return dir
}

const barSource = "class Bar {\n  void a() {}\n  void b() {}\n}\n"

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{errUsage, exitUsage},
		{fmt.Errorf("validate config: %w", config.ErrInvalidWorkers), exitUsage},
		{fmt.Errorf("%w: boom", parser.ErrCoverageUnavailable), exitCoverage},
		{report.ErrMissingSnapshot, exitCoverage},
		{fmt.Errorf("%w: %w", diff.ErrDiffReport, context.Canceled), exitDiff},
		{fmt.Errorf("%w: com.foo.Bar", report.ErrClassNotFound), exitClassNotFound},
		{errors.New("other"), exitUsage},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

func TestSourcePaths(t *testing.T) {
	snapshot := func(files ...string) *model.Snapshot {
		p := &model.Package{Name: "com.foo", Classes: map[string]*model.Class{}}
		for i, f := range files {
			name := fmt.Sprintf("com.foo.C%d", i)
			p.Classes[name] = &model.Class{Name: name, FileName: f}
		}
		return &model.Snapshot{Packages: map[string]*model.Package{p.Name: p}}
	}

	paths := sourcePaths("src/main/java", snapshot("com/foo/B.java", "com/foo/A.java"), snapshot("com/foo/A.java", "com/foo/C.java"), nil)

	assert.Equal(t, []string{"src/main/java/com/foo/A.java", "src/main/java/com/foo/B.java", "src/main/java/com/foo/C.java"}, paths)
}

func TestExecuteWrongArgCount(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := execute(context.Background(), []string{"only-one"}, &stdout, &stderr)

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), errUsage.Error())
}

func TestExecuteEndToEnd(t *testing.T) {
	original := writeRevision(t,
		map[string]string{"com/foo/Bar.java": barSource},
		coverageClass{"com.foo.Bar", "com/foo/Bar.java", []int{1, 1, 1}},
	)
	revised := writeRevision(t,
		map[string]string{"com/foo/Bar.java": barSource, "com/foo/api/Api.java": "class Api {}\n"},
		coverageClass{"com.foo.Bar", "com/foo/Bar.java", []int{1, 0, 1}},
		coverageClass{"com.foo.api.Api", "com/foo/api/Api.java", []int{2}},
	)

	writeFile(t, filepath.Join(original, config.DefaultTestPrefix, "com/foo/BarTest.java"), "class BarTest {\n}\n")
	writeFile(t, filepath.Join(revised, config.DefaultTestPrefix, "com/foo/BarTest.java"), "class BarTest {\n  void a() {}\n}\n")
	writeFile(t, filepath.Join(original, config.DefaultTestPrefix, "com/foo/SameTest.java"), "class SameTest {}\n")
	writeFile(t, filepath.Join(revised, config.DefaultTestPrefix, "com/foo/SameTest.java"), "class SameTest {}\n")

	out := t.TempDir()
	jsonPath := filepath.Join(out, "result.json")
	htmlPath := filepath.Join(out, "overview.html")
	badgePath := filepath.Join(out, "badge.svg")

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{
		original, revised,
		"--json", jsonPath,
		"--html", htmlPath,
		"--badge", badgePath,
		"--title", "Bar refactoring",
		"--log-level", "error",
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	content, err := os.ReadFile(jsonPath) //nolint:gosec // test file
	require.NoError(t, err)

	var result struct {
		Changed []model.ChangedClass `json:"changed"`
		Summary report.Summary       `json:"summary"`
		Tests   []report.ChangedTest `json:"tests"`
	}
	require.NoError(t, json.Unmarshal(content, &result))

	require.Len(t, result.Changed, 2)
	assert.Equal(t, "com.foo.Bar", result.Changed[0].ClassName)
	assert.Equal(t, model.StateChanged, result.Changed[0].State)
	require.Len(t, result.Changed[0].Changes, 1)
	assert.Equal(t, model.ChangeUncovered, result.Changed[0].Changes[0].Kind)
	assert.Equal(t, 2, result.Changed[0].Changes[0].RevisedLine)
	assert.Equal(t, model.StateSame, result.Changed[0].FileDiff.State)

	assert.Equal(t, "com.foo.api.Api", result.Changed[1].ClassName)
	assert.Equal(t, model.StateNew, result.Changed[1].State)
	assert.Equal(t, model.StateNew, result.Changed[1].FileDiff.State)
	assert.Equal(t, 1, result.Summary.NewlyUncovered)
	assert.Equal(t, 1, result.Summary.AddedLines)

	require.Len(t, result.Tests, 1)
	assert.Equal(t, "com/foo/BarTest.java", result.Tests[0].Name)
	assert.Equal(t, model.StateChanged, result.Tests[0].State)
	assert.Equal(t, 1, result.Tests[0].Change)
	assert.InDelta(t, 50.0, result.Tests[0].Percent, 1e-9)

	html, err := os.ReadFile(htmlPath) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Contains(t, string(html), "<title>Bar refactoring</title>")
	assert.Contains(t, string(html), "com/foo/BarTest.java")

	assert.FileExists(t, badgePath)
	assert.Contains(t, stdout.String(), "TOTAL: 1 TEST FILES") // footers are upper-cased
	assert.Contains(t, stdout.String(), "Coverage: 50.00% -> 50.00%")
	assert.Contains(t, stdout.String(), "2 classes changed")
}

func TestExecuteMissingReport(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := execute(context.Background(), []string{t.TempDir(), t.TempDir(), "--log-level", "error"}, &stdout, &stderr)

	assert.Equal(t, exitCoverage, code)
	assert.Contains(t, stderr.String(), "coverage tool failed")
}

func TestExecuteClassMissing(t *testing.T) {
	sources := map[string]string{"com/foo/Bar.java": barSource, "com/foo/Baz.java": "class Baz {}\n"}
	original := writeRevision(t, sources,
		coverageClass{"com.foo.Bar", "com/foo/Bar.java", []int{1}},
		coverageClass{"com.foo.Baz", "com/foo/Baz.java", []int{1}},
	)
	// Baz.java is still there but its class is gone from the report.
	revised := writeRevision(t, sources, coverageClass{"com.foo.Bar", "com/foo/Bar.java", []int{1}})

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{original, revised, "--log-level", "error", "--no-table"}, &stdout, &stderr)

	assert.Equal(t, exitClassNotFound, code)
	assert.Contains(t, stderr.String(), "com.foo.Baz")
}

func TestExecuteDeletedClassFile(t *testing.T) {
	original := writeRevision(t,
		map[string]string{"com/foo/Bar.java": barSource, "com/foo/Baz.java": "class Baz {}\n"},
		coverageClass{"com.foo.Bar", "com/foo/Bar.java", []int{1}},
		coverageClass{"com.foo.Baz", "com/foo/Baz.java", []int{1}},
	)
	revised := writeRevision(t,
		map[string]string{"com/foo/Bar.java": barSource},
		coverageClass{"com.foo.Bar", "com/foo/Bar.java", []int{1}},
	)

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{original, revised, "--log-level", "error"}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "Baz")
	assert.Contains(t, stdout.String(), "DELETED")
}

func TestExecuteSourcesUnavailable(t *testing.T) {
	// Reports only, no sources on either side.
	original := writeRevision(t, nil, coverageClass{"com.foo.Bar", "com/foo/Bar.java", []int{1, 0, 1}})
	revised := writeRevision(t, nil, coverageClass{"com.foo.Bar", "com/foo/Bar.java", []int{1, 0, 1}})

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{original, revised, "--log-level", "error"}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "No coverage changes.")
	assert.Contains(t, stdout.String(), "0 classes changed")
}

func TestExecuteCancelled(t *testing.T) {
	original := writeRevision(t, map[string]string{"com/foo/Bar.java": barSource}, coverageClass{"com.foo.Bar", "com/foo/Bar.java", []int{1}})
	revised := writeRevision(t, map[string]string{"com/foo/Bar.java": barSource}, coverageClass{"com.foo.Bar", "com/foo/Bar.java", []int{0}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := execute(ctx, []string{original, revised, "--log-level", "error"}, &stdout, &stderr)

	assert.Equal(t, exitDiff, code)
}
