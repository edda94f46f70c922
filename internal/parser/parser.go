// Package parser loads coverage snapshots from the reports of coverage tools.
package parser

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"golang.org/x/tools/cover"

	"github.com/chmouel/covdiff/internal/model"
)

// ParseProfile reads a Go coverage profile into a snapshot. Every directory
// becomes a package named after its path below the module, prefixed with the
// module name, and every file becomes a class in it.
func ParseProfile(profilePath, srcRoot string) (*model.Snapshot, error) {
	profiles, err := cover.ParseProfiles(profilePath)
	if err != nil {
		return nil, fmt.Errorf("parsing coverage profile: %w", err)
	}

	// Detect module path from go.mod
	modPath, err := detectModulePath(srcRoot)
	if err != nil {
		return nil, fmt.Errorf("detecting module path: %w", err)
	}

	return profileSnapshot(profiles, modPath), nil
}

func profileSnapshot(profiles []*cover.Profile, modPath string) *model.Snapshot {
	snapshot := &model.Snapshot{Packages: map[string]*model.Package{}}
	root := path.Base(modPath)

	for _, p := range profiles {
		relPath := strings.TrimPrefix(p.FileName, modPath+"/")

		pkgName := root
		if dir := path.Dir(relPath); dir != "." {
			pkgName = root + model.PackageSeparator + strings.ReplaceAll(dir, "/", model.PackageSeparator)
		}

		pkg, ok := snapshot.Packages[pkgName]
		if !ok {
			pkg = &model.Package{Name: pkgName, Classes: map[string]*model.Class{}}
			snapshot.Packages[pkgName] = pkg
		}

		name := pkgName + model.PackageSeparator + strings.TrimSuffix(path.Base(relPath), ".go")
		lines := computeLineCoverage(p.Blocks)
		pkg.Classes[name] = &model.Class{
			Name:     name,
			FileName: relPath,
			Lines:    lines,
			LineRate: lineRate(lines),
		}
	}

	var covered, total int
	for _, pkg := range snapshot.Packages {
		var pkgCovered int
		for _, c := range pkg.Classes {
			pkg.RelevantLines += len(c.Lines)
			for _, l := range c.Lines {
				if l.Covered() {
					pkgCovered++
				}
			}
		}
		pkg.LineRate = ratio(pkgCovered, pkg.RelevantLines)
		covered += pkgCovered
		total += pkg.RelevantLines
	}
	snapshot.LineRate = ratio(covered, total)

	return snapshot
}

func detectModulePath(srcRoot string) (string, error) {
	goModPath := filepath.Join(srcRoot, "go.mod")
	f, err := os.Open(goModPath) //nolint:gosec // path is from srcRoot argument
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if modPath, found := strings.CutPrefix(line, "module "); found {
			return strings.Trim(modPath, `"`), nil
		}
	}
	return "", fmt.Errorf("module directive not found in go.mod")
}

// computeLineCoverage turns profile blocks into per-line hit counts. A line
// spanned by several blocks keeps the highest count.
func computeLineCoverage(blocks []cover.ProfileBlock) []model.Line {
	hits := map[int]int64{}
	for _, b := range blocks {
		if b.NumStmt == 0 {
			continue
		}
		for line := b.StartLine; line <= b.EndLine; line++ {
			if line <= 0 {
				continue
			}
			if count, ok := hits[line]; !ok || int64(b.Count) > count {
				hits[line] = int64(b.Count)
			}
		}
	}

	lines := make([]model.Line, 0, len(hits))
	for number, count := range hits {
		lines = append(lines, model.Line{Number: number, Hits: count})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Number < lines[j].Number })
	return lines
}

// mergeLines combines two line lists, keeping one entry per line number.
func mergeLines(a, b []model.Line) []model.Line {
	byNumber := make(map[int]model.Line, len(a)+len(b))
	for _, l := range slices.Concat(a, b) {
		existing, ok := byNumber[l.Number]
		if !ok {
			byNumber[l.Number] = l
			continue
		}
		existing.Hits = max(existing.Hits, l.Hits)
		existing.Branch = existing.Branch || l.Branch
		existing.BranchCoverage = max(existing.BranchCoverage, l.BranchCoverage)
		byNumber[l.Number] = existing
	}

	merged := make([]model.Line, 0, len(byNumber))
	for _, l := range byNumber {
		merged = append(merged, l)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Number < merged[j].Number })
	return merged
}

func lineRate(lines []model.Line) float64 {
	covered := 0
	for _, l := range lines {
		if l.Covered() {
			covered++
		}
	}
	return ratio(covered, len(lines))
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
