package model

import (
	"math"
	"sort"
	"strings"
)

// PackageSeparator separates the segments of a hierarchical package name.
const PackageSeparator = "."

// State describes how a file, class or package changed between the original
// and the revised revision.
type State string

const (
	StateNew     State = "NEW"     // absent in original
	StateDeleted State = "DELETED" // absent in revised
	StateSame    State = "SAME"    // present on both sides, nothing changed
	StateChanged State = "CHANGED" // present on both sides, something changed
)

// OpKind is the kind of a single edit operation.
type OpKind string

const (
	OpInsert  OpKind = "INSERT"
	OpDelete  OpKind = "DELETE"
	OpReplace OpKind = "REPLACE"
)

// EditOp is one unit of a line diff. Positions are 1-based line numbers.
// An insert has OriginalLength 0 and its OriginalStart is the original line
// before which the revised lines were inserted; deletes mirror this on the
// revised side.
type EditOp struct {
	Kind           OpKind `json:"kind"`
	OriginalStart  int    `json:"originalStart"`
	OriginalLength int    `json:"originalLength"`
	RevisedStart   int    `json:"revisedStart"`
	RevisedLength  int    `json:"revisedLength"`
}

// OriginalEnd returns the first original line after the operation.
func (op EditOp) OriginalEnd() int { return op.OriginalStart + op.OriginalLength }

// RevisedEnd returns the first revised line after the operation.
func (op EditOp) RevisedEnd() int { return op.RevisedStart + op.RevisedLength }

// FileDiff is the line diff of one source file between the two revisions.
type FileDiff struct {
	OriginalPath  string   `json:"originalPath,omitempty"`
	RevisedPath   string   `json:"revisedPath,omitempty"`
	State         State    `json:"state"`
	Ops           []EditOp `json:"ops,omitempty"`
	OriginalLines int      `json:"originalLines"`
	RevisedLines  int      `json:"revisedLines"`
}

// Added returns the number of lines added to the file.
func (fd *FileDiff) Added() int {
	switch fd.State {
	case StateNew:
		return fd.RevisedLines
	case StateDeleted:
		return 0
	}
	n := 0
	for _, op := range fd.Ops {
		n += op.RevisedLength
	}
	return n
}

// Removed returns the number of lines removed from the file.
func (fd *FileDiff) Removed() int {
	switch fd.State {
	case StateNew:
		return 0
	case StateDeleted:
		return fd.OriginalLines
	}
	n := 0
	for _, op := range fd.Ops {
		n += op.OriginalLength
	}
	return n
}

// Line is the coverage of one source line in one revision.
type Line struct {
	Number         int     `json:"number"`
	Hits           int64   `json:"hits"`
	Branch         bool    `json:"branch,omitempty"`
	BranchCoverage float64 `json:"branchCoverage,omitempty"` // percent, 0-100
}

// Covered reports whether the line was executed at least once.
func (l Line) Covered() bool { return l.Hits > 0 }

// Class is the coverage of one class (or source file) in one revision.
type Class struct {
	Name       string  `json:"name"`     // fully qualified
	FileName   string  `json:"fileName"` // relative to the source prefix
	Lines      []Line  `json:"lines"`    // ordered by number, numbers unique
	LineRate   float64 `json:"lineRate"`
	BranchRate float64 `json:"branchRate"`
}

// Line returns the coverage of the given line number.
func (c *Class) Line(number int) (Line, bool) {
	if c == nil {
		return Line{}, false
	}
	i := sort.Search(len(c.Lines), func(i int) bool { return c.Lines[i].Number >= number })
	if i < len(c.Lines) && c.Lines[i].Number == number {
		return c.Lines[i], true
	}
	return Line{}, false
}

// LastLine returns the highest line number carrying coverage, or 0.
func (c *Class) LastLine() int {
	if c == nil || len(c.Lines) == 0 {
		return 0
	}
	return c.Lines[len(c.Lines)-1].Number
}

// ShortName returns the last segment of the class name.
func (c *Class) ShortName() string {
	return LastSegment(c.Name)
}

// Package is the coverage of one package in one revision.
type Package struct {
	Name          string            `json:"name"`
	Classes       map[string]*Class `json:"classes"`
	LineRate      float64           `json:"lineRate"`
	BranchRate    float64           `json:"branchRate"`
	RelevantLines int               `json:"relevantLines"`
}

// Class returns the class with the given name, or nil.
func (p *Package) Class(name string) *Class {
	if p == nil {
		return nil
	}
	return p.Classes[name]
}

// SortedClasses returns the classes ordered by name.
func (p *Package) SortedClasses() []*Class {
	if p == nil {
		return nil
	}
	classes := make([]*Class, 0, len(p.Classes))
	for _, c := range p.Classes {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes
}

// Metrics returns the aggregate metrics of the package.
func (p *Package) Metrics() Metrics {
	if p == nil {
		return Metrics{}
	}
	return Metrics{LineRate: p.LineRate, BranchRate: p.BranchRate, RelevantLines: p.RelevantLines}
}

// Snapshot is the complete coverage measurement of one revision. It is never
// mutated once loaded.
type Snapshot struct {
	Packages   map[string]*Package `json:"packages"`
	LineRate   float64             `json:"lineRate"`
	BranchRate float64             `json:"branchRate"`
}

// Package returns the package with the given name, or nil.
func (s *Snapshot) Package(name string) *Package {
	if s == nil {
		return nil
	}
	return s.Packages[name]
}

// HasPackage reports whether the snapshot contains the named package.
func (s *Snapshot) HasPackage(name string) bool {
	return s.Package(name) != nil
}

// SortedPackages returns the packages ordered by name.
func (s *Snapshot) SortedPackages() []*Package {
	if s == nil {
		return nil
	}
	pkgs := make([]*Package, 0, len(s.Packages))
	for _, p := range s.Packages {
		pkgs = append(pkgs, p)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
	return pkgs
}

// ChangeKind classifies a per-line coverage delta.
type ChangeKind string

const (
	ChangeAdded     ChangeKind = "ADDED"     // line only exists in revised
	ChangeRemoved   ChangeKind = "REMOVED"   // line only exists in original
	ChangeCovered   ChangeKind = "COVERED"   // uncovered -> covered
	ChangeUncovered ChangeKind = "UNCOVERED" // covered -> uncovered
	ChangeBranch    ChangeKind = "BRANCH"    // branch coverage percentage changed
)

// LineChange is the coverage delta of one line. Zero line numbers and nil
// lines mean the line does not exist on that side.
type LineChange struct {
	Kind         ChangeKind `json:"kind"`
	OriginalLine int        `json:"originalLine,omitempty"`
	RevisedLine  int        `json:"revisedLine,omitempty"`
	Original     *Line      `json:"original,omitempty"`
	Revised      *Line      `json:"revised,omitempty"`
	InEdit       bool       `json:"inEdit,omitempty"` // inside a replaced region of the source diff
}

// ChangedClass records the coverage change of a single class.
type ChangedClass struct {
	ClassName   string       `json:"className"`
	PackageName string       `json:"packageName"`
	State       State        `json:"state"`
	FileDiff    *FileDiff    `json:"fileDiff"`
	Original    *Class       `json:"original,omitempty"`
	Revised     *Class       `json:"revised,omitempty"`
	Changes     []LineChange `json:"changes"`
}

// ShortName returns the class name without its package.
func (c *ChangedClass) ShortName() string {
	return LastSegment(c.ClassName)
}

// OriginalMetrics returns the metrics of the original class, zero when absent.
func (c *ChangedClass) OriginalMetrics() Metrics {
	return classMetrics(c.Original)
}

// RevisedMetrics returns the metrics of the revised class, zero when absent.
func (c *ChangedClass) RevisedMetrics() Metrics {
	return classMetrics(c.Revised)
}

func classMetrics(c *Class) Metrics {
	if c == nil {
		return Metrics{}
	}
	return Metrics{LineRate: c.LineRate, BranchRate: c.BranchRate, RelevantLines: len(c.Lines)}
}

// Metrics holds the aggregate coverage numbers of a class or package.
type Metrics struct {
	LineRate      float64 `json:"lineRate"`
	BranchRate    float64 `json:"branchRate"`
	RelevantLines int     `json:"relevantLines"`
}

// PackageNode is one entry of the package tree.
type PackageNode struct {
	Name        string          `json:"name"`
	Depth       int             `json:"depth"` // separators in the name
	Level       int             `json:"level"` // nesting level in the tree
	Parent      int             `json:"parent"`
	Children    []int           `json:"children,omitempty"`
	State       State           `json:"state"`
	Original    Metrics         `json:"original"`
	Revised     Metrics         `json:"revised"`
	Classes     []*ChangedClass `json:"classes,omitempty"`
	Subpackages []string        `json:"subpackages,omitempty"`
}

// LineRateDelta returns the revised minus the original line rate.
func (n *PackageNode) LineRateDelta() float64 {
	return n.Revised.LineRate - n.Original.LineRate
}

// BranchRateDelta returns the revised minus the original branch rate.
func (n *PackageNode) BranchRateDelta() float64 {
	return n.Revised.BranchRate - n.Original.BranchRate
}

// RelevantLinesChange returns the change in relevant lines and that change
// as a percentage of the original count, rounded to two decimals.
func (n *PackageNode) RelevantLinesChange() (int, float64) {
	return SizeChange(n.Original.RelevantLines, n.Revised.RelevantLines)
}

// PackageTree is the package hierarchy of a report. Nodes are stored in
// display order; Parent and Children index into Nodes, Parent is -1 for roots.
type PackageTree struct {
	Nodes []PackageNode `json:"nodes"`
	Roots []int         `json:"roots"`
}

// Node returns the node of the named package.
func (t *PackageTree) Node(name string) (*PackageNode, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].Name == name {
			return &t.Nodes[i], true
		}
	}
	return nil, false
}

// Depth returns the number of separators in a package name.
func Depth(name string) int {
	return strings.Count(name, PackageSeparator)
}

// LastSegment returns the part of a dotted name after the last separator.
func LastSegment(name string) string {
	if i := strings.LastIndex(name, PackageSeparator); i >= 0 {
		return name[i+1:]
	}
	return name
}

// SizeChange returns revised-original and the change as a percentage of
// original rounded to two decimals. The percentage is 0 when original is 0.
func SizeChange(original, revised int) (int, float64) {
	change := revised - original
	if original == 0 {
		return change, 0
	}
	return change, math.Round(float64(change)/float64(original)*10000) / 100
}
