package generator

import (
	"fmt"
	"math"

	"github.com/chmouel/covdiff/internal/model"
	"github.com/chmouel/covdiff/internal/report"
)

// Row kinds.
const (
	rowPackage = "package"
	rowClass   = "class"
)

// row is one line of the overview, either a package or a class below it.
type row struct {
	ID       string
	ParentID string
	Kind     string
	Name     string // display name
	FullName string
	Level    int
	State    model.State
	Original model.Metrics
	Revised  model.Metrics

	Added, Removed, Covered, Uncovered int
}

// Deleted reports whether the row only exists in the original revision.
func (r row) Deleted() bool { return r.State == model.StateDeleted }

// LineDelta returns the line rate change in percentage points.
func (r row) LineDelta() float64 { return (r.Revised.LineRate - r.Original.LineRate) * 100 }

// BranchDelta returns the branch rate change in percentage points.
func (r row) BranchDelta() float64 { return (r.Revised.BranchRate - r.Original.BranchRate) * 100 }

// SizeChange formats the relevant line change as "+12 (+10.00%)".
func (r row) SizeChange() string {
	change, pct := model.SizeChange(r.Original.RelevantLines, r.Revised.RelevantLines)
	return fmt.Sprintf("%+d (%s)", change, signedPercent(pct))
}

// testChange formats the size change of a test file, "+12 (100%)" for a new
// file and "-3 (-7.50%)" for a shrunk one.
func testChange(t report.ChangedTest) string {
	switch t.State {
	case model.StateNew, model.StateDeleted:
		return fmt.Sprintf("%+d (100%%)", t.Change)
	}
	return fmt.Sprintf("%+d (%s)", t.Change, signedPercent(t.Percent))
}

// overviewRows flattens the package tree into display rows: each package
// followed by its classes, then its subpackages.
func overviewRows(result *report.Result) []row {
	if result == nil || result.Tree == nil {
		return nil
	}

	rows := make([]row, 0, len(result.Tree.Nodes)+len(result.Changed))
	for i := range result.Tree.Nodes {
		node := &result.Tree.Nodes[i]

		parentID := ""
		if node.Parent >= 0 {
			parentID = packageID(node.Parent)
		}

		name := node.Name
		if node.Parent >= 0 {
			// Shown relative to the enclosing package row.
			name = node.Name[len(result.Tree.Nodes[node.Parent].Name)+len(model.PackageSeparator):]
		}

		pkgRow := row{
			ID:       packageID(i),
			ParentID: parentID,
			Kind:     rowPackage,
			Name:     name,
			FullName: node.Name,
			Level:    node.Level,
			State:    node.State,
			Original: node.Original,
			Revised:  node.Revised,
		}

		classRows := make([]row, 0, len(node.Classes))
		for j, c := range node.Classes {
			cr := row{
				ID:       fmt.Sprintf("%s-c%d", pkgRow.ID, j),
				ParentID: pkgRow.ID,
				Kind:     rowClass,
				Name:     c.ShortName(),
				FullName: c.ClassName,
				Level:    node.Level + 1,
				State:    c.State,
				Original: c.OriginalMetrics(),
				Revised:  c.RevisedMetrics(),
			}
			countChanges(&cr, c.Changes)
			pkgRow.Added += cr.Added
			pkgRow.Removed += cr.Removed
			pkgRow.Covered += cr.Covered
			pkgRow.Uncovered += cr.Uncovered
			classRows = append(classRows, cr)
		}

		rows = append(rows, pkgRow)
		rows = append(rows, classRows...)
	}
	return rows
}

func packageID(i int) string { return fmt.Sprintf("p%d", i) }

func countChanges(r *row, changes []model.LineChange) {
	for _, ch := range changes {
		switch ch.Kind {
		case model.ChangeAdded:
			r.Added++
		case model.ChangeRemoved:
			r.Removed++
		case model.ChangeCovered:
			r.Covered++
		case model.ChangeUncovered:
			r.Uncovered++
		}
	}
}

func percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

func signedPercent(points float64) string {
	if math.Abs(points) < 0.005 {
		return "0.00%"
	}
	return fmt.Sprintf("%+.2f%%", points)
}

// deltaClass maps a delta to the css class used to color it.
func deltaClass(points float64) string {
	switch {
	case points >= 0.005:
		return "up"
	case points <= -0.005:
		return "down"
	}
	return "flat"
}
