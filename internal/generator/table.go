package generator

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/chmouel/covdiff/internal/model"
	"github.com/chmouel/covdiff/internal/report"
)

// WriteTable renders the overview as a plain terminal table, followed by the
// changed test files if there are any.
func WriteTable(w io.Writer, result *report.Result) error {
	rows := overviewRows(result)
	if len(rows) == 0 {
		if _, err := fmt.Fprintln(w, "No coverage changes."); err != nil {
			return err
		}
	} else {
		writeOverviewTable(w, result, rows)
	}

	if result != nil && len(result.Tests) > 0 {
		writeTestsTable(w, result.Tests)
	}
	return nil
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	return tbl
}

func writeOverviewTable(w io.Writer, result *report.Result, rows []row) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Name", "State", "Lines", "Δ", "Branches", "Δ", "Relevant", "+/-"})

	for _, r := range rows {
		name := strings.Repeat("  ", r.Level) + r.Name
		if r.Kind == rowPackage {
			name += "/"
		}

		current := r.Revised
		if r.Deleted() {
			current = r.Original
		}

		tbl.AppendRow(table.Row{
			name,
			r.State,
			percent(current.LineRate),
			signedPercent(r.LineDelta()),
			percent(current.BranchRate),
			signedPercent(r.BranchDelta()),
			humanize.Comma(int64(current.RelevantLines)),
			fmt.Sprintf("+%s/-%s", humanize.Comma(int64(r.Added)), humanize.Comma(int64(r.Removed))),
		})
	}

	s := result.Summary
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("Total: %d classes", s.Classes),
		"",
		percent(s.RevisedLineRate),
		signedPercent(s.LineRateDelta() * 100),
		percent(s.RevisedBranchRate),
		signedPercent((s.RevisedBranchRate - s.OriginalBranchRate) * 100),
		"",
		fmt.Sprintf("+%s/-%s", humanize.Comma(int64(s.AddedLines)), humanize.Comma(int64(s.RemovedLines))),
	})

	tbl.Render()
}

func writeTestsTable(w io.Writer, tests []report.ChangedTest) {
	_, _ = fmt.Fprintln(w)

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Test file", "State", "Lines", "Change"})
	for _, t := range tests {
		lines := t.RevisedLines
		if t.State == model.StateDeleted {
			lines = t.OriginalLines
		}
		tbl.AppendRow(table.Row{t.Name, t.State, humanize.Comma(int64(lines)), testChange(t)})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d test files", len(tests)), "", "", ""})
	tbl.Render()
}
