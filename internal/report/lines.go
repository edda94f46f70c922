package report

import (
	"github.com/chmouel/covdiff/internal/diff"
	"github.com/chmouel/covdiff/internal/model"
)

// compareClasses returns the per-line coverage deltas between two versions
// of a class. A file missing on one side makes every line of the other side
// added or removed without consulting the edit script.
func compareClasses(original, revised *model.Class, fd *model.FileDiff) []model.LineChange {
	switch fd.State {
	case model.StateNew:
		return addedLines(revised)
	case model.StateDeleted:
		return removedLines(original)
	}
	return walkLines(diff.Script(fd.Ops), original, revised)
}

// walkLines advances through both files in lock step. Whenever an operation
// starts at the current pair its region is consumed at once; every other
// pair is the same source line on both sides.
func walkLines(script diff.Script, original, revised *model.Class) []model.LineChange {
	var changes []model.LineChange
	lastOriginal, lastRevised := original.LastLine(), revised.LastLine()

	o, r := 1, 1
	for o <= lastOriginal || r <= lastRevised {
		op, ok := script.TryGetChange(o, r)
		if ok && (op.OriginalLength > 0 || op.RevisedLength > 0) {
			changes = append(changes, editRegion(op, original, revised)...)
			o, r = op.OriginalEnd(), op.RevisedEnd()
			continue
		}
		if change, ok := compareLine(o, r, original, revised, false); ok {
			changes = append(changes, change)
		}
		o++
		r++
	}
	return changes
}

// editRegion pairs the lines of a replaced region by offset; lines left
// over on either side are removed or added.
func editRegion(op model.EditOp, original, revised *model.Class) []model.LineChange {
	var changes []model.LineChange
	paired := min(op.OriginalLength, op.RevisedLength)
	for i := range max(op.OriginalLength, op.RevisedLength) {
		o, r := op.OriginalStart+i, op.RevisedStart+i
		switch {
		case i < paired:
			if change, ok := compareLine(o, r, original, revised, true); ok {
				changes = append(changes, change)
			}
		case i < op.OriginalLength:
			if l, ok := original.Line(o); ok {
				changes = append(changes, removed(l, 0, true))
			}
		default:
			if l, ok := revised.Line(r); ok {
				changes = append(changes, added(l, 0, true))
			}
		}
	}
	return changes
}

// compareLine compares the coverage of two corresponding lines. A hit count
// change that keeps the line covered (3 -> 5) is not a delta; only a covered
// state flip or a branch change is.
func compareLine(o, r int, original, revised *model.Class, inEdit bool) (model.LineChange, bool) {
	ol, hasOriginal := original.Line(o)
	rl, hasRevised := revised.Line(r)

	switch {
	case !hasOriginal && !hasRevised:
		return model.LineChange{}, false
	case !hasRevised:
		return removed(ol, r, inEdit), true
	case !hasOriginal:
		return added(rl, o, inEdit), true
	}

	var kind model.ChangeKind
	switch {
	case ol.Covered() && !rl.Covered():
		kind = model.ChangeUncovered
	case !ol.Covered() && rl.Covered():
		kind = model.ChangeCovered
	case ol.Branch != rl.Branch || ol.BranchCoverage != rl.BranchCoverage:
		kind = model.ChangeBranch
	default:
		return model.LineChange{}, false
	}

	return model.LineChange{
		Kind:         kind,
		OriginalLine: o,
		RevisedLine:  r,
		Original:     &ol,
		Revised:      &rl,
		InEdit:       inEdit,
	}, true
}

// added records a revised-only line; counterpart is the corresponding
// original line number, 0 when there is none.
func added(l model.Line, counterpart int, inEdit bool) model.LineChange {
	return model.LineChange{
		Kind:         model.ChangeAdded,
		OriginalLine: counterpart,
		RevisedLine:  l.Number,
		Revised:      &l,
		InEdit:       inEdit,
	}
}

func removed(l model.Line, counterpart int, inEdit bool) model.LineChange {
	return model.LineChange{
		Kind:         model.ChangeRemoved,
		OriginalLine: l.Number,
		RevisedLine:  counterpart,
		Original:     &l,
		InEdit:       inEdit,
	}
}

func addedLines(c *model.Class) []model.LineChange {
	if c == nil {
		return nil
	}
	changes := make([]model.LineChange, 0, len(c.Lines))
	for _, l := range c.Lines {
		changes = append(changes, added(l, 0, false))
	}
	return changes
}

func removedLines(c *model.Class) []model.LineChange {
	if c == nil {
		return nil
	}
	changes := make([]model.LineChange, 0, len(c.Lines))
	for _, l := range c.Lines {
		changes = append(changes, removed(l, 0, false))
	}
	return changes
}
