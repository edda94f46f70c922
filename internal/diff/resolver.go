package diff

import "github.com/chmouel/covdiff/internal/model"

// Correspondence is the relation between an original and a revised line.
type Correspondence int

const (
	// Unrelated lines are not counterparts of each other.
	Unrelated Correspondence = iota
	// Untouched lines lie outside every operation and are the same line.
	Untouched
	// Edited lines sit at the same offset inside a replaced region.
	Edited
)

func (c Correspondence) String() string {
	switch c {
	case Untouched:
		return "untouched"
	case Edited:
		return "edited"
	default:
		return "unrelated"
	}
}

// Script is an edit script ordered by position. Operations never overlap.
type Script []model.EditOp

// TryGetChange returns the operation starting exactly at the given original
// and revised line. Scanning stops at the first operation starting after
// both lines, since no later operation can match.
func (s Script) TryGetChange(originalLine, revisedLine int) (model.EditOp, bool) {
	for _, op := range s {
		if op.OriginalStart == originalLine && op.RevisedStart == revisedLine {
			return op, true
		}
		if op.OriginalStart > originalLine && op.RevisedStart > revisedLine {
			break
		}
	}
	return model.EditOp{}, false
}

// Classify tells how originalLine and revisedLine correspond.
func (s Script) Classify(originalLine, revisedLine int) Correspondence {
	offset := 0
	for _, op := range s {
		if originalLine < op.OriginalStart && revisedLine < op.RevisedStart {
			break
		}
		inOriginal := originalLine >= op.OriginalStart && originalLine < op.OriginalEnd()
		inRevised := revisedLine >= op.RevisedStart && revisedLine < op.RevisedEnd()
		if inOriginal || inRevised {
			if inOriginal && inRevised && originalLine-op.OriginalStart == revisedLine-op.RevisedStart {
				return Edited
			}
			return Unrelated
		}
		offset += op.RevisedLength - op.OriginalLength
	}
	if revisedLine == originalLine+offset {
		return Untouched
	}
	return Unrelated
}

// RevisedLine returns the revised counterpart of an original line that no
// operation touches.
func (s Script) RevisedLine(originalLine int) (int, bool) {
	offset := 0
	for _, op := range s {
		if originalLine < op.OriginalStart {
			break
		}
		if originalLine < op.OriginalEnd() {
			return 0, false
		}
		offset += op.RevisedLength - op.OriginalLength
	}
	return originalLine + offset, true
}

// OriginalLine returns the original counterpart of a revised line that no
// operation touches.
func (s Script) OriginalLine(revisedLine int) (int, bool) {
	offset := 0
	for _, op := range s {
		if revisedLine < op.RevisedStart {
			break
		}
		if revisedLine < op.RevisedEnd() {
			return 0, false
		}
		offset += op.OriginalLength - op.RevisedLength
	}
	return revisedLine + offset, true
}
