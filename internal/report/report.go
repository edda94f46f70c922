package report

import (
	"github.com/chmouel/covdiff/internal/model"
)

// Result is the outcome of one reconciliation run, handed to the renderers.
type Result struct {
	Original *model.Snapshot       `json:"-"`
	Revised  *model.Snapshot       `json:"-"`
	Changed  []*model.ChangedClass `json:"changed"`
	Tree     *model.PackageTree    `json:"tree"`
	Summary  Summary               `json:"summary"`
	Tests    []ChangedTest         `json:"tests,omitempty"`
}

// Summary counts the line deltas of a result.
type Summary struct {
	Classes            int     `json:"classes"`
	Packages           int     `json:"packages"`
	AddedLines         int     `json:"addedLines"`
	RemovedLines       int     `json:"removedLines"`
	NewlyCovered       int     `json:"newlyCovered"`
	NewlyUncovered     int     `json:"newlyUncovered"`
	BranchChanges      int     `json:"branchChanges"`
	OriginalLineRate   float64 `json:"originalLineRate"`
	RevisedLineRate    float64 `json:"revisedLineRate"`
	OriginalBranchRate float64 `json:"originalBranchRate"`
	RevisedBranchRate  float64 `json:"revisedBranchRate"`
}

// LineRateDelta returns the change of the overall line rate.
func (s Summary) LineRateDelta() float64 {
	return s.RevisedLineRate - s.OriginalLineRate
}

// Build reconciles the snapshots and builds the package tree. Nothing is
// returned when reconciliation fails.
func Build(original, revised *model.Snapshot, diffs FileDiffs, opts Options) (*Result, error) {
	changed, err := Reconcile(original, revised, diffs, opts)
	if err != nil {
		return nil, err
	}

	tree := BuildTree(changed, original, revised)

	return &Result{
		Original: original,
		Revised:  revised,
		Changed:  changed,
		Tree:     tree,
		Summary:  summarize(changed, tree, original, revised),
	}, nil
}

func summarize(changed []*model.ChangedClass, tree *model.PackageTree, original, revised *model.Snapshot) Summary {
	s := Summary{
		Classes:            len(changed),
		Packages:           len(tree.Nodes),
		OriginalLineRate:   original.LineRate,
		RevisedLineRate:    revised.LineRate,
		OriginalBranchRate: original.BranchRate,
		RevisedBranchRate:  revised.BranchRate,
	}
	for _, c := range changed {
		for _, ch := range c.Changes {
			switch ch.Kind {
			case model.ChangeAdded:
				s.AddedLines++
			case model.ChangeRemoved:
				s.RemovedLines++
			case model.ChangeCovered:
				s.NewlyCovered++
			case model.ChangeUncovered:
				s.NewlyUncovered++
			case model.ChangeBranch:
				s.BranchChanges++
			}
		}
	}
	return s
}
