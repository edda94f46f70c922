package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileDiffCounts(t *testing.T) {
	tests := []struct {
		name        string
		diff        FileDiff
		wantAdded   int
		wantRemoved int
	}{
		{
			name: "changed sums operation lengths",
			diff: FileDiff{State: StateChanged, OriginalLines: 10, RevisedLines: 11, Ops: []EditOp{
				{Kind: OpReplace, OriginalStart: 2, OriginalLength: 1, RevisedStart: 2, RevisedLength: 2},
				{Kind: OpDelete, OriginalStart: 6, OriginalLength: 2, RevisedStart: 7},
				{Kind: OpInsert, OriginalStart: 9, RevisedStart: 8, RevisedLength: 2},
			}},
			wantAdded:   4,
			wantRemoved: 3,
		},
		{
			name:      "new file adds every line",
			diff:      FileDiff{State: StateNew, RevisedLines: 7},
			wantAdded: 7,
		},
		{
			name:        "deleted file removes every line",
			diff:        FileDiff{State: StateDeleted, OriginalLines: 5},
			wantRemoved: 5,
		},
		{
			name: "same file",
			diff: FileDiff{State: StateSame, OriginalLines: 5, RevisedLines: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantAdded, tt.diff.Added())
			assert.Equal(t, tt.wantRemoved, tt.diff.Removed())
		})
	}
}

func TestClassLine(t *testing.T) {
	c := &Class{Name: "com.foo.Bar", Lines: []Line{{Number: 3, Hits: 1}, {Number: 7}, {Number: 12, Hits: 4}}}

	l, ok := c.Line(7)
	assert.True(t, ok)
	assert.False(t, l.Covered())

	l, ok = c.Line(12)
	assert.True(t, ok)
	assert.Equal(t, int64(4), l.Hits)

	_, ok = c.Line(8)
	assert.False(t, ok)

	assert.Equal(t, 12, c.LastLine())
	assert.Equal(t, "Bar", c.ShortName())

	var missing *Class
	_, ok = missing.Line(1)
	assert.False(t, ok)
	assert.Equal(t, 0, missing.LastLine())
}

func TestSnapshotOrdering(t *testing.T) {
	s := &Snapshot{Packages: map[string]*Package{
		"com.b": {Name: "com.b", Classes: map[string]*Class{
			"com.b.Z": {Name: "com.b.Z"},
			"com.b.A": {Name: "com.b.A"},
		}},
		"com.a": {Name: "com.a"},
	}}

	pkgs := s.SortedPackages()
	assert.Equal(t, "com.a", pkgs[0].Name)
	assert.Equal(t, "com.b", pkgs[1].Name)

	classes := s.Package("com.b").SortedClasses()
	assert.Equal(t, "com.b.A", classes[0].Name)
	assert.Equal(t, "com.b.Z", classes[1].Name)

	assert.True(t, s.HasPackage("com.a"))
	assert.False(t, s.HasPackage("com"))

	var empty *Snapshot
	assert.Nil(t, empty.Package("com.a"))
	assert.Nil(t, empty.Package("com.a").Class("com.a.X"))
	assert.Equal(t, Metrics{}, empty.Package("com.a").Metrics())
}

func TestDepthAndSegments(t *testing.T) {
	assert.Equal(t, 0, Depth("com"))
	assert.Equal(t, 2, Depth("com.foo.bar"))
	assert.Equal(t, "bar", LastSegment("com.foo.bar"))
	assert.Equal(t, "com", LastSegment("com"))
}

func TestSizeChange(t *testing.T) {
	change, pct := SizeChange(40, 50)
	assert.Equal(t, 10, change)
	assert.InDelta(t, 25.0, pct, 1e-9)

	change, pct = SizeChange(3, 2)
	assert.Equal(t, -1, change)
	assert.InDelta(t, -33.33, pct, 1e-9)

	change, pct = SizeChange(0, 5)
	assert.Equal(t, 5, change)
	assert.Zero(t, pct)
}

func TestPackageNodeDeltas(t *testing.T) {
	n := PackageNode{
		Original: Metrics{LineRate: 0.5, BranchRate: 0.25, RelevantLines: 20},
		Revised:  Metrics{LineRate: 0.75, BranchRate: 0.25, RelevantLines: 25},
	}
	assert.InDelta(t, 0.25, n.LineRateDelta(), 1e-9)
	assert.InDelta(t, 0.0, n.BranchRateDelta(), 1e-9)

	change, pct := n.RelevantLinesChange()
	assert.Equal(t, 5, change)
	assert.InDelta(t, 25.0, pct, 1e-9)

	tree := PackageTree{Nodes: []PackageNode{{Name: "com"}, {Name: "com.foo"}}}
	node, ok := tree.Node("com.foo")
	assert.True(t, ok)
	assert.Equal(t, "com.foo", node.Name)
	_, ok = tree.Node("org")
	assert.False(t, ok)
}

func TestChangedClassMetrics(t *testing.T) {
	c := ChangedClass{
		ClassName: "com.foo.Bar",
		State:     StateNew,
		Revised:   &Class{Name: "com.foo.Bar", LineRate: 1, Lines: []Line{{Number: 1, Hits: 1}}},
	}
	assert.Equal(t, "Bar", c.ShortName())
	assert.Equal(t, Metrics{}, c.OriginalMetrics())
	assert.Equal(t, Metrics{LineRate: 1, RelevantLines: 1}, c.RevisedMetrics())
}
