package report

import (
	"sort"
	"strings"

	"github.com/chmouel/covdiff/internal/model"
)

// BuildTree arranges the packages of the changed classes into a tree. Every
// package name appears exactly once, nested under its nearest listed
// ancestor, and each node carries the package metrics of both snapshots.
func BuildTree(changed []*model.ChangedClass, original, revised *model.Snapshot) *model.PackageTree {
	b := &treeBuilder{
		names:    packageNames(changed),
		classes:  make(map[string][]*model.ChangedClass),
		original: original,
		revised:  revised,
		tree:     &model.PackageTree{Nodes: []model.PackageNode{}, Roots: []int{}},
	}
	for _, c := range changed {
		b.classes[c.PackageName] = append(b.classes[c.PackageName], c)
	}

	visited := make(map[string]bool, len(b.names))
	for _, name := range b.names {
		if visited[name] {
			continue
		}
		b.tree.Roots = append(b.tree.Roots, b.assign(name, -1, 0, visited))
	}
	return b.tree
}

// IsSubpackage reports whether name lies below parent: stripping parent from
// the front of name must leave a remainder starting with the separator, so
// com.foobar is not below com.foo.
func IsSubpackage(parent, name string) bool {
	rest, ok := strings.CutPrefix(name, parent)
	return ok && strings.HasPrefix(rest, model.PackageSeparator)
}

type treeBuilder struct {
	names    []string
	classes  map[string][]*model.ChangedClass
	original *model.Snapshot
	revised  *model.Snapshot
	tree     *model.PackageTree
}

// assign appends the node of name, then claims its unvisited subpackages in
// name order. Shallower names come first, so a package is always claimed by
// its nearest listed ancestor.
func (b *treeBuilder) assign(name string, parent, level int, visited map[string]bool) int {
	visited[name] = true

	idx := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, model.PackageNode{
		Name:     name,
		Depth:    model.Depth(name),
		Level:    level,
		Parent:   parent,
		State:    packageState(name, b.original, b.revised),
		Original: b.original.Package(name).Metrics(),
		Revised:  b.revised.Package(name).Metrics(),
		Classes:  b.classes[name],
	})

	for _, sub := range b.names {
		if visited[sub] || !IsSubpackage(name, sub) {
			continue
		}
		child := b.assign(sub, idx, level+1, visited)
		// Nodes may have been reallocated by the recursive call.
		node := &b.tree.Nodes[idx]
		node.Children = append(node.Children, child)
		node.Subpackages = append(node.Subpackages, sub)
	}
	return idx
}

func packageState(name string, original, revised *model.Snapshot) model.State {
	switch {
	case !revised.HasPackage(name):
		return model.StateDeleted
	case !original.HasPackage(name):
		return model.StateNew
	default:
		return model.StateChanged
	}
}

// packageNames returns the distinct package names of the records ordered by
// depth, then by name.
func packageNames(changed []*model.ChangedClass) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, c := range changed {
		if _, ok := seen[c.PackageName]; ok {
			continue
		}
		seen[c.PackageName] = struct{}{}
		names = append(names, c.PackageName)
	}

	sort.Slice(names, func(i, j int) bool {
		di, dj := model.Depth(names[i]), model.Depth(names[j])
		if di != dj {
			return di < dj
		}
		return names[i] < names[j]
	})
	return names
}
