// Package report reconciles two coverage snapshots with the source diff and
// arranges the changed classes into a package tree.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/chmouel/covdiff/internal/model"
)

// DefaultSourcePrefix is where class files live relative to a revision root.
const DefaultSourcePrefix = "src/main/java"

var (
	// ErrClassNotFound is returned when a class disappears from the revised
	// snapshot while its package and its source file survive.
	ErrClassNotFound = errors.New("class missing from revised coverage")

	// ErrMissingSnapshot is returned when either snapshot is nil.
	ErrMissingSnapshot = errors.New("coverage snapshot missing")
)

// FileDiffs looks up the source diff of a file by its source path.
type FileDiffs interface {
	File(path string) (*model.FileDiff, bool)
}

// Options configures the reconciliation.
type Options struct {
	// SourcePrefix is joined with a class file name to build the path looked
	// up in FileDiffs.
	SourcePrefix string
}

// SourcePath returns the source path of a class file. The loader and the
// diff report must agree on it byte for byte.
func SourcePath(prefix, fileName string) string {
	return path.Join(prefix, fileName)
}

type reconciler struct {
	diffs   FileDiffs
	opts    Options
	changed []*model.ChangedClass
}

// Reconcile matches the classes of both snapshots by name and returns a
// record for every class whose coverage changed. Classes without any line
// delta are left out.
func Reconcile(original, revised *model.Snapshot, diffs FileDiffs, opts Options) ([]*model.ChangedClass, error) {
	if original == nil || revised == nil {
		return nil, ErrMissingSnapshot
	}

	r := &reconciler{diffs: diffs, opts: opts}

	if err := r.matchOriginal(original, revised); err != nil {
		return nil, err
	}
	r.collectNew(original, revised)
	r.collectDeletedPackages(original, revised)

	slog.Debug("reconciled coverage", "changed_classes", len(r.changed))

	return r.changed, nil
}

// matchOriginal compares every original class of a package that still
// exists with its revised counterpart.
func (r *reconciler) matchOriginal(original, revised *model.Snapshot) error {
	for _, oPkg := range original.SortedPackages() {
		rPkg := revised.Package(oPkg.Name)
		if rPkg == nil {
			continue
		}

		for _, oClass := range oPkg.SortedClasses() {
			fd := r.fileDiff(oClass.FileName, model.StateSame)

			rClass := rPkg.Class(oClass.Name)
			if rClass == nil {
				if fd.State != model.StateDeleted {
					return fmt.Errorf("%w: %s (package %s)", ErrClassNotFound, oClass.Name, oPkg.Name)
				}
				r.add(deletedRecord(oPkg.Name, oClass, fd))
				continue
			}

			changes := compareClasses(oClass, rClass, fd)
			state := model.StateChanged
			if len(changes) == 0 {
				state = model.StateSame
			}
			r.add(&model.ChangedClass{
				ClassName:   oClass.Name,
				PackageName: oPkg.Name,
				State:       state,
				FileDiff:    fd,
				Original:    oClass,
				Revised:     rClass,
				Changes:     changes,
			})
		}
	}
	return nil
}

// collectNew records the classes that only exist in the revised snapshot,
// whether their package is new or not.
func (r *reconciler) collectNew(original, revised *model.Snapshot) {
	for _, rPkg := range revised.SortedPackages() {
		oPkg := original.Package(rPkg.Name)
		for _, rClass := range rPkg.SortedClasses() {
			if oPkg.Class(rClass.Name) != nil {
				continue
			}
			fd := r.fileDiff(rClass.FileName, model.StateNew)
			r.add(&model.ChangedClass{
				ClassName:   rClass.Name,
				PackageName: rPkg.Name,
				State:       model.StateNew,
				FileDiff:    fd,
				Revised:     rClass,
				Changes:     addedLines(rClass),
			})
		}
	}
}

// collectDeletedPackages records the classes of packages that no longer
// exist in the revised snapshot.
func (r *reconciler) collectDeletedPackages(original, revised *model.Snapshot) {
	for _, oPkg := range original.SortedPackages() {
		if revised.HasPackage(oPkg.Name) {
			continue
		}
		slog.Debug("package deleted", "package", oPkg.Name)
		for _, oClass := range oPkg.SortedClasses() {
			r.add(deletedRecord(oPkg.Name, oClass, r.fileDiff(oClass.FileName, model.StateDeleted)))
		}
	}
}

func (r *reconciler) add(c *model.ChangedClass) {
	if len(c.Changes) == 0 {
		return
	}
	r.changed = append(r.changed, c)
}

// fileDiff returns the source diff of a class file. Files the diff report
// does not know about get an empty diff in the given state.
func (r *reconciler) fileDiff(fileName string, fallback model.State) *model.FileDiff {
	p := SourcePath(r.opts.SourcePrefix, fileName)
	if r.diffs != nil {
		if fd, ok := r.diffs.File(p); ok && fd != nil {
			return fd
		}
	}

	fd := &model.FileDiff{State: fallback}
	switch fallback {
	case model.StateNew:
		fd.RevisedPath = p
	case model.StateDeleted:
		fd.OriginalPath = p
	default:
		fd.OriginalPath, fd.RevisedPath = p, p
	}
	return fd
}

func deletedRecord(pkg string, c *model.Class, fd *model.FileDiff) *model.ChangedClass {
	return &model.ChangedClass{
		ClassName:   c.Name,
		PackageName: pkg,
		State:       model.StateDeleted,
		FileDiff:    fd,
		Original:    c,
		Changes:     removedLines(c),
	}
}
