package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chmouel/covdiff/internal/model"
)

// Supported report formats.
const (
	FormatCobertura = "cobertura"
	FormatGoProfile = "goprofile"
)

// ErrCoverageUnavailable is returned when a snapshot could not be produced,
// either because the coverage tool failed or because its report is unusable.
var ErrCoverageUnavailable = errors.New("coverage tool failed")

// ErrUnknownFormat is returned for an unsupported report format.
var ErrUnknownFormat = errors.New("unknown coverage format")

// LoadOptions describes how to obtain the snapshot of one revision.
type LoadOptions struct {
	Format  string   // FormatCobertura or FormatGoProfile
	Report  string   // report path, relative to the revision directory
	Command []string // optional coverage tool run in the directory first
}

// Load produces the coverage snapshot of the revision in dir.
func Load(ctx context.Context, dir string, opts LoadOptions) (*model.Snapshot, error) {
	if len(opts.Command) > 0 {
		if err := RunCommand(ctx, dir, opts.Command); err != nil {
			return nil, err
		}
	}

	reportPath := opts.Report
	if !filepath.IsAbs(reportPath) {
		reportPath = filepath.Join(dir, reportPath)
	}

	var (
		snapshot *model.Snapshot
		err      error
	)
	switch opts.Format {
	case FormatCobertura, "":
		snapshot, err = ParseCobertura(reportPath)
	case FormatGoProfile:
		snapshot, err = ParseProfile(reportPath, dir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCoverageUnavailable, dir, err)
	}

	slog.Info("loaded coverage", "dir", dir, "format", opts.Format, "packages", len(snapshot.Packages))
	return snapshot, nil
}

// RunCommand runs the coverage tool in dir. Its combined output is logged at
// debug level and included in the error on failure.
func RunCommand(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // command comes from configuration
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	slog.Info("running coverage tool", "dir", dir, "command", strings.Join(argv, " "))
	err := cmd.Run()
	slog.Debug("coverage tool output", "dir", dir, "output", out.String())
	if err != nil {
		return fmt.Errorf("%w: %s in %s: %w: %s", ErrCoverageUnavailable, argv[0], dir, err, strings.TrimSpace(out.String()))
	}
	return nil
}
