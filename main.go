// Command covdiff compares the coverage of two revisions of a code base and
// reports, class by class, how coverage changed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/chmouel/covdiff/internal/badge"
	"github.com/chmouel/covdiff/internal/config"
	"github.com/chmouel/covdiff/internal/diff"
	"github.com/chmouel/covdiff/internal/generator"
	"github.com/chmouel/covdiff/internal/model"
	"github.com/chmouel/covdiff/internal/parser"
	"github.com/chmouel/covdiff/internal/report"
)

// Exit statuses.
const (
	exitOK = iota
	exitUsage
	exitCoverage
	exitDiff
	exitClassNotFound
)

var errUsage = errors.New("expected <original> <revised> directories")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(config.NewViper(), stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

// exitCode maps an error to the exit status of its failure category.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, parser.ErrCoverageUnavailable), errors.Is(err, report.ErrMissingSnapshot):
		return exitCoverage
	case errors.Is(err, diff.ErrDiffReport):
		return exitDiff
	case errors.Is(err, report.ErrClassNotFound):
		return exitClassNotFound
	default:
		return exitUsage
	}
}

type options struct {
	configPath string
	noTable    bool
	open       bool
}

func newRootCommand(v *viper.Viper, stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "covdiff [flags] <original> <revised>",
		Short: "Compare the test coverage of two revisions",
		Long: `covdiff loads the coverage report of two checkouts of the same project,
diffs their source files and reports every class whose line or branch
coverage changed, grouped by package.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return errUsage
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				v.Set("original", args[0])
				v.Set("revised", args[1])
			}

			cfg, err := config.Load(v, opts.configPath)
			if err != nil {
				return err
			}
			slog.SetDefault(config.NewLogger(stderr, cfg.Logging))

			return run(cmd.Context(), cfg, opts, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ./covdiff.yaml)")
	flags.BoolVar(&opts.noTable, "no-table", false, "do not print the overview table")
	flags.BoolVar(&opts.open, "open", false, "open the HTML overview in a browser")

	flags.String("format", config.DefaultCoverageFormat, "coverage report format: cobertura or goprofile")
	flags.String("report", config.DefaultCoverageReport, "coverage report path inside each directory")
	flags.StringSlice("command", nil, "coverage command run in each directory before loading")
	flags.String("source-prefix", config.DefaultSourcePrefix, "source directory of class files inside each directory")
	flags.String("test-prefix", config.DefaultTestPrefix, "test source directory inside each directory, empty to skip")
	flags.Int("workers", config.DefaultDiffWorkers, "number of files diffed concurrently")
	flags.StringP("json", "j", "", "write the result as JSON to this file")
	flags.StringP("html", "o", "", "write the HTML overview to this file")
	flags.String("badge", "", "write an SVG coverage badge to this file")
	flags.String("title", "", "title of the HTML overview")
	flags.String("log-level", config.DefaultLoggingLevel, "log level: debug, info, warn or error")
	flags.String("log-format", config.DefaultLoggingFormat, "log format: text or json")

	for key, name := range map[string]string{
		"coverage.format":  "format",
		"coverage.report":  "report",
		"coverage.command": "command",
		"source.prefix":    "source-prefix",
		"test.prefix":      "test-prefix",
		"diff.workers":     "workers",
		"output.json":      "json",
		"output.html":      "html",
		"output.badge":     "badge",
		"output.title":     "title",
		"logging.level":    "log-level",
		"logging.format":   "log-format",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	return cmd
}

func run(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer) error {
	original, revised, err := loadSnapshots(ctx, cfg)
	if err != nil {
		return err
	}

	paths := sourcePaths(cfg.Source.Prefix, original, revised)
	diffs, err := diff.NewReport(ctx, cfg.Original, cfg.Revised, paths, cfg.Diff.Workers)
	if err != nil {
		return err
	}

	result, err := report.Build(original, revised, diffs, report.Options{SourcePrefix: cfg.Source.Prefix})
	if err != nil {
		return err
	}

	result.Tests, err = changedTests(ctx, cfg)
	if err != nil {
		return err
	}
	slog.Info("coverage compared", "files", diffs.Len(), "changed_classes", len(result.Changed), "changed_tests", len(result.Tests))

	if err := writeOutputs(cfg, result); err != nil {
		return err
	}

	if !opts.noTable {
		if err := generator.WriteTable(stdout, result); err != nil {
			return fmt.Errorf("writing table: %w", err)
		}
	}
	printSummary(stdout, result.Summary)

	if opts.open && cfg.Output.HTML != "" && cfg.Output.HTML != "-" {
		openBrowser(cfg.Output.HTML)
	}
	return nil
}

// loadSnapshots loads both revisions concurrently.
func loadSnapshots(ctx context.Context, cfg *config.Config) (*model.Snapshot, *model.Snapshot, error) {
	loadOpts := parser.LoadOptions{
		Format:  cfg.Coverage.Format,
		Report:  cfg.Coverage.Report,
		Command: cfg.Coverage.Command,
	}

	var original, revised *model.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		original, err = parser.Load(gctx, cfg.Original, loadOpts)
		return err
	})
	g.Go(func() error {
		var err error
		revised, err = parser.Load(gctx, cfg.Revised, loadOpts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return original, revised, nil
}

// sourcePaths lists the source path of every class of both snapshots.
func sourcePaths(prefix string, snapshots ...*model.Snapshot) []string {
	seen := map[string]struct{}{}
	for _, s := range snapshots {
		for _, pkg := range s.SortedPackages() {
			for _, c := range pkg.SortedClasses() {
				seen[report.SourcePath(prefix, c.FileName)] = struct{}{}
			}
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// changedTests diffs the test sources of both revisions. Test files have no
// coverage; only their line counts are compared.
func changedTests(ctx context.Context, cfg *config.Config) ([]report.ChangedTest, error) {
	if cfg.Test.Prefix == "" {
		return nil, nil
	}

	paths, err := diff.ListFiles(cfg.Test.Prefix, cfg.Original, cfg.Revised)
	if err != nil {
		return nil, err
	}

	diffs, err := diff.NewReport(ctx, cfg.Original, cfg.Revised, paths, cfg.Diff.Workers)
	if err != nil {
		return nil, err
	}
	return report.ChangedTests(diffs, cfg.Test.Prefix), nil
}

func writeOutputs(cfg *config.Config, result *report.Result) error {
	if cfg.Output.JSON != "" {
		if err := generator.WriteJSON(result, cfg.Output.JSON); err != nil {
			return fmt.Errorf("writing JSON: %w", err)
		}
	}

	if cfg.Output.HTML != "" {
		opts := generator.Options{Title: cfg.Output.Title, Original: cfg.Original, Revised: cfg.Revised}
		if err := generator.Generate(result, cfg.Output.HTML, opts); err != nil {
			return fmt.Errorf("generating overview: %w", err)
		}
	}

	if cfg.Output.Badge != "" {
		s := result.Summary
		thresholds := badge.Thresholds{Red: cfg.Badge.Red, Yellow: cfg.Badge.Yellow}
		if err := badge.GenerateBadge(s.RevisedLineRate*100, s.LineRateDelta()*100, cfg.Output.Badge, thresholds); err != nil {
			return fmt.Errorf("generating badge: %w", err)
		}
	}

	return nil
}

func printSummary(w io.Writer, s report.Summary) {
	delta := s.LineRateDelta() * 100

	c := color.New(color.FgYellow)
	switch {
	case delta >= 0.005:
		c = color.New(color.FgGreen)
	case delta <= -0.005:
		c = color.New(color.FgRed)
	}

	c.Fprintf(w, "Coverage: %.2f%% -> %.2f%% (%+.2f)\n", s.OriginalLineRate*100, s.RevisedLineRate*100, delta)
	fmt.Fprintf(w, "%d classes changed: %d newly covered, %d newly uncovered, +%d/-%d lines\n",
		s.Classes, s.NewlyCovered, s.NewlyUncovered, s.AddedLines, s.RemovedLines)
}

func openBrowser(path string) {
	// Convert to absolute path for file:// URL
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return
	}
	_ = cmd.Start()
}
