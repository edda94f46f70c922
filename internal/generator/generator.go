// Package generator renders a coverage comparison as HTML, JSON or a
// terminal table.
package generator

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"

	"github.com/chmouel/covdiff/internal/report"
)

//go:embed assets/*
var assets embed.FS

type templateData struct {
	Title       string
	CSS         template.CSS
	JS          template.JS
	Summary     report.Summary
	LineDelta   float64 // percentage points
	BranchDelta float64 // percentage points
	Rows        []row
	Tests       []report.ChangedTest
	Original    string
	Revised     string
}

// Options configures the HTML report generation.
type Options struct {
	Title    string
	Original string // label of the original revision
	Revised  string // label of the revised revision
}

var funcs = template.FuncMap{
	"percent":       percent,
	"signedPercent": signedPercent,
	"deltaClass":    deltaClass,
	"testChange":    testChange,
	"indent":        func(level int) int { return level * 16 },
}

// Generate creates the HTML overview of result and writes it to outputPath,
// or to stdout when outputPath is empty or "-".
func Generate(result *report.Result, outputPath string, opts Options) error {
	cssBytes, err := assets.ReadFile("assets/style.css")
	if err != nil {
		return fmt.Errorf("reading CSS: %w", err)
	}

	jsBytes, err := assets.ReadFile("assets/app.js")
	if err != nil {
		return fmt.Errorf("reading JS: %w", err)
	}

	htmlBytes, err := assets.ReadFile("assets/template.html")
	if err != nil {
		return fmt.Errorf("reading HTML template: %w", err)
	}

	tmpl, err := template.New("overview").Funcs(funcs).Parse(string(htmlBytes))
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = "Coverage Difference"
	}

	//nolint:gosec // G203: CSS/JS are from embedded assets
	td := templateData{
		Title:       title,
		CSS:         template.CSS(cssBytes),
		JS:          template.JS(jsBytes),
		Summary:     result.Summary,
		LineDelta:   result.Summary.LineRateDelta() * 100,
		BranchDelta: (result.Summary.RevisedBranchRate - result.Summary.OriginalBranchRate) * 100,
		Rows:        overviewRows(result),
		Tests:       result.Tests,
		Original:    opts.Original,
		Revised:     opts.Revised,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, td); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}

	return writeOutput(outputPath, buf.Bytes())
}

func writeOutput(outputPath string, data []byte) error {
	if outputPath == "" || outputPath == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("writing to stdout: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil { //nolint:gosec // G306: reports should be readable
		return fmt.Errorf("writing output file: %w", err)
	}

	return nil
}
