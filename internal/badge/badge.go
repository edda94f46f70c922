// Package badge renders a shields.io style SVG badge of the revised coverage
// and its change against the original revision.
package badge

import (
	"fmt"
	"math"
	"os"
)

// Thresholds defines the color thresholds for badge generation.
type Thresholds struct {
	Red    float64 // Upper threshold for red (0-Red is red)
	Yellow float64 // Upper threshold for yellow (Red-Yellow is yellow, Yellow+ is green)
}

// DefaultThresholds returns the default color thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Red:    40,
		Yellow: 70,
	}
}

// Approximate glyph width of Verdana 11px, used to size the value box.
const (
	charWidth  = 7
	boxPadding = 10
	leftWidth  = 63
	height     = 20
)

// GenerateBadge creates an SVG badge showing the coverage percentage and its
// delta in percentage points, and writes it to outputPath. If outputPath is
// "-", the badge is written to stdout.
func GenerateBadge(coverage, delta float64, outputPath string, thresholds Thresholds) error {
	svg := generateSVG(coverage, delta, thresholds)

	if outputPath == "-" {
		if _, err := os.Stdout.WriteString(svg); err != nil {
			return fmt.Errorf("writing badge to stdout: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, []byte(svg), 0o644); err != nil { //nolint:gosec // G306: Badge should be readable
		return fmt.Errorf("writing badge file: %w", err)
	}

	return nil
}

// valueLabel formats "82.5% (+2.5)". A delta below 0.05 points is left out.
func valueLabel(coverage, delta float64) string {
	label := fmt.Sprintf("%.1f%%", coverage)
	if math.Abs(delta) >= 0.05 {
		label += fmt.Sprintf(" (%+.1f)", delta)
	}
	return label
}

func generateSVG(coverage, delta float64, thresholds Thresholds) string {
	coverage = min(max(coverage, 0), 100)

	color := getColor(coverage, thresholds)
	label := valueLabel(coverage, delta)

	rightWidth := len(label)*charWidth + boxPadding
	totalWidth := leftWidth + rightWidth

	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%[1]d" height="%[2]d" role="img" aria-label="coverage: %[3]s">
  <title>coverage: %[3]s</title>
  <g shape-rendering="crispEdges">
    <rect width="%[1]d" height="%[2]d" fill="#555"/>
    <rect x="%[4]d" width="%[5]d" height="%[2]d" fill="%[6]s"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" text-rendering="geometricPrecision" font-size="11">
    <text aria-hidden="true" x="%[7]d" y="15" fill="#010101" fill-opacity=".3">coverage</text>
    <text x="%[7]d" y="14">coverage</text>
    <text aria-hidden="true" x="%[8]d" y="15" fill="#010101" fill-opacity=".3">%[3]s</text>
    <text x="%[8]d" y="14">%[3]s</text>
  </g>
</svg>`,
		totalWidth,
		height,
		label,
		leftWidth,
		rightWidth,
		color,
		leftWidth/2,
		leftWidth+rightWidth/2,
	)
}

// getColor returns the SVG color code based on coverage percentage and thresholds.
func getColor(coverage float64, thresholds Thresholds) string {
	switch {
	case coverage >= thresholds.Yellow:
		return "#4c1" // Green
	case coverage > thresholds.Red:
		return "#dfb317" // Yellow/Amber
	default:
		return "#e05d44" // Red
	}
}
