package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chmouel/covdiff/internal/model"
)

type coberturaXML struct {
	XMLName    xml.Name     `xml:"coverage"`
	LineRate   float64      `xml:"line-rate,attr"`
	BranchRate float64      `xml:"branch-rate,attr"`
	Packages   []packageXML `xml:"packages>package"`
}

type packageXML struct {
	Name       string     `xml:"name,attr"`
	LineRate   float64    `xml:"line-rate,attr"`
	BranchRate float64    `xml:"branch-rate,attr"`
	Classes    []classXML `xml:"classes>class"`
}

type classXML struct {
	Name       string    `xml:"name,attr"`
	Filename   string    `xml:"filename,attr"`
	LineRate   float64   `xml:"line-rate,attr"`
	BranchRate float64   `xml:"branch-rate,attr"`
	Lines      []lineXML `xml:"lines>line"`
}

type lineXML struct {
	Number            int    `xml:"number,attr"`
	Hits              int64  `xml:"hits,attr"`
	Branch            bool   `xml:"branch,attr"`
	ConditionCoverage string `xml:"condition-coverage,attr"`
}

// ParseCobertura reads a Cobertura XML report into a snapshot.
func ParseCobertura(reportPath string) (*model.Snapshot, error) {
	f, err := os.Open(reportPath) //nolint:gosec // path is from configuration
	if err != nil {
		return nil, fmt.Errorf("opening cobertura report: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DecodeCobertura(f)
}

// DecodeCobertura decodes a Cobertura XML document into a snapshot. Package
// and class rates are taken from the report as is.
func DecodeCobertura(r io.Reader) (*model.Snapshot, error) {
	var doc coberturaXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding cobertura report: %w", err)
	}

	snapshot := &model.Snapshot{
		Packages:   make(map[string]*model.Package, len(doc.Packages)),
		LineRate:   doc.LineRate,
		BranchRate: doc.BranchRate,
	}

	for _, px := range doc.Packages {
		pkg, ok := snapshot.Packages[px.Name]
		if !ok {
			pkg = &model.Package{
				Name:       px.Name,
				Classes:    make(map[string]*model.Class, len(px.Classes)),
				LineRate:   px.LineRate,
				BranchRate: px.BranchRate,
			}
			snapshot.Packages[px.Name] = pkg
		}

		for _, cx := range px.Classes {
			lines := make([]model.Line, 0, len(cx.Lines))
			for _, lx := range cx.Lines {
				lines = append(lines, model.Line{
					Number:         lx.Number,
					Hits:           lx.Hits,
					Branch:         lx.Branch,
					BranchCoverage: parseConditionCoverage(lx.ConditionCoverage),
				})
			}

			if existing, ok := pkg.Classes[cx.Name]; ok {
				// Same class reported twice, e.g. split across report fragments.
				existing.Lines = mergeLines(existing.Lines, lines)
				continue
			}
			pkg.Classes[cx.Name] = &model.Class{
				Name:       cx.Name,
				FileName:   cx.Filename,
				Lines:      mergeLines(nil, lines),
				LineRate:   cx.LineRate,
				BranchRate: cx.BranchRate,
			}
		}
	}

	for _, pkg := range snapshot.Packages {
		pkg.RelevantLines = 0
		for _, c := range pkg.Classes {
			pkg.RelevantLines += len(c.Lines)
		}
	}

	return snapshot, nil
}

// parseConditionCoverage turns "50% (1/2)" into 50. Anything else is 0.
func parseConditionCoverage(s string) float64 {
	pct, _, found := strings.Cut(s, "%")
	if !found {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
	if err != nil {
		return 0
	}
	return v
}
