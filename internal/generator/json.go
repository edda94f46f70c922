package generator

import (
	"encoding/json"
	"fmt"

	"github.com/chmouel/covdiff/internal/report"
)

// WriteJSON writes result as indented JSON to outputPath, or to stdout when
// outputPath is empty or "-".
func WriteJSON(result *report.Result, outputPath string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	return writeOutput(outputPath, append(data, '\n'))
}
