// Package resultsfile writes nr-bench results to disk without ever leaving
// a half-written file behind if the process is killed mid-write: it writes
// through a temp file and renames, via github.com/natefinch/atomic.
package resultsfile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/natefinch/atomic"
)

// Result is one scenario's outcome, as recorded by cmd/nr-bench.
type Result struct {
	Scenario string  `json:"scenario"`
	Ops      int     `json:"ops"`
	Seconds  float64 `json:"seconds"`
	OpsPerUs float64 `json:"ops_per_us"` //nolint:tagliatelle // snake_case for results file
}

// Write atomically (over)writes path with results as indented JSON.
func Write(path string, results []Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("resultsfile: marshal: %w", err)
	}

	data = append(data, '\n')

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("resultsfile: write %s: %w", path, err)
	}

	return nil
}
