package thumbnail

import (
	"encoding/json"
	"os"
	"time"
)

// Report summarizes a run. It is persisted with WriteReport.
type Report struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	DryRun     bool         `json:"dry_run"`
	Items      []ItemReport `json:"items"`
}

// ItemReport records one captured thumbnail. Output is empty in dry runs.
type ItemReport struct {
	Category string        `json:"category"`
	Part     string        `json:"part"`
	Output   string        `json:"output,omitempty"`
	Bytes    int           `json:"bytes"`
	Duration time.Duration `json:"duration_ns"`
}

// Elapsed is the wall-clock time of the run.
func (r Report) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// WriteReport stores r as indented JSON at path.
func WriteReport(path string, r Report) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return err
	}
	return file.Close()
}

// LoadReport reads a report written by WriteReport.
func LoadReport(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, err
	}
	return r, nil
}
