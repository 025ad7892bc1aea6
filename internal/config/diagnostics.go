package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DiagnosticSpec is the per-diagnostic entry of the diagnostics-config file:
// which lapse-rate variable accompanies the diagnostic and how neighbours
// are selected for it. Zero values fall back to the run-wide defaults.
type DiagnosticSpec struct {
	// LapseRate names the lapse-rate variable; empty disables correction.
	LapseRate string `json:"lapse_rate,omitempty"`
	// LapseRateFile overrides the file holding the lapse-rate variable;
	// empty means the diagnostic's own file.
	LapseRateFile string  `json:"lapse_rate_file,omitempty"`
	Constraint    string  `json:"constraint,omitempty"`
	TieBreak      string  `json:"tie_break,omitempty"`
	K             int     `json:"k,omitempty"`
	SearchRadius  float64 `json:"search_radius,omitempty"`
	// Strict overrides the run-wide strict flag for this diagnostic.
	Strict *bool `json:"strict,omitempty"`
}

// Diagnostics is the parsed diagnostics-config file.
type Diagnostics struct {
	Diagnostics map[string]DiagnosticSpec `json:"diagnostics"`
}

// LoadDiagnostics parses the diagnostics-config JSON file.
func LoadDiagnostics(path string) (*Diagnostics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read diagnostics config %s: %w", path, err)
	}
	var d Diagnostics
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse diagnostics config %s: %w", path, err)
	}
	return &d, nil
}

// Spec returns the entry for a diagnostic. An absent entry means defaults:
// nearest-cell selection, no constraint, no lapse-rate correction.
func (d *Diagnostics) Spec(name string) DiagnosticSpec {
	if d == nil || d.Diagnostics == nil {
		return DiagnosticSpec{}
	}
	return d.Diagnostics[name]
}
