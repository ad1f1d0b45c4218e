// Package pipeline implements the per-company stage-progression and
// final-track rules. The rule tables are immutable configuration built once
// at process start; every operation on them is a pure function.
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Threshold is the pass rule for one stage. Coding stages gate on the raw
// number of solved problems; everything else gates on the rounded percentage.
type Threshold struct {
	MinPercent int  `yaml:"min_percent"`
	MinRaw     int  `yaml:"min_raw"`
	UseRaw     bool `yaml:"use_raw"`
}

// TrackBand maps a minimum percentage to a track label.
type TrackBand struct {
	Min   int    `yaml:"min"`
	Track string `yaml:"track"`
}

// TrackRule decides the final track for a completed pipeline.
// Basis "stage" reads the percentage of one named stage; basis "average"
// uses the rounded mean percentage across all stages.
type TrackRule struct {
	Basis        string      `yaml:"basis"`
	Stage        string      `yaml:"stage,omitempty"`
	Bands        []TrackBand `yaml:"bands"`
	DefaultTrack string      `yaml:"default"`
}

// CompanyTable is the full rule set for one company. Stages is the canonical
// order and always ends with the terminal pseudo-stage "completed".
type CompanyTable struct {
	Stages     []string             `yaml:"stages"`
	Thresholds map[string]Threshold `yaml:"thresholds"`
	Track      TrackRule            `yaml:"track"`
}

// Tables holds every configured company pipeline.
type Tables struct {
	Companies map[string]CompanyTable `yaml:"companies"`
}

// DefaultTables returns the built-in TCS and Wipro rule tables.
func DefaultTables() Tables {
	return Tables{
		Companies: map[string]CompanyTable{
			"TCS": {
				Stages: []string{"foundation", "advanced", "coding", "interview", "completed"},
				Thresholds: map[string]Threshold{
					"foundation": {MinPercent: 60},
					"advanced":   {MinPercent: 65},
					"coding":     {UseRaw: true, MinRaw: 2},
					"interview":  {MinPercent: 60},
				},
				Track: TrackRule{
					Basis: "stage",
					Stage: "coding",
					Bands: []TrackBand{
						{Min: 83, Track: "Digital"},
						{Min: 67, Track: "Ninja"},
					},
					DefaultTrack: "Ninja",
				},
			},
			"Wipro": {
				Stages: []string{"aptitude", "essay", "coding", "voice", "interview", "completed"},
				Thresholds: map[string]Threshold{
					"aptitude":  {MinPercent: 65},
					"essay":     {MinPercent: 70},
					"coding":    {UseRaw: true, MinRaw: 1},
					"voice":     {MinPercent: 60},
					"interview": {MinPercent: 60},
				},
				Track: TrackRule{
					Basis: "average",
					Bands: []TrackBand{
						{Min: 80, Track: "Turbo"},
						{Min: 70, Track: "Elite"},
					},
					DefaultTrack: "Elite",
				},
			},
		},
	}
}

// LoadTables reads rule tables from a YAML file, or returns the defaults when
// path is empty. Loaded tables fully replace the defaults; partial overrides
// are not merged.
func LoadTables(path string) (Tables, error) {
	if path == "" {
		return DefaultTables(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("op=pipeline.LoadTables: %w", err)
	}
	var t Tables
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Tables{}, fmt.Errorf("op=pipeline.LoadTables: %w", err)
	}
	if err := t.validate(); err != nil {
		return Tables{}, fmt.Errorf("op=pipeline.LoadTables: %w", err)
	}
	return t, nil
}

func (t Tables) validate() error {
	if len(t.Companies) == 0 {
		return fmt.Errorf("no companies configured")
	}
	for name, ct := range t.Companies {
		if len(ct.Stages) < 2 {
			return fmt.Errorf("company %q: needs at least one stage plus terminal", name)
		}
		if ct.Stages[len(ct.Stages)-1] != "completed" {
			return fmt.Errorf("company %q: stage list must end with completed", name)
		}
		for stage := range ct.Thresholds {
			if !contains(ct.Stages, stage) {
				return fmt.Errorf("company %q: threshold for unknown stage %q", name, stage)
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
