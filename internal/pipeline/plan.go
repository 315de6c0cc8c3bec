package pipeline

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// PlannedStage is the dry-run view of one stage.
type PlannedStage struct {
	Step        int      `yaml:"step"`
	Name        string   `yaml:"name"`
	Program     string   `yaml:"program,omitempty"`
	Argv        []string `yaml:"argv,omitempty"`
	Placeholder bool     `yaml:"placeholder,omitempty"`
}

// Plan is the full dry-run document.
type Plan struct {
	RunID  string         `yaml:"run_id,omitempty"`
	Stages []PlannedStage `yaml:"stages"`
}

// Plan describes what Run would execute without running anything.
func (o *Orchestrator) Plan() []PlannedStage {
	planned := make([]PlannedStage, 0, len(o.stages))
	for i, s := range o.stages {
		ps := PlannedStage{Step: i + 1, Name: s.Name()}
		if spec, ok := s.Command(); ok {
			ps.Program = spec.Program
			ps.Argv = spec.Argv()
		} else {
			ps.Placeholder = true
		}
		planned = append(planned, ps)
	}
	return planned
}

// WritePlan encodes plan as YAML to w.
func WritePlan(w io.Writer, plan Plan) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(plan); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return enc.Close()
}
