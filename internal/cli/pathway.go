package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/canonry/canonry/pkg/domain"
	"gopkg.in/yaml.v3"
)

// PathwayInput is the on-disk shape accepted by validate: a pathway plus an
// optional evaluation context.
type PathwayInput struct {
	Pathway domain.Pathway           `json:"pathway" yaml:"pathway"`
	Context domain.EvaluationContext `json:"context" yaml:"context"`
}

// BatchInput holds the jobs for a batch validation run.
type BatchInput struct {
	Jobs []BatchJob `json:"jobs" yaml:"jobs"`
}

// BatchJob is one labeled pathway in a batch file.
type BatchJob struct {
	Label   string                   `json:"label" yaml:"label"`
	Pathway domain.Pathway           `json:"pathway" yaml:"pathway"`
	Context domain.EvaluationContext `json:"context" yaml:"context"`
}

// LoadPathwayInput reads a pathway file. The extension picks the codec:
// .json is JSON, everything else parses as YAML.
func LoadPathwayInput(path string) (*PathwayInput, error) {
	var input PathwayInput
	if err := decodeFile(path, &input); err != nil {
		return nil, err
	}
	if input.Pathway.FandomID == "" {
		return nil, fmt.Errorf("pathway file %q declares no fandom_id", path)
	}
	return &input, nil
}

// LoadBatchInput reads a batch file of labeled pathways.
func LoadBatchInput(path string) (*BatchInput, error) {
	var input BatchInput
	if err := decodeFile(path, &input); err != nil {
		return nil, err
	}
	if len(input.Jobs) == 0 {
		return nil, fmt.Errorf("batch file %q has no jobs", path)
	}
	return &input, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
