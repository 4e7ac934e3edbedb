package report_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/canonry/canonry/internal/presentation/report"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/runner"
)

func TestBatchMarkdown(t *testing.T) {
	results := runner.Results{
		{Label: "canon", Report: &domain.ValidationReport{Valid: true}},
		{Label: "crack", Report: &domain.ValidationReport{
			Valid:      false,
			Violations: []domain.Violation{{Code: domain.CodeMutualExclusion}},
			Conflicts:  []domain.Conflict{{Source: "shipping_exclusivity"}},
		}},
		{Label: "cut-short", Report: &domain.ValidationReport{Incomplete: true}},
		{Label: "broken", Err: errors.New("fandom not found")},
	}

	out := report.BatchMarkdown(results)

	for _, want := range []string{
		"# Batch Validation",
		"- **canon**: VALID",
		"- **crack**: INVALID (1 violations, 1 conflicts)",
		"- **cut-short**: INCOMPLETE",
		"- **broken**: ERROR fandom not found",
		"**Summary:** 1 valid, 1 invalid, 1 incomplete, 1 errored",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q.\nGot:\n%s", want, out)
		}
	}
}
