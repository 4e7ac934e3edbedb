package report

import (
	"fmt"
	"strings"

	"github.com/canonry/canonry/pkg/runner"
)

// BatchMarkdown summarizes a batch run, one line per job in submission order.
func BatchMarkdown(results runner.Results) string {
	var sb strings.Builder

	sb.WriteString("# Batch Validation\n\n")
	for _, res := range results {
		switch {
		case res.Err != nil:
			sb.WriteString(fmt.Sprintf("- **%s**: ERROR %v\n", res.Label, res.Err))
		case res.Report == nil || res.Report.Incomplete:
			sb.WriteString(fmt.Sprintf("- **%s**: INCOMPLETE\n", res.Label))
		case res.Report.Valid:
			sb.WriteString(fmt.Sprintf("- **%s**: VALID\n", res.Label))
		default:
			sb.WriteString(fmt.Sprintf("- **%s**: INVALID (%d violations, %d conflicts)\n",
				res.Label, len(res.Report.Violations), len(res.Report.Conflicts)))
		}
	}
	sb.WriteString(fmt.Sprintf("\n**Summary:** %s\n", results.Summary()))

	return sb.String()
}
