package graph_test

import (
	"strings"
	"testing"

	"github.com/canonry/canonry/internal/presentation/graph"
	"github.com/canonry/canonry/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		audit    domain.GraphAudit
		contains []string
		excludes []string
	}{
		{
			name: "Acyclic Chain",
			audit: domain.GraphAudit{
				Order: []string{"block-prologue", "block-reveal", "block-finale"},
				DirectDependencies: map[string][]string{
					"block-reveal": {"block-prologue"},
					"block-finale": {"block-reveal"},
				},
			},
			contains: []string{
				"graph TD",
				"block_prologue[\"block-prologue\"]",
				"block_reveal --> block_prologue",
				"block_finale --> block_reveal",
			},
			excludes: []string{"classDef cycle"},
		},
		{
			name: "Cycle Highlighting",
			audit: domain.GraphAudit{
				HasCircularDependencies: true,
				CircularPaths:           [][]string{{"block-a", "block-b"}},
				DirectDependencies: map[string][]string{
					"block-a": {"block-b"},
					"block-b": {"block-a"},
				},
			},
			contains: []string{
				"classDef cycle",
				"class block_a cycle;",
				"class block_b cycle;",
			},
		},
		{
			name: "ID Sanitization",
			audit: domain.GraphAudit{
				Order: []string{"arcs/main.block", "hyphen-ated"},
			},
			contains: []string{
				"arcs_main_block[\"arcs/main.block\"]",
				"hyphen_ated[\"hyphen-ated\"]",
			},
		},
		{
			name: "Isolated Blocks Still Listed",
			audit: domain.GraphAudit{
				Order: []string{"block-lonely"},
			},
			contains: []string{
				"block_lonely[\"block-lonely\"]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(&tt.audit)

			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("Expected output to contain %q.\nGot:\n%s", want, out)
				}
			}
			for _, not := range tt.excludes {
				if strings.Contains(out, not) {
					t.Errorf("Expected output to NOT contain %q.\nGot:\n%s", not, out)
				}
			}
		})
	}
}

func TestGenerateMermaidIsDeterministic(t *testing.T) {
	audit := domain.GraphAudit{
		DirectDependencies: map[string][]string{
			"block-c": {"block-a", "block-b"},
			"block-b": {"block-a"},
			"block-d": {"block-c"},
		},
	}

	first := graph.GenerateMermaid(&audit)
	for i := 0; i < 10; i++ {
		if got := graph.GenerateMermaid(&audit); got != first {
			t.Fatalf("Output changed between runs:\n%s\n---\n%s", first, got)
		}
	}
}
