/*
Package canonry is a pathway validation and dependency-conflict engine for fanfiction tagging systems.

It checks combinations of story tags and plot blocks against a fandom's catalog: class constraints (mutual exclusion, instance limits), prerequisite condition trees, dependency cycles, and soft conflicts a reader would notice even when every hard rule passes.

# Concept

Canonry treats a fandom's catalog as an immutable snapshot: tags grouped into classes, plot blocks arranged in a hierarchy, and explicit dependencies between blocks. A pathway (the tags and blocks one story selects) is validated in stages. One structural pass rejects input the engine cannot make sense of; everything after that accumulates findings into a single report instead of failing fast, because authors fix batches, not one error at a time. This hexagonal architecture keeps the validation core independent of where catalogs live: in memory, YAML files, a Loam repository, or Redis in front of any of them.

# Key Features

  - Deterministic Reports: the same pathway against the same catalog always yields the same findings, whatever the stage scheduling.
  - Hexagonal Architecture: core logic is decoupled from adapters (storage, HTTP, MCP, CLI).
  - Total Accounting: reports list every violation and conflict found, with severities separating what blocks from what merely warns.
  - Graph Auditing: cycle detection and build-order computation over plot block dependencies, including what-if probes for proposed edges.

# Usage

Initialize the engine with a catalog path (a Loam repository) or inject a provider. Validation is one call.

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/canonry/canonry"
		"github.com/canonry/canonry/pkg/domain"
	)

	func main() {
		eng, err := canonry.New("./catalogs")
		if err != nil {
			log.Fatal(err)
		}

		report, err := eng.ValidatePathway(context.Background(), &domain.Pathway{
			FandomID: "hp",
			TagIDs:   []string{"tag-hermione", "tag-angst"},
			BlockIDs: []string{"block-yule-ball"},
		}, domain.EvaluationContext{})
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println("valid:", report.Valid)
		for _, v := range report.Violations {
			fmt.Printf("[%s] %s\n", v.Severity, v.Message)
		}
		for _, c := range report.Conflicts {
			fmt.Printf("[%s] %s: %s\n", c.Level, c.Source, c.Message)
		}
	}
*/
package canonry
