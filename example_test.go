package canonry_test

import (
	"context"
	"fmt"
	"log"

	"github.com/canonry/canonry"
	"github.com/canonry/canonry/pkg/adapters/memory"
	"github.com/canonry/canonry/pkg/domain"
)

// ExampleNew_memory demonstrates how to use the Engine with an in-memory
// catalog. This is useful for testing, embedded scenarios, or when you don't
// want to rely on the file system.
func ExampleNew_memory() {
	// 1. Define the catalog using NewFromSnapshots for clean, type-safe
	// construction.
	provider, err := memory.NewFromSnapshots(&domain.Snapshot{
		Fandom: domain.Fandom{ID: "hp", Name: "Wizarding World"},
		Tags: []domain.Tag{
			{ID: "tag-harry-ginny", FandomID: "hp", ClassID: "class-ship",
				Metadata: map[string]string{"characters": "Harry, Ginny"}},
			{ID: "tag-harry-draco", FandomID: "hp", ClassID: "class-ship",
				Metadata: map[string]string{"characters": "Harry, Draco"}},
		},
		TagClasses: []domain.TagClass{
			{ID: "class-ship", FandomID: "hp", Rules: domain.ClassRules{
				MutualExclusion: []string{"tag-harry-ginny", "tag-harry-draco"},
			}},
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	// 2. Initialize Canonry with the custom provider.
	// Note: the path stays empty ("") because we are providing a provider.
	engine, err := canonry.New("", canonry.WithProvider(provider))
	if err != nil {
		log.Fatal(err)
	}

	// 3. Validate a pathway that pairs Harry into two exclusive ships.
	report, err := engine.ValidatePathway(context.Background(), &domain.Pathway{
		FandomID: "hp",
		TagIDs:   []string{"tag-harry-ginny", "tag-harry-draco"},
	}, domain.EvaluationContext{})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Valid: %v\n", report.Valid)
	for _, v := range report.Violations {
		fmt.Printf("Violation: %s (%s)\n", v.Code, v.Severity)
	}
	for _, c := range report.Conflicts {
		fmt.Printf("Conflict: %s (%s)\n", c.Source, c.Level)
	}
	// Output:
	// Valid: false
	// Violation: mutual_exclusion (critical)
	// Conflict: shipping_exclusivity (error)
}
