package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/loam"
	loamAdapter "github.com/canonry/canonry/pkg/adapters/loam"
	"github.com/canonry/canonry/pkg/domain"
)

func main() {
	targetDir := "examples/wizarding-world"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}

	// Ensure dir exists
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		panic(err)
	}

	fmt.Printf("Generating sample catalog in: %s\n", targetDir)

	// Init Loam (No Versioning = pure file generation)
	repo, err := loam.Init(targetDir, loam.WithVersioning(false))
	if err != nil {
		panic(err)
	}

	typedRepo := loam.NewTypedRepository[loamAdapter.EntityMetadata](repo)
	ctx := context.TODO()

	save := func(id, content string, meta loamAdapter.EntityMetadata) {
		err := typedRepo.Save(ctx, &loam.DocumentModel[loamAdapter.EntityMetadata]{
			ID:      id,
			Content: content,
			Data:    meta,
		})
		check(err)
	}

	// 1. The fandom itself
	save("wizarding-world",
		"A sample catalog for stories set in a school-of-magic universe.",
		loamAdapter.EntityMetadata{
			ID:   "wizarding-world",
			Kind: loamAdapter.KindFandom,
			Name: "Wizarding World",
		})

	// 2. Tag classes
	save("class-tone",
		"Tone tags set the emotional register of a story. Angst and fluff\npull in opposite directions, so a pathway picks one.",
		loamAdapter.EntityMetadata{
			ID:       "class-tone",
			Kind:     loamAdapter.KindTagClass,
			Name:     "Tone",
			FandomID: "wizarding-world",
			Rules: &loamAdapter.RulesSpec{
				MutualExclusion: []string{"angst", "fluff"},
			},
		})

	save("class-ships",
		"Relationship tags. One primary pairing per story keeps the\nvalidator honest about love triangles.",
		loamAdapter.EntityMetadata{
			ID:       "class-ships",
			Kind:     loamAdapter.KindTagClass,
			Name:     "Ships",
			FandomID: "wizarding-world",
			Rules: &loamAdapter.RulesSpec{
				MaxInstances: 1,
			},
		})

	save("class-devices",
		"Narrative devices.",
		loamAdapter.EntityMetadata{
			ID:       "class-devices",
			Kind:     loamAdapter.KindTagClass,
			Name:     "Devices",
			FandomID: "wizarding-world",
		})

	// 3. Tags
	for _, t := range []struct {
		id, name, class string
		metadata        map[string]any
	}{
		{"angst", "Angst", "class-tone", nil},
		{"fluff", "Fluff", "class-tone", nil},
		{"harry-ginny", "Harry/Ginny", "class-ships", map[string]any{"ship": "harry+ginny"}},
		{"harry-hermione", "Harry/Hermione", "class-ships", map[string]any{"ship": "harry+hermione"}},
		{"time-travel", "Time Travel", "class-devices", map[string]any{"timeline": "divergent"}},
	} {
		save(t.id, fmt.Sprintf("The %s tag.", t.name), loamAdapter.EntityMetadata{
			ID:       t.id,
			Kind:     loamAdapter.KindTag,
			Name:     t.name,
			FandomID: "wizarding-world",
			ClassID:  t.class,
			Metadata: t.metadata,
		})
	}

	// 4. Plot blocks, including one gated by conditions
	save("goblin-inheritance",
		"The protagonist discovers a hidden inheritance through the goblin\nbank. A classic independence arc opener.",
		loamAdapter.EntityMetadata{
			ID:         "goblin-inheritance",
			Kind:       loamAdapter.KindPlotBlock,
			Name:       "Goblin Inheritance",
			FandomID:   "wizarding-world",
			Category:   "arc",
			Complexity: 2,
		})

	save("heritage-test",
		"A blood test at the bank reveals lineage. Child step of the\ninheritance arc.",
		loamAdapter.EntityMetadata{
			ID:       "heritage-test",
			Kind:     loamAdapter.KindPlotBlock,
			Name:     "Heritage Test",
			FandomID: "wizarding-world",
			Category: "arc",
			ParentID: "goblin-inheritance",
		})

	save("lordship-claim",
		"Claiming the family seat. Only makes sense after the heritage test\nand in a post-war setting.",
		loamAdapter.EntityMetadata{
			ID:         "lordship-claim",
			Kind:       loamAdapter.KindPlotBlock,
			Name:       "Lordship Claim",
			FandomID:   "wizarding-world",
			Category:   "arc",
			Complexity: 3,
			Conditions: []loamAdapter.ConditionSpec{
				{
					Kind: domain.ConditionAll,
					Children: []loamAdapter.ConditionSpec{
						{Kind: domain.ConditionBlockCompleted, Target: "heritage-test"},
						{Kind: domain.ConditionMetadata, Target: "era", Operator: domain.OpEq, Value: "post-war"},
					},
				},
			},
		})

	// 5. An explicit dependency edge on top of the parent links
	save("dep-lordship-inheritance",
		"A lordship claim presumes the inheritance arc happened.",
		loamAdapter.EntityMetadata{
			ID:       "dep-lordship-inheritance",
			Kind:     loamAdapter.KindDependency,
			Source:   "lordship-claim",
			Target:   "goblin-inheritance",
			FandomID: "wizarding-world",
		})

	fmt.Println("Done. Verify contents in", targetDir)
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
