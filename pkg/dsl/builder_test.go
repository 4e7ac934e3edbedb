package dsl

import (
	"context"
	"testing"

	"github.com/canonry/canonry/pkg/domain"
)

func TestBuilder_SimpleCatalog(t *testing.T) {
	// 1. Build the catalog using DSL
	b := New("wizarding-world").Named("Wizarding World")

	b.Class("class-ships").
		Named("Ships").
		Exclusive("tag-hg", "tag-hd").
		MaxInstances(1)

	b.Tag("tag-hg").
		Named("Harry/Ginny").
		InClass("class-ships").
		Meta("characters", "harry, ginny")

	b.Tag("tag-hd").InClass("class-ships")

	b.Block("block-yule-ball").
		Named("Yule Ball").
		Category("event").
		Complexity(3).
		When(All(
			TagPresent("tag-hg"),
			MetadataCheck("era", domain.OpIn, []string{"goblet-of-fire"}),
		))

	b.Block("block-aftermath").ChildOf("block-yule-ball")
	b.Requires("block-aftermath", "block-yule-ball")

	// 2. Compile to a snapshot
	snap := b.Snapshot()

	if snap.Fandom.Name != "Wizarding World" {
		t.Errorf("Expected fandom name 'Wizarding World', got '%s'", snap.Fandom.Name)
	}
	if len(snap.Tags) != 2 || len(snap.TagClasses) != 1 || len(snap.PlotBlocks) != 2 {
		t.Fatalf("Unexpected entity counts: %d tags, %d classes, %d blocks",
			len(snap.Tags), len(snap.TagClasses), len(snap.PlotBlocks))
	}

	// 3. Verify specific entities
	tag, ok := snap.TagByID("tag-hg")
	if !ok {
		t.Fatal("TagByID('tag-hg') not found")
	}
	if tag.FandomID != "wizarding-world" {
		t.Errorf("Expected tag fandom 'wizarding-world', got '%s'", tag.FandomID)
	}
	if tag.ClassID != "class-ships" {
		t.Errorf("Expected tag class 'class-ships', got '%s'", tag.ClassID)
	}
	if tag.Metadata["characters"] != "harry, ginny" {
		t.Errorf("Expected characters metadata, got '%s'", tag.Metadata["characters"])
	}

	class, _ := snap.ClassByID("class-ships")
	if len(class.Rules.MutualExclusion) != 2 {
		t.Errorf("Expected 2 exclusive tags, got %d", len(class.Rules.MutualExclusion))
	}
	if class.Rules.MaxInstances != 1 {
		t.Errorf("Expected MaxInstances=1, got %d", class.Rules.MaxInstances)
	}

	block, ok := snap.BlockByID("block-yule-ball")
	if !ok {
		t.Fatal("BlockByID('block-yule-ball') not found")
	}
	if len(block.Conditions) != 1 {
		t.Fatalf("Expected 1 root condition, got %d", len(block.Conditions))
	}
	root := block.Conditions[0]
	if root.Kind != domain.ConditionAll {
		t.Errorf("Expected root kind 'all', got '%s'", root.Kind)
	}
	if len(root.Children) != 2 {
		t.Fatalf("Expected 2 children, got %d", len(root.Children))
	}
	if root.Children[0].Kind != domain.ConditionTagPresent || root.Children[0].Target != "tag-hg" {
		t.Errorf("Unexpected first child: %+v", root.Children[0])
	}
	if string(root.Children[1].Value) != `["goblet-of-fire"]` {
		t.Errorf("Expected marshaled list value, got '%s'", root.Children[1].Value)
	}

	if len(snap.Dependencies) != 1 {
		t.Fatalf("Expected 1 dependency, got %d", len(snap.Dependencies))
	}
	dep := snap.Dependencies[0]
	if dep.ID != "dep-block-aftermath-block-yule-ball" {
		t.Errorf("Unexpected dependency ID '%s'", dep.ID)
	}
	if dep.SourceBlockID != "block-aftermath" || dep.TargetBlockID != "block-yule-ball" {
		t.Errorf("Unexpected edge %s -> %s", dep.SourceBlockID, dep.TargetBlockID)
	}
	if !dep.Active {
		t.Error("Expected dependency to be active")
	}
}

func TestBuilder_RepeatedIDReturnsExisting(t *testing.T) {
	b := New("hp")

	first := b.Tag("tag-x").Named("First")
	second := b.Tag("tag-x")

	if first != second {
		t.Fatal("Expected the same builder for a repeated ID")
	}
	if got := b.Snapshot().Tags[0].Name; got != "First" {
		t.Errorf("Expected name 'First', got '%s'", got)
	}
}

func TestBuilder_BuildProvider(t *testing.T) {
	b := New("hp")
	b.Tag("tag-angst")

	provider, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	snap, err := provider.Snapshot(context.Background(), "hp")
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if len(snap.Tags) != 1 || snap.Tags[0].ID != "tag-angst" {
		t.Errorf("Unexpected tags: %+v", snap.Tags)
	}
}

func TestConditionConstructors(t *testing.T) {
	not := Not(TagAbsent("tag-fluff"))
	if not.Kind != domain.ConditionNot || len(not.Children) != 1 {
		t.Fatalf("Unexpected not condition: %+v", not)
	}
	if not.Children[0].Kind != domain.ConditionTagAbsent {
		t.Errorf("Expected tag_absent child, got '%s'", not.Children[0].Kind)
	}

	count := TagCount("class-ships", domain.OpLte, 2)
	if count.Target != "class-ships" || count.Operator != domain.OpLte {
		t.Errorf("Unexpected tag_count condition: %+v", count)
	}
	if string(count.Value) != "2" {
		t.Errorf("Expected value '2', got '%s'", count.Value)
	}

	done := BlockCompleted("block-prologue")
	if done.Kind != domain.ConditionBlockCompleted || done.Target != "block-prologue" {
		t.Errorf("Unexpected block_completed condition: %+v", done)
	}
}
