package dsl

import (
	"fmt"

	"github.com/canonry/canonry/pkg/adapters/memory"
	"github.com/canonry/canonry/pkg/domain"
)

// Builder manages the snapshot construction for a single fandom.
type Builder struct {
	fandom       domain.Fandom
	tags         map[string]*TagBuilder
	classes      map[string]*ClassBuilder
	blocks       map[string]*BlockBuilder
	dependencies []domain.BlockDependency
}

// New creates a builder for the given fandom ID.
func New(fandomID string) *Builder {
	return &Builder{
		fandom:  domain.Fandom{ID: fandomID},
		tags:    make(map[string]*TagBuilder),
		classes: make(map[string]*ClassBuilder),
		blocks:  make(map[string]*BlockBuilder),
	}
}

// Named sets the fandom's display name.
func (b *Builder) Named(name string) *Builder {
	b.fandom.Name = name
	return b
}

// Tag creates a new tag in the snapshot.
// If the tag already exists, it returns the existing builder.
func (b *Builder) Tag(id string) *TagBuilder {
	if tb, ok := b.tags[id]; ok {
		return tb
	}
	tb := &TagBuilder{tag: domain.Tag{ID: id, FandomID: b.fandom.ID}}
	b.tags[id] = tb
	return tb
}

// Class creates a new tag class in the snapshot.
// If the class already exists, it returns the existing builder.
func (b *Builder) Class(id string) *ClassBuilder {
	if cb, ok := b.classes[id]; ok {
		return cb
	}
	cb := &ClassBuilder{class: domain.TagClass{ID: id, FandomID: b.fandom.ID}}
	b.classes[id] = cb
	return cb
}

// Block creates a new plot block in the snapshot.
// If the block already exists, it returns the existing builder.
func (b *Builder) Block(id string) *BlockBuilder {
	if bb, ok := b.blocks[id]; ok {
		return bb
	}
	bb := &BlockBuilder{block: domain.PlotBlock{ID: id, FandomID: b.fandom.ID}}
	b.blocks[id] = bb
	return bb
}

// Requires adds an active dependency edge: sourceID cannot be used before
// targetID. The edge ID is derived from both endpoints.
func (b *Builder) Requires(sourceID, targetID string) *Builder {
	b.dependencies = append(b.dependencies, domain.BlockDependency{
		ID:            fmt.Sprintf("dep-%s-%s", sourceID, targetID),
		SourceBlockID: sourceID,
		TargetBlockID: targetID,
		Active:        true,
	})
	return b
}

// Snapshot compiles the builder's state into a normalized snapshot.
func (b *Builder) Snapshot() *domain.Snapshot {
	snap := &domain.Snapshot{Fandom: b.fandom}
	for _, tb := range b.tags {
		snap.Tags = append(snap.Tags, tb.tag)
	}
	for _, cb := range b.classes {
		snap.TagClasses = append(snap.TagClasses, cb.class)
	}
	for _, bb := range b.blocks {
		snap.PlotBlocks = append(snap.PlotBlocks, bb.block)
	}
	snap.Dependencies = append(snap.Dependencies, b.dependencies...)
	snap.Normalize()
	return snap
}

// Build compiles the snapshot into a memory provider.
func (b *Builder) Build() (*memory.Provider, error) {
	provider, err := memory.NewFromSnapshots(b.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to build memory provider: %w", err)
	}
	return provider, nil
}
