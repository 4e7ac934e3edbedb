// Package memory provides an in-memory ports.SnapshotProvider.
// It is the provider of choice for tests and for embedding the engine with a
// catalog assembled in code.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/canonry/canonry/pkg/domain"
)

// Provider implements ports.SnapshotProvider over an in-memory map.
// Safe for concurrent use.
type Provider struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.Snapshot
}

// New creates an empty provider. Seed it with Put.
func New() *Provider {
	return &Provider{snapshots: make(map[string]*domain.Snapshot)}
}

// NewFromSnapshots creates a provider seeded with the given catalogs.
// This handles normalization automatically, improving DX for tests.
func NewFromSnapshots(snaps ...*domain.Snapshot) (*Provider, error) {
	p := New()
	for _, s := range snaps {
		if s == nil || s.Fandom.ID == "" {
			return nil, fmt.Errorf("snapshot missing fandom ID")
		}
		if _, exists := p.snapshots[s.Fandom.ID]; exists {
			return nil, fmt.Errorf("duplicate snapshot for fandom %q", s.Fandom.ID)
		}
		p.Put(s)
	}
	return p, nil
}

// Put stores a copy of the snapshot, replacing any previous catalog for the
// same fandom. Entity slices are sorted by ID so reads are deterministic.
func (p *Provider) Put(snap *domain.Snapshot) {
	stored := clone(snap)
	stored.Normalize()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots[stored.Fandom.ID] = stored
}

// Snapshot returns an isolated copy of the fandom's catalog.
func (p *Provider) Snapshot(ctx context.Context, fandomID string) (*domain.Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap, ok := p.snapshots[fandomID]
	if !ok {
		return nil, fmt.Errorf("fandom %q: %w", fandomID, domain.ErrFandomNotFound)
	}
	return clone(snap), nil
}

// Fandoms lists the stored fandoms sorted by ID.
func (p *Provider) Fandoms(ctx context.Context) ([]domain.Fandom, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]domain.Fandom, 0, len(p.snapshots))
	for _, snap := range p.snapshots {
		out = append(out, snap.Fandom)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// clone deep-copies a snapshot so callers can never reach stored state
// through a returned pointer.
func clone(s *domain.Snapshot) *domain.Snapshot {
	out := &domain.Snapshot{Fandom: s.Fandom}

	if s.Tags != nil {
		out.Tags = make([]domain.Tag, len(s.Tags))
		for i, t := range s.Tags {
			t.Metadata = cloneStringMap(t.Metadata)
			out.Tags[i] = t
		}
	}
	if s.TagClasses != nil {
		out.TagClasses = make([]domain.TagClass, len(s.TagClasses))
		for i, c := range s.TagClasses {
			c.Rules.MutualExclusion = cloneStrings(c.Rules.MutualExclusion)
			c.Rules.RequiredContext = cloneStrings(c.Rules.RequiredContext)
			c.Rules.ApplicableCategories = cloneStrings(c.Rules.ApplicableCategories)
			c.Rules.ExcludedCategories = cloneStrings(c.Rules.ExcludedCategories)
			out.TagClasses[i] = c
		}
	}
	if s.PlotBlocks != nil {
		out.PlotBlocks = make([]domain.PlotBlock, len(s.PlotBlocks))
		for i, b := range s.PlotBlocks {
			b.Metadata = cloneStringMap(b.Metadata)
			b.Conditions = cloneConditions(b.Conditions)
			out.PlotBlocks[i] = b
		}
	}
	if s.Dependencies != nil {
		out.Dependencies = make([]domain.BlockDependency, len(s.Dependencies))
		copy(out.Dependencies, s.Dependencies)
	}
	return out
}

func cloneConditions(conds []domain.Condition) []domain.Condition {
	if conds == nil {
		return nil
	}
	out := make([]domain.Condition, len(conds))
	for i, c := range conds {
		if c.Value != nil {
			c.Value = append(c.Value[:0:0], c.Value...)
		}
		c.Children = cloneConditions(c.Children)
		out[i] = c
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
