// Package loam adapts a Loam document repository to the engine's
// ports.SnapshotProvider interface. Catalogs live as markdown files with
// YAML frontmatter: one file per entity, prose body free for authors.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/canonry/canonry/pkg/domain"
)

// Provider reads fanfiction catalogs from a Loam repository.
type Provider struct {
	Repo *loam.TypedRepository[EntityMetadata]
}

// New creates a new Loam-backed snapshot provider.
func New(repo *loam.TypedRepository[EntityMetadata]) *Provider {
	return &Provider{Repo: repo}
}

// Snapshot assembles the catalog for one fandom from every document that
// declares it. A fandom exists when a fandom document names it or at least
// one entity is scoped to it.
func (p *Provider) Snapshot(ctx context.Context, fandomID string) (*domain.Snapshot, error) {
	docs, err := p.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	snap := &domain.Snapshot{}
	seen := make(map[string]string)
	found := false

	for _, doc := range docs {
		meta := doc.Data
		id := entityID(meta.ID, doc.ID)

		// Collision detection across the whole repository, not just this
		// fandom: a duplicate ID is a catalog defect wherever it hides.
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID %q is defined in both %q and %q", id, existing, doc.ID)
		}
		seen[id] = doc.ID

		if meta.Kind == KindFandom {
			if id == fandomID {
				found = true
				snap.Fandom = domain.Fandom{ID: id, Name: meta.Name}
			}
			continue
		}
		if meta.FandomID != fandomID {
			continue
		}
		found = true

		switch meta.Kind {
		case KindTag:
			snap.Tags = append(snap.Tags, meta.toTag(id))
		case KindTagClass:
			snap.TagClasses = append(snap.TagClasses, meta.toClass(id))
		case KindPlotBlock:
			block, err := meta.toBlock(id)
			if err != nil {
				return nil, err
			}
			snap.PlotBlocks = append(snap.PlotBlocks, block)
		case KindDependency:
			snap.Dependencies = append(snap.Dependencies, meta.toDependency(id))
		default:
			return nil, fmt.Errorf("document %q has unknown kind %q", doc.ID, meta.Kind)
		}
	}

	if !found {
		return nil, fmt.Errorf("fandom %q: %w", fandomID, domain.ErrFandomNotFound)
	}
	if snap.Fandom.ID == "" {
		snap.Fandom = domain.Fandom{ID: fandomID}
	}
	snap.Normalize()
	return snap, nil
}

// Fandoms lists every fandom the repository mentions, sorted by ID. Fandom
// documents contribute display names; entities scoped to an undeclared
// fandom still surface it.
func (p *Provider) Fandoms(ctx context.Context) ([]domain.Fandom, error) {
	docs, err := p.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	byID := make(map[string]domain.Fandom)
	for _, doc := range docs {
		meta := doc.Data
		if meta.Kind == KindFandom {
			id := entityID(meta.ID, doc.ID)
			byID[id] = domain.Fandom{ID: id, Name: meta.Name}
			continue
		}
		if meta.FandomID == "" {
			continue
		}
		if _, ok := byID[meta.FandomID]; !ok {
			byID[meta.FandomID] = domain.Fandom{ID: meta.FandomID}
		}
	}

	out := make([]domain.Fandom, 0, len(byID))
	for _, f := range byID {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Watch implements ports.Watchable. Any change to a catalog file signals the
// channel; bursts coalesce into one pending signal.
func (p *Provider) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := p.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}

// entityID prefers the frontmatter ID and falls back to the document path
// with its extension stripped.
func entityID(metaID, docID string) string {
	id := metaID
	if id == "" {
		id = docID
	}
	if ext := filepath.Ext(id); ext != "" {
		id = strings.TrimSuffix(id, ext)
	}
	return filepath.ToSlash(id)
}
