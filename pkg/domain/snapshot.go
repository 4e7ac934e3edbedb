package domain

import "sort"

// Fandom identifies the universe a catalog belongs to.
type Fandom struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// BlockDependency is an explicit directed edge between two plot blocks:
// SourceBlockID cannot be used before TargetBlockID. Inactive edges are
// retained in the catalog but ignored by the graph builder.
type BlockDependency struct {
	ID            string `json:"id" yaml:"id"`
	SourceBlockID string `json:"source_block_id" yaml:"source_block_id"`
	TargetBlockID string `json:"target_block_id" yaml:"target_block_id"`
	Active        bool   `json:"active" yaml:"active"`
}

// Snapshot is an immutable view of one fandom's catalog, loaded in full
// before a validation run so no stage ever goes back to storage.
type Snapshot struct {
	Fandom       Fandom            `json:"fandom" yaml:"fandom"`
	Tags         []Tag             `json:"tags,omitempty" yaml:"tags,omitempty"`
	TagClasses   []TagClass        `json:"tag_classes,omitempty" yaml:"tag_classes,omitempty"`
	PlotBlocks   []PlotBlock       `json:"plot_blocks,omitempty" yaml:"plot_blocks,omitempty"`
	Dependencies []BlockDependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Normalize sorts every entity slice by ID. Providers call it before
// handing snapshots out so reads are deterministic regardless of backend
// iteration order.
func (s *Snapshot) Normalize() {
	sort.Slice(s.Tags, func(i, j int) bool { return s.Tags[i].ID < s.Tags[j].ID })
	sort.Slice(s.TagClasses, func(i, j int) bool { return s.TagClasses[i].ID < s.TagClasses[j].ID })
	sort.Slice(s.PlotBlocks, func(i, j int) bool { return s.PlotBlocks[i].ID < s.PlotBlocks[j].ID })
	sort.Slice(s.Dependencies, func(i, j int) bool { return s.Dependencies[i].ID < s.Dependencies[j].ID })
}

// TagByID returns the tag with the given ID, if present.
func (s *Snapshot) TagByID(id string) (Tag, bool) {
	for _, t := range s.Tags {
		if t.ID == id {
			return t, true
		}
	}
	return Tag{}, false
}

// ClassByID returns the tag class with the given ID, if present.
func (s *Snapshot) ClassByID(id string) (TagClass, bool) {
	for _, c := range s.TagClasses {
		if c.ID == id {
			return c, true
		}
	}
	return TagClass{}, false
}

// BlockByID returns the plot block with the given ID, if present.
func (s *Snapshot) BlockByID(id string) (PlotBlock, bool) {
	for _, b := range s.PlotBlocks {
		if b.ID == id {
			return b, true
		}
	}
	return PlotBlock{}, false
}
