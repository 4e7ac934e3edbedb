package dsl

import "github.com/canonry/canonry/pkg/domain"

// TagBuilder provides a fluent API for configuring a tag.
type TagBuilder struct {
	tag domain.Tag
}

// Named sets the tag's display name.
func (t *TagBuilder) Named(name string) *TagBuilder {
	t.tag.Name = name
	return t
}

// InClass links the tag to the class that governs it.
func (t *TagBuilder) InClass(classID string) *TagBuilder {
	t.tag.ClassID = classID
	return t
}

// Meta adds a descriptive key-value pair to the tag.
func (t *TagBuilder) Meta(key, value string) *TagBuilder {
	if t.tag.Metadata == nil {
		t.tag.Metadata = make(map[string]string)
	}
	t.tag.Metadata[key] = value
	return t
}

// ClassBuilder provides a fluent API for configuring a tag class and its
// constraint rules.
type ClassBuilder struct {
	class domain.TagClass
}

// Named sets the class's display name.
func (c *ClassBuilder) Named(name string) *ClassBuilder {
	c.class.Name = name
	return c
}

// Exclusive declares that a pathway may select at most one of the given tags.
func (c *ClassBuilder) Exclusive(tagIDs ...string) *ClassBuilder {
	c.class.Rules.MutualExclusion = append(c.class.Rules.MutualExclusion, tagIDs...)
	return c
}

// NeedsContext lists metadata keys the evaluation context must carry whenever
// the pathway touches this class.
func (c *ClassBuilder) NeedsContext(keys ...string) *ClassBuilder {
	c.class.Rules.RequiredContext = append(c.class.Rules.RequiredContext, keys...)
	return c
}

// MaxInstances caps how many tags of this class a pathway may carry.
func (c *ClassBuilder) MaxInstances(n int) *ClassBuilder {
	c.class.Rules.MaxInstances = n
	return c
}

// MinInstances sets the floor that applies once the pathway touches the class.
func (c *ClassBuilder) MinInstances(n int) *ClassBuilder {
	c.class.Rules.MinInstances = n
	return c
}

// OnlyWith allows tags of this class only alongside plot blocks of the listed
// categories.
func (c *ClassBuilder) OnlyWith(categories ...string) *ClassBuilder {
	c.class.Rules.ApplicableCategories = append(c.class.Rules.ApplicableCategories, categories...)
	return c
}

// NeverWith forbids tags of this class alongside plot blocks of the listed
// categories.
func (c *ClassBuilder) NeverWith(categories ...string) *ClassBuilder {
	c.class.Rules.ExcludedCategories = append(c.class.Rules.ExcludedCategories, categories...)
	return c
}

// BlockBuilder provides a fluent API for configuring a plot block.
type BlockBuilder struct {
	block domain.PlotBlock
}

// Named sets the block's display name.
func (p *BlockBuilder) Named(name string) *BlockBuilder {
	p.block.Name = name
	return p
}

// Category sets the block's grouping label.
func (p *BlockBuilder) Category(category string) *BlockBuilder {
	p.block.Category = category
	return p
}

// ChildOf places the block under a parent in the block tree.
func (p *BlockBuilder) ChildOf(parentID string) *BlockBuilder {
	p.block.ParentID = parentID
	return p
}

// Complexity weights the block in the pathway complexity score.
func (p *BlockBuilder) Complexity(n int) *BlockBuilder {
	p.block.Complexity = n
	return p
}

// Meta adds a descriptive key-value pair to the block.
func (p *BlockBuilder) Meta(key, value string) *BlockBuilder {
	if p.block.Metadata == nil {
		p.block.Metadata = make(map[string]string)
	}
	p.block.Metadata[key] = value
	return p
}

// When appends gate conditions; every root condition must be satisfied for
// the block to be usable. Compose trees with the package-level constructors.
func (p *BlockBuilder) When(conditions ...domain.Condition) *BlockBuilder {
	p.block.Conditions = append(p.block.Conditions, conditions...)
	return p
}
