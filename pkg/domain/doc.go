/*
Package domain contains the core domain models for the Canonry validation engine.

It defines the fundamental entities of a fandom catalog, such as Tags, Tag Classes,
Plot Blocks, and the Pathway under validation, along with the report types every
validation operation returns. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Tag: A single selectable label, optionally governed by a TagClass.
  - TagClass: Groups tags and carries the constraint rules (exclusion, context, limits).
  - PlotBlock: A story element forming a tree via ParentID and a graph via dependencies.
  - Pathway: The tag/block combination a user proposes for validation.
  - ValidationReport: The aggregate outcome (violations, conflicts, complexity, timings).
*/
package domain
