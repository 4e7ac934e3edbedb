/*
Package ports defines the driven ports (interfaces) for the Canonry engine.

These interfaces decouple the validation core from external implementations,
allowing the engine to work with various catalog backends, metric systems,
and pluggable conflict heuristics.

# Key Interfaces

  - SnapshotProvider: Loads a fandom's full catalog snapshot (e.g. from Memory, YAML, Loam, or Redis).
  - TimingSink: Receives per-stage durations for observability backends.
  - Heuristic: A pluggable conflict detector run during the analysis stage.
*/
package ports
