package ports

import (
	"context"
	"sort"
	"testing"

	"github.com/canonry/canonry/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotProviderContract runs a suite of tests to verify that a
// SnapshotProvider implementation adheres to the defined interface contract.
//
// The caller seeds the provider with the given snapshot before invoking the
// contract; the suite then checks retrieval, listing, and the not-found path.
func RunSnapshotProviderContract(t *testing.T, provider SnapshotProvider, seeded *domain.Snapshot) {
	t.Helper()
	ctx := context.Background()

	t.Run("Snapshot Round Trip", func(t *testing.T) {
		// 1. Load the seeded fandom
		snap, err := provider.Snapshot(ctx, seeded.Fandom.ID)
		require.NoError(t, err, "Snapshot should not return error for a seeded fandom")
		require.NotNil(t, snap)

		// 2. Verify identity and cardinality
		assert.Equal(t, seeded.Fandom.ID, snap.Fandom.ID)
		assert.Len(t, snap.Tags, len(seeded.Tags))
		assert.Len(t, snap.TagClasses, len(seeded.TagClasses))
		assert.Len(t, snap.PlotBlocks, len(seeded.PlotBlocks))
		assert.Len(t, snap.Dependencies, len(seeded.Dependencies))

		// 3. Verify deterministic tag order (sorted by ID)
		ids := make([]string, len(snap.Tags))
		for i, tag := range snap.Tags {
			ids[i] = tag.ID
		}
		assert.True(t, sort.StringsAreSorted(ids), "tags should be sorted by ID, got %v", ids)
	})

	t.Run("Unknown Fandom", func(t *testing.T) {
		_, err := provider.Snapshot(ctx, "no-such-fandom-anywhere")
		assert.ErrorIs(t, err, domain.ErrFandomNotFound)
	})

	t.Run("Fandoms Listing", func(t *testing.T) {
		fandoms, err := provider.Fandoms(ctx)
		require.NoError(t, err)

		found := false
		for _, f := range fandoms {
			if f.ID == seeded.Fandom.ID {
				found = true
			}
		}
		assert.True(t, found, "Fandoms should include the seeded fandom %q", seeded.Fandom.ID)

		ids := make([]string, len(fandoms))
		for i, f := range fandoms {
			ids[i] = f.ID
		}
		assert.True(t, sort.StringsAreSorted(ids), "fandoms should be sorted by ID, got %v", ids)
	})

	t.Run("Snapshot Isolation", func(t *testing.T) {
		// Mutating a returned snapshot must not leak into later reads.
		first, err := provider.Snapshot(ctx, seeded.Fandom.ID)
		require.NoError(t, err)
		if len(first.Tags) == 0 {
			t.Skip("seeded snapshot has no tags to mutate")
		}
		first.Tags[0].Name = "mutated-by-contract"

		second, err := provider.Snapshot(ctx, seeded.Fandom.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated-by-contract", second.Tags[0].Name,
			"providers must return isolated snapshots")
	})
}
