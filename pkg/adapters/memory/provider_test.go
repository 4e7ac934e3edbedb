package memory_test

import (
	"context"
	"testing"

	"github.com/canonry/canonry/pkg/adapters/memory"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Fandom: domain.Fandom{ID: "hp", Name: "Wizarding World"},
		Tags: []domain.Tag{
			{ID: "tag-b", Name: "Beta", FandomID: "hp"},
			{ID: "tag-a", Name: "Alpha", FandomID: "hp", ClassID: "class-x"},
		},
		TagClasses: []domain.TagClass{
			{ID: "class-x", FandomID: "hp"},
		},
		PlotBlocks: []domain.PlotBlock{
			{ID: "block-1", FandomID: "hp"},
		},
	}
}

func TestProviderContract(t *testing.T) {
	provider, err := memory.NewFromSnapshots(seedSnapshot())
	require.NoError(t, err)

	ports.RunSnapshotProviderContract(t, provider, seedSnapshot())
}

func TestNewFromSnapshotsRejectsBadInput(t *testing.T) {
	_, err := memory.NewFromSnapshots(&domain.Snapshot{})
	assert.ErrorContains(t, err, "missing fandom ID")

	_, err = memory.NewFromSnapshots(seedSnapshot(), seedSnapshot())
	assert.ErrorContains(t, err, "duplicate snapshot")
}

func TestPutReplacesAndNormalizes(t *testing.T) {
	provider := memory.New()
	provider.Put(seedSnapshot())

	snap, err := provider.Snapshot(context.Background(), "hp")
	require.NoError(t, err)
	assert.Equal(t, "tag-a", snap.Tags[0].ID, "tags come back sorted")

	replacement := seedSnapshot()
	replacement.Tags = nil
	provider.Put(replacement)

	snap, err = provider.Snapshot(context.Background(), "hp")
	require.NoError(t, err)
	assert.Empty(t, snap.Tags)
}

func TestSeedingIsIsolatedFromCaller(t *testing.T) {
	seed := seedSnapshot()
	provider, err := memory.NewFromSnapshots(seed)
	require.NoError(t, err)

	// Mutating the seed after the fact must not reach stored state.
	seed.Tags[0].Name = "mutated-after-seeding"

	snap, err := provider.Snapshot(context.Background(), "hp")
	require.NoError(t, err)
	for _, tag := range snap.Tags {
		assert.NotEqual(t, "mutated-after-seeding", tag.Name)
	}
}
