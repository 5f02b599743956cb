package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	require.NoError(t, store.Append(ctx, Record{
		BuildID:    "b1",
		StartedAt:  now.Add(-time.Minute),
		FinishedAt: now.Add(-time.Minute + 10*time.Second),
		Version:    "v1.0",
		Formats:    []string{"html"},
		Outcome:    "success",
	}))
	require.NoError(t, store.Append(ctx, Record{
		BuildID:    "b2",
		StartedAt:  now,
		FinishedAt: now.Add(12 * time.Second),
		Version:    "v1.1",
		Formats:    []string{"html", "rtf"},
		Outcome:    "failed",
		Error:      "doxygen exit status 1",
	}))

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first
	assert.Equal(t, "b2", records[0].BuildID)
	assert.Equal(t, []string{"html", "rtf"}, records[0].Formats)
	assert.Equal(t, "failed", records[0].Outcome)
	assert.Equal(t, "doxygen exit status 1", records[0].Error)
	assert.Equal(t, "b1", records[1].BuildID)
	assert.Equal(t, "success", records[1].Outcome)
}

func TestStore_RecentRespectsLimit(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, Record{
			BuildID: "b", StartedAt: time.Now(), FinishedAt: time.Now(),
			Version: "v", Formats: []string{"html"}, Outcome: "success",
		}))
	}

	records, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestStore_LastOnEmptyStore(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	last, err := store.Last(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), Record{
		BuildID: "b1", StartedAt: time.Now(), FinishedAt: time.Now(),
		Version: "v1.0", Formats: []string{"rtf"}, Outcome: "success",
	}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	last, err := store.Last(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "b1", last.BuildID)
	assert.Equal(t, []string{"rtf"}, last.Formats)
}
