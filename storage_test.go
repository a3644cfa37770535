package main_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crabcups "gregoryjjb/crabcups"
)

func newTestStorage(t *testing.T) (*crabcups.Storage, crabcups.CrabFS) {
	config, fs := newTestConfig(t, crabcups.Flags{}, nil, `data_dir = "/data"`)
	return crabcups.NewStorage(fs, config), fs
}

func finishedRun(created time.Time) crabcups.Run {
	return crabcups.Run{
		ID:        uuid.NewString(),
		Input:     "389125467",
		Size:      9,
		Moves:     10,
		Done:      10,
		State:     crabcups.RunDone,
		Order:     "92658374",
		Product:   18,
		CreatedAt: created,
	}
}

func TestStorage(t *testing.T) {
	storage, fs := newTestStorage(t)

	runs, err := storage.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)

	older := finishedRun(time.Unix(1000, 0).UTC())
	newer := finishedRun(time.Unix(2000, 0).UTC())
	require.NoError(t, storage.WriteRun(older))
	require.NoError(t, storage.WriteRun(newer))

	exists, err := afero.Exists(fs, "/data/runs/"+older.ID+".json")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := storage.ReadRun(older.ID)
	require.NoError(t, err)
	assert.Equal(t, older, got)

	runs, err = storage.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)

	require.NoError(t, storage.DeleteRun(older.ID))
	_, err = storage.ReadRun(older.ID)
	assert.ErrorIs(t, err, crabcups.ErrNotExist)
	assert.ErrorIs(t, storage.DeleteRun(older.ID), crabcups.ErrNotExist)
}

func TestStorageRejects(t *testing.T) {
	storage, _ := newTestStorage(t)

	_, err := storage.ReadRun("../../etc/passwd")
	assert.ErrorIs(t, err, crabcups.ErrValidation)

	live := finishedRun(time.Now())
	live.State = crabcups.RunRunning
	assert.ErrorIs(t, storage.WriteRun(live), crabcups.ErrValidation)

	_, err = storage.ReadRun(uuid.NewString())
	assert.ErrorIs(t, err, crabcups.ErrNotExist)
}
