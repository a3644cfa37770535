package main

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToml = `
data_dir = "/data"
history_size = 2
readout_limit = 20

[puzzle]
progress_interval = 1000
`

func newTestFS(t *testing.T, toml string) CrabFS {
	fs := NewCrabMemFS()

	require.NoError(t, fs.Mkdir("/data", 0777))
	require.NoError(t, afero.WriteFile(fs, "/crabcups.toml", []byte(toml), 0777))

	return fs
}

func newTestConfig(t *testing.T, flags Flags, env map[string]string, toml string) (*Config, CrabFS) {
	fs := newTestFS(t, toml)
	if flags.ConfigPath == "" {
		flags.ConfigPath = "/crabcups.toml"
	}

	c, err := NewConfig(fs, flags, func(s string) string { return env[s] })
	require.NoError(t, err)

	return c, fs
}

func newTestRunner(t *testing.T, toml string) (*Runner, *Storage, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	config, fs := newTestConfig(t, Flags{}, nil, toml)
	storage := NewStorage(fs, config)

	return NewRunner(ctx, config, storage), storage, cancel
}

func waitForState(t *testing.T, runner *Runner, id string, state RunState) Run {
	var run Run
	require.Eventually(t, func() bool {
		var err error
		run, err = runner.Get(id)
		return err == nil && run.State == state
	}, 30*time.Second, 5*time.Millisecond, "run %s never reached %s", id, state)
	return run
}

func TestRunner(t *testing.T) {
	t.Run("RunsToCompletion", func(t *testing.T) {
		runner, storage, _ := newTestRunner(t, testToml)

		queued, err := runner.Submit(RunRequest{Input: "389125467", Moves: 100})
		require.NoError(t, err)
		assert.Equal(t, RunQueued, queued.State)
		assert.Equal(t, 9, queued.Size)

		run := waitForState(t, runner, queued.ID, RunDone)
		assert.Equal(t, "67384529", run.Order)
		assert.Equal(t, uint64(6*7), run.Product)
		assert.Equal(t, 100, run.Done)
		assert.NotNil(t, run.StartedAt)
		assert.NotNil(t, run.FinishedAt)

		stored, err := storage.ReadRun(queued.ID)
		require.NoError(t, err)
		assert.Equal(t, RunDone, stored.State)

		history := runner.History()
		require.Len(t, history, 1)
		assert.Equal(t, queued.ID, history[0].ID)
	})

	t.Run("SkipsOrderForLargeRings", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, testToml)

		queued, err := runner.Submit(RunRequest{Input: "389125467", Moves: 10, Size: 100})
		require.NoError(t, err)

		run := waitForState(t, runner, queued.ID, RunDone)
		assert.Empty(t, run.Order)
		assert.NotZero(t, run.Product)
	})

	t.Run("PublishesEvents", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, testToml)
		unsub, events := runner.Subscribe()
		defer unsub()

		queued, err := runner.Submit(RunRequest{Input: "389125467", Moves: 2500})
		require.NoError(t, err)

		var states []RunState
		var last RunEvent
		timeout := time.After(30 * time.Second)
		for last.State != RunDone {
			select {
			case last = <-events:
				assert.Equal(t, queued.ID, last.ID)
				states = append(states, last.State)
			case <-timeout:
				t.Fatalf("no done event, saw %v", states)
			}
		}

		// queued, running, progress at 1000 and 2000, final progress, done
		assert.Equal(t, []RunState{RunQueued, RunRunning, RunRunning, RunRunning, RunRunning, RunDone}, states)
		assert.Equal(t, 2500, last.Done)
		assert.Equal(t, 2500, last.Total)
	})

	t.Run("CancelsRunningRun", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, testToml)

		queued, err := runner.Submit(RunRequest{Input: "389125467", Moves: 100_000_000, Size: 1_000_000})
		require.NoError(t, err)

		waitForState(t, runner, queued.ID, RunRunning)
		require.NoError(t, runner.Cancel(queued.ID))

		run := waitForState(t, runner, queued.ID, RunCancelled)
		assert.Less(t, run.Done, run.Moves)
		assert.Empty(t, run.Order)
	})

	t.Run("CancelsQueuedRun", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, testToml)

		blocker, err := runner.Submit(RunRequest{Input: "389125467", Moves: 100_000_000, Size: 1_000_000})
		require.NoError(t, err)
		waiting, err := runner.Submit(RunRequest{Input: "389125467", Moves: 10})
		require.NoError(t, err)

		require.NoError(t, runner.Cancel(waiting.ID))
		run := waitForState(t, runner, waiting.ID, RunCancelled)
		assert.Nil(t, run.StartedAt)

		assert.ErrorIs(t, runner.Cancel(waiting.ID), ErrNotExist)
		require.NoError(t, runner.Cancel(blocker.ID))
		waitForState(t, runner, blocker.ID, RunCancelled)
	})

	t.Run("QueuedRunsHoldNoRing", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, testToml)

		blocker, err := runner.Submit(RunRequest{Input: "389125467", Moves: 100_000_000, Size: 1_000_000})
		require.NoError(t, err)
		waitForState(t, runner, blocker.ID, RunRunning)

		waiting, err := runner.Submit(RunRequest{Input: "389125467", Moves: 10, Size: 10_000_000})
		require.NoError(t, err)
		assert.Equal(t, 10_000_000, waiting.Size)

		runner.mu.RLock()
		j := runner.jobs[waiting.ID]
		require.NotNil(t, j)
		assert.Nil(t, j.ring)
		assert.Len(t, j.labels, 9)
		runner.mu.RUnlock()

		require.NoError(t, runner.Cancel(waiting.ID))
		require.NoError(t, runner.Cancel(blocker.ID))
		waitForState(t, runner, blocker.ID, RunCancelled)
	})

	t.Run("CancelWhileFinishing", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, testToml)

		id := "6f1c2d3e-4b5a-4c7d-8e9f-0a1b2c3d4e5f"
		runner.mu.Lock()
		runner.jobs[id] = &job{run: Run{ID: id, State: RunRunning}}
		runner.mu.Unlock()

		assert.ErrorIs(t, runner.Cancel(id), ErrValidation)
	})

	t.Run("SmallInitialCupsExtended", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, testToml)

		queued, err := runner.Submit(RunRequest{Input: "213", Moves: 10, Size: 8})
		require.NoError(t, err)
		assert.Equal(t, 8, queued.Size)

		run := waitForState(t, runner, queued.ID, RunDone)
		assert.Len(t, run.Order, 7)
	})

	t.Run("RejectsBadInput", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, testToml)

		_, err := runner.Submit(RunRequest{Input: "", Moves: 10})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = runner.Submit(RunRequest{Input: "1245", Moves: 10})
		assert.Error(t, err)

		_, err = runner.Submit(RunRequest{Input: "389125467", Moves: -1})
		assert.ErrorIs(t, err, ErrValidation)

		runs, err := runner.List()
		require.NoError(t, err)
		assert.Empty(t, runs)
	})

	t.Run("QueueFull", func(t *testing.T) {
		runner, _, _ := newTestRunner(t, "queue_size = 1\n"+testToml)

		blocker, err := runner.Submit(RunRequest{Input: "389125467", Moves: 100_000_000, Size: 1_000_000})
		require.NoError(t, err)
		waitForState(t, runner, blocker.ID, RunRunning)

		_, err = runner.Submit(RunRequest{Input: "389125467", Moves: 10})
		require.NoError(t, err)
		_, err = runner.Submit(RunRequest{Input: "389125467", Moves: 10})
		assert.ErrorIs(t, err, ErrQueueFull)

		require.NoError(t, runner.Cancel(blocker.ID))
	})

	t.Run("StopsWhenContextCancelled", func(t *testing.T) {
		runner, _, cancel := newTestRunner(t, testToml)

		running, err := runner.Submit(RunRequest{Input: "389125467", Moves: 100_000_000, Size: 1_000_000})
		require.NoError(t, err)
		waitForState(t, runner, running.ID, RunRunning)
		waiting, err := runner.Submit(RunRequest{Input: "389125467", Moves: 10})
		require.NoError(t, err)

		cancel()

		select {
		case <-runner.Stopped():
		case <-time.After(30 * time.Second):
			t.Fatal("runner did not stop")
		}

		for _, id := range []string{running.ID, waiting.ID} {
			run, err := runner.Get(id)
			require.NoError(t, err)
			assert.Equal(t, RunCancelled, run.State)
		}

		_, err = runner.Submit(RunRequest{Input: "389125467", Moves: 10})
		assert.ErrorIs(t, err, ErrRunnerStopped)
	})
}
