package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gregoryjjb/crabcups/circularbuffer"
	"gregoryjjb/crabcups/cups"
	"gregoryjjb/crabcups/pubsub"
)

var rlog zerolog.Logger

func init() {
	rlog = log.With().Str("component", "runner").Logger()
}

var (
	ErrQueueFull     = errors.New("run queue is full")
	ErrRunnerStopped = errors.New("runner stopped")
)

// job holds the initial cups of a run. The ring itself is only built once
// the worker picks the job up, so queued runs stay small.
type job struct {
	run    Run
	labels []cups.Label
	ring   *cups.Ring
}

// Runner executes submitted simulations one at a time on a single worker
// goroutine. Every state change is published to subscribers, and finished
// runs go to storage and the in-memory history.
type Runner struct {
	queue   chan string
	config  *Config
	storage *Storage
	pubsub  *pubsub.Pubsub[RunEvent]
	history *circularbuffer.CircularBuffer[Run]
	stopped chan struct{}

	mu           sync.RWMutex
	jobs         map[string]*job
	closing      bool
	cancelActive context.CancelFunc
}

func NewRunner(ctx context.Context, config *Config, storage *Storage) *Runner {
	r := &Runner{
		queue:   make(chan string, config.QueueSize()),
		config:  config,
		storage: storage,
		pubsub:  pubsub.New[RunEvent](64),
		history: circularbuffer.New[Run](config.HistorySize()),
		stopped: make(chan struct{}),
		jobs:    make(map[string]*job),
	}
	go r.run(ctx)

	return r
}

// Submit validates the request and queues it. Bad input is rejected here,
// before anything is queued.
func (r *Runner) Submit(req RunRequest) (Run, error) {
	if err := req.Validate(); err != nil {
		return Run{}, err
	}

	labels, err := ParseLabels(req.Input)
	if err != nil {
		return Run{}, err
	}

	size, err := cups.Validate(labels, req.Size)
	if err != nil {
		return Run{}, err
	}

	j := &job{
		run: Run{
			ID:        uuid.NewString(),
			Input:     req.Input,
			Size:      size,
			Moves:     req.Moves,
			State:     RunQueued,
			CreatedAt: time.Now(),
		},
		labels: labels,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closing {
		return Run{}, ErrRunnerStopped
	}

	select {
	case r.queue <- j.run.ID:
	default:
		return Run{}, fmt.Errorf("%w (%d waiting)", ErrQueueFull, len(r.queue))
	}

	r.jobs[j.run.ID] = j
	queuedRuns.Inc()
	r.pubsub.Publish(j.run.Event())

	rlog.Info().
		Str("id", j.run.ID).
		Int("cups", j.run.Size).
		Int("moves", j.run.Moves).
		Msg("Run queued")

	return j.run, nil
}

// Cancel stops a running run or drops a queued one.
func (r *Runner) Cancel(id string) error {
	r.mu.Lock()

	j, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("live run %q %w", id, ErrNotExist)
	}

	switch j.run.State {
	case RunRunning:
		if r.cancelActive == nil {
			// The simulation already returned and the run is being recorded
			r.mu.Unlock()
			return fmt.Errorf("%w: run %s is already finishing", ErrValidation, id)
		}
		r.cancelActive()
		r.mu.Unlock()
		return nil

	case RunQueued:
		now := time.Now()
		j.run.State = RunCancelled
		j.run.FinishedAt = &now
		run := j.run
		r.mu.Unlock()
		r.finish(j, run)
		return nil

	default:
		state := j.run.State
		r.mu.Unlock()
		return fmt.Errorf("%w: run %s already %s", ErrValidation, id, state)
	}
}

// Get returns a live run, falling back to storage for finished ones.
func (r *Runner) Get(id string) (Run, error) {
	r.mu.RLock()
	j, ok := r.jobs[id]
	var run Run
	if ok {
		run = j.run
	}
	r.mu.RUnlock()

	if ok {
		return run, nil
	}
	return r.storage.ReadRun(id)
}

// List returns live runs followed by stored ones, each newest first.
func (r *Runner) List() ([]Run, error) {
	r.mu.RLock()
	live := make([]Run, 0, len(r.jobs))
	for _, j := range r.jobs {
		live = append(live, j.run)
	}
	r.mu.RUnlock()

	sort.Slice(live, func(i, k int) bool {
		return live[i].CreatedAt.After(live[k].CreatedAt)
	})

	stored, err := r.storage.ListRuns()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(live))
	for _, run := range live {
		seen[run.ID] = true
	}
	for _, run := range stored {
		if !seen[run.ID] {
			live = append(live, run)
		}
	}

	return live, nil
}

// History returns the most recently finished runs, newest first.
func (r *Runner) History() []Run {
	return r.history.Newest()
}

func (r *Runner) Subscribe() (func(), <-chan RunEvent) {
	handle, ch := r.pubsub.Subscribe()
	return func() {
		r.pubsub.Unsubscribe(handle)
	}, ch
}

// Stopped is closed once the worker has exited and pending runs are cancelled.
func (r *Runner) Stopped() <-chan struct{} {
	return r.stopped
}

//////////////////////////////////
// Worker

func (r *Runner) run(ctx context.Context) {
	rlog.Print("Running worker loop")

	for {
		select {
		case <-ctx.Done():
			rlog.Info().Msg("Stopping runner")
			r.cancelPending()
			r.pubsub.Close()
			close(r.stopped)
			return

		case id := <-r.queue:
			queuedRuns.Dec()
			r.execute(ctx, id)
		}
	}
}

func (r *Runner) execute(ctx context.Context, id string) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	j, ok := r.jobs[id]
	if !ok || j.run.State != RunQueued {
		// Cancelled while it was waiting
		r.mu.Unlock()
		return
	}
	labels, size := j.labels, j.run.Size
	r.mu.Unlock()

	ring, err := cups.New(labels, size)

	r.mu.Lock()
	if j.run.State != RunQueued {
		r.mu.Unlock()
		return
	}
	started := time.Now()
	j.run.StartedAt = &started
	j.labels = nil
	if err != nil {
		run := j.run
		r.mu.Unlock()

		run.FinishedAt = &started
		run.State = RunFailed
		run.Error = err.Error()
		r.finish(j, run)
		return
	}
	j.run.State = RunRunning
	j.ring = ring
	r.cancelActive = cancel
	r.pubsub.Publish(j.run.Event())
	r.mu.Unlock()

	rlog.Debug().Str("id", id).Msg("Run started")

	reported := 0
	sim := cups.Simulator{
		Interval: r.config.Puzzle().ProgressInterval,
		Progress: func(p cups.Progress) {
			movesTotal.Add(float64(p.Done - reported))
			reported = p.Done

			r.mu.Lock()
			j.run.Done = p.Done
			r.pubsub.Publish(j.run.Event())
			r.mu.Unlock()
		},
	}
	err = sim.Run(runCtx, ring, j.run.Moves)

	r.mu.Lock()
	finished := time.Now()
	run := j.run
	run.FinishedAt = &finished
	r.cancelActive = nil
	r.mu.Unlock()

	switch {
	case err == nil:
		run.State = RunDone
		run.Product = ring.PairProduct()
		if ring.Len()-1 <= r.config.ReadoutLimit() {
			run.Order = ring.OrderString()
		}
	case errors.Is(err, context.Canceled):
		run.State = RunCancelled
	default:
		run.State = RunFailed
		run.Error = err.Error()
	}

	r.finish(j, run)
}

// finish records a run that reached a terminal state. The live job only
// shows the terminal state once history and storage have it.
func (r *Runner) finish(j *job, run Run) {
	runsTotal.WithLabelValues(string(run.State)).Inc()
	if run.StartedAt != nil && run.FinishedAt != nil {
		runDuration.Observe(run.FinishedAt.Sub(*run.StartedAt).Seconds())
	}
	r.history.Push(run)

	err := r.storage.WriteRun(run)
	if err != nil {
		rlog.Err(err).Str("id", run.ID).Msg("Failed to store run")
	}

	r.mu.Lock()
	j.run = run
	j.labels = nil
	j.ring = nil
	if err == nil {
		delete(r.jobs, run.ID)
	}
	// Otherwise keep it live so it can still be looked up
	r.mu.Unlock()

	r.pubsub.Publish(run.Event())

	rlog.Info().
		Str("id", run.ID).
		Str("state", string(run.State)).
		Int("done", run.Done).
		Uint64("product", run.Product).
		Msg("Run finished")
}

func (r *Runner) cancelPending() {
	r.mu.Lock()
	r.closing = true
	for len(r.queue) > 0 {
		<-r.queue
		queuedRuns.Dec()
	}
	var pending []*job
	var runs []Run
	now := time.Now()
	for _, j := range r.jobs {
		if j.run.State == RunQueued {
			j.run.State = RunCancelled
			j.run.FinishedAt = &now
			pending = append(pending, j)
			runs = append(runs, j.run)
		}
	}
	r.mu.Unlock()

	for i, j := range pending {
		r.finish(j, runs[i])
	}
}
