package main

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var runValidate *validator.Validate

func init() {
	runValidate = validator.New()
}

type RunState string

const (
	RunQueued    RunState = "queued"
	RunRunning   RunState = "running"
	RunDone      RunState = "done"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// Terminal reports whether a run in this state will never change again.
func (s RunState) Terminal() bool {
	return s == RunDone || s == RunFailed || s == RunCancelled
}

// RunRequest asks for one simulation: the initial cups, how many moves to
// play and the ring size (0 keeps the initial cups only).
type RunRequest struct {
	Input string `json:"input" validate:"required,max=4096"`
	Moves int    `json:"moves" validate:"gte=0,lte=100000000"`
	Size  int    `json:"size" validate:"gte=0,lte=10000000"`
}

func (rr RunRequest) Validate() error {
	if err := runValidate.Struct(rr); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	return nil
}

// Run is the record of one simulation, live or finished.
type Run struct {
	ID    string   `json:"id"`
	Input string   `json:"input"`
	Size  int      `json:"size"`
	Moves int      `json:"moves"`
	State RunState `json:"state"`
	Done  int      `json:"done"`

	// Order is only filled in when the ring is small enough to print.
	Order   string `json:"order,omitempty"`
	Product uint64 `json:"product,omitempty"`
	Error   string `json:"error,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type RunEvent struct {
	ID    string   `json:"id"`
	State RunState `json:"state"`
	Done  int      `json:"done"`
	Total int      `json:"total"`
}

func (r Run) Event() RunEvent {
	return RunEvent{
		ID:    r.ID,
		State: r.State,
		Done:  r.Done,
		Total: r.Moves,
	}
}
