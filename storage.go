package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotExist   = errors.New("doesn't exist")
)

// RunsDir is the subdirectory under the data dir where finished runs go
const RunsDir = "runs"

func ValidateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: run id cannot be blank", ErrValidation)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: run id %q is not a uuid", ErrValidation, id)
	}
	return nil
}

// Storage keeps finished runs as one JSON file each.
type Storage struct {
	config *Config
	fs     afero.Fs
}

func NewStorage(fs CrabFS, config *Config) *Storage {
	subFS := afero.NewBasePathFs(fs, config.DataDir())

	return &Storage{
		config: config,
		fs:     subFS,
	}
}

func runPath(id string) string {
	return filepath.Join(RunsDir, id+".json")
}

// WriteRun stores a finished run, replacing an earlier copy.
func (s *Storage) WriteRun(run Run) error {
	if err := ValidateRunID(run.ID); err != nil {
		return err
	}
	if !run.State.Terminal() {
		return fmt.Errorf("%w: run %s is still %s", ErrValidation, run.ID, run.State)
	}

	if err := s.fs.MkdirAll(RunsDir, 0755); err != nil {
		return err
	}

	f, err := s.fs.Create(runPath(run.ID))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(run); err != nil {
		return err
	}

	return f.Sync()
}

func (s *Storage) ReadRun(id string) (Run, error) {
	if err := ValidateRunID(id); err != nil {
		return Run{}, err
	}

	f, err := s.fs.Open(runPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Run{}, fmt.Errorf("run %q %w", id, ErrNotExist)
		}
		return Run{}, err
	}
	defer f.Close()

	var run Run
	err = json.NewDecoder(f).Decode(&run)
	return run, err
}

// ListRuns returns every stored run, most recently created first.
func (s *Storage) ListRuns() ([]Run, error) {
	entries, err := afero.ReadDir(s.fs, RunsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var runs []Run
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		id := entry.Name()[:len(entry.Name())-len(".json")]
		if ValidateRunID(id) != nil {
			continue
		}
		run, err := s.ReadRun(id)
		if err != nil {
			return nil, fmt.Errorf("read run %q: %w", id, err)
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	return runs, nil
}

func (s *Storage) DeleteRun(id string) error {
	if err := ValidateRunID(id); err != nil {
		return err
	}

	if err := s.fs.Remove(runPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("run %q %w", id, ErrNotExist)
		}
		return err
	}

	return nil
}
