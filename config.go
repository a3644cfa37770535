package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const DefaultConfigPath = "~/.crabcups/crabcups.toml"

// Flags are the command line overrides; zero values mean "not set".
type Flags struct {
	ConfigPath string
	DataDir    string
	Host       string
	Port       int
	LogLevel   string
}

// PuzzleConfig sizes the two puzzle variants and how often long runs report.
type PuzzleConfig struct {
	SmallMoves       int `toml:"small_moves" json:"small_moves"`
	LargeSize        int `toml:"large_size" json:"large_size"`
	LargeMoves       int `toml:"large_moves" json:"large_moves"`
	ProgressInterval int `toml:"progress_interval" json:"progress_interval"`
}

type tomlConfig struct {
	Host         string       `toml:"host"`
	Port         int          `toml:"port"`
	DataDir      string       `toml:"data_dir"`
	LogLevel     string       `toml:"log_level"`
	HistorySize  int          `toml:"history_size"`
	QueueSize    int          `toml:"queue_size"`
	ReadoutLimit int          `toml:"readout_limit"`
	Puzzle       PuzzleConfig `toml:"puzzle"`
}

func defaultTomlConfig() tomlConfig {
	return tomlConfig{
		Host:         "127.0.0.1",
		Port:         1223,
		DataDir:      "~/.crabcups",
		LogLevel:     "info",
		HistorySize:  32,
		QueueSize:    64,
		ReadoutLimit: 1000,
		Puzzle: PuzzleConfig{
			SmallMoves:       100,
			LargeSize:        1_000_000,
			LargeMoves:       10_000_000,
			ProgressInterval: 100_000,
		},
	}
}

type Config struct {
	toml     tomlConfig
	dataDir  string
	logLevel zerolog.Level
}

// NewConfig layers defaults, the TOML file, the environment and flags, in
// that order. A missing file is only an error when its path was given
// explicitly.
func NewConfig(fsys CrabFS, flags Flags, getenv func(string) string) (*Config, error) {
	tc := defaultTomlConfig()

	path := flags.ConfigPath
	if path == "" {
		path = getenv("CRABCUPS_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	if err := readTomlConfig(fsys, path, &tc); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if v := getenv("HOST"); v != "" {
		tc.Host = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: PORT %q is not a number", ErrValidation, v)
		}
		tc.Port = port
	}
	if v := getenv("DATA_DIR"); v != "" {
		tc.DataDir = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		tc.LogLevel = v
	}

	if flags.Host != "" {
		tc.Host = flags.Host
	}
	if flags.Port != 0 {
		tc.Port = flags.Port
	}
	if flags.DataDir != "" {
		tc.DataDir = flags.DataDir
	}
	if flags.LogLevel != "" {
		tc.LogLevel = flags.LogLevel
	}

	if err := tc.validate(); err != nil {
		return nil, err
	}

	dataDir, err := expandPath(fsys, tc.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(tc.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q", ErrValidation, tc.LogLevel)
	}

	return &Config{
		toml:     tc,
		dataDir:  dataDir,
		logLevel: level,
	}, nil
}

func readTomlConfig(fsys CrabFS, path string, tc *tomlConfig) error {
	path, err := expandPath(fsys, path)
	if err != nil {
		return err
	}

	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return err
	}

	if err := toml.Unmarshal(raw, tc); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}

	return nil
}

func (tc tomlConfig) validate() error {
	switch {
	case tc.Port <= 0 || tc.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrValidation, tc.Port)
	case tc.HistorySize < 1:
		return fmt.Errorf("%w: history_size must be positive", ErrValidation)
	case tc.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrValidation)
	case tc.ReadoutLimit < 0:
		return fmt.Errorf("%w: readout_limit must not be negative", ErrValidation)
	case tc.Puzzle.SmallMoves < 0 || tc.Puzzle.LargeMoves < 0:
		return fmt.Errorf("%w: move counts must not be negative", ErrValidation)
	case tc.Puzzle.LargeSize < 1:
		return fmt.Errorf("%w: large_size must be positive", ErrValidation)
	case tc.Puzzle.ProgressInterval < 1:
		return fmt.Errorf("%w: progress_interval must be positive", ErrValidation)
	}
	return nil
}

func (c *Config) Host() string {
	return c.toml.Host
}

func (c *Config) Port() int {
	return c.toml.Port
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.toml.Host, strconv.Itoa(c.toml.Port))
}

// DataDir is the absolute directory finished runs are stored under.
func (c *Config) DataDir() string {
	return c.dataDir
}

func (c *Config) LogLevel() zerolog.Level {
	return c.logLevel
}

func (c *Config) HistorySize() int {
	return c.toml.HistorySize
}

func (c *Config) QueueSize() int {
	return c.toml.QueueSize
}

// ReadoutLimit caps how many cups a run's order readout may contain.
func (c *Config) ReadoutLimit() int {
	return c.toml.ReadoutLimit
}

func (c *Config) Puzzle() PuzzleConfig {
	return c.toml.Puzzle
}
