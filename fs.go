package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// CrabFS is an Afero FS with added functionality
// to replicate OS filesystems in testing
type CrabFS interface {
	afero.Fs
	Abs(string) (string, error)
	HomeDir() (string, error)
}

type crabOSFS struct {
	afero.Fs
}

func newCrabOSFS() CrabFS {
	return &crabOSFS{
		afero.NewOsFs(),
	}
}

func (c *crabOSFS) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

func (c *crabOSFS) HomeDir() (string, error) {
	return os.UserHomeDir()
}

type crabMemFS struct {
	afero.Fs
}

func NewCrabMemFS() CrabFS {
	return &crabMemFS{
		afero.NewMemMapFs(),
	}
}

func (c *crabMemFS) Abs(path string) (string, error) {
	return path, nil
}

func (c *crabMemFS) HomeDir() (string, error) {
	return "/", nil
}

// expandPath resolves a leading ~ against the home directory of fs and
// makes the result absolute.
func expandPath(fs CrabFS, path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := fs.HomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	return fs.Abs(path)
}
