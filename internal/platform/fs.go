package platform

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// DirState describes what currently occupies a path.
type DirState int

const (
	// Missing means nothing exists at the path.
	Missing DirState = iota
	// Empty means an empty directory exists at the path.
	Empty
	// NotEmpty means a directory with at least one entry exists at the path.
	NotEmpty
	// NotDir means a non-directory exists at the path.
	NotDir
)

// Inspect reports the state of path.
func Inspect(path string) (DirState, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Missing, nil
	}
	if err != nil {
		return Missing, err
	}
	if !info.IsDir() {
		return NotDir, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return NotEmpty, err
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); errors.Is(err, io.EOF) {
		return Empty, nil
	} else if err != nil {
		return NotEmpty, err
	}
	return NotEmpty, nil
}

// RemoveTree deletes path recursively. A missing path is not an error.
// On Windows, read-only files (git pack files) are made writable first.
func RemoveTree(path string) error {
	err := os.RemoveAll(path)
	if err == nil || runtime.GOOS != "windows" {
		return err
	}

	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			_ = os.Chmod(p, 0666)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("clearing read-only flags under %s: %w", path, walkErr)
	}
	return os.RemoveAll(path)
}
