package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/nextbase-labs/nextbase/internal/pkgmanager"
	"github.com/nextbase-labs/nextbase/internal/vcs"
)

// fakeVCS materializes files on Clone and records every call.
type fakeVCS struct {
	mu    sync.Mutex
	files map[string]string
	calls []string

	cloneErr error
	initErr  error
	// noHistory skips creating .git on clone.
	noHistory bool
}

func (f *fakeVCS) Clone(_ context.Context, url, dest string, opts vcs.CloneOptions) error {
	f.record("clone")
	if f.cloneErr != nil {
		return f.cloneErr
	}
	if !f.noHistory {
		if err := os.MkdirAll(filepath.Join(dest, ".git", "objects"), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dest, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0644); err != nil {
			return err
		}
	}
	for name, content := range f.files {
		p := filepath.Join(dest, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeVCS) Init(_ context.Context, dir string, _ vcs.InitOptions) error {
	f.record("init")
	if f.initErr != nil {
		return f.initErr
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return errors.New("history was not stripped before init")
	}
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ".git", "FRESH"), nil, 0644)
}

func (f *fakeVCS) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeVCS) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeInstaller returns a canned output and remembers where it ran.
type fakeInstaller struct {
	out *pkgmanager.Output
	err error
	dir string
	ran bool
}

func (f *fakeInstaller) Install(_ context.Context, dir string) (*pkgmanager.Output, error) {
	f.ran = true
	f.dir = dir
	return f.out, f.err
}

func installerFunc(inst pkgmanager.Installer) InstallerFunc {
	return func(string) (pkgmanager.Installer, string, error) {
		return inst, "fake install", nil
	}
}
