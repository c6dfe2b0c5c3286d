package vcs

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nextbase-labs/nextbase/internal/testutil"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		output  string
		want    string
		wantErr bool
	}{
		{"git version 2.39.3", "2.39.3", false},
		{"git version 2.39.3 (Apple Git-145)\n", "2.39.3", false},
		{"git version 2.45.1.windows.1", "2.45.1", false},
		{"git version 2.28", "2.28.0", false},
		{"hub version 2.14.2", "", true},
		{"", "", true},
		{"git version banana", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			v, err := ParseVersion(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseVersion(%q) expected error, got %v", tt.output, v)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) error: %v", tt.output, err)
			}
			if v.String() != tt.want {
				t.Errorf("ParseVersion(%q) = %s, want %s", tt.output, v, tt.want)
			}
		})
	}
}

func TestInitialBranchConstraint(t *testing.T) {
	for raw, want := range map[string]bool{
		"git version 2.27.0": false,
		"git version 2.28.0": true,
		"git version 2.43.0": true,
	} {
		v, err := ParseVersion(raw)
		if err != nil {
			t.Fatal(err)
		}
		if got := InitialBranchSupported(v); got != want {
			t.Errorf("constraint on %s = %v, want %v", v, got, want)
		}
	}
}

func TestGit_CloneAndInit(t *testing.T) {
	testutil.RequireGit(t)
	template := testutil.NewTemplateRepo(t, map[string]string{
		"README.md": "# template\n",
	})

	g, err := NewGit()
	if err != nil {
		t.Fatalf("NewGit() error: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "clone")
	if err := g.Clone(context.Background(), template, dest, CloneOptions{Depth: 1}); err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if !testutil.Exists(filepath.Join(dest, "README.md")) {
		t.Error("cloned README.md missing")
	}
	if !testutil.HasCommits(dest) {
		t.Error("clone should carry template history")
	}

	fresh := t.TempDir()
	if err := g.Init(context.Background(), fresh, InitOptions{InitialBranch: "trunk"}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if testutil.HasCommits(fresh) {
		t.Error("fresh repository should have no commits")
	}
	head := testutil.Git(t, fresh, "symbolic-ref", "HEAD")
	if head != "refs/heads/trunk" {
		t.Errorf("HEAD = %q, want refs/heads/trunk", head)
	}
}

func TestGit_CloneIntoNonEmptyDirFails(t *testing.T) {
	testutil.RequireGit(t)
	template := testutil.NewTemplateRepo(t, map[string]string{"a.txt": "a"})

	dest := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dest, "keep.txt"), "mine")

	g, err := NewGit()
	if err != nil {
		t.Fatal(err)
	}
	err = g.Clone(context.Background(), template, dest, CloneOptions{})
	if err == nil {
		t.Fatal("expected clone into non-empty directory to fail")
	}
	if !strings.Contains(err.Error(), "cloning") {
		t.Errorf("error should be wrapped with context, got %v", err)
	}
}

func TestGit_CloneUnreachableSource(t *testing.T) {
	testutil.RequireGit(t)
	g, err := NewGit()
	if err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	dest := filepath.Join(t.TempDir(), "clone")
	if err := g.Clone(context.Background(), missing, dest, CloneOptions{}); err == nil {
		t.Fatal("expected error cloning a missing source")
	}
}

func TestGit_CanceledContext(t *testing.T) {
	testutil.RequireGit(t)
	g, err := NewGit()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = g.Init(ctx, t.TempDir(), InitOptions{})
	if err == nil {
		t.Fatal("expected error with canceled context")
	}
	if !errors.Is(err, context.Canceled) && !strings.Contains(err.Error(), "git init") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGitReachable(t *testing.T) {
	template := testutil.NewTemplateRepo(t, map[string]string{"README.md": "hi\n"})
	g, err := NewGit()
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Reachable(context.Background(), template, ""); err != nil {
		t.Errorf("Reachable(local template) error: %v", err)
	}
	if err := g.Reachable(context.Background(), filepath.Join(t.TempDir(), "missing"), ""); err == nil {
		t.Error("Reachable(missing) expected error")
	}
	if err := g.Reachable(context.Background(), template, "no-such-branch"); err == nil {
		t.Error("Reachable(missing branch) expected error")
	}
}
