package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// HistoryDir is the metadata directory git creates at a repository root.
const HistoryDir = ".git"

// ErrGitNotFound is returned when no git binary is on PATH.
var ErrGitNotFound = errors.New("git is required but not found in PATH")

// initialBranchConstraint gates "git init --initial-branch", added in git 2.28.
var initialBranchConstraint = mustConstraint(">= 2.28.0")

// Client is the subset of version-control operations the provisioning
// pipeline depends on.
type Client interface {
	Clone(ctx context.Context, url, dest string, opts CloneOptions) error
	Init(ctx context.Context, dir string, opts InitOptions) error
}

// CloneOptions tunes a clone.
type CloneOptions struct {
	// Branch checks out the given branch or tag instead of the remote HEAD.
	Branch string
	// Depth limits fetched history. Zero clones everything.
	Depth int
}

// InitOptions tunes repository initialization.
type InitOptions struct {
	// InitialBranch names the unborn default branch. Empty uses git's default.
	InitialBranch string
}

// Git runs the git binary found at Path.
type Git struct {
	Path string
}

// NewGit locates git on PATH.
func NewGit() (*Git, error) {
	p, err := exec.LookPath("git")
	if err != nil {
		return nil, ErrGitNotFound
	}
	return &Git{Path: p}, nil
}

// Clone clones url into dest. dest must not exist or must be empty.
func (g *Git) Clone(ctx context.Context, url, dest string, opts CloneOptions) error {
	args := []string{"clone"}
	if opts.Depth > 0 {
		args = append(args, fmt.Sprintf("--depth=%d", opts.Depth))
	}
	if opts.Branch != "" {
		args = append(args, "--branch", opts.Branch)
	}
	args = append(args, "--", url, dest)

	if _, err := g.run(ctx, "", args...); err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}

// Init creates an empty repository rooted at dir.
// Older gits without --initial-branch get HEAD repointed after init instead.
func (g *Git) Init(ctx context.Context, dir string, opts InitOptions) error {
	if opts.InitialBranch == "" {
		if _, err := g.run(ctx, dir, "init", "--quiet"); err != nil {
			return fmt.Errorf("initializing repository in %s: %w", dir, err)
		}
		return nil
	}

	supported, err := g.SupportsInitialBranch(ctx)
	if err != nil {
		return err
	}
	if supported {
		if _, err := g.run(ctx, dir, "init", "--quiet", "--initial-branch="+opts.InitialBranch); err != nil {
			return fmt.Errorf("initializing repository in %s: %w", dir, err)
		}
		return nil
	}

	if _, err := g.run(ctx, dir, "init", "--quiet"); err != nil {
		return fmt.Errorf("initializing repository in %s: %w", dir, err)
	}
	if _, err := g.run(ctx, dir, "symbolic-ref", "HEAD", "refs/heads/"+opts.InitialBranch); err != nil {
		return fmt.Errorf("setting initial branch %q: %w", opts.InitialBranch, err)
	}
	return nil
}

// Version returns the installed git version.
func (g *Git) Version(ctx context.Context) (*semver.Version, error) {
	out, err := g.run(ctx, "", "version")
	if err != nil {
		return nil, err
	}
	return ParseVersion(out)
}

// SupportsInitialBranch reports whether git accepts "init --initial-branch".
func (g *Git) SupportsInitialBranch(ctx context.Context) (bool, error) {
	v, err := g.Version(ctx)
	if err != nil {
		return false, fmt.Errorf("detecting git version: %w", err)
	}
	return InitialBranchSupported(v), nil
}

// InitialBranchSupported reports whether git version v has
// "init --initial-branch" (2.28 and later).
func InitialBranchSupported(v *semver.Version) bool {
	return initialBranchConstraint.Check(v)
}

// Reachable checks that url answers as a git remote, optionally that ref
// exists on it.
func (g *Git) Reachable(ctx context.Context, url, ref string) error {
	args := []string{"ls-remote", "--exit-code", "--", url}
	if ref != "" {
		args = append(args, ref)
	} else {
		args = append(args, "HEAD")
	}
	if _, err := g.run(ctx, "", args...); err != nil {
		return fmt.Errorf("template %s is not reachable: %w", url, err)
	}
	return nil
}

// ParseVersion extracts a semantic version from "git version" output such as
// "git version 2.39.3 (Apple Git-145)" or "git version 2.45.1.windows.1".
func ParseVersion(output string) (*semver.Version, error) {
	fields := strings.Fields(strings.TrimSpace(output))
	if len(fields) < 3 || fields[0] != "git" || fields[1] != "version" {
		return nil, fmt.Errorf("unrecognized git version output %q", strings.TrimSpace(output))
	}
	parts := strings.Split(fields[2], ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	v, err := semver.NewVersion(strings.Join(parts, "."))
	if err != nil {
		return nil, fmt.Errorf("parsing git version %q: %w", fields[2], err)
	}
	return v, nil
}

// run executes git with args in dir and returns trimmed combined output.
// Terminal prompts are disabled so an unreachable or private remote fails
// instead of blocking on credentials.
func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.Path, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	output, err := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(output))
	if err != nil {
		if trimmed == "" {
			return "", fmt.Errorf("git %s: %w", args[0], err)
		}
		return "", fmt.Errorf("git %s: %w\n%s", args[0], err, trimmed)
	}
	return trimmed, nil
}

func mustConstraint(c string) *semver.Constraints {
	cs, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return cs
}
