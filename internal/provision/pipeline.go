package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nextbase-labs/nextbase/internal/metadata"
	"github.com/nextbase-labs/nextbase/internal/pkgmanager"
	"github.com/nextbase-labs/nextbase/internal/platform"
	"github.com/nextbase-labs/nextbase/internal/vcs"
)

// stagingPattern names the hidden sibling directory steps 1-4 run in. It is
// fixed so that names close to the filesystem limit still fit.
const stagingPattern = ".nextbase-stage-*"

// removeHistory deletes the template's history directory.
var removeHistory = platform.RemoveTree

// cloneDepth is enough for a template whose history is thrown away.
const cloneDepth = 1

// Config is the per-process provisioning configuration.
type Config struct {
	TemplateURL    string
	TemplateBranch string
	// InitialBranch names the fresh repository's default branch.
	InitialBranch  string
	SkipInstall    bool
	InstallTimeout time.Duration
}

// InstallerFunc builds the installer for a published project directory. It
// runs after the clone so lockfile detection can see the template's files.
type InstallerFunc func(projectDir string) (pkgmanager.Installer, string, error)

// Pipeline runs provisioning requests.
type Pipeline struct {
	cfg        Config
	vcs        vcs.Client
	installers InstallerFunc
	logger     *log.Logger
}

// New returns a Pipeline. A nil logger discards log output.
func New(cfg Config, client vcs.Client, installers InstallerFunc, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{cfg: cfg, vcs: client, installers: installers, logger: logger}
}

// Run provisions req. A non-nil error is always a *StepError for one of the
// steps before install; in that case the target directory was not created.
// Install failures are reported through Result.Install and Result.InstallErr.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if p.cfg.TemplateURL == "" {
		return nil, stepErr(StepClone, errors.New("no template repository configured"))
	}

	result := &Result{
		ProjectName: req.ProjectName,
		TargetDir:   req.TargetDir,
		TemplateURL: p.cfg.TemplateURL,
		Install:     InstallPending,
	}

	p.logger.Info("Creating a new project", "name", req.ProjectName, "dir", req.TargetDir)

	if err := checkTarget(req.TargetDir); err != nil {
		return nil, stepErr(StepClone, err)
	}

	parent := filepath.Dir(req.TargetDir)
	if err := os.MkdirAll(parent, platform.DirPermNormal); err != nil {
		return nil, stepErr(StepClone, fmt.Errorf("creating parent directory: %w", err))
	}
	staging, err := os.MkdirTemp(parent, stagingPattern)
	if err != nil {
		return nil, stepErr(StepClone, fmt.Errorf("creating staging directory: %w", err))
	}

	published := false
	defer func() {
		if published {
			return
		}
		if rmErr := platform.RemoveTree(staging); rmErr != nil {
			p.logger.Warn("Could not remove staging directory", "dir", staging, "err", rmErr)
		}
	}()

	if err := p.prepare(ctx, req, staging, result); err != nil {
		return nil, err
	}

	if err := publish(staging, req.TargetDir); err != nil {
		return nil, stepErr(StepFinalize, err)
	}
	published = true
	result.RepoReady = true
	p.logger.Debug("Published project directory", "dir", req.TargetDir)

	p.install(ctx, req.TargetDir, result)
	return result, nil
}

// prepare runs clone, history strip, reinit and metadata patch in dir.
func (p *Pipeline) prepare(ctx context.Context, req Request, dir string, result *Result) error {
	p.logger.Info("Cloning template", "url", p.cfg.TemplateURL, "into", req.ProjectName)
	cloneOpts := vcs.CloneOptions{Branch: p.cfg.TemplateBranch, Depth: cloneDepth}
	if err := p.vcs.Clone(ctx, p.cfg.TemplateURL, dir, cloneOpts); err != nil {
		return stepErr(StepClone, err)
	}

	historyDir := filepath.Join(dir, vcs.HistoryDir)
	if _, err := os.Lstat(historyDir); err == nil {
		p.logger.Info("Removing old Git history")
		if err := removeHistory(historyDir); err != nil {
			return stepErr(StepHistoryStrip, fmt.Errorf("removing %s: %w", historyDir, err))
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return stepErr(StepHistoryStrip, fmt.Errorf("checking %s: %w", historyDir, err))
	}

	p.logger.Info("Initializing a new Git repository")
	if err := p.vcs.Init(ctx, dir, vcs.InitOptions{InitialBranch: p.cfg.InitialBranch}); err != nil {
		return stepErr(StepReinit, err)
	}

	p.logger.Info("Customizing the project")
	patch, err := metadata.PatchFile(dir, req.ProjectName)
	if err != nil {
		return stepErr(StepMetadataPatch, err)
	}
	if patch.Skipped {
		p.logger.Info("No package.json found, skipping customization")
	} else {
		// Report the published location rather than the staging one.
		patch.Path = filepath.Join(req.TargetDir, metadata.FileName)
		p.logger.Info("Updated package.json with the new project name", "from", patch.PreviousName, "to", req.ProjectName)
		result.Warnings = validateMetadata(filepath.Join(dir, metadata.FileName))
		for _, w := range result.Warnings {
			p.logger.Warn("package.json", "issue", w)
		}
	}
	result.Metadata = patch

	if err := platform.Chmod(dir, platform.DirPermNormal); err != nil {
		return stepErr(StepFinalize, fmt.Errorf("setting permissions on %s: %w", dir, err))
	}
	return nil
}

// install runs the install step and records its outcome on result.
func (p *Pipeline) install(ctx context.Context, dir string, result *Result) {
	if p.cfg.SkipInstall || p.installers == nil {
		result.Install = InstallSkipped
		p.logger.Info("Skipping dependency installation")
		return
	}

	installer, label, err := p.installers(dir)
	if err != nil {
		p.failInstall(result, err)
		return
	}
	result.InstallCommand = label

	if p.cfg.InstallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.InstallTimeout)
		defer cancel()
	}

	p.logger.Info("Installing dependencies", "command", label)
	out, err := installer.Install(ctx, dir)
	result.InstallOutput = out
	if err != nil {
		p.failInstall(result, err)
		return
	}
	if out.Failed() {
		p.failInstall(result, fmt.Errorf("%q exited with status %d", out.Command, out.ExitCode))
		return
	}

	result.Install = InstallOK
	p.logger.Info("Dependencies installed successfully")
}

func (p *Pipeline) failInstall(result *Result, err error) {
	result.Install = InstallFailed
	result.InstallErr = stepErr(StepInstall, err)

	kv := []any{"err", err}
	if out := result.InstallOutput; out != nil && strings.TrimSpace(out.Stderr) != "" {
		kv = append(kv, "stderr", strings.TrimSpace(out.Stderr))
	}
	p.logger.Error("Error installing dependencies", kv...)
}

// checkTarget fails when the target exists and is not an empty directory.
func checkTarget(target string) error {
	state, err := platform.Inspect(target)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", target, err)
	}
	switch state {
	case platform.NotEmpty:
		return fmt.Errorf("%w: %s", ErrTargetNotEmpty, target)
	case platform.NotDir:
		return fmt.Errorf("%w: %s", ErrTargetNotDir, target)
	}
	return nil
}

// publish moves staging onto target. An empty target directory is replaced;
// anything else that appeared since the precheck wins and fails the run.
func publish(staging, target string) error {
	state, err := platform.Inspect(target)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", target, err)
	}
	switch state {
	case platform.NotEmpty:
		return fmt.Errorf("%w: %s", ErrTargetNotEmpty, target)
	case platform.NotDir:
		return fmt.Errorf("%w: %s", ErrTargetNotDir, target)
	case platform.Empty:
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("replacing empty directory %s: %w", target, err)
		}
	}

	if err := os.Rename(staging, target); err != nil {
		if state, _ := platform.Inspect(target); state == platform.NotEmpty {
			return fmt.Errorf("%w: %s", ErrTargetNotEmpty, target)
		}
		return fmt.Errorf("moving project into %s: %w", target, err)
	}
	return nil
}

// validateMetadata returns schema findings for path as display strings.
func validateMetadata(path string) []string {
	res, err := metadata.ValidateFile(path)
	if err != nil {
		return []string{fmt.Sprintf("could not validate %s: %v", metadata.FileName, err)}
	}
	warnings := make([]string, 0, len(res.Issues))
	for _, issue := range res.Issues {
		warnings = append(warnings, issue.String())
	}
	return warnings
}
