package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nextbase-labs/nextbase/internal/provision"
	"github.com/nextbase-labs/nextbase/internal/testutil"
)

const templatePackageJSON = `{"name":"template-app","version":"1.0.0"}`

func newTemplate(t *testing.T) string {
	t.Helper()
	return testutil.NewTemplateRepo(t, map[string]string{
		"package.json": templatePackageJSON,
		"README.md":    "# template\n",
	})
}

func TestCreate_ProvisionsProject(t *testing.T) {
	setupHome(t)
	template := newTemplate(t)
	parent := t.TempDir()

	stdout, _, err := execute(t, "create", "my-app",
		"--dir", parent,
		"--template", template,
		"--install-command", "echo installed",
	)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	project := filepath.Join(parent, "my-app")
	want := "{\n  \"name\": \"my-app\",\n  \"version\": \"1.0.0\"\n}\n"
	if got := testutil.ReadFile(t, filepath.Join(project, "package.json")); got != want {
		t.Errorf("package.json = %q, want %q", got, want)
	}
	if !testutil.Exists(filepath.Join(project, ".git")) {
		t.Error("expected a fresh .git directory")
	}
	if testutil.HasCommits(project) {
		t.Error("fresh repository should have no commits")
	}

	for _, s := range []string{"Created my-app", "installed", "cd my-app", "Next steps"} {
		if !strings.Contains(stdout, s) {
			t.Errorf("output missing %q:\n%s", s, stdout)
		}
	}
}

func TestCreate_InstallFailureExitsZeroByDefault(t *testing.T) {
	setupHome(t)
	template := newTemplate(t)
	parent := t.TempDir()

	stdout, stderr, err := execute(t, "create", "my-app",
		"--dir", parent,
		"--template", template,
		"--install-command", "echo boom >&2; exit 7",
	)
	if err != nil {
		t.Fatalf("create should succeed when install fails, got %v", err)
	}
	if !strings.Contains(stdout, "install failed") {
		t.Errorf("summary should report the install failure:\n%s", stdout)
	}
	if !strings.Contains(stderr, "boom") {
		t.Errorf("log should carry captured stderr:\n%s", stderr)
	}
	if !testutil.Exists(filepath.Join(parent, "my-app", "package.json")) {
		t.Error("project must be kept after install failure")
	}
}

func TestCreate_StrictInstall(t *testing.T) {
	setupHome(t)
	template := newTemplate(t)
	parent := t.TempDir()

	_, _, err := execute(t, "create", "my-app",
		"--dir", parent,
		"--template", template,
		"--install-command", "exit 7",
		"--strict-install",
	)
	if got := ExitCode(err); got != ExitInstall {
		t.Fatalf("ExitCode = %d, want %d (err %v)", got, ExitInstall, err)
	}
	if !errors.Is(err, provision.ErrInstallFailed) {
		t.Errorf("error should wrap ErrInstallFailed, got %v", err)
	}
	if !testutil.Exists(filepath.Join(parent, "my-app")) {
		t.Error("project must be kept under --strict-install")
	}
}

func TestCreate_SkipInstall(t *testing.T) {
	setupHome(t)
	template := newTemplate(t)
	parent := t.TempDir()

	stdout, _, err := execute(t, "create", "my-app",
		"--dir", parent,
		"--template", template,
		"--install-command", "exit 1",
		"--skip-install",
	)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if !strings.Contains(stdout, "skipped") {
		t.Errorf("summary should report skipped install:\n%s", stdout)
	}
}

func TestCreate_TemplateFromEnvironment(t *testing.T) {
	setupHome(t)
	template := newTemplate(t)
	t.Setenv("NEXTBASE_TEMPLATE_REPO_URL", template)
	parent := t.TempDir()

	if _, _, err := execute(t, "create", "env-app", "--dir", parent, "--skip-install"); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if !testutil.Exists(filepath.Join(parent, "env-app", "README.md")) {
		t.Error("project was not created from the env template")
	}
}

func TestCreate_SecondRunFails(t *testing.T) {
	setupHome(t)
	template := newTemplate(t)
	parent := t.TempDir()
	args := []string{"create", "foo", "--dir", parent, "--template", template, "--skip-install"}

	if _, _, err := execute(t, args...); err != nil {
		t.Fatalf("first create error: %v", err)
	}
	marker := filepath.Join(parent, "foo", "marker.txt")
	testutil.WriteFile(t, marker, "keep me")

	_, _, err := execute(t, args...)
	if got := ExitCode(err); got != ExitProvision {
		t.Fatalf("ExitCode = %d, want %d (err %v)", got, ExitProvision, err)
	}
	if !errors.Is(err, provision.ErrCloneFailed) || !errors.Is(err, provision.ErrTargetNotEmpty) {
		t.Errorf("error = %v, want clone failure for a non-empty target", err)
	}
	if got := testutil.ReadFile(t, marker); got != "keep me" {
		t.Errorf("first project was modified: marker = %q", got)
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("parent should only hold the first project, got %d entries", len(entries))
	}
}

func TestCreate_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing name", []string{"create"}},
		{"extra args", []string{"create", "a", "b"}},
		{"path name", []string{"create", "../escape", "--template", "file:///nowhere"}},
		{"bad package manager", []string{"create", "app", "--template", "file:///nowhere", "--package-manager", "maven"}},
		{"negative timeout", []string{"create", "app", "--template", "file:///nowhere", "--install-timeout", "-1s"}},
		{"unknown flag", []string{"create", "app", "--no-such-flag"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHome(t)
			args := append(tt.args, "--dir", t.TempDir())
			_, _, err := execute(t, args...)
			if got := ExitCode(err); got != ExitUsage {
				t.Errorf("ExitCode = %d, want %d (err %v)", got, ExitUsage, err)
			}
		})
	}
}

func TestCreate_UnreachableTemplate(t *testing.T) {
	setupHome(t)
	testutil.RequireGit(t)
	parent := t.TempDir()

	_, _, err := execute(t, "create", "my-app",
		"--dir", parent,
		"--template", filepath.Join(t.TempDir(), "missing"),
		"--skip-install",
	)
	if got := ExitCode(err); got != ExitProvision {
		t.Fatalf("ExitCode = %d, want %d (err %v)", got, ExitProvision, err)
	}
	if !errors.Is(err, provision.ErrCloneFailed) {
		t.Errorf("error should wrap ErrCloneFailed, got %v", err)
	}
	if testutil.Exists(filepath.Join(parent, "my-app")) {
		t.Error("target must not exist after a failed clone")
	}
}

func TestPrintSummary(t *testing.T) {
	r := &provision.Result{
		ProjectName:    "my-app",
		TargetDir:      "/work/my-app",
		TemplateURL:    "https://example.com/t.git",
		RepoReady:      true,
		Warnings:       []string{"/version: not semver"},
		Install:        provision.InstallFailed,
		InstallCommand: "pnpm install",
	}

	var buf bytes.Buffer
	printSummary(&buf, r)
	out := buf.String()

	for _, s := range []string{"my-app", "/version: not semver", "install failed", "cd my-app", "pnpm install", "pnpm run dev"} {
		if !strings.Contains(out, s) {
			t.Errorf("summary missing %q:\n%s", s, out)
		}
	}
}

func TestRunnerName(t *testing.T) {
	tests := map[string]string{
		"pnpm install":            "pnpm",
		"npm ci --ignore-scripts": "npm",
		"bun install":             "bun",
		"make deps":               "yarn",
		"":                        "yarn",
	}
	for command, want := range tests {
		if got := runnerName(command); got != want {
			t.Errorf("runnerName(%q) = %q, want %q", command, got, want)
		}
	}
}
