package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nextbase-labs/nextbase/internal/branding"
	"github.com/nextbase-labs/nextbase/internal/config"
	"github.com/nextbase-labs/nextbase/internal/pkgmanager"
	"github.com/nextbase-labs/nextbase/internal/provision"
	"github.com/nextbase-labs/nextbase/internal/vcs"
	"github.com/spf13/cobra"
)

type createOptions struct {
	dir            string
	template       string
	branch         string
	packageManager string
	installCommand string
	initialBranch  string
	installTimeout time.Duration
	skipInstall    bool
	strictInstall  bool
}

var createOpts createOptions

func init() {
	f := createCmd.Flags()
	f.StringVarP(&createOpts.dir, "dir", "C", "", "parent directory of the new project (default: current directory)")
	f.StringVarP(&createOpts.template, "template", "t", "", "git URL of the template repository")
	f.StringVarP(&createOpts.branch, "branch", "b", "", "branch or tag of the template to clone")
	f.StringVarP(&createOpts.packageManager, "package-manager", "p", "", "package manager: "+strings.Join(pkgmanager.Names(), ", ")+" or "+pkgmanager.Auto)
	f.StringVar(&createOpts.installCommand, "install-command", "", "shell command used instead of \"<package-manager> install\"")
	f.StringVar(&createOpts.initialBranch, "initial-branch", "", "default branch of the new repository")
	f.DurationVar(&createOpts.installTimeout, "install-timeout", 0, "abort dependency installation after this duration (0 disables)")
	f.BoolVar(&createOpts.skipInstall, "skip-install", false, "do not install dependencies")
	f.BoolVar(&createOpts.strictInstall, "strict-install", false, "exit with status 3 when dependency installation fails")
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create <projectName>",
	Short: "Create a new project from the template",
	Long: `Create a new project directory named <projectName> from the template repository.

The template is cloned into a staging directory next to the target, its git
history is removed, a fresh repository is initialized and the "name" field of
package.json is set to <projectName>. The directory is then moved into place
and dependencies are installed. A failed install keeps the project and is
reported; use --strict-install to turn it into a non-zero exit status.`,
	Example: `  ` + branding.CLIName() + ` create my-app
  ` + branding.CLIName() + ` create my-app --package-manager pnpm
  ` + branding.CLIName() + ` create my-app --template https://github.com/acme/starter.git --branch v2
  ` + branding.CLIName() + ` create my-app --skip-install`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreate(cmd, args[0])
	},
}

// createSettings is the effective configuration of one create run after
// flags, environment and config file are merged.
type createSettings struct {
	provision.Config
	PackageManager string
	InstallCommand string
}

// resolveCreateSettings merges flags over config values. Flags win only when
// set explicitly.
func resolveCreateSettings(cmd *cobra.Command, opts createOptions) (createSettings, error) {
	flags := cmd.Flags()
	pick := func(flag, value, key string) string {
		if flags.Changed(flag) {
			return value
		}
		return config.Get(key)
	}

	s := createSettings{
		Config: provision.Config{
			TemplateURL:    config.TemplateRepoURL(),
			TemplateBranch: pick("branch", opts.branch, config.KeyTemplateBranch),
			InitialBranch:  pick("initial-branch", opts.initialBranch, config.KeyInitialBranch),
			SkipInstall:    opts.skipInstall,
		},
		PackageManager: pick("package-manager", opts.packageManager, config.KeyPackageManager),
		InstallCommand: pick("install-command", opts.installCommand, config.KeyInstallCommand),
	}
	if flags.Changed("template") {
		s.TemplateURL = opts.template
	}
	if s.PackageManager == "" {
		s.PackageManager = branding.PackageManager()
	}

	if flags.Changed("install-timeout") {
		s.InstallTimeout = opts.installTimeout
	} else {
		d, err := config.InstallTimeout()
		if err != nil {
			return s, err
		}
		s.InstallTimeout = d
	}
	if s.InstallTimeout < 0 {
		return s, fmt.Errorf("install timeout must not be negative, got %s", s.InstallTimeout)
	}

	if !strings.EqualFold(s.PackageManager, pkgmanager.Auto) {
		if _, err := pkgmanager.Lookup(s.PackageManager); err != nil {
			return s, err
		}
	}
	if strings.TrimSpace(s.TemplateURL) == "" {
		return s, fmt.Errorf("no template repository configured; pass --template or run '%s config set %s <url>'",
			branding.CLIName(), config.KeyTemplateRepo)
	}
	return s, nil
}

// installerFunc resolves the package manager against the published project
// and streams install output to w when it is non-nil.
func installerFunc(s createSettings, w io.Writer) provision.InstallerFunc {
	return func(projectDir string) (pkgmanager.Installer, string, error) {
		m, err := pkgmanager.Resolve(s.PackageManager, projectDir, branding.PackageManager())
		if err != nil {
			return nil, "", err
		}
		inst := pkgmanager.NewShellInstaller(m, s.InstallCommand)
		inst.Stdout = w
		inst.Stderr = w
		return inst, inst.Command, nil
	}
}

func runCreate(cmd *cobra.Command, projectName string) error {
	settings, err := resolveCreateSettings(cmd, createOpts)
	if err != nil {
		return usageError(err)
	}

	workDir := createOpts.dir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return &ExitError{Code: ExitProvision, Err: fmt.Errorf("resolving working directory: %w", err)}
		}
	}
	req, err := provision.NewRequest(projectName, workDir)
	if err != nil {
		return usageError(err)
	}

	git, err := vcs.NewGit()
	if err != nil {
		return &ExitError{Code: ExitProvision, Err: err}
	}

	var live io.Writer
	if verbose {
		live = cmd.ErrOrStderr()
	}
	logger.Debug("Resolved settings",
		"template", settings.TemplateURL,
		"branch", settings.TemplateBranch,
		"package_manager", settings.PackageManager,
		"install_timeout", settings.InstallTimeout,
	)

	pipeline := provision.New(settings.Config, git, installerFunc(settings, live), logger)
	result, err := pipeline.Run(cmd.Context(), req)
	if err != nil {
		return &ExitError{Code: ExitProvision, Err: err}
	}

	printSummary(cmd.OutOrStdout(), result)

	if result.Install == provision.InstallFailed && createOpts.strictInstall {
		return &ExitError{Code: ExitInstall, Err: result.InstallErr}
	}
	return nil
}

// printSummary writes the outcome and next steps for a published project.
func printSummary(w io.Writer, r *provision.Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, successStyle.Render("✓ Created "+r.ProjectName)+" "+mutedStyle.Render("at "+r.TargetDir))
	fmt.Fprintf(w, "  template: %s\n", r.TemplateURL)

	if r.Metadata != nil && !r.Metadata.Skipped {
		fmt.Fprintf(w, "  package.json: name %q -> %q\n", r.Metadata.PreviousName, r.ProjectName)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintln(w, warningStyle.Render("  ! "+warning))
	}

	switch r.Install {
	case provision.InstallOK:
		fmt.Fprintln(w, "  dependencies: "+successStyle.Render("installed")+mutedStyle.Render(" ("+r.InstallCommand+")"))
	case provision.InstallSkipped:
		fmt.Fprintln(w, "  dependencies: "+mutedStyle.Render("skipped"))
	case provision.InstallFailed:
		fmt.Fprintln(w, "  dependencies: "+errorStyle.Render("install failed"))
		if r.InstallErr != nil {
			fmt.Fprintln(w, mutedStyle.Render("    "+r.InstallErr.Error()))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Next steps:"))
	fmt.Fprintln(w, "  "+cmdStyle.Render("cd "+filepath.Base(r.TargetDir)))
	runner := runnerName(r.InstallCommand)
	if r.Install != provision.InstallOK {
		fmt.Fprintln(w, "  "+cmdStyle.Render(installHint(r)))
	}
	fmt.Fprintln(w, "  "+cmdStyle.Render(runner+" run dev"))
}

// runnerName returns the program of an install command line, falling back to
// the default package manager.
func runnerName(command string) string {
	if fields := strings.Fields(command); len(fields) > 0 {
		if _, err := pkgmanager.Lookup(fields[0]); err == nil {
			return fields[0]
		}
	}
	return branding.PackageManager()
}

func installHint(r *provision.Result) string {
	if r.InstallCommand != "" {
		return r.InstallCommand
	}
	return runnerName("") + " install"
}
