package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/nextbase-labs/nextbase/internal/branding"
	"github.com/nextbase-labs/nextbase/internal/config"
	"github.com/nextbase-labs/nextbase/internal/pkgmanager"
	"github.com/nextbase-labs/nextbase/internal/vcs"
	"github.com/spf13/cobra"
)

var doctorCheckTemplate bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorCheckTemplate, "check-template", false, "contact the template repository to verify it is reachable")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the tools " + branding.CLIName() + " needs are available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !runDoctor(cmd.Context(), cmd.OutOrStdout(), doctorCheckTemplate) {
			return &ExitError{Code: ExitProvision, Err: fmt.Errorf("%s doctor found problems", branding.CLIName())}
		}
		return nil
	},
}

const doctorProbeTimeout = 30 * time.Second

// initialBranchWarning explains the fallback used by git versions without
// "init --initial-branch", or returns "" when v supports it.
func initialBranchWarning(v *semver.Version) string {
	if vcs.InitialBranchSupported(v) {
		return ""
	}
	return fmt.Sprintf("git %s predates --initial-branch; the default branch is set with symbolic-ref", v)
}

// runDoctor prints one line per check and reports whether every required
// check passed. Missing package managers other than the configured one only
// warn.
func runDoctor(ctx context.Context, w io.Writer, checkTemplate bool) bool {
	healthy := true
	ok := func(format string, a ...any) {
		fmt.Fprintln(w, successStyle.Render("[ OK ]")+" "+fmt.Sprintf(format, a...))
	}
	miss := func(format string, a ...any) {
		healthy = false
		fmt.Fprintln(w, errorStyle.Render("[MISS]")+" "+fmt.Sprintf(format, a...))
	}
	warn := func(format string, a ...any) {
		fmt.Fprintln(w, warningStyle.Render("[WARN]")+" "+fmt.Sprintf(format, a...))
	}

	fmt.Fprintln(w, titleStyle.Render(branding.DisplayName()+" doctor"))

	git, err := vcs.NewGit()
	if err != nil {
		miss("git: %v", err)
	} else {
		probeCtx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
		v, err := git.Version(probeCtx)
		cancel()
		switch {
		case err != nil:
			miss("git: %v", err)
		default:
			ok("git %s (%s)", v, git.Path)
			if msg := initialBranchWarning(v); msg != "" {
				warn("%s", msg)
			}
		}
	}

	configured := config.Get(config.KeyPackageManager)
	if configured == "" {
		configured = branding.PackageManager()
	}
	for _, name := range pkgmanager.Names() {
		m, _ := pkgmanager.Lookup(name)
		required := name == configured

		probeCtx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
		v, err := m.Version(probeCtx)
		cancel()
		switch {
		case err == nil:
			ok("%s %s", name, v)
		case required:
			miss("%s: %v", name, err)
		default:
			warn("%s: not available", name)
		}
	}
	if configured == pkgmanager.Auto {
		ok("package manager: auto (detected from lockfiles, default %s)", branding.PackageManager())
	} else if _, err := pkgmanager.Lookup(configured); err != nil {
		miss("package manager: %v", err)
	}

	url := config.TemplateRepoURL()
	if url == "" {
		miss("template: not configured")
	} else {
		ok("template: %s", url)
		if checkTemplate && git != nil {
			probeCtx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
			err := git.Reachable(probeCtx, url, config.Get(config.KeyTemplateBranch))
			cancel()
			if err != nil {
				miss("template reachable: %v", err)
			} else {
				ok("template reachable")
			}
		}
	}

	fmt.Fprintln(w, mutedStyle.Render("config: "+config.FilePath()))
	return healthy
}
