package provision

import (
	"github.com/nextbase-labs/nextbase/internal/metadata"
	"github.com/nextbase-labs/nextbase/internal/pkgmanager"
)

// InstallOutcome is the state of the dependency install step.
type InstallOutcome int

const (
	InstallPending InstallOutcome = iota
	InstallOK
	InstallFailed
	InstallSkipped
)

func (o InstallOutcome) String() string {
	switch o {
	case InstallPending:
		return "pending"
	case InstallOK:
		return "ok"
	case InstallFailed:
		return "failed"
	case InstallSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result reports what a run produced. RepoReady is true once the project
// directory has been published; Install tells the install step apart.
type Result struct {
	ProjectName string
	TargetDir   string
	TemplateURL string

	RepoReady bool
	Metadata  *metadata.PatchResult
	// Warnings are non-fatal package.json validation findings.
	Warnings []string

	Install        InstallOutcome
	InstallCommand string
	InstallOutput  *pkgmanager.Output
	// InstallErr is a *StepError for StepInstall when Install is InstallFailed.
	InstallErr error
}
