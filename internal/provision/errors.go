package provision

import (
	"errors"
	"fmt"
)

// Step identifies a pipeline stage.
type Step int

// Pipeline stages in execution order.
const (
	StepClone Step = iota + 1
	StepHistoryStrip
	StepReinit
	StepMetadataPatch
	StepFinalize
	StepInstall
)

// Sentinels matched by errors.Is against a *StepError of the same stage.
var (
	ErrCloneFailed         = errors.New("clone failed")
	ErrHistoryStripFailed  = errors.New("history strip failed")
	ErrReinitFailed        = errors.New("reinit failed")
	ErrMetadataPatchFailed = errors.New("metadata patch failed")
	ErrFinalizeFailed      = errors.New("finalize failed")
	ErrInstallFailed       = errors.New("install failed")
)

// Precondition failures, wrapped inside a *StepError.
var (
	ErrTargetNotEmpty = errors.New("target directory already exists and is not empty")
	ErrTargetNotDir   = errors.New("target path exists and is not a directory")
	ErrInvalidName    = errors.New("invalid project name")
)

func (s Step) String() string {
	switch s {
	case StepClone:
		return "clone"
	case StepHistoryStrip:
		return "history-strip"
	case StepReinit:
		return "reinit"
	case StepMetadataPatch:
		return "metadata-patch"
	case StepFinalize:
		return "finalize"
	case StepInstall:
		return "install"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

func (s Step) sentinel() error {
	switch s {
	case StepClone:
		return ErrCloneFailed
	case StepHistoryStrip:
		return ErrHistoryStripFailed
	case StepReinit:
		return ErrReinitFailed
	case StepMetadataPatch:
		return ErrMetadataPatchFailed
	case StepFinalize:
		return ErrFinalizeFailed
	case StepInstall:
		return ErrInstallFailed
	default:
		return nil
	}
}

// StepError records which stage failed and why.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step.sentinel(), e.Err)
}

// Unwrap exposes both the stage sentinel and the underlying cause.
func (e *StepError) Unwrap() []error {
	return []error{e.Step.sentinel(), e.Err}
}

func stepErr(step Step, err error) *StepError {
	return &StepError{Step: step, Err: err}
}

// FailedStep returns the stage carried by err, or 0 when err holds no
// *StepError.
func FailedStep(err error) Step {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return 0
}
