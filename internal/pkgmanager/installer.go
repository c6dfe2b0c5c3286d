package pkgmanager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Installer runs a dependency install in a project directory.
type Installer interface {
	Install(ctx context.Context, dir string) (*Output, error)
}

// Output captures the result of an install run. A non-zero ExitCode is not
// an error from Install; callers decide what it means.
type Output struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Failed reports whether the command exited non-zero.
func (o *Output) Failed() bool {
	return o != nil && o.ExitCode != 0
}

// ShellInstaller runs Command through the embedded shell interpreter.
type ShellInstaller struct {
	Command string

	// Stdout and Stderr receive live output in addition to the captured copy.
	// Nil discards the live stream.
	Stdout io.Writer
	Stderr io.Writer

	// Env overrides the inherited process environment when non-nil.
	Env []string
}

// NewShellInstaller returns an installer for command, or for the manager's
// default install command when command is empty.
func NewShellInstaller(m Manager, command string) *ShellInstaller {
	if strings.TrimSpace(command) == "" {
		command = m.InstallCommand
	}
	return &ShellInstaller{Command: command}
}

// Parse checks that Command is valid shell syntax.
func (s *ShellInstaller) Parse() (*syntax.File, error) {
	if strings.TrimSpace(s.Command) == "" {
		return nil, errors.New("install command is empty")
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(s.Command), "install")
	if err != nil {
		return nil, fmt.Errorf("parsing install command %q: %w", s.Command, err)
	}
	return prog, nil
}

// Install runs Command with dir as the working directory.
func (s *ShellInstaller) Install(ctx context.Context, dir string) (*Output, error) {
	prog, err := s.Parse()
	if err != nil {
		return nil, err
	}

	env := s.Env
	if env == nil {
		env = os.Environ()
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, tee(s.Stdout, &stdoutBuf), tee(s.Stderr, &stderrBuf)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shell interpreter: %w", err)
	}

	err = runner.Run(ctx, prog)

	output := &Output{
		Command: s.Command,
		Stdout:  stdoutBuf.String(),
		Stderr:  stderrBuf.String(),
	}

	if err != nil {
		// A killed process surfaces as an exit status; report the deadline
		// or cancellation instead.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return output, fmt.Errorf("running %q: %w", s.Command, ctxErr)
		}
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			output.ExitCode = int(exitStatus)
			return output, nil
		}
		return output, fmt.Errorf("running %q: %w", s.Command, err)
	}

	return output, nil
}

func tee(live io.Writer, capture *bytes.Buffer) io.Writer {
	if live == nil {
		return capture
	}
	return io.MultiWriter(live, capture)
}
