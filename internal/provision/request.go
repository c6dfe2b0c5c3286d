package provision

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Request is one provisioning job.
type Request struct {
	// ProjectName is the directory name and the new package.json name.
	ProjectName string
	// TargetDir is the absolute project directory.
	TargetDir string
}

// NewRequest resolves projectName against workDir.
func NewRequest(projectName, workDir string) (Request, error) {
	if err := ValidateName(projectName); err != nil {
		return Request{}, err
	}
	target, err := filepath.Abs(filepath.Join(workDir, projectName))
	if err != nil {
		return Request{}, fmt.Errorf("resolving target directory: %w", err)
	}
	return Request{ProjectName: projectName, TargetDir: target}, nil
}

// ValidateName checks that name can serve as a single directory name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name must not be empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q is not a directory name", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: name contains a NUL byte", ErrInvalidName)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: %q has leading or trailing whitespace", ErrInvalidName, name)
	}
	return nil
}
