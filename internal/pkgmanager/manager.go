package pkgmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Supported package manager identifiers.
const (
	Yarn = "yarn"
	NPM  = "npm"
	PNPM = "pnpm"
	Bun  = "bun"

	// Auto selects a manager from the project's lockfiles.
	Auto = "auto"
)

// ErrUnknownManager is returned for identifiers outside the supported set.
var ErrUnknownManager = errors.New("unknown package manager")

// Manager describes one package manager.
type Manager struct {
	Name           string
	InstallCommand string
	// Lockfiles are the files whose presence selects this manager in auto mode.
	Lockfiles []string
}

var managers = map[string]Manager{
	Yarn: {Name: Yarn, InstallCommand: "yarn install", Lockfiles: []string{"yarn.lock"}},
	NPM:  {Name: NPM, InstallCommand: "npm install", Lockfiles: []string{"package-lock.json", "npm-shrinkwrap.json"}},
	PNPM: {Name: PNPM, InstallCommand: "pnpm install", Lockfiles: []string{"pnpm-lock.yaml"}},
	Bun:  {Name: Bun, InstallCommand: "bun install", Lockfiles: []string{"bun.lockb", "bun.lock"}},
}

// detectOrder is the lockfile precedence used when several are present.
var detectOrder = []string{Bun, PNPM, Yarn, NPM}

// Names returns the supported identifiers, sorted, without Auto.
func Names() []string {
	names := make([]string, 0, len(managers))
	for n := range managers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the manager registered under name.
func Lookup(name string) (Manager, error) {
	m, ok := managers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Manager{}, fmt.Errorf("%w %q: supported values are %s and %q",
			ErrUnknownManager, name, strings.Join(Names(), ", "), Auto)
	}
	return m, nil
}

// Resolve returns the manager for name. Auto inspects dir and falls back to
// fallback when nothing identifies a manager.
func Resolve(name, dir, fallback string) (Manager, error) {
	if strings.EqualFold(strings.TrimSpace(name), Auto) {
		if m, ok := Detect(dir); ok {
			return m, nil
		}
		return Lookup(fallback)
	}
	return Lookup(name)
}

// Detect identifies the manager a project uses, first from the "packageManager"
// field of package.json (e.g. "pnpm@9.1.0"), then from lockfiles.
func Detect(dir string) (Manager, bool) {
	if m, ok := fromPackageJSON(dir); ok {
		return m, true
	}
	for _, name := range detectOrder {
		m := managers[name]
		for _, lock := range m.Lockfiles {
			if _, err := os.Stat(filepath.Join(dir, lock)); err == nil {
				return m, true
			}
		}
	}
	return Manager{}, false
}

func fromPackageJSON(dir string) (Manager, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return Manager{}, false
	}
	var pkg struct {
		PackageManager string `json:"packageManager"`
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.PackageManager == "" {
		return Manager{}, false
	}
	name, _, _ := strings.Cut(pkg.PackageManager, "@")
	m, ok := managers[name]
	return m, ok
}

// Available reports whether the manager's binary is on PATH.
func (m Manager) Available() (string, error) {
	p, err := exec.LookPath(m.Name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", m.Name, err)
	}
	return p, nil
}

// Version runs "<manager> --version" and parses the result.
func (m Manager) Version(ctx context.Context) (*semver.Version, error) {
	bin, err := m.Available()
	if err != nil {
		return nil, err
	}
	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("running %s --version: %w", m.Name, err)
	}
	raw := strings.TrimPrefix(strings.TrimSpace(string(out)), "v")
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s version %q: %w", m.Name, raw, err)
	}
	return v, nil
}
