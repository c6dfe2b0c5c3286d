// Package branding provides compile-time identity values for the CLI.
//
// Forks edit branding.yaml in this package before building; Go's //go:embed
// bakes it into the binary, including the default template repository.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName         string `yaml:"cli_name"`
	DisplayName     string `yaml:"display_name"`
	Description     string `yaml:"description"`
	HomeDir         string `yaml:"home_dir"`
	EnvPrefix       string `yaml:"env_prefix"`
	GoModule        string `yaml:"go_module"`
	TemplateRepoURL string `yaml:"template_repo_url"`
	PackageManager  string `yaml:"package_manager"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:         "nextbase",
			DisplayName:     "Nextbase",
			Description:     "Bootstrap a new Next.js project from the base template",
			HomeDir:         ".nextbase",
			EnvPrefix:       "NEXTBASE",
			GoModule:        "github.com/nextbase-labs/nextbase",
			TemplateRepoURL: "https://github.com/xuantuong265/base-app-nextjs.git",
			PackageManager:  "yarn",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "nextbase").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".nextbase").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "NEXTBASE").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// TemplateRepoURL returns the git URL cloned by "create" when nothing else
// overrides it.
func TemplateRepoURL() string { load(); return defaults.TemplateRepoURL }

// PackageManager returns the default package manager used for the install step.
func PackageManager() string { load(); return defaults.PackageManager }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "NEXTBASE_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
