package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/nextbase-labs/nextbase/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Known configuration keys.
const (
	KeyTemplateRepo   = "template_repo"
	KeyTemplateBranch = "template_branch"
	KeyPackageManager = "package_manager"
	KeyInstallCommand = "install_command"
	KeyInstallTimeout = "install_timeout"
	KeyInitialBranch  = "initial_branch"
)

// Keys lists every supported key in display order.
var Keys = []string{
	KeyTemplateRepo,
	KeyTemplateBranch,
	KeyPackageManager,
	KeyInstallCommand,
	KeyInstallTimeout,
	KeyInitialBranch,
}

// Dir returns the path to the config directory (~/.nextbase/).
// NEXTBASE_HOME overrides the location.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.nextbase/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
// path overrides the default file location when non-empty.
func Load(path string) error {
	if path == "" {
		path = FilePath()
	}
	viper.SetConfigFile(path)
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	viper.SetDefault(KeyPackageManager, branding.PackageManager())
	viper.SetDefault(KeyInstallTimeout, "0s")

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is the normal first-run state.
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// All returns the effective value of every known key.
func All() map[string]string {
	out := make(map[string]string, len(Keys))
	for _, k := range Keys {
		out[k] = viper.GetString(k)
	}
	return out
}

// IsKnownKey reports whether key is a supported configuration key.
func IsKnownKey(key string) bool {
	return slices.Contains(Keys, key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q (known keys: %v)", key, Keys)
	}
	if key == KeyInstallTimeout {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
	}

	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = FilePath()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// TemplateRepoURL returns the template repository URL, checking (in order):
// 1. NEXTBASE_TEMPLATE_REPO_URL env var
// 2. config key "template_repo"
// 3. branding.TemplateRepoURL() (from branding.yaml)
func TemplateRepoURL() string {
	if v := os.Getenv(branding.EnvVar("TEMPLATE_REPO_URL")); v != "" {
		return v
	}
	if v := Get(KeyTemplateRepo); v != "" {
		return v
	}
	return branding.TemplateRepoURL()
}

// InstallTimeout returns the configured install deadline. Zero means none.
func InstallTimeout() (time.Duration, error) {
	raw := Get(KeyInstallTimeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", KeyInstallTimeout, raw, err)
	}
	return d, nil
}
