// Package config manages user-level settings stored at ~/.nextbase/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the template repository URL and the package manager used by "create".
package config
