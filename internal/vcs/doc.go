// Package vcs wraps the git command-line client. It clones template
// repositories, initializes fresh repositories and reports the installed git
// version so callers can gate features on it.
package vcs
