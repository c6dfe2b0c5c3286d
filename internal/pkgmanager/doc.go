// Package pkgmanager selects the JavaScript package manager for a project and
// runs its install command. Commands are parsed and executed by an embedded
// POSIX shell interpreter, so a configured install command may use quoting,
// variables and && chains without depending on a system shell.
package pkgmanager
