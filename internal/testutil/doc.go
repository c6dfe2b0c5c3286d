// Package testutil holds helpers shared by package tests: throwaway git
// template repositories and file assertions.
package testutil
